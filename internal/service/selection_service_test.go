package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
)

type selectionFixture struct {
	env      *testEnv
	client   *models.Client
	cheap    *models.ClientContract
	pricey   *models.ClientContract
	order    *models.Order
}

// newSelectionFixture seeds two contracts: "thrift" prices below "premium"
// in every zone.
func newSelectionFixture(t *testing.T, name, policy string) *selectionFixture {
	t.Helper()
	env := newTestEnv(t, name)
	client := createTestClient(t, env, policy)
	thrift := createTestPartner(t, env, "thrift")
	premium := createTestPartner(t, env, "premium")
	cheap := createTestContract(t, env, client.ID, thrift.ID, 40, 20)
	pricey := createTestContract(t, env, client.ID, premium.ID, 60, 30)
	createTestCredential(t, env, client.ID, thrift.ID)
	createTestCredential(t, env, client.ID, premium.ID)
	order := createNewOrder(t, env, client.ID, "ORD-SEL-1", constants.PaymentModeCOD, 1000, 0.6)
	return &selectionFixture{env: env, client: client, cheap: cheap, pricey: pricey, order: order}
}

func TestCandidatesCheapestOrdering(t *testing.T) {
	f := newSelectionFixture(t, "sel_cheapest", constants.SelectionPolicyCheapest)

	candidates, err := f.env.selectionSvc.Candidates(f.client, f.order, 0)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(candidates))
	}
	if candidates[0].Contract.ID != f.cheap.ID {
		t.Fatalf("first candidate contract = %d, want cheaper %d", candidates[0].Contract.ID, f.cheap.ID)
	}
	if !candidates[0].Quote.Total.Decimal.LessThan(candidates[1].Quote.Total.Decimal) {
		t.Fatalf("candidates not sorted by total: %s then %s",
			candidates[0].Quote.Total, candidates[1].Quote.Total)
	}
}

func TestAssignCheapestBooksFirstCandidate(t *testing.T) {
	f := newSelectionFixture(t, "sel_assign_cheapest", constants.SelectionPolicyCheapest)
	fundWallet(t, f.env, f.client.ID, 100)

	result, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !result.Booked || result.Partner != "thrift" {
		t.Fatalf("result = %+v, want booked via thrift", result)
	}
	if f.env.fake.createCalls != 1 {
		t.Fatalf("adapter calls = %d, want 1", f.env.fake.createCalls)
	}
}

func TestAssignAdvancesPastFailedCandidate(t *testing.T) {
	f := newSelectionFixture(t, "sel_failover", constants.SelectionPolicyCheapest)
	fundWallet(t, f.env, f.client.ID, 100)
	f.env.fake.createFn = func(order *models.Order) (*courier.CreateOrderResult, error) {
		if f.env.fake.createCalls == 1 {
			return nil, errors.New("manifest rejected")
		}
		return &courier.CreateOrderResult{AWBNumber: "AWB-FAILOVER"}, nil
	}

	result, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !result.Booked || result.Partner != "premium" {
		t.Fatalf("result = %+v, want booked via premium after thrift failed", result)
	}
	if f.env.fake.createCalls != 2 {
		t.Fatalf("adapter calls = %d, want 2", f.env.fake.createCalls)
	}

	order, err := f.env.orderSvc.Get(f.client.ID, f.order.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if order.ShipmentBookingError != "" {
		t.Fatalf("booking error not cleared on success: %q", order.ShipmentBookingError)
	}
}

func TestAssignStopsOnProcessing(t *testing.T) {
	f := newSelectionFixture(t, "sel_processing", constants.SelectionPolicyCheapest)
	fundWallet(t, f.env, f.client.ID, 100)
	f.env.fake.createFn = func(*models.Order) (*courier.CreateOrderResult, error) {
		return &courier.CreateOrderResult{Processing: true, Message: "queued"}, nil
	}

	result, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0)
	if err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	if !result.Processing {
		t.Fatalf("result = %+v, want processing", result)
	}
	// The pending booking must not be raced by the second candidate.
	if f.env.fake.createCalls != 1 {
		t.Fatalf("adapter calls = %d, want 1", f.env.fake.createCalls)
	}
}

func TestAssignAllCandidatesFail(t *testing.T) {
	f := newSelectionFixture(t, "sel_all_fail", constants.SelectionPolicyCheapest)
	fundWallet(t, f.env, f.client.ID, 100)
	f.env.fake.createFn = func(*models.Order) (*courier.CreateOrderResult, error) {
		return nil, errors.New("manifest rejected")
	}

	if _, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0); !errors.Is(err, ErrAllBookingsFailed) {
		t.Fatalf("got %v, want ErrAllBookingsFailed", err)
	}
	if f.env.fake.createCalls != 2 {
		t.Fatalf("adapter calls = %d, want 2", f.env.fake.createCalls)
	}
}

func TestAssignInsufficientBalance(t *testing.T) {
	f := newSelectionFixture(t, "sel_poor", constants.SelectionPolicyCheapest)

	if _, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0); !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("got %v, want ErrInsufficientBalance", err)
	}
	if f.env.fake.createCalls != 0 {
		t.Fatalf("adapter calls = %d, want 0", f.env.fake.createCalls)
	}
}

func TestCandidatesCustomPriority(t *testing.T) {
	f := newSelectionFixture(t, "sel_custom", constants.SelectionPolicyCustom)
	f.client.CourierPriority = models.StringArray{"premium", "thrift"}
	if err := f.env.db.Save(f.client).Error; err != nil {
		t.Fatalf("save failed: %v", err)
	}

	candidates, err := f.env.selectionSvc.Candidates(f.client, f.order, 0)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("candidate count = %d, want 2", len(candidates))
	}
	// Priority order wins even though premium prices higher.
	if candidates[0].Contract.ID != f.pricey.ID {
		t.Fatalf("first candidate contract = %d, want premium %d", candidates[0].Contract.ID, f.pricey.ID)
	}
}

func TestCandidatesManualPolicy(t *testing.T) {
	f := newSelectionFixture(t, "sel_manual", constants.SelectionPolicyManual)

	candidates, err := f.env.selectionSvc.Candidates(f.client, f.order, f.pricey.ID)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Contract.ID != f.pricey.ID {
		t.Fatalf("candidates = %+v, want only the chosen contract", candidates)
	}

	if _, err := f.env.selectionSvc.Candidates(f.client, f.order, 0); !errors.Is(err, ErrValidation) {
		t.Fatalf("missing contract id: got %v, want ErrValidation", err)
	}

	stranger := createTestClient(t, f.env, constants.SelectionPolicyManual)
	strangerPartner := createTestPartner(t, f.env, "outsider")
	foreign := createTestContract(t, f.env, stranger.ID, strangerPartner.ID, 40, 20)
	if _, err := f.env.selectionSvc.Candidates(f.client, f.order, foreign.ID); !errors.Is(err, ErrContractNotFound) {
		t.Fatalf("foreign contract: got %v, want ErrContractNotFound", err)
	}
}

func TestCandidatesRulePolicy(t *testing.T) {
	f := newSelectionFixture(t, "sel_rules", constants.SelectionPolicyRules)
	rules := []models.CourierRule{
		{
			ClientID:        f.client.ID,
			Position:        1,
			Field:           constants.RuleFieldWeight,
			Operator:        constants.RuleOperatorBetween,
			Operands:        models.StringArray{"5", "10"},
			CourierPriority: models.StringArray{"thrift"},
			Active:          true,
		},
		{
			ClientID:        f.client.ID,
			Position:        2,
			Field:           constants.RuleFieldZone,
			Operator:        constants.RuleOperatorIn,
			Operands:        models.StringArray{constants.ZoneA, constants.ZoneB},
			CourierPriority: models.StringArray{"premium"},
			Active:          true,
		},
	}
	if err := f.env.db.Create(&rules).Error; err != nil {
		t.Fatalf("create rules failed: %v", err)
	}

	// 0.6kg misses the weight rule; the zone B rule matches and routes to
	// premium only.
	candidates, err := f.env.selectionSvc.Candidates(f.client, f.order, 0)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Contract.ID != f.pricey.ID {
		t.Fatalf("candidates = %+v, want only premium", candidates)
	}

	// A heavier order hits the first rule instead.
	heavy := createNewOrder(t, f.env, f.client.ID, "ORD-SEL-HEAVY", constants.PaymentModeCOD, 1000, 7)
	candidates, err = f.env.selectionSvc.Candidates(f.client, heavy, 0)
	if err != nil {
		t.Fatalf("candidates failed: %v", err)
	}
	if len(candidates) != 1 || candidates[0].Contract.ID != f.cheap.ID {
		t.Fatalf("candidates = %+v, want only thrift", candidates)
	}
}

func TestAssignRulePolicyNoMatch(t *testing.T) {
	f := newSelectionFixture(t, "sel_rules_nomatch", constants.SelectionPolicyRules)
	fundWallet(t, f.env, f.client.ID, 100)
	rule := models.CourierRule{
		ClientID:        f.client.ID,
		Position:        1,
		Field:           constants.RuleFieldPaymentMode,
		Operator:        constants.RuleOperatorEq,
		Operands:        models.StringArray{constants.PaymentModePrepaid},
		CourierPriority: models.StringArray{"thrift"},
		Active:          true,
	}
	if err := f.env.db.Create(&rule).Error; err != nil {
		t.Fatalf("create rule failed: %v", err)
	}

	// COD order matches no rule: no candidates, no booking attempt.
	if _, err := f.env.selectionSvc.Assign(context.Background(), f.client, f.order, 0); !errors.Is(err, ErrNoCandidates) {
		t.Fatalf("got %v, want ErrNoCandidates", err)
	}
	if f.env.fake.createCalls != 0 {
		t.Fatalf("adapter calls = %d, want 0", f.env.fake.createCalls)
	}
}
