package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
)

// Candidate is one priced contract the selection engine may try.
type Candidate struct {
	Contract models.ClientContract
	Quote    *FreightQuote
}

// SelectionService orders booking candidates per the client's policy and
// tries them sequentially until the first success.
type SelectionService struct {
	contractRepo repository.ContractRepository
	ruleRepo     repository.RuleRepository
	freightSvc   *FreightService
	walletSvc    *WalletService
	policySvc    *PolicyService
	bookingSvc   *BookingService
}

// NewSelectionService creates a selection service.
func NewSelectionService(
	contractRepo repository.ContractRepository,
	ruleRepo repository.RuleRepository,
	freightSvc *FreightService,
	walletSvc *WalletService,
	policySvc *PolicyService,
	bookingSvc *BookingService,
) *SelectionService {
	return &SelectionService{
		contractRepo: contractRepo,
		ruleRepo:     ruleRepo,
		freightSvc:   freightSvc,
		walletSvc:    walletSvc,
		policySvc:    policySvc,
		bookingSvc:   bookingSvc,
	}
}

// Assign resolves candidates for the order per the client policy and books
// them strictly in order, stopping at the first success. Candidates the
// wallet cannot afford are skipped before any external call. manualContractID
// is only consulted under the manual policy.
func (s *SelectionService) Assign(ctx context.Context, client *models.Client, order *models.Order, manualContractID uint) (*BookingResult, error) {
	candidates, err := s.Candidates(client, order, manualContractID)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, ErrNoCandidates
	}

	orderCharge := s.policySvc.OrderCharge(client.ID)
	balance, err := s.walletSvc.Balance(client.ID)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, candidate := range candidates {
		if balance.Decimal.LessThan(orderCharge.Decimal) {
			lastErr = ErrInsufficientBalance
			continue
		}
		result, err := s.bookingSvc.Book(ctx, client, order.ID, candidate.Contract.ID)
		if err != nil {
			if errors.Is(err, ErrOrderAlreadyBooked) || errors.Is(err, ErrOrderNotBookable) {
				return nil, err
			}
			logger.Warnw("booking_candidate_failed",
				"client_id", client.ID,
				"order_id", order.OrderID,
				"contract_id", candidate.Contract.ID,
				"error", err)
			lastErr = err
			continue
		}
		// Success and processing both end the candidate walk; a pending
		// booking must not be raced by a second partner.
		return result, nil
	}

	if lastErr != nil {
		if errors.Is(lastErr, ErrInsufficientBalance) {
			return nil, ErrInsufficientBalance
		}
		return nil, ErrAllBookingsFailed
	}
	return nil, ErrNoCandidates
}

// Candidates resolves and orders the contracts the policy allows.
func (s *SelectionService) Candidates(client *models.Client, order *models.Order, manualContractID uint) ([]Candidate, error) {
	policy := client.SelectionPolicy
	if policy == "" {
		policy = constants.SelectionPolicyCheapest
	}

	switch policy {
	case constants.SelectionPolicyManual:
		return s.manualCandidates(client, order, manualContractID)
	case constants.SelectionPolicyCheapest:
		return s.cheapestCandidates(client, order)
	case constants.SelectionPolicyCustom:
		return s.priorityCandidates(client, order, client.CourierPriority)
	case constants.SelectionPolicyRules:
		return s.ruleCandidates(client, order)
	default:
		logger.Warnw("unknown_selection_policy", "client_id", client.ID, "policy", policy)
		return s.cheapestCandidates(client, order)
	}
}

func (s *SelectionService) manualCandidates(client *models.Client, order *models.Order, contractID uint) ([]Candidate, error) {
	if contractID == 0 {
		return nil, ErrValidation
	}
	contract, err := s.contractRepo.GetByIDAndClient(contractID, client.ID)
	if err != nil {
		return nil, err
	}
	if contract == nil || !contract.Active {
		return nil, ErrContractNotFound
	}
	quote, err := s.freightSvc.QuoteForward(order, contract)
	if err != nil {
		return nil, err
	}
	return []Candidate{{Contract: *contract, Quote: quote}}, nil
}

func (s *SelectionService) cheapestCandidates(client *models.Client, order *models.Order) ([]Candidate, error) {
	candidates, err := s.priceContracts(client, order, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Quote.Total.Decimal.LessThan(candidates[j].Quote.Total.Decimal)
	})
	return candidates, nil
}

// priorityCandidates filters contracts to the given partner slug list and
// orders them by the list's index.
func (s *SelectionService) priorityCandidates(client *models.Client, order *models.Order, priority models.StringArray) ([]Candidate, error) {
	if len(priority) == 0 {
		return nil, nil
	}
	rank := make(map[string]int, len(priority))
	for i, slug := range priority {
		slug = strings.ToLower(strings.TrimSpace(slug))
		if _, seen := rank[slug]; !seen {
			rank[slug] = i
		}
	}
	candidates, err := s.priceContracts(client, order, func(contract models.ClientContract) bool {
		if contract.Partner == nil {
			return false
		}
		_, ok := rank[strings.ToLower(contract.Partner.Slug)]
		return ok
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return rank[strings.ToLower(candidates[i].Contract.Partner.Slug)] <
			rank[strings.ToLower(candidates[j].Contract.Partner.Slug)]
	})
	return candidates, nil
}

// ruleCandidates walks the client's rules top to bottom; the first rule
// matching the order supplies the courier priority list. No match, no
// candidates.
func (s *SelectionService) ruleCandidates(client *models.Client, order *models.Order) ([]Candidate, error) {
	rules, err := s.ruleRepo.ListActiveByClient(client.ID)
	if err != nil {
		return nil, err
	}
	for _, rule := range rules {
		matched, err := evalRule(rule, order)
		if err != nil {
			logger.Warnw("courier_rule_invalid",
				"client_id", client.ID, "rule_id", rule.ID, "error", err)
			continue
		}
		if matched {
			return s.priorityCandidates(client, order, rule.CourierPriority)
		}
	}
	return nil, nil
}

func (s *SelectionService) priceContracts(client *models.Client, order *models.Order, keep func(models.ClientContract) bool) ([]Candidate, error) {
	contracts, err := s.contractRepo.ListActiveByClient(client.ID)
	if err != nil {
		return nil, err
	}
	candidates := make([]Candidate, 0, len(contracts))
	for _, contract := range contracts {
		if keep != nil && !keep(contract) {
			continue
		}
		quote, err := s.freightSvc.QuoteForward(order, &contract)
		if err != nil {
			// A contract missing rates for this zone is not a candidate.
			logger.Debugw("contract_not_priceable",
				"contract_id", contract.ID, "zone", order.Zone, "error", err)
			continue
		}
		candidates = append(candidates, Candidate{Contract: contract, Quote: quote})
	}
	return candidates, nil
}

// evalRule evaluates one rule predicate against the order through an
// explicit field/operator dispatch.
func evalRule(rule models.CourierRule, order *models.Order) (bool, error) {
	switch rule.Field {
	case constants.RuleFieldZone:
		return evalStringRule(order.Zone, rule.Operator, rule.Operands)
	case constants.RuleFieldPaymentMode:
		return evalStringRule(order.PaymentMode, rule.Operator, rule.Operands)
	case constants.RuleFieldConsigneeState:
		return evalStringRule(order.ConsigneeState, rule.Operator, rule.Operands)
	case constants.RuleFieldWeight:
		return evalDecimalRule(order.ApplicableWeight.Decimal, rule.Operator, rule.Operands)
	default:
		return false, errors.New("unknown rule field " + rule.Field)
	}
}

func evalStringRule(value, operator string, operands models.StringArray) (bool, error) {
	value = strings.ToLower(strings.TrimSpace(value))
	switch operator {
	case constants.RuleOperatorEq:
		if len(operands) != 1 {
			return false, errors.New("eq needs one operand")
		}
		return value == strings.ToLower(strings.TrimSpace(operands[0])), nil
	case constants.RuleOperatorIn:
		for _, operand := range operands {
			if value == strings.ToLower(strings.TrimSpace(operand)) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errors.New("operator " + operator + " not valid for string fields")
	}
}

func evalDecimalRule(value decimal.Decimal, operator string, operands models.StringArray) (bool, error) {
	parsed := make([]decimal.Decimal, 0, len(operands))
	for _, operand := range operands {
		d, err := decimal.NewFromString(strings.TrimSpace(operand))
		if err != nil {
			return false, err
		}
		parsed = append(parsed, d)
	}
	switch operator {
	case constants.RuleOperatorEq:
		if len(parsed) != 1 {
			return false, errors.New("eq needs one operand")
		}
		return value.Equal(parsed[0]), nil
	case constants.RuleOperatorGt:
		if len(parsed) != 1 {
			return false, errors.New("gt needs one operand")
		}
		return value.GreaterThan(parsed[0]), nil
	case constants.RuleOperatorLt:
		if len(parsed) != 1 {
			return false, errors.New("lt needs one operand")
		}
		return value.LessThan(parsed[0]), nil
	case constants.RuleOperatorBetween:
		if len(parsed) != 2 {
			return false, errors.New("between needs two operands")
		}
		return value.GreaterThanOrEqual(parsed[0]) && value.LessThanOrEqual(parsed[1]), nil
	case constants.RuleOperatorIn:
		for _, p := range parsed {
			if value.Equal(p) {
				return true, nil
			}
		}
		return false, nil
	default:
		return false, errors.New("operator " + operator + " not valid for numeric fields")
	}
}
