package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

type testEnv struct {
	db       *gorm.DB
	cfg      *config.Config
	fake     *fakeAdapter
	adapters *courier.Registry

	orderRepo      repository.OrderRepository
	walletRepo     repository.WalletRepository
	clientRepo     repository.ClientRepository
	contractRepo   repository.ContractRepository
	pincodeRepo    repository.PincodeRepository
	ruleRepo       repository.RuleRepository
	ndrRepo        repository.NdrRepository
	remittanceRepo repository.RemittanceRepository

	zoneSvc       *ZoneService
	freightSvc    *FreightService
	policySvc     *PolicyService
	credentialSvc *CredentialService
	walletSvc     *WalletService
	orderSvc      *OrderService
	bookingSvc    *BookingService
	selectionSvc  *SelectionService
	remittanceSvc *RemittanceService
	ndrSvc        *NdrService
	trackingSvc   *TrackingService
}

func newTestEnv(t *testing.T, name string) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Client{},
		&models.ClientConfig{},
		&models.CredentialRecord{},
		&models.Wallet{},
		&models.WalletLog{},
		&models.Order{},
		&models.CourierPartner{},
		&models.ClientContract{},
		&models.CourierRule{},
		&models.PincodeZone{},
		&models.Ndr{},
		&models.NdrHistory{},
		&models.CodRemittance{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cfg := &config.Config{
		Booking:    config.BookingConfig{OrderCharge: "2.00", AdapterTimeoutSeconds: 5},
		NDR:        config.NDRConfig{StaleAfterHours: 48},
		Remittance: config.RemittanceConfig{CadenceDays: 7, Weekdays: []int{1, 3, 5}},
	}

	env := &testEnv{db: db, cfg: cfg}
	env.fake = &fakeAdapter{slug: "fake"}
	env.adapters = courier.NewRegistry()
	env.adapters.Register(env.fake)

	env.orderRepo = repository.NewOrderRepository(db)
	env.walletRepo = repository.NewWalletRepository(db)
	env.clientRepo = repository.NewClientRepository(db)
	env.contractRepo = repository.NewContractRepository(db)
	env.pincodeRepo = repository.NewPincodeRepository(db)
	env.ruleRepo = repository.NewRuleRepository(db)
	env.ndrRepo = repository.NewNdrRepository(db)
	env.remittanceRepo = repository.NewRemittanceRepository(db)

	env.zoneSvc = NewZoneService(env.pincodeRepo)
	env.freightSvc = NewFreightService()
	env.policySvc = NewPolicyService(env.clientRepo, cfg)
	env.credentialSvc = NewCredentialService(env.clientRepo)
	env.walletSvc = NewWalletService(env.walletRepo)
	env.orderSvc = NewOrderService(env.orderRepo, env.zoneSvc, env.policySvc)
	env.bookingSvc = NewBookingService(
		env.orderRepo, env.contractRepo, env.freightSvc, env.walletSvc,
		env.policySvc, env.credentialSvc, env.adapters, LogNotifier{})
	env.selectionSvc = NewSelectionService(
		env.contractRepo, env.ruleRepo, env.freightSvc, env.walletSvc, env.policySvc, env.bookingSvc)
	env.remittanceSvc = NewRemittanceService(env.remittanceRepo, env.policySvc)
	env.ndrSvc = NewNdrService(env.ndrRepo, env.orderRepo, env.policySvc)
	env.trackingSvc = NewTrackingService(
		env.orderRepo, env.contractRepo, env.walletSvc, env.freightSvc,
		env.remittanceSvc, env.ndrSvc, LogNotifier{})
	return env
}

// fakeAdapter is a scripted courier adapter for tests.
type fakeAdapter struct {
	slug        string
	createFn    func(order *models.Order) (*courier.CreateOrderResult, error)
	trackFn     func(awb string) (*courier.TrackResult, error)
	cancelErr   error
	createCalls int
}

func (f *fakeAdapter) Slug() string { return f.slug }

func (f *fakeAdapter) CreateOrder(_ context.Context, order *models.Order, _ courier.Credentials) (*courier.CreateOrderResult, error) {
	f.createCalls++
	if f.createFn != nil {
		return f.createFn(order)
	}
	return &courier.CreateOrderResult{AWBNumber: "AWB-" + order.OrderID}, nil
}

func (f *fakeAdapter) TrackShipment(_ context.Context, awb string, _ courier.Credentials) (*courier.TrackResult, error) {
	if f.trackFn != nil {
		return f.trackFn(awb)
	}
	return nil, errors.New("tracking not scripted")
}

func (f *fakeAdapter) CancelShipment(_ context.Context, _ string, _ courier.Credentials) error {
	return f.cancelErr
}

func createTestClient(t *testing.T, env *testEnv, policy string) *models.Client {
	t.Helper()
	client := &models.Client{
		Name:            "Test Client",
		Email:           fmt.Sprintf("client_%d@example.com", time.Now().UnixNano()),
		SelectionPolicy: policy,
		Active:          true,
	}
	if err := env.db.Create(client).Error; err != nil {
		t.Fatalf("create client failed: %v", err)
	}
	return client
}

func createTestPartner(t *testing.T, env *testEnv, slug string) *models.CourierPartner {
	t.Helper()
	partner := &models.CourierPartner{
		Name:        slug,
		Slug:        slug,
		AdapterSlug: "fake",
		Active:      true,
	}
	if err := env.db.Create(partner).Error; err != nil {
		t.Fatalf("create partner failed: %v", err)
	}
	return partner
}

func createTestContract(t *testing.T, env *testEnv, clientID, partnerID uint, baseB, addB float64) *models.ClientContract {
	t.Helper()
	rates := func(base float64) models.ZoneRates {
		return models.ZoneRates{
			constants.ZoneA: models.NewMoneyFromFloat(base - 10),
			constants.ZoneB: models.NewMoneyFromFloat(base),
			constants.ZoneC: models.NewMoneyFromFloat(base + 10),
			constants.ZoneD: models.NewMoneyFromFloat(base + 20),
			constants.ZoneE: models.NewMoneyFromFloat(base + 30),
		}
	}
	contract := &models.ClientContract{
		ClientID:                clientID,
		PartnerID:               partnerID,
		BaseRates:               rates(baseB),
		AdditionalRates:         rates(addB),
		CODPercent:              models.NewMoneyFromFloat(1.5),
		CODAbsolute:             models.NewMoneyFromFloat(30),
		MinChargeableWeight:     models.NewWeightFromFloat(0.5),
		AdditionalWeightBracket: models.NewWeightFromFloat(0.5),
		Active:                  true,
	}
	if err := env.db.Create(contract).Error; err != nil {
		t.Fatalf("create contract failed: %v", err)
	}
	return contract
}

func createTestCredential(t *testing.T, env *testEnv, clientID, partnerID uint) {
	t.Helper()
	credential := &models.CredentialRecord{
		ClientID:  clientID,
		PartnerID: partnerID,
		APIKey:    "test-key",
		APISecret: "test-secret",
	}
	if err := env.db.Create(credential).Error; err != nil {
		t.Fatalf("create credential failed: %v", err)
	}
}

func createNewOrder(t *testing.T, env *testEnv, clientID uint, orderID, paymentMode string, total, weight float64) *models.Order {
	t.Helper()
	order := &models.Order{
		ClientID:         clientID,
		OrderID:          orderID,
		ConsigneeName:    "Test Consignee",
		ConsigneePhone:   "9999999999",
		ConsigneeAddress: "1 Test Street",
		ConsigneeCity:    "Pune",
		ConsigneeState:   "Maharashtra",
		ConsigneePincode: "411001",
		PickupPincode:    "400001",
		Weight:           models.NewWeightFromFloat(weight),
		ApplicableWeight: models.NewWeightFromFloat(weight),
		Zone:             constants.ZoneB,
		PaymentMode:      paymentMode,
		TotalAmount:      models.NewMoneyFromFloat(total),
		Status:           constants.OrderStatusNew,
	}
	if err := env.db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func fundWallet(t *testing.T, env *testEnv, clientID uint, amount float64) {
	t.Helper()
	if _, err := env.walletSvc.Recharge(clientID, models.NewMoneyFromFloat(amount),
		fmt.Sprintf("recharge:test:%d:%d", clientID, time.Now().UnixNano()), "test funding"); err != nil {
		t.Fatalf("fund wallet failed: %v", err)
	}
}

func countWalletLogs(t *testing.T, env *testEnv, clientID uint) int64 {
	t.Helper()
	var count int64
	if err := env.db.Model(&models.WalletLog{}).Where("client_id = ?", clientID).Count(&count).Error; err != nil {
		t.Fatalf("count wallet logs failed: %v", err)
	}
	return count
}

func bookedCODOrder(t *testing.T, env *testEnv, clientID uint, contract *models.ClientContract, orderID, awb string, total float64) *models.Order {
	t.Helper()
	now := time.Now().Add(-72 * time.Hour)
	contractID := contract.ID
	order := createNewOrder(t, env, clientID, orderID, constants.PaymentModeCOD, total, 0.5)
	order.Status = constants.OrderStatusBooked
	order.AWBNumber = awb
	order.PartnerID = &contract.PartnerID
	order.CourierPartner = "fake"
	order.ContractID = &contractID
	order.ForwardFreight = models.NewMoneyFromFloat(40)
	order.ForwardCODCharge = models.NewMoneyFromFloat(30)
	order.ForwardTax = models.NewMoneyFromFloat(12.60)
	order.BookingDate = &now
	if err := env.db.Save(order).Error; err != nil {
		t.Fatalf("save booked order failed: %v", err)
	}
	return order
}
