package provider

import (
	"time"

	"github.com/shipflow-next/internal/cache"
	"github.com/shipflow-next/internal/config"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/courier/delhivery"
	"github.com/shipflow-next/internal/courier/xpressbees"
	"github.com/shipflow-next/internal/http/handlers"
	"github.com/shipflow-next/internal/queue"
	"github.com/shipflow-next/internal/repository"
	"github.com/shipflow-next/internal/router"
	"github.com/shipflow-next/internal/service"
	"github.com/shipflow-next/internal/worker"

	"gorm.io/gorm"
)

// Container wires repositories, services and handlers together.
type Container struct {
	Cfg *config.Config

	Redis       *cache.Client
	QueueClient *queue.Client
	Adapters    *courier.Registry

	OrderRepo      repository.OrderRepository
	WalletRepo     repository.WalletRepository
	ClientRepo     repository.ClientRepository
	ContractRepo   repository.ContractRepository
	PincodeRepo    repository.PincodeRepository
	RuleRepo       repository.RuleRepository
	NdrRepo        repository.NdrRepository
	RemittanceRepo repository.RemittanceRepository

	AuthSvc       *service.AuthService
	ZoneSvc       *service.ZoneService
	FreightSvc    *service.FreightService
	PolicySvc     *service.PolicyService
	CredentialSvc *service.CredentialService
	WalletSvc     *service.WalletService
	OrderSvc      *service.OrderService
	BookingSvc    *service.BookingService
	SelectionSvc  *service.SelectionService
	RemittanceSvc *service.RemittanceService
	NdrSvc        *service.NdrService
	TrackingSvc   *service.TrackingService

	Handlers router.Handlers
	Worker   *worker.Worker
}

// Build assembles the full dependency graph on top of an open database.
func Build(cfg *config.Config, db *gorm.DB) *Container {
	c := &Container{Cfg: cfg}

	c.Redis = cache.New(cfg.Redis)
	c.QueueClient = queue.NewClient(cfg.Queue)

	adapterTimeout := time.Duration(cfg.Booking.AdapterTimeoutSeconds) * time.Second
	c.Adapters = courier.NewRegistry()
	c.Adapters.Register(delhivery.New(adapterTimeout))
	c.Adapters.Register(xpressbees.New(adapterTimeout))

	c.OrderRepo = repository.NewOrderRepository(db)
	c.WalletRepo = repository.NewWalletRepository(db)
	c.ClientRepo = repository.NewClientRepository(db)
	c.ContractRepo = repository.NewContractRepository(db)
	c.PincodeRepo = repository.NewPincodeRepository(db)
	c.RuleRepo = repository.NewRuleRepository(db)
	c.NdrRepo = repository.NewNdrRepository(db)
	c.RemittanceRepo = repository.NewRemittanceRepository(db)

	var notifier service.Notifier = service.LogNotifier{}
	if c.QueueClient != nil {
		notifier = c.QueueClient
	}

	c.AuthSvc = service.NewAuthService(c.ClientRepo, cfg.JWT)
	c.ZoneSvc = service.NewZoneService(c.PincodeRepo)
	c.FreightSvc = service.NewFreightService()
	c.PolicySvc = service.NewPolicyService(c.ClientRepo, cfg)
	c.CredentialSvc = service.NewCredentialService(c.ClientRepo)
	c.WalletSvc = service.NewWalletService(c.WalletRepo)
	c.OrderSvc = service.NewOrderService(c.OrderRepo, c.ZoneSvc, c.PolicySvc)
	c.BookingSvc = service.NewBookingService(
		c.OrderRepo, c.ContractRepo, c.FreightSvc, c.WalletSvc,
		c.PolicySvc, c.CredentialSvc, c.Adapters, notifier)
	c.SelectionSvc = service.NewSelectionService(
		c.ContractRepo, c.RuleRepo, c.FreightSvc, c.WalletSvc, c.PolicySvc, c.BookingSvc)
	c.RemittanceSvc = service.NewRemittanceService(c.RemittanceRepo, c.PolicySvc)
	c.NdrSvc = service.NewNdrService(c.NdrRepo, c.OrderRepo, c.PolicySvc)
	c.TrackingSvc = service.NewTrackingService(
		c.OrderRepo, c.ContractRepo, c.WalletSvc, c.FreightSvc,
		c.RemittanceSvc, c.NdrSvc, notifier)

	c.Handlers = router.Handlers{
		Auth:       handlers.NewAuthHandler(c.AuthSvc),
		Order:      handlers.NewOrderHandler(c.OrderSvc, c.SelectionSvc, c.BookingSvc, c.TrackingSvc),
		Ndr:        handlers.NewNdrHandler(c.NdrSvc),
		Wallet:     handlers.NewWalletHandler(c.WalletSvc),
		Remittance: handlers.NewRemittanceHandler(c.RemittanceSvc),
	}

	c.Worker = worker.New(cfg.Queue, c.OrderRepo, c.ContractRepo, c.CredentialSvc, c.TrackingSvc, c.Adapters)
	return c
}

// Close releases shared connections.
func (c *Container) Close() {
	if c.QueueClient != nil {
		_ = c.QueueClient.Close()
	}
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
}
