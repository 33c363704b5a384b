package service

import (
	"strings"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
)

// volumetricDivisor converts cm^3 to kg for volumetric weight.
var volumetricDivisor = decimal.NewFromInt(5000)

// CreateOrderInput is one order ingestion request.
type CreateOrderInput struct {
	OrderID            string  `json:"order_id" binding:"required"`
	MarketplaceOrderID string  `json:"marketplace_order_id"`
	ConsigneeName      string  `json:"consignee_name" binding:"required"`
	ConsigneePhone     string  `json:"consignee_phone"`
	ConsigneeEmail     string  `json:"consignee_email"`
	ConsigneeAddress   string  `json:"consignee_address" binding:"required"`
	ConsigneeCity      string  `json:"consignee_city"`
	ConsigneeState     string  `json:"consignee_state"`
	ConsigneePincode   string  `json:"consignee_pincode" binding:"required"`
	PickupPincode      string  `json:"pickup_pincode" binding:"required"`
	PaymentMode        string  `json:"payment_mode" binding:"required"`
	TotalAmount        string  `json:"total_amount" binding:"required"`
	Weight             string  `json:"weight" binding:"required"` // kg
	LengthCM           float64 `json:"length_cm"`
	BreadthCM          float64 `json:"breadth_cm"`
	HeightCM           float64 `json:"height_cm"`
	OrderTags          []string `json:"order_tags"`
}

// OrderService owns order ingestion and reads. Booking and tracking
// mutations live in their own services.
type OrderService struct {
	orderRepo repository.OrderRepository
	zoneSvc   *ZoneService
	policySvc *PolicyService
}

// NewOrderService creates an order service.
func NewOrderService(orderRepo repository.OrderRepository, zoneSvc *ZoneService, policySvc *PolicyService) *OrderService {
	return &OrderService{orderRepo: orderRepo, zoneSvc: zoneSvc, policySvc: policySvc}
}

// Create ingests a new order: validates, normalizes the payment mode,
// computes weights and resolves the zone. The order number must be unique
// within the client.
func (s *OrderService) Create(client *models.Client, input CreateOrderInput) (*models.Order, error) {
	orderID := strings.TrimSpace(input.OrderID)
	if orderID == "" || strings.TrimSpace(input.ConsigneeName) == "" {
		return nil, ErrValidation
	}

	paymentMode, ok := normalizePaymentMode(input.PaymentMode)
	if !ok {
		return nil, ErrValidation
	}

	totalAmount, err := decimal.NewFromString(strings.TrimSpace(input.TotalAmount))
	if err != nil || totalAmount.IsNegative() {
		return nil, ErrValidation
	}
	deadWeight, err := decimal.NewFromString(strings.TrimSpace(input.Weight))
	if err != nil || deadWeight.LessThanOrEqual(decimal.Zero) {
		return nil, ErrValidation
	}

	existing, err := s.orderRepo.GetByClientAndOrderID(client.ID, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrOrderExists
	}

	length := decimal.NewFromFloat(input.LengthCM)
	breadth := decimal.NewFromFloat(input.BreadthCM)
	height := decimal.NewFromFloat(input.HeightCM)
	if length.IsZero() || breadth.IsZero() || height.IsZero() {
		length, breadth, height = s.policySvc.DefaultDimensions(client.ID)
	}
	volumetric := decimal.Zero
	if length.GreaterThan(decimal.Zero) && breadth.GreaterThan(decimal.Zero) && height.GreaterThan(decimal.Zero) {
		volumetric = length.Mul(breadth).Mul(height).Div(volumetricDivisor)
	}
	applicable := decimal.Max(deadWeight, volumetric)

	zone, err := s.zoneSvc.CalculateZone(input.PickupPincode, input.ConsigneePincode)
	if err != nil {
		return nil, err
	}

	order := &models.Order{
		ClientID:           client.ID,
		OrderID:            orderID,
		MarketplaceOrderID: strings.TrimSpace(input.MarketplaceOrderID),
		ConsigneeName:      strings.TrimSpace(input.ConsigneeName),
		ConsigneePhone:     strings.TrimSpace(input.ConsigneePhone),
		ConsigneeEmail:     strings.TrimSpace(input.ConsigneeEmail),
		ConsigneeAddress:   strings.TrimSpace(input.ConsigneeAddress),
		ConsigneeCity:      strings.TrimSpace(input.ConsigneeCity),
		ConsigneeState:     strings.TrimSpace(input.ConsigneeState),
		ConsigneePincode:   strings.TrimSpace(input.ConsigneePincode),
		PickupPincode:      strings.TrimSpace(input.PickupPincode),
		Weight:             models.NewWeightFromDecimal(deadWeight),
		VolumetricWeight:   models.NewWeightFromDecimal(volumetric),
		ApplicableWeight:   models.NewWeightFromDecimal(applicable),
		Zone:               zone,
		PaymentMode:        paymentMode,
		TotalAmount:        models.NewMoneyFromDecimal(totalAmount),
		Status:             constants.OrderStatusNew,
		OrderTags:          models.StringArray(input.OrderTags),
		ActionHistory: models.ActionHistory{{
			Action:   "order_created",
			Datetime: time.Now().Format(time.RFC3339),
		}},
	}
	if err := s.orderRepo.Create(order); err != nil {
		return nil, err
	}
	logger.Infow("order_created",
		"client_id", client.ID,
		"order_id", order.OrderID,
		"zone", order.Zone,
		"payment_mode", order.PaymentMode,
		"applicable_weight", order.ApplicableWeight.String())
	return order, nil
}

// Get fetches an order scoped to its owning client.
func (s *OrderService) Get(clientID, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ClientID != clientID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List pages a client's orders.
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// normalizePaymentMode folds vendor spellings into the canonical pair.
func normalizePaymentMode(raw string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "cod", "cash on delivery", "cash_on_delivery":
		return constants.PaymentModeCOD, true
	case "prepaid", "ppd", "online":
		return constants.PaymentModePrepaid, true
	default:
		return "", false
	}
}
