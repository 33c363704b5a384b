package service

import (
	"fmt"
	"sort"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// rtoTaxReversalFactor reverses the tax charged on the forward COD charge
// when an RTO refunds it.
var rtoTaxReversalFactor = decimal.NewFromFloat(1.18)

// TrackingService reconciles external tracking feeds into order lifecycle
// state, milestones and the financial side effects of delivery and RTO.
type TrackingService struct {
	orderRepo     repository.OrderRepository
	contractRepo  repository.ContractRepository
	walletSvc     *WalletService
	freightSvc    *FreightService
	remittanceSvc *RemittanceService
	ndrSvc        *NdrService
	notifier      Notifier
}

// NewTrackingService creates a tracking service.
func NewTrackingService(
	orderRepo repository.OrderRepository,
	contractRepo repository.ContractRepository,
	walletSvc *WalletService,
	freightSvc *FreightService,
	remittanceSvc *RemittanceService,
	ndrSvc *NdrService,
	notifier Notifier,
) *TrackingService {
	return &TrackingService{
		orderRepo:     orderRepo,
		contractRepo:  contractRepo,
		walletSvc:     walletSvc,
		freightSvc:    freightSvc,
		remittanceSvc: remittanceSvc,
		ndrSvc:        ndrSvc,
		notifier:      notifier,
	}
}

// ApplyRawEvents normalizes and applies a vendor event batch to an order.
// Reprocessing the same batch is a no-op: the feed is deduplicated on
// (status, datetime), milestones are first-write-wins and wallet postings
// key on the AWB. NDR processing runs after the main transaction commits
// and its failures are swallowed.
func (s *TrackingService) ApplyRawEvents(orderID uint, rawEvents []courier.TrackingEvent) error {
	events := normalizeEvents(rawEvents)
	if len(events) == 0 {
		return nil
	}

	var order *models.Order
	var statusBefore string
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		current, err := txOrders.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.AWBNumber == "" || current.Status == constants.OrderStatusCancelled {
			// Nothing to reconcile for unbooked or cancelled orders.
			order = current
			statusBefore = current.Status
			return nil
		}
		statusBefore = current.Status

		appended := mergeTrackingFeed(current, events)
		applyMilestones(current)

		if current.DeliveredDate != nil {
			if err := s.applyDeliveredEffects(tx, current); err != nil {
				return err
			}
		}
		if current.RTOInitiatedDate != nil && current.RTOFreight == nil {
			if err := s.applyRTOEffects(tx, current); err != nil {
				return err
			}
		}

		s.advanceStatus(current, events)

		if err := txOrders.Save(current); err != nil {
			return err
		}
		if appended > 0 {
			logger.Infow("tracking_events_applied",
				"client_id", current.ClientID,
				"order_id", current.OrderID,
				"awb", current.AWBNumber,
				"appended", appended,
				"status", current.Status)
		}
		order = current
		return nil
	})
	if err != nil {
		return err
	}
	if order == nil || order.AWBNumber == "" || order.Status == constants.OrderStatusCancelled {
		return nil
	}

	s.processNdrIsolated(order, events)
	s.notifyTransition(order, statusBefore)
	return nil
}

// ApplyForAWB resolves the order by AWB and applies the batch; entry point
// for partner webhooks.
func (s *TrackingService) ApplyForAWB(awb string, rawEvents []courier.TrackingEvent) error {
	order, err := s.orderRepo.GetByAWB(awb)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	return s.ApplyRawEvents(order.ID, rawEvents)
}

// normalizeEvents maps vendor statuses to the canonical vocabulary, parses
// datetimes and sorts chronologically. Events with an unknown status are
// dropped here so downstream logic only sees canonical values.
func normalizeEvents(rawEvents []courier.TrackingEvent) []NormalizedEvent {
	events := make([]NormalizedEvent, 0, len(rawEvents))
	for _, raw := range rawEvents {
		canonical := NormalizeTrackingStatus(raw.Status)
		if canonical == "" {
			logger.Debugw("tracking_status_unrecognized", "raw_status", raw.Status)
			continue
		}
		parsed, ok := ParseTrackingDatetime(raw.Datetime)
		events = append(events, NormalizedEvent{
			Status:      canonical,
			RawStatus:   raw.Status,
			Datetime:    parsed,
			HasDatetime: ok,
			Description: raw.Description,
			Location:    raw.Location,
		})
	}
	// Events without a parseable datetime sort after dated ones so the
	// chronological walk sees them last, in their arrival order.
	sort.SliceStable(events, func(i, j int) bool {
		if events[i].HasDatetime != events[j].HasDatetime {
			return events[i].HasDatetime
		}
		if !events[i].HasDatetime {
			return false
		}
		return events[i].Datetime.Before(events[j].Datetime)
	})
	return events
}

// mergeTrackingFeed appends events the feed has not seen, deduplicated on
// (canonical status, datetime). Returns the number appended.
func mergeTrackingFeed(order *models.Order, events []NormalizedEvent) int {
	seen := make(map[string]bool, len(order.TrackingInfo))
	for _, existing := range order.TrackingInfo {
		seen[existing.Status+"|"+existing.Datetime] = true
	}
	appended := 0
	for _, event := range events {
		datetime := ""
		if event.HasDatetime {
			datetime = event.Datetime.Format("2006-01-02 15:04:05")
		}
		key := event.Status + "|" + datetime
		if seen[key] {
			continue
		}
		seen[key] = true
		order.TrackingInfo = append(order.TrackingInfo, models.TrackingEvent{
			Status:      event.Status,
			RawStatus:   event.RawStatus,
			Datetime:    datetime,
			Description: event.Description,
			Location:    event.Location,
		})
		appended++
	}
	return appended
}

// applyMilestones walks the full feed chronologically and captures each
// milestone from its first occurrence. A milestone already set is never
// overwritten.
func applyMilestones(order *models.Order) {
	type slot struct {
		status string
		field  **time.Time
	}
	slots := []slot{
		{constants.TrackingStatusOutForPickup, &order.FirstOFPDate},
		{constants.TrackingStatusPickupCompleted, &order.PickupCompletionDate},
		{constants.TrackingStatusOutForDelivery, &order.FirstOFDDate},
		{constants.TrackingStatusDelivered, &order.DeliveredDate},
		{constants.TrackingStatusRTO, &order.RTOInitiatedDate},
		{constants.TrackingStatusRTODelivered, &order.RTODeliveredDate},
	}

	var latest *time.Time
	for _, entry := range order.TrackingInfo {
		parsed, ok := ParseTrackingDatetime(entry.Datetime)
		if !ok {
			continue
		}
		for _, sl := range slots {
			if entry.Status == sl.status && *sl.field == nil {
				t := parsed
				*sl.field = &t
			}
		}
		if latest == nil || parsed.After(*latest) {
			t := parsed
			latest = &t
		}
	}
	if latest != nil {
		order.LastUpdateDate = latest
	}
}

// applyDeliveredEffects realizes the COD for a delivered order exactly once:
// assigns the remittance cycle and moves the order total from provisional to
// realized COD.
func (s *TrackingService) applyDeliveredEffects(tx *gorm.DB, order *models.Order) error {
	if order.PaymentMode != constants.PaymentModeCOD || order.CODRemittanceCycleID != nil {
		return nil
	}
	cycle, err := s.remittanceSvc.AccumulateInTx(tx, order.ClientID, *order.DeliveredDate, order.TotalAmount)
	if err != nil {
		return err
	}
	order.CODRemittanceCycleID = &cycle.ID

	if _, err := s.walletSvc.ApplyInTx(tx, WalletPosting{
		ClientID:         order.ClientID,
		Type:             constants.WalletTxnTypeCODRealized,
		CODDelta:         order.TotalAmount.Decimal,
		ProvisionalDelta: order.TotalAmount.Decimal.Neg(),
		Reference:        "cod:" + order.AWBNumber,
		Remark:           "cod realized for order " + order.OrderID,
	}); err != nil {
		return err
	}
	return nil
}

// applyRTOEffects charges the return leg exactly once: computes RTO
// freight/tax from the booking contract, credits back the forward COD charge
// with its tax and debits the RTO amount in one reversing posting.
func (s *TrackingService) applyRTOEffects(tx *gorm.DB, order *models.Order) error {
	if order.ContractID == nil {
		return fmt.Errorf("order %s has no booking contract for rto pricing", order.OrderID)
	}
	contract, err := s.contractRepo.WithTx(tx).GetByID(*order.ContractID)
	if err != nil {
		return err
	}
	if contract == nil {
		return ErrContractNotFound
	}
	quote, err := s.freightSvc.QuoteRTO(order, contract)
	if err != nil {
		return err
	}

	codRefund := models.NewMoneyFromDecimal(order.ForwardCODCharge.Decimal.Mul(rtoTaxReversalFactor))
	rtoCharge := models.NewMoneyFromDecimal(quote.Freight.Decimal.Add(quote.Tax.Decimal))

	provisionalDelta := decimal.Zero
	if order.PaymentMode == constants.PaymentModeCOD && order.CODRemittanceCycleID == nil {
		provisionalDelta = order.TotalAmount.Decimal.Neg()
	}
	if _, err := s.walletSvc.ApplyInTx(tx, WalletPosting{
		ClientID:         order.ClientID,
		Type:             constants.WalletTxnTypeRTOCharge,
		Credit:           codRefund,
		Debit:            rtoCharge,
		ProvisionalDelta: provisionalDelta,
		Reference:        "rto:" + order.AWBNumber,
		Remark:           "rto charge for order " + order.OrderID,
		AllowNegative:    true,
	}); err != nil {
		return err
	}

	order.RTOFreight = &quote.Freight
	order.RTOTax = &quote.Tax
	order.ForwardCODCharge = models.NewMoneyFromDecimal(decimal.Zero)
	order.ForwardTax = s.freightSvc.ForwardTax(order.ForwardFreight)
	return nil
}

// advanceStatus moves the order status toward the latest event's mapped
// state, honoring the transition guard.
func (s *TrackingService) advanceStatus(order *models.Order, events []NormalizedEvent) {
	var latest *NormalizedEvent
	for i := range events {
		event := &events[i]
		if !event.HasDatetime {
			continue
		}
		if latest == nil || event.Datetime.After(latest.Datetime) {
			latest = event
		}
	}
	if latest == nil {
		return
	}
	target, ok := trackingToOrderStatus[latest.Status]
	if !ok {
		return
	}
	if canTransitionOrderStatus(order.Status, target) {
		order.Status = target
		order.SubStatus = latest.Description
	}
}

// processNdrIsolated runs NDR processing in its own transaction; any error
// or panic is logged and swallowed so it cannot affect the committed
// milestone and wallet updates.
func (s *TrackingService) processNdrIsolated(order *models.Order, events []NormalizedEvent) {
	defer func() {
		if r := recover(); r != nil {
			logger.Errorw("ndr_processing_panic", "order_id", order.OrderID, "panic", r)
		}
	}()
	if err := s.ndrSvc.ProcessEvents(order, events); err != nil {
		logger.Errorw("ndr_processing_failed", "order_id", order.OrderID, "error", err)
	}
}

func (s *TrackingService) notifyTransition(order *models.Order, statusBefore string) {
	if order.Status == statusBefore {
		return
	}
	var event string
	switch order.Status {
	case constants.OrderStatusDelivered:
		event = constants.NotifyEventDelivered
	case constants.OrderStatusNDR:
		event = constants.NotifyEventNDR
	case constants.OrderStatusRTO:
		event = constants.NotifyEventRTO
	case constants.OrderStatusRTODelivered:
		event = constants.NotifyEventRTODelivered
	default:
		return
	}
	s.notifier.NotifyOrderEvent(order.ID, event)
}
