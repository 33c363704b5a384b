package service

import (
	"context"
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/courier"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// BookingResult is the outcome of one booking attempt.
type BookingResult struct {
	Booked     bool          `json:"booked"`
	Processing bool          `json:"processing"`
	AWBNumber  string        `json:"awb_number,omitempty"`
	Partner    string        `json:"courier_partner,omitempty"`
	Quote      *FreightQuote `json:"quote,omitempty"`
	Message    string        `json:"message,omitempty"`
}

// BookingService books single order+contract candidates against the external
// courier and commits the order and wallet mutations atomically.
type BookingService struct {
	orderRepo     repository.OrderRepository
	contractRepo  repository.ContractRepository
	freightSvc    *FreightService
	walletSvc     *WalletService
	policySvc     *PolicyService
	credentialSvc *CredentialService
	adapters      *courier.Registry
	notifier      Notifier
}

// NewBookingService creates a booking service.
func NewBookingService(
	orderRepo repository.OrderRepository,
	contractRepo repository.ContractRepository,
	freightSvc *FreightService,
	walletSvc *WalletService,
	policySvc *PolicyService,
	credentialSvc *CredentialService,
	adapters *courier.Registry,
	notifier Notifier,
) *BookingService {
	return &BookingService{
		orderRepo:     orderRepo,
		contractRepo:  contractRepo,
		freightSvc:    freightSvc,
		walletSvc:     walletSvc,
		policySvc:     policySvc,
		credentialSvc: credentialSvc,
		adapters:      adapters,
		notifier:      notifier,
	}
}

// bookingReference keys the wallet debit for an AWB.
func bookingReference(awb string) string {
	return "booking:" + awb
}

// Book attempts to book one order against one contract. Re-booking an
// already-booked order is benign and returns the existing AWB without
// touching the wallet. A failed courier call records the error on the order
// and returns it so the selection engine can advance to the next candidate;
// a "processing" reply leaves the order unbooked with no wallet debit.
func (s *BookingService) Book(ctx context.Context, client *models.Client, orderID, contractID uint) (*BookingResult, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ClientID != client.ID {
		return nil, ErrOrderNotFound
	}
	if order.AWBNumber != "" {
		return &BookingResult{
			Booked:    true,
			AWBNumber: order.AWBNumber,
			Partner:   order.CourierPartner,
			Message:   "already assigned",
		}, nil
	}
	if order.Status != constants.OrderStatusNew {
		return nil, ErrOrderNotBookable
	}

	contract, err := s.contractRepo.GetByIDAndClient(contractID, client.ID)
	if err != nil {
		return nil, err
	}
	if contract == nil || !contract.Active || contract.Partner == nil {
		return nil, ErrContractNotFound
	}

	quote, err := s.freightSvc.QuoteForward(order, contract)
	if err != nil {
		return nil, err
	}

	// Balance gate before any external call.
	orderCharge := s.policySvc.OrderCharge(client.ID)
	balance, err := s.walletSvc.Balance(client.ID)
	if err != nil {
		return nil, err
	}
	if balance.Decimal.LessThan(orderCharge.Decimal) {
		return nil, ErrInsufficientBalance
	}

	creds, err := s.credentialSvc.Resolve(client.ID, "", contract.Partner)
	if err != nil {
		return nil, err
	}
	adapter, err := s.adapters.Get(contract.Partner.AdapterSlug)
	if err != nil {
		return nil, err
	}

	// The external call runs outside any database transaction so no row
	// lock is held across the network round trip.
	createResult, err := adapter.CreateOrder(ctx, order, creds)
	if err != nil {
		s.recordBookingError(order.ID, contract.Partner.Slug, err.Error())
		return nil, err
	}
	if createResult.Processing {
		s.recordBookingError(order.ID, contract.Partner.Slug, "")
		logger.Infow("booking_processing",
			"client_id", client.ID, "order_id", order.OrderID, "partner", contract.Partner.Slug)
		return &BookingResult{Processing: true, Partner: contract.Partner.Slug, Message: createResult.Message}, nil
	}
	if createResult.AWBNumber == "" {
		s.recordBookingError(order.ID, contract.Partner.Slug, createResult.Message)
		return nil, ErrAllBookingsFailed
	}

	result := &BookingResult{
		Booked:    true,
		AWBNumber: createResult.AWBNumber,
		Partner:   contract.Partner.Slug,
		Quote:     quote,
	}
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		current, err := txOrders.GetByIDForUpdate(order.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.AWBNumber != "" {
			// Raced with another booking attempt; keep the first result.
			result.AWBNumber = current.AWBNumber
			result.Partner = current.CourierPartner
			result.Message = "already assigned"
			result.Quote = nil
			return nil
		}

		provisionalDelta := decimal.Zero
		if current.PaymentMode == constants.PaymentModeCOD {
			provisionalDelta = current.TotalAmount.Decimal
		}
		if _, err := s.walletSvc.ApplyInTx(tx, WalletPosting{
			ClientID:         client.ID,
			Type:             constants.WalletTxnTypeBookingCharge,
			Debit:            orderCharge,
			ProvisionalDelta: provisionalDelta,
			Reference:        bookingReference(createResult.AWBNumber),
			Remark:           "booking charge for order " + current.OrderID,
		}); err != nil {
			return err
		}

		now := time.Now()
		current.Status = constants.OrderStatusBooked
		current.SubStatus = ""
		current.AWBNumber = createResult.AWBNumber
		current.PartnerID = &contract.PartnerID
		current.CourierPartner = contract.Partner.Slug
		contractID := contract.ID
		current.ContractID = &contractID
		current.ForwardFreight = quote.Freight
		current.ForwardCODCharge = quote.CODCharge
		current.ForwardTax = quote.Tax
		current.BookingDate = &now
		current.LastUpdateDate = &now
		current.ShipmentBookingError = ""
		current.ActionHistory = append(current.ActionHistory, models.ActionEntry{
			Action:   "shipment_booked",
			Datetime: now.Format(time.RFC3339),
			Remark:   contract.Partner.Slug + " / " + createResult.AWBNumber,
		})
		return txOrders.Save(current)
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("shipment_booked",
		"client_id", client.ID,
		"order_id", order.OrderID,
		"awb", result.AWBNumber,
		"partner", result.Partner)
	s.notifier.NotifyOrderEvent(order.ID, constants.NotifyEventBooked)
	return result, nil
}

// Cancel cancels a shipment in a pre-transit state, reverses the booking
// debit in one transaction and clears the courier assignment.
func (s *BookingService) Cancel(ctx context.Context, client *models.Client, orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.ClientID != client.ID {
		return nil, ErrOrderNotFound
	}
	switch order.Status {
	case constants.OrderStatusNew, constants.OrderStatusBooked, constants.OrderStatusPickup:
	default:
		return nil, ErrCancelNotAllowed
	}

	// Best-effort cancellation on the partner side; a failure there does
	// not block releasing the shipment locally.
	if order.AWBNumber != "" && order.PartnerID != nil {
		if partner, err := s.contractRepo.GetPartnerByID(*order.PartnerID); err == nil && partner != nil {
			if creds, err := s.credentialSvc.Resolve(client.ID, "", partner); err == nil {
				if adapter, err := s.adapters.Get(partner.AdapterSlug); err == nil {
					if cancelErr := adapter.CancelShipment(ctx, order.AWBNumber, creds); cancelErr != nil {
						logger.Warnw("courier_cancel_failed",
							"order_id", order.OrderID, "awb", order.AWBNumber, "error", cancelErr)
					}
				}
			}
		}
	}

	var cancelled *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		txOrders := s.orderRepo.WithTx(tx)
		current, err := txOrders.GetByIDForUpdate(order.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrOrderNotFound
		}
		if current.Status == constants.OrderStatusCancelled {
			cancelled = current
			return nil
		}

		awb := current.AWBNumber
		if awb != "" {
			// Reverse exactly what the booking posted.
			bookingLog, err := s.walletSvc.walletRepo.WithTx(tx).GetLogByReference(bookingReference(awb))
			if err != nil {
				return err
			}
			if bookingLog != nil {
				provisionalDelta := decimal.Zero
				if current.PaymentMode == constants.PaymentModeCOD {
					provisionalDelta = current.TotalAmount.Decimal.Neg()
				}
				if _, err := s.walletSvc.ApplyInTx(tx, WalletPosting{
					ClientID:         client.ID,
					Type:             constants.WalletTxnTypeBookingRefund,
					Credit:           bookingLog.Debit,
					ProvisionalDelta: provisionalDelta,
					Reference:        "cancel:" + awb,
					Remark:           "cancellation refund for order " + current.OrderID,
				}); err != nil {
					return err
				}
			}
		}

		now := time.Now()
		current.Status = constants.OrderStatusCancelled
		current.SubStatus = ""
		current.AWBNumber = ""
		current.PartnerID = nil
		current.CourierPartner = ""
		current.ContractID = nil
		current.CancelCount++
		current.LastUpdateDate = &now
		current.ActionHistory = append(current.ActionHistory, models.ActionEntry{
			Action:   "shipment_cancelled",
			Datetime: now.Format(time.RFC3339),
			Remark:   awb,
		})
		if err := txOrders.Save(current); err != nil {
			return err
		}
		cancelled = current
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("shipment_cancelled", "client_id", client.ID, "order_id", order.OrderID)
	s.notifier.NotifyOrderEvent(order.ID, constants.NotifyEventCancelled)
	return cancelled, nil
}

func (s *BookingService) recordBookingError(orderID uint, partnerSlug, message string) {
	updates := map[string]interface{}{"shipment_booking_error": message}
	if message == "" {
		updates["sub_status"] = "booking_processing"
	}
	if err := s.orderRepo.UpdateFields(orderID, updates); err != nil {
		logger.Errorw("booking_error_record_failed",
			"order_id", orderID, "partner", partnerSlug, "error", err)
	}
}
