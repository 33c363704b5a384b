package service

import (
	"time"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"gorm.io/gorm"
)

// NormalizedEvent is one tracking event after alias normalization and
// datetime parsing.
type NormalizedEvent struct {
	Status      string // canonical tracking status
	RawStatus   string
	Datetime    time.Time
	HasDatetime bool
	Description string
	Location    string
}

// ndrTerminal marks NDR statuses no event may change.
func ndrTerminal(status string) bool {
	return status == constants.NdrStatusDelivered || status == constants.NdrStatusRTO
}

// NdrHealthReport is the NDR consistency check result.
type NdrHealthReport struct {
	OrphanedNdrs         []models.Ndr   `json:"orphaned_ndrs"`
	OrdersMissingNdr     []models.Order `json:"orders_missing_ndr"`
	UnrecognizedStatuses []models.Ndr   `json:"unrecognized_statuses"`
}

// NdrService maintains the per-order non-delivery record and its history.
type NdrService struct {
	ndrRepo   repository.NdrRepository
	orderRepo repository.OrderRepository
	policySvc *PolicyService
}

// NewNdrService creates an NDR service.
func NewNdrService(ndrRepo repository.NdrRepository, orderRepo repository.OrderRepository, policySvc *PolicyService) *NdrService {
	return &NdrService{ndrRepo: ndrRepo, orderRepo: orderRepo, policySvc: policySvc}
}

// ProcessEvents applies a chronological event batch to the order's NDR
// record inside one transaction. Events at or before the record's current
// datetime are skipped, so replaying a feed is a no-op. Callers isolate
// failures here from the surrounding tracking reconciliation.
func (s *NdrService) ProcessEvents(order *models.Order, events []NormalizedEvent) error {
	if order == nil || len(events) == 0 {
		return nil
	}
	staleAfter := s.policySvc.NdrStaleAfter(order.ClientID)

	return s.ndrRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ndrRepo.WithTx(tx)
		ndr, err := repo.GetByOrderID(order.ID)
		if err != nil {
			return err
		}

		existingHistory := []models.NdrHistory{}
		seenDatetimes := map[time.Time]bool{}
		if ndr != nil {
			existingHistory, err = repo.ListHistory(order.ID, ndr.ID)
			if err != nil {
				return err
			}
			for _, row := range existingHistory {
				seenDatetimes[row.Datetime.UTC()] = true
			}
		}

		var newRows []models.NdrHistory
		appendRow := func(status string, event NormalizedEvent) {
			newRows = append(newRows, models.NdrHistory{
				Status:   status,
				Datetime: event.Datetime,
				Reason:   event.Description,
				Location: event.Location,
			})
			seenDatetimes[event.Datetime.UTC()] = true
		}

		for _, event := range events {
			if !event.HasDatetime {
				continue
			}
			duplicate := seenDatetimes[event.Datetime.UTC()]
			if ndr != nil && ndrTerminal(ndr.Status) {
				break
			}

			switch event.Status {
			case constants.TrackingStatusNDR:
				if ndr == nil {
					ndr = &models.Ndr{
						ClientID: order.ClientID,
						OrderID:  order.ID,
						Status:   constants.NdrStatusTakeAction,
						Attempt:  1,
						Datetime: event.Datetime,
						Reason:   event.Description,
					}
					if err := repo.Create(ndr); err != nil {
						return err
					}
					appendRow(constants.NdrStatusTakeAction, event)
					continue
				}
				if duplicate {
					continue
				}
				if event.Datetime.Sub(ndr.Datetime) >= staleAfter {
					// Staleness safeguard: a failure event this long after
					// the last one rolls the shipment to RTO instead of
					// resurrecting the old NDR.
					ndr.Status = constants.NdrStatusRTO
					ndr.Datetime = event.Datetime
					ndr.Reason = event.Description
					appendRow(constants.NdrStatusRTO, event)
					continue
				}
				if ndr.Status == constants.NdrStatusReattempt {
					// Failed reattempt.
					ndr.Attempt++
				}
				ndr.Status = constants.NdrStatusTakeAction
				ndr.Datetime = event.Datetime
				ndr.Reason = event.Description
				appendRow(constants.NdrStatusTakeAction, event)

			case constants.TrackingStatusInTransit, constants.TrackingStatusOutForDelivery:
				if ndr == nil || duplicate || ndr.Status != constants.NdrStatusTakeAction {
					continue
				}
				// Courier retrying on its own.
				ndr.Status = constants.NdrStatusReattempt
				ndr.Attempt++
				ndr.Datetime = event.Datetime
				appendRow(constants.NdrStatusReattempt, event)

			case constants.TrackingStatusDelivered:
				// Delivered closes the NDR even on a duplicate timestamp.
				if ndr == nil {
					continue
				}
				ndr.Status = constants.NdrStatusDelivered
				ndr.Datetime = event.Datetime
				appendRow(constants.NdrStatusDelivered, event)

			case constants.TrackingStatusRTO, constants.TrackingStatusRTODelivered:
				if ndr == nil || duplicate {
					continue
				}
				ndr.Status = constants.NdrStatusRTO
				ndr.Datetime = event.Datetime
				appendRow(constants.NdrStatusRTO, event)
			}
		}

		if ndr == nil || len(newRows) == 0 {
			return nil
		}
		if err := repo.Update(ndr); err != nil {
			return err
		}

		// History replacement is all-or-nothing per (order, ndr) key and
		// only happens when the new list is longer than the stored one.
		desired := make([]models.NdrHistory, 0, len(existingHistory)+len(newRows))
		desired = append(desired, existingHistory...)
		desired = append(desired, newRows...)
		if len(desired) > len(existingHistory) {
			if err := repo.ReplaceHistory(order.ID, ndr.ID, desired); err != nil {
				return err
			}
		}
		logger.Infow("ndr_events_applied",
			"client_id", order.ClientID,
			"order_id", order.OrderID,
			"ndr_id", ndr.ID,
			"status", ndr.Status,
			"attempt", ndr.Attempt,
			"new_rows", len(newRows))
		return nil
	})
}

// ReattemptInput carries the optional contact overrides for a reattempt.
type ReattemptInput struct {
	AlternatePhoneNumber string `json:"alternate_phone_number"`
	AlternateAddress     string `json:"alternate_address"`
}

// Reattempt marks one NDR for another delivery attempt, optionally updating
// the consignee contact details.
func (s *NdrService) Reattempt(clientID, ndrID uint, input ReattemptInput) (*models.Ndr, error) {
	var updated *models.Ndr
	err := s.ndrRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.ndrRepo.WithTx(tx)
		ndr, err := repo.GetByIDAndClient(ndrID, clientID)
		if err != nil {
			return err
		}
		if ndr == nil {
			return ErrNdrNotFound
		}
		if ndrTerminal(ndr.Status) {
			return ErrNdrTerminal
		}

		now := time.Now()
		ndr.Status = constants.NdrStatusReattempt
		ndr.Datetime = now
		if input.AlternatePhoneNumber != "" {
			ndr.AlternatePhoneNumber = input.AlternatePhoneNumber
		}
		if input.AlternateAddress != "" {
			ndr.AlternateAddress = input.AlternateAddress
		}
		if err := repo.Update(ndr); err != nil {
			return err
		}

		history, err := repo.ListHistory(ndr.OrderID, ndr.ID)
		if err != nil {
			return err
		}
		history = append(history, models.NdrHistory{
			Status:   constants.NdrStatusReattempt,
			Datetime: now,
			Reason:   "reattempt requested",
		})
		if err := repo.ReplaceHistory(ndr.OrderID, ndr.ID, history); err != nil {
			return err
		}
		updated = ndr
		return nil
	})
	if err != nil {
		return nil, err
	}
	logger.Infow("ndr_reattempt_requested", "client_id", clientID, "ndr_id", ndrID)
	return updated, nil
}

// BulkReattemptResult reports per-id outcomes of a bulk reattempt.
type BulkReattemptResult struct {
	Updated []uint          `json:"updated"`
	Failed  map[uint]string `json:"failed,omitempty"`
}

// BulkReattempt marks a batch of NDRs for reattempt, owner-scoped. Failures
// are collected per id; one bad id does not abort the rest.
func (s *NdrService) BulkReattempt(clientID uint, ndrIDs []uint) (*BulkReattemptResult, error) {
	if len(ndrIDs) == 0 {
		return nil, ErrValidation
	}
	result := &BulkReattemptResult{Failed: map[uint]string{}}
	for _, id := range ndrIDs {
		if _, err := s.Reattempt(clientID, id, ReattemptInput{}); err != nil {
			result.Failed[id] = err.Error()
			continue
		}
		result.Updated = append(result.Updated, id)
	}
	return result, nil
}

// ndrStatusGroups maps list filter group names to status sets.
var ndrStatusGroups = map[string][]string{
	"open":   {constants.NdrStatusTakeAction, constants.NdrStatusReattempt},
	"closed": {constants.NdrStatusDelivered, constants.NdrStatusRTO},
}

// List pages a client's NDRs. group may be a single canonical status or a
// group name ("open", "closed"); empty means all.
func (s *NdrService) List(clientID uint, group string, page, pageSize int) ([]models.Ndr, int64, error) {
	var statuses []string
	switch {
	case group == "":
	case ndrStatusGroups[group] != nil:
		statuses = ndrStatusGroups[group]
	default:
		statuses = []string{group}
	}
	return s.ndrRepo.List(repository.NdrListFilter{
		Page:     page,
		PageSize: pageSize,
		ClientID: clientID,
		Statuses: statuses,
	})
}

// HealthCheck reports NDR consistency defects: orphaned records, NDR-status
// orders without a record, and records with an unrecognized status.
func (s *NdrService) HealthCheck() (*NdrHealthReport, error) {
	orphans, err := s.ndrRepo.ListOrphans()
	if err != nil {
		return nil, err
	}
	missing, err := s.ndrRepo.ListOrdersMissingNdr()
	if err != nil {
		return nil, err
	}
	unrecognized, err := s.ndrRepo.ListUnrecognizedStatuses([]string{
		constants.NdrStatusTakeAction,
		constants.NdrStatusReattempt,
		constants.NdrStatusDelivered,
		constants.NdrStatusRTO,
	})
	if err != nil {
		return nil, err
	}
	return &NdrHealthReport{
		OrphanedNdrs:         orphans,
		OrdersMissingNdr:     missing,
		UnrecognizedStatuses: unrecognized,
	}, nil
}
