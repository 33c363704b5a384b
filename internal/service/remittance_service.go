package service

import (
	"time"

	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"gorm.io/gorm"
)

// RemittanceService buckets delivered COD amounts into per-client payout
// cycles.
type RemittanceService struct {
	remittanceRepo repository.RemittanceRepository
	policySvc      *PolicyService
	now            func() time.Time
}

// NewRemittanceService creates a remittance service.
func NewRemittanceService(remittanceRepo repository.RemittanceRepository, policySvc *PolicyService) *RemittanceService {
	return &RemittanceService{
		remittanceRepo: remittanceRepo,
		policySvc:      policySvc,
		now:            time.Now,
	}
}

// PayoutDate computes the payout date for a delivery: cadence+1 days after
// the delivered date, advanced to the next allowed weekday, never in the
// past. An elapsed result floors to tomorrow.
func (s *RemittanceService) PayoutDate(clientID uint, deliveredAt time.Time) time.Time {
	cadenceDays, weekdays := s.policySvc.RemittanceCadence(clientID)

	candidate := dateOnly(deliveredAt).AddDate(0, 0, cadenceDays+1)
	for i := 0; i < 7; i++ {
		if weekdays[candidate.Weekday()] {
			break
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	tomorrow := dateOnly(s.now()).AddDate(0, 0, 1)
	if candidate.Before(tomorrow) {
		return tomorrow
	}
	return candidate
}

// AccumulateInTx adds a delivered COD amount to the (client, payout date)
// cycle inside the caller's transaction, creating the cycle on first touch.
// The row lock serializes concurrent deliveries landing in the same cycle.
func (s *RemittanceService) AccumulateInTx(tx *gorm.DB, clientID uint, deliveredAt time.Time, amount models.Money) (*models.CodRemittance, error) {
	repo := s.remittanceRepo.WithTx(tx)
	payoutDate := s.PayoutDate(clientID, deliveredAt)

	cycle, err := repo.GetForUpdate(clientID, payoutDate)
	if err != nil {
		return nil, err
	}
	if cycle == nil {
		cycle = &models.CodRemittance{
			ClientID:   clientID,
			PayoutDate: payoutDate,
		}
		if err := repo.Create(cycle); err != nil {
			// Lost a create race inside a concurrent transaction; re-read
			// under the lock.
			cycle, err = repo.GetForUpdate(clientID, payoutDate)
			if err != nil {
				return nil, err
			}
			if cycle == nil {
				return nil, ErrRemittanceNotFound
			}
		}
	}

	cycle.GeneratedCOD = models.NewMoneyFromDecimal(cycle.GeneratedCOD.Decimal.Add(amount.Decimal))
	cycle.OrderCount++
	if err := repo.Update(cycle); err != nil {
		return nil, err
	}
	logger.Infow("remittance_cycle_accumulated",
		"client_id", clientID,
		"cycle_id", cycle.ID,
		"payout_date", payoutDate.Format("2006-01-02"),
		"amount", amount.String(),
		"generated_cod", cycle.GeneratedCOD.String())
	return cycle, nil
}

// Get fetches a cycle scoped to its owning client.
func (s *RemittanceService) Get(clientID, cycleID uint) (*models.CodRemittance, error) {
	cycle, err := s.remittanceRepo.GetByID(cycleID)
	if err != nil {
		return nil, err
	}
	if cycle == nil || cycle.ClientID != clientID {
		return nil, ErrRemittanceNotFound
	}
	return cycle, nil
}

// List pages a client's payout cycles.
func (s *RemittanceService) List(filter repository.RemittanceListFilter) ([]models.CodRemittance, int64, error) {
	return s.remittanceRepo.List(filter)
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
