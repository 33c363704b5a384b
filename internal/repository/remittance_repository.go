package repository

import (
	"errors"
	"time"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RemittanceRepository is the COD payout cycle data access interface.
type RemittanceRepository interface {
	GetByID(id uint) (*models.CodRemittance, error)
	GetForUpdate(clientID uint, payoutDate time.Time) (*models.CodRemittance, error)
	Create(cycle *models.CodRemittance) error
	Update(cycle *models.CodRemittance) error
	List(filter RemittanceListFilter) ([]models.CodRemittance, int64, error)
	WithTx(tx *gorm.DB) *GormRemittanceRepository
}

// GormRemittanceRepository is the GORM implementation.
type GormRemittanceRepository struct {
	db *gorm.DB
}

// NewRemittanceRepository creates a remittance repository.
func NewRemittanceRepository(db *gorm.DB) *GormRemittanceRepository {
	return &GormRemittanceRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormRemittanceRepository) WithTx(tx *gorm.DB) *GormRemittanceRepository {
	if tx == nil {
		return r
	}
	return &GormRemittanceRepository{db: tx}
}

// GetByID fetches a cycle by primary key.
func (r *GormRemittanceRepository) GetByID(id uint) (*models.CodRemittance, error) {
	var cycle models.CodRemittance
	if err := r.db.First(&cycle, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cycle, nil
}

// GetForUpdate fetches the (client, payout_date) cycle under a row lock so
// concurrent accumulates serialize.
func (r *GormRemittanceRepository) GetForUpdate(clientID uint, payoutDate time.Time) (*models.CodRemittance, error) {
	if clientID == 0 {
		return nil, nil
	}
	var cycle models.CodRemittance
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ? AND payout_date = ?", clientID, payoutDate).
		First(&cycle).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &cycle, nil
}

// Create inserts a cycle.
func (r *GormRemittanceRepository) Create(cycle *models.CodRemittance) error {
	return r.db.Create(cycle).Error
}

// Update persists a cycle.
func (r *GormRemittanceRepository) Update(cycle *models.CodRemittance) error {
	return r.db.Save(cycle).Error
}

// List pages cycles for a client.
func (r *GormRemittanceRepository) List(filter RemittanceListFilter) ([]models.CodRemittance, int64, error) {
	query := r.db.Model(&models.CodRemittance{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.PayoutFrom != nil {
		query = query.Where("payout_date >= ?", *filter.PayoutFrom)
	}
	if filter.PayoutTo != nil {
		query = query.Where("payout_date <= ?", *filter.PayoutTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var cycles []models.CodRemittance
	if err := query.Order("payout_date desc").Find(&cycles).Error; err != nil {
		return nil, 0, err
	}
	return cycles, total, nil
}
