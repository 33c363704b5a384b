package repository

import (
	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// RuleRepository is the courier-assignment rule data access interface.
type RuleRepository interface {
	ListActiveByClient(clientID uint) ([]models.CourierRule, error)
}

// GormRuleRepository is the GORM implementation.
type GormRuleRepository struct {
	db *gorm.DB
}

// NewRuleRepository creates a rule repository.
func NewRuleRepository(db *gorm.DB) *GormRuleRepository {
	return &GormRuleRepository{db: db}
}

// ListActiveByClient returns a client's active rules in evaluation order.
func (r *GormRuleRepository) ListActiveByClient(clientID uint) ([]models.CourierRule, error) {
	if clientID == 0 {
		return []models.CourierRule{}, nil
	}
	var rules []models.CourierRule
	if err := r.db.Where("client_id = ? AND active = ?", clientID, true).
		Order("position asc").
		Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}
