package repository

import (
	"errors"
	"strings"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// PincodeRepository is the geo reference data access interface.
type PincodeRepository interface {
	GetByPincode(pincode string) (*models.PincodeZone, error)
	BulkUpsert(rows []models.PincodeZone) error
}

// GormPincodeRepository is the GORM implementation.
type GormPincodeRepository struct {
	db *gorm.DB
}

// NewPincodeRepository creates a pincode repository.
func NewPincodeRepository(db *gorm.DB) *GormPincodeRepository {
	return &GormPincodeRepository{db: db}
}

// GetByPincode fetches the location mapping for a pincode.
func (r *GormPincodeRepository) GetByPincode(pincode string) (*models.PincodeZone, error) {
	pincode = strings.TrimSpace(pincode)
	if pincode == "" {
		return nil, nil
	}
	var row models.PincodeZone
	if err := r.db.Where("pincode = ?", pincode).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// BulkUpsert loads reference rows, replacing existing pincodes.
func (r *GormPincodeRepository) BulkUpsert(rows []models.PincodeZone) error {
	if len(rows) == 0 {
		return nil
	}
	return r.db.Save(&rows).Error
}
