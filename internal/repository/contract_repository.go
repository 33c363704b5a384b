package repository

import (
	"errors"
	"strings"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// ContractRepository is the rate-card/partner data access interface.
type ContractRepository interface {
	GetByID(id uint) (*models.ClientContract, error)
	GetByIDAndClient(id uint, clientID uint) (*models.ClientContract, error)
	ListActiveByClient(clientID uint) ([]models.ClientContract, error)
	GetPartnerByID(id uint) (*models.CourierPartner, error)
	GetPartnerBySlug(slug string) (*models.CourierPartner, error)
	WithTx(tx *gorm.DB) *GormContractRepository
}

// GormContractRepository is the GORM implementation.
type GormContractRepository struct {
	db *gorm.DB
}

// NewContractRepository creates a contract repository.
func NewContractRepository(db *gorm.DB) *GormContractRepository {
	return &GormContractRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormContractRepository) WithTx(tx *gorm.DB) *GormContractRepository {
	if tx == nil {
		return r
	}
	return &GormContractRepository{db: tx}
}

// GetByID fetches a contract with its partner.
func (r *GormContractRepository) GetByID(id uint) (*models.ClientContract, error) {
	var contract models.ClientContract
	if err := r.db.Preload("Partner").First(&contract, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// GetByIDAndClient fetches a contract scoped to its owning client.
func (r *GormContractRepository) GetByIDAndClient(id uint, clientID uint) (*models.ClientContract, error) {
	if id == 0 || clientID == 0 {
		return nil, nil
	}
	var contract models.ClientContract
	if err := r.db.Preload("Partner").
		Where("id = ? AND client_id = ?", id, clientID).
		First(&contract).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &contract, nil
}

// ListActiveByClient returns a client's active contracts with partners.
func (r *GormContractRepository) ListActiveByClient(clientID uint) ([]models.ClientContract, error) {
	if clientID == 0 {
		return []models.ClientContract{}, nil
	}
	var contracts []models.ClientContract
	if err := r.db.Preload("Partner").
		Where("client_id = ? AND active = ?", clientID, true).
		Order("id asc").
		Find(&contracts).Error; err != nil {
		return nil, err
	}
	return contracts, nil
}

// GetPartnerByID fetches a courier partner by primary key.
func (r *GormContractRepository) GetPartnerByID(id uint) (*models.CourierPartner, error) {
	var partner models.CourierPartner
	if err := r.db.First(&partner, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}

// GetPartnerBySlug fetches a courier partner by slug.
func (r *GormContractRepository) GetPartnerBySlug(slug string) (*models.CourierPartner, error) {
	slug = strings.TrimSpace(strings.ToLower(slug))
	if slug == "" {
		return nil, nil
	}
	var partner models.CourierPartner
	if err := r.db.Where("slug = ?", slug).First(&partner).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &partner, nil
}
