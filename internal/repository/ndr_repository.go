package repository

import (
	"errors"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// NdrRepository is the NDR data access interface.
type NdrRepository interface {
	GetByOrderID(orderID uint) (*models.Ndr, error)
	GetByID(id uint) (*models.Ndr, error)
	GetByIDAndClient(id uint, clientID uint) (*models.Ndr, error)
	Create(ndr *models.Ndr) error
	Update(ndr *models.Ndr) error
	List(filter NdrListFilter) ([]models.Ndr, int64, error)
	CountHistory(orderID, ndrID uint) (int64, error)
	ReplaceHistory(orderID, ndrID uint, rows []models.NdrHistory) error
	ListHistory(orderID, ndrID uint) ([]models.NdrHistory, error)
	ListOrphans() ([]models.Ndr, error)
	ListOrdersMissingNdr() ([]models.Order, error)
	ListUnrecognizedStatuses(known []string) ([]models.Ndr, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormNdrRepository
}

// GormNdrRepository is the GORM implementation.
type GormNdrRepository struct {
	db *gorm.DB
}

// NewNdrRepository creates an NDR repository.
func NewNdrRepository(db *gorm.DB) *GormNdrRepository {
	return &GormNdrRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormNdrRepository) WithTx(tx *gorm.DB) *GormNdrRepository {
	if tx == nil {
		return r
	}
	return &GormNdrRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormNdrRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByOrderID fetches the live NDR for an order.
func (r *GormNdrRepository) GetByOrderID(orderID uint) (*models.Ndr, error) {
	if orderID == 0 {
		return nil, nil
	}
	var ndr models.Ndr
	if err := r.db.Where("order_id = ?", orderID).First(&ndr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ndr, nil
}

// GetByID fetches an NDR by primary key.
func (r *GormNdrRepository) GetByID(id uint) (*models.Ndr, error) {
	var ndr models.Ndr
	if err := r.db.First(&ndr, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ndr, nil
}

// GetByIDAndClient fetches an NDR scoped to its owning client.
func (r *GormNdrRepository) GetByIDAndClient(id uint, clientID uint) (*models.Ndr, error) {
	if id == 0 || clientID == 0 {
		return nil, nil
	}
	var ndr models.Ndr
	if err := r.db.Where("id = ? AND client_id = ?", id, clientID).First(&ndr).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &ndr, nil
}

// Create inserts an NDR record.
func (r *GormNdrRepository) Create(ndr *models.Ndr) error {
	return r.db.Create(ndr).Error
}

// Update persists an NDR record.
func (r *GormNdrRepository) Update(ndr *models.Ndr) error {
	return r.db.Save(ndr).Error
}

// List pages NDRs for a client, optionally filtered by a status group.
func (r *GormNdrRepository) List(filter NdrListFilter) ([]models.Ndr, int64, error) {
	query := r.db.Model(&models.Ndr{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if len(filter.Statuses) > 0 {
		query = query.Where("status IN ?", filter.Statuses)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var ndrs []models.Ndr
	if err := query.Order("datetime desc").Find(&ndrs).Error; err != nil {
		return nil, 0, err
	}
	return ndrs, total, nil
}

// CountHistory counts stored history rows for an (order, ndr) key.
func (r *GormNdrRepository) CountHistory(orderID, ndrID uint) (int64, error) {
	var count int64
	if err := r.db.Model(&models.NdrHistory{}).
		Where("order_id = ? AND ndr_id = ?", orderID, ndrID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ReplaceHistory swaps the full history for an (order, ndr) key in one
// delete+insert pass.
func (r *GormNdrRepository) ReplaceHistory(orderID, ndrID uint, rows []models.NdrHistory) error {
	if err := r.db.Where("order_id = ? AND ndr_id = ?", orderID, ndrID).
		Delete(&models.NdrHistory{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	for i := range rows {
		rows[i].ID = 0
		rows[i].OrderID = orderID
		rows[i].NdrID = ndrID
	}
	return r.db.Create(&rows).Error
}

// ListHistory returns history rows for an (order, ndr) key in event order.
func (r *GormNdrRepository) ListHistory(orderID, ndrID uint) ([]models.NdrHistory, error) {
	var rows []models.NdrHistory
	if err := r.db.Where("order_id = ? AND ndr_id = ?", orderID, ndrID).
		Order("datetime asc, id asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListOrphans returns NDRs whose order row no longer exists.
func (r *GormNdrRepository) ListOrphans() ([]models.Ndr, error) {
	var ndrs []models.Ndr
	if err := r.db.
		Joins("LEFT JOIN orders ON orders.id = ndrs.order_id AND orders.deleted_at IS NULL").
		Where("orders.id IS NULL").
		Find(&ndrs).Error; err != nil {
		return nil, err
	}
	return ndrs, nil
}

// ListOrdersMissingNdr returns NDR-status orders without an NDR row.
func (r *GormNdrRepository) ListOrdersMissingNdr() ([]models.Order, error) {
	var orders []models.Order
	if err := r.db.Model(&models.Order{}).
		Joins("LEFT JOIN ndrs ON ndrs.order_id = orders.id").
		Where("orders.status = ? AND ndrs.id IS NULL", "ndr").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ListUnrecognizedStatuses returns NDRs holding a status outside the
// canonical set.
func (r *GormNdrRepository) ListUnrecognizedStatuses(known []string) ([]models.Ndr, error) {
	var ndrs []models.Ndr
	if err := r.db.Where("status NOT IN ?", known).Find(&ndrs).Error; err != nil {
		return nil, err
	}
	return ndrs, nil
}
