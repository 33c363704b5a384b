package repository

import (
	"errors"
	"strings"

	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// OrderRepository is the order data access interface.
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByIDForUpdate(id uint) (*models.Order, error)
	GetByClientAndOrderID(clientID uint, orderID string) (*models.Order, error)
	GetByAWB(awb string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListInFlight(limit int) ([]models.Order, error)
	Save(order *models.Order) error
	UpdateFields(id uint, updates map[string]interface{}) error
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository is the GORM implementation.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository creates an order repository.
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormOrderRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// Create inserts a new order.
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID fetches an order by primary key.
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByIDForUpdate fetches an order by primary key under a row lock.
func (r *GormOrderRepository) GetByIDForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByClientAndOrderID fetches an order by its client-facing order number.
func (r *GormOrderRepository) GetByClientAndOrderID(clientID uint, orderID string) (*models.Order, error) {
	orderID = strings.TrimSpace(orderID)
	if clientID == 0 || orderID == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("client_id = ? AND order_id = ?", clientID, orderID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByAWB fetches an order by its assigned AWB number.
func (r *GormOrderRepository) GetByAWB(awb string) (*models.Order, error) {
	awb = strings.TrimSpace(awb)
	if awb == "" {
		return nil, nil
	}
	var order models.Order
	if err := r.db.Where("awb_number = ?", awb).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List pages orders for a client.
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	query := r.db.Model(&models.Order{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.OrderID != "" {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.AWBNumber != "" {
		query = query.Where("awb_number = ?", filter.AWBNumber)
	}
	if filter.PaymentMode != "" {
		query = query.Where("payment_mode = ?", filter.PaymentMode)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)

	var orders []models.Order
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListInFlight returns booked orders whose shipments are still moving, for
// the tracking poll job.
func (r *GormOrderRepository) ListInFlight(limit int) ([]models.Order, error) {
	inFlight := []string{
		constants.OrderStatusBooked,
		constants.OrderStatusPickup,
		constants.OrderStatusInTransit,
		constants.OrderStatusOutForDelivery,
		constants.OrderStatusNDR,
		constants.OrderStatusRTO,
	}
	query := r.db.Where("status IN ? AND awb_number <> ''", inFlight).
		Order("last_update_date asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// Save persists the full order row.
func (r *GormOrderRepository) Save(order *models.Order) error {
	return r.db.Save(order).Error
}

// UpdateFields applies a partial update.
func (r *GormOrderRepository) UpdateFields(id uint, updates map[string]interface{}) error {
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}
