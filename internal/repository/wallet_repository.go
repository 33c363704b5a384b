package repository

import (
	"errors"
	"strings"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WalletRepository is the wallet data access interface.
type WalletRepository interface {
	GetByClientID(clientID uint) (*models.Wallet, error)
	GetByClientIDForUpdate(clientID uint) (*models.Wallet, error)
	Create(wallet *models.Wallet) error
	Update(wallet *models.Wallet) error
	CreateLog(log *models.WalletLog) error
	GetLogByReference(reference string) (*models.WalletLog, error)
	ListLogs(filter WalletLogListFilter) ([]models.WalletLog, int64, error)
	Transaction(fn func(tx *gorm.DB) error) error
	WithTx(tx *gorm.DB) *GormWalletRepository
}

// GormWalletRepository is the GORM implementation.
type GormWalletRepository struct {
	db *gorm.DB
}

// NewWalletRepository creates a wallet repository.
func NewWalletRepository(db *gorm.DB) *GormWalletRepository {
	return &GormWalletRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormWalletRepository) WithTx(tx *gorm.DB) *GormWalletRepository {
	if tx == nil {
		return r
	}
	return &GormWalletRepository{db: tx}
}

// Transaction runs fn inside a database transaction.
func (r *GormWalletRepository) Transaction(fn func(tx *gorm.DB) error) error {
	return r.db.Transaction(fn)
}

// GetByClientID fetches a client's wallet.
func (r *GormWalletRepository) GetByClientID(clientID uint) (*models.Wallet, error) {
	if clientID == 0 {
		return nil, nil
	}
	var wallet models.Wallet
	if err := r.db.Where("client_id = ?", clientID).First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// GetByClientIDForUpdate fetches a client's wallet under a row lock.
func (r *GormWalletRepository) GetByClientIDForUpdate(clientID uint) (*models.Wallet, error) {
	if clientID == 0 {
		return nil, nil
	}
	var wallet models.Wallet
	if err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("client_id = ?", clientID).
		First(&wallet).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &wallet, nil
}

// Create inserts a wallet.
func (r *GormWalletRepository) Create(wallet *models.Wallet) error {
	return r.db.Create(wallet).Error
}

// Update persists a wallet row.
func (r *GormWalletRepository) Update(wallet *models.Wallet) error {
	return r.db.Save(wallet).Error
}

// CreateLog appends a ledger row.
func (r *GormWalletRepository) CreateLog(log *models.WalletLog) error {
	return r.db.Create(log).Error
}

// GetLogByReference fetches a ledger row by its unique reference.
func (r *GormWalletRepository) GetLogByReference(reference string) (*models.WalletLog, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, nil
	}
	var log models.WalletLog
	if err := r.db.Where("reference = ?", reference).First(&log).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &log, nil
}

// ListLogs pages ledger rows.
func (r *GormWalletRepository) ListLogs(filter WalletLogListFilter) ([]models.WalletLog, int64, error) {
	query := r.db.Model(&models.WalletLog{})
	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Type != "" {
		query = query.Where("type = ?", filter.Type)
	}
	if filter.Reference != "" {
		query = query.Where("reference = ?", filter.Reference)
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

	var logs []models.WalletLog
	if err := query.Order("id desc").Find(&logs).Error; err != nil {
		return nil, 0, err
	}
	return logs, total, nil
}
