package repository

import (
	"errors"
	"strings"

	"github.com/shipflow-next/internal/models"

	"gorm.io/gorm"
)

// ClientRepository is the tenant data access interface.
type ClientRepository interface {
	GetByID(id uint) (*models.Client, error)
	GetByEmail(email string) (*models.Client, error)
	Create(client *models.Client) error
	GetConfigs(clientID uint) ([]models.ClientConfig, error)
	GetConfigValue(clientID uint, key string) (string, error)
	SetConfigValue(clientID uint, key, value string) error
	GetCredential(clientID uint, storeID string, partnerID uint) (*models.CredentialRecord, error)
	WithTx(tx *gorm.DB) *GormClientRepository
}

// GormClientRepository is the GORM implementation.
type GormClientRepository struct {
	db *gorm.DB
}

// NewClientRepository creates a client repository.
func NewClientRepository(db *gorm.DB) *GormClientRepository {
	return &GormClientRepository{db: db}
}

// WithTx binds the repository to a transaction.
func (r *GormClientRepository) WithTx(tx *gorm.DB) *GormClientRepository {
	if tx == nil {
		return r
	}
	return &GormClientRepository{db: tx}
}

// GetByID fetches a client by primary key.
func (r *GormClientRepository) GetByID(id uint) (*models.Client, error) {
	var client models.Client
	if err := r.db.First(&client, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// GetByEmail fetches a client by email.
func (r *GormClientRepository) GetByEmail(email string) (*models.Client, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, nil
	}
	var client models.Client
	if err := r.db.Where("email = ?", email).First(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &client, nil
}

// Create inserts a client.
func (r *GormClientRepository) Create(client *models.Client) error {
	return r.db.Create(client).Error
}

// GetConfigs returns the latest version of every config key for a client.
func (r *GormClientRepository) GetConfigs(clientID uint) ([]models.ClientConfig, error) {
	if clientID == 0 {
		return []models.ClientConfig{}, nil
	}
	var rows []models.ClientConfig
	if err := r.db.Where("client_id = ?", clientID).
		Order("key asc, version asc").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	// Last row per key has the highest version.
	latest := make(map[string]models.ClientConfig, len(rows))
	order := make([]string, 0, len(rows))
	for _, row := range rows {
		if _, seen := latest[row.Key]; !seen {
			order = append(order, row.Key)
		}
		latest[row.Key] = row
	}
	result := make([]models.ClientConfig, 0, len(latest))
	for _, key := range order {
		result = append(result, latest[key])
	}
	return result, nil
}

// GetConfigValue returns the highest-version value for a key, or "".
func (r *GormClientRepository) GetConfigValue(clientID uint, key string) (string, error) {
	key = strings.TrimSpace(key)
	if clientID == 0 || key == "" {
		return "", nil
	}
	var row models.ClientConfig
	if err := r.db.Where("client_id = ? AND key = ?", clientID, key).
		Order("version desc").
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", nil
		}
		return "", err
	}
	return row.Value, nil
}

// SetConfigValue appends a new version for a key.
func (r *GormClientRepository) SetConfigValue(clientID uint, key, value string) error {
	key = strings.TrimSpace(key)
	if clientID == 0 || key == "" {
		return nil
	}
	var current models.ClientConfig
	version := 1
	err := r.db.Where("client_id = ? AND key = ?", clientID, key).
		Order("version desc").
		First(&current).Error
	if err == nil {
		version = current.Version + 1
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return r.db.Create(&models.ClientConfig{
		ClientID: clientID,
		Key:      key,
		Value:    value,
		Version:  version,
	}).Error
}

// GetCredential resolves courier credentials for (client, store, partner).
// A record with an empty store id is the client-wide fallback.
func (r *GormClientRepository) GetCredential(clientID uint, storeID string, partnerID uint) (*models.CredentialRecord, error) {
	if clientID == 0 || partnerID == 0 {
		return nil, nil
	}
	storeID = strings.TrimSpace(storeID)
	var record models.CredentialRecord
	err := r.db.Where("client_id = ? AND store_id = ? AND partner_id = ?", clientID, storeID, partnerID).
		First(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) && storeID != "" {
		err = r.db.Where("client_id = ? AND store_id = '' AND partner_id = ?", clientID, partnerID).
			First(&record).Error
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &record, nil
}
