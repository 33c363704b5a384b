package models

import (
	"time"

	"gorm.io/gorm"
)

// Client is one tenant of the aggregation platform.
type Client struct {
	ID              uint           `gorm:"primarykey" json:"id"`
	Name            string         `gorm:"not null" json:"name"`
	Email           string         `gorm:"uniqueIndex;not null" json:"email"`
	APITokenHash    string         `gorm:"type:varchar(200)" json:"-"` // bcrypt hash of the API token
	SelectionPolicy string         `gorm:"not null;default:cheapest" json:"selection_policy"`
	CourierPriority StringArray    `gorm:"type:json" json:"courier_priority,omitempty"` // partner slugs, custom policy order
	Active          bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (Client) TableName() string {
	return "clients"
}

// ClientConfig is one versioned configuration entry for a client. The
// highest version per (client_id, key) wins; older rows are kept for audit.
type ClientConfig struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ClientID  uint      `gorm:"index:idx_client_config_key;not null" json:"client_id"`
	Key       string    `gorm:"index:idx_client_config_key;not null" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name.
func (ClientConfig) TableName() string {
	return "client_configs"
}

// CredentialRecord stores courier API credentials for a (client, store)
// pair. Resolved per call through the credential service, never cached in
// process memory.
type CredentialRecord struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	ClientID  uint      `gorm:"uniqueIndex:idx_credential_scope;not null" json:"client_id"`
	StoreID   string    `gorm:"uniqueIndex:idx_credential_scope;not null;default:''" json:"store_id"`
	PartnerID uint      `gorm:"uniqueIndex:idx_credential_scope;not null" json:"partner_id"`
	APIKey    string    `gorm:"type:text" json:"-"`
	APISecret string    `gorm:"type:text" json:"-"`
	Meta      JSON      `gorm:"type:json" json:"meta,omitempty"` // partner extras: pickup codes, facility ids
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (CredentialRecord) TableName() string {
	return "credential_records"
}
