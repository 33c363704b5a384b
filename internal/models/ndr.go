package models

import (
	"time"
)

// Ndr is the single live non-delivery record for an order. Created on the
// first NDR-classified tracking event, updated in place afterwards,
// terminal once delivered or rto.
type Ndr struct {
	ID       uint `gorm:"primarykey" json:"id"`
	ClientID uint `gorm:"index;not null" json:"client_id"`
	OrderID  uint `gorm:"uniqueIndex;not null" json:"order_id"`

	Status   string    `gorm:"index;not null" json:"status"` // take_action / reattempt / delivered / rto
	Attempt  int       `gorm:"not null;default:1" json:"attempt"`
	Datetime time.Time `gorm:"not null" json:"datetime"` // timestamp of the latest applied event
	Reason   string    `gorm:"type:text" json:"reason,omitempty"`

	// Contact overrides supplied by reattempt requests.
	AlternatePhoneNumber string `json:"alternate_phone_number,omitempty"`
	AlternateAddress     string `gorm:"type:text" json:"alternate_address,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (Ndr) TableName() string {
	return "ndrs"
}

// NdrHistory is the append-only audit trail for an NDR, keyed by
// (order_id, ndr_id). Replacement is all-or-nothing per key.
type NdrHistory struct {
	ID       uint `gorm:"primarykey" json:"id"`
	OrderID  uint `gorm:"index:idx_ndr_history_key;not null" json:"order_id"`
	NdrID    uint `gorm:"index:idx_ndr_history_key;not null" json:"ndr_id"`

	Status    string    `gorm:"not null" json:"status"`
	Datetime  time.Time `gorm:"not null" json:"datetime"`
	Reason    string    `gorm:"type:text" json:"reason,omitempty"`
	Location  string    `json:"location,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name.
func (NdrHistory) TableName() string {
	return "ndr_histories"
}
