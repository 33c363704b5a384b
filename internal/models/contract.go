package models

import (
	"time"

	"gorm.io/gorm"
)

// CourierPartner is one shipping partner reachable through an adapter.
type CourierPartner struct {
	ID          uint           `gorm:"primarykey" json:"id"`
	Name        string         `gorm:"not null" json:"name"`
	Slug        string         `gorm:"uniqueIndex;not null" json:"slug"`
	AdapterSlug string         `gorm:"not null" json:"adapter_slug"` // adapter registry key
	BaseURL     string         `json:"base_url"`
	Active      bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName sets the table name.
func (CourierPartner) TableName() string {
	return "courier_partners"
}

// ClientContract links a client to a partner rate card. Read-only from the
// core's perspective; maintained by onboarding tooling.
type ClientContract struct {
	ID        uint `gorm:"primarykey" json:"id"`
	ClientID  uint `gorm:"index;not null" json:"client_id"`
	PartnerID uint `gorm:"index;not null" json:"partner_id"`

	// Zone-keyed forward rates ("A".."E").
	BaseRates       ZoneRates `gorm:"type:json" json:"base_rates"`
	AdditionalRates ZoneRates `gorm:"type:json" json:"additional_rates"`
	// Reverse (RTO) rates; empty map falls back to the forward rates.
	RTOBaseRates       ZoneRates `gorm:"type:json" json:"rto_base_rates,omitempty"`
	RTOAdditionalRates ZoneRates `gorm:"type:json" json:"rto_additional_rates,omitempty"`

	CODPercent  Money `gorm:"type:decimal(6,2);not null;default:0" json:"cod_percent"`
	CODAbsolute Money `gorm:"type:decimal(20,2);not null;default:0" json:"cod_absolute"`

	MinChargeableWeight     Weight `gorm:"type:decimal(10,3);not null;default:0.5" json:"min_chargeable_weight"`
	AdditionalWeightBracket Weight `gorm:"type:decimal(10,3);not null;default:0.5" json:"additional_weight_bracket"`

	Active    bool           `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Partner *CourierPartner `gorm:"foreignKey:PartnerID" json:"partner,omitempty"`
}

// TableName sets the table name.
func (ClientContract) TableName() string {
	return "client_contracts"
}
