package models

import (
	"time"
)

// CodRemittance is one scheduled COD payout bucket per (client, payout
// date). Delivered COD orders accumulate into it under a row lock.
type CodRemittance struct {
	ID         uint      `gorm:"primarykey" json:"id"`
	ClientID   uint      `gorm:"uniqueIndex:idx_remittance_cycle;not null" json:"client_id"`
	PayoutDate time.Time `gorm:"uniqueIndex:idx_remittance_cycle;not null" json:"payout_date"`

	GeneratedCOD Money  `gorm:"type:decimal(20,2);not null;default:0" json:"generated_cod"`
	OrderCount   int    `gorm:"not null;default:0" json:"order_count"`
	Status       string `gorm:"index;not null;default:pending" json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (CodRemittance) TableName() string {
	return "cod_remittances"
}
