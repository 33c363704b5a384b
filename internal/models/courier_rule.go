package models

import (
	"time"
)

// CourierRule is one row of a client's ordered courier-assignment rule
// list. Rules are evaluated top-to-bottom by position; the first rule whose
// predicate matches an order supplies its courier priority list.
type CourierRule struct {
	ID       uint `gorm:"primarykey" json:"id"`
	ClientID uint `gorm:"index;not null" json:"client_id"`
	Position int  `gorm:"not null" json:"position"`

	// Tagged predicate: field + operator + operand list.
	Field    string      `gorm:"not null" json:"field"`    // zone / weight / payment_mode / consignee_state
	Operator string      `gorm:"not null" json:"operator"` // eq / gt / lt / between / in
	Operands StringArray `gorm:"type:json;not null" json:"operands"`

	// Partner slugs to try, in order, when the predicate matches.
	CourierPriority StringArray `gorm:"type:json;not null" json:"courier_priority"`

	Active    bool      `gorm:"not null;default:true" json:"active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (CourierRule) TableName() string {
	return "courier_rules"
}
