package models

import (
	"time"
)

// Wallet is the per-client money account: spendable balance, realized COD
// and COD held pending delivery.
type Wallet struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	ClientID             uint      `gorm:"uniqueIndex;not null" json:"client_id"`
	Amount               Money     `gorm:"type:decimal(20,2);not null;default:0" json:"amount"`
	CODAmount            Money     `gorm:"type:decimal(20,2);not null;default:0" json:"cod_amount"`
	ProvisionalCODAmount Money     `gorm:"type:decimal(20,2);not null;default:0" json:"provisional_cod_amount"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// TableName sets the table name.
func (Wallet) TableName() string {
	return "wallets"
}

// WalletLog is one immutable ledger row. Rows are only ever inserted; the
// unique reference doubles as the idempotency key for balance-changing
// events.
type WalletLog struct {
	ID                   uint      `gorm:"primarykey" json:"id"`
	ClientID             uint      `gorm:"index;not null" json:"client_id"`
	Type                 string    `gorm:"index;not null" json:"type"`
	Credit               Money     `gorm:"type:decimal(20,2);not null;default:0" json:"credit"`
	Debit                Money     `gorm:"type:decimal(20,2);not null;default:0" json:"debit"`
	BalanceAfter         Money     `gorm:"type:decimal(20,2);not null;default:0" json:"balance_after"`
	CODAfter             Money     `gorm:"type:decimal(20,2);not null;default:0" json:"cod_after"`
	ProvisionalCODAfter  Money     `gorm:"type:decimal(20,2);not null;default:0" json:"provisional_cod_after"`
	Reference            string    `gorm:"uniqueIndex;not null" json:"reference"` // usually keyed by AWB
	Remark               string    `gorm:"type:text" json:"remark,omitempty"`
	CreatedAt            time.Time `gorm:"index" json:"created_at"`
}

// TableName sets the table name.
func (WalletLog) TableName() string {
	return "wallet_logs"
}
