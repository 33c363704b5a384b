package repository

import "time"

// OrderListFilter filters order listings.
type OrderListFilter struct {
	Page        int
	PageSize    int
	ClientID    uint
	Status      string
	OrderID     string
	AWBNumber   string
	PaymentMode string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// WalletLogListFilter filters wallet ledger listings.
type WalletLogListFilter struct {
	Page        int
	PageSize    int
	ClientID    uint
	Type        string
	Reference   string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// NdrListFilter filters NDR listings. Statuses is a status group, e.g.
// the open group {take_action, reattempt}.
type NdrListFilter struct {
	Page     int
	PageSize int
	ClientID uint
	Statuses []string
}

// RemittanceListFilter filters COD remittance cycle listings.
type RemittanceListFilter struct {
	Page       int
	PageSize   int
	ClientID   uint
	Status     string
	PayoutFrom *time.Time
	PayoutTo   *time.Time
}
