package service

import (
	"github.com/shipflow-next/internal/constants"
	"github.com/shipflow-next/internal/logger"
	"github.com/shipflow-next/internal/models"
	"github.com/shipflow-next/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// WalletPosting is one balance-changing event applied to a client wallet.
// Credit and Debit move the spendable balance; CODDelta and ProvisionalDelta
// move the realized and pending COD pools. Reference is the idempotency key:
// a posting whose reference already has a ledger row is a silent no-op.
type WalletPosting struct {
	ClientID         uint
	Type             string
	Credit           models.Money
	Debit            models.Money
	CODDelta         decimal.Decimal
	ProvisionalDelta decimal.Decimal
	Reference        string
	Remark           string
	// AllowNegative lets the spendable balance go below zero, used for
	// reconciliation charges (RTO) the client owes regardless of balance.
	AllowNegative bool
}

// WalletService owns all wallet mutations. Every change happens inside a
// transaction under a row lock and appends exactly one ledger row.
type WalletService struct {
	walletRepo repository.WalletRepository
}

// NewWalletService creates a wallet service.
func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// GetOrCreate returns the client's wallet, creating a zero wallet on first
// touch.
func (s *WalletService) GetOrCreate(clientID uint) (*models.Wallet, error) {
	wallet, err := s.walletRepo.GetByClientID(clientID)
	if err != nil {
		return nil, err
	}
	if wallet != nil {
		return wallet, nil
	}
	wallet = &models.Wallet{ClientID: clientID}
	if err := s.walletRepo.Create(wallet); err != nil {
		// Lost a create race; the row exists now.
		if existing, getErr := s.walletRepo.GetByClientID(clientID); getErr == nil && existing != nil {
			return existing, nil
		}
		return nil, err
	}
	return wallet, nil
}

// Balance returns the spendable balance, zero for a wallet not yet created.
func (s *WalletService) Balance(clientID uint) (models.Money, error) {
	wallet, err := s.walletRepo.GetByClientID(clientID)
	if err != nil {
		return models.Money{}, err
	}
	if wallet == nil {
		return models.NewMoneyFromDecimal(decimal.Zero), nil
	}
	return wallet.Amount, nil
}

// Recharge credits the spendable balance outside any caller transaction.
func (s *WalletService) Recharge(clientID uint, amount models.Money, reference, remark string) (*models.WalletLog, error) {
	if amount.Decimal.LessThanOrEqual(decimal.Zero) {
		return nil, ErrWalletInvalidAmount
	}
	var log *models.WalletLog
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		var applyErr error
		log, applyErr = s.ApplyInTx(tx, WalletPosting{
			ClientID:  clientID,
			Type:      constants.WalletTxnTypeRecharge,
			Credit:    amount,
			Reference: reference,
			Remark:    remark,
		})
		return applyErr
	})
	return log, err
}

// ApplyInTx applies one posting inside the caller's transaction. Returns the
// existing ledger row without touching balances when the reference was
// already posted. A debit that would take the spendable balance below zero
// fails with ErrInsufficientBalance.
func (s *WalletService) ApplyInTx(tx *gorm.DB, posting WalletPosting) (*models.WalletLog, error) {
	if posting.ClientID == 0 || posting.Reference == "" || posting.Type == "" {
		return nil, ErrValidation
	}
	repo := s.walletRepo.WithTx(tx)

	existing, err := repo.GetLogByReference(posting.Reference)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debugw("wallet_posting_replayed",
			"client_id", posting.ClientID, "reference", posting.Reference)
		return existing, nil
	}

	wallet, err := repo.GetByClientIDForUpdate(posting.ClientID)
	if err != nil {
		return nil, err
	}
	if wallet == nil {
		wallet = &models.Wallet{ClientID: posting.ClientID}
		if err := repo.Create(wallet); err != nil {
			return nil, err
		}
		wallet, err = repo.GetByClientIDForUpdate(posting.ClientID)
		if err != nil {
			return nil, err
		}
		if wallet == nil {
			return nil, ErrWalletNotFound
		}
	}

	balance := wallet.Amount.Decimal.Add(posting.Credit.Decimal).Sub(posting.Debit.Decimal)
	if !posting.AllowNegative && posting.Debit.Decimal.GreaterThan(decimal.Zero) && balance.IsNegative() {
		return nil, ErrInsufficientBalance
	}
	codAmount := wallet.CODAmount.Decimal.Add(posting.CODDelta)
	provisional := wallet.ProvisionalCODAmount.Decimal.Add(posting.ProvisionalDelta)
	if provisional.IsNegative() {
		// The provisional pool should drain to exactly zero; going below it
		// means a reversal was applied against an amount never held.
		logger.Warnw("wallet_provisional_clamped",
			"client_id", posting.ClientID,
			"reference", posting.Reference,
			"provisional_before", wallet.ProvisionalCODAmount.String(),
			"provisional_delta", posting.ProvisionalDelta.String())
		provisional = decimal.Zero
	}

	wallet.Amount = models.NewMoneyFromDecimal(balance)
	wallet.CODAmount = models.NewMoneyFromDecimal(codAmount)
	wallet.ProvisionalCODAmount = models.NewMoneyFromDecimal(provisional)
	if err := repo.Update(wallet); err != nil {
		return nil, err
	}

	log := &models.WalletLog{
		ClientID:            posting.ClientID,
		Type:                posting.Type,
		Credit:              posting.Credit,
		Debit:               posting.Debit,
		BalanceAfter:        wallet.Amount,
		CODAfter:            wallet.CODAmount,
		ProvisionalCODAfter: wallet.ProvisionalCODAmount,
		Reference:           posting.Reference,
		Remark:              posting.Remark,
	}
	if err := repo.CreateLog(log); err != nil {
		return nil, err
	}
	logger.Infow("wallet_posting_applied",
		"client_id", posting.ClientID,
		"type", posting.Type,
		"credit", posting.Credit.String(),
		"debit", posting.Debit.String(),
		"reference", posting.Reference,
		"balance_after", wallet.Amount.String())
	return log, nil
}

// ListLogs pages the ledger for a client.
func (s *WalletService) ListLogs(filter repository.WalletLogListFilter) ([]models.WalletLog, int64, error) {
	return s.walletRepo.ListLogs(filter)
}
