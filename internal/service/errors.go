package service

import "errors"

// Sentinel errors returned by services and mapped to HTTP responses in the
// handler layer.
var (
	ErrClientNotFound     = errors.New("client not found")
	ErrClientDisabled     = errors.New("client disabled")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderExists        = errors.New("order id already exists")
	ErrOrderNotBookable   = errors.New("order is not in a bookable state")
	ErrOrderAlreadyBooked = errors.New("order already booked")
	ErrCancelNotAllowed   = errors.New("order can no longer be cancelled")
	ErrValidation         = errors.New("invalid input")

	ErrContractNotFound  = errors.New("contract not found")
	ErrCredentialMissing = errors.New("courier credentials not configured")
	ErrNoCandidates      = errors.New("no eligible courier contract")
	ErrAllBookingsFailed = errors.New("all courier booking attempts failed")
	ErrBookingProcessing = errors.New("courier booking still processing")

	ErrWalletNotFound      = errors.New("wallet not found")
	ErrWalletInvalidAmount = errors.New("wallet amount must be positive")
	ErrInsufficientBalance = errors.New("insufficient wallet balance")

	ErrNdrNotFound = errors.New("ndr not found")
	ErrNdrTerminal = errors.New("ndr is in a terminal state")

	ErrRemittanceNotFound = errors.New("remittance cycle not found")
)
