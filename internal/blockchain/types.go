package blockchain

import (
	"math/big"
	"time"
)

type Network string

const (
	MainNet Network = "mainnet"
	Sepolia Network = "sepolia"
	Local   Network = "local"
)

type Config struct {
	Network        Network
	NodeURL        string
	Timeout        time.Duration
	RetryCount     int
	RetryDelay     time.Duration
	ConfirmTimeout time.Duration
	PollInterval   time.Duration
}

type ReceiptStatus string

const (
	StatusPending   ReceiptStatus = "pending"
	StatusConfirmed ReceiptStatus = "confirmed"
	StatusReverted  ReceiptStatus = "reverted"
)

type ErrorType string

const (
	ErrNetworkConnection ErrorType = "network_connection"
	ErrNodeUnavailable   ErrorType = "node_unavailable"
	ErrRateLimited       ErrorType = "rate_limited"
	ErrTimeout           ErrorType = "timeout"
	ErrCanceled          ErrorType = "canceled"
	ErrTransactionFailed ErrorType = "transaction_failed"
	ErrReverted          ErrorType = "reverted"
	ErrUserRejected      ErrorType = "user_rejected"
	ErrAlreadyVerified   ErrorType = "already_verified"
	ErrNoContract        ErrorType = "no_contract"
	ErrInsufficientFunds ErrorType = "insufficient_funds"
)

type BlockchainError struct {
	Type    ErrorType
	Message string
	Cause   error
}

func (e *BlockchainError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *BlockchainError) Unwrap() error {
	return e.Cause
}

type NetworkStatus struct {
	Connected   bool
	NodeURL     string
	ChainID     *big.Int
	LastChecked time.Time
	BlockHeight uint64
}
