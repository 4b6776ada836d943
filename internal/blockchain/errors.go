package blockchain

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"
)

func NewBlockchainError(errType ErrorType, message string, cause error) *BlockchainError {
	return &BlockchainError{
		Type:    errType,
		Message: message,
		Cause:   cause,
	}
}

func NewNetworkError(message string, cause error) *BlockchainError {
	return NewBlockchainError(ErrNetworkConnection, message, cause)
}

func NewTimeoutError(operation string, timeout time.Duration) *BlockchainError {
	return NewBlockchainError(ErrTimeout,
		fmt.Sprintf("operation %s timed out after %v", operation, timeout), nil)
}

func NewNodeUnavailableError(nodeURL string, cause error) *BlockchainError {
	return NewBlockchainError(ErrNodeUnavailable,
		fmt.Sprintf("node unavailable: %s", nodeURL), cause)
}

func NewRateLimitedError(retryAfter time.Duration) *BlockchainError {
	return NewBlockchainError(ErrRateLimited,
		fmt.Sprintf("rate limited, retry after %v", retryAfter), nil)
}

func NewTransactionFailedError(txHash string, reason string) *BlockchainError {
	return NewBlockchainError(ErrTransactionFailed,
		fmt.Sprintf("transaction %s failed: %s", txHash, reason), nil)
}

// ClassifyError maps any error coming back from the node, the signer or the
// FHE gateway onto an ErrorType. Wallet rejections and "already verified"
// reverts are recognised by message content because they cross process
// boundaries as plain strings.
func ClassifyError(err error) *BlockchainError {
	if err == nil {
		return nil
	}

	var blockchainErr *BlockchainError
	if errors.As(err, &blockchainErr) {
		return blockchainErr
	}

	if errors.Is(err, context.Canceled) {
		return NewBlockchainError(ErrCanceled, "operation canceled", err)
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "user rejected") || strings.Contains(errStr, "user denied"):
		return NewBlockchainError(ErrUserRejected, "user rejected transaction", err)
	case strings.Contains(errStr, "already verified"):
		return NewBlockchainError(ErrAlreadyVerified, "already verified", err)
	case strings.Contains(errStr, "no contract code"):
		return NewBlockchainError(ErrNoContract, "no contract deployed at address", err)
	case strings.Contains(errStr, "insufficient funds"):
		return NewBlockchainError(ErrInsufficientFunds, "insufficient funds for gas", err)
	case strings.Contains(errStr, "execution reverted") || strings.Contains(errStr, "reverted"):
		return NewBlockchainError(ErrReverted, "contract call reverted", err)
	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded"):
		return NewTimeoutError("network request", 30*time.Second)
	case strings.Contains(errStr, "connection refused") || strings.Contains(errStr, "no such host"):
		return NewNetworkError("connection failed", err)
	case strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests"):
		return NewRateLimitedError(time.Minute)
	default:
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return NewTimeoutError("network operation", 30*time.Second)
		}
		return NewNetworkError("unknown network error", err)
	}
}

// IsType reports whether err classifies as t.
func IsType(err error, t ErrorType) bool {
	classified := ClassifyError(err)
	return classified != nil && classified.Type == t
}

func (e *BlockchainError) IsRetryable() bool {
	switch e.Type {
	case ErrNetworkConnection, ErrNodeUnavailable, ErrTimeout, ErrRateLimited:
		return true
	default:
		return false
	}
}

func (e *BlockchainError) UserMessage() string {
	switch e.Type {
	case ErrNetworkConnection:
		return "Network connection failed. Please check your internet connection."
	case ErrNodeUnavailable:
		return "The RPC node is temporarily unavailable."
	case ErrRateLimited:
		return "Too many requests. Please wait a moment and try again."
	case ErrTimeout:
		return "Request timed out. Please try again."
	case ErrCanceled:
		return "Operation canceled."
	case ErrTransactionFailed, ErrReverted:
		return "Transaction failed to process."
	case ErrUserRejected:
		return "Transaction rejected"
	case ErrAlreadyVerified:
		return "Already verified"
	case ErrNoContract:
		return "Registry contract not found on this network."
	case ErrInsufficientFunds:
		return "Insufficient funds for gas."
	default:
		return "An unexpected error occurred."
	}
}
