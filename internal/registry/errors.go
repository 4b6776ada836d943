package registry

import (
	"errors"

	"rhystmorgan/giftterm/internal/blockchain"
)

var (
	ErrNotConnected = errors.New("wallet not connected")
	ErrNotFound     = errors.New("gift not found")
	ErrFHEInit      = errors.New("fhe initialization failed")
)

// Banner texts.
const (
	MsgConnectFirst    = "Please connect wallet first"
	MsgRejected        = "Transaction rejected"
	MsgSendFailed      = "Failed to send gift"
	MsgSendPending     = "Creating encrypted gift..."
	MsgSendSuccess     = "Gift sent successfully!"
	MsgDecryptPending  = "Verifying..."
	MsgDecryptSuccess  = "Decrypted successfully!"
	MsgDecryptFailed   = "Decryption failed"
	MsgAlreadyVerified = "Already verified"
	MsgLoadFailed      = "Failed to load gifts"
	MsgCheckFailed     = "Check failed"
	MsgAvailable       = "System available!"
	MsgUnavailable     = "System unavailable"
	MsgInitFailed      = "FHEVM initialization failed"
)

// IsUserRejected reports whether the signer refused the transaction.
func IsUserRejected(err error) bool {
	return blockchain.IsType(err, blockchain.ErrUserRejected)
}

// IsAlreadyVerified reports a decryption that lost the race to another
// verification of the same gift.
func IsAlreadyVerified(err error) bool {
	return blockchain.IsType(err, blockchain.ErrAlreadyVerified)
}

// isReverted reports a verification transaction that was mined and failed
// or reverted in simulation.
func isReverted(err error) bool {
	return blockchain.IsType(err, blockchain.ErrTransactionFailed) ||
		blockchain.IsType(err, blockchain.ErrReverted)
}

// UserMessage maps err to banner text. A signer rejection and a missing
// wallet get their own messages, as does a failed FHE setup; everything else shows fallback.
func UserMessage(err error, fallback string) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotConnected):
		return MsgConnectFirst
	case IsUserRejected(err):
		return MsgRejected
	case errors.Is(err, ErrFHEInit):
		return MsgInitFailed
	default:
		return fallback
	}
}
