package audit

import (
	"time"
)

// AuditAction is what was done to a gift.
type AuditAction string

const (
	AuditActionSend            AuditAction = "send"
	AuditActionDecrypt         AuditAction = "decrypt"
	AuditActionAlreadyVerified AuditAction = "already_verified"
	AuditActionRejected        AuditAction = "rejected"
	AuditActionFailed          AuditAction = "failed"
	AuditActionConnect         AuditAction = "connect"
	AuditActionDisconnect      AuditAction = "disconnect"
)

// AuditLog is one line of the journal.
type AuditLog struct {
	ID        string                 `json:"id"`
	GiftID    string                 `json:"gift_id,omitempty"`
	Action    AuditAction            `json:"action"`
	Timestamp time.Time              `json:"timestamp"`
	Account   string                 `json:"account,omitempty"`
	SessionID string                 `json:"session_id,omitempty"`
	TxHash    string                 `json:"tx_hash,omitempty"`
	Details   map[string]interface{} `json:"details,omitempty"`
}
