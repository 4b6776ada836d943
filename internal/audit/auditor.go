// Package audit keeps an append-only JSON-lines journal of gift actions
// under the data directory. Amounts are never written to it.
package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	defaultBatchSize     = 10
	defaultFlushInterval = time.Minute
)

// GiftAuditor batches entries in memory and appends them to a daily file.
type GiftAuditor struct {
	logFile    string
	sessionID  string
	batchSize  int
	batchMu    sync.Mutex
	batchLogs  []AuditLog
	flushTimer *time.Timer
	now        func() time.Time
}

func NewGiftAuditor(logDir, sessionID string) (*GiftAuditor, error) {
	if err := os.MkdirAll(logDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	auditor := &GiftAuditor{
		logFile:   filepath.Join(logDir, fmt.Sprintf("gift_audit_%s.log", time.Now().Format("2006-01-02"))),
		sessionID: sessionID,
		batchSize: defaultBatchSize,
		batchLogs: make([]AuditLog, 0, defaultBatchSize),
		now:       time.Now,
	}

	// Flush every minute if the batch never fills.
	auditor.flushTimer = time.AfterFunc(defaultFlushInterval, func() {
		_ = auditor.Flush()
	})

	return auditor, nil
}

func (a *GiftAuditor) LogFile() string {
	return a.logFile
}

// LogGiftAction queues one entry; a full batch is written immediately.
func (a *GiftAuditor) LogGiftAction(action AuditAction, giftID, account, txHash string, details map[string]interface{}) error {
	entry := AuditLog{
		ID:        uuid.NewString(),
		GiftID:    giftID,
		Action:    action,
		Timestamp: a.now(),
		Account:   account,
		SessionID: a.sessionID,
		TxHash:    txHash,
		Details:   details,
	}

	a.batchMu.Lock()
	a.batchLogs = append(a.batchLogs, entry)
	full := len(a.batchLogs) >= a.batchSize
	a.batchMu.Unlock()

	if full {
		return a.Flush()
	}
	return nil
}

// Flush writes all pending entries.
func (a *GiftAuditor) Flush() error {
	a.batchMu.Lock()
	if len(a.batchLogs) == 0 {
		a.batchMu.Unlock()
		return nil
	}

	if a.flushTimer != nil {
		a.flushTimer.Reset(defaultFlushInterval)
	}

	pending := make([]AuditLog, len(a.batchLogs))
	copy(pending, a.batchLogs)
	a.batchLogs = a.batchLogs[:0]
	a.batchMu.Unlock()

	file, err := os.OpenFile(a.logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	for _, entry := range pending {
		if err := encoder.Encode(entry); err != nil {
			return fmt.Errorf("failed to write audit log: %w", err)
		}
	}

	return nil
}

// GiftHistory returns every journaled entry for giftID, oldest first.
func (a *GiftAuditor) GiftHistory(giftID string) ([]AuditLog, error) {
	if err := a.Flush(); err != nil {
		return nil, err
	}

	file, err := os.Open(a.logFile)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	var logs []AuditLog
	decoder := json.NewDecoder(file)
	for {
		var entry AuditLog
		if err := decoder.Decode(&entry); err != nil {
			break
		}
		if entry.GiftID == giftID {
			logs = append(logs, entry)
		}
	}

	return logs, nil
}

func (a *GiftAuditor) Close() error {
	if a.flushTimer != nil {
		a.flushTimer.Stop()
	}
	return a.Flush()
}
