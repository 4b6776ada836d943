package wallet

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	DefaultSessionTimeout = 15 * time.Minute
	DefaultCheckInterval  = 10 * time.Second
	expiringThreshold     = 2 * time.Minute
)

type SessionConfig struct {
	Timeout       time.Duration
	CheckInterval time.Duration
}

// Session is the unlocked account. It stays valid while the user is active.
type Session struct {
	Account      *Account
	Token        string
	CreatedAt    time.Time
	LastActivity time.Time
	ExpiresAt    time.Time
}

type SessionStatus string

const (
	SessionStatusActive   SessionStatus = "active"
	SessionStatusExpiring SessionStatus = "expiring"
	SessionStatusExpired  SessionStatus = "expired"
	SessionStatusInactive SessionStatus = "inactive"
)

// SessionManager holds at most one unlocked account and wipes its key once
// it has been idle for the configured timeout.
type SessionManager struct {
	mu      sync.RWMutex
	config  SessionConfig
	session *Session
	expired chan string
	stop    chan struct{}
	once    sync.Once
	now     func() time.Time
}

func NewSessionManager(config SessionConfig) *SessionManager {
	if config.Timeout <= 0 {
		config.Timeout = DefaultSessionTimeout
	}
	if config.CheckInterval <= 0 {
		config.CheckInterval = DefaultCheckInterval
	}

	sm := &SessionManager{
		config:  config,
		expired: make(chan string, 1),
		stop:    make(chan struct{}),
		now:     time.Now,
	}
	go sm.cleanupLoop()
	return sm
}

// Open starts a session for account, closing any previous one.
func (sm *SessionManager) Open(account *Account) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.session != nil {
		sm.session.Account.Wipe()
	}

	now := sm.now()
	sm.session = &Session{
		Account:      account,
		Token:        uuid.NewString(),
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(sm.config.Timeout),
	}
	return sm.session
}

// Current returns the live session, if any.
func (sm *SessionManager) Current() (*Session, bool) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.session == nil || sm.now().After(sm.session.ExpiresAt) {
		return nil, false
	}
	return sm.session, true
}

// Touch records user activity and pushes the expiry out.
func (sm *SessionManager) Touch() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.session == nil {
		return
	}
	now := sm.now()
	sm.session.LastActivity = now
	sm.session.ExpiresAt = now.Add(sm.config.Timeout)
}

func (sm *SessionManager) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.session != nil {
		sm.session.Account.Wipe()
		sm.session = nil
	}
}

// Expired delivers the token of each session closed for inactivity.
func (sm *SessionManager) Expired() <-chan string {
	return sm.expired
}

func (sm *SessionManager) Status() SessionStatus {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.session == nil {
		return SessionStatusInactive
	}
	remaining := sm.session.ExpiresAt.Sub(sm.now())
	switch {
	case remaining <= 0:
		return SessionStatusExpired
	case remaining < expiringThreshold:
		return SessionStatusExpiring
	default:
		return SessionStatusActive
	}
}

func (sm *SessionManager) TimeRemaining() time.Duration {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if sm.session == nil {
		return 0
	}
	remaining := sm.session.ExpiresAt.Sub(sm.now())
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (sm *SessionManager) Shutdown() {
	sm.once.Do(func() { close(sm.stop) })
	sm.Close()
}

func (sm *SessionManager) cleanupLoop() {
	ticker := time.NewTicker(sm.config.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			sm.expire()
		case <-sm.stop:
			return
		}
	}
}

// expire closes the session if its deadline has passed.
func (sm *SessionManager) expire() bool {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if sm.session == nil || !sm.now().After(sm.session.ExpiresAt) {
		return false
	}

	token := sm.session.Token
	sm.session.Account.Wipe()
	sm.session = nil

	select {
	case sm.expired <- token:
	default:
	}
	return true
}
