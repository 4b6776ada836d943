package registry

import (
	"sync"
	"time"
)

type StatusKind string

const (
	StatusPending StatusKind = "pending"
	StatusSuccess StatusKind = "success"
	StatusError   StatusKind = "error"
)

const (
	SuccessDismissDelay = 2 * time.Second
	ErrorDismissDelay   = 3 * time.Second
)

// DismissDelay is how long a status stays on screen. Pending statuses have
// no delay; they are always replaced by the terminal status of the same
// operation.
func DismissDelay(kind StatusKind) time.Duration {
	switch kind {
	case StatusSuccess:
		return SuccessDismissDelay
	case StatusError:
		return ErrorDismissDelay
	default:
		return 0
	}
}

// Status is the transient notification shown in the banner.
type Status struct {
	Visible bool
	Kind    StatusKind
	Message string
	Seq     uint64
}

// Banner holds the current status. Every Show bumps the sequence so that
// a stale dismiss timer cannot hide a newer status.
type Banner struct {
	mu      sync.Mutex
	current Status
	seq     uint64
}

func (b *Banner) Show(kind StatusKind, message string) Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	b.current = Status{Visible: true, Kind: kind, Message: message, Seq: b.seq}
	return b.current
}

func (b *Banner) Pending(message string) Status { return b.Show(StatusPending, message) }
func (b *Banner) Success(message string) Status { return b.Show(StatusSuccess, message) }
func (b *Banner) Error(message string) Status   { return b.Show(StatusError, message) }

// Expire hides the banner if seq is still the status on screen.
func (b *Banner) Expire(seq uint64) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.current.Seq != seq || !b.current.Visible {
		return false
	}
	b.current = Status{Kind: StatusPending, Seq: seq}
	return true
}

func (b *Banner) Current() Status {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.current
}
