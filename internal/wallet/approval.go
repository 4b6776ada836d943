package wallet

import (
	"context"
	"fmt"

	"rhystmorgan/giftterm/internal/contract"
)

// PendingApproval is a signature request waiting on the user. Exactly one of
// Approve or Reject should be called.
type PendingApproval struct {
	Request contract.ApprovalRequest
	reply   chan error
}

func (p *PendingApproval) Approve() {
	p.respond(nil)
}

func (p *PendingApproval) Reject() {
	p.respond(fmt.Errorf("%s: %w", p.Request.Method, contract.ErrUserRejected))
}

func (p *PendingApproval) respond(err error) {
	select {
	case p.reply <- err:
	default:
	}
}

// ApprovalBroker hands signature requests from the signing goroutine to the
// UI and waits for the answer. It implements contract.Approver.
type ApprovalBroker struct {
	requests chan *PendingApproval
}

func NewApprovalBroker() *ApprovalBroker {
	return &ApprovalBroker{requests: make(chan *PendingApproval)}
}

// Requests yields one PendingApproval per transaction awaiting a signature.
func (b *ApprovalBroker) Requests() <-chan *PendingApproval {
	return b.requests
}

func (b *ApprovalBroker) Approve(ctx context.Context, req contract.ApprovalRequest) error {
	pending := &PendingApproval{Request: req, reply: make(chan error, 1)}

	select {
	case b.requests <- pending:
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case err := <-pending.reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
