// Package notify delivers workflow alerts outside the request path.
//
// The workflow publishes an Event after each committed change. A Dispatcher
// queues it and fans it out to every recipient through a Sink. Delivery
// failures are logged and counted and never reach the publisher.
package notify

import (
	"context"

	"github.com/mmynk/claimflow/internal/models"
)

// Event types.
const (
	TypeClaimSubmitted        = "claim_submitted"
	TypeClaimAssigned         = "claim_assigned"
	TypeClaimVerified         = "claim_verified"
	TypeClaimAutoVerified     = "claim_auto_verified"
	TypeClaimAwaitingApproval = "claim_awaiting_approval"
	TypeClaimApproved         = "claim_approved"
	TypeClaimRejected         = "claim_rejected"
	TypeReturnRequested       = "return_requested"
	TypeReturnApproved        = "return_approved"
	TypeReturnRejected        = "return_rejected"
)

// Event is one alert addressed to one or more accounts.
type Event struct {
	Type       string
	Recipients []string
	Title      string
	Message    string
	ClaimID    string
}

// Sink delivers a single notification.
type Sink interface {
	Notify(ctx context.Context, n models.Notification) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, n models.Notification) error

// Notify calls f.
func (f SinkFunc) Notify(ctx context.Context, n models.Notification) error {
	return f(ctx, n)
}
