package models

import "github.com/shopspring/decimal"

// MoneyAssignment records cash handed out by a cashier to a recipient.
// It is open until a return closes it; a closed assignment never changes.
type MoneyAssignment struct {
	// ID is the unique identifier for the assignment (UUID format).
	ID string

	CashierID   string
	RecipientID string
	Amount      decimal.Decimal

	// AssignedAt is the Unix timestamp of the handout. Returns close
	// assignments oldest first by this field.
	AssignedAt int64

	// Returned is true once the assignment was closed by a return.
	Returned bool

	// ReturnedAt is the Unix timestamp of the close, zero while open.
	ReturnedAt int64

	// ReturnRequestID references the approved return request that closed it.
	ReturnRequestID string
}

// ReturnStatus is the state of a money return request.
type ReturnStatus string

const (
	ReturnPending  ReturnStatus = "pending"
	ReturnApproved ReturnStatus = "approved"
	ReturnRejected ReturnStatus = "rejected"
)

// ReasonInsufficientAtApproval is recorded when the requester's balance no
// longer covers the request at approval time.
const ReasonInsufficientAtApproval = "insufficient balance at time of approval"

// MoneyReturnRequest is a request from a recipient to hand cash back to a cashier.
type MoneyReturnRequest struct {
	ID          string
	RequesterID string
	CashierID   string
	Amount      decimal.Decimal
	Status      ReturnStatus

	// RequestedAt is the Unix timestamp of creation.
	RequestedAt int64

	// DecidedAt and DecidedBy are set on exit from pending, for either outcome.
	DecidedAt int64
	DecidedBy string

	// RejectionReason is set only when the request was rejected.
	RejectionReason string
}

// ReturnDecision is the outcome written when a request leaves pending.
type ReturnDecision struct {
	Status    ReturnStatus
	DecidedBy string
	DecidedAt int64
	Reason    string
}
