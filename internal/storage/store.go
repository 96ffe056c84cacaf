// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/models"
)

var (
	// ErrNotFound is returned (wrapped) when the referenced row does not exist.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned (wrapped) when a conditional write matched no
	// row because the stored pre-image no longer satisfies the precondition.
	ErrConflict = errors.New("precondition failed")
)

// ClaimTransition is a conditional claim write. It applies only while the
// stored status is one of From.
type ClaimTransition struct {
	From []models.ClaimStatus
	To   models.ClaimStatus

	// SetReviewer replaces the reviewer with ReviewerID ("" clears it).
	SetReviewer bool
	ReviewerID  string

	// AssignedByComment is written when non-nil.
	AssignedByComment *string
}

// ClaimStore persists claims.
type ClaimStore interface {
	// CreateClaim persists a new claim in status submitted and assigns the
	// next transaction number. claim.ID, TransactionNumber and CreatedAt are
	// populated by the store.
	CreateClaim(ctx context.Context, claim *models.Claim) error

	// GetClaim retrieves a claim by ID. Returns ErrNotFound when absent.
	GetClaim(ctx context.Context, claimID string) (*models.Claim, error)

	// TransitionClaim applies t to the claim. Returns ErrConflict when the
	// stored status is not in t.From, ErrNotFound when the claim is absent.
	TransitionClaim(ctx context.Context, claimID string, t ClaimTransition) error
}

// AccountStore persists accounts and their balances.
type AccountStore interface {
	CreateAccount(ctx context.Context, account *models.Account) error

	// GetAccount returns ErrNotFound when absent.
	GetAccount(ctx context.Context, accountID string) (*models.Account, error)

	// ListAccountIDsByRole returns the ids of every account holding role.
	ListAccountIDsByRole(ctx context.Context, role models.Role) ([]string, error)

	// ApplyBalanceDelta atomically adds delta to the account balance and
	// returns the new balance. It is a single call at the store boundary,
	// never a read followed by a separate write from the caller.
	ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error)
}

// AuditStore appends and lists audit entries. Entries are never updated.
type AuditStore interface {
	AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error
	ListAudit(ctx context.Context, claimID string) ([]*models.AuditLogEntry, error)
}

// AssignmentStore persists money assignments.
type AssignmentStore interface {
	CreateAssignment(ctx context.Context, a *models.MoneyAssignment) error

	// ListOpenAssignments returns open assignments for the pair ordered by
	// AssignedAt ascending, insertion order breaking ties.
	ListOpenAssignments(ctx context.Context, recipientID, cashierID string) ([]*models.MoneyAssignment, error)

	// CloseAssignment marks an open assignment returned. Returns ErrConflict
	// when it is already closed.
	CloseAssignment(ctx context.Context, assignmentID, returnRequestID string, returnedAt int64) error
}

// ReturnRequestStore persists money return requests.
type ReturnRequestStore interface {
	CreateReturnRequest(ctx context.Context, r *models.MoneyReturnRequest) error

	// GetReturnRequest returns ErrNotFound when absent.
	GetReturnRequest(ctx context.Context, requestID string) (*models.MoneyReturnRequest, error)

	// DecideReturnRequest moves a pending request to the decision's status.
	// Returns ErrConflict when the request is no longer pending.
	DecideReturnRequest(ctx context.Context, requestID string, d models.ReturnDecision) error

	// ReopenReturnRequest moves an approved request back to pending and
	// clears its decision. Returns ErrConflict when it is not approved.
	ReopenReturnRequest(ctx context.Context, requestID string) error
}

// NotificationStore appends delivered notifications.
type NotificationStore interface {
	AppendNotification(ctx context.Context, n *models.Notification) error
	ListNotifications(ctx context.Context, accountID string) ([]*models.Notification, error)
}

// SettingsStore is the configuration source for runtime business settings.
type SettingsStore interface {
	// GetSetting returns ok=false when the key is not set.
	GetSetting(ctx context.Context, key string) (value string, ok bool, err error)
	PutSetting(ctx context.Context, key, value string) error
}

// Store defines every storage operation used by claimflow.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the workflow layer.
type Store interface {
	ClaimStore
	AccountStore
	AuditStore
	AssignmentStore
	ReturnRequestStore
	NotificationStore
	SettingsStore

	// Close releases any resources held by the store.
	Close() error
}
