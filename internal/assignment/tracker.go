// Package assignment tracks cash handed out by cashiers and closes it
// against returns, oldest first.
package assignment

import (
	"context"
	"errors"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/policy"
	"github.com/mmynk/claimflow/internal/storage"
)

// ReturnResult reports what a return closed.
type ReturnResult struct {
	// Closed lists the closed assignment ids in the order they were closed.
	Closed []string

	// Uncovered is the part of the return not matched by a closed assignment.
	Uncovered decimal.Decimal
}

// Tracker records assignments and applies returns to them.
type Tracker struct {
	store storage.AssignmentStore
}

// NewTracker creates a Tracker.
func NewTracker(store storage.AssignmentStore) *Tracker {
	return &Tracker{store: store}
}

// RecordAssignment inserts an open assignment. Balances are not touched.
func (t *Tracker) RecordAssignment(ctx context.Context, cashierID, recipientID string, amount decimal.Decimal) (*models.MoneyAssignment, error) {
	if !amount.IsPositive() {
		return nil, apperr.InvalidInput("record assignment", "amount must be positive, got %s", amount)
	}
	a := &models.MoneyAssignment{
		CashierID:   cashierID,
		RecipientID: recipientID,
		Amount:      amount,
	}
	if err := t.store.CreateAssignment(ctx, a); err != nil {
		return nil, apperr.Dependency("record assignment", err)
	}

	slog.Info("Assignment recorded", "assignment_id", a.ID, "cashier_id", cashierID, "recipient_id", recipientID, "amount", amount)
	return a, nil
}

// Open lists the open assignments of a recipient/cashier pair, oldest first.
func (t *Tracker) Open(ctx context.Context, recipientID, cashierID string) ([]*models.MoneyAssignment, error) {
	open, err := t.store.ListOpenAssignments(ctx, recipientID, cashierID)
	if err != nil {
		return nil, apperr.Dependency("list assignments", err)
	}
	return open, nil
}

// ApplyReturn closes every open assignment of the pair that the return amount
// fully covers, scanning oldest first. Partially covered assignments stay
// open and untouched.
//
// An assignment closed concurrently by someone else is skipped and its amount
// stays uncovered. On a store failure the assignments closed so far are
// reported alongside the error.
func (t *Tracker) ApplyReturn(ctx context.Context, recipientID, cashierID string, amount decimal.Decimal, returnRequestID string) (ReturnResult, error) {
	open, err := t.Open(ctx, recipientID, cashierID)
	if err != nil {
		return ReturnResult{Uncovered: amount}, err
	}

	plan := policy.MatchReturn(open, amount)
	result := ReturnResult{Uncovered: plan.Uncovered}

	for i, a := range plan.Close {
		err := t.store.CloseAssignment(ctx, a.ID, returnRequestID, 0)
		if errors.Is(err, storage.ErrConflict) {
			slog.Warn("Assignment already closed, skipping", "assignment_id", a.ID, "return_request_id", returnRequestID)
			result.Uncovered = result.Uncovered.Add(a.Amount)
			continue
		}
		if err != nil {
			for _, rest := range plan.Close[i:] {
				result.Uncovered = result.Uncovered.Add(rest.Amount)
			}
			return result, apperr.Dependency("apply return", err)
		}
		result.Closed = append(result.Closed, a.ID)
		metrics.AssignmentsClosed.Inc()
	}

	slog.Info("Return applied to assignments",
		"recipient_id", recipientID,
		"cashier_id", cashierID,
		"amount", amount,
		"closed", len(result.Closed),
		"uncovered", result.Uncovered,
	)
	return result, nil
}
