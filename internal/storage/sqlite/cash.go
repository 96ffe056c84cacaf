package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

// CreateAssignment persists a new open money assignment.
func (s *SQLiteStore) CreateAssignment(ctx context.Context, a *models.MoneyAssignment) error {
	if a.ID == "" {
		a.ID = uuid.New().String()
	}
	if a.AssignedAt == 0 {
		a.AssignedAt = s.unixNow()
	}
	a.Returned = false
	a.ReturnedAt = 0
	a.ReturnRequestID = ""

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO money_assignments (id, cashier_id, recipient_id, amount, assigned_at, is_returned)
		 VALUES (?, ?, ?, ?, ?, 0)`,
		a.ID, a.CashierID, a.RecipientID, a.Amount.String(), a.AssignedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert assignment: %w", err)
	}

	return nil
}

// ListOpenAssignments returns the open assignments of a recipient/cashier
// pair, oldest first.
func (s *SQLiteStore) ListOpenAssignments(ctx context.Context, recipientID, cashierID string) ([]*models.MoneyAssignment, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, cashier_id, recipient_id, amount, assigned_at
		 FROM money_assignments
		 WHERE recipient_id = ? AND cashier_id = ? AND is_returned = 0
		 ORDER BY assigned_at ASC, rowid ASC`,
		recipientID, cashierID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list open assignments: %w", err)
	}
	defer rows.Close()

	var out []*models.MoneyAssignment
	for rows.Next() {
		a := &models.MoneyAssignment{}
		var amount string
		if err := rows.Scan(&a.ID, &a.CashierID, &a.RecipientID, &amount, &a.AssignedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assignment: %w", err)
		}
		if a.Amount, err = parseDecimal(amount); err != nil {
			return nil, fmt.Errorf("assignment %s amount: %w", a.ID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate assignments: %w", err)
	}

	return out, nil
}

// CloseAssignment marks an open assignment returned. A closed assignment is
// never written again.
func (s *SQLiteStore) CloseAssignment(ctx context.Context, assignmentID, returnRequestID string, returnedAt int64) error {
	if returnedAt == 0 {
		returnedAt = s.unixNow()
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE money_assignments
		 SET is_returned = 1, returned_at = ?, return_request_id = ?
		 WHERE id = ? AND is_returned = 0`,
		returnedAt, nullString(returnRequestID), assignmentID,
	)
	if err != nil {
		return fmt.Errorf("failed to close assignment: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := s.exists(ctx, "money_assignments", assignmentID)
	if err != nil {
		return err
	}
	return s.conditionalMiss(exists, "assignment", assignmentID)
}

// CreateReturnRequest persists a new pending return request.
func (s *SQLiteStore) CreateReturnRequest(ctx context.Context, r *models.MoneyReturnRequest) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.RequestedAt == 0 {
		r.RequestedAt = s.unixNow()
	}
	r.Status = models.ReturnPending

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO money_return_requests (id, requester_id, cashier_id, amount, status, requested_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.ID, r.RequesterID, r.CashierID, r.Amount.String(), string(r.Status), r.RequestedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert return request: %w", err)
	}

	return nil
}

// GetReturnRequest retrieves a return request by ID.
func (s *SQLiteStore) GetReturnRequest(ctx context.Context, requestID string) (*models.MoneyReturnRequest, error) {
	r := &models.MoneyReturnRequest{}
	var (
		amount, status    string
		decidedAt         sql.NullInt64
		decidedBy, reason sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, requester_id, cashier_id, amount, status, requested_at, decided_at, decided_by, rejection_reason
		 FROM money_return_requests WHERE id = ?`,
		requestID,
	).Scan(&r.ID, &r.RequesterID, &r.CashierID, &amount, &status, &r.RequestedAt, &decidedAt, &decidedBy, &reason)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("return request %s: %w", requestID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get return request: %w", err)
	}

	if r.Amount, err = parseDecimal(amount); err != nil {
		return nil, fmt.Errorf("return request %s amount: %w", requestID, err)
	}
	r.Status = models.ReturnStatus(status)
	r.DecidedAt = decidedAt.Int64
	r.DecidedBy = decidedBy.String
	r.RejectionReason = reason.String

	return r, nil
}

// DecideReturnRequest moves a pending request to approved or rejected.
// The rejection reason is only written for rejections.
func (s *SQLiteStore) DecideReturnRequest(ctx context.Context, requestID string, d models.ReturnDecision) error {
	if d.Status != models.ReturnApproved && d.Status != models.ReturnRejected {
		return fmt.Errorf("invalid decision status %q", d.Status)
	}
	if d.DecidedAt == 0 {
		d.DecidedAt = s.unixNow()
	}
	var reason interface{}
	if d.Status == models.ReturnRejected {
		reason = nullString(d.Reason)
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE money_return_requests
		 SET status = ?, decided_at = ?, decided_by = ?, rejection_reason = ?
		 WHERE id = ? AND status = ?`,
		string(d.Status), d.DecidedAt, d.DecidedBy, reason, requestID, string(models.ReturnPending),
	)
	if err != nil {
		return fmt.Errorf("failed to decide return request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := s.exists(ctx, "money_return_requests", requestID)
	if err != nil {
		return err
	}
	return s.conditionalMiss(exists, "return request", requestID)
}

// ReopenReturnRequest undoes an approval whose money never moved.
func (s *SQLiteStore) ReopenReturnRequest(ctx context.Context, requestID string) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE money_return_requests
		 SET status = ?, decided_at = NULL, decided_by = NULL, rejection_reason = NULL
		 WHERE id = ? AND status = ?`,
		string(models.ReturnPending), requestID, string(models.ReturnApproved),
	)
	if err != nil {
		return fmt.Errorf("failed to reopen return request: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := s.exists(ctx, "money_return_requests", requestID)
	if err != nil {
		return err
	}
	return s.conditionalMiss(exists, "return request", requestID)
}
