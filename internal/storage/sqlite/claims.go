package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

const claimColumns = `id, owner_id, amount, category, description, status,
	assigned_engineer_id, assigned_by_comment, transaction_number, created_at, updated_at`

// CreateClaim persists a new claim in status submitted. The transaction
// number is computed inside the insert so it is assigned exactly once;
// the UNIQUE constraint rejects any duplicate.
func (s *SQLiteStore) CreateClaim(ctx context.Context, claim *models.Claim) error {
	// Generate IDs if not set
	if claim.ID == "" {
		claim.ID = uuid.New().String()
	}
	if claim.CreatedAt == 0 {
		claim.CreatedAt = s.unixNow()
	}
	claim.UpdatedAt = claim.CreatedAt
	claim.Status = models.StatusSubmitted

	err := s.db.QueryRowContext(ctx,
		`INSERT INTO claims (id, owner_id, amount, category, description, status,
			assigned_engineer_id, assigned_by_comment, transaction_number, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(transaction_number), 0) + 1 FROM claims), ?, ?)
		 RETURNING transaction_number`,
		claim.ID, claim.OwnerID, claim.Amount.String(), claim.Category, nullString(claim.Description),
		string(claim.Status), nullString(claim.ReviewerID), nullString(claim.AssignedByComment),
		claim.CreatedAt, claim.UpdatedAt,
	).Scan(&claim.TransactionNumber)
	if err != nil {
		return fmt.Errorf("failed to insert claim: %w", err)
	}

	return nil
}

// GetClaim retrieves a claim by ID.
func (s *SQLiteStore) GetClaim(ctx context.Context, claimID string) (*models.Claim, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+claimColumns+" FROM claims WHERE id = ?", claimID)
	claim, err := scanClaim(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", claimID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get claim: %w", err)
	}
	return claim, nil
}

// TransitionClaim applies a conditional status write. The pre-image status
// filter in the WHERE clause serializes concurrent transitions on one claim.
func (s *SQLiteStore) TransitionClaim(ctx context.Context, claimID string, t storage.ClaimTransition) error {
	if len(t.From) == 0 {
		return fmt.Errorf("transition for claim %s has no source status", claimID)
	}

	sets := []string{"status = ?", "updated_at = ?"}
	args := []interface{}{string(t.To), s.unixNow()}
	if t.SetReviewer {
		sets = append(sets, "assigned_engineer_id = ?")
		args = append(args, nullString(t.ReviewerID))
	}
	if t.AssignedByComment != nil {
		sets = append(sets, "assigned_by_comment = ?")
		args = append(args, nullString(*t.AssignedByComment))
	}

	args = append(args, claimID)
	for _, from := range t.From {
		args = append(args, string(from))
	}

	query := fmt.Sprintf("UPDATE claims SET %s WHERE id = ? AND status IN (%s)",
		strings.Join(sets, ", "), placeholders(len(t.From)))

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update claim: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 1 {
		return nil
	}

	exists, err := s.exists(ctx, "claims", claimID)
	if err != nil {
		return err
	}
	return s.conditionalMiss(exists, "claim", claimID)
}

func (s *SQLiteStore) exists(ctx context.Context, table, id string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx, "SELECT 1 FROM "+table+" WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check %s existence: %w", table, err)
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanClaim(row rowScanner) (*models.Claim, error) {
	claim := &models.Claim{}
	var (
		amount      string
		status      string
		description sql.NullString
		reviewer    sql.NullString
		comment     sql.NullString
	)
	if err := row.Scan(&claim.ID, &claim.OwnerID, &amount, &claim.Category, &description, &status,
		&reviewer, &comment, &claim.TransactionNumber, &claim.CreatedAt, &claim.UpdatedAt); err != nil {
		return nil, err
	}

	parsed, err := parseDecimal(amount)
	if err != nil {
		return nil, fmt.Errorf("claim %s amount: %w", claim.ID, err)
	}
	claim.Amount = parsed
	claim.Status = models.ClaimStatus(status)
	claim.Description = description.String
	claim.ReviewerID = reviewer.String
	claim.AssignedByComment = comment.String
	return claim, nil
}
