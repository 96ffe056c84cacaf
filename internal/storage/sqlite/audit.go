package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/mmynk/claimflow/internal/models"
)

// AppendAudit inserts an audit entry. There is no update or delete counterpart.
func (s *SQLiteStore) AppendAudit(ctx context.Context, entry *models.AuditLogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt == 0 {
		entry.CreatedAt = s.unixNow()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (id, claim_id, actor_id, action, comment, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.ClaimID, entry.ActorID, string(entry.Action), nullString(entry.Comment), entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert audit entry: %w", err)
	}

	return nil
}

// ListAudit retrieves a claim's audit entries in insertion order.
func (s *SQLiteStore) ListAudit(ctx context.Context, claimID string) ([]*models.AuditLogEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, claim_id, actor_id, action, comment, created_at
		 FROM audit_log WHERE claim_id = ? ORDER BY created_at, rowid`,
		claimID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit entries: %w", err)
	}
	defer rows.Close()

	var entries []*models.AuditLogEntry
	for rows.Next() {
		entry := &models.AuditLogEntry{}
		var action string
		var comment sql.NullString
		if err := rows.Scan(&entry.ID, &entry.ClaimID, &entry.ActorID, &action, &comment, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan audit entry: %w", err)
		}
		entry.Action = models.AuditAction(action)
		entry.Comment = comment.String
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate audit entries: %w", err)
	}

	return entries, nil
}
