// Package audit appends immutable action records for claims.
package audit

import (
	"context"
	"log/slog"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

// Recorder writes audit entries. It never updates or deletes them.
type Recorder struct {
	store storage.AuditStore
}

// NewRecorder creates a Recorder.
func NewRecorder(store storage.AuditStore) *Recorder {
	return &Recorder{store: store}
}

// Record appends an entry for claimID.
func (r *Recorder) Record(ctx context.Context, claimID, actorID string, action models.AuditAction, comment string) error {
	entry := &models.AuditLogEntry{
		ClaimID: claimID,
		ActorID: actorID,
		Action:  action,
		Comment: comment,
	}
	if err := r.store.AppendAudit(ctx, entry); err != nil {
		slog.Error("Audit append failed", "claim_id", claimID, "action", action, "error", err)
		return apperr.Dependency("audit "+string(action), err)
	}
	return nil
}

// History returns the entries for claimID, oldest first.
func (r *Recorder) History(ctx context.Context, claimID string) ([]*models.AuditLogEntry, error) {
	entries, err := r.store.ListAudit(ctx, claimID)
	if err != nil {
		return nil, apperr.Dependency("audit history", err)
	}
	return entries, nil
}
