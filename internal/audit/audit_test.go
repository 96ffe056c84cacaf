package audit

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/models"
)

type memAudit struct {
	entries []*models.AuditLogEntry
	err     error
}

func (m *memAudit) AppendAudit(ctx context.Context, e *models.AuditLogEntry) error {
	if m.err != nil {
		return m.err
	}
	m.entries = append(m.entries, e)
	return nil
}

func (m *memAudit) ListAudit(ctx context.Context, claimID string) ([]*models.AuditLogEntry, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []*models.AuditLogEntry
	for _, e := range m.entries {
		if e.ClaimID == claimID {
			out = append(out, e)
		}
	}
	return out, nil
}

func TestRecorder(t *testing.T) {
	ctx := context.Background()
	mem := &memAudit{}
	r := NewRecorder(mem)

	require.NoError(t, r.Record(ctx, "c1", "admin", models.AuditAutoVerified, ""))
	require.NoError(t, r.Record(ctx, "c1", "admin", models.AuditApproved, "ok"))
	require.NoError(t, r.Record(ctx, "c2", "eng", models.AuditVerified, ""))

	history, err := r.History(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.AuditAutoVerified, history[0].Action)
	assert.Equal(t, models.AuditApproved, history[1].Action)
	assert.Equal(t, "ok", history[1].Comment)
}

func TestRecorderFailure(t *testing.T) {
	r := NewRecorder(&memAudit{err: errors.New("disk full")})

	err := r.Record(context.Background(), "c1", "a", models.AuditRejected, "")
	assert.True(t, apperr.Is(err, apperr.KindDependency))

	_, err = r.History(context.Background(), "c1")
	assert.True(t, apperr.Is(err, apperr.KindDependency))
}
