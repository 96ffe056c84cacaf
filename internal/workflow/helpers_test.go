package workflow

import (
	"context"
	"path/filepath"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/notify"
	"github.com/mmynk/claimflow/internal/storage"
	"github.com/mmynk/claimflow/internal/storage/sqlite"
)

// faultyStore wraps a real store and lets tests fail individual calls.
// Hooks are set before the calls under test run.
type faultyStore struct {
	storage.Store

	deltaErr      func(accountID string, delta decimal.Decimal) error
	transitionErr func(claimID string, t storage.ClaimTransition) error
	auditErr      func(e *models.AuditLogEntry) error
	decideErr     func(requestID string, d models.ReturnDecision) error
	reopenErr     func(requestID string) error
	closeErr      func(assignmentID string) error
}

func (f *faultyStore) ApplyBalanceDelta(ctx context.Context, accountID string, delta decimal.Decimal) (decimal.Decimal, error) {
	if h := f.deltaErr; h != nil {
		if err := h(accountID, delta); err != nil {
			return decimal.Zero, err
		}
	}
	return f.Store.ApplyBalanceDelta(ctx, accountID, delta)
}

func (f *faultyStore) TransitionClaim(ctx context.Context, claimID string, t storage.ClaimTransition) error {
	if h := f.transitionErr; h != nil {
		if err := h(claimID, t); err != nil {
			return err
		}
	}
	return f.Store.TransitionClaim(ctx, claimID, t)
}

func (f *faultyStore) AppendAudit(ctx context.Context, e *models.AuditLogEntry) error {
	if h := f.auditErr; h != nil {
		if err := h(e); err != nil {
			return err
		}
	}
	return f.Store.AppendAudit(ctx, e)
}

func (f *faultyStore) DecideReturnRequest(ctx context.Context, id string, d models.ReturnDecision) error {
	if h := f.decideErr; h != nil {
		if err := h(id, d); err != nil {
			return err
		}
	}
	return f.Store.DecideReturnRequest(ctx, id, d)
}

func (f *faultyStore) ReopenReturnRequest(ctx context.Context, id string) error {
	if h := f.reopenErr; h != nil {
		if err := h(id); err != nil {
			return err
		}
	}
	return f.Store.ReopenReturnRequest(ctx, id)
}

func (f *faultyStore) CloseAssignment(ctx context.Context, id, rr string, at int64) error {
	if h := f.closeErr; h != nil {
		if err := h(id); err != nil {
			return err
		}
	}
	return f.Store.CloseAssignment(ctx, id, rr, at)
}

// recordingEvents is a Publisher that keeps every event.
type recordingEvents struct {
	mu     sync.Mutex
	events []notify.Event
}

func (r *recordingEvents) Publish(e notify.Event) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	return true
}

func (r *recordingEvents) ofType(typ string) []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []notify.Event
	for _, e := range r.events {
		if e.Type == typ {
			out = append(out, e)
		}
	}
	return out
}

func (r *recordingEvents) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

type fixture struct {
	ctx     context.Context
	store   *faultyStore
	events  *recordingEvents
	ctl     *Controller
	returns *Returns
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	raw, err := sqlite.New(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { raw.Close() })

	store := &faultyStore{Store: raw}
	events := &recordingEvents{}
	return &fixture{
		ctx:     context.Background(),
		store:   store,
		events:  events,
		ctl:     NewController(store, events),
		returns: NewReturns(store, events),
	}
}

func (f *fixture) account(t *testing.T, name string, roles ...models.Role) *models.Account {
	t.Helper()
	return f.accountWith(t, &models.Account{DisplayName: name, Roles: models.NewRoleSet(roles...)})
}

func (f *fixture) accountWith(t *testing.T, a *models.Account) *models.Account {
	t.Helper()
	require.NoError(t, f.store.CreateAccount(f.ctx, a))
	return a
}

func (f *fixture) file(t *testing.T, ownerID string, amount int64) *models.Claim {
	t.Helper()
	claim, err := f.ctl.File(f.ctx, ownerID, decimal.NewFromInt(amount), "travel", "")
	require.NoError(t, err)
	return claim
}

func (f *fixture) claim(t *testing.T, id string) *models.Claim {
	t.Helper()
	claim, err := f.store.GetClaim(f.ctx, id)
	require.NoError(t, err)
	return claim
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()
	bal, err := f.returns.Balance(f.ctx, id)
	require.NoError(t, err)
	return bal
}

func (f *fixture) fund(t *testing.T, id string, amount int64) {
	t.Helper()
	_, err := f.store.Store.ApplyBalanceDelta(f.ctx, id, decimal.NewFromInt(amount))
	require.NoError(t, err)
}

func (f *fixture) actions(t *testing.T, claimID string) []models.AuditAction {
	t.Helper()
	history, err := f.ctl.History(f.ctx, claimID)
	require.NoError(t, err)
	var out []models.AuditAction
	for _, e := range history {
		out = append(out, e.Action)
	}
	return out
}

func requireAmount(t *testing.T, want int64, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.NewFromInt(want).Equal(got), "amount = %s, want %d", got, want)
}
