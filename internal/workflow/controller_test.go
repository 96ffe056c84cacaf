package workflow

import (
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/notify"
	"github.com/mmynk/claimflow/internal/policy"
	"github.com/mmynk/claimflow/internal/storage"
)

func TestEmployeeWithoutEngineerRoutesToAdminPool(t *testing.T) {
	f := newFixture(t)
	admin1 := f.account(t, "Ada", models.RoleAdmin)
	admin2 := f.account(t, "Grace", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)

	claim := f.file(t, emp.ID, 100)
	got, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)

	assert.Equal(t, models.StatusSubmitted, got.Status)
	assert.False(t, f.claim(t, claim.ID).HasReviewer())

	submitted := f.events.ofType(notify.TypeClaimSubmitted)
	require.Len(t, submitted, 1)
	assert.ElementsMatch(t, []string{admin1.ID, admin2.ID}, submitted[0].Recipients)
	assert.Equal(t, []models.AuditAction{models.AuditFiled, models.AuditSubmitted}, f.actions(t, claim.ID))
}

func TestSubmitRoutesToReportingEngineer(t *testing.T) {
	f := newFixture(t)
	f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 100)
	got, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)
	assert.Equal(t, eng.ID, got.ReviewerID)
	assert.Equal(t, eng.ID, f.claim(t, claim.ID).ReviewerID)

	submitted := f.events.ofType(notify.TypeClaimSubmitted)
	require.Len(t, submitted, 1)
	assert.Equal(t, []string{eng.ID}, submitted[0].Recipients)
}

func TestSubmitPermissions(t *testing.T) {
	f := newFixture(t)
	emp := f.account(t, "Eve", models.RoleEmployee)
	other := f.account(t, "Mallory", models.RoleEmployee)
	claim := f.file(t, emp.ID, 100)

	_, err := f.ctl.Submit(f.ctx, claim.ID, other.ID)
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "got %v", err)

	_, err = f.ctl.Submit(f.ctx, claim.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "got %v", err)

	_, err = f.ctl.Submit(f.ctx, "missing", emp.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound), "got %v", err)
}

func TestAdminSubmittingOwnClaimApproves(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	claim := f.file(t, admin.ID, 250)

	got, err := f.ctl.Submit(f.ctx, claim.ID, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)
	requireAmount(t, -250, f.balance(t, admin.ID))
	assert.Equal(t,
		[]models.AuditAction{models.AuditFiled, models.AuditAutoVerified, models.AuditApproved},
		f.actions(t, claim.ID))
}

func TestEngineerOwnClaimVerifyThenApprove(t *testing.T) {
	f := newFixture(t)
	f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)

	claim := f.file(t, eng.ID, 40000)
	_, err := f.ctl.Submit(f.ctx, claim.ID, eng.ID)
	require.NoError(t, err)
	assert.False(t, f.claim(t, claim.ID).HasReviewer(), "engineer claims go to the admin pool")

	verified, err := f.ctl.Verify(f.ctx, claim.ID, eng.ID, "receipts attached")
	require.NoError(t, err)
	assert.Equal(t, models.StatusVerified, verified.Status)

	approved, err := f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, approved.Status)
	requireAmount(t, -40000, f.balance(t, eng.ID))

	owner := f.events.ofType(notify.TypeClaimApproved)
	require.Len(t, owner, 1)
	assert.Contains(t, owner[0].Message, "engineer balance", "engineer owners get their own template")
}

func TestEngineerApprovalLimit(t *testing.T) {
	f := newFixture(t)
	f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.account(t, "Eve", models.RoleEmployee)

	t.Run("above limit is refused with amount and limit", func(t *testing.T) {
		claim := f.file(t, emp.ID, 60000)

		_, err := f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
		require.True(t, apperr.Is(err, apperr.KindLimitExceeded), "got %v", err)

		var appErr *apperr.Error
		require.True(t, errors.As(err, &appErr))
		requireAmount(t, 60000, appErr.Amount)
		requireAmount(t, 50000, appErr.Limit)
		assert.Contains(t, err.Error(), "60000")
		assert.Contains(t, err.Error(), "50000")

		assert.Equal(t, models.StatusSubmitted, f.claim(t, claim.ID).Status)
		requireAmount(t, 0, f.balance(t, emp.ID))
	})

	t.Run("exactly at limit is allowed", func(t *testing.T) {
		claim := f.file(t, emp.ID, 50000)
		got, err := f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
		require.NoError(t, err)
		assert.Equal(t, models.StatusApproved, got.Status)
	})

	t.Run("configured limit applies", func(t *testing.T) {
		require.NoError(t, f.store.PutSetting(f.ctx, policy.ApprovalLimitKey, "1000"))
		defer f.store.PutSetting(f.ctx, policy.ApprovalLimitKey, "50000")

		claim := f.file(t, emp.ID, 1500)
		_, err := f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
		assert.True(t, apperr.Is(err, apperr.KindLimitExceeded), "got %v", err)
	})
}

func TestVerifyEscalation(t *testing.T) {
	tests := []struct {
		name      string
		amount    decimal.Decimal
		escalates bool
	}{
		{"below limit", decimal.RequireFromString("49999.99"), false},
		{"at limit", decimal.NewFromInt(50000), true},
		{"above limit", decimal.NewFromInt(70000), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			admin := f.account(t, "Ada", models.RoleAdmin)
			eng := f.account(t, "Linus", models.RoleEngineer)
			emp := f.accountWith(t, &models.Account{
				DisplayName:         "Eve",
				Roles:               models.NewRoleSet(models.RoleEmployee),
				ReportingEngineerID: eng.ID,
			})

			claim, err := f.ctl.File(f.ctx, emp.ID, tt.amount, "equipment", "")
			require.NoError(t, err)
			_, err = f.ctl.Submit(f.ctx, claim.ID, emp.ID)
			require.NoError(t, err)

			_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
			require.NoError(t, err)

			require.Len(t, f.events.ofType(notify.TypeClaimVerified), 1)
			awaiting := f.events.ofType(notify.TypeClaimAwaitingApproval)
			if !tt.escalates {
				assert.Empty(t, awaiting)
				return
			}
			require.Len(t, awaiting, 1)
			assert.Equal(t, []string{admin.ID}, awaiting[0].Recipients)
		})
	}
}

func TestVerifyRequiresReviewer(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	other := f.account(t, "Ken", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 100)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)

	_, err = f.ctl.Verify(f.ctx, claim.ID, other.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "got %v", err)

	_, err = f.ctl.Verify(f.ctx, claim.ID, admin.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "got %v", err)

	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)

	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "verify only leaves submitted")

	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.NoError(t, err)

	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	assert.Contains(t, err.Error(), "already approved")
}

func TestAdminApprovesSubmittedClaimAutoVerifies(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)

	claim := f.file(t, emp.ID, 70000)
	got, err := f.ctl.Approve(f.ctx, claim.ID, admin.ID, "ok")
	require.NoError(t, err)
	assert.Equal(t, models.StatusApproved, got.Status)

	requireAmount(t, -70000, f.balance(t, emp.ID))
	assert.Equal(t,
		[]models.AuditAction{models.AuditFiled, models.AuditAutoVerified, models.AuditApproved},
		f.actions(t, claim.ID))

	auto := f.events.ofType(notify.TypeClaimAutoVerified)
	require.Len(t, auto, 1)
	assert.Equal(t, []string{emp.ID}, auto[0].Recipients)
	require.Len(t, f.events.ofType(notify.TypeClaimApproved), 1)
}

func TestApproveVerifiedClaimAsAdmin(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 80000)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)
	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)

	_, err = f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindLimitExceeded), "reviewer above limit: got %v", err)

	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.NoError(t, err)
	assert.Empty(t, f.events.ofType(notify.TypeClaimAutoVerified))
	requireAmount(t, -80000, f.balance(t, emp.ID))
}

func TestApprovePermissions(t *testing.T) {
	f := newFixture(t)
	emp := f.account(t, "Eve", models.RoleEmployee)
	cashier := f.account(t, "Cas", models.RoleCashier)
	eng := f.account(t, "Linus", models.RoleEngineer)
	admin := f.account(t, "Ada", models.RoleAdmin)

	claim := f.file(t, emp.ID, 100)

	_, err := f.ctl.Approve(f.ctx, claim.ID, emp.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "owner: got %v", err)
	_, err = f.ctl.Approve(f.ctx, claim.ID, cashier.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "cashier: got %v", err)

	// Move to verified through an admin-assigned reviewer.
	_, err = f.ctl.Assign(f.ctx, claim.ID, eng.ID, admin.ID, "")
	require.NoError(t, err)
	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)

	other := f.account(t, "Ken", models.RoleEngineer)
	_, err = f.ctl.Approve(f.ctx, claim.ID, other.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "engineer on verified claim: got %v", err)
	assert.Equal(t, models.StatusVerified, f.claim(t, claim.ID).Status)
}

func TestConcurrentApprovesDebitOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	admin2 := f.account(t, "Grace", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.account(t, "Eve", models.RoleEmployee)

	claim := f.file(t, emp.ID, 1000)
	actors := []string{admin.ID, admin2.ID, eng.ID, admin.ID, eng.ID, admin2.ID, admin.ID, eng.ID}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		successes int
		failures  []error
	)
	for _, actor := range actors {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.ctl.Approve(f.ctx, claim.ID, actor, "")
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
				return
			}
			failures = append(failures, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, successes)
	for _, err := range failures {
		assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "got %v", err)
	}
	requireAmount(t, -1000, f.balance(t, emp.ID))
	assert.Equal(t, models.StatusApproved, f.claim(t, claim.ID).Status)

	approvals := 0
	for _, a := range f.actions(t, claim.ID) {
		if a == models.AuditApproved {
			approvals++
		}
	}
	assert.Equal(t, 1, approvals)
}

func TestApproveLedgerFailureRevertsToVerified(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)
	claim := f.file(t, emp.ID, 500)

	f.store.deltaErr = func(accountID string, delta decimal.Decimal) error {
		if accountID == emp.ID && delta.IsNegative() {
			return errors.New("database is locked")
		}
		return nil
	}

	_, err := f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.True(t, apperr.Is(err, apperr.KindDependency), "got %v", err)

	assert.Equal(t, models.StatusVerified, f.claim(t, claim.ID).Status)
	requireAmount(t, 0, f.balance(t, emp.ID))
	assert.Equal(t,
		[]models.AuditAction{models.AuditFiled, models.AuditAutoVerified, models.AuditApprovalReverted},
		f.actions(t, claim.ID))
	assert.Empty(t, f.events.ofType(notify.TypeClaimApproved))

	// Once the ledger recovers the approval goes through from verified.
	f.store.deltaErr = nil
	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.NoError(t, err)
	requireAmount(t, -500, f.balance(t, emp.ID))
}

func TestEngineerApproveLedgerFailureRevertsToVerified(t *testing.T) {
	f := newFixture(t)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 500)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)

	f.store.deltaErr = func(accountID string, delta decimal.Decimal) error {
		if accountID == emp.ID && delta.IsNegative() {
			return errors.New("database is locked")
		}
		return nil
	}

	_, err = f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
	require.True(t, apperr.Is(err, apperr.KindDependency), "got %v", err)

	stored := f.claim(t, claim.ID)
	assert.Equal(t, models.StatusVerified, stored.Status, "approval from submitted still reverts to verified")
	assert.Equal(t, eng.ID, stored.ReviewerID)
	requireAmount(t, 0, f.balance(t, emp.ID))
	assert.Equal(t,
		[]models.AuditAction{models.AuditFiled, models.AuditSubmitted, models.AuditApprovalReverted},
		f.actions(t, claim.ID))

	f.store.deltaErr = nil
	_, err = f.ctl.Approve(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)
	requireAmount(t, -500, f.balance(t, emp.ID))
}

func TestFailedTransitionOutcomeCounters(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)
	claim := f.file(t, emp.ID, 500)

	counter := func(outcome string) float64 {
		return testutil.ToFloat64(metrics.Transitions.WithLabelValues(string(policy.ActionApprove), outcome))
	}
	errorsBefore, rejectedBefore := counter(metrics.OutcomeError), counter(metrics.OutcomeRejected)

	_, err := f.ctl.Approve(f.ctx, claim.ID, emp.ID, "")
	require.True(t, apperr.Is(err, apperr.KindPermissionDenied), "got %v", err)
	assert.Equal(t, rejectedBefore+1, counter(metrics.OutcomeRejected))

	f.store.deltaErr = func(string, decimal.Decimal) error { return errors.New("database is locked") }
	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.True(t, apperr.Is(err, apperr.KindDependency), "got %v", err)
	assert.Equal(t, errorsBefore+1, counter(metrics.OutcomeError))
	assert.Equal(t, rejectedBefore+1, counter(metrics.OutcomeRejected))
}

func TestApproveRevertFailureIsInconsistent(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)
	claim := f.file(t, emp.ID, 500)

	f.store.deltaErr = func(string, decimal.Decimal) error { return errors.New("disk I/O error") }
	f.store.transitionErr = func(_ string, tr storage.ClaimTransition) error {
		if tr.To == models.StatusVerified && tr.From[0] == models.StatusApproved {
			return errors.New("disk I/O error")
		}
		return nil
	}

	_, err := f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.True(t, apperr.Is(err, apperr.KindInconsistent), "got %v", err)

	var appErr *apperr.Error
	require.True(t, errors.As(err, &appErr))
	assert.Error(t, appErr.Compensation)
}

func TestApproveAuditFailureUndoesDebit(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	emp := f.account(t, "Eve", models.RoleEmployee)
	claim := f.file(t, emp.ID, 300)

	f.store.auditErr = func(e *models.AuditLogEntry) error {
		if e.Action == models.AuditApproved {
			return errors.New("disk full")
		}
		return nil
	}

	_, err := f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.True(t, apperr.Is(err, apperr.KindDependency), "got %v", err)
	assert.Equal(t, models.StatusVerified, f.claim(t, claim.ID).Status)
	requireAmount(t, 0, f.balance(t, emp.ID))
}

func TestRejectApprovedFailsForEveryRole(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})
	cashier := f.account(t, "Cas", models.RoleCashier)

	claim := f.file(t, emp.ID, 100)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)
	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	require.NoError(t, err)

	for _, actor := range []string{admin.ID, eng.ID, emp.ID, cashier.ID, ""} {
		_, err := f.ctl.Reject(f.ctx, claim.ID, actor, "too late")
		require.True(t, apperr.Is(err, apperr.KindInvalidTransition), "actor %q: got %v", actor, err)
		assert.Contains(t, err.Error(), "already approved")
	}
	assert.Equal(t, models.StatusApproved, f.claim(t, claim.ID).Status)
	requireAmount(t, -100, f.balance(t, emp.ID))
}

func TestReject(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	other := f.account(t, "Ken", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 100)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)

	_, err = f.ctl.Reject(f.ctx, claim.ID, other.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "non-reviewer engineer: got %v", err)
	_, err = f.ctl.Reject(f.ctx, claim.ID, emp.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "owner: got %v", err)

	got, err := f.ctl.Reject(f.ctx, claim.ID, eng.ID, "missing receipt")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	requireAmount(t, 0, f.balance(t, emp.ID))

	rejected := f.events.ofType(notify.TypeClaimRejected)
	require.Len(t, rejected, 1)
	assert.Equal(t, []string{emp.ID}, rejected[0].Recipients)
	assert.Contains(t, rejected[0].Message, "missing receipt")

	_, err = f.ctl.Reject(f.ctx, claim.ID, admin.ID, "")
	require.True(t, apperr.Is(err, apperr.KindInvalidTransition))
	assert.Contains(t, err.Error(), "already rejected")

	_, err = f.ctl.Approve(f.ctx, claim.ID, admin.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidTransition), "nothing leaves rejected")
}

func TestAssign(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	eng2 := f.account(t, "Ken", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	claim := f.file(t, emp.ID, 100)
	_, err := f.ctl.Submit(f.ctx, claim.ID, emp.ID)
	require.NoError(t, err)
	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	require.NoError(t, err)

	_, err = f.ctl.Assign(f.ctx, claim.ID, eng2.ID, eng.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "non-admin: got %v", err)

	_, err = f.ctl.Assign(f.ctx, claim.ID, emp.ID, admin.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput), "non-engineer reviewer: got %v", err)

	got, err := f.ctl.Assign(f.ctx, claim.ID, eng2.ID, admin.ID, "second opinion")
	require.NoError(t, err)
	assert.Equal(t, models.StatusSubmitted, got.Status, "assign puts the claim back to submitted")

	stored := f.claim(t, claim.ID)
	assert.Equal(t, eng2.ID, stored.ReviewerID)
	assert.Equal(t, "second opinion", stored.AssignedByComment)

	assigned := f.events.ofType(notify.TypeClaimAssigned)
	require.Len(t, assigned, 1)
	assert.Equal(t, []string{eng2.ID}, assigned[0].Recipients)

	_, err = f.ctl.Verify(f.ctx, claim.ID, eng.ID, "")
	assert.True(t, apperr.Is(err, apperr.KindPermissionDenied), "previous reviewer lost the claim")
}

func TestTransactionNumberAssignedOnce(t *testing.T) {
	f := newFixture(t)
	admin := f.account(t, "Ada", models.RoleAdmin)
	eng := f.account(t, "Linus", models.RoleEngineer)
	emp := f.accountWith(t, &models.Account{
		DisplayName:         "Eve",
		Roles:               models.NewRoleSet(models.RoleEmployee),
		ReportingEngineerID: eng.ID,
	})

	first := f.file(t, emp.ID, 100)
	second := f.file(t, emp.ID, 200)
	require.NotZero(t, first.TransactionNumber)
	assert.Equal(t, first.TransactionNumber+1, second.TransactionNumber)

	want := first.TransactionNumber
	steps := []func() error{
		func() error { _, err := f.ctl.Submit(f.ctx, first.ID, emp.ID); return err },
		func() error { _, err := f.ctl.Verify(f.ctx, first.ID, eng.ID, ""); return err },
		func() error { _, err := f.ctl.Assign(f.ctx, first.ID, eng.ID, admin.ID, "again"); return err },
		func() error { _, err := f.ctl.Submit(f.ctx, first.ID, emp.ID); return err },
		func() error { _, err := f.ctl.Approve(f.ctx, first.ID, admin.ID, ""); return err },
	}
	for i, step := range steps {
		require.NoError(t, step(), "step %d", i)
		assert.Equal(t, want, f.claim(t, first.ID).TransactionNumber, "step %d", i)
	}
}

func TestFileValidation(t *testing.T) {
	f := newFixture(t)
	emp := f.account(t, "Eve", models.RoleEmployee)

	_, err := f.ctl.File(f.ctx, emp.ID, decimal.Zero, "travel", "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = f.ctl.File(f.ctx, emp.ID, decimal.NewFromInt(10), "  ", "")
	assert.True(t, apperr.Is(err, apperr.KindInvalidInput))

	_, err = f.ctl.File(f.ctx, "ghost", decimal.NewFromInt(10), "travel", "")
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}
