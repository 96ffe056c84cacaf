package workflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/assignment"
	"github.com/mmynk/claimflow/internal/authz"
	"github.com/mmynk/claimflow/internal/ledger"
	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

// ReturnApproval is the outcome of an approved return request.
type ReturnApproval struct {
	Request *models.MoneyReturnRequest

	// Closed lists the assignments the return closed, oldest first.
	Closed []string

	// Uncovered is the part of the return that closed no assignment.
	Uncovered decimal.Decimal
}

// Returns handles money handed back from recipients to cashiers.
type Returns struct {
	store    storage.Store
	resolver *authz.StoreResolver
	ledger   *ledger.Ledger
	tracker  *assignment.Tracker
	events   Publisher
	now      func() time.Time
}

// NewReturns creates a Returns over store, publishing to events.
func NewReturns(store storage.Store, events Publisher) *Returns {
	if events == nil {
		events = discard{}
	}
	return &Returns{
		store:    store,
		resolver: authz.NewResolver(store),
		ledger:   ledger.New(store),
		tracker:  assignment.NewTracker(store),
		events:   events,
		now:      time.Now,
	}
}

// RecordAssignment records cash handed from a cashier to a recipient.
func (r *Returns) RecordAssignment(ctx context.Context, cashierID, recipientID string, amount decimal.Decimal) (*models.MoneyAssignment, error) {
	const op = "record assignment"

	if err := r.requireCashier(ctx, op, cashierID); err != nil {
		return nil, err
	}
	if _, err := r.account(ctx, op, recipientID); err != nil {
		return nil, err
	}
	return r.tracker.RecordAssignment(ctx, cashierID, recipientID, amount)
}

// OpenAssignments lists the open assignments of a recipient/cashier pair.
func (r *Returns) OpenAssignments(ctx context.Context, recipientID, cashierID string) ([]*models.MoneyAssignment, error) {
	return r.tracker.Open(ctx, recipientID, cashierID)
}

// Balance returns the current balance of accountID.
func (r *Returns) Balance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	account, err := r.account(ctx, "balance", accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return account.Balance, nil
}

// Request returns a return request by id.
func (r *Returns) Request(ctx context.Context, requestID string) (*models.MoneyReturnRequest, error) {
	return r.request(ctx, "get return request", requestID)
}

// CreateReturnRequest opens a pending request to hand amount back to
// cashierID. The amount may not exceed the requester's balance.
func (r *Returns) CreateReturnRequest(ctx context.Context, requesterID, cashierID string, amount decimal.Decimal) (*models.MoneyReturnRequest, error) {
	const op = "create return request"

	if !amount.IsPositive() {
		return nil, apperr.InvalidInput(op, "amount must be positive, got %s", amount)
	}
	if requesterID == cashierID {
		return nil, apperr.InvalidInput(op, "cannot return money to yourself")
	}
	if err := r.requireCashier(ctx, op, cashierID); err != nil {
		return nil, err
	}
	requester, err := r.account(ctx, op, requesterID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(requester.Balance) {
		metrics.Transitions.WithLabelValues("return_request", metrics.OutcomeRejected).Inc()
		return nil, apperr.InsufficientFunds(op, amount, requester.Balance)
	}

	req := &models.MoneyReturnRequest{
		RequesterID: requesterID,
		CashierID:   cashierID,
		Amount:      amount,
		Status:      models.ReturnPending,
	}
	if err := r.store.CreateReturnRequest(ctx, req); err != nil {
		return nil, apperr.Dependency(op, err)
	}

	metrics.Transitions.WithLabelValues("return_request", metrics.OutcomeOK).Inc()
	slog.Info("Return request created", "request_id", req.ID, "requester_id", requesterID, "cashier_id", cashierID, "amount", amount)
	r.events.Publish(returnRequested(req))
	return req, nil
}

// ApproveReturnRequest approves the request, moves the money from requester
// to cashier and closes the assignments it covers.
//
// The request leaves pending before any money moves, so concurrent approvals
// of one request see apperr.KindInvalidTransition. A failed transfer puts the
// request back to pending.
//
// When the requester's balance no longer covers the amount the request is
// rejected instead. The error is then apperr.KindInsufficientFunds and the
// returned ReturnApproval carries the rejected request; it is nil on every
// other error.
func (r *Returns) ApproveReturnRequest(ctx context.Context, requestID, cashierID string) (*ReturnApproval, error) {
	const op = "approve return request"

	req, err := r.pending(ctx, op, requestID, cashierID)
	if err != nil {
		return nil, err
	}

	requester, err := r.account(ctx, op, req.RequesterID)
	if err != nil {
		return nil, err
	}
	if req.Amount.GreaterThan(requester.Balance) {
		// Only succeeds while the request is still pending, i.e. while no
		// transfer for it is in flight.
		rejected, err := r.decide(ctx, op, req, models.ReturnDecision{
			Status:    models.ReturnRejected,
			DecidedBy: cashierID,
			Reason:    models.ReasonInsufficientAtApproval,
		})
		if err != nil {
			return nil, err
		}
		metrics.Transitions.WithLabelValues("return_approve", metrics.OutcomeRejected).Inc()
		r.events.Publish(returnRejected(rejected))
		return &ReturnApproval{Request: rejected, Uncovered: req.Amount},
			apperr.InsufficientFunds(op, req.Amount, requester.Balance)
	}

	var approved *models.MoneyReturnRequest
	s := newSaga(op)
	err = s.run(ctx, step{
		name: "status",
		do: func(ctx context.Context) error {
			var err error
			approved, err = r.decide(ctx, op, req, models.ReturnDecision{
				Status:    models.ReturnApproved,
				DecidedBy: cashierID,
			})
			return err
		},
		undo: func(ctx context.Context) error {
			if err := r.store.ReopenReturnRequest(ctx, req.ID); err != nil {
				return apperr.Dependency(op, err)
			}
			return nil
		},
	})
	if err == nil {
		err = r.ledger.Transfer(ctx, req.RequesterID, req.CashierID, req.Amount)
		// An inconsistent transfer left money half moved; the request stays
		// approved so it is not approved twice.
		if err != nil && !apperr.Is(err, apperr.KindInconsistent) {
			err = s.compensate(ctx, "transfer", err)
		}
	}
	if err != nil {
		outcome := metrics.OutcomeError
		if apperr.Is(err, apperr.KindInconsistent) {
			outcome = metrics.OutcomeInconsistent
		}
		metrics.Transitions.WithLabelValues("return_approve", outcome).Inc()
		return nil, err
	}

	result := &ReturnApproval{Request: approved, Uncovered: req.Amount}
	applied, err := r.tracker.ApplyReturn(ctx, req.RequesterID, req.CashierID, req.Amount, req.ID)
	if err != nil {
		// Money and approval are consistent; only the assignment bookkeeping lags.
		slog.Error("Failed to close assignments for approved return",
			"request_id", req.ID, "closed", len(applied.Closed), "error", err)
		metrics.Transitions.WithLabelValues("apply_return", metrics.OutcomeError).Inc()
	}
	result.Closed, result.Uncovered = applied.Closed, applied.Uncovered

	metrics.Transitions.WithLabelValues("return_approve", metrics.OutcomeOK).Inc()
	slog.Info("Return request approved",
		"request_id", req.ID,
		"requester_id", req.RequesterID,
		"cashier_id", cashierID,
		"amount", req.Amount,
		"closed_assignments", len(result.Closed),
		"uncovered", result.Uncovered,
	)
	r.events.Publish(returnApproved(approved))
	return result, nil
}

// RejectReturnRequest rejects a pending request. No money moves.
func (r *Returns) RejectReturnRequest(ctx context.Context, requestID, cashierID, reason string) (*models.MoneyReturnRequest, error) {
	const op = "reject return request"

	req, err := r.pending(ctx, op, requestID, cashierID)
	if err != nil {
		return nil, err
	}
	rejected, err := r.decide(ctx, op, req, models.ReturnDecision{
		Status:    models.ReturnRejected,
		DecidedBy: cashierID,
		Reason:    reason,
	})
	if err != nil {
		return nil, err
	}

	metrics.Transitions.WithLabelValues("return_reject", metrics.OutcomeOK).Inc()
	slog.Info("Return request rejected", "request_id", requestID, "cashier_id", cashierID, "reason", reason)
	r.events.Publish(returnRejected(rejected))
	return rejected, nil
}

// pending loads a request that cashierID may decide.
func (r *Returns) pending(ctx context.Context, op, requestID, cashierID string) (*models.MoneyReturnRequest, error) {
	req, err := r.request(ctx, op, requestID)
	if err != nil {
		return nil, err
	}
	if req.CashierID != cashierID {
		return nil, apperr.PermissionDenied(op, "return request %s belongs to another cashier", requestID)
	}
	if req.Status != models.ReturnPending {
		return nil, apperr.InvalidTransition(op, "return request %s is already %s", requestID, req.Status)
	}
	return req, nil
}

// decide writes d conditionally on the request still being pending.
func (r *Returns) decide(ctx context.Context, op string, req *models.MoneyReturnRequest, d models.ReturnDecision) (*models.MoneyReturnRequest, error) {
	d.DecidedAt = r.now().Unix()

	err := r.store.DecideReturnRequest(ctx, req.ID, d)
	switch {
	case err == nil:
	case errors.Is(err, storage.ErrConflict):
		return nil, apperr.InvalidTransition(op, "return request %s is no longer pending", req.ID)
	case errors.Is(err, storage.ErrNotFound):
		return nil, apperr.NotFound(op, "return request", req.ID)
	default:
		return nil, apperr.Dependency(op, err)
	}

	decided := *req
	decided.Status = d.Status
	decided.DecidedAt = d.DecidedAt
	decided.DecidedBy = d.DecidedBy
	if d.Status == models.ReturnRejected {
		decided.RejectionReason = d.Reason
	}
	return &decided, nil
}

func (r *Returns) requireCashier(ctx context.Context, op, cashierID string) error {
	ok, err := r.resolver.HasRole(ctx, cashierID, models.RoleCashier)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.InvalidInput(op, "account %q is not a cashier", cashierID)
	}
	return nil
}

func (r *Returns) request(ctx context.Context, op, requestID string) (*models.MoneyReturnRequest, error) {
	req, err := r.store.GetReturnRequest(ctx, requestID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(op, "return request", requestID)
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return req, nil
}

func (r *Returns) account(ctx context.Context, op, accountID string) (*models.Account, error) {
	account, err := r.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(op, "account", accountID)
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return account, nil
}
