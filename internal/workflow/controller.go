// Package workflow drives claims through their lifecycle and handles money
// return requests.
//
// Every claim transition is a conditional status write against the store,
// followed by the side effects the transition table attaches to it. Money
// and audit effects are compensated when a later step fails; notifications
// are published only after everything committed.
package workflow

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/audit"
	"github.com/mmynk/claimflow/internal/authz"
	"github.com/mmynk/claimflow/internal/ledger"
	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/notify"
	"github.com/mmynk/claimflow/internal/policy"
	"github.com/mmynk/claimflow/internal/storage"
)

// Publisher accepts events for delivery. Publish must not block.
type Publisher interface {
	Publish(e notify.Event) bool
}

// Controller is the claim state machine.
type Controller struct {
	store      storage.Store
	gate       *authz.Gate
	ledger     *ledger.Ledger
	audit      *audit.Recorder
	escalation *policy.Escalation
	events     Publisher
}

type discard struct{}

func (discard) Publish(notify.Event) bool { return false }

// NewController creates a Controller over store, publishing to events.
// A nil events discards notifications.
func NewController(store storage.Store, events Publisher) *Controller {
	if events == nil {
		events = discard{}
	}
	return &Controller{
		store:      store,
		gate:       authz.NewGate(store, store),
		ledger:     ledger.New(store),
		audit:      audit.NewRecorder(store),
		escalation: policy.NewEscalation(store),
		events:     events,
	}
}

// request carries one transition attempt.
type request struct {
	op       string
	action   policy.Action
	claim    *models.Claim
	actor    authz.Principal
	comment  string
	reviewer string
}

// File creates a claim for ownerID in status submitted with the next
// transaction number.
func (c *Controller) File(ctx context.Context, ownerID string, amount decimal.Decimal, category, description string) (*models.Claim, error) {
	const op = "file"

	if !amount.IsPositive() {
		return nil, apperr.InvalidInput(op, "amount must be positive, got %s", amount)
	}
	category = strings.TrimSpace(category)
	if category == "" {
		return nil, apperr.InvalidInput(op, "category is required")
	}
	if _, err := c.account(ctx, op, ownerID); err != nil {
		return nil, err
	}

	claim := &models.Claim{
		OwnerID:     ownerID,
		Amount:      amount,
		Category:    category,
		Description: strings.TrimSpace(description),
	}
	if err := c.store.CreateClaim(ctx, claim); err != nil {
		metrics.Transitions.WithLabelValues(op, metrics.OutcomeError).Inc()
		return nil, apperr.Dependency(op, err)
	}
	if err := c.audit.Record(ctx, claim.ID, ownerID, models.AuditFiled, ""); err != nil {
		slog.Error("Claim filed without audit entry", "claim_id", claim.ID, "error", err)
	}

	metrics.Transitions.WithLabelValues(op, metrics.OutcomeOK).Inc()
	slog.Info("Claim filed",
		"claim_id", claim.ID,
		"owner_id", ownerID,
		"amount", amount,
		"transaction_number", claim.TransactionNumber,
	)
	return claim, nil
}

// Submit routes a submitted claim to its reviewer, or to the admin pool.
// An admin submitting their own claim approves it instead.
func (c *Controller) Submit(ctx context.Context, claimID, actorID string) (*models.Claim, error) {
	const op = "submit"

	claim, actor, err := c.load(ctx, op, claimID, actorID)
	if err != nil {
		return nil, err
	}
	if err := guardTerminal(op, claim); err != nil {
		return nil, c.rejected(policy.ActionSubmit, err)
	}
	if claim.Status == models.StatusSubmitted && actor.Has(models.RoleAdmin) && claim.OwnerID == actor.ID {
		slog.Info("Admin submitting own claim, approving directly", "claim_id", claimID, "actor_id", actorID)
		return c.Approve(ctx, claimID, actorID, "")
	}

	return c.transition(ctx, request{op: op, action: policy.ActionSubmit, claim: claim, actor: actor})
}

// Assign sets the reviewer of a claim and puts it back to submitted.
func (c *Controller) Assign(ctx context.Context, claimID, reviewerID, adminID, comment string) (*models.Claim, error) {
	const op = "assign"

	claim, actor, err := c.load(ctx, op, claimID, adminID)
	if err != nil {
		return nil, err
	}
	return c.transition(ctx, request{
		op:       op,
		action:   policy.ActionAssign,
		claim:    claim,
		actor:    actor,
		comment:  strings.TrimSpace(comment),
		reviewer: strings.TrimSpace(reviewerID),
	})
}

// Verify marks a submitted claim verified. Claims at or above the approval
// limit are escalated to every admin.
func (c *Controller) Verify(ctx context.Context, claimID, reviewerID, comment string) (*models.Claim, error) {
	const op = "verify"

	claim, actor, err := c.load(ctx, op, claimID, reviewerID)
	if err != nil {
		return nil, err
	}
	return c.transition(ctx, request{op: op, action: policy.ActionVerify, claim: claim, actor: actor, comment: strings.TrimSpace(comment)})
}

// Approve approves a claim and debits its owner. Admins approving a
// submitted claim verify it first.
func (c *Controller) Approve(ctx context.Context, claimID, actorID, comment string) (*models.Claim, error) {
	const op = "approve"

	claim, actor, err := c.load(ctx, op, claimID, actorID)
	if err != nil {
		return nil, err
	}
	return c.transition(ctx, request{op: op, action: policy.ActionApprove, claim: claim, actor: actor, comment: strings.TrimSpace(comment)})
}

// Reject rejects a submitted or verified claim. No money moves.
func (c *Controller) Reject(ctx context.Context, claimID, actorID, comment string) (*models.Claim, error) {
	const op = "reject"

	claim, actor, err := c.load(ctx, op, claimID, actorID)
	if err != nil {
		return nil, err
	}
	return c.transition(ctx, request{op: op, action: policy.ActionReject, claim: claim, actor: actor, comment: strings.TrimSpace(comment)})
}

// Claim returns a claim by id.
func (c *Controller) Claim(ctx context.Context, claimID string) (*models.Claim, error) {
	return c.claim(ctx, "get claim", claimID)
}

// History returns the audit trail of a claim, oldest first.
func (c *Controller) History(ctx context.Context, claimID string) ([]*models.AuditLogEntry, error) {
	if _, err := c.claim(ctx, "history", claimID); err != nil {
		return nil, err
	}
	return c.audit.History(ctx, claimID)
}

func (c *Controller) transition(ctx context.Context, req request) (*models.Claim, error) {
	if err := guardTerminal(req.op, req.claim); err != nil {
		return nil, c.rejected(req.action, err)
	}

	rule, ok := policy.Lookup(req.claim.Status, req.action, authz.Capabilities(req.actor, req.claim))
	if !ok {
		return nil, c.rejected(req.action, denied(req))
	}

	claim, err := c.execute(ctx, req, rule)
	if err != nil {
		var outcome string
		switch apperr.KindOf(err) {
		case apperr.KindInconsistent:
			outcome = metrics.OutcomeInconsistent
		case apperr.KindDependency, apperr.KindUnknown:
			outcome = metrics.OutcomeError
		default:
			outcome = metrics.OutcomeRejected
		}
		metrics.Transitions.WithLabelValues(string(req.action), outcome).Inc()
		return nil, err
	}
	return claim, nil
}

// execute applies rule to req.claim: pre-write checks, the conditional status
// write, money and audit effects under compensation, then notifications.
func (c *Controller) execute(ctx context.Context, req request, rule policy.Rule) (*models.Claim, error) {
	claim := req.claim

	if rule.HasEffect(policy.EffectLimitGate) {
		limit := c.escalation.Limit(ctx)
		if !policy.EngineerMayApprove(claim.Amount, limit) {
			return nil, apperr.LimitExceeded(req.op, claim.Amount, limit)
		}
	}

	if rule.HasEffect(policy.EffectAutoVerify) {
		verified, err := c.autoVerify(ctx, req)
		if err != nil {
			return nil, err
		}
		claim = verified
	}

	write := storage.ClaimTransition{From: []models.ClaimStatus{claim.Status}, To: rule.To}
	undo := storage.ClaimTransition{From: []models.ClaimStatus{rule.To}, To: claim.Status}
	if req.action == policy.ActionApprove {
		// A reverted approval always lands on verified, also for engineers
		// approving straight from submitted.
		undo.To = models.StatusVerified
	}

	if rule.HasEffect(policy.EffectRoute) {
		reviewer, err := c.route(ctx, req.op, claim)
		if err != nil {
			return nil, err
		}
		write.SetReviewer, write.ReviewerID = true, reviewer
	}
	if rule.HasEffect(policy.EffectSetReviewer) {
		if err := c.checkReviewer(ctx, req.op, req.reviewer); err != nil {
			return nil, err
		}
		comment := req.comment
		write.SetReviewer, write.ReviewerID, write.AssignedByComment = true, req.reviewer, &comment
	}
	if write.SetReviewer {
		undo.SetReviewer, undo.ReviewerID = true, claim.ReviewerID
		if write.AssignedByComment != nil {
			previous := claim.AssignedByComment
			undo.AssignedByComment = &previous
		}
	}

	s := newSaga(req.op)
	err := s.run(ctx, step{
		name: "status",
		do: func(ctx context.Context) error {
			return c.writeStatus(ctx, req.op, claim.ID, write)
		},
		undo: func(ctx context.Context) error {
			return c.store.TransitionClaim(ctx, claim.ID, undo)
		},
	})
	if err != nil {
		return nil, err
	}

	if rule.HasEffect(policy.EffectDebit) {
		err := s.run(ctx, step{
			name: "debit",
			do: func(ctx context.Context) error {
				_, err := c.ledger.Debit(ctx, claim.OwnerID, claim.Amount)
				return err
			},
			undo: func(ctx context.Context) error {
				_, err := c.ledger.Credit(ctx, claim.OwnerID, claim.Amount)
				return err
			},
		})
		if err != nil {
			if !apperr.Is(err, apperr.KindInconsistent) {
				c.recordReverted(ctx, req, claim, err)
			}
			return nil, err
		}
	}

	err = s.run(ctx, step{
		name: "audit",
		do: func(ctx context.Context) error {
			return c.audit.Record(ctx, claim.ID, req.actor.ID, auditAction(req.action), req.comment)
		},
	})
	if err != nil {
		return nil, err
	}

	updated := *claim
	updated.Status = rule.To
	if write.SetReviewer {
		updated.ReviewerID = write.ReviewerID
	}
	if write.AssignedByComment != nil {
		updated.AssignedByComment = *write.AssignedByComment
	}

	metrics.Transitions.WithLabelValues(string(req.action), metrics.OutcomeOK).Inc()
	slog.Info("Claim transitioned",
		"claim_id", claim.ID,
		"action", req.action,
		"from", claim.Status,
		"to", rule.To,
		"actor_id", req.actor.ID,
	)

	c.notifyEffects(ctx, req, rule, &updated)
	return &updated, nil
}

// autoVerify runs the system-internal submitted → verified step of an admin
// approval. It commits on its own.
func (c *Controller) autoVerify(ctx context.Context, req request) (*models.Claim, error) {
	sub := req
	sub.action = policy.ActionAutoVerify
	sub.comment = ""

	rule, ok := policy.Lookup(req.claim.Status, policy.ActionAutoVerify, authz.Capabilities(req.actor, req.claim))
	if !ok {
		return nil, denied(sub)
	}
	return c.execute(ctx, sub, rule)
}

func (c *Controller) writeStatus(ctx context.Context, op, claimID string, t storage.ClaimTransition) error {
	err := c.store.TransitionClaim(ctx, claimID, t)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrNotFound):
		return apperr.NotFound(op, "claim", claimID)
	case errors.Is(err, storage.ErrConflict):
		current, getErr := c.store.GetClaim(ctx, claimID)
		if getErr != nil {
			return apperr.Dependency(op, getErr)
		}
		if terminal := guardTerminal(op, current); terminal != nil {
			return terminal
		}
		return apperr.InvalidTransition(op, "claim #%d changed concurrently and is now %s", current.TransactionNumber, current.Status)
	default:
		return apperr.Dependency(op, err)
	}
}

// recordReverted leaves a trace of an approval undone by compensation.
func (c *Controller) recordReverted(ctx context.Context, req request, claim *models.Claim, cause error) {
	ctx = context.WithoutCancel(ctx)
	if err := c.audit.Record(ctx, claim.ID, req.actor.ID, models.AuditApprovalReverted, cause.Error()); err != nil {
		slog.Error("Failed to record reverted approval", "claim_id", claim.ID, "error", err)
	}
}

// route picks the reviewer for a submitted claim from its owner's profile.
// Engineers and owners without a reporting engineer go to the admin pool.
func (c *Controller) route(ctx context.Context, op string, claim *models.Claim) (string, error) {
	owner, err := c.account(ctx, op, claim.OwnerID)
	if err != nil {
		return "", err
	}
	if owner.Roles.Has(models.RoleEngineer) || owner.ReportingEngineerID == "" {
		return "", nil
	}

	ok, err := c.gate.Resolver().HasRole(ctx, owner.ReportingEngineerID, models.RoleEngineer)
	if err != nil {
		return "", err
	}
	if !ok {
		slog.Warn("Reporting engineer lacks engineer role, routing to admins",
			"claim_id", claim.ID, "engineer_id", owner.ReportingEngineerID)
		return "", nil
	}
	return owner.ReportingEngineerID, nil
}

func (c *Controller) checkReviewer(ctx context.Context, op, reviewerID string) error {
	if reviewerID == "" {
		return apperr.InvalidInput(op, "reviewer is required")
	}
	ok, err := c.gate.Resolver().HasRole(ctx, reviewerID, models.RoleEngineer)
	if err != nil {
		return err
	}
	if !ok {
		return apperr.InvalidInput(op, "account %s does not hold the engineer role", reviewerID)
	}
	return nil
}

func (c *Controller) notifyEffects(ctx context.Context, req request, rule policy.Rule, claim *models.Claim) {
	for _, effect := range rule.Effects {
		switch effect {
		case policy.EffectNotifyReviewer:
			switch {
			case req.action == policy.ActionAssign:
				c.events.Publish(reviewerAssigned(claim, req.comment))
			case claim.HasReviewer():
				c.events.Publish(reviewRequested(claim))
			default:
				c.events.Publish(poolSubmitted(claim, c.admins(ctx)))
			}

		case policy.EffectNotifyOwner:
			switch req.action {
			case policy.ActionVerify:
				c.events.Publish(claimVerified(claim))
			case policy.ActionAutoVerify:
				c.events.Publish(claimAutoVerified(claim))
			case policy.ActionApprove:
				engineer, err := c.gate.Resolver().HasRole(ctx, claim.OwnerID, models.RoleEngineer)
				if err != nil {
					slog.Warn("Owner role lookup failed, using default template", "claim_id", claim.ID, "error", err)
				}
				c.events.Publish(claimApproved(claim, engineer))
			case policy.ActionReject:
				c.events.Publish(claimRejected(claim, req.comment))
			}

		case policy.EffectEscalate:
			limit := c.escalation.Limit(ctx)
			if policy.RequiresAdmin(claim.Amount, limit) {
				c.events.Publish(awaitingApproval(claim, limit, c.admins(ctx)))
			}
		}
	}
}

func (c *Controller) admins(ctx context.Context) []string {
	ids, err := c.store.ListAccountIDsByRole(ctx, models.RoleAdmin)
	if err != nil {
		slog.Error("Failed to list admins for notification", "error", err)
		return nil
	}
	return ids
}

func (c *Controller) load(ctx context.Context, op, claimID, actorID string) (*models.Claim, authz.Principal, error) {
	claim, err := c.claim(ctx, op, claimID)
	if err != nil {
		return nil, authz.Principal{}, err
	}
	actor, err := c.gate.Resolve(ctx, actorID)
	if err != nil {
		return nil, authz.Principal{}, err
	}
	return claim, actor, nil
}

func (c *Controller) claim(ctx context.Context, op, claimID string) (*models.Claim, error) {
	claim, err := c.store.GetClaim(ctx, claimID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(op, "claim", claimID)
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return claim, nil
}

func (c *Controller) account(ctx context.Context, op, accountID string) (*models.Account, error) {
	account, err := c.store.GetAccount(ctx, accountID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, apperr.NotFound(op, "account", accountID)
	}
	if err != nil {
		return nil, apperr.Dependency(op, err)
	}
	return account, nil
}

func (c *Controller) rejected(action policy.Action, err error) error {
	metrics.Transitions.WithLabelValues(string(action), metrics.OutcomeRejected).Inc()
	return err
}

// guardTerminal reports "already approved" ahead of every other check, then
// "already rejected".
func guardTerminal(op string, claim *models.Claim) error {
	switch claim.Status {
	case models.StatusApproved:
		return apperr.InvalidTransition(op, "claim #%d is already approved", claim.TransactionNumber)
	case models.StatusRejected:
		return apperr.InvalidTransition(op, "claim #%d is already rejected", claim.TransactionNumber)
	}
	return nil
}

// denied explains why no rule matched.
func denied(req request) error {
	claim, actor := req.claim, req.actor
	if !slices.Contains(policy.Sources(req.action), claim.Status) {
		return apperr.InvalidTransition(req.op, "cannot %s claim #%d while it is %s", req.action, claim.TransactionNumber, claim.Status)
	}

	staff := actor.Has(models.RoleAdmin) || actor.Has(models.RoleEngineer)
	switch req.action {
	case policy.ActionSubmit:
		return apperr.PermissionDenied(req.op, "only the owner or an admin can submit claim #%d", claim.TransactionNumber)
	case policy.ActionAssign, policy.ActionAutoVerify:
		return apperr.PermissionDenied(req.op, "only admins can %s claims", req.action)
	case policy.ActionVerify:
		return apperr.PermissionDenied(req.op, "only the assigned reviewer can verify claim #%d", claim.TransactionNumber)
	case policy.ActionApprove:
		if !staff {
			return apperr.PermissionDenied(req.op, "only admins and engineers can approve claims")
		}
		return apperr.InvalidTransition(req.op,
			"engineers can only approve submitted claims; claim #%d is %s and awaits admin approval",
			claim.TransactionNumber, claim.Status)
	case policy.ActionReject:
		if !staff {
			return apperr.PermissionDenied(req.op, "only admins and engineers can reject claims")
		}
		return apperr.PermissionDenied(req.op, "only the assigned reviewer can reject claim #%d", claim.TransactionNumber)
	}
	return apperr.PermissionDenied(req.op, "not allowed to %s claim #%d", req.action, claim.TransactionNumber)
}

func auditAction(a policy.Action) models.AuditAction {
	switch a {
	case policy.ActionSubmit:
		return models.AuditSubmitted
	case policy.ActionAssign:
		return models.AuditAssigned
	case policy.ActionVerify:
		return models.AuditVerified
	case policy.ActionAutoVerify:
		return models.AuditAutoVerified
	case policy.ActionApprove:
		return models.AuditApproved
	case policy.ActionReject:
		return models.AuditRejected
	}
	return models.AuditAction(a)
}
