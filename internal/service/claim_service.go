package service

import (
	"context"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
	"github.com/mmynk/claimflow/internal/workflow"
	"github.com/mmynk/claimflow/pkg/claimrpc"
)

// ClaimService implements the Connect ClaimService.
type ClaimService struct {
	claims        *workflow.Controller
	notifications storage.NotificationStore
}

var _ claimrpc.ClaimServiceHandler = (*ClaimService)(nil)

// NewClaimService creates a ClaimService over the lifecycle controller.
func NewClaimService(claims *workflow.Controller, notifications storage.NotificationStore) *ClaimService {
	return &ClaimService{claims: claims, notifications: notifications}
}

// FileClaim files a new claim owned by the caller.
func (s *ClaimService) FileClaim(ctx context.Context, req *connect.Request[claimrpc.FileClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	ownerID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info("FileClaim request received", "owner_id", ownerID, "amount", req.Msg.Amount, "category", req.Msg.Category)

	claim, err := s.claims.File(ctx, ownerID, req.Msg.Amount, req.Msg.Category, req.Msg.Description)
	if err != nil {
		return nil, toConnectError(err)
	}
	return claimResponse(claim), nil
}

// SubmitClaim routes a claim to its reviewer.
func (s *ClaimService) SubmitClaim(ctx context.Context, req *connect.Request[claimrpc.SubmitClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	return s.decide(ctx, "SubmitClaim", req.Msg.ClaimID, func(actorID string) (*models.Claim, error) {
		return s.claims.Submit(ctx, req.Msg.ClaimID, actorID)
	})
}

// AssignClaim sets the reviewing engineer. Admin only.
func (s *ClaimService) AssignClaim(ctx context.Context, req *connect.Request[claimrpc.AssignClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	return s.decide(ctx, "AssignClaim", req.Msg.ClaimID, func(actorID string) (*models.Claim, error) {
		return s.claims.Assign(ctx, req.Msg.ClaimID, req.Msg.ReviewerID, actorID, req.Msg.Comment)
	})
}

func (s *ClaimService) VerifyClaim(ctx context.Context, req *connect.Request[claimrpc.DecideClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	return s.decide(ctx, "VerifyClaim", req.Msg.ClaimID, func(actorID string) (*models.Claim, error) {
		return s.claims.Verify(ctx, req.Msg.ClaimID, actorID, req.Msg.Comment)
	})
}

func (s *ClaimService) ApproveClaim(ctx context.Context, req *connect.Request[claimrpc.DecideClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	return s.decide(ctx, "ApproveClaim", req.Msg.ClaimID, func(actorID string) (*models.Claim, error) {
		return s.claims.Approve(ctx, req.Msg.ClaimID, actorID, req.Msg.Comment)
	})
}

func (s *ClaimService) RejectClaim(ctx context.Context, req *connect.Request[claimrpc.DecideClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	return s.decide(ctx, "RejectClaim", req.Msg.ClaimID, func(actorID string) (*models.Claim, error) {
		return s.claims.Reject(ctx, req.Msg.ClaimID, actorID, req.Msg.Comment)
	})
}

// GetClaim retrieves a claim by ID.
func (s *ClaimService) GetClaim(ctx context.Context, req *connect.Request[claimrpc.GetClaimRequest]) (*connect.Response[claimrpc.ClaimResponse], error) {
	if _, err := actor(ctx); err != nil {
		return nil, err
	}

	claim, err := s.claims.Claim(ctx, req.Msg.ClaimID)
	if err != nil {
		return nil, toConnectError(err)
	}
	return claimResponse(claim), nil
}

// GetClaimHistory returns the audit trail of a claim, oldest first.
func (s *ClaimService) GetClaimHistory(ctx context.Context, req *connect.Request[claimrpc.GetClaimRequest]) (*connect.Response[claimrpc.GetClaimHistoryResponse], error) {
	if _, err := actor(ctx); err != nil {
		return nil, err
	}

	history, err := s.claims.History(ctx, req.Msg.ClaimID)
	if err != nil {
		return nil, toConnectError(err)
	}

	entries := make([]*claimrpc.AuditEntry, len(history))
	for i, e := range history {
		entries[i] = auditToRPC(e)
	}
	return connect.NewResponse(&claimrpc.GetClaimHistoryResponse{Entries: entries}), nil
}

// ListNotifications returns the caller's stored notifications.
func (s *ClaimService) ListNotifications(ctx context.Context, req *connect.Request[claimrpc.ListNotificationsRequest]) (*connect.Response[claimrpc.ListNotificationsResponse], error) {
	accountID, err := actor(ctx)
	if err != nil {
		return nil, err
	}

	stored, err := s.notifications.ListNotifications(ctx, accountID)
	if err != nil {
		slog.Error("ListNotifications failed", "account_id", accountID, "error", err)
		return nil, connect.NewError(connect.CodeUnavailable, err)
	}

	out := make([]*claimrpc.Notification, len(stored))
	for i, n := range stored {
		out[i] = notificationToRPC(n)
	}
	return connect.NewResponse(&claimrpc.ListNotificationsResponse{Notifications: out}), nil
}

// decide runs one lifecycle transition on behalf of the caller.
func (s *ClaimService) decide(ctx context.Context, procedure, claimID string, fn func(actorID string) (*models.Claim, error)) (*connect.Response[claimrpc.ClaimResponse], error) {
	actorID, err := actor(ctx)
	if err != nil {
		return nil, err
	}
	slog.Info(procedure+" request received", "claim_id", claimID, "actor_id", actorID)

	claim, err := fn(actorID)
	if err != nil {
		return nil, toConnectError(err)
	}

	slog.Info(procedure+" successful", "claim_id", claim.ID, "status", claim.Status)
	return claimResponse(claim), nil
}

func claimResponse(c *models.Claim) *connect.Response[claimrpc.ClaimResponse] {
	return connect.NewResponse(&claimrpc.ClaimResponse{Claim: claimToRPC(c)})
}
