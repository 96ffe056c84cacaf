package service

import (
	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/pkg/claimrpc"
)

func claimToRPC(c *models.Claim) *claimrpc.Claim {
	return &claimrpc.Claim{
		ID:                c.ID,
		OwnerID:           c.OwnerID,
		Amount:            c.Amount,
		Category:          c.Category,
		Description:       c.Description,
		Status:            string(c.Status),
		ReviewerID:        c.ReviewerID,
		AssignedByComment: c.AssignedByComment,
		TransactionNumber: c.TransactionNumber,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

func auditToRPC(e *models.AuditLogEntry) *claimrpc.AuditEntry {
	return &claimrpc.AuditEntry{
		ID:        e.ID,
		ActorID:   e.ActorID,
		Action:    string(e.Action),
		Comment:   e.Comment,
		CreatedAt: e.CreatedAt,
	}
}

func notificationToRPC(n *models.Notification) *claimrpc.Notification {
	return &claimrpc.Notification{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		ClaimID:   n.ClaimID,
		CreatedAt: n.CreatedAt,
	}
}

func assignmentToRPC(a *models.MoneyAssignment) *claimrpc.Assignment {
	return &claimrpc.Assignment{
		ID:              a.ID,
		CashierID:       a.CashierID,
		RecipientID:     a.RecipientID,
		Amount:          a.Amount,
		AssignedAt:      a.AssignedAt,
		Returned:        a.Returned,
		ReturnedAt:      a.ReturnedAt,
		ReturnRequestID: a.ReturnRequestID,
	}
}

func returnRequestToRPC(r *models.MoneyReturnRequest) *claimrpc.ReturnRequest {
	return &claimrpc.ReturnRequest{
		ID:              r.ID,
		RequesterID:     r.RequesterID,
		CashierID:       r.CashierID,
		Amount:          r.Amount,
		Status:          string(r.Status),
		RequestedAt:     r.RequestedAt,
		DecidedAt:       r.DecidedAt,
		DecidedBy:       r.DecidedBy,
		RejectionReason: r.RejectionReason,
	}
}
