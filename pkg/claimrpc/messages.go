package claimrpc

import "github.com/shopspring/decimal"

// Claim is the wire form of a claim.
type Claim struct {
	ID                string          `json:"id"`
	OwnerID           string          `json:"owner_id"`
	Amount            decimal.Decimal `json:"amount"`
	Category          string          `json:"category"`
	Description       string          `json:"description,omitempty"`
	Status            string          `json:"status"`
	ReviewerID        string          `json:"reviewer_id,omitempty"`
	AssignedByComment string          `json:"assigned_by_comment,omitempty"`
	TransactionNumber int64           `json:"transaction_number"`
	CreatedAt         int64           `json:"created_at"`
	UpdatedAt         int64           `json:"updated_at"`
}

type AuditEntry struct {
	ID        string `json:"id"`
	ActorID   string `json:"actor_id"`
	Action    string `json:"action"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Notification struct {
	ID        string `json:"id"`
	Type      string `json:"type"`
	Title     string `json:"title"`
	Message   string `json:"message"`
	ClaimID   string `json:"claim_id,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

type Assignment struct {
	ID              string          `json:"id"`
	CashierID       string          `json:"cashier_id"`
	RecipientID     string          `json:"recipient_id"`
	Amount          decimal.Decimal `json:"amount"`
	AssignedAt      int64           `json:"assigned_at"`
	Returned        bool            `json:"returned"`
	ReturnedAt      int64           `json:"returned_at,omitempty"`
	ReturnRequestID string          `json:"return_request_id,omitempty"`
}

type ReturnRequest struct {
	ID              string          `json:"id"`
	RequesterID     string          `json:"requester_id"`
	CashierID       string          `json:"cashier_id"`
	Amount          decimal.Decimal `json:"amount"`
	Status          string          `json:"status"`
	RequestedAt     int64           `json:"requested_at"`
	DecidedAt       int64           `json:"decided_at,omitempty"`
	DecidedBy       string          `json:"decided_by,omitempty"`
	RejectionReason string          `json:"rejection_reason,omitempty"`
}

// Claim service messages. The acting account always comes from the
// bearer token, never from the message.

type FileClaimRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Category    string          `json:"category"`
	Description string          `json:"description,omitempty"`
}

type SubmitClaimRequest struct {
	ClaimID string `json:"claim_id"`
}

type AssignClaimRequest struct {
	ClaimID    string `json:"claim_id"`
	ReviewerID string `json:"reviewer_id"`
	Comment    string `json:"comment,omitempty"`
}

// DecideClaimRequest is shared by verify, approve and reject.
type DecideClaimRequest struct {
	ClaimID string `json:"claim_id"`
	Comment string `json:"comment,omitempty"`
}

type GetClaimRequest struct {
	ClaimID string `json:"claim_id"`
}

type ClaimResponse struct {
	Claim *Claim `json:"claim"`
}

type GetClaimHistoryResponse struct {
	Entries []*AuditEntry `json:"entries"`
}

type ListNotificationsRequest struct{}

type ListNotificationsResponse struct {
	Notifications []*Notification `json:"notifications"`
}

// Cash service messages.

type RecordAssignmentRequest struct {
	RecipientID string          `json:"recipient_id"`
	Amount      decimal.Decimal `json:"amount"`
}

type RecordAssignmentResponse struct {
	Assignment *Assignment `json:"assignment"`
}

// ListOpenAssignmentsRequest lists the caller's open assignments with
// CashierID, or a cashier's open assignments to RecipientID.
type ListOpenAssignmentsRequest struct {
	RecipientID string `json:"recipient_id,omitempty"`
	CashierID   string `json:"cashier_id,omitempty"`
}

type ListOpenAssignmentsResponse struct {
	Assignments []*Assignment `json:"assignments"`
}

type GetBalanceRequest struct{}

type GetBalanceResponse struct {
	AccountID string          `json:"account_id"`
	Balance   decimal.Decimal `json:"balance"`
}

type CreateReturnRequestRequest struct {
	CashierID string          `json:"cashier_id"`
	Amount    decimal.Decimal `json:"amount"`
}

type ReturnRequestResponse struct {
	Request *ReturnRequest `json:"request"`
}

type ApproveReturnRequestRequest struct {
	RequestID string `json:"request_id"`
}

type ApproveReturnRequestResponse struct {
	Request             *ReturnRequest  `json:"request"`
	ClosedAssignmentIDs []string        `json:"closed_assignment_ids"`
	Uncovered           decimal.Decimal `json:"uncovered"`
}

type RejectReturnRequestRequest struct {
	RequestID string `json:"request_id"`
	Reason    string `json:"reason,omitempty"`
}

type GetReturnRequestRequest struct {
	RequestID string `json:"request_id"`
}
