package models

// AuditAction tags an audit log entry.
type AuditAction string

const (
	AuditFiled            AuditAction = "filed"
	AuditSubmitted        AuditAction = "submitted"
	AuditAssigned         AuditAction = "assigned"
	AuditVerified         AuditAction = "verified"
	AuditAutoVerified     AuditAction = "auto_verified"
	AuditApproved         AuditAction = "approved"
	AuditRejected         AuditAction = "rejected"
	AuditApprovalReverted AuditAction = "approval_reverted"
)

// AuditLogEntry is an immutable record of an action taken on a claim.
type AuditLogEntry struct {
	ID        string
	ClaimID   string
	ActorID   string
	Action    AuditAction
	Comment   string
	CreatedAt int64
}

// Notification is a stored alert for one account.
type Notification struct {
	ID        string
	AccountID string
	Type      string
	Title     string
	Message   string
	// ClaimID is empty for alerts not tied to a claim.
	ClaimID   string
	CreatedAt int64
}
