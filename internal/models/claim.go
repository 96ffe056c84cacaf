package models

import "github.com/shopspring/decimal"

// ClaimStatus is the lifecycle state of a claim.
type ClaimStatus string

const (
	StatusSubmitted ClaimStatus = "submitted"
	StatusVerified  ClaimStatus = "verified"
	StatusApproved  ClaimStatus = "approved"
	StatusRejected  ClaimStatus = "rejected"
)

// Terminal reports whether no transition leaves the status.
func (s ClaimStatus) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known status.
func (s ClaimStatus) Valid() bool {
	switch s {
	case StatusSubmitted, StatusVerified, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Claim represents an expense submitted for reimbursement.
type Claim struct {
	// ID is the unique identifier for the claim (UUID format).
	ID string

	// OwnerID is the account that filed the claim.
	OwnerID string

	// Amount is the reimbursement amount. Debited from the owner's balance on approval.
	Amount decimal.Decimal

	// Category is a free-form category name (categories are administered elsewhere).
	Category string

	// Description is an optional note from the owner.
	Description string

	// Status is the current lifecycle state.
	Status ClaimStatus

	// ReviewerID is the engineer assigned for first-level review.
	// Empty when the claim sits in the admin pool.
	ReviewerID string

	// AssignedByComment is the admin's comment when a reviewer was assigned.
	AssignedByComment string

	// TransactionNumber is a unique sequential number assigned once, when the
	// claim first enters submitted. It never changes afterwards.
	TransactionNumber int64

	// CreatedAt is the Unix timestamp when the claim was filed.
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last status write.
	UpdatedAt int64
}

// HasReviewer reports whether a reviewer is assigned.
func (c *Claim) HasReviewer() bool {
	return c.ReviewerID != ""
}
