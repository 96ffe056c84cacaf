package workflow

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/notify"
)

func claimLabel(c *models.Claim) string {
	return fmt.Sprintf("#%d (%s, %s)", c.TransactionNumber, c.Category, c.Amount.StringFixed(2))
}

func reviewRequested(c *models.Claim) notify.Event {
	return notify.Event{
		Type:       notify.TypeClaimSubmitted,
		Recipients: []string{c.ReviewerID},
		Title:      "Claim awaiting your review",
		Message:    fmt.Sprintf("Claim %s was submitted and is waiting for your review.", claimLabel(c)),
		ClaimID:    c.ID,
	}
}

func poolSubmitted(c *models.Claim, admins []string) notify.Event {
	return notify.Event{
		Type:       notify.TypeClaimSubmitted,
		Recipients: admins,
		Title:      "New claim in the admin queue",
		Message:    fmt.Sprintf("Claim %s was submitted without a reviewer and needs admin attention.", claimLabel(c)),
		ClaimID:    c.ID,
	}
}

func reviewerAssigned(c *models.Claim, comment string) notify.Event {
	msg := fmt.Sprintf("You were assigned to review claim %s.", claimLabel(c))
	if comment != "" {
		msg += " Note: " + comment
	}
	return notify.Event{
		Type:       notify.TypeClaimAssigned,
		Recipients: []string{c.ReviewerID},
		Title:      "Claim assigned to you",
		Message:    msg,
		ClaimID:    c.ID,
	}
}

func claimVerified(c *models.Claim) notify.Event {
	return notify.Event{
		Type:       notify.TypeClaimVerified,
		Recipients: []string{c.OwnerID},
		Title:      "Claim verified",
		Message:    fmt.Sprintf("Your claim %s was verified by the reviewer.", claimLabel(c)),
		ClaimID:    c.ID,
	}
}

func claimAutoVerified(c *models.Claim) notify.Event {
	return notify.Event{
		Type:       notify.TypeClaimAutoVerified,
		Recipients: []string{c.OwnerID},
		Title:      "Claim verified",
		Message:    fmt.Sprintf("Your claim %s was verified automatically as part of admin approval.", claimLabel(c)),
		ClaimID:    c.ID,
	}
}

func awaitingApproval(c *models.Claim, limit decimal.Decimal, admins []string) notify.Event {
	return notify.Event{
		Type:       notify.TypeClaimAwaitingApproval,
		Recipients: admins,
		Title:      "Claim awaiting final approval",
		Message: fmt.Sprintf("Claim %s was verified and is at or above the approval limit of %s. It needs admin approval.",
			claimLabel(c), limit.StringFixed(2)),
		ClaimID: c.ID,
	}
}

func claimApproved(c *models.Claim, ownerIsEngineer bool) notify.Event {
	msg := fmt.Sprintf("Your claim %s was approved. %s was deducted from your balance.", claimLabel(c), c.Amount.StringFixed(2))
	if ownerIsEngineer {
		msg = fmt.Sprintf("Your claim %s passed final approval. Your engineer balance was reduced by %s.", claimLabel(c), c.Amount.StringFixed(2))
	}
	return notify.Event{
		Type:       notify.TypeClaimApproved,
		Recipients: []string{c.OwnerID},
		Title:      "Claim approved",
		Message:    msg,
		ClaimID:    c.ID,
	}
}

func claimRejected(c *models.Claim, comment string) notify.Event {
	msg := fmt.Sprintf("Your claim %s was rejected.", claimLabel(c))
	if comment != "" {
		msg += " Reason: " + comment
	}
	return notify.Event{
		Type:       notify.TypeClaimRejected,
		Recipients: []string{c.OwnerID},
		Title:      "Claim rejected",
		Message:    msg,
		ClaimID:    c.ID,
	}
}

func returnRequested(r *models.MoneyReturnRequest) notify.Event {
	return notify.Event{
		Type:       notify.TypeReturnRequested,
		Recipients: []string{r.CashierID},
		Title:      "Money return requested",
		Message:    fmt.Sprintf("A return of %s is waiting for your approval.", r.Amount.StringFixed(2)),
	}
}

func returnApproved(r *models.MoneyReturnRequest) notify.Event {
	return notify.Event{
		Type:       notify.TypeReturnApproved,
		Recipients: []string{r.RequesterID},
		Title:      "Money return approved",
		Message:    fmt.Sprintf("Your return of %s was approved and moved to the cashier.", r.Amount.StringFixed(2)),
	}
}

func returnRejected(r *models.MoneyReturnRequest) notify.Event {
	msg := fmt.Sprintf("Your return of %s was rejected.", r.Amount.StringFixed(2))
	if r.RejectionReason != "" {
		msg += " Reason: " + r.RejectionReason
	}
	return notify.Event{
		Type:       notify.TypeReturnRejected,
		Recipients: []string{r.RequesterID},
		Title:      "Money return rejected",
		Message:    msg,
	}
}
