package policy

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/claimflow/internal/models"
)

// ReturnPlan is the result of matching a return amount against open assignments.
type ReturnPlan struct {
	// Close lists the assignments fully covered by the return, oldest first.
	Close []*models.MoneyAssignment

	// Skipped lists assignments the scan reached but could not fully cover.
	// They stay open and untouched.
	Skipped []*models.MoneyAssignment

	// Uncovered is the part of the return amount not matched to any closed
	// assignment.
	Uncovered decimal.Decimal
}

// MatchReturn walks open assignments in the given order (callers pass them
// sorted by AssignedAt ascending) and closes every assignment whose whole
// amount fits in the remaining return amount.
//
// An assignment larger than what remains is never partially closed; the scan
// moves past it and stops once nothing remains or assignments run out.
func MatchReturn(open []*models.MoneyAssignment, amount decimal.Decimal) ReturnPlan {
	plan := ReturnPlan{Uncovered: amount}

	for _, a := range open {
		if !plan.Uncovered.IsPositive() {
			break
		}
		if a.Amount.LessThanOrEqual(plan.Uncovered) {
			plan.Close = append(plan.Close, a)
			plan.Uncovered = plan.Uncovered.Sub(a.Amount)
			continue
		}
		plan.Skipped = append(plan.Skipped, a)
	}

	return plan
}
