// Package policy holds the pure decision logic of the workflow: approval
// thresholds, the claim transition table and FIFO return matching.
package policy

import (
	"context"
	"log/slog"
	"strings"

	"github.com/shopspring/decimal"
)

// ApprovalLimitKey is the setting that holds the engineer approval limit.
const ApprovalLimitKey = "approval_limit"

// DefaultApprovalLimit applies when the setting is absent or unusable.
var DefaultApprovalLimit = decimal.NewFromInt(50000)

// RequiresAdmin reports whether a verified claim must be escalated to admins.
// Note the inclusive comparison: a claim exactly at the limit escalates.
func RequiresAdmin(amount, limit decimal.Decimal) bool {
	return amount.GreaterThanOrEqual(limit)
}

// EngineerMayApprove reports whether an engineer may approve directly.
// A claim exactly at the limit may still be approved by an engineer, while
// RequiresAdmin also flags it at verification time. Both hold at equality.
func EngineerMayApprove(amount, limit decimal.Decimal) bool {
	return amount.LessThanOrEqual(limit)
}

// SettingSource reads runtime settings.
type SettingSource interface {
	GetSetting(ctx context.Context, key string) (string, bool, error)
}

// Escalation resolves the approval limit from a SettingSource.
type Escalation struct {
	settings SettingSource
	fallback decimal.Decimal
}

// NewEscalation creates an Escalation reading ApprovalLimitKey from settings.
func NewEscalation(settings SettingSource) *Escalation {
	return &Escalation{settings: settings, fallback: DefaultApprovalLimit}
}

// Limit returns the configured approval limit, or the fallback when the
// setting is absent, unreadable, unparsable or not positive.
func (e *Escalation) Limit(ctx context.Context) decimal.Decimal {
	if e.settings == nil {
		return e.fallback
	}
	raw, ok, err := e.settings.GetSetting(ctx, ApprovalLimitKey)
	if err != nil {
		slog.Warn("Approval limit lookup failed, using fallback", "error", err, "fallback", e.fallback)
		return e.fallback
	}
	if !ok || strings.TrimSpace(raw) == "" {
		return e.fallback
	}
	limit, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil || !limit.IsPositive() {
		slog.Warn("Invalid approval limit setting, using fallback", "value", raw, "fallback", e.fallback)
		return e.fallback
	}
	return limit
}
