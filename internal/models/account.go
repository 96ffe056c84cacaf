package models

import (
	"strings"

	"github.com/shopspring/decimal"
)

// Role is a single capability an account may hold.
type Role string

const (
	RoleEmployee Role = "employee"
	RoleEngineer Role = "engineer"
	RoleCashier  Role = "cashier"
	RoleAdmin    Role = "admin"
)

// RoleSet is a set of roles stored as flags.
type RoleSet uint8

const (
	flagEmployee RoleSet = 1 << iota
	flagEngineer
	flagCashier
	flagAdmin
)

var roleOrder = []Role{RoleEmployee, RoleEngineer, RoleCashier, RoleAdmin}

func (r Role) flag() RoleSet {
	switch r {
	case RoleEmployee:
		return flagEmployee
	case RoleEngineer:
		return flagEngineer
	case RoleCashier:
		return flagCashier
	case RoleAdmin:
		return flagAdmin
	}
	return 0
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r.flag() != 0
}

// NewRoleSet builds a set from roles. Unknown roles are ignored.
func NewRoleSet(roles ...Role) RoleSet {
	var s RoleSet
	for _, r := range roles {
		s |= r.flag()
	}
	return s
}

// Has reports whether the set contains r.
func (s RoleSet) Has(r Role) bool {
	f := r.flag()
	return f != 0 && s&f == f
}

// With returns a copy of the set with r added.
func (s RoleSet) With(r Role) RoleSet {
	return s | r.flag()
}

// Roles lists the roles in the set in a stable order.
func (s RoleSet) Roles() []Role {
	var out []Role
	for _, r := range roleOrder {
		if s.Has(r) {
			out = append(out, r)
		}
	}
	return out
}

// String encodes the set as a comma separated list, e.g. "employee,engineer".
func (s RoleSet) String() string {
	roles := s.Roles()
	parts := make([]string, len(roles))
	for i, r := range roles {
		parts[i] = string(r)
	}
	return strings.Join(parts, ",")
}

// ParseRoleSet decodes the String form. Unknown entries are ignored.
func ParseRoleSet(s string) RoleSet {
	var set RoleSet
	for _, part := range strings.Split(s, ",") {
		set |= Role(strings.TrimSpace(part)).flag()
	}
	return set
}

// Account represents a participant profile.
// The optional links form the location → cashier → engineer → employee
// hierarchy used for routing and authorization only.
type Account struct {
	// ID is the unique identifier for the account (UUID format).
	ID string

	// DisplayName is the human-readable name.
	DisplayName string

	// Roles is the set of roles held by the account.
	Roles RoleSet

	// Balance is signed and may go negative after approvals.
	Balance decimal.Decimal

	// ReportingEngineerID is the engineer who reviews this account's claims.
	ReportingEngineerID string

	// AssignedCashierID is the cashier serving this account.
	AssignedCashierID string

	// CashierEngineerID is set on cashier accounts: the engineer they serve.
	CashierEngineerID string

	// CashierLocationID is set on cashier accounts: their location.
	CashierLocationID string

	// CreatedAt is the Unix timestamp when the account was created.
	CreatedAt int64
}
