// Package models defines the core domain models for claimflow.
//
// # Models
//
//   - Claim: a reimbursement request moving through the approval workflow
//   - Account: a participant profile with a role set and a signed balance
//   - MoneyAssignment: a cash handout from a cashier, open until returned
//   - MoneyReturnRequest: a request to hand cash back to a cashier
//   - AuditLogEntry: an append-only record of a claim action
//   - Notification: an append-only record of an alert sent to an account
//
// # Design Principles
//
// 1. **Decimal money**: amounts and balances are decimal.Decimal, never float64
// 2. **ID references**: relationships use ID strings instead of pointers
// 3. **Unix timestamps**: times are stored as Unix seconds, like CreatedAt
// 4. **Roles as a set**: an account may hold several roles at once (RoleSet)
package models
