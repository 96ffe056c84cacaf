// Package apperr defines the error taxonomy shared by the workflow components.
//
// Every business outcome that a caller is expected to render (a denied
// permission, an illegal transition, an exceeded limit, missing funds) is an
// *Error carrying enough detail to build a message. Store and resolver
// failures are wrapped as KindDependency; a failed compensation is reported as
// KindInconsistent so it can be alerted on separately.
package apperr

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Kind classifies an error.
type Kind int

const (
	KindUnknown Kind = iota
	KindPermissionDenied
	KindInvalidTransition
	KindLimitExceeded
	KindInsufficientFunds
	KindNotFound
	KindInvalidInput
	KindDependency
	KindInconsistent
)

func (k Kind) String() string {
	switch k {
	case KindPermissionDenied:
		return "permission_denied"
	case KindInvalidTransition:
		return "invalid_state_transition"
	case KindLimitExceeded:
		return "limit_exceeded"
	case KindInsufficientFunds:
		return "insufficient_funds"
	case KindNotFound:
		return "not_found"
	case KindInvalidInput:
		return "invalid_input"
	case KindDependency:
		return "dependency_failure"
	case KindInconsistent:
		return "inconsistent_state"
	default:
		return "unknown"
	}
}

// Error is a classified workflow error.
type Error struct {
	Kind Kind
	// Op names the operation that failed, e.g. "approve".
	Op  string
	Msg string

	// Amount is the claim or request amount for LimitExceeded and InsufficientFunds.
	Amount decimal.Decimal
	// Limit is the configured approval limit for LimitExceeded.
	Limit decimal.Decimal
	// Balance is the account balance for InsufficientFunds.
	Balance decimal.Decimal

	// Err is the underlying cause. For KindInconsistent it is the original
	// failure and Compensation holds the error of the failed rollback.
	Err          error
	Compensation error
}

func (e *Error) Error() string {
	msg := e.Msg
	if msg == "" {
		msg = e.Kind.String()
	}
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	switch {
	case e.Kind == KindInconsistent:
		return fmt.Sprintf("%s (cause: %v; compensation: %v)", msg, e.Err, e.Compensation)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// PermissionDenied reports an actor lacking the role, ownership or assignment
// required by op.
func PermissionDenied(op, format string, args ...any) *Error {
	return &Error{Kind: KindPermissionDenied, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// InvalidTransition reports a claim or request that is not in a state from
// which op is legal.
func InvalidTransition(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidTransition, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// LimitExceeded reports an engineer approval above the configured limit.
func LimitExceeded(op string, amount, limit decimal.Decimal) *Error {
	return &Error{
		Kind:   KindLimitExceeded,
		Op:     op,
		Msg:    fmt.Sprintf("amount %s exceeds the engineer approval limit of %s; verify the claim for admin approval instead", amount, limit),
		Amount: amount,
		Limit:  limit,
	}
}

// InsufficientFunds reports a requested amount larger than the available balance.
func InsufficientFunds(op string, amount, balance decimal.Decimal) *Error {
	return &Error{
		Kind:    KindInsufficientFunds,
		Op:      op,
		Msg:     fmt.Sprintf("requested amount %s exceeds available balance %s", amount, balance),
		Amount:  amount,
		Balance: balance,
	}
}

// NotFound reports a missing claim, request or account.
func NotFound(op, entity, id string) *Error {
	return &Error{Kind: KindNotFound, Op: op, Msg: fmt.Sprintf("%s %q not found", entity, id)}
}

// InvalidInput reports a malformed argument.
func InvalidInput(op, format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Op: op, Msg: fmt.Sprintf(format, args...)}
}

// Dependency wraps a store or resolver failure.
func Dependency(op string, err error) *Error {
	return &Error{Kind: KindDependency, Op: op, Msg: "dependency failure", Err: err}
}

// Inconsistent reports that a compensation failed after cause, leaving
// partial state behind.
func Inconsistent(op string, cause, compensation error) *Error {
	return &Error{
		Kind:         KindInconsistent,
		Op:           op,
		Msg:          "compensation failed, state is inconsistent",
		Err:          cause,
		Compensation: compensation,
	}
}
