package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/middleware"
)

// Metadata keys attached to failed_precondition errors.
const (
	MetaErrorKind = "x-error-kind"
	MetaAmount    = "x-amount"
	MetaLimit     = "x-limit"
	MetaBalance   = "x-balance"
)

var errUnauthenticated = errors.New("no acting account on request")

// actor returns the authenticated account id.
func actor(ctx context.Context) (string, error) {
	id := middleware.GetAccountID(ctx)
	if id == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errUnauthenticated)
	}
	return id, nil
}

// toConnectError maps the workflow error taxonomy onto RPC codes.
func toConnectError(err error) error {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("Unclassified error", "error", err)
		return connect.NewError(connect.CodeInternal, err)
	}

	var code connect.Code
	switch appErr.Kind {
	case apperr.KindPermissionDenied:
		code = connect.CodePermissionDenied
	case apperr.KindInvalidTransition, apperr.KindLimitExceeded, apperr.KindInsufficientFunds:
		code = connect.CodeFailedPrecondition
	case apperr.KindNotFound:
		code = connect.CodeNotFound
	case apperr.KindInvalidInput:
		code = connect.CodeInvalidArgument
	case apperr.KindDependency:
		code = connect.CodeUnavailable
	case apperr.KindInconsistent:
		slog.Error("Inconsistent state after failed compensation", "error", err)
		code = connect.CodeDataLoss
	default:
		code = connect.CodeInternal
	}

	connectErr := connect.NewError(code, err)
	connectErr.Meta().Set(MetaErrorKind, appErr.Kind.String())
	switch appErr.Kind {
	case apperr.KindLimitExceeded:
		connectErr.Meta().Set(MetaAmount, appErr.Amount.String())
		connectErr.Meta().Set(MetaLimit, appErr.Limit.String())
	case apperr.KindInsufficientFunds:
		connectErr.Meta().Set(MetaAmount, appErr.Amount.String())
		connectErr.Meta().Set(MetaBalance, appErr.Balance.String())
	}
	return connectErr
}
