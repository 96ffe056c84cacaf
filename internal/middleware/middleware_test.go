package middleware

import (
	"context"
	"errors"
	"testing"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/claimflow/internal/auth"
	"github.com/mmynk/claimflow/internal/metrics"
)

type ping struct{}

func TestRequireAuth(t *testing.T) {
	jwtManager := auth.NewJWTManager("test-secret", time.Hour)

	var seen string
	handler := RequireAuth(jwtManager)(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		seen = GetAccountID(ctx)
		return connect.NewResponse(&ping{}), nil
	})

	token, err := jwtManager.Generate("acct-7")
	require.NoError(t, err)

	req := connect.NewRequest(&ping{})
	req.Header().Set("Authorization", "Bearer "+token)
	_, err = handler(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "acct-7", seen)

	for name, header := range map[string]string{
		"missing":    "",
		"not bearer": "Basic " + token,
		"bad token":  "Bearer nope",
	} {
		t.Run(name, func(t *testing.T) {
			req := connect.NewRequest(&ping{})
			if header != "" {
				req.Header().Set("Authorization", header)
			}
			_, err := handler(context.Background(), req)
			assert.Equal(t, connect.CodeUnauthenticated, connect.CodeOf(err))
		})
	}
}

func TestGetAccountIDEmptyWithoutAuth(t *testing.T) {
	assert.Empty(t, GetAccountID(context.Background()))
	assert.Equal(t, "a", GetAccountID(WithAccountID(context.Background(), "a")))
}

func TestMetricsInterceptorObservesCode(t *testing.T) {
	handler := MetricsInterceptor()(func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("limit"))
	})

	_, err := handler(context.Background(), connect.NewRequest(&ping{}))
	require.Error(t, err)

	assert.GreaterOrEqual(t, testutil.CollectAndCount(metrics.RPCDuration, "claimflow_rpc_duration_seconds"), 1)
}
