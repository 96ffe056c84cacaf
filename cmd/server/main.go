package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"connectrpc.com/connect"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/mmynk/claimflow/internal/auth"
	"github.com/mmynk/claimflow/internal/config"
	"github.com/mmynk/claimflow/internal/middleware"
	"github.com/mmynk/claimflow/internal/notify"
	"github.com/mmynk/claimflow/internal/service"
	"github.com/mmynk/claimflow/internal/storage/sqlite"
	"github.com/mmynk/claimflow/internal/workflow"
	"github.com/mmynk/claimflow/pkg/claimrpc"
	"github.com/mmynk/claimflow/pkg/logging"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load(os.Getenv("CLAIMFLOW_CONFIG"))
	if err != nil {
		return err
	}
	logging.Setup(cfg.Log.Level)

	if cfg.JWT.Secret == "" {
		return errors.New("jwt.secret is required (set CLAIMFLOW_JWT_SECRET)")
	}

	// Initialize SQLite storage
	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()
	slog.Info("Storage initialized", "database", cfg.Database.Path)

	// Notifications: always stored, optionally published to AMQP behind a breaker.
	sinks := notify.Multi{notify.NewStoreSink(store)}
	if cfg.Notify.AMQPURL != "" {
		amqpSink, err := notify.DialAMQP(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
		if err != nil {
			return fmt.Errorf("connect notification broker: %w", err)
		}
		defer amqpSink.Close()
		sinks = append(sinks, notify.NewBreaker("amqp", amqpSink, cfg.BreakerSettings()))
		slog.Info("AMQP notifications enabled", "exchange", cfg.Notify.Exchange)
	}
	dispatcher := notify.NewDispatcher(sinks, cfg.DispatcherOptions())
	dispatcher.Start()
	defer dispatcher.Close()

	claims := workflow.NewController(store, dispatcher)
	returns := workflow.NewReturns(store, dispatcher)

	jwtManager := auth.NewJWTManager(cfg.JWT.Secret, cfg.TokenDuration())
	interceptors := connect.WithInterceptors(
		middleware.MetricsInterceptor(),
		middleware.RequireAuth(jwtManager),
		middleware.LoggingInterceptor(),
	)

	mux := http.NewServeMux()

	// Register Connect services
	claimPath, claimHandler := claimrpc.NewClaimServiceHandler(service.NewClaimService(claims, store), interceptors)
	mux.Handle(claimPath, claimHandler)

	cashPath, cashHandler := claimrpc.NewCashServiceHandler(service.NewCashService(returns), interceptors)
	mux.Handle(cashPath, cashHandler)

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// Wrap with h2c for HTTP/2 without TLS (required for Connect)
	handler := h2c.NewHandler(loggingMiddleware(corsMiddleware(mux)), &http2.Server{})

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Connect server starting", "address", addr, "url", fmt.Sprintf("http://localhost%s", addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// loggingMiddleware logs all incoming requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		next.ServeHTTP(w, r)

		slog.Debug("Request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

// corsMiddleware adds CORS headers for browser access
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type, Connect-Protocol-Version, Connect-Timeout-Ms")
		w.Header().Set("Access-Control-Expose-Headers", "Connect-Protocol-Version, Connect-Timeout-Ms, X-Error-Kind, X-Amount, X-Limit, X-Balance")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
