package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/mmynk/claimflow/internal/models"
)

// ErrSinkUnavailable is returned while a breaker is open.
var ErrSinkUnavailable = errors.New("notification sink unavailable")

// BreakerSettings configures a Breaker.
type BreakerSettings struct {
	// MaxRequests allowed through while half-open.
	MaxRequests uint32
	// Interval clears the failure counts while closed. Zero never clears.
	Interval time.Duration
	// Timeout is how long the breaker stays open.
	Timeout time.Duration
	// ConsecutiveFailures trips the breaker.
	ConsecutiveFailures uint32
}

// Breaker wraps a Sink in a circuit breaker so a failing downstream is not
// hammered by every event.
type Breaker struct {
	sink Sink
	cb   *gobreaker.CircuitBreaker
}

// NewBreaker wraps sink.
func NewBreaker(name string, sink Sink, s BreakerSettings) *Breaker {
	if s.MaxRequests == 0 {
		s.MaxRequests = 1
	}
	if s.Timeout <= 0 {
		s.Timeout = 30 * time.Second
	}
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}

	settings := gobreaker.Settings{
		Name:        "notify-" + name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.ConsecutiveFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			if to == gobreaker.StateOpen {
				slog.Warn("Notification sink breaker opened", "breaker", name, "from", from.String())
				return
			}
			slog.Info("Notification sink breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	}

	return &Breaker{sink: sink, cb: gobreaker.NewCircuitBreaker(settings)}
}

// Notify delivers through the breaker.
func (b *Breaker) Notify(ctx context.Context, n models.Notification) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.sink.Notify(ctx, n)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%s: %w", b.cb.Name(), ErrSinkUnavailable)
	}
	return err
}

// State returns the breaker state as a string (closed, half-open, open).
func (b *Breaker) State() string {
	return b.cb.State().String()
}
