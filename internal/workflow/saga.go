package workflow

import (
	"context"
	"log/slog"

	"github.com/mmynk/claimflow/internal/apperr"
	"github.com/mmynk/claimflow/internal/metrics"
)

// step is one committed write and the write that undoes it.
type step struct {
	name string
	do   func(ctx context.Context) error
	undo func(ctx context.Context) error
}

// saga runs steps in order. When a step fails, the steps already done are
// undone in reverse order. A failed undo turns the error into
// apperr.KindInconsistent.
type saga struct {
	op   string
	done []step
}

func newSaga(op string) *saga {
	return &saga{op: op}
}

func (s *saga) run(ctx context.Context, st step) error {
	if err := st.do(ctx); err != nil {
		return s.compensate(ctx, st.name, err)
	}
	s.done = append(s.done, st)
	return nil
}

func (s *saga) compensate(ctx context.Context, failed string, cause error) error {
	if len(s.done) == 0 {
		return cause
	}

	// Undo must run even if the caller gave up.
	ctx = context.WithoutCancel(ctx)
	for i := len(s.done) - 1; i >= 0; i-- {
		st := s.done[i]
		if st.undo == nil {
			continue
		}
		if err := st.undo(ctx); err != nil {
			slog.Error("Compensation failed",
				"op", s.op, "failed_step", failed, "undo_step", st.name, "error", cause, "compensation_error", err)
			metrics.Compensations.WithLabelValues(s.op, metrics.OutcomeInconsistent).Inc()
			return apperr.Inconsistent(s.op, cause, err)
		}
	}

	slog.Warn("Operation rolled back", "op", s.op, "failed_step", failed, "error", cause)
	metrics.Compensations.WithLabelValues(s.op, metrics.OutcomeCompensated).Inc()
	return cause
}
