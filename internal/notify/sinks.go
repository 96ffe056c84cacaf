package notify

import (
	"context"
	"errors"
	"fmt"

	"github.com/mmynk/claimflow/internal/models"
	"github.com/mmynk/claimflow/internal/storage"
)

// StoreSink appends notifications to the store.
type StoreSink struct {
	store storage.NotificationStore
}

// NewStoreSink creates a StoreSink.
func NewStoreSink(store storage.NotificationStore) *StoreSink {
	return &StoreSink{store: store}
}

// Notify appends n.
func (s *StoreSink) Notify(ctx context.Context, n models.Notification) error {
	if err := s.store.AppendNotification(ctx, &n); err != nil {
		return fmt.Errorf("store sink: %w", err)
	}
	return nil
}

// Multi delivers to every sink in turn. A failing sink does not stop the
// others; the joined error is returned.
type Multi []Sink

// Notify delivers n to each sink.
func (m Multi) Notify(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, s := range m {
		if err := s.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
