package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmynk/claimflow/internal/metrics"
	"github.com/mmynk/claimflow/internal/models"
)

// Options tunes a Dispatcher. Zero values take defaults.
type Options struct {
	// QueueSize is the number of events buffered before Publish drops.
	QueueSize int
	// Workers is the number of goroutines draining the queue.
	Workers int
	// Fanout caps concurrent per-recipient deliveries of one event.
	Fanout int
	// DeliveryTimeout bounds a single recipient delivery.
	DeliveryTimeout time.Duration
}

func (o Options) withDefaults() Options {
	if o.QueueSize <= 0 {
		o.QueueSize = 256
	}
	if o.Workers <= 0 {
		o.Workers = 2
	}
	if o.Fanout <= 0 {
		o.Fanout = 8
	}
	if o.DeliveryTimeout <= 0 {
		o.DeliveryTimeout = 5 * time.Second
	}
	return o
}

// Dispatcher is an outbound event queue drained by background workers.
type Dispatcher struct {
	sink Sink
	opts Options
	now  func() time.Time

	queue chan Event
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	started bool
}

// NewDispatcher creates a Dispatcher delivering to sink. Call Start before
// publishing and Close on shutdown.
func NewDispatcher(sink Sink, opts Options) *Dispatcher {
	opts = opts.withDefaults()
	return &Dispatcher{
		sink:  sink,
		opts:  opts,
		now:   time.Now,
		queue: make(chan Event, opts.QueueSize),
	}
}

// Start launches the workers. It is a no-op when called again.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.closed {
		return
	}
	d.started = true

	for i := 0; i < d.opts.Workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for e := range d.queue {
				d.deliver(e)
			}
		}()
	}
	slog.Info("Notification dispatcher started", "workers", d.opts.Workers, "queue_size", d.opts.QueueSize)
}

// Publish enqueues e without blocking. It reports false when the event was
// dropped because the queue is full or the dispatcher is closed.
func (d *Dispatcher) Publish(e Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		slog.Warn("Notification dropped, dispatcher closed", "type", e.Type, "claim_id", e.ClaimID)
		metrics.Notifications.WithLabelValues(metrics.OutcomeDropped).Inc()
		return false
	}

	select {
	case d.queue <- e:
		return true
	default:
		slog.Warn("Notification dropped, queue full", "type", e.Type, "claim_id", e.ClaimID, "recipients", len(e.Recipients))
		metrics.Notifications.WithLabelValues(metrics.OutcomeDropped).Inc()
		return false
	}
}

// Close stops accepting events, delivers what is queued and waits for the
// workers to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	started := d.started
	d.mu.Unlock()

	if !started {
		for e := range d.queue {
			d.deliver(e)
		}
	}
	d.wg.Wait()
}

// deliver fans e out to each distinct recipient. Each recipient is isolated:
// its failure is logged and counted, the others proceed.
func (d *Dispatcher) deliver(e Event) {
	var g errgroup.Group
	g.SetLimit(d.opts.Fanout)

	createdAt := d.now().Unix()
	for _, recipient := range uniqueRecipients(e.Recipients) {
		n := models.Notification{
			AccountID: recipient,
			Type:      e.Type,
			Title:     e.Title,
			Message:   e.Message,
			ClaimID:   e.ClaimID,
			CreatedAt: createdAt,
		}
		g.Go(func() error {
			ctx, cancel := context.WithTimeout(context.Background(), d.opts.DeliveryTimeout)
			defer cancel()

			if err := d.sink.Notify(ctx, n); err != nil {
				slog.Error("Notification delivery failed",
					"type", n.Type, "account_id", n.AccountID, "claim_id", n.ClaimID, "error", err)
				metrics.Notifications.WithLabelValues(metrics.OutcomeError).Inc()
				return nil
			}
			metrics.Notifications.WithLabelValues(metrics.OutcomeOK).Inc()
			return nil
		})
	}
	_ = g.Wait()
}

func uniqueRecipients(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
