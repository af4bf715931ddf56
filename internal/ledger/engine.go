// Package ledger implements the expense lifecycle, balance aggregation and
// group lifecycle on top of a storage.Store.
//
// All mutations of one group are serialized by a per-group lock, so a group
// can never be deleted while an expense is being logged or settled in it.
// Different groups proceed in parallel.
package ledger

import (
	"context"
	"log/slog"
	"time"

	"github.com/mmynk/amencash/internal/events"
	"github.com/mmynk/amencash/internal/metrics"
	"github.com/mmynk/amencash/internal/storage"
)

// Engine is the ledger. It is safe for concurrent use.
type Engine struct {
	store           storage.Store
	locks           *keyedMutex
	publisher       events.Publisher
	metrics         *metrics.Metrics
	logger          *slog.Logger
	now             func() time.Time
	checkMembership bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithPublisher sets where domain events are sent. Defaults to events.NopPublisher.
func WithPublisher(p events.Publisher) Option {
	return func(e *Engine) { e.publisher = p }
}

// WithMetrics enables operation counters.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithMembershipCheck controls whether CreateExpense requires the payer and
// every split member to belong to the group. Enabled by default.
func WithMembershipCheck(enabled bool) Option {
	return func(e *Engine) { e.checkMembership = enabled }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New creates an Engine over store.
func New(store storage.Store, opts ...Option) *Engine {
	e := &Engine{
		store:           store,
		locks:           newKeyedMutex(),
		publisher:       events.NopPublisher{},
		logger:          slog.Default(),
		now:             time.Now,
		checkMembership: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Store returns the underlying store.
func (e *Engine) Store() storage.Store {
	return e.store
}

// outbox holds the events an operation raised while holding a group lock.
type outbox []events.Event

// raise stamps event and queues it on out.
func (e *Engine) raise(out *outbox, event events.Event) {
	event.OccurredAt = e.now()
	*out = append(*out, event)
}

// publish sends queued events after the group lock is released, logging
// instead of failing: the ledger write already happened.
func (e *Engine) publish(ctx context.Context, out outbox) {
	for _, event := range out {
		if err := e.publisher.Publish(ctx, event); err != nil {
			e.logger.WarnContext(ctx, "Failed to publish ledger event",
				"type", event.Type,
				"group_id", event.GroupID,
				"error", err,
			)
		}
	}
}

func (e *Engine) observe(operation string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	e.metrics.ObserveOperation(operation, outcome)
}
