package feed

import (
	"context"
	"sync"

	"fjacquet/sci-ledger/internal/logging"
)

// Loader re-runs a read query.
type Loader[T any] func(ctx context.Context) ([]T, error)

// Refresher keeps a snapshot of a read query current. Every change signal on
// its tables triggers a full re-run of the query; the pushed signal itself is
// never applied to the snapshot.
type Refresher[T any] struct {
	broker *Broker
	tables []string
	load   Loader[T]
	logger logging.Logger

	mu       sync.RWMutex
	snapshot []T
	loads    int

	// OnRefresh, when set, is called after each successful reload.
	OnRefresh func(snapshot []T)
}

// NewRefresher creates a Refresher over load, watching tables on broker.
func NewRefresher[T any](broker *Broker, load Loader[T], logger logging.Logger, tables ...string) *Refresher[T] {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Refresher[T]{broker: broker, tables: tables, load: load, logger: logger}
}

// Refresh reloads the snapshot now.
func (r *Refresher[T]) Refresh(ctx context.Context) error {
	rows, err := r.load(ctx)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.snapshot = rows
	r.loads++
	r.mu.Unlock()

	if r.OnRefresh != nil {
		r.OnRefresh(rows)
	}
	return nil
}

// Snapshot returns the latest loaded rows.
func (r *Refresher[T]) Snapshot() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]T(nil), r.snapshot...)
}

// Loads returns how many times the query ran.
func (r *Refresher[T]) Loads() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loads
}

// Run loads once, then reloads on every change signal until ctx is done.
// Failed reloads are logged and retried on the next signal.
func (r *Refresher[T]) Run(ctx context.Context) error {
	changes, cancel := r.broker.Subscribe(r.tables...)
	defer cancel()

	if err := r.Refresh(ctx); err != nil {
		r.logger.WithError(err).Warn("Initial load failed")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			if err := r.Refresh(ctx); err != nil {
				r.logger.WithError(err).Warn("Reload after change failed",
					logging.F(logging.FieldTable, change.Table))
				continue
			}
			r.logger.Debug("Reloaded after change", logging.F(logging.FieldTable, change.Table))
		}
	}
}
