// Package feed carries table change signals from writers to readers. Signals
// invalidate cached reads; they never carry row data.
package feed

import (
	"sync"
	"time"

	"fjacquet/sci-ledger/internal/logging"
)

// Change tells subscribers that a table was written.
type Change struct {
	Table string
	At    time.Time
}

type subscription struct {
	tables map[string]struct{}
	ch     chan Change
}

func (s *subscription) wants(table string) bool {
	if len(s.tables) == 0 {
		return true
	}
	_, ok := s.tables[table]
	return ok
}

// Broker fans change signals out to subscribers. Each subscriber holds at
// most one undelivered signal; further signals coalesce into it, so a slow
// reader refreshes once rather than once per write.
type Broker struct {
	mu     sync.Mutex
	subs   map[int]*subscription
	nextID int
	closed bool
	logger logging.Logger
	now    func() time.Time
}

// NewBroker creates an empty Broker.
func NewBroker(logger logging.Logger) *Broker {
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	return &Broker{
		subs:   map[int]*subscription{},
		logger: logger,
		now:    time.Now,
	}
}

// Subscribe registers interest in the given tables, or in every table when
// none is given. The returned cancel func unregisters and closes the channel.
func (b *Broker) Subscribe(tables ...string) (<-chan Change, func()) {
	sub := &subscription{
		tables: make(map[string]struct{}, len(tables)),
		ch:     make(chan Change, 1),
	}
	for _, t := range tables {
		sub.tables[t] = struct{}{}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(sub.ch)
		return sub.ch, func() {}
	}
	id := b.nextID
	b.nextID++
	b.subs[id] = sub

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if s, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(s.ch)
			}
		})
	}
}

// Publish signals a change on table. It never blocks.
func (b *Broker) Publish(table string) {
	change := Change{Table: table, At: b.now()}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	delivered := 0
	for _, sub := range b.subs {
		if !sub.wants(table) {
			continue
		}
		select {
		case sub.ch <- change:
			delivered++
		default:
			// a signal is already pending for this subscriber
		}
	}
	b.logger.Debug("Published table change",
		logging.F(logging.FieldTable, table),
		logging.F(logging.FieldCount, delivered))
}

// Close unregisters every subscriber and closes their channels.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		close(sub.ch)
		delete(b.subs, id)
	}
}
