package feed

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"fjacquet/sci-ledger/internal/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBroker_FiltersByTable(t *testing.T) {
	b := NewBroker(logging.NewMockLogger())
	movements, cancelMovements := b.Subscribe("mouvements_bancaires")
	defer cancelMovements()
	all, cancelAll := b.Subscribe()
	defer cancelAll()

	b.Publish("tenants")

	select {
	case c := <-all:
		assert.Equal(t, "tenants", c.Table)
		assert.False(t, c.At.IsZero())
	default:
		t.Fatal("expected a signal for the catch-all subscriber")
	}

	select {
	case <-movements:
		t.Fatal("unexpected signal for another table")
	default:
	}
}

func TestBroker_Coalesces(t *testing.T) {
	b := NewBroker(logging.NewMockLogger())
	ch, cancel := b.Subscribe()
	defer cancel()

	for i := 0; i < 5; i++ {
		b.Publish("tenant_accounts")
	}

	<-ch
	select {
	case <-ch:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestBroker_CancelAndClose(t *testing.T) {
	b := NewBroker(logging.NewMockLogger())
	ch, cancel := b.Subscribe()
	cancel()
	cancel()

	_, open := <-ch
	assert.False(t, open)

	other, _ := b.Subscribe()
	b.Close()
	_, open = <-other
	assert.False(t, open)

	late, _ := b.Subscribe()
	_, open = <-late
	assert.False(t, open)

	b.Publish("tenants")
}

func TestRefresher_RefetchesOnSignal(t *testing.T) {
	b := NewBroker(logging.NewMockLogger())
	var version atomic.Int32
	load := func(context.Context) ([]int, error) {
		return []int{int(version.Load())}, nil
	}

	r := NewRefresher[int](b, load, logging.NewMockLogger(), "mouvements_bancaires")
	refreshed := make(chan []int, 8)
	r.OnRefresh = func(rows []int) { refreshed <- rows }

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx) }()

	select {
	case rows := <-refreshed:
		assert.Equal(t, []int{0}, rows)
	case <-time.After(2 * time.Second):
		t.Fatal("initial load did not happen")
	}

	version.Store(7)
	b.Publish("mouvements_bancaires")

	select {
	case rows := <-refreshed:
		assert.Equal(t, []int{7}, rows)
	case <-time.After(2 * time.Second):
		t.Fatal("no reload after change")
	}
	assert.Equal(t, []int{7}, r.Snapshot())
	assert.Equal(t, 2, r.Loads())

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
}

func TestRefresher_KeepsSnapshotOnFailure(t *testing.T) {
	fail := errors.New("store down")
	calls := 0
	load := func(context.Context) ([]string, error) {
		calls++
		if calls > 1 {
			return nil, fail
		}
		return []string{"a"}, nil
	}

	r := NewRefresher[string](NewBroker(nil), load, logging.NewMockLogger())
	require.NoError(t, r.Refresh(context.Background()))
	assert.ErrorIs(t, r.Refresh(context.Background()), fail)
	assert.Equal(t, []string{"a"}, r.Snapshot())
}

func TestPGListener_StopsWithContext(t *testing.T) {
	l := NewPGListener("postgres://127.0.0.1:1/none?connect_timeout=1", "table_changes", NewBroker(nil), logging.NewMockLogger())
	l.MinBackoff = 10 * time.Millisecond
	l.MaxBackoff = 20 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	err := l.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
