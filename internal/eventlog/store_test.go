package eventlog_test

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/myrjola/gatehouse/internal/db"
	"github.com/myrjola/gatehouse/internal/eventlog"
	"github.com/myrjola/gatehouse/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *eventlog.Store {
	t.Helper()
	dbs, err := db.NewDB(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		require.NoError(t, dbs.Close())
	})
	return eventlog.NewStore(dbs, testhelpers.NewLogger(io.Discard))
}

func TestStore_LogAndByRun(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	store.Log(ctx, eventlog.Event{
		RunID:   "run-1",
		Type:    "run_started",
		Stage:   "intake",
		Student: "Virtanen",
		Payload: map[string]any{"group": "Alpha"},
		At:      time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC),
	})
	store.Log(ctx, eventlog.Event{
		RunID:   "run-1",
		Type:    "lie_served",
		Stage:   "id_check",
		Student: "Virtanen",
		Payload: map[string]any{"kind": "age"},
	})
	store.Log(ctx, eventlog.Event{
		RunID:   "run-2",
		Type:    "run_started",
		Stage:   "intake",
		Student: "Korhonen",
	})
	// Writes are asynchronous; Close flushes the queue.
	store.Close()

	events, err := store.ByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "run_started", events[0].Type)
	require.Equal(t, "Alpha", events[0].Payload["group"])
	require.Equal(t, "lie_served", events[1].Type)
	require.False(t, events[1].At.IsZero(), "missing timestamp not defaulted")

	events, err = store.ByRun(ctx, "run-3")
	require.NoError(t, err)
	require.Empty(t, events)
}

func TestStore_LogNeverBlocksTheCaller(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	ctx := context.Background()

	// Far more events than the write queue holds; the overflow must be
	// dropped without ever stalling the caller.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10_000; i++ {
			store.Log(ctx, eventlog.Event{RunID: "run-flood", Type: "message"})
		}
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("Log blocked on a saturated write queue")
	}
	store.Close()
}

func TestMultiSink(t *testing.T) {
	t.Parallel()

	var got []string
	sink := eventlog.MultiSink{
		sinkFunc(func(e eventlog.Event) { got = append(got, "a:"+e.Type) }),
		sinkFunc(func(e eventlog.Event) { got = append(got, "b:"+e.Type) }),
	}
	sink.Log(context.Background(), eventlog.Event{Type: "denied"})
	require.Equal(t, []string{"a:denied", "b:denied"}, got)
}

type sinkFunc func(eventlog.Event)

func (f sinkFunc) Log(_ context.Context, e eventlog.Event) { f(e) }
