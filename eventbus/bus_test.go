package eventbus

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hc1839/crul-sub003/construct"
	"github.com/hc1839/crul-sub003/graph"
	"github.com/hc1839/crul-sub003/hgerr"
)

// setupTestBus creates a miniredis instance and returns a connected RedisBus.
func setupTestBus(t *testing.T, opts Options) (*RedisBus, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	opts.URL = fmt.Sprintf("redis://%s", mr.Addr())
	bus, err := New(opts)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = bus.Close()
	})

	return bus, mr
}

func mergedEvent(from, to string) graph.Event {
	return graph.Event{
		Type:     graph.EventMerged,
		SystemID: "sys",
		GraphID:  "g",
		Kind:     construct.KindVertex,
		From:     from,
		To:       to,
		At:       time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestNew(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		bus, _ := setupTestBus(t, Options{})
		assert.Equal(t, DefaultChannel, bus.opts.Channel)
		assert.Equal(t, DefaultJournalKey, bus.opts.JournalKey)
		assert.Equal(t, DefaultPublishTimeout, bus.opts.PublishTimeout)
		assert.NotNil(t, bus.opts.Logger)
	})

	t.Run("connection failure", func(t *testing.T) {
		_, err := New(Options{
			URL:            "redis://localhost:99999",
			ConnectTimeout: 100 * time.Millisecond,
		})
		require.Error(t, err)
		assert.ErrorIs(t, err, hgerr.ErrUnavailable)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})

	t.Run("invalid URL", func(t *testing.T) {
		_, err := New(Options{URL: "invalid://url"})
		require.Error(t, err)
		assert.ErrorIs(t, err, hgerr.ErrInvalidConfig)
		assert.Contains(t, err.Error(), "failed to parse Redis URL")
	})
}

func TestPublishJournal(t *testing.T) {
	ctx := context.Background()
	bus, mr := setupTestBus(t, Options{JournalKey: "test:journal"})

	require.NoError(t, bus.Publish(ctx, mergedEvent("a", "b")))
	require.NoError(t, bus.Publish(ctx, mergedEvent("c", "b")))

	entries, err := mr.List("test:journal")
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	history, err := bus.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, mergedEvent("a", "b"), history[0])
	assert.Equal(t, mergedEvent("c", "b"), history[1])

	latest, err := bus.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, latest, 1)
	assert.Equal(t, "c", latest[0].From)
}

func TestJournalLimit(t *testing.T) {
	ctx := context.Background()
	bus, _ := setupTestBus(t, Options{JournalLimit: 3})

	for i := 0; i < 5; i++ {
		require.NoError(t, bus.Publish(ctx, mergedEvent(fmt.Sprintf("v%d", i), "t")))
	}

	history, err := bus.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, "v2", history[0].From)
	assert.Equal(t, "v4", history[2].From)
}

func TestHistoryEmpty(t *testing.T) {
	bus, _ := setupTestBus(t, Options{})

	history, err := bus.History(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestHistoryMalformedEntry(t *testing.T) {
	bus, mr := setupTestBus(t, Options{})
	_, err := mr.Lpush(DefaultJournalKey, "not json")
	require.NoError(t, err)

	_, err = bus.History(context.Background(), 0)
	assert.ErrorContains(t, err, "failed to unmarshal journal entry")
}

func TestPublishSubscribe(t *testing.T) {
	bus, mr := setupTestBus(t, Options{Channel: "test:events"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	events, err := bus.Subscribe(ctx)
	require.NoError(t, err)

	// Malformed payloads are skipped.
	mr.Publish("test:events", "garbage")
	require.NoError(t, bus.Publish(ctx, mergedEvent("a", "b")))

	select {
	case got := <-events:
		assert.Equal(t, mergedEvent("a", "b"), got)
	case <-ctx.Done():
		t.Fatal("timeout waiting for event")
	}

	cancel()
	for range events {
	}
}

func TestGraphPublishesToBus(t *testing.T) {
	ctx := context.Background()
	bus, _ := setupTestBus(t, Options{})

	sys, err := graph.NewSystem(graph.WithSystemID("sys"), graph.WithEventSink(bus))
	require.NoError(t, err)
	g, err := sys.NewGraph("g")
	require.NoError(t, err)
	for _, cid := range []string{"a", "b"} {
		_, err := g.AddVertex(ctx, cid, cid)
		require.NoError(t, err)
	}

	require.NoError(t, g.Merge(ctx, construct.KindVertex, "a", "b"))
	g.Remove(ctx, construct.KindVertex, "b")

	history, err := bus.History(ctx, 0)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, graph.EventMerged, history[0].Type)
	assert.Equal(t, "a", history[0].From)
	assert.Equal(t, graph.EventRemoved, history[1].Type)
	assert.Equal(t, []string{"a", "b"}, history[1].Removed)
}

func TestPublishAfterServerClose(t *testing.T) {
	bus, mr := setupTestBus(t, Options{PublishTimeout: 200 * time.Millisecond})
	mr.Close()

	err := bus.Publish(context.Background(), mergedEvent("a", "b"))
	require.Error(t, err)
	assert.ErrorIs(t, err, hgerr.ErrUnavailable)

	var hgErr *hgerr.Error
	require.True(t, errors.As(err, &hgErr))
	assert.Equal(t, hgerr.KindUnavailable, hgErr.Kind)
}
