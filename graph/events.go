package graph

import (
	"context"
	"time"

	"github.com/hc1839/crul-sub003/construct"
)

// EventType identifies what happened to the constructs named by an Event.
type EventType string

const (
	// EventMerged is emitted after From was redirected onto To.
	EventMerged EventType = "merged"

	// EventRemoved is emitted after a construct and all of its aliases were
	// removed. Removed lists every erased ID.
	EventRemoved EventType = "removed"
)

// Event describes a merge or removal in a graph.
type Event struct {
	Type     EventType      `json:"type"`
	SystemID string         `json:"system_id"`
	GraphID  string         `json:"graph_id"`
	Kind     construct.Kind `json:"kind"`
	From     string         `json:"from,omitempty"`
	To       string         `json:"to,omitempty"`
	Removed  []string       `json:"removed,omitempty"`
	At       time.Time      `json:"at"`
}

// EventSink receives events after the mutation they describe has completed.
// A sink error is logged by the graph; it never undoes the mutation.
type EventSink interface {
	Publish(ctx context.Context, event Event) error
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(ctx context.Context, event Event) error

// Publish calls f.
func (f EventSinkFunc) Publish(ctx context.Context, event Event) error {
	return f(ctx, event)
}
