// Package eventlog records training run events for later review. Sinks must
// never block or fail the dialogue loop, so implementations swallow their
// errors and log them instead.
package eventlog

import (
	"context"
	"time"
)

// Event is a single noteworthy moment in a training run, e.g. a lie served to
// the student or the final report.
type Event struct {
	RunID   string         `db:"run_id"`
	Type    string         `db:"type"`
	Stage   string         `db:"stage"`
	Student string         `db:"student"`
	Payload map[string]any `db:"-"`
	At      time.Time      `db:"at"`
}

// Sink consumes training run events. Implementations must be safe for
// concurrent use and must not block the caller for long.
type Sink interface {
	Log(ctx context.Context, event Event)
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) Log(context.Context, Event) {}

// MultiSink fans an event out to all of its sinks.
type MultiSink []Sink

func (m MultiSink) Log(ctx context.Context, event Event) {
	for _, sink := range m {
		sink.Log(ctx, event)
	}
}
