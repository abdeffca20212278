package eventlog

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/myrjola/gatehouse/internal/db"
	"github.com/myrjola/gatehouse/internal/errors"
)

const (
	writeQueueSize = 256
	insertTimeout  = 5 * time.Second
)

// Store persists events to the training_events table. Writes go through a
// bounded queue drained by a single goroutine, which keeps a contended
// database from stalling the dialogue loop while preserving insertion order.
type Store struct {
	dbs    *db.DBs
	logger *slog.Logger
	queue  chan Event
	done   chan struct{}
}

func NewStore(dbs *db.DBs, logger *slog.Logger) *Store {
	s := &Store{
		dbs:    dbs,
		logger: logger.With(slog.String("source", "eventlog.Store")),
		queue:  make(chan Event, writeQueueSize),
		done:   make(chan struct{}),
	}
	go s.drain()
	return s
}

// Log implements Sink. The event is queued for the writer; when the queue is
// full the event is dropped, never blocking the caller.
func (s *Store) Log(ctx context.Context, event Event) {
	select {
	case s.queue <- event:
	default:
		s.logger.LogAttrs(ctx, slog.LevelDebug, "dropping event, write queue full",
			slog.String("type", event.Type))
	}
}

// Close flushes the queued events and stops the writer. No Log calls may
// happen after Close.
func (s *Store) Close() {
	close(s.queue)
	<-s.done
}

func (s *Store) drain() {
	defer close(s.done)
	for event := range s.queue {
		ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
		if err := s.insert(ctx, event); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelError, "log event", errors.SlogError(err))
		}
		cancel()
	}
}

func (s *Store) insert(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return errors.Wrap(err, "marshal payload")
	}
	if event.Payload == nil {
		payload = []byte("{}")
	}
	at := event.At
	if at.IsZero() {
		at = time.Now().UTC()
	}
	_, err = s.dbs.ReadWrite.ExecContext(ctx,
		`INSERT INTO training_events (run_id, type, stage, student, payload, at) VALUES (?, ?, ?, ?, ?, ?)`,
		event.RunID, event.Type, event.Stage, event.Student, string(payload), at)
	if err != nil {
		return errors.Wrap(err, "insert event", slog.String("run_id", event.RunID), slog.String("type", event.Type))
	}
	return nil
}

type eventRow struct {
	RunID   string    `db:"run_id"`
	Type    string    `db:"type"`
	Stage   string    `db:"stage"`
	Student string    `db:"student"`
	Payload string    `db:"payload"`
	At      time.Time `db:"at"`
}

// ByRun returns the events recorded for a run in insertion order.
func (s *Store) ByRun(ctx context.Context, runID string) ([]Event, error) {
	var rows []eventRow
	err := s.dbs.Read.SelectContext(ctx, &rows,
		`SELECT run_id, type, stage, student, payload, at FROM training_events WHERE run_id = ? ORDER BY id`, runID)
	if err != nil {
		return nil, errors.Wrap(err, "select events", slog.String("run_id", runID))
	}
	events := make([]Event, len(rows))
	for i, row := range rows {
		var payload map[string]any
		if err = json.Unmarshal([]byte(row.Payload), &payload); err != nil {
			return nil, errors.Wrap(err, "unmarshal payload", slog.String("run_id", runID))
		}
		events[i] = Event{
			RunID:   row.RunID,
			Type:    row.Type,
			Stage:   row.Stage,
			Student: row.Student,
			Payload: payload,
			At:      row.At,
		}
	}
	return events, nil
}
