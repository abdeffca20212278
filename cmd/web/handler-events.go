package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/myrjola/gatehouse/internal/errors"
	"github.com/myrjola/gatehouse/internal/session"
)

// runEvents streams the run's rendering events over SSE. The first subscriber
// receives the live channel from the broker; a reconnecting client whose
// producer is already gone gets the recorded transcript replayed instead.
func (app *application) runEvents(w http.ResponseWriter, r *http.Request) {
	runID := app.sessionManager.GetString(r.Context(), runIDSessionKey)
	if runID == "" {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	app.mu.Lock()
	handle, ok := app.runs[runID]
	app.mu.Unlock()
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		app.serverError(w, r, errors.New("response writer does not support flushing"))
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	// A subsequent subscriber blocks here until the producer finishes, so
	// honor the client hanging up in the meantime.
	var events chan session.Event
	select {
	case <-r.Context().Done():
		return
	case events, ok = <-app.broker.Subscribe(runID):
	}
	if !ok {
		// Producer finished or replaced; replay the transcript and end the
		// stream so the client falls back to polling the snapshot.
		for _, event := range handle.session.Events() {
			if !app.writeEvent(w, r, event) {
				return
			}
		}
		flusher.Flush()
		return
	}

	flusher.Flush()
	for {
		select {
		case <-r.Context().Done():
			return
		case event, open := <-events:
			if !open {
				return
			}
			if !app.writeEvent(w, r, event) {
				return
			}
			flusher.Flush()
		}
	}
}

func (app *application) writeEvent(w http.ResponseWriter, r *http.Request, event session.Event) bool {
	payload, err := json.Marshal(event)
	if err != nil {
		app.logger.LogAttrs(r.Context(), slog.LevelError, "marshal event", errors.SlogError(err))
		return false
	}
	if _, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload); err != nil {
		return false
	}
	return true
}
