package main

import (
	"log/slog"
	"net/http"

	"github.com/justinas/nosurf"
	"github.com/myrjola/gatehouse/internal/session"
	"github.com/myrjola/gatehouse/internal/visitor"
)

const runIDSessionKey = "runID"

// eventBuffer bounds the per-run event queue. A renderer that falls this far
// behind recovers from the snapshot instead.
const eventBuffer = 256

// healthy responds with a JSON object indicating that the server is healthy.
func (app *application) healthy(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (app *application) csrfToken(w http.ResponseWriter, r *http.Request) {
	app.writeJSON(w, r, http.StatusOK, map[string]string{"token": nosurf.Token(r)})
}

// startRun creates a fresh training session for the browser session and emits
// the opening lines. Starting while a run is still active abandons the old
// one.
func (app *application) startRun(w http.ResponseWriter, r *http.Request) {
	var request struct {
		StudentName  string `json:"student_name"`
		StudentGroup string `json:"student_group"`
	}
	if !app.decodeJSON(w, r, &request) {
		return
	}
	if request.StudentName == "" {
		app.clientError(w, r, http.StatusUnprocessableEntity)
		return
	}

	// Starting over abandons the previous run for this browser session.
	if prev := app.sessionManager.GetString(r.Context(), runIDSessionKey); prev != "" {
		app.mu.Lock()
		delete(app.runs, prev)
		app.mu.Unlock()
		app.broker.Unpublish(prev)
	}

	handle := &runHandle{
		events: make(chan session.Event, eventBuffer),
	}
	handle.session = session.New(session.Options{
		Logger:   app.logger,
		Registry: app.registry,
		Sink:     app.sink,
		Emit:     app.forwardEvent(handle),
	})
	handle.session.Start(request.StudentName, request.StudentGroup)
	runID := handle.session.RunID()
	handle.runID = runID

	app.broker.Publish(runID, handle.events)

	app.mu.Lock()
	app.runs[runID] = handle
	app.mu.Unlock()

	app.sessionManager.Put(r.Context(), runIDSessionKey, runID)
	app.logger.LogAttrs(r.Context(), slog.LevelInfo, "run started",
		slog.String("run_id", runID), slog.String("student", request.StudentName))

	app.writeJSON(w, r, http.StatusCreated, handle.session.Snapshot())
}

// forwardEvent queues outbound session events for the SSE stream. The queue
// never blocks the dialogue loop: an overflowing event is dropped, and the
// stream is closed out when the run finishes. Unpublishing routes late
// subscribers to the transcript replay instead of a drained channel.
func (app *application) forwardEvent(handle *runHandle) func(session.Event) {
	return func(event session.Event) {
		select {
		case handle.events <- event:
		default:
			app.logger.Debug("dropping event, slow consumer", "type", string(event.Type))
		}
		if event.Type == session.EventRunFinished {
			close(handle.events)
			go app.broker.Unpublish(handle.runID)
		}
	}
}

// currentRun resolves the browser session to its training run.
func (app *application) currentRun(r *http.Request) (*runHandle, bool) {
	runID := app.sessionManager.GetString(r.Context(), runIDSessionKey)
	if runID == "" {
		return nil, false
	}
	app.mu.Lock()
	defer app.mu.Unlock()
	handle, ok := app.runs[runID]
	return handle, ok
}

func (app *application) submitMessage(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Text string `json:"text"`
	}
	if !app.decodeJSON(w, r, &request) {
		return
	}
	handle, ok := app.currentRun(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	// Rejected input (empty, in flight, finished) is a silent no-op; the
	// snapshot tells the client what actually happened.
	handle.session.SubmitUtterance(request.Text)
	app.writeJSON(w, r, http.StatusOK, handle.session.Snapshot())
}

func (app *application) denyRun(w http.ResponseWriter, r *http.Request) {
	app.runAction(w, r, func(s *session.Session) { s.RequestDeny() })
}

func (app *application) finishRun(w http.ResponseWriter, r *http.Request) {
	app.runAction(w, r, func(s *session.Session) { s.RequestManualFinish() })
}

func (app *application) returnID(w http.ResponseWriter, r *http.Request) {
	app.runAction(w, r, func(s *session.Session) { s.RequestReturnID() })
}

func (app *application) showID(w http.ResponseWriter, r *http.Request) {
	app.runAction(w, r, func(s *session.Session) { s.RequestShowID() })
}

func (app *application) hideID(w http.ResponseWriter, r *http.Request) {
	app.runAction(w, r, func(s *session.Session) { s.RequestHideID() })
}

func (app *application) runAction(w http.ResponseWriter, r *http.Request, action func(*session.Session)) {
	handle, ok := app.currentRun(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	action(handle.session)
	app.writeJSON(w, r, http.StatusOK, handle.session.Snapshot())
}

func (app *application) runState(w http.ResponseWriter, r *http.Request) {
	handle, ok := app.currentRun(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	app.writeJSON(w, r, http.StatusOK, handle.session.Snapshot())
}

func (app *application) runReport(w http.ResponseWriter, r *http.Request) {
	handle, ok := app.currentRun(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	snapshot := handle.session.Snapshot()
	if !snapshot.Finished {
		app.clientError(w, r, http.StatusConflict)
		return
	}
	report := handle.session.Report()
	missed := make([]reportItem, len(report.Missed))
	for i, item := range report.Missed {
		missed[i] = reportItem{
			Flag:    string(item.Flag),
			Label:   item.Label,
			Example: item.Example,
		}
	}
	app.writeJSON(w, r, http.StatusOK, map[string]any{
		"reason":      snapshot.Reason,
		"all_covered": report.AllCovered(),
		"missed":      missed,
	})
}

type reportItem struct {
	Flag    string `json:"flag"`
	Label   string `json:"label"`
	Example string `json:"example"`
}

func (app *application) runIDCard(w http.ResponseWriter, r *http.Request) {
	handle, ok := app.currentRun(r)
	if !ok {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	identity, visible := handle.session.IDCard()
	if !visible {
		app.clientError(w, r, http.StatusNotFound)
		return
	}
	app.writeJSON(w, r, http.StatusOK, idCardResponse(identity))
}

type idCard struct {
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	DOB         string `json:"dob"`
	Age         int    `json:"age"`
	IDNumber    string `json:"id_number"`
	Expiry      string `json:"expiry"`
	Headshot    string `json:"headshot"`
}

func idCardResponse(identity visitor.Identity) idCard {
	return idCard{
		Name:        identity.Name,
		Nationality: identity.Nationality,
		DOB:         identity.DOB.String(),
		Age:         identity.Age,
		IDNumber:    identity.IDNumber,
		Expiry:      identity.Expiry.String(),
		Headshot:    identity.Headshot,
	}
}
