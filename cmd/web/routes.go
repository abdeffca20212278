package main

import (
	"net/http"

	"github.com/justinas/alice"
)

func (app *application) routes() http.Handler {
	mux := http.NewServeMux()

	base := alice.New(app.sessionManager.LoadAndSave, noSurf, app.withRunContext)
	// scs's LoadAndSave buffers the response, which breaks streaming.
	sse := alice.New(app.serverSentEventMiddleware, app.withRunContext)

	mux.HandleFunc("GET /api/healthy", app.healthy)
	mux.Handle("GET /api/csrf", base.ThenFunc(app.csrfToken))

	mux.Handle("POST /api/run/start", base.ThenFunc(app.startRun))
	mux.Handle("GET /api/run/state", base.ThenFunc(app.runState))
	mux.Handle("GET /api/run/report", base.ThenFunc(app.runReport))
	mux.Handle("GET /api/run/id-card", base.ThenFunc(app.runIDCard))
	mux.Handle("POST /api/run/message", base.ThenFunc(app.submitMessage))
	mux.Handle("POST /api/run/deny", base.ThenFunc(app.denyRun))
	mux.Handle("POST /api/run/finish", base.ThenFunc(app.finishRun))
	mux.Handle("POST /api/run/return-id", base.ThenFunc(app.returnID))
	mux.Handle("POST /api/run/id/show", base.ThenFunc(app.showID))
	mux.Handle("POST /api/run/id/hide", base.ThenFunc(app.hideID))

	mux.Handle("GET /api/run/events", sse.ThenFunc(app.runEvents))

	return app.recoverPanic(app.logRequest(secureHeaders(mux)))
}
