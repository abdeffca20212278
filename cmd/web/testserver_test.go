package main

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/alexedwards/scs/v2"
	"github.com/myrjola/gatehouse/internal/broker"
	"github.com/myrjola/gatehouse/internal/eventlog"
	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/session"
	"github.com/myrjola/gatehouse/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

// testServer wraps an httptest server with a cookie jar and the CSRF token
// required for mutating requests.
type testServer struct {
	t         *testing.T
	server    *httptest.Server
	client    *http.Client
	csrfToken string
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	logger := testhelpers.NewLogger(io.Discard)
	sessionManager := scs.New()

	eventBroker := broker.NewChannelBroker[string, session.Event]()
	go eventBroker.Start()
	t.Cleanup(eventBroker.Stop)

	app := application{
		logger:         logger,
		sessionManager: sessionManager,
		registry:       intent.NewRegistry(logger),
		sink:           eventlog.NopSink{},
		broker:         eventBroker,
		runs:           make(map[string]*runHandle),
	}

	server := httptest.NewServer(app.routes())
	t.Cleanup(server.Close)

	jar, err := newUnsafeCookieJar()
	require.NoError(t, err)

	ts := testServer{
		t:      t,
		server: server,
		client: &http.Client{Jar: jar},
	}
	ts.csrfToken = ts.fetchCSRFToken()
	return &ts
}

func (ts *testServer) fetchCSRFToken() string {
	ts.t.Helper()
	resp, err := ts.client.Get(ts.server.URL + "/api/csrf")
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(ts.t, http.StatusOK, resp.StatusCode)

	var body struct {
		Token string `json:"token"`
	}
	require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(&body))
	require.NotEmpty(ts.t, body.Token)
	return body.Token
}

func (ts *testServer) get(path string, v any) int {
	ts.t.Helper()
	resp, err := ts.client.Get(ts.server.URL + path)
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()
	if v != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func (ts *testServer) post(path string, payload, v any) int {
	ts.t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(ts.t, err)

	req, err := http.NewRequest(http.MethodPost, ts.server.URL+path, bytes.NewReader(body))
	require.NoError(ts.t, err)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-CSRF-Token", ts.csrfToken)

	resp, err := ts.client.Do(req)
	require.NoError(ts.t, err)
	defer func() { _ = resp.Body.Close() }()
	if v != nil && resp.StatusCode < http.StatusBadRequest {
		require.NoError(ts.t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp.StatusCode
}

func TestHealthy(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	var body struct {
		Status string `json:"status"`
	}
	require.Equal(t, http.StatusOK, ts.get("/api/healthy", &body))
	require.Equal(t, "ok", body.Status)
}
