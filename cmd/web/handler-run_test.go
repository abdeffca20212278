package main

import (
	"net/http"
	"testing"

	"github.com/myrjola/gatehouse/internal/session"
	"github.com/stretchr/testify/require"
)

func TestRunLifecycle(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)

	// No run yet.
	require.Equal(t, http.StatusNotFound, ts.get("/api/run/state", nil))
	require.Equal(t, http.StatusNotFound, ts.post("/api/run/message", map[string]string{"text": "hello"}, nil))

	var snapshot session.Snapshot
	status := ts.post("/api/run/start", map[string]string{
		"student_name":  "Virtanen",
		"student_group": "Alpha",
	}, &snapshot)
	require.Equal(t, http.StatusCreated, status)
	require.NotEmpty(t, snapshot.RunID)
	require.Equal(t, "Virtanen", snapshot.Student)
	require.False(t, snapshot.Finished)

	// The report is unavailable while the run is live.
	require.Equal(t, http.StatusConflict, ts.get("/api/run/report", nil))

	status = ts.post("/api/run/message", map[string]string{"text": "What is your name?"}, &snapshot)
	require.Equal(t, http.StatusOK, status)
	require.True(t, snapshot.Flags["asked_name"])

	// Asking for the ID makes the card available.
	require.Equal(t, http.StatusNotFound, ts.get("/api/run/id-card", nil))
	ts.post("/api/run/message", map[string]string{"text": "Can I see your ID?"}, &snapshot)
	require.True(t, snapshot.IDVisible)

	var card struct {
		Name string `json:"name"`
		DOB  string `json:"dob"`
	}
	require.Equal(t, http.StatusOK, ts.get("/api/run/id-card", &card))
	require.NotEmpty(t, card.Name)
	require.Regexp(t, `^\d{4}-\d{2}-\d{2}$`, card.DOB)

	require.Equal(t, http.StatusOK, ts.post("/api/run/return-id", nil, &snapshot))
	require.False(t, snapshot.IDVisible)

	// Manual finish ends the run; the report becomes available.
	require.Equal(t, http.StatusOK, ts.post("/api/run/finish", nil, &snapshot))
	require.True(t, snapshot.Finished)
	require.Equal(t, "manual_finish", string(snapshot.Reason))

	var report struct {
		Reason     string `json:"reason"`
		AllCovered bool   `json:"all_covered"`
		Missed     []struct {
			Flag string `json:"flag"`
		} `json:"missed"`
	}
	require.Equal(t, http.StatusOK, ts.get("/api/run/report", &report))
	require.Equal(t, "manual_finish", report.Reason)
	require.False(t, report.AllCovered)
	require.Len(t, report.Missed, 3)
	require.Equal(t, "asked_purpose", report.Missed[0].Flag)
}

func TestStartRun_requiresStudentName(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	status := ts.post("/api/run/start", map[string]string{"student_group": "Alpha"}, nil)
	require.Equal(t, http.StatusUnprocessableEntity, status)
}

func TestPostWithoutCSRFTokenIsRejected(t *testing.T) {
	t.Parallel()

	ts := newTestServer(t)
	ts.csrfToken = "bogus"
	status := ts.post("/api/run/start", map[string]string{"student_name": "Virtanen"}, nil)
	require.Equal(t, http.StatusBadRequest, status)
}
