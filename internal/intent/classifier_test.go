package intent_test

import (
	"io"
	"testing"

	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func newClassifier(t *testing.T) *intent.Classifier {
	t.Helper()
	return intent.NewClassifier(intent.NewRegistry(testhelpers.NewLogger(io.Discard)))
}

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		utterance string
		want      intent.Intent
	}{
		{"Can I see your ID?", intent.AskID},
		{"ID please", intent.AskID},
		{"Here is your ID back", intent.ReturnID},
		{"I'll contact my supervisor for approval", intent.ContactSupervisor},
		{"Let me call my team leader", intent.ContactSupervisor},
		{"What is your name?", intent.AskName},
		{"What is the purpose of your visit?", intent.AskPurpose},
		{"Why are you here?", intent.AskPurpose},
		{"Do you have an appointment?", intent.AskAppointment},
		{"Are you expected?", intent.AskAppointment},
		{"Who are you here to see?", intent.AskWho},
		{"What time is your appointment?", intent.AskTime},
		{"Where are you going?", intent.AskWhere},
		{"Which building?", intent.AskWhere},
		{"What is the meeting about?", intent.AskSubject},
		{"How old are you?", intent.AskAge},
		{"What is your date of birth?", intent.AskDOB},
		{"When were you born?", intent.AskDOB},
		{"Were you born in 1993?", intent.ConfirmBornYear},
		{"What is your nationality?", intent.AskNationality},
		{"Where are you from?", intent.AskNationality},
		{"Go to person search", intent.GoPersonSearch},
		{"I need to pat down", intent.GoPersonSearch},
		{"I am denying entry, you cannot enter", intent.Deny},
		{"Deny entrance", intent.Deny},
		{"Good morning", intent.Smalltalk},
		{"Please recite the alphabet backwards", intent.Unknown},
		{"", intent.Unknown},
		{"   ", intent.Unknown},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, newClassifier(t).Classify(tt.utterance))
		})
	}
}

func TestClassify_priorityOrder(t *testing.T) {
	t.Parallel()
	classifier := newClassifier(t)

	// A phrasing that could plausibly match several intents must resolve to
	// the most specific one.
	require.Equal(t, intent.AskWho, classifier.Classify("Who are you meeting with at 10am?"))
	// Deny beats everything, even when the utterance also greets.
	require.Equal(t, intent.Deny, classifier.Classify("Hello, you cannot enter"))
	// The born-year confirmation must not be swallowed by ask_dob.
	require.Equal(t, intent.ConfirmBornYear, classifier.Classify("You were born in 1988, right?"))
}

func TestClassify_fallbackHeuristics(t *testing.T) {
	t.Parallel()
	classifier := newClassifier(t)

	require.Equal(t, intent.AskDOB, classifier.Classify("dob"))
	require.Equal(t, intent.AskDOB, classifier.Classify("please state date of birth now"))
	require.Equal(t, intent.AskAge, classifier.Classify("tell me how old you happen to be"))
	require.Equal(t, intent.ConfirmBornYear, classifier.Classify("so, born in the year 1990 then"))
	require.Equal(t, intent.Unknown, classifier.Classify("so, born in some year then"))
}

func TestParseYear(t *testing.T) {
	t.Parallel()

	year, ok := intent.ParseYear("were you born in 1993?")
	require.True(t, ok)
	require.Equal(t, 1993, year)

	_, ok = intent.ParseYear("were you born in 93?")
	require.False(t, ok)

	_, ok = intent.ParseYear("no year here")
	require.False(t, ok)
}
