package session

import (
	"github.com/myrjola/gatehouse/internal/checkpoint"
	"github.com/myrjola/gatehouse/internal/visitor"
)

// Snapshot is a point-in-time view of the run for state queries and for
// renderers that reconnect after missing events.
type Snapshot struct {
	RunID     string                   `json:"run_id"`
	Student   string                   `json:"student"`
	Group     string                   `json:"group"`
	Stage     checkpoint.Stage         `json:"stage"`
	Mood      string                   `json:"mood"`
	Flags     map[checkpoint.Flag]bool `json:"flags"`
	Unknowns  int                      `json:"unknowns"`
	IDVisible bool                     `json:"id_visible"`
	Finished  bool                     `json:"finished"`
	Reason    checkpoint.FinishReason  `json:"reason,omitempty"`
}

// Snapshot returns the current run state. Zero value before Start.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return Snapshot{}
	}
	return Snapshot{
		RunID:     s.runID,
		Student:   s.student,
		Group:     s.group,
		Stage:     s.run.Stage(),
		Mood:      s.agent.Persona().Mood.Name,
		Flags:     s.run.Flags(),
		Unknowns:  s.unknowns,
		IDVisible: s.idVisible,
		Finished:  s.run.Finished(),
		Reason:    s.run.Reason(),
	}
}

// IDCard returns the visitor's identity and whether the card is currently
// shown to the trainee.
func (s *Session) IDCard() (visitor.Identity, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return visitor.Identity{}, false
	}
	return s.agent.Persona().Identity, s.idVisible
}

// Report returns the end-of-run feedback for the current flags.
func (s *Session) Report() checkpoint.Report {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return checkpoint.Report{}
	}
	return s.run.Report()
}

// Events returns a copy of every event emitted so far, for renderers that
// need to replay the transcript.
func (s *Session) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
