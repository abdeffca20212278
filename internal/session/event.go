package session

import (
	"time"

	"github.com/myrjola/gatehouse/internal/checkpoint"
	"github.com/myrjola/gatehouse/internal/visitor"
)

// Speaker identifies who a chat message belongs to.
type Speaker string

const (
	SpeakerTrainee Speaker = "trainee"
	SpeakerVisitor Speaker = "visitor"
)

// EventType enumerates the outbound events a session emits for rendering.
type EventType string

const (
	EventMessage          EventType = "message"
	EventStageChanged     EventType = "stage_changed"
	EventIDCardVisibility EventType = "id_card_visibility"
	EventRunFinished      EventType = "run_finished"
	EventHint             EventType = "hint"
)

// Event is one outbound rendering event. Only the fields relevant to the
// event's type are populated.
type Event struct {
	Type EventType `json:"type"`
	At   time.Time `json:"at"`

	// EventMessage and EventHint
	Speaker Speaker `json:"speaker,omitempty"`
	Text    string  `json:"text,omitempty"`
	Tag     string  `json:"tag,omitempty"`

	// EventStageChanged
	Stage checkpoint.Stage `json:"stage,omitempty"`

	// EventIDCardVisibility
	IDVisible bool `json:"id_visible,omitempty"`

	// EventRunFinished
	Reason          checkpoint.FinishReason  `json:"reason,omitempty"`
	Flags           map[checkpoint.Flag]bool `json:"flags,omitempty"`
	Inconsistencies []visitor.Inconsistency  `json:"inconsistencies,omitempty"`
}
