// Package session binds the intent classifier, the visitor agent, and the run
// state machine into the dialogue loop the external boundary talks to. A
// session consumes raw trainee utterances and produces rendering events; it
// never exposes an error to the trainee.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/myrjola/gatehouse/internal/checkpoint"
	"github.com/myrjola/gatehouse/internal/eventlog"
	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/visitor"
)

const (
	defaultProcessingTimeout = 7 * time.Second
	defaultDenyPause         = 900 * time.Millisecond
)

// Options configures a Session. Logger is required; everything else has a
// default.
type Options struct {
	Logger   *slog.Logger
	Registry *intent.Registry
	Rand     visitor.Rand
	Sink     eventlog.Sink
	// Emit receives every outbound event. Called synchronously from the
	// session's dispatch; it must not call back into the session.
	Emit func(Event)
	// ProcessingTimeout bounds how long an utterance may stay in flight
	// before the escape valve clears the guard.
	ProcessingTimeout time.Duration
	// DenyPause is the scripted pacing pause before a deny finalizes.
	// Negative disables the pause.
	DenyPause time.Duration
	Now       func() time.Time
}

// Session owns one training run. All state is private to the instance so that
// concurrent sessions never share anything.
type Session struct {
	mu sync.Mutex

	logger     *slog.Logger
	classifier *intent.Classifier
	rng        visitor.Rand
	sink       eventlog.Sink
	emit       func(Event)
	timeout    time.Duration
	denyPause  time.Duration
	now        func() time.Time

	runID   string
	student string
	group   string

	agent *visitor.Agent
	run   *checkpoint.Run

	idVisible bool
	unknowns  int
	started   bool
	events    []Event

	// Single-flight admission state. Kept outside the mutex so that a
	// submission arriving during a slow dispatch is rejected immediately
	// instead of queuing behind the lock, and so the escape valve can
	// re-enable input even while dispatch still holds the lock.
	tokens   atomic.Int64
	inflight atomic.Int64
}

// New builds an idle session. Call Start to begin the run.
func New(opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = intent.NewRegistry(opts.Logger)
	}
	if opts.Rand == nil {
		opts.Rand = visitor.DefaultRand()
	}
	if opts.Sink == nil {
		opts.Sink = eventlog.NopSink{}
	}
	if opts.Emit == nil {
		opts.Emit = func(Event) {}
	}
	if opts.ProcessingTimeout <= 0 {
		opts.ProcessingTimeout = defaultProcessingTimeout
	}
	if opts.DenyPause == 0 {
		opts.DenyPause = defaultDenyPause
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Session{
		logger:     opts.Logger,
		classifier: intent.NewClassifier(opts.Registry),
		rng:        opts.Rand,
		sink:       opts.Sink,
		emit:       opts.Emit,
		timeout:    opts.ProcessingTimeout,
		denyPause:  opts.DenyPause,
		now:        opts.Now,
	}
}

// Start creates the persona and emits the opening scripted lines. The student
// metadata is immutable for the rest of the run. A second call is a no-op.
func (s *Session) Start(studentName, studentGroup string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return
	}
	s.started = true
	s.runID = uuid.NewString()
	s.student = studentName
	s.group = studentGroup
	s.agent = visitor.NewAgent(visitor.NewPersona(s.rng), s.rng)
	s.run = checkpoint.NewRun()

	persona := s.agent.Persona()
	s.say(SpeakerVisitor, "Hello.", "")
	s.say(SpeakerVisitor, fmt.Sprintf("(Mood: %s)", persona.Mood.Name), "visitor mood")
	s.say(SpeakerTrainee, "Good day. Please state your name and the purpose of your visit.", "start")
	s.hint("Start with 5W/5WH (name, purpose, appointment, who, time, where, subject).")

	if !persona.Intake.Appointment {
		s.say(SpeakerTrainee, "If there is no appointment, you may need supervisor approval.", "hint")
		s.hint("Try: “I’ll contact my supervisor for approval.”")
	}

	s.log("start", map[string]any{
		"mood":    persona.Mood.Name,
		"student": studentName,
		"group":   studentGroup,
	})
}

// RunID returns the run identifier, empty before Start.
func (s *Session) RunID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.runID
}

// SubmitUtterance dispatches one trainee utterance. Empty input, input while
// a prior utterance is in flight, and input after the run has finished are
// all silent no-ops.
func (s *Session) SubmitUtterance(text string) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return
	}

	// Single-flight admission before taking the lock: a submission that
	// arrives while another is still being handled must be rejected, not
	// dispatched once the lock frees up.
	token := s.tokens.Add(1)
	if !s.inflight.CompareAndSwap(0, token) {
		s.logger.Debug("utterance rejected, already processing")
		return
	}
	// Liveness net: if dispatch ever wedges, re-enable input and tell the
	// trainee.
	guard := time.AfterFunc(s.timeout, func() { s.releaseStuck(token) })

	s.mu.Lock()
	defer s.mu.Unlock()
	defer func() {
		guard.Stop()
		s.inflight.CompareAndSwap(token, 0)
	}()

	if !s.started || s.run.Finished() {
		s.logger.Debug("utterance rejected", slog.Bool("started", s.started))
		return
	}
	s.dispatch(trimmed)
}

// releaseStuck is the escape valve behind the single-flight guard. The
// compare-and-swap clears only its own flight, so it is a no-op after a
// normal completion and never releases a submission admitted later.
func (s *Session) releaseStuck(token int64) {
	if !s.inflight.CompareAndSwap(token, 0) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.run.Finished() {
		return
	}
	s.say(SpeakerTrainee, "Something got stuck. Please try again.", "system")
}

func (s *Session) dispatch(text string) {
	s.say(SpeakerTrainee, text, "")
	s.log("message", map[string]any{"from": "student", "text": text})

	classified := s.classifier.Classify(text)

	switch classified {
	case intent.Deny:
		s.denyFlow("text")

	case intent.ReturnID:
		s.returnID()

	case intent.AskID:
		s.run.Mark(checkpoint.FlagAskedID)
		s.say(SpeakerVisitor, "Yes. Here you go.", "")
		s.setIDVisible(true)
		s.log("show_id", nil)
		s.advance()

	case intent.ContactSupervisor:
		s.run.Mark(checkpoint.FlagSupervisorContacted)
		s.log("supervisor_trigger", map[string]any{"source": "text"})
		s.say(SpeakerVisitor, "Okay. Please contact your supervisor.", "supervisor")
		s.advance()

	case intent.GoPersonSearch:
		s.log("go_person_search", map[string]any{"source": "text"})
		s.beginPersonSearch()

	case intent.AskName:
		s.intakeQuestion(checkpoint.FlagAskedName, fmt.Sprintf("My name is %s.", s.agent.Persona().Identity.Name))
	case intent.AskPurpose:
		s.intakeQuestion(checkpoint.FlagAskedPurpose, fmt.Sprintf("I’m here for %s.", s.agent.Persona().Intake.Purpose))
	case intent.AskAppointment:
		s.askAppointment()
	case intent.AskWho:
		s.intakeQuestion(checkpoint.FlagAskedWho, s.whoReply())
	case intent.AskTime:
		s.intakeQuestion(checkpoint.FlagAskedTime, s.timeReply())
	case intent.AskWhere:
		s.intakeQuestion(checkpoint.FlagAskedWhere, fmt.Sprintf("I’m going to the %s.", s.agent.Persona().Intake.Destination))
	case intent.AskSubject:
		s.intakeQuestion(checkpoint.FlagAskedSubject, fmt.Sprintf("It’s about %s.", s.agent.Persona().Intake.Subject))

	case intent.AskNationality:
		s.controlQuestion(checkpoint.FlagAskedNationality, visitor.ControlNationality,
			"I’m %s.", "Sorry… I meant that.")
	case intent.AskAge:
		s.controlQuestion(checkpoint.FlagAskedAge, visitor.ControlAge,
			"I’m %s years old.", "Sorry, I’m tired.")
	case intent.AskDOB:
		s.controlQuestion(checkpoint.FlagAskedDOB, visitor.ControlDOB,
			"My date of birth is %s.", "Sorry… I’m a bit nervous.")

	case intent.ConfirmBornYear:
		s.confirmBornYear(text)

	default:
		// Smalltalk and unknown still trigger the threat briefing nudge when
		// the trainee has done both prerequisite actions but the stage has
		// not moved yet.
		if s.run.Stage() == checkpoint.StageIDCheck &&
			s.run.Flag(checkpoint.FlagAskedID) && s.run.Flag(checkpoint.FlagSupervisorContacted) {
			s.advance()
			return
		}
		if classified == intent.Smalltalk {
			s.say(SpeakerVisitor, "Hello.", "")
			return
		}
		s.unknowns++
		s.say(SpeakerVisitor, "Sorry, I don’t understand. Can you ask it another way?", "")
		s.log("unknown_question", map[string]any{"text": text})
		s.hint("Try short clear questions (5W/5WH). Example: “What is the purpose of your visit?”")
	}
}

// RequestDeny honours the always-available deny action.
func (s *Session) RequestDeny() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.denyFlow("button")
}

// RequestManualFinish ends the run regardless of progress.
func (s *Session) RequestManualFinish() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return
	}
	s.finalize(checkpoint.ReasonManualFinish)
}

// RequestReturnID hands the ID card back to the visitor.
func (s *Session) RequestReturnID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.run.Finished() {
		return
	}
	s.returnID()
}

// RequestShowID and RequestHideID toggle the ID card without dialogue. They
// back the instructor-only card toggle.
func (s *Session) RequestShowID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.run.Finished() {
		return
	}
	s.setIDVisible(true)
}

func (s *Session) RequestHideID() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started || s.run.Finished() {
		return
	}
	s.setIDVisible(false)
}

func (s *Session) returnID() {
	s.setIDVisible(false)
	s.say(SpeakerVisitor, "Thank you.", "")
	s.log("return_id", nil)
}

func (s *Session) intakeQuestion(flag checkpoint.Flag, reply string) {
	s.run.Mark(flag)
	s.say(SpeakerVisitor, reply, "")
}

func (s *Session) askAppointment() {
	s.run.Mark(checkpoint.FlagAskedAppointment)
	intake := s.agent.Persona().Intake
	if intake.Appointment {
		s.say(SpeakerVisitor, "Yes, I have an appointment.", "")
		return
	}
	s.say(SpeakerVisitor, "No, I don’t have an appointment.", "")
	s.say(SpeakerVisitor, "I don’t have an appointment. Is that a problem?", "")
	s.hint("Tip: try “I’ll contact my supervisor for approval.”")
}

func (s *Session) whoReply() string {
	if with := s.agent.Persona().Intake.MeetingWith; with != "" {
		return fmt.Sprintf("I’m meeting %s.", with)
	}
	return "I’m not meeting anyone specific."
}

func (s *Session) timeReply() string {
	if at := s.agent.Persona().Intake.AppointmentTime; at != "" {
		return fmt.Sprintf("It’s at %s.", at)
	}
	return "I don’t have a specific time."
}

func (s *Session) controlQuestion(flag checkpoint.Flag, kind visitor.ControlKind, format, apology string) {
	s.run.Mark(flag)
	answer := s.agent.AnswerControl(kind)
	s.say(SpeakerVisitor, fmt.Sprintf(format, answer.Value), "")
	if answer.Inconsistent {
		s.say(SpeakerVisitor, apology, "mood")
	}
	s.log("control_"+string(kind), map[string]any{"value": answer.Value, "lied": answer.Lied})
}

func (s *Session) confirmBornYear(text string) {
	s.run.Mark(checkpoint.FlagAskedDOB)
	year, ok := intent.ParseYear(text)
	if !ok {
		s.say(SpeakerVisitor, "Sorry, could you repeat the year?", "")
		return
	}
	outcome := s.agent.AnswerBornYear(year)
	switch {
	case outcome.Confirmed:
		s.say(SpeakerVisitor, "Yes, that’s correct.", "")
		if outcome.Apology {
			s.say(SpeakerVisitor, "Sorry… I’m a bit stressed.", "mood")
		}
	case outcome.Recanted:
		s.say(SpeakerVisitor, "No, that’s not correct.", "")
		s.say(SpeakerVisitor, fmt.Sprintf("Actually… you’re right. I was born in %d. Sorry.", outcome.TrueYear), "correction")
	default:
		s.say(SpeakerVisitor, "No, that’s not correct.", "")
		s.say(SpeakerVisitor, fmt.Sprintf("I was born in %d.", outcome.ClaimedYear), "")
	}
	s.log("control_born_year", map[string]any{"text": text})
}

// advance applies pending stage transitions and narrates them. Entering
// threat_items emits the briefing and the person-search hint.
func (s *Session) advance() {
	for _, stage := range s.run.Advance() {
		s.emitEvent(Event{Type: EventStageChanged, Stage: stage})
		if stage == checkpoint.StageThreatItems {
			s.say(SpeakerTrainee, "Thanks. Due to a higher threat level today, I’ll apply extra security checks.", "threat")
			s.say(SpeakerTrainee, "Do you have any weapons, sharp objects, drugs, or other prohibited items with you?", "prohibited items")
			s.hint("Tip: type “Go to person search” when ready.")
		}
	}
}

func (s *Session) beginPersonSearch() {
	if !s.run.BeginPersonSearch() {
		return
	}
	s.emitEvent(Event{Type: EventStageChanged, Stage: checkpoint.StagePersonSearch})
	s.say(SpeakerTrainee, "I’m going to do a quick pat-down search (person search). Is that okay?", "person search")
	s.say(SpeakerVisitor, "Yes, that’s okay.", "")
	s.say(SpeakerTrainee, "Thank you. Please keep your hands visible and follow my instructions.", "rules")
	s.say(SpeakerTrainee, "You may enter. Follow site rules and stay with your escort if required.", "completion")
	s.finalize(checkpoint.ReasonCompleted)
}

func (s *Session) denyFlow(source string) {
	if s.run.Finished() {
		return
	}
	s.say(SpeakerTrainee, "I’m denying entry. You cannot enter the site.", "deny")
	s.log("deny", map[string]any{"source": source})
	if s.denyPause > 0 {
		// Pacing only, so the verdict lands before the report scrolls in.
		time.Sleep(s.denyPause)
	}
	s.finalize(checkpoint.ReasonDenied)
}

func (s *Session) finalize(reason checkpoint.FinishReason) {
	if !s.run.Finalize(reason) {
		return
	}
	s.setIDVisible(false)
	s.emitEvent(Event{Type: EventStageChanged, Stage: checkpoint.StageFinished})

	inconsistencies := s.agent.Inconsistencies()
	s.log("finish", map[string]any{
		"reason":          string(reason),
		"unknowns":        s.unknowns,
		"inconsistencies": len(inconsistencies),
	})

	report := s.run.Report()
	if report.AllCovered() {
		s.say(SpeakerTrainee, "Run finished. Nice work — you covered all key checkpoints.", "feedback")
	} else {
		s.say(SpeakerTrainee, "Run finished. Here are your top 3 improvements:", "feedback")
		for i, item := range report.Missed {
			s.say(SpeakerTrainee, fmt.Sprintf("%d) %s", i+1, item.Label), fmt.Sprintf("Example: %s", item.Example))
		}
	}

	s.emitEvent(Event{
		Type:            EventRunFinished,
		Reason:          reason,
		Flags:           s.run.Flags(),
		Inconsistencies: inconsistencies,
	})
}

func (s *Session) setIDVisible(visible bool) {
	if s.idVisible == visible {
		return
	}
	s.idVisible = visible
	s.emitEvent(Event{Type: EventIDCardVisibility, IDVisible: visible})
}

func (s *Session) say(speaker Speaker, text, tag string) {
	s.emitEvent(Event{Type: EventMessage, Speaker: speaker, Text: text, Tag: tag})
}

func (s *Session) hint(text string) {
	s.emitEvent(Event{Type: EventHint, Text: text})
}

func (s *Session) emitEvent(event Event) {
	event.At = s.now()
	s.events = append(s.events, event)
	s.emit(event)
}

// log sends a structured event to the sink. Fire and forget: the sink
// contract forbids blocking or failing the dialogue loop.
func (s *Session) log(eventType string, payload map[string]any) {
	s.sink.Log(context.Background(), eventlog.Event{
		RunID:   s.runID,
		Type:    eventType,
		Stage:   string(s.run.Stage()),
		Student: s.student,
		Payload: payload,
		At:      s.now(),
	})
}
