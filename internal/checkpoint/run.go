package checkpoint

// Stage is a step in the checkpoint procedure. StageFinished is absorbing:
// once entered, no further transitions or flag mutations occur.
type Stage string

const (
	StageIntake       Stage = "intake"
	StageIDCheck      Stage = "id_check"
	StageSupervisor   Stage = "supervisor"
	StageThreatItems  Stage = "threat_items"
	StagePersonSearch Stage = "person_search"
	StageFinished     Stage = "finished"
)

// FinishReason says why a run ended.
type FinishReason string

const (
	ReasonCompleted    FinishReason = "completed"
	ReasonDenied       FinishReason = "denied"
	ReasonManualFinish FinishReason = "manual_finish"
)

// Run tracks the stage and the required-behaviour flags for one session. It
// is not safe for concurrent use; the owning session serialises access.
//
// The supervisor stage exists conceptually between id_check and threat_items
// but the flow folds its effect into the id_check → threat_items transition
// once both the ID request and the supervisor contact have been observed.
type Run struct {
	stage    Stage
	flags    map[Flag]bool
	finished bool
	reason   FinishReason
}

func NewRun() *Run {
	flags := make(map[Flag]bool, len(checklist))
	for _, item := range checklist {
		flags[item.Flag] = false
	}
	return &Run{stage: StageIntake, flags: flags}
}

func (r *Run) Stage() Stage         { return r.stage }
func (r *Run) Finished() bool       { return r.finished }
func (r *Run) Reason() FinishReason { return r.reason }
func (r *Run) Flag(flag Flag) bool  { return r.flags[flag] }

// Flags returns a snapshot of the flag set.
func (r *Run) Flags() map[Flag]bool {
	out := make(map[Flag]bool, len(r.flags))
	for flag, set := range r.flags {
		out[flag] = set
	}
	return out
}

// Mark sets a flag. Flags are monotonic: they never reset, and nothing
// changes after the run has finished. Reports whether the flag flipped.
func (r *Run) Mark(flag Flag) bool {
	if r.finished || r.flags[flag] {
		return false
	}
	r.flags[flag] = true
	return true
}

// Advance applies every forward transition whose guard currently holds and
// returns the stages entered, in order:
//
//	intake → id_check      when asked_id
//	id_check → threat_items when asked_id and supervisor_contacted; entering
//	                        threat_items also sets the explained_threat and
//	                        explained_items flags (the briefing is emitted by
//	                        the caller).
func (r *Run) Advance() []Stage {
	if r.finished {
		return nil
	}
	var entered []Stage
	if r.stage == StageIntake && r.flags[FlagAskedID] {
		r.stage = StageIDCheck
		entered = append(entered, StageIDCheck)
	}
	if r.stage == StageIDCheck && r.flags[FlagAskedID] && r.flags[FlagSupervisorContacted] {
		r.stage = StageThreatItems
		r.flags[FlagExplainedThreat] = true
		r.flags[FlagExplainedItems] = true
		entered = append(entered, StageThreatItems)
	}
	return entered
}

// BeginPersonSearch moves to the person search stage and records the
// behaviour. Reports whether the transition happened.
func (r *Run) BeginPersonSearch() bool {
	if r.finished {
		return false
	}
	r.flags[FlagDidPersonSearch] = true
	r.stage = StagePersonSearch
	return true
}

// Finalize ends the run. Idempotent: the second call is a no-op and reports
// false, leaving the stage, flags, and reason from the first call intact.
func (r *Run) Finalize(reason FinishReason) bool {
	if r.finished {
		return false
	}
	r.finished = true
	r.reason = reason
	r.stage = StageFinished
	return true
}

// Report builds the end-of-run feedback from the current flags.
func (r *Run) Report() Report {
	return BuildReport(r.flags)
}
