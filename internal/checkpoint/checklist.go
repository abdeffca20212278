// Package checkpoint owns the run state machine: the checkpoint stages, the
// required-behaviour checklist, and the end-of-run report.
package checkpoint

// Flag identifies one required trainee behaviour. Flags are observational:
// they record what the trainee did, independent of stage, and are monotonic
// for the duration of a run.
type Flag string

const (
	FlagAskedName           Flag = "asked_name"
	FlagAskedPurpose        Flag = "asked_purpose"
	FlagAskedAppointment    Flag = "asked_appointment"
	FlagAskedWho            Flag = "asked_who"
	FlagAskedTime           Flag = "asked_time"
	FlagAskedWhere          Flag = "asked_where"
	FlagAskedSubject        Flag = "asked_subject"
	FlagAskedID             Flag = "asked_id"
	FlagAskedDOB            Flag = "asked_dob"
	FlagAskedAge            Flag = "asked_age"
	FlagAskedNationality    Flag = "asked_nationality"
	FlagSupervisorContacted Flag = "supervisor_contacted"
	FlagExplainedThreat     Flag = "explained_threat"
	FlagExplainedItems      Flag = "explained_items"
	FlagDidPersonSearch     Flag = "did_person_search"
)

// ChecklistItem pairs a flag with the feedback shown when it was missed.
type ChecklistItem struct {
	Flag    Flag
	Label   string
	Example string
}

// checklist order determines report order: the report lists the first unmet
// items in this declaration order, not by severity.
var checklist = []ChecklistItem{
	{FlagAskedName, "You didn’t ask the visitor’s name.", "What is your name, please?"},
	{FlagAskedPurpose, "You didn’t ask the purpose of the visit.", "What is the purpose of your visit today?"},
	{FlagAskedAppointment, "You didn’t confirm the appointment.", "Do you have an appointment?"},
	{FlagAskedWho, "You didn’t ask who they are meeting.", "Who are you here to see?"},
	{FlagAskedTime, "You didn’t confirm the time.", "What time is your appointment?"},
	{FlagAskedWhere, "You didn’t confirm where they are going.", "Where are you going on base?"},
	{FlagAskedSubject, "You didn’t ask what the meeting is about.", "What is the meeting about?"},
	{FlagAskedID, "You didn’t ask to see an ID.", "Can I see your ID, please?"},
	{FlagAskedDOB, "You didn’t verify date of birth (DOB).", "What is your date of birth?"},
	{FlagAskedAge, "You didn’t verify age.", "How old are you?"},
	{FlagAskedNationality, "You didn’t verify nationality.", "What is your nationality?"},
	{FlagSupervisorContacted, "You didn’t contact a supervisor when needed.", "I’ll contact my supervisor for approval."},
	{FlagExplainedThreat, "You didn’t mention threat level / security measures.", "We are on a higher threat level today, so I will ask a few extra questions."},
	{FlagExplainedItems, "You didn’t explain prohibited items.", "Do you have any weapons, sharp objects, or prohibited items?"},
	{FlagDidPersonSearch, "You didn’t complete the person search step.", "I’m going to do a quick pat-down search. Is that okay?"},
}

// Checklist returns the required-behaviour checklist in declaration order.
func Checklist() []ChecklistItem {
	out := make([]ChecklistItem, len(checklist))
	copy(out, checklist)
	return out
}

const reportLimit = 3

// Report lists the missed checklist items, capped at the first three in
// checklist order.
type Report struct {
	Missed []ChecklistItem
}

// AllCovered reports whether every checklist item was satisfied.
func (r Report) AllCovered() bool { return len(r.Missed) == 0 }

// BuildReport computes the end-of-run feedback from a flag snapshot. Pure
// given the flag set.
func BuildReport(flags map[Flag]bool) Report {
	var report Report
	for _, item := range checklist {
		if flags[item.Flag] {
			continue
		}
		report.Missed = append(report.Missed, item)
		if len(report.Missed) == reportLimit {
			break
		}
	}
	return report
}
