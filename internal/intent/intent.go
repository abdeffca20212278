// Package intent maps free-text trainee utterances onto a closed vocabulary
// of checkpoint actions using prioritised pattern matching.
package intent

// Intent is one of the recognised checkpoint actions.
type Intent string

const (
	Deny              Intent = "deny"
	AskID             Intent = "ask_id"
	ReturnID          Intent = "return_id"
	ContactSupervisor Intent = "contact_supervisor"
	GoPersonSearch    Intent = "go_person_search"
	AskName           Intent = "ask_name"
	AskPurpose        Intent = "ask_purpose"
	AskAppointment    Intent = "ask_appointment"
	AskWho            Intent = "ask_who"
	AskTime           Intent = "ask_time"
	AskWhere          Intent = "ask_where"
	AskSubject        Intent = "ask_subject"
	AskAge            Intent = "ask_age"
	AskDOB            Intent = "ask_dob"
	ConfirmBornYear   Intent = "confirm_born_year"
	AskNationality    Intent = "ask_nationality"
	Smalltalk         Intent = "smalltalk"
	Unknown           Intent = "unknown"
)
