// Package visitor implements the synthetic persona the trainee interviews.
// The agent answers control questions truthfully or deceptively according to
// a mood-driven probability model, remembers what it has claimed, and can
// contradict itself on repeat asks.
package visitor

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Rand is the source of randomness for persona generation and answer
// behaviour. *math/rand/v2.Rand satisfies it; tests supply scripted values to
// drive the lie and truth branches deterministically.
type Rand interface {
	Float64() float64
	IntN(n int) int
}

type defaultRand struct{}

func (defaultRand) Float64() float64 { return rand.Float64() }
func (defaultRand) IntN(n int) int   { return rand.IntN(n) }

// DefaultRand returns a Rand backed by the shared math/rand/v2 generator.
func DefaultRand() Rand { return defaultRand{} }

const (
	lieBase           = 0.04
	inconsistencyBase = 0.05
)

// Mood shifts the visitor's tendency to lie on a first ask and to contradict
// an earlier claim on a repeat ask.
type Mood struct {
	Name               string
	LieBoost           float64
	InconsistencyBoost float64
}

func (m Mood) LieProbability() float64 {
	return clamp01(lieBase + m.LieBoost)
}

func (m Mood) InconsistencyProbability() float64 {
	return clamp01(inconsistencyBase + m.InconsistencyBoost)
}

// Moods is the fixed set of profiles a persona is drawn from.
var Moods = []Mood{
	{Name: "relaxed", LieBoost: 0.02, InconsistencyBoost: 0.02},
	{Name: "tired but cooperative", LieBoost: 0.05, InconsistencyBoost: 0.05},
	{Name: "uneasy", LieBoost: 0.10, InconsistencyBoost: 0.12},
	{Name: "nervous", LieBoost: 0.18, InconsistencyBoost: 0.20},
	{Name: "irritated", LieBoost: 0.12, InconsistencyBoost: 0.10},
}

// Date is a calendar date without a time zone.
type Date struct {
	Year  int
	Month int
	Day   int
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// Identity is the visitor's ground truth, shown on the ID card. Immutable per
// run.
type Identity struct {
	Name        string
	Nationality string
	DOB         Date
	Age         int
	IDNumber    string
	Expiry      Date
	Headshot    string
}

// IntakeFacts answer the 5W/5WH intake questions. AppointmentTime and
// MeetingWith are set if and only if Appointment is true.
type IntakeFacts struct {
	Purpose         string
	Appointment     bool
	AppointmentTime string
	MeetingWith     string
	Destination     string
	Subject         string
}

// Persona bundles everything generated for one run's visitor.
type Persona struct {
	Identity Identity
	Mood     Mood
	Intake   IntakeFacts
}

var (
	nationalities = []string{
		"Dutch", "German", "Belgian", "French", "Spanish", "Italian",
		"Polish", "Romanian", "Turkish", "British", "American", "Canadian",
	}

	firstNames = []string{
		"David", "Michael", "James", "Robert", "Daniel", "Thomas",
		"Mark", "Lucas", "Noah", "Adam", "Omar", "Yusuf", "Mateusz", "Julien", "Marco",
	}

	lastNames = []string{
		"Johnson", "Miller", "Brown", "Davis", "Martinez",
		"Kowalski", "Nowak", "Schmidt", "Dubois", "Rossi", "Yilmaz",
	}

	fakeLastNames = []string{"Johnson", "Miller", "Brown", "Davis", "Rossi", "Schmidt"}

	purposes = []string{"delivery", "maintenance", "meeting", "visit", "contract work"}

	appointmentTimes = []string{"09:30", "10:00", "13:15", "14:00", "15:45"}

	hosts = []string{"Captain Lewis", "Sgt. van Dijk", "Mr. Peters", "Lt. Schmidt"}

	destinations = []string{"HQ building", "Logistics office", "Barracks admin", "Workshop"}

	subjects = []string{
		"paperwork", "equipment handover", "maintenance report",
		"security briefing", "contract discussion",
	}
)

const appointmentChance = 0.7

// NewPersona generates a fresh internally consistent persona. The appointment
// boolean is drawn once and governs both the appointment time and the host.
func NewPersona(rng Rand) Persona {
	now := time.Now()

	dob := Date{
		Year:  now.Year() - (18 + rng.IntN(38)),
		Month: 1 + rng.IntN(12),
		Day:   1 + rng.IntN(28),
	}
	identity := Identity{
		Name:        pick(rng, firstNames) + " " + pick(rng, lastNames),
		Nationality: pick(rng, nationalities),
		DOB:         dob,
		Age:         ageAt(dob, now),
		IDNumber:    fmt.Sprintf("ID-%06d-%04d", 100000+rng.IntN(900000), 1000+rng.IntN(9000)),
		Expiry: Date{
			Year:  now.Year() + 1 + rng.IntN(8),
			Month: 1 + rng.IntN(12),
			Day:   1 + rng.IntN(28),
		},
		Headshot: fmt.Sprintf("headshot_%02d", 1+rng.IntN(12)),
	}

	intake := IntakeFacts{
		Purpose:     pick(rng, purposes),
		Appointment: rng.Float64() < appointmentChance,
		Destination: pick(rng, destinations),
		Subject:     pick(rng, subjects),
	}
	if intake.Appointment {
		intake.AppointmentTime = pick(rng, appointmentTimes)
		intake.MeetingWith = pick(rng, hosts)
	}

	return Persona{
		Identity: identity,
		Mood:     Moods[rng.IntN(len(Moods))],
		Intake:   intake,
	}
}

func pick(rng Rand, values []string) string {
	return values[rng.IntN(len(values))]
}

func ageAt(dob Date, now time.Time) int {
	age := now.Year() - dob.Year
	if int(now.Month()) < dob.Month || (int(now.Month()) == dob.Month && now.Day() < dob.Day) {
		age--
	}
	return age
}

func clamp01(p float64) float64 {
	return min(max(p, 0), 1)
}

func clampInt(n, low, high int) int {
	return min(max(n, low), high)
}
