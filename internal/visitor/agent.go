package visitor

import (
	"strconv"
	"time"
)

// ControlKind is a verification question the agent may answer deceptively.
type ControlKind string

const (
	ControlAge         ControlKind = "age"
	ControlDOB         ControlKind = "dob"
	ControlNationality ControlKind = "nationality"
	ControlName        ControlKind = "name"
)

// ControlAnswer is the agent's current claim for a control kind. Lied compares
// the claim against ground truth; Inconsistent is set only when this answer
// contradicts an earlier claim.
type ControlAnswer struct {
	Value        string
	Lied         bool
	Inconsistent bool
}

// Inconsistency records a claim change between two asks of the same kind.
type Inconsistency struct {
	Kind     ControlKind `json:"kind"`
	Previous string      `json:"previous"`
	Next     string      `json:"next"`
	At       time.Time   `json:"at"`
}

// BornYearOutcome describes the agent's reaction to "were you born in X?".
type BornYearOutcome struct {
	AskedYear   int
	ClaimedYear int
	TrueYear    int
	// Confirmed means the asked year matches the current claim.
	Confirmed bool
	// Apology is set when the agent confirms a year it had lied about.
	Apology bool
	// Recanted means the trainee named the true year while the claim was a
	// lie, forcing the agent to correct itself.
	Recanted bool
}

// Agent owns the persona, the claims ledger, and the inconsistency log for one
// run. It is not safe for concurrent use; a session owns exactly one agent.
type Agent struct {
	rng             Rand
	persona         Persona
	now             func() time.Time
	claims          map[ControlKind]string
	recanted        map[ControlKind]bool
	inconsistencies []Inconsistency
}

func NewAgent(persona Persona, rng Rand) *Agent {
	return &Agent{
		rng:      rng,
		persona:  persona,
		now:      time.Now,
		claims:   make(map[ControlKind]string),
		recanted: make(map[ControlKind]bool),
	}
}

func (a *Agent) Persona() Persona { return a.persona }

// Inconsistencies returns a copy of the recorded claim changes.
func (a *Agent) Inconsistencies() []Inconsistency {
	out := make([]Inconsistency, len(a.inconsistencies))
	copy(out, a.inconsistencies)
	return out
}

// AnswerControl returns the agent's claim for the kind, establishing one on
// the first ask. A first ask lies with the mood's lie probability. A repeat
// ask contradicts the standing claim with the mood's inconsistency
// probability, unless the agent has already been forced to recant that kind:
// a recanted claim stays truthful for the rest of the run.
func (a *Agent) AnswerControl(kind ControlKind) ControlAnswer {
	truth := a.truth(kind)

	if prev, ok := a.claims[kind]; ok {
		if !a.recanted[kind] && a.chance(a.persona.Mood.InconsistencyProbability()) {
			fake := a.fakeControl(kind)
			if fake != prev {
				a.inconsistencies = append(a.inconsistencies, Inconsistency{
					Kind:     kind,
					Previous: prev,
					Next:     fake,
					At:       a.now(),
				})
				a.claims[kind] = fake
				return ControlAnswer{Value: fake, Lied: true, Inconsistent: true}
			}
		}
		return ControlAnswer{Value: prev, Lied: prev != truth}
	}

	if a.chance(a.persona.Mood.LieProbability()) {
		fake := a.fakeControl(kind)
		a.claims[kind] = fake
		return ControlAnswer{Value: fake, Lied: fake != truth}
	}

	a.claims[kind] = truth
	return ControlAnswer{Value: truth}
}

// AnswerBornYear resolves a "were you born in X?" confirmation against the
// agent's current DOB claim. Naming the true year while the claim is a lie
// forces the agent to recant to the truth.
func (a *Agent) AnswerBornYear(askedYear int) BornYearOutcome {
	trueYear := a.persona.Identity.DOB.Year
	claim := a.AnswerControl(ControlDOB)

	claimYear := trueYear
	if year, ok := yearOfDate(claim.Value); ok {
		claimYear = year
	}

	outcome := BornYearOutcome{
		AskedYear:   askedYear,
		ClaimedYear: claimYear,
		TrueYear:    trueYear,
	}

	if askedYear == claimYear {
		outcome.Confirmed = true
		outcome.Apology = claim.Lied
		return outcome
	}

	if askedYear == trueYear && claim.Lied {
		a.claims[ControlDOB] = a.truth(ControlDOB)
		a.recanted[ControlDOB] = true
		outcome.Recanted = true
		outcome.ClaimedYear = trueYear
	}

	return outcome
}

func (a *Agent) truth(kind ControlKind) string {
	id := a.persona.Identity
	switch kind {
	case ControlAge:
		return strconv.Itoa(id.Age)
	case ControlDOB:
		return id.DOB.String()
	case ControlNationality:
		return id.Nationality
	case ControlName:
		return id.Name
	}
	return ""
}

// fakeControl generates a plausible-but-false value with the same shape as
// the truth. Clamping can collapse a small delta back onto the truth; callers
// compare against the previous claim before recording an inconsistency.
func (a *Agent) fakeControl(kind ControlKind) string {
	id := a.persona.Identity
	switch kind {
	case ControlAge:
		delta := pickInt(a.rng, []int{-2, -1, 1, 2, 3})
		return strconv.Itoa(clampInt(id.Age+delta, 18, 70))
	case ControlDOB:
		dob := id.DOB
		switch a.rng.IntN(3) {
		case 0:
			dob.Day = clampInt(dob.Day+pickInt(a.rng, []int{-2, -1, 1, 2}), 1, 28)
		case 1:
			dob.Month = clampInt(dob.Month+pickInt(a.rng, []int{-1, 1}), 1, 12)
		default:
			// A year shift keeps the born-year confirmation able to catch
			// the agent in a lie.
			dob.Year += pickInt(a.rng, []int{-2, -1, 1})
		}
		return dob.String()
	case ControlNationality:
		others := make([]string, 0, len(nationalities))
		for _, nationality := range nationalities {
			if nationality != id.Nationality {
				others = append(others, nationality)
			}
		}
		return pick(a.rng, others)
	case ControlName:
		return pick(a.rng, firstNames) + " " + pick(a.rng, fakeLastNames)
	}
	return ""
}

func (a *Agent) chance(p float64) bool {
	return a.rng.Float64() < clamp01(p)
}

func pickInt(rng Rand, values []int) int {
	return values[rng.IntN(len(values))]
}

func yearOfDate(value string) (int, bool) {
	if len(value) < 4 {
		return 0, false
	}
	year, err := strconv.Atoi(value[:4])
	if err != nil {
		return 0, false
	}
	return year, true
}
