package intent

import (
	"regexp"
	"strconv"
	"strings"
)

// priority is the fixed classification order. Specific intents come before
// general ones because some phrasings are ambiguous across intents, e.g. a
// question mentioning "appointment" could match ask_appointment, ask_who or
// ask_time. Reordering this list changes classification results.
var priority = []Intent{
	Deny,
	AskID,
	ReturnID,
	ContactSupervisor,
	GoPersonSearch,
	AskName,
	AskPurpose,
	AskAppointment,
	AskWho,
	AskTime,
	AskWhere,
	AskSubject,
	AskAge,
	AskDOB,
	ConfirmBornYear,
	AskNationality,
	Smalltalk,
}

var (
	yearPattern   = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
	bornInPattern = regexp.MustCompile(`\bborn in\b`)
)

// ParseYear extracts the first plausible four-digit year from the text.
func ParseYear(text string) (int, bool) {
	match := yearPattern.FindString(text)
	if match == "" {
		return 0, false
	}
	year, err := strconv.Atoi(match)
	if err != nil {
		return 0, false
	}
	return year, true
}

// Classifier resolves utterances to intents using a Registry. Classification
// is a pure function of the utterance and the registry contents.
type Classifier struct {
	registry *Registry
}

func NewClassifier(registry *Registry) *Classifier {
	return &Classifier{registry: registry}
}

// Classify returns the first intent in priority order with at least one
// matching rule. When nothing matches, a few fallback heuristics catch common
// paraphrases before giving up with Unknown. Empty and whitespace-only
// utterances are always Unknown.
func (c *Classifier) Classify(utterance string) Intent {
	if strings.TrimSpace(utterance) == "" {
		return Unknown
	}

	for _, candidate := range priority {
		if c.registry.Matches(candidate, utterance) {
			return candidate
		}
	}

	low := strings.ToLower(strings.TrimSpace(utterance))
	if strings.Contains(low, "date of birth") || low == "dob" {
		return AskDOB
	}
	if strings.Contains(low, "how old") {
		return AskAge
	}
	if bornInPattern.MatchString(low) {
		if _, ok := ParseYear(low); ok {
			return ConfirmBornYear
		}
	}

	return Unknown
}
