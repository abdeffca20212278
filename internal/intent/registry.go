package intent

import (
	"log/slog"
	"regexp"
)

// builtinRules cover every recognised intent with redundant phrasings so that
// paraphrases still match. All patterns are compiled case-insensitively.
var builtinRules = map[Intent][]string{
	AskID: {
		`\b(can i|could i|may i|let me)\s+(see|check)\s+(your|ur)\s+(id|identification)\b`,
		`\bshow\s+me\s+(your|ur)\s+(id|identification)\b`,
		`\bdo\s+you\s+have\s+an?\s+id\b`,
		`\bid\s+please\b`,
		`\bsee\s+your\s+id\b`,
	},
	ReturnID: {
		`\bhere('?s|\s+is)\s+your\s+id\s+back\b`,
		`\b(return|give)\s+(it|the\s+id)\s+back\b`,
		`\breturn\s+to\s+visitor\b`,
	},
	ContactSupervisor: {
		`\b(i\s+(will|’ll|'ll)\s+)?(contact|call|ring|phone)\s+(my\s+)?(supervisor|boss|officer|team\s*leader|manager)\b`,
		`\blet\s+me\s+(contact|call)\s+(my\s+)?(supervisor|boss|team\s*leader|manager)\b`,
	},
	AskName: {
		`\bwhat('?s|\s+is)\s+your\s+name\b`,
		`\bname\s*,?\s+please\b`,
		`\bcan\s+i\s+have\s+your\s+name\b`,
	},
	AskPurpose: {
		`\b(what('?s|\s+is)\s+the\s+purpose|why\s+are\s+you\s+here|reason\s+for\s+your\s+visit)\b`,
		`\bwhat\s+brings\s+you\s+here\b`,
	},
	AskAppointment: {
		`\bdo\s+you\s+have\s+an?\s+appointment\b`,
		`\bare\s+you\s+expected\b`,
		`\bappointment\s+time\b`,
	},
	AskWho: {
		`\bwho\s+are\s+you\s+(here\s+to\s+see|meeting|visiting)\b`,
		`\bwho\s+is\s+your\s+appointment\s+with\b`,
	},
	AskTime: {
		`\bwhat\s+time\s+is\s+your\s+appointment\b`,
		`\bwhen\s+is\s+your\s+appointment\b`,
	},
	AskWhere: {
		`\bwhere\s+are\s+you\s+going\b`,
		`\bwhich\s+(building|unit|office)\b`,
	},
	AskSubject: {
		`\bwhat\s+is\s+it\s+about\b`,
		`\bwhat\s+will\s+you\s+discuss\b`,
		`\bwhat\s+is\s+the\s+meeting\s+about\b`,
	},
	AskAge: {
		`\bhow\s+old\s+are\s+you\b`,
		`\bwhat\s+is\s+your\s+age\b`,
	},
	AskDOB: {
		`\b(what('?s|\s+is)\s+your\s+(date\s+of\s+birth|dob)|date\s+of\s+birth|dob)\b`,
		`\bwhen\s+were\s+you\s+born\b`,
	},
	ConfirmBornYear: {
		`\bwere\s+you\s+born\s+in\s+'?(\d{2}|\d{4})\b`,
		`\byou\s+were\s+born\s+in\s+'?(\d{2}|\d{4})\b`,
		`\bborn\s+in\s+'?(\d{2}|\d{4})\b`,
	},
	AskNationality: {
		`\bwhat\s+is\s+your\s+nationality\b`,
		`\bwhere\s+are\s+you\s+from\b`,
		`\byour\s+citizenship\b`,
	},
	GoPersonSearch: {
		`\b(go\s+to|start|begin)\s+(the\s+)?(person\s+search|pat\s*down|frisk)\b`,
		`\b(i\s+need\s+to|we\s+need\s+to)\s+(search|pat\s*down)\b`,
	},
	Deny: {
		`\bdeny\s+(entrance|entry|access)\b`,
		`\byou\s+cannot\s+enter\b`,
		`\bnot\s+allowed\s+to\s+enter\b`,
		`\bi\s+am\s+refusing\s+entry\b`,
	},
	Smalltalk: {
		`\bhello\b`,
		`\bhi\b`,
		`\bgood\s+(morning|afternoon|evening)\b`,
	},
}

// Registry owns the matching rules for every intent. Rules are add-only: a
// duplicate is harmless because matching is existential.
type Registry struct {
	logger *slog.Logger
	rules  map[Intent][]*regexp.Regexp
}

// NewRegistry returns a registry seeded with the built-in rules.
func NewRegistry(logger *slog.Logger) *Registry {
	r := Registry{
		logger: logger,
		rules:  make(map[Intent][]*regexp.Regexp, len(builtinRules)),
	}
	for intent, patterns := range builtinRules {
		r.Register(intent, patterns...)
	}
	return &r
}

// Register compiles the patterns case-insensitively and adds them to the
// intent's rule set. Malformed patterns are dropped rather than failing the
// registry so that an externally supplied rule set can never break startup.
func (r *Registry) Register(intent Intent, patterns ...string) {
	for _, pattern := range patterns {
		if pattern == "" {
			continue
		}
		compiled, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			r.logger.Debug("dropping malformed pattern",
				slog.String("intent", string(intent)), slog.String("pattern", pattern))
			continue
		}
		r.rules[intent] = append(r.rules[intent], compiled)
	}
}

// Merge adds externally supplied rules keyed by intent name. Rules for an
// intent the classifier does not know are dropped, since nothing would ever
// consult them.
func (r *Registry) Merge(extra map[string][]string) {
	for name, patterns := range extra {
		if _, ok := builtinRules[Intent(name)]; !ok {
			r.logger.Debug("dropping rules for unknown intent", slog.String("intent", name))
			continue
		}
		r.Register(Intent(name), patterns...)
	}
}

// Matches reports whether any of the intent's rules match the utterance.
func (r *Registry) Matches(intent Intent, utterance string) bool {
	for _, rule := range r.rules[intent] {
		if rule.MatchString(utterance) {
			return true
		}
	}
	return false
}

// RulesFor returns a copy of the intent's compiled rule set, built-ins plus
// merged extras.
func (r *Registry) RulesFor(intent Intent) []*regexp.Regexp {
	rules := make([]*regexp.Regexp, len(r.rules[intent]))
	copy(rules, r.rules[intent])
	return rules
}

// RuleCount returns the number of compiled rules for the intent.
func (r *Registry) RuleCount(intent Intent) int {
	return len(r.rules[intent])
}
