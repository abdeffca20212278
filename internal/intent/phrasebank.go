package intent

import (
	"encoding/json"
	"os"

	"github.com/myrjola/gatehouse/internal/errors"
)

// Phrasebank files come in two shapes:
//
//	{"intents": {"ask_id": {"patterns": ["..."]}}}
//	{"ask_id": ["..."]}
//
// Non-string entries are skipped. Pattern validity is not checked here;
// Registry.Register drops malformed patterns during the merge.

type phrasebankIntent struct {
	Patterns []json.RawMessage `json:"patterns"`
}

type phrasebankFile struct {
	Intents map[string]phrasebankIntent `json:"intents"`
}

// ParsePhrasebank decodes extra rules from either supported shape.
func ParsePhrasebank(data []byte) (map[string][]string, error) {
	var structured phrasebankFile
	if err := json.Unmarshal(data, &structured); err == nil && len(structured.Intents) > 0 {
		extra := make(map[string][]string, len(structured.Intents))
		for name, entry := range structured.Intents {
			extra[name] = stringsOf(entry.Patterns)
		}
		return extra, nil
	}

	var flat map[string][]json.RawMessage
	if err := json.Unmarshal(data, &flat); err != nil {
		return nil, errors.Wrap(err, "decode phrasebank")
	}
	extra := make(map[string][]string, len(flat))
	for name, patterns := range flat {
		extra[name] = stringsOf(patterns)
	}
	return extra, nil
}

// LoadPhrasebank reads extra rules from a JSON file.
func LoadPhrasebank(path string) (map[string][]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read phrasebank")
	}
	return ParsePhrasebank(data)
}

func stringsOf(raw []json.RawMessage) []string {
	patterns := make([]string, 0, len(raw))
	for _, message := range raw {
		var pattern string
		if err := json.Unmarshal(message, &pattern); err != nil {
			continue
		}
		patterns = append(patterns, pattern)
	}
	return patterns
}
