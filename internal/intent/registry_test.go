package intent_test

import (
	"io"
	"testing"

	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/testhelpers"
	"github.com/stretchr/testify/require"
)

func TestRegistry_Merge(t *testing.T) {
	t.Parallel()

	registry := intent.NewRegistry(testhelpers.NewLogger(io.Discard))
	classifier := intent.NewClassifier(registry)

	require.Equal(t, intent.Unknown, classifier.Classify("papers please"))

	registry.Merge(map[string][]string{
		"ask_id": {`\bpapers\s+please\b`},
	})
	require.Equal(t, intent.AskID, classifier.Classify("papers please"))
}

func TestRegistry_dropsMalformedPatterns(t *testing.T) {
	t.Parallel()

	registry := intent.NewRegistry(testhelpers.NewLogger(io.Discard))
	before := registry.RuleCount(intent.AskID)

	registry.Merge(map[string][]string{
		"ask_id": {`(unclosed`, ``, `\bvalid\s+pattern\b`},
	})
	require.Equal(t, before+1, registry.RuleCount(intent.AskID),
		"only the valid pattern should have been added")
}

func TestRegistry_dropsUnknownIntents(t *testing.T) {
	t.Parallel()

	registry := intent.NewRegistry(testhelpers.NewLogger(io.Discard))

	registry.Merge(map[string][]string{
		"ask_shoe_size": {`\bshoe\s+size\b`},
	})
	require.Zero(t, registry.RuleCount(intent.Intent("ask_shoe_size")),
		"rules for an unclassifiable intent must be dropped")
}

func TestRegistry_RulesForReturnsACopy(t *testing.T) {
	t.Parallel()

	registry := intent.NewRegistry(testhelpers.NewLogger(io.Discard))
	rules := registry.RulesFor(intent.Deny)
	require.NotEmpty(t, rules)

	rules[0] = nil
	require.NotNil(t, registry.RulesFor(intent.Deny)[0])
}

func TestParsePhrasebank(t *testing.T) {
	t.Parallel()

	t.Run("structured shape", func(t *testing.T) {
		t.Parallel()
		extra, err := intent.ParsePhrasebank([]byte(`{
			"intents": {
				"ask_id": {"patterns": ["\\bpapers\\b", 42]},
				"deny": {"patterns": ["\\bgo\\s+away\\b"]}
			}
		}`))
		require.NoError(t, err)
		require.Equal(t, []string{`\bpapers\b`}, extra["ask_id"], "non-string pattern not skipped")
		require.Equal(t, []string{`\bgo\s+away\b`}, extra["deny"])
	})

	t.Run("flat shape", func(t *testing.T) {
		t.Parallel()
		extra, err := intent.ParsePhrasebank([]byte(`{"smalltalk": ["\\bhey\\b"]}`))
		require.NoError(t, err)
		require.Equal(t, []string{`\bhey\b`}, extra["smalltalk"])
	})

	t.Run("malformed json", func(t *testing.T) {
		t.Parallel()
		_, err := intent.ParsePhrasebank([]byte(`{"smalltalk": `))
		require.Error(t, err)
	})
}
