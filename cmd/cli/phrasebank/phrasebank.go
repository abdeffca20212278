package phrasebank

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "phrasebank",
	Title: "Phrasebank operations",
}

func init() {
}

var Lint = &cobra.Command{
	Use:     "lint [phrasebank.json]",
	GroupID: "phrasebank",
	Short:   "Lint a phrasebank file",
	Long: `Parses a phrasebank JSON file and compiles every pattern.

Patterns that fail to compile would be silently dropped when the server
loads the file, so lint reports them here instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		rules, err := intent.LoadPhrasebank(args[0])
		if err != nil {
			return fmt.Errorf("load %s: %w", args[0], err)
		}

		names := make([]string, 0, len(rules))
		for name := range rules {
			names = append(names, name)
		}
		sort.Strings(names)

		var patterns, broken int
		for _, name := range names {
			for _, pattern := range rules[name] {
				patterns++
				if pattern == "" {
					broken++
					_, _ = fmt.Fprintf(os.Stderr, "%s: empty pattern\n", name)
					continue
				}
				if _, err := regexp.Compile("(?i)" + pattern); err != nil {
					broken++
					_, _ = fmt.Fprintf(os.Stderr, "%s: %v\n", name, err)
				}
			}
		}

		_, _ = fmt.Fprintf(out, "%d intents, %d patterns, %d broken\n", len(names), patterns, broken)
		if broken > 0 {
			return fmt.Errorf("%d broken patterns", broken)
		}
		return nil
	},
}
