package practice

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/myrjola/gatehouse/internal/eventlog"
	"github.com/myrjola/gatehouse/internal/intent"
	"github.com/myrjola/gatehouse/internal/session"
	"github.com/spf13/cobra"
)

var Group = &cobra.Group{
	ID:    "practice",
	Title: "Training",
}

func init() {
	Run.Flags().String("student", "Student", "student name shown in the report")
	Run.Flags().String("group", "", "optional class or squad name")
	Run.Flags().String("phrasebank", os.Getenv("GATEHOUSE_PHRASEBANK_PATH"), "path to an extra phrasebank JSON file")
}

var Run = &cobra.Command{
	Use:     "practice",
	GroupID: "practice",
	Short:   "Run a checkpoint interview in the terminal",
	Long: `Starts a visitor interview against the scripted visitor agent.

Type your questions at the prompt. Slash commands control the run:

  /deny    deny entry and end the run
  /return  hand the ID card back
  /id      inspect the ID card while the visitor holds it out
  /finish  end the run and print the report
`,
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()

		logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelWarn,
		}))

		registry := intent.NewRegistry(logger)
		if path, _ := cmd.Flags().GetString("phrasebank"); path != "" {
			phrasebank, err := intent.LoadPhrasebank(path)
			if err != nil {
				_, _ = fmt.Fprintf(os.Stderr, "Phrasebank error: %v\n", err)
				return
			}
			registry.Merge(phrasebank)
		}

		var sink eventlog.Sink = eventlog.NopSink{}
		if endpoint := os.Getenv("GATEHOUSE_LOG_ENDPOINT"); endpoint != "" {
			sink = eventlog.NewRemoteSink(endpoint, logger)
		}

		sess := session.New(session.Options{
			Logger:   logger,
			Registry: registry,
			Sink:     sink,
			Emit: func(event session.Event) {
				render(out, event)
			},
		})

		studentName, _ := cmd.Flags().GetString("student")
		studentGroup, _ := cmd.Flags().GetString("group")
		sess.Start(studentName, studentGroup)

		scanner := bufio.NewScanner(cmd.InOrStdin())
		for !sess.Snapshot().Finished {
			_, _ = fmt.Fprint(out, "> ")
			if !scanner.Scan() {
				break
			}
			line := strings.TrimSpace(scanner.Text())
			switch line {
			case "":
				continue
			case "/deny":
				sess.RequestDeny()
			case "/return":
				sess.RequestReturnID()
			case "/finish", "/quit":
				sess.RequestManualFinish()
			case "/id":
				printIDCard(out, sess)
			default:
				sess.SubmitUtterance(line)
			}
		}
		if err := scanner.Err(); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "Read error: %v\n", err)
		}
	},
}

func render(out io.Writer, event session.Event) {
	switch event.Type {
	case session.EventMessage:
		speaker := "Visitor"
		if event.Speaker == session.SpeakerTrainee {
			speaker = "You"
		}
		if event.Tag != "" {
			_, _ = fmt.Fprintf(out, "%s: %s [%s]\n", speaker, event.Text, event.Tag)
		} else {
			_, _ = fmt.Fprintf(out, "%s: %s\n", speaker, event.Text)
		}
	case session.EventHint:
		_, _ = fmt.Fprintf(out, "(hint) %s\n", event.Text)
	case session.EventStageChanged:
		_, _ = fmt.Fprintf(out, "-- stage: %s --\n", event.Stage)
	case session.EventIDCardVisibility:
		if event.IDVisible {
			_, _ = fmt.Fprintln(out, "(the visitor holds out an ID card, type /id to read it)")
		} else {
			_, _ = fmt.Fprintln(out, "(the ID card is put away)")
		}
	case session.EventRunFinished:
		_, _ = fmt.Fprintf(out, "== run finished: %s ==\n", event.Reason)
	}
}

func printIDCard(out io.Writer, sess *session.Session) {
	card, visible := sess.IDCard()
	if !visible {
		_, _ = fmt.Fprintln(out, "(no ID card is being shown, ask for it first)")
		return
	}
	_, _ = fmt.Fprintf(out, "ID %s\n", card.IDNumber)
	_, _ = fmt.Fprintf(out, "  Name:        %s\n", card.Name)
	_, _ = fmt.Fprintf(out, "  Nationality: %s\n", card.Nationality)
	_, _ = fmt.Fprintf(out, "  Born:        %s\n", card.DOB)
	_, _ = fmt.Fprintf(out, "  Expires:     %s\n", card.Expiry)
}
