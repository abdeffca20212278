package testhelpers

import (
	"github.com/myrjola/gatehouse/internal/logging"
	"io"
	"log/slog"
)

// NewLogger builds a debug-level logger for tests, wired through the same
// context handler the server uses. Pass io.Discard to silence it or a buffer
// to assert on the output.
func NewLogger(logSink io.Writer) *slog.Logger {
	handler := logging.NewContextHandler(slog.NewTextHandler(logSink, &slog.HandlerOptions{
		AddSource:   false,
		Level:       slog.LevelDebug,
		ReplaceAttr: nil,
	}))
	return slog.New(handler)
}
