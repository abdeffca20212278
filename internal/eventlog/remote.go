package eventlog

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/myrjola/gatehouse/internal/errors"
)

const remoteTimeout = 5 * time.Second

// RemoteSink posts events as JSON to an external collector. Sends happen on a
// separate goroutine and failures are logged at debug level, so an unreachable
// collector degrades to a no-op.
type RemoteSink struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

func NewRemoteSink(endpoint string, logger *slog.Logger) *RemoteSink {
	return &RemoteSink{
		endpoint: endpoint,
		client:   &http.Client{Timeout: remoteTimeout},
		logger:   logger.With(slog.String("source", "eventlog.RemoteSink")),
	}
}

// Log implements Sink.
func (s *RemoteSink) Log(_ context.Context, event Event) {
	// The send must outlive the request that triggered it, hence the fresh
	// context instead of the caller's.
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), remoteTimeout)
		defer cancel()
		if err := s.send(ctx, event); err != nil {
			s.logger.LogAttrs(ctx, slog.LevelDebug, "send event", errors.SlogError(err))
		}
	}()
}

func (s *RemoteSink) send(ctx context.Context, event Event) error {
	body, err := json.Marshal(map[string]any{
		"run_id":  event.RunID,
		"type":    event.Type,
		"stage":   event.Stage,
		"student": event.Student,
		"payload": event.Payload,
		"at":      event.At,
	})
	if err != nil {
		return errors.Wrap(err, "marshal event")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "post event")
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode >= http.StatusBadRequest {
		return errors.New("unexpected status", slog.Int("status", resp.StatusCode))
	}
	return nil
}
