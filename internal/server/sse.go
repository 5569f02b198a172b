package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/dmarsh/docketmind/internal/swarm"
)

// swarmStream pushes swarm session snapshots to one client as Server-Sent
// Events. Events are "snapshot" while the session runs, then a single
// "complete" (or "error" when a snapshot read fails).
type swarmStream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func newSwarmStream(w http.ResponseWriter) (*swarmStream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	return &swarmStream{w: w, flusher: flusher}, nil
}

func (s *swarmStream) writeEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\n", event); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// writeSnapshot sends the session state as of this poll.
func (s *swarmStream) writeSnapshot(session *swarm.Session) error {
	return s.writeEvent("snapshot", session)
}

// writeComplete closes out the stream with the session's terminal status.
func (s *swarmStream) writeComplete(sessionID uuid.UUID, status swarm.Status) {
	s.writeEvent("complete", map[string]string{ //nolint:errcheck
		"session_id": sessionID.String(),
		"status":     string(status),
	})
}

// writeError reports a mid-stream failure before closing.
func (s *swarmStream) writeError(message string) {
	s.writeEvent("error", map[string]string{"error": message}) //nolint:errcheck
}
