// Package sse writes the chat turn's server-sent event stream: token events
// while the answer is being generated, one terminal done or error event, and
// an explicit [DONE] end-of-stream marker.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/fbkorg/chatbot-backend/internal/types"
)

type tokenEvent struct {
	Type  string `json:"type"`
	Token string `json:"token"`
}

type doneEvent struct {
	Type      string         `json:"type"`
	MessageID uuid.UUID      `json:"messageId"`
	SessionID uuid.UUID      `json:"sessionId"`
	Sources   []types.Source `json:"sources"`
}

type errorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// Stream is a per-request event writer. It is not safe for concurrent use;
// one chat turn writes from one goroutine.
type Stream struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewStream commits streaming headers on w. After this point failures can
// only be reported in-band.
func NewStream(w http.ResponseWriter) (*Stream, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("response writer does not support streaming")
	}

	h := w.Header()
	h.Set("Content-Type", "text/event-stream")
	h.Set("Cache-Control", "no-cache")
	h.Set("Connection", "keep-alive")
	h.Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &Stream{w: w, flusher: flusher}, nil
}

func (s *Stream) send(v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(s.w, "data: %s\n\n", payload); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

func (s *Stream) Token(token string) error {
	return s.send(tokenEvent{Type: "token", Token: token})
}

func (s *Stream) Done(messageID, sessionID uuid.UUID, sources []types.Source) error {
	if sources == nil {
		sources = []types.Source{}
	}
	return s.send(doneEvent{Type: "done", MessageID: messageID, SessionID: sessionID, Sources: sources})
}

func (s *Stream) Error(message string) error {
	return s.send(errorEvent{Type: "error", Error: message})
}

// Close writes the end-of-stream marker. Always the last frame, whether the
// turn ended in done or error.
func (s *Stream) Close() {
	_, _ = fmt.Fprint(s.w, "data: [DONE]\n\n")
	s.flusher.Flush()
}
