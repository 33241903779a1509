package adminauth

import (
	"context"
	"encoding/json"
	"io"
	"sync"
	"time"
)

// EventType names a session lifecycle event.
type EventType string

const (
	// EventLoginSuccess fires after a successful login or registration.
	EventLoginSuccess EventType = "login_success"
	// EventLoginFailure fires when the backend rejects a login attempt.
	EventLoginFailure EventType = "login_failure"
	// EventLogout fires on an explicit logout, whether or not the backend
	// call succeeded.
	EventLogout EventType = "logout"
	// EventForcedLogout fires when refresh exhaustion tears the session down.
	EventForcedLogout EventType = "forced_logout"
	// EventRefreshSuccess fires when a token refresh rotates the pair.
	EventRefreshSuccess EventType = "refresh_success"
	// EventRefreshFailure fires when the backend rejects the refresh token.
	EventRefreshFailure EventType = "refresh_failure"
	// EventProfileUpdated fires when the user snapshot is replaced after a
	// profile update.
	EventProfileUpdated EventType = "profile_updated"
)

// Event is one session lifecycle occurrence delivered to a [Sink].
type Event struct {
	Timestamp time.Time         `json:"timestamp"`
	Type      EventType         `json:"type"`
	UserID    string            `json:"user_id,omitempty"`
	Error     string            `json:"error,omitempty"`
	Metadata  map[string]string `json:"metadata,omitempty"`
}

// Sink receives events from the dispatcher. Emit must not block longer than
// ctx allows.
type Sink interface {
	Emit(ctx context.Context, event Event)
}

// NoOpSink discards everything.
type NoOpSink struct{}

func (NoOpSink) Emit(context.Context, Event) {}

// ChannelSink forwards events to a buffered channel for consumption by the
// embedding application.
type ChannelSink struct {
	events chan Event
}

// NewChannelSink returns a ChannelSink with the given buffer.
func NewChannelSink(buffer int) *ChannelSink {
	if buffer <= 0 {
		buffer = 1
	}
	return &ChannelSink{
		events: make(chan Event, buffer),
	}
}

func (s *ChannelSink) Emit(ctx context.Context, event Event) {
	select {
	case s.events <- event:
	case <-ctx.Done():
	}
}

// Events exposes the delivery channel.
func (s *ChannelSink) Events() <-chan Event {
	return s.events
}

// JSONWriterSink writes one JSON object per line to w.
type JSONWriterSink struct {
	writer io.Writer
	mu     sync.Mutex
}

// NewJSONWriterSink returns a sink writing newline-delimited JSON to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return &JSONWriterSink{
		writer: w,
	}
}

func (s *JSONWriterSink) Emit(_ context.Context, event Event) {
	if s == nil || s.writer == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, _ = s.writer.Write(data)
	_, _ = s.writer.Write([]byte("\n"))
}
