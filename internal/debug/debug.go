// Package debug traces a pixpage run as a stream of typed events.
//
// A nil *Session is valid and drops every event, so packages hold a session
// unconditionally and tracing costs one nil check when it is off. Whether a
// run is traced is decided by the command, from flags or the environment.
package debug

import (
	"crypto/rand"
	"os"
	"sync"
	"time"
)

// Environment variables read by FromEnv.
const (
	EnvDebug       = "PIXPAGE_DEBUG"
	EnvDebugPretty = "PIXPAGE_DEBUG_PRETTY"
)

// Settings selects whether and how a run is traced.
type Settings struct {
	On     bool
	Pretty bool
}

// FromEnv reads PIXPAGE_DEBUG and PIXPAGE_DEBUG_PRETTY. Only "1" turns
// either on.
func FromEnv() Settings {
	return Settings{
		On:     os.Getenv(EnvDebug) == "1",
		Pretty: os.Getenv(EnvDebugPretty) == "1",
	}
}

// Session numbers and forwards the events of one run to a Sink.
//
// The CLI shares one session between the table cache, the renderer and, in
// watch mode, the scheduler goroutine, so Emit serializes sink writes.
type Session struct {
	id    string
	start time.Time

	mu   sync.Mutex
	sink Sink
	seq  uint64
}

// NewSession starts a session writing to sink and emits session/Start.
// A nil sink yields a nil session.
func NewSession(sink Sink, tool string) *Session {
	if sink == nil {
		return nil
	}
	s := &Session{
		id:    rand.Text()[:8],
		start: time.Now(),
		sink:  sink,
	}
	s.Emit("session", "Start", SessionStartData{Tool: tool, PID: os.Getpid()})
	return s
}

// ID returns the session identifier, or "" for a nil session.
func (s *Session) ID() string {
	if s == nil {
		return ""
	}
	return s.id
}

// Emit records one event. Sink errors are dropped: tracing never fails a
// render.
func (s *Session) Emit(phase, event string, data interface{}) {
	if s == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		return
	}
	s.seq++
	_ = s.sink.Write(Event{
		Timestamp: time.Now().Format(time.RFC3339Nano),
		SessionID: s.id,
		Seq:       s.seq,
		Phase:     phase,
		Event:     event,
		Data:      data,
	})
}

// Close emits session/End and closes the sink. Later events are dropped.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	s.Emit("session", "End", SessionEndData{
		ElapsedMS: time.Since(s.start).Milliseconds(),
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sink == nil {
		return nil
	}
	err := s.sink.Close()
	s.sink = nil
	return err
}

// Event is the envelope written for every emitted event.
type Event struct {
	Timestamp string      `json:"ts"`
	SessionID string      `json:"session_id"`
	Seq       uint64      `json:"seq"`
	Phase     string      `json:"phase"`
	Event     string      `json:"event"`
	Data      interface{} `json:"data"`
}
