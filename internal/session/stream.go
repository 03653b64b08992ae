package session

import (
	"sync"

	"github.com/npezzotti/go-chatclient/internal/types"
)

// Stream is the append-only, time-ordered message history for the
// active room. The transport is the ordering authority: entries are
// kept exactly in arrival order and never reordered by timestamp.
type Stream struct {
	mu       sync.RWMutex
	messages []types.Message
	notify   func([]types.Message)
}

func NewStream() *Stream {
	return &Stream{}
}

// SetNotify registers the listener called synchronously after every
// Load and Append. Must be set before the stream receives messages.
func (s *Stream) SetNotify(fn func([]types.Message)) {
	s.mu.Lock()
	s.notify = fn
	s.mu.Unlock()
}

// Load replaces the content wholesale with history fetched during
// join, preserving the server-provided order.
func (s *Stream) Load(msgs []types.Message) {
	s.mu.Lock()
	s.messages = make([]types.Message, len(msgs))
	copy(s.messages, msgs)
	snapshot := s.snapshotLocked()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}

// Append adds a message to the end and notifies the listener before
// returning, so no message is missed between producer and consumer.
// Appends arrive from a single writer, the inbound delivery path.
func (s *Stream) Append(msg types.Message) {
	s.mu.Lock()
	s.messages = append(s.messages, msg)
	snapshot := s.snapshotLocked()
	notify := s.notify
	s.mu.Unlock()

	if notify != nil {
		notify(snapshot)
	}
}

// Snapshot returns a copy of the current sequence, safe to read while
// appends are in flight.
func (s *Stream) Snapshot() []types.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshotLocked()
}

func (s *Stream) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.messages)
}

func (s *Stream) snapshotLocked() []types.Message {
	snapshot := make([]types.Message, len(s.messages))
	copy(snapshot, s.messages)
	return snapshot
}
