package mqtt

import (
	"context"
	"fmt"
	"sync"

	"github.com/kilianp07/railsched/core/dispatch/history"
)

// MemoryNotifier keeps dispatch messages in memory. It stands in for the
// broker in tests and dry runs.
type MemoryNotifier struct {
	mu       sync.Mutex
	Messages []DispatchMessage
	FailIDs  map[int]bool
}

// NewMemoryNotifier creates a new MemoryNotifier.
func NewMemoryNotifier() *MemoryNotifier {
	return &MemoryNotifier{FailIDs: make(map[int]bool)}
}

// NotifyDispatch records the message or fails for trains listed in FailIDs.
func (m *MemoryNotifier) NotifyDispatch(_ context.Context, rec history.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailIDs[rec.TrainID] {
		return fmt.Errorf("publish failed for train %d", rec.TrainID)
	}
	m.Messages = append(m.Messages, NewDispatchMessage(rec))
	return nil
}

// Sent returns a copy of the recorded messages.
func (m *MemoryNotifier) Sent() []DispatchMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]DispatchMessage, len(m.Messages))
	copy(out, m.Messages)
	return out
}
