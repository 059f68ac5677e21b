package log

import (
	"sync"
	"testing"
)

type recordingLogger struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingLogger) Log(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingLogger) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

func TestMultiLoggerCallsAll(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	m := NewMultiLogger(a, nil, b)

	m.Log(Event{ConnectionID: "conn-1"})
	m.Log(Event{ConnectionID: "conn-2"})

	if a.count() != 2 || b.count() != 2 {
		t.Errorf("got %d and %d events, want 2 each", a.count(), b.count())
	}
}

func TestMultiLoggerEmptyList(t *testing.T) {
	m := NewMultiLogger()
	m.Log(Event{ConnectionID: "conn-1"})
}
