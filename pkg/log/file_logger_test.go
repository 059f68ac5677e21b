package log

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerCreatesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	defer logger.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("log file was not created")
	}
}

func TestFileLoggerAppends(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mlog")

	for _, id := range []string{"conn-1", "conn-2"} {
		logger, err := NewFileLogger(path)
		if err != nil {
			t.Fatalf("NewFileLogger failed: %v", err)
		}
		logger.Log(Event{Timestamp: time.Now(), ConnectionID: id})
		logger.Close()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	decoder := NewDecoder(bytes.NewReader(data))
	var events []Event
	for {
		var e Event
		if err := decoder.Decode(&e); err != nil {
			break
		}
		events = append(events, e)
	}

	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].ConnectionID != "conn-1" || events[1].ConnectionID != "conn-2" {
		t.Errorf("unexpected order: %q, %q", events[0].ConnectionID, events[1].ConnectionID)
	}
}

func TestFileLoggerThreadSafe(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	const numGoroutines = 10
	const eventsPerGoroutine = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func(id int) {
			defer wg.Done()
			for j := 0; j < eventsPerGoroutine; j++ {
				logger.Log(Event{
					Timestamp:    time.Now(),
					ConnectionID: "conn-" + string(rune('A'+id)),
					Frame:        &FrameEvent{Size: 3, Data: []byte("OK\n")},
				})
			}
		}(i)
	}
	wg.Wait()
	logger.Close()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}

	decoder := NewDecoder(bytes.NewReader(data))
	count := 0
	for {
		var event Event
		if err := decoder.Decode(&event); err != nil {
			break
		}
		count++
	}

	if count != numGoroutines*eventsPerGoroutine {
		t.Errorf("event count: got %d, want %d", count, numGoroutines*eventsPerGoroutine)
	}
}

func TestFileLoggerClose(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.mlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	if err := logger.Close(); err != nil {
		t.Errorf("first Close failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close failed: %v", err)
	}

	// Logging after close is ignored.
	logger.Log(Event{ConnectionID: "late"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if info.Size() != 0 {
		t.Errorf("file size = %d, want 0", info.Size())
	}
}

func TestFileLoggerRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.mlog")

	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	event := func(id string) Event {
		return Event{Timestamp: ts, ConnectionID: id, Medium: "gpib"}
	}
	sample, err := EncodeEvent(event("conn-1"))
	if err != nil {
		t.Fatalf("EncodeEvent: %v", err)
	}
	size := int64(len(sample))

	logger, err := NewFileLogger(path, WithMaxBytes(2*size+size/2))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, id := range []string{"conn-1", "conn-2", "conn-3"} {
		logger.Log(event(id))
	}
	if n := logger.Dropped(); n != 0 {
		t.Errorf("dropped = %d, want 0", n)
	}
	logger.Close()

	old, err := os.Stat(path + ".1")
	if err != nil {
		t.Fatalf("rotated file missing: %v", err)
	}
	if old.Size() != 2*size {
		t.Errorf("rotated size = %d, want %d", old.Size(), 2*size)
	}
	cur, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if cur.Size() != size {
		t.Errorf("current size = %d, want %d", cur.Size(), size)
	}
}

func TestFileLoggerRotationCountsExistingSize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bench.mlog")

	ts := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	e := Event{Timestamp: ts, ConnectionID: "conn-1"}
	sample, _ := EncodeEvent(e)
	size := int64(len(sample))

	first, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	first.Log(e)
	first.Close()

	second, err := NewFileLogger(path, WithMaxBytes(size+size/2))
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	second.Log(e)
	second.Close()

	if _, err := os.Stat(path + ".1"); err != nil {
		t.Errorf("expected rotation on reopen: %v", err)
	}
}
