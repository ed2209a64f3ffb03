package cdc

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type recordingSubscriber struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSubscriber) Publish(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recordingSubscriber) snapshot() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

func waitForCount(t *testing.T, get func() []Event, n int) []Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := get(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d events", n)
	return nil
}

func TestBusFansOutToAllSubscribers(t *testing.T) {
	bus := NewBus()
	sub1 := &recordingSubscriber{}
	sub2 := &recordingSubscriber{}
	bus.Subscribe(sub1, 0)
	bus.Subscribe(sub2, 0)

	bus.Publish(NodeAdded("a.go:main:1", "Function", "main"))

	got1 := waitForCount(t, sub1.snapshot, 1)
	got2 := waitForCount(t, sub2.snapshot, 1)
	if got1[0].Kind != KindNodeAdded || got2[0].Kind != KindNodeAdded {
		t.Fatalf("got1=%+v got2=%+v", got1, got2)
	}
	if got1[0].Stream != StreamName {
		t.Fatalf("Stream = %q, want %q", got1[0].Stream, StreamName)
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()
	sub := &recordingSubscriber{}
	unsubscribe := bus.Subscribe(sub, 0)

	bus.Publish(NodeAdded("a", "Function", "a"))
	waitForCount(t, sub.snapshot, 1)

	unsubscribe()
	bus.Publish(NodeAdded("b", "Function", "b"))
	time.Sleep(20 * time.Millisecond)

	if len(sub.snapshot()) != 1 {
		t.Fatalf("expected delivery to stop after unsubscribe, got %+v", sub.snapshot())
	}
}

func TestFileSinkAppendsOneJSONObjectPerLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.jsonl")
	sink, err := NewFileSink(path)
	if err != nil {
		t.Fatalf("NewFileSink: %v", err)
	}

	sink.Publish(NodeRemoved("a.go:main:1"))
	sink.Publish(NodeAdded("a.go:main:1", "Function", "main"))
	if err := sink.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer f.Close()

	var lines []Event
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var e Event
		if err := json.Unmarshal(scanner.Bytes(), &e); err != nil {
			t.Fatalf("Unmarshal: %v", err)
		}
		lines = append(lines, e)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].Kind != KindNodeRemoved || lines[1].Kind != KindNodeAdded {
		t.Fatalf("ordering not preserved: %+v", lines)
	}
}
