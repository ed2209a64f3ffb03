// Package cdc implements the change-data-capture half of C9: an
// in-process event bus publishing the six mutation/lifecycle event
// kinds from spec.md §4.9 onto a named stream, with an append-only
// JSON file sink standing in for the external broadcast collaborator
// the stream is meant to feed.
package cdc

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Kind enumerates the CDC event kinds (spec.md §4.9).
type Kind string

const (
	KindNodeAdded           Kind = "node_added"
	KindNodeRemoved         Kind = "node_removed"
	KindRelationshipAdded   Kind = "relationship_added"
	KindRelationshipRemoved Kind = "relationship_removed"
	KindAnalysisStarted     Kind = "analysis_started"
	KindAnalysisFinished    Kind = "analysis_finished"
)

// StreamName is the append-only stream every event is published on.
const StreamName = "code_graph.events"

// Event is one self-describing record on the stream.
type Event struct {
	Stream  string         `json:"stream"`
	Kind    Kind           `json:"kind"`
	Payload map[string]any `json:"payload"`
}

// Subscriber receives every event published on a Bus. Publish must not
// block the publisher for long; a Subscriber that needs to do slow work
// should queue internally.
type Subscriber interface {
	Publish(e Event)
}

// Bus fans out published events to every registered Subscriber over a
// buffered channel per subscriber, so one slow subscriber cannot stall
// another.
type Bus struct {
	mu          sync.RWMutex
	subscribers []chan Event
	wg          sync.WaitGroup
}

// NewBus builds an empty Bus.
func NewBus() *Bus {
	return &Bus{}
}

// Subscribe registers sub and returns an unsubscribe function. Each
// subscriber gets its own buffered channel and delivery goroutine, so a
// slow Subscriber.Publish call backs up only its own channel.
func (b *Bus) Subscribe(sub Subscriber, bufferSize int) (unsubscribe func()) {
	if bufferSize <= 0 {
		bufferSize = 64
	}
	ch := make(chan Event, bufferSize)

	b.mu.Lock()
	b.subscribers = append(b.subscribers, ch)
	b.mu.Unlock()

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		for e := range ch {
			sub.Publish(e)
		}
	}()

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		for i, c := range b.subscribers {
			if c == ch {
				b.subscribers = append(b.subscribers[:i], b.subscribers[i+1:]...)
				close(ch)
				break
			}
		}
	}
}

// Publish fans e out to every current subscriber. A full subscriber
// channel drops the event for that subscriber rather than blocking the
// publisher — CDC delivery is best-effort, not a mutation gate.
func (b *Bus) Publish(e Event) {
	e.Stream = StreamName
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subscribers {
		select {
		case ch <- e:
		default:
		}
	}
}

// NodeAdded/NodeRemoved/RelationshipAdded/RelationshipRemoved build the
// Event payload shapes spec.md §4.9 describes. Callers publishing a
// removal/insertion pair for the same node id must publish the removal
// first (the ordering guarantee CDC subscribers rely on); the single
// writer goroutine in internal/analysis's Engine.AnalyzeProject is what
// makes that true in practice.
func NodeAdded(id, kind, name string) Event {
	return Event{Kind: KindNodeAdded, Payload: map[string]any{"id": id, "kind": kind, "name": name}}
}

func NodeRemoved(id string) Event {
	return Event{Kind: KindNodeRemoved, Payload: map[string]any{"id": id}}
}

func RelationshipAdded(id, sourceID, targetID, kind string) Event {
	return Event{Kind: KindRelationshipAdded, Payload: map[string]any{"id": id, "source_id": sourceID, "target_id": targetID, "kind": kind}}
}

func RelationshipRemoved(id string) Event {
	return Event{Kind: KindRelationshipRemoved, Payload: map[string]any{"id": id}}
}

func AnalysisStarted(root string) Event {
	return Event{Kind: KindAnalysisStarted, Payload: map[string]any{"root": root}}
}

func AnalysisFinished(root string, filesParsed, filesFailed int) Event {
	return Event{Kind: KindAnalysisFinished, Payload: map[string]any{"root": root, "files_parsed": filesParsed, "files_failed": filesFailed}}
}

// FileSink appends every published event to a file as one JSON object
// per line. It is the one Subscriber shipped in this repo; Kafka/NATS
// sinks are left as Subscriber implementations outside this core.
type FileSink struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewFileSink opens (creating/appending to) path for line-delimited JSON
// event output.
func NewFileSink(path string) (*FileSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("cdc: open sink file %s: %w", path, err)
	}
	return &FileSink{file: f, enc: json.NewEncoder(f)}, nil
}

// Publish writes e as one JSON line, swallowing encode/write errors —
// CDC delivery is best-effort by design (spec.md §4.9 names the sink an
// external collaborator, not a transactional participant).
func (s *FileSink) Publish(e Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(e)
}

// Close flushes and closes the underlying file.
func (s *FileSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.file.Close()
}
