package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/MrEthical07/dashAuth/storage"
)

type countingSink struct {
	count atomic.Int64
}

func (s *countingSink) Emit(context.Context, Event) {
	s.count.Add(1)
}

type gateSink struct {
	gate chan struct{}
}

func (s *gateSink) Emit(context.Context, Event) {
	<-s.gate
}

func TestDispatcherDeliversAllEvents(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 8}, sink)

	for i := 0; i < 20; i++ {
		d.Emit(context.Background(), Event{Type: TypeLoginSuccess})
	}
	d.Close()

	if got := sink.count.Load(); got != 20 {
		t.Fatalf("expected 20 delivered events, got %d", got)
	}
}

func TestDispatcherDropIfFull(t *testing.T) {
	sink := &gateSink{gate: make(chan struct{})}
	d := NewDispatcher(DispatcherConfig{BufferSize: 1, DropIfFull: true}, sink)

	// One event blocks in the sink, one fills the buffer; the rest drop.
	for i := 0; i < 10; i++ {
		d.Emit(context.Background(), Event{Type: TypeLoginFailure})
	}
	if d.Dropped() == 0 {
		t.Fatal("expected dropped events under full buffer")
	}

	close(sink.gate)
	d.Close()
}

func TestDispatcherEmitAfterClose(t *testing.T) {
	sink := &countingSink{}
	d := NewDispatcher(DispatcherConfig{BufferSize: 1}, sink)
	d.Close()

	// Must not panic or block.
	done := make(chan struct{})
	go func() {
		d.Emit(context.Background(), Event{Type: TypeLogout})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Emit blocked after Close")
	}
}

func TestNilDispatcherIsSafe(t *testing.T) {
	var d *Dispatcher
	d.Emit(context.Background(), Event{})
	d.Close()
	if d.Dropped() != 0 {
		t.Fatal("nil dispatcher reported drops")
	}
}

func TestLogFansOutToDispatcher(t *testing.T) {
	sink := NewChannelSink(4)
	d := NewDispatcher(DispatcherConfig{BufferSize: 4}, sink)
	defer d.Close()

	log := NewLog(storage.NewMemory(), Config{}, nil, d)
	log.Record(context.Background(), Event{Type: TypeLoginSuccess, IdentityKey: "a@org.example", Success: true})

	select {
	case e := <-sink.Events():
		if e.Type != TypeLoginSuccess || e.ID == "" {
			t.Fatalf("unexpected event %+v", e)
		}
	case <-time.After(time.Second):
		t.Fatal("event never reached sink")
	}
}

func TestJSONWriterSinkWritesLines(t *testing.T) {
	var buf bytes.Buffer
	sink := NewJSONWriterSink(&buf)

	sink.Emit(context.Background(), Event{ID: "e-1", Type: TypeLoginFailure, RiskLevel: RiskMedium})
	sink.Emit(context.Background(), Event{ID: "e-2", Type: TypeLogout})

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var decoded Event
	if err := json.Unmarshal([]byte(lines[0]), &decoded); err != nil {
		t.Fatalf("line not valid JSON: %v", err)
	}
	if decoded.ID != "e-1" || decoded.RiskLevel != RiskMedium {
		t.Fatalf("unexpected decoded event %+v", decoded)
	}
}
