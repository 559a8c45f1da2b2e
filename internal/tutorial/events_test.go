package tutorial_test

import (
	"errors"
	"testing"
	"time"

	"github.com/p-n-ai/pai-tutorial/internal/tutorial"
)

func TestMemoryEventLogger(t *testing.T) {
	l := tutorial.NewMemoryEventLogger()

	if err := l.LogEvent(tutorial.Event{SessionID: "s"}); err == nil {
		t.Error("LogEvent() without event type should fail")
	}

	if err := l.LogEvent(tutorial.Event{SessionID: "s", EventType: tutorial.EventModuleStarted, ModuleID: 1}); err != nil {
		t.Fatalf("LogEvent() error = %v", err)
	}
	events := l.Events()
	if len(events) != 1 {
		t.Fatalf("Events() = %d, want 1", len(events))
	}
	if events[0].CreatedAt.IsZero() {
		t.Error("CreatedAt should default to now")
	}

	events[0].EventType = "mutated"
	if l.Types()[0] != tutorial.EventModuleStarted {
		t.Error("Events() should return a copy")
	}
}

type errLogger struct{ err error }

func (l errLogger) LogEvent(tutorial.Event) error { return l.err }

func TestMultiEventLogger(t *testing.T) {
	mem := tutorial.NewMemoryEventLogger()
	boom := errors.New("boom")
	multi := tutorial.MultiEventLogger{errLogger{err: boom}, mem, tutorial.NopEventLogger{}}

	err := multi.LogEvent(tutorial.Event{SessionID: "s", EventType: tutorial.EventQuizStarted, CreatedAt: time.Now()})
	if !errors.Is(err, boom) {
		t.Errorf("LogEvent() error = %v, want boom", err)
	}
	if len(mem.Events()) != 1 {
		t.Error("a failing logger should not stop the others")
	}
}

func TestPostgresEventLogger_NilPool(t *testing.T) {
	l := tutorial.NewPostgresEventLogger(nil)
	if err := l.LogEvent(tutorial.Event{SessionID: "s", EventType: tutorial.EventModuleStarted}); err == nil {
		t.Error("LogEvent() with nil pool should fail")
	}
}

func TestEngine_EventLoggerFailureIsNotFatal(t *testing.T) {
	h := newHarness(t)
	e, err := tutorial.NewEngine(tutorial.EngineConfig{
		Catalog: h.engine.Catalog(),
		Events:  errLogger{err: errors.New("db down")},
	})
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	completeModuleOne(t, e)
	if e.State().Phase != tutorial.PhaseComplete {
		t.Errorf("Phase = %v, want complete", e.State().Phase)
	}
}
