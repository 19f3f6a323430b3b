package observability

import (
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func newTestLog(t *testing.T) EventLog {
	t.Helper()
	log, err := NewJSONLEventLog(filepath.Join(t.TempDir(), "events.jsonl"))
	if err != nil {
		t.Fatalf("creating event log: %v", err)
	}
	t.Cleanup(func() { _ = log.Close() })
	return log
}

func writeAll(t *testing.T, log EventLog, events ...Event) {
	t.Helper()
	for _, e := range events {
		if err := log.Write(e); err != nil {
			t.Fatalf("writing event: %v", err)
		}
	}
}

func TestEventLog_WriteAndRead(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC().Truncate(time.Millisecond)
	writeAll(t, log,
		Event{
			Time:    now,
			Level:   LevelInfo,
			Type:    EventProblemConverted,
			Message: EventProblemConverted,
			Data:    map[string]any{DataProblem: "move", DataSignatures: 7},
		},
		Event{
			Time:    now.Add(time.Second),
			Level:   LevelWarn,
			Type:    EventProblemUnsolved,
			Message: EventProblemUnsolved,
			Data:    map[string]any{DataProblem: "move"},
		},
	)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events, got %d", len(result))
	}
	if result[0].Type != EventProblemConverted {
		t.Errorf("expected type %s, got %s", EventProblemConverted, result[0].Type)
	}
	if got := number(result[0].Data[DataSignatures]); got != 7 {
		t.Errorf("signatures = %v, want 7", got)
	}
	if result[1].Level != LevelWarn {
		t.Errorf("expected level WARN, got %s", result[1].Level)
	}
}

func TestEventLog_CreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".htn", "nested", "events.jsonl")
	log, err := NewJSONLEventLog(path)
	if err != nil {
		t.Fatalf("creating event log in a missing directory: %v", err)
	}
	defer log.Close()
	writeAll(t, log, Event{Time: time.Now().UTC(), Level: LevelInfo, Type: EventProblemConverted})
}

func TestEventLog_FilterByType(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC()
	writeAll(t, log,
		Event{Time: now, Level: LevelInfo, Type: EventProblemConverted, Message: "a"},
		Event{Time: now.Add(time.Second), Level: LevelInfo, Type: EventProblemSolved, Message: "b"},
		Event{Time: now.Add(2 * time.Second), Level: LevelInfo, Type: EventProblemConverted, Message: "c"},
	)

	result, err := log.Read(EventFilter{Type: EventProblemConverted})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 converted events, got %d", len(result))
	}
	for _, e := range result {
		if e.Type != EventProblemConverted {
			t.Errorf("expected type %s, got %s", EventProblemConverted, e.Type)
		}
	}
}

func TestEventLog_FilterByProblem(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC()
	writeAll(t, log,
		Event{Time: now, Level: LevelInfo, Type: EventProblemConverted, Data: map[string]any{DataProblem: "move"}},
		Event{Time: now.Add(time.Second), Level: LevelInfo, Type: EventProblemConverted, Data: map[string]any{DataProblem: "rover"}},
		Event{Time: now.Add(2 * time.Second), Level: LevelWarn, Type: EventProblemUnsolved, Data: map[string]any{DataProblem: "move"}},
		Event{Time: now.Add(3 * time.Second), Level: LevelInfo, Type: EventProblemConverted},
	)

	result, err := log.Read(EventFilter{Problem: "move"})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events for move, got %d", len(result))
	}
	if result[0].Type != EventProblemConverted || result[1].Type != EventProblemUnsolved {
		t.Errorf("unexpected event order: %s, %s", result[0].Type, result[1].Type)
	}

	result, err = log.Read(EventFilter{Problem: "move", Level: LevelWarn})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 1 {
		t.Errorf("expected 1 warning for move, got %d", len(result))
	}
}

func TestEventLog_FilterByTimeRange(t *testing.T) {
	log := newTestLog(t)

	base := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	for i, msg := range []string{"first", "second", "third", "fourth"} {
		writeAll(t, log, Event{Time: base.Add(time.Duration(i) * time.Hour), Level: LevelInfo, Type: EventProblemConverted, Message: msg})
	}

	since := base.Add(30 * time.Minute)
	until := base.Add(2*time.Hour + 30*time.Minute)
	result, err := log.Read(EventFilter{Since: &since, Until: &until})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 events in time range, got %d", len(result))
	}
	if result[0].Message != "second" || result[1].Message != "third" {
		t.Errorf("got %q, %q; want second, third", result[0].Message, result[1].Message)
	}
}

func TestEventLog_FilterByLevel(t *testing.T) {
	log := newTestLog(t)

	now := time.Now().UTC()
	types := []string{EventProblemConverted, EventProblemUnsolved, EventProblemConversionFailed, EventProblemUnsolved}
	for i, typ := range types {
		writeAll(t, log, Event{Time: now.Add(time.Duration(i) * time.Second), Level: LevelFor(typ), Type: typ})
	}

	result, err := log.Read(EventFilter{Level: LevelWarn})
	if err != nil {
		t.Fatalf("reading events: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 WARN events, got %d", len(result))
	}
}

func TestLevelFor(t *testing.T) {
	tests := map[string]string{
		EventProblemConverted:        LevelInfo,
		EventProblemSolved:           LevelInfo,
		EventProblemUnsolved:         LevelWarn,
		EventProblemConversionFailed: LevelError,
		EventProblemSolveFailed:      LevelError,
	}
	for typ, want := range tests {
		if got := LevelFor(typ); got != want {
			t.Errorf("LevelFor(%s) = %s, want %s", typ, got, want)
		}
	}
}

func TestEventLog_EmptyLog(t *testing.T) {
	log := newTestLog(t)

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading empty log: %v", err)
	}
	if len(result) != 0 {
		t.Errorf("expected 0 events from empty log, got %d", len(result))
	}
}

func TestEventLog_ConcurrentWrites(t *testing.T) {
	log := newTestLog(t)

	const goroutines = 10
	const eventsPerGoroutine = 20

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for g := 0; g < goroutines; g++ {
		go func(id int) {
			defer wg.Done()
			for i := 0; i < eventsPerGoroutine; i++ {
				event := Event{
					Time:  time.Now().UTC(),
					Level: LevelInfo,
					Type:  EventProblemConverted,
					Data:  map[string]any{"goroutine": id, "index": i},
				}
				if err := log.Write(event); err != nil {
					t.Errorf("concurrent write error: %v", err)
				}
			}
		}(g)
	}
	wg.Wait()

	result, err := log.Read(EventFilter{})
	if err != nil {
		t.Fatalf("reading events after concurrent writes: %v", err)
	}
	if expected := goroutines * eventsPerGoroutine; len(result) != expected {
		t.Errorf("expected %d events, got %d", expected, len(result))
	}
}
