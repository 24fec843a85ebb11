package telemetry

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiSkipsNil(t *testing.T) {
	var a, b Buffer
	if Multi() != Discard {
		t.Error("Multi with no recorders should discard")
	}
	if r := Multi(nil, &a); r != Recorder(&a) {
		t.Error("Multi with one recorder should return it directly")
	}

	r := Multi(&a, nil, &b)
	r.Record(NewCullEvent(1, 2, 402, 400))
	if len(a.Events) != 1 || len(b.Events) != 1 {
		t.Errorf("fan-out failed: %d, %d", len(a.Events), len(b.Events))
	}
}

func TestBufferByCategory(t *testing.T) {
	var buf Buffer
	buf.Record(NewBirthEvent(1, 1, nil, 0))
	buf.Record(NewFeedingEvent(1, 1, "plant", 2))
	buf.Record(NewBirthEvent(2, 2, nil, 0))

	if got := len(buf.ByCategory(CategoryBirth)); got != 2 {
		t.Errorf("births = %d, want 2", got)
	}
	buf.Reset()
	if len(buf.Events) != 0 {
		t.Error("Reset did not clear events")
	}
}

func TestSlogRecorderLevels(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelInfo}))
	r := NewSlogRecorder(logger)

	r.Record(NewFeedingEvent(1, 1, "plant", 2))
	if out.Len() != 0 {
		t.Errorf("feeding should log at debug level, got %q", out.String())
	}

	r.Record(NewCullEvent(5, 3, 403, 400))
	if !strings.Contains(out.String(), "emergency population cull") {
		t.Errorf("cull event not logged: %q", out.String())
	}
	if !strings.Contains(out.String(), "tick=5") {
		t.Errorf("tick attribute missing: %q", out.String())
	}
}

func TestEventLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events", "run.jsonl.zst")
	log, err := NewEventLog(path)
	if err != nil {
		t.Fatalf("NewEventLog: %v", err)
	}

	in := []Event{
		NewBirthEvent(1, 7, []uint64{3, 4}, 2),
		NewCombatEvent(2, 7, 9, OutcomeHit, 12.5, false),
		NewPopulationEvent(3, 350, 300, 1.0/6, 0.0005, 1),
	}
	for _, e := range in {
		log.Record(e)
	}
	if log.Count() != len(in) {
		t.Errorf("Count = %d, want %d", log.Count(), len(in))
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Records after close are dropped.
	log.Record(NewBirthEvent(4, 8, nil, 0))

	out, err := ReadEventLog(path)
	if err != nil {
		t.Fatalf("ReadEventLog: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("read %d events, want %d", len(out), len(in))
	}
	for i := range in {
		if out[i].Tick != in[i].Tick || out[i].Category != in[i].Category || out[i].Message != in[i].Message {
			t.Errorf("event %d = %+v, want %+v", i, out[i], in[i])
		}
	}
	if dmg, _ := out[1].Data["damage"].(float64); dmg != 12.5 {
		t.Errorf("damage = %v, want 12.5", out[1].Data["damage"])
	}
}
