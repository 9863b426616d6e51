package runlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
)

func TestLogger_TranscriptShape(t *testing.T) {
	var buf bytes.Buffer
	logger := NewWithWriter(&buf)

	if err := logger.WriteHeader("123-abc", "python"); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := logger.Write(EventSource, "print('hi')"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if err := logger.Write(EventDone, "ok"); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	scanner := bufio.NewScanner(&buf)

	if !scanner.Scan() {
		t.Fatal("Missing header line")
	}
	var header Header
	if err := json.Unmarshal(scanner.Bytes(), &header); err != nil {
		t.Fatalf("Header is not valid JSON: %v", err)
	}
	if header.Version != 1 || header.Token != "123-abc" || header.Language != "python" {
		t.Errorf("Unexpected header: %+v", header)
	}

	var events []Event
	for scanner.Scan() {
		var ev Event
		if err := json.Unmarshal(scanner.Bytes(), &ev); err != nil {
			t.Fatalf("Event is not a valid array: %v", err)
		}
		events = append(events, ev)
	}

	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Kind != EventSource || events[0].Data != "print('hi')" {
		t.Errorf("Unexpected first event: %+v", events[0])
	}
	if events[1].Kind != EventDone || events[1].Data != "ok" {
		t.Errorf("Unexpected second event: %+v", events[1])
	}
	if events[1].Offset < events[0].Offset {
		t.Error("Event offsets must be non-decreasing")
	}
}

func TestEvent_MarshalRoundTrip(t *testing.T) {
	ev := Event{Offset: 1.5, Kind: EventOutput, Data: "hi\n"}

	data, err := json.Marshal(ev)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var parsed Event
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if parsed != ev {
		t.Errorf("Expected %+v, got %+v", ev, parsed)
	}
}

func TestLogger_FileBacked(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "run-1.jsonl")

	logger, err := New(path)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := logger.WriteHeader("tok", "c"); err != nil {
		t.Fatalf("WriteHeader failed: %v", err)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Transcript file not written: %v", err)
	}
	if len(data) == 0 {
		t.Error("Transcript file is empty")
	}
}
