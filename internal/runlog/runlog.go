// Package runlog records execution transcripts in a JSON-Lines format:
// one header object followed by [offset, kind, data] event arrays. A
// transcript captures what one pipeline invocation did (source written,
// commands invoked, output produced) for later inspection.
package runlog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Header is the first line of a transcript.
type Header struct {
	Version   int    `json:"version"`
	Token     string `json:"token"`
	Language  string `json:"language"`
	Timestamp int64  `json:"timestamp"`
}

// Event kinds written by the execution pipeline.
const (
	EventSource  = "src"     // source text written to the scratch dir
	EventCompile = "compile" // compile command invoked
	EventRun     = "run"     // run command invoked
	EventOutput  = "out"     // final output text
	EventDone    = "done"    // terminal status
)

// Event is a single transcript entry, serialized as [offset, kind, data].
type Event struct {
	Offset float64
	Kind   string
	Data   string
}

// MarshalJSON encodes the event as a three-element array.
func (e Event) MarshalJSON() ([]byte, error) {
	return json.Marshal([]interface{}{e.Offset, e.Kind, e.Data})
}

// UnmarshalJSON decodes a three-element array into the event.
func (e *Event) UnmarshalJSON(data []byte) error {
	var arr []interface{}
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	if len(arr) != 3 {
		return fmt.Errorf("invalid event: expected 3 elements, got %d", len(arr))
	}

	offset, ok := arr[0].(float64)
	if !ok {
		return fmt.Errorf("invalid event offset")
	}
	kind, ok := arr[1].(string)
	if !ok {
		return fmt.Errorf("invalid event kind")
	}
	payload, ok := arr[2].(string)
	if !ok {
		return fmt.Errorf("invalid event data")
	}

	e.Offset = offset
	e.Kind = kind
	e.Data = payload
	return nil
}

// Logger writes one run's transcript. Logger failures must never affect the
// run's result; callers log and move on.
type Logger struct {
	mu    sync.Mutex
	w     io.Writer
	file  *os.File // set only when the logger owns the file
	start time.Time
}

// New creates a Logger writing to a new file at path.
func New(path string) (*Logger, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create transcript file: %w", err)
	}
	return &Logger{w: file, file: file, start: time.Now()}, nil
}

// NewWithWriter creates a Logger writing to w. Useful for tests.
func NewWithWriter(w io.Writer) *Logger {
	return &Logger{w: w, start: time.Now()}
}

// WriteHeader writes the transcript header. Call once, before any events.
func (l *Logger) WriteHeader(token, lang string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	header := Header{
		Version:   1,
		Token:     token,
		Language:  lang,
		Timestamp: l.start.Unix(),
	}

	data, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript header: %w", err)
	}
	if _, err := l.w.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("failed to write transcript header: %w", err)
	}
	return nil
}

// Write appends one event with an offset relative to the logger's start.
func (l *Logger) Write(kind, data string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	event := Event{
		Offset: time.Since(l.start).Seconds(),
		Kind:   kind,
		Data:   data,
	}

	line, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal transcript event: %w", err)
	}
	if _, err := l.w.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write transcript event: %w", err)
	}
	return nil
}

// Close closes the transcript file if the logger owns one.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file != nil {
		return l.file.Close()
	}
	return nil
}
