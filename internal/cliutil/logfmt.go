package cliutil

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/Paintersrp/treekill/internal/supervisor"
)

// LogRecord represents a structured log event ready for JSON encoding.
type LogRecord struct {
	Timestamp time.Time `json:"ts"`
	Level     string    `json:"level"`
	Message   string    `json:"msg"`
	Err       string    `json:"err,omitempty"`
}

// NewLogRecord converts a supervisor event into a structured log record.
func NewLogRecord(event supervisor.Event) LogRecord {
	record := LogRecord{
		Timestamp: event.Timestamp,
		Level:     levelFor(event.Type),
		Message:   RedactSecrets(event.Message),
	}
	if event.Err != nil {
		record.Err = RedactSecrets(event.Err.Error())
	}
	return record
}

func levelFor(t supervisor.EventType) string {
	if t == supervisor.EventError {
		return "error"
	}
	return "info"
}

// EncodeLogEvent encodes a log event to JSON, reporting errors to stderr if needed.
func EncodeLogEvent(enc *json.Encoder, stderr io.Writer, event supervisor.Event) {
	if enc == nil {
		return
	}
	record := NewLogRecord(event)
	if record.Timestamp.IsZero() {
		record.Timestamp = time.Now()
	}
	if err := enc.Encode(&record); err != nil {
		fmt.Fprintf(stderr, "error: encode log: %v\n", err)
	}
}
