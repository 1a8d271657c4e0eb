package cliutil

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/Paintersrp/treekill/internal/supervisor"
)

func TestEncodeLogEventLevelFollowsEventType(t *testing.T) {
	tests := []struct {
		name     string
		evtType  supervisor.EventType
		expected string
	}{
		{name: "spawning", evtType: supervisor.EventSpawning, expected: "info"},
		{name: "killingForce", evtType: supervisor.EventKillingForce, expected: "info"},
		{name: "error", evtType: supervisor.EventError, expected: "error"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var out bytes.Buffer
			var errBuf bytes.Buffer

			event := supervisor.Event{
				Timestamp: time.Unix(0, 0),
				Type:      tc.evtType,
				Message:   "state transition",
			}

			EncodeLogEvent(json.NewEncoder(&out), &errBuf, event)

			if errBuf.Len() != 0 {
				t.Fatalf("unexpected stderr output: %s", errBuf.String())
			}

			var record LogRecord
			if err := json.Unmarshal(out.Bytes(), &record); err != nil {
				t.Fatalf("failed to unmarshal log record: %v", err)
			}

			if record.Level != tc.expected {
				t.Fatalf("expected level %q, got %q", tc.expected, record.Level)
			}
		})
	}
}

func TestEncodeLogEventIncludesErr(t *testing.T) {
	var out bytes.Buffer
	var errBuf bytes.Buffer

	event := supervisor.Event{
		Timestamp: time.Unix(0, 0),
		Type:      supervisor.EventError,
		Message:   "release failed",
		Err:       errors.New("boom"),
	}

	EncodeLogEvent(json.NewEncoder(&out), &errBuf, event)

	var record LogRecord
	if err := json.Unmarshal(out.Bytes(), &record); err != nil {
		t.Fatalf("failed to unmarshal log record: %v", err)
	}
	if record.Err != "boom" {
		t.Fatalf("expected err field %q, got %q", "boom", record.Err)
	}
}

func TestNewLogRecordRedactsSecrets(t *testing.T) {
	event := supervisor.Event{
		Timestamp: time.Unix(0, 0),
		Type:      supervisor.EventSpawning,
		Message:   `sending ${API_TOKEN} AWS_SECRET_ACCESS_KEY="super-secret"`,
	}

	record := NewLogRecord(event)

	if strings.Contains(record.Message, "${API_TOKEN}") {
		t.Fatalf("expected template placeholder to be redacted, got %q", record.Message)
	}
	if !strings.Contains(record.Message, "${[redacted]}") {
		t.Fatalf("expected template placeholder marker, got %q", record.Message)
	}
	if strings.Contains(record.Message, "super-secret") {
		t.Fatalf("expected secret value to be redacted, got %q", record.Message)
	}
	if !strings.Contains(record.Message, `AWS_SECRET_ACCESS_KEY="[redacted]"`) {
		t.Fatalf("expected known secret key redacted, got %q", record.Message)
	}
}
