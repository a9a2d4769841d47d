package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"OnboardingBuddy/backend/go/internal/models"

	"github.com/sirupsen/logrus"
)

func TestLoggerWritesStructuredJSON(t *testing.T) {
	var buf bytes.Buffer
	Init(logrus.DebugLevel, &buf)

	base := New("onboarding_bot", "trace-1", "")
	base.WithUser(42).
		WithError(models.ErrorInfo{Message: "boom", Type: "database_error"}).
		WithPayload(map[string]interface{}{"stage": 3}).
		Error("save failed")

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v (%q)", err, buf.String())
	}
	if entry["message"] != "save failed" || entry["level"] != "error" {
		t.Errorf("unexpected entry: %v", entry)
	}
	if entry["user_id"] != "42" || entry["service_name"] != "onboarding_bot" {
		t.Errorf("base fields missing: %v", entry)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("timestamp field missing: %v", entry)
	}

	// Derived loggers must not leak fields back into the parent.
	buf.Reset()
	base.Info("plain")
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatal(err)
	}
	if entry["user_id"] != "" {
		t.Errorf("parent logger picked up user_id %v", entry["user_id"])
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]logrus.Level{
		"DEBUG":    logrus.DebugLevel,
		"info":     logrus.InfoLevel,
		"WARNING":  logrus.WarnLevel,
		"critical": logrus.ErrorLevel,
		"nonsense": logrus.InfoLevel,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}
