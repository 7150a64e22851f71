package logger

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"igclient/pkg/config"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     *config.LoggingConfig
		wantErr bool
	}{
		{"info level", &config.LoggingConfig{Level: "info"}, false},
		{"debug level", &config.LoggingConfig{Level: "debug"}, false},
		{"invalid level", &config.LoggingConfig{Level: "loud"}, true},
		{"file output", &config.LoggingConfig{Level: "info", File: filepath.Join(t.TempDir(), "logs", "igclient.log")}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := New(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && l == nil {
				t.Error("New() returned nil logger")
			}
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		level    string
		expected zerolog.Level
		wantErr  bool
	}{
		{"debug", zerolog.DebugLevel, false},
		{"INFO", zerolog.InfoLevel, false},
		{"warning", zerolog.WarnLevel, false},
		{"error", zerolog.ErrorLevel, false},
		{"disabled", zerolog.Disabled, false},
		{"", zerolog.InfoLevel, true},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			level, err := parseLogLevel(tt.level)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseLogLevel() error = %v, wantErr %v", err, tt.wantErr)
			}
			if level != tt.expected {
				t.Errorf("parseLogLevel() = %v, want %v", level, tt.expected)
			}
		})
	}
}

func TestStructuredLogging(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	l.WithField("component", "client").InfoWithFields("media fetched", map[string]interface{}{
		"media_id": "1484832969772514291",
		"pages":    3,
		"ok":       true,
	})

	output := buf.String()
	for _, want := range []string{
		"media fetched",
		`"component":"client"`,
		`"media_id":"1484832969772514291"`,
		`"pages":3`,
		`"ok":true`,
		`"app":"igclient"`,
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %s", output, want)
		}
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.WarnLevel)

	l.Debug("hidden debug")
	l.Info("hidden info")
	l.Warn("visible warn")

	output := buf.String()
	if strings.Contains(output, "hidden") {
		t.Errorf("messages below warn leaked: %s", output)
	}
	if !strings.Contains(output, "visible warn") {
		t.Error("warn message missing")
	}
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(&buf, zerolog.DebugLevel)

	if l.WithError(nil) != l {
		t.Error("WithError(nil) should return the same logger")
	}

	l.WithError(errors.New("connection reset")).Error("request failed")
	if !strings.Contains(buf.String(), "connection reset") {
		t.Error("error text not found in output")
	}
}

func TestTestLoggerCapturesFields(t *testing.T) {
	tl := NewTestLogger()
	child := tl.WithField("username", "alex").WithError(errors.New("denied"))
	child.WarnWithFields("login rejected", map[string]interface{}{"status": 400})

	msg, ok := tl.FindMessage("login rejected")
	if !ok {
		t.Fatal("message not captured by parent logger")
	}
	if msg.Level != "WARN" {
		t.Errorf("level = %s, want WARN", msg.Level)
	}
	if msg.Fields["username"] != "alex" || msg.Fields["status"] != 400 {
		t.Errorf("fields not merged: %v", msg.Fields)
	}
	if msg.Error == nil || msg.Error.Error() != "denied" {
		t.Errorf("error not attached: %v", msg.Error)
	}

	tl.Clear()
	if len(tl.GetMessages()) != 0 {
		t.Error("Clear() left messages behind")
	}
}
