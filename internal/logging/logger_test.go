package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func resetLoggers() {
	mutex.Lock()
	moduleLoggers = make(map[string]*slog.Logger)
	moduleLevelVars = make(map[string]*slog.LevelVar)
	isInitialized = false
	mutex.Unlock()
}

func TestModuleLevelOverride(t *testing.T) {
	resetLoggers()

	Initialize(Config{
		Level:  "info",
		Format: "text",
		Modules: map[string]string{
			"bays":    "debug",
			"updates": "warn",
		},
	})

	tests := []struct {
		module    string
		wantDebug bool
		wantInfo  bool
		wantWarn  bool
	}{
		{"bays", true, true, true},
		{"updates", false, false, true},
		{"leds", false, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.module, func(t *testing.T) {
			handler := GetLogger(tt.module).Handler()

			if got := handler.Enabled(context.Background(), slog.LevelDebug); got != tt.wantDebug {
				t.Errorf("module %q: Debug enabled = %v, want %v", tt.module, got, tt.wantDebug)
			}
			if got := handler.Enabled(context.Background(), slog.LevelInfo); got != tt.wantInfo {
				t.Errorf("module %q: Info enabled = %v, want %v", tt.module, got, tt.wantInfo)
			}
			if got := handler.Enabled(context.Background(), slog.LevelWarn); got != tt.wantWarn {
				t.Errorf("module %q: Warn enabled = %v, want %v", tt.module, got, tt.wantWarn)
			}
		})
	}
}

func TestReinitializeUpdatesExistingLoggers(t *testing.T) {
	resetLoggers()

	logger := GetLogger("hotplug")
	if logger.Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("logger created before Initialize should default to info")
	}

	Initialize(Config{Level: "debug", Format: "json"})

	if !GetLogger("hotplug").Handler().Enabled(context.Background(), slog.LevelDebug) {
		t.Error("Initialize should raise the level of loggers created earlier")
	}
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	resetLoggers()

	Initialize(Config{
		Level:   "chatty",
		Modules: map[string]string{"api": "nope"},
	})

	handler := GetLogger("api").Handler()
	if handler.Enabled(context.Background(), slog.LevelDebug) {
		t.Error("invalid levels should not enable debug")
	}
	if !handler.Enabled(context.Background(), slog.LevelInfo) {
		t.Error("invalid levels should fall back to info")
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want *slog.Level
	}{
		{"debug", ptr(slog.LevelDebug)},
		{"INFO", ptr(slog.LevelInfo)},
		{"warning", ptr(slog.LevelWarn)},
		{"error", ptr(slog.LevelError)},
		{"", nil},
	}

	for _, tt := range tests {
		got := parseLevel(tt.in)
		if (got == nil) != (tt.want == nil) {
			t.Fatalf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
		if got != nil && *got != *tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, *got, *tt.want)
		}
	}
}

func TestAddAttrToFields(t *testing.T) {
	fields := make(map[string]string)

	addAttrToFields(fields, slog.Int("bay", 2), nil)
	addAttrToFields(fields, slog.Bool("enabled", true), []string{"state"})
	addAttrToFields(fields, slog.Group("disk", slog.String("syspath", "/sys/x")), nil)

	want := map[string]string{
		"BAY":           "2",
		"STATE_ENABLED": "true",
		"DISK_SYSPATH":  "/sys/x",
	}
	for k, v := range want {
		if fields[k] != v {
			t.Errorf("fields[%q] = %q, want %q", k, fields[k], v)
		}
	}
}

func TestJournalFieldName(t *testing.T) {
	tests := []struct {
		parts []string
		want  string
	}{
		{[]string{"bay"}, "BAY"},
		{[]string{"event", "in-flight"}, "EVENT_IN_FLIGHT"},
		{[]string{"_private"}, "PRIVATE"},
		{[]string{"9lives"}, "LIVES"},
		{[]string{"-"}, ""},
	}
	for _, tt := range tests {
		if got := journalFieldName(tt.parts); got != tt.want {
			t.Errorf("journalFieldName(%q) = %q, want %q", tt.parts, got, tt.want)
		}
	}
}

func TestFanoutDeliversToEnabledHandlers(t *testing.T) {
	var debug, warn bytes.Buffer
	h := fanout{
		slog.NewTextHandler(&debug, &slog.HandlerOptions{Level: slog.LevelDebug}),
		slog.NewTextHandler(&warn, &slog.HandlerOptions{Level: slog.LevelWarn}),
	}
	logger := slog.New(h).With("module", "bays")

	logger.Info("Found disk", "bay", 1)
	logger.Warn("Bay table full")

	if got := strings.Count(debug.String(), "\n"); got != 2 {
		t.Errorf("debug handler got %d records, want 2:\n%s", got, debug.String())
	}
	if got := strings.Count(warn.String(), "\n"); got != 1 {
		t.Errorf("warn handler got %d records, want 1:\n%s", got, warn.String())
	}
	if !strings.Contains(warn.String(), "module=bays") {
		t.Errorf("attrs not propagated: %s", warn.String())
	}
	if h.Enabled(context.Background(), slog.LevelDebug-1) {
		t.Error("fanout enabled below every handler's level")
	}
}

func ptr(l slog.Level) *slog.Level { return &l }
