// RoomRadar - Hotel Room Recommendation Service
// Copyright 2026 RoomRadar Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomradar/roomradar

package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func newBufferedSlog(buf *bytes.Buffer) *slog.Logger {
	zl := NewTestLogger(buf)
	return slog.New(NewSlogHandlerWithLogger(zl))
}

func TestSlogHandlerWritesThroughZerolog(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedSlog(&buf)

	logger.Info("service started", "supervisor", "roomradar", "restarts", int64(3))

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Unmarshal() error = %v, output %q", err, buf.String())
	}
	if entry["message"] != "service started" {
		t.Errorf("message = %v, want %q", entry["message"], "service started")
	}
	if entry["supervisor"] != "roomradar" {
		t.Errorf("supervisor = %v, want %q", entry["supervisor"], "roomradar")
	}
	if entry["restarts"] != float64(3) {
		t.Errorf("restarts = %v, want 3", entry["restarts"])
	}
}

func TestSlogHandlerLevels(t *testing.T) {
	tests := []struct {
		name  string
		level slog.Level
		want  string
	}{
		{"debug", slog.LevelDebug, "debug"},
		{"info", slog.LevelInfo, "info"},
		{"warn", slog.LevelWarn, "warn"},
		{"error", slog.LevelError, "error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newBufferedSlog(&buf)

			logger.Log(t.Context(), tt.level, "msg")

			if !strings.Contains(buf.String(), `"level":"`+tt.want+`"`) {
				t.Errorf("output = %q, want level %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSlogHandlerGroupPrefixesKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := newBufferedSlog(&buf).WithGroup("http").With("addr", ":8086")

	logger.Info("listening")

	if !strings.Contains(buf.String(), `"http.addr":":8086"`) {
		t.Errorf("output = %q, want grouped key http.addr", buf.String())
	}
}

func TestSlogHandlerEnabledRespectsZerologLevel(t *testing.T) {
	var buf bytes.Buffer
	zl := NewTestLogger(&buf).Level(zerolog.WarnLevel)
	h := NewSlogHandlerWithLogger(zl)

	if h.Enabled(t.Context(), slog.LevelDebug) {
		t.Error("Enabled(debug) = true, want false at warn level")
	}
	if !h.Enabled(t.Context(), slog.LevelError) {
		t.Error("Enabled(error) = false, want true at warn level")
	}
}
