// SPDX-License-Identifier: MIT
package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := GetLevel()
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(prev)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want LogLevel
		ok   bool
	}{
		{"debug", LevelDebug, true},
		{"INFO", LevelInfo, true},
		{"Warning", LevelWarn, true},
		{" error ", LevelError, true},
		{"fatal", LevelFatal, true},
		{"loud", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseLevel(tt.in)
			if got != tt.want || ok != tt.ok {
				t.Errorf("ParseLevel(%q) = %v, %v; want %v, %v", tt.in, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestLevelFiltering(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelWarn)

	Debugf("hidden %d", 1)
	Infof("hidden %d", 2)
	Warnf("shown %d", 3)
	Errorf("shown %d", 4)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("messages below level were logged: %q", out)
	}
	if !strings.Contains(out, "[WARN]  shown 3") || !strings.Contains(out, "[ERROR] shown 4") {
		t.Errorf("expected warn and error lines, got %q", out)
	}
}

func TestNamedLoggerPrefixesMessages(t *testing.T) {
	buf := captureOutput(t)
	SetLevel(LevelDebug)

	l := Named("Engine")
	l.Debugf("window %d", 4096)
	l.Infof("started")

	out := buf.String()
	if !strings.Contains(out, "[DEBUG] Engine: window 4096") {
		t.Errorf("missing prefixed debug line in %q", out)
	}
	if !strings.Contains(out, "[INFO]  Engine: started") {
		t.Errorf("missing prefixed info line in %q", out)
	}
}

func TestLevelString(t *testing.T) {
	if LevelError.String() != "ERROR" || LogLevel(42).String() != "UNKNOWN" {
		t.Errorf("unexpected level strings: %s %s", LevelError, LogLevel(42))
	}
}
