package log

import (
	"bytes"
	"os"
	"strings"
	"testing"
)

func TestSinkAndLevel(t *testing.T) {
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	var buf bytes.Buffer
	SetSink(&buf)
	SetLevel(Warning)

	l := New("test")
	l.Infof("hidden %d", 1)
	l.Warningf("shown %d", 2)

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Errorf("info message leaked at warning level: %q", out)
	}
	if !strings.Contains(out, "shown 2") || !strings.Contains(out, "[test]") {
		t.Errorf("missing warning line: %q", out)
	}
	if strings.Contains(out, "\x1b[") {
		t.Errorf("buffer sink should not get color escapes: %q", out)
	}
}

func TestLevelSurvivesSinkChange(t *testing.T) {
	defer SetSink(os.Stderr)
	defer SetLevel(Notice)

	SetLevel(Debug)
	var buf bytes.Buffer
	SetSink(&buf)

	New("test").Debugf("debug line")
	if !strings.Contains(buf.String(), "debug line") {
		t.Errorf("debug level lost after SetSink: %q", buf.String())
	}
}

func TestVerbosity(t *testing.T) {
	tests := []struct {
		v, vv bool
		want  Level
	}{
		{false, false, Notice},
		{true, false, Info},
		{false, true, Debug},
		{true, true, Debug},
	}
	for _, tt := range tests {
		if got := Verbosity(tt.v, tt.vv); got != tt.want {
			t.Errorf("Verbosity(%v, %v) = %v, want %v", tt.v, tt.vv, got, tt.want)
		}
	}
}
