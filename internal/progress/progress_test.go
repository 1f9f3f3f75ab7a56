package progress

import (
	"strings"
	"testing"
	"time"
)

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{0, "00:00"},
		{-time.Second, "00:00"},
		{42 * time.Second, "00:42"},
		{3*time.Minute + 5*time.Second, "03:05"},
		{2*time.Hour + 3*time.Minute + 4*time.Second, "02:03:04"},
	}

	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLineCounts(t *testing.T) {
	p := New(4)
	p.Increment(false)
	p.Increment(true)

	line := p.line()
	if !strings.Contains(line, "2/4") {
		t.Errorf("Expected count 2/4 in %q", line)
	}
	if !strings.Contains(line, "50.0%") {
		t.Errorf("Expected 50.0%% in %q", line)
	}
	if !strings.Contains(line, "failed: 1") {
		t.Errorf("Expected failure count in %q", line)
	}
}

func TestStartStop(t *testing.T) {
	p := New(1)
	p.Start()
	p.LogMessage("plot.csv: data error")
	p.Increment(false)
	p.Stop()
	p.Stop()
}
