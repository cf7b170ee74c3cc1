package main

import (
	"testing"
	"time"
)

func TestParseStopStatuses(t *testing.T) {
	if got := parseStopStatuses(""); len(got) != 0 {
		t.Errorf("empty input produced %v", got)
	}

	got := parseStopStatuses("failed, healed")
	if !got["failed"] {
		t.Error("expected failed to be a stop status")
	}
	if !got["healed"] {
		t.Error("expected healed to be a stop status")
	}
	if got["passed"] {
		t.Error("passed should not be a stop status")
	}
}

func TestWatchCmd_IntervalParsing(t *testing.T) {
	cases := []struct {
		input    string
		expected time.Duration
	}{
		{"5m", 5 * time.Minute},
		{"30s", 30 * time.Second},
		{"1h", time.Hour},
	}

	for _, tc := range cases {
		d, err := time.ParseDuration(tc.input)
		if err != nil {
			t.Errorf("failed to parse %q: %v", tc.input, err)
			continue
		}
		if d != tc.expected {
			t.Errorf("parsed %q = %v, want %v", tc.input, d, tc.expected)
		}
	}
}

func TestStatusIcon(t *testing.T) {
	cases := []struct {
		status   string
		expected string
	}{
		{"passed", "✓"},
		{"failed", "✗"},
		{"running", "!"},
		{"error", "!"},
	}
	for _, tc := range cases {
		if got := statusIcon(tc.status); got != tc.expected {
			t.Errorf("statusIcon(%q) = %q, want %q", tc.status, got, tc.expected)
		}
	}
}

func TestParseVars(t *testing.T) {
	vars, err := parseVars([]string{"username=admin", "url=https://shop.local?a=b"})
	if err != nil {
		t.Fatalf("parseVars: %v", err)
	}
	if vars["username"] != "admin" {
		t.Errorf("username = %v", vars["username"])
	}
	if vars["url"] != "https://shop.local?a=b" {
		t.Errorf("value with = was split: %v", vars["url"])
	}

	if _, err := parseVars([]string{"missing-value"}); err == nil {
		t.Error("expected error for var without =")
	}

	vars, err = parseVars(nil)
	if err != nil {
		t.Fatalf("parseVars(nil): %v", err)
	}
	if vars != nil {
		t.Errorf("expected nil map for no vars, got %v", vars)
	}
}
