package admin

import (
	"testing"
	"time"
)

func TestParseTimeNullable(t *testing.T) {
	parsed, err := parseTimeNullable("")
	if err != nil || parsed != nil {
		t.Fatalf("empty input = (%v, %v), want (nil, nil)", parsed, err)
	}

	parsed, err = parseTimeNullable("2026-01-02T15:04:05Z")
	if err != nil {
		t.Fatalf("rfc3339 parse failed: %v", err)
	}
	want := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	if parsed == nil || !parsed.Equal(want) {
		t.Fatalf("parsed = %v, want %v", parsed, want)
	}

	if _, err = parseTimeNullable("2026-01-02"); err == nil {
		t.Fatalf("expected error for non rfc3339 input")
	}
}
