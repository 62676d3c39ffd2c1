package handlers

import (
	"testing"
	"time"
)

func TestParseTimeBound(t *testing.T) {
	got, err := parseTimeBound("2026-03-01", false)
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("lower date: %v %v", got, err)
	}
	got, err = parseTimeBound("2026-03-01", true)
	if err != nil || !got.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)) {
		t.Fatalf("upper date should cover the whole day: %v %v", got, err)
	}
	got, err = parseTimeBound("2026-03-01T10:00:00+02:00", true)
	if err != nil || !got.Equal(time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)) {
		t.Fatalf("rfc3339 is used as is: %v %v", got, err)
	}
	if got, err := parseTimeBound("  ", false); got != nil || err != nil {
		t.Fatalf("blank: %v %v", got, err)
	}
	if _, err := parseTimeBound("03/01/2026", false); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
