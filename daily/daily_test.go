package daily

import (
	"testing"
	"time"

	. "slurmuse/common"
)

func at(year int, month time.Month, day, hour, min int) OptInt {
	return SomeInt(time.Date(year, month, day, hour, min, 0, 0, time.UTC).Unix())
}

func TestHoursOnDay(t *testing.T) {
	day := time.Date(2026, 2, 24, 0, 0, 0, 0, time.UTC)

	// Started and ended on the day.
	if h := HoursOnDay(at(2026, 2, 24, 10, 0), at(2026, 2, 24, 14, 0), day); h != 4.0 {
		t.Fatalf("Expected 4 hours, got %v", h)
	}
	// Started the evening before.
	if h := HoursOnDay(at(2026, 2, 23, 22, 0), at(2026, 2, 24, 2, 0), day); h != 2.0 {
		t.Fatalf("Expected 2 hours, got %v", h)
	}
	// Ended the morning after.
	if h := HoursOnDay(at(2026, 2, 24, 20, 0), at(2026, 2, 25, 4, 0), day); h != 4.0 {
		t.Fatalf("Expected 4 hours, got %v", h)
	}
	// Spanning the whole day.
	if h := HoursOnDay(at(2026, 2, 23, 12, 0), at(2026, 2, 25, 12, 0), day); h != 24.0 {
		t.Fatalf("Expected 24 hours, got %v", h)
	}
	// Entirely in the past resp. future.
	if h := HoursOnDay(at(2026, 2, 22, 10, 0), at(2026, 2, 22, 14, 0), day); h != 0.0 {
		t.Fatalf("Expected 0 hours, got %v", h)
	}
	if h := HoursOnDay(at(2026, 2, 25, 10, 0), at(2026, 2, 25, 14, 0), day); h != 0.0 {
		t.Fatalf("Expected 0 hours, got %v", h)
	}
	// Midnight to midnight is a full day, not zero.
	if h := HoursOnDay(at(2026, 2, 24, 0, 0), at(2026, 2, 25, 0, 0), day); h != 24.0 {
		t.Fatalf("Expected 24 hours, got %v", h)
	}
	if h := HoursOnDay(at(2026, 2, 24, 10, 0), at(2026, 2, 24, 10, 30), day); h != 0.5 {
		t.Fatalf("Expected half an hour, got %v", h)
	}
	// Unknown start or end cannot be placed on any day.
	if h := HoursOnDay(OptInt{}, at(2026, 2, 24, 14, 0), day); h != 0.0 {
		t.Fatalf("Expected 0 hours, got %v", h)
	}
	if h := HoursOnDay(at(2026, 2, 24, 10, 0), OptInt{}, day); h != 0.0 {
		t.Fatalf("Expected 0 hours, got %v", h)
	}
	// The day argument need not be midnight-aligned.
	noon := time.Date(2026, 2, 24, 13, 45, 11, 0, time.UTC)
	if h := HoursOnDay(at(2026, 2, 24, 10, 0), at(2026, 2, 24, 14, 0), noon); h != 4.0 {
		t.Fatalf("Expected 4 hours, got %v", h)
	}
}
