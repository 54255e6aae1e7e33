package sacct

import (
	"testing"
)

func TestParseDuration(t *testing.T) {
	d := ParseDuration("1-02:03:04")
	if !d.Ok || d.Val != 93784 {
		t.Fatalf("Expected 93784, got %v", d)
	}
	d = ParseDuration("02:03:04")
	if !d.Ok || d.Val != 7384 {
		t.Fatalf("Expected 7384, got %v", d)
	}
	// Minutes:seconds with a fraction, the fraction is dropped.
	d = ParseDuration("03:04.5")
	if !d.Ok || d.Val != 184 {
		t.Fatalf("Expected 184, got %v", d)
	}
	d = ParseDuration("03:04")
	if !d.Ok || d.Val != 184 {
		t.Fatalf("Expected 184, got %v", d)
	}
	// Zero is a value, not a missing value.
	d = ParseDuration("00:00:00")
	if !d.Ok || d.Val != 0 {
		t.Fatalf("Expected present zero, got %v", d)
	}
	// Hours beyond two digits happen on long-running fields.
	d = ParseDuration("123:00:00")
	if !d.Ok || d.Val != 442800 {
		t.Fatalf("Expected 442800, got %v", d)
	}
	for _, s := range []string{"", "UNLIMITED", "Partition_Limit", "INVALID", "1-2:03:04", "02:3:04", "x02:03:04"} {
		if d = ParseDuration(s); d.Ok {
			t.Fatalf("Expected missing for %q, got %v", s, d)
		}
	}
}

func TestParseSize(t *testing.T) {
	n := ParseSize("512M")
	if !n.Ok || n.Val != 536870912 {
		t.Fatalf("Expected 536870912, got %v", n)
	}
	n = ParseSize("2G")
	if !n.Ok || n.Val != 2147483648 {
		t.Fatalf("Expected 2147483648, got %v", n)
	}
	n = ParseSize("16k")
	if !n.Ok || n.Val != 16384 {
		t.Fatalf("Expected 16384, got %v", n)
	}
	n = ParseSize("0K")
	if !n.Ok || n.Val != 0 {
		t.Fatalf("Expected present zero, got %v", n)
	}
	// "T" is recognized but not usable.
	for _, s := range []string{"4T", "4t", "10X", "512", "", "M", "1.5G", "-1K"} {
		if n = ParseSize(s); n.Ok {
			t.Fatalf("Expected missing for %q, got %v", s, n)
		}
	}
}

func TestParseInt(t *testing.T) {
	n := ParseInt("64")
	if !n.Ok || n.Val != 64 {
		t.Fatalf("Expected 64, got %v", n)
	}
	n = ParseInt("0")
	if !n.Ok || n.Val != 0 {
		t.Fatalf("Expected present zero, got %v", n)
	}
	for _, s := range []string{"", "abc", "-3", "1.5"} {
		if n = ParseInt(s); n.Ok {
			t.Fatalf("Expected missing for %q, got %v", s, n)
		}
	}
}

func TestParseDateTime(t *testing.T) {
	d := ParseDateTime("2024-03-01T00:00:00")
	if !d.Ok || d.Val != 1709251200 {
		t.Fatalf("Expected 1709251200, got %v", d)
	}
	for _, s := range []string{"", "Unknown", "None", "INVALID", "2024-03-01", "garbage"} {
		if d = ParseDateTime(s); d.Ok {
			t.Fatalf("Expected missing for %q, got %v", s, d)
		}
	}
}
