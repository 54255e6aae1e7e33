package table

import (
	"fmt"
	"testing"

	. "slurmuse/common"
)

const (
	now = 1732518173          // 2024-11-25T07:02:53Z
	dur = 3600*33 + 60*6 + 38 // 1d 9h 7m, rounded up
)

func TestDataFormatting(t *testing.T) {
	if s := DateValue(now).String(); s != "2024-11-25" {
		t.Fatalf("DateValue %s", s)
	}
	if s := TimeValue(now).String(); s != "07:02" {
		t.Fatalf("TimeValue %s", s)
	}

	if s := IntOrEmpty(7).String(); s != "7" {
		t.Fatalf("IntOrEmpty %s", s)
	}
	if s := IntOrEmpty(0).String(); s != "" {
		t.Fatalf("IntOrEmpty %s", s)
	}

	if s := FormatDurationValue(dur, 0); s != "1d9h7m" {
		t.Fatalf("Duration %s", s)
	}
	if s := FormatDurationValue(dur, PrintModFixed); s != " 1d 9h 7m" {
		t.Fatalf("Duration %s", s)
	}
	if s := FormatDurationValue(dur, PrintModSec); s != fmt.Sprint(dur) {
		t.Fatalf("Duration %s", s)
	}

	if s := FormatDateTimeValue(now, 0); s != "2024-11-25 07:02" {
		t.Fatalf("DateTimeValue %s", s)
	}
	if s := FormatDateTimeValue(now, PrintModSec|PrintModIso); s != fmt.Sprint(now) {
		t.Fatalf("DateTimeValue %s", s)
	}
	if s := FormatDateTimeValue(now, PrintModIso); s != "2024-11-25T07:02:53Z" {
		t.Fatalf("DateTimeValue %s", s)
	}

	// For the other types, the formatters are all embedded in the reflection code.
}

// A missing value and a present zero must print differently, in every mode.

func TestOptionalFormatting(t *testing.T) {
	if s := FormatOptInt(SomeInt(7), 0); s != "7" {
		t.Fatalf("OptInt %s", s)
	}
	if s := FormatOptInt(SomeInt(0), 0); s != "0" {
		t.Fatalf("OptInt %s", s)
	}
	if s := FormatOptInt(SomeInt(0), PrintModNoDefaults); s != "0" {
		t.Fatalf("OptInt %s", s)
	}
	if s := FormatOptInt(OptInt{}, 0); s != "" {
		t.Fatalf("OptInt %s", s)
	}
	if s := FormatOptInt(OptInt{}, PrintModNoDefaults); s != "*skip*" {
		t.Fatalf("OptInt %s", s)
	}

	if s := FormatOptFloat(SomeFloat(76.875), 0); s != "76.875" {
		t.Fatalf("OptFloat %s", s)
	}
	if s := FormatOptFloat(SomeFloat(0), PrintModNoDefaults); s != "0" {
		t.Fatalf("OptFloat %s", s)
	}
	if s := FormatOptFloat(OptFloat{}, 0); s != "" {
		t.Fatalf("OptFloat %s", s)
	}
	if s := FormatOptFloat(OptFloat{}, PrintModNoDefaults); s != "*skip*" {
		t.Fatalf("OptFloat %s", s)
	}
}
