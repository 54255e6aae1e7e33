// Parsers for the textual field formats of `sacct -P`.  These never fail: a value that does not
// match its grammar is simply missing.  Slurm is inconsistent about placeholders ("", "Unknown",
// "None", "INVALID", "UNLIMITED", "Partition_Limit") and about renderings (durations come in
// three shapes), so the grammars here are anchored and anything outside them is dropped.

package sacct

import (
	"regexp"
	"strconv"
	"time"

	. "slurmuse/common"
)

var (
	// D-HH:MM:SS, with the day count unbounded.
	durDaysRe = regexp.MustCompile(`^(\d+)-(\d\d):(\d\d):(\d\d)$`)
	// HH:MM:SS, hours unbounded - sacct emits eg 123:04:05 past five days on some fields.
	durHoursRe = regexp.MustCompile(`^(\d+):(\d\d):(\d\d)$`)
	// MM:SS.fff for sub-hour CPU times.  The fraction is truncated, not rounded.
	durMinutesRe = regexp.MustCompile(`^(\d+):(\d\d)(\.\d+)?$`)

	sizeRe = regexp.MustCompile(`^(\d+)([KMGTkmgt])$`)
)

// ParseDuration turns any of sacct's three duration renderings into integer seconds.
func ParseDuration(s string) OptInt {
	if m := durDaysRe.FindStringSubmatch(s); m != nil {
		days, _ := strconv.ParseInt(m[1], 10, 64)
		hours, _ := strconv.ParseInt(m[2], 10, 64)
		minutes, _ := strconv.ParseInt(m[3], 10, 64)
		seconds, _ := strconv.ParseInt(m[4], 10, 64)
		return SomeInt(days*86400 + hours*3600 + minutes*60 + seconds)
	}
	if m := durHoursRe.FindStringSubmatch(s); m != nil {
		hours, _ := strconv.ParseInt(m[1], 10, 64)
		minutes, _ := strconv.ParseInt(m[2], 10, 64)
		seconds, _ := strconv.ParseInt(m[3], 10, 64)
		return SomeInt(hours*3600 + minutes*60 + seconds)
	}
	if m := durMinutesRe.FindStringSubmatch(s); m != nil {
		minutes, _ := strconv.ParseInt(m[1], 10, 64)
		seconds, _ := strconv.ParseInt(m[2], 10, 64)
		return SomeInt(minutes*60 + seconds)
	}
	return OptInt{}
}

// ParseTotalCPU handles TotalCPU, UserCPU and SystemCPU, which use the same renderings as
// Elapsed but reach for MM:SS.fff much more often.
func ParseTotalCPU(s string) OptInt {
	return ParseDuration(s)
}

// ParseSize turns "512M", "2G" etc into bytes.  Slurm means binary multiples.  "T" is part of
// the grammar but a terabyte count would make every efficiency figure it feeds meaningless on
// our clusters, so it parses to missing.
func ParseSize(s string) OptInt {
	m := sizeRe.FindStringSubmatch(s)
	if m == nil {
		return OptInt{}
	}
	n, _ := strconv.ParseInt(m[1], 10, 64)
	switch m[2] {
	case "K", "k":
		return SomeInt(n << 10)
	case "M", "m":
		return SomeInt(n << 20)
	case "G", "g":
		return SomeInt(n << 30)
	default:
		return OptInt{}
	}
}

// ParseInt accepts plain unsigned decimal fields (AllocCPUS, ElapsedRaw, ...).
func ParseInt(s string) OptInt {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return OptInt{}
	}
	return SomeInt(n)
}

const dateTimeFormat = "2006-01-02T15:04:05"

// ParseDateTime turns sacct's ISO-ish timestamps into Unix time.  Timestamps carry no zone; they
// are read as UTC, which is what our slurmdbd instances are configured for.
func ParseDateTime(s string) OptInt {
	switch s {
	case "", "Unknown", "None", "INVALID":
		return OptInt{}
	}
	t, err := time.Parse(dateTimeFormat, s)
	if err != nil {
		return OptInt{}
	}
	return SomeInt(t.Unix())
}
