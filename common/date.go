package common

import (
	"errors"
	"regexp"
	"strconv"
	"time"
)

// Parse a date string and return the time in the UTC time zone.  The base time is folded to UTC if
// it is not already utc.
//
// The date format is one of:
//
//  YYYY-MM-DD
//  Nd (days ago)
//  Nw (weeks ago)
//
// endOfDay takes us to the last second of the last hour of the day, making date ranges inclusive;
// it is ignored for the relative Nd and Nw forms because their base time is "now" and there are no
// records timestamped later than "now".
//
// NOTE: we're opting in to the Go semantics here: the nonexistent yyyy-09-31 is silently
// reinterpreted as yyyy-10-01.

func ParseRelativeDateUtc(now time.Time, s string, endOfDay bool) (time.Time, error) {
	now = now.UTC()
	if probe := daysRe.FindStringSubmatch(s); probe != nil {
		days, _ := strconv.ParseUint(probe[1], 10, 32)
		return now.AddDate(0, 0, -int(days)), nil
	}

	if probe := weeksRe.FindStringSubmatch(s); probe != nil {
		weeks, _ := strconv.ParseUint(probe[1], 10, 32)
		return now.AddDate(0, 0, -int(weeks)*7), nil
	}

	if probe := dateRe.FindStringSubmatch(s); probe != nil {
		yyyy, _ := strconv.ParseUint(probe[1], 10, 32)
		mm, _ := strconv.ParseUint(probe[2], 10, 32)
		dd, _ := strconv.ParseUint(probe[3], 10, 32)
		var h, m, s int
		if endOfDay {
			h, m, s = 23, 59, 59
		}
		return time.Date(int(yyyy), time.Month(mm), int(dd), h, m, s, 0, time.UTC), nil
	}

	return now, errors.New("Bad time specification")
}

var dateRe = regexp.MustCompile(`^(\d\d\d\d)-(\d\d)-(\d\d)$`)
var daysRe = regexp.MustCompile(`^(\d+)d$`)
var weeksRe = regexp.MustCompile(`^(\d+)w$`)

// t should be UTC, the result is always UTC
func ThisDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// t should be UTC, the result is always UTC
func RoundupDay(t time.Time) time.Time {
	// Add less than one full day so as to make RoundupDay idempotent.
	return ThisDay(t.Add(24*time.Hour - 1*time.Second))
}

func TruncateToDay(t int64) int64 {
	u := time.Unix(t, 0).UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

func AddDay(t int64) int64 {
	return t + 24*60*60
}

func FormatYyyyMmDdUtc(t int64) string {
	return time.Unix(t, 0).UTC().Format("2006-01-02")
}
