// Daily cluster efficiency: how much of a day each job occupied, and per-QOS daily utilization
// against the cluster's capacity.

package daily

import (
	"time"

	. "slurmuse/common"
)

// HoursOnDay computes how many hours of the given day, [00:00, 24:00) UTC, fall inside the
// job's [start, end] interval.  The cases are tried in order, first match wins:
//
//  1. started and ended on the day: end - start
//  2. started earlier, ended on the day: day start to end
//  3. started on the day, ended at or past the next midnight: start to day end, which gives a
//     job running exactly midnight to midnight its full 24 hours
//  4. started earlier, ended later: 24 hours
//  5. no overlap: zero
//
// A missing start or end means we cannot place the job on the day at all: zero hours.
func HoursOnDay(start, end OptInt, day time.Time) float64 {
	if !start.Ok || !end.Ok {
		return 0
	}
	dayStart := TruncateToDay(day.Unix())
	dayEnd := dayStart + 86400
	s, e := start.Val, end.Val
	startedOnDay := s >= dayStart && s < dayEnd
	endedOnDay := e >= dayStart && e < dayEnd
	switch {
	case startedOnDay && endedOnDay:
		return float64(e-s) / 3600
	case s < dayStart && endedOnDay:
		return float64(e-dayStart) / 3600
	case startedOnDay && e >= dayEnd:
		return float64(dayEnd-s) / 3600
	case s < dayStart && e >= dayEnd:
		return 24.0
	default:
		return 0
	}
}
