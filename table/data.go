// Annotation types and formatters for them, mostly taking a print context argument and returning
// *skip* when appropriate.

package table

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	. "slurmuse/common"
)

// Timestamp types.  These types hold an int64 unix-timestamp-since-epoch or second count and
// require a particular kind of formatting.

type DateTimeValue int64        // yyyy-mm-dd hh:mm
type DateTimeValueOrBlank int64 // yyyy-mm-dd hh:mm or 16 blanks
type IsoDateTimeValue int64
type IsoDateTimeOrUnknown int64 // yyyy-mm-ddThh:mmZhh:mm
type DateValue int64            // yyyy-mm-dd
type TimeValue int64            // hh:mm
type DurationValue int64        // _d_h_m for d(ays) h(ours) m(inutes), rounded to minute, round up on ties

// Other types

type IntOrEmpty int // the int value, but "" if zero

// Stringers for simple cases.  There could be more but in most cases the formatting takes a
// formatting context and a stringer could at most pick one of them.

func (val DateValue) String() string {
	return time.Unix(int64(val), 0).UTC().Format("2006-01-02")
}

func (val TimeValue) String() string {
	return time.Unix(int64(val), 0).UTC().Format("15:04")
}

func (val IntOrEmpty) String() string {
	if val == 0 {
		return ""
	}
	return strconv.FormatInt(int64(val), 10)
}

func FormatIntOrEmpty(val IntOrEmpty, _ PrintMods) string {
	return val.String()
}

func FormatDateValue(val DateValue, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == 0 {
		return "*skip*"
	}
	return val.String()
}

func FormatTimeValue(val TimeValue, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == 0 {
		return "*skip*"
	}
	return val.String()
}

func FormatInt64[T int64 | uint64](val T, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == 0 {
		return "*skip*"
	}
	return fmt.Sprint(val)
}

func FormatInt(val int, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == 0 {
		return "*skip*"
	}
	return fmt.Sprint(val)
}

func FormatFloat64(val float64, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == 0 {
		return "*skip*"
	}
	return strconv.FormatFloat(val, 'g', -1, 64)
}

// The optional types distinguish a missing value from a present zero: the missing value prints as
// the empty string (it is skipped under nodefaults), a present zero prints as "0" always.

func FormatOptInt(val OptInt, ctx PrintMods) string {
	if !val.Ok {
		if (ctx & PrintModNoDefaults) != 0 {
			return "*skip*"
		}
		return ""
	}
	return strconv.FormatInt(val.Val, 10)
}

func FormatOptFloat(val OptFloat, ctx PrintMods) string {
	if !val.Ok {
		if (ctx & PrintModNoDefaults) != 0 {
			return "*skip*"
		}
		return ""
	}
	return strconv.FormatFloat(val.Val, 'g', -1, 64)
}

func FormatString(val string, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && val == "" {
		return "*skip*"
	}
	if (ctx & PrintModMax30) != 0 {
		if len(val) > 30 {
			return val[:30]
		}
	}
	return val
}

func FormatStrings(val []string, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && len(val) == 0 {
		return "*skip*"
	}
	sortable := slices.Clone(val)
	slices.Sort(sortable)
	return strings.Join(sortable, ",")
}

func FormatBool(val bool, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && !val {
		return "*skip*"
	}
	// These are backwards compatible values.
	if val {
		return "yes"
	}
	return "no"
}

// The DurationValue is always %2dd%2dh%2dm for fixed output and %dd%dh%dm for other outputs,
// rounded to the nearest minute, rounding up on ties.

func FormatDurationValue(secs int64, ctx PrintMods) string {
	if (ctx & PrintModSec) != 0 {
		if (ctx&PrintModNoDefaults) != 0 && secs == 0 {
			return "*skip*"
		}
		return fmt.Sprint(secs)
	}

	if secs%60 >= 30 {
		secs += 30
	}
	minutes := (secs / 60) % 60
	hours := (secs / (60 * 60)) % 24
	days := secs / (60 * 60 * 24)
	if (ctx&PrintModNoDefaults) != 0 && minutes == 0 && hours == 0 && days == 0 {
		return "*skip*"
	}
	if (ctx & PrintModFixed) != 0 {
		return fmt.Sprintf("%2dd%2dh%2dm", days, hours, minutes)
	}
	return fmt.Sprintf("%dd%dh%dm", days, hours, minutes)
}

func FormatDateTimeValue(timestamp int64, ctx PrintMods) string {
	if (ctx&PrintModNoDefaults) != 0 && timestamp == 0 {
		return "*skip*"
	}
	// Note, it is part of the API that PrintModSec takes precedence over PrintModIso (this
	// simplifies various other paths).
	if (ctx & PrintModSec) != 0 {
		return fmt.Sprint(timestamp)
	}
	if (ctx & PrintModIso) != 0 {
		return FormatIsoUtc(timestamp)
	}
	return FormatYyyyMmDdHhMmUtc(timestamp)
}

func FormatDateTimeValueOrBlank(val int64, ctx PrintMods) string {
	if val == 0 {
		return "                "
	}
	return FormatDateTimeValue(val, ctx)
}

func FormatYyyyMmDdHhMmUtc(t int64) string {
	return time.Unix(t, 0).UTC().Format("2006-01-02 15:04")
}

func FormatIsoUtc(t int64) string {
	return time.Unix(t, 0).UTC().Format(time.RFC3339)
}

func FormatIsoDateTimeValue(t int64, ctx PrintMods) string {
	return FormatDateTimeValue(t, ctx|PrintModIso)
}

func FormatIsoDateTimeOrUnknown(t int64, ctx PrintMods) string {
	if t == 0 {
		return "Unknown"
	}
	return FormatDateTimeValue(t, ctx|PrintModIso)
}
