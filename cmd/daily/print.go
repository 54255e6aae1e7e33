package daily

import (
	"reflect"
	"strings"

	. "slurmuse/common"
	"slurmuse/table"
)

// One printable row per day and QOS.  Sums over groups where no job reports the operands are
// missing, not zero, and print blank.
type dailyPrint struct {
	Date           string
	QOS            string
	Jobs           int64
	CpuSeconds     OptFloat
	CpuHours       OptFloat
	CpuCapacityPct OptFloat
	GbSeconds      OptFloat
	GbCapacityPct  OptFloat
	WaitMean       OptFloat
	WaitMedian     OptFloat
	WaitMin        OptFloat
	WaitMax        OptFloat
}

func newDailyPrint(date, qos string, row map[string]float64) *dailyPrint {
	return &dailyPrint{
		Date:           date,
		QOS:            qos,
		Jobs:           int64(row["jobs"]),
		CpuSeconds:     statOf(row, "cpu_seconds"),
		CpuHours:       statOf(row, "cpu_hours"),
		CpuCapacityPct: statOf(row, "cpu_capacity_pct"),
		GbSeconds:      statOf(row, "gb_seconds"),
		GbCapacityPct:  statOf(row, "gb_capacity_pct"),
		WaitMean:       statOf(row, "wait_mean"),
		WaitMedian:     statOf(row, "wait_median"),
		WaitMin:        statOf(row, "wait_min"),
		WaitMax:        statOf(row, "wait_max"),
	}
}

func statOf(row map[string]float64, name string) OptFloat {
	if v, found := row[name]; found {
		return SomeFloat(v)
	}
	return OptFloat{}
}

func (dc *DailyCommand) MaybeFormatHelp() *table.FormatHelp {
	return table.StandardFormatHelp(dc.Fmt, dailyHelp, dailyFormatters, dailyAliases, dailyDefaultFields)
}

const dailyHelp = `
daily
  Attribute job runtime to the calendar days between -from and -to and print
  utilization per day and QOS, with a 'global' row per day covering every
  QOS.  A job counts toward a day when any part of its runtime overlaps the
  day.  The default format is 'fixed'.
`

const dailyDefaultFields = "Date,QOS,Jobs,CpuHours,CpuCapacityPct,GbSeconds,GbCapacityPct,WaitMean"

const dailyAllFields = "Date,QOS,Jobs,CpuSeconds,CpuHours,CpuCapacityPct,GbSeconds," +
	"GbCapacityPct,WaitMean,WaitMedian,WaitMin,WaitMax"

// MT: Constant after initialization; immutable
var dailyAliases = map[string][]string{
	"default": strings.Split(dailyDefaultFields, ","),
	"all":     strings.Split(dailyAllFields, ","),
}

// MT: Constant after initialization; immutable
var dailyFormatters = table.DefineTableFromMap(
	reflect.TypeFor[dailyPrint](),
	map[string]any{
		"Date":           table.SimpleFormatSpec{Desc: "Day the row covers, yyyy-mm-dd UTC"},
		"QOS":            table.SimpleFormatSpec{Desc: "Quality of service, or 'global' for all jobs of the day"},
		"Jobs":           table.SimpleFormatSpec{Desc: "Number of jobs active on the day"},
		"CpuSeconds":     table.SimpleFormatSpec{Desc: "CPU seconds consumed by the jobs active on the day"},
		"CpuHours":       table.SimpleFormatSpec{Desc: "CPU hours consumed by the jobs active on the day"},
		"CpuCapacityPct": table.SimpleFormatSpec{Desc: "CPU seconds as percent of daily cpu capacity"},
		"GbSeconds":      table.SimpleFormatSpec{Desc: "GB-seconds of max resident memory over elapsed time"},
		"GbCapacityPct":  table.SimpleFormatSpec{Desc: "GB-seconds as percent of daily memory capacity"},
		"WaitMean":       table.SimpleFormatSpec{Desc: "Mean queue wait in seconds"},
		"WaitMedian":     table.SimpleFormatSpec{Desc: "Median queue wait in seconds"},
		"WaitMin":        table.SimpleFormatSpec{Desc: "Min queue wait in seconds"},
		"WaitMax":        table.SimpleFormatSpec{Desc: "Max queue wait in seconds"},
	},
)
