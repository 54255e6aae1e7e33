package rules

import (
	"io"
	"reflect"
	"strings"

	. "slurmuse/common"
	"slurmuse/stats"
	"slurmuse/table"
)

// One printable row per summary group, flattened from the metric/statistic matrix.  Statistics
// that came out missing stay missing here and print blank.
type rulePrint struct {
	Rule         string
	Jobs         int64
	MemEffCount  int64
	MemEffMean   OptFloat
	MemEffMedian OptFloat
	MemEffMin    OptFloat
	MemEffMax    OptFloat
	CpuEffMean   OptFloat
	CpuEffMedian OptFloat
	CpuEffMin    OptFloat
	CpuEffMax    OptFloat
	MemGBMean    OptFloat
	MemGBMax     OptFloat
	WaitMean     OptFloat
	WaitMedian   OptFloat
	WaitMax      OptFloat
	ElapsedMean  OptFloat
	ElapsedMax   OptFloat
}

func (rc *RulesCommand) printSummary(out io.Writer, summary stats.Summary) {
	keys := summary.Keys()
	toPrint := make([]any, 0, len(keys))
	for _, k := range keys {
		row := summary[k]
		toPrint = append(toPrint, &rulePrint{
			Rule:         k,
			Jobs:         int64(row["mem_eff_rows"]),
			MemEffCount:  int64(row["mem_eff_count"]),
			MemEffMean:   statOf(row, "mem_eff_mean"),
			MemEffMedian: statOf(row, "mem_eff_median"),
			MemEffMin:    statOf(row, "mem_eff_min"),
			MemEffMax:    statOf(row, "mem_eff_max"),
			CpuEffMean:   statOf(row, "cpu_eff_mean"),
			CpuEffMedian: statOf(row, "cpu_eff_median"),
			CpuEffMin:    statOf(row, "cpu_eff_min"),
			CpuEffMax:    statOf(row, "cpu_eff_max"),
			MemGBMean:    statOf(row, "mem_gb_mean"),
			MemGBMax:     statOf(row, "mem_gb_max"),
			WaitMean:     statOf(row, "wait_mean"),
			WaitMedian:   statOf(row, "wait_median"),
			WaitMax:      statOf(row, "wait_max"),
			ElapsedMean:  statOf(row, "elapsed_mean"),
			ElapsedMax:   statOf(row, "elapsed_max"),
		})
	}
	table.FormatData(out, rc.PrintFields, rulesFormatters, rc.PrintOpts, toPrint)
}

func statOf(row map[string]float64, name string) OptFloat {
	if v, found := row[name]; found {
		return SomeFloat(v)
	}
	return OptFloat{}
}

func (rc *RulesCommand) MaybeFormatHelp() *table.FormatHelp {
	return table.StandardFormatHelp(rc.Fmt, rulesHelp, rulesFormatters, rulesAliases, rulesDefaultFields)
}

const rulesHelp = `
rules
  Aggregate memory efficiency, cpu efficiency, memory footprint, queue wait
  and runtime per snakemake rule, with a 'global' row covering every job in
  the selection.  The default format is 'fixed'.
`

const rulesDefaultFields = "Rule,Jobs,MemEffMean,MemEffMedian,CpuEffMean,CpuEffMedian,WaitMean"

const rulesAllFields = "Rule,Jobs,MemEffCount,MemEffMean,MemEffMedian,MemEffMin,MemEffMax," +
	"CpuEffMean,CpuEffMedian,CpuEffMin,CpuEffMax,MemGBMean,MemGBMax,WaitMean,WaitMedian," +
	"WaitMax,ElapsedMean,ElapsedMax"

// MT: Constant after initialization; immutable
var rulesAliases = map[string][]string{
	"default": strings.Split(rulesDefaultFields, ","),
	"all":     strings.Split(rulesAllFields, ","),
}

// MT: Constant after initialization; immutable
var rulesFormatters = table.DefineTableFromMap(
	reflect.TypeFor[rulePrint](),
	map[string]any{
		"Rule":         table.SimpleFormatSpec{Desc: "Rule name, or 'global' for the whole selection"},
		"Jobs":         table.SimpleFormatSpec{Desc: "Number of jobs in the group"},
		"MemEffCount":  table.SimpleFormatSpec{Desc: "Number of jobs with a computable memory efficiency"},
		"MemEffMean":   table.SimpleFormatSpec{Desc: "Mean percent memory utilization"},
		"MemEffMedian": table.SimpleFormatSpec{Desc: "Median percent memory utilization"},
		"MemEffMin":    table.SimpleFormatSpec{Desc: "Min percent memory utilization"},
		"MemEffMax":    table.SimpleFormatSpec{Desc: "Max percent memory utilization"},
		"CpuEffMean":   table.SimpleFormatSpec{Desc: "Mean percent cpu utilization"},
		"CpuEffMedian": table.SimpleFormatSpec{Desc: "Median percent cpu utilization"},
		"CpuEffMin":    table.SimpleFormatSpec{Desc: "Min percent cpu utilization"},
		"CpuEffMax":    table.SimpleFormatSpec{Desc: "Max percent cpu utilization"},
		"MemGBMean":    table.SimpleFormatSpec{Desc: "Mean max resident set size in GB"},
		"MemGBMax":     table.SimpleFormatSpec{Desc: "Max max resident set size in GB"},
		"WaitMean":     table.SimpleFormatSpec{Desc: "Mean queue wait in seconds"},
		"WaitMedian":   table.SimpleFormatSpec{Desc: "Median queue wait in seconds"},
		"WaitMax":      table.SimpleFormatSpec{Desc: "Max queue wait in seconds"},
		"ElapsedMean":  table.SimpleFormatSpec{Desc: "Mean elapsed runtime in seconds"},
		"ElapsedMax":   table.SimpleFormatSpec{Desc: "Max elapsed runtime in seconds"},
	},
)
