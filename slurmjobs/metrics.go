package slurmjobs

import (
	. "slurmuse/common"
	"slurmuse/stats"
)

// EfficiencyMetrics is the statistic set collected when summarizing job efficiency over a group
// of jobs, eg per snakemake rule.  The group can be anything; the metrics are per-job.
//
// MT: Constant after initialization; immutable
var EfficiencyMetrics = []stats.Metric[*Job]{
	{
		Name: "mem_eff",
		Get:  func(j *Job) OptFloat { return j.MemEfficiencyPercent },
		Stats: []stats.Stat{
			stats.StatRows, stats.StatCount, stats.StatMean, stats.StatMedian,
			stats.StatMin, stats.StatMax,
		},
	},
	{
		Name:  "cpu_eff",
		Get:   func(j *Job) OptFloat { return j.CPUEfficiencyPercent },
		Stats: []stats.Stat{stats.StatMean, stats.StatMedian, stats.StatMin, stats.StatMax},
	},
	{
		Name:  "mem_gb",
		Get:   func(j *Job) OptFloat { return j.MaxRSSGB },
		Stats: []stats.Stat{stats.StatMean, stats.StatMax},
	},
	{
		Name:  "wait",
		Get:   func(j *Job) OptFloat { return j.WaitTimeSeconds.Float() },
		Stats: []stats.Stat{stats.StatMean, stats.StatMedian, stats.StatMax},
	},
	{
		Name:  "elapsed",
		Get:   func(j *Job) OptFloat { return j.ElapsedRaw.Float() },
		Stats: []stats.Stat{stats.StatMean, stats.StatMax},
	},
}
