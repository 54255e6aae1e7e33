// The `daily` command attributes job runtime to calendar days and prints per-day, per-QOS
// utilization: cpu-seconds and GB-seconds consumed, their share of the cluster's daily capacity,
// and queue-wait statistics.  Capacities come from -config-file, with built-in defaults.

package daily

import (
	"errors"
	"io"

	. "slurmuse/cmd"
	. "slurmuse/common"
	day "slurmuse/daily"
	"slurmuse/sacct"
	"slurmuse/slurmjobs"
	"slurmuse/table"
)

type DailyCommand struct /* implements AnalysisCommand */ {
	AnalysisArgs
	FormatArgs
}

var _ = AnalysisCommand((*DailyCommand)(nil))

func (dc *DailyCommand) Summary() []string {
	return []string{
		"Print daily cluster utilization per QOS, relative to capacity",
	}
}

func (dc *DailyCommand) Add(fs *CLI) {
	dc.AnalysisArgs.Add(fs)
	dc.FormatArgs.Add(fs)
}

func (dc *DailyCommand) ReifyForRemote(x *ArgReifier) error {
	return errors.Join(
		dc.AnalysisArgs.ReifyForRemote(x),
		dc.FormatArgs.ReifyForRemote(x),
	)
}

func (dc *DailyCommand) Validate() error {
	return errors.Join(
		dc.AnalysisArgs.Validate(),
		ValidateFormatArgs(
			&dc.FormatArgs, dailyDefaultFields, dailyFormatters, dailyAliases, table.DefaultFixed),
	)
}

func (dc *DailyCommand) Perform(out io.Writer, cfg *ClusterConfig, records []*sacct.Record) error {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	jobs := slurmjobs.Jobs(records, dc.Verbose)
	jobs = slurmjobs.FilterJobs(jobs, dc.JobFilter(), dc.Verbose)
	toPrint := make([]any, 0)
	end := RoundupDay(dc.ToDate)
	for d := ThisDay(dc.FromDate); d.Before(end); d = d.AddDate(0, 0, 1) {
		summary := day.Metrics(jobs, d, cfg.Capacity)
		date := FormatYyyyMmDdUtc(d.Unix())
		for _, qos := range summary.Keys() {
			toPrint = append(toPrint, newDailyPrint(date, qos, summary[qos]))
		}
	}
	table.FormatData(out, dc.PrintFields, dailyFormatters, dc.PrintOpts, toPrint)
	return nil
}
