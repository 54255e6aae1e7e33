// The `rules` command aggregates job efficiency per snakemake rule.  Jobs carry a rule when their
// sacct comment is rule-shaped ("rule_<name>" or "rule_<name>_wildcards_<args>"); jobs without a
// rule contribute to the 'global' row only.

package rules

import (
	"errors"
	"io"

	. "slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/sacct"
	"slurmuse/slurmjobs"
	"slurmuse/stats"
	"slurmuse/table"
)

type RulesCommand struct /* implements AnalysisCommand */ {
	AnalysisArgs
	FormatArgs

	PartitionCount uint
}

var _ = AnalysisCommand((*RulesCommand)(nil))

func (rc *RulesCommand) Summary() []string {
	return []string{
		"Aggregate job efficiency statistics per snakemake rule",
	}
}

func (rc *RulesCommand) Add(fs *CLI) {
	rc.AnalysisArgs.Add(fs)
	rc.FormatArgs.Add(fs)
	fs.Group("aggregation")
	fs.UintVar(&rc.PartitionCount, "partition-count", 1,
		"Aggregate in `n` concurrent partitions and merge the partial series;\n"+
			"the summary is the same, only the work is split [default: 1]")
}

func (rc *RulesCommand) ReifyForRemote(x *ArgReifier) error {
	// PartitionCount is a local performance knob and is not forwarded.
	return errors.Join(
		rc.AnalysisArgs.ReifyForRemote(x),
		rc.FormatArgs.ReifyForRemote(x),
	)
}

func (rc *RulesCommand) Validate() error {
	return errors.Join(
		rc.AnalysisArgs.Validate(),
		ValidateFormatArgs(
			&rc.FormatArgs, rulesDefaultFields, rulesFormatters, rulesAliases, table.DefaultFixed),
	)
}

func (rc *RulesCommand) Perform(out io.Writer, _ *ClusterConfig, records []*sacct.Record) error {
	jobs := slurmjobs.Jobs(records, rc.Verbose)
	jobs = slurmjobs.FilterJobs(jobs, rc.JobFilter(), rc.Verbose)
	ruleOf := func(j *slurmjobs.Job) string { return j.Rule }
	var summary stats.Summary
	if rc.PartitionCount > 1 {
		summary = stats.ByGroupPartitioned(
			jobs, ruleOf, slurmjobs.EfficiencyMetrics, int(rc.PartitionCount))
	} else {
		summary = stats.ByGroup(jobs, ruleOf, slurmjobs.EfficiencyMetrics)
	}
	rc.printSummary(out, summary)
	return nil
}
