// The `jobs` command groups sacct records under their allocations, merges every group into one
// job record, annotates the jobs with efficiency, and prints them.

package jobs

import (
	"errors"
	"io"

	. "slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/sacct"
	"slurmuse/slurmjobs"
	"slurmuse/table"
)

type JobsCommand struct /* implements AnalysisCommand */ {
	AnalysisArgs
	FormatArgs
}

var _ = AnalysisCommand((*JobsCommand)(nil))

func (jc *JobsCommand) Summary() []string {
	return []string{
		"Aggregate sacct records into jobs and print their resource usage",
		"and efficiency",
	}
}

func (jc *JobsCommand) Add(fs *CLI) {
	jc.AnalysisArgs.Add(fs)
	jc.FormatArgs.Add(fs)
}

func (jc *JobsCommand) ReifyForRemote(x *ArgReifier) error {
	return errors.Join(
		jc.AnalysisArgs.ReifyForRemote(x),
		jc.FormatArgs.ReifyForRemote(x),
	)
}

func (jc *JobsCommand) Validate() error {
	return errors.Join(
		jc.AnalysisArgs.Validate(),
		ValidateFormatArgs(
			&jc.FormatArgs, jobsDefaultFields, jobsFormatters, jobsAliases, table.DefaultFixed),
	)
}

func (jc *JobsCommand) Perform(out io.Writer, _ *ClusterConfig, records []*sacct.Record) error {
	jobs := slurmjobs.Jobs(records, jc.Verbose)
	jobs = slurmjobs.FilterJobs(jobs, jc.JobFilter(), jc.Verbose)
	toPrint := make([]any, len(jobs))
	for i, j := range jobs {
		toPrint[i] = j
	}
	table.FormatData(out, jc.PrintFields, jobsFormatters, jc.PrintOpts, toPrint)
	return nil
}
