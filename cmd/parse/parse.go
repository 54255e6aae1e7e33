// The `parse` command normalizes raw sacct data into canonical records and prints them, one row
// per input record.  Steps and allocations print as separate rows; nothing is grouped or merged,
// so this is the place to look when the merged `jobs` output seems wrong.

package parse

import (
	"errors"
	"io"

	. "slurmuse/cmd"
	. "slurmuse/common"
	"slurmuse/sacct"
	"slurmuse/table"
)

type ParseCommand struct /* implements AnalysisCommand */ {
	AnalysisArgs
	FormatArgs
}

var _ = AnalysisCommand((*ParseCommand)(nil))

func (pc *ParseCommand) Summary() []string {
	return []string{
		"Read raw sacct data and print the normalized records",
	}
}

func (pc *ParseCommand) Add(fs *CLI) {
	pc.AnalysisArgs.Add(fs)
	pc.FormatArgs.Add(fs)
}

func (pc *ParseCommand) ReifyForRemote(x *ArgReifier) error {
	return errors.Join(
		pc.AnalysisArgs.ReifyForRemote(x),
		pc.FormatArgs.ReifyForRemote(x),
	)
}

func (pc *ParseCommand) Validate() error {
	return errors.Join(
		pc.AnalysisArgs.Validate(),
		ValidateFormatArgs(
			&pc.FormatArgs, parseDefaultFields, parseFormatters, parseAliases, table.DefaultCsv),
	)
}

func (pc *ParseCommand) Perform(out io.Writer, _ *ClusterConfig, records []*sacct.Record) error {
	keep := pc.RecordFilter()
	toPrint := make([]any, 0, len(records))
	for _, r := range records {
		if keep(r) {
			toPrint = append(toPrint, r)
		}
	}
	table.FormatData(out, pc.PrintFields, parseFormatters, pc.PrintOpts, toPrint)
	return nil
}
