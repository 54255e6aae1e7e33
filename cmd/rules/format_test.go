// This is logically a unit test for the printing of per-rule summaries, but in actuality an
// integration test of the `rules` verb: raw rows are merged into jobs, grouped by snakemake
// rule, summarized, and printed.

package rules

import (
	"os"
	"strings"
	"testing"

	"slurmuse/sacct"
)

const sacctFile = "testdata/sacct.txt"

func readRecords(t *testing.T) []*sacct.Record {
	f, err := os.Open(sacctFile)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	records, dropped, err := sacct.ReadRecords(f, false)
	if err != nil {
		t.Fatal(err)
	}
	if dropped > 0 {
		t.Fatalf("Test data has %d malformed rows", dropped)
	}
	return records
}

const fields = "Rule,Jobs,MemEffCount,MemEffMean,CpuEffMedian,WaitMax,ElapsedMax"

// Jobs 1001 and 1002 carry rule "align" (mem eff 25 each, cpu eff 50 and 12.5); job 1003 has no
// rule and contributes to the global row only (cpu eff 6.25, no memory report).  The global row
// counts all three jobs but only two memory efficiencies.
var expect = []string{
	`align,2,2,25,31.25,1800,3600`,
	`global,3,2,25,12.5,1800,7200`,
	``,
}

func Test(t *testing.T) {
	testit(t, 1)
}

// Partitioned aggregation merges the partial series and must print the same summary, whether the
// partitions are even or degenerate.

func TestPartitioned(t *testing.T) {
	testit(t, 2)
	testit(t, 3)
}

func testit(t *testing.T, partitions uint) {
	var rc RulesCommand
	rc.SourceArgs.LogFiles = []string{sacctFile}
	rc.FormatArgs.Fmt = "csv,header," + fields
	rc.PartitionCount = partitions
	err := rc.Validate()
	if err != nil {
		t.Fatal(err)
	}
	var stdout strings.Builder
	err = rc.Perform(&stdout, nil, readRecords(t))
	if err != nil {
		t.Fatal(err)
	}

	lines := strings.Split(stdout.String(), "\n")
	if lines[0] != fields {
		t.Fatalf("Header: got %s wanted %s", lines[0], fields)
	}
	if len(lines) != len(expect)+1 {
		t.Fatalf("Length: got %d", len(lines))
	}
	for i, e := range expect {
		if lines[i+1] != e {
			t.Fatalf("Line %d: got %s wanted %s", i+1, lines[i+1], e)
		}
	}
}
