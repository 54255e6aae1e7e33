// This is logically a unit test for the printing of merged jobs, but in actuality an integration
// test of the `jobs` verb: raw rows go through grouping, merging, annotation, filtering and the
// table formatter, and come out as one line per allocation.

package jobs

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

// Job 1001: TotalCPU and MaxRSS come off the batch row, cpu eff = 100*14400/(3600*8),
// mem eff = 100*4G/16G.  Job 1003 has an allocation row only, so MaxRSSGB and the memory
// efficiency are missing and print blank; a present zero wait still prints.
var expect = []string{
	`1001,ahmed,COMPLETED,8,3600,14400,4,50,25,600`,
	`1002,birgit,FAILED,4,1800,900,2,12.5,25,1800`,
	`1003,clara,COMPLETED,16,7200,7200,,6.25,,0`,
	``,
}

func Test(t *testing.T) {
	testit(t, "JobID,User,State,AllocCPUS,ElapsedRaw,TotalCPU,MemGB,rcpu,rmem,Wait", expect)
	testit(t, "JobID,User,State,AllocCPUS,ElapsedRaw,TotalCPU,MaxRSSGB,"+
		"CPUEfficiencyPercent,MemEfficiencyPercent,WaitTimeSeconds", expect)
}

func testit(t *testing.T, fields string, expect []string) {
	var jc JobsCommand
	jc.SourceArgs.LogFiles = []string{sacctFile}
	jc.FormatArgs.Fmt = "csv,header," + fields
	err := jc.Validate()
	if err != nil {
		t.Fatal(err)
	}
	var stdout strings.Builder
	err = jc.Perform(&stdout, nil, readRecords(t))
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

// -state filters the merged jobs, after grouping: the job's state is the first one reported
// across its rows, and the whole job stands or falls with it.

func TestStateFilter(t *testing.T) {
	var jc JobsCommand
	jc.SourceArgs.LogFiles = []string{sacctFile}
	jc.FilterArgs.State = []string{"COMPLETED"}
	jc.FormatArgs.Fmt = "csv,JobID,User,State"
	err := jc.Validate()
	if err != nil {
		t.Fatal(err)
	}
	var stdout strings.Builder
	err = jc.Perform(&stdout, nil, readRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "1001,ahmed,COMPLETED\n1003,clara,COMPLETED\n" {
		t.Fatalf("Bad filtered output: %q", stdout.String())
	}
}
