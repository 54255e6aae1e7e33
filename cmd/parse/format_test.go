// This is logically a unit test for the printing of normalized records, but in actuality an
// integration test of the `parse` verb: the input goes through the sacct reader, the record
// filter, and the table formatter exactly as it does under the real command.

package parse

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

var expect = []string{
	`1001,allocation,ahmed,COMPLETED,,17179869184,`,
	`1001.batch,batch,,COMPLETED,14400,17179869184,4294967296`,
	`1002,allocation,birgit,FAILED,,8589934592,`,
	`1002.batch,batch,,FAILED,900,8589934592,2147483648`,
	`1003,allocation,clara,COMPLETED,7200,68719476736,`,
	``,
}

var expectIso = []string{
	`1001,2024-03-10T11:50:00Z,2024-03-10T12:00:00Z,2024-03-10T13:00:00Z`,
	`1001.batch,2024-03-10T11:50:00Z,2024-03-10T12:00:00Z,2024-03-10T13:00:00Z`,
	`1002,2024-03-10T12:00:00Z,2024-03-10T12:30:00Z,2024-03-10T13:00:00Z`,
	`1002.batch,2024-03-10T12:00:00Z,2024-03-10T12:30:00Z,2024-03-10T13:00:00Z`,
	`1003,2024-03-10T11:00:00Z,2024-03-10T11:00:00Z,2024-03-10T13:00:00Z`,
	``,
}

func Test(t *testing.T) {
	// One output row per input record, missing values blank, byte sizes normalized.
	testit(t, "JobID,Kind,User,State,TotalCPU,ReqMem,MaxRSS", expect)
	// The timestamp fields always print as ISO, even in csv mode.
	testit(t, "JobID,Submit,Start,End", expectIso)
}

func testit(t *testing.T, fields string, expect []string) {
	var pc ParseCommand
	pc.SourceArgs.LogFiles = []string{sacctFile}
	pc.FormatArgs.Fmt = "csv,header," + fields
	err := pc.Validate()
	if err != nil {
		t.Fatal(err)
	}
	var stdout strings.Builder
	err = pc.Perform(&stdout, nil, readRecords(t))
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

// Record-level filtering matches each row on its own attributes: the batch rows carry no user
// name, so a -user filter keeps only the allocation rows naming the user.

func TestRecordFilter(t *testing.T) {
	var pc ParseCommand
	pc.SourceArgs.LogFiles = []string{sacctFile}
	pc.FilterArgs.User = []string{"ahmed"}
	pc.FormatArgs.Fmt = "csv,JobID,Kind,User"
	err := pc.Validate()
	if err != nil {
		t.Fatal(err)
	}
	var stdout strings.Builder
	err = pc.Perform(&stdout, nil, readRecords(t))
	if err != nil {
		t.Fatal(err)
	}
	if stdout.String() != "1001,allocation,ahmed\n" {
		t.Fatalf("Bad filtered output: %q", stdout.String())
	}
}
