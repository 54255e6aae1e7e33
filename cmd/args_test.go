package cmd

import (
	"strings"
	"testing"
	"time"

	"slurmuse/sacct"

	. "slurmuse/common"
)

// The data-source logic in SourceArgs.Validate() has a number of interacting cases.  Every test
// here supplies an explicit source so that ini-file defaults, which apply only when no source is
// given, stay out of the picture.

func TestSourceArgsExplicitDates(t *testing.T) {
	var s SourceArgs
	s.LogFiles = []string{"logfile.txt"}
	s.FromDateStr = "2024-03-10"
	s.ToDateStr = "2024-03-11"
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if !s.HaveFrom || !s.HaveTo {
		t.Fatal("Explicit dates must be applied as record filters")
	}
	if want := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC); !s.FromDate.Equal(want) {
		t.Fatalf("FromDate %v", s.FromDate)
	}
	// -to is inclusive and runs to the end of its day.
	if want := time.Date(2024, 3, 11, 23, 59, 59, 0, time.UTC); !s.ToDate.Equal(want) {
		t.Fatalf("ToDate %v", s.ToDate)
	}
}

func TestSourceArgsLogfileDates(t *testing.T) {
	// With logfiles and no -from/-to we read what we're given, the default window must not be
	// applied as a record filter.
	var s SourceArgs
	s.LogFiles = []string{"logfile.txt"}
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if s.HaveFrom || s.HaveTo {
		t.Fatal("Default dates must not filter logfile input")
	}
}

func TestSourceArgsStoreDates(t *testing.T) {
	// With a store the default window of one day back from now applies.
	var s SourceArgs
	s.DataDir = "data/testcluster"
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if !s.HaveFrom || !s.HaveTo {
		t.Fatal("Default dates must filter store reads")
	}
	if !s.FromDate.Before(s.ToDate) {
		t.Fatalf("Bad default window %v .. %v", s.FromDate, s.ToDate)
	}
}

func TestSourceArgsBadDates(t *testing.T) {
	var s SourceArgs
	s.LogFiles = []string{"logfile.txt"}
	s.FromDateStr = "yesterday"
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "Invalid -from argument") {
		t.Fatalf("Expected -from error, got %v", err)
	}

	s = SourceArgs{}
	s.LogFiles = []string{"logfile.txt"}
	s.FromDateStr = "2024-03-11"
	s.ToDateStr = "2024-03-10"
	err = s.Validate()
	if err == nil || !strings.Contains(err.Error(), "greater than") {
		t.Fatalf("Expected window error, got %v", err)
	}
}

func TestSourceArgsRemoting(t *testing.T) {
	// -remote and -cluster go together and exclude every local source.
	var s SourceArgs
	s.Remote = "https://example.com"
	err := s.Validate()
	if err == nil || !strings.Contains(err.Error(), "must be used together") {
		t.Fatalf("Expected pairing error, got %v", err)
	}

	s = SourceArgs{}
	s.Remote = "https://example.com"
	s.Cluster = "fox"
	s.DataDir = "data/fox"
	err = s.Validate()
	if err == nil || !strings.Contains(err.Error(), "-data-dir may not be used") {
		t.Fatalf("Expected -data-dir conflict, got %v", err)
	}

	s = SourceArgs{}
	s.Remote = "https://example.com"
	s.Cluster = "fox"
	s.Database = "postgres://slurmuse@localhost/slurmuse"
	err = s.Validate()
	if err == nil || !strings.Contains(err.Error(), "-database may not be used") {
		t.Fatalf("Expected -database conflict, got %v", err)
	}

	s = SourceArgs{}
	s.Remote = "https://example.com"
	s.Cluster = "fox"
	s.LogFiles = []string{"logfile.txt"}
	err = s.Validate()
	if err == nil || !strings.Contains(err.Error(), "may not be used") {
		t.Fatalf("Expected logfile conflict, got %v", err)
	}

	s = SourceArgs{}
	s.Remote = "https://example.com"
	s.Cluster = "fox"
	if err := s.Validate(); err != nil {
		t.Fatal(err)
	}
	if !s.Remoting {
		t.Fatal("Expected remoting to be enabled")
	}
}

func TestFilterArgsRuntime(t *testing.T) {
	var fa FilterArgs
	fa.minRuntimeStr = "30m"
	fa.maxRuntimeStr = "1d2h"
	if err := fa.Validate(); err != nil {
		t.Fatal(err)
	}
	if fa.MinRuntime != 30*60 {
		t.Fatalf("MinRuntime %d", fa.MinRuntime)
	}
	if fa.MaxRuntime != 26*60*60 {
		t.Fatalf("MaxRuntime %d", fa.MaxRuntime)
	}

	fa = FilterArgs{}
	fa.minRuntimeStr = "90s"
	if err := fa.Validate(); err == nil {
		t.Fatal("Expected error, got none")
	}
}

func TestRecordFilter(t *testing.T) {
	var fa FilterArgs
	fa.User = []string{"ahmed"}
	fa.Job = []string{"1001"}
	if err := fa.Validate(); err != nil {
		t.Fatal(err)
	}
	f := fa.RecordFilter()
	alloc := &sacct.Record{JobID: "1001", ParentID: "1001", User: "ahmed"}
	step := &sacct.Record{JobID: "1001.batch", ParentID: "1001"}
	other := &sacct.Record{JobID: "1002", ParentID: "1002", User: "ahmed"}
	if !f(alloc) {
		t.Fatal("Allocation row should match")
	}
	// Step rows carry no user, so a -user filter keeps only rows naming the user.
	if f(step) {
		t.Fatal("Step row should not match a -user filter")
	}
	if f(other) {
		t.Fatal("Other job should not match")
	}

	fa = FilterArgs{}
	fa.minRuntimeStr = "1h"
	if err := fa.Validate(); err != nil {
		t.Fatal(err)
	}
	f = fa.RecordFilter()
	long := &sacct.Record{ElapsedRaw: SomeInt(7200)}
	short := &sacct.Record{ElapsedRaw: SomeInt(900)}
	missing := &sacct.Record{}
	if !f(long) {
		t.Fatal("Long job should pass -min-runtime")
	}
	if f(short) || f(missing) {
		t.Fatal("Short or unelapsed jobs should not pass -min-runtime")
	}
}

func TestArgReifier(t *testing.T) {
	r := NewArgReifier()
	r.Bool("verbose", false)
	r.Bool("all", true)
	r.String("cluster", "")
	r.String("from", "2024-03-10")
	r.RepeatableString("user", []string{"ahmed", "bird&cage"})
	got := r.EncodedArguments()
	want := "all=true&from=2024-03-10&user=ahmed&user=bird%26cage"
	if got != want {
		t.Fatalf("Expected %s, got %s", want, got)
	}
}
