package slurmjobs

import (
	"testing"

	. "slurmuse/common"
	"slurmuse/sacct"
)

func rec(fields sacct.RawRecord) *sacct.Record {
	return sacct.FromRaw(fields)
}

func TestGroup(t *testing.T) {
	records := []*sacct.Record{
		rec(sacct.RawRecord{"JobID": "1234", "User": "alice"}),
		rec(sacct.RawRecord{"JobID": "1234.batch"}),
		rec(sacct.RawRecord{"JobID": "1235", "User": "bob"}),
		rec(sacct.RawRecord{"JobID": "1234.0"}),
		rec(sacct.RawRecord{"JobID": "nonsense"}),
		rec(sacct.RawRecord{"JobID": "1234.batch"}), // duplicate
	}
	groups := Group(records, false)
	if len(groups) != 2 {
		t.Fatalf("Expected 2 groups, got %d", len(groups))
	}
	if groups[0].ParentID != "1234" || groups[1].ParentID != "1235" {
		t.Fatalf("Bad group order: %s, %s", groups[0].ParentID, groups[1].ParentID)
	}
	g := groups[0]
	if len(g.Rows) != 3 {
		t.Fatalf("Expected 3 rows in first group, got %d", len(g.Rows))
	}
	if g.Alloc == nil || g.Alloc.JobID != "1234" {
		t.Fatal("Allocation row not identified")
	}
	if g.Rows[0] != g.Alloc || g.Rows[1].JobID != "1234.batch" || g.Rows[2].JobID != "1234.0" {
		t.Fatal("Row order not preserved")
	}
	if groups[1].Alloc == nil || len(groups[1].Rows) != 1 {
		t.Fatal("Bad second group")
	}
}

func TestGroupWithoutAllocationRow(t *testing.T) {
	groups := Group([]*sacct.Record{
		rec(sacct.RawRecord{"JobID": "77.batch", "State": "COMPLETED"}),
	}, false)
	if len(groups) != 1 {
		t.Fatalf("Expected 1 group, got %d", len(groups))
	}
	if groups[0].Alloc != nil {
		t.Fatal("Expected no allocation row")
	}
	j := Merge(groups[0])
	if j.JobID != "77" || j.State != "COMPLETED" {
		t.Fatalf("Bad merged job: %v", j)
	}
	if j.AllocReqMem.Ok || j.AllocQOS != "" {
		t.Fatal("Allocation-restricted fields must stay missing")
	}
}

func TestMerge(t *testing.T) {
	allocRow := rec(sacct.RawRecord{
		"JobID":      "997",
		"User":       "alice",
		"QOS":        "normal",
		"Comment":    "rule_map_wildcards_s=1",
		"ReqMem":     "8G",
		"AllocCPUS":  "16",
		"ElapsedRaw": "100",
		"Submit":     "2024-03-01T00:00:00",
		"Start":      "2024-03-01T00:01:00",
	})
	batchRow := rec(sacct.RawRecord{
		"JobID":      "997.batch",
		"MaxRSS":     "512M",
		"TotalCPU":   "20:30",
		"ElapsedRaw": "90",
		"AllocCPUS":  "16",
	})

	// The allocation row's values must win where the step is silent, and vice versa,
	// in either row order.
	for _, rows := range [][]*sacct.Record{
		{allocRow, batchRow},
		{batchRow, allocRow},
	} {
		groups := Group(rows, false)
		if len(groups) != 1 {
			t.Fatalf("Expected 1 group, got %d", len(groups))
		}
		j := Merge(groups[0])
		if j.JobID != "997" {
			t.Fatalf("Bad JobID: %s", j.JobID)
		}
		if !j.ReqMem.Ok || j.ReqMem.Val != 8589934592 {
			t.Fatalf("Bad ReqMem: %v", j.ReqMem)
		}
		if !j.MaxRSS.Ok || j.MaxRSS.Val != 536870912 {
			t.Fatalf("Bad MaxRSS: %v", j.MaxRSS)
		}
		if j.User != "alice" || j.QOS != "normal" {
			t.Fatalf("Bad strings: %q %q", j.User, j.QOS)
		}
		if j.Rule != "map" || j.RuleArgs != "s=1" {
			t.Fatalf("Bad rule: %q %q", j.Rule, j.RuleArgs)
		}
		if !j.ElapsedRaw.Ok || j.ElapsedRaw.Val != 100 {
			t.Fatalf("Expected max ElapsedRaw 100, got %v", j.ElapsedRaw)
		}
		if !j.TotalCPU.Ok || j.TotalCPU.Val != 1230 {
			t.Fatalf("Bad TotalCPU: %v", j.TotalCPU)
		}
		// Nothing reported MaxVMSize, so it stays missing.
		if j.MaxVMSize.Ok {
			t.Fatalf("Expected missing MaxVMSize, got %v", j.MaxVMSize)
		}
		// Kind-restricted reductions.
		if !j.StepMaxRSS.Ok || j.StepMaxRSS.Val != 536870912 {
			t.Fatalf("Bad StepMaxRSS: %v", j.StepMaxRSS)
		}
		if !j.StepElapsedRaw.Ok || j.StepElapsedRaw.Val != 90 {
			t.Fatalf("Bad StepElapsedRaw: %v", j.StepElapsedRaw)
		}
		if !j.AllocReqMem.Ok || j.AllocReqMem.Val != 8589934592 {
			t.Fatalf("Bad AllocReqMem: %v", j.AllocReqMem)
		}
		if j.AllocQOS != "normal" || j.AllocComment != "rule_map_wildcards_s=1" {
			t.Fatalf("Bad alloc strings: %q %q", j.AllocQOS, j.AllocComment)
		}
	}
}

func TestAnnotate(t *testing.T) {
	j := &Job{
		MaxRSS:     SomeInt(2147483648),
		ReqMem:     SomeInt(8589934592),
		TotalCPU:   SomeInt(1230),
		ElapsedRaw: SomeInt(100),
		AllocCPUS:  SomeInt(16),
		Submit:     SomeInt(1000),
		Start:      SomeInt(1060),
	}
	Annotate(j)
	if !j.MemEfficiencyPercent.Ok || j.MemEfficiencyPercent.Val != 25.0 {
		t.Fatalf("Bad MemEfficiencyPercent: %v", j.MemEfficiencyPercent)
	}
	if !j.CPUEfficiencyPercent.Ok || j.CPUEfficiencyPercent.Val != 76.875 {
		t.Fatalf("Bad CPUEfficiencyPercent: %v", j.CPUEfficiencyPercent)
	}
	if !j.MaxRSSGB.Ok || j.MaxRSSGB.Val != 2.0 {
		t.Fatalf("Bad MaxRSSGB: %v", j.MaxRSSGB)
	}
	if !j.WaitTimeSeconds.Ok || j.WaitTimeSeconds.Val != 60 {
		t.Fatalf("Bad WaitTimeSeconds: %v", j.WaitTimeSeconds)
	}
}

func TestAnnotateDegenerate(t *testing.T) {
	// Zero denominators and missing operands all produce missing, never Inf/NaN/zero.
	j := &Job{
		MaxRSS:     SomeInt(100),
		ReqMem:     SomeInt(0),
		TotalCPU:   SomeInt(50),
		ElapsedRaw: SomeInt(0),
		AllocCPUS:  SomeInt(16),
		Start:      SomeInt(1060),
	}
	Annotate(j)
	if j.MemEfficiencyPercent.Ok {
		t.Fatalf("Expected missing MemEfficiencyPercent, got %v", j.MemEfficiencyPercent)
	}
	if j.CPUEfficiencyPercent.Ok {
		t.Fatalf("Expected missing CPUEfficiencyPercent, got %v", j.CPUEfficiencyPercent)
	}
	if j.WaitTimeSeconds.Ok {
		t.Fatalf("Expected missing WaitTimeSeconds, got %v", j.WaitTimeSeconds)
	}

	j = &Job{}
	Annotate(j)
	if j.MemEfficiencyPercent.Ok || j.CPUEfficiencyPercent.Ok || j.MaxRSSGB.Ok || j.WaitTimeSeconds.Ok {
		t.Fatal("Expected everything missing on an empty job")
	}
}

func TestFilterJobs(t *testing.T) {
	jobs := []*Job{
		{JobID: "1", User: "alice", State: "COMPLETED", ElapsedRaw: SomeInt(100)},
		{JobID: "2", User: "bob", State: "COMPLETED", ElapsedRaw: SomeInt(50)},
		{JobID: "3", User: "alice", State: "TIMEOUT", ElapsedRaw: SomeInt(200)},
		{JobID: "4", User: "alice", State: "COMPLETED"},
	}
	out := FilterJobs(jobs, JobFilter{User: []string{"alice"}}, false)
	if len(out) != 3 || out[0].JobID != "1" || out[1].JobID != "3" || out[2].JobID != "4" {
		t.Fatalf("Bad user filter result: %d jobs", len(out))
	}
	out = FilterJobs(jobs, JobFilter{User: []string{"alice"}, State: []string{"COMPLETED"}}, false)
	if len(out) != 2 || out[0].JobID != "1" || out[1].JobID != "4" {
		t.Fatalf("Bad combined filter result: %d jobs", len(out))
	}
	// A job with no elapsed time does not survive a minimum-runtime query.
	out = FilterJobs(jobs, JobFilter{MinRuntime: 60}, false)
	if len(out) != 2 || out[0].JobID != "1" || out[1].JobID != "3" {
		t.Fatalf("Bad min-runtime filter result: %d jobs", len(out))
	}
	out = FilterJobs(jobs, JobFilter{MaxRuntime: 150}, false)
	if len(out) != 3 {
		t.Fatalf("Bad max-runtime filter result: %d jobs", len(out))
	}
	out = FilterJobs(jobs, JobFilter{Job: []string{"2", "3"}}, false)
	if len(out) != 2 || out[0].JobID != "2" || out[1].JobID != "3" {
		t.Fatalf("Bad job filter result: %d jobs", len(out))
	}
}

func TestJobsPipeline(t *testing.T) {
	records := []*sacct.Record{
		rec(sacct.RawRecord{
			"JobID": "10", "User": "alice", "QOS": "normal", "ReqMem": "1G",
			"AllocCPUS": "2", "ElapsedRaw": "100",
		}),
		rec(sacct.RawRecord{
			"JobID": "10.batch", "MaxRSS": "512M", "TotalCPU": "01:40", "AllocCPUS": "2",
		}),
		rec(sacct.RawRecord{"JobID": "11", "User": "bob"}),
	}
	jobs := Jobs(records, false)
	if len(jobs) != 2 {
		t.Fatalf("Expected 2 jobs, got %d", len(jobs))
	}
	j := jobs[0]
	if j.JobID != "10" || j.User != "alice" {
		t.Fatalf("Bad first job: %v", j)
	}
	if !j.MemEfficiencyPercent.Ok || j.MemEfficiencyPercent.Val != 50.0 {
		t.Fatalf("Bad MemEfficiencyPercent: %v", j.MemEfficiencyPercent)
	}
	if !j.CPUEfficiencyPercent.Ok || j.CPUEfficiencyPercent.Val != 50.0 {
		t.Fatalf("Bad CPUEfficiencyPercent: %v", j.CPUEfficiencyPercent)
	}
	if jobs[1].JobID != "11" || jobs[1].MemEfficiencyPercent.Ok {
		t.Fatalf("Bad second job: %v", jobs[1])
	}
}
