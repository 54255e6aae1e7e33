// Consolidation of sacct accounting records into jobs.
//
// sacct reports a job as several rows: the allocation row carries the requested resources and
// job-level attributes, while usage is reported against the batch/extern/step rows.  Everything
// here works on groups of rows sharing one allocation root: Group buckets the rows, Merge
// reduces each bucket to a single Job, Annotate derives the efficiency metrics, and Jobs is the
// whole pipeline.

package slurmjobs

import (
	. "slurmuse/common"
	"slurmuse/sacct"
)

// A JobGroup holds every accounting row of one allocation, in input order.
type JobGroup struct {
	ParentID string
	Alloc    *sacct.Record   // the allocation row, nil if it never showed up
	Rows     []*sacct.Record // all rows including the allocation row
}

// Group buckets records by their allocation root, groups in first-appearance order and rows in
// input order within each group.  Duplicate rows (same composite JobID, a fact of life when
// collection windows overlap) keep the first occurrence.  Rows with no digits root cannot be
// tied to any allocation and are dropped.
func Group(records []*sacct.Record, verbose bool) []*JobGroup {
	byjob := make(map[string]*JobGroup)
	groups := make([]*JobGroup, 0)
	seen := make(map[string]bool)
	var unclassifiable, duplicates int
	for _, r := range records {
		if r.ParentID == "" {
			unclassifiable++
			continue
		}
		if seen[r.JobID] {
			duplicates++
			continue
		}
		seen[r.JobID] = true
		g := byjob[r.ParentID]
		if g == nil {
			g = &JobGroup{ParentID: r.ParentID}
			byjob[r.ParentID] = g
			groups = append(groups, g)
		}
		g.Rows = append(g.Rows, r)
		if r.Kind == sacct.KindAllocation && g.Alloc == nil {
			g.Alloc = r
		}
	}
	if verbose {
		Log.Infof("%d jobs from %d records", len(groups), len(records))
		Log.Infof("%d duplicate records dropped", duplicates)
		if unclassifiable > 0 {
			Log.Infof("%d records dropped due to unclassifiable ID", unclassifiable)
		}
	}
	return groups
}

// A Job is the consolidated view of one allocation: numeric fields are the maximum across the
// rows that carry them, string fields the first non-missing value in input order.  The Step* and
// Alloc* fields restrict the same reductions to the non-allocation rows resp. the allocation
// row, for the metrics where the row kinds genuinely disagree.  The efficiency fields are filled
// in by Annotate.
type Job struct {
	JobID string // the allocation root

	User      string
	Account   string
	State     string
	QOS       string
	Partition string
	JobName   string
	Comment   string
	NodeList  string
	ExitCode  string
	Rule      string
	RuleArgs  string

	AllocCPUS  OptInt
	AllocNodes OptInt
	ReqCPUS    OptInt
	ReqNodes   OptInt
	ElapsedRaw OptInt
	Elapsed    OptInt
	Timelimit  OptInt
	TotalCPU   OptInt
	UserCPU    OptInt
	SystemCPU  OptInt
	CPUTimeRAW OptInt
	ReqMem     OptInt
	MaxRSS     OptInt
	MaxVMSize  OptInt
	AveRSS     OptInt
	Submit     OptInt
	Start      OptInt
	End        OptInt

	StepMaxRSS     OptInt
	StepTotalCPU   OptInt
	StepElapsedRaw OptInt
	AllocReqMem    OptInt
	AllocQOS       string
	AllocComment   string

	MaxRSSGB             OptFloat
	MemEfficiencyPercent OptFloat
	CPUEfficiencyPercent OptFloat
	WaitTimeSeconds      OptInt
}

// Merge reduces one group to its Job.  All-missing fields stay missing, they are never defaulted.
func Merge(g *JobGroup) *Job {
	rows := g.Rows
	steps := make([]*sacct.Record, 0, len(rows))
	for _, r := range rows {
		if r.Kind != sacct.KindAllocation {
			steps = append(steps, r)
		}
	}
	var alloc []*sacct.Record
	if g.Alloc != nil {
		alloc = []*sacct.Record{g.Alloc}
	}
	return &Job{
		JobID: g.ParentID,

		User:      firstString(rows, func(r *sacct.Record) string { return r.User }),
		Account:   firstString(rows, func(r *sacct.Record) string { return r.Account }),
		State:     firstString(rows, func(r *sacct.Record) string { return r.State }),
		QOS:       firstString(rows, func(r *sacct.Record) string { return r.QOS }),
		Partition: firstString(rows, func(r *sacct.Record) string { return r.Partition }),
		JobName:   firstString(rows, func(r *sacct.Record) string { return r.JobName }),
		Comment:   firstString(rows, func(r *sacct.Record) string { return r.Comment }),
		NodeList:  firstString(rows, func(r *sacct.Record) string { return r.NodeList }),
		ExitCode:  firstString(rows, func(r *sacct.Record) string { return r.ExitCode }),
		Rule:      firstString(rows, func(r *sacct.Record) string { return r.Rule }),
		RuleArgs:  firstString(rows, func(r *sacct.Record) string { return r.RuleArgs }),

		AllocCPUS:  maxInt(rows, func(r *sacct.Record) OptInt { return r.AllocCPUS }),
		AllocNodes: maxInt(rows, func(r *sacct.Record) OptInt { return r.AllocNodes }),
		ReqCPUS:    maxInt(rows, func(r *sacct.Record) OptInt { return r.ReqCPUS }),
		ReqNodes:   maxInt(rows, func(r *sacct.Record) OptInt { return r.ReqNodes }),
		ElapsedRaw: maxInt(rows, func(r *sacct.Record) OptInt { return r.ElapsedRaw }),
		Elapsed:    maxInt(rows, func(r *sacct.Record) OptInt { return r.Elapsed }),
		Timelimit:  maxInt(rows, func(r *sacct.Record) OptInt { return r.Timelimit }),
		TotalCPU:   maxInt(rows, func(r *sacct.Record) OptInt { return r.TotalCPU }),
		UserCPU:    maxInt(rows, func(r *sacct.Record) OptInt { return r.UserCPU }),
		SystemCPU:  maxInt(rows, func(r *sacct.Record) OptInt { return r.SystemCPU }),
		CPUTimeRAW: maxInt(rows, func(r *sacct.Record) OptInt { return r.CPUTimeRAW }),
		ReqMem:     maxInt(rows, func(r *sacct.Record) OptInt { return r.ReqMem }),
		MaxRSS:     maxInt(rows, func(r *sacct.Record) OptInt { return r.MaxRSS }),
		MaxVMSize:  maxInt(rows, func(r *sacct.Record) OptInt { return r.MaxVMSize }),
		AveRSS:     maxInt(rows, func(r *sacct.Record) OptInt { return r.AveRSS }),
		Submit:     maxInt(rows, func(r *sacct.Record) OptInt { return r.Submit }),
		Start:      maxInt(rows, func(r *sacct.Record) OptInt { return r.Start }),
		End:        maxInt(rows, func(r *sacct.Record) OptInt { return r.End }),

		StepMaxRSS:     maxInt(steps, func(r *sacct.Record) OptInt { return r.MaxRSS }),
		StepTotalCPU:   maxInt(steps, func(r *sacct.Record) OptInt { return r.TotalCPU }),
		StepElapsedRaw: maxInt(steps, func(r *sacct.Record) OptInt { return r.ElapsedRaw }),
		AllocReqMem:    maxInt(alloc, func(r *sacct.Record) OptInt { return r.ReqMem }),
		AllocQOS:       firstString(alloc, func(r *sacct.Record) string { return r.QOS }),
		AllocComment:   firstString(alloc, func(r *sacct.Record) string { return r.Comment }),
	}
}

// Jobs runs the whole pipeline: group, merge, annotate.  Job order follows the first appearance
// of each allocation in the input.
func Jobs(records []*sacct.Record, verbose bool) []*Job {
	groups := Group(records, verbose)
	jobs := make([]*Job, len(groups))
	for i, g := range groups {
		j := Merge(g)
		Annotate(j)
		jobs[i] = j
	}
	return jobs
}

func maxInt(rows []*sacct.Record, get func(*sacct.Record) OptInt) (m OptInt) {
	for _, r := range rows {
		if v := get(r); v.Ok && (!m.Ok || v.Val > m.Val) {
			m = v
		}
	}
	return
}

func firstString(rows []*sacct.Record, get func(*sacct.Record) string) string {
	for _, r := range rows {
		if s := get(r); s != "" {
			return s
		}
	}
	return ""
}
