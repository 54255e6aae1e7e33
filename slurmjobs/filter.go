package slurmjobs

import (
	. "slurmuse/common"
)

type JobFilter struct {
	User       []string
	Account    []string
	State      []string // COMPLETED, TIMEOUT etc - "or" these, empty for all
	QOS        []string
	Partition  []string
	Rule       []string
	Job        []string // allocation roots
	MinRuntime int64
	MaxRuntime int64 // 0 means "not set"
}

// FilterJobs selects the jobs matching every non-empty criterion, preserving input order.
func FilterJobs(jobs []*Job, filter JobFilter, verbose bool) []*Job {
	jobs = filterByString(jobs, verbose, "user", filter.User,
		func(j *Job) string { return j.User })
	jobs = filterByString(jobs, verbose, "account", filter.Account,
		func(j *Job) string { return j.Account })
	jobs = filterByString(jobs, verbose, "state", filter.State,
		func(j *Job) string { return j.State })
	jobs = filterByString(jobs, verbose, "qos", filter.QOS,
		func(j *Job) string { return j.QOS })
	jobs = filterByString(jobs, verbose, "partition", filter.Partition,
		func(j *Job) string { return j.Partition })
	jobs = filterByString(jobs, verbose, "rule", filter.Rule,
		func(j *Job) string { return j.Rule })
	jobs = filterByString(jobs, verbose, "job", filter.Job,
		func(j *Job) string { return j.JobID })
	if filter.MinRuntime > 0 || filter.MaxRuntime > 0 {
		out := make([]*Job, 0, len(jobs))
		for _, j := range jobs {
			// A job with no recorded elapsed time counts as zero here, it should not
			// survive a minimum-runtime query.
			elapsed := j.ElapsedRaw.Val
			if elapsed < filter.MinRuntime {
				continue
			}
			if filter.MaxRuntime > 0 && elapsed > filter.MaxRuntime {
				continue
			}
			out = append(out, j)
		}
		if verbose {
			Log.Infof("%d filtered by runtime filter: min=%d max=%d",
				len(jobs)-len(out), filter.MinRuntime, filter.MaxRuntime)
		}
		jobs = out
	}
	if verbose {
		Log.Infof("After filtering: %d jobs", len(jobs))
	}
	return jobs
}

func filterByString(
	jobs []*Job,
	verbose bool,
	what string,
	filters []string,
	get func(j *Job) string,
) []*Job {
	if len(filters) == 0 {
		return jobs
	}
	fs := make(map[string]bool, len(filters))
	for _, k := range filters {
		fs[k] = true
	}
	out := make([]*Job, 0, len(jobs))
	for _, j := range jobs {
		if fs[get(j)] {
			out = append(out, j)
		}
	}
	if verbose {
		Log.Infof("%d filtered by %s filter %v", len(jobs)-len(out), what, filters)
	}
	return out
}
