package sacct

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/NordicHPC/sonar/util/formats/newfmt"

	. "slurmuse/common"
)

// ParseJobsJSON reads a stream of Sonar job envelopes and produces the same records that the
// pipe-separated sacct path produces, so everything downstream is oblivious to the transport.
// Envelopes that carry an error object are counted and skipped.
//
// Units in the envelope differ from sacct's textual output: RSS and VMSize figures are KiB,
// requested memory is MiB per node, and the time limit is minutes, all per the Slurm conventions
// Sonar inherits.
func ParseJobsJSON(input io.Reader, verbose bool) (records []*Record, softErrors int, err error) {
	err = newfmt.ConsumeJSONJobs(input, false, func(envelope *newfmt.JobsEnvelope) {
		if envelope.Errors != nil {
			softErrors++
			return
		}
		records = append(records, RecordsFromJobsEnvelope(envelope)...)
	})
	if err != nil {
		return nil, 0, err
	}
	if softErrors > 0 && verbose {
		Log.Infof("Skipped %d error envelopes", softErrors)
	}
	return
}

// RecordsFromJobsEnvelope converts the slurm jobs of one decoded envelope.
func RecordsFromJobsEnvelope(envelope *newfmt.JobsEnvelope) []*Record {
	jobs := envelope.Data.Attributes.SlurmJobs
	records := make([]*Record, len(jobs))
	for i := range jobs {
		records[i] = fromEnvelopeJob(&jobs[i])
	}
	return records
}

func fromEnvelopeJob(job *newfmt.SlurmJob) *Record {
	jobID := fmt.Sprint(job.JobID)
	if job.JobStep != "" {
		jobID = jobID + "." + job.JobStep
	}
	nodes := make([]string, len(job.NodeList))
	for i, n := range job.NodeList {
		nodes[i] = string(n)
	}
	r := &Record{
		JobID:     jobID,
		JobIDRaw:  jobID,
		User:      job.UserName,
		Account:   job.Account,
		State:     string(job.JobState),
		Partition: job.Partition,
		JobName:   job.JobName,
		NodeList:  strings.Join(nodes, ","),
		ExitCode:  fmt.Sprintf("%d:0", job.ExitCode),
		Submit:    parseEnvelopeTime(string(job.SubmitTime)),
		Start:     parseEnvelopeTime(string(job.Start)),
		End:       parseEnvelopeTime(string(job.End)),
	}
	// The requested-resources fields are numeric on the wire with no encoding for "absent", but a
	// scheduled job requests at least one CPU, one node and some memory, so zero means the producer
	// had nothing (typically a step row).
	if job.ReqCPUS > 0 {
		r.ReqCPUS = SomeInt(int64(job.ReqCPUS))
	}
	if job.ReqNodes > 0 {
		r.ReqNodes = SomeInt(int64(job.ReqNodes))
	}
	if job.ReqMemoryPerNode > 0 {
		r.ReqMem = SomeInt(int64(job.ReqMemoryPerNode) << 20)
	}
	if job.Timelimit >= newfmt.ExtendedUintBase {
		limit, _ := job.Timelimit.ToUint()
		r.Timelimit = SomeInt(int64(limit) * 60)
	}
	if sacct := job.Sacct; sacct != nil {
		// Zero is a real value for the time figures (an instantly-finished step), but a zero
		// memory figure means sacct had nothing, same as an unadorned "0" in the CSV.
		r.ElapsedRaw = SomeInt(int64(sacct.ElapsedRaw))
		r.Elapsed = r.ElapsedRaw
		r.UserCPU = SomeInt(int64(sacct.UserCPU))
		r.SystemCPU = SomeInt(int64(sacct.SystemCPU))
		r.TotalCPU = SomeInt(int64(sacct.UserCPU + sacct.SystemCPU))
		if sacct.MaxRSS > 0 {
			r.MaxRSS = SomeInt(int64(sacct.MaxRSS) << 10)
		}
		if sacct.AveRSS > 0 {
			r.AveRSS = SomeInt(int64(sacct.AveRSS) << 10)
		}
		if sacct.MaxVMSize > 0 {
			r.MaxVMSize = SomeInt(int64(sacct.MaxVMSize) << 10)
		}
	}
	r.Kind, r.ParentID = Classify(r.JobID)
	return r
}

func parseEnvelopeTime(s string) OptInt {
	if s == "" {
		return OptInt{}
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return OptInt{}
	}
	return SomeInt(t.Unix())
}
