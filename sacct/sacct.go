// Data representation of Slurm accounting data, and parsers for the textual field formats that
// `sacct -P` emits.
//
// About representations:
//
// - See the sacct documentation for the interpretation of individual fields, we follow that except
//   as noted here, eg all duration-like fields have been translated to seconds and all size-like
//   fields to bytes.
//
// - The composite JobID ("1234", "1234.batch", "1234.extern", "1234.0", ...) is kept verbatim and
//   additionally classified into a record Kind and a ParentID, the digits root that ties every
//   step of a job to its allocation.
//
// - A job that was cancelled before it was scheduled can have an unknown Start and an empty
//   NodeList, and a number of other fields will be off too in that case.  Fields that are absent
//   or unparseable are *missing* (OptInt/OptFloat with Ok false, or the empty string), which is
//   different from zero everywhere in this program.

package sacct

import (
	"regexp"

	. "slurmuse/common"
)

type JobKind int

const (
	KindUnknown JobKind = iota
	KindAllocation
	KindBatch
	KindExtern
	KindStep
)

func (k JobKind) String() string {
	switch k {
	case KindAllocation:
		return "allocation"
	case KindBatch:
		return "batch"
	case KindExtern:
		return "extern"
	case KindStep:
		return "step"
	default:
		return "unknown"
	}
}

var (
	jobIDRe = regexp.MustCompile(`^(\d+)(\..+)?$`)
	stepRe  = regexp.MustCompile(`^\.\d+$`)
)

// Classify splits a composite JobID into the kind of the record and the ID of the allocation it
// belongs to.  IDs that do not open with digits are unclassifiable: KindUnknown with an empty
// parent, and such records never join any job group.
func Classify(jobID string) (kind JobKind, parentID string) {
	m := jobIDRe.FindStringSubmatch(jobID)
	if m == nil {
		return KindUnknown, ""
	}
	parentID = m[1]
	switch {
	case m[2] == "":
		kind = KindAllocation
	case m[2] == ".batch":
		kind = KindBatch
	case m[2] == ".extern":
		kind = KindExtern
	case stepRe.MatchString(m[2]):
		kind = KindStep
	default:
		kind = KindUnknown
	}
	return
}

// One canonical record per input row.  String fields are "" when missing.
type Record struct {
	JobID     string
	JobIDRaw  string
	User      string
	Account   string
	State     string
	QOS       string
	Partition string
	JobName   string
	Comment   string
	NodeList  string
	ExitCode  string

	Kind     JobKind
	ParentID string

	// Extracted from Comment when it is rule-shaped, see ParseRuleComment.
	Rule     string
	RuleArgs string

	AllocCPUS  OptInt
	AllocNodes OptInt
	ReqCPUS    OptInt
	ReqNodes   OptInt
	ElapsedRaw OptInt // seconds
	Elapsed    OptInt // seconds, parsed from the D-HH:MM:SS rendering
	Timelimit  OptInt // seconds
	TotalCPU   OptInt // seconds
	UserCPU    OptInt // seconds
	SystemCPU  OptInt // seconds
	CPUTimeRAW OptInt // seconds
	ReqMem     OptInt // bytes
	MaxRSS     OptInt // bytes
	MaxVMSize  OptInt // bytes
	AveRSS     OptInt // bytes
	Submit     OptInt // Unix time
	Start      OptInt // Unix time
	End        OptInt // Unix time
}

// FromRaw normalizes one raw row.  Unknown raw columns are ignored here but survive in the raw
// record for anyone who wants them.
func FromRaw(raw RawRecord) *Record {
	r := &Record{
		JobID:     raw["JobID"],
		JobIDRaw:  raw["JobIDRaw"],
		User:      raw["User"],
		Account:   raw["Account"],
		State:     raw["State"],
		QOS:       raw["QOS"],
		Partition: raw["Partition"],
		JobName:   raw["JobName"],
		Comment:   raw["Comment"],
		NodeList:  raw["NodeList"],
		ExitCode:  raw["ExitCode"],

		AllocCPUS:  ParseInt(raw["AllocCPUS"]),
		AllocNodes: ParseInt(raw["AllocNodes"]),
		ReqCPUS:    ParseInt(raw["ReqCPUS"]),
		ReqNodes:   ParseInt(raw["ReqNodes"]),
		ElapsedRaw: ParseInt(raw["ElapsedRaw"]),
		Elapsed:    ParseDuration(raw["Elapsed"]),
		Timelimit:  ParseDuration(raw["Timelimit"]),
		TotalCPU:   ParseTotalCPU(raw["TotalCPU"]),
		UserCPU:    ParseTotalCPU(raw["UserCPU"]),
		SystemCPU:  ParseTotalCPU(raw["SystemCPU"]),
		CPUTimeRAW: ParseInt(raw["CPUTimeRAW"]),
		ReqMem:     ParseSize(raw["ReqMem"]),
		MaxRSS:     ParseSize(raw["MaxRSS"]),
		MaxVMSize:  ParseSize(raw["MaxVMSize"]),
		AveRSS:     ParseSize(raw["AveRSS"]),
		Submit:     ParseDateTime(raw["Submit"]),
		Start:      ParseDateTime(raw["Start"]),
		End:        ParseDateTime(raw["End"]),
	}
	// The NodeList placeholder for never-scheduled jobs is noise, not a host name.
	if r.NodeList == "None assigned" {
		r.NodeList = ""
	}
	r.Kind, r.ParentID = Classify(r.JobID)
	r.Rule, r.RuleArgs = ParseRuleComment(r.Comment)
	return r
}

// SelectSubmitWindow keeps the records submitted in [from,to], both ends in unix seconds.  The
// stores read whole days, this trims the window exactly.  Records with no submit time are kept,
// they cannot be placed and dropping them silently would hide data.
func SelectSubmitWindow(records []*Record, from, to int64) []*Record {
	out := make([]*Record, 0, len(records))
	for _, r := range records {
		if r.Submit.Ok && (r.Submit.Val < from || r.Submit.Val > to) {
			continue
		}
		out = append(out, r)
	}
	return out
}
