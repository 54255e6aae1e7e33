package sacct

import (
	"bufio"
	"io"
	"strings"

	. "slurmuse/common"
)

// A RawRecord maps sacct column names to the untouched field texts of one row.
type RawRecord map[string]string

// DefaultColumns is the column schema of `sacct --allusers --parsable2 --noheader -a` when asked
// for everything, in emission order.  It is applied to headerless dumps.
var DefaultColumns = []string{
	"Account", "AdminComment", "AllocCPUS", "AllocNodes", "AllocTRES", "AssocID", "AveCPU",
	"AveCPUFreq", "AveDiskRead", "AveDiskWrite", "AvePages", "AveRSS", "AveVMSize", "BlockID",
	"Cluster", "Comment", "Constraints", "ConsumedEnergy", "ConsumedEnergyRaw", "Container",
	"CPUTime", "CPUTimeRAW", "DBIndex", "DerivedExitCode", "Elapsed", "ElapsedRaw", "Eligible",
	"End", "ExitCode", "Flags", "GID", "Group", "JobID", "JobIDRaw", "JobName", "Layout",
	"MaxDiskRead", "MaxDiskReadNode", "MaxDiskReadTask", "MaxDiskWrite", "MaxDiskWriteNode",
	"MaxDiskWriteTask", "MaxPages", "MaxPagesNode", "MaxPagesTask", "MaxRSS", "MaxRSSNode",
	"MaxRSSTask", "MaxVMSize", "MaxVMSizeNode", "MaxVMSizeTask", "McsLabel", "MinCPU",
	"MinCPUNode", "MinCPUTask", "NCPUS", "NNodes", "NodeList", "NTasks", "Partition",
	"Priority", "QOS", "QOSRAW", "Reason", "ReqCPUFreq", "ReqCPUFreqGov", "ReqCPUFreqMax",
	"ReqCPUFreqMin", "ReqCPUS", "ReqMem", "ReqNodes", "ReqTRES", "Reservation",
	"ReservationId", "Reserved", "ResvCPU", "ResvCPURAW", "Start", "State", "Submit",
	"SubmitLine", "Suspended", "SystemComment", "SystemCPU", "Timelimit", "TimelimitRaw",
	"TotalCPU", "TRESUsageInAve", "TRESUsageInMax", "TRESUsageInMaxNode", "TRESUsageInMaxTask",
	"TRESUsageInMin", "TRESUsageInMinNode", "TRESUsageInMinTask", "TRESUsageInTot",
	"TRESUsageOutAve", "TRESUsageOutMax", "TRESUsageOutMaxNode", "TRESUsageOutMaxTask",
	"TRESUsageOutMin", "TRESUsageOutMinNode", "TRESUsageOutMinTask", "TRESUsageOutTot", "UID",
	"User", "UserCPU", "WCKey", "WCKeyID", "WorkDir",
}

const maxLineLength = 1024 * 1024

// ReadRaw reads a pipe-separated sacct dump.  If the first line names JobID it is taken as the
// header, otherwise DefaultColumns is assumed and the first line is data.  Rows whose field count
// disagrees with the schema are dropped and counted, never fatal: truncated dumps and embedded
// newlines in SubmitLine are a fact of life.
func ReadRaw(input io.Reader) (records []RawRecord, dropped int, err error) {
	scanner := bufio.NewScanner(input)
	scanner.Buffer(make([]byte, maxLineLength), maxLineLength)

	var columns []string
	first := true
	for scanner.Scan() {
		line := scanner.Text()
		if first {
			first = false
			if strings.Contains(line, "JobID") {
				columns = strings.Split(line, "|")
				continue
			}
			columns = DefaultColumns
		}
		if line == "" {
			continue
		}
		fields := strings.Split(line, "|")
		if len(fields) != len(columns) {
			dropped++
			continue
		}
		r := make(RawRecord, len(columns))
		for i, name := range columns {
			r[name] = fields[i]
		}
		records = append(records, r)
	}
	if err = scanner.Err(); err != nil {
		return nil, 0, err
	}
	return
}

// ReadRecords reads a dump as ReadRaw does and normalizes every surviving row.
func ReadRecords(input io.Reader, verbose bool) (records []*Record, dropped int, err error) {
	raw, dropped, err := ReadRaw(input)
	if err != nil {
		return nil, 0, err
	}
	if dropped > 0 && verbose {
		Log.Infof("Dropped %d malformed sacct rows", dropped)
	}
	records = make([]*Record, len(raw))
	for i, r := range raw {
		records[i] = FromRaw(r)
	}
	return
}
