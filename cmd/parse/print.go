package parse

import (
	"reflect"
	"strings"

	"slurmuse/sacct"
	"slurmuse/table"
)

func (pc *ParseCommand) MaybeFormatHelp() *table.FormatHelp {
	return table.StandardFormatHelp(pc.Fmt, parseHelp, parseFormatters, parseAliases, parseDefaultFields)
}

const parseHelp = `
parse
  Read raw sacct data, normalize the values, and print the records without
  any grouping.  Output records are sorted in input order.  The default
  format is 'csv'.
`

const parseDefaultFields = "JobID,Kind,User,Account,State,Elapsed,TotalCPU,ReqMem,MaxRSS"

const parseAllFields = "JobID,JobIDRaw,Kind,ParentID,User,Account,State,QOS,Partition,JobName," +
	"Comment,Rule,RuleArgs,NodeList,ExitCode,AllocCPUS,AllocNodes,ReqCPUS,ReqNodes,ElapsedRaw," +
	"Elapsed,Timelimit,TotalCPU,UserCPU,SystemCPU,CPUTimeRAW,ReqMem,MaxRSS,MaxVMSize,AveRSS," +
	"Submit,Start,End"

// MT: Constant after initialization; immutable
var parseAliases = map[string][]string{
	"default": strings.Split(parseDefaultFields, ","),
	"all":     strings.Split(parseAllFields, ","),
}

// MT: Constant after initialization; immutable
var parseFormatters = table.DefineTableFromMap(
	reflect.TypeFor[sacct.Record](),
	map[string]any{
		"JobID":      table.SimpleFormatSpec{Desc: "Composite job ID, eg 1234, 1234.batch, 1234.0"},
		"JobIDRaw":   table.SimpleFormatSpec{Desc: "Raw job ID as reported by sacct"},
		"Kind":       table.SimpleFormatSpec{Desc: "Record kind: allocation, batch, extern, step, or unknown"},
		"ParentID":   table.SimpleFormatSpec{Desc: "ID of the allocation the record belongs to"},
		"User":       table.SimpleFormatSpec{Desc: "Name of the user owning the job, often blank on steps"},
		"Account":    table.SimpleFormatSpec{Desc: "Slurm account the job runs under"},
		"State":      table.SimpleFormatSpec{Desc: "Completion state, eg COMPLETED, FAILED, TIMEOUT"},
		"QOS":        table.SimpleFormatSpec{Desc: "Quality of service"},
		"Partition":  table.SimpleFormatSpec{Desc: "Partition the job was submitted to"},
		"JobName":    table.SimpleFormatSpec{Desc: "Name of the job"},
		"Comment":    table.SimpleFormatSpec{Desc: "Raw job comment"},
		"Rule":       table.SimpleFormatSpec{Desc: "Snakemake rule extracted from the comment, if any"},
		"RuleArgs":   table.SimpleFormatSpec{Desc: "Wildcards of the snakemake rule, if any"},
		"NodeList":   table.SimpleFormatSpec{Desc: "Nodes the job ran on, blank if never scheduled"},
		"ExitCode":   table.SimpleFormatSpec{Desc: "Exit code and signal, eg 0:0"},
		"AllocCPUS":  table.SimpleFormatSpec{Desc: "Number of CPUs allocated"},
		"AllocNodes": table.SimpleFormatSpec{Desc: "Number of nodes allocated"},
		"ReqCPUS":    table.SimpleFormatSpec{Desc: "Number of CPUs requested"},
		"ReqNodes":   table.SimpleFormatSpec{Desc: "Number of nodes requested"},
		"ElapsedRaw": table.SimpleFormatSpec{Desc: "Elapsed time in seconds"},
		"Elapsed":    table.SimpleFormatSpec{Desc: "Elapsed time in seconds, from the D-HH:MM:SS rendering"},
		"Timelimit":  table.SimpleFormatSpec{Desc: "Time limit in seconds"},
		"TotalCPU":   table.SimpleFormatSpec{Desc: "Total CPU time in seconds"},
		"UserCPU":    table.SimpleFormatSpec{Desc: "User CPU time in seconds"},
		"SystemCPU":  table.SimpleFormatSpec{Desc: "System CPU time in seconds"},
		"CPUTimeRAW": table.SimpleFormatSpec{Desc: "CPU time reserved in seconds (elapsed * allocated CPUs)"},
		"ReqMem":     table.SimpleFormatSpec{Desc: "Requested memory in bytes"},
		"MaxRSS":     table.SimpleFormatSpec{Desc: "Max resident set size in bytes"},
		"MaxVMSize":  table.SimpleFormatSpec{Desc: "Max virtual memory size in bytes"},
		"AveRSS":     table.SimpleFormatSpec{Desc: "Average resident set size in bytes"},
		"Submit": table.SimpleFormatSpecWithAttr{
			Desc: "Submit time of the record", Attr: table.FmtIsoDateTimeValue},
		"Start": table.SimpleFormatSpecWithAttr{
			Desc: "Start time of the record, if it started", Attr: table.FmtIsoDateTimeValue},
		"End": table.SimpleFormatSpecWithAttr{
			Desc: "End time of the record, if it ended", Attr: table.FmtIsoDateTimeValue},
	},
)
