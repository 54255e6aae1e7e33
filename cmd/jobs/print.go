package jobs

import (
	"reflect"
	"strings"

	"slurmuse/slurmjobs"
	"slurmuse/table"
)

func (jc *JobsCommand) MaybeFormatHelp() *table.FormatHelp {
	return table.StandardFormatHelp(jc.Fmt, jobsHelp, jobsFormatters, jobsAliases, jobsDefaultFields)
}

const jobsHelp = `
jobs
  Group sacct records under their allocations and print one merged record
  per job.  Numeric fields are the max across the rows of the job, string
  fields the first value reported; Step* and Alloc* variants restrict the
  aggregation to step rows resp. the allocation row.  The default format
  is 'fixed'.
`

const jobsDefaultFields = "JobID,User,Account,State,Elapsed,rcpu,rmem"

const jobsAllFields = "JobID,User,Account,State,QOS,Partition,JobName,Comment,Rule,RuleArgs," +
	"NodeList,ExitCode,AllocCPUS,AllocNodes,ReqCPUS,ReqNodes,ElapsedRaw,Elapsed,Timelimit," +
	"TotalCPU,UserCPU,SystemCPU,CPUTimeRAW,ReqMem,MaxRSS,MaxVMSize,AveRSS,Submit,Start,End," +
	"StepMaxRSS,StepTotalCPU,StepElapsedRaw,AllocReqMem,AllocQOS,AllocComment,MaxRSSGB," +
	"MemEfficiencyPercent,CPUEfficiencyPercent,WaitTimeSeconds"

// MT: Constant after initialization; immutable
var jobsAliases = map[string][]string{
	"default": strings.Split(jobsDefaultFields, ","),
	"all":     strings.Split(jobsAllFields, ","),
}

// MT: Constant after initialization; immutable
var jobsFormatters = table.DefineTableFromMap(
	reflect.TypeFor[slurmjobs.Job](),
	map[string]any{
		"JobID":      table.SimpleFormatSpec{Desc: "ID of the allocation root"},
		"User":       table.SimpleFormatSpec{Desc: "Name of the user owning the job"},
		"Account":    table.SimpleFormatSpec{Desc: "Slurm account the job runs under"},
		"State":      table.SimpleFormatSpec{Desc: "Completion state, eg COMPLETED, FAILED, TIMEOUT"},
		"QOS":        table.SimpleFormatSpec{Desc: "Quality of service"},
		"Partition":  table.SimpleFormatSpec{Desc: "Partition the job was submitted to"},
		"JobName":    table.SimpleFormatSpec{Desc: "Name of the job"},
		"Comment":    table.SimpleFormatSpec{Desc: "Job comment, first value reported"},
		"Rule":       table.SimpleFormatSpec{Desc: "Snakemake rule extracted from the comment, if any"},
		"RuleArgs":   table.SimpleFormatSpec{Desc: "Wildcards of the snakemake rule, if any"},
		"NodeList":   table.SimpleFormatSpec{Desc: "Nodes the job ran on"},
		"ExitCode":   table.SimpleFormatSpec{Desc: "Exit code and signal, eg 0:0"},
		"AllocCPUS":  table.SimpleFormatSpec{Desc: "Number of CPUs allocated, max across rows"},
		"AllocNodes": table.SimpleFormatSpec{Desc: "Number of nodes allocated, max across rows"},
		"ReqCPUS":    table.SimpleFormatSpec{Desc: "Number of CPUs requested, max across rows"},
		"ReqNodes":   table.SimpleFormatSpec{Desc: "Number of nodes requested, max across rows"},
		"ElapsedRaw": table.SimpleFormatSpec{Desc: "Elapsed time in seconds, max across rows"},
		"Elapsed":    table.SimpleFormatSpec{Desc: "Elapsed time in seconds from D-HH:MM:SS, max across rows"},
		"Timelimit":  table.SimpleFormatSpec{Desc: "Time limit in seconds"},
		"TotalCPU":   table.SimpleFormatSpec{Desc: "Total CPU time in seconds, max across rows"},
		"UserCPU":    table.SimpleFormatSpec{Desc: "User CPU time in seconds, max across rows"},
		"SystemCPU":  table.SimpleFormatSpec{Desc: "System CPU time in seconds, max across rows"},
		"CPUTimeRAW": table.SimpleFormatSpec{Desc: "CPU time reserved in seconds, max across rows"},
		"ReqMem":     table.SimpleFormatSpec{Desc: "Requested memory in bytes, max across rows"},
		"MaxRSS":     table.SimpleFormatSpec{Desc: "Max resident set size in bytes across all rows"},
		"MaxVMSize":  table.SimpleFormatSpec{Desc: "Max virtual memory size in bytes across all rows"},
		"AveRSS":     table.SimpleFormatSpec{Desc: "Average resident set size in bytes, max across rows"},
		"Submit": table.SimpleFormatSpecWithAttr{
			Desc: "Submit time of the job", Attr: table.FmtIsoDateTimeValue},
		"Start": table.SimpleFormatSpecWithAttr{
			Desc: "Start time of the job, if it started", Attr: table.FmtIsoDateTimeValue},
		"End": table.SimpleFormatSpecWithAttr{
			Desc: "End time of the job, if it ended", Attr: table.FmtIsoDateTimeValue},
		"StepMaxRSS":     table.SimpleFormatSpec{Desc: "Max resident set size in bytes across step rows only"},
		"StepTotalCPU":   table.SimpleFormatSpec{Desc: "Total CPU time in seconds, max across step rows only"},
		"StepElapsedRaw": table.SimpleFormatSpec{Desc: "Elapsed time in seconds, max across step rows only"},
		"AllocReqMem":    table.SimpleFormatSpec{Desc: "Requested memory in bytes on the allocation row"},
		"AllocQOS":       table.SimpleFormatSpec{Desc: "Quality of service on the allocation row"},
		"AllocComment":   table.SimpleFormatSpec{Desc: "Comment on the allocation row"},
		"MaxRSSGB":       table.SimpleFormatSpec{Desc: "Max resident set size in GB", Aliases: "MemGB"},
		"MemEfficiencyPercent": table.SimpleFormatSpec{
			Desc: "Percent memory utilization: 100*MaxRSS/ReqMem", Aliases: "rmem"},
		"CPUEfficiencyPercent": table.SimpleFormatSpec{
			Desc: "Percent cpu utilization: 100*TotalCPU/(ElapsedRaw*AllocCPUS)", Aliases: "rcpu"},
		"WaitTimeSeconds": table.SimpleFormatSpec{
			Desc: "Wait time of the job (start - submit), in seconds", Aliases: "Wait"},
	},
)
