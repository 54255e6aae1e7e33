package slurmjobs

import (
	. "slurmuse/common"
)

// Annotate fills in the derived metrics of a merged job.  Every metric is missing when an
// operand is missing or a denominator is zero; nothing here ever produces NaN, Inf or a
// substituted zero, since a fake value would poison every statistic computed downstream.
func Annotate(j *Job) {
	if j.MaxRSS.Ok {
		j.MaxRSSGB = SomeFloat(float64(j.MaxRSS.Val) / (1 << 30))
	}
	if j.MaxRSS.Ok && j.ReqMem.Ok && j.ReqMem.Val != 0 {
		j.MemEfficiencyPercent = SomeFloat(100 * float64(j.MaxRSS.Val) / float64(j.ReqMem.Val))
	}
	if j.TotalCPU.Ok && j.ElapsedRaw.Ok && j.AllocCPUS.Ok {
		if denom := j.ElapsedRaw.Val * j.AllocCPUS.Val; denom != 0 {
			j.CPUEfficiencyPercent = SomeFloat(100 * float64(j.TotalCPU.Val) / float64(denom))
		}
	}
	if j.Submit.Ok && j.Start.Ok {
		j.WaitTimeSeconds = SomeInt(j.Start.Val - j.Submit.Val)
	}
}
