package daily

import (
	"time"

	. "slurmuse/common"
	"slurmuse/slurmjobs"
	"slurmuse/stats"
)

// Metrics computes the daily utilization summary for one day: per QOS and globally, the CPU
// seconds consumed and their share of the cluster's daily CPU capacity, the memory-seconds
// (GB of max resident memory times elapsed seconds) and their share of the memory capacity,
// and the queue-wait statistics.  Only jobs that actually ran on the day participate.
//
// Sums cover the jobs whose operands are present; a group where no job reports a metric has
// that key absent from its row rather than a fabricated zero.
func Metrics(jobs []*slurmjobs.Job, day time.Time, capacity Capacity) stats.Summary {
	active := make([]*slurmjobs.Job, 0, len(jobs))
	for _, j := range jobs {
		if HoursOnDay(j.Start, j.End, day) > 0 {
			active = append(active, j)
		}
	}
	qosOf := func(j *slurmjobs.Job) string { return j.QOS }
	cpuByQos, cpuGlobal := stats.Collect(active, qosOf,
		func(j *slurmjobs.Job) OptFloat { return j.TotalCPU.Float() })
	gbByQos, gbGlobal := stats.Collect(active, qosOf,
		func(j *slurmjobs.Job) OptFloat { return gbSeconds(j) })
	waitByQos, waitGlobal := stats.Collect(active, qosOf,
		func(j *slurmjobs.Job) OptFloat { return j.WaitTimeSeconds.Float() })

	out := make(stats.Summary, len(cpuByQos)+1)
	for qos, cpu := range cpuByQos {
		key := qos
		if key == stats.GlobalKey {
			key = stats.GlobalKey + "_group"
		}
		out[key] = metricsRow(cpu, gbByQos[qos], waitByQos[qos], capacity)
	}
	out[stats.GlobalKey] = metricsRow(cpuGlobal, gbGlobal, waitGlobal, capacity)
	return out
}

func metricsRow(cpu, gb, wait *stats.Series, capacity Capacity) map[string]float64 {
	row := map[string]float64{
		"jobs": float64(cpu.Rows()),
	}
	if sum := cpu.Sum(); sum.Ok {
		row["cpu_seconds"] = sum.Val
		row["cpu_hours"] = sum.Val / 3600
		if capacity.CPUSecondsPerDay > 0 {
			row["cpu_capacity_pct"] = 100 * sum.Val / capacity.CPUSecondsPerDay
		}
	}
	if sum := gb.Sum(); sum.Ok {
		row["gb_seconds"] = sum.Val
		if capacity.GBSecondsPerDay > 0 {
			row["gb_capacity_pct"] = 100 * sum.Val / capacity.GBSecondsPerDay
		}
	}
	if v := wait.Mean(); v.Ok {
		row["wait_mean"] = v.Val
	}
	if v := wait.Median(); v.Ok {
		row["wait_median"] = v.Val
	}
	if v := wait.Min(); v.Ok {
		row["wait_min"] = v.Val
	}
	if v := wait.Max(); v.Ok {
		row["wait_max"] = v.Val
	}
	return row
}

func gbSeconds(j *slurmjobs.Job) OptFloat {
	if !j.MaxRSS.Ok || !j.ElapsedRaw.Ok {
		return OptFloat{}
	}
	return SomeFloat(float64(j.MaxRSS.Val) / (1 << 30) * float64(j.ElapsedRaw.Val))
}
