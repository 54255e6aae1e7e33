// Descriptive statistics over job metrics, missing-value aware.
//
// A Series accumulates the observations for one metric.  It distinguishes the number of rows
// seen from the number of values present: a missing value never contributes to any statistic,
// but the row still counts toward Rows.  Observations are retained so that the sorted statistics
// (median) and the spread (std) are exact, and so that series computed over partitions of the
// input can be merged without approximation.

package stats

import (
	"math"
	"slices"
	"sort"
	"sync"

	. "slurmuse/common"
)

type Series struct {
	rows int
	vals []float64
}

// Add records one row.  Missing values count toward Rows only.
func (s *Series) Add(v OptFloat) {
	s.rows++
	if v.Ok {
		s.vals = append(s.vals, v.Val)
	}
}

// Rows is the number of rows seen, present or not.
func (s *Series) Rows() int {
	return s.rows
}

// Count is the number of present values.
func (s *Series) Count() int {
	return len(s.vals)
}

func (s *Series) Sum() OptFloat {
	if len(s.vals) == 0 {
		return OptFloat{}
	}
	sum := 0.0
	for _, v := range s.vals {
		sum += v
	}
	return SomeFloat(sum)
}

func (s *Series) Mean() OptFloat {
	if len(s.vals) == 0 {
		return OptFloat{}
	}
	sum := s.Sum()
	return SomeFloat(sum.Val / float64(len(s.vals)))
}

// Median is the middle observation, or the mean of the two middle observations when the count
// is even.
func (s *Series) Median() OptFloat {
	n := len(s.vals)
	if n == 0 {
		return OptFloat{}
	}
	sorted := slices.Clone(s.vals)
	slices.Sort(sorted)
	if n%2 == 1 {
		return SomeFloat(sorted[n/2])
	}
	return SomeFloat((sorted[n/2-1] + sorted[n/2]) / 2)
}

func (s *Series) Min() OptFloat {
	if len(s.vals) == 0 {
		return OptFloat{}
	}
	m := s.vals[0]
	for _, v := range s.vals[1:] {
		m = math.Min(m, v)
	}
	return SomeFloat(m)
}

func (s *Series) Max() OptFloat {
	if len(s.vals) == 0 {
		return OptFloat{}
	}
	m := s.vals[0]
	for _, v := range s.vals[1:] {
		m = math.Max(m, v)
	}
	return SomeFloat(m)
}

// Std is the sample standard deviation (n-1 denominator), missing when fewer than two values
// are present.
func (s *Series) Std() OptFloat {
	n := len(s.vals)
	if n < 2 {
		return OptFloat{}
	}
	mean := s.Mean().Val
	acc := 0.0
	for _, v := range s.vals {
		d := v - mean
		acc += d * d
	}
	return SomeFloat(math.Sqrt(acc / float64(n-1)))
}

// Merge combines two series computed over disjoint partitions of the input.  Since the
// observations are retained the result is exact: the merged mean is the weighted mean of the
// partial means, and the sorted statistics come out as if the series had been built whole.
func Merge(a, b *Series) *Series {
	vals := make([]float64, 0, len(a.vals)+len(b.vals))
	vals = append(vals, a.vals...)
	vals = append(vals, b.vals...)
	return &Series{rows: a.rows + b.rows, vals: vals}
}

// A Stat names one statistic of a Series.
type Stat string

const (
	StatRows   Stat = "rows" // rows in the group, present or not
	StatCount  Stat = "count"
	StatSum    Stat = "sum"
	StatMean   Stat = "mean"
	StatMedian Stat = "median"
	StatMin    Stat = "min"
	StatMax    Stat = "max"
	StatStd    Stat = "std"
)

func (s *Series) Stat(st Stat) OptFloat {
	switch st {
	case StatRows:
		return SomeFloat(float64(s.rows))
	case StatCount:
		return SomeFloat(float64(len(s.vals)))
	case StatSum:
		return s.Sum()
	case StatMean:
		return s.Mean()
	case StatMedian:
		return s.Median()
	case StatMin:
		return s.Min()
	case StatMax:
		return s.Max()
	case StatStd:
		return s.Std()
	default:
		return OptFloat{}
	}
}

// A Metric names one value extracted per row and the statistics wanted for it.
type Metric[T any] struct {
	Name  string
	Get   func(T) OptFloat
	Stats []Stat
}

// GlobalKey is the summary group holding the statistics over all rows.
const GlobalKey = "global"

// A Summary maps group key to statistic name ("<metric>_<stat>") to value.  Statistics that
// come out missing are absent from the inner map rather than faked as zero.
type Summary map[string]map[string]float64

// Keys returns the group keys sorted, with the global group last.
func (s Summary) Keys() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		if k != GlobalKey {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	if _, ok := s[GlobalKey]; ok {
		keys = append(keys, GlobalKey)
	}
	return keys
}

// Collect builds one series per group key plus the series over all rows.  Rows with an empty
// key contribute to the global series only.
func Collect[T any](rows []T, keyOf func(T) string, get func(T) OptFloat) (byKey map[string]*Series, global *Series) {
	byKey = make(map[string]*Series)
	global = new(Series)
	for _, r := range rows {
		v := get(r)
		global.Add(v)
		k := keyOf(r)
		if k == "" {
			continue
		}
		s := byKey[k]
		if s == nil {
			s = new(Series)
			byKey[k] = s
		}
		s.Add(v)
	}
	return
}

// ByGroup computes the requested statistics per group key and for the global group.  A group
// literally named "global" is renamed "global_group" so the overall statistics always own the
// "global" key.  Groups come out only for keys that actually occur; empty keys group nowhere.
func ByGroup[T any](rows []T, keyOf func(T) string, metrics []Metric[T]) Summary {
	perKey, globals := accumulate(rows, keyOf, metrics)
	return summarize(perKey, globals, metrics)
}

// ByGroupPartitioned computes the same summary as ByGroup by splitting the rows into partitions,
// accumulating each partition in its own goroutine, and merging the partial series.  Since series
// retain their observations the merge loses nothing.
func ByGroupPartitioned[T any](
	rows []T,
	keyOf func(T) string,
	metrics []Metric[T],
	partitions int,
) Summary {
	if partitions < 2 || len(rows) < partitions {
		return ByGroup(rows, keyOf, metrics)
	}
	perKeys := make([]map[string][]*Series, partitions)
	globals := make([][]*Series, partitions)
	chunk := (len(rows) + partitions - 1) / partitions
	var wg sync.WaitGroup
	for i := 0; i < partitions; i++ {
		lo := min(i*chunk, len(rows))
		hi := min(lo+chunk, len(rows))
		wg.Add(1)
		go func(i int, part []T) {
			defer wg.Done()
			perKeys[i], globals[i] = accumulate(part, keyOf, metrics)
		}(i, rows[lo:hi])
	}
	wg.Wait()

	perKey := perKeys[0]
	global := globals[0]
	for i := 1; i < partitions; i++ {
		for k, group := range perKeys[i] {
			if prev, found := perKey[k]; found {
				for j := range metrics {
					prev[j] = Merge(prev[j], group[j])
				}
			} else {
				perKey[k] = group
			}
		}
		for j := range metrics {
			global[j] = Merge(global[j], globals[i][j])
		}
	}
	return summarize(perKey, global, metrics)
}

func accumulate[T any](
	rows []T,
	keyOf func(T) string,
	metrics []Metric[T],
) (perKey map[string][]*Series, globals []*Series) {
	perKey = make(map[string][]*Series)
	globals = make([]*Series, len(metrics))
	for i := range metrics {
		globals[i] = new(Series)
	}
	for _, r := range rows {
		k := keyOf(r)
		var group []*Series
		if k != "" {
			group = perKey[k]
			if group == nil {
				group = make([]*Series, len(metrics))
				for i := range metrics {
					group[i] = new(Series)
				}
				perKey[k] = group
			}
		}
		for i, m := range metrics {
			v := m.Get(r)
			globals[i].Add(v)
			if group != nil {
				group[i].Add(v)
			}
		}
	}
	return
}

func summarize[T any](perKey map[string][]*Series, globals []*Series, metrics []Metric[T]) Summary {
	out := make(Summary, len(perKey)+1)
	for k, group := range perKey {
		if k == GlobalKey {
			k = GlobalKey + "_group"
		}
		out[k] = emit(group, metrics)
	}
	out[GlobalKey] = emit(globals, metrics)
	return out
}

func emit[T any](group []*Series, metrics []Metric[T]) map[string]float64 {
	row := make(map[string]float64)
	for i, m := range metrics {
		for _, st := range m.Stats {
			if v := group[i].Stat(st); v.Ok {
				row[m.Name+"_"+string(st)] = v.Val
			}
		}
	}
	return row
}
