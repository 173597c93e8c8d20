package stats

import "math"

// ArrayStatistics summarizes a metric value array: how many slice points hold
// a value, how many are masked, and the moments of the valid values.
type ArrayStatistics struct {
	NumValues   uint64
	NumMasked   uint64
	Min         float64
	Max         float64
	ValueStats  *Welford
	firstRecord bool
}

func NewArrayStatistics() *ArrayStatistics {
	return &ArrayStatistics{
		NumValues:   0,
		NumMasked:   0,
		Min:         math.NaN(),
		Max:         math.NaN(),
		ValueStats:  NewWelford(),
		firstRecord: true,
	}
}

func (as *ArrayStatistics) Append(value float64, masked bool) {
	if masked {
		as.NumMasked++
		return
	}
	if as.firstRecord {
		as.Min = value
		as.Max = value
		as.firstRecord = false
	} else {
		as.Min = math.Min(as.Min, value)
		as.Max = math.Max(as.Max, value)
	}
	as.ValueStats.Update(value)
	as.NumValues++
}

func (as *ArrayStatistics) FractionValid() float64 {
	total := as.NumValues + as.NumMasked
	if total == 0 {
		return 0
	}
	return float64(as.NumValues) / float64(total)
}
