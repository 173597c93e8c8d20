package metric

import (
	"sort"

	mstats "github.com/montanaflynn/stats"

	"maf/stats"
	"maf/table"
)

type VisitPairsConfig struct {
	Name      string
	TimesCol  string
	NightsCol string
	// DeltaTMin and DeltaTMax bound the separation of a pair, in days.
	DeltaTMin float64
	DeltaTMax float64
	// NPairs is the threshold of the NNightsWithPairs reduction.
	NPairs int
	// Window is the span in nights of the window reductions.
	Window int64
}

func DefaultVisitPairsConfig() VisitPairsConfig {
	return VisitPairsConfig{
		Name:      "VisitPairs",
		TimesCol:  "expMJD",
		NightsCol: "night",
		DeltaTMin: 15.0 / 60.0 / 24.0,
		DeltaTMax: 90.0 / 60.0 / 24.0,
		NPairs:    1,
		Window:    30,
	}
}

// VisitPairs is the composite result of VisitPairsMetric: for every night
// with at least one pair, the night and its pair count, ordered by night.
type VisitPairs struct {
	Pairs  []int
	Nights []int64
}

// VisitPairsMetric counts pairs of visits on the same night separated by
// between DeltaTMin and DeltaTMax.
type VisitPairsMetric struct {
	cfg    VisitPairsConfig
	badval float64
}

const pairsEpsilon = 1e-10

func NewVisitPairsMetric(cfg VisitPairsConfig) *VisitPairsMetric {
	return &VisitPairsMetric{cfg: cfg, badval: DefaultBadValue}
}

func (m *VisitPairsMetric) Name() string {
	return m.cfg.Name
}

func (m *VisitPairsMetric) Columns() []string {
	return []string{m.cfg.TimesCol, m.cfg.NightsCol}
}

func (m *VisitPairsMetric) Kind() Kind {
	return Object
}

func (m *VisitPairsMetric) BadValue() float64 {
	return m.badval
}

func (m *VisitPairsMetric) Run(s *table.Slice) Value {
	times, err := s.Floats(m.cfg.TimesCol)
	if err != nil {
		return Masked()
	}
	nights, err := s.Ints(m.cfg.NightsCol)
	if err != nil {
		return Masked()
	}

	byNight := make(map[int64][]float64)
	for i, night := range nights {
		byNight[night] = append(byNight[night], times[i])
	}
	unique := make([]int64, 0, len(byNight))
	for night := range byNight {
		unique = append(unique, night)
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i] < unique[j] })

	result := VisitPairs{Pairs: make([]int, 0), Nights: make([]int64, 0)}
	for _, night := range unique {
		pairs := m.countPairs(byNight[night])
		if pairs > 0 {
			result.Pairs = append(result.Pairs, pairs)
			result.Nights = append(result.Nights, night)
		}
	}
	if len(result.Pairs) == 0 {
		return Masked()
	}
	return Composite(result)
}

func (m *VisitPairsMetric) countPairs(times []float64) int {
	n := 0
	for _, t := range times {
		for _, other := range times {
			dt := other - t
			if dt >= m.cfg.DeltaTMin-pairsEpsilon && dt <= m.cfg.DeltaTMax {
				n++
			}
		}
	}
	return n
}

func (m *VisitPairsMetric) Reductions() []Reduction {
	return []Reduction{
		{Name: "Median", Func: m.pairsReduction(mstats.Median)},
		{Name: "Mean", Func: m.pairsReduction(mstats.Mean)},
		{Name: "Rms", Func: m.pairsReduction(func(values mstats.Float64Data) (float64, error) {
			return stats.NewWelford().UpdateAll(values).GetRMS(), nil
		})},
		{Name: "NNightsWithPairs", Func: m.nNightsWithPairs},
		{Name: "NPairsInWindow", Func: m.nPairsInWindow},
		{Name: "NNightsInWindow", Func: m.nNightsInWindow},
	}
}

func (m *VisitPairsMetric) pairsReduction(f func(mstats.Float64Data) (float64, error)) func(interface{}) (float64, bool) {
	return func(composite interface{}) (float64, bool) {
		vp, ok := composite.(VisitPairs)
		if !ok || len(vp.Pairs) == 0 {
			return 0, false
		}
		values := make([]float64, len(vp.Pairs))
		for i, pairs := range vp.Pairs {
			values[i] = float64(pairs)
		}
		result, err := f(values)
		return result, err == nil
	}
}

func (m *VisitPairsMetric) nNightsWithPairs(composite interface{}) (float64, bool) {
	vp, ok := composite.(VisitPairs)
	if !ok {
		return 0, false
	}
	n := 0
	for _, pairs := range vp.Pairs {
		if pairs >= m.cfg.NPairs {
			n++
		}
	}
	return float64(n), true
}

// nPairsInWindow is the largest number of pairs in any span of Window nights
// starting on a night with pairs.
func (m *VisitPairsMetric) nPairsInWindow(composite interface{}) (float64, bool) {
	vp, ok := composite.(VisitPairs)
	if !ok {
		return 0, false
	}
	best := 0
	for _, start := range vp.Nights {
		total := 0
		for i, night := range vp.Nights {
			if night >= start && night <= start+m.cfg.Window {
				total += vp.Pairs[i]
			}
		}
		if total > best {
			best = total
		}
	}
	return float64(best), true
}

func (m *VisitPairsMetric) nNightsInWindow(composite interface{}) (float64, bool) {
	vp, ok := composite.(VisitPairs)
	if !ok {
		return 0, false
	}
	best := 0
	for _, start := range vp.Nights {
		n := 0
		for _, night := range vp.Nights {
			if night >= start && night <= start+m.cfg.Window {
				n++
			}
		}
		if n > best {
			best = n
		}
	}
	return float64(best), true
}
