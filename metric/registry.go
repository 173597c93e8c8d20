package metric

import (
	"sort"

	"maf/errs"
	"maf/params"
)

type factory func(p params.Params) (Metric, error)

// simpleFactory builds a column metric that takes no extra parameter.
func simpleFactory(component string, build func(col string) *SimpleMetric) factory {
	return func(p params.Params) (Metric, error) {
		if err := p.Check(component, "col", "metricName", "badval"); err != nil {
			return nil, err
		}
		return withCommon(p, component, build)
	}
}

// thresholdFactory builds a column metric with one numeric parameter.
func thresholdFactory(component, key string, def float64, build func(col string, x float64) *SimpleMetric) factory {
	return func(p params.Params) (Metric, error) {
		if err := p.Check(component, "col", "metricName", "badval", key); err != nil {
			return nil, err
		}
		x, err := p.Float(key, def)
		if err != nil {
			return nil, err
		}
		return withCommon(p, component, func(col string) *SimpleMetric {
			return build(col, x)
		})
	}
}

func withCommon(p params.Params, component string, build func(col string) *SimpleMetric) (Metric, error) {
	col, err := p.String("col", "")
	if err != nil {
		return nil, err
	}
	if col == "" {
		return nil, errs.Configuration(component, "col is required")
	}
	m := build(col)
	name, err := p.String("metricName", m.Name())
	if err != nil {
		return nil, err
	}
	badval, err := p.Float("badval", m.BadValue())
	if err != nil {
		return nil, err
	}
	return m.SetName(name).SetBadValue(badval), nil
}

var registry = map[string]factory{
	"CountMetric":      simpleFactory("CountMetric", NewCountMetric),
	"SumMetric":        simpleFactory("SumMetric", NewSumMetric),
	"MeanMetric":       simpleFactory("MeanMetric", NewMeanMetric),
	"MedianMetric":     simpleFactory("MedianMetric", NewMedianMetric),
	"RmsMetric":        simpleFactory("RmsMetric", NewRmsMetric),
	"RobustRmsMetric":  simpleFactory("RobustRmsMetric", NewRobustRmsMetric),
	"MinMetric":        simpleFactory("MinMetric", NewMinMetric),
	"MaxMetric":        simpleFactory("MaxMetric", NewMaxMetric),
	"FullRangeMetric":  simpleFactory("FullRangeMetric", NewFullRangeMetric),
	"Coaddm5Metric":    simpleFactory("Coaddm5Metric", NewCoaddm5Metric),
	"IdentityMetric":   simpleFactory("IdentityMetric", NewIdentityMetric),
	"PercentileMetric": thresholdFactory("PercentileMetric", "percentile", 90, NewPercentileMetric),
	"FracAboveMetric":  thresholdFactory("FracAboveMetric", "cutoff", 0.5, NewFracAboveMetric),
	"FracBelowMetric":  thresholdFactory("FracBelowMetric", "cutoff", 0.5, NewFracBelowMetric),
	"CountRatioMetric": thresholdFactory("CountRatioMetric", "normVal", 1, NewCountRatioMetric),
	"VisitPairsMetric": newVisitPairsFromParams,
}

// New builds a metric from its registered name and construction parameters.
func New(name string, p params.Params) (Metric, error) {
	build, ok := registry[name]
	if !ok {
		return nil, errs.Configuration("metric", "unknown metric %q", name)
	}
	return build(p)
}

func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func newVisitPairsFromParams(p params.Params) (Metric, error) {
	const component = "VisitPairsMetric"
	if err := p.Check(component, "timesCol", "nightsCol", "metricName",
		"deltaTmin", "deltaTmax", "nPairs", "window", "badval"); err != nil {
		return nil, err
	}
	cfg := DefaultVisitPairsConfig()
	var err error
	if cfg.TimesCol, err = p.String("timesCol", cfg.TimesCol); err != nil {
		return nil, err
	}
	if cfg.NightsCol, err = p.String("nightsCol", cfg.NightsCol); err != nil {
		return nil, err
	}
	if cfg.Name, err = p.String("metricName", cfg.Name); err != nil {
		return nil, err
	}
	if cfg.DeltaTMin, err = p.Float("deltaTmin", cfg.DeltaTMin); err != nil {
		return nil, err
	}
	if cfg.DeltaTMax, err = p.Float("deltaTmax", cfg.DeltaTMax); err != nil {
		return nil, err
	}
	if cfg.NPairs, err = p.Int("nPairs", cfg.NPairs); err != nil {
		return nil, err
	}
	window, err := p.Int("window", int(cfg.Window))
	if err != nil {
		return nil, err
	}
	cfg.Window = int64(window)
	if cfg.DeltaTMax < cfg.DeltaTMin {
		return nil, errs.Configuration(component, "deltaTmax %v below deltaTmin %v", cfg.DeltaTMax, cfg.DeltaTMin)
	}
	m := NewVisitPairsMetric(cfg)
	if m.badval, err = p.Float("badval", m.badval); err != nil {
		return nil, err
	}
	return m, nil
}
