package core

import (
	"context"
	"sort"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"maf/errs"
	"maf/metric"
	"maf/slicer"
	"maf/table"
)

type metricEntry struct {
	metric    metric.Metric
	summaries []metric.Metric
}

// SliceMetric evaluates a set of metrics over every slice point of one slicer
// and computes their summary statistics. Output identifiers are checked for
// conflicts before any data is touched.
type SliceMetric struct {
	cfg      *StoreConfig
	slicer   slicer.Slicer
	logger   log.Logger
	metrics  *Metrics
	metadata string

	entries []*metricEntry
	results []*Result
	byID    map[string]*Result
	ran     bool
}

func NewSliceMetric(cfg *StoreConfig, s slicer.Slicer, logger log.Logger, metrics *Metrics) *SliceMetric {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &SliceMetric{
		cfg:     cfg,
		slicer:  s,
		logger:  cfg.Logger(logger),
		metrics: metrics,
		entries: make([]*metricEntry, 0),
	}
}

// AddMetric queues m with its summary statistics. Summary metrics read the
// metric.SummaryColumn column.
func (sm *SliceMetric) AddMetric(m metric.Metric, summaries ...metric.Metric) *SliceMetric {
	sm.entries = append(sm.entries, &metricEntry{metric: m, summaries: summaries})
	return sm
}

// SetMetadata sets the grouping metadata (typically the SQL constraint) that
// becomes part of every output identifier.
func (sm *SliceMetric) SetMetadata(metadata string) *SliceMetric {
	sm.metadata = metadata
	return sm
}

func (sm *SliceMetric) component(m metric.Metric) string {
	return m.Name() + "/" + sm.slicer.Name()
}

// outputNames lists the metric name of every array m produces: its own, then
// one per reduction for composite metrics.
func outputNames(m metric.Metric) []string {
	out := []string{m.Name()}
	if cm, ok := m.(metric.ComplexMetric); ok && m.Kind() == metric.Object {
		for _, reduction := range cm.Reductions() {
			out = append(out, ReductionMetricName(m.Name(), reduction.Name))
		}
	}
	return out
}

func (sm *SliceMetric) Validate() error {
	if sm.slicer == nil {
		return errs.Configuration("SliceMetric", "a slicer is required")
	}
	if len(sm.entries) == 0 {
		return errs.Configuration("SliceMetric", "no metrics to evaluate with %s", sm.slicer.Name())
	}
	if err := sm.cfg.Validate(); err != nil {
		return err
	}

	owners := make(map[string]string)
	for _, entry := range sm.entries {
		m := entry.metric
		if m == nil || m.Name() == "" {
			return errs.Configuration("SliceMetric", "metrics need a non-empty name")
		}
		if cm, ok := m.(metric.ComplexMetric); ok && m.Kind() == metric.Object {
			for _, reduction := range cm.Reductions() {
				if reduction.Name == "" || reduction.Func == nil {
					return errs.Configuration(sm.component(m), "reductions need a name and a function")
				}
			}
		}
		for _, name := range outputNames(m) {
			id := OutputID(name, sm.metadata, sm.slicer.Name())
			if owner, ok := owners[id]; ok {
				return errs.NamingConflict(sm.component(m),
					"output %q is also produced by %s", id, owner)
			}
			owners[id] = sm.component(m)
		}

		seen := make(map[string]bool, len(entry.summaries))
		for _, summary := range entry.summaries {
			if summary == nil {
				return errs.Configuration(sm.component(m), "nil summary metric")
			}
			if seen[summary.Name()] {
				return errs.NamingConflict(sm.component(m), "summary statistic %q given twice", summary.Name())
			}
			seen[summary.Name()] = true
			cols := summary.Columns()
			if len(cols) != 1 || cols[0] != metric.SummaryColumn || summary.Kind() != metric.Float {
				return errs.Configuration(sm.component(m),
					"summary statistic %q must be a float metric of column %q", summary.Name(), metric.SummaryColumn)
			}
		}
	}
	return nil
}

// OutputIDs lists the identifier of every result Run will produce, in order.
func (sm *SliceMetric) OutputIDs() []string {
	ids := make([]string, 0, len(sm.entries))
	if sm.slicer == nil {
		return ids
	}
	for _, entry := range sm.entries {
		if entry.metric == nil {
			continue
		}
		for _, name := range outputNames(entry.metric) {
			ids = append(ids, OutputID(name, sm.metadata, sm.slicer.Name()))
		}
	}
	return ids
}

// CheckOutputs validates every slice metric and rejects any output
// identifier produced by more than one of them. Results of slice metrics that
// pass share one run without overwriting each other.
func CheckOutputs(sms ...*SliceMetric) error {
	owners := make(map[string]int)
	for i, sm := range sms {
		if err := sm.Validate(); err != nil {
			return err
		}
		for _, id := range sm.OutputIDs() {
			if j, ok := owners[id]; ok {
				return errs.NamingConflict("SliceMetric",
					"output %q is produced by slice metrics %d and %d", id, j, i)
			}
			owners[id] = i
		}
	}
	return nil
}

// RequiredColumns is the sorted union of the columns a slicer and metrics read.
func RequiredColumns(s slicer.Slicer, metrics ...metric.Metric) []string {
	seen := make(map[string]bool)
	cols := make([]string, 0)
	add := func(names []string) {
		for _, name := range names {
			if name != "" && !seen[name] {
				seen[name] = true
				cols = append(cols, name)
			}
		}
	}
	if s != nil {
		add(s.Columns())
	}
	for _, m := range metrics {
		add(m.Columns())
	}
	sort.Strings(cols)
	return cols
}

func (sm *SliceMetric) Metrics() []metric.Metric {
	out := make([]metric.Metric, len(sm.entries))
	for i, entry := range sm.entries {
		out[i] = entry.metric
	}
	return out
}

// Run sets the slicer up on data and evaluates every metric at every slice
// point. Metric values for one slice point are independent of every other, so
// Workers > 1 evaluates slice points concurrently.
func (sm *SliceMetric) Run(ctx context.Context, data *table.Table) error {
	start := time.Now()
	if err := sm.Validate(); err != nil {
		return err
	}
	metrics := sm.Metrics()
	cols := RequiredColumns(nil, metrics...)
	if err := data.Require("SliceMetric", cols...); err != nil {
		return err
	}
	if err := sm.slicer.Setup(data); err != nil {
		return err
	}

	n := sm.slicer.Len()
	values := make([][]metric.Value, len(metrics))
	for i := range values {
		values[i] = make([]metric.Value, n)
	}

	cache, err := sm.newCache()
	if err != nil {
		return err
	}
	if cache != nil {
		defer cache.Close()
	}

	evaluate := func(i int) error {
		point, err := sm.slicer.SliceAt(i)
		if err != nil {
			return err
		}
		var computed []metric.Value
		switch {
		case len(point.Indices) == 0:
			computed = maskedValues(len(metrics))
		case cache != nil:
			computed = cache.GetOrCompute(point.Indices, func() []metric.Value {
				return runAll(metrics, data.Slice(point.Indices))
			})
		default:
			computed = runAll(metrics, data.Slice(point.Indices))
		}
		for m := range metrics {
			values[m][i] = computed[m]
		}
		return nil
	}

	if sm.cfg.Workers <= 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := evaluate(i); err != nil {
				return err
			}
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(sm.cfg.Workers)
		for i := 0; i < n; i++ {
			if gctx.Err() != nil {
				break
			}
			i := i
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				return evaluate(i)
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
	}
	sm.metrics.slicePoints.WithLabelValues(sm.slicer.Name()).Add(float64(n))

	sm.results = make([]*Result, 0)
	sm.byID = make(map[string]*Result)
	for m, entry := range sm.entries {
		for _, result := range sm.collect(entry, values[m]) {
			sm.results = append(sm.results, result)
			sm.byID[result.ID] = result
		}
	}
	sm.ran = true

	elapsed := time.Since(start)
	sm.metrics.runDuration.Observe(elapsed.Seconds())
	level.Info(sm.logger).Log("msg", "slice metric run complete", "slicer", sm.slicer.Name(),
		"slice_points", n, "metrics", len(metrics), "results", len(sm.results), "duration", elapsed)
	return nil
}

func (sm *SliceMetric) newCache() (*ComputationCache, error) {
	if !sm.cfg.CacheEnabled {
		return nil, nil
	}
	size := sm.cfg.CacheSize
	if size == 0 {
		size = sm.slicer.CacheSize()
	}
	if size == 0 {
		return nil, nil
	}
	level.Debug(sm.logger).Log("msg", "computation cache enabled", "slicer", sm.slicer.Name(), "size", size)
	return NewComputationCache(size, sm.metrics)
}

func maskedValues(n int) []metric.Value {
	out := make([]metric.Value, n)
	for i := range out {
		out[i] = metric.Masked()
	}
	return out
}

func runAll(metrics []metric.Metric, s *table.Slice) []metric.Value {
	out := make([]metric.Value, len(metrics))
	for i, m := range metrics {
		out[i] = m.Run(s)
	}
	return out
}

func (sm *SliceMetric) newResult(metricName, reductionName string, n int) *Result {
	return &Result{
		ID:            OutputID(metricName, sm.metadata, sm.slicer.Name()),
		MetricName:    metricName,
		ReductionName: reductionName,
		SlicerName:    sm.slicer.Name(),
		Metadata:      sm.metadata,
		Mask:          make([]bool, n),
		BadValue:      sm.slicer.BadValue(),
		Points:        sm.slicer.Points(),
		Summaries:     make([]Summary, 0),
	}
}

// collect turns the raw values of one metric into its results: one scalar
// array for float metrics, or the composite array plus one scalar array per
// reduction.
func (sm *SliceMetric) collect(entry *metricEntry, values []metric.Value) []*Result {
	m := entry.metric
	n := len(values)
	masked := 0

	if m.Kind() == metric.Float {
		result := sm.newResult(m.Name(), "", n)
		result.Values = make([]float64, n)
		for i, value := range values {
			if metric.IsMasked(m, value) {
				result.Mask[i] = true
				result.Values[i] = result.BadValue
				masked++
			} else {
				result.Values[i] = value.Scalar
			}
		}
		sm.metrics.maskedValues.WithLabelValues(m.Name()).Add(float64(masked))
		sm.summarize(result, entry.summaries)
		return []*Result{result}
	}

	raw := sm.newResult(m.Name(), "", n)
	raw.Composites = make([]interface{}, n)
	for i, value := range values {
		if metric.IsMasked(m, value) {
			raw.Mask[i] = true
			masked++
		} else {
			raw.Composites[i] = value.Composite
		}
	}
	sm.metrics.maskedValues.WithLabelValues(m.Name()).Add(float64(masked))
	results := []*Result{raw}

	cm, ok := m.(metric.ComplexMetric)
	if !ok {
		return results
	}
	for _, reduction := range cm.Reductions() {
		result := sm.newResult(ReductionMetricName(m.Name(), reduction.Name), reduction.Name, n)
		result.Values = make([]float64, n)
		for i := range values {
			result.Values[i] = result.BadValue
			if raw.Mask[i] {
				result.Mask[i] = true
				continue
			}
			reduced, ok := reduction.Func(raw.Composites[i])
			if !ok {
				result.Mask[i] = true
				continue
			}
			result.Values[i] = reduced
		}
		sm.summarize(result, entry.summaries)
		results = append(results, result)
	}
	return results
}

// summarize applies every summary statistic to the valid values of result. A
// single slice-point run without summaries reports the value itself.
func (sm *SliceMetric) summarize(result *Result, summaries []metric.Metric) {
	if len(summaries) == 0 {
		if _, uni := sm.slicer.(*slicer.UniSlicer); !uni {
			return
		}
		summaries = []metric.Metric{metric.NewIdentityMetric(metric.SummaryColumn)}
	}
	data := table.FromFloats(metric.SummaryColumn, result.Valid())
	for _, summary := range summaries {
		value := summary.Run(data.All())
		masked := metric.IsMasked(summary, value)
		result.Summaries = append(result.Summaries, Summary{
			Name:   summary.Name(),
			Value:  value.Scalar,
			Masked: masked,
		})
	}
}

func (sm *SliceMetric) Results() []*Result {
	return sm.results
}

func (sm *SliceMetric) Result(id string) (*Result, error) {
	if !sm.ran {
		return nil, errs.State("SliceMetric", "results requested before run")
	}
	result, ok := sm.byID[id]
	if !ok {
		return nil, errs.NotFound("SliceMetric", "no result %q", id)
	}
	return result, nil
}
