package core

import (
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"gonum.org/v1/gonum/floats"

	"maf/errs"
	"maf/stats"
	"maf/utils"
)

// Comparator gathers results of independent runs under distinct labels for
// joint statistics, such as overlaid histograms of one metric across survey
// simulations.
type Comparator struct {
	db      *DB
	logger  log.Logger
	labels  []string
	results map[string]*Result
}

func NewComparator(db *DB, logger log.Logger) *Comparator {
	return &Comparator{
		db:      db,
		logger:  utils.OrNop(logger),
		labels:  make([]string, 0),
		results: make(map[string]*Result),
	}
}

// Load reads resultID of the named run and adds it under the run name, or
// under runName/resultID once the run name is taken. A result that cannot be
// located is skipped with a warning.
func (c *Comparator) Load(runName, resultID string) bool {
	if c.db == nil {
		level.Warn(c.logger).Log("msg", "no results database to load from", "run", runName, "result", resultID)
		return false
	}
	run, err := c.db.FindRun(runName)
	if err != nil {
		level.Warn(c.logger).Log("msg", "skipping result of unknown run", "run", runName, "result", resultID)
		return false
	}
	result, err := c.db.ReadResult(run.ID, resultID)
	if err != nil {
		level.Warn(c.logger).Log("msg", "skipping missing result", "run", runName, "result", resultID, "err", err)
		return false
	}
	label := runName
	if _, taken := c.results[label]; taken {
		label = runName + "/" + resultID
	}
	if err := c.Add(label, result); err != nil {
		level.Warn(c.logger).Log("msg", "skipping result", "run", runName, "result", resultID, "err", err)
		return false
	}
	return true
}

func (c *Comparator) Add(label string, r *Result) error {
	if r == nil {
		return errs.Configuration("Comparator", "nil result for %q", label)
	}
	if r.IsComposite() {
		return errs.Configuration("Comparator", "composite result %q cannot be compared; use a reduction", r.ID)
	}
	if _, taken := c.results[label]; taken {
		return errs.NamingConflict("Comparator", "label %q already used", label)
	}
	c.labels = append(c.labels, label)
	c.results[label] = r
	return nil
}

// Labels returns the labels in the order results were added.
func (c *Comparator) Labels() []string {
	return append([]string(nil), c.labels...)
}

func (c *Comparator) Results() []*Result {
	out := make([]*Result, len(c.labels))
	for i, label := range c.labels {
		out[i] = c.results[label]
	}
	return out
}

// Compatible reports whether every result shares one slice-point layout, so
// entries can be compared point by point.
func (c *Comparator) Compatible() bool {
	if len(c.labels) < 2 {
		return true
	}
	first := c.results[c.labels[0]]
	for _, label := range c.labels[1:] {
		r := c.results[label]
		if r.Len() != first.Len() || r.Points.Kind != first.Points.Kind || r.Points.Nside != first.Points.Nside {
			return false
		}
		if len(r.Points.Bins) != len(first.Points.Bins) ||
			(len(r.Points.Bins) > 0 && !floats.Equal(r.Points.Bins, first.Points.Bins)) {
			return false
		}
	}
	return true
}

// Histograms counts the valid values of every result over shared bin edges,
// one count slice per label. Nil edges span the combined range of all results
// with a Sturges bin count.
func (c *Comparator) Histograms(edges []float64) (map[string][]int, []float64, error) {
	if edges == nil {
		edges = c.defaultEdges()
	}
	if len(edges) < 2 || !stats.IsMonotonic(edges) {
		return nil, nil, errs.Configuration("Comparator", "histogram edges must be increasing")
	}
	out := make(map[string][]int, len(c.labels))
	for _, label := range c.labels {
		out[label] = stats.Histogram(c.results[label].Valid(), edges)
	}
	return out, edges, nil
}

func (c *Comparator) defaultEdges() []float64 {
	combined := make([]float64, 0)
	for _, label := range c.labels {
		combined = append(combined, c.results[label].Valid()...)
	}
	lo, hi, ok := stats.MinMax(combined)
	if !ok {
		return []float64{0, 1}
	}
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	return floats.Span(make([]float64, stats.SturgesBins(len(combined))+1), lo, hi)
}

// SummaryRow is one line of a run comparison table.
type SummaryRow struct {
	Label         string
	ResultID      string
	FractionValid float64
	Mean          float64
	Min           float64
	Max           float64
	Summaries     []Summary
}

func (c *Comparator) SummaryTable() []SummaryRow {
	rows := make([]SummaryRow, 0, len(c.labels))
	for _, label := range c.labels {
		r := c.results[label]
		as := stats.NewArrayStatistics()
		for i, value := range r.Values {
			as.Append(value, r.Mask[i])
		}
		rows = append(rows, SummaryRow{
			Label:         label,
			ResultID:      r.ID,
			FractionValid: as.FractionValid(),
			Mean:          as.ValueStats.GetMean(),
			Min:           as.Min,
			Max:           as.Max,
			Summaries:     r.Summaries,
		})
	}
	return rows
}

// Difference returns a minus b point by point. An entry is masked when it is
// masked in either input.
func (c *Comparator) Difference(a, b string) (*Result, error) {
	ra, ok := c.results[a]
	if !ok {
		return nil, errs.NotFound("Comparator", "no result labelled %q", a)
	}
	rb, ok := c.results[b]
	if !ok {
		return nil, errs.NotFound("Comparator", "no result labelled %q", b)
	}
	if ra.Len() != rb.Len() || ra.Points.Kind != rb.Points.Kind {
		return nil, errs.Configuration("Comparator", "results %q and %q have different slice points", a, b)
	}
	out := &Result{
		ID:            OutputID(ra.MetricName+"_diff", ra.Metadata, ra.SlicerName),
		MetricName:    ra.MetricName + "_diff",
		ReductionName: ra.ReductionName,
		SlicerName:    ra.SlicerName,
		Metadata:      ra.Metadata,
		Values:        make([]float64, ra.Len()),
		Mask:          make([]bool, ra.Len()),
		BadValue:      ra.BadValue,
		Points:        ra.Points,
		Summaries:     make([]Summary, 0),
	}
	for i := range out.Values {
		if ra.Mask[i] || rb.Mask[i] {
			out.Mask[i] = true
			out.Values[i] = out.BadValue
			continue
		}
		out.Values[i] = ra.Values[i] - rb.Values[i]
	}
	return out, nil
}
