package metric

import (
	"maf/table"
)

// DefaultBadValue is returned in place of a result that cannot be computed.
const DefaultBadValue = -666.0

// SummaryColumn names the single column of the table a summary statistic runs
// over: the valid entries of one metric value array.
const SummaryColumn = "metricdata"

type Kind int

const (
	Float Kind = iota
	Object
)

func (k Kind) String() string {
	if k == Object {
		return "object"
	}
	return "float"
}

// Value is the result of running a metric on one slice point. Exactly one of
// Scalar or Composite is meaningful, selected by the metric's Kind, unless
// Masked is set.
type Value struct {
	Scalar    float64
	Composite interface{}
	Masked    bool
}

func Scalar(v float64) Value {
	return Value{Scalar: v}
}

func Composite(v interface{}) Value {
	return Value{Composite: v}
}

func Masked() Value {
	return Value{Masked: true}
}

// Metric computes one value from the rows of a slice point. Columns is known
// before any data is seen. Run must not keep per-call state and returns a
// masked value, never an error, when the slice cannot be evaluated.
type Metric interface {
	Name() string
	Columns() []string
	Kind() Kind
	BadValue() float64
	Run(s *table.Slice) Value
}

// Reduction derives one scalar from a composite result. ok=false masks the
// derived entry.
type Reduction struct {
	Name string
	Func func(composite interface{}) (value float64, ok bool)
}

// ComplexMetric returns composite values and declares the reductions that
// collapse them.
type ComplexMetric interface {
	Metric
	Reductions() []Reduction
}

// IsMasked reports whether v should be treated as missing for metric m: either
// explicitly masked or a scalar equal to the metric's bad value.
func IsMasked(m Metric, v Value) bool {
	if v.Masked {
		return true
	}
	if m.Kind() == Float {
		return v.Scalar == m.BadValue()
	}
	return v.Composite == nil
}
