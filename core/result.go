package core

import (
	"strings"

	"maf/slicer"
)

// Summary is one summary statistic computed over the valid entries of a
// result.
type Summary struct {
	Name   string
	Value  float64
	Masked bool
}

// Result is a metric value array: one entry per slice point, in slice-point
// order, together with the slice-point metadata plotting needs. Masked
// entries hold BadValue in Values.
//
// For composite metrics the raw result carries Composites and no Values; each
// reduction produces its own scalar Result.
type Result struct {
	ID            string
	MetricName    string
	ReductionName string
	SlicerName    string
	Metadata      string
	Values        []float64
	Composites    []interface{}
	Mask          []bool
	BadValue      float64
	Points        slicer.SlicePoints
	Summaries     []Summary
}

// OutputID joins the non-empty naming parts of a result with underscores.
func OutputID(metricName, metadata, slicerName string) string {
	parts := make([]string, 0, 3)
	for _, part := range []string{metricName, metadata, slicerName} {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}
	return strings.Join(parts, "_")
}

// ReductionMetricName names the derived metric of a reduction.
func ReductionMetricName(metricName, reductionName string) string {
	return metricName + "_" + reductionName
}

func (r *Result) Len() int {
	return len(r.Mask)
}

func (r *Result) IsComposite() bool {
	return r.Composites != nil
}

// Filled returns the values with masked entries set to BadValue.
func (r *Result) Filled() []float64 {
	filled := make([]float64, len(r.Values))
	for i, value := range r.Values {
		if r.Mask[i] {
			value = r.BadValue
		}
		filled[i] = value
	}
	return filled
}

// Valid returns the unmasked values, in slice-point order.
func (r *Result) Valid() []float64 {
	valid := make([]float64, 0, len(r.Values))
	for i, value := range r.Values {
		if !r.Mask[i] {
			valid = append(valid, value)
		}
	}
	return valid
}

func (r *Result) CountValid() int {
	n := 0
	for _, masked := range r.Mask {
		if !masked {
			n++
		}
	}
	return n
}

func (r *Result) Summary(name string) (float64, bool) {
	for _, summary := range r.Summaries {
		if summary.Name == name && !summary.Masked {
			return summary.Value, true
		}
	}
	return 0, false
}
