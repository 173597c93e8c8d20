package params

import (
	"fmt"
	"math"
	"sort"

	"maf/errs"
)

// Params carries construction parameters for registry lookups, e.g. decoded
// from a YAML document. Getters fail with a configuration error when a value
// has the wrong type.
type Params map[string]interface{}

func (p Params) Has(key string) bool {
	_, ok := p[key]
	return ok
}

// Check rejects keys outside allowed.
func (p Params) Check(component string, allowed ...string) error {
	known := make(map[string]bool, len(allowed))
	for _, key := range allowed {
		known[key] = true
	}
	unknown := make([]string, 0)
	for key := range p {
		if !known[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return errs.Configuration(component, "unknown parameters %v", unknown)
	}
	return nil
}

func (p Params) String(key, def string) (string, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	value, ok := raw.(string)
	if !ok {
		return "", typeError(key, "string", raw)
	}
	return value, nil
}

func (p Params) Bool(key string, def bool) (bool, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	value, ok := raw.(bool)
	if !ok {
		return false, typeError(key, "bool", raw)
	}
	return value, nil
}

func (p Params) Float(key string, def float64) (float64, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	value, ok := toFloat(raw)
	if !ok {
		return 0, typeError(key, "number", raw)
	}
	return value, nil
}

// OptionalFloat returns nil when key is absent.
func (p Params) OptionalFloat(key string) (*float64, error) {
	if !p.Has(key) {
		return nil, nil
	}
	value, err := p.Float(key, 0)
	if err != nil {
		return nil, err
	}
	return &value, nil
}

func (p Params) Int(key string, def int) (int, error) {
	raw, ok := p[key]
	if !ok {
		return def, nil
	}
	value, ok := toFloat(raw)
	if !ok || value != math.Trunc(value) {
		return 0, typeError(key, "integer", raw)
	}
	return int(value), nil
}

func (p Params) Floats(key string) ([]float64, error) {
	raw, ok := p[key]
	if !ok {
		return nil, nil
	}
	switch values := raw.(type) {
	case []float64:
		out := make([]float64, len(values))
		copy(out, values)
		return out, nil
	case []interface{}:
		out := make([]float64, len(values))
		for i, item := range values {
			value, ok := toFloat(item)
			if !ok {
				return nil, typeError(fmt.Sprintf("%s[%d]", key, i), "number", item)
			}
			out[i] = value
		}
		return out, nil
	default:
		return nil, typeError(key, "list of numbers", raw)
	}
}

func toFloat(raw interface{}) (float64, bool) {
	switch value := raw.(type) {
	case float64:
		return value, true
	case float32:
		return float64(value), true
	case int:
		return float64(value), true
	case int64:
		return float64(value), true
	case int32:
		return float64(value), true
	case uint64:
		return float64(value), true
	default:
		return 0, false
	}
}

func typeError(key, expected string, raw interface{}) error {
	return errs.Configuration("params", "%s: expected %s, got %T", key, expected, raw)
}
