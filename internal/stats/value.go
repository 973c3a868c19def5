package stats

import (
	"math"
	"strconv"
)

// Value is a float64 that may be absent. It is the "no data" marker for
// indices that could not be computed, and it is never folded into arithmetic.
type Value struct {
	v  float64
	ok bool
}

// NoData is the absent Value.
var NoData = Value{}

// Some wraps a computed value. Non-finite inputs are treated as NoData.
func Some(v float64) Value {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NoData
	}
	return Value{v: v, ok: true}
}

// Get returns the value and whether it is present.
func (v Value) Get() (float64, bool) {
	return v.v, v.ok
}

// Valid reports whether the value is present.
func (v Value) Valid() bool {
	return v.ok
}

// Or returns the value, or fallback when absent.
func (v Value) Or(fallback float64) float64 {
	if !v.ok {
		return fallback
	}
	return v.v
}

// Scale multiplies a present value by f.
func (v Value) Scale(f float64) Value {
	if !v.ok {
		return NoData
	}
	return Some(v.v * f)
}

// Round rounds a present value to the given number of decimal places.
func (v Value) Round(places int) Value {
	if !v.ok {
		return NoData
	}
	return Some(Round(v.v, places))
}

// String formats the value for tabular output; absent values are empty.
func (v Value) String() string {
	if !v.ok {
		return ""
	}
	return strconv.FormatFloat(v.v, 'f', -1, 64)
}

// Present returns the present values of vs, in order.
func Present(vs []Value) []float64 {
	out := make([]float64, 0, len(vs))
	for _, v := range vs {
		if v.ok {
			out = append(out, v.v)
		}
	}
	return out
}
