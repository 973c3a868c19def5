package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Mean returns the arithmetic mean of the present values, or NoData if there are none.
func Mean(values []Value) Value {
	xs := Present(values)
	if len(xs) == 0 {
		return NoData
	}
	return Some(stat.Mean(xs, nil))
}

// WeightedMean returns sum(x*w)/sum(w) over pairs whose value is present.
// Returns NoData when no value is present or the remaining weights sum to zero.
func WeightedMean(values []Value, weights []float64) Value {
	if len(values) != len(weights) {
		return NoData
	}

	xs := make([]float64, 0, len(values))
	ws := make([]float64, 0, len(values))
	for i, v := range values {
		if x, ok := v.Get(); ok {
			xs = append(xs, x)
			ws = append(ws, weights[i])
		}
	}

	if len(xs) == 0 || floats.Sum(ws) == 0 {
		return NoData
	}
	return Some(stat.Mean(xs, ws))
}

// Sum adds up a slice of floats.
func Sum(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	return floats.Sum(xs)
}

// Round rounds x half away from zero to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}
