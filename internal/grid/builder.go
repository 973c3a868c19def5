// Package grid folds congestion samples into a deduplicated spatio-temporal grid.
package grid

import (
	"cmp"
	"slices"
	"strconv"

	"trafficstats/internal/congestion"
)

// CoordinatePrecision is the number of decimals kept in the x/y grid keys.
const CoordinatePrecision = 15

// Cell is one grid point: the worst (lowest) SPI observed at a rounded
// position and time.
type Cell struct {
	Time int
	X    float64
	Y    float64

	TimeKey string
	XKey    string
	YKey    string

	Value float64
}

type key struct {
	time string
	x, y string
}

// Build groups samples by (time, x, y) rounded to CoordinatePrecision decimals and
// keeps the minimum value of each group. Samples without data are ignored.
// Cells are sorted by time, then x, then y.
func Build(samples []congestion.Sample) []Cell {
	cells := make(map[key]*Cell)

	for _, s := range samples {
		v, ok := s.Value.Get()
		if !ok {
			continue
		}

		k := key{
			time: strconv.Itoa(s.Time),
			x:    strconv.FormatFloat(s.Point.X(), 'f', CoordinatePrecision, 64),
			y:    strconv.FormatFloat(s.Point.Y(), 'f', CoordinatePrecision, 64),
		}
		if c, ok := cells[k]; ok {
			c.Value = min(c.Value, v)
			continue
		}

		x, _ := strconv.ParseFloat(k.x, 64)
		y, _ := strconv.ParseFloat(k.y, 64)
		cells[k] = &Cell{
			Time:    s.Time,
			X:       x,
			Y:       y,
			TimeKey: k.time,
			XKey:    k.x,
			YKey:    k.y,
			Value:   v,
		}
	}

	out := make([]Cell, 0, len(cells))
	for _, c := range cells {
		out = append(out, *c)
	}
	slices.SortFunc(out, func(a, b Cell) int {
		return cmp.Or(
			cmp.Compare(a.Time, b.Time),
			cmp.Compare(a.X, b.X),
			cmp.Compare(a.Y, b.Y),
		)
	})
	return out
}
