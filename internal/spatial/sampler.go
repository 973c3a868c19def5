// Package spatial projects link geometry onto evenly spaced sample points.
package spatial

import (
	"trafficstats/internal/network"

	"github.com/paulmach/orb"
)

// Interpolate returns n points linearly interpolated between from and to, both
// inclusive, at fractions i/(n-1). A single point is placed at the midpoint.
func Interpolate(from, to orb.Point, n int) []orb.Point {
	if n <= 0 {
		return nil
	}
	if n == 1 {
		return []orb.Point{lerp(from, to, 0.5)}
	}

	pts := make([]orb.Point, n)
	for i := range pts {
		pts[i] = lerp(from, to, float64(i)/float64(n-1))
	}
	// Pin the endpoints exactly.
	pts[0] = from
	pts[n-1] = to
	return pts
}

// Coordinates samples n points along a link from its from-node to its to-node.
func Coordinates(l network.Link, n int) []orb.Point {
	return Interpolate(l.From, l.To, n)
}

func lerp(a, b orb.Point, f float64) orb.Point {
	return orb.Point{
		a[0]*(1-f) + b[0]*f,
		a[1]*(1-f) + b[1]*f,
	}
}
