package network

import (
	"slices"

	"github.com/paulmach/orb"
)

// UnclassifiedRoadType is used for links that carry no road type.
const UnclassifiedRoadType = "unclassified"

// Link is a directed network link. Links are immutable for an analysis run.
type Link struct {
	ID   string
	From orb.Point
	To   orb.Point

	Length    float64 // meters
	Lanes     float64
	FreeSpeed float64 // allowed speed, m/s
	Capacity  float64 // vehicles per hour
	RoadType  string
	Modes     []string
}

// LaneMeters is the lane-km weight in meters (length x lanes).
func (l Link) LaneMeters() float64 {
	return l.Length * l.Lanes
}

// LaneKm is length x lanes in kilometers.
func (l Link) LaneKm() float64 {
	return l.LaneMeters() / 1000
}

// Midpoint is the point halfway between both endpoints.
func (l Link) Midpoint() orb.Point {
	return orb.Point{(l.From[0] + l.To[0]) / 2, (l.From[1] + l.To[1]) / 2}
}

// AllowsAny reports whether the link is open to at least one of the given modes.
func (l Link) AllowsAny(modes []string) bool {
	for _, m := range modes {
		if slices.Contains(l.Modes, m) {
			return true
		}
	}
	return false
}
