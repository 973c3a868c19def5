package network

import (
	"errors"
	"fmt"
	"os"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// ErrEmptyBoundary is returned when a boundary file holds no polygon.
var ErrEmptyBoundary = errors.New("boundary contains no polygon")

// Boundary is a geographic filter area in the network's coordinate system.
type Boundary struct {
	area  orb.MultiPolygon
	bound orb.Bound
}

// NewBoundary wraps polygons into a Boundary.
func NewBoundary(area orb.MultiPolygon) (Boundary, error) {
	if len(area) == 0 {
		return Boundary{}, ErrEmptyBoundary
	}
	return Boundary{area: area, bound: area.Bound()}, nil
}

// LoadBoundary reads Polygon and MultiPolygon geometries from a GeoJSON file.
func LoadBoundary(path string) (Boundary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Boundary{}, fmt.Errorf("failed to read boundary: %w", err)
	}
	return ParseBoundary(data)
}

// ParseBoundary accepts a FeatureCollection, a single Feature or a bare geometry.
func ParseBoundary(data []byte) (Boundary, error) {
	var geoms []orb.Geometry

	if fc, err := geojson.UnmarshalFeatureCollection(data); err == nil && len(fc.Features) > 0 {
		for _, f := range fc.Features {
			geoms = append(geoms, f.Geometry)
		}
	} else if f, err := geojson.UnmarshalFeature(data); err == nil && f.Geometry != nil {
		geoms = append(geoms, f.Geometry)
	} else if g, err := geojson.UnmarshalGeometry(data); err == nil {
		geoms = append(geoms, g.Geometry())
	} else {
		return Boundary{}, fmt.Errorf("failed to parse boundary geojson: %w", err)
	}

	var area orb.MultiPolygon
	for _, g := range geoms {
		switch p := g.(type) {
		case orb.Polygon:
			area = append(area, p)
		case orb.MultiPolygon:
			area = append(area, p...)
		}
	}
	return NewBoundary(area)
}

// Contains reports whether p lies inside the boundary.
func (b Boundary) Contains(p orb.Point) bool {
	if !b.bound.Contains(p) {
		return false
	}
	return planar.MultiPolygonContains(b.area, p)
}

// ModeFilter keeps links open to any of modes. An empty list keeps every link.
func ModeFilter(modes []string) func(Link) bool {
	return func(l Link) bool {
		if len(modes) == 0 {
			return true
		}
		return l.AllowsAny(modes)
	}
}

// BoundaryFilter keeps links whose midpoint lies inside b.
func BoundaryFilter(b Boundary) func(Link) bool {
	return func(l Link) bool {
		return b.Contains(l.Midpoint())
	}
}
