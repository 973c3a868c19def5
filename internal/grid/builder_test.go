package grid

import (
	"testing"

	"trafficstats/internal/congestion"
	"trafficstats/internal/stats"

	"github.com/paulmach/orb"
)

func TestBuild_KeepsMinimum(t *testing.T) {
	p := orb.Point{13.4, 52.5}
	samples := []congestion.Sample{
		{Time: 600, Point: p, Value: stats.Some(0.3)},
		{Time: 600, Point: p, Value: stats.Some(0.7)},
	}

	cells := Build(samples)
	if len(cells) != 1 {
		t.Fatalf("Expected 1 cell, got %d", len(cells))
	}
	if cells[0].Value != 0.3 {
		t.Errorf("Expected value 0.3, got %v", cells[0].Value)
	}
	if cells[0].TimeKey != "600" {
		t.Errorf("Expected time key 600, got %q", cells[0].TimeKey)
	}
	if cells[0].XKey != "13.400000000000000" {
		t.Errorf("Unexpected x key %q", cells[0].XKey)
	}
}

func TestBuild_RoundsCoordinates(t *testing.T) {
	samples := []congestion.Sample{
		{Time: 0, Point: orb.Point{1.0000000000000002, 2}, Value: stats.Some(0.9)},
		{Time: 0, Point: orb.Point{1, 2}, Value: stats.Some(0.4)},
	}

	cells := Build(samples)
	if len(cells) != 1 {
		t.Fatalf("Expected points equal at 15 decimals to merge, got %d cells", len(cells))
	}
	if cells[0].Value != 0.4 {
		t.Errorf("Expected value 0.4, got %v", cells[0].Value)
	}
}

func TestBuild_SortsAndSkipsNoData(t *testing.T) {
	samples := []congestion.Sample{
		{Time: 1200, Point: orb.Point{0, 0}, Value: stats.Some(1)},
		{Time: 600, Point: orb.Point{10, 5}, Value: stats.Some(0.5)},
		{Time: 600, Point: orb.Point{2, 9}, Value: stats.Some(0.6)},
		{Time: 600, Point: orb.Point{2, 1}, Value: stats.Some(0.8)},
		{Time: 0, Point: orb.Point{0, 0}, Value: stats.NoData},
	}

	cells := Build(samples)
	want := []struct {
		time int
		x, y float64
	}{
		{600, 2, 1},
		{600, 2, 9},
		{600, 10, 5},
		{1200, 0, 0},
	}

	if len(cells) != len(want) {
		t.Fatalf("Expected %d cells, got %d", len(want), len(cells))
	}
	for i, w := range want {
		c := cells[i]
		if c.Time != w.time || c.X != w.x || c.Y != w.y {
			t.Errorf("Cell %d = (%d, %v, %v), want (%d, %v, %v)", i, c.Time, c.X, c.Y, w.time, w.x, w.y)
		}
	}
}
