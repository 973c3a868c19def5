package congestion

import (
	"trafficstats/internal/spatial"
	"trafficstats/internal/stats"

	"github.com/paulmach/orb"
)

// Sample is one point of the congestion surface: the SPI of a link over a
// SurfaceBinWidth bin, placed at one interpolated position along the link.
type Sample struct {
	Time  int
	Point orb.Point
	Value stats.Value
}

// Surface emits, for every link with valid geometry, SurfacePoints samples for each
// SurfaceBinWidth bin of the day. Samples without data keep Value == NoData.
func (e *Engine) Surface() ([]Sample, error) {
	bins := Bins(SurfaceBinWidth)
	valid := e.net.Len() - len(e.issues)
	out := make([]Sample, 0, valid*len(bins)*SurfacePoints)

	for _, l := range e.net.Links() {
		if _, ok := e.broken[l.ID]; ok {
			continue
		}
		pts := spatial.Coordinates(l, SurfacePoints)
		for _, b := range bins {
			v, err := e.SPI(l, b)
			if err != nil {
				return nil, err
			}
			for _, p := range pts {
				out = append(out, Sample{Time: b.Start, Point: p, Value: v})
			}
		}
	}
	return out, nil
}
