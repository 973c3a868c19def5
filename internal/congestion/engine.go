// Package congestion computes speed performance and congestion indices from link
// travel times, following He, Yan, Liu and Ma, "A Traffic Congestion Assessment Method
// for Urban Road Networks Based on Speed Performance Index".
package congestion

import (
	"cmp"
	"errors"
	"fmt"
	"math"
	"slices"

	"trafficstats/internal/network"
	"trafficstats/internal/stats"
)

// TravelTimeSource provides the actual travel time on a link for the slice containing t.
// The second result is false when no travel time is available.
type TravelTimeSource interface {
	TravelTime(l network.Link, t int) (float64, bool)
}

// RoadTypeFilter restricts NCI to links of one road type. The empty filter and
// AllRoadTypes match every link.
type RoadTypeFilter string

// AllRoadTypes is the synthetic category covering every link.
const AllRoadTypes RoadTypeFilter = "all"

// Matches reports whether a link of the given road type passes the filter.
func (f RoadTypeFilter) Matches(roadType string) bool {
	return f == "" || f == AllRoadTypes || string(f) == roadType
}

// linkRow memoises per-slice results of one link. It is filled on first use.
type linkRow struct {
	spi   []stats.Value
	speed []stats.Value
}

// Engine evaluates congestion indices over a fixed network and travel-time source.
// Per-(link, slice) speeds are computed once and shared by every query.
// An Engine is not safe for concurrent use.
type Engine struct {
	net    *network.Network
	source TravelTimeSource
	width  int
	slices int

	rows   []*linkRow
	issues []*LinkGeometryError
	broken map[string]*LinkGeometryError
}

// NewEngine validates link geometry up front; broken links are reported by Issues
// and skipped by network-wide queries.
func NewEngine(net *network.Network, source TravelTimeSource, sliceWidth int) (*Engine, error) {
	if sliceWidth <= 0 {
		return nil, fmt.Errorf("slice width must be positive, got %d", sliceWidth)
	}
	if sw, ok := source.(interface{ SliceWidth() int }); ok && sw.SliceWidth() != sliceWidth {
		return nil, fmt.Errorf("slice width %d does not match the travel time series (%d)", sliceWidth, sw.SliceWidth())
	}

	e := &Engine{
		net:    net,
		source: source,
		width:  sliceWidth,
		slices: (DaySeconds + sliceWidth - 1) / sliceWidth,
		rows:   make([]*linkRow, net.Len()),
		broken: make(map[string]*LinkGeometryError),
	}

	for _, l := range net.Links() {
		if gerr := checkGeometry(l); gerr != nil {
			e.issues = append(e.issues, gerr)
			e.broken[l.ID] = gerr
		}
	}
	slices.SortFunc(e.issues, func(a, b *LinkGeometryError) int { return cmp.Compare(a.LinkID, b.LinkID) })
	return e, nil
}

func checkGeometry(l network.Link) *LinkGeometryError {
	switch {
	case math.IsNaN(l.Length) || math.IsInf(l.Length, 0) || l.Length <= 0:
		return &LinkGeometryError{LinkID: l.ID, Reason: fmt.Sprintf("length %v is not a positive finite number", l.Length)}
	case math.IsNaN(l.FreeSpeed) || math.IsInf(l.FreeSpeed, 0) || l.FreeSpeed <= 0:
		return &LinkGeometryError{LinkID: l.ID, Reason: fmt.Sprintf("allowed speed %v is not a positive finite number", l.FreeSpeed)}
	case math.IsNaN(l.Lanes) || math.IsInf(l.Lanes, 0) || l.Lanes < 0:
		return &LinkGeometryError{LinkID: l.ID, Reason: fmt.Sprintf("lane count %v is not a non-negative finite number", l.Lanes)}
	}
	return nil
}

// Network returns the network the engine evaluates.
func (e *Engine) Network() *network.Network {
	return e.net
}

// SliceWidth returns the travel-time slice width in seconds.
func (e *Engine) SliceWidth() int {
	return e.width
}

// Issues lists links that were excluded because of degenerate geometry.
func (e *Engine) Issues() []*LinkGeometryError {
	return e.issues
}

func (e *Engine) row(l network.Link) (*linkRow, error) {
	i, ok := e.net.Index(l.ID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownLink, l.ID)
	}
	if gerr, ok := e.broken[l.ID]; ok {
		return nil, gerr
	}
	if e.rows[i] != nil {
		return e.rows[i], nil
	}

	link := e.net.Links()[i]
	r := &linkRow{
		spi:   make([]stats.Value, e.slices),
		speed: make([]stats.Value, e.slices),
	}
	for s := range e.slices {
		tt, ok := e.source.TravelTime(link, s*e.width)
		if !ok || !(tt > 0) || math.IsInf(tt, 0) {
			continue
		}
		speed := link.Length / tt
		r.speed[s] = stats.Some(speed)
		r.spi[s] = stats.Some(math.Min(speed/link.FreeSpeed, 1))
	}
	e.rows[i] = r
	return r, nil
}

// sliceIndices maps the evaluation points r.Start, r.Start+w, ... < r.End to slices.
func (e *Engine) sliceIndices(r Range) []int {
	idx := make([]int, 0, (r.End-r.Start+e.width-1)/e.width)
	for t := r.Start; t < r.End; t += e.width {
		idx = append(idx, t/e.width)
	}
	return idx
}

func (e *Engine) series(l network.Link, r Range, pick func(*linkRow) []stats.Value) ([]stats.Value, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}
	row, err := e.row(l)
	if err != nil {
		return nil, err
	}
	col := pick(row)
	idx := e.sliceIndices(r)
	out := make([]stats.Value, len(idx))
	for i, s := range idx {
		out[i] = col[s]
	}
	return out, nil
}

func spiColumn(r *linkRow) []stats.Value { return r.spi }
func speedColumn(r *linkRow) []stats.Value { return r.speed }

// SPIAt is the speed performance index of l in the slice containing t:
// min(actualSpeed/allowedSpeed, 1), or NoData without a positive travel time.
func (e *Engine) SPIAt(l network.Link, t int) (stats.Value, error) {
	if t < 0 || t >= DaySeconds {
		return stats.NoData, fmt.Errorf("%w: t=%d", ErrInvalidRange, t)
	}
	row, err := e.row(l)
	if err != nil {
		return stats.NoData, err
	}
	return row.spi[t/e.width], nil
}

// SPI is the mean SPI over the slices of r. Slices without data are left out;
// if none has data the result is NoData.
func (e *Engine) SPI(l network.Link, r Range) (stats.Value, error) {
	vals, err := e.series(l, r, spiColumn)
	if err != nil {
		return stats.NoData, err
	}
	return stats.Mean(vals), nil
}

// LCI is the link congestion index meanSPI x (1 - congestedFraction), where the
// congested fraction is the share of observed slices with SPI <= CongestedThreshold.
func (e *Engine) LCI(l network.Link, r Range) (stats.Value, error) {
	vals, err := e.series(l, r, spiColumn)
	if err != nil {
		return stats.NoData, err
	}

	observed := stats.Present(vals)
	if len(observed) == 0 {
		return stats.NoData, nil
	}
	congested := 0
	for _, v := range observed {
		if v <= CongestedThreshold {
			congested++
		}
	}

	mean, _ := stats.Mean(vals).Get()
	return stats.Some(mean * (1 - float64(congested)/float64(len(observed)))), nil
}

// AvgSpeed is the mean actual speed in m/s over the slices of r, with the same
// missing-data policy as SPI.
func (e *Engine) AvgSpeed(l network.Link, r Range) (stats.Value, error) {
	vals, err := e.series(l, r, speedColumn)
	if err != nil {
		return stats.NoData, err
	}
	return stats.Mean(vals), nil
}

// NCI is the network congestion index: the lane-km weighted mean LCI over links
// matching filter. Links with broken geometry or without an LCI in r do not contribute.
func (e *Engine) NCI(r Range, filter RoadTypeFilter) (float64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}

	matched := 0
	var lcis []stats.Value
	var weights []float64

	for _, l := range e.net.Links() {
		if !filter.Matches(l.RoadType) {
			continue
		}
		matched++

		lci, err := e.LCI(l, r)
		if err != nil {
			if errors.Is(err, ErrLinkGeometry) {
				continue
			}
			return 0, err
		}
		lcis = append(lcis, lci)
		weights = append(weights, l.LaneMeters())
	}

	if matched == 0 {
		return 0, fmt.Errorf("%w: %q", ErrNoMatchingLinks, string(filter))
	}

	nci, ok := stats.WeightedMean(lcis, weights).Get()
	if !ok {
		return 0, fmt.Errorf("%w: road type %q %s", ErrNoData, string(filter), r)
	}
	return nci, nil
}
