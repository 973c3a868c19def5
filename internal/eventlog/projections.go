package eventlog

import (
	"cmp"
	"context"
	"slices"

	"trafficstats/internal/network"

	"github.com/rs/zerolog/log"
)

const (
	// DaySeconds is the analysed horizon.
	DaySeconds = 86400
	// HoursPerDay is the number of hourly volume bins.
	HoursPerDay = 24
	// DefaultSliceWidth is the travel-time aggregation width in seconds.
	DefaultSliceWidth = 900
)

// ReduceOptions controls the event log reduction.
type ReduceOptions struct {
	// SliceWidth is the travel-time slice width in seconds (DefaultSliceWidth if zero).
	SliceWidth int
	// Modes restricts travel-time measurement to these network modes; empty means all.
	Modes []string
	// FreeSpeedFallback reports length/freeSpeed for slices without observations.
	FreeSpeedFallback bool
}

// LinkAnomaly counts malformed event sequences observed on one link.
type LinkAnomaly struct {
	LinkID string
	// UnmatchedLeaves counts "left link" events of a vehicle last seen entering another link.
	UnmatchedLeaves int
	// NegativeTravelTimes counts leave events earlier than the matching entry.
	NegativeTravelTimes int
}

// Series is the result of reducing an event log against a network.
type Series struct {
	TravelTimes *TravelTimes
	Volumes     *Volumes
	// Events is the number of events read.
	Events int
	// Anomalies lists links with malformed event sequences, by link ID.
	Anomalies []LinkAnomaly
}

// TravelTimes holds the mean observed travel time per link and slice.
type TravelTimes struct {
	net      *network.Network
	width    int
	slices   int
	sum      [][]float64
	count    [][]int
	fallback bool
}

// SliceWidth returns the slice width in seconds.
func (t *TravelTimes) SliceWidth() int {
	return t.width
}

// Observations returns the number of travel times recorded for a link and slice.
func (t *TravelTimes) Observations(linkID string, slice int) int {
	i, ok := t.net.Index(linkID)
	if !ok || slice < 0 || slice >= t.slices {
		return 0
	}
	return t.count[i][slice]
}

// TravelTime returns the travel time on l for the slice containing time.
// The second result is false when no travel time is available.
func (t *TravelTimes) TravelTime(l network.Link, time int) (float64, bool) {
	slice := time / t.width
	if time < 0 || slice >= t.slices {
		return 0, false
	}
	if i, ok := t.net.Index(l.ID); ok && t.count[i][slice] > 0 {
		return t.sum[i][slice] / float64(t.count[i][slice]), true
	}
	if t.fallback && l.FreeSpeed > 0 && l.Length > 0 {
		return l.Length / l.FreeSpeed, true
	}
	return 0, false
}

// Volumes holds hourly vehicle counts per link, overall and by mode.
type Volumes struct {
	net    *network.Network
	modes  *ModeSet
	total  [][HoursPerDay]float64
	byMode [][][HoursPerDay]float64
}

// Modes returns the observed modes in presentation order.
func (v *Volumes) Modes() []Mode {
	return v.modes.Sorted()
}

// PerHour returns the hourly counts of all modes on a link.
func (v *Volumes) PerHour(linkID string) [HoursPerDay]float64 {
	i, ok := v.net.Index(linkID)
	if !ok {
		return [HoursPerDay]float64{}
	}
	return v.total[i]
}

// PerHourForMode returns the hourly counts of one mode on a link.
func (v *Volumes) PerHourForMode(linkID string, m Mode) [HoursPerDay]float64 {
	i, ok := v.net.Index(linkID)
	mi, mok := v.modes.Index(m)
	if !ok || !mok {
		return [HoursPerDay]float64{}
	}
	return v.byMode[mi][i]
}

type linkEntry struct {
	link int
	time float64
}

// Reducer folds events into TravelTimes and Volumes in one forward pass.
// A Reducer holds only its own accumulators and is used for a single log.
type Reducer struct {
	net      *network.Network
	analyzed map[string]bool

	tt  *TravelTimes
	vol *Volumes

	vehicleMode map[string]Mode
	open        map[string]linkEntry
	anomalies   map[int]*LinkAnomaly
	events      int
}

// NewReducer prepares a reduction over net.
func NewReducer(net *network.Network, opts ReduceOptions) *Reducer {
	width := opts.SliceWidth
	if width <= 0 {
		width = DefaultSliceWidth
	}
	nSlices := (DaySeconds + width - 1) / width

	tt := &TravelTimes{
		net:      net,
		width:    width,
		slices:   nSlices,
		sum:      make([][]float64, net.Len()),
		count:    make([][]int, net.Len()),
		fallback: opts.FreeSpeedFallback,
	}
	for i := range tt.sum {
		tt.sum[i] = make([]float64, nSlices)
		tt.count[i] = make([]int, nSlices)
	}

	var analyzed map[string]bool
	if len(opts.Modes) > 0 {
		analyzed = make(map[string]bool, len(opts.Modes))
		for _, m := range opts.Modes {
			analyzed[m] = true
		}
	}

	return &Reducer{
		net:         net,
		analyzed:    analyzed,
		tt:          tt,
		vol:         &Volumes{net: net, modes: newModeSet(), total: make([][HoursPerDay]float64, net.Len())},
		vehicleMode: make(map[string]Mode),
		open:        make(map[string]linkEntry),
		anomalies:   make(map[int]*LinkAnomaly),
	}
}

// Handle consumes one event. It never fails; malformed sequences are recorded per link.
func (r *Reducer) Handle(e Event) error {
	r.events++

	switch e.Type {
	case VehicleEntersTraffic:
		mode := Mode(e.NetworkMode)
		if mode == "" {
			mode = DefaultMode
		}
		r.vehicleMode[e.Vehicle] = mode
		delete(r.open, e.Vehicle)

	case EnteredLink:
		li, ok := r.net.Index(e.Link)
		if !ok {
			delete(r.open, e.Vehicle)
			return nil
		}
		if r.isAnalyzed(e.Vehicle) {
			r.open[e.Vehicle] = linkEntry{link: li, time: e.Time}
		}

	case LeftLink:
		li, ok := r.net.Index(e.Link)
		if !ok {
			return nil
		}
		r.countVolume(li, e)

		if !r.isAnalyzed(e.Vehicle) {
			return nil
		}
		entry, ok := r.open[e.Vehicle]
		delete(r.open, e.Vehicle)
		if !ok || entry.link != li {
			// The first link of a trip is entered via "vehicle enters traffic", which is not measured.
			if ok {
				r.anomaly(li).UnmatchedLeaves++
			}
			return nil
		}
		r.recordTravelTime(li, entry.time, e.Time)

	case VehicleLeavesTraffic, VehicleAborts:
		delete(r.open, e.Vehicle)
	}
	return nil
}

func (r *Reducer) isAnalyzed(vehicle string) bool {
	if r.analyzed == nil {
		return true
	}
	mode, ok := r.vehicleMode[vehicle]
	if !ok {
		mode = DefaultMode
	}
	return r.analyzed[string(mode)]
}

func (r *Reducer) recordTravelTime(li int, enter, leave float64) {
	if leave < enter {
		r.anomaly(li).NegativeTravelTimes++
		return
	}
	if enter < 0 || enter >= DaySeconds {
		return
	}
	slice := int(enter) / r.tt.width
	if slice >= r.tt.slices {
		return
	}
	r.tt.sum[li][slice] += leave - enter
	r.tt.count[li][slice]++
}

func (r *Reducer) countVolume(li int, e Event) {
	if e.Time < 0 {
		return
	}
	hour := int(e.Time) / 3600
	if hour >= HoursPerDay {
		return
	}

	mode, ok := r.vehicleMode[e.Vehicle]
	if !ok {
		mode = DefaultMode
	}
	mi := r.vol.modes.intern(mode)
	for len(r.vol.byMode) <= mi {
		r.vol.byMode = append(r.vol.byMode, make([][HoursPerDay]float64, r.net.Len()))
	}

	r.vol.total[li][hour]++
	r.vol.byMode[mi][li][hour]++
}

func (r *Reducer) anomaly(li int) *LinkAnomaly {
	a, ok := r.anomalies[li]
	if !ok {
		a = &LinkAnomaly{LinkID: r.net.Links()[li].ID}
		r.anomalies[li] = a
	}
	return a
}

// Result returns the accumulated series.
func (r *Reducer) Result() *Series {
	anomalies := make([]LinkAnomaly, 0, len(r.anomalies))
	for _, a := range r.anomalies {
		anomalies = append(anomalies, *a)
	}
	slices.SortFunc(anomalies, func(a, b LinkAnomaly) int { return cmp.Compare(a.LinkID, b.LinkID) })

	return &Series{
		TravelTimes: r.tt,
		Volumes:     r.vol,
		Events:      r.events,
		Anomalies:   anomalies,
	}
}

// Reduce reads the event log at path and reduces it against net.
func Reduce(ctx context.Context, path string, net *network.Network, opts ReduceOptions) (*Series, error) {
	r := NewReducer(net, opts)
	if _, err := ReadFile(ctx, path, r.Handle); err != nil {
		return nil, err
	}

	s := r.Result()
	for _, a := range s.Anomalies {
		log.Warn().
			Str("link", a.LinkID).
			Int("unmatchedLeaves", a.UnmatchedLeaves).
			Int("negativeTravelTimes", a.NegativeTravelTimes).
			Msg("Malformed event sequence on link")
	}
	log.Info().
		Int("events", s.Events).
		Int("links", net.Len()).
		Int("modes", s.Volumes.modes.Len()).
		Int("sliceWidth", s.TravelTimes.width).
		Msg("Reduced event log")
	return s, nil
}
