package aggregate

import (
	"cmp"
	"errors"
	"fmt"
	"slices"

	"trafficstats/internal/congestion"
	"trafficstats/internal/eventlog"
	"trafficstats/internal/stats"

	"github.com/rs/zerolog/log"
)

// LinkDaily is the daily summary of one link: means of the index and ratio
// columns, sums of the volume columns.
type LinkDaily struct {
	LinkID      string
	SPI         stats.Value
	LCI         stats.Value
	AvgSpeedKmh stats.Value
	Utilization stats.Value
	LaneKm      float64
	Volume      float64
	ModeVolumes []float64
}

// DailyByLink summarises the dataset per link, in link order.
func DailyByLink(ds *Dataset) []LinkDaily {
	var out []LinkDaily

	for start := 0; start < len(ds.Rows); {
		end := start
		for end < len(ds.Rows) && ds.Rows[end].LinkID == ds.Rows[start].LinkID {
			end++
		}
		out = append(out, summariseLink(ds.Rows[start:end], len(ds.Modes)))
		start = end
	}
	return out
}

func summariseLink(rows []LinkHour, modes int) LinkDaily {
	spi := make([]stats.Value, len(rows))
	lci := make([]stats.Value, len(rows))
	speed := make([]stats.Value, len(rows))
	util := make([]stats.Value, len(rows))
	d := LinkDaily{
		LinkID:      rows[0].LinkID,
		LaneKm:      rows[0].LaneKm,
		ModeVolumes: make([]float64, modes),
	}

	for i, r := range rows {
		spi[i], lci[i], speed[i], util[i] = r.SPI, r.LCI, r.AvgSpeedKmh, r.Utilization
		d.Volume += r.Volume
		for m, v := range r.ModeVolumes {
			d.ModeVolumes[m] += v
		}
	}

	d.SPI = stats.Mean(spi)
	d.LCI = stats.Mean(lci)
	d.AvgSpeedKmh = stats.Mean(speed)
	d.Utilization = stats.Mean(util)
	return d
}

// RoadTypeHour is the network congestion index of one road type in one hour.
type RoadTypeHour struct {
	RoadType        string
	Hour            int
	CongestionIndex stats.Value
}

// roadTypes returns the road types of the network plus the synthetic "all" category.
func roadTypes(e Engine) []string {
	types := append(e.Network().RoadTypes(), string(congestion.AllRoadTypes))
	slices.Sort(types)
	return slices.Compact(types)
}

// nci evaluates the engine and turns "no data" into an absent value.
func nci(e Engine, r congestion.Range, roadType string) (stats.Value, error) {
	v, err := e.NCI(r, congestion.RoadTypeFilter(roadType))
	if errors.Is(err, congestion.ErrNoData) {
		log.Warn().Str("road_type", roadType).Stringer("range", r).Msg("No congestion data")
		return stats.NoData, nil
	}
	if err != nil {
		return stats.NoData, fmt.Errorf("failed to compute congestion index for %q: %w", roadType, err)
	}
	return stats.Some(v), nil
}

// HourlyByRoadType computes the NCI of every road type (and "all") for every hour
// directly from the engine, sorted by road type and hour.
func HourlyByRoadType(e Engine) ([]RoadTypeHour, error) {
	types := roadTypes(e)
	out := make([]RoadTypeHour, 0, len(types)*eventlog.HoursPerDay)

	for _, rt := range types {
		for h := range eventlog.HoursPerDay {
			v, err := nci(e, congestion.Hour(h), rt)
			if err != nil {
				return nil, err
			}
			out = append(out, RoadTypeHour{RoadType: rt, Hour: h, CongestionIndex: v})
		}
	}

	slices.SortStableFunc(out, func(a, b RoadTypeHour) int {
		return cmp.Or(cmp.Compare(a.RoadType, b.RoadType), cmp.Compare(a.Hour, b.Hour))
	})
	return out, nil
}

// RoadTypeDaily is the daily summary of one road type.
type RoadTypeDaily struct {
	RoadType        string
	CongestionIndex stats.Value
	// AvgSpeedKmh and Utilization are lane-km weighted means over the road type's rows.
	AvgSpeedKmh stats.Value
	Utilization stats.Value
	// LaneKm is the total lane-km of the road type.
	LaneKm float64
}

// DailyByRoadType summarises the dataset per road type and for "all". Each category
// runs the same summary over the rows its filter keeps; the congestion index is the
// daily NCI taken from the engine.
func DailyByRoadType(ds *Dataset, e Engine) ([]RoadTypeDaily, error) {
	types := roadTypes(e)
	out := make([]RoadTypeDaily, 0, len(types))

	for _, rt := range types {
		filter := congestion.RoadTypeFilter(rt)
		d := summariseRoadType(ds.Rows, filter)
		d.RoadType = rt

		v, err := nci(e, congestion.Day, rt)
		if errors.Is(err, congestion.ErrNoMatchingLinks) {
			continue
		}
		if err != nil {
			return nil, err
		}
		d.CongestionIndex = v
		out = append(out, d)
	}
	return out, nil
}

func summariseRoadType(rows []LinkHour, filter congestion.RoadTypeFilter) RoadTypeDaily {
	var speed, util []stats.Value
	var weights []float64
	var total float64
	seen := make(map[string]bool)

	for _, r := range rows {
		if !filter.Matches(r.RoadType) {
			continue
		}
		speed = append(speed, r.AvgSpeedKmh)
		util = append(util, r.Utilization)
		weights = append(weights, r.LaneKm)
		if !seen[r.LinkID] {
			seen[r.LinkID] = true
			total += r.LaneKm
		}
	}

	return RoadTypeDaily{
		AvgSpeedKmh: stats.WeightedMean(speed, weights),
		Utilization: stats.WeightedMean(util, weights),
		LaneKm:      total,
	}
}

// Row labels of the transposed daily road type table.
const (
	LabelCongestionIndex = "Congestion Index"
	LabelAvgSpeed        = "Avg. Speed [km/h]"
	LabelUtilization     = "Cap. Utilization"
	LabelLaneKm          = "Total lane km"
)

// Transposed is a key/value view of the daily road type table: one row per
// measure, one column per road type.
type Transposed struct {
	RoadTypes []string
	Rows      []TransposedRow
}

// TransposedRow holds one measure across all road types.
type TransposedRow struct {
	Information string
	Values      []stats.Value
}

// Transpose turns per-road-type rows into per-measure rows.
func Transpose(rows []RoadTypeDaily) Transposed {
	t := Transposed{RoadTypes: make([]string, len(rows))}
	ci := TransposedRow{Information: LabelCongestionIndex, Values: make([]stats.Value, len(rows))}
	sp := TransposedRow{Information: LabelAvgSpeed, Values: make([]stats.Value, len(rows))}
	ut := TransposedRow{Information: LabelUtilization, Values: make([]stats.Value, len(rows))}
	lk := TransposedRow{Information: LabelLaneKm, Values: make([]stats.Value, len(rows))}

	for i, r := range rows {
		t.RoadTypes[i] = r.RoadType
		ci.Values[i] = r.CongestionIndex
		sp.Values[i] = r.AvgSpeedKmh
		ut.Values[i] = r.Utilization
		lk.Values[i] = stats.Some(r.LaneKm)
	}

	t.Rows = []TransposedRow{ci, sp, ut, lk}
	return t
}
