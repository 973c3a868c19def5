// Package aggregate rolls congestion engine output into per-link and per-road-type tables.
package aggregate

import (
	"errors"
	"fmt"

	"trafficstats/internal/congestion"
	"trafficstats/internal/eventlog"
	"trafficstats/internal/network"
	"trafficstats/internal/stats"

	"github.com/rs/zerolog/log"
)

// MSToKmh converts m/s to km/h.
const MSToKmh = 3.6

// ErrInvalidSampleRate is returned for sample rates outside (0, 1].
var ErrInvalidSampleRate = errors.New("sample rate must be in (0, 1]")

// Engine is the part of the congestion engine the aggregator needs.
type Engine interface {
	Network() *network.Network
	SPI(l network.Link, r congestion.Range) (stats.Value, error)
	LCI(l network.Link, r congestion.Range) (stats.Value, error)
	AvgSpeed(l network.Link, r congestion.Range) (stats.Value, error)
	NCI(r congestion.Range, filter congestion.RoadTypeFilter) (float64, error)
}

// VolumeSource provides hourly link volumes as counted in the simulation.
type VolumeSource interface {
	Modes() []eventlog.Mode
	PerHour(linkID string) [eventlog.HoursPerDay]float64
	PerHourForMode(linkID string, m eventlog.Mode) [eventlog.HoursPerDay]float64
}

// LinkHour is one row of the disaggregated dataset.
type LinkHour struct {
	LinkID   string
	Hour     int
	RoadType string
	LaneKm   float64

	SPI stats.Value
	LCI stats.Value
	// AvgSpeedKmh is the mean observed speed in km/h.
	AvgSpeedKmh stats.Value
	// Utilization is simulated volume over capacity, scaled by the sample rate.
	Utilization stats.Value

	// Volume is the simulated volume scaled to the full population.
	Volume float64
	// ModeVolumes is aligned with Dataset.Modes.
	ModeVolumes []float64
}

// Dataset is the per-(link, hour) table all other tables derive from.
type Dataset struct {
	Modes []eventlog.Mode
	Rows  []LinkHour
	// Skipped lists links left out because their geometry is unusable.
	Skipped []string
}

// BuildDataset evaluates every link of the engine's network for every hour of the day.
// Links with broken geometry are logged and skipped; any other engine error aborts.
func BuildDataset(e Engine, vol VolumeSource, sampleRate float64) (*Dataset, error) {
	if !(sampleRate > 0 && sampleRate <= 1) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSampleRate, sampleRate)
	}

	modes := vol.Modes()
	links := e.Network().Links()
	ds := &Dataset{
		Modes: modes,
		Rows:  make([]LinkHour, 0, len(links)*eventlog.HoursPerDay),
	}

	for _, l := range links {
		rows, err := linkRows(e, vol, modes, l, sampleRate)
		if errors.Is(err, congestion.ErrLinkGeometry) {
			log.Warn().Err(err).Str("link", l.ID).Msg("Skipping link")
			ds.Skipped = append(ds.Skipped, l.ID)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate link %s: %w", l.ID, err)
		}
		ds.Rows = append(ds.Rows, rows...)
	}

	log.Debug().Int("rows", len(ds.Rows)).Int("skipped", len(ds.Skipped)).Msg("Built link dataset")
	return ds, nil
}

func linkRows(e Engine, vol VolumeSource, modes []eventlog.Mode, l network.Link, sampleRate float64) ([]LinkHour, error) {
	total := vol.PerHour(l.ID)
	byMode := make([][eventlog.HoursPerDay]float64, len(modes))
	for i, m := range modes {
		byMode[i] = vol.PerHourForMode(l.ID, m)
	}

	rows := make([]LinkHour, 0, eventlog.HoursPerDay)
	for h := range eventlog.HoursPerDay {
		r := congestion.Hour(h)

		spi, err := e.SPI(l, r)
		if err != nil {
			return nil, err
		}
		lci, err := e.LCI(l, r)
		if err != nil {
			return nil, err
		}
		speed, err := e.AvgSpeed(l, r)
		if err != nil {
			return nil, err
		}

		util := stats.NoData
		if l.Capacity > 0 {
			util = stats.Some(total[h] / (l.Capacity * sampleRate))
		}

		modeVols := make([]float64, len(modes))
		for i := range modes {
			modeVols[i] = byMode[i][h] / sampleRate
		}

		rows = append(rows, LinkHour{
			LinkID:      l.ID,
			Hour:        h,
			RoadType:    l.RoadType,
			LaneKm:      l.LaneKm(),
			SPI:         spi,
			LCI:         lci,
			AvgSpeedKmh: speed.Scale(MSToKmh),
			Utilization: util,
			Volume:      total[h] / sampleRate,
			ModeVolumes: modeVols,
		})
	}
	return rows, nil
}
