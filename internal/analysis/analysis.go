// Package analysis runs one congestion analysis request end to end: load the
// network, reduce the event log, evaluate the congestion engine, aggregate and export.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"trafficstats/internal/aggregate"
	"trafficstats/internal/congestion"
	"trafficstats/internal/eventlog"
	"trafficstats/internal/export"
	"trafficstats/internal/grid"
	"trafficstats/internal/metrics"
	"trafficstats/internal/network"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrEmptyNetwork is returned when no link survives the mode and boundary filters.
var ErrEmptyNetwork = errors.New("no link left after filtering the network")

// Request describes one analysis run.
type Request struct {
	EventsPath     string
	NetworkPath    string
	TransportModes []string
	// BoundaryPath is an optional GeoJSON polygon restricting the analyzed links.
	BoundaryPath      string
	SampleRate        float64
	SliceWidth        int
	OutputDir         string
	FreeSpeedFallback bool
	// MetricsFile, when set, receives the run metrics in Prometheus textfile format.
	MetricsFile string
}

// Validate checks the request before any input is read.
func (r Request) Validate() error {
	switch {
	case r.EventsPath == "":
		return errors.New("events file is required")
	case r.NetworkPath == "":
		return errors.New("network file is required")
	case r.OutputDir == "":
		return errors.New("output directory is required")
	case !(r.SampleRate > 0 && r.SampleRate <= 1):
		return fmt.Errorf("%w: %v", aggregate.ErrInvalidSampleRate, r.SampleRate)
	case r.SliceWidth <= 0 || r.SliceWidth > congestion.DaySeconds:
		return fmt.Errorf("time slice must be between 1 and %d seconds, got %d", congestion.DaySeconds, r.SliceWidth)
	}
	return nil
}

// RoadTypeIndex is the daily network congestion index of one road type.
type RoadTypeIndex struct {
	RoadType        string   `json:"road_type"`
	CongestionIndex *float64 `json:"congestion_index"`
}

// Summary describes a completed run.
type Summary struct {
	RunID        string          `json:"run_id"`
	OutputDir    string          `json:"output_dir"`
	Files        []string        `json:"files"`
	Events       int             `json:"events"`
	Links        int             `json:"links"`
	SkippedLinks []string        `json:"skipped_links,omitempty"`
	GridCells    int             `json:"grid_cells"`
	Daily        []RoadTypeIndex `json:"daily_congestion_index"`
	// Hourly is the network congestion index over all road types per hour; nil entries have no data.
	Hourly       []*float64      `json:"hourly_congestion_index"`
	Duration     time.Duration   `json:"duration"`
}

// LoadNetwork picks the loader by file extension: .osm and .osm.xml are
// OpenStreetMap extracts, everything else a MATSim network.
func LoadNetwork(ctx context.Context, path string) (*network.Network, error) {
	lower := strings.TrimSuffix(strings.ToLower(path), ".gz")
	if strings.HasSuffix(lower, ".osm") || strings.HasSuffix(lower, ".osm.xml") {
		return network.LoadOSM(ctx, path)
	}
	return network.LoadMATSim(path)
}

// Run executes the request and writes every output table.
func Run(ctx context.Context, req Request) (*Summary, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	logger := log.With().Str("run", runID).Logger()
	m := metrics.NewCollector()
	start := time.Now()

	summary, err := run(ctx, req, logger, m)
	if err == nil {
		summary.RunID = runID
		summary.Duration = time.Since(start)
		m.MarkSuccess()
	}

	if req.MetricsFile != "" {
		if werr := m.WriteTextfile(req.MetricsFile); werr != nil {
			logger.Warn().Err(werr).Msg("Failed to write metrics")
		}
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Dur("duration", summary.Duration).
		Int("files", len(summary.Files)).
		Str("output", summary.OutputDir).
		Msg("Analysis finished")
	return summary, nil
}

func run(ctx context.Context, req Request, logger zerolog.Logger, m *metrics.Collector) (*Summary, error) {
	// 1. Network
	timer := m.Stage("network")
	net, err := LoadNetwork(ctx, req.NetworkPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load network: %w", err)
	}
	m.LinksTotal.WithLabelValues("loaded").Set(float64(net.Len()))

	filters := []func(network.Link) bool{network.ModeFilter(req.TransportModes)}
	if req.BoundaryPath != "" {
		boundary, err := network.LoadBoundary(req.BoundaryPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load boundary: %w", err)
		}
		filters = append(filters, network.BoundaryFilter(boundary))
	}
	net = net.Filter(filters...)
	if net.Len() == 0 {
		return nil, ErrEmptyNetwork
	}
	m.LinksTotal.WithLabelValues("analyzed").Set(float64(net.Len()))
	logger.Info().Int("links", net.Len()).Strs("modes", req.TransportModes).Dur("took", timer.ObserveDuration()).Msg("Network ready")

	// 2. Event log
	timer = m.Stage("reduce")
	series, err := eventlog.Reduce(ctx, req.EventsPath, net, eventlog.ReduceOptions{
		SliceWidth:        req.SliceWidth,
		Modes:             req.TransportModes,
		FreeSpeedFallback: req.FreeSpeedFallback,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to reduce events: %w", err)
	}
	m.EventsTotal.Add(float64(series.Events))
	for range series.Anomalies {
		m.RecordLinkIssue("event_sequence")
	}
	timer.ObserveDuration()

	// 3. Engine
	engine, err := congestion.NewEngine(net, series.TravelTimes, req.SliceWidth)
	if err != nil {
		return nil, err
	}
	for _, issue := range engine.Issues() {
		logger.Warn().Str("link", issue.LinkID).Str("reason", issue.Reason).Msg("Link excluded from congestion indices")
		m.RecordLinkIssue("geometry")
	}

	// 4. Aggregates
	timer = m.Stage("aggregate")
	ds, err := aggregate.BuildDataset(engine, series.Volumes, req.SampleRate)
	if err != nil {
		return nil, err
	}
	daily := aggregate.DailyByLink(ds)
	hourly, err := aggregate.HourlyByRoadType(engine)
	if err != nil {
		return nil, err
	}
	perType, err := aggregate.DailyByRoadType(ds, engine)
	if err != nil {
		return nil, err
	}
	timer.ObserveDuration()

	// 5. Congestion surface
	timer = m.Stage("grid")
	samples, err := engine.Surface()
	if err != nil {
		return nil, fmt.Errorf("failed to sample congestion surface: %w", err)
	}
	cells := grid.Build(samples)
	logger.Debug().Int("samples", len(samples)).Int("cells", len(cells)).Msg("Built congestion grid")
	timer.ObserveDuration()

	// 6. Export
	timer = m.Stage("export")
	tables := []export.Table{
		export.LinkDaily(ds.Modes, daily),
		export.LinkHourly(ds),
		export.RoadTypeHourly(hourly),
		export.RoadTypeDaily(aggregate.Transpose(perType)),
		export.RoadTypeDailyLong(perType),
		export.CongestionGrid(cells),
	}
	files, err := export.WriteAll(ctx, req.OutputDir, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to write results: %w", err)
	}
	for _, t := range tables {
		m.RowsWritten.WithLabelValues(t.Name).Set(float64(len(t.Rows)))
	}
	timer.ObserveDuration()

	summary := &Summary{
		OutputDir:    req.OutputDir,
		Files:        files,
		Events:       series.Events,
		Links:        net.Len(),
		SkippedLinks: ds.Skipped,
		GridCells:    len(cells),
	}
	for _, d := range perType {
		idx := RoadTypeIndex{RoadType: d.RoadType}
		if v, ok := d.CongestionIndex.Get(); ok {
			idx.CongestionIndex = &v
			m.NetworkCongestion.WithLabelValues(d.RoadType).Set(v)
		}
		summary.Daily = append(summary.Daily, idx)
	}
	for _, h := range hourly {
		if h.RoadType != string(congestion.AllRoadTypes) {
			continue
		}
		var v *float64
		if x, ok := h.CongestionIndex.Get(); ok {
			v = &x
		}
		summary.Hourly = append(summary.Hourly, v)
	}
	return summary, nil
}
