package mcp

import (
	"context"
	"fmt"
	"strings"

	"trafficstats/internal/analysis"
	"trafficstats/internal/trips"
	"trafficstats/internal/visuals"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// AnalyzeCongestionInput are the arguments of analyze_congestion.
type AnalyzeCongestionInput struct {
	Events         string   `json:"events" jsonschema:"simulation events file (.xml or .xml.gz)"`
	Network        string   `json:"network" jsonschema:"network file (MATSim .xml[.gz] or OSM .osm)"`
	TransportModes []string `json:"transport_modes,omitempty" jsonschema:"transport modes whose travel times are analyzed, e.g. car"`
	Boundary       string   `json:"boundary,omitempty" jsonschema:"optional GeoJSON polygon restricting the analyzed links"`
	SampleRate     float64  `json:"sample_rate,omitempty" jsonschema:"simulated share of the population (defaults to SAMPLE_RATE)"`
	Output         string   `json:"output,omitempty" jsonschema:"output directory (defaults to OUTPUT_DIR)"`
}

// TripStatisticsInput are the arguments of trip_statistics.
type TripStatisticsInput struct {
	Trips  string `json:"trips" jsonschema:"trips table (.csv or .csv.gz)"`
	Mode   string `json:"mode,omitempty" jsonschema:"restrict mode statistics to this main mode"`
	Output string `json:"output,omitempty" jsonschema:"output directory (defaults to OUTPUT_DIR)"`
}

func (s *Server) handleAnalyzeCongestion(ctx context.Context, _ *mcp.CallToolRequest, in AnalyzeCongestionInput) (*mcp.CallToolResult, *analysis.Summary, error) {
	req := analysis.Request{
		EventsPath:        s.cfg.Resolve(in.Events),
		NetworkPath:       s.cfg.Resolve(in.Network),
		TransportModes:    in.TransportModes,
		BoundaryPath:      s.cfg.Resolve(in.Boundary),
		SampleRate:        s.cfg.SampleRate,
		SliceWidth:        s.cfg.TimeSliceSeconds,
		OutputDir:         s.cfg.Resolve(s.cfg.OutputDir),
		FreeSpeedFallback: s.cfg.FreeSpeedFallback,
		MetricsFile:       s.cfg.MetricsFile,
	}
	if in.SampleRate != 0 {
		req.SampleRate = in.SampleRate
	}
	if in.Output != "" {
		req.OutputDir = s.cfg.Resolve(in.Output)
	}

	log.Info().Str("events", req.EventsPath).Str("network", req.NetworkPath).Msg("analyze_congestion called")
	summary, err := analysis.Run(ctx, req)
	if err != nil {
		return nil, nil, err
	}

	text := fmt.Sprintf("Analyzed %d links from %d events; %d files written to %s.",
		summary.Links, summary.Events, len(summary.Files), summary.OutputDir)
	return withCharts(text,
		visuals.GenerateRoadTypeChart(summary.Daily),
		visuals.GenerateHourlyCongestionChart(summary.Hourly),
	), summary, nil
}

func (s *Server) handleTripStatistics(ctx context.Context, _ *mcp.CallToolRequest, in TripStatisticsInput) (*mcp.CallToolResult, *trips.Result, error) {
	out := s.cfg.OutputDir
	if in.Output != "" {
		out = in.Output
	}

	log.Info().Str("trips", in.Trips).Msg("trip_statistics called")
	res, err := trips.Run(ctx, trips.Request{
		TripsPath: s.cfg.Resolve(in.Trips),
		OutputDir: s.cfg.Resolve(out),
		Mode:      in.Mode,
	})
	if err != nil {
		return nil, nil, err
	}

	text := fmt.Sprintf("Summarised %d trips; %d files written.", res.Trips, len(res.Files))
	return withCharts(text, visuals.GenerateModeSpeedChart(res.Modes)), res, nil
}

// withCharts builds a text result from a summary line and the non-empty charts.
func withCharts(summary string, charts ...string) *mcp.CallToolResult {
	parts := []string{summary}
	for _, c := range charts {
		if c != "" {
			parts = append(parts, c)
		}
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: strings.Join(parts, "\n\n")}},
	}
}
