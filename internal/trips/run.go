package trips

import (
	"context"
	"errors"
	"fmt"

	"trafficstats/internal/export"

	"github.com/rs/zerolog/log"
)

// Request describes one trip statistics run.
type Request struct {
	TripsPath string
	OutputDir string
	// Mode restricts the mode statistics to one main mode; empty reports every mode.
	Mode string
}

// Result lists the written files and the per-mode totals.
type Result struct {
	Trips int         `json:"trips"`
	Modes []ModeStats `json:"modes"`
	Files []string    `json:"files"`
}

// Run reads the trips table and writes the mode statistics, the purpose bins
// and the arrivals-in-safety table.
func Run(ctx context.Context, req Request) (*Result, error) {
	if req.TripsPath == "" || req.OutputDir == "" {
		return nil, errors.New("trips file and output directory are required")
	}

	trips, err := Load(req.TripsPath)
	if err != nil {
		return nil, err
	}
	log.Info().Str("path", req.TripsPath).Int("trips", len(trips)).Msg("Loaded trips")

	modes := ByMode(trips, req.Mode)
	tables := []export.Table{
		StatsTable(modes),
		PurposesTable(PurposesBy10Minutes(trips)),
		PeopleInSafetyTable(PeopleInSafety(trips)),
	}

	files, err := export.WriteAll(ctx, req.OutputDir, tables)
	if err != nil {
		return nil, fmt.Errorf("failed to write trip statistics: %w", err)
	}
	return &Result{Trips: len(trips), Modes: modes, Files: files}, nil
}
