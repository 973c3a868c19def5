package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"trafficstats/internal/analysis"
	"trafficstats/internal/config"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type congestionFlags struct {
	events         string
	network        string
	transportModes []string
	boundary       string
	sampleRate     float64
	timeSlice      int
	output         string
	noFallback     bool
	options        string
	metricsFile    string
	open           bool
}

func newCongestionCmd() *cobra.Command {
	var f congestionFlags
	cmd := &cobra.Command{
		Use:   "congestion",
		Short: "Compute congestion indices from an events file and its network",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts *config.Options
			if f.options != "" {
				var err error
				if opts, err = config.LoadOptions(f.options); err != nil {
					return err
				}
			}

			req := congestionRequest(cfg, opts, f, cmd.Flags())
			summary, err := analysis.Run(cmd.Context(), req)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			if err := enc.Encode(summary); err != nil {
				return fmt.Errorf("failed to print summary: %w", err)
			}

			if f.open {
				if err := browser.OpenFile(summary.OutputDir); err != nil {
					log.Warn().Err(err).Str("dir", summary.OutputDir).Msg("Failed to open output folder")
				}
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.events, "events", "", "simulation events file (.xml or .xml.gz)")
	fs.StringVar(&f.network, "network", "", "network file (MATSim .xml[.gz] or OSM .osm)")
	fs.StringSliceVar(&f.transportModes, "transport-modes", nil, "transport modes to analyze, e.g. car,truck")
	fs.StringVar(&f.boundary, "shp", "", "GeoJSON polygon restricting the analyzed links")
	fs.Float64Var(&f.sampleRate, "sample-rate", config.DefaultSampleRate, "simulated share of the population")
	fs.IntVar(&f.timeSlice, "time-slice", config.DefaultTimeSliceSeconds, "travel time slice width in seconds")
	fs.StringVar(&f.output, "output", "", "output directory")
	fs.BoolVar(&f.noFallback, "no-free-speed-fallback", false, "leave slices without observations empty")
	fs.StringVar(&f.options, "options", "", "JSON options file")
	fs.StringVar(&f.metricsFile, "metrics-file", "", "write run metrics to this Prometheus textfile")
	fs.BoolVar(&f.open, "open", false, "open the output folder when done")
	return cmd
}

// congestionRequest layers the sources of a run: environment defaults, then the
// options file, then flags that were set explicitly.
func congestionRequest(c *config.AppConfig, opts *config.Options, f congestionFlags, flags *pflag.FlagSet) analysis.Request {
	req := analysis.Request{
		SampleRate:        c.SampleRate,
		SliceWidth:        c.TimeSliceSeconds,
		OutputDir:         c.OutputDir,
		FreeSpeedFallback: c.FreeSpeedFallback,
		MetricsFile:       c.MetricsFile,
	}

	if opts != nil {
		req.EventsPath = opts.Events
		req.NetworkPath = opts.Network
		req.TransportModes = opts.TransportModes
		req.BoundaryPath = opts.Boundary
		if opts.SampleRate != 0 {
			req.SampleRate = opts.SampleRate
		}
		if opts.TimeSlice != 0 {
			req.SliceWidth = opts.TimeSlice
		}
		if opts.Output != "" {
			req.OutputDir = opts.Output
		}
		if opts.FreeSpeedFallback != nil {
			req.FreeSpeedFallback = *opts.FreeSpeedFallback
		}
		if opts.MetricsFile != "" {
			req.MetricsFile = opts.MetricsFile
		}
	}

	if flags.Changed("events") {
		req.EventsPath = f.events
	}
	if flags.Changed("network") {
		req.NetworkPath = f.network
	}
	if flags.Changed("transport-modes") {
		req.TransportModes = f.transportModes
	}
	if flags.Changed("shp") {
		req.BoundaryPath = f.boundary
	}
	if flags.Changed("sample-rate") {
		req.SampleRate = f.sampleRate
	}
	if flags.Changed("time-slice") {
		req.SliceWidth = f.timeSlice
	}
	if flags.Changed("output") {
		req.OutputDir = f.output
	}
	if flags.Changed("no-free-speed-fallback") {
		req.FreeSpeedFallback = !f.noFallback
	}
	if flags.Changed("metrics-file") {
		req.MetricsFile = f.metricsFile
	}

	req.EventsPath = c.Resolve(req.EventsPath)
	req.NetworkPath = c.Resolve(req.NetworkPath)
	req.BoundaryPath = c.Resolve(req.BoundaryPath)
	req.OutputDir = c.Resolve(req.OutputDir)
	return req
}
