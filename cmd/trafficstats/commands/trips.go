package commands

import (
	"trafficstats/internal/trips"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func newTripsCmd() *cobra.Command {
	var tripsPath, output, mode string
	cmd := &cobra.Command{
		Use:   "trips",
		Short: "Summarise a simulation trips table",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cfg.OutputDir
			if cmd.Flags().Changed("output") {
				out = output
			}

			res, err := trips.Run(cmd.Context(), trips.Request{
				TripsPath: cfg.Resolve(tripsPath),
				OutputDir: cfg.Resolve(out),
				Mode:      mode,
			})
			if err != nil {
				return err
			}
			log.Info().Int("trips", res.Trips).Strs("files", res.Files).Msg("Trip statistics written")
			return nil
		},
	}

	cmd.Flags().StringVar(&tripsPath, "trips", "", "trips table (.csv or .csv.gz)")
	cmd.Flags().StringVar(&output, "output", "", "output directory")
	cmd.Flags().StringVar(&mode, "mode", "", "restrict mode statistics to this main mode")
	_ = cmd.MarkFlagRequired("trips")
	return cmd
}
