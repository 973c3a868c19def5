package main

import (
	"flag"
	"fmt"
	"os"

	"trafficstats/cmd/mockgen/engine"
)

func main() {
	scenario := flag.String("scenario", "mild", "Scenario to generate: mild, rush, chaos")
	size := flag.Int("size", 6, "Number of grid nodes per side")
	vehicles := flag.Int("vehicles", 2000, "Number of vehicles to simulate")
	seed := flag.Int64("seed", 1, "Random seed")
	outDir := flag.String("out", "./.cache", "Output directory for mock files")
	flag.Parse()

	cfg := engine.GeneratorConfig{
		Scenario: *scenario,
		Size:     *size,
		Vehicles: *vehicles,
		Seed:     *seed,
	}

	fmt.Printf("Generating scenario '%s' (%dx%d grid, %d vehicles) to %s...\n", cfg.Scenario, cfg.Size, cfg.Size, cfg.Vehicles, *outDir)

	s := engine.Generate(cfg)
	if err := engine.Save(*outDir, s); err != nil {
		fmt.Printf("Failed to save mock data: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Done. %d links, %d events, %d trips.\n", len(s.Links), len(s.Events), len(s.Trips))
}
