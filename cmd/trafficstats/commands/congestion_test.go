package commands

import (
	"os"
	"path/filepath"
	"slices"
	"testing"

	"trafficstats/internal/config"
)

func TestCongestionRequestPrecedence(t *testing.T) {
	c := &config.AppConfig{
		DataPath:          "/data",
		OutputDir:         "/data/output",
		SampleRate:        0.1,
		TimeSliceSeconds:  900,
		FreeSpeedFallback: true,
	}
	off := false
	opts := &config.Options{
		Events:            "events.xml.gz",
		Network:           "network.xml.gz",
		TransportModes:    []string{"car"},
		SampleRate:        0.25,
		TimeSlice:         600,
		FreeSpeedFallback: &off,
	}

	cmd := newCongestionCmd()
	if err := cmd.Flags().Parse([]string{"--sample-rate", "0.5", "--output", "/tmp/out", "--transport-modes", "car,truck"}); err != nil {
		t.Fatal(err)
	}
	var f congestionFlags
	f.sampleRate, _ = cmd.Flags().GetFloat64("sample-rate")
	f.output, _ = cmd.Flags().GetString("output")
	f.transportModes, _ = cmd.Flags().GetStringSlice("transport-modes")

	req := congestionRequest(c, opts, f, cmd.Flags())

	if req.SampleRate != 0.5 {
		t.Errorf("Expected flag sample rate 0.5, got %v", req.SampleRate)
	}
	if req.SliceWidth != 600 {
		t.Errorf("Expected options slice width 600, got %d", req.SliceWidth)
	}
	if req.FreeSpeedFallback {
		t.Errorf("Expected options to disable the free speed fallback")
	}
	if req.OutputDir != "/tmp/out" {
		t.Errorf("Expected output /tmp/out, got %s", req.OutputDir)
	}
	if req.EventsPath != filepath.Join("/data", "events.xml.gz") {
		t.Errorf("Expected events resolved against DATA_PATH, got %s", req.EventsPath)
	}
	if !slices.Equal(req.TransportModes, []string{"car", "truck"}) {
		t.Errorf("Expected modes [car truck], got %v", req.TransportModes)
	}
}

func TestCongestionRequestDefaults(t *testing.T) {
	c := &config.AppConfig{DataPath: "/data", OutputDir: "output", SampleRate: 0.1, TimeSliceSeconds: 900, FreeSpeedFallback: true}

	cmd := newCongestionCmd()
	if err := cmd.Flags().Parse([]string{"--no-free-speed-fallback"}); err != nil {
		t.Fatal(err)
	}
	req := congestionRequest(c, nil, congestionFlags{noFallback: true}, cmd.Flags())

	if req.SampleRate != 0.1 || req.SliceWidth != 900 {
		t.Errorf("Expected environment defaults, got rate %v width %d", req.SampleRate, req.SliceWidth)
	}
	if req.FreeSpeedFallback {
		t.Errorf("Expected --no-free-speed-fallback to disable the fallback")
	}
	if req.OutputDir != filepath.Join("/data", "output") {
		t.Errorf("Expected relative output resolved against DATA_PATH, got %s", req.OutputDir)
	}
	if req.BoundaryPath != "" {
		t.Errorf("Expected no boundary, got %s", req.BoundaryPath)
	}
}

func TestCongestionRequestRelativeDataPath(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATA_PATH", "data")
	t.Setenv("OUTPUT_DIR", "")
	os.Unsetenv("OUTPUT_DIR")

	c, err := config.Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	cmd := newCongestionCmd()
	if err := cmd.Flags().Parse(nil); err != nil {
		t.Fatal(err)
	}
	req := congestionRequest(c, nil, congestionFlags{}, cmd.Flags())

	expected := filepath.Join("data", config.DefaultOutputFolder)
	if req.OutputDir != expected {
		t.Errorf("Expected output %s, got %s", expected, req.OutputDir)
	}
}
