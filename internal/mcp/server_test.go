package mcp

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"trafficstats/internal/config"
	"trafficstats/internal/trips"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const tripsFixture = `trip_id;dep_time;trav_time;traveled_distance;euclidean_distance;main_mode;end_activity_type
p1_1;00:00:30;00:20:00;10000;8000;car;shelter
p2_1;00:05:00;00:40:00;20000;15000;car;shelter
`

func connect(t *testing.T, cfg *config.AppConfig) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	srv := NewServer(cfg, "test")

	serverT, clientT := mcp.NewInMemoryTransports()
	ss, err := srv.mcp.Connect(ctx, serverT, nil)
	if err != nil {
		t.Fatalf("server connect failed: %v", err)
	}
	t.Cleanup(func() { _ = ss.Close() })

	client := mcp.NewClient(&mcp.Implementation{Name: "test-client", Version: "test"}, nil)
	cs, err := client.Connect(ctx, clientT, nil)
	if err != nil {
		t.Fatalf("client connect failed: %v", err)
	}
	t.Cleanup(func() { _ = cs.Close() })
	return cs
}

func TestListTools(t *testing.T) {
	cs := connect(t, &config.AppConfig{DataPath: t.TempDir()})

	res, err := cs.ListTools(context.Background(), nil)
	if err != nil {
		t.Fatalf("ListTools failed: %v", err)
	}
	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	slices.Sort(names)
	if !slices.Equal(names, []string{"analyze_congestion", "trip_statistics"}) {
		t.Errorf("Expected both tools, got %v", names)
	}
}

func TestTripStatisticsTool(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "trips.csv"), []byte(tripsFixture), 0644); err != nil {
		t.Fatal(err)
	}
	cs := connect(t, &config.AppConfig{DataPath: dir, OutputDir: "out"})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "trip_statistics",
		Arguments: map[string]any{"trips": "trips.csv"},
	})
	if err != nil {
		t.Fatalf("CallTool failed: %v", err)
	}
	if res.IsError {
		t.Fatalf("Expected success, got error result %v", res.Content)
	}

	text, ok := res.Content[0].(*mcp.TextContent)
	if !ok || !strings.Contains(text.Text, "xychart-beta") {
		t.Errorf("Expected a speed chart in the text content, got %v", res.Content)
	}

	raw, err := json.Marshal(res.StructuredContent)
	if err != nil {
		t.Fatal(err)
	}
	var out trips.Result
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to decode structured content: %v", err)
	}
	if out.Trips != 2 {
		t.Errorf("Expected 2 trips, got %d", out.Trips)
	}
	if len(out.Files) != 3 {
		t.Errorf("Expected 3 files, got %v", out.Files)
	}
	if _, err := os.Stat(filepath.Join(dir, "out", trips.StatsFile)); err != nil {
		t.Errorf("Expected %s in the output dir: %v", trips.StatsFile, err)
	}
}

func TestAnalyzeCongestionReportsToolError(t *testing.T) {
	dir := t.TempDir()
	cs := connect(t, &config.AppConfig{DataPath: dir, OutputDir: "out", SampleRate: 1, TimeSliceSeconds: 900})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "analyze_congestion",
		Arguments: map[string]any{"events": "missing_events.xml", "network": "missing_network.xml"},
	})
	if err != nil {
		t.Fatalf("Expected a tool error result, got protocol error %v", err)
	}
	if !res.IsError {
		t.Errorf("Expected IsError for missing inputs")
	}
	if _, err := os.Stat(filepath.Join(dir, "out")); !os.IsNotExist(err) {
		t.Errorf("Expected no output dir after a failed run, got %v", err)
	}
}

func TestMissingRequiredArgument(t *testing.T) {
	cs := connect(t, &config.AppConfig{DataPath: t.TempDir()})

	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{
		Name:      "trip_statistics",
		Arguments: map[string]any{},
	})
	if err == nil && !res.IsError {
		t.Errorf("Expected a failure without the trips argument")
	}
}
