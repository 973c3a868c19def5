package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCollector_WriteTextfile(t *testing.T) {
	c := NewCollector()
	c.EventsTotal.Add(12)
	c.LinksTotal.WithLabelValues("loaded").Set(3)
	c.RecordLinkIssue("geometry")
	c.Stage("reduce").ObserveDuration()

	path := filepath.Join(t.TempDir(), "run.prom")
	if err := c.WriteTextfile(path); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	for _, want := range []string{
		"trafficstats_events_read_total 12",
		`trafficstats_links{stage="loaded"} 3`,
		`trafficstats_link_issues_total{kind="geometry"} 1`,
		`trafficstats_stage_duration_seconds_count{stage="reduce"} 1`,
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Expected %q in output:\n%s", want, text)
		}
	}
}

func TestCollector_Isolated(t *testing.T) {
	a := NewCollector()
	b := NewCollector()
	a.EventsTotal.Add(5)

	got, err := b.Gather()
	if err != nil {
		t.Fatalf("Gather failed: %v", err)
	}
	if got["trafficstats_events_read_total"] != 0 {
		t.Errorf("Expected separate registries, got %v", got["trafficstats_events_read_total"])
	}

	got, _ = a.Gather()
	if got["trafficstats_events_read_total"] != 5 {
		t.Errorf("Expected 5 events, got %v", got["trafficstats_events_read_total"])
	}
}
