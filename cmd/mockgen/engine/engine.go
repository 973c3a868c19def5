package engine

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"

	"trafficstats/internal/eventlog"
	"trafficstats/internal/fileio"
)

const (
	// Spacing is the distance between neighbouring grid nodes in meters.
	Spacing = 250.0

	NetworkFile = "network.xml.gz"
	EventsFile  = "events.xml.gz"
	TripsFile   = "trips.csv.gz"
)

type GeneratorConfig struct {
	Scenario string // "mild", "rush" or "chaos"
	Size     int    // nodes per grid side
	Vehicles int
	Seed     int64
}

type Link struct {
	ID        string
	From, To  int
	Length    float64
	FreeSpeed float64
	Capacity  float64
	Lanes     float64
	Type      string
}

type Trip struct {
	ID        string
	Departure int
	Travel    int
	Mode      string
	Distance  float64
	Beeline   float64
	Purpose   string
}

// Scenario is a generated network with its event log and trip table.
type Scenario struct {
	Size   int
	Links  []Link
	Events []eventlog.Event
	Trips  []Trip
}

func nodeID(i int) string { return fmt.Sprintf("n%d", i) }

func buildGrid(size int) []Link {
	var links []Link
	add := func(from, to int, roadType string) {
		l := Link{ID: fmt.Sprintf("%s_%s", nodeID(from), nodeID(to)), From: from, To: to, Length: Spacing, Type: roadType}
		switch roadType {
		case "primary":
			l.FreeSpeed, l.Lanes, l.Capacity = 50/3.6, 2, 1800
		case "secondary":
			l.FreeSpeed, l.Lanes, l.Capacity = 40/3.6, 1, 900
		default:
			l.FreeSpeed, l.Lanes, l.Capacity = 30/3.6, 1, 600
		}
		links = append(links, l)
	}

	for r := 0; r < size; r++ {
		for c := 0; c < size; c++ {
			n := r*size + c
			// Row 0 and column 0 are arterials, every third line a collector.
			if c+1 < size {
				t := roadTypeFor(r)
				add(n, n+1, t)
				add(n+1, n, t)
			}
			if r+1 < size {
				t := roadTypeFor(c)
				add(n, n+size, t)
				add(n+size, n, t)
			}
		}
	}
	return links
}

func roadTypeFor(line int) string {
	switch {
	case line == 0:
		return "primary"
	case line%3 == 0:
		return "secondary"
	default:
		return "residential"
	}
}

// slowdown is the travel time multiplier at time t.
func slowdown(scenario string, t float64, rng *rand.Rand) float64 {
	h := t / 3600
	peak := math.Exp(-math.Pow(h-8, 2)/1.5) + math.Exp(-math.Pow(h-17, 2)/2)
	switch scenario {
	case "rush":
		return 1 + 2.5*peak
	case "chaos":
		f := 1 + 1.5*peak
		if rng.Float64() < 0.1 {
			f += 2 + rng.Float64()*4 // incidents
		}
		return f
	default:
		return 1 + 0.4*peak
	}
}

func departure(rng *rand.Rand) float64 {
	// Two commuter peaks plus background traffic.
	switch p := rng.Float64(); {
	case p < 0.35:
		return math.Max(0, rng.NormFloat64()*3600+8*3600)
	case p < 0.7:
		return math.Max(0, rng.NormFloat64()*4000+17*3600)
	default:
		return rng.Float64() * 22 * 3600
	}
}

var purposes = []string{"work", "home", "shopping", "leisure", "shelter"}

func Generate(cfg GeneratorConfig) Scenario {
	if cfg.Size < 2 {
		cfg.Size = 2
	}
	rng := rand.New(rand.NewSource(cfg.Seed))
	links := buildGrid(cfg.Size)

	out := make(map[int][]int)
	for i, l := range links {
		out[l.From] = append(out[l.From], i)
	}

	s := Scenario{Size: cfg.Size, Links: links}
	for v := 0; v < cfg.Vehicles; v++ {
		vehicle := fmt.Sprintf("veh%d", v)
		t := math.Floor(departure(rng))
		start := rng.Intn(cfg.Size * cfg.Size)
		hops := 2 + rng.Intn(2*cfg.Size)

		// 1. Random walk without immediate U-turns
		route := make([]int, 0, hops)
		node, prev := start, -1
		for range hops {
			cand := slices.DeleteFunc(slices.Clone(out[node]), func(i int) bool { return links[i].To == prev })
			li := cand[rng.Intn(len(cand))]
			route = append(route, li)
			prev, node = node, links[li].To
		}

		// 2. Events along the route
		dep := t
		s.Events = append(s.Events, eventlog.Event{Time: t, Type: eventlog.VehicleEntersTraffic, Link: links[route[0]].ID, Vehicle: vehicle, NetworkMode: "car"})
		for i, li := range route {
			l := links[li]
			if i > 0 {
				s.Events = append(s.Events, eventlog.Event{Time: t, Type: eventlog.EnteredLink, Link: l.ID, Vehicle: vehicle})
			}
			t += math.Ceil(l.Length / l.FreeSpeed * slowdown(cfg.Scenario, t, rng))
			if i < len(route)-1 {
				s.Events = append(s.Events, eventlog.Event{Time: t, Type: eventlog.LeftLink, Link: l.ID, Vehicle: vehicle})
			}
		}
		last := links[route[len(route)-1]]
		s.Events = append(s.Events, eventlog.Event{Time: t, Type: eventlog.VehicleLeavesTraffic, Link: last.ID, Vehicle: vehicle, NetworkMode: "car"})

		// 3. Trip record
		sx, sy := coord(start, cfg.Size)
		ex, ey := coord(node, cfg.Size)
		s.Trips = append(s.Trips, Trip{
			ID:        vehicle + "_1",
			Departure: int(dep),
			Travel:    int(t - dep),
			Mode:      "car",
			Distance:  float64(hops) * Spacing,
			Beeline:   math.Hypot(ex-sx, ey-sy),
			Purpose:   purposes[rng.Intn(len(purposes))],
		})
	}

	slices.SortStableFunc(s.Events, func(a, b eventlog.Event) int {
		switch {
		case a.Time < b.Time:
			return -1
		case a.Time > b.Time:
			return 1
		}
		return 0
	})
	return s
}

func coord(node, size int) (float64, float64) {
	return float64(node%size) * Spacing, float64(node/size) * Spacing
}

// Save writes the network, events and trips as gzipped files into outDir.
func Save(outDir string, s Scenario) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, NetworkFile), func(w io.Writer) error { return writeNetwork(w, s) }); err != nil {
		return err
	}
	if err := writeFile(filepath.Join(outDir, EventsFile), func(w io.Writer) error { return writeEvents(w, s.Events) }); err != nil {
		return err
	}
	return writeFile(filepath.Join(outDir, TripsFile), func(w io.Writer) error { return writeTrips(w, s.Trips) })
}

func writeFile(path string, fill func(io.Writer) error) error {
	f, err := fileio.Create(path)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	if err := fill(w); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

type xmlNode struct {
	ID string  `xml:"id,attr"`
	X  float64 `xml:"x,attr"`
	Y  float64 `xml:"y,attr"`
}

type xmlLink struct {
	ID        string  `xml:"id,attr"`
	From      string  `xml:"from,attr"`
	To        string  `xml:"to,attr"`
	Length    float64 `xml:"length,attr"`
	FreeSpeed float64 `xml:"freespeed,attr"`
	Capacity  float64 `xml:"capacity,attr"`
	PermLanes float64 `xml:"permlanes,attr"`
	Modes     string  `xml:"modes,attr"`
	Type      string  `xml:"type,attr"`
}

type xmlNetwork struct {
	XMLName xml.Name  `xml:"network"`
	Name    string    `xml:"name,attr"`
	Nodes   []xmlNode `xml:"nodes>node"`
	Links   struct {
		CapPeriod string    `xml:"capperiod,attr"`
		Links     []xmlLink `xml:"link"`
	} `xml:"links"`
}

func writeNetwork(w io.Writer, s Scenario) error {
	doc := xmlNetwork{Name: "mockgen"}
	for i := range s.Size * s.Size {
		x, y := coord(i, s.Size)
		doc.Nodes = append(doc.Nodes, xmlNode{ID: nodeID(i), X: x, Y: y})
	}
	doc.Links.CapPeriod = "01:00:00"
	for _, l := range s.Links {
		doc.Links.Links = append(doc.Links.Links, xmlLink{
			ID: l.ID, From: nodeID(l.From), To: nodeID(l.To),
			Length: l.Length, FreeSpeed: l.FreeSpeed, Capacity: l.Capacity, PermLanes: l.Lanes,
			Modes: "car", Type: l.Type,
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	return enc.Encode(doc)
}

func writeEvents(w io.Writer, events []eventlog.Event) error {
	if _, err := io.WriteString(w, xml.Header+"<events version=\"1.0\">\n"); err != nil {
		return err
	}
	for _, e := range events {
		line := fmt.Sprintf("  <event time=\"%.1f\" type=\"%s\" link=\"%s\" vehicle=\"%s\"", e.Time, e.Type, e.Link, e.Vehicle)
		if e.NetworkMode != "" {
			line += fmt.Sprintf(" networkMode=\"%s\"", e.NetworkMode)
		}
		if _, err := io.WriteString(w, line+" />\n"); err != nil {
			return err
		}
	}
	_, err := io.WriteString(w, "</events>\n")
	return err
}

func writeTrips(w io.Writer, trips []Trip) error {
	if _, err := io.WriteString(w, "trip_id;dep_time;trav_time;traveled_distance;euclidean_distance;main_mode;end_activity_type\n"); err != nil {
		return err
	}
	for _, t := range trips {
		if _, err := fmt.Fprintf(w, "%s;%s;%s;%.0f;%.0f;%s;%s\n", t.ID, clock(t.Departure), clock(t.Travel), t.Distance, t.Beeline, t.Mode, t.Purpose); err != nil {
			return err
		}
	}
	return nil
}

func clock(secs int) string {
	return fmt.Sprintf("%02d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
}
