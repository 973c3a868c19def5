package network

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"trafficstats/internal/fileio"
	"trafficstats/internal/stats"

	"github.com/paulmach/orb"
	"github.com/rs/zerolog/log"
)

type matsimAttribute struct {
	Name  string `xml:"name,attr"`
	Value string `xml:",chardata"`
}

type matsimNode struct {
	ID string  `xml:"id,attr"`
	X  float64 `xml:"x,attr"`
	Y  float64 `xml:"y,attr"`
}

type matsimLink struct {
	ID         string            `xml:"id,attr"`
	From       string            `xml:"from,attr"`
	To         string            `xml:"to,attr"`
	Length     float64           `xml:"length,attr"`
	FreeSpeed  float64           `xml:"freespeed,attr"`
	Capacity   float64           `xml:"capacity,attr"`
	PermLanes  float64           `xml:"permlanes,attr"`
	Modes      string            `xml:"modes,attr"`
	Type       string            `xml:"type,attr"`
	Attributes []matsimAttribute `xml:"attributes>attribute"`
}

type matsimNetwork struct {
	XMLName    xml.Name          `xml:"network"`
	Attributes []matsimAttribute `xml:"attributes>attribute"`
	Nodes      []matsimNode      `xml:"nodes>node"`
	Links      struct {
		CapPeriod string       `xml:"capperiod,attr"`
		Links     []matsimLink `xml:"link"`
	} `xml:"links"`
}

// LoadMATSim reads a MATSim network file (optionally gzipped).
func LoadMATSim(path string) (*Network, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	n, err := ReadMATSim(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read network %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("links", n.Len()).Str("crs", n.CRS).Msg("Loaded MATSim network")
	return n, nil
}

// ReadMATSim decodes a MATSim network document.
func ReadMATSim(r io.Reader) (*Network, error) {
	var doc matsimNetwork
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode network xml: %w", err)
	}

	capPeriod := 3600.0
	if doc.Links.CapPeriod != "" {
		secs, err := stats.ParseClock(doc.Links.CapPeriod)
		if err != nil {
			return nil, fmt.Errorf("invalid capperiod %q: %w", doc.Links.CapPeriod, err)
		}
		if secs > 0 {
			capPeriod = float64(secs)
		}
	}

	nodes := make(map[string]orb.Point, len(doc.Nodes))
	for _, nd := range doc.Nodes {
		nodes[nd.ID] = orb.Point{nd.X, nd.Y}
	}

	links := make([]Link, 0, len(doc.Links.Links))
	for _, ml := range doc.Links.Links {
		from, ok := nodes[ml.From]
		if !ok {
			return nil, fmt.Errorf("link %s references unknown from-node %s", ml.ID, ml.From)
		}
		to, ok := nodes[ml.To]
		if !ok {
			return nil, fmt.Errorf("link %s references unknown to-node %s", ml.ID, ml.To)
		}

		roadType := ml.Type
		for _, a := range ml.Attributes {
			if a.Name == "type" {
				roadType = a.Value
			}
		}

		links = append(links, Link{
			ID:        ml.ID,
			From:      from,
			To:        to,
			Length:    ml.Length,
			Lanes:     ml.PermLanes,
			FreeSpeed: ml.FreeSpeed,
			Capacity:  ml.Capacity * 3600 / capPeriod,
			RoadType:  NormalizeRoadType(roadType),
			Modes:     splitModes(ml.Modes),
		})
	}

	n := New(links)
	for _, a := range doc.Attributes {
		if a.Name == "coordinateReferenceSystem" {
			n.CRS = strings.TrimSpace(a.Value)
		}
	}
	return n, nil
}

// NormalizeRoadType strips the "highway." prefix and maps blanks to UnclassifiedRoadType.
func NormalizeRoadType(t string) string {
	t = strings.TrimSpace(t)
	t = strings.TrimPrefix(t, "highway.")
	if t == "" {
		return UnclassifiedRoadType
	}
	return t
}

func splitModes(s string) []string {
	var modes []string
	for _, m := range strings.Split(s, ",") {
		if m = strings.TrimSpace(m); m != "" {
			modes = append(modes, m)
		}
	}
	return modes
}
