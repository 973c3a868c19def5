package network

import (
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"trafficstats/internal/fileio"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmxml"
	"github.com/rs/zerolog/log"
)

// highwayDefaults holds per-direction defaults for drivable OSM highway types.
type highwayDefaults struct {
	lanes           float64
	speedKmh        float64
	capacityPerLane float64
}

var drivableHighways = map[string]highwayDefaults{
	"motorway":       {2, 120, 2000},
	"motorway_link":  {1, 80, 1500},
	"trunk":          {2, 100, 2000},
	"trunk_link":     {1, 60, 1500},
	"primary":        {1, 80, 1500},
	"primary_link":   {1, 60, 1500},
	"secondary":      {1, 60, 1000},
	"secondary_link": {1, 50, 1000},
	"tertiary":       {1, 50, 600},
	"tertiary_link":  {1, 40, 600},
	"residential":    {1, 30, 600},
	"living_street":  {1, 15, 300},
	"unclassified":   {1, 45, 600},
	"service":        {1, 20, 300},
}

var osmModes = []string{"car", "truck", "freight", "ride"}

// LoadOSM builds a network from an OpenStreetMap XML extract (optionally gzipped).
func LoadOSM(ctx context.Context, path string) (*Network, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	n, err := ReadOSM(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("failed to read osm %s: %w", path, err)
	}
	log.Info().Str("path", path).Int("links", n.Len()).Msg("Built network from OSM extract")
	return n, nil
}

// ReadOSM converts the drivable ways of an OSM XML document into links, one per
// consecutive node pair, with a reverse link unless the way is one-way. Ways tagged
// oneway=-1 only get the reverse link.
// Coordinates are WGS84 (x = lon, y = lat).
func ReadOSM(ctx context.Context, r io.Reader) (*Network, error) {
	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	nodes := make(map[osm.NodeID]orb.Point)
	var ways []*osm.Way

	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			nodes[o.ID] = orb.Point{o.Lon, o.Lat}
		case *osm.Way:
			if _, ok := drivableHighways[o.Tags.Find("highway")]; ok {
				ways = append(ways, o)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan osm xml: %w", err)
	}

	var links []Link
	missing := 0
	for _, w := range ways {
		hw := w.Tags.Find("highway")
		def := drivableHighways[hw]

		dir := wayDirection(w.Tags)
		fwdLanes, bwdLanes := laneCounts(w.Tags, def.lanes, dir != bothWays)
		if dir == backward {
			fwdLanes, bwdLanes = 0, fwdLanes
		}
		speed := parseMaxSpeed(w.Tags.Find("maxspeed"), def.speedKmh) / 3.6

		for i := 0; i+1 < len(w.Nodes); i++ {
			a, okA := nodes[w.Nodes[i].ID]
			b, okB := nodes[w.Nodes[i+1].ID]
			if !okA || !okB {
				missing++
				continue
			}
			length := geo.Distance(a, b)
			base := Link{
				Length:    length,
				FreeSpeed: speed,
				RoadType:  hw,
				Modes:     osmModes,
			}

			if dir != backward {
				fwd := base
				fwd.ID = fmt.Sprintf("%d_%d", w.ID, i)
				fwd.From, fwd.To = a, b
				fwd.Lanes = fwdLanes
				fwd.Capacity = fwdLanes * def.capacityPerLane
				links = append(links, fwd)
			}

			if dir != forward {
				bwd := base
				bwd.ID = fmt.Sprintf("%d_%d_r", w.ID, i)
				bwd.From, bwd.To = b, a
				bwd.Lanes = bwdLanes
				bwd.Capacity = bwdLanes * def.capacityPerLane
				links = append(links, bwd)
			}
		}
	}

	if missing > 0 {
		log.Warn().Int("segments", missing).Msg("Skipped way segments referencing nodes missing from the extract")
	}

	n := New(links)
	n.CRS = "EPSG:4326"
	return n, nil
}

type direction int

const (
	bothWays direction = iota
	forward
	// backward is a one-way street against the node order (oneway=-1).
	backward
)

func wayDirection(tags osm.Tags) direction {
	switch tags.Find("oneway") {
	case "yes", "true", "1":
		return forward
	case "-1", "reverse":
		return backward
	case "no", "false", "0":
		return bothWays
	}
	if tags.Find("highway") == "motorway" || tags.Find("junction") == "roundabout" {
		return forward
	}
	return bothWays
}

func laneCounts(tags osm.Tags, fallback float64, oneway bool) (float64, float64) {
	parse := func(k string) (float64, bool) {
		v, err := strconv.ParseFloat(strings.TrimSpace(tags.Find(k)), 64)
		return v, err == nil && v > 0
	}

	total, hasTotal := parse("lanes")
	if oneway {
		if hasTotal {
			return total, 0
		}
		return fallback, 0
	}

	fwd, hasFwd := parse("lanes:forward")
	bwd, hasBwd := parse("lanes:backward")
	if !hasFwd || !hasBwd {
		perDir := fallback
		if hasTotal {
			perDir = math.Max(1, math.Floor(total/2))
		}
		if !hasFwd {
			fwd = perDir
		}
		if !hasBwd {
			bwd = perDir
		}
	}
	return fwd, bwd
}

// parseMaxSpeed reads an OSM maxspeed value in km/h, handling "mph" suffixes.
func parseMaxSpeed(raw string, fallback float64) float64 {
	raw = strings.TrimSpace(strings.ToLower(raw))
	if raw == "" {
		return fallback
	}
	factor := 1.0
	if strings.HasSuffix(raw, "mph") {
		factor = 1.609344
		raw = strings.TrimSpace(strings.TrimSuffix(raw, "mph"))
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return fallback
	}
	return v * factor
}
