// Package trips summarises the per-trip output of a simulation run.
package trips

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"trafficstats/internal/fileio"
	"trafficstats/internal/stats"
)

// Trip is one row of a trips table.
type Trip struct {
	ID string
	// Departure and TravelTime are in seconds; Departure is seconds after midnight.
	Departure  int
	TravelTime int
	MainMode   string
	// Distance and Beeline are in meters.
	Distance float64
	Beeline  float64
	// Purpose is the activity type at the end of the trip.
	Purpose string
}

// Arrival is the arrival time in seconds after midnight of the departure day.
func (t Trip) Arrival() int {
	return t.Departure + t.TravelTime
}

// Required column names.
const (
	colID       = "trip_id"
	colDep      = "dep_time"
	colTrav     = "trav_time"
	colMode     = "main_mode"
	colDistance = "traveled_distance"
	colBeeline  = "euclidean_distance"
	colPurpose  = "end_activity_type"
)

// ErrMissingColumn is returned when the trips header lacks a required column.
var ErrMissingColumn = errors.New("missing column in trips table")

// Load reads a trips table (optionally gzipped).
func Load(path string) ([]Trip, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	trips, err := Read(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read trips %s: %w", path, err)
	}
	return trips, nil
}

// Read parses a trips table. The delimiter is detected from the header line.
func Read(r io.Reader) ([]Trip, error) {
	br := bufio.NewReader(r)
	head, _ := br.Peek(4096)
	if i := bytes.IndexByte(head, '\n'); i >= 0 {
		head = head[:i]
	}

	cr := csv.NewReader(br)
	cr.Comma = DetectDelimiter(string(head))
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(h)] = i
	}
	for _, c := range []string{colID, colDep, colTrav, colMode, colDistance, colBeeline, colPurpose} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, c)
		}
	}

	var trips []Trip
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}

		t, err := parseTrip(rec, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func parseTrip(rec []string, cols map[string]int) (Trip, error) {
	dep, err := stats.ParseClock(rec[cols[colDep]])
	if err != nil {
		return Trip{}, fmt.Errorf("invalid %s: %w", colDep, err)
	}
	trav, err := stats.ParseClock(rec[cols[colTrav]])
	if err != nil {
		return Trip{}, fmt.Errorf("invalid %s: %w", colTrav, err)
	}
	dist, err := parseNumber(rec[cols[colDistance]])
	if err != nil {
		return Trip{}, fmt.Errorf("invalid %s: %w", colDistance, err)
	}
	bee, err := parseNumber(rec[cols[colBeeline]])
	if err != nil {
		return Trip{}, fmt.Errorf("invalid %s: %w", colBeeline, err)
	}

	return Trip{
		ID:         rec[cols[colID]],
		Departure:  dep,
		TravelTime: trav,
		MainMode:   rec[cols[colMode]],
		Distance:   dist,
		Beeline:    bee,
		Purpose:    rec[cols[colPurpose]],
	}, nil
}

func parseNumber(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

// DetectDelimiter picks the most frequent of ';', ',' and tab in a header line.
// Ties prefer ';', the simulation's default.
func DetectDelimiter(header string) rune {
	best, bestN := ';', strings.Count(header, ";")
	for _, c := range []rune{',', '\t'} {
		if n := strings.Count(header, string(c)); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
