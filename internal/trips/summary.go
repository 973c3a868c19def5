package trips

import (
	"cmp"
	"fmt"
	"math"
	"slices"
	"strconv"

	"trafficstats/internal/export"
	"trafficstats/internal/stats"
)

// Output file names.
const (
	StatsFile          = "trip_stats.csv"
	PurposesFile       = "trip_purposes_by_10_minutes.csv"
	PeopleInSafetyFile = "people_in_safety.csv"
)

// ModeStats totals the trips of one main mode.
type ModeStats struct {
	Mode          string
	Trips         int
	TravelSeconds float64
	Distance      float64 // meters
	Beeline       float64 // meters
}

// Hours is the total travel time in hours.
func (s ModeStats) Hours() float64 {
	return s.TravelSeconds / 3600
}

// Km is the total traveled distance in kilometers.
func (s ModeStats) Km() float64 {
	return s.Distance / 1000
}

// AvgSpeed is the distance-over-time speed in km/h.
func (s ModeStats) AvgSpeed() stats.Value {
	if s.TravelSeconds <= 0 {
		return stats.NoData
	}
	return stats.Some(s.Km() / s.Hours())
}

// AvgBeelineSpeed is the beeline distance over travel time in km/h.
func (s ModeStats) AvgBeelineSpeed() stats.Value {
	if s.TravelSeconds <= 0 {
		return stats.NoData
	}
	return stats.Some(s.Beeline / 1000 / s.Hours())
}

// AvgDistance is the mean trip length in kilometers.
func (s ModeStats) AvgDistance() stats.Value {
	if s.Trips == 0 {
		return stats.NoData
	}
	return stats.Some(s.Km() / float64(s.Trips))
}

// ByMode totals trips per main mode, sorted by mode. When mode is set only
// that mode is reported, even if it has no trips.
func ByMode(trips []Trip, mode string) []ModeStats {
	acc := make(map[string]*ModeStats)
	if mode != "" {
		acc[mode] = &ModeStats{Mode: mode}
	}

	for _, t := range trips {
		if mode != "" && t.MainMode != mode {
			continue
		}
		s, ok := acc[t.MainMode]
		if !ok {
			s = &ModeStats{Mode: t.MainMode}
			acc[t.MainMode] = s
		}
		s.Trips++
		s.TravelSeconds += float64(t.TravelTime)
		s.Distance += t.Distance
		s.Beeline += t.Beeline
	}

	out := make([]ModeStats, 0, len(acc))
	for _, s := range acc {
		out = append(out, *s)
	}
	slices.SortFunc(out, func(a, b ModeStats) int { return cmp.Compare(a.Mode, b.Mode) })
	return out
}

// StatsTable renders mode statistics with one column per mode.
func StatsTable(modes []ModeStats) export.Table {
	header := []string{"Info"}
	rows := [][]string{
		{"Number of trips"},
		{"Total time traveled [h]"},
		{"Total distance traveled [km]"},
		{"Avg. speed [km/h]"},
		{"Avg. beeline speed [km/h]"},
		{"Avg. distance per trip [km]"},
	}

	for _, s := range modes {
		header = append(header, s.Mode)
		rows[0] = append(rows[0], strconv.Itoa(s.Trips))
		rows[1] = append(rows[1], strconv.FormatFloat(stats.Round(s.Hours(), 0), 'f', 0, 64))
		rows[2] = append(rows[2], strconv.FormatFloat(stats.Round(s.Km(), 0), 'f', 0, 64))
		rows[3] = append(rows[3], s.AvgSpeed().Round(2).String())
		rows[4] = append(rows[4], s.AvgBeelineSpeed().Round(2).String())
		rows[5] = append(rows[5], s.AvgDistance().Round(2).String())
	}
	return export.Table{Name: StatsFile, Header: header, Rows: rows}
}

// PurposeBin holds the shares of departures, arrivals and travel times that fall
// into one bin for one trip purpose. Each share is relative to all trips.
type PurposeBin struct {
	Purpose    string
	Bin        int // minutes, upper edge of the bin
	Arrival    float64
	Departure  float64
	TravelTime float64
}

// roundUp maps a time in seconds to the upper edge, in minutes, of its bin of the
// given width. The first minute of the day counts as minute 1.
func roundUp(secs, width int) int {
	minutes := max((secs%86400)/60, 1)
	return int(math.Ceil(float64(minutes)/float64(width))) * width
}

type purposeKey struct {
	purpose string
	bin     int
}

// PurposesBy10Minutes bins departures, arrivals and travel times into 10 minute bins.
func PurposesBy10Minutes(trips []Trip) []PurposeBin {
	if len(trips) == 0 {
		return nil
	}

	// dep, arr, trav
	counts := make(map[purposeKey]*[3]int)
	count := func(purpose string, secs, kind int) {
		k := purposeKey{purpose, roundUp(secs, 10)}
		c, ok := counts[k]
		if !ok {
			c = new([3]int)
			counts[k] = c
		}
		c[kind]++
	}
	for _, t := range trips {
		count(t.Purpose, t.Departure, 0)
		count(t.Purpose, t.Arrival(), 1)
		count(t.Purpose, t.TravelTime, 2)
	}

	total := float64(len(trips))
	out := make([]PurposeBin, 0, len(counts))
	for k, c := range counts {
		out = append(out, PurposeBin{
			Purpose:    k.purpose,
			Bin:        k.bin,
			Departure:  float64(c[0]) / total,
			Arrival:    float64(c[1]) / total,
			TravelTime: float64(c[2]) / total,
		})
	}
	slices.SortFunc(out, func(a, b PurposeBin) int {
		return cmp.Or(cmp.Compare(a.Purpose, b.Purpose), cmp.Compare(a.Bin, b.Bin))
	})
	return out
}

// ArrivalBin is the share of all trips arriving in one minute with one purpose.
type ArrivalBin struct {
	Purpose string
	Bin     int // minutes
	Share   float64
}

// PeopleInSafety bins arrivals by purpose into 1 minute bins.
func PeopleInSafety(trips []Trip) []ArrivalBin {
	if len(trips) == 0 {
		return nil
	}

	counts := make(map[purposeKey]int)
	for _, t := range trips {
		counts[purposeKey{t.Purpose, roundUp(t.Arrival(), 1)}]++
	}

	out := make([]ArrivalBin, 0, len(counts))
	for k, n := range counts {
		out = append(out, ArrivalBin{Purpose: k.purpose, Bin: k.bin, Share: float64(n) / float64(len(trips))})
	}
	slices.SortFunc(out, func(a, b ArrivalBin) int {
		return cmp.Or(cmp.Compare(a.Purpose, b.Purpose), cmp.Compare(a.Bin, b.Bin))
	})
	return out
}

// clock labels a bin edge; the bin ending at midnight is labelled 00:00.
func clock(minutes int) string {
	minutes %= 1440
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

func share(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// PurposesTable renders PurposesBy10Minutes output.
func PurposesTable(bins []PurposeBin) export.Table {
	rows := make([][]string, len(bins))
	for i, b := range bins {
		rows[i] = []string{b.Purpose, strconv.Itoa(b.Bin), share(b.Arrival), share(b.Departure), share(b.TravelTime), clock(b.Bin)}
	}
	return export.Table{
		Name:   PurposesFile,
		Header: []string{"purpose", "bin", "arrival", "departure", "traveltime", "time"},
		Rows:   rows,
	}
}

// PeopleInSafetyTable renders PeopleInSafety output.
func PeopleInSafetyTable(bins []ArrivalBin) export.Table {
	rows := make([][]string, len(bins))
	for i, b := range bins {
		rows[i] = []string{b.Purpose, strconv.Itoa(b.Bin), share(b.Share), clock(b.Bin)}
	}
	return export.Table{
		Name:   PeopleInSafetyFile,
		Header: []string{"purpose", "bin", "arrivals", "time"},
		Rows:   rows,
	}
}
