package export

import (
	"strconv"

	"trafficstats/internal/aggregate"
	"trafficstats/internal/eventlog"
	"trafficstats/internal/grid"
	"trafficstats/internal/stats"
)

// Output file names.
const (
	LinkDailyFile         = "traffic_stats_by_link_daily.csv"
	LinkHourlyFile        = "traffic_stats_by_link_and_hour.csv"
	RoadTypeHourlyFile    = "traffic_stats_by_road_type_and_hour.csv"
	RoadTypeDailyFile     = "traffic_stats_by_road_type_daily.csv"
	RoadTypeDailyLongFile = "traffic_stats_by_road_type_daily_long.csv"
	CongestionGridFile    = "congestion.xyt.csv"
)

// PresentationDecimals is the rounding applied to road type summaries.
const PresentationDecimals = 3

// Column names.
const (
	ColLinkID      = "link_id"
	ColHour        = "hour"
	ColRoadType    = "road_type"
	ColLaneKm      = "lane_km"
	ColSPI         = "speed_performance_index"
	ColLCI         = "congestion_index"
	ColAvgSpeed    = "avg_speed_limit_kmh"
	ColUtilization = "road_capacity_utilization"
	ColVolume      = "simulated_traffic_volume"
	ColInformation = "Information"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func modeColumns(modes []eventlog.Mode) []string {
	cols := make([]string, len(modes))
	for i, m := range modes {
		cols[i] = "vol_" + string(m)
	}
	return cols
}

func volumes(total float64, byMode []float64) []string {
	out := make([]string, 0, len(byMode)+1)
	out = append(out, formatFloat(total))
	for _, v := range byMode {
		out = append(out, formatFloat(v))
	}
	return out
}

// LinkHourly renders the disaggregated dataset.
func LinkHourly(ds *aggregate.Dataset) Table {
	header := []string{ColLinkID, ColHour, ColRoadType, ColLaneKm, ColSPI, ColLCI, ColAvgSpeed, ColUtilization, ColVolume}
	header = append(header, modeColumns(ds.Modes)...)

	rows := make([][]string, len(ds.Rows))
	for i, r := range ds.Rows {
		row := []string{
			r.LinkID,
			strconv.Itoa(r.Hour),
			r.RoadType,
			formatFloat(r.LaneKm),
			r.SPI.String(),
			r.LCI.String(),
			r.AvgSpeedKmh.String(),
			r.Utilization.String(),
		}
		rows[i] = append(row, volumes(r.Volume, r.ModeVolumes)...)
	}
	return Table{Name: LinkHourlyFile, Header: header, Rows: rows}
}

// LinkDaily renders the daily per-link summary.
func LinkDaily(modes []eventlog.Mode, daily []aggregate.LinkDaily) Table {
	header := []string{ColLinkID, ColSPI, ColLCI, ColAvgSpeed, ColUtilization, ColLaneKm, ColVolume}
	header = append(header, modeColumns(modes)...)

	rows := make([][]string, len(daily))
	for i, d := range daily {
		row := []string{
			d.LinkID,
			d.SPI.String(),
			d.LCI.String(),
			d.AvgSpeedKmh.String(),
			d.Utilization.String(),
			formatFloat(d.LaneKm),
		}
		rows[i] = append(row, volumes(d.Volume, d.ModeVolumes)...)
	}
	return Table{Name: LinkDailyFile, Header: header, Rows: rows}
}

// RoadTypeHourly renders the hourly NCI per road type. Hours without data stay empty.
func RoadTypeHourly(rows []aggregate.RoadTypeHour) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{r.RoadType, strconv.Itoa(r.Hour), r.CongestionIndex.String()}
	}
	return Table{
		Name:   RoadTypeHourlyFile,
		Header: []string{ColRoadType, ColHour, ColLCI},
		Rows:   out,
	}
}

// RoadTypeDailyLong renders one row per road type, rounded for presentation.
func RoadTypeDailyLong(rows []aggregate.RoadTypeDaily) Table {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{
			r.RoadType,
			r.CongestionIndex.Round(PresentationDecimals).String(),
			r.AvgSpeedKmh.Round(PresentationDecimals).String(),
			r.Utilization.Round(PresentationDecimals).String(),
			formatFloat(stats.Round(r.LaneKm, PresentationDecimals)),
		}
	}
	return Table{
		Name:   RoadTypeDailyLongFile,
		Header: []string{ColRoadType, ColLCI, ColAvgSpeed, ColUtilization, ColLaneKm},
		Rows:   out,
	}
}

// RoadTypeDaily renders the transposed daily road type table.
func RoadTypeDaily(t aggregate.Transposed) Table {
	header := append([]string{ColInformation}, t.RoadTypes...)

	rows := make([][]string, len(t.Rows))
	for i, r := range t.Rows {
		row := make([]string, 0, len(header))
		row = append(row, r.Information)
		for _, v := range r.Values {
			row = append(row, v.Round(PresentationDecimals).String())
		}
		rows[i] = row
	}
	return Table{Name: RoadTypeDailyFile, Header: header, Rows: rows}
}

// CongestionGrid renders grid cells with their fixed-precision keys.
func CongestionGrid(cells []grid.Cell) Table {
	rows := make([][]string, len(cells))
	for i, c := range cells {
		rows[i] = []string{c.TimeKey, c.XKey, c.YKey, formatFloat(c.Value)}
	}
	return Table{
		Name:   CongestionGridFile,
		Header: []string{"time", "x", "y", "value"},
		Rows:   rows,
	}
}
