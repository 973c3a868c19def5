// Package visuals renders analysis results as Mermaid charts for MCP tool responses.
package visuals

import (
	"fmt"
	"math"
	"strings"

	"trafficstats/internal/analysis"
	"trafficstats/internal/congestion"
	"trafficstats/internal/trips"
)

// GenerateHourlyCongestionChart creates a Mermaid xychart-beta of the network congestion
// index per hour, with the congestion threshold as a reference line. Hours without data
// are left out of the axis.
func GenerateHourlyCongestionChart(hourly []*float64) string {
	var labels []string
	var values []string
	var thresholds []string

	for h, v := range hourly {
		if v == nil {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%02d\"", h))
		values = append(values, fmt.Sprintf("%.2f", *v))
		thresholds = append(thresholds, fmt.Sprintf("%.2f", congestion.CongestedThreshold))
	}
	if len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Network Congestion Index by Hour\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Congestion Index\" 0 --> 1\n")
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(values, ", ")))
	sb.WriteString(fmt.Sprintf("    line [%s]\n", strings.Join(thresholds, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateRoadTypeChart creates a Mermaid bar chart of the daily congestion index per road type.
func GenerateRoadTypeChart(daily []analysis.RoadTypeIndex) string {
	var labels []string
	var values []string

	for _, d := range daily {
		if d.CongestionIndex == nil {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", d.RoadType))
		values = append(values, fmt.Sprintf("%.2f", *d.CongestionIndex))
	}
	if len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Daily Congestion Index by Road Type\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString("    y-axis \"Congestion Index\" 0 --> 1\n")
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}

// GenerateModeSpeedChart creates a Mermaid bar chart of the average trip speed per main mode.
func GenerateModeSpeedChart(modes []trips.ModeStats) string {
	var labels []string
	var values []string
	maxVal := 0.0

	for _, m := range modes {
		v, ok := m.AvgSpeed().Get()
		if !ok {
			continue
		}
		labels = append(labels, fmt.Sprintf("\"%s\"", m.Mode))
		values = append(values, fmt.Sprintf("%.1f", v))
		maxVal = math.Max(maxVal, v)
	}
	if len(values) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("```mermaid\n")
	sb.WriteString("xychart-beta\n")
	sb.WriteString("    title \"Average Trip Speed by Mode\"\n")
	sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(labels, ", ")))
	sb.WriteString(fmt.Sprintf("    y-axis \"Speed (km/h)\" 0 --> %d\n", int(math.Ceil(maxVal*1.1))))
	sb.WriteString(fmt.Sprintf("    bar [%s]\n", strings.Join(values, ", ")))
	sb.WriteString("```")
	return sb.String()
}
