package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

func (s *Server) registerTools() {
	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "analyze_congestion",
		Description: "Compute speed performance and congestion indices from a simulation events file and its network. " +
			"Writes per-link, per-road-type and spatio-temporal CSV tables into the output directory and returns the daily network congestion index per road type. " +
			"Guidance: relative paths are resolved against DATA_PATH. Congestion indices range from 0 (fully congested) to 1 (free flow).",
	}, s.handleAnalyzeCongestion)

	mcp.AddTool(s.mcp, &mcp.Tool{
		Name: "trip_statistics",
		Description: "Summarise a simulation trips table: per-mode trip counts, hours, distances and speeds, " +
			"trip purposes by 10-minute bins and arrivals in safety by 1-minute bins.",
	}, s.handleTripStatistics)
}
