package congestion

import "fmt"

const (
	// DaySeconds is the analysed horizon.
	DaySeconds = 86400
	// HourSeconds is the width of hourly aggregates.
	HourSeconds = 3600
	// DefaultSliceWidth is the travel-time slice width in seconds.
	DefaultSliceWidth = 900

	// CongestedThreshold is the SPI at or below which a slice counts as congested.
	CongestedThreshold = 0.5

	// SurfaceBinWidth is the time bin of the congestion surface.
	SurfaceBinWidth = 600
	// SurfacePoints is the number of sample points per link on the surface.
	SurfacePoints = 5
)

// Range is a half-open interval [Start, End) in seconds after midnight.
type Range struct {
	Start int
	End   int
}

// Day is the full analysis horizon.
var Day = Range{Start: 0, End: DaySeconds}

// Hour returns the range of hour h (0-23).
func Hour(h int) Range {
	return Range{Start: h * HourSeconds, End: (h + 1) * HourSeconds}
}

// Validate checks 0 <= Start < End <= DaySeconds.
func (r Range) Validate() error {
	if r.Start < 0 || r.End > DaySeconds || r.Start >= r.End {
		return fmt.Errorf("%w: [%d, %d)", ErrInvalidRange, r.Start, r.End)
	}
	return nil
}

func (r Range) String() string {
	return fmt.Sprintf("[%d, %d)", r.Start, r.End)
}

// Bins splits the day into consecutive ranges of the given width; the last may be shorter.
func Bins(width int) []Range {
	if width <= 0 {
		return nil
	}
	var out []Range
	for start := 0; start < DaySeconds; start += width {
		out = append(out, Range{Start: start, End: min(start+width, DaySeconds)})
	}
	return out
}
