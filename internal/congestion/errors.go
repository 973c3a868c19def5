package congestion

import (
	"errors"
	"fmt"
)

var (
	// ErrNoMatchingLinks is returned by NCI when the road-type filter matches no link.
	ErrNoMatchingLinks = errors.New("no link matches the road type filter")
	// ErrNoData is returned by NCI when matching links exist but none has a congestion index.
	ErrNoData = errors.New("no travel time data for the requested interval")
	// ErrLinkGeometry marks links whose geometry makes speeds undefined.
	ErrLinkGeometry = errors.New("invalid link geometry")
	// ErrInvalidRange is returned for intervals outside [0, 86400) or with start >= end.
	ErrInvalidRange = errors.New("invalid time range")
	// ErrUnknownLink is returned for links that are not part of the engine's network.
	ErrUnknownLink = errors.New("link is not part of the network")
)

// LinkGeometryError reports a link that cannot be evaluated.
type LinkGeometryError struct {
	LinkID string
	Reason string
}

func (e *LinkGeometryError) Error() string {
	return fmt.Sprintf("link %s: %s", e.LinkID, e.Reason)
}

func (e *LinkGeometryError) Unwrap() error {
	return ErrLinkGeometry
}
