package eventlog

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"trafficstats/internal/fileio"
)

// ErrStopReading can be returned by a handler to end ReadEvents early without error.
var ErrStopReading = errors.New("stop reading events")

// Handler receives events in log order.
type Handler func(Event) error

// ReadFile streams a MATSim events file (optionally gzipped) into h.
func ReadFile(ctx context.Context, path string, h Handler) (int, error) {
	r, err := fileio.Open(path)
	if err != nil {
		return 0, err
	}
	defer r.Close()

	n, err := ReadEvents(ctx, r, h)
	if err != nil {
		return n, fmt.Errorf("failed to read events %s: %w", path, err)
	}
	return n, nil
}

// ReadEvents decodes <event .../> elements one by one and returns the number delivered.
// The context is checked periodically so large logs can be cancelled.
func ReadEvents(ctx context.Context, r io.Reader, h Handler) (int, error) {
	dec := xml.NewDecoder(r)
	count := 0

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return count, fmt.Errorf("malformed event log after %d events: %w", count, err)
		}

		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != "event" {
			continue
		}

		e, err := parseEvent(se)
		if err != nil {
			return count, fmt.Errorf("event %d: %w", count+1, err)
		}

		if err := h(e); err != nil {
			if errors.Is(err, ErrStopReading) {
				return count, nil
			}
			return count, err
		}
		count++

		if count%100000 == 0 {
			if err := ctx.Err(); err != nil {
				return count, err
			}
		}
	}
}

func parseEvent(se xml.StartElement) (Event, error) {
	var e Event
	for _, a := range se.Attr {
		switch a.Name.Local {
		case "time":
			t, err := strconv.ParseFloat(a.Value, 64)
			if err != nil {
				return e, fmt.Errorf("invalid time %q: %w", a.Value, err)
			}
			e.Time = t
		case "type":
			e.Type = EventType(a.Value)
		case "link":
			e.Link = a.Value
		case "vehicle":
			e.Vehicle = a.Value
		case "networkMode":
			e.NetworkMode = a.Value
		}
	}
	return e, nil
}
