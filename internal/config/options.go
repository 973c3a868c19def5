package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sync"

	"github.com/google/jsonschema-go/jsonschema"
)

// ErrInvalidOptions is returned when an options file does not match the schema.
var ErrInvalidOptions = errors.New("invalid options file")

// Options is the JSON options file of an analysis run. Every field is optional;
// flags given on the command line take precedence.
type Options struct {
	Events            string   `json:"events,omitempty" jsonschema:"path of the simulation events file (.xml or .xml.gz)"`
	Network           string   `json:"network,omitempty" jsonschema:"path of the network file (MATSim .xml[.gz] or OSM .osm)"`
	TransportModes    []string `json:"transport_modes,omitempty" jsonschema:"transport modes whose travel times are analyzed"`
	Boundary          string   `json:"boundary,omitempty" jsonschema:"GeoJSON polygon restricting the analyzed links"`
	SampleRate        float64  `json:"sample_rate,omitempty" jsonschema:"share of the population that was simulated"`
	TimeSlice         int      `json:"time_slice,omitempty" jsonschema:"travel time slice width in seconds"`
	Output            string   `json:"output,omitempty" jsonschema:"output directory"`
	FreeSpeedFallback *bool    `json:"free_speed_fallback,omitempty" jsonschema:"use free-flow travel time for slices without observations"`
	MetricsFile       string   `json:"metrics_file,omitempty" jsonschema:"Prometheus textfile to write run metrics to"`
}

var (
	schemaOnce     sync.Once
	optionsSchema  *jsonschema.Resolved
	optionsSchemaE error
)

// OptionsSchema returns the resolved JSON schema of Options.
func OptionsSchema() (*jsonschema.Resolved, error) {
	schemaOnce.Do(func() {
		s, err := jsonschema.For[Options](nil)
		if err != nil {
			optionsSchemaE = fmt.Errorf("failed to infer options schema: %w", err)
			return
		}

		s.Properties["sample_rate"].ExclusiveMinimum = jsonschema.Ptr(0.0)
		s.Properties["sample_rate"].Maximum = jsonschema.Ptr(1.0)
		s.Properties["time_slice"].Minimum = jsonschema.Ptr(1.0)
		s.Properties["time_slice"].Maximum = jsonschema.Ptr(86400.0)

		optionsSchema, optionsSchemaE = s.Resolve(nil)
		if optionsSchemaE != nil {
			optionsSchemaE = fmt.Errorf("failed to resolve options schema: %w", optionsSchemaE)
		}
	})
	return optionsSchema, optionsSchemaE
}

// ParseOptions validates data against the options schema and decodes it.
func ParseOptions(data []byte) (*Options, error) {
	resolved, err := OptionsSchema()
	if err != nil {
		return nil, err
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	if err := resolved.Validate(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}

	var opts Options
	if err := json.Unmarshal(data, &opts); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidOptions, err)
	}
	return &opts, nil
}

// LoadOptions reads and validates an options file.
func LoadOptions(path string) (*Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read options file: %w", err)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return opts, nil
}
