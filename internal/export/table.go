// Package export writes analysis tables as CSV files.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// MaxParallelWrites bounds the number of files written at once.
const MaxParallelWrites = 4

// Table is a named CSV table with a mandatory header row.
type Table struct {
	Name   string
	Header []string
	Rows   [][]string
}

// Write stores the table as dir/Name. The file is written to a temporary path
// first and renamed into place, so a failed write never leaves a partial table.
func (t Table) Write(dir string) (string, error) {
	if len(t.Header) == 0 {
		return "", fmt.Errorf("table %s has no header", t.Name)
	}

	path := filepath.Join(dir, t.Name)
	tmpPath := path + ".tmp"

	file, err := os.Create(tmpPath)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", tmpPath, err)
	}

	w := csv.NewWriter(file)
	if err := w.Write(t.Header); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write header of %s: %w", t.Name, err)
	}
	for i, row := range t.Rows {
		if len(row) != len(t.Header) {
			file.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("row %d of %s has %d fields, want %d", i, t.Name, len(row), len(t.Header))
		}
		if err := w.Write(row); err != nil {
			file.Close()
			os.Remove(tmpPath)
			return "", fmt.Errorf("failed to write %s: %w", t.Name, err)
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		file.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to flush %s: %w", t.Name, err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close %s: %w", tmpPath, err)
	}

	// Atomic rename
	if err := os.Rename(tmpPath, path); err != nil {
		return "", fmt.Errorf("failed to rename %s: %w", tmpPath, err)
	}
	return path, nil
}

// WriteAll writes every table into dir, several at a time. The first failure
// cancels the remaining writes and is returned. Paths are returned in table order.
func WriteAll(ctx context.Context, dir string, tables []Table) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	paths := make([]string, len(tables))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(MaxParallelWrites)

	for i, t := range tables {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			path, err := t.Write(dir)
			if err != nil {
				return err
			}
			paths[i] = path
			log.Debug().Str("file", path).Int("rows", len(t.Rows)).Msg("Table written")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
