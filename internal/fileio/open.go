// Package fileio opens simulation input files, transparently decompressing gzip.
package fileio

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"
)

type readCloser struct {
	io.Reader
	closers []io.Closer
}

func (r *readCloser) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Open opens path for reading. Files ending in .gz are decompressed.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}

	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return &readCloser{Reader: bufio.NewReaderSize(f, 1<<16), closers: []io.Closer{f}}, nil
	}

	zr, err := gzip.NewReader(bufio.NewReaderSize(f, 1<<16))
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read gzip header of %s: %w", path, err)
	}
	return &readCloser{Reader: zr, closers: []io.Closer{f, zr}}, nil
}

// Create creates path for writing. Files ending in .gz are compressed.
func Create(path string) (io.WriteCloser, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", path, err)
	}
	if !strings.HasSuffix(strings.ToLower(path), ".gz") {
		return f, nil
	}
	return &gzipFile{Writer: gzip.NewWriter(f), f: f}, nil
}

type gzipFile struct {
	*gzip.Writer
	f *os.File
}

func (g *gzipFile) Close() error {
	if err := g.Writer.Close(); err != nil {
		g.f.Close()
		return err
	}
	return g.f.Close()
}
