// Package csv reads label tables and writes feature matrices as CSV.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// Reader reads numeric rows from a CSV file.
type Reader struct {
	file      *os.File
	reader    *csv.Reader
	hasHeader bool
	headers   []string
	line      int

	// err is the error that ended Stream, set before its channel closes.
	err error
}

// Option configures a CSV reader.
type Option func(*Reader)

// WithHeader indicates the CSV has a header row.
func WithHeader(has bool) Option {
	return func(r *Reader) {
		r.hasHeader = has
	}
}

// NewReader opens filename for reading.
func NewReader(filename string, opts ...Option) (*Reader, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		file:   file,
		reader: csv.NewReader(file),
	}
	r.reader.TrimLeadingSpace = true

	for _, opt := range opts {
		opt(r)
	}

	if r.hasHeader {
		headers, err := r.reader.Read()
		if err != nil {
			file.Close()
			return nil, fmt.Errorf("%s: reading header: %w", filename, err)
		}
		r.headers = headers
		r.line++
	}

	return r, nil
}

// Headers returns the column headers.
func (r *Reader) Headers() []string {
	return r.headers
}

// Read returns all remaining rows. A row that is not numeric is an error.
func (r *Reader) Read() ([][]float64, error) {
	var data [][]float64

	for {
		row, err := r.next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data = append(data, row)
	}

	return data, nil
}

// Stream returns a channel of rows. The channel is closed at the end of the
// file, on the first malformed row, or when ctx is done; Err then tells
// these apart.
func (r *Reader) Stream(ctx context.Context) (<-chan []float64, error) {
	out := make(chan []float64, 100)

	go func() {
		defer close(out)
		for {
			row, err := r.next()
			if err == io.EOF {
				return
			}
			if err != nil {
				r.err = err
				return
			}

			select {
			case out <- row:
			case <-ctx.Done():
				r.err = ctx.Err()
				return
			}
		}
	}()

	return out, nil
}

// Err returns the error that ended the last Stream, or nil at end of file.
// It is valid once the stream channel is closed.
func (r *Reader) Err() error {
	return r.err
}

// Close releases resources.
func (r *Reader) Close() error {
	if r.file != nil {
		return r.file.Close()
	}
	return nil
}

func (r *Reader) next() ([]float64, error) {
	record, err := r.reader.Read()
	if err != nil {
		return nil, err
	}
	r.line++

	row, err := parseRow(record)
	if err != nil {
		return nil, fmt.Errorf("%s line %d: %w", r.file.Name(), r.line, err)
	}
	return row, nil
}

// ReadLabels reads one or more label files and places their columns side by
// side. Every file must have the same number of rows.
func ReadLabels(filenames []string, opts ...Option) ([][]float64, error) {
	if len(filenames) == 0 {
		return nil, errors.New("no label files")
	}

	var labels [][]float64
	for i, name := range filenames {
		r, err := NewReader(name, opts...)
		if err != nil {
			return nil, err
		}
		rows, err := r.Read()
		r.Close()
		if err != nil {
			return nil, err
		}

		if i == 0 {
			labels = rows
			continue
		}
		if len(rows) != len(labels) {
			return nil, fmt.Errorf("%s has %d rows, %s has %d", name, len(rows), filenames[0], len(labels))
		}
		for j := range labels {
			labels[j] = append(labels[j], rows[j]...)
		}
	}

	return labels, nil
}

// parseRow converts string slice to float slice.
func parseRow(record []string) ([]float64, error) {
	if len(record) == 0 {
		return nil, errors.New("empty row")
	}

	row := make([]float64, len(record))
	for i, val := range record {
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return nil, err
		}
		row[i] = f
	}
	return row, nil
}
