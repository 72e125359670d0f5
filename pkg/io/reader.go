// Package io provides input/output utilities for labels and feature matrices.
package io

import "context"

// Reader is the interface for reading numeric tables such as labels.
type Reader interface {
	// Read returns the complete table.
	Read() ([][]float64, error)

	// Stream returns a channel of rows for incremental processing.
	Stream(ctx context.Context) (<-chan []float64, error)

	// Err reports what ended the last Stream once its channel is closed.
	Err() error

	// Close releases resources.
	Close() error
}

// Writer is the interface for writing feature matrices.
type Writer interface {
	// WriteHeader outputs column names.
	WriteHeader(names []string) error

	// WriteRow outputs a single labelled row.
	WriteRow(label string, row []float64) error

	// Flush writes buffered data and reports any write error.
	Flush() error
}
