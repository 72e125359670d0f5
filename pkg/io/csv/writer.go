package csv

import (
	"encoding/csv"
	"io"
	"strconv"
)

// Writer writes a feature matrix with one labelled row per sequence.
type Writer struct {
	w *csv.Writer
}

// NewWriter returns a Writer on w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: csv.NewWriter(w)}
}

// WriteHeader writes "id" followed by the feature names.
func (w *Writer) WriteHeader(names []string) error {
	return w.w.Write(append([]string{"id"}, names...))
}

// WriteRow writes label followed by the row values.
func (w *Writer) WriteRow(label string, row []float64) error {
	record := make([]string, len(row)+1)
	record[0] = label
	for i, v := range row {
		record[i+1] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return w.w.Write(record)
}

// Flush writes buffered rows to the underlying writer.
func (w *Writer) Flush() error {
	w.w.Flush()
	return w.w.Error()
}
