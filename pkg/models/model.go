// Package models defines the contract between k-mer feature matrices and the
// classifiers that consume them.
package models

import (
	"context"
	"errors"
	"fmt"
)

// Classifier is the common interface for binding-site classifiers.
type Classifier interface {
	// Fit trains the classifier.
	// X is a 2D slice where each row is a sequence and each column a k-mer bin.
	// y holds one label per row; values > 0.5 are positives.
	Fit(X [][]float64, y []float64) error

	// PredictProba returns one score in [0, 1] per row of X.
	// Higher values indicate a more likely binding site.
	PredictProba(X [][]float64) ([]float64, error)

	// Save serializes the trained model to bytes.
	Save() ([]byte, error)

	// Load deserializes a trained model from bytes.
	Load(data []byte) error
}

// StreamClassifier extends Classifier with streaming prediction.
type StreamClassifier interface {
	Classifier

	// PredictStream scores feature vectors from a channel.
	PredictStream(ctx context.Context, input <-chan []float64, output chan<- Prediction) error
}

// Prediction is a single streamed classification.
type Prediction struct {
	// Value is the score in [0, 1].
	Value float64
	// Positive indicates the score reached the model threshold.
	Positive bool
	// Features contains the input vector.
	Features []float64
}

// ErrNotTrained is returned by models used before Fit or Load.
var ErrNotTrained = errors.New("model not trained")

// IsPositive reports whether a label marks a positive example.
func IsPositive(label float64) bool {
	return label > 0.5
}

// ValidateXY checks that X is a non-empty rectangular matrix with one label per row.
func ValidateXY(X [][]float64, y []float64) error {
	if len(X) == 0 {
		return errors.New("empty training data")
	}
	if len(X) != len(y) {
		return fmt.Errorf("got %d rows but %d labels", len(X), len(y))
	}
	return ValidateX(X, len(X[0]))
}

// ValidateX checks that every row of X has width columns.
func ValidateX(X [][]float64, width int) error {
	if width == 0 {
		return errors.New("feature vectors are empty")
	}
	for i, row := range X {
		if len(row) != width {
			return fmt.Errorf("row %d has %d features, want %d", i, len(row), width)
		}
	}
	return nil
}
