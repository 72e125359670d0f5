// Package iforest implements a one-class Isolation Forest over k-mer profiles.
//
// The forest is grown on background (non-binding) sequences only. A profile
// that is isolated in few splits does not look like the background and
// receives a score close to 1.
package iforest

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"

	"github.com/hed1ad/kmerml/pkg/models"
)

// Forest is a one-class classifier built from isolation trees.
type Forest struct {
	mu sync.RWMutex

	// Configuration
	nTrees        int
	sampleSize    int
	contamination float64
	background    float64
	rng           *rand.Rand

	// Trained model
	trees     []*tree
	nFeatures int
	norm      float64
	threshold float64
	trained   bool
}

type tree struct {
	Root *node
}

// node is an internal split when Left and Right are set, a leaf otherwise.
type node struct {
	Feature int
	Split   float64
	Left    *node
	Right   *node

	// Size is the number of training rows that reached a leaf.
	Size int
}

// Option configures a Forest.
type Option func(*Forest)

// WithTrees sets the number of isolation trees.
func WithTrees(n int) Option {
	return func(f *Forest) {
		f.nTrees = n
	}
}

// WithSampleSize sets the subsample size for each tree.
func WithSampleSize(n int) Option {
	return func(f *Forest) {
		f.sampleSize = n
	}
}

// WithContamination sets the share of background rows allowed above the
// decision threshold.
func WithContamination(c float64) Option {
	return func(f *Forest) {
		f.contamination = c
	}
}

// WithBackgroundLabel sets the label value of the rows the forest is grown on.
func WithBackgroundLabel(label float64) Option {
	return func(f *Forest) {
		f.background = label
	}
}

// WithSeed sets the random seed for reproducibility.
func WithSeed(seed int64) Option {
	return func(f *Forest) {
		f.rng = rand.New(rand.NewSource(seed))
	}
}

// New creates a Forest with the given options.
func New(opts ...Option) *Forest {
	f := &Forest{
		nTrees:        100,
		sampleSize:    256,
		contamination: 0.1,
		threshold:     0.5,
		rng:           rand.New(rand.NewSource(42)),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

var _ models.StreamClassifier = (*Forest)(nil)

// Fit grows the forest on the rows of X whose label equals the background label.
func (f *Forest) Fit(X [][]float64, y []float64) error {
	if err := models.ValidateXY(X, y); err != nil {
		return err
	}
	if f.nTrees < 1 || f.sampleSize < 2 {
		return fmt.Errorf("invalid forest size: %d trees, sample size %d", f.nTrees, f.sampleSize)
	}

	var background [][]float64
	for i, row := range X {
		if y[i] == f.background {
			background = append(background, row)
		}
	}
	if len(background) == 0 {
		return fmt.Errorf("no rows with background label %v", f.background)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	sampleSize := min(f.sampleSize, len(background))
	maxDepth := int(math.Ceil(math.Log2(float64(sampleSize))))
	nFeatures := len(X[0])

	f.trees = make([]*tree, f.nTrees)
	for i := range f.trees {
		sample := make([][]float64, sampleSize)
		for j, idx := range f.rng.Perm(len(background))[:sampleSize] {
			sample[j] = background[idx]
		}
		f.trees[i] = &tree{Root: f.grow(sample, nFeatures, 0, maxDepth)}
	}

	f.nFeatures = nFeatures
	f.norm = averagePathLength(float64(sampleSize))
	f.trained = true

	if f.contamination > 0 && f.contamination < 1 {
		f.threshold = quantile(f.predict(background), 1-f.contamination)
	}

	return nil
}

func (f *Forest) grow(rows [][]float64, nFeatures, depth, maxDepth int) *node {
	if depth >= maxDepth || len(rows) <= 1 {
		return &node{Size: len(rows)}
	}

	// k-mer profiles are sparse, so most features are constant within a
	// sample. Try a few random features before giving up on a split.
	for attempt := 0; attempt < 8; attempt++ {
		feature := f.rng.Intn(nFeatures)

		lo, hi := rows[0][feature], rows[0][feature]
		for _, row := range rows[1:] {
			lo = math.Min(lo, row[feature])
			hi = math.Max(hi, row[feature])
		}
		if lo == hi {
			continue
		}

		split := lo + f.rng.Float64()*(hi-lo)

		var left, right [][]float64
		for _, row := range rows {
			if row[feature] < split {
				left = append(left, row)
			} else {
				right = append(right, row)
			}
		}

		return &node{
			Feature: feature,
			Split:   split,
			Left:    f.grow(left, nFeatures, depth+1, maxDepth),
			Right:   f.grow(right, nFeatures, depth+1, maxDepth),
		}
	}

	return &node{Size: len(rows)}
}

// PredictProba returns the isolation score of every row of X.
func (f *Forest) PredictProba(X [][]float64) ([]float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, models.ErrNotTrained
	}
	if err := models.ValidateX(X, f.nFeatures); err != nil {
		return nil, err
	}

	return f.predict(X), nil
}

func (f *Forest) predict(X [][]float64) []float64 {
	scores := make([]float64, len(X))
	for i, row := range X {
		scores[i] = f.score(row)
	}
	return scores
}

// PredictOne returns the isolation score of a single feature vector.
func (f *Forest) PredictOne(x []float64) (float64, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return 0, models.ErrNotTrained
	}
	if len(x) != f.nFeatures {
		return 0, fmt.Errorf("got %d features, want %d", len(x), f.nFeatures)
	}

	return f.score(x), nil
}

// score is 2^(-E[h(x)] / c(n)).
func (f *Forest) score(x []float64) float64 {
	if f.norm == 0 {
		return 0.5
	}

	var total float64
	for _, t := range f.trees {
		total += pathLength(x, t.Root, 0)
	}
	return math.Pow(2, -(total/float64(len(f.trees)))/f.norm)
}

func pathLength(x []float64, n *node, depth int) float64 {
	if n.Left == nil && n.Right == nil {
		return float64(depth) + averagePathLength(float64(n.Size))
	}
	if x[n.Feature] < n.Split {
		return pathLength(x, n.Left, depth+1)
	}
	return pathLength(x, n.Right, depth+1)
}

// averagePathLength is c(n) = 2H(n-1) - 2(n-1)/n, the mean depth of an
// unsuccessful BST search over n items.
func averagePathLength(n float64) float64 {
	if n <= 1 {
		return 0
	}
	return 2*(math.Log(n-1)+0.5772156649) - 2*(n-1)/n
}

// PredictStream scores feature vectors from input until it is closed or ctx is done.
// Vectors of the wrong width are dropped.
func (f *Forest) PredictStream(ctx context.Context, input <-chan []float64, output chan<- models.Prediction) error {
	f.mu.RLock()
	trained := f.trained
	f.mu.RUnlock()
	if !trained {
		return models.ErrNotTrained
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case x, ok := <-input:
			if !ok {
				return nil
			}

			score, err := f.PredictOne(x)
			if err != nil {
				continue
			}

			select {
			case output <- models.Prediction{
				Value:    score,
				Positive: score >= f.Threshold(),
				Features: x,
			}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}

// snapshot is the gob representation of a trained forest.
type snapshot struct {
	Trees         []*tree
	NFeatures     int
	SampleSize    int
	Contamination float64
	Background    float64
	Norm          float64
	Threshold     float64
}

// Save serializes the trained forest.
func (f *Forest) Save() ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	if !f.trained {
		return nil, models.ErrNotTrained
	}

	var buf bytes.Buffer
	err := gob.NewEncoder(&buf).Encode(snapshot{
		Trees:         f.trees,
		NFeatures:     f.nFeatures,
		SampleSize:    f.sampleSize,
		Contamination: f.contamination,
		Background:    f.background,
		Norm:          f.norm,
		Threshold:     f.threshold,
	})
	if err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Load deserializes a forest written by Save.
func (f *Forest) Load(data []byte) error {
	var s snapshot
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&s); err != nil {
		return err
	}
	if len(s.Trees) == 0 {
		return errors.New("model has no trees")
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.trees = s.Trees
	f.nTrees = len(s.Trees)
	f.nFeatures = s.NFeatures
	f.sampleSize = s.SampleSize
	f.contamination = s.Contamination
	f.background = s.Background
	f.norm = s.Norm
	f.threshold = s.Threshold
	f.trained = true

	return nil
}

// Threshold returns the current decision threshold.
func (f *Forest) Threshold() float64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

// SetThreshold updates the decision threshold.
func (f *Forest) SetThreshold(t float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.threshold = t
}

// quantile returns the q-th quantile (0 <= q <= 1) of data by nearest rank.
func quantile(data []float64, q float64) float64 {
	if len(data) == 0 {
		return 0
	}

	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	return sorted[int(float64(len(sorted)-1)*q)]
}
