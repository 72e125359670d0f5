package iforest

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hed1ad/kmerml/pkg/models"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		opts       []Option
		wantNTrees int
	}{
		{
			name:       "default configuration",
			opts:       nil,
			wantNTrees: 100,
		},
		{
			name:       "custom trees",
			opts:       []Option{WithTrees(50)},
			wantNTrees: 50,
		},
		{
			name:       "multiple options",
			opts:       []Option{WithTrees(200), WithContamination(0.05), WithSeed(123)},
			wantNTrees: 200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := New(tt.opts...)
			assert.Equal(t, tt.wantNTrees, f.nTrees)
		})
	}
}

func TestFit(t *testing.T) {
	tests := []struct {
		name    string
		X       [][]float64
		y       []float64
		opts    []Option
		wantErr bool
	}{
		{
			name:    "empty data",
			X:       [][]float64{},
			y:       []float64{},
			wantErr: true,
		},
		{
			name:    "label count mismatch",
			X:       [][]float64{{1, 2}, {3, 4}},
			y:       []float64{0},
			wantErr: true,
		},
		{
			name:    "ragged rows",
			X:       [][]float64{{1, 2}, {3}},
			y:       []float64{0, 0},
			wantErr: true,
		},
		{
			name:    "no background rows",
			X:       [][]float64{{1, 2}, {3, 4}},
			y:       []float64{1, 1},
			wantErr: true,
		},
		{
			name:    "invalid sample size",
			X:       [][]float64{{1, 2}, {3, 4}},
			y:       []float64{0, 0},
			opts:    []Option{WithSampleSize(1)},
			wantErr: true,
		},
		{
			name:    "single background row",
			X:       [][]float64{{1, 2, 3}, {0, 0, 9}},
			y:       []float64{0, 1},
			wantErr: false,
		},
		{
			name:    "custom background label",
			X:       [][]float64{{1, 2}, {3, 4}, {5, 6}},
			y:       []float64{-1, -1, 1},
			opts:    []Option{WithBackgroundLabel(-1)},
			wantErr: false,
		},
		{
			name:    "profiles",
			X:       backgroundProfiles(rand.New(rand.NewSource(1)), 100, 16),
			y:       make([]float64, 100),
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := append([]Option{WithTrees(10), WithSeed(42)}, tt.opts...)
			f := New(opts...)
			err := f.Fit(tt.X, tt.y)

			if tt.wantErr {
				assert.Error(t, err)
				assert.False(t, f.trained)
			} else {
				assert.NoError(t, err)
				assert.True(t, f.trained)
				assert.Len(t, f.trees, f.nTrees)
			}
		})
	}
}

func TestPredictProba(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	X, y := labeledProfiles(rng, 400, 100, 16)

	f := New(WithTrees(50), WithSampleSize(128), WithSeed(42))
	require.NoError(t, f.Fit(X, y))

	t.Run("scores are in range", func(t *testing.T) {
		scores, err := f.PredictProba(X)
		require.NoError(t, err)
		assert.Len(t, scores, len(X))

		for _, s := range scores {
			assert.GreaterOrEqual(t, s, 0.0)
			assert.LessOrEqual(t, s, 1.0)
		}
	})

	t.Run("motif profiles score above background", func(t *testing.T) {
		scores, err := f.PredictProba(X)
		require.NoError(t, err)

		var bg, pos float64
		var nBg, nPos int
		for i, s := range scores {
			if models.IsPositive(y[i]) {
				pos += s
				nPos++
			} else {
				bg += s
				nBg++
			}
		}
		assert.Greater(t, pos/float64(nPos), bg/float64(nBg))
	})

	t.Run("width mismatch", func(t *testing.T) {
		_, err := f.PredictProba([][]float64{{1, 2, 3}})
		assert.Error(t, err)
	})

	t.Run("predict before fit", func(t *testing.T) {
		_, err := New().PredictProba(X)
		assert.ErrorIs(t, err, models.ErrNotTrained)
	})
}

func TestPredictOne(t *testing.T) {
	X := backgroundProfiles(rand.New(rand.NewSource(3)), 200, 4)
	f := New(WithTrees(20), WithSeed(42))
	require.NoError(t, f.Fit(X, make([]float64, len(X))))

	score, err := f.PredictOne([]float64{0.25, 0.25, 0.25, 0.25})
	require.NoError(t, err)
	assert.GreaterOrEqual(t, score, 0.0)
	assert.LessOrEqual(t, score, 1.0)

	_, err = f.PredictOne([]float64{1})
	assert.Error(t, err)
}

func TestPredictStream(t *testing.T) {
	X := backgroundProfiles(rand.New(rand.NewSource(5)), 200, 4)
	f := New(WithTrees(20), WithSeed(42))
	require.NoError(t, f.Fit(X, make([]float64, len(X))))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan []float64, 10)
	output := make(chan models.Prediction, 10)

	go func() {
		defer close(output)
		err := f.PredictStream(ctx, input, output)
		assert.NoError(t, err)
	}()

	samples := [][]float64{
		{0.25, 0.25, 0.25, 0.25},
		{1, 0, 0, 0},
		{1, 2}, // dropped: wrong width
		{0.3, 0.2, 0.3, 0.2},
	}

	go func() {
		for _, s := range samples {
			input <- s
		}
		close(input)
	}()

	results := make([]models.Prediction, 0, len(samples))
	for p := range output {
		results = append(results, p)
	}

	assert.Len(t, results, 3)
}

func TestPredictStreamNotTrained(t *testing.T) {
	err := New().PredictStream(context.Background(), nil, nil)
	assert.ErrorIs(t, err, models.ErrNotTrained)
}

func TestSaveLoad(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	X, y := labeledProfiles(rng, 200, 50, 16)

	original := New(WithTrees(30), WithContamination(0.15), WithSeed(42))
	require.NoError(t, original.Fit(X, y))

	originalScores, err := original.PredictProba(X)
	require.NoError(t, err)

	data, err := original.Save()
	require.NoError(t, err)
	assert.NotEmpty(t, data)

	loaded := New()
	require.NoError(t, loaded.Load(data))

	loadedScores, err := loaded.PredictProba(X)
	require.NoError(t, err)

	assert.Equal(t, originalScores, loadedScores)
	assert.Equal(t, original.Threshold(), loaded.Threshold())

	_, err = New().Save()
	assert.ErrorIs(t, err, models.ErrNotTrained)
	assert.Error(t, New().Load([]byte("not a model")))
}

func TestThreshold(t *testing.T) {
	f := New()

	assert.Equal(t, 0.5, f.Threshold())

	f.SetThreshold(0.7)
	assert.Equal(t, 0.7, f.Threshold())
}

func TestQuantile(t *testing.T) {
	data := []float64{5, 1, 4, 2, 3}

	assert.Equal(t, 1.0, quantile(data, 0))
	assert.Equal(t, 3.0, quantile(data, 0.5))
	assert.Equal(t, 5.0, quantile(data, 1))
	assert.Equal(t, 0.0, quantile(nil, 0.5))
	assert.Equal(t, []float64{5, 1, 4, 2, 3}, data, "input must not be reordered")
}

func BenchmarkFit(b *testing.B) {
	X := backgroundProfiles(rand.New(rand.NewSource(42)), 5000, 64)
	y := make([]float64, len(X))
	f := New(WithTrees(100), WithSampleSize(256))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.Fit(X, y)
	}
}

func BenchmarkPredictProba(b *testing.B) {
	X := backgroundProfiles(rand.New(rand.NewSource(42)), 2000, 64)

	f := New(WithTrees(100), WithSampleSize(256))
	f.Fit(X, make([]float64, len(X)))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		f.PredictProba(X)
	}
}

// backgroundProfiles returns n frequency vectors close to uniform.
func backgroundProfiles(rng *rand.Rand, n, features int) [][]float64 {
	X := make([][]float64, n)
	for i := range X {
		X[i] = make([]float64, features)
		for j := range X[i] {
			X[i][j] = 1/float64(features) + rng.NormFloat64()*0.005
		}
	}
	return X
}

// labeledProfiles returns nBg background rows (label 0) followed by nPos
// rows enriched in the first k-mer bin (label 1).
func labeledProfiles(rng *rand.Rand, nBg, nPos, features int) ([][]float64, []float64) {
	X := backgroundProfiles(rng, nBg+nPos, features)
	y := make([]float64, nBg+nPos)
	for i := nBg; i < len(X); i++ {
		X[i][0] += 0.5
		y[i] = 1
	}
	return X, y
}
