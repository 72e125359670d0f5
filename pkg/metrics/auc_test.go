package metrics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAUC(t *testing.T) {
	tests := []struct {
		name   string
		labels []float64
		scores []float64
		want   float64
	}{
		{
			name:   "perfect ranking",
			labels: []float64{0, 0, 1, 1},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   1,
		},
		{
			name:   "inverted ranking",
			labels: []float64{1, 1, 0, 0},
			scores: []float64{0.1, 0.2, 0.8, 0.9},
			want:   0,
		},
		{
			name:   "all tied",
			labels: []float64{0, 1, 0, 1},
			scores: []float64{0.5, 0.5, 0.5, 0.5},
			want:   0.5,
		},
		{
			name:   "mixed",
			labels: []float64{0, 1, 0, 1, 1, 1},
			scores: []float64{0, 3, 5, 6, 7.5, 8},
			want:   0.875,
		},
		{
			name:   "unsorted input",
			labels: []float64{1, 0, 1, 0},
			scores: []float64{0.9, 0.3, 0.4, 0.6},
			want:   0.75,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := AUC(tt.labels, tt.scores)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestAUCErrors(t *testing.T) {
	_, err := AUC([]float64{0, 1}, []float64{0.5})
	assert.Error(t, err)

	_, err = AUC(nil, nil)
	assert.Error(t, err)

	_, err = AUC([]float64{1, 1, 1}, []float64{0.1, 0.2, 0.3})
	assert.ErrorIs(t, err, ErrSingleClass)
}

func TestAUCDoesNotReorderInput(t *testing.T) {
	labels := []float64{1, 0, 1, 0}
	scores := []float64{0.9, 0.3, 0.4, 0.6}

	_, err := AUC(labels, scores)
	require.NoError(t, err)

	assert.Equal(t, []float64{1, 0, 1, 0}, labels)
	assert.Equal(t, []float64{0.9, 0.3, 0.4, 0.6}, scores)
}

func TestAUCRandomScoresNearChance(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	n := 20000
	labels := make([]float64, n)
	scores := make([]float64, n)
	for i := range labels {
		if rng.Float64() < 0.3 {
			labels[i] = 1
		}
		scores[i] = rng.Float64()
	}

	got, err := AUC(labels, scores)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, got, 0.02)
}

func TestROCEndpoints(t *testing.T) {
	fpr, tpr, err := ROC([]float64{0, 1, 0, 1}, []float64{0.1, 0.7, 0.4, 0.9})
	require.NoError(t, err)
	require.Equal(t, len(fpr), len(tpr))

	assert.Equal(t, 0.0, fpr[0])
	assert.Equal(t, 0.0, tpr[0])
	assert.Equal(t, 1.0, fpr[len(fpr)-1])
	assert.Equal(t, 1.0, tpr[len(tpr)-1])
}
