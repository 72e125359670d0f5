package kmer

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeBatch(t *testing.T) {
	e, err := New(DNA, 2)
	require.NoError(t, err)

	t.Run("rows follow input order", func(t *testing.T) {
		seqs := [][]byte{[]byte("AA"), []byte("AC"), []byte("TT")}
		rows, err := e.EncodeBatch(seqs)
		require.NoError(t, err)
		require.Len(t, rows, 3)

		assert.Equal(t, 1.0, rows[0][0])
		assert.Equal(t, 1.0, rows[1][1])
		assert.Equal(t, 1.0, rows[2][15])
	})

	t.Run("failures do not abort the batch", func(t *testing.T) {
		seqs := [][]byte{[]byte("ACGT"), []byte("A"), []byte("GGG"), []byte("")}
		rows, err := e.EncodeBatch(seqs)
		require.Error(t, err)
		require.Len(t, rows, 4)

		assert.NotNil(t, rows[0])
		assert.Nil(t, rows[1])
		assert.NotNil(t, rows[2])
		assert.Nil(t, rows[3])

		var batchErr *BatchError
		require.True(t, errors.As(err, &batchErr))
		require.Len(t, batchErr.Failures, 2)
		assert.Equal(t, 1, batchErr.Failures[0].Index)
		assert.Equal(t, 3, batchErr.Failures[1].Index)

		var short *InputTooShortError
		assert.True(t, errors.As(err, &short))
	})

	t.Run("empty batch", func(t *testing.T) {
		rows, err := e.EncodeBatch(nil)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

func TestEncodeBatchContext(t *testing.T) {
	e, err := New(DNA, 4, WithNormalize(true))
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	seqs := make([][]byte, 200)
	for i := range seqs {
		seqs[i] = randomDNA(rng, 20+rng.Intn(200))
	}
	seqs[17] = []byte("ACG")

	want, wantErr := e.EncodeBatch(seqs)
	require.Error(t, wantErr)

	for _, workers := range []int{0, 1, 3, 16, 500} {
		got, err := e.EncodeBatchContext(context.Background(), seqs, workers)
		require.Error(t, err)
		assert.Equal(t, wantErr.Error(), err.Error())
		assert.Equal(t, want, got, "workers=%d", workers)
	}

	t.Run("canceled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := e.EncodeBatchContext(ctx, seqs, 2)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("canceled after every row was handed out", func(t *testing.T) {
		rows, err := e.EncodeBatchContext(lateCancel{context.Background()}, seqs[:3], 2)
		require.NoError(t, err)
		require.Len(t, rows, 3)
		for i, row := range rows {
			assert.Equal(t, want[i], row)
		}
	})

	t.Run("empty batch", func(t *testing.T) {
		rows, err := e.EncodeBatchContext(context.Background(), nil, 4)
		require.NoError(t, err)
		assert.Empty(t, rows)
	})
}

// lateCancel reports cancellation without ever closing Done, as a context
// canceled right after the last row was queued.
type lateCancel struct {
	context.Context
}

func (lateCancel) Err() error {
	return context.Canceled
}

func TestEncodeStream(t *testing.T) {
	e, err := New(DNA, 3)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan []byte, 10)
	output := make(chan Encoded, 10)

	go func() {
		defer close(output)
		err := e.EncodeStream(ctx, input, output)
		assert.NoError(t, err)
	}()

	samples := [][]byte{
		[]byte("ACGTACGT"),
		[]byte("AC"), // too short
		[]byte("TTTT"),
	}
	go func() {
		for _, s := range samples {
			input <- s
		}
		close(input)
	}()

	results := make([]Encoded, 0, len(samples))
	for r := range output {
		results = append(results, r)
	}

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Seq)
	}
	assert.NoError(t, results[0].Err)
	assert.Equal(t, 6.0, sum(results[0].Vector))
	assert.Error(t, results[1].Err)
	assert.Equal(t, 2.0, results[2].Vector[63])
}

func BenchmarkEncodeBatchContext(b *testing.B) {
	e, _ := New(DNA, 5)
	rng := rand.New(rand.NewSource(42))
	seqs := make([][]byte, 1000)
	for i := range seqs {
		seqs[i] = randomDNA(rng, 200)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.EncodeBatchContext(context.Background(), seqs, 0)
	}
}
