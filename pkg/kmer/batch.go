package kmer

import (
	"context"
	"runtime"
	"sync"
)

// Encoded is a single result of EncodeStream.
type Encoded struct {
	// Seq is the position of the sequence in the input stream.
	Seq    int
	Vector []float64
	Err    error
}

// EncodeBatch encodes each sequence independently, one row per input in
// input order. A sequence that fails leaves a nil row and is reported in the
// returned *BatchError; the other rows are still filled.
func (e *Encoder) EncodeBatch(seqs [][]byte) ([][]float64, error) {
	rows := make([][]float64, len(seqs))
	var failures []*ItemError

	for i, seq := range seqs {
		vec, err := e.Encode(seq)
		if err != nil {
			failures = append(failures, &ItemError{Index: i, Err: err})
			continue
		}
		rows[i] = vec
	}

	if len(failures) > 0 {
		return rows, &BatchError{Failures: failures}
	}
	return rows, nil
}

// EncodeBatchContext is EncodeBatch spread over a pool of workers. Each
// worker writes only the rows it was handed. workers < 1 uses GOMAXPROCS.
// Cancellation only fails the batch if it stops rows from being handed out.
func (e *Encoder) EncodeBatchContext(ctx context.Context, seqs [][]byte, workers int) ([][]float64, error) {
	if workers < 1 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(seqs) {
		workers = len(seqs)
	}

	rows := make([][]float64, len(seqs))
	errs := make([]error, len(seqs))
	jobs := make(chan int, workers*2)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range jobs {
				rows[i], errs[i] = e.Encode(seqs[i])
			}
		}()
	}

	var canceled error
feed:
	for i := range seqs {
		select {
		case <-ctx.Done():
			canceled = ctx.Err()
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	if canceled != nil {
		return nil, canceled
	}

	var failures []*ItemError
	for i, err := range errs {
		if err != nil {
			failures = append(failures, &ItemError{Index: i, Err: err})
		}
	}
	if len(failures) > 0 {
		return rows, &BatchError{Failures: failures}
	}
	return rows, nil
}

// EncodeStream encodes sequences from input until it is closed or ctx is
// done. Per-sequence failures are delivered in Encoded.Err.
func (e *Encoder) EncodeStream(ctx context.Context, input <-chan []byte, output chan<- Encoded) error {
	for n := 0; ; n++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case seq, ok := <-input:
			if !ok {
				return nil
			}

			vec, err := e.Encode(seq)

			select {
			case output <- Encoded{Seq: n, Vector: vec, Err: err}:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
}
