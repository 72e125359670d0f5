// Package dataset builds k-mer feature matrices for genomic regions of
// interest and pairs them with their labels.
package dataset

import (
	"context"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/hed1ad/kmerml/pkg/cache"
	"github.com/hed1ad/kmerml/pkg/genome"
	"github.com/hed1ad/kmerml/pkg/kmer"
)

// Dataset is a feature matrix with one row per region.
type Dataset struct {
	// X holds one k-mer vector per region.
	X [][]float64
	// Labels holds one row of label columns per region, or nil when unlabelled.
	Labels [][]float64
	// Regions names each row as chrom:start-end.
	Regions []string
	// FeatureNames names each column by its k-mer.
	FeatureNames []string
}

// Len returns the number of rows.
func (d *Dataset) Len() int {
	return len(d.X)
}

// Target returns label column col for every row.
func (d *Dataset) Target(col int) ([]float64, error) {
	if d.Labels == nil {
		return nil, fmt.Errorf("dataset has no labels")
	}

	y := make([]float64, len(d.Labels))
	for i, row := range d.Labels {
		if col < 0 || col >= len(row) {
			return nil, fmt.Errorf("label column %d out of range for row %d with %d columns", col, i, len(row))
		}
		y[i] = row[col]
	}
	return y, nil
}

// Subset returns the rows at idx, in the order given. Rows are shared, not copied.
func (d *Dataset) Subset(idx []int) *Dataset {
	sub := &Dataset{
		X:            make([][]float64, len(idx)),
		Regions:      make([]string, len(idx)),
		FeatureNames: d.FeatureNames,
	}
	if d.Labels != nil {
		sub.Labels = make([][]float64, len(idx))
	}

	for i, j := range idx {
		sub.X[i] = d.X[j]
		sub.Regions[i] = d.Regions[j]
		if d.Labels != nil {
			sub.Labels[i] = d.Labels[j]
		}
	}
	return sub
}

// Dense copies X into a gonum matrix.
func (d *Dataset) Dense() *mat.Dense {
	if len(d.X) == 0 {
		return &mat.Dense{}
	}

	cols := len(d.X[0])
	data := make([]float64, 0, len(d.X)*cols)
	for _, row := range d.X {
		data = append(data, row...)
	}
	return mat.NewDense(len(d.X), cols, data)
}

// Builder turns regions into datasets with a fixed encoder.
type Builder struct {
	encoder *kmer.Encoder
	cache   *cache.Cache
	workers int
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithCache stores encoded matrices in c.
func WithCache(c *cache.Cache) BuilderOption {
	return func(b *Builder) {
		b.cache = c
	}
}

// WithWorkers sets the number of encoding goroutines, 0 for one per CPU.
func WithWorkers(n int) BuilderOption {
	return func(b *Builder) {
		b.workers = n
	}
}

// NewBuilder returns a Builder using encoder.
func NewBuilder(encoder *kmer.Encoder, opts ...BuilderOption) *Builder {
	b := &Builder{encoder: encoder}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build extracts and encodes every bin of ix from g. labels may be nil;
// otherwise it must hold one row per bin.
func (b *Builder) Build(ctx context.Context, g *genome.Genome, ix *genome.Indexer, labels [][]float64) (*Dataset, error) {
	if labels != nil && len(labels) != ix.Len() {
		return nil, fmt.Errorf("got %d label rows for %d regions", len(labels), ix.Len())
	}

	regions := ix.Strings()
	key := cache.Key(g.Fingerprint(), b.encoder, ix.Binsize(), ix.Stepsize(), ix.Flank(), binKeys(ix))

	X, err := cache.GetOrCompute(b.cache, key, func() ([][]float64, error) {
		return b.encode(ctx, g, ix)
	})
	if err != nil {
		return nil, err
	}

	return &Dataset{
		X:            X,
		Labels:       labels,
		Regions:      regions,
		FeatureNames: b.encoder.FeatureNames(),
	}, nil
}

func (b *Builder) encode(ctx context.Context, g *genome.Genome, ix *genome.Indexer) ([][]float64, error) {
	seqs := make([][]byte, ix.Len())
	for i := range seqs {
		s, err := g.Sequence(ix.At(i))
		if err != nil {
			return nil, err
		}
		seqs[i] = s
	}

	X, err := b.encoder.EncodeBatchContext(ctx, seqs, b.workers)
	if err != nil {
		return nil, fmt.Errorf("encoding %d regions: %w", len(seqs), err)
	}
	return X, nil
}

// binKeys names every bin with its strand, which Region.String leaves out.
func binKeys(ix *genome.Indexer) []string {
	bins := ix.Regions()
	keys := make([]string, len(bins))
	for i, r := range bins {
		keys[i] = r.String() + r.Strand.String()
	}
	return keys
}
