package genome

import "fmt"

// Indexer tiles regions of interest into bins of a fixed size. Bin i is
// returned by At(i), widened by the flank on both sides.
type Indexer struct {
	binsize      int
	stepsize     int
	flank        int
	variableSize bool
	minSize      int

	bins []Region
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithFlank widens every bin by n bases on each side.
func WithFlank(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.flank = n
	}
}

// WithVariableSize keeps a shorter trailing bin for the part of a region that
// full bins do not cover.
func WithVariableSize(v bool) IndexerOption {
	return func(ix *Indexer) {
		ix.variableSize = v
	}
}

// WithMinSize drops a trailing variable-size bin whose sequence, flanks
// included, is shorter than n bases. Set it to the k-mer order so that every
// bin can be encoded.
func WithMinSize(n int) IndexerOption {
	return func(ix *Indexer) {
		ix.minSize = n
	}
}

// NewIndexer tiles regions into bins of binsize bases, stepsize bases apart.
// A region of length L yields (L - binsize + stepsize) / stepsize bins when
// stepsize <= binsize, and L / stepsize bins otherwise.
func NewIndexer(regions []Region, binsize, stepsize int, opts ...IndexerOption) (*Indexer, error) {
	ix := &Indexer{
		binsize:  binsize,
		stepsize: stepsize,
	}

	for _, opt := range opts {
		opt(ix)
	}

	if binsize <= 0 {
		return nil, fmt.Errorf("binsize must be positive, got %d", binsize)
	}
	if stepsize <= 0 {
		return nil, fmt.Errorf("stepsize must be positive, got %d", stepsize)
	}
	if ix.flank < 0 {
		return nil, fmt.Errorf("flank must be non-negative, got %d", ix.flank)
	}
	if ix.minSize < 0 {
		return nil, fmt.Errorf("min size must be non-negative, got %d", ix.minSize)
	}

	for _, reg := range regions {
		ix.bins = append(ix.bins, ix.tile(reg)...)
	}

	return ix, nil
}

func (ix *Indexer) tile(reg Region) []Region {
	span := reg.Len()
	if ix.stepsize <= ix.binsize {
		span = reg.Len() - ix.binsize + ix.stepsize
	}

	n := 0
	if span > 0 {
		n = span / ix.stepsize
	}

	bins := make([]Region, 0, n+1)
	for i := 0; i < n; i++ {
		start := reg.Start + i*ix.stepsize
		bins = append(bins, Region{
			Chrom:  reg.Chrom,
			Start:  start,
			End:    start + ix.binsize,
			Strand: reg.Strand,
		})
	}

	if ix.variableSize {
		covered := reg.Start
		if n > 0 {
			covered = bins[n-1].End
		}
		start := reg.Start + n*ix.stepsize
		if covered < reg.End && start < reg.End && reg.End-start+2*ix.flank >= ix.minSize {
			bins = append(bins, Region{
				Chrom:  reg.Chrom,
				Start:  start,
				End:    reg.End,
				Strand: reg.Strand,
			})
		}
	}

	return bins
}

// Len returns the number of bins.
func (ix *Indexer) Len() int {
	return len(ix.bins)
}

// At returns bin i including flanks. It panics if i is out of range.
func (ix *Indexer) At(i int) Region {
	b := ix.bins[i]
	b.Start -= ix.flank
	b.End += ix.flank
	return b
}

// Regions returns every bin including flanks.
func (ix *Indexer) Regions() []Region {
	out := make([]Region, len(ix.bins))
	for i := range ix.bins {
		out[i] = ix.At(i)
	}
	return out
}

// Strings returns chrom:start-end for every bin.
func (ix *Indexer) Strings() []string {
	out := make([]string, len(ix.bins))
	for i := range ix.bins {
		out[i] = ix.At(i).String()
	}
	return out
}

// IdxByChrom returns, in ascending order, the bins on a chromosome listed in
// include (all chromosomes when include is empty) and not listed in exclude.
func (ix *Indexer) IdxByChrom(include, exclude []string) []int {
	in := make(map[string]bool, len(include))
	for _, c := range include {
		in[c] = true
	}
	out := make(map[string]bool, len(exclude))
	for _, c := range exclude {
		out[c] = true
	}

	var idx []int
	for i, b := range ix.bins {
		if len(in) > 0 && !in[b.Chrom] {
			continue
		}
		if out[b.Chrom] {
			continue
		}
		idx = append(idx, i)
	}
	return idx
}

// Binsize returns the bin length without flanks.
func (ix *Indexer) Binsize() int { return ix.binsize }

// Stepsize returns the distance between bin starts.
func (ix *Indexer) Stepsize() int { return ix.stepsize }

// Flank returns the extension on each side of a bin.
func (ix *Indexer) Flank() int { return ix.flank }
