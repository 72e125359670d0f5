// Package genome supplies nucleotide sequences for genomic regions of interest.
//
// Regions come from BED files and sequences from a FASTA reference; both are
// parsed with biogo.
package genome

import "fmt"

// Strand is the orientation of a region.
type Strand int8

const (
	Unstranded Strand = 0
	Forward    Strand = 1
	Reverse    Strand = -1
)

func (s Strand) String() string {
	switch s {
	case Forward:
		return "+"
	case Reverse:
		return "-"
	default:
		return "."
	}
}

// Region is a zero-based half-open interval [Start, End) on a chromosome.
type Region struct {
	Chrom  string
	Start  int
	End    int
	Strand Strand
}

// Len returns End - Start.
func (r Region) Len() int {
	return r.End - r.Start
}

// String formats the region as chrom:start-end.
func (r Region) String() string {
	return fmt.Sprintf("%s:%d-%d", r.Chrom, r.Start, r.End)
}
