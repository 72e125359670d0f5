package genome

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/biogo/biogo/alphabet"
	"github.com/biogo/biogo/io/seqio/fasta"
	"github.com/biogo/biogo/seq/linear"
)

// Record is a named FASTA sequence.
type Record struct {
	ID  string
	Seq []byte
}

// ReadRecords reads every sequence of a FASTA stream.
func ReadRecords(r io.Reader) ([]Record, error) {
	fr := fasta.NewReader(r, linear.NewSeq("", nil, alphabet.DNA))

	var records []Record
	for {
		s, err := fr.Read()
		if err != nil {
			if err != io.EOF {
				return nil, fmt.Errorf("fasta: record %d: %w", len(records)+1, err)
			}
			break
		}

		ls, ok := s.(*linear.Seq)
		if !ok {
			return nil, fmt.Errorf("fasta: unexpected sequence type %T", s)
		}
		records = append(records, Record{ID: ls.Name(), Seq: lettersToBytes(ls.Seq)})
	}

	return records, nil
}

// Genome is an in-memory reference keyed by chromosome name.
type Genome struct {
	chroms map[string][]byte
	order  []string
}

// LoadGenome reads a FASTA reference. Chromosome names must be unique.
func LoadGenome(r io.Reader) (*Genome, error) {
	records, err := ReadRecords(r)
	if err != nil {
		return nil, err
	}
	return NewGenome(records)
}

// NewGenome builds a genome from records, one chromosome per record.
func NewGenome(records []Record) (*Genome, error) {
	if len(records) == 0 {
		return nil, errors.New("genome has no sequences")
	}

	g := &Genome{chroms: make(map[string][]byte, len(records))}
	for _, rec := range records {
		if _, dup := g.chroms[rec.ID]; dup {
			return nil, fmt.Errorf("duplicate chromosome %q", rec.ID)
		}
		g.chroms[rec.ID] = rec.Seq
		g.order = append(g.order, rec.ID)
	}
	return g, nil
}

// Chroms returns chromosome names in file order.
func (g *Genome) Chroms() []string {
	return append([]string(nil), g.order...)
}

// ChromLen returns the length of chrom and whether it exists.
func (g *Genome) ChromLen(chrom string) (int, bool) {
	s, ok := g.chroms[chrom]
	return len(s), ok
}

// Sequence returns a copy of the bases covered by region. Reverse strand
// regions are reverse complemented.
func (g *Genome) Sequence(region Region) ([]byte, error) {
	s, ok := g.chroms[region.Chrom]
	if !ok {
		return nil, fmt.Errorf("region %s: unknown chromosome", region)
	}
	if region.Start < 0 || region.End > len(s) || region.Start >= region.End {
		return nil, fmt.Errorf("region %s out of bounds for %s (length %d)", region, region.Chrom, len(s))
	}

	out := make([]byte, region.Len())
	copy(out, s[region.Start:region.End])

	if region.Strand == Reverse {
		return reverseComplement(out), nil
	}
	return out, nil
}

// Fingerprint is a hex sha256 over the chromosome names, lengths and bases,
// independent of record order.
func (g *Genome) Fingerprint() string {
	names := g.Chroms()
	sort.Strings(names)

	h := sha256.New()
	for _, n := range names {
		s := g.chroms[n]
		fmt.Fprintf(h, "%d:%s=%d\n", len(n), n, len(s))
		h.Write(s)
	}
	return hex.EncodeToString(h.Sum(nil))
}

func reverseComplement(b []byte) []byte {
	s := linear.NewSeq("", alphabet.BytesToLetters(b), alphabet.DNA)
	s.RevComp()
	return lettersToBytes(s.Seq)
}

func lettersToBytes(ls alphabet.Letters) []byte {
	b := make([]byte, len(ls))
	for i, l := range ls {
		b[i] = byte(l)
	}
	return b
}
