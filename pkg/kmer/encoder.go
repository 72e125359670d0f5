// Package kmer converts nucleotide sequences into dense k-mer count vectors.
package kmer

import (
	"fmt"
	"strings"
)

// DefaultMaxDimension bounds |alphabet|^order. For DNA it allows order <= 12.
const DefaultMaxDimension = 1 << 24

// UnknownPolicy decides what happens to symbols outside the alphabet.
type UnknownPolicy int

const (
	// SkipUnknown drops every window that contains an unknown symbol.
	SkipUnknown UnknownPolicy = iota
	// FailOnUnknown returns an UnknownSymbolError for the first unknown symbol.
	FailOnUnknown
)

func (p UnknownPolicy) String() string {
	switch p {
	case SkipUnknown:
		return "skip"
	case FailOnUnknown:
		return "fail"
	default:
		return fmt.Sprintf("UnknownPolicy(%d)", int(p))
	}
}

// ParseUnknownPolicy parses "skip" or "fail".
func ParseUnknownPolicy(s string) (UnknownPolicy, error) {
	switch strings.ToLower(s) {
	case "", "skip":
		return SkipUnknown, nil
	case "fail":
		return FailOnUnknown, nil
	default:
		return 0, fmt.Errorf("unknown symbol policy %q (want skip or fail)", s)
	}
}

// Encoder maps sequences to k-mer count vectors of length |alphabet|^order.
// An Encoder is immutable once built and safe for concurrent use.
type Encoder struct {
	alphabet  Alphabet
	order     int
	dim       int
	policy    UnknownPolicy
	normalize bool
	foldCase  bool
	maxDim    int

	// lookup maps a byte to its symbol index, -1 when unknown.
	lookup [256]int16
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithUnknownPolicy sets how symbols outside the alphabet are handled.
func WithUnknownPolicy(p UnknownPolicy) Option {
	return func(e *Encoder) {
		e.policy = p
	}
}

// WithNormalize makes Encode return frequencies instead of counts.
func WithNormalize(normalize bool) Option {
	return func(e *Encoder) {
		e.normalize = normalize
	}
}

// WithFoldCase matches ASCII letters regardless of case, so soft-masked
// (lower-case) genome bases count like their upper-case form.
func WithFoldCase(fold bool) Option {
	return func(e *Encoder) {
		e.foldCase = fold
	}
}

// WithMaxDimension sets the largest vector length New accepts.
func WithMaxDimension(n int) Option {
	return func(e *Encoder) {
		e.maxDim = n
	}
}

// New builds an encoder for the given alphabet and order.
func New(alphabet Alphabet, order int, opts ...Option) (*Encoder, error) {
	e := &Encoder{
		alphabet: append(Alphabet(nil), alphabet...),
		order:    order,
		policy:   SkipUnknown,
		maxDim:   DefaultMaxDimension,
	}

	for _, opt := range opts {
		opt(e)
	}

	if order < 1 {
		return nil, &ConfigurationError{Reason: fmt.Sprintf("order must be >= 1, got %d", order)}
	}
	if len(alphabet) == 0 {
		return nil, &ConfigurationError{Reason: "alphabet is empty"}
	}
	if e.policy != SkipUnknown && e.policy != FailOnUnknown {
		return nil, &ConfigurationError{Reason: "invalid unknown symbol policy " + e.policy.String()}
	}

	for i := range e.lookup {
		e.lookup[i] = -1
	}
	for i, s := range e.alphabet {
		keys := []byte{s}
		if e.foldCase {
			keys = []byte{toUpper(s), toLower(s)}
		}
		for _, k := range keys {
			if prev := e.lookup[k]; prev >= 0 && int(prev) != i {
				return nil, &ConfigurationError{Reason: fmt.Sprintf("duplicate symbol %q in alphabet", s)}
			}
			e.lookup[k] = int16(i)
		}
	}

	dim := 1
	for i := 0; i < order; i++ {
		if dim > e.maxDim/len(alphabet) {
			return nil, &ConfigurationError{
				Reason: fmt.Sprintf("%d^%d features exceeds the limit of %d", len(alphabet), order, e.maxDim),
			}
		}
		dim *= len(alphabet)
	}
	e.dim = dim

	return e, nil
}

// Encode counts the k-mers of seq with a stride-1 sliding window.
func (e *Encoder) Encode(seq []byte) ([]float64, error) {
	if len(seq) < e.order {
		return nil, &InputTooShortError{Length: len(seq), Order: e.order}
	}

	vec := make([]float64, e.dim)
	n := len(e.alphabet)

	// index holds the mixed-radix value of the last min(run, order) symbols.
	index, run, windows := 0, 0, 0
	for pos, b := range seq {
		s := int(e.lookup[b])
		if s < 0 {
			if e.policy == FailOnUnknown {
				return nil, &UnknownSymbolError{Symbol: b, Position: pos}
			}
			index, run = 0, 0
			continue
		}

		index = (index*n + s) % e.dim
		run++
		if run >= e.order {
			vec[index]++
			windows++
		}
	}

	if e.normalize && windows > 0 {
		for i := range vec {
			vec[i] /= float64(windows)
		}
	}

	return vec, nil
}

// EncodeString is Encode for string input.
func (e *Encoder) EncodeString(seq string) ([]float64, error) {
	return e.Encode([]byte(seq))
}

// Index returns the k-mer index of a window of exactly order symbols.
func (e *Encoder) Index(kmer []byte) (int, error) {
	if len(kmer) != e.order {
		return 0, fmt.Errorf("k-mer %q has length %d, want %d", kmer, len(kmer), e.order)
	}

	index := 0
	for pos, b := range kmer {
		s := int(e.lookup[b])
		if s < 0 {
			return 0, &UnknownSymbolError{Symbol: b, Position: pos}
		}
		index = index*len(e.alphabet) + s
	}
	return index, nil
}

// Kmer renders an index back to its symbols. It panics if index is out of range.
func (e *Encoder) Kmer(index int) string {
	if index < 0 || index >= e.dim {
		panic(fmt.Sprintf("kmer: index %d out of range [0, %d)", index, e.dim))
	}

	n := len(e.alphabet)
	buf := make([]byte, e.order)
	for i := e.order - 1; i >= 0; i-- {
		buf[i] = e.alphabet[index%n]
		index /= n
	}
	return string(buf)
}

// FeatureNames returns the k-mer of every vector position.
func (e *Encoder) FeatureNames() []string {
	names := make([]string, e.dim)
	for i := range names {
		names[i] = e.Kmer(i)
	}
	return names
}

// Dimension returns the vector length |alphabet|^order.
func (e *Encoder) Dimension() int {
	return e.dim
}

// Order returns k.
func (e *Encoder) Order() int {
	return e.order
}

// Alphabet returns a copy of the configured alphabet.
func (e *Encoder) Alphabet() Alphabet {
	return append(Alphabet(nil), e.alphabet...)
}

// UnknownPolicy returns the configured unknown symbol policy.
func (e *Encoder) UnknownPolicy() UnknownPolicy {
	return e.policy
}

// Normalized reports whether vectors hold frequencies.
func (e *Encoder) Normalized() bool {
	return e.normalize
}

// String describes the encoder settings. Equal settings give equal strings.
func (e *Encoder) String() string {
	return fmt.Sprintf("kmer(alphabet=%s, order=%d, unknown=%s, normalize=%t, foldcase=%t)",
		e.alphabet, e.order, e.policy, e.normalize, e.foldCase)
}
