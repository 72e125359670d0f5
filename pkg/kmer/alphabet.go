package kmer

// Alphabet is an ordered set of distinct symbols. The position of a symbol
// is its digit in the k-mer index.
type Alphabet []byte

// DNA is the nucleotide alphabet A, C, G, T with indices 0..3.
var DNA = NewAlphabet('A', 'C', 'G', 'T')

// NewAlphabet returns an alphabet over the given symbols in order.
func NewAlphabet(symbols ...byte) Alphabet {
	return Alphabet(symbols)
}

// Len returns the number of symbols.
func (a Alphabet) Len() int {
	return len(a)
}

// Symbol returns the symbol with index i.
func (a Alphabet) Symbol(i int) byte {
	return a[i]
}

// IndexOf returns the index of b, or -1 if b is not in the alphabet.
func (a Alphabet) IndexOf(b byte) int {
	for i, s := range a {
		if s == b {
			return i
		}
	}
	return -1
}

// String returns the symbols as a string, e.g. "ACGT".
func (a Alphabet) String() string {
	return string(a)
}

func isLower(b byte) bool { return b >= 'a' && b <= 'z' }
func isUpper(b byte) bool { return b >= 'A' && b <= 'Z' }

func toUpper(b byte) byte {
	if isLower(b) {
		return b - ('a' - 'A')
	}
	return b
}

func toLower(b byte) byte {
	if isUpper(b) {
		return b + ('a' - 'A')
	}
	return b
}
