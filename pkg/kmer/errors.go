package kmer

import (
	"fmt"
	"strings"
)

// ConfigurationError reports an invalid alphabet or order passed to New.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "invalid encoder configuration: " + e.Reason
}

// InputTooShortError reports a sequence shorter than the encoder order.
type InputTooShortError struct {
	Length int
	Order  int
}

func (e *InputTooShortError) Error() string {
	return fmt.Sprintf("sequence length %d is shorter than order %d", e.Length, e.Order)
}

// UnknownSymbolError reports a symbol outside the alphabet under FailOnUnknown.
type UnknownSymbolError struct {
	Symbol   byte
	Position int
}

func (e *UnknownSymbolError) Error() string {
	return fmt.Sprintf("unknown symbol %q at position %d", e.Symbol, e.Position)
}

// ItemError ties a failure to the batch position of the sequence that caused it.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("sequence %d: %v", e.Index, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}

// BatchError collects the per-sequence failures of a batch encoding.
// Failures are ordered by Index.
type BatchError struct {
	Failures []*ItemError
}

func (e *BatchError) Error() string {
	if len(e.Failures) == 1 {
		return e.Failures[0].Error()
	}
	msgs := make([]string, 0, 3)
	for i, f := range e.Failures {
		if i == 3 {
			break
		}
		msgs = append(msgs, f.Error())
	}
	more := ""
	if len(e.Failures) > 3 {
		more = fmt.Sprintf(" (and %d more)", len(e.Failures)-3)
	}
	return fmt.Sprintf("%d sequences failed to encode: %s%s",
		len(e.Failures), strings.Join(msgs, "; "), more)
}

func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}
