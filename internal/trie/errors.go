package trie

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidByte is returned for words or prefixes containing a byte
	// outside the printable ASCII range.
	ErrInvalidByte = errors.New("trie: byte outside the printable ASCII alphabet")
	// ErrCapacityExhausted is returned once every node identifier is in use.
	ErrCapacityExhausted = errors.New("trie: node identifier space exhausted")
	// ErrAllocationFailure is returned when the node pool cannot grow its
	// backing store.
	ErrAllocationFailure = errors.New("trie: node pool could not grow")
	// ErrNotFound is returned when no path spells the queried prefix.
	ErrNotFound = errors.New("trie: prefix not found")
)

// InvalidByteError locates the offending byte. It matches ErrInvalidByte
// under errors.Is.
type InvalidByteError struct {
	Byte byte
	Pos  int
}

func (e *InvalidByteError) Error() string {
	return fmt.Sprintf("trie: byte 0x%02x at position %d is outside the printable ASCII alphabet", e.Byte, e.Pos)
}

func (e *InvalidByteError) Unwrap() error {
	return ErrInvalidByte
}
