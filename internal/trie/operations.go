package trie

import (
	"fmt"
	"slices"
)

// Insert adds word to the trie.
//
// The word is validated before anything is allocated. If the pool runs out
// part way through, the nodes already created for word stay in the pool and
// the error wraps ErrCapacityExhausted or ErrAllocationFailure.
func (t *Trie) Insert(word []byte) error {
	if err := Validate(word); err != nil {
		return err
	}

	node := t.root
	for _, b := range word {
		offset := int(b - AlphabetMin)
		next := t.pool.child(node, offset)
		if next == Absent {
			id, err := t.pool.Allocate()
			if err != nil {
				return fmt.Errorf("failed to insert %q: %w", word, err)
			}
			t.pool.setChild(node, offset, id)
			next = id
		}
		node = next
	}
	t.pool.setTerminal(node)
	return nil
}

// InsertString is Insert for a string.
func (t *Trie) InsertString(word string) error {
	return t.Insert([]byte(word))
}

// Descend follows prefix from the root and returns the node it spells.
func (t *Trie) Descend(prefix []byte) (NodeID, error) {
	return t.DescendFrom(t.root, prefix)
}

// DescendFrom follows prefix from an arbitrary node. It stops at the first
// missing child and returns ErrNotFound.
func (t *Trie) DescendFrom(node NodeID, prefix []byte) (NodeID, error) {
	if !t.pool.valid(node) {
		return Absent, fmt.Errorf("%w: node %d is not allocated", ErrNotFound, node)
	}
	if err := Validate(prefix); err != nil {
		return Absent, err
	}
	for _, b := range prefix {
		node = t.pool.child(node, int(b-AlphabetMin))
		if node == Absent {
			return Absent, ErrNotFound
		}
	}
	return node, nil
}

// Contains reports whether word was inserted.
func (t *Trie) Contains(word []byte) bool {
	node, err := t.Descend(word)
	if err != nil {
		return false
	}
	return t.pool.isTerminal(node)
}

// Complete returns every stored word starting with prefix, in byte order.
func (t *Trie) Complete(prefix []byte) ([]string, error) {
	node, err := t.Descend(prefix)
	if err != nil {
		return nil, err
	}
	return slices.Collect(t.Collect(node, prefix)), nil
}
