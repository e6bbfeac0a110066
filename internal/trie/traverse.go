package trie

import (
	"fmt"
	"iter"
)

// Collect yields the words stored under subtree in lexicographic byte order.
//
// prefix is the path already consumed to reach subtree; every yielded word
// starts with it. The walk stops as soon as the consumer stops ranging.
func (t *Trie) Collect(subtree NodeID, prefix []byte) iter.Seq[string] {
	return func(yield func(string) bool) {
		if !t.pool.valid(subtree) {
			return
		}
		buf := make([]byte, len(prefix), len(prefix)+32)
		copy(buf, prefix)
		t.collect(subtree, &buf, yield)
	}
}

// collect is a pre-order walk. buf holds the path to node and is restored
// before returning.
func (t *Trie) collect(node NodeID, buf *[]byte, yield func(string) bool) bool {
	if t.pool.isTerminal(node) && !yield(string(*buf)) {
		return false
	}
	for offset := range AlphabetSize {
		child := t.pool.child(node, offset)
		if child == Absent {
			continue
		}
		*buf = append(*buf, Symbol(offset))
		ok := t.collect(child, buf, yield)
		*buf = (*buf)[:len(*buf)-1]
		if !ok {
			return false
		}
	}
	return true
}

// Scope selects the part of the trie an edge walk covers.
type Scope struct {
	root  NodeID
	whole bool
}

// WholeTree covers every allocated node, in identifier order.
func WholeTree() Scope {
	return Scope{root: 0, whole: true}
}

// Subtree covers the nodes reachable from root, depth first.
func Subtree(root NodeID) Scope {
	return Scope{root: root}
}

// Root returns the node the scope starts at.
func (s Scope) Root() NodeID {
	return s.root
}

// IsWholeTree reports whether s was built by WholeTree.
func (s Scope) IsWholeTree() bool {
	return s.whole
}

// Edge is one parent to child transition.
type Edge struct {
	Parent   NodeID
	Child    NodeID
	Symbol   byte
	Terminal bool // whether Child ends a word
}

// EdgeFunc is called once per edge. A non-nil error stops the walk.
type EdgeFunc func(Edge) error

// WalkEdges calls fn for every present child slot in scope. The first error
// returned by fn is returned unchanged.
func (t *Trie) WalkEdges(scope Scope, fn EdgeFunc) error {
	if scope.whole {
		for id := range NodeID(t.pool.count) {
			if err := t.nodeEdges(id, fn, false); err != nil {
				return err
			}
		}
		return nil
	}

	if !t.pool.valid(scope.root) {
		return fmt.Errorf("%w: node %d is not allocated", ErrNotFound, scope.root)
	}
	return t.nodeEdges(scope.root, fn, true)
}

func (t *Trie) nodeEdges(node NodeID, fn EdgeFunc, recurse bool) error {
	for offset := range AlphabetSize {
		child := t.pool.child(node, offset)
		if child == Absent {
			continue
		}
		err := fn(Edge{
			Parent:   node,
			Child:    child,
			Symbol:   Symbol(offset),
			Terminal: t.pool.isTerminal(child),
		})
		if err != nil {
			return err
		}
		if recurse {
			if err := t.nodeEdges(child, fn, true); err != nil {
				return err
			}
		}
	}
	return nil
}
