package trie

import "math"

// NodeID is a node's offset in its pool. IDs stay valid across pool growth;
// pointers into the pool do not.
type NodeID int32

const (
	// Absent marks an unused child slot.
	Absent NodeID = -1

	// MaxNodes is the largest pool the NodeID type can address.
	MaxNodes = math.MaxInt32
)

// Node represents a node in the trie
type Node struct {
	// children holds the child ID for each alphabet offset, or Absent
	children [AlphabetSize]NodeID

	// terminal marks the end of an inserted word
	terminal bool
}

func (n *Node) reset() {
	for i := range n.children {
		n.children[i] = Absent
	}
	n.terminal = false
}

// Trie represents a trie data structure
type Trie struct {
	pool *Pool
	root NodeID
}

// New creates a new empty trie backed by its own node pool.
func New(opts ...Option) (*Trie, error) {
	pool, err := NewPool(opts...)
	if err != nil {
		return nil, err
	}
	root, err := pool.Allocate()
	if err != nil {
		return nil, err
	}
	return &Trie{
		pool: pool,
		root: root,
	}, nil
}

// Root returns the ID of the root node.
func (t *Trie) Root() NodeID {
	return t.root
}

// Len returns the number of nodes in use, root included.
func (t *Trie) Len() int {
	return t.pool.Len()
}

// Stats reports the node pool's usage.
func (t *Trie) Stats() PoolStats {
	return t.pool.Stats()
}

// IsTerminal reports whether a word ends at id.
func (t *Trie) IsTerminal(id NodeID) bool {
	return t.pool.valid(id) && t.pool.isTerminal(id)
}
