package trie

import (
	"fmt"
	"unsafe"

	"github.com/rs/zerolog"
)

// DefaultInitialCapacity is the number of nodes a new pool starts with.
const DefaultInitialCapacity = 2048

const nodeBytes = int64(unsafe.Sizeof(Node{}))

// Pool owns every node of a trie in one contiguous slice. Nodes are only
// ever appended; there is no way to free one.
type Pool struct {
	nodes    []Node
	count    int32
	maxNodes int32
	maxBytes int64

	initialCapacity int32
	logger          zerolog.Logger
}

// PoolStats summarises pool usage.
type PoolStats struct {
	NodesUsed      int32 `json:"nodes_used"`
	NodesAllocated int32 `json:"nodes_allocated"`
	BytesUsed      int64 `json:"bytes_used"`
	BytesAllocated int64 `json:"bytes_allocated"`
}

// Option configures a Pool.
type Option func(*Pool)

// WithInitialCapacity sets the number of nodes allocated up front.
func WithInitialCapacity(n int) Option {
	return func(p *Pool) {
		p.initialCapacity = clampNodes(n)
	}
}

// WithMaxNodes lowers the identifier ceiling below MaxNodes.
func WithMaxNodes(n int) Option {
	return func(p *Pool) {
		p.maxNodes = clampNodes(n)
	}
}

// WithMemoryLimit caps the backing store at the given size in bytes.
// Zero means no limit.
func WithMemoryLimit(bytes int64) Option {
	return func(p *Pool) {
		p.maxBytes = bytes
	}
}

// WithLogger sets the logger used to report pool growth.
func WithLogger(logger zerolog.Logger) Option {
	return func(p *Pool) {
		p.logger = logger
	}
}

func clampNodes(n int) int32 {
	switch {
	case n < 0:
		return 0
	case n > MaxNodes:
		return MaxNodes
	}
	return int32(n)
}

// NewPool creates a pool and allocates its initial capacity.
func NewPool(opts ...Option) (*Pool, error) {
	p := &Pool{
		maxNodes:        MaxNodes,
		initialCapacity: DefaultInitialCapacity,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.maxNodes < 1 {
		return nil, fmt.Errorf("trie: max nodes must be positive, got %d", p.maxNodes)
	}
	if p.initialCapacity < 1 {
		return nil, fmt.Errorf("trie: initial capacity must be positive, got %d", p.initialCapacity)
	}
	if p.maxBytes < 0 {
		return nil, fmt.Errorf("trie: memory limit must not be negative, got %d", p.maxBytes)
	}

	capacity := min(p.initialCapacity, p.maxNodes)
	if err := p.checkMemory(capacity); err != nil {
		return nil, err
	}
	nodes, err := allocNodes(capacity)
	if err != nil {
		return nil, err
	}
	p.nodes = nodes
	return p, nil
}

// Allocate appends a node with every child slot Absent and returns its ID.
func (p *Pool) Allocate() (NodeID, error) {
	if p.count == p.capacity() {
		if err := p.grow(); err != nil {
			return Absent, err
		}
	}
	id := NodeID(p.count)
	p.nodes[id].reset()
	p.count++
	return id, nil
}

// grow doubles the capacity, except that the last step stops exactly at
// maxNodes. The old slice is copied, never reused.
func (p *Pool) grow() error {
	capacity := p.capacity()
	headroom := p.maxNodes - capacity
	if headroom <= 0 {
		return fmt.Errorf("%w: all %d node identifiers are in use", ErrCapacityExhausted, p.maxNodes)
	}

	next := capacity + min(capacity, headroom)
	if err := p.checkMemory(next); err != nil {
		return err
	}
	nodes, err := allocNodes(next)
	if err != nil {
		return err
	}
	copy(nodes, p.nodes[:p.count])

	p.logger.Debug().
		Int32("from", capacity).
		Int32("to", next).
		Int64("bytes", int64(next)*nodeBytes).
		Msg("Growing node pool")

	p.nodes = nodes
	return nil
}

func (p *Pool) checkMemory(capacity int32) error {
	if p.maxBytes > 0 && int64(capacity)*nodeBytes > p.maxBytes {
		return fmt.Errorf("%w: %d nodes need %d bytes, limit is %d",
			ErrAllocationFailure, capacity, int64(capacity)*nodeBytes, p.maxBytes)
	}
	return nil
}

func allocNodes(n int32) (nodes []Node, err error) {
	defer func() {
		if r := recover(); r != nil {
			nodes = nil
			err = fmt.Errorf("%w: %v", ErrAllocationFailure, r)
		}
	}()
	return make([]Node, n), nil
}

func (p *Pool) capacity() int32 {
	return int32(len(p.nodes))
}

// Len returns the number of nodes in use.
func (p *Pool) Len() int {
	return int(p.count)
}

// Cap returns the number of nodes allocated.
func (p *Pool) Cap() int {
	return len(p.nodes)
}

// Stats reports the pool's usage.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		NodesUsed:      p.count,
		NodesAllocated: p.capacity(),
		BytesUsed:      int64(p.count) * nodeBytes,
		BytesAllocated: int64(p.capacity()) * nodeBytes,
	}
}

func (p *Pool) valid(id NodeID) bool {
	return id >= 0 && int32(id) < p.count
}

func (p *Pool) child(id NodeID, offset int) NodeID {
	return p.nodes[id].children[offset]
}

func (p *Pool) setChild(id NodeID, offset int, child NodeID) {
	p.nodes[id].children[offset] = child
}

func (p *Pool) isTerminal(id NodeID) bool {
	return p.nodes[id].terminal
}

func (p *Pool) setTerminal(id NodeID) {
	p.nodes[id].terminal = true
}
