// Package graph writes a trie, or one of its subtrees, as a Graphviz DOT
// digraph.
package graph

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
)

// ErrExportWriteFailed wraps any error returned by the output sink.
var ErrExportWriteFailed = errors.New("graph: export write failed")

// EdgeWalker is the part of the trie the exporter needs.
type EdgeWalker interface {
	WalkEdges(scope trie.Scope, fn trie.EdgeFunc) error
	IsTerminal(id trie.NodeID) bool
}

// Exporter renders edge walks as DOT.
type Exporter struct {
	walker        EdgeWalker
	name          string
	fillColor     string
	terminalColor string
}

// Option configures an Exporter.
type Option func(*Exporter)

// WithGraphName sets the digraph name.
func WithGraphName(name string) Option {
	return func(e *Exporter) {
		e.name = name
	}
}

// WithFillColor sets the fill colour of non-terminal nodes.
func WithFillColor(color string) Option {
	return func(e *Exporter) {
		e.fillColor = color
	}
}

// WithTerminalColor sets the fill colour of nodes that end a word.
func WithTerminalColor(color string) Option {
	return func(e *Exporter) {
		e.terminalColor = color
	}
}

// NewExporter creates an exporter over w.
func NewExporter(w EdgeWalker, opts ...Option) *Exporter {
	e := &Exporter{
		walker:        w,
		name:          "Trie",
		fillColor:     "lightblue",
		terminalColor: "lightgreen",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dump writes scope to sink. The scope root is declared with rootLabel
// ("root" when empty); every other node is declared once, labelled with the
// symbol on its incoming edge.
//
// Output written before a sink failure is left as is.
func (e *Exporter) Dump(ctx context.Context, sink io.Writer, scope trie.Scope, rootLabel string) error {
	if rootLabel == "" {
		rootLabel = "root"
	}

	w := &sinkWriter{w: sink}
	w.printf("digraph %s {\n", quote(e.name))
	w.printf("\tnode [fillcolor=%s,style=filled,arrowhead=vee,color=black]\n", quote(e.fillColor))
	e.declare(w, scope.Root(), rootLabel, e.walker.IsTerminal(scope.Root()))
	if w.err != nil {
		return w.err
	}

	err := e.walker.WalkEdges(scope, func(edge trie.Edge) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		label := string(edge.Symbol)
		e.declare(w, edge.Child, label, edge.Terminal)
		w.printf("\t%s -> %s [label=%s]\n", nodeName(edge.Parent), nodeName(edge.Child), quote(label))
		return w.err
	})
	if err != nil {
		return err
	}

	w.printf("}\n")
	return w.err
}

// DumpString returns the DOT text for scope.
func (e *Exporter) DumpString(scope trie.Scope, rootLabel string) (string, error) {
	var sb strings.Builder
	if err := e.Dump(context.Background(), &sb, scope, rootLabel); err != nil {
		return "", err
	}
	return sb.String(), nil
}

func (e *Exporter) declare(w *sinkWriter, id trie.NodeID, label string, terminal bool) {
	if terminal {
		w.printf("\t%s [label=%s,fillcolor=%s]\n", nodeName(id), quote(label), quote(e.terminalColor))
		return
	}
	w.printf("\t%s [label=%s]\n", nodeName(id), quote(label))
}

func nodeName(id trie.NodeID) string {
	return fmt.Sprintf("Node_%d", id)
}

// quote makes s a DOT double-quoted string. Backslash is escaped too, since
// Graphviz treats it as the start of an escape sequence inside labels.
func quote(s string) string {
	var sb strings.Builder
	sb.Grow(len(s) + 2)
	sb.WriteByte('"')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '"', '\\':
			sb.WriteByte('\\')
			sb.WriteByte(c)
		default:
			sb.WriteByte(c)
		}
	}
	sb.WriteByte('"')
	return sb.String()
}

// sinkWriter keeps the first write error and drops everything after it.
type sinkWriter struct {
	w   io.Writer
	err error
}

func (s *sinkWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	if _, err := fmt.Fprintf(s.w, format, args...); err != nil {
		s.err = fmt.Errorf("%w: %w", ErrExportWriteFailed, err)
	}
}
