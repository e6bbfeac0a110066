// Command autocomplete builds a trie from a word list, then either prints the
// completions of a prefix, renders the trie with Graphviz, or serves both
// queries over HTTP.
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/api"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/config"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/graph"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/logging"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/render"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/wordlist"
)

const programName = "autocomplete"

const (
	exitOK    = 0
	exitFail  = 1
	exitUsage = 2
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := config.NewFlagSet(programName)
	fs.SetOutput(io.Discard)

	if err := fs.Parse(args); err != nil {
		return usageErr(stderr, err)
	}
	if help, _ := fs.GetBool("help"); help {
		showHelp(stdout, fs.FlagUsages())
		return exitOK
	}

	configPath, _ := fs.GetString("config")
	cfg, err := config.LoadConfig(configPath, fs)
	if err != nil {
		if errors.Is(err, config.ErrUsage) {
			return usageErr(stderr, err)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, config.ErrUsage) {
			return usageErr(stderr, err)
		}
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}

	logger, err := logging.New(stderr, cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return exitFail
	}
	logging.Install(logger)

	t, err := build(ctx, cfg, stdin, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to build trie")
		return exitFail
	}

	switch {
	case cfg.Completion:
		err = complete(t, cfg.Complete, stdout)
	case cfg.SVG:
		err = renderGraph(ctx, t, cfg, logger)
	case cfg.Serving():
		err = api.NewServer(cfg.Server.Addr, t, logger).Start(ctx)
	}

	if errors.Is(err, trie.ErrNotFound) {
		fmt.Fprintln(stderr, "Error: Unable to find prefix.")
		return exitFail
	}
	if err != nil {
		logger.Error().Err(err).Msg("Command failed")
		return exitFail
	}
	return exitOK
}

// build reads the word list and inserts every word.
func build(ctx context.Context, cfg *config.Config, stdin io.Reader, logger zerolog.Logger) (*trie.Trie, error) {
	in := stdin
	if cfg.Input != "" && cfg.Input != "-" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		in = f
	}

	policy := wordlist.Policy{
		SkipEmpty:   cfg.InputPolicy.SkipEmpty,
		SkipInvalid: cfg.InputPolicy.SkipInvalid,
	}
	words, _, err := wordlist.Read(ctx, in, policy, wordlist.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	t, err := trie.New(cfg.TrieOptions(logger)...)
	if err != nil {
		return nil, err
	}
	if err := wordlist.Populate(ctx, t, words, wordlist.WithLogger(logger)); err != nil {
		return nil, err
	}

	stats := t.Stats()
	logger.Debug().
		Int("lines", len(words)).
		Int32("nodes_allocated", stats.NodesAllocated).
		Int32("nodes_used", stats.NodesUsed).
		Int64("bytes_allocated", stats.BytesAllocated).
		Int64("bytes_used", stats.BytesUsed).
		Msg("Built trie")
	return t, nil
}

// complete prints every word starting with prefix, one per line.
func complete(t *trie.Trie, prefix string, stdout io.Writer) error {
	node, err := t.Descend([]byte(prefix))
	if err != nil {
		return err
	}

	w := bufio.NewWriter(stdout)
	for word := range t.Collect(node, []byte(prefix)) {
		if _, err := fmt.Fprintln(w, word); err != nil {
			return err
		}
	}
	return w.Flush()
}

// renderGraph writes the DOT file for the whole trie, or the subtree at
// cfg.Prefix, and runs Graphviz on it.
func renderGraph(ctx context.Context, t *trie.Trie, cfg *config.Config, logger zerolog.Logger) error {
	pipeline := &render.Pipeline{
		DOTPath:  cfg.Render.DOTFile,
		Keep:     cfg.Keep,
		Renderer: render.NewGraphviz(cfg.Render.Binary, cfg.Render.Format, logger),
	}

	scope := trie.WholeTree()
	if cfg.Prefix != "" {
		node, err := t.Descend([]byte(cfg.Prefix))
		if err != nil {
			if cerr := render.Cleanup(pipeline.DOTPath, pipeline.Keep); cerr != nil {
				logger.Warn().Err(cerr).Msg("Failed to clean up")
			}
			return err
		}
		scope = trie.Subtree(node)
	}

	if cfg.Render.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Render.Timeout)
		defer cancel()
	}

	exporter := graph.NewExporter(t)
	_, err := pipeline.Run(ctx, func(w io.Writer) error {
		return exporter.Dump(ctx, w, scope, cfg.Prefix)
	})
	return err
}

func usageErr(stderr io.Writer, err error) int {
	fmt.Fprintf(stderr, "Error: %v\n", err)
	fmt.Fprintf(stderr, "The syntax of the command is incorrect.\n"+
		"Try %s -h for more information.\n", programName)
	return exitUsage
}

func showHelp(w io.Writer, flagUsages string) {
	fmt.Fprintf(w, "\nUSAGE\n"+
		"\t%[1]s [OPTIONS] [filename]\n\n"+
		"DESCRIPTION\n"+
		"\t%[1]s is a program for auto-completion and graph visualization.\n"+
		"\tWords are read one per line from filename, or from stdin.\n\n"+
		"OPTIONS:\n%[2]s\n", programName, flagUsages)
}
