// Package wordlist turns newline separated input into words the trie can
// store, and loads them into a trie.
package wordlist

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/kumarlokesh/sysd/exercises/trie-autocomplete/internal/trie"
)

// Policy decides what happens to lines that cannot be stored as words.
type Policy struct {
	// SkipEmpty drops empty lines instead of storing the empty word.
	SkipEmpty bool
	// SkipInvalid drops lines with bytes outside the alphabet instead of
	// failing the whole read.
	SkipInvalid bool
}

// DefaultPolicy skips empty lines and rejects invalid ones.
var DefaultPolicy = Policy{SkipEmpty: true}

// Report counts what Read saw.
type Report struct {
	Lines   int `json:"lines"`
	Words   int `json:"words"`
	Empty   int `json:"empty"`
	Invalid int `json:"invalid"`
}

// LineError ties an input error to its 1-based line number.
type LineError struct {
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

type options struct {
	logger zerolog.Logger
}

// Option configures Read and Populate.
type Option func(*options)

// WithLogger sets the logger used for skipped lines and progress.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

func newOptions(opts []Option) options {
	o := options{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Read splits r on '\n'. A trailing '\r' is dropped from each line; there is
// no limit on line length.
func Read(ctx context.Context, r io.Reader, policy Policy, opts ...Option) ([]string, Report, error) {
	o := newOptions(opts)
	br := bufio.NewReader(r)

	var (
		words  []string
		report Report
	)
	for {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}

		line, readErr := br.ReadBytes('\n')
		if readErr != nil && !errors.Is(readErr, io.EOF) {
			return nil, report, fmt.Errorf("failed to read word list: %w", readErr)
		}
		if len(line) == 0 && readErr != nil {
			break
		}

		report.Lines++
		line = bytes.TrimSuffix(line, []byte("\n"))
		line = bytes.TrimSuffix(line, []byte("\r"))

		switch {
		case len(line) == 0 && policy.SkipEmpty:
			report.Empty++
		default:
			if err := trie.Validate(line); err != nil {
				if !policy.SkipInvalid {
					return nil, report, &LineError{Line: report.Lines, Err: err}
				}
				report.Invalid++
				o.logger.Warn().Err(err).Int("line", report.Lines).Msg("Skipping line")
				break
			}
			words = append(words, string(line))
			report.Words++
		}

		if readErr != nil {
			break
		}
	}

	o.logger.Debug().
		Int("lines", report.Lines).
		Int("words", report.Words).
		Int("empty", report.Empty).
		Int("invalid", report.Invalid).
		Msg("Read word list")
	return words, report, nil
}

// Populate inserts words into t in order and stops at the first failure.
func Populate(ctx context.Context, t *trie.Trie, words []string, opts ...Option) error {
	o := newOptions(opts)
	for i, w := range words {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := t.InsertString(w); err != nil {
			return fmt.Errorf("failed to insert word %d: %w", i+1, err)
		}
	}
	o.logger.Debug().Int("words", len(words)).Int("nodes", t.Len()).Msg("Populated trie")
	return nil
}
