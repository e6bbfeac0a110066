// Package render manages the DOT file handed to Graphviz and runs the
// Graphviz binary on it.
package render

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/exec"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/rboyer/safeio"
	"github.com/rs/zerolog"
)

// WriteDOT writes the output of fn to path atomically. If fn fails, path is
// left untouched.
func WriteDOT(path string, fn func(io.Writer) error) error {
	fh, err := safeio.OpenFile(path, 0o644)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	defer fh.Close()

	if err := fn(fh); err != nil {
		return err
	}
	if err := fh.Commit(); err != nil {
		return fmt.Errorf("failed to commit %s: %w", path, err)
	}
	return nil
}

// Renderer turns a DOT file into an image and returns the image's path.
type Renderer interface {
	Render(ctx context.Context, dotPath string) (string, error)
}

// Graphviz runs a Graphviz layout binary as "<Binary> -T<Format> <dot> -O".
type Graphviz struct {
	Binary string
	Format string
	Logger zerolog.Logger
}

// NewGraphviz returns a renderer for the given binary and output format.
func NewGraphviz(binary, format string, logger zerolog.Logger) *Graphviz {
	return &Graphviz{
		Binary: binary,
		Format: format,
		Logger: logger,
	}
}

// Render runs Graphviz. With -O the output lands next to dotPath with the
// format appended as an extension.
func (g *Graphviz) Render(ctx context.Context, dotPath string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Binary, "-T"+g.Format, dotPath, "-O")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	g.Logger.Debug().Str("cmd", cmd.String()).Msg("Running graphviz")
	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return "", fmt.Errorf("failed to generate the .%s file: %w: %s", g.Format, err, msg)
		}
		return "", fmt.Errorf("failed to generate the .%s file: %w", g.Format, err)
	}

	out := dotPath + "." + g.Format
	g.Logger.Info().Str("path", out).Msg("Rendered graph")
	return out, nil
}

// Cleanup removes the DOT file unless keep is set. A file that was never
// written is not an error.
func Cleanup(path string, keep bool) error {
	if keep {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", path, err)
	}
	return nil
}

// Pipeline writes a DOT file, renders it and removes the DOT file unless it
// is to be kept. Cleanup runs even when writing or rendering fails; all
// failures are returned together.
type Pipeline struct {
	DOTPath  string
	Keep     bool
	Renderer Renderer
}

// Run executes the pipeline and returns the rendered file's path.
func (p *Pipeline) Run(ctx context.Context, dump func(io.Writer) error) (string, error) {
	var result *multierror.Error

	out, err := p.render(ctx, dump)
	if err != nil {
		result = multierror.Append(result, err)
	}
	if err := Cleanup(p.DOTPath, p.Keep); err != nil {
		result = multierror.Append(result, err)
	}

	if err := result.ErrorOrNil(); err != nil {
		return "", err
	}
	return out, nil
}

func (p *Pipeline) render(ctx context.Context, dump func(io.Writer) error) (string, error) {
	if err := WriteDOT(p.DOTPath, dump); err != nil {
		return "", err
	}
	return p.Renderer.Render(ctx, p.DOTPath)
}
