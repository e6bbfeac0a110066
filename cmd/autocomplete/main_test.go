package main

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const words = "cat\ncar\ncart\ndog\n"

type result struct {
	code   int
	stdout string
	stderr string
}

func runWith(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	var stdout, stderr bytes.Buffer
	args = append([]string{"--log-level", "error"}, args...)
	code := run(context.Background(), args, strings.NewReader(stdin), &stdout, &stderr)
	return result{code: code, stdout: stdout.String(), stderr: stderr.String()}
}

func fakeDot(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts not supported")
	}
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	path := filepath.Join(t.TempDir(), "fake-dot")
	script := "#!/bin/sh\n" + `fmt="${1#-T}"; cp "$2" "$2.$fmt"` + "\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestRun_Help(t *testing.T) {
	res := runWith(t, "", "-h")
	assert.Equal(t, exitOK, res.code)
	assert.Contains(t, res.stdout, "USAGE")
	assert.Contains(t, res.stdout, "--complete")
}

func TestRun_UsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "no mode", args: nil},
		{name: "unknown flag", args: []string{"--bogus"}},
		{name: "svg and complete", args: []string{"-s", "-c", "ca"}},
		{name: "prefix without svg", args: []string{"-c", "ca", "-p", "ca"}},
		{name: "two input files", args: []string{"-c", "ca", "a.txt", "b.txt"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runWith(t, words, tt.args...)
			assert.Equal(t, exitUsage, res.code)
			assert.Contains(t, res.stderr, "The syntax of the command is incorrect.")
			assert.Empty(t, res.stdout)
		})
	}
}

func TestRun_Complete(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		res := runWith(t, words, "-c", "ca")
		assert.Equal(t, exitOK, res.code)
		assert.Equal(t, "car\ncart\ncat\n", res.stdout)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "words.txt")
		require.NoError(t, os.WriteFile(path, []byte(words), 0o644))

		res := runWith(t, "", "-c", "do", path)
		assert.Equal(t, exitOK, res.code)
		assert.Equal(t, "dog\n", res.stdout)
	})

	t.Run("empty prefix lists everything", func(t *testing.T) {
		res := runWith(t, words, "--complete", "")
		assert.Equal(t, exitOK, res.code)
		assert.Equal(t, "car\ncart\ncat\ndog\n", res.stdout)
	})

	t.Run("unknown prefix", func(t *testing.T) {
		res := runWith(t, words, "-c", "zebra")
		assert.Equal(t, exitFail, res.code)
		assert.Empty(t, res.stdout)
		assert.Contains(t, res.stderr, "Error: Unable to find prefix.")
	})

	t.Run("missing file", func(t *testing.T) {
		res := runWith(t, "", "-c", "ca", filepath.Join(t.TempDir(), "nope.txt"))
		assert.Equal(t, exitFail, res.code)
	})
}

func TestRun_InvalidInput(t *testing.T) {
	input := "cat\ncaf\xc3\xa9\ndog\n"

	res := runWith(t, input, "-c", "c")
	assert.Equal(t, exitFail, res.code)
	assert.Empty(t, res.stdout)

	res = runWith(t, input, "--skip-invalid", "-c", "c")
	assert.Equal(t, exitOK, res.code)
	assert.Equal(t, "cat\n", res.stdout)
}

func TestRun_CapacityExhausted(t *testing.T) {
	res := runWith(t, words, "--initial-capacity", "2", "--max-nodes", "4", "-c", "ca")
	assert.Equal(t, exitFail, res.code)
	assert.Empty(t, res.stdout)
}

func TestRun_Graph(t *testing.T) {
	bin := fakeDot(t)

	t.Run("whole tree", func(t *testing.T) {
		dotPath := filepath.Join(t.TempDir(), "graph.dot")
		res := runWith(t, words, "-s", "--dot-binary", bin, "--dot-file", dotPath)
		require.Equal(t, exitOK, res.code, res.stderr)

		assert.NoFileExists(t, dotPath)
		out, err := os.ReadFile(dotPath + ".svg")
		require.NoError(t, err)
		assert.Equal(t, 8, strings.Count(string(out), " -> "))
	})

	t.Run("subtree kept", func(t *testing.T) {
		dotPath := filepath.Join(t.TempDir(), "graph.dot")
		res := runWith(t, words, "-s", "-k", "-p", "ca", "--format", "png",
			"--dot-binary", bin, "--dot-file", dotPath)
		require.Equal(t, exitOK, res.code, res.stderr)

		dot, err := os.ReadFile(dotPath)
		require.NoError(t, err)
		assert.Contains(t, string(dot), `[label="ca"]`)
		assert.Equal(t, 3, strings.Count(string(dot), " -> "))
		assert.FileExists(t, dotPath+".png")
	})

	t.Run("unknown prefix", func(t *testing.T) {
		dotPath := filepath.Join(t.TempDir(), "graph.dot")
		res := runWith(t, words, "-s", "-p", "zz", "--dot-binary", bin, "--dot-file", dotPath)
		assert.Equal(t, exitFail, res.code)
		assert.Contains(t, res.stderr, "Error: Unable to find prefix.")
		assert.NoFileExists(t, dotPath)
	})

	t.Run("renderer failure", func(t *testing.T) {
		dotPath := filepath.Join(t.TempDir(), "graph.dot")
		res := runWith(t, words, "-s", "--dot-binary", filepath.Join(t.TempDir(), "missing-dot"),
			"--dot-file", dotPath)
		assert.Equal(t, exitFail, res.code)
		assert.NoFileExists(t, dotPath)
	})
}
