package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/kbukum/streamkit/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streamkit.yml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

const quietConfig = `
name: streamkit-test
logging:
  level: error
stream:
  workers: 2
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs(append([]string{"--config", writeConfig(t, quietConfig)}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestLinesCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.txt")
	require.NoError(t, os.WriteFile(path, []byte("alpha\nbeta\ngamma\nalpine\n"), 0o600))

	out, err := run(t, "lines", path, "--contains", "al")
	require.NoError(t, err)
	assert.Equal(t, "alpha\nalpine\n", out)

	out, err = run(t, "lines", path, "--count", "--parallel")
	require.NoError(t, err)
	var report map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &report))
	assert.Equal(t, 4, report["lines"])

	out, err = run(t, "lines", path, "--limit", "2")
	require.NoError(t, err)
	assert.Equal(t, "alpha\nbeta\n", out)
}

func TestLinesCommand_MissingFile(t *testing.T) {
	_, err := run(t, "lines", filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeSourceUnavailable, errors.CodeOf(err))
}

func TestTokensCommand(t *testing.T) {
	out, err := run(t, "tokens", `\s*,\s*`, "pear, apple,pear , fig", "--distinct", "--sorted")
	require.NoError(t, err)
	assert.Equal(t, "apple\nfig\npear\n", out)

	_, err = run(t, "tokens", "(", "text")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidArgument, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "pattern: is not a valid regular expression")
}

func TestRandomCommand(t *testing.T) {
	for _, mode := range []string{"--parallel=false", "--parallel"} {
		t.Run(mode, func(t *testing.T) {
			out, err := run(t, "random", "--seed", "7", "-n", "500", "--lo", "-1", "--hi", "1", mode)
			require.NoError(t, err)

			var s randomSummary
			require.NoError(t, yaml.Unmarshal([]byte(out), &s))
			assert.Equal(t, int64(500), s.Count)
			assert.GreaterOrEqual(t, s.Min, -1.0)
			assert.Less(t, s.Max, 1.0)
			assert.InDelta(t, 0, s.Average, 0.2)
		})
	}
}

func TestRandomCommand_Deterministic(t *testing.T) {
	first, err := run(t, "random", "--seed", "11", "-n", "100", "--parallel")
	require.NoError(t, err)
	second, err := run(t, "random", "--seed", "11", "-n", "100", "--parallel")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestRandomCommand_Ints(t *testing.T) {
	out, err := run(t, "random", "--kind", "ints", "-n", "200", "--lo", "1", "--hi", "7")
	require.NoError(t, err)
	var s randomSummary
	require.NoError(t, yaml.Unmarshal([]byte(out), &s))
	assert.GreaterOrEqual(t, s.Min, 1.0)
	assert.LessOrEqual(t, s.Max, 6.0)
}

func TestRandomCommand_InvalidFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"bad kind", []string{"--kind", "bytes"}, "kind"},
		{"negative count", []string{"--count=-3"}, "n"},
		{"empty range", []string{"--lo", "2", "--hi", "2"}, "lo"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := run(t, append([]string{"random"}, tc.args...)...)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeInvalidArgument, errors.CodeOf(err))
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestSumCommand(t *testing.T) {
	out, err := run(t, "sum", "-n", "20000", "--seed", "3")
	require.NoError(t, err)
	var r sumReport
	require.NoError(t, yaml.Unmarshal([]byte(out), &r))
	assert.Equal(t, int64(20000), r.Count)
	// both runs add the same values, so only rounding separates them
	assert.InDelta(t, 0, r.Difference, 1e-9*20000)
	assert.InDelta(t, r.Sequential.Sum, r.Parallel.Sum, 1e-9*20000)
	assert.InDelta(t, 10000, r.Sequential.Sum, 500)
}

func TestVersionCommand(t *testing.T) {
	out, err := run(t, "version", "--short")
	require.NoError(t, err)
	assert.NotEmpty(t, strings.TrimSpace(out))

	out, err = run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "go_version:")
}

func TestInvalidConfig(t *testing.T) {
	var out bytes.Buffer
	cmd := newRootCmd(&out)
	cmd.SetArgs([]string{"--config", writeConfig(t, "stream:\n  workers: -1\n"), "version"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeInvalidConfig, errors.CodeOf(err))
}
