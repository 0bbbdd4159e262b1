package stream

import (
	"context"
	stderrors "errors"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/kbukum/streamkit/errors"
)

func writeLines(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.txt")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLines(t *testing.T) {
	path := writeLines(t, "alpha", "", "gamma", "delta")
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			p, err := Lines(path)
			if err != nil {
				t.Fatal(err)
			}
			got, err := inMode(p.Filter(func(s string) bool { return s != "" }), m.parallel).Collect(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if want := []string{"alpha", "gamma", "delta"}; !slices.Equal(got, want) {
				t.Errorf("got %v, want %v", got, want)
			}
		})
	}
}

func TestLines_Unavailable(t *testing.T) {
	_, err := Lines(filepath.Join(t.TempDir(), "missing.txt"))
	if errors.CodeOf(err) != errors.ErrCodeSourceUnavailable {
		t.Fatalf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
	if !stderrors.Is(err, os.ErrNotExist) {
		t.Errorf("expected the os error as cause, got %v", err)
	}

	_, err = Lines(t.TempDir())
	if errors.CodeOf(err) != errors.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE for a directory, got %v", err)
	}
}

func TestLines_RemovedBeforeRun(t *testing.T) {
	path := writeLines(t, "x")
	p, err := Lines(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatal(err)
	}
	_, err = p.Collect(context.Background())
	if errors.CodeOf(err) != errors.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE at first pull, got %v", err)
	}
}

type trackingReader struct {
	io.Reader
	closed int
}

func (r *trackingReader) Close() error {
	r.closed++
	return nil
}

func TestLinesFrom_ClosedOnShortCircuit(t *testing.T) {
	r := &trackingReader{Reader: strings.NewReader("a\nb\nc\nd\n")}
	got, err := LinesFrom(r).Limit(2).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, []string{"a", "b"}) {
		t.Errorf("got %v", got)
	}
	if r.closed != 1 {
		t.Errorf("expected reader closed once, got %d", r.closed)
	}
}

type fakeProducer struct {
	lines  []string
	failAt int
	idx    int
	closed int
}

func (f *fakeProducer) Next() (string, bool, error) {
	if f.failAt > 0 && f.idx == f.failAt {
		return "", false, stderrors.New("connection reset")
	}
	if f.idx >= len(f.lines) {
		return "", false, nil
	}
	s := f.lines[f.idx]
	f.idx++
	return s, true, nil
}

func (f *fakeProducer) Close() error {
	f.closed++
	return nil
}

func TestFromExternal(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			prod := &fakeProducer{lines: []string{"x", "y", "z"}}
			got, err := inMode(FromExternal(prod), m.parallel).Collect(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if !slices.Equal(got, []string{"x", "y", "z"}) {
				t.Errorf("got %v", got)
			}
			if prod.closed != 1 {
				t.Errorf("expected producer closed once, got %d", prod.closed)
			}
		})
	}
}

func TestFromExternal_Failure(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			prod := &fakeProducer{lines: []string{"x", "y", "z"}, failAt: 2}
			_, err := inMode(FromExternal(prod), m.parallel).Collect(context.Background())
			if errors.CodeOf(err) != errors.ErrCodeElementProcessing {
				t.Fatalf("expected ELEMENT_PROCESSING_FAILURE, got %v", err)
			}
			appErr, _ := errors.AsAppError(err)
			if pos, ok := appErr.Position(); !ok || pos != 2 {
				t.Errorf("expected failure at position 2, got %d (%v)", pos, ok)
			}
			if prod.closed != 1 {
				t.Errorf("expected producer closed after failure, got %d", prod.closed)
			}
		})
	}
}

func TestTokens(t *testing.T) {
	for _, m := range modes {
		t.Run(m.name, func(t *testing.T) {
			p, err := Tokens(`\s*,\s*`, "a, b ,c,,")
			if err != nil {
				t.Fatal(err)
			}
			got, err := inMode(p, m.parallel).Collect(context.Background())
			if err != nil {
				t.Fatal(err)
			}
			if want := []string{"a", "b", "c"}; !slices.Equal(got, want) {
				t.Errorf("got %q, want %q", got, want)
			}
		})
	}
}

func TestTokens_Edges(t *testing.T) {
	ctx := context.Background()
	p, _ := Tokens(`,`, "")
	if n, err := p.Count(ctx); err != nil || n != 0 {
		t.Errorf("empty text: got %d %v", n, err)
	}
	p, _ = Tokens(`,`, ",a")
	if got, _ := p.Collect(ctx); !slices.Equal(got, []string{"", "a"}) {
		t.Errorf("leading separator: got %q", got)
	}
	if _, err := Tokens(`(`, "a"); errors.CodeOf(err) != errors.ErrCodeInvalidArgument {
		t.Errorf("expected INVALID_ARGUMENT for bad pattern, got %v", err)
	}
}

func TestDirEntries(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"b.txt", "a.txt", "c.log"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	p, err := DirEntries(dir)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Filter(func(s string) bool { return strings.HasSuffix(s, ".txt") }).Collect(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []string{filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt")}
	if !slices.Equal(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}

	if _, err := DirEntries(filepath.Join(dir, "nope")); errors.CodeOf(err) != errors.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE, got %v", err)
	}
	if _, err := DirEntries(filepath.Join(dir, "a.txt")); errors.CodeOf(err) != errors.ErrCodeSourceUnavailable {
		t.Errorf("expected SOURCE_UNAVAILABLE for a file, got %v", err)
	}
}
