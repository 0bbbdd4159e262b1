package stream

import (
	"bufio"
	"context"
	"io"
	"os"
	"path/filepath"
	"regexp"

	"github.com/kbukum/streamkit/errors"
)

// maxLineSize caps a single line read by Lines and LinesFrom.
const maxLineSize = 1 << 20

// Producer is an external, line-oriented supplier such as a file reader or
// a network feed. Next returns ok == false once the producer is drained.
type Producer interface {
	Next() (line string, ok bool, err error)
	Close() error
}

// FromExternal creates an ordered pipeline over a Producer. The producer is
// closed when the run ends, whether it finished, failed or was cut short.
func FromExternal(p Producer, opts ...Option) *Pipeline[string] {
	return newSource("external", Traits{Ordered: true},
		func(context.Context) (Source[string], error) {
			return &funcSource[string]{
				pull:   func(context.Context) (string, bool, error) { return p.Next() },
				closer: p.Close,
				traits: Traits{Ordered: true},
				pos:    -1,
			}, nil
		},
		opts...)
}

// Lines creates an ordered pipeline over the lines of the file at path.
// The path is checked here and a missing or unreadable file is reported
// immediately as SOURCE_UNAVAILABLE. The file itself is opened on the first
// pull and closed when the run ends.
func Lines(path string, opts ...Option) (*Pipeline[string], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.SourceUnavailable(path, err)
	}
	if info.IsDir() {
		return nil, errors.SourceUnavailable(path, nil).WithDetail("reason", "is a directory")
	}
	return newSource("lines", Traits{Ordered: true},
		func(context.Context) (Source[string], error) {
			lp := &lineProducer{path: path}
			return &funcSource[string]{
				pull:   lp.pull,
				closer: lp.Close,
				traits: Traits{Ordered: true},
				pos:    -1,
			}, nil
		},
		opts...), nil
}

// LinesFrom creates an ordered pipeline over the lines read from r. If r is
// an io.Closer it is closed when the run ends.
func LinesFrom(r io.Reader, opts ...Option) *Pipeline[string] {
	return newSource("lines", Traits{Ordered: true},
		func(context.Context) (Source[string], error) {
			lp := &lineProducer{scanner: newScanner(r)}
			if c, ok := r.(io.Closer); ok {
				lp.file = c
			}
			return &funcSource[string]{
				pull:   lp.pull,
				closer: lp.Close,
				traits: Traits{Ordered: true},
				pos:    -1,
			}, nil
		},
		opts...)
}

type lineProducer struct {
	path    string
	file    io.Closer
	scanner *bufio.Scanner
}

func (lp *lineProducer) pull(context.Context) (string, bool, error) {
	if lp.scanner == nil {
		f, err := os.Open(lp.path)
		if err != nil {
			return "", false, errors.SourceUnavailable(lp.path, err)
		}
		lp.file = f
		lp.scanner = newScanner(f)
	}
	if lp.scanner.Scan() {
		return lp.scanner.Text(), true, nil
	}
	return "", false, lp.scanner.Err()
}

func (lp *lineProducer) Close() error {
	if lp.file == nil {
		return nil
	}
	f := lp.file
	lp.file = nil
	return f.Close()
}

func newScanner(r io.Reader) *bufio.Scanner {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return s
}

// Tokens creates an ordered pipeline over the pieces of text separated by
// matches of pattern. Trailing empty pieces are dropped and empty text has
// no tokens. An invalid pattern is reported as INVALID_ARGUMENT.
func Tokens(pattern, text string, opts ...Option) (*Pipeline[string], error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.InvalidArgument("pattern", err.Error()).WithCause(err)
	}
	return newSource("tokens", Traits{Ordered: true, SizeKind: SizeUnknown},
		func(context.Context) (Source[string], error) {
			return newSliceSource(splitTokens(re, text)), nil
		},
		opts...), nil
}

func splitTokens(re *regexp.Regexp, text string) []string {
	if text == "" {
		return nil
	}
	parts := re.Split(text, -1)
	for len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

// DirEntries creates an ordered pipeline over the paths of the entries in
// the directory at path, sorted by name. The listing is read once, when the
// run starts.
func DirEntries(path string, opts ...Option) (*Pipeline[string], error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.SourceUnavailable(path, err)
	}
	if !info.IsDir() {
		return nil, errors.SourceUnavailable(path, nil).WithDetail("reason", "not a directory")
	}
	return newSource("dir", Traits{Ordered: true},
		func(context.Context) (Source[string], error) {
			entries, err := os.ReadDir(path)
			if err != nil {
				return nil, errors.SourceUnavailable(path, err)
			}
			names := make([]string, len(entries))
			for i, e := range entries {
				names[i] = filepath.Join(path, e.Name())
			}
			return newSliceSource(names), nil
		},
		opts...), nil
}
