// Package preproc implements the chunk-based preprocessor: a recursive,
// action-driven scanner that turns raw source bytes plus a macro table into
// a chunk.List ready for front-end parsing. It owns directive dispatch,
// conditional-block and foreach-block handling, include resolution
// (including module `.lyh`/`.lyc` pairs), and the `.lyx` templating mode.
package preproc

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/tambewilliam/lyrical-sub003/pkg/chunk"
	"github.com/tambewilliam/lyrical-sub003/pkg/lexer"
	"github.com/tambewilliam/lyrical-sub003/pkg/macro"
)

// Options configures a Session.
type Options struct {
	// StandardPaths are directories searched, in order, for an include name
	// that is neither absolute nor relative.
	StandardPaths []string

	// InstallModule is invoked once, with the include name that could not be
	// found among StandardPaths, when a standard-path search fails. If it
	// returns true, the standard-path search is retried from the start.
	InstallModule func(name string) (bool, error)

	// LyxSuffix is appended after every string literal .lyx mode emits for a
	// run of plain text, e.g. ".stdsckout()".
	LyxSuffix string
}

// Session holds the state shared across an entire preprocessing run: the
// macro table (global, not per-file) and the include resolver (which tracks
// the include stack and module dedup across the whole run).
type Session struct {
	Macros   *macro.Table
	Resolver *Resolver
	Opts     Options

	// Modules accumulates the chunks contributed by `.lyc` module files, to
	// be prepended before all other output once preprocessing completes.
	Modules *chunk.List
}

// NewSession creates a Session with a fresh macro table and resolver.
func NewSession(opts Options) *Session {
	return &Session{
		Macros:   macro.New(),
		Resolver: NewResolver(opts.StandardPaths, opts.InstallModule),
		Opts:     opts,
		Modules:  &chunk.List{},
	}
}

// Close releases resources held by the session. Nothing in this
// implementation outlives the session's own memory (no open file handles
// are kept across a ProcessFile call), so this is presently a no-op; it
// exists as the single explicit teardown point a caller is expected to
// defer, mirroring the include-frame stack discipline the rest of the
// package already follows.
func (s *Session) Close() error { return nil }

// ProcessFile reads path and preprocesses it, returning the resulting
// chunk list (module chunks not yet prepended — call Finish for that).
func (s *Session) ProcessFile(path string) (*chunk.List, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	src, err := os.ReadFile(abs)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", abs, err)
	}
	return s.ProcessSource(abs, string(src))
}

// ProcessSource preprocesses src as if read from path, without touching the
// filesystem for the top-level file (used for `.lyh`/`.lyc` recursion and by
// tests).
func (s *Session) ProcessSource(path, src string) (*chunk.List, error) {
	if err := s.Resolver.Push(path); err != nil {
		return nil, err
	}
	defer s.Resolver.Pop()
	localsMark := s.Macros.Mark()
	defer func() { s.Macros.PopLocalsSince(localsMark) }()

	isLyx := filepath.Ext(path) == ".lyx"

	p := &parser{sess: s, path: path, buf: lexer.New(path, src)}
	out := &chunk.List{}
	p.out = out

	if isLyx {
		if err := p.runLyx(); err != nil {
			return nil, err
		}
		return out, nil
	}
	if err := p.run(ActionInclude); err != nil {
		return nil, err
	}
	return out, nil
}

// Finish returns the final chunk list for a completed top-level run: the
// module-file chunks first, followed by out.
func (s *Session) Finish(out *chunk.List) *chunk.List {
	final := &chunk.List{}
	final.Attach(s.Modules, nil)
	final.Attach(out, nil)
	return final
}

// Error reports a preprocessing failure with file/line context and an
// include backtrace.
type Error struct {
	Path      string
	Line      int
	Message   string
	Backtrace []string
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	for _, b := range e.Backtrace {
		msg += "\n\tincluded from " + b
	}
	return msg
}

func (p *parser) errorf(format string, args ...interface{}) error {
	return &Error{
		Path:      p.path,
		Line:      p.buf.LineAt(p.buf.Cursor()),
		Message:   fmt.Sprintf(format, args...),
		Backtrace: append([]string{}, p.sess.Resolver.stack...),
	}
}
