package preproc

import "github.com/tambewilliam/lyrical-sub003/pkg/lexer"

// runLyx drives a .lyx file: source text outside `<% ... %>` is turned into
// a running sequence of double-quoted string literals (each one closed and
// reopened around a code block or a `$name`/`${name}` interpolation), every
// literal suffixed by Opts.LyxSuffix so the emitted statement actually does
// something (e.g. write the string out). Code inside `<% ... %>` is parsed
// by the ordinary driver (ActionLyxCodeBlock), so macros, comments and
// token-paste all work there exactly as in a plain included file.
func (p *parser) runLyx() error {
	start := p.buf.Cursor()
	p.out.Append("", p.path, start, p.buf.LineAt(start), "\"")
	runStart := start

	flush := func() {
		end := p.buf.Cursor()
		if end > runStart {
			line := p.buf.LineAt(runStart)
			p.out.Append("", p.path, runStart, line, p.buf.Slice(runStart, end))
		}
	}

	for {
		if p.buf.AtEnd() {
			flush()
			p.closeLyxLiteral()
			return nil
		}

		switch {
		case p.buf.PeekString("<%"):
			flush()
			p.closeLyxLiteral()
			p.buf.Advance()
			p.buf.Advance()

			child := p.sub()
			term, err := child.runT(ActionLyxCodeBlock)
			if err != nil {
				return err
			}
			p.out.Attach(child.out, nil)
			if term != "%>" {
				return p.errorf("unexpected end of file; expecting %%>")
			}
			p.buf.SkipWhitespace(false, false)
			openStart := p.buf.Cursor()
			p.out.Append("", p.path, openStart, p.buf.LineAt(openStart), "\"")
			runStart = p.buf.Cursor()

		case p.buf.Peek() == '$':
			flush()
			p.closeLyxLiteral()
			if err := p.interpolateLyxSymbol(); err != nil {
				return err
			}
			runStart = p.buf.Cursor()

		case p.buf.PeekString("<!"):
			flush()
			if err := p.skipXMLComment(); err != nil {
				return err
			}
			runStart = p.buf.Cursor()

		case p.buf.Peek() == '\n':
			flush()
			p.appendToLastChunk(`\n`)
			p.buf.Advance()
			runStart = p.buf.Cursor()

		case p.buf.Peek() == '"':
			flush()
			p.appendToLastChunk(`\"`)
			p.buf.Advance()
			runStart = p.buf.Cursor()

		case p.buf.Peek() == '\\':
			flush()
			p.appendToLastChunk(`\\`)
			p.buf.Advance()
			runStart = p.buf.Cursor()

		default:
			p.buf.Advance()
		}
	}
}

// appendToLastChunk appends s directly to the most recently created output
// chunk's content, used for the quote/escape characters that are glued onto
// the text chunk straddling them rather than becoming chunks of their own.
func (p *parser) appendToLastChunk(s string) {
	if t := p.out.Tail(); t != nil {
		t.Content += s
	}
}

// closeLyxLiteral closes the string literal currently open at the tail of
// p.out with a closing quote and Opts.LyxSuffix, unless the literal is still
// empty (its content is exactly the unmatched opening quote just written),
// in which case the opening quote is chopped off instead of emitting an
// empty, suffixed statement for no text at all.
func (p *parser) closeLyxLiteral() {
	t := p.out.Tail()
	if t == nil {
		return
	}
	n := len(t.Content)
	if n > 0 && t.Content[n-1] == '"' && (n == 1 || t.Content[n-2] != '\\') {
		t.Content = t.Content[:n-1]
		return
	}
	t.Content += "\""
	if p.sess.Opts.LyxSuffix != "" {
		t.Content += p.sess.Opts.LyxSuffix
	}
}

// interpolateLyxSymbol handles `$name` and `${name}`: the symbol's name is
// appended directly (unquoted) after the literal just closed by
// closeLyxLiteral, followed by its own Opts.LyxSuffix, then the caller
// resumes text mode with a fresh opening quote on the next boundary.
func (p *parser) interpolateLyxSymbol() error {
	p.buf.Advance() // '$'

	var name string
	if p.buf.Peek() == '{' {
		p.buf.Advance()
		p.buf.SkipWhitespace(false, false)
		n, ok := p.buf.ReadIdentifier(lexer.Lower|lexer.Upper, true)
		if !ok {
			return p.errorf("expecting a symbol")
		}
		name = n
		p.buf.SkipWhitespace(false, false)
		if p.buf.Peek() != '}' {
			return p.errorf("expecting '}'")
		}
		p.buf.Advance()
	} else {
		n, ok := p.buf.ReadIdentifier(lexer.Lower|lexer.Upper, true)
		if !ok {
			return p.errorf("expecting a symbol")
		}
		name = n
	}

	p.appendToLastChunk(name)
	if p.sess.Opts.LyxSuffix != "" {
		p.appendToLastChunk(p.sess.Opts.LyxSuffix)
	}
	return nil
}

// skipXMLComment consumes a `<! ... ->` block; its bytes never become part
// of any chunk.
func (p *parser) skipXMLComment() error {
	p.buf.Advance() // '<'
	p.buf.Advance() // '!'
	for {
		if p.buf.AtEnd() {
			return p.errorf("invalid xml comment")
		}
		if p.buf.Peek() == '-' && p.buf.PeekAt(1) == '>' {
			p.buf.Advance()
			p.buf.Advance()
			return nil
		}
		p.buf.Advance()
	}
}
