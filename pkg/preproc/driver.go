package preproc

import (
	"strconv"

	"github.com/tambewilliam/lyrical-sub003/pkg/chunk"
	"github.com/tambewilliam/lyrical-sub003/pkg/lexer"
	"github.com/tambewilliam/lyrical-sub003/pkg/macro"
)

// parser drives one recursive scanning context over a shared buffer. A new
// parser (sharing buf and sess, but with its own out list) is created for
// each macro argument, macro body, foreach iteration and .lyx code block so
// each has an independent output chunk list to return to its caller; an
// included file gets a fresh top-level parser from Session.ProcessSource.
type parser struct {
	sess *Session
	path string
	buf  *lexer.Buffer
	out  *chunk.List

	// definingMacro is non-nil while parsing the body of the macro it
	// names: FILE/LINE are not substituted at definition time, only at the
	// use site the macro is later expanded at.
	definingMacro *macro.Macro

	// parenDepth tracks nested '(' inside ActionMacroArgument so that a ','
	// or ')' belonging to a nested call does not end the argument early.
	parenDepth int
}

// sub creates a child parser sharing buf and sess, with a fresh output list,
// used for macro arguments, macro bodies, foreach iterations and .lyx code
// blocks.
func (p *parser) sub() *parser {
	return &parser{sess: p.sess, path: p.path, buf: p.buf, out: &chunk.List{}, definingMacro: p.definingMacro}
}

// run is the per-character driver described by the termination-contract
// table: it scans until a terminator appropriate to action is reached,
// appending chunks to p.out as it goes. run discards the terminator; runT
// returns it as term: the directive name for a conditional/foreach/enddef
// terminator, ")" or "," for a macro argument, "\n" for an object-like
// body, "%>" for a .lyx code block, and "" at an accepted EOF (valid only
// when err == nil).
func (p *parser) run(action Action) error {
	_, err := p.runT(action)
	return err
}

func (p *parser) runT(action Action) (term string, err error) {
	runStart := p.buf.Cursor()

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
			switch action {
			case ActionBegin, ActionInclude, ActionIncludeLyx, ActionObjectLikeBody:
				return "", nil
			default:
				return "", p.errorf("unexpected end of file")
			}
		}

		ch := p.buf.Peek()

		switch {
		case ch == '"':
			if err := p.buf.SkipStringConstant(false); err != nil {
				return "", err
			}
			continue

		case ch == '\'':
			if err := p.buf.SkipCharConstant(false); err != nil {
				return "", err
			}
			continue

		case ch == '#' && p.buf.PeekString("#{"):
			flush()
			if err := p.skipNestedComment(); err != nil {
				return "", err
			}
			runStart = p.buf.Cursor()
			continue

		case ch == '#':
			flush()
			p.skipLineComment()
			runStart = p.buf.Cursor()
			continue

		case action == ActionLyxCodeBlock && ch == '%' && p.buf.PeekString("%>"):
			flush()
			p.buf.Advance()
			p.buf.Advance()
			return "%>", nil

		case ch == '`':
			flush()
			name, hit, err := p.tryDirective(action)
			if err != nil {
				return "", err
			}
			if hit {
				return name, nil
			}
			runStart = p.buf.Cursor()
			continue

		case ch == '_':
			flush()
			p.buf.Advance() // token-paste: drop the underscore from output
			runStart = p.buf.Cursor()
			continue

		case isIdentStart(ch):
			flush()
			if err := p.handleIdentifier(); err != nil {
				return "", err
			}
			runStart = p.buf.Cursor()
			continue

		case action == ActionMacroArgument && ch == '(':
			p.parenDepth++
			p.buf.Advance()
			continue

		case action == ActionMacroArgument && ch == ')':
			if p.parenDepth == 0 {
				flush()
				p.buf.Advance()
				return ")", nil
			}
			p.parenDepth--
			p.buf.Advance()
			continue

		case action == ActionMacroArgument && ch == ',':
			if p.parenDepth == 0 {
				flush()
				p.buf.Advance()
				return ",", nil
			}
			p.buf.Advance()
			continue

		case ch == '\n' && action == ActionObjectLikeBody:
			flush()
			p.buf.Advance()
			return "\n", nil

		default:
			p.buf.Advance()
			continue
		}
	}
}

func isIdentStart(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

// skipInlineSpace skips space, tab and carriage-return bytes without
// crossing a newline, the whitespace-skip every directive header uses
// between its keyword and its first real argument.
func (p *parser) skipInlineSpace() {
	for {
		switch p.buf.Peek() {
		case ' ', '\t', '\r':
			p.buf.Advance()
		default:
			return
		}
	}
}

// skipNestedComment consumes a `#{ ... }#` block, honoring arbitrary nesting
// depth and treating string/char constants inside as opaque.
func (p *parser) skipNestedComment() error {
	p.buf.Advance() // '#'
	p.buf.Advance() // '{'
	depth := 1
	for depth > 0 {
		if p.buf.AtEnd() {
			return p.errorf("unterminated comment")
		}
		switch {
		case p.buf.Peek() == '"':
			if err := p.buf.SkipStringConstant(false); err != nil {
				return err
			}
		case p.buf.Peek() == '\'':
			if err := p.buf.SkipCharConstant(false); err != nil {
				return err
			}
		case p.buf.PeekString("#{"):
			p.buf.Advance()
			p.buf.Advance()
			depth++
		case p.buf.PeekString("}#"):
			p.buf.Advance()
			p.buf.Advance()
			depth--
		default:
			p.buf.Advance()
		}
	}
	return nil
}

// skipLineComment consumes a `#` line comment through the end of line (or
// EOF, whichever comes first); the newline itself is left unconsumed.
func (p *parser) skipLineComment() {
	p.buf.Advance() // '#'
	for !p.buf.AtEnd() && p.buf.Peek() != '\n' {
		p.buf.Advance()
	}
}

// handleIdentifier scans one identifier at the cursor and either
// substitutes FILE/LINE, expands a macro use, or leaves it as plain output
// text (an undefined name, or a function-like macro referenced without a
// following call).
func (p *parser) handleIdentifier() error {
	start := p.buf.Cursor()
	line := p.buf.LineAt(start)
	name, _ := p.buf.ReadIdentifier(lexer.LowerUpperDigit, true)

	if (name == macro.FILE || name == macro.LINE) && p.definingMacro == nil {
		content := strconv.Quote(p.path)
		if name == macro.LINE {
			content = strconv.Itoa(line)
		}
		p.out.Append("use of "+name, p.path, start, line, content)
		return nil
	}

	m, ok := p.sess.Macros.Lookup(name)
	if !ok {
		p.out.Append("", p.path, start, line, name)
		return nil
	}

	if m.Kind == macro.FunctionLike && !m.IsArgument {
		save := p.buf.Cursor()
		p.skipInlineSpace()
		if p.buf.Peek() != '(' {
			p.buf.SetCursor(save)
			p.out.Append("", p.path, start, line, name)
			return nil
		}
		p.buf.Advance() // '('
		return p.expandFunctionLike(m, start, line)
	}

	m.WasUsed = true
	dup := p.substituteFileLine(m.Body, start, line)
	if m.ChunkLocationSetWhenUsed {
		origin := "use of " + m.Name
		dup.Walk(func(c *chunk.Chunk) bool {
			c.Origin = origin
			c.Path = p.path
			c.Offset = start
			c.Line = line
			return true
		})
	}
	p.out.Attach(dup, nil)
	return nil
}

// substituteFileLine duplicates body, replacing any chunk whose content is
// the bare word FILE or LINE with a fresh chunk for useOffset/useLine,
// unless this expansion is itself happening while defining a macro (body
// chunks produced while defining a macro keep FILE/LINE suppressed, so a
// literal occurrence of those words passed through unevaluated here came
// from inside another macro's own definition and must stay literal).
func (p *parser) substituteFileLine(body *chunk.List, useOffset, useLine int) *chunk.List {
	if p.definingMacro != nil {
		return body.Duplicate()
	}
	result := &chunk.List{}
	body.Walk(func(c *chunk.Chunk) bool {
		switch c.Content {
		case macro.FILE:
			result.Append("use of "+macro.FILE, p.path, useOffset, useLine, strconv.Quote(p.path))
		case macro.LINE:
			result.Append("use of "+macro.LINE, p.path, useOffset, useLine, strconv.Itoa(useLine))
		default:
			result.Append(c.Origin, c.Path, c.Offset, c.Line, c.Content)
		}
		return true
	})
	return result
}

// expandFunctionLike parses the call's arguments, then substitutes them
// into fn's stored body wherever a sentinel chunk (Origin == "" and Content
// equal to one of fn's argument names) marks a parameter reference.
func (p *parser) expandFunctionLike(fn *macro.Macro, useOffset, useLine int) error {
	args := make([]*chunk.List, 0, len(fn.Args))
	for {
		p.skipInlineSpace()
		if p.buf.Peek() == ')' && len(args) == 0 {
			p.buf.Advance()
			break
		}
		child := p.sub()
		term, err := child.runT(ActionMacroArgument)
		if err != nil {
			return err
		}
		args = append(args, child.out)
		if term == ")" {
			break
		}
	}
	if len(args) != len(fn.Args) {
		return p.errorf("macro %q expects %d argument(s), got %d", fn.Name, len(fn.Args), len(args))
	}

	argByName := make(map[string]*chunk.List, len(fn.Args))
	for i, a := range fn.Args {
		a.WasUsed = true
		argByName[a.Name] = args[i]
	}

	result := &chunk.List{}
	fn.Body.Walk(func(c *chunk.Chunk) bool {
		if c.Origin == "" {
			if val, ok := argByName[c.Content]; ok {
				result.Attach(val.Duplicate(), nil)
				return true
			}
			if p.definingMacro == nil {
				switch c.Content {
				case macro.FILE:
					result.Append("use of "+macro.FILE, p.path, useOffset, useLine, strconv.Quote(p.path))
					return true
				case macro.LINE:
					result.Append("use of "+macro.LINE, p.path, useOffset, useLine, strconv.Itoa(useLine))
					return true
				}
			}
		}
		result.Append(c.Origin, c.Path, c.Offset, c.Line, c.Content)
		return true
	})

	p.out.Attach(result, nil)
	return nil
}
