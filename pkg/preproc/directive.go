package preproc

import (
	"fmt"
	"path/filepath"

	"github.com/tambewilliam/lyrical-sub003/pkg/chunk"
	"github.com/tambewilliam/lyrical-sub003/pkg/lexer"
	"github.com/tambewilliam/lyrical-sub003/pkg/macro"
)

// directiveNames lists every backtick directive literal, in the order
// tryDirective tests them. Since checkForDirective requires the byte right
// after a match not be a lowercase letter, none of these can be mistaken
// for a prefix of another (e.g. "ifdef" never matches inside "ifdefined").
var directiveNames = []string{
	"ifndef", "ifdef", "elifndef", "elifdef", "else", "endif",
	"foreach", "endfor",
	"locdef", "define", "enddef", "undef",
	"include", "abort",
}

// checkForDirective reports whether name matches literally at buf's cursor,
// requiring the following byte not be a lowercase ASCII letter. On a match
// it consumes name and returns true; otherwise it leaves the cursor
// untouched.
func checkForDirective(buf *lexer.Buffer, name string) bool {
	if !buf.PeekString(name) {
		return false
	}
	if next := buf.PeekAt(len(name)); next >= 'a' && next <= 'z' {
		return false
	}
	for i := 0; i < len(name); i++ {
		buf.Advance()
	}
	return true
}

// tryDirective is called with the cursor on the backtick that opens a
// directive. It consumes the directive and either handles it in place
// (hit=false, so the caller's run keeps scanning) or finds that the
// directive is itself a valid terminator of action (hit=true, the
// directive's own name returned as term so the caller can act on it).
func (p *parser) tryDirective(action Action) (name string, hit bool, err error) {
	p.buf.Advance() // '`'
	for _, d := range directiveNames {
		if checkForDirective(p.buf, d) {
			return p.dispatchDirective(d, action)
		}
	}
	return "", false, p.errorf("unrecognized preprocessor directive")
}

func (p *parser) dispatchDirective(name string, action Action) (string, bool, error) {
	switch name {
	case "ifdef":
		return "", false, p.doConditional(false)
	case "ifndef":
		return "", false, p.doConditional(true)

	case "else", "elifdef", "elifndef", "endif":
		if action != ActionConditionalBlock {
			return "", false, p.errorf("`%s` without a matching `ifdef`/`ifndef`", name)
		}
		return name, true, nil

	case "foreach":
		return "", false, p.doForeach()
	case "endfor":
		if action != ActionForeachBlock {
			return "", false, p.errorf("`endfor` without a matching `foreach`")
		}
		return "endfor", true, nil

	case "define":
		return "", false, p.doDefine(false)
	case "locdef":
		return "", false, p.doDefine(true)
	case "enddef":
		if action != ActionFunctionLikeBody {
			return "", false, p.errorf("`enddef` without a matching `define`/`locdef`")
		}
		return "enddef", true, nil

	case "undef":
		return "", false, p.doUndef()
	case "include":
		return "", false, p.doInclude()
	case "abort":
		return "", false, p.errorf("")
	}
	return "", false, p.errorf("unrecognized preprocessor directive %q", name)
}

// readBareIdentifier reads a plain identifier at the cursor without
// consulting the macro table, the form `ifdef`/`ifndef`/`elifdef`/
// `elifndef`/`foreach` all need for the name they test or bind.
func (p *parser) readBareIdentifier(what string) (string, error) {
	p.skipInlineSpace()
	name, ok := p.buf.ReadIdentifier(lexer.LowerUpperDigit, true)
	if !ok {
		return "", p.errorf("expecting %s", what)
	}
	p.skipInlineSpace()
	return name, nil
}

// doConditional handles `ifdef`/`ifndef`: reads the identifier, evaluates
// its definedness (negated for ifndef), and drives the full chain of
// elifdef/elifndef/else/endif arms that follow.
func (p *parser) doConditional(negate bool) error {
	name, err := p.readBareIdentifier("a macro name")
	if err != nil {
		return err
	}
	if name == macro.FILE || name == macro.LINE {
		return p.errorf("reserved macro name")
	}
	m, ok := p.sess.Macros.Lookup(name)
	if ok && m.IsBeingDefined {
		return p.errorf("a macro that is being defined cannot be used")
	}
	cond := ok
	if negate {
		cond = !cond
	}
	return p.runConditionalChain(cond)
}

// runConditionalChain alternates between fully parsing an arm (cond true)
// and skip-scanning it (cond false), using executed to guarantee that only
// the first arm whose condition holds ever contributes output, regardless
// of how many later arms would also evaluate true.
func (p *parser) runConditionalChain(cond bool) error {
	executed := cond
	for {
		var term string
		var err error
		if cond {
			term, err = p.runT(ActionConditionalBlock)
		} else {
			term, err = p.skipConditionalBlock()
		}
		if err != nil {
			return err
		}

		switch term {
		case "endif":
			return nil

		case "else":
			cond = !executed

		case "elifdef", "elifndef":
			name, err := p.readBareIdentifier("a macro name")
			if err != nil {
				return err
			}
			if name == macro.FILE || name == macro.LINE {
				return p.errorf("reserved macro name")
			}
			if executed {
				cond = false
			} else {
				c := p.sess.Macros.IsDefined(name)
				if term == "elifndef" {
					c = !c
				}
				cond = c
			}

		default:
			return p.errorf("unexpected %q while scanning conditional block", term)
		}

		if cond {
			executed = true
		}
	}
}

// skipConditionalBlock scans forward without expanding macros or executing
// directives, tracking only ifdef/ifndef-vs-endif nesting, until it finds
// an else/elifdef/elifndef/endif belonging to the current arm (depth 0).
// The matched keyword is returned unconsumed past its own text; the cursor
// is left right after it, mirroring runT's own terminator convention.
func (p *parser) skipConditionalBlock() (string, error) {
	depth := 0
	for {
		if p.buf.AtEnd() {
			return "", p.errorf("unexpected end of file")
		}
		switch ch := p.buf.Peek(); {
		case ch == '"':
			if err := p.buf.SkipStringConstant(false); err != nil {
				return "", err
			}
		case ch == '\'':
			if err := p.buf.SkipCharConstant(false); err != nil {
				return "", err
			}
		case ch == '#' && p.buf.PeekString("#{"):
			if err := p.skipNestedComment(); err != nil {
				return "", err
			}
		case ch == '#':
			p.skipLineComment()
		case ch == '`':
			p.buf.Advance()
			switch {
			case checkForDirective(p.buf, "ifndef"), checkForDirective(p.buf, "ifdef"):
				depth++
			case checkForDirective(p.buf, "elifndef"):
				if depth == 0 {
					return "elifndef", nil
				}
			case checkForDirective(p.buf, "elifdef"):
				if depth == 0 {
					return "elifdef", nil
				}
			case checkForDirective(p.buf, "else"):
				if depth == 0 {
					return "else", nil
				}
			case checkForDirective(p.buf, "endif"):
				if depth == 0 {
					return "endif", nil
				}
				depth--
			}
		default:
			p.buf.Advance()
		}
	}
}

// doForeach handles `foreach NAME "v1" "v2" ...`: the loop macro NAME gets
// a single body chunk re-pointed to each string parameter in turn, the
// block body is re-parsed once per parameter, and the results concatenated.
func (p *parser) doForeach() error {
	p.skipInlineSpace()
	name, ok := p.buf.ReadIdentifier(lexer.Upper|lexer.Digit, true)
	if !ok {
		return p.errorf("expecting a macro name that does not use lowercase characters")
	}
	if name == macro.FILE || name == macro.LINE {
		return p.errorf("reserved macro name")
	}
	if existing, ok := p.sess.Macros.Lookup(name); ok {
		return p.errorf("macro was already declared at %s", existing.Origin)
	}

	origin := fmt.Sprintf("%s:%d", p.path, p.buf.LineAt(p.buf.Cursor()))
	var params []string
	for {
		p.skipInlineSpace()
		if p.buf.Peek() == '\n' {
			if len(params) == 0 {
				return p.errorf("expecting a double quoted string")
			}
			p.buf.Advance()
			break
		}
		if p.buf.Peek() != '"' {
			return p.errorf("expecting a double quoted string or a newline")
		}
		s, err := p.buf.ReadStringConstant(lexer.InterpretEscapes)
		if err != nil {
			return err
		}
		if s == "" {
			return p.errorf("empty string")
		}
		params = append(params, s)
	}

	m, err := p.sess.Macros.DefineLoop(name, origin)
	if err != nil {
		return err
	}
	m.Body.Append("", "", 0, 0, params[0])

	result := &chunk.List{}
	for i, v := range params {
		bodyStart := p.buf.Cursor()
		m.Body.Head().Content = v
		child := p.sub()
		if err := child.run(ActionForeachBlock); err != nil {
			return err
		}
		result.Attach(child.out, nil)
		if i+1 < len(params) {
			p.buf.SetCursor(bodyStart)
		}
	}

	if !m.WasUsed {
		return p.errorf("unused for-loop macro %q", name)
	}
	if err := p.sess.Macros.RemoveLoop(name); err != nil {
		return err
	}

	p.out.Attach(result, nil)
	return nil
}

// doDefine handles both `define` (global scope) and `locdef` (scope limited
// to the current file and its includes).
func (p *parser) doDefine(isLocal bool) error {
	p.skipInlineSpace()
	nameStart := p.buf.Cursor()
	name, ok := p.buf.ReadIdentifier(lexer.LowerUpperDigit, true)
	if !ok {
		return p.errorf("expecting a valid macro name")
	}
	if name == macro.FILE || name == macro.LINE {
		return p.errorf("reserved macro name")
	}
	origin := fmt.Sprintf("%s:%d", p.path, p.buf.LineAt(nameStart))

	if p.buf.Peek() == '(' {
		return p.doDefineFunctionLike(name, origin, isLocal)
	}

	if name[0] >= 'a' && name[0] <= 'z' {
		return p.errorf("expecting an object-like macro name that does not use lowercase characters")
	}
	m, err := p.sess.Macros.Define(name, macro.ObjectLike, origin, isLocal)
	if err != nil {
		return err
	}
	p.skipInlineSpace()

	m.IsBeingDefined = true
	child := p.sub()
	child.definingMacro = m
	err = child.run(ActionObjectLikeBody)
	m.IsBeingDefined = false
	if err != nil {
		return err
	}
	m.Body = child.out
	return nil
}

func (p *parser) doDefineFunctionLike(name, origin string, isLocal bool) error {
	m, err := p.sess.Macros.Define(name, macro.FunctionLike, origin, isLocal)
	if err != nil {
		return err
	}
	p.buf.Advance() // '('

	for {
		p.skipInlineSpace()
		argStart := p.buf.Cursor()
		argName, ok := p.buf.ReadIdentifier(lexer.Upper|lexer.Digit, true)
		if !ok {
			return p.errorf("expecting a macro argument name that does not use lowercase characters")
		}
		if argName == name {
			return p.errorf("macro argument name has the same name as its owner")
		}
		if argName == macro.FILE || argName == macro.LINE {
			return p.errorf("reserved macro name")
		}
		argOrigin := fmt.Sprintf("%s:%d", p.path, p.buf.LineAt(argStart))
		if _, err := p.sess.Macros.DefineArgument(m, argName, argOrigin); err != nil {
			return err
		}
		p.skipInlineSpace()
		if p.buf.Peek() == ',' {
			p.buf.Advance()
			continue
		}
		break
	}

	if p.buf.Peek() != ')' {
		return p.errorf("expecting ',' or ')'")
	}
	p.buf.Advance()
	p.skipInlineSpace()
	if p.buf.Peek() != '\n' {
		return p.errorf("expecting newline")
	}
	p.buf.Advance()

	if err := p.sess.Macros.PushArguments(m); err != nil {
		return err
	}
	m.IsBeingDefined = true
	child := p.sub()
	child.definingMacro = m
	runErr := child.run(ActionFunctionLikeBody)
	m.IsBeingDefined = false
	m.Body = child.out

	if popErr := p.sess.Macros.PopArguments(m); runErr == nil {
		runErr = popErr
	}
	return runErr
}

// doUndef handles `undef NAME...`: one or more space-separated macro names
// ending at the newline.
func (p *parser) doUndef() error {
	for {
		name, err := p.readBareIdentifier("a macro name")
		if err != nil {
			return err
		}
		m, found := p.sess.Macros.Lookup(name)
		if !found {
			return p.errorf("macro %q was not previously defined", name)
		}
		if m.IsBeingDefined {
			return p.errorf("a macro that is being defined cannot be used")
		}
		if err := p.sess.Macros.Undef(name); err != nil {
			return err
		}
		if p.buf.AtEnd() || p.buf.Peek() == '\n' {
			return nil
		}
	}
}

// moduleOpen and moduleClose are the synthetic chunks wrapping a module's
// .lyh/.lyc contents. The front-end reads a module's leading "{" / trailing
// "}" as the signal to turn export-inference on, then off again; their
// precise interpretation is opaque to the preprocessor, which only places
// them around the module's chunks.
const (
	moduleOpen  = "{"
	moduleClose = "}"
)

// doInclude handles `include "path"`, including the module (.lyh/.lyc pair)
// case: a directory target includes <dir>/<basename>.lyh into the current
// output and attempts <dir>/<basename>.lyc into the session's module list.
func (p *parser) doInclude() error {
	p.skipInlineSpace()
	if p.buf.Peek() != '"' {
		return p.errorf("expecting a double-quoted module/file path")
	}
	pathStart := p.buf.Cursor()
	name, err := p.buf.ReadStringConstant(lexer.InterpretRaw)
	if err != nil {
		return err
	}
	if name == "" {
		p.buf.SetCursor(pathStart)
		return p.errorf("expecting a module/file path")
	}

	currentDir := filepath.Dir(p.path)
	resolved, err := p.sess.Resolver.Resolve(name, currentDir)
	if err != nil {
		return err
	}

	if isDir(resolved) {
		base := filepath.Base(resolved)
		if p.sess.Resolver.ModuleSeen(resolved) {
			return nil
		}
		lyh := filepath.Join(resolved, base+".lyh")
		lyc := filepath.Join(resolved, base+".lyc")

		lyhChunks, err := p.sess.ProcessFile(lyh)
		if err != nil {
			return err
		}
		p.out.Attach(lyhChunks, nil)

		if fileExists(lyc) {
			lycChunks, err := p.sess.ProcessFile(lyc)
			if err != nil {
				return err
			}
			wrapped := &chunk.List{}
			wrapped.Append("module \""+base+"\"", resolved, 0, 0, moduleOpen)
			wrapped.Attach(lycChunks, nil)
			wrapped.Append("module \""+base+"\"", resolved, 0, 0, moduleClose)
			p.sess.Modules.Attach(wrapped, nil)
		}
		return nil
	}

	included, err := p.sess.ProcessFile(resolved)
	if err != nil {
		return err
	}
	p.out.Attach(included, nil)
	return nil
}
