// Package macro implements the preprocessor's macro table: an
// insertion-ordered, name-keyed registry of macro definitions, with
// push/pop scoping for include boundaries, function-like argument binding,
// and foreach loop-iteration macros.
package macro

import (
	"fmt"

	"github.com/tambewilliam/lyrical-sub003/pkg/chunk"
)

// Kind tags the variant of a macro.
type Kind int

const (
	ObjectLike Kind = iota
	FunctionLike
	LoopIteration
	Predeclared
)

func (k Kind) String() string {
	switch k {
	case ObjectLike:
		return "object-like"
	case FunctionLike:
		return "function-like"
	case LoopIteration:
		return "loop-iteration"
	case Predeclared:
		return "predeclared"
	default:
		return "unknown"
	}
}

// Macro is a named text-substitution rule, in one of four variants:
// object-like, function-like, loop-iteration, or predeclared.
type Macro struct {
	Name   string
	Kind   Kind
	Origin string // "path:line" or "creation of predeclared macros"
	Body   *chunk.List

	// Args holds the ordered list of argument macros, only non-empty for
	// FunctionLike macros.
	Args []*Macro

	IsBeingDefined bool // set while this macro's own body is being parsed
	IsLocal        bool // defined with `locdef`, removed on include exit

	// CannotBeUndefined is set for predeclared, loop, and argument macros:
	// attempting `undef` on one of these is an error.
	CannotBeUndefined bool

	// ChunkLocationSetWhenUsed is set for predeclared and loop macros,
	// whose single body chunk borrows its origin/path/offset/line from the
	// use site rather than from where the macro was defined.
	ChunkLocationSetWhenUsed bool

	// WasUsed is required true on scope exit for loop and argument macros.
	WasUsed bool

	// IsArgument marks a macro created by DefineArgument: a parameter
	// placeholder that always substitutes as plain object-like text (never
	// requires a parenthesized call), even though it shares the
	// FunctionLike Kind tag with its owning macro for scoping purposes.
	IsArgument bool
}

// Reserved names that can never be defined as a macro.
const (
	FILE = "FILE"
	LINE = "LINE"
)

// RedefinitionError reports that name is already defined, quoting the
// original definition site.
type RedefinitionError struct {
	Name         string
	OriginalSite string
}

func (e *RedefinitionError) Error() string {
	return fmt.Sprintf("macro %q already defined at %s", e.Name, e.OriginalSite)
}

// ProtectedError reports an attempt to undef a macro that cannot be
// undefined: predeclared, loop, or argument macros.
type ProtectedError struct {
	Name string
	Kind Kind
}

func (e *ProtectedError) Error() string {
	return fmt.Sprintf("macro %q (%s) cannot be undefined", e.Name, e.Kind)
}

// ReservedNameError reports an attempt to define FILE or LINE.
type ReservedNameError struct{ Name string }

func (e *ReservedNameError) Error() string {
	return fmt.Sprintf("%q is a reserved macro name", e.Name)
}

// UnusedArgumentError reports a function-like macro whose body never
// references one of its arguments.
type UnusedArgumentError struct {
	MacroName string
	ArgName   string
	Site      string
}

func (e *UnusedArgumentError) Error() string {
	return fmt.Sprintf("unused macro argument %q of %q, declared at %s", e.ArgName, e.MacroName, e.Site)
}

// UnusedLoopError reports a foreach block whose loop macro was never
// referenced inside its body.
type UnusedLoopError struct {
	MacroName string
	Site      string
}

func (e *UnusedLoopError) Error() string {
	return fmt.Sprintf("unused for-loop macro %q, declared at %s", e.MacroName, e.Site)
}

// Table is the preprocessor's single global macro registry. All scoping is
// encoded by push/pop discipline over this one list, not by hash-map
// namespaces per scope.
type Table struct {
	order []*Macro
	byName map[string]*Macro
}

// New creates an empty macro table.
func New() *Table {
	return &Table{byName: make(map[string]*Macro)}
}

// Lookup finds a macro by name. Lookup is conceptually linear over the
// insertion-ordered list (macro sets are small in practice); here it is
// backed by a map for speed without changing the uniqueness semantics.
func (t *Table) Lookup(name string) (*Macro, bool) {
	m, ok := t.byName[name]
	return m, ok
}

// IsDefined reports whether name currently has a macro bound.
func (t *Table) IsDefined(name string) bool {
	_, ok := t.byName[name]
	return ok
}

// Define registers a new macro. It fails with *RedefinitionError if a macro
// with that name already exists anywhere in scope, and with
// *ReservedNameError if name is FILE or LINE.
func (t *Table) Define(name string, kind Kind, origin string, isLocal bool) (*Macro, error) {
	if name == FILE || name == LINE {
		return nil, &ReservedNameError{Name: name}
	}
	if existing, ok := t.byName[name]; ok {
		return nil, &RedefinitionError{Name: name, OriginalSite: existing.Origin}
	}
	m := &Macro{Name: name, Kind: kind, Origin: origin, IsLocal: isLocal, Body: &chunk.List{}}
	t.insert(m)
	return m, nil
}

// DefinePredeclared registers a predeclared macro whose single body chunk
// borrows its location from each use site.
func (t *Table) DefinePredeclared(name, content string) (*Macro, error) {
	m, err := t.Define(name, Predeclared, "creation of predeclared macros", false)
	if err != nil {
		return nil, err
	}
	m.CannotBeUndefined = true
	m.ChunkLocationSetWhenUsed = true
	m.Body.Append("", "", 0, 0, content)
	return m, nil
}

// DefineArgument registers an argument macro of a function-like macro. Its
// body is always a single chunk whose content equals the argument's own
// name, serving as the substitution sentinel recognized during expansion.
func (t *Table) DefineArgument(owner *Macro, argName, origin string) (*Macro, error) {
	if argName == owner.Name {
		return nil, fmt.Errorf("parameter %q cannot shadow macro %q", argName, owner.Name)
	}
	m, err := t.Define(argName, FunctionLike, origin, false)
	if err != nil {
		return nil, err
	}
	m.CannotBeUndefined = true
	m.IsArgument = true
	m.Body.Append("", "", 0, 0, argName)
	owner.Args = append(owner.Args, m)
	return m, nil
}

// DefineLoop registers the loop-iteration macro created by a `foreach`
// block. Its single body chunk content is repointed per iteration by the
// caller.
func (t *Table) DefineLoop(name, origin string) (*Macro, error) {
	m, err := t.Define(name, LoopIteration, origin, false)
	if err != nil {
		return nil, err
	}
	m.CannotBeUndefined = true
	m.ChunkLocationSetWhenUsed = true
	return m, nil
}

func (t *Table) insert(m *Macro) {
	t.order = append(t.order, m)
	t.byName[m.Name] = m
}

// RemoveLoop removes the loop-iteration macro created by DefineLoop once its
// `foreach` block is done, bypassing the CannotBeUndefined protection that
// stops ordinary source text from `undef`-ing it mid-loop.
func (t *Table) RemoveLoop(name string) error {
	m, ok := t.byName[name]
	if !ok || m.Kind != LoopIteration {
		return fmt.Errorf("macro %q is not a for-loop macro", name)
	}
	t.remove(m)
	return nil
}

// Undef removes a macro, failing with *ProtectedError for predeclared,
// loop, or argument macros.
func (t *Table) Undef(name string) error {
	m, ok := t.byName[name]
	if !ok {
		return nil // undef of an unknown name is a silent no-op
	}
	if m.CannotBeUndefined {
		return &ProtectedError{Name: name, Kind: m.Kind}
	}
	t.remove(m)
	return nil
}

func (t *Table) remove(m *Macro) {
	delete(t.byName, m.Name)
	for i, o := range t.order {
		if o == m {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

// PushArguments links the argument macros of a function-like macro on top
// of the table for the duration of its body expansion.
func (t *Table) PushArguments(fn *Macro) error {
	for _, a := range fn.Args {
		if existing, ok := t.byName[a.Name]; ok && existing != a {
			return &RedefinitionError{Name: a.Name, OriginalSite: existing.Origin}
		}
		a.WasUsed = false
		t.insert(a)
	}
	return nil
}

// PopArguments removes the argument macros pushed by PushArguments. If any
// argument's WasUsed flag is false, it returns *UnusedArgumentError
// pointing at the macro's own declaration site; all arguments are still
// removed regardless.
func (t *Table) PopArguments(fn *Macro) error {
	var firstErr error
	for _, a := range fn.Args {
		if !a.WasUsed && firstErr == nil {
			firstErr = &UnusedArgumentError{MacroName: fn.Name, ArgName: a.Name, Site: a.Origin}
		}
		t.remove(a)
	}
	return firstErr
}

// Mark returns a baseline marking the table's current contents, to be paired
// with a later PopLocalsSince(mark) call when the caller's scope (an
// included file, in practice) exits. Scoping is per include-frame: a macro
// defined by an enclosing file, before mark was taken, must not be touched
// by the inner frame's exit.
func (t *Table) Mark() int {
	return len(t.order)
}

// PopLocalsSince removes every local macro (defined with `locdef`) inserted
// since mark, as happens on include-file exit. Only macros defined within
// the exiting frame itself are candidates: a local macro defined by an
// enclosing file before mark survives until that enclosing frame's own exit,
// matching the original's `while (m != savedmacros)` loop, which walks only
// the macros linked in after the include's entry point. It does not inspect
// WasUsed; local macros have no such requirement.
func (t *Table) PopLocalsSince(mark int) {
	if mark > len(t.order) {
		mark = len(t.order)
	}
	remaining := append([]*Macro{}, t.order[:mark]...)
	for _, m := range t.order[mark:] {
		if m.IsLocal {
			delete(t.byName, m.Name)
			continue
		}
		remaining = append(remaining, m)
	}
	t.order = remaining
}

// Snapshot returns the names of all macros currently defined, in insertion
// order. Used by callers that need to record which macros existed before
// entering a scope (e.g. an included file) so they can later diff.
func (t *Table) Snapshot() []string {
	names := make([]string, len(t.order))
	for i, m := range t.order {
		names[i] = m.Name
	}
	return names
}
