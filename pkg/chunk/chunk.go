// Package chunk implements the preprocessor's output unit: a circular list
// of byte ranges, each carrying provenance (origin, source path, offset and
// line) back to the text that produced it.
package chunk

// Chunk binds a slice of produced text to where it came from. Chunks are
// created on every text boundary the preprocessor crosses: a directive, a
// macro expansion, a line break inside an object-like macro body, or the
// opening/closing of a `<% %>` block.
type Chunk struct {
	// Origin is a human-readable explanation of where Content came from,
	// e.g. "from argument A of macro Y" or "from macro LOOP".
	Origin string

	// Path is the source file path that produced Content.
	Path string

	// Offset is the byte position within Path where Content started.
	Offset int

	// Line is the 1-based line number within Path where Content started.
	Line int

	// Content is the produced text. It may be empty.
	Content string

	// First, when non-nil, links to the head of a sub-list of chunks
	// attached at this point (used for include attachment: the including
	// chunk's First points at the included file's chunk list).
	First *Chunk

	prev, next *Chunk
}

// List is an ownership-linear circular list of chunks. The zero value is an
// empty list. Following the convention used throughout this codebase for
// intrusive circular lists (see pkg/ir), the list holds a pointer to the
// *last-created* chunk, so tail.Next() is the first chunk in forward order.
type List struct {
	tail *Chunk
}

// Empty reports whether the list holds no chunks.
func (l *List) Empty() bool { return l.tail == nil }

// Head returns the first chunk in forward order, or nil if the list is empty.
func (l *List) Head() *Chunk {
	if l.tail == nil {
		return nil
	}
	return l.tail.next
}

// Tail returns the last-created chunk, or nil if the list is empty.
func (l *List) Tail() *Chunk { return l.tail }

// Next returns the chunk following c in the circular list.
func (c *Chunk) Next() *Chunk { return c.next }

// Prev returns the chunk preceding c in the circular list.
func (c *Chunk) Prev() *Chunk { return c.prev }

// Append creates a new chunk with the given fields, links it at the end of
// l, and returns it. O(1).
func (l *List) Append(origin, path string, offset, line int, content string) *Chunk {
	c := &Chunk{Origin: origin, Path: path, Offset: offset, Line: line, Content: content}
	l.linkLast(c)
	return c
}

// AppendChunk links an already-built chunk at the end of l. O(1).
func (l *List) AppendChunk(c *Chunk) {
	c.prev, c.next = nil, nil
	l.linkLast(c)
}

func (l *List) linkLast(c *Chunk) {
	if l.tail == nil {
		c.prev, c.next = c, c
		l.tail = c
		return
	}
	head := l.tail.next
	c.prev = l.tail
	c.next = head
	l.tail.next = c
	head.prev = c
	l.tail = c
}

// Attach splices the chunks of sub (in forward order) into l immediately
// before anchor. If anchor is nil, sub is appended to the end of l. O(1).
//
// This is used both for included files (attached to the current list, or to
// a dedicated module list when the include is a module include) and for
// macro expansion (substituting a macro's body chunks where the macro use
// occurred).
func (l *List) Attach(sub *List, anchor *Chunk) {
	if sub == nil || sub.Empty() {
		return
	}
	subHead := sub.Head()
	subTail := sub.tail

	if l.Empty() {
		l.tail = subTail
		return
	}

	if anchor == nil {
		// Append sub after l's tail.
		head := l.tail.next
		l.tail.next = subHead
		subHead.prev = l.tail
		subTail.next = head
		head.prev = subTail
		l.tail = subTail
		return
	}

	before := anchor.prev
	before.next = subHead
	subHead.prev = before
	subTail.next = anchor
	anchor.prev = subTail
}

// Duplicate returns a deep copy of l with the same Origin/Path/Offset/Line
// fields but entirely new Chunk nodes, so the result can be independently
// relinked (used to substitute a macro body at each use site).
func (l *List) Duplicate() *List {
	out := &List{}
	if l.Empty() {
		return out
	}
	for c := l.Head(); ; c = c.next {
		out.Append(c.Origin, c.Path, c.Offset, c.Line, c.Content)
		if c == l.tail {
			break
		}
	}
	return out
}

// Concat flattens the circular list into the final source string, in
// forward order starting at the head: the concatenation of all chunks'
// Content in forward order equals the final preprocessed source.
func (l *List) Concat() string {
	if l.Empty() {
		return ""
	}
	var out []byte
	for c := l.Head(); ; c = c.next {
		out = append(out, c.Content...)
		if c == l.tail {
			break
		}
	}
	return string(out)
}

// Walk calls fn for every chunk in forward order, stopping early if fn
// returns false.
func (l *List) Walk(fn func(*Chunk) bool) {
	if l.Empty() {
		return
	}
	for c := l.Head(); ; c = c.next {
		if !fn(c) {
			return
		}
		if c == l.tail {
			break
		}
	}
}
