package chunk

import "testing"

func TestAppendAndConcat(t *testing.T) {
	var l List
	l.Append("source", "a.lyr", 0, 1, "hello ")
	l.Append("source", "a.lyr", 6, 1, "world")
	if got := l.Concat(); got != "hello world" {
		t.Fatalf("got %q", got)
	}
}

func TestAttachAppendsWhenAnchorNil(t *testing.T) {
	var l List
	l.Append("a", "f", 0, 1, "1")
	l.Append("a", "f", 1, 1, "2")

	var sub List
	sub.Append("b", "g", 0, 1, "3")
	sub.Append("b", "g", 1, 1, "4")

	l.Attach(&sub, nil)
	if got := l.Concat(); got != "1234" {
		t.Fatalf("got %q", got)
	}
}

func TestAttachBeforeAnchor(t *testing.T) {
	var l List
	l.Append("a", "f", 0, 1, "1")
	anchor := l.Append("a", "f", 1, 1, "4")

	var sub List
	sub.Append("b", "g", 0, 1, "2")
	sub.Append("b", "g", 1, 1, "3")

	l.Attach(&sub, anchor)
	if got := l.Concat(); got != "1234" {
		t.Fatalf("got %q", got)
	}
}

func TestAttachIntoEmptyList(t *testing.T) {
	var l List
	var sub List
	sub.Append("b", "g", 0, 1, "x")
	l.Attach(&sub, nil)
	if got := l.Concat(); got != "x" {
		t.Fatalf("got %q", got)
	}
}

func TestDuplicateIsIndependent(t *testing.T) {
	var l List
	l.Append("a", "f", 0, 1, "orig")
	dup := l.Duplicate()

	dup.Head().Content = "changed"
	if l.Head().Content != "orig" {
		t.Fatalf("duplicate mutated the original: %q", l.Head().Content)
	}
}

func TestWalkVisitsForwardOrder(t *testing.T) {
	var l List
	l.Append("a", "f", 0, 1, "a")
	l.Append("a", "f", 1, 1, "b")
	l.Append("a", "f", 2, 1, "c")

	var seen []string
	l.Walk(func(c *Chunk) bool {
		seen = append(seen, c.Content)
		return true
	})
	if len(seen) != 3 || seen[0] != "a" || seen[2] != "c" {
		t.Fatalf("seen = %v", seen)
	}
}
