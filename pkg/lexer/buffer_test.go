package lexer

import "testing"

func TestReadIdentifier(t *testing.T) {
	b := New("t.lyr", "MYMACRO rest")
	name, ok := b.ReadIdentifier(Upper|Digit, false)
	if !ok || name != "MYMACRO" {
		t.Fatalf("got %q, %v", name, ok)
	}
	if b.Peek() != 'r' {
		t.Fatalf("expected trailing whitespace consumed, cursor at %q", b.Peek())
	}
}

func TestReadIdentifierRejectsDigitStart(t *testing.T) {
	b := New("t.lyr", "9BAD")
	_, ok := b.ReadIdentifier(LowerUpperDigit, false)
	if ok {
		t.Fatal("expected digit-initial identifier to be rejected")
	}
}

func TestSkipStringConstantHonorsEscapes(t *testing.T) {
	b := New("t.lyr", `"a\"b" tail`)
	if err := b.SkipStringConstant(true); err != nil {
		t.Fatal(err)
	}
	if b.Peek() != 't' {
		t.Fatalf("expected to stop at tail, got %q", b.Peek())
	}
}

func TestSkipStringConstantUnterminated(t *testing.T) {
	b := New("t.lyr", `"no close`)
	if err := b.SkipStringConstant(false); err == nil {
		t.Fatal("expected unterminated error")
	}
}

func TestReadStringConstantRawVsEscaped(t *testing.T) {
	b := New("t.lyr", `"a\nb"`)
	raw, err := b.ReadStringConstant(InterpretRaw)
	if err != nil {
		t.Fatal(err)
	}
	if raw != `a\nb` {
		t.Fatalf("raw = %q", raw)
	}

	b2 := New("t.lyr", `"a\nb"`)
	interpreted, err := b2.ReadStringConstant(InterpretEscapes)
	if err != nil {
		t.Fatal(err)
	}
	if interpreted != "a\nb" {
		t.Fatalf("interpreted = %q", interpreted)
	}
}

func TestLineAt(t *testing.T) {
	b := New("t.lyr", "a\nb\nc")
	if got := b.LineAt(0); got != 1 {
		t.Fatalf("line at 0 = %d", got)
	}
	if got := b.LineAt(4); got != 3 {
		t.Fatalf("line at 4 = %d", got)
	}
}

func TestSkipWhitespaceStopsAfterNewline(t *testing.T) {
	b := New("t.lyr", "  \n  x")
	b.SkipWhitespace(true, false)
	if b.Peek() != ' ' {
		t.Fatalf("expected to stop right after the newline, got %q", b.Peek())
	}
}

func TestReverseSkip(t *testing.T) {
	b := New("t.lyr", "abc   ")
	b.SetCursor(len("abc   "))
	b.ReverseSkip(func(c byte) bool { return c == ' ' })
	if b.Cursor() != 3 {
		t.Fatalf("cursor = %d", b.Cursor())
	}
}
