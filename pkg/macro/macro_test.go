package macro

import "testing"

func TestDefineAndLookup(t *testing.T) {
	tbl := New()
	m, err := tbl.Define("FOO", ObjectLike, "a.lyr:1", false)
	if err != nil {
		t.Fatal(err)
	}
	m.Body.Append("", "a.lyr", 0, 1, "1")

	got, ok := tbl.Lookup("FOO")
	if !ok || got != m {
		t.Fatalf("lookup failed: %v %v", got, ok)
	}
}

func TestDefineRejectsReservedNames(t *testing.T) {
	tbl := New()
	if _, err := tbl.Define(FILE, ObjectLike, "a.lyr:1", false); err == nil {
		t.Fatal("expected ReservedNameError")
	}
	if _, err := tbl.Define(LINE, ObjectLike, "a.lyr:1", false); err == nil {
		t.Fatal("expected ReservedNameError")
	}
}

func TestDefineRejectsRedefinition(t *testing.T) {
	tbl := New()
	if _, err := tbl.Define("FOO", ObjectLike, "a.lyr:1", false); err != nil {
		t.Fatal(err)
	}
	_, err := tbl.Define("FOO", ObjectLike, "a.lyr:2", false)
	if err == nil {
		t.Fatal("expected RedefinitionError")
	}
	redef, ok := err.(*RedefinitionError)
	if !ok || redef.OriginalSite != "a.lyr:1" {
		t.Fatalf("got %#v", err)
	}
}

func TestUndefProtectsPredeclaredAndLoopAndArgs(t *testing.T) {
	tbl := New()
	pre, err := tbl.DefinePredeclared("SYSTEM", "linux")
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.Undef(pre.Name); err == nil {
		t.Fatal("expected ProtectedError for predeclared macro")
	}

	loop, err := tbl.DefineLoop("LOOPVAR", "a.lyr:3")
	if err != nil {
		t.Fatal(err)
	}
	if err := tbl.Undef(loop.Name); err == nil {
		t.Fatal("expected ProtectedError for loop macro")
	}

	fn, err := tbl.Define("CALL", FunctionLike, "a.lyr:4", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.DefineArgument(fn, "X", "a.lyr:4"); err != nil {
		t.Fatal(err)
	}
	if err := tbl.Undef("X"); err == nil {
		t.Fatal("expected ProtectedError for argument macro")
	}
}

func TestDefineArgumentRejectsShadowingOwnerName(t *testing.T) {
	tbl := New()
	fn, err := tbl.Define("CALL", FunctionLike, "a.lyr:1", false)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := tbl.DefineArgument(fn, "CALL", "a.lyr:1"); err == nil {
		t.Fatal("expected error for parameter shadowing owner macro name")
	}
}

func TestPushPopArgumentsReportsUnused(t *testing.T) {
	tbl := New()
	fn, err := tbl.Define("CALL", FunctionLike, "a.lyr:1", false)
	if err != nil {
		t.Fatal(err)
	}
	x, err := tbl.DefineArgument(fn, "X", "a.lyr:1")
	if err != nil {
		t.Fatal(err)
	}
	tbl.remove(x) // undo the implicit push from DefineArgument's Define call

	if err := tbl.PushArguments(fn); err != nil {
		t.Fatal(err)
	}
	if err := tbl.PopArguments(fn); err == nil {
		t.Fatal("expected UnusedArgumentError")
	}
	if _, ok := tbl.Lookup("X"); ok {
		t.Fatal("argument macro should have been removed from scope")
	}
}

func TestPushArgumentsMarkingUsedSuppressesError(t *testing.T) {
	tbl := New()
	fn, err := tbl.Define("CALL", FunctionLike, "a.lyr:1", false)
	if err != nil {
		t.Fatal(err)
	}
	x, err := tbl.DefineArgument(fn, "X", "a.lyr:1")
	if err != nil {
		t.Fatal(err)
	}
	tbl.remove(x)

	if err := tbl.PushArguments(fn); err != nil {
		t.Fatal(err)
	}
	x.WasUsed = true
	if err := tbl.PopArguments(fn); err != nil {
		t.Fatal(err)
	}
}

func TestPopLocalsSinceRemovesOnlyLocalMacros(t *testing.T) {
	tbl := New()
	if _, err := tbl.Define("GLOBAL", ObjectLike, "a.lyr:1", false); err != nil {
		t.Fatal(err)
	}
	mark := tbl.Mark()
	if _, err := tbl.Define("LOCAL", ObjectLike, "b.lyr:1", true); err != nil {
		t.Fatal(err)
	}

	tbl.PopLocalsSince(mark)

	if _, ok := tbl.Lookup("GLOBAL"); !ok {
		t.Fatal("global macro should survive PopLocalsSince")
	}
	if _, ok := tbl.Lookup("LOCAL"); ok {
		t.Fatal("local macro should be removed by PopLocalsSince")
	}
}

// TestPopLocalsSinceScopesPerFrameNotGlobally reproduces the file-A/file-B
// scenario from the original preprocessor's savedmacros discipline: a local
// macro defined by an outer frame, before an inner frame's mark was taken,
// must survive the inner frame's exit. Scoping is per include-frame, not a
// single global sweep over every IsLocal macro in the table.
func TestPopLocalsSinceScopesPerFrameNotGlobally(t *testing.T) {
	tbl := New()

	// File A's frame begins; A defines a local macro, then "includes" B.
	outerMark := tbl.Mark()
	if _, err := tbl.Define("ALOCAL", ObjectLike, "a.lyr:1", true); err != nil {
		t.Fatal(err)
	}

	// File B's frame begins after ALOCAL already exists.
	innerMark := tbl.Mark()
	if _, err := tbl.Define("BLOCAL", ObjectLike, "b.lyr:1", true); err != nil {
		t.Fatal(err)
	}

	// B's frame exits: only BLOCAL (inserted since innerMark) is removed.
	tbl.PopLocalsSince(innerMark)

	if _, ok := tbl.Lookup("ALOCAL"); !ok {
		t.Fatal("ALOCAL, defined by the outer frame, must survive the inner frame's exit")
	}
	if _, ok := tbl.Lookup("BLOCAL"); ok {
		t.Fatal("BLOCAL should have been removed on the inner frame's exit")
	}

	// A's frame exits: ALOCAL is now in range and is removed.
	tbl.PopLocalsSince(outerMark)

	if _, ok := tbl.Lookup("ALOCAL"); ok {
		t.Fatal("ALOCAL should be removed once the outer frame itself exits")
	}
}

func TestSnapshotReflectsInsertionOrder(t *testing.T) {
	tbl := New()
	tbl.Define("A", ObjectLike, "a.lyr:1", false)
	tbl.Define("B", ObjectLike, "a.lyr:2", false)
	got := tbl.Snapshot()
	if len(got) != 2 || got[0] != "A" || got[1] != "B" {
		t.Fatalf("got %v", got)
	}
}
