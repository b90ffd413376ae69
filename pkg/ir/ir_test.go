package ir

import "testing"

func TestInstructionListAppendOrder(t *testing.T) {
	var l InstructionList
	a := l.Append(&Instruction{Op: LI})
	b := l.Append(&Instruction{Op: ADD})
	c := l.Append(&Instruction{Op: ST32})

	var seen []*Instruction
	l.Walk(func(i *Instruction) bool {
		seen = append(seen, i)
		return true
	})
	if len(seen) != 3 || seen[0] != a || seen[1] != b || seen[2] != c {
		t.Fatalf("seen = %v", seen)
	}
	if l.Tail() != c {
		t.Fatalf("tail should be last-created instruction")
	}
	if l.Head() != a {
		t.Fatalf("head should be first-created instruction")
	}
}

func TestInstructionListInsertBefore(t *testing.T) {
	var l InstructionList
	first := l.Append(&Instruction{Op: LI})
	third := l.Append(&Instruction{Op: ST32})
	second := &Instruction{Op: ADD}
	l.InsertBefore(third, second)

	var ops []Op
	l.Walk(func(i *Instruction) bool {
		ops = append(ops, i.Op)
		return true
	})
	if len(ops) != 3 || ops[0] != LI || ops[1] != ADD || ops[2] != ST32 {
		t.Fatalf("ops = %v", ops)
	}
	_ = first
}

func TestJumpRangeCoversBranchOpcodes(t *testing.T) {
	if !JEQ.IsBranch() || !JPOP.IsBranch() {
		t.Fatal("range endpoints must themselves be branch opcodes")
	}
	if ADD.IsBranch() {
		t.Fatal("ADD is not a branch opcode")
	}
	if !J.IsBranch() || !JI.IsBranch() || !JR.IsBranch() {
		t.Fatal("unconditional jumps are within the branch range")
	}
}

func TestIsLinkCoversJLAndStackFamilies(t *testing.T) {
	for _, op := range []Op{JL, JLI, JLR, JPUSH, JPUSHI, JPUSHR, JPOP} {
		if !op.IsLink() {
			t.Fatalf("%v should report IsLink", op)
		}
	}
	if J.IsLink() {
		t.Fatal("plain J should not report IsLink")
	}
}

func TestImmValAppendAndTerms(t *testing.T) {
	v := NewLiteral(4).Append(NewOffsetToFunction(&Function{}))
	terms := v.Terms()
	if len(terms) != 2 {
		t.Fatalf("got %d terms", len(terms))
	}
	if terms[0].Kind != ImmValue || terms[0].N != 4 {
		t.Fatalf("first term = %+v", terms[0])
	}
	if terms[1].Kind != ImmOffsetToFunction {
		t.Fatalf("second term = %+v", terms[1])
	}
}

func TestCompileFlagHas(t *testing.T) {
	f := FlagComment | FlagDebugInfo
	if !f.Has(FlagComment) || !f.Has(FlagDebugInfo) {
		t.Fatal("Has should report set bits")
	}
	if f.Has(FlagAllVarVolatile) {
		t.Fatal("Has should not report unset bits")
	}
}

func TestFunctionTreeChildrenInOrder(t *testing.T) {
	root := &Function{}
	a := &Function{}
	b := &Function{}
	c := &Function{}
	AddChild(root, a)
	AddChild(root, b)
	AddChild(root, c)

	got := root.ChildrenInOrder()
	if len(got) != 3 || got[0] != a || got[1] != b || got[2] != c {
		t.Fatalf("got %v", got)
	}
	if c.Parent != root {
		t.Fatal("AddChild should set Parent")
	}
}

func TestFunctionListAppend(t *testing.T) {
	var l FunctionList
	root := l.Append(&Function{})
	child := l.Append(&Function{})

	var seen []*Function
	l.Walk(func(f *Function) bool {
		seen = append(seen, f)
		return true
	})
	if len(seen) != 2 || seen[0] != root || seen[1] != child {
		t.Fatalf("seen = %v", seen)
	}
}
