package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// commutativeOps groups a bitwise opcode's register and immediate forms;
// and/or/xor all commute, so no reversed-immediate form is needed.
type commutativeOps struct {
	reg, regByImm ir.Op
}

var andOps = commutativeOps{ir.AND, ir.ANDI}
var orOps = commutativeOps{ir.OR, ir.ORI}
var xorOps = commutativeOps{ir.XOR, ir.XORI}

// And implements `&`.
func (b *Builder) And(site *CallSite) *TempVar {
	return b.commutative(site, andOps, func(a, c uint64) uint64 { return a & c })
}

// Or implements `|`.
func (b *Builder) Or(site *CallSite) *TempVar {
	return b.commutative(site, orOps, func(a, c uint64) uint64 { return a | c })
}

// Xor implements `^`.
func (b *Builder) Xor(site *CallSite) *TempVar {
	return b.commutative(site, xorOps, func(a, c uint64) uint64 { return a ^ c })
}

func (b *Builder) commutative(site *CallSite, ops commutativeOps, fold func(a, c uint64) uint64) *TempVar {
	lhs, rhs := site.Args[0], site.Args[1]

	if lhs.IsNumber && rhs.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(fold(lhs.NumberValue, rhs.NumberValue), lhs.PushedType), lhs.PushedType)
	}

	result := NewTempVar(lhs.PushedType)
	dst := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
	b.Alloc.Lock(dst)
	defer b.Alloc.Unlock(dst)

	var litArg, varArg *Arg
	switch {
	case rhs.IsNumber:
		litArg, varArg = rhs, lhs
	case lhs.IsNumber:
		litArg, varArg = lhs, rhs
	}

	if litArg != nil {
		src := b.Alloc.GetRegForVar(varArg.Value, 0, varArg.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		b.emit(ops.regByImm, dst.ID, src.ID, 0, ir.NewLiteral(litArg.NumberValue))
		b.Alloc.Unlock(src)
	} else {
		lsrc := b.Alloc.GetRegForVar(lhs.Value, 0, lhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(lsrc)
		rsrc := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(rsrc)
		b.emit(ops.reg, dst.ID, lsrc.ID, rsrc.ID, nil)
		b.Alloc.Unlock(rsrc)
		b.Alloc.Unlock(lsrc)
	}

	b.Alloc.FlushIfVolatile(dst)
	return result
}
