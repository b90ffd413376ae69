package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// shiftOps groups the three opcode variants one shift direction needs:
// register-by-register, register-by-immediate, and immediate-by-register
// ("reversed", imm is the value being shifted).
type shiftOps struct {
	reg, regByImm, immByReg ir.Op
}

var logicalLeft = shiftOps{ir.SLL, ir.SLLI, ir.SLLI2}
var logicalRight = shiftOps{ir.SRL, ir.SRLI, ir.SRLI2}
var arithmeticRight = shiftOps{ir.SRA, ir.SRAI, ir.SRAI2}

// Shl implements `<<`. Lyrical has no distinct arithmetic left shift: left
// shift is always logical regardless of signedness.
func (b *Builder) Shl(site *CallSite) *TempVar {
	return b.shift(site, logicalLeft, func(a, n uint64) uint64 { return a << n })
}

// Shr implements `>>`. Arithmetic vs logical is chosen by the left
// operand's signedness: unsigned types use logical (SRL family), signed
// use arithmetic (SRA family).
func (b *Builder) Shr(site *CallSite) *TempVar {
	lhs := site.Args[0]
	if lhs.PushedType.IsUnsigned() {
		return b.shift(site, logicalRight, func(a, n uint64) uint64 { return a >> n })
	}
	return b.shift(site, arithmeticRight, func(a, n uint64) uint64 {
		return uint64(int64(a) >> n)
	})
}

func (b *Builder) shift(site *CallSite, ops shiftOps, fold func(a, n uint64) uint64) *TempVar {
	lhs, rhs := site.Args[0], site.Args[1]

	if lhs.IsNumber && rhs.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(fold(lhs.NumberValue, rhs.NumberValue), lhs.PushedType), lhs.PushedType)
	}

	result := NewTempVar(lhs.PushedType)
	dst := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
	b.Alloc.Lock(dst)
	defer b.Alloc.Unlock(dst)

	switch {
	case rhs.IsNumber:
		src := b.Alloc.GetRegForVar(lhs.Value, 0, lhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		b.emit(ops.regByImm, dst.ID, src.ID, 0, ir.NewLiteral(rhs.NumberValue))
		b.Alloc.Unlock(src)
	case lhs.IsNumber:
		src := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		b.emit(ops.immByReg, dst.ID, src.ID, 0, ir.NewLiteral(lhs.NumberValue))
		b.Alloc.Unlock(src)
	default:
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
