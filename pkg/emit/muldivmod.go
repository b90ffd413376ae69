package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// arithOps groups the opcode variants one arithmetic family needs:
// register-by-register, register-by-immediate, and the operand-reversed
// immediate-by-register form (e.g. divi2: imm / r2).
type arithOps struct {
	reg, regByImm, immByReg ir.Op
}

var mulOps = arithOps{ir.MUL, ir.MULI, ir.MULI} // low-word multiplication commutes and does not depend on signedness
var divOps = arithOps{ir.DIV, ir.DIVI, ir.DIVI2}
var modOps = arithOps{ir.MOD, ir.MODI, ir.MODI2}
var divuOps = arithOps{ir.DIVU, ir.DIVUI, ir.DIVUI2}
var moduOps = arithOps{ir.MODU, ir.MODUI, ir.MODUI2}

// Mul implements `*`. The low-word result of multiplication is the same
// bit pattern whether operands are signed or unsigned, so there is a
// single MUL family; only the high-multiplication opcodes (MULH/MULHU,
// not exposed by this operator) distinguish signedness.
func (b *Builder) Mul(site *CallSite) *TempVar {
	return b.arith(site, mulOps, func(a, c uint64) uint64 { return a * c })
}

// Div implements `/`.
func (b *Builder) Div(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.arith(site, divuOps, func(a, c uint64) uint64 {
			if c == 0 {
				return 0
			}
			return a / c
		})
	}
	return b.arith(site, divOps, func(a, c uint64) uint64 {
		if c == 0 {
			return 0
		}
		return uint64(int64(a) / int64(c))
	})
}

// Mod implements `%`.
func (b *Builder) Mod(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.arith(site, moduOps, func(a, c uint64) uint64 {
			if c == 0 {
				return 0
			}
			return a % c
		})
	}
	return b.arith(site, modOps, func(a, c uint64) uint64 {
		if c == 0 {
			return 0
		}
		return uint64(int64(a) % int64(c))
	})
}

func (b *Builder) arith(site *CallSite, ops arithOps, fold func(a, c uint64) uint64) *TempVar {
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
