package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// AddAssign implements `+=`.
func (b *Builder) AddAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	scale := uint64(1)
	if site.Args[0].PushedType.IsPointer() {
		scale = uint64(Stride(site.Args[0].PushedType))
	}
	return b.compoundAssign(site, ir.ADD, ir.ADDI, scale,
		func(a, c uint64) uint64 { return a + c*scale }, others...)
}

// SubAssign implements `-=`.
func (b *Builder) SubAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	scale := uint64(1)
	if site.Args[0].PushedType.IsPointer() {
		scale = uint64(Stride(site.Args[0].PushedType))
	}
	return b.compoundAssign(site, ir.SUB, ir.ADDI, scale,
		func(a, c uint64) uint64 { return a - c*scale }, others...)
}

// MulAssign implements `*=`.
func (b *Builder) MulAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	return b.compoundAssign(site, ir.MUL, ir.MULI, 1,
		func(a, c uint64) uint64 { return a * c }, others...)
}

// DivAssign implements `/=`.
func (b *Builder) DivAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compoundAssign(site, ir.DIVU, ir.DIVUI, 1, func(a, c uint64) uint64 {
			if c == 0 {
				return 0
			}
			return a / c
		}, others...)
	}
	return b.compoundAssign(site, ir.DIV, ir.DIVI, 1, func(a, c uint64) uint64 {
		if c == 0 {
			return 0
		}
		return uint64(int64(a) / int64(c))
	}, others...)
}

// ModAssign implements `%=`.
func (b *Builder) ModAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compoundAssign(site, ir.MODU, ir.MODUI, 1, func(a, c uint64) uint64 {
			if c == 0 {
				return 0
			}
			return a % c
		}, others...)
	}
	return b.compoundAssign(site, ir.MOD, ir.MODI, 1, func(a, c uint64) uint64 {
		if c == 0 {
			return 0
		}
		return uint64(int64(a) % int64(c))
	}, others...)
}

// ShlAssign implements `<<=`.
func (b *Builder) ShlAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	return b.compoundAssign(site, ir.SLL, ir.SLLI, 1,
		func(a, n uint64) uint64 { return a << n }, others...)
}

// ShrAssign implements `>>=`.
func (b *Builder) ShrAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compoundAssign(site, ir.SRL, ir.SRLI, 1,
			func(a, n uint64) uint64 { return a >> n }, others...)
	}
	return b.compoundAssign(site, ir.SRA, ir.SRAI, 1, func(a, n uint64) uint64 {
		return uint64(int64(a) >> n)
	}, others...)
}

// AndAssign implements `&=`.
func (b *Builder) AndAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	return b.compoundAssign(site, ir.AND, ir.ANDI, 1,
		func(a, c uint64) uint64 { return a & c }, others...)
}

// OrAssign implements `|=`.
func (b *Builder) OrAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	return b.compoundAssign(site, ir.OR, ir.ORI, 1,
		func(a, c uint64) uint64 { return a | c }, others...)
}

// XorAssign implements `^=`.
func (b *Builder) XorAssign(site *CallSite, others ...*CallSite) (*TempVar, error) {
	return b.compoundAssign(site, ir.XOR, ir.XORI, 1,
		func(a, c uint64) uint64 { return a ^ c }, others...)
}

// compoundAssign holds the shape every compound assignment shares: fold when
// both operands are numbers, otherwise compute the new value into the left
// operand's register in place, then apply the same register-reassignment,
// shared-tempvar flush, discard-overlap, and volatile-flush rules as ++/--.
// scale is 1 except for +=/-=, where it is Stride(lhs's type) for a pointer
// left operand.
func (b *Builder) compoundAssign(site *CallSite, regOp, regByImmOp ir.Op, scale uint64, fold func(a, c uint64) uint64, others ...*CallSite) (*TempVar, error) {
	lhs, rhs := site.Args[0], site.Args[1]
	if lhs.Readonly {
		return nil, ErrReadonly
	}
	b.propagateFirstOperand(lhs)

	if lhs.IsNumber && rhs.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(fold(lhs.NumberValue, rhs.NumberValue), lhs.PushedType), lhs.PushedType), nil
	}

	result := NewTempVar(lhs.PushedType)
	result.Volatile = lhs.Volatile

	reg := b.Alloc.GetRegForVar(lhs.Value, 0, lhs.BitSelectSize, regalloc.ForOutput)
	b.Alloc.Lock(reg)
	defer b.Alloc.Unlock(reg)

	if IsSharedTempVar1(site, others...) {
		b.Alloc.FlushIfVolatile(reg)
	}

	if rhs.IsNumber {
		imm := rhs.NumberValue * scale
		if regOp == ir.SUB {
			imm = uint64(-int64(imm))
		}
		b.emit(regByImmOp, reg.ID, reg.ID, 0, ir.NewLiteral(imm))
	} else {
		rsrc := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(rsrc)

		r3 := rsrc.ID
		if scale != 1 {
			scaledReg := b.Alloc.GetRegForVar(NewTempVar(lhs.PushedType), 0, 8, regalloc.ForOutput)
			b.Alloc.Lock(scaledReg)
			b.emit(ir.MULI, scaledReg.ID, rsrc.ID, 0, ir.NewLiteral(scale))
			r3 = scaledReg.ID
			b.Alloc.Unlock(scaledReg)
		}

		b.emit(regOp, reg.ID, reg.ID, r3, nil)
		b.Alloc.Unlock(rsrc)
	}

	b.Alloc.DiscardOverlappingReg(lhs.Var, lhs.BitSelectOffset, lhs.BitSelectSize, regalloc.DiscardAllOverlapExceptRegForVar)
	b.Alloc.Reassign(reg, result, 0)
	b.Alloc.FlushIfVolatile(reg)

	return result, nil
}
