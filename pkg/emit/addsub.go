package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// Add implements `+`. If the first operand's type is a pointer or
// function pointer, the second operand is multiplied by Stride(first)
// before adding; the second operand may never itself be a pointer.
func (b *Builder) Add(site *CallSite) *TempVar {
	return b.plusMinus(site, true)
}

// Sub implements `-`. A literal second operand is lowered as a negative
// ADDI; a literal first operand (with a non-literal second) is lowered as
// NEG followed by an ADDI of the first operand's value.
func (b *Builder) Sub(site *CallSite) *TempVar {
	return b.plusMinus(site, false)
}

func (b *Builder) plusMinus(site *CallSite, isAdd bool) *TempVar {
	lhs, rhs := site.Args[0], site.Args[1]

	scale := uint64(1)
	if lhs.PushedType.IsPointer() {
		scale = uint64(Stride(lhs.PushedType))
	}

	if lhs.IsNumber && rhs.IsNumber {
		scaled := rhs.NumberValue * scale
		var result uint64
		if isAdd {
			result = lhs.NumberValue + scaled
		} else {
			result = lhs.NumberValue - scaled
		}
		return foldedNumber(SignOrZeroExtendIfNativeType(result, lhs.PushedType), lhs.PushedType)
	}

	result := NewTempVar(lhs.PushedType)
	dst := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
	b.Alloc.Lock(dst)
	defer b.Alloc.Unlock(dst)

	addOp, subOp := ir.ADD, ir.SUB
	addImmOp := ir.ADDI

	switch {
	case rhs.IsNumber:
		scaled := rhs.NumberValue * scale
		imm := scaled
		op := addImmOp
		if !isAdd {
			imm = uint64(-int64(scaled))
		}
		src := b.Alloc.GetRegForVar(lhs.Value, 0, lhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		b.emit(op, dst.ID, src.ID, 0, ir.NewLiteral(imm))
		b.Alloc.Unlock(src)

	case lhs.IsNumber && !isAdd:
		// `-` with a literal first operand: NEG the second operand, then
		// add the first operand's literal value.
		src := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		b.emit(ir.NEG, dst.ID, src.ID, 0, nil)
		b.Alloc.Unlock(src)
		if scale != 1 {
			b.emit(ir.MULI, dst.ID, dst.ID, 0, ir.NewLiteral(scale))
		}
		b.emit(addImmOp, dst.ID, dst.ID, 0, ir.NewLiteral(lhs.NumberValue))

	case lhs.IsNumber && isAdd:
		src := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(src)
		in := src.ID
		if scale != 1 {
			b.emit(ir.MULI, dst.ID, src.ID, 0, ir.NewLiteral(scale))
			in = dst.ID
		}
		b.emit(addImmOp, dst.ID, in, 0, ir.NewLiteral(lhs.NumberValue))
		b.Alloc.Unlock(src)

	default:
		lsrc := b.Alloc.GetRegForVar(lhs.Value, 0, lhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(lsrc)
		rsrc := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
		b.Alloc.Lock(rsrc)

		r2 := rsrc.ID
		if scale != 1 {
			scaledReg := b.Alloc.GetRegForVar(NewTempVar(lhs.PushedType), 0, 8, regalloc.ForOutput)
			b.Alloc.Lock(scaledReg)
			b.emit(ir.MULI, scaledReg.ID, rsrc.ID, 0, ir.NewLiteral(scale))
			r2 = scaledReg.ID
			b.Alloc.Unlock(scaledReg)
		}

		op := addOp
		if !isAdd {
			op = subOp
		}
		b.emit(op, dst.ID, lsrc.ID, r2, nil)
		b.Alloc.Unlock(rsrc)
		b.Alloc.Unlock(lsrc)
	}

	b.Alloc.FlushIfVolatile(dst)
	return result
}
