package emit

import (
	"errors"

	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// ErrReadonly is returned when an operator's left operand is readonly.
var ErrReadonly = errors.New("left operand is readonly")

// Assign implements `=`. The left argument is returned as the result. When
// both operands are numbers this is a pure constant fold producing a new
// number-valued result; a literal right operand is loaded with LI into a
// register owned by the result; otherwise the right operand's register is
// reassigned onto the left operand's memory rather than copied, except
// when the left operand is volatile, since a volatile write may never be
// cached in a register at all.
func (b *Builder) Assign(site *CallSite) (*TempVar, error) {
	lhs, rhs := site.Args[0], site.Args[1]
	if lhs.Readonly {
		return nil, ErrReadonly
	}
	b.propagateFirstOperand(lhs)

	if lhs.IsNumber && rhs.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(rhs.NumberValue, lhs.PushedType), lhs.PushedType), nil
	}

	result := NewTempVar(lhs.PushedType)
	result.Volatile = lhs.Volatile

	if rhs.IsNumber {
		if !lhs.Volatile {
			b.Alloc.DiscardOverlappingReg(lhs.Var, lhs.BitSelectOffset, lhs.BitSelectSize, regalloc.DiscardAllOverlap)
		}
		wreg := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
		b.Alloc.Lock(wreg)
		b.emit(ir.LI, wreg.ID, 0, 0, ir.NewLiteral(SignOrZeroExtendIfNativeType(rhs.NumberValue, lhs.PushedType)))
		b.Alloc.Unlock(wreg)
		b.Alloc.FlushIfVolatile(wreg)
		return result, nil
	}

	rreg := b.Alloc.GetRegForVar(rhs.Value, 0, rhs.BitSelectSize, regalloc.ForInput)
	b.Alloc.Lock(rreg)
	defer b.Alloc.Unlock(rreg)

	if !lhs.Volatile {
		b.Alloc.DiscardOverlappingReg(lhs.Var, lhs.BitSelectOffset, lhs.BitSelectSize, regalloc.DiscardAllOverlap)
		b.Alloc.Reassign(rreg, result, 0)
	} else {
		wreg := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
		b.Alloc.Lock(wreg)
		b.emit(ir.CPY, wreg.ID, rreg.ID, 0, nil)
		b.Alloc.Unlock(wreg)
		b.Alloc.FlushIfVolatile(wreg)
	}

	return result, nil
}
