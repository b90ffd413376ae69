package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// IncDec implements `++`/`--`. Pointer types step by Stride(type); every
// other type steps by 1. If the source value's register is shared with
// another pending argument, it must be flushed before being reassigned to
// the result, since that other argument still needs the unmodified value.
// A volatile target is flushed immediately after the write.
func (b *Builder) IncDec(site *CallSite, increment bool, others ...*CallSite) (*TempVar, error) {
	arg := site.Args[0]
	if arg.Readonly {
		return nil, ErrReadonly
	}
	b.propagateFirstOperand(arg)

	step := int64(Stride(arg.PushedType))
	if !increment {
		step = -step
	}

	if arg.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(uint64(int64(arg.NumberValue)+step), arg.PushedType), arg.PushedType), nil
	}

	result := NewTempVar(arg.PushedType)
	result.Volatile = arg.Volatile

	reg := b.Alloc.GetRegForVar(arg.Value, 0, arg.BitSelectSize, regalloc.ForOutput)
	b.Alloc.Lock(reg)
	defer b.Alloc.Unlock(reg)

	if IsSharedTempVar1(site, others...) {
		b.Alloc.FlushIfVolatile(reg)
	}

	op, imm := ir.ADDI, ir.NewLiteral(uint64(step))
	b.emit(op, reg.ID, reg.ID, 0, imm)

	b.Alloc.DiscardOverlappingReg(arg.Var, arg.BitSelectOffset, arg.BitSelectSize, regalloc.DiscardAllOverlapExceptRegForVar)
	b.Alloc.Reassign(reg, result, 0)
	b.Alloc.FlushIfVolatile(reg)

	return result, nil
}
