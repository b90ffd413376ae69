package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// Neg implements unary `-`: folds on a literal operand, otherwise emits
// NEG.
func (b *Builder) Neg(site *CallSite) *TempVar {
	return b.unary(site.Args[0], ir.NEG, func(n uint64) uint64 { return uint64(-int64(n)) })
}

// BitwiseNot implements `~`: folds on a literal operand, otherwise emits
// NOT.
func (b *Builder) BitwiseNot(site *CallSite) *TempVar {
	return b.unary(site.Args[0], ir.NOT, func(n uint64) uint64 { return ^n })
}

func (b *Builder) unary(arg *Arg, op ir.Op, fold func(uint64) uint64) *TempVar {
	if arg.IsNumber {
		return foldedNumber(SignOrZeroExtendIfNativeType(fold(arg.NumberValue), arg.PushedType), arg.PushedType)
	}

	result := NewTempVar(arg.PushedType)

	src := b.Alloc.GetRegForVar(arg.Value, 0, arg.BitSelectSize, regalloc.ForInput)
	b.Alloc.Lock(src)
	defer b.Alloc.Unlock(src)

	dst := b.Alloc.GetRegForVar(result, 0, result.Size(), regalloc.ForOutput)
	b.Alloc.Lock(dst)
	defer b.Alloc.Unlock(dst)

	b.emit(op, dst.ID, src.ID, 0, nil)
	b.Alloc.FlushIfVolatile(dst)

	return result
}
