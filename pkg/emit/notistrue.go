package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ctypes"
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// wordType is the natural unsigned word type `!` and `?` results are
// typed as: code consuming the result never needs to sign-adjust it.
var wordType = ctypes.NewNative(ctypes.U64)

// Not implements `!`: folds on a literal operand, otherwise emits SZ
// (set-if-zero).
func (b *Builder) Not(site *CallSite) *TempVar {
	return b.setOnCondition(site.Args[0], ir.SZ, func(n uint64) uint64 {
		if n == 0 {
			return 1
		}
		return 0
	})
}

// IsTrue implements `?`: folds on a literal operand, otherwise emits SNZ
// (set-if-nonzero).
func (b *Builder) IsTrue(site *CallSite) *TempVar {
	return b.setOnCondition(site.Args[0], ir.SNZ, func(n uint64) uint64 {
		if n != 0 {
			return 1
		}
		return 0
	})
}

func (b *Builder) setOnCondition(arg *Arg, op ir.Op, fold func(uint64) uint64) *TempVar {
	if arg.IsNumber {
		return foldedNumber(fold(arg.NumberValue), wordType)
	}

	result := NewTempVar(wordType)

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
