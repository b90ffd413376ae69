package emit

import (
	"github.com/tambewilliam/lyrical-sub003/pkg/ir"
	"github.com/tambewilliam/lyrical-sub003/pkg/regalloc"
)

// compareOps groups a comparison's register form, its regular immediate
// form (r2 compared to imm), and its reversed-immediate form (imm compared
// to r2) — used for `>`/`>=` where only a "greater" family exists, so a
// literal first operand is lowered by swapping into the reversed opcode
// rather than by negating the condition.
type compareOps struct {
	reg, regByImm, immByReg ir.Op
	swapReg                 bool // register form compares (r3, r2)
}

var eqOps = compareOps{ir.SEQ, ir.SEQI, ir.SEQI, false}
var neOps = compareOps{ir.SNE, ir.SNEI, ir.SNEI, false}
var ltOps = compareOps{ir.SLT, ir.SLTI, ir.SGTI, false}
var lteOps = compareOps{ir.SLTE, ir.SLTEI, ir.SGTEI, false}
var ltuOps = compareOps{ir.SLTU, ir.SLTUI, ir.SGTUI, false}
var lteuOps = compareOps{ir.SLTEU, ir.SLTEUI, ir.SGTEUI, false}
var gtOps = compareOps{ir.SLT, ir.SGTI, ir.SLTI, true}   // a > b  <=>  b < a
var gteOps = compareOps{ir.SLTE, ir.SGTEI, ir.SLTEI, true}
var gtuOps = compareOps{ir.SLTU, ir.SGTUI, ir.SLTUI, true}
var gteuOps = compareOps{ir.SLTEU, ir.SGTEUI, ir.SLTEUI, true}

// Eq implements `==`: sign-agnostic.
func (b *Builder) Eq(site *CallSite) *TempVar {
	return b.compare(site, eqOps, func(a, c uint64) bool { return a == c })
}

// Ne implements `!=`: sign-agnostic.
func (b *Builder) Ne(site *CallSite) *TempVar {
	return b.compare(site, neOps, func(a, c uint64) bool { return a != c })
}

// Lt implements `<`; signedness of the comparison follows the first
// operand's type.
func (b *Builder) Lt(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compare(site, ltuOps, func(a, c uint64) bool { return a < c })
	}
	return b.compare(site, ltOps, func(a, c uint64) bool { return int64(a) < int64(c) })
}

// Lte implements `<=`.
func (b *Builder) Lte(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compare(site, lteuOps, func(a, c uint64) bool { return a <= c })
	}
	return b.compare(site, lteOps, func(a, c uint64) bool { return int64(a) <= int64(c) })
}

// Gt implements `>`.
func (b *Builder) Gt(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compare(site, gtuOps, func(a, c uint64) bool { return a > c })
	}
	return b.compare(site, gtOps, func(a, c uint64) bool { return int64(a) > int64(c) })
}

// Gte implements `>=`.
func (b *Builder) Gte(site *CallSite) *TempVar {
	if site.Args[0].PushedType.IsUnsigned() {
		return b.compare(site, gteuOps, func(a, c uint64) bool { return a >= c })
	}
	return b.compare(site, gteOps, func(a, c uint64) bool { return int64(a) >= int64(c) })
}

func (b *Builder) compare(site *CallSite, ops compareOps, fold func(a, c uint64) bool) *TempVar {
	lhs, rhs := site.Args[0], site.Args[1]

	if lhs.IsNumber && rhs.IsNumber {
		v := uint64(0)
		if fold(lhs.NumberValue, rhs.NumberValue) {
			v = 1
		}
		return foldedNumber(v, wordType)
	}

	result := NewTempVar(wordType)
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
		l, r := lsrc.ID, rsrc.ID
		if ops.swapReg {
			l, r = r, l
		}
		b.emit(ops.reg, dst.ID, l, r, nil)
		b.Alloc.Unlock(rsrc)
		b.Alloc.Unlock(lsrc)
	}

	b.Alloc.FlushIfVolatile(dst)
	return result
}
