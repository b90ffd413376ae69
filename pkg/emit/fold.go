package emit

import "github.com/tambewilliam/lyrical-sub003/pkg/ctypes"

// foldedNumber returns a compile-time-constant result variable: a TempVar
// that is never backed by a register because its value is fully known
// during code generation. Constant folding for pure-number operands
// avoids emitting any IR at all.
func foldedNumber(value uint64, t ctypes.Type) *TempVar {
	v := NewTempVar(t)
	v.IsNumber = true
	v.NumberValue = value
	return v
}
