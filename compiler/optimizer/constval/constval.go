// Package constval decides whether a RAM expression is a constant:
// value-only, independent of tuple bindings, counters, and subroutine
// arguments.
package constval

import "github.com/lutradb/lutra/compiler/ram"

// IsConstant reports whether e evaluates to the same value on every
// iteration of its query.  User-defined operators are conservatively
// treated as non-constant since they may carry effects.
func IsConstant(e ram.Expr) bool {
	switch e := e.(type) {
	case *ram.Constant:
		return true
	case *ram.IntrinsicOp:
		for _, arg := range e.Args {
			if !IsConstant(arg) {
				return false
			}
		}
		return true
	case *ram.PackRecord:
		for _, arg := range e.Args {
			if !IsConstant(arg) {
				return false
			}
		}
		return true
	}
	return false
}
