// Package level computes the nesting level of RAM conditions and
// expressions: the minimum tuple-binding depth at which the node can be
// evaluated.  A node independent of all tuple bindings has level -1 and
// may be evaluated above the entire query.
package level

import "github.com/lutradb/lutra/compiler/ram"

// Condition returns the minimum binding depth at which c can be
// evaluated.
func Condition(c ram.Condition) int {
	switch c := c.(type) {
	case *ram.True, *ram.False:
		return -1
	case *ram.Conjunction:
		return max(Condition(c.LHS), Condition(c.RHS))
	case *ram.Negation:
		return Condition(c.Cond)
	case *ram.Constraint:
		return max(Expression(c.LHS), Expression(c.RHS))
	case *ram.ExistenceCheck:
		return pattern(c.Pattern)
	case *ram.ProvenanceExistenceCheck:
		return pattern(c.Pattern)
	case *ram.EmptinessCheck:
		return -1
	}
	ram.Malformed("unknown condition", c)
	return -1
}

// Expression returns the minimum binding depth at which e can be
// evaluated.
func Expression(e ram.Expr) int {
	switch e := e.(type) {
	case *ram.Constant, *ram.UndefValue, *ram.AutoIncrement, *ram.SubroutineArg:
		return -1
	case *ram.TupleElement:
		return e.Tuple
	case *ram.IntrinsicOp:
		return expressions(e.Args)
	case *ram.UserDefinedOp:
		return expressions(e.Args)
	case *ram.PackRecord:
		return expressions(e.Args)
	}
	ram.Malformed("unknown expression", e)
	return -1
}

func expressions(exprs []ram.Expr) int {
	level := -1
	for _, e := range exprs {
		level = max(level, Expression(e))
	}
	return level
}

func pattern(exprs []ram.Expr) int {
	level := -1
	for _, e := range exprs {
		if e != nil {
			level = max(level, Expression(e))
		}
	}
	return level
}
