package interp

import (
	"fmt"

	"github.com/lutradb/lutra/compiler/ram"
)

func (q *query) cond(c ram.Condition) (bool, error) {
	switch c := c.(type) {
	case *ram.True:
		return true, nil
	case *ram.False:
		return false, nil
	case *ram.Conjunction:
		ok, err := q.cond(c.LHS)
		if err != nil || !ok {
			return false, err
		}
		return q.cond(c.RHS)
	case *ram.Negation:
		ok, err := q.cond(c.Cond)
		return !ok, err
	case *ram.Constraint:
		lhs, err := q.expr(c.LHS)
		if err != nil {
			return false, err
		}
		rhs, err := q.expr(c.RHS)
		if err != nil {
			return false, err
		}
		return compare(c.Op, lhs, rhs)
	case *ram.ExistenceCheck:
		return q.exists(c.Relation, c.Pattern)
	case *ram.ProvenanceExistenceCheck:
		// Provenance annotations are invisible at this layer; probe
		// the payload attributes like a plain existence check.
		return q.exists(c.Relation, c.Pattern)
	case *ram.EmptinessCheck:
		n, err := q.store.Size(c.Relation)
		return n == 0, err
	}
	return false, fmt.Errorf("interp: unknown condition %T", c)
}

func (q *query) exists(name string, pattern []ram.Expr) (bool, error) {
	vals := make([]ram.Domain, len(pattern))
	bound := make([]bool, len(pattern))
	for i, e := range pattern {
		if e == nil || ram.IsUndef(e) {
			continue
		}
		v, err := q.expr(e)
		if err != nil {
			return false, err
		}
		vals[i] = v
		bound[i] = true
	}
	return q.store.Contains(name, vals, bound)
}

func compare(op string, lhs, rhs ram.Domain) (bool, error) {
	switch op {
	case ram.EQ:
		return lhs == rhs, nil
	case ram.NE:
		return lhs != rhs, nil
	case ram.LT:
		return lhs < rhs, nil
	case ram.LE:
		return lhs <= rhs, nil
	case ram.GT:
		return lhs > rhs, nil
	case ram.GE:
		return lhs >= rhs, nil
	}
	return false, fmt.Errorf("interp: unknown comparison %q", op)
}

func (q *query) expr(e ram.Expr) (ram.Domain, error) {
	switch e := e.(type) {
	case *ram.Constant:
		return e.Value, nil
	case *ram.TupleElement:
		if e.Tuple >= len(q.env) || q.env[e.Tuple] == nil {
			return 0, fmt.Errorf("interp: tuple t%d is not bound", e.Tuple)
		}
		t := q.env[e.Tuple]
		if e.Element >= len(t) {
			return 0, fmt.Errorf("interp: tuple t%d has no attribute %d", e.Tuple, e.Element)
		}
		return t[e.Element], nil
	case *ram.AutoIncrement:
		v := q.counter
		q.counter++
		return v, nil
	case *ram.SubroutineArg:
		if e.Index >= len(q.args) {
			return 0, fmt.Errorf("interp: subroutine argument %d is not bound", e.Index)
		}
		return q.args[e.Index], nil
	case *ram.IntrinsicOp:
		args, err := q.exprs(e.Args)
		if err != nil {
			return 0, err
		}
		return intrinsic(q, e.Op, args)
	case *ram.UserDefinedOp:
		f, ok := q.interp.functors[e.Name]
		if !ok {
			return 0, fmt.Errorf("interp: unknown functor @%s", e.Name)
		}
		args, err := q.exprs(e.Args)
		if err != nil {
			return 0, err
		}
		return f(args)
	case *ram.PackRecord:
		args, err := q.exprs(e.Args)
		if err != nil {
			return 0, err
		}
		return q.records.pack(args), nil
	case *ram.UndefValue:
		return 0, fmt.Errorf("interp: undefined value evaluated outside a pattern")
	}
	return 0, fmt.Errorf("interp: unknown expression %T", e)
}

func (q *query) exprs(list []ram.Expr) ([]ram.Domain, error) {
	vals := make([]ram.Domain, len(list))
	for i, e := range list {
		v, err := q.expr(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func intrinsic(q *query, op string, args []ram.Domain) (ram.Domain, error) {
	binary := func() (ram.Domain, ram.Domain, error) {
		if len(args) != 2 {
			return 0, 0, fmt.Errorf("interp: intrinsic %q wants 2 arguments, got %d", op, len(args))
		}
		return args[0], args[1], nil
	}
	switch op {
	case "+":
		a, b, err := binary()
		return a + b, err
	case "-":
		if len(args) == 1 {
			return -args[0], nil
		}
		a, b, err := binary()
		return a - b, err
	case "*":
		a, b, err := binary()
		return a * b, err
	case "/":
		a, b, err := binary()
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return 0, fmt.Errorf("interp: division by zero")
		}
		return a / b, nil
	case "%":
		a, b, err := binary()
		if err != nil {
			return 0, err
		}
		if b == 0 {
			return 0, fmt.Errorf("interp: modulus by zero")
		}
		return a % b, nil
	case "band":
		a, b, err := binary()
		return a & b, err
	case "bor":
		a, b, err := binary()
		return a | b, err
	case "bxor":
		a, b, err := binary()
		return a ^ b, err
	case "lnot":
		if len(args) != 1 {
			return 0, fmt.Errorf("interp: intrinsic lnot wants 1 argument, got %d", len(args))
		}
		if args[0] == 0 {
			return 1, nil
		}
		return 0, nil
	case "min":
		if len(args) == 0 {
			return 0, fmt.Errorf("interp: intrinsic min wants at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = min(v, a)
		}
		return v, nil
	case "max":
		if len(args) == 0 {
			return 0, fmt.Errorf("interp: intrinsic max wants at least 1 argument")
		}
		v := args[0]
		for _, a := range args[1:] {
			v = max(v, a)
		}
		return v, nil
	case "cat":
		a, b, err := binary()
		if err != nil {
			return 0, err
		}
		lhs, ok := q.symbols.Resolve(a)
		if !ok {
			return 0, fmt.Errorf("interp: cat of unknown symbol %d", a)
		}
		rhs, ok := q.symbols.Resolve(b)
		if !ok {
			return 0, fmt.Errorf("interp: cat of unknown symbol %d", b)
		}
		return q.symbols.Intern(lhs + rhs), nil
	}
	return 0, fmt.Errorf("interp: unknown intrinsic %q", op)
}
