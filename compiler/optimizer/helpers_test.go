package optimizer_test

import (
	"reflect"
	"sort"

	"github.com/lutradb/lutra/compiler/optimizer"
	"github.com/lutradb/lutra/compiler/optimizer/level"
	"github.com/lutradb/lutra/compiler/ram"
	"github.com/lutradb/lutra/compiler/ramfmt"
)

// relations returns the standard test schema: ternary relations A, B, R
// and unary C, S.
func relations() []*ram.Relation {
	return []*ram.Relation{
		ram.NewRelation("A", "x", "y", "z"),
		ram.NewRelation("B", "x", "y", "z"),
		ram.NewRelation("R", "x", "y", "z"),
		ram.NewRelation("C", "x"),
		ram.NewRelation("S", "x"),
	}
}

func singleQuery(body ram.Operation) *ram.Program {
	return ram.NewProgram(relations(), ram.NewQuery(body))
}

func unitOf(p *ram.Program) *optimizer.TranslationUnit {
	return optimizer.NewTranslationUnit(p, nil, nil, nil)
}

func eq(lhs, rhs ram.Expr) *ram.Constraint {
	return ram.NewConstraint(ram.EQ, lhs, rhs)
}

func te(tuple, element int) *ram.TupleElement {
	return ram.NewTupleElement(tuple, element)
}

func con(v ram.Domain) *ram.Constant {
	return ram.NewConstant(v)
}

func undef() *ram.UndefValue {
	return ram.NewUndefValue()
}

// filterConds returns the canonical rendering of every filter condition
// in the program, sorted, so relocations compare equal and alterations
// do not.
func filterConds(p *ram.Program) []string {
	var conds []string
	ram.WalkT(reflect.ValueOf(p), func(f *ram.Filter) *ram.Filter {
		conds = append(conds, ramfmt.Condition(f.Cond))
		return f
	})
	sort.Strings(conds)
	return conds
}

// levelSound checks that every filter in the program sits at a depth
// no shallower than its condition's level: walking each query nest,
// the deepest binding introduced above a filter must be at least the
// condition's level.
func levelSound(p *ram.Program) bool {
	sound := true
	ram.Queries(p, func(q *ram.Query) {
		var walk func(op ram.Operation, depth int)
		walk = func(op ram.Operation, depth int) {
			switch op := op.(type) {
			case *ram.Filter:
				if level.Condition(op.Cond) > depth {
					sound = false
				}
				walk(op.Body, depth)
			case *ram.Break:
				walk(op.Body, depth)
			case *ram.Scan:
				walk(op.Body, op.Tuple)
			case *ram.IndexScan:
				walk(op.Body, op.Tuple)
			case *ram.Choice:
				walk(op.Body, op.Tuple)
			case *ram.IndexChoice:
				walk(op.Body, op.Tuple)
			case *ram.Aggregate:
				walk(op.Body, op.Tuple)
			case *ram.IndexAggregate:
				walk(op.Body, op.Tuple)
			}
		}
		walk(q.Body, -1)
	})
	return sound
}
