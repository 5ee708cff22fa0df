package optimizer

import (
	"github.com/lutradb/lutra/compiler/ram"
)

// HoistConditionsTransformer moves each filter in a query nest to the
// outermost position at which its condition can still be evaluated:
// directly below the operation binding the deepest tuple the condition
// reads, or above the whole nest for conditions independent of any
// tuple.
//
// The pass assumes filters arrive in split form (a conjunction is
// expressed as consecutive filters, not one filter with a conjunction)
// so that each atomic condition levels independently, and it reinstalls
// filters in split form.  Break operations are never hoisted and act as
// hoisting barriers: a filter inside a break body rises at most to
// directly below the break.
type HoistConditionsTransformer struct {
	levels *ConditionLevelAnalysis
}

func NewHoistConditionsTransformer() *HoistConditionsTransformer {
	return &HoistConditionsTransformer{}
}

func (*HoistConditionsTransformer) Name() string {
	return "HoistConditionsTransformer"
}

func (t *HoistConditionsTransformer) Transform(u *TranslationUnit) bool {
	t.levels = u.ConditionLevels()
	return t.hoistConditions(u.Program())
}

// hoistConditions rewrites every query of the program and reports
// whether any filter actually relocated.
func (t *HoistConditionsTransformer) hoistConditions(program *ram.Program) bool {
	var changed bool
	ram.Queries(program, func(q *ram.Query) {
		before := ram.CopyOperation(q.Body)
		body, floated := t.hoist(q.Body)
		for _, c := range floated {
			if t.levels.Level(c) > -1 {
				ram.Malformed("hoisted condition references a tuple not bound on its path", c)
			}
		}
		q.Body = wrapFilters(body, floated)
		if !ram.Equal(before, q.Body) {
			changed = true
		}
	})
	return changed
}

// hoist strips the filters of the subtree rooted at op, reinstalling
// each one directly below the binder of its condition level.  Filters
// whose level lies outside the subtree float out through the second
// return value, in pre-hoist syntactic order.
func (t *HoistConditionsTransformer) hoist(op ram.Operation) (ram.Operation, []ram.Condition) {
	switch op := op.(type) {
	case *ram.Filter:
		body, floated := t.hoist(op.Body)
		return body, append([]ram.Condition{op.Cond}, floated...)
	case *ram.Break:
		body, floated := t.hoist(op.Body)
		op.Body = wrapFilters(body, floated)
		return op, nil
	case *ram.Scan:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.IndexScan:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.Choice:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.IndexChoice:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.Aggregate:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.IndexAggregate:
		var floated []ram.Condition
		op.Body, floated = t.sink(op.Body, op.Tuple)
		return op, floated
	case *ram.Project, *ram.SubroutineReturn:
		return op, nil
	}
	ram.Malformed("unknown operation", op)
	return op, nil
}

// sink hoists within the body of a binder introducing the given tuple
// level, keeps the floated filters whose level equals that binding, and
// passes the rest upward.
func (t *HoistConditionsTransformer) sink(body ram.Operation, tuple int) (ram.Operation, []ram.Condition) {
	body, floated := t.hoist(body)
	var keep, float []ram.Condition
	for _, c := range floated {
		switch l := t.levels.Level(c); {
		case l == tuple:
			keep = append(keep, c)
		case l < tuple:
			float = append(float, c)
		default:
			ram.Malformed("condition level exceeds its binding depth", c)
		}
	}
	return wrapFilters(body, keep), float
}

// wrapFilters nests body inside one filter per condition, first
// condition outermost, preserving split form.
func wrapFilters(body ram.Operation, conds []ram.Condition) ram.Operation {
	for i := len(conds) - 1; i >= 0; i-- {
		body = ram.NewFilter(conds[i], body)
	}
	return body
}
