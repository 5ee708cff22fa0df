package optimizer

import (
	"reflect"

	"github.com/lutradb/lutra/compiler/ram"
)

// MakeIndexTransformer folds equality constraints into index patterns.
// A scan whose body starts with filters of the form t.k == e, where e
// is a constant or levels strictly below the scan's binding, becomes an
// index scan probing those attributes; the remaining conditions stay
// behind as filters.  Aggregates are rewritten the same way from their
// own condition.
//
// The pass assumes conditions have been hoisted: any filter that can
// constrain a scan's tuple already sits directly inside it.
type MakeIndexTransformer struct {
	exprLevels *ExpressionLevelAnalysis
	constVals  *ConstValueAnalysis
	program    *ram.Program
}

func NewMakeIndexTransformer() *MakeIndexTransformer {
	return &MakeIndexTransformer{}
}

func (*MakeIndexTransformer) Name() string {
	return "MakeIndexTransformer"
}

func (t *MakeIndexTransformer) Transform(u *TranslationUnit) bool {
	t.exprLevels = u.ExpressionLevels()
	t.constVals = u.ConstValues()
	t.program = u.Program()
	return t.makeIndex(u.Program())
}

func (t *MakeIndexTransformer) makeIndex(program *ram.Program) bool {
	var changed bool
	ram.WalkT(reflect.ValueOf(program), func(op ram.Operation) ram.Operation {
		switch op := op.(type) {
		case *ram.Scan:
			if rewritten := t.rewriteScan(op); rewritten != nil {
				changed = true
				return rewritten
			}
		case *ram.Aggregate:
			if rewritten := t.rewriteAggregate(op); rewritten != nil {
				changed = true
				return rewritten
			}
		}
		return op
	})
	return changed
}

// rewriteScan returns the indexed version of the scan or nil if no
// equality constraint on the scanned tuple is available.
func (t *MakeIndexTransformer) rewriteScan(scan *ram.Scan) ram.Operation {
	rel := t.program.Relation(scan.Relation)
	if rel == nil {
		ram.Malformed("scan of undeclared relation", scan)
	}
	var conds []ram.Condition
	body := scan.Body
	for {
		filter, ok := body.(*ram.Filter)
		if !ok {
			break
		}
		conds = append(conds, ram.ConjunctionList(filter.Cond)...)
		body = filter.Body
	}
	if len(conds) == 0 {
		return nil
	}
	pattern, residual, indexable := t.constructPattern(conds, scan.Tuple, rel.Arity)
	if !indexable {
		return nil
	}
	return ram.NewIndexScan(scan.Relation, scan.Tuple, pattern, wrapFilters(body, residual))
}

// rewriteAggregate returns the indexed version of the aggregate or nil.
// Unlike scans, an aggregate carries its matching condition directly,
// so the pattern is drawn from the condition's conjunction list and the
// residual conjunction stays on the indexed aggregate.
func (t *MakeIndexTransformer) rewriteAggregate(agg *ram.Aggregate) ram.Operation {
	rel := t.program.Relation(agg.Relation)
	if rel == nil {
		ram.Malformed("aggregate over undeclared relation", agg)
	}
	conds := ram.ConjunctionList(agg.Cond)
	pattern, residual, indexable := t.constructPattern(conds, agg.Tuple, rel.Arity)
	if !indexable {
		return nil
	}
	return ram.NewIndexAggregate(agg.Func, agg.Relation, agg.Tuple, pattern,
		ram.Conjoin(residual), agg.Expr, agg.Body)
}

// constructPattern classifies conds into index-pattern slots and
// residual conditions.  The first eligible equality targeting a slot
// wins; duplicates and ineligible conditions stay residual in their
// original relative order.
func (t *MakeIndexTransformer) constructPattern(conds []ram.Condition, tuple, arity int) ([]ram.Expr, []ram.Condition, bool) {
	pattern := make([]ram.Expr, arity)
	for i := range pattern {
		pattern[i] = ram.NewUndefValue()
	}
	var residual []ram.Condition
	var indexable bool
	for _, c := range conds {
		e, element, ok := t.indexValue(c, tuple)
		if ok && element >= arity {
			ram.Malformed("attribute access beyond relation arity", c)
		}
		if ok && ram.IsUndef(pattern[element]) {
			pattern[element] = e
			indexable = true
			continue
		}
		residual = append(residual, c)
	}
	return pattern, residual, indexable
}

// indexValue matches conditions of the form t.k == e or e == t.k for
// the given tuple, returning e and the attribute k.  The expression is
// index-eligible only if it is a constant or levels strictly below the
// tuple's binding.
func (t *MakeIndexTransformer) indexValue(c ram.Condition, tuple int) (ram.Expr, int, bool) {
	constraint, ok := c.(*ram.Constraint)
	if !ok || constraint.Op != ram.EQ {
		return nil, 0, false
	}
	if lhs, ok := constraint.LHS.(*ram.TupleElement); ok && lhs.Tuple == tuple {
		if t.indexable(constraint.RHS, tuple) {
			return constraint.RHS, lhs.Element, true
		}
	}
	if rhs, ok := constraint.RHS.(*ram.TupleElement); ok && rhs.Tuple == tuple {
		if t.indexable(constraint.LHS, tuple) {
			return constraint.LHS, rhs.Element, true
		}
	}
	return nil, 0, false
}

func (t *MakeIndexTransformer) indexable(e ram.Expr, tuple int) bool {
	return t.constVals.IsConstant(e) || t.exprLevels.Level(e) < tuple
}
