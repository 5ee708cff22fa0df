package optimizer

import (
	"reflect"

	"github.com/lutradb/lutra/compiler/ram"
)

// ChoiceConversionTransformer rewrites scans that only ask "find some
// tuple satisfying the filter" into choice operations the evaluator can
// short-circuit after the first match.  The filter must constrain the
// scanned tuple itself (a condition levelling elsewhere would already
// have been hoisted out) and the body must be free of breaks, whose
// loop-control effect does not survive the rewrite.
type ChoiceConversionTransformer struct {
	levels *ConditionLevelAnalysis
}

func NewChoiceConversionTransformer() *ChoiceConversionTransformer {
	return &ChoiceConversionTransformer{}
}

func (*ChoiceConversionTransformer) Name() string {
	return "ChoiceConversionTransformer"
}

func (t *ChoiceConversionTransformer) Transform(u *TranslationUnit) bool {
	t.levels = u.ConditionLevels()
	return t.convertScans(u.Program())
}

func (t *ChoiceConversionTransformer) convertScans(program *ram.Program) bool {
	var changed bool
	ram.WalkT(reflect.ValueOf(program), func(op ram.Operation) ram.Operation {
		switch op := op.(type) {
		case *ram.Scan:
			if rewritten := t.rewriteScan(op); rewritten != nil {
				changed = true
				return rewritten
			}
		case *ram.IndexScan:
			if rewritten := t.rewriteIndexScan(op); rewritten != nil {
				changed = true
				return rewritten
			}
		}
		return op
	})
	return changed
}

func (t *ChoiceConversionTransformer) rewriteScan(scan *ram.Scan) ram.Operation {
	filter, ok := scan.Body.(*ram.Filter)
	if !ok || t.levels.Level(filter.Cond) != scan.Tuple || ram.HasBreak(filter.Body) {
		return nil
	}
	return ram.NewChoice(scan.Relation, scan.Tuple, filter.Cond, filter.Body)
}

func (t *ChoiceConversionTransformer) rewriteIndexScan(scan *ram.IndexScan) ram.Operation {
	filter, ok := scan.Body.(*ram.Filter)
	if !ok || t.levels.Level(filter.Cond) != scan.Tuple || ram.HasBreak(filter.Body) {
		return nil
	}
	return ram.NewIndexChoice(scan.Relation, scan.Tuple, scan.Pattern, filter.Cond, filter.Body)
}
