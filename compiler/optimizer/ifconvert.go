package optimizer

import (
	"reflect"

	"github.com/lutradb/lutra/compiler/ram"
)

// IfConversionTransformer rewrites index scans whose bound tuple is
// never read into existence-check filters: iterating matches of a
// pattern without using the match degenerates to asking whether any
// match exists.  Applied bottom-up so nests of dead scans collapse in
// one run.
type IfConversionTransformer struct{}

func NewIfConversionTransformer() *IfConversionTransformer {
	return &IfConversionTransformer{}
}

func (*IfConversionTransformer) Name() string {
	return "IfConversionTransformer"
}

func (t *IfConversionTransformer) Transform(u *TranslationUnit) bool {
	return t.convertIndexScans(u.Program())
}

func (t *IfConversionTransformer) convertIndexScans(program *ram.Program) bool {
	var changed bool
	ram.WalkT(reflect.ValueOf(program), func(op ram.Operation) ram.Operation {
		if scan, ok := op.(*ram.IndexScan); ok {
			if rewritten := t.rewriteIndexScan(scan); rewritten != nil {
				changed = true
				return rewritten
			}
		}
		return op
	})
	return changed
}

// rewriteIndexScan returns the filter/existence-check form of the scan,
// or nil when the scan's tuple is live somewhere in its subtree.
func (t *IfConversionTransformer) rewriteIndexScan(scan *ram.IndexScan) ram.Operation {
	if ram.UsesTuple(scan, scan.Tuple) {
		return nil
	}
	return ram.NewFilter(ram.NewExistenceCheck(scan.Relation, scan.Pattern), scan.Body)
}
