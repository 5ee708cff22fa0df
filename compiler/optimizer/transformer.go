package optimizer

import (
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/lutradb/lutra/compiler/ram"
	"github.com/lutradb/lutra/compiler/ramfmt"
)

// Transformer is a single rewrite pass over a translation unit.  Every
// legal input yields a legal output, so Transform reports whether it
// changed the program rather than an error; broken tree invariants
// abort via ram.Malformed.
type Transformer interface {
	Name() string
	Transform(*TranslationUnit) bool
}

// Apply runs one transformer on the unit, invalidating the analysis
// cache if the pass rewrote anything, and returns whether it did.
func Apply(u *TranslationUnit, t Transformer) bool {
	passRuns.WithLabelValues(t.Name()).Inc()
	changed := t.Transform(u)
	if changed {
		passRewrites.WithLabelValues(t.Name()).Inc()
		u.InvalidateAnalyses()
	}
	u.Logger().Debug("optimizer pass applied",
		zap.String("pass", t.Name()),
		zap.Bool("changed", changed))
	return changed
}

// Pipeline applies a fixed sequence of transformers once, in order.
type Pipeline struct {
	transformers []Transformer
}

func NewPipeline(transformers ...Transformer) *Pipeline {
	return &Pipeline{transformers: transformers}
}

// NewDefaultPipeline returns the standard pass ordering.  Each pass
// depends on the normal form established by its predecessors: hoisting
// moves equality filters directly below their scans, indexing consumes
// them there, and the conversions expect indexed form.
func NewDefaultPipeline() *Pipeline {
	return NewPipeline(
		NewHoistConditionsTransformer(),
		NewMakeIndexTransformer(),
		NewIfConversionTransformer(),
		NewChoiceConversionTransformer(),
	)
}

// Debug wraps every transformer of the pipeline in a DebugReporter.
func (p *Pipeline) Debug() *Pipeline {
	wrapped := make([]Transformer, len(p.transformers))
	for i, t := range p.transformers {
		wrapped[i] = NewDebugReporter(t)
	}
	return NewPipeline(wrapped...)
}

// Transformers returns the passes in application order.
func (p *Pipeline) Transformers() []Transformer {
	return p.transformers
}

// Apply runs the pipeline on the unit and reports whether any pass
// changed the program.
func (p *Pipeline) Apply(u *TranslationUnit) bool {
	var changed bool
	for _, t := range p.transformers {
		if Apply(u, t) {
			changed = true
		}
	}
	return changed
}

// DebugReporter decorates a transformer with before/after snapshots of
// the program, emitted through the unit's logger when the inner pass
// reports a change.  The inner pass runs synchronously; the snapshots
// are deep copies so later passes cannot disturb them.
type DebugReporter struct {
	inner Transformer
}

func NewDebugReporter(inner Transformer) *DebugReporter {
	return &DebugReporter{inner: inner}
}

func (d *DebugReporter) Name() string {
	return "debug-reporter(" + d.inner.Name() + ")"
}

func (d *DebugReporter) Transform(u *TranslationUnit) bool {
	before := ram.CopyProgram(u.Program())
	changed := d.inner.Transform(u)
	if changed {
		after := ram.CopyProgram(u.Program())
		u.Logger().Debug("optimizer pass rewrote program",
			zap.String("pass", d.inner.Name()),
			zap.String("snapshot", ksuid.New().String()),
			zap.String("before", ramfmt.Program(before)),
			zap.String("after", ramfmt.Program(after)))
	}
	return changed
}
