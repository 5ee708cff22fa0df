package optimizer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/lutradb/lutra/compiler/optimizer"
	"github.com/lutradb/lutra/compiler/ram"
)

func TestDefaultPipelineOrder(t *testing.T) {
	var names []string
	for _, tr := range optimizer.NewDefaultPipeline().Transformers() {
		names = append(names, tr.Name())
	}
	assert.Equal(t, []string{
		"HoistConditionsTransformer",
		"MakeIndexTransformer",
		"IfConversionTransformer",
		"ChoiceConversionTransformer",
	}, names)
}

// The S1 skeleton through the whole pipeline: hoisting floats the
// filters, indexing folds the equality, and if-conversion collapses the
// now-dead outer scan into an existence probe.
func TestPipelineEndToEnd(t *testing.T) {
	u := unitOf(singleQuery(
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(ram.NewTrue(),
					ram.NewFilter(eq(te(0, 0), con(5)),
						ram.NewProject("C", te(1, 0))))))))
	require.True(t, optimizer.NewDefaultPipeline().Apply(u))
	want := singleQuery(
		ram.NewFilter(ram.NewTrue(),
			ram.NewFilter(ram.NewExistenceCheck("A", []ram.Expr{con(5), undef(), undef()}),
				ram.NewScan("B", 1,
					ram.NewProject("C", te(1, 0))))))
	assert.True(t, ram.Equal(want, u.Program()))
}

// One pipeline application reaches a fixpoint on the S1 skeleton.
func TestPipelineFixpoint(t *testing.T) {
	u := unitOf(singleQuery(
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(ram.NewTrue(),
					ram.NewFilter(eq(te(0, 0), con(5)),
						ram.NewProject("C", te(1, 0))))))))
	pipeline := optimizer.NewDefaultPipeline()
	require.True(t, pipeline.Apply(u))
	once := ram.CopyProgram(u.Program())
	assert.False(t, pipeline.Apply(u))
	assert.True(t, ram.Equal(once, u.Program()))
}

// Hoist then make-index composes into the S2 result when conversion
// passes are skipped.
func TestHoistThenMakeIndex(t *testing.T) {
	u := unitOf(singleQuery(
		ram.NewScan("A", 0,
			ram.NewScan("B", 1,
				ram.NewFilter(eq(te(0, 0), con(5)),
					ram.NewProject("C", te(1, 0)))))))
	pipeline := optimizer.NewPipeline(
		optimizer.NewHoistConditionsTransformer(),
		optimizer.NewMakeIndexTransformer(),
	)
	require.True(t, pipeline.Apply(u))
	want := singleQuery(
		ram.NewIndexScan("A", 0,
			[]ram.Expr{con(5), undef(), undef()},
			ram.NewScan("B", 1,
				ram.NewProject("C", te(1, 0)))))
	assert.True(t, ram.Equal(want, u.Program()))
}

func TestAnalysisCacheInvalidation(t *testing.T) {
	u := unitOf(singleQuery(
		ram.NewScan("A", 0,
			ram.NewFilter(eq(te(0, 0), con(5)),
				ram.NewProject("C", te(0, 1))))))
	levels := u.ConditionLevels()
	assert.Same(t, levels, u.ConditionLevels())
	// A pass that rewrites drops every cached analysis.
	require.True(t, optimizer.Apply(u, optimizer.NewMakeIndexTransformer()))
	assert.NotSame(t, levels, u.ConditionLevels())
}

func TestAnalysisCacheKeptWithoutChange(t *testing.T) {
	u := unitOf(singleQuery(
		ram.NewScan("A", 0,
			ram.NewProject("C", te(0, 1)))))
	levels := u.ConditionLevels()
	require.False(t, optimizer.Apply(u, optimizer.NewMakeIndexTransformer()))
	assert.Same(t, levels, u.ConditionLevels())
}

func TestTranslationUnitDefaults(t *testing.T) {
	u := optimizer.NewTranslationUnit(singleQuery(ram.NewProject("C", con(1))), nil, nil, nil)
	require.NotNil(t, u.Symbols())
	require.NotNil(t, u.Report())
	require.NotNil(t, u.Logger())
	assert.Zero(t, u.Report().Errors())
}

func TestDebugReporterSnapshots(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	u := optimizer.NewTranslationUnit(
		singleQuery(
			ram.NewScan("A", 0,
				ram.NewFilter(eq(te(0, 0), con(5)),
					ram.NewProject("C", te(0, 1))))),
		nil, nil, zap.New(core))
	reporter := optimizer.NewDebugReporter(optimizer.NewMakeIndexTransformer())
	assert.Equal(t, "debug-reporter(MakeIndexTransformer)", reporter.Name())
	require.True(t, reporter.Transform(u))
	entries := logs.FilterMessage("optimizer pass rewrote program").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	assert.Equal(t, "MakeIndexTransformer", fields["pass"])
	assert.Contains(t, fields["before"], "FOR t0 IN A")
	assert.Contains(t, fields["after"], "SEARCH t0 IN A ON INDEX t0.0 = 5")
}

func TestDebugReporterQuietWithoutChange(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	u := optimizer.NewTranslationUnit(
		singleQuery(ram.NewScan("A", 0, ram.NewProject("C", te(0, 0)))),
		nil, nil, zap.New(core))
	reporter := optimizer.NewDebugReporter(optimizer.NewMakeIndexTransformer())
	require.False(t, reporter.Transform(u))
	assert.Empty(t, logs.FilterMessage("optimizer pass rewrote program").All())
}

func TestPipelineDebugWrapsEveryPass(t *testing.T) {
	pipeline := optimizer.NewDefaultPipeline().Debug()
	for _, tr := range pipeline.Transformers() {
		assert.Contains(t, tr.Name(), "debug-reporter(")
	}
}
