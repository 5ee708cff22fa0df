package optimizer

import (
	"go.uber.org/zap"

	"github.com/lutradb/lutra/compiler/ram"
	"github.com/lutradb/lutra/compiler/report"
)

// Analysis is a cached result of inspecting the current program.
// Analyses are pure functions of the program and are identified by a
// stable name; the translation unit drops every cached analysis when a
// pass mutates the program.
type Analysis interface {
	Name() string
}

// TranslationUnit owns a RAM program through the optimization pipeline:
// the tree itself, the symbol table that accompanies it, a diagnostics
// sink, and the lazily populated analysis cache.
type TranslationUnit struct {
	program  *ram.Program
	symbols  *ram.SymbolTable
	report   *report.Report
	logger   *zap.Logger
	analyses map[string]Analysis
}

// NewTranslationUnit wraps a lowered program.  A nil symbol table,
// report, or logger is replaced with an empty one.
func NewTranslationUnit(program *ram.Program, symbols *ram.SymbolTable, rep *report.Report, logger *zap.Logger) *TranslationUnit {
	if symbols == nil {
		symbols = ram.NewSymbolTable()
	}
	if rep == nil {
		rep = report.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TranslationUnit{
		program:  program,
		symbols:  symbols,
		report:   rep,
		logger:   logger,
		analyses: make(map[string]Analysis),
	}
}

func (u *TranslationUnit) Program() *ram.Program     { return u.program }
func (u *TranslationUnit) Symbols() *ram.SymbolTable { return u.symbols }
func (u *TranslationUnit) Report() *report.Report    { return u.report }
func (u *TranslationUnit) Logger() *zap.Logger       { return u.logger }

// InvalidateAnalyses drops every cached analysis.  Clearing the whole
// cache on any mutation is the simplest policy that is sound.
func (u *TranslationUnit) InvalidateAnalyses() {
	clear(u.analyses)
}

func (u *TranslationUnit) analysis(name string, create func() Analysis) Analysis {
	if a, ok := u.analyses[name]; ok {
		return a
	}
	a := create()
	u.analyses[name] = a
	return a
}

// ConditionLevels returns the cached condition-level analysis, creating
// it on first use.
func (u *TranslationUnit) ConditionLevels() *ConditionLevelAnalysis {
	return u.analysis(condLevelName, func() Analysis {
		return newConditionLevelAnalysis()
	}).(*ConditionLevelAnalysis)
}

// ExpressionLevels returns the cached expression-level analysis,
// creating it on first use.
func (u *TranslationUnit) ExpressionLevels() *ExpressionLevelAnalysis {
	return u.analysis(exprLevelName, func() Analysis {
		return newExpressionLevelAnalysis()
	}).(*ExpressionLevelAnalysis)
}

// ConstValues returns the cached const-value analysis, creating it on
// first use.
func (u *TranslationUnit) ConstValues() *ConstValueAnalysis {
	return u.analysis(constValueName, func() Analysis {
		return newConstValueAnalysis()
	}).(*ConstValueAnalysis)
}
