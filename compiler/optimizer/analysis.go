package optimizer

import (
	"github.com/lutradb/lutra/compiler/optimizer/constval"
	"github.com/lutradb/lutra/compiler/optimizer/level"
	"github.com/lutradb/lutra/compiler/ram"
)

const (
	condLevelName  = "condition-level-analysis"
	exprLevelName  = "expression-level-analysis"
	constValueName = "const-value-analysis"
)

// ConditionLevelAnalysis memoizes, per condition node, the minimum
// tuple-nesting level at which the condition can be evaluated.
type ConditionLevelAnalysis struct {
	levels map[ram.Condition]int
}

func newConditionLevelAnalysis() *ConditionLevelAnalysis {
	return &ConditionLevelAnalysis{levels: make(map[ram.Condition]int)}
}

func (*ConditionLevelAnalysis) Name() string { return condLevelName }

func (a *ConditionLevelAnalysis) Level(c ram.Condition) int {
	if l, ok := a.levels[c]; ok {
		return l
	}
	l := level.Condition(c)
	a.levels[c] = l
	return l
}

// ExpressionLevelAnalysis memoizes, per expression node, the minimum
// tuple-nesting level at which the expression can be evaluated.
type ExpressionLevelAnalysis struct {
	levels map[ram.Expr]int
}

func newExpressionLevelAnalysis() *ExpressionLevelAnalysis {
	return &ExpressionLevelAnalysis{levels: make(map[ram.Expr]int)}
}

func (*ExpressionLevelAnalysis) Name() string { return exprLevelName }

func (a *ExpressionLevelAnalysis) Level(e ram.Expr) int {
	if l, ok := a.levels[e]; ok {
		return l
	}
	l := level.Expression(e)
	a.levels[e] = l
	return l
}

// ConstValueAnalysis memoizes whether an expression is a constant.
type ConstValueAnalysis struct {
	consts map[ram.Expr]bool
}

func newConstValueAnalysis() *ConstValueAnalysis {
	return &ConstValueAnalysis{consts: make(map[ram.Expr]bool)}
}

func (*ConstValueAnalysis) Name() string { return constValueName }

func (a *ConstValueAnalysis) IsConstant(e ram.Expr) bool {
	if c, ok := a.consts[e]; ok {
		return c
	}
	c := constval.IsConstant(e)
	a.consts[e] = c
	return c
}
