package ram_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lutradb/lutra/compiler/ram"
)

func testProgram() *ram.Program {
	return ram.NewProgram(
		[]*ram.Relation{
			ram.NewRelation("A", "x", "y", "z"),
			ram.NewRelation("C", "x"),
		},
		ram.NewSequence(
			ram.NewQuery(
				ram.NewScan("A", 0,
					ram.NewFilter(
						ram.NewConstraint(ram.EQ, ram.NewTupleElement(0, 0), ram.NewConstant(5)),
						ram.NewProject("C", ram.NewTupleElement(0, 1)),
					),
				),
			),
			ram.NewLogSize("C", "c size"),
		),
	)
}

func TestProgramJSONRoundTrip(t *testing.T) {
	p := testProgram()
	buf, err := json.Marshal(p)
	require.NoError(t, err)
	got, err := ram.UnmarshalProgram(buf)
	require.NoError(t, err)
	assert.True(t, ram.Equal(p, got))
}

func TestUnmarshalProgramRejectsNonProgram(t *testing.T) {
	buf, err := json.Marshal(ram.NewClear("A"))
	require.NoError(t, err)
	_, err = ram.UnmarshalProgram(buf)
	require.Error(t, err)
}

func TestUnmarshalOperation(t *testing.T) {
	op := ram.NewIndexScan("A", 1,
		[]ram.Expr{ram.NewConstant(1), ram.NewUndefValue(), ram.NewUndefValue()},
		ram.NewProject("C", ram.NewTupleElement(1, 2)))
	buf, err := json.Marshal(ram.Operation(op))
	require.NoError(t, err)
	got, err := ram.UnmarshalOperation(buf)
	require.NoError(t, err)
	assert.True(t, ram.Equal(ram.Operation(op), got))
}

func TestCopyProgramSharesNoStructure(t *testing.T) {
	p := testProgram()
	copied := ram.CopyProgram(p)
	require.True(t, ram.Equal(p, copied))
	// Mutating the copy must leave the original untouched.
	q := copied.Main.(*ram.Sequence).Stmts[0].(*ram.Query)
	q.Body.(*ram.Scan).Body.(*ram.Filter).Cond = ram.NewTrue()
	assert.False(t, ram.Equal(p, copied))
}

func TestCopyOperationIndependence(t *testing.T) {
	op := ram.NewFilter(ram.NewTrue(), ram.NewProject("C", ram.NewConstant(0)))
	copied := ram.CopyOperation(op).(*ram.Filter)
	copied.Cond = ram.NewFalse()
	assert.True(t, ram.Equal(op.Cond, ram.NewTrue()))
}

func TestEqualDistinguishesValues(t *testing.T) {
	assert.True(t, ram.Equal(ram.NewConstant(5), ram.NewConstant(5)))
	assert.False(t, ram.Equal(ram.NewConstant(5), ram.NewConstant(6)))
	assert.False(t, ram.Equal(ram.NewTupleElement(0, 1), ram.NewTupleElement(1, 1)))
}

func TestConjunctionListAndConjoin(t *testing.T) {
	a := ram.NewConstraint(ram.EQ, ram.NewTupleElement(0, 0), ram.NewConstant(1))
	b := ram.NewConstraint(ram.GT, ram.NewTupleElement(0, 1), ram.NewConstant(2))
	c := ram.NewNegation(ram.NewEmptinessCheck("A"))
	conj := ram.NewConjunction(ram.NewConjunction(a, b), c)
	list := ram.ConjunctionList(conj)
	require.Len(t, list, 3)
	assert.Same(t, ram.Condition(a), list[0])
	assert.Same(t, ram.Condition(b), list[1])
	assert.Same(t, ram.Condition(c), list[2])
	rebuilt := ram.Conjoin(list)
	assert.True(t, ram.Equal(ram.Condition(conj), rebuilt))
}

func TestConjoinEmptyIsTrue(t *testing.T) {
	assert.True(t, ram.Equal(ram.Conjoin(nil), ram.Condition(ram.NewTrue())))
}

func TestUsesTuple(t *testing.T) {
	op := ram.NewIndexScan("A", 2,
		[]ram.Expr{ram.NewConstant(1), ram.NewUndefValue(), ram.NewUndefValue()},
		ram.NewProject("S", ram.NewTupleElement(2, 1)))
	assert.True(t, ram.UsesTuple(op, 2))
	assert.False(t, ram.UsesTuple(op, 0))

	dead := ram.NewIndexScan("A", 2,
		[]ram.Expr{ram.NewConstant(1), ram.NewUndefValue(), ram.NewUndefValue()},
		ram.NewProject("S", ram.NewConstant(0)))
	assert.False(t, ram.UsesTuple(dead, 2))
}

func TestHasBreak(t *testing.T) {
	plain := ram.NewFilter(ram.NewTrue(), ram.NewProject("C", ram.NewConstant(0)))
	assert.False(t, ram.HasBreak(plain))
	breaking := ram.NewFilter(ram.NewTrue(),
		ram.NewBreak(ram.NewFalse(), ram.NewProject("C", ram.NewConstant(0))))
	assert.True(t, ram.HasBreak(breaking))
}

func TestQueriesVisitsInOrder(t *testing.T) {
	p := ram.NewProgram(
		[]*ram.Relation{ram.NewRelation("A", "x")},
		ram.NewSequence(
			ram.NewQuery(ram.NewProject("A", ram.NewConstant(1))),
			ram.NewLoop(ram.NewSequence(
				ram.NewQuery(ram.NewProject("A", ram.NewConstant(2))),
				ram.NewExit(ram.NewTrue()),
			)),
		),
	)
	var seen []ram.Domain
	ram.Queries(p, func(q *ram.Query) {
		seen = append(seen, q.Body.(*ram.Project).Args[0].(*ram.Constant).Value)
	})
	assert.Equal(t, []ram.Domain{1, 2}, seen)
}

func TestProgramRelationLookup(t *testing.T) {
	p := testProgram()
	rel := p.Relation("A")
	require.NotNil(t, rel)
	assert.Equal(t, 3, rel.Arity)
	assert.Nil(t, p.Relation("missing"))
}

func TestSymbolTable(t *testing.T) {
	tab := ram.NewSymbolTable()
	a := tab.Intern("alpha")
	b := tab.Intern("beta")
	assert.NotEqual(t, a, b)
	assert.Equal(t, a, tab.Intern("alpha"))
	idx, ok := tab.Lookup("beta")
	require.True(t, ok)
	assert.Equal(t, b, idx)
	s, ok := tab.Resolve(a)
	require.True(t, ok)
	assert.Equal(t, "alpha", s)
	_, ok = tab.Resolve(99)
	assert.False(t, ok)
	assert.Equal(t, 2, tab.Len())
}

func TestMalformedPanics(t *testing.T) {
	assert.Panics(t, func() {
		ram.Malformed("boom", ram.NewConstant(1))
	})
}
