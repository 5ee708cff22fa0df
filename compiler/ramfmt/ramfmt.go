// Package ramfmt renders RAM trees in their canonical textual form:
// one node per line, two-space indentation encoding nesting, a node's
// attributes on its own line.  The debug reporter and the golden tests
// consume this format; it is stable across JSON round trips.
package ramfmt

import (
	"fmt"
	"sort"
	"strings"

	"github.com/lutradb/lutra/compiler/ram"
)

// Program renders a whole program: declarations, main, subroutines.
func Program(p *ram.Program) string {
	c := &canon{tab: 2}
	c.program(p)
	return c.String()
}

// Statement renders a single statement subtree.
func Statement(s ram.Statement) string {
	c := &canon{tab: 2}
	c.stmt(s)
	return c.String()
}

// Operation renders a single operation subtree.
func Operation(op ram.Operation) string {
	c := &canon{tab: 2}
	c.op(op)
	return c.String()
}

type canon struct {
	b     strings.Builder
	tab   int
	depth int
}

func (c *canon) String() string {
	return c.b.String()
}

func (c *canon) line(format string, args ...any) {
	c.b.WriteString(strings.Repeat(" ", c.tab*c.depth))
	fmt.Fprintf(&c.b, format, args...)
	c.b.WriteByte('\n')
}

func (c *canon) nested(f func()) {
	c.depth++
	f()
	c.depth--
}

func (c *canon) program(p *ram.Program) {
	c.line("PROGRAM")
	c.nested(func() {
		c.line("DECLARATION")
		c.nested(func() {
			for _, rel := range p.Relations {
				c.line("%s(%s)", rel.Name, strings.Join(rel.Attributes, ","))
			}
		})
		c.line("MAIN")
		c.nested(func() {
			c.stmt(p.Main)
		})
		names := make([]string, 0, len(p.Subroutines))
		for name := range p.Subroutines {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c.line("SUBROUTINE %s", name)
			c.nested(func() {
				c.stmt(p.Subroutines[name])
			})
		}
	})
}

func (c *canon) stmt(s ram.Statement) {
	switch s := s.(type) {
	case *ram.Query:
		c.line("QUERY")
		c.nested(func() { c.op(s.Body) })
	case *ram.Sequence:
		c.line("SEQUENCE")
		c.nested(func() {
			for _, stmt := range s.Stmts {
				c.stmt(stmt)
			}
		})
	case *ram.Parallel:
		c.line("PARALLEL")
		c.nested(func() {
			for _, stmt := range s.Stmts {
				c.stmt(stmt)
			}
		})
	case *ram.Loop:
		c.line("LOOP")
		c.nested(func() { c.stmt(s.Body) })
	case *ram.Exit:
		c.line("EXIT %s", Condition(s.Cond))
	case *ram.Insert:
		c.line("INSERT %s INTO %s", s.Source, s.Target)
	case *ram.Merge:
		c.line("MERGE %s INTO %s", s.Source, s.Target)
	case *ram.Swap:
		c.line("SWAP (%s, %s)", s.First, s.Second)
	case *ram.Clear:
		c.line("CLEAR %s", s.Relation)
	case *ram.IO:
		c.line("IO %s (%s)", s.Relation, directives(s.Directives))
	case *ram.LogSize:
		c.line("LOGSIZE %s", s.Relation)
	case *ram.DebugInfo:
		c.line("DEBUG %q", s.Message)
		c.nested(func() { c.stmt(s.Body) })
	case *ram.Program:
		c.program(s)
	default:
		ram.Malformed("unknown statement", s)
	}
}

func (c *canon) op(op ram.Operation) {
	switch op := op.(type) {
	case *ram.Scan:
		c.line("FOR t%d IN %s", op.Tuple, op.Relation)
		c.nested(func() { c.op(op.Body) })
	case *ram.IndexScan:
		c.line("SEARCH t%d IN %s ON INDEX %s", op.Tuple, op.Relation, index(op.Tuple, op.Pattern))
		c.nested(func() { c.op(op.Body) })
	case *ram.Choice:
		c.line("CHOICE t%d IN %s WHERE %s", op.Tuple, op.Relation, Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.IndexChoice:
		c.line("CHOICE t%d IN %s ON INDEX %s WHERE %s",
			op.Tuple, op.Relation, index(op.Tuple, op.Pattern), Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.Aggregate:
		c.line("AGGREGATE t%d = %s(%s) IN %s WHERE %s",
			op.Tuple, op.Func, Expr(op.Expr), op.Relation, Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.IndexAggregate:
		c.line("AGGREGATE t%d = %s(%s) IN %s ON INDEX %s WHERE %s",
			op.Tuple, op.Func, Expr(op.Expr), op.Relation, index(op.Tuple, op.Pattern), Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.Filter:
		c.line("IF %s", Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.Break:
		c.line("BREAK IF %s", Condition(op.Cond))
		c.nested(func() { c.op(op.Body) })
	case *ram.Project:
		c.line("PROJECT (%s) INTO %s", exprs(op.Args), op.Relation)
	case *ram.SubroutineReturn:
		c.line("RETURN (%s)", exprs(op.Args))
	default:
		ram.Malformed("unknown operation", op)
	}
}

// Condition renders a condition on a single line.
func Condition(cond ram.Condition) string {
	switch cond := cond.(type) {
	case *ram.True:
		return "true"
	case *ram.False:
		return "false"
	case *ram.Conjunction:
		return Condition(cond.LHS) + " AND " + Condition(cond.RHS)
	case *ram.Negation:
		return "NOT (" + Condition(cond.Cond) + ")"
	case *ram.Constraint:
		return fmt.Sprintf("%s %s %s", Expr(cond.LHS), cond.Op, Expr(cond.RHS))
	case *ram.ExistenceCheck:
		return fmt.Sprintf("(%s) IN %s", pattern(cond.Pattern), cond.Relation)
	case *ram.ProvenanceExistenceCheck:
		return fmt.Sprintf("(%s) IN PROVENANCE %s", pattern(cond.Pattern), cond.Relation)
	case *ram.EmptinessCheck:
		return fmt.Sprintf("ISEMPTY(%s)", cond.Relation)
	}
	ram.Malformed("unknown condition", cond)
	return ""
}

// Expr renders an expression on a single line.
func Expr(e ram.Expr) string {
	switch e := e.(type) {
	case *ram.Constant:
		return fmt.Sprintf("%d", e.Value)
	case *ram.TupleElement:
		return fmt.Sprintf("t%d.%d", e.Tuple, e.Element)
	case *ram.AutoIncrement:
		return "autoinc()"
	case *ram.UndefValue:
		return "_"
	case *ram.SubroutineArg:
		return fmt.Sprintf("arg(%d)", e.Index)
	case *ram.IntrinsicOp:
		if len(e.Args) == 2 {
			return fmt.Sprintf("(%s %s %s)", Expr(e.Args[0]), e.Op, Expr(e.Args[1]))
		}
		return fmt.Sprintf("%s(%s)", e.Op, exprs(e.Args))
	case *ram.UserDefinedOp:
		return fmt.Sprintf("@%s(%s)", e.Name, exprs(e.Args))
	case *ram.PackRecord:
		return fmt.Sprintf("[%s]", exprs(e.Args))
	}
	ram.Malformed("unknown expression", e)
	return ""
}

func exprs(list []ram.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		parts[i] = Expr(e)
	}
	return strings.Join(parts, ", ")
}

func pattern(list []ram.Expr) string {
	parts := make([]string, len(list))
	for i, e := range list {
		if e == nil {
			parts[i] = "_"
			continue
		}
		parts[i] = Expr(e)
	}
	return strings.Join(parts, ",")
}

// index renders the bound slots of an index pattern as equalities on
// the probing tuple.
func index(tuple int, pat []ram.Expr) string {
	var parts []string
	for i, e := range pat {
		if e == nil || ram.IsUndef(e) {
			continue
		}
		parts = append(parts, fmt.Sprintf("t%d.%d = %s", tuple, i, Expr(e)))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " AND ")
}

func directives(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%q", k, m[k])
	}
	return strings.Join(parts, ",")
}
