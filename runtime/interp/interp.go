// Package interp is the reference executor: it evaluates a RAM program
// directly over an in-memory store.  It exists to pin down the
// semantics of the IR — the optimizer's differential tests run every
// fixture through it before and after transformation — and makes no
// attempt at being fast.
package interp

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lutradb/lutra/compiler/ram"
	"github.com/lutradb/lutra/runtime"
)

// Functor evaluates a user-defined operator.
type Functor func(args []ram.Domain) (ram.Domain, error)

// Interpreter implements runtime.Executor by direct evaluation.
type Interpreter struct {
	logger   *zap.Logger
	functors map[string]Functor
}

func New(logger *zap.Logger) *Interpreter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Interpreter{
		logger:   logger,
		functors: make(map[string]Functor),
	}
}

// RegisterFunctor binds a user-defined operator name to its
// implementation.
func (i *Interpreter) RegisterFunctor(name string, f Functor) {
	i.functors[name] = f
}

// GenerateCode is not supported by the interpreter.
func (i *Interpreter) GenerateCode(*ram.SymbolTable, *ram.Program, string) error {
	return errors.New("interp: code generation is not supported")
}

// CompileToBinary is not supported by the interpreter.
func (i *Interpreter) CompileToBinary(*ram.SymbolTable, *ram.Program) error {
	return errors.New("interp: native compilation is not supported")
}

// Execute declares the program's relations in the store (those not
// already present) and runs the main statement.
func (i *Interpreter) Execute(ctx context.Context, symbols *ram.SymbolTable, program *ram.Program, store *runtime.Store) error {
	x, err := i.newExec(symbols, program, store)
	if err != nil {
		return err
	}
	return x.stmt(ctx, program.Main)
}

// CallSubroutine runs a named subroutine with the given arguments and
// returns the tuples produced by its return operations.
func (i *Interpreter) CallSubroutine(ctx context.Context, symbols *ram.SymbolTable, program *ram.Program, store *runtime.Store, name string, args []ram.Domain) ([]runtime.Tuple, error) {
	sub, ok := program.Subroutines[name]
	if !ok {
		return nil, fmt.Errorf("interp: unknown subroutine %q", name)
	}
	x, err := i.newExec(symbols, program, store)
	if err != nil {
		return nil, err
	}
	x.args = args
	if err := x.stmt(ctx, sub); err != nil {
		return nil, err
	}
	return x.returns, nil
}

func (i *Interpreter) newExec(symbols *ram.SymbolTable, program *ram.Program, store *runtime.Store) (*exec, error) {
	if symbols == nil {
		symbols = ram.NewSymbolTable()
	}
	for _, rel := range program.Relations {
		if err := store.Define(rel.Name, rel.Arity); err != nil {
			return nil, err
		}
	}
	return &exec{
		interp:  i,
		symbols: symbols,
		program: program,
		store:   store,
		records: newRecordPool(),
	}, nil
}

// Sentinels for the IR's non-local control flow: Break terminates the
// innermost scan loop, Exit the innermost statement loop.
var (
	errBreakLoop = errors.New("interp: break")
	errExitLoop  = errors.New("interp: exit")
)

type exec struct {
	interp  *Interpreter
	symbols *ram.SymbolTable
	program *ram.Program
	store   *runtime.Store
	records *recordPool
	args    []ram.Domain
	returns []runtime.Tuple
}

func (x *exec) stmt(ctx context.Context, s ram.Statement) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch s := s.(type) {
	case *ram.Sequence:
		for _, stmt := range s.Stmts {
			if err := x.stmt(ctx, stmt); err != nil {
				return err
			}
		}
		return nil
	case *ram.Parallel:
		g, ctx := errgroup.WithContext(ctx)
		for _, stmt := range s.Stmts {
			stmt := stmt
			g.Go(func() error {
				return x.stmt(ctx, stmt)
			})
		}
		return g.Wait()
	case *ram.Loop:
		for {
			err := x.stmt(ctx, s.Body)
			if errors.Is(err, errExitLoop) {
				return nil
			}
			if err != nil {
				return err
			}
		}
	case *ram.Exit:
		q := &query{exec: x}
		ok, err := q.cond(s.Cond)
		if err != nil {
			return err
		}
		if ok {
			return errExitLoop
		}
		return nil
	case *ram.Query:
		q := &query{exec: x}
		return q.op(ctx, s.Body)
	case *ram.Insert:
		return x.store.Copy(s.Target, s.Source)
	case *ram.Merge:
		return x.store.Move(s.Target, s.Source)
	case *ram.Swap:
		return x.store.Swap(s.First, s.Second)
	case *ram.Clear:
		return x.store.Clear(s.Relation)
	case *ram.IO:
		x.interp.logger.Debug("io statement ignored",
			zap.String("relation", s.Relation))
		return nil
	case *ram.LogSize:
		n, err := x.store.Size(s.Relation)
		if err != nil {
			return err
		}
		x.interp.logger.Info("relation size",
			zap.String("relation", s.Relation),
			zap.Int("size", n))
		return nil
	case *ram.DebugInfo:
		x.interp.logger.Debug("debug info", zap.String("message", s.Message))
		return x.stmt(ctx, s.Body)
	case *ram.Program:
		return x.stmt(ctx, s.Main)
	}
	return fmt.Errorf("interp: unknown statement %T", s)
}

// query evaluates one operation nest.  The environment maps binding
// levels to tuples; the auto-increment counter is fresh per query.
type query struct {
	*exec
	env     []runtime.Tuple
	counter ram.Domain
}

func (q *query) bind(level int, t runtime.Tuple) {
	for len(q.env) <= level {
		q.env = append(q.env, nil)
	}
	q.env[level] = t
}

func (q *query) op(ctx context.Context, op ram.Operation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	switch op := op.(type) {
	case *ram.Scan:
		tuples, err := q.store.Tuples(op.Relation)
		if err != nil {
			return err
		}
		return q.loop(ctx, op.Tuple, tuples, op.Body)
	case *ram.IndexScan:
		tuples, err := q.match(op.Relation, op.Pattern)
		if err != nil {
			return err
		}
		return q.loop(ctx, op.Tuple, tuples, op.Body)
	case *ram.Choice:
		tuples, err := q.store.Tuples(op.Relation)
		if err != nil {
			return err
		}
		return q.choose(ctx, op.Tuple, tuples, op.Cond, op.Body)
	case *ram.IndexChoice:
		tuples, err := q.match(op.Relation, op.Pattern)
		if err != nil {
			return err
		}
		return q.choose(ctx, op.Tuple, tuples, op.Cond, op.Body)
	case *ram.Aggregate:
		tuples, err := q.store.Tuples(op.Relation)
		if err != nil {
			return err
		}
		return q.aggregate(ctx, op.Func, op.Tuple, tuples, op.Cond, op.Expr, op.Body)
	case *ram.IndexAggregate:
		tuples, err := q.match(op.Relation, op.Pattern)
		if err != nil {
			return err
		}
		return q.aggregate(ctx, op.Func, op.Tuple, tuples, op.Cond, op.Expr, op.Body)
	case *ram.Filter:
		ok, err := q.cond(op.Cond)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		return q.op(ctx, op.Body)
	case *ram.Break:
		ok, err := q.cond(op.Cond)
		if err != nil {
			return err
		}
		if ok {
			return errBreakLoop
		}
		return q.op(ctx, op.Body)
	case *ram.Project:
		t, err := q.tuple(op.Args)
		if err != nil {
			return err
		}
		_, err = q.store.Insert(op.Relation, t)
		return err
	case *ram.SubroutineReturn:
		t, err := q.tuple(op.Args)
		if err != nil {
			return err
		}
		q.returns = append(q.returns, t)
		return nil
	}
	return fmt.Errorf("interp: unknown operation %T", op)
}

func (q *query) loop(ctx context.Context, level int, tuples []runtime.Tuple, body ram.Operation) error {
	for _, t := range tuples {
		q.bind(level, t)
		err := q.op(ctx, body)
		if errors.Is(err, errBreakLoop) {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (q *query) choose(ctx context.Context, level int, tuples []runtime.Tuple, cond ram.Condition, body ram.Operation) error {
	for _, t := range tuples {
		q.bind(level, t)
		ok, err := q.cond(cond)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		err = q.op(ctx, body)
		if errors.Is(err, errBreakLoop) {
			return nil
		}
		return err
	}
	return nil
}

func (q *query) aggregate(ctx context.Context, fn string, level int, tuples []runtime.Tuple, cond ram.Condition, expr ram.Expr, body ram.Operation) error {
	var acc ram.Domain
	var count int
	for _, t := range tuples {
		q.bind(level, t)
		ok, err := q.cond(cond)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		var v ram.Domain
		if fn != ram.AggCount {
			if v, err = q.expr(expr); err != nil {
				return err
			}
		}
		switch {
		case count == 0:
			acc = v
		case fn == ram.AggMin:
			acc = min(acc, v)
		case fn == ram.AggMax:
			acc = max(acc, v)
		case fn == ram.AggSum:
			acc += v
		}
		count++
	}
	switch fn {
	case ram.AggCount:
		acc = ram.Domain(count)
	case ram.AggSum:
		if count == 0 {
			acc = 0
		}
	case ram.AggMin, ram.AggMax:
		// Min and max over an empty match produce nothing.
		if count == 0 {
			return nil
		}
	default:
		return fmt.Errorf("interp: unknown aggregator %q", fn)
	}
	q.bind(level, runtime.Tuple{acc})
	err := q.op(ctx, body)
	if errors.Is(err, errBreakLoop) {
		return nil
	}
	return err
}

// match evaluates the bound slots of an index pattern and returns the
// matching tuples.
func (q *query) match(name string, pattern []ram.Expr) ([]runtime.Tuple, error) {
	vals := make([]ram.Domain, len(pattern))
	bound := make([]bool, len(pattern))
	for i, e := range pattern {
		if e == nil || ram.IsUndef(e) {
			continue
		}
		v, err := q.expr(e)
		if err != nil {
			return nil, err
		}
		vals[i] = v
		bound[i] = true
	}
	return q.store.Match(name, vals, bound)
}

func (q *query) tuple(args []ram.Expr) (runtime.Tuple, error) {
	t := make(runtime.Tuple, len(args))
	for i, e := range args {
		v, err := q.expr(e)
		if err != nil {
			return nil, err
		}
		t[i] = v
	}
	return t, nil
}
