package ram

import "encoding/json"

// Operation is a node that introduces or consumes tuple bindings inside
// a Query.  Operations nest by ownership: each operation owns its body
// exclusively and bodies are replaced as a whole, never aliased.
type Operation interface {
	operationNode()
}

// Aggregator functions for Aggregate and IndexAggregate.
const (
	AggMin   = "min"
	AggMax   = "max"
	AggSum   = "sum"
	AggCount = "count"
)

type (
	// Aggregate folds Expr with the aggregator Func over the tuples of
	// Relation satisfying Cond, then evaluates Body once with the
	// result bound as the single-attribute tuple at level Tuple.
	Aggregate struct {
		Kind     string    `json:"kind" unpack:""`
		Func     string    `json:"func"`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Cond     Condition `json:"cond"`
		Expr     Expr      `json:"expr"`
		Body     Operation `json:"body"`
	}
	// Break evaluates Body unless Cond holds, in which case the
	// innermost enclosing scan loop terminates.
	Break struct {
		Kind string    `json:"kind" unpack:""`
		Cond Condition `json:"cond"`
		Body Operation `json:"body"`
	}
	// Choice evaluates Body for at most one tuple of Relation
	// satisfying Cond.
	Choice struct {
		Kind     string    `json:"kind" unpack:""`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Cond     Condition `json:"cond"`
		Body     Operation `json:"body"`
	}
	Filter struct {
		Kind string    `json:"kind" unpack:""`
		Cond Condition `json:"cond"`
		Body Operation `json:"body"`
	}
	IndexAggregate struct {
		Kind     string    `json:"kind" unpack:""`
		Func     string    `json:"func"`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Pattern  []Expr    `json:"pattern"`
		Cond     Condition `json:"cond"`
		Expr     Expr      `json:"expr"`
		Body     Operation `json:"body"`
	}
	IndexChoice struct {
		Kind     string    `json:"kind" unpack:""`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Pattern  []Expr    `json:"pattern"`
		Cond     Condition `json:"cond"`
		Body     Operation `json:"body"`
	}
	// IndexScan binds the tuple at level Tuple to each tuple of
	// Relation matching Pattern.  Pattern has exactly one entry per
	// attribute of Relation; UndefValue slots are unconstrained.
	IndexScan struct {
		Kind     string    `json:"kind" unpack:""`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Pattern  []Expr    `json:"pattern"`
		Body     Operation `json:"body"`
	}
	Project struct {
		Kind     string `json:"kind" unpack:""`
		Relation string `json:"relation"`
		Args     []Expr `json:"args"`
	}
	// Scan binds the tuple at level Tuple to each tuple of Relation.
	Scan struct {
		Kind     string    `json:"kind" unpack:""`
		Relation string    `json:"relation"`
		Tuple    int       `json:"tuple"`
		Body     Operation `json:"body"`
	}
	SubroutineReturn struct {
		Kind string `json:"kind" unpack:""`
		Args []Expr `json:"args"`
	}
)

func (*Aggregate) operationNode()        {}
func (*Break) operationNode()            {}
func (*Choice) operationNode()           {}
func (*Filter) operationNode()           {}
func (*IndexAggregate) operationNode()   {}
func (*IndexChoice) operationNode()      {}
func (*IndexScan) operationNode()        {}
func (*Project) operationNode()          {}
func (*Scan) operationNode()             {}
func (*SubroutineReturn) operationNode() {}

func NewScan(relation string, tuple int, body Operation) *Scan {
	return &Scan{Kind: "Scan", Relation: relation, Tuple: tuple, Body: body}
}

func NewIndexScan(relation string, tuple int, pattern []Expr, body Operation) *IndexScan {
	return &IndexScan{Kind: "IndexScan", Relation: relation, Tuple: tuple, Pattern: pattern, Body: body}
}

func NewChoice(relation string, tuple int, cond Condition, body Operation) *Choice {
	return &Choice{Kind: "Choice", Relation: relation, Tuple: tuple, Cond: cond, Body: body}
}

func NewIndexChoice(relation string, tuple int, pattern []Expr, cond Condition, body Operation) *IndexChoice {
	return &IndexChoice{Kind: "IndexChoice", Relation: relation, Tuple: tuple, Pattern: pattern, Cond: cond, Body: body}
}

func NewAggregate(fn, relation string, tuple int, cond Condition, expr Expr, body Operation) *Aggregate {
	return &Aggregate{Kind: "Aggregate", Func: fn, Relation: relation, Tuple: tuple, Cond: cond, Expr: expr, Body: body}
}

func NewIndexAggregate(fn, relation string, tuple int, pattern []Expr, cond Condition, expr Expr, body Operation) *IndexAggregate {
	return &IndexAggregate{Kind: "IndexAggregate", Func: fn, Relation: relation, Tuple: tuple, Pattern: pattern, Cond: cond, Expr: expr, Body: body}
}

func NewFilter(cond Condition, body Operation) *Filter {
	return &Filter{Kind: "Filter", Cond: cond, Body: body}
}

func NewBreak(cond Condition, body Operation) *Break {
	return &Break{Kind: "Break", Cond: cond, Body: body}
}

func NewProject(relation string, args ...Expr) *Project {
	return &Project{Kind: "Project", Relation: relation, Args: args}
}

func NewSubroutineReturn(args ...Expr) *SubroutineReturn {
	return &SubroutineReturn{Kind: "SubroutineReturn", Args: args}
}

// TupleID returns the binding level of a tuple-introducing operation
// and whether op introduces one.
func TupleID(op Operation) (int, bool) {
	switch op := op.(type) {
	case *Scan:
		return op.Tuple, true
	case *IndexScan:
		return op.Tuple, true
	case *Choice:
		return op.Tuple, true
	case *IndexChoice:
		return op.Tuple, true
	case *Aggregate:
		return op.Tuple, true
	case *IndexAggregate:
		return op.Tuple, true
	}
	return 0, false
}

// CopyOperation returns a deep copy of op sharing no structure with it.
func CopyOperation(op Operation) Operation {
	if op == nil {
		panic("ram.CopyOperation nil")
	}
	b, err := json.Marshal(op)
	if err != nil {
		panic(err)
	}
	var copy Operation
	if err := unpacker.Unmarshal(b, &copy); err != nil {
		panic(err)
	}
	return copy
}
