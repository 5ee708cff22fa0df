package ram

import (
	"fmt"

	"github.com/lutradb/lutra/pkg/unpack"
)

var unpacker = unpack.New(
	Aggregate{},
	AutoIncrement{},
	Break{},
	Choice{},
	Clear{},
	Conjunction{},
	Constant{},
	Constraint{},
	DebugInfo{},
	EmptinessCheck{},
	ExistenceCheck{},
	Exit{},
	False{},
	Filter{},
	IndexAggregate{},
	IndexChoice{},
	IndexScan{},
	Insert{},
	IntrinsicOp{},
	IO{},
	LogSize{},
	Loop{},
	Merge{},
	Negation{},
	PackRecord{},
	Parallel{},
	Program{},
	Project{},
	ProvenanceExistenceCheck{},
	Query{},
	Relation{},
	Scan{},
	Sequence{},
	SubroutineArg{},
	SubroutineReturn{},
	Swap{},
	True{},
	TupleElement{},
	UndefValue{},
	UserDefinedOp{},
)

// UnmarshalProgram transforms a JSON representation of a RAM program
// into a Program.
func UnmarshalProgram(buf []byte) (*Program, error) {
	var stmt Statement
	if err := unpacker.Unmarshal(buf, &stmt); err != nil {
		return nil, fmt.Errorf("internal error: JSON object is not a RAM program: %w", err)
	}
	p, ok := stmt.(*Program)
	if !ok {
		return nil, fmt.Errorf("internal error: JSON object is a RAM %T, not a program", stmt)
	}
	return p, nil
}

// UnmarshalStatement transforms a JSON representation of a RAM
// statement into a Statement.
func UnmarshalStatement(buf []byte) (Statement, error) {
	var stmt Statement
	if err := unpacker.Unmarshal(buf, &stmt); err != nil {
		return nil, fmt.Errorf("internal error: JSON object is not a RAM statement: %w", err)
	}
	return stmt, nil
}

// UnmarshalOperation transforms a JSON representation of a RAM
// operation into an Operation.
func UnmarshalOperation(buf []byte) (Operation, error) {
	var op Operation
	if err := unpacker.Unmarshal(buf, &op); err != nil {
		return nil, fmt.Errorf("internal error: JSON object is not a RAM operation: %w", err)
	}
	return op, nil
}
