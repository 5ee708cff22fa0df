package ram

// This module is derived from the GO AST design pattern in
// https://golang.org/pkg/go/ast/
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

import "encoding/json"

// Domain is the scalar value type of the RAM: every attribute, constant,
// and intrinsic result is a Domain value.  Symbols are interned Domain
// indices into the translation unit's SymbolTable.
type Domain = int64

// Expr is a pure value-producing node of the RAM tree.
type Expr interface {
	exprNode()
}

type (
	AutoIncrement struct {
		Kind string `json:"kind" unpack:""`
	}
	Constant struct {
		Kind  string `json:"kind" unpack:""`
		Value Domain `json:"value"`
	}
	IntrinsicOp struct {
		Kind string `json:"kind" unpack:""`
		Op   string `json:"op"`
		Args []Expr `json:"args"`
	}
	PackRecord struct {
		Kind string `json:"kind" unpack:""`
		Args []Expr `json:"args"`
	}
	SubroutineArg struct {
		Kind  string `json:"kind" unpack:""`
		Index int    `json:"index"`
	}
	// TupleElement reads attribute Element of the tuple bound at
	// nesting level Tuple.  It may only appear inside the operation
	// that introduces that binding.
	TupleElement struct {
		Kind    string `json:"kind" unpack:""`
		Tuple   int    `json:"tuple"`
		Element int    `json:"element"`
	}
	// UndefValue is the wildcard slot in index and existence patterns.
	UndefValue struct {
		Kind string `json:"kind" unpack:""`
	}
	UserDefinedOp struct {
		Kind string `json:"kind" unpack:""`
		Name string `json:"name"`
		Args []Expr `json:"args"`
	}
)

func (*AutoIncrement) exprNode() {}
func (*Constant) exprNode()      {}
func (*IntrinsicOp) exprNode()   {}
func (*PackRecord) exprNode()    {}
func (*SubroutineArg) exprNode() {}
func (*TupleElement) exprNode()  {}
func (*UndefValue) exprNode()    {}
func (*UserDefinedOp) exprNode() {}

func NewConstant(v Domain) *Constant {
	return &Constant{Kind: "Constant", Value: v}
}

func NewTupleElement(tuple, element int) *TupleElement {
	return &TupleElement{Kind: "TupleElement", Tuple: tuple, Element: element}
}

func NewAutoIncrement() *AutoIncrement {
	return &AutoIncrement{Kind: "AutoIncrement"}
}

func NewIntrinsicOp(op string, args ...Expr) *IntrinsicOp {
	return &IntrinsicOp{Kind: "IntrinsicOp", Op: op, Args: args}
}

func NewUserDefinedOp(name string, args ...Expr) *UserDefinedOp {
	return &UserDefinedOp{Kind: "UserDefinedOp", Name: name, Args: args}
}

func NewPackRecord(args ...Expr) *PackRecord {
	return &PackRecord{Kind: "PackRecord", Args: args}
}

func NewSubroutineArg(index int) *SubroutineArg {
	return &SubroutineArg{Kind: "SubroutineArg", Index: index}
}

func NewUndefValue() *UndefValue {
	return &UndefValue{Kind: "UndefValue"}
}

// IsUndef reports whether e is the pattern wildcard.
func IsUndef(e Expr) bool {
	_, ok := e.(*UndefValue)
	return ok
}

// CopyExpr returns a deep copy of e sharing no structure with it.
func CopyExpr(e Expr) Expr {
	if e == nil {
		panic("ram.CopyExpr nil")
	}
	b, err := json.Marshal(e)
	if err != nil {
		panic(err)
	}
	var copy Expr
	if err := unpacker.Unmarshal(b, &copy); err != nil {
		panic(err)
	}
	return copy
}

// CopyPattern deep-copies an index or existence pattern.  Nil slots are
// preserved as nil.
func CopyPattern(pattern []Expr) []Expr {
	copies := make([]Expr, len(pattern))
	for i, e := range pattern {
		if e != nil {
			copies[i] = CopyExpr(e)
		}
	}
	return copies
}
