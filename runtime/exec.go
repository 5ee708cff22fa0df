// Package runtime defines the contract between the compiler mid-end
// and the executors that consume a transformed RAM program, along with
// the in-memory relation store the reference interpreter runs against.
package runtime

import (
	"context"

	"github.com/lutradb/lutra/compiler/ram"
)

// Executor consumes a transformed program.  The program and symbol
// table are handed over by value of ownership: the compiler does not
// touch them again.
type Executor interface {
	// GenerateCode emits source code implementing the program to
	// outPath.
	GenerateCode(symbols *ram.SymbolTable, program *ram.Program, outPath string) error
	// CompileToBinary generates and compiles the program to a native
	// executable.
	CompileToBinary(symbols *ram.SymbolTable, program *ram.Program) error
	// Execute evaluates the program directly against a store.
	Execute(ctx context.Context, symbols *ram.SymbolTable, program *ram.Program, store *Store) error
}
