package ram

import (
	"fmt"
	"reflect"

	"github.com/davecgh/go-spew/spew"
)

// Equal reports structural equality of two RAM nodes.  Every field of
// every node is semantic, so deep comparison is exact.
func Equal(a, b any) bool {
	return reflect.DeepEqual(a, b)
}

// Malformed aborts on a broken tree invariant, dumping the offending
// node.  The passes operate on validated input; a violation here is a
// programming bug, never a recoverable condition.
func Malformed(msg string, node any) {
	panic(fmt.Sprintf("malformed RAM: %s\n%s", msg, spew.Sdump(node)))
}
