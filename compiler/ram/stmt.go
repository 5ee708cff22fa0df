package ram

import "encoding/json"

// Statement is a top-level control-flow node of the RAM tree.
type Statement interface {
	statementNode()
}

type (
	Clear struct {
		Kind     string `json:"kind" unpack:""`
		Relation string `json:"relation"`
	}
	DebugInfo struct {
		Kind    string    `json:"kind" unpack:""`
		Message string    `json:"message"`
		Body    Statement `json:"body"`
	}
	// Exit terminates the innermost enclosing Loop when Cond holds.
	Exit struct {
		Kind string    `json:"kind" unpack:""`
		Cond Condition `json:"cond"`
	}
	// Insert adds the tuples of Source to Target, leaving Source
	// untouched.
	Insert struct {
		Kind   string `json:"kind" unpack:""`
		Target string `json:"target"`
		Source string `json:"source"`
	}
	IO struct {
		Kind       string            `json:"kind" unpack:""`
		Relation   string            `json:"relation"`
		Directives map[string]string `json:"directives"`
	}
	LogSize struct {
		Kind     string `json:"kind" unpack:""`
		Relation string `json:"relation"`
		Message  string `json:"message"`
	}
	Loop struct {
		Kind string    `json:"kind" unpack:""`
		Body Statement `json:"body"`
	}
	// Merge moves the tuples of Source into Target and clears Source.
	Merge struct {
		Kind   string `json:"kind" unpack:""`
		Target string `json:"target"`
		Source string `json:"source"`
	}
	Parallel struct {
		Kind  string      `json:"kind" unpack:""`
		Stmts []Statement `json:"stmts"`
	}
	Query struct {
		Kind string    `json:"kind" unpack:""`
		Body Operation `json:"body"`
	}
	Sequence struct {
		Kind  string      `json:"kind" unpack:""`
		Stmts []Statement `json:"stmts"`
	}
	Swap struct {
		Kind   string `json:"kind" unpack:""`
		First  string `json:"first"`
		Second string `json:"second"`
	}
)

func (*Clear) statementNode()     {}
func (*DebugInfo) statementNode() {}
func (*Exit) statementNode()      {}
func (*Insert) statementNode()    {}
func (*IO) statementNode()        {}
func (*LogSize) statementNode()   {}
func (*Loop) statementNode()      {}
func (*Merge) statementNode()     {}
func (*Parallel) statementNode()  {}
func (*Query) statementNode()     {}
func (*Sequence) statementNode()  {}
func (*Swap) statementNode()      {}
func (*Program) statementNode()   {}

// Relation declares a named relation of fixed arity.  Attributes names
// exist for diagnostics and formatting only.
type Relation struct {
	Kind       string   `json:"kind" unpack:""`
	Name       string   `json:"name"`
	Arity      int      `json:"arity"`
	Attributes []string `json:"attributes"`
}

// Program is the root of the RAM tree: relation declarations, the main
// statement, and named subroutines callable by an executor.
type Program struct {
	Kind        string               `json:"kind" unpack:""`
	Relations   []*Relation          `json:"relations"`
	Main        Statement            `json:"main"`
	Subroutines map[string]Statement `json:"subroutines,omitempty"`
}

func NewQuery(body Operation) *Query {
	return &Query{Kind: "Query", Body: body}
}

func NewSequence(stmts ...Statement) *Sequence {
	return &Sequence{Kind: "Sequence", Stmts: stmts}
}

func NewParallel(stmts ...Statement) *Parallel {
	return &Parallel{Kind: "Parallel", Stmts: stmts}
}

func NewLoop(body Statement) *Loop {
	return &Loop{Kind: "Loop", Body: body}
}

func NewExit(cond Condition) *Exit {
	return &Exit{Kind: "Exit", Cond: cond}
}

func NewInsert(target, source string) *Insert {
	return &Insert{Kind: "Insert", Target: target, Source: source}
}

func NewMerge(target, source string) *Merge {
	return &Merge{Kind: "Merge", Target: target, Source: source}
}

func NewSwap(first, second string) *Swap {
	return &Swap{Kind: "Swap", First: first, Second: second}
}

func NewClear(relation string) *Clear {
	return &Clear{Kind: "Clear", Relation: relation}
}

func NewIO(relation string, directives map[string]string) *IO {
	return &IO{Kind: "IO", Relation: relation, Directives: directives}
}

func NewLogSize(relation, message string) *LogSize {
	return &LogSize{Kind: "LogSize", Relation: relation, Message: message}
}

func NewDebugInfo(message string, body Statement) *DebugInfo {
	return &DebugInfo{Kind: "DebugInfo", Message: message, Body: body}
}

func NewRelation(name string, attributes ...string) *Relation {
	return &Relation{Kind: "Relation", Name: name, Arity: len(attributes), Attributes: attributes}
}

func NewProgram(relations []*Relation, main Statement) *Program {
	return &Program{Kind: "Program", Relations: relations, Main: main}
}

// Relation returns the declaration of the named relation or nil.
func (p *Program) Relation(name string) *Relation {
	for _, r := range p.Relations {
		if r.Name == name {
			return r
		}
	}
	return nil
}

// CopyStatement returns a deep copy of s sharing no structure with it.
func CopyStatement(s Statement) Statement {
	if s == nil {
		panic("ram.CopyStatement nil")
	}
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	var copy Statement
	if err := unpacker.Unmarshal(b, &copy); err != nil {
		panic(err)
	}
	return copy
}

// CopyProgram returns a deep copy of the whole program.
func CopyProgram(p *Program) *Program {
	if p == nil {
		panic("ram.CopyProgram nil")
	}
	b, err := json.Marshal(p)
	if err != nil {
		panic(err)
	}
	var copy Statement
	if err := unpacker.Unmarshal(b, &copy); err != nil {
		panic(err)
	}
	return copy.(*Program)
}
