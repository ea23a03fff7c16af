// Syntax trees.
//
// Parsed queries are represented as Node instances.  Logical and Unary nodes are tagged with an
// Op from the opcode set below; the same node types are used both for the outer gene expression
// and for the boolean expression inside a bracketed modifier, the difference being the leaf type
// (Gene vs Condition).
//
// The String methods render the node as user-facing infix text.  The evaluator uses these
// fragments to build the filter trace of an intermediate table, so they reproduce the query
// fragment, not a debugging s-expression.

package query

import (
	"fmt"
)

const (
	// The value 0 is never a valid opcode.
	OpEq = 1 + iota
	OpNe
	OpLt
	OpLe
	OpGt
	OpGe
	OpAnd
	OpOr
	OpNot
)

var opNames = [...]string{
	"*BAD*",
	"=",
	"!=",
	"<",
	"<=",
	">",
	">=",
	"and",
	"or",
	"not",
}

func OpName(op int) string {
	if op < 1 || op >= len(opNames) {
		return opNames[0]
	}
	return opNames[op]
}

type Node fmt.Stringer

// Gene is a bare gene name or whole-query keyword leaf.
type Gene struct {
	Name string
}

func (n *Gene) String() string {
	return n.Name
}

// Logical is an `and` or `or` over two subexpressions.
type Logical struct {
	Op       int
	Lhs, Rhs Node
}

func (n *Logical) String() string {
	return fmt.Sprintf("%s %s %s", n.Lhs, OpName(n.Op), n.Rhs)
}

// Unary is a `not` over a subexpression.
type Unary struct {
	Op  int
	Opd Node
}

func (n *Unary) String() string {
	return fmt.Sprintf("%s %s", OpName(n.Op), n.Opd)
}

// Modified is the postfix application of a bracketed modifier to an operand.
type Modified struct {
	Opd Node
	Mod Node
}

func (n *Modified) String() string {
	return fmt.Sprintf("%s[%s]", n.Opd, n.Mod)
}

// Condition is a `key op value` leaf inside a modifier.  Key and Value are kept as raw text;
// conversion to the type a particular key requires happens during evaluation.
type Condition struct {
	Key   string
	Op    int
	Value string
}

func (n *Condition) String() string {
	return fmt.Sprintf("%s %s %s", n.Key, OpName(n.Op), n.Value)
}
