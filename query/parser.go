// Recursive-descent parser for the query language.
//
// A query is an expression over gene names and whole-query keywords:
//
//	expr     ::= or_expr
//	or_expr  ::= and_expr ("or" and_expr)*
//	and_expr ::= not_expr ("and" not_expr)*
//	not_expr ::= "not" not_expr | modified
//	modified ::= atom ("[" mod_expr "]")*
//	atom     ::= NAME | "(" expr ")"
//
// and a modifier body is the same boolean grammar over conditions:
//
//	mod_expr ::= mod_or
//	mod_or   ::= mod_and ("or" mod_and)*
//	mod_and  ::= mod_not ("and" mod_not)*
//	mod_not  ::= "not" mod_not | mod_atom
//	mod_atom ::= KEY op VALUE | "(" mod_expr ")"
//	op       ::= "=" | "!=" | "<" | "<=" | ">" | ">="
//
// Keywords are case-insensitive.  The entire input must be consumed; trailing text is a syntax
// error.

package query

import (
	"fmt"
)

type SyntaxError struct {
	Msg string
	Pos int
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("Syntax error at position %d: %s", e.Pos, e.Msg)
}

type parser struct {
	input  string
	i      int    // scan position
	tok    int    // current token
	text   string // payload of tIdent and tString
	tokPos int    // start position of the current token
	err    *SyntaxError
}

// Parse parses a complete query and returns its expression tree.  The error, if any, is a
// *SyntaxError.
func Parse(text string) (Node, error) {
	p := &parser{input: text}
	p.advance()
	n, err := p.orExpr()
	if err != nil {
		return nil, err
	}
	if p.tok != tEnd {
		return nil, p.syntax("Trailing text after expression")
	}
	return n, nil
}

// Validate checks query syntax without evaluating anything.
func Validate(text string) error {
	_, err := Parse(text)
	return err
}

func (p *parser) advance() {
	p.text = ""
	p.tok = p.lex()
}

func (p *parser) fail(pos int, msg string) {
	if p.err == nil {
		p.err = &SyntaxError{Msg: msg, Pos: pos}
	}
}

func (p *parser) syntax(msg string) error {
	// A lexing error is more precise than whatever the grammar has to say about the tErr token.
	if p.err != nil {
		return p.err
	}
	return &SyntaxError{Msg: msg, Pos: p.tokPos}
}

func (p *parser) orExpr() (Node, error) {
	n, err := p.andExpr()
	if err != nil {
		return nil, err
	}
	for p.tok == tOr {
		p.advance()
		rhs, err := p.andExpr()
		if err != nil {
			return nil, err
		}
		n = &Logical{Op: OpOr, Lhs: n, Rhs: rhs}
	}
	return n, nil
}

func (p *parser) andExpr() (Node, error) {
	n, err := p.notExpr()
	if err != nil {
		return nil, err
	}
	for p.tok == tAnd {
		p.advance()
		rhs, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		n = &Logical{Op: OpAnd, Lhs: n, Rhs: rhs}
	}
	return n, nil
}

func (p *parser) notExpr() (Node, error) {
	if p.tok == tNot {
		p.advance()
		opd, err := p.notExpr()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, Opd: opd}, nil
	}
	return p.modified()
}

func (p *parser) modified() (Node, error) {
	n, err := p.atom()
	if err != nil {
		return nil, err
	}
	for p.tok == tLbracket {
		p.advance()
		if p.tok == tRbracket {
			return nil, p.syntax("Empty modifier")
		}
		mod, err := p.modOr()
		if err != nil {
			return nil, err
		}
		if p.tok != tRbracket {
			return nil, p.syntax("Expected ']' to close modifier")
		}
		p.advance()
		n = &Modified{Opd: n, Mod: mod}
	}
	return n, nil
}

func (p *parser) atom() (Node, error) {
	switch p.tok {
	case tIdent:
		n := &Gene{Name: p.text}
		p.advance()
		return n, nil
	case tLparen:
		p.advance()
		n, err := p.orExpr()
		if err != nil {
			return nil, err
		}
		if p.tok != tRparen {
			return nil, p.syntax("Expected ')'")
		}
		p.advance()
		return n, nil
	default:
		return nil, p.syntax("Expected gene name or '('")
	}
}

func (p *parser) modOr() (Node, error) {
	n, err := p.modAnd()
	if err != nil {
		return nil, err
	}
	for p.tok == tOr {
		p.advance()
		rhs, err := p.modAnd()
		if err != nil {
			return nil, err
		}
		n = &Logical{Op: OpOr, Lhs: n, Rhs: rhs}
	}
	return n, nil
}

func (p *parser) modAnd() (Node, error) {
	n, err := p.modNot()
	if err != nil {
		return nil, err
	}
	for p.tok == tAnd {
		p.advance()
		rhs, err := p.modNot()
		if err != nil {
			return nil, err
		}
		n = &Logical{Op: OpAnd, Lhs: n, Rhs: rhs}
	}
	return n, nil
}

func (p *parser) modNot() (Node, error) {
	if p.tok == tNot {
		p.advance()
		opd, err := p.modNot()
		if err != nil {
			return nil, err
		}
		return &Unary{Op: OpNot, Opd: opd}, nil
	}
	return p.modAtom()
}

func (p *parser) modAtom() (Node, error) {
	if p.tok == tLparen {
		p.advance()
		n, err := p.modOr()
		if err != nil {
			return nil, err
		}
		if p.tok != tRparen {
			return nil, p.syntax("Expected ')'")
		}
		p.advance()
		return n, nil
	}
	if p.tok != tIdent && p.tok != tString {
		return nil, p.syntax("Expected condition key")
	}
	key := p.text
	p.advance()
	var op int
	switch p.tok {
	case tEq:
		op = OpEq
	case tNe:
		op = OpNe
	case tLt:
		op = OpLt
	case tLe:
		op = OpLe
	case tGt:
		op = OpGt
	case tGe:
		op = OpGe
	default:
		return nil, p.syntax("Expected comparison operator in condition")
	}
	p.advance()
	if p.tok != tIdent && p.tok != tString {
		return nil, p.syntax("Expected condition value")
	}
	value := p.text
	p.advance()
	return &Condition{Key: key, Op: op, Value: value}, nil
}
