// Byte-level scanner for the query language.  See parser.go for the grammar.

package query

import (
	"fmt"
	"strings"
)

const (
	tEnd = iota
	tErr
	tIdent
	tString
	tEq
	tNe
	tLt
	tLe
	tGt
	tGe
	tAnd
	tOr
	tNot
	tLparen
	tRparen
	tLbracket
	tRbracket
)

func (p *parser) lex() int {
Again:
	if p.i >= len(p.input) {
		return tEnd
	}
	start := p.i
	p.tokPos = start
	c := p.input[start]
	p.i++
	switch c {
	case ' ', '\t', '\r', '\n':
		goto Again
	case '<':
		if p.i < len(p.input) && p.input[p.i] == '=' {
			p.i++
			return tLe
		}
		return tLt
	case '>':
		if p.i < len(p.input) && p.input[p.i] == '=' {
			p.i++
			return tGe
		}
		return tGt
	case '=':
		return tEq
	case '!':
		if p.i < len(p.input) && p.input[p.i] == '=' {
			p.i++
			return tNe
		}
		p.fail(start, "Expected '=' after '!'")
		return tErr
	case '(':
		return tLparen
	case ')':
		return tRparen
	case '[':
		return tLbracket
	case ']':
		return tRbracket
	case '"', '\'':
		var b strings.Builder
		for p.i < len(p.input) && p.input[p.i] != c {
			if p.input[p.i] == '\\' && p.i+1 < len(p.input) {
				p.i++
			}
			b.WriteByte(p.input[p.i])
			p.i++
		}
		if p.i == len(p.input) {
			p.fail(start, "End of input in string")
			return tErr
		}
		p.i++
		p.text = b.String()
		return tString
	default:
		if isNameChar(c) {
			for p.i < len(p.input) && isNameChar(p.input[p.i]) {
				p.i++
			}
			p.text = p.input[start:p.i]
			switch {
			case strings.EqualFold(p.text, "and"):
				return tAnd
			case strings.EqualFold(p.text, "or"):
				return tOr
			case strings.EqualFold(p.text, "not"):
				return tNot
			default:
				return tIdent
			}
		}
		p.fail(start, fmt.Sprintf("Unexpected character '%c'", c))
		return tErr
	}
}

// Gene names and condition keys/values: letters, digits, and the punctuation that occurs in gene
// and analysis identifiers.  Numeric literals (including signed exponent forms like 1.5e-3) are
// covered by the same token class and converted later, by the consumer that needs a number.
func isNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' ||
		c == '_' || c == '.' || c == ':' || c == '-'
}
