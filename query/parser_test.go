package query

import (
	"strings"
	"testing"
)

func TestParserBasic(t *testing.T) {
	// Bare gene
	n, err := Parse(`AT1G01010`)
	assertNotErr(t, err)
	g := n.(*Gene)
	assertEq(t, g.Name, "AT1G01010")

	// Gene names may carry the usual identifier punctuation
	n, err = Parse(`orf19.5908`)
	assertNotErr(t, err)
	assertEq(t, n.(*Gene).Name, "orf19.5908")

	// andalltfs is an ordinary atom at this level
	n, err = Parse(`AndAllTFs`)
	assertNotErr(t, err)
	assertEq(t, n.(*Gene).Name, "AndAllTFs")

	// and binds tighter than or
	n, err = Parse(`a or b and c`)
	assertNotErr(t, err)
	log := n.(*Logical)
	assertEq(t, log.Op, OpOr)
	rhs := log.Rhs.(*Logical)
	assertEq(t, rhs.Op, OpAnd)

	// same, mirrored
	n, err = Parse(`a and b or c`)
	assertNotErr(t, err)
	log = n.(*Logical)
	assertEq(t, log.Op, OpOr)
	lhs := log.Lhs.(*Logical)
	assertEq(t, lhs.Op, OpAnd)

	// not binds tighter than and
	n, err = Parse(`not a and b`)
	assertNotErr(t, err)
	log = n.(*Logical)
	assertEq(t, log.Op, OpAnd)
	un := log.Lhs.(*Unary)
	assertEq(t, un.Op, OpNot)
	assertEq(t, un.Opd.(*Gene).Name, "a")

	// parens override precedence
	n, err = Parse(`not (a and b)`)
	assertNotErr(t, err)
	un = n.(*Unary)
	_ = un.Opd.(*Logical)

	// keywords are case-insensitive
	n, err = Parse(`a AND NOT b OR c`)
	assertNotErr(t, err)
	log = n.(*Logical)
	assertEq(t, log.Op, OpOr)
}

func TestParserModifier(t *testing.T) {
	n, err := Parse(`AT1G01010[pvalue < 0.05]`)
	assertNotErr(t, err)
	m := n.(*Modified)
	assertEq(t, m.Opd.(*Gene).Name, "AT1G01010")
	c := m.Mod.(*Condition)
	assertEq(t, c.Key, "pvalue")
	assertEq(t, c.Op, OpLt)
	assertEq(t, c.Value, "0.05")

	// Modifier application binds tighter than not
	n, err = Parse(`not a[fc >= 1.5]`)
	assertNotErr(t, err)
	un := n.(*Unary)
	_ = un.Opd.(*Modified)

	// Modifier bodies support and/or/not and quoted values
	n, err = Parse(`a[pvalue<0.05 and not edge_type = "ampDAP-seq"]`)
	assertNotErr(t, err)
	m = n.(*Modified)
	log := m.Mod.(*Logical)
	assertEq(t, log.Op, OpAnd)
	c = log.Rhs.(*Unary).Opd.(*Condition)
	assertEq(t, c.Key, "edge_type")
	assertEq(t, c.Op, OpEq)
	assertEq(t, c.Value, "ampDAP-seq")

	// Backslash escapes in quoted values
	n, err = Parse(`a[name = "say \"hi\""]`)
	assertNotErr(t, err)
	c = n.(*Modified).Mod.(*Condition)
	assertEq(t, c.Value, `say "hi"`)

	// Repeated modifiers stack
	n, err = Parse(`a[pvalue<0.05][fc>1]`)
	assertNotErr(t, err)
	m = n.(*Modified)
	_ = m.Opd.(*Modified)

	// All six comparison operators
	for text, op := range map[string]int{
		"a[k = v]":  OpEq,
		"a[k != v]": OpNe,
		"a[k < v]":  OpLt,
		"a[k <= v]": OpLe,
		"a[k > v]":  OpGt,
		"a[k >= v]": OpGe,
	} {
		n, err = Parse(text)
		assertNotErr(t, err)
		assertEq(t, n.(*Modified).Mod.(*Condition).Op, op)
	}
}

func TestParserTrace(t *testing.T) {
	// The rendering of parsed fragments is what ends up in filter traces.
	n, err := Parse(`a[pvalue < 0.05 and fc > 1]`)
	assertNotErr(t, err)
	assertEq(t, n.(*Modified).Mod.String(), "pvalue < 0.05 and fc > 1")

	n, err = Parse(`not a and b`)
	assertNotErr(t, err)
	assertEq(t, n.String(), "not a and b")
}

func TestParserErr(t *testing.T) {
	// Unbalanced brackets
	assertSyntaxErr(t, `a[pvalue<0.05`, "']'")
	assertSyntaxErr(t, `(a and b`, "')'")

	// Empty modifier body
	assertSyntaxErr(t, `a[]`, "Empty modifier")

	// Operator with missing operand
	assertSyntaxErr(t, `a and`, "Expected gene name")
	assertSyntaxErr(t, `a and b or`, "Expected gene name")
	assertSyntaxErr(t, `not`, "Expected gene name")
	assertSyntaxErr(t, `a[pvalue<]`, "condition value")
	assertSyntaxErr(t, `a[pvalue 0.05]`, "comparison operator")

	// Unterminated quoted string
	assertSyntaxErr(t, `a[k = "oops]`, "End of input in string")

	// Trailing garbage: the whole input must be consumed
	assertSyntaxErr(t, `a b`, "Trailing text")
	assertSyntaxErr(t, `a)`, "Trailing text")

	// Lex error bubbles up
	assertSyntaxErr(t, `a & b`, "Unexpected character")
	assertSyntaxErr(t, `a ! b`, "Expected '='")

	// '+' is not a name character; positive-exponent numbers must be quoted
	assertSyntaxErr(t, `a + b`, "Unexpected character")
	assertSyntaxErr(t, `a[fc > 1e+3]`, "Unexpected character")

	// Empty input
	assertSyntaxErr(t, ``, "Expected gene name")
}

func TestValidate(t *testing.T) {
	assertNotErr(t, Validate(`AT1G01010 and not AT2G22200[pvalue<0.05]`))
	err := Validate(`a or`)
	if err == nil {
		t.Fatal("Should have failed")
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("Expected *SyntaxError, got %T", err)
	}
}

func assertSyntaxErr(t *testing.T, input, msg string) {
	t.Helper()
	_, err := Parse(input)
	if err == nil {
		t.Fatalf("Should have failed but did not: `%s`", input)
	}
	if _, ok := err.(*SyntaxError); !ok {
		t.Fatalf("Expected *SyntaxError, got %T", err)
	}
	if !strings.Contains(err.Error(), msg) {
		t.Fatalf("Message should contain %s but did not: `%s`", msg, err.Error())
	}
}

func assertEq[T comparable](t *testing.T, a, b T) {
	t.Helper()
	if a != b {
		t.Fatalf("Unequal: %v %v", a, b)
	}
}

func assertNotErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
