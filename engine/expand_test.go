package engine

import (
	"context"
	"strings"
	"testing"

	"querytgdb/frame"
)

func TestExpandAnalysisIds(t *testing.T) {
	e := testEngine()
	f := eval(t, e, "TF1")
	expanded, err := e.ExpandAnalysisIds(context.Background(), f)
	assertNotErr(t, err)
	assertEq(t, len(expanded.Groups()), 1)
	label := expanded.Groups()[0].Analysis
	assertEq(t, label, "TF1 ONE Expression DESeq2 (1)")
	// Same shape, only the labels change.
	assertEq(t, expanded.NumRows(), f.NumRows())
	assertEq(t, expanded.NumColumns(), f.NumColumns())
}

func TestExpandKeepsFilterSuffix(t *testing.T) {
	e := testEngine()
	f := eval(t, e, "TF1 and TF1")
	// Force a suffixed label the way colliding joins produce them.
	g := f.RenameColumns(func(c frame.ColKey) frame.ColKey {
		c.Analysis += ` "TF1" deadbeef`
		return c
	})
	expanded, err := e.ExpandAnalysisIds(context.Background(), g)
	assertNotErr(t, err)
	label := expanded.Groups()[0].Analysis
	if !strings.HasPrefix(label, "TF1 ONE Expression DESeq2 (1)") || !strings.HasSuffix(label, "deadbeef") {
		t.Fatalf("Suffix not preserved: %q", label)
	}
}

func TestExpandTwiceFails(t *testing.T) {
	e := testEngine()
	f := eval(t, e, "TF1")
	expanded, err := e.ExpandAnalysisIds(context.Background(), f)
	assertNotErr(t, err)
	if _, err := e.ExpandAnalysisIds(context.Background(), expanded); err == nil {
		t.Fatal("Expected an error expanding twice")
	}
}
