package engine

import (
	"context"
	"errors"
	"strings"
	"testing"

	"querytgdb/db"
	"querytgdb/frame"
)

// Two transcription factors.  TF1 has one expression analysis with p-values and fold-changes;
// TF2 has a binding and an expression analysis, both without regulation data, so TF2's columns
// carry the '+' marker.  TF2 spans two experiment types and is therefore the only multitype TF.
func testSource() *db.MemSource {
	return &db.MemSource{
		AnalysisRecords: []db.Analysis{
			{ID: 1, TF: "TF1", TFName: "ONE", Data: map[string]string{
				"EXPERIMENT_TYPE": "Expression", "ANALYSIS_METHOD": "DESeq2"}},
			{ID: 2, TF: "TF2", TFName: "TWO", Data: map[string]string{
				"EXPERIMENT_TYPE": "Binding", "ANALYSIS_METHOD": "GEM"}},
			{ID: 3, TF: "TF2", TFName: "TWO", Data: map[string]string{
				"EXPERIMENT_TYPE": "Expression", "ANALYSIS_METHOD": "DESeq2"}},
		},
		InteractionRecords: []db.Interaction{
			{Analysis: 1, Target: "A"},
			{Analysis: 1, Target: "B"},
			{Analysis: 2, Target: "B"},
			{Analysis: 2, Target: "C"},
			{Analysis: 3, Target: "B"},
			{Analysis: 3, Target: "C"},
			{Analysis: 3, Target: "D"},
		},
		RegulationRecords: []db.Regulation{
			{Analysis: 1, Target: "A", Pvalue: 0.2, Foldchange: 1.5, HasPvalue: true, HasFoldchange: true},
			{Analysis: 1, Target: "B", Pvalue: 0.01, Foldchange: -2.0, HasPvalue: true, HasFoldchange: true},
		},
		EdgeTypeRecords: []db.EdgeType{
			{ID: 1, Name: "Protein", Directional: true},
		},
		EdgeRecords: []db.EdgeRecord{
			{TF: 1, Target: 11, Type: 1},
		},
		AnnotationRecords: []db.GeneAnnotation{
			{ID: 1, Gene: "TF1", FullName: "transcription factor one", Family: "bZIP", Type: "TXNFACTOR", Name: "ONE"},
			{ID: 2, Gene: "TF2", FullName: "transcription factor two", Family: "MYB", Type: "TXNFACTOR", Name: "TWO"},
			{ID: 10, Gene: "A", FullName: "gene a", Family: "unassigned", Type: "protein_coding", Name: "GENA"},
			{ID: 11, Gene: "B", FullName: "gene b", Family: "unassigned", Type: "protein_coding", Name: "GENB"},
			{ID: 12, Gene: "C", FullName: "gene c", Family: "unassigned", Type: "protein_coding", Name: "GENC"},
			{ID: 13, Gene: "D", FullName: "gene d", Family: "unassigned", Type: "protein_coding", Name: "GEND"},
		},
	}
}

func testEngine() *Engine {
	source := testSource()
	return New(source, NewPopulatedCache(source.AnnotationRecords))
}

func eval(t *testing.T, e *Engine, query string) *frame.Frame {
	f, err := e.ParseAndEvaluate(context.Background(), query, nil, nil, nil)
	assertNotErr(t, err)
	return f
}

func assertRows(t *testing.T, f *frame.Frame, rows string) {
	t.Helper()
	assertEq(t, strings.Join(f.Rows(), " "), rows)
}

func assertEmptyResult(t *testing.T, e *Engine, query string) {
	t.Helper()
	_, err := e.ParseAndEvaluate(context.Background(), query, nil, nil, nil)
	var empty *EmptyResultError
	if !errors.As(err, &empty) {
		t.Fatalf("Expected EmptyResultError for %q, got %v", query, err)
	}
}

func TestEvaluateSingleGene(t *testing.T) {
	f := eval(t, testEngine(), "TF1")
	assertRows(t, f, "A B")
	assertEq(t, f.NumColumns(), 2)
	p, found := f.Get("B", frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrPvalue})
	assertEq(t, found, true)
	assertEq(t, p.Num, 0.01)
	// Regulation data supersedes the '+' marker.
	assertEq(t, f.HasColumn(frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrEdge}), false)
}

func TestEvaluateAnd(t *testing.T) {
	f := eval(t, testEngine(), "TF1 and TF2")
	assertRows(t, f, "B")
}

func TestEvaluateOr(t *testing.T) {
	f := eval(t, testEngine(), "TF1 or TF2")
	assertRows(t, f, "A B C D")
	assertEq(t, len(f.Groups()), 3)
}

func TestEvaluateAndNot(t *testing.T) {
	f := eval(t, testEngine(), "TF2 and not TF1")
	assertRows(t, f, "C D")
	assertEq(t, len(f.Groups()), 2)
}

func TestEvaluateOrNot(t *testing.T) {
	// A negative operand loses to the positive one under OR.
	f := eval(t, testEngine(), "TF1 or not TF2")
	assertRows(t, f, "A B")
}

func TestEvaluateDoubleNegation(t *testing.T) {
	a := eval(t, testEngine(), "TF1 and TF2")
	b := eval(t, testEngine(), "TF1 and not (not TF2)")
	assertEq(t, strings.Join(a.Rows(), " "), strings.Join(b.Rows(), " "))
	assertEq(t, a.NumColumns(), b.NumColumns())
}

func TestEvaluateSelfJoinDedups(t *testing.T) {
	one := eval(t, testEngine(), "TF1")
	both := eval(t, testEngine(), "TF1 and TF1")
	assertRows(t, both, "A B")
	assertEq(t, both.NumColumns(), one.NumColumns())
}

func TestEvaluateNegatedQueryFails(t *testing.T) {
	assertEmptyResult(t, testEngine(), "not TF1")
}

func TestEvaluateUnknownGene(t *testing.T) {
	assertEmptyResult(t, testEngine(), "NOSUCHGENE")
}

func TestPvalueModifier(t *testing.T) {
	f := eval(t, testEngine(), "TF1[pvalue < 0.05] and TF2")
	assertRows(t, f, "B")
}

func TestFoldchangeModifier(t *testing.T) {
	f := eval(t, testEngine(), "TF1[fc > 0]")
	assertRows(t, f, "A")
}

func TestModifierMatchingNothing(t *testing.T) {
	// TF2's analyses have no p-value columns at all.
	assertEmptyResult(t, testEngine(), "TF2[pvalue < 0.05]")
}

func TestMetadataModifier(t *testing.T) {
	f := eval(t, testEngine(), "(TF1 or TF2)[EXPERIMENT_TYPE = Binding]")
	assertRows(t, f, "B C")
	assertEq(t, len(f.Groups()), 1)
	assertEq(t, f.Groups()[0].Analysis, "2")
}

func TestHasColumnModifier(t *testing.T) {
	f := eval(t, testEngine(), "TF1[has_column = pvalue]")
	assertRows(t, f, "A B")
	assertEmptyResult(t, testEngine(), "TF2[has_column = pvalue]")
}

func TestAdditionalEdgeModifier(t *testing.T) {
	f := eval(t, testEngine(), "TF1[additional_edge = Protein]")
	assertRows(t, f, "B")
	// An unknown edge-type name matches nothing rather than failing.
	assertEmptyResult(t, testEngine(), "TF1[additional_edge = Bogus]")
}

func TestModifierBoolean(t *testing.T) {
	f := eval(t, testEngine(), "TF1[pvalue < 0.05 or fc > 0]")
	assertRows(t, f, "A B")
	assertEmptyResult(t, testEngine(), "TF1[pvalue < 0.05 and fc > 0]")
}

func TestOrAllTFs(t *testing.T) {
	f := eval(t, testEngine(), "oralltfs")
	assertRows(t, f, "A B C D")
	assertEq(t, len(f.Groups()), 3)
}

func TestAndAllTFs(t *testing.T) {
	// Only B has an edge in every analysis of the store.
	f := eval(t, testEngine(), "andalltfs")
	assertRows(t, f, "B")
}

func TestMultitype(t *testing.T) {
	f := eval(t, testEngine(), "multitype")
	assertRows(t, f, "B C D")
	for _, g := range f.Groups() {
		assertEq(t, g.TF, "TF2")
	}
}

func TestTFAllowList(t *testing.T) {
	e := testEngine()
	f, err := e.ParseAndEvaluate(context.Background(), "TF1 or TF2", nil, []string{"tf2"}, nil)
	assertNotErr(t, err)
	assertRows(t, f, "B C D")
	for _, g := range f.Groups() {
		assertEq(t, g.TF, "TF2")
	}
}

func TestTargetAllowList(t *testing.T) {
	e := testEngine()
	f, err := e.ParseAndEvaluate(context.Background(), "TF1 or TF2", nil, nil, []string{"B"})
	assertNotErr(t, err)
	assertRows(t, f, "B")
}

func TestEdgeTypeAugmentation(t *testing.T) {
	e := testEngine()
	f, err := e.ParseAndEvaluate(context.Background(), "TF1", []string{"Protein"}, nil, nil)
	assertNotErr(t, err)
	v, found := f.Get("B", frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrAddEdges})
	assertEq(t, found, true)
	assertEq(t, v.Str, "Protein")
	assertEq(t, f.Has("A", frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrAddEdges}), false)
}

func TestUnregulatedTargetKeepsItsRow(t *testing.T) {
	source := testSource()
	// Drop B's regulation record: its interaction alone must keep it in TF1's row set, with no
	// statistic cells.
	source.RegulationRecords = source.RegulationRecords[:1]
	e := New(source, NewPopulatedCache(source.AnnotationRecords))

	f := eval(t, e, "TF1")
	assertRows(t, f, "A B")
	assertEq(t, f.Has("B", frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrPvalue}), false)
	assertEq(t, f.Has("B", frame.ColKey{TF: "TF1", Analysis: "1", Attr: frame.AttrEdge}), false)

	// And the row participates in the boolean algebra.
	assertRows(t, eval(t, e, "TF1 and TF2"), "B")

	// Same in the all-TFs fetch path.
	g, err := e.ParseAndEvaluate(context.Background(), "oralltfs", nil, []string{"TF1"}, nil)
	assertNotErr(t, err)
	assertRows(t, g, "A B")
}

func TestDoubleNegativeOperands(t *testing.T) {
	// Two excluded operands under OR intersect their row sets and stay excluded, so subtracting
	// the result removes only the genes every operand excludes.
	f := eval(t, testEngine(), "TF2 and (not TF1 or not TF2)")
	assertRows(t, f, "C D")
	// Under AND they union, excluding everything here.
	assertEmptyResult(t, testEngine(), "TF2 and (not TF1 and not TF2)")
}

func TestReorderPutsBusiestTFFirst(t *testing.T) {
	f := eval(t, testEngine(), "TF1 or TF2")
	// TF2 has more edges than TF1, so its column-groups lead.
	assertEq(t, f.Groups()[0].TF, "TF2")
}

func assertEq[T comparable](t *testing.T, a, b T) {
	t.Helper()
	if a != b {
		t.Fatalf("%v != %v", a, b)
	}
}

func assertNotErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
