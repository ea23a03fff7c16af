package frame

import (
	"testing"
)

func col(tf, an, attr string) ColKey {
	return ColKey{TF: tf, Analysis: an, Attr: attr}
}

func TestFrameBasics(t *testing.T) {
	f := New()
	if !f.Empty() {
		t.Fatal("New frame should be empty")
	}
	f.Set("AT1G01010", col("tf1", "1", AttrEdge), Str("+"))
	f.Set("AT1G01010", col("tf1", "1", AttrPvalue), Num(0.01))
	f.Set("AT2G17550", col("tf1", "1", AttrEdge), Str("+"))

	assertEq(t, f.NumRows(), 2)
	assertEq(t, f.NumColumns(), 2)
	assertEq(t, f.Size(), 4)
	if f.Empty() {
		t.Fatal("Should not be empty")
	}

	v, found := f.Get("AT1G01010", col("tf1", "1", AttrPvalue))
	if !found || !v.IsNum || v.Num != 0.01 {
		t.Fatalf("Bad cell: %v %v", v, found)
	}
	if f.Has("AT2G17550", col("tf1", "1", AttrPvalue)) {
		t.Fatal("Cell should be absent")
	}

	// Insertion is idempotent per id
	f.AddRow("AT1G01010")
	f.AddColumn(col("tf1", "1", AttrEdge))
	assertEq(t, f.NumRows(), 2)
	assertEq(t, f.NumColumns(), 2)

	groups := f.Groups()
	assertEq(t, len(groups), 1)
	assertEq(t, groups[0], Group{TF: "tf1", Analysis: "1"})
	assertEq(t, len(f.GroupColumns(groups[0])), 2)
}

func TestAnalysisID(t *testing.T) {
	id, ok := AnalysisID("17")
	if !ok || id != 17 {
		t.Fatalf("Bad id: %d %v", id, ok)
	}
	id, ok = AnalysisID(`17 "tf1[pvalue < 0.05]" deadbeef`)
	if !ok || id != 17 {
		t.Fatalf("Bad suffixed id: %d %v", id, ok)
	}
	if _, ok := AnalysisID("ANR1 DAP-seq"); ok {
		t.Fatal("Expanded label should not parse as id")
	}
}

func TestWithoutRows(t *testing.T) {
	a := New()
	a.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	a.Set("g2", col("tf1", "1", AttrEdge), Str("+"))
	a.Set("g3", col("tf1", "1", AttrEdge), Str("+"))
	b := New()
	b.Set("g2", col("tf2", "2", AttrEdge), Str("+"))

	d := a.WithoutRows(b)
	assertEq(t, d.NumRows(), 2)
	if d.HasRow("g2") {
		t.Fatal("g2 should have been removed")
	}
	assertEq(t, d.NumColumns(), 1)
}

func TestInnerJoin(t *testing.T) {
	a := New()
	a.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	a.Set("g2", col("tf1", "1", AttrEdge), Str("+"))
	b := New()
	b.Set("g2", col("tf2", "2", AttrFC), Num(1.5))
	b.Set("g3", col("tf2", "2", AttrFC), Num(-2))

	j := InnerJoin(a, b, " sa", " sb")
	assertEq(t, j.NumRows(), 1)
	assertEq(t, j.Rows()[0], "g2")
	assertEq(t, j.NumColumns(), 2)
	if !j.Has("g2", col("tf1", "1", AttrEdge)) || !j.Has("g2", col("tf2", "2", AttrFC)) {
		t.Fatal("Joined cells missing")
	}
}

func TestJoinDedupsIdenticalColumns(t *testing.T) {
	// Same TF on both sides with identical content: columns must not duplicate.
	a := New()
	a.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	a.Set("g2", col("tf1", "1", AttrEdge), Str("+"))
	b := a.Clone()

	j := InnerJoin(a, b, " sa", " sb")
	assertEq(t, j.NumRows(), 2)
	assertEq(t, j.NumColumns(), 1)
	assertEq(t, j.Columns()[0], col("tf1", "1", AttrEdge))
}

func TestJoinSuffixesConflictingColumns(t *testing.T) {
	// Same label, different content: both sides kept, disambiguated.
	a := New()
	a.Set("g1", col("tf1", "1", AttrFC), Num(1))
	a.Set("g2", col("tf1", "1", AttrFC), Num(2))
	b := New()
	b.Set("g1", col("tf1", "1", AttrFC), Num(9))
	b.Set("g2", col("tf1", "1", AttrFC), Num(2))

	j := InnerJoin(a, b, ` "left" x`, ` "right" y`)
	assertEq(t, j.NumColumns(), 2)
	va, _ := j.Get("g1", col("tf1", `1 "left" x`, AttrFC))
	vb, _ := j.Get("g1", col("tf1", `1 "right" y`, AttrFC))
	assertEq(t, va.Num, 1.0)
	assertEq(t, vb.Num, 9.0)
}

func TestOuterJoin(t *testing.T) {
	a := New()
	a.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	b := New()
	b.Set("g2", col("tf2", "2", AttrEdge), Str("+"))

	j := OuterJoin(a, b, " sa", " sb")
	assertEq(t, j.NumRows(), 2)
	assertEq(t, j.NumColumns(), 2)
	if !j.Has("g1", col("tf1", "1", AttrEdge)) || !j.Has("g2", col("tf2", "2", AttrEdge)) {
		t.Fatal("Cells missing after outer join")
	}
	if j.Has("g2", col("tf1", "1", AttrEdge)) {
		t.Fatal("Absent cell materialized")
	}

	// Identical shared column merges across disjoint row sets.
	c := New()
	c.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	c.Set("g3", col("tf1", "1", AttrEdge), Str("+"))
	j = OuterJoin(a, c, " sa", " sb")
	// g1 agrees on both sides; g3 only on the right, so content differs and the
	// label is disambiguated.
	assertEq(t, j.NumRows(), 2)
	assertEq(t, j.NumColumns(), 2)
}

func TestMask(t *testing.T) {
	f := New()
	f.Set("g1", col("tf1", "1", AttrPvalue), Num(0.01))
	f.Set("g2", col("tf1", "1", AttrPvalue), Num(0.2))
	f.Set("g1", col("tf1", "1", AttrFC), Num(1))
	f.Set("g2", col("tf1", "1", AttrFC), Num(2))

	m := NewMask(f, false)
	m.SetGroupRow(Group{TF: "tf1", Analysis: "1"}, "g1", true)
	if !m.Get("g1", col("tf1", "1", AttrPvalue)) || !m.Get("g1", col("tf1", "1", AttrFC)) {
		t.Fatal("Group row not set")
	}
	if m.Get("g2", col("tf1", "1", AttrPvalue)) {
		t.Fatal("Unset bit is true")
	}

	n := m.Not()
	if n.Get("g1", col("tf1", "1", AttrPvalue)) || !n.Get("g2", col("tf1", "1", AttrPvalue)) {
		t.Fatal("Not is wrong")
	}
	both := m.Or(n)
	neither := m.And(n)
	if !both.Get("g2", col("tf1", "1", AttrFC)) || neither.Get("g1", col("tf1", "1", AttrFC)) {
		t.Fatal("And/Or are wrong")
	}

	applied := f.ApplyMask(m)
	if !applied.Has("g1", col("tf1", "1", AttrPvalue)) || applied.Has("g2", col("tf1", "1", AttrPvalue)) {
		t.Fatal("ApplyMask is wrong")
	}
	pruned := applied.DropEmptyRows()
	assertEq(t, pruned.NumRows(), 1)
}

func TestDropEmptyColumnGroups(t *testing.T) {
	f := New()
	f.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	f.AddColumn(col("tf2", "2", AttrEdge))
	f.AddColumn(col("tf2", "2", AttrPvalue))

	g := f.DropEmptyColumnGroups()
	assertEq(t, g.NumColumns(), 1)
	assertEq(t, g.Columns()[0].TF, "tf1")
	assertEq(t, g.NumRows(), 1)
}

func TestReorderDeterministic(t *testing.T) {
	build := func(reversed bool) *Frame {
		cols := []ColKey{
			col("tf1", "1", AttrEdge), // 1 edge
			col("tf2", "2", AttrEdge), // 3 edges
			col("tf3", "3", AttrEdge), // 2 edges
		}
		rows := []string{"g1", "g2", "g3"}
		f := New()
		order := []int{0, 1, 2}
		if reversed {
			order = []int{2, 1, 0}
		}
		for _, i := range order {
			switch i {
			case 0:
				f.Set("g1", cols[0], Str("+"))
			case 1:
				for _, r := range rows {
					f.Set(r, cols[1], Str("+"))
				}
			case 2:
				f.Set("g1", cols[2], Str("+"))
				f.Set("g2", cols[2], Str("+"))
			}
		}
		return f
	}

	a := build(false).Reorder()
	b := build(true).Reorder()
	assertEq(t, len(a.Columns()), len(b.Columns()))
	for i := range a.Columns() {
		assertEq(t, a.Columns()[i], b.Columns()[i])
	}
	// Most edges first
	assertEq(t, a.Columns()[0].TF, "tf2")
	assertEq(t, a.Columns()[1].TF, "tf3")
	assertEq(t, a.Columns()[2].TF, "tf1")
}

func TestCounts(t *testing.T) {
	f := New()
	f.Set("g1", col("tf1", "1", AttrEdge), Str("+"))
	f.Set("g1", col("tf2", "2", AttrFC), Num(1))
	f.Set("g1", col("tf2", "2", AttrPvalue), Num(0.1)) // not an edge attr
	f.Set("g2", col("tf2", "2", AttrFC), Num(2))

	assertEq(t, f.RowEdgeCount("g1"), 2)
	assertEq(t, f.RowEdgeCount("g2"), 1)
	assertEq(t, f.GroupEdgeCount(Group{TF: "tf2", Analysis: "2"}), 2)
	assertEq(t, f.ColumnEdgeCount(col("tf2", "2", AttrPvalue)), 0)
}

func assertEq[T comparable](t *testing.T, a, b T) {
	t.Helper()
	if a != b {
		t.Fatalf("Unequal: %v %v", a, b)
	}
}
