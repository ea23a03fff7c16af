// Deterministic column reordering for the final result: transcription factors with the most edges
// first, and within a TF the analyses with the most edges first.  Attribute columns keep their
// relative order inside a column-group.  Ties are broken on the label so that the final order does
// not depend on the order in which columns were produced.

package frame

import (
	"sort"
)

func (f *Frame) Reorder() *Frame {
	analysisCount := make(map[string]int)
	tfCount := make(map[string]int)
	for _, c := range f.cols {
		n := f.ColumnEdgeCount(c)
		analysisCount[c.Analysis] += n
		tfCount[c.TF] += n
	}

	cols := make([]ColKey, len(f.cols))
	copy(cols, f.cols)

	// Secondary key first, then a stable sort on the primary key, so that analyses are ordered
	// within each TF block.
	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if analysisCount[a.Analysis] != analysisCount[b.Analysis] {
			return analysisCount[a.Analysis] > analysisCount[b.Analysis]
		}
		return a.Analysis < b.Analysis
	})
	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if tfCount[a.TF] != tfCount[b.TF] {
			return tfCount[a.TF] > tfCount[b.TF]
		}
		return a.TF < b.TF
	})

	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, r := range f.rows {
		g.AddRow(r)
	}
	for _, c := range cols {
		g.AddColumn(c)
	}
	for k, v := range f.cells {
		g.cells[k] = v
	}
	return g
}

// SortRowsBy reorders rows by a caller-supplied comparison, stably.
func (f *Frame) SortRowsBy(less func(a, b string) bool) *Frame {
	rows := make([]string, len(f.rows))
	copy(rows, f.rows)
	sort.SliceStable(rows, func(i, j int) bool { return less(rows[i], rows[j]) })

	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, r := range rows {
		g.AddRow(r)
	}
	for _, c := range f.cols {
		g.AddColumn(c)
	}
	for k, v := range f.cells {
		g.cells[k] = v
	}
	return g
}
