// Joins on the row index.  The evaluator's AND/OR truth table reduces to an inner join
// (intersection of target genes), an outer join (union), or a row difference (WithoutRows, in
// frame.go).
//
// Columns come from both operands.  A column label occurring on both sides is kept once when the
// two sides agree on every joined cell -- this is what keeps `gene1 and gene1` from duplicating
// columns -- and is otherwise disambiguated by suffixing each side's analysis label with that
// side's filter string and a uniqueness token.

package frame

// InnerJoin joins on the intersection of the row sets, in the left operand's row order.
func InnerJoin(a, b *Frame, sufA, sufB string) *Frame {
	rows := make([]string, 0, len(a.rows))
	for _, r := range a.rows {
		if b.HasRow(r) {
			rows = append(rows, r)
		}
	}
	return join(a, b, rows, sufA, sufB)
}

// OuterJoin joins on the union of the row sets: the left operand's rows in order, then the right
// operand's rows not already present.
func OuterJoin(a, b *Frame, sufA, sufB string) *Frame {
	rows := make([]string, 0, len(a.rows)+len(b.rows))
	rows = append(rows, a.rows...)
	for _, r := range b.rows {
		if !a.HasRow(r) {
			rows = append(rows, r)
		}
	}
	return join(a, b, rows, sufA, sufB)
}

func join(a, b *Frame, rows []string, sufA, sufB string) *Frame {
	// Classify colliding column labels: identical content merges, the rest get suffixed.
	identical := make(map[ColKey]bool)
	collide := make(map[ColKey]bool)
	for _, c := range a.cols {
		if !b.HasColumn(c) {
			continue
		}
		collide[c] = true
		same := true
		for _, r := range rows {
			va, fa := a.Get(r, c)
			vb, fb := b.Get(r, c)
			if fa != fb || (fa && !va.Equal(vb)) {
				same = false
				break
			}
		}
		identical[c] = same
	}

	suffixed := func(c ColKey, suf string) ColKey {
		c.Analysis += suf
		return c
	}

	g := New()
	for _, r := range rows {
		g.AddRow(r)
	}
	copySide := func(src, other *Frame, suf string, first bool) {
		for _, c := range src.cols {
			out := c
			if collide[c] {
				if identical[c] {
					if !first {
						continue // emitted once, from the left side
					}
				} else {
					out = suffixed(c, suf)
				}
			}
			g.AddColumn(out)
			for _, r := range rows {
				if v, found := src.Get(r, c); found {
					g.cells[coord{r, out}] = v
				} else if first && collide[c] && identical[c] {
					// Outer join: the row may exist only on the other side.
					if v, found := other.Get(r, c); found {
						g.cells[coord{r, out}] = v
					}
				}
			}
		}
	}
	copySide(a, b, sufA, true)
	copySide(b, a, sufB, false)
	return g
}
