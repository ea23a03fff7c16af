// Boolean masks over a frame's shape.  A mask is always created against a specific frame and the
// elementwise combinators require operands of the same shape; the modifier evaluator guarantees
// this since every sub-mask of one modifier expression is built against the same frame.

package frame

type Mask struct {
	rows  []string
	cols  []ColKey
	rowIx map[string]int
	colIx map[ColKey]int
	bits  []bool
}

func NewMask(f *Frame, initial bool) *Mask {
	m := &Mask{
		rows:  f.rows,
		cols:  f.cols,
		rowIx: f.rowIx,
		colIx: f.colIx,
		bits:  make([]bool, len(f.rows)*len(f.cols)),
	}
	if initial {
		for i := range m.bits {
			m.bits[i] = true
		}
	}
	return m
}

func (m *Mask) ix(row string, col ColKey) (int, bool) {
	r, found := m.rowIx[row]
	if !found {
		return 0, false
	}
	c, found := m.colIx[col]
	if !found {
		return 0, false
	}
	return r*len(m.cols) + c, true
}

func (m *Mask) Get(row string, col ColKey) bool {
	if i, found := m.ix(row, col); found {
		return m.bits[i]
	}
	return false
}

func (m *Mask) Set(row string, col ColKey, v bool) {
	if i, found := m.ix(row, col); found {
		m.bits[i] = v
	}
}

// SetGroupRow sets every column of a column-group at one row.
func (m *Mask) SetGroupRow(g Group, row string, v bool) {
	for _, c := range m.cols {
		if c.Group() == g {
			m.Set(row, c, v)
		}
	}
}

// SetGroup sets every cell of a column-group.
func (m *Mask) SetGroup(g Group, v bool) {
	for ci, c := range m.cols {
		if c.Group() != g {
			continue
		}
		for ri := range m.rows {
			m.bits[ri*len(m.cols)+ci] = v
		}
	}
}

func (m *Mask) sameShape(n *Mask) {
	if len(m.bits) != len(n.bits) || len(m.cols) != len(n.cols) {
		panic("Mask shape mismatch")
	}
}

func (m *Mask) And(n *Mask) *Mask {
	m.sameShape(n)
	r := &Mask{rows: m.rows, cols: m.cols, rowIx: m.rowIx, colIx: m.colIx, bits: make([]bool, len(m.bits))}
	for i := range m.bits {
		r.bits[i] = m.bits[i] && n.bits[i]
	}
	return r
}

func (m *Mask) Or(n *Mask) *Mask {
	m.sameShape(n)
	r := &Mask{rows: m.rows, cols: m.cols, rowIx: m.rowIx, colIx: m.colIx, bits: make([]bool, len(m.bits))}
	for i := range m.bits {
		r.bits[i] = m.bits[i] || n.bits[i]
	}
	return r
}

func (m *Mask) Not() *Mask {
	r := &Mask{rows: m.rows, cols: m.cols, rowIx: m.rowIx, colIx: m.colIx, bits: make([]bool, len(m.bits))}
	for i := range m.bits {
		r.bits[i] = !m.bits[i]
	}
	return r
}

// ApplyMask returns a copy of the frame where cells outside the mask become absent.  Rows and
// columns are kept; the caller prunes all-absent rows and column-groups afterwards.
func (f *Frame) ApplyMask(m *Mask) *Frame {
	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, r := range f.rows {
		g.AddRow(r)
	}
	for _, c := range f.cols {
		g.AddColumn(c)
	}
	for k, v := range f.cells {
		if m.Get(k.row, k.col) {
			g.cells[k] = v
		}
	}
	return g
}
