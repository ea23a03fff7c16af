// A Frame is the typed, hierarchically-labeled 2-D table the query engine operates on.
//
// Rows are target-gene identifiers; columns are (TF, analysis, attribute) triples.  Cells are
// sparse: a missing cell means no interaction was recorded.  Row identifiers and column triples
// are unique within a frame, and insertion order is preserved on both axes.
//
// A frame carries two pieces of side metadata.  Include records the polarity of the selection:
// `not` never materializes a complement table, it flips Include, and the flag is resolved only
// when the frame is combined with another one.  A frame with Include=false must never be returned
// to the user.  FilterString is a human-readable trace of the query fragment that produced the
// frame.

package frame

import (
	"strconv"
	"strings"
)

// Column attributes.
const (
	AttrEdge     = "EDGE"
	AttrPvalue   = "Pvalue"
	AttrFC       = "Log2FC"
	AttrAddEdges = "ADD_EDGES"
)

// ColKey is a full column label.
type ColKey struct {
	TF       string
	Analysis string
	Attr     string
}

// Group identifies a column-group, the unit of inclusion/exclusion during pruning: all columns
// sharing a (TF, analysis) pair.
type Group struct {
	TF       string
	Analysis string
}

func (c ColKey) Group() Group {
	return Group{TF: c.TF, Analysis: c.Analysis}
}

func (c ColKey) String() string {
	return c.TF + "/" + c.Analysis + "/" + c.Attr
}

// AnalysisID recovers the numeric analysis id from an analysis label.  Labels are decimal ids as
// fetched, possibly extended by a join-disambiguation suffix (`17 "tf1[...]" <token>`); once a
// label has been expanded to a human-readable analysis name it no longer starts with an id and
// this fails.
func AnalysisID(label string) (int, bool) {
	if i := strings.IndexByte(label, ' '); i >= 0 {
		label = label[:i]
	}
	id, err := strconv.Atoi(label)
	if err != nil {
		return 0, false
	}
	return id, true
}

// Value is a single cell: a number for Pvalue/Log2FC attributes, a small categorical string for
// EDGE and ADD_EDGES.
type Value struct {
	Num   float64
	Str   string
	IsNum bool
}

func Num(v float64) Value {
	return Value{Num: v, IsNum: true}
}

func Str(s string) Value {
	return Value{Str: s}
}

func (v Value) Equal(w Value) bool {
	return v == w
}

func (v Value) String() string {
	if v.IsNum {
		return strconv.FormatFloat(v.Num, 'g', -1, 64)
	}
	return v.Str
}

type coord struct {
	row string
	col ColKey
}

type Frame struct {
	rows  []string
	rowIx map[string]int
	cols  []ColKey
	colIx map[ColKey]int
	cells map[coord]Value

	Include      bool
	FilterString string
}

func New() *Frame {
	return &Frame{
		rowIx:   make(map[string]int),
		colIx:   make(map[ColKey]int),
		cells:   make(map[coord]Value),
		Include: true,
	}
}

// Empty is true if either axis is empty: such a frame holds no data.
func (f *Frame) Empty() bool {
	return len(f.rows) == 0 || len(f.cols) == 0
}

// Size is the cell count, present or not, as used by the result size guard.
func (f *Frame) Size() int {
	return len(f.rows) * len(f.cols)
}

func (f *Frame) NumRows() int {
	return len(f.rows)
}

func (f *Frame) NumColumns() int {
	return len(f.cols)
}

// Rows returns the row identifiers in order.  The slice is shared, do not mutate.
func (f *Frame) Rows() []string {
	return f.rows
}

// Columns returns the column labels in order.  The slice is shared, do not mutate.
func (f *Frame) Columns() []ColKey {
	return f.cols
}

func (f *Frame) HasRow(id string) bool {
	_, found := f.rowIx[id]
	return found
}

func (f *Frame) HasColumn(c ColKey) bool {
	_, found := f.colIx[c]
	return found
}

func (f *Frame) AddRow(id string) {
	if _, found := f.rowIx[id]; !found {
		f.rowIx[id] = len(f.rows)
		f.rows = append(f.rows, id)
	}
}

func (f *Frame) AddColumn(c ColKey) {
	if _, found := f.colIx[c]; !found {
		f.colIx[c] = len(f.cols)
		f.cols = append(f.cols, c)
	}
}

// Set stores a cell, creating the row and column as needed.
func (f *Frame) Set(row string, col ColKey, v Value) {
	f.AddRow(row)
	f.AddColumn(col)
	f.cells[coord{row, col}] = v
}

func (f *Frame) Get(row string, col ColKey) (Value, bool) {
	v, found := f.cells[coord{row, col}]
	return v, found
}

func (f *Frame) Has(row string, col ColKey) bool {
	_, found := f.cells[coord{row, col}]
	return found
}

// Groups returns the column-groups in order of first appearance.
func (f *Frame) Groups() []Group {
	var groups []Group
	seen := make(map[Group]bool)
	for _, c := range f.cols {
		g := c.Group()
		if !seen[g] {
			seen[g] = true
			groups = append(groups, g)
		}
	}
	return groups
}

// GroupColumns returns the columns of one column-group, in frame order.
func (f *Frame) GroupColumns(g Group) []ColKey {
	var cols []ColKey
	for _, c := range f.cols {
		if c.Group() == g {
			cols = append(cols, c)
		}
	}
	return cols
}

func (f *Frame) Clone() *Frame {
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
		g.cells[k] = v
	}
	return g
}

// rowHasData is true if the row has any present cell.
func (f *Frame) rowHasData(row string) bool {
	for _, c := range f.cols {
		if f.Has(row, c) {
			return true
		}
	}
	return false
}

// DropEmptyRows removes rows with no present cell in any column.
func (f *Frame) DropEmptyRows() *Frame {
	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, c := range f.cols {
		g.AddColumn(c)
	}
	for _, r := range f.rows {
		if !f.rowHasData(r) {
			continue
		}
		g.AddRow(r)
		for _, c := range f.cols {
			if v, found := f.Get(r, c); found {
				g.cells[coord{r, c}] = v
			}
		}
	}
	return g
}

// DropEmptyColumnGroups removes column-groups that are entirely absent across all rows.  Repeated
// merges would otherwise accumulate empty analysis columns.
func (f *Frame) DropEmptyColumnGroups() *Frame {
	live := make(map[Group]bool)
	for k := range f.cells {
		live[k.col.Group()] = true
	}
	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, r := range f.rows {
		g.AddRow(r)
	}
	for _, c := range f.cols {
		if !live[c.Group()] {
			continue
		}
		g.AddColumn(c)
		for _, r := range f.rows {
			if v, found := f.Get(r, c); found {
				g.cells[coord{r, c}] = v
			}
		}
	}
	return g
}

// WithoutRows returns the frame restricted to rows whose id is not in the other frame's row set.
// This is how a negated operand resolves against a positive one.
func (f *Frame) WithoutRows(other *Frame) *Frame {
	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, c := range f.cols {
		g.AddColumn(c)
	}
	for _, r := range f.rows {
		if other.HasRow(r) {
			continue
		}
		g.AddRow(r)
		for _, c := range f.cols {
			if v, found := f.Get(r, c); found {
				g.cells[coord{r, c}] = v
			}
		}
	}
	return g
}

// RenameColumns applies a relabeling to every column.  Used by analysis-id expansion and join
// suffixing.  The mapping must be injective over the frame's columns.
func (f *Frame) RenameColumns(rename func(ColKey) ColKey) *Frame {
	g := New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, r := range f.rows {
		g.AddRow(r)
	}
	for _, c := range f.cols {
		g.AddColumn(rename(c))
	}
	for k, v := range f.cells {
		g.cells[coord{k.row, rename(k.col)}] = v
	}
	return g
}

// CountEdgeCells counts present cells in EDGE and Log2FC columns, the measure of how many
// regulatory edges a row, column, or group carries.

func isEdgeAttr(attr string) bool {
	return attr == AttrEdge || attr == AttrFC
}

// RowEdgeCount is the per-target-gene "TF Count".
func (f *Frame) RowEdgeCount(row string) int {
	n := 0
	for _, c := range f.cols {
		if isEdgeAttr(c.Attr) && f.Has(row, c) {
			n++
		}
	}
	return n
}

// ColumnEdgeCount counts present EDGE/Log2FC cells in one column.
func (f *Frame) ColumnEdgeCount(col ColKey) int {
	if !isEdgeAttr(col.Attr) {
		return 0
	}
	n := 0
	for _, r := range f.rows {
		if f.Has(r, col) {
			n++
		}
	}
	return n
}

// GroupEdgeCount counts present EDGE/Log2FC cells in one column-group.
func (f *Frame) GroupEdgeCount(g Group) int {
	n := 0
	for _, c := range f.GroupColumns(g) {
		n += f.ColumnEdgeCount(c)
	}
	return n
}
