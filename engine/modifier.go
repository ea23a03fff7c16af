// Modifier evaluator: turn a bracketed boolean expression over conditions into a mask of the same
// shape as the operand frame.  The recognized condition keys dispatch to distinct comparators; any
// other key falls through to an analysis-metadata filter and simply matches nothing if no analysis
// carries it.  Sub-masks combine elementwise; the walk uses an explicit operand stack rather than
// call-frame recursion so nesting depth is not a concern.

package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"querytgdb/db"
	"querytgdb/frame"
	"querytgdb/query"
)

// Aliases from condition-key spelling to the attribute name used in column labels.
var colTranslate = map[string]string{
	"PVALUE":          frame.AttrPvalue,
	"FC":              frame.AttrFC,
	"ADDITIONAL_EDGE": frame.AttrAddEdges,
}

func (e *Engine) evaluateModifier(ctx context.Context, f *frame.Frame, mod query.Node) (*frame.Mask, error) {
	var stack []*frame.Mask
	pop := func() *frame.Mask {
		m := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return m
	}
	for _, n := range rpnNodes(mod) {
		switch n := n.(type) {
		case *query.Condition:
			m, err := e.conditionMask(ctx, f, n)
			if err != nil {
				return nil, err
			}
			stack = append(stack, m)
		case *query.Unary:
			stack = append(stack, pop().Not())
		case *query.Logical:
			succ := pop()
			prec := pop()
			if n.Op == query.OpAnd {
				stack = append(stack, prec.And(succ))
			} else {
				stack = append(stack, prec.Or(succ))
			}
		default:
			return nil, fmt.Errorf("Invalid node in modifier: %T", n)
		}
	}
	return pop(), nil
}

func (e *Engine) conditionMask(ctx context.Context, f *frame.Frame, c *query.Condition) (*frame.Mask, error) {
	switch strings.ToUpper(c.Key) {
	case "PVALUE":
		return compareMask(f, frame.AttrPvalue, c.Op, c.Value), nil
	case "FC":
		return compareMask(f, frame.AttrFC, c.Op, c.Value), nil
	case "ADDITIONAL_EDGE":
		return e.additionalEdgeMask(ctx, f, c.Value)
	case "HAS_COLUMN":
		return hasColumnMask(f, c.Value), nil
	default:
		return e.metadataMask(ctx, f, c.Key, c.Value)
	}
}

// compareMask selects, per column-group, the rows whose numeric attribute passes the comparison.
// A value that does not coerce to a number excludes everything rather than failing the query.
func compareMask(f *frame.Frame, attr string, op int, value string) *frame.Mask {
	m := frame.NewMask(f, false)
	x, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return m
	}
	for _, g := range f.Groups() {
		col := frame.ColKey{TF: g.TF, Analysis: g.Analysis, Attr: attr}
		if !f.HasColumn(col) {
			continue // no such attribute in this group, excluded wholesale
		}
		for _, r := range f.Rows() {
			if v, found := f.Get(r, col); found && v.IsNum && compare(v.Num, op, x) {
				m.SetGroupRow(g, r, true)
			}
		}
	}
	return m
}

func compare(a float64, op int, b float64) bool {
	switch op {
	case query.OpEq:
		return a == b
	case query.OpNe:
		return a != b
	case query.OpLt:
		return a < b
	case query.OpLe:
		return a <= b
	case query.OpGt:
		return a > b
	case query.OpGe:
		return a >= b
	default:
		panic("Unknown op")
	}
}

// hasColumnMask is an existence test: a column-group matches entirely or not at all.
func hasColumnMask(f *frame.Frame, value string) *frame.Mask {
	attr := strings.ToUpper(value)
	if t, found := colTranslate[attr]; found {
		attr = t
	}
	m := frame.NewMask(f, false)
	for _, g := range f.Groups() {
		if f.HasColumn(frame.ColKey{TF: g.TF, Analysis: g.Analysis, Attr: attr}) {
			m.SetGroup(g, true)
		}
	}
	return m
}

// metadataMask matches column-groups whose analysis carries the key/value annotation, both
// compared case-insensitively.  Matching groups are selected whole, across all rows.
func (e *Engine) metadataMask(ctx context.Context, f *frame.Frame, key, value string) (*frame.Mask, error) {
	m := frame.NewMask(f, false)
	ids := groupAnalysisIDs(f)
	if len(ids) == 0 {
		return m, nil
	}
	analyses, err := e.source.AnalysesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	match := make(map[int]bool)
	for _, a := range analyses {
		for k, v := range a.Data {
			if strings.EqualFold(k, key) && strings.EqualFold(v, value) {
				match[a.ID] = true
				break
			}
		}
	}
	for _, g := range f.Groups() {
		if id, ok := frame.AnalysisID(g.Analysis); ok && match[id] {
			m.SetGroup(g, true)
		}
	}
	return m, nil
}

// additionalEdgeMask selects, per column-group, the rows whose target gene has an edge of the
// named type from the group's transcription factor, where the row also has data in that group.
// An unknown or ambiguous edge-type name excludes everything.
func (e *Engine) additionalEdgeMask(ctx context.Context, f *frame.Frame, value string) (*frame.Mask, error) {
	m := frame.NewMask(f, false)
	et, err := e.source.EdgeTypeByName(ctx, value)
	if err == db.NoEdgeTypeErr || err == db.AmbiguousEdgeTypeErr {
		return m, nil
	}
	if err != nil {
		return nil, err
	}

	ids := groupAnalysisIDs(f)
	if len(ids) == 0 {
		return m, nil
	}
	analyses, err := e.source.AnalysesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	tfOf := make(map[int]string, len(analyses))
	var tfIDs []int
	tfAnnID := make(map[string]int)
	for _, a := range analyses {
		tfOf[a.ID] = a.TF
		if _, found := tfAnnID[a.TF]; !found {
			if ann, ok := e.annotations.Get(a.TF); ok {
				tfAnnID[a.TF] = ann.ID
				tfIDs = append(tfIDs, ann.ID)
			}
		}
	}
	if len(tfIDs) == 0 {
		return m, nil
	}

	records, err := e.source.EdgesForTFs(ctx, tfIDs)
	if err != nil {
		return nil, err
	}
	// targets with the edge, per TF annotation id
	targets := make(map[int]map[int]bool)
	for _, rec := range records {
		if rec.Type != et.ID {
			continue
		}
		if targets[rec.TF] == nil {
			targets[rec.TF] = make(map[int]bool)
		}
		targets[rec.TF][rec.Target] = true
	}

	for _, g := range f.Groups() {
		id, ok := frame.AnalysisID(g.Analysis)
		if !ok {
			continue
		}
		tf, found := tfOf[id]
		if !found {
			continue
		}
		withEdge := targets[tfAnnID[tf]]
		if withEdge == nil {
			continue
		}
		cols := f.GroupColumns(g)
		for _, r := range f.Rows() {
			hasData := false
			for _, c := range cols {
				if f.Has(r, c) {
					hasData = true
					break
				}
			}
			if !hasData {
				continue
			}
			if ann, found := e.annotations.Get(r); found && withEdge[ann.ID] {
				m.SetGroupRow(g, r, true)
			}
		}
	}
	return m, nil
}

func groupAnalysisIDs(f *frame.Frame) []int {
	var ids []int
	seen := make(map[int]bool)
	for _, g := range f.Groups() {
		if id, ok := frame.AnalysisID(g.Analysis); ok && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}
