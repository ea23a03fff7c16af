// Result assembler: post-process the merged frame into what the caller renders.  Computes the
// per-target "TF Count", applies the optional user-supplied gene lists, merges in static gene
// annotation metadata, sorts, and gathers the analysis-metadata table and aggregate statistics.

package engine

import (
	"context"
	"sort"

	"querytgdb/common"
	"querytgdb/frame"
)

// GeneInfo is the annotation metadata attached to each result row.  The internal numeric
// annotation id is deliberately not part of this.
type GeneInfo struct {
	FullName string
	Family   string
	Type     string
	Name     string
}

// UserListEntry records a gene's membership in the caller's uploaded gene lists: the comma-joined
// list names and the membership count.
type UserListEntry struct {
	Lists string
	Count int
}

// UserLists maps gene id to list membership.
type UserLists map[string]UserListEntry

// Metadata is the analysis-metadata side table: one column per analysis in the result, one row
// per annotation key, plus the GENE_ID and GENE_NAME of the analysis' transcription factor.
type Metadata struct {
	Analyses []int
	Keys     []string
	Values   map[int]map[string]string
}

// Stats are computed on the unfiltered result, before user lists restrict it.
type Stats struct {
	TotalEdges  int
	GroupTotals map[frame.Group]int
}

type Result struct {
	Frame     *frame.Frame
	TFCount   map[string]int
	Genes     map[string]GeneInfo
	UserLists UserLists // nil when the caller supplied none
}

// Assemble finalizes an evaluated frame.  sizeLimit, when positive, bounds the cell count of the
// unfiltered frame; exceeding it fails with *ResultTooLargeError.  A user-list restriction that
// leaves nothing fails with *EmptyResultError.
func (e *Engine) Assemble(
	ctx context.Context,
	f *frame.Frame,
	userLists UserLists,
	sizeLimit int,
) (*Result, *Metadata, *Stats, error) {
	metadata, err := e.fetchMetadata(ctx, f)
	if err != nil {
		return nil, nil, nil, err
	}
	stats := computeStats(f)

	common.Log.Infof("Unfiltered frame size: %d", f.Size())
	if sizeLimit > 0 && f.Size() > sizeLimit {
		return nil, nil, nil, &ResultTooLargeError{Size: f.Size(), Limit: sizeLimit}
	}

	if userLists != nil {
		f = restrictToUserLists(f, userLists)
		if f.Empty() {
			return nil, nil, nil, &EmptyResultError{Reason: "user list too restrictive"}
		}
	}

	counts := make(map[string]int, f.NumRows())
	for _, r := range f.Rows() {
		counts[r] = f.RowEdgeCount(r)
	}

	if userLists != nil {
		f = f.SortRowsBy(func(a, b string) bool {
			ea, eb := userLists[a], userLists[b]
			if ea.Count != eb.Count {
				return ea.Count < eb.Count
			}
			return ea.Lists < eb.Lists
		})
	}
	// Stable, so the user-list ordering is the tie-break.
	f = f.SortRowsBy(func(a, b string) bool {
		return counts[a] > counts[b]
	})

	genes := make(map[string]GeneInfo)
	for _, r := range f.Rows() {
		if a, found := e.annotations.Get(r); found {
			genes[r] = GeneInfo{FullName: a.FullName, Family: a.Family, Type: a.Type, Name: a.Name}
		}
	}

	common.Log.Infof("Frame size: %d", f.Size())

	return &Result{Frame: f, TFCount: counts, Genes: genes, UserLists: userLists}, metadata, stats, nil
}

func restrictToUserLists(f *frame.Frame, userLists UserLists) *frame.Frame {
	g := frame.New()
	g.Include = f.Include
	g.FilterString = f.FilterString
	for _, c := range f.Columns() {
		g.AddColumn(c)
	}
	for _, r := range f.Rows() {
		if _, found := userLists[r]; !found {
			continue
		}
		g.AddRow(r)
		for _, c := range f.Columns() {
			if v, found := f.Get(r, c); found {
				g.Set(r, c, v)
			}
		}
	}
	return g.DropEmptyColumnGroups()
}

func computeStats(f *frame.Frame) *Stats {
	s := &Stats{GroupTotals: make(map[frame.Group]int)}
	for _, g := range f.Groups() {
		n := f.GroupEdgeCount(g)
		s.GroupTotals[g] = n
		s.TotalEdges += n
	}
	return s
}

func (e *Engine) fetchMetadata(ctx context.Context, f *frame.Frame) (*Metadata, error) {
	ids := groupAnalysisIDs(f)
	m := &Metadata{Analyses: ids, Values: make(map[int]map[string]string)}
	if len(ids) == 0 {
		return m, nil
	}
	analyses, err := e.source.AnalysesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	keySet := make(map[string]bool)
	for _, a := range analyses {
		values := make(map[string]string, len(a.Data)+2)
		for k, v := range a.Data {
			values[k] = v
			keySet[k] = true
		}
		values["GENE_ID"] = a.TF
		values["GENE_NAME"] = a.TFName
		m.Values[a.ID] = values
	}
	keySet["GENE_ID"] = true
	keySet["GENE_NAME"] = true
	for k := range keySet {
		m.Keys = append(m.Keys, k)
	}
	sort.Strings(m.Keys)
	return m, nil
}
