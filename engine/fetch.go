// Table fetcher: resolve a query leaf -- a bare gene name or one of the whole-query keywords --
// into a frame.  Rows are target genes; the column-group of each analysis carries an EDGE marker
// (default '+', suppressed where regulation data supersedes it), Pvalue and Log2FC where
// regulation records exist, and optionally an ADD_EDGES attribute with the comma-joined names of
// the requested edge types between the TF and the target.
//
// The collaborator fetches of one leaf are independent and are issued concurrently.

package engine

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"golang.org/x/sync/errgroup"

	"querytgdb/db"
	"querytgdb/frame"
)

// Whole-query keywords, case-insensitive.
const (
	keyAndAllTFs = "andalltfs"
	keyOrAllTFs  = "oralltfs"
	keyMultitype = "multitype"
)

func (e *Engine) fetch(
	ctx context.Context,
	name string,
	edgeTypes, tfAllowList, targetAllowList []string,
) (*frame.Frame, error) {
	switch strings.ToLower(name) {
	case keyAndAllTFs, keyOrAllTFs, keyMultitype:
		return e.fetchAllTFs(ctx, strings.ToLower(name), edgeTypes, tfAllowList, targetAllowList)
	default:
		return e.fetchGene(ctx, name, edgeTypes, tfAllowList, targetAllowList)
	}
}

// fetchGene builds the frame of a single transcription factor.  The TF column label is the name
// as typed in the query.  An unknown gene, or one excluded by the allow-list, yields an
// empty-but-valid frame, never an error.
func (e *Engine) fetchGene(
	ctx context.Context,
	name string,
	edgeTypes, tfAllowList, targetAllowList []string,
) (*frame.Frame, error) {
	f := frame.New()
	f.FilterString = name

	if len(tfAllowList) > 0 && !containsFold(tfAllowList, name) {
		return f, nil
	}

	analyses, err := e.source.AnalysesForTF(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(analyses) == 0 {
		return f, nil
	}
	ids := analysisIDs(analyses)

	var interactions []db.Interaction
	var regulations []db.Regulation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		interactions, err = e.source.InteractionsForAnalyses(gctx, ids)
		return err
	})
	g.Go(func() error {
		var err error
		regulations, err = e.source.RegulationsForAnalyses(gctx, ids)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	interactions = filterTargets(interactions, targetAllowList)
	if len(interactions) == 0 {
		return f, nil
	}

	// An analysis with any regulation record loses the default '+' marker; its presence is
	// expressed by Pvalue/Log2FC instead.
	regAnalyses := make(map[int]bool)
	regOf := make(map[regKey]db.Regulation)
	for _, r := range regulations {
		regAnalyses[r.Analysis] = true
		regOf[regKey{r.Analysis, r.Target}] = r
	}

	var addEdges map[edgeKey]string
	if len(edgeTypes) > 0 {
		addEdges, err = e.edgeAnnotations(ctx, []string{name}, targetsOf(interactions), edgeTypes)
		if err == ErrNoEdgeData {
			addEdges = nil // augmentation is a no-op, not an error
		} else if err != nil {
			return nil, err
		}
	}

	for _, i := range interactions {
		an := strconv.Itoa(i.Analysis)
		// Every interaction target is a row, even when neither the marker nor any statistic
		// applies to it; the row set is what the boolean operators work on.
		f.AddRow(i.Target)
		if !regAnalyses[i.Analysis] {
			f.Set(i.Target, frame.ColKey{TF: name, Analysis: an, Attr: frame.AttrEdge}, frame.Str("+"))
		}
		if r, found := regOf[regKey{i.Analysis, i.Target}]; found {
			if r.HasPvalue {
				f.Set(i.Target, frame.ColKey{TF: name, Analysis: an, Attr: frame.AttrPvalue}, frame.Num(r.Pvalue))
			}
			if r.HasFoldchange {
				f.Set(i.Target, frame.ColKey{TF: name, Analysis: an, Attr: frame.AttrFC}, frame.Num(r.Foldchange))
			}
		}
		if s, found := addEdges[edgeKey{name, i.Target}]; found {
			f.Set(i.Target, frame.ColKey{TF: name, Analysis: an, Attr: frame.AttrAddEdges}, frame.Str(s))
		}
	}
	return f, nil
}

// fetchAllTFs builds one frame over every transcription factor at once.  multitype restricts to
// TFs whose analyses span more than one experiment type; andalltfs additionally keeps only target
// genes with an edge in every column-group of the result.
func (e *Engine) fetchAllTFs(
	ctx context.Context,
	keyword string,
	edgeTypes, tfAllowList, targetAllowList []string,
) (*frame.Frame, error) {
	analyses, err := e.source.AllAnalyses(ctx)
	if err != nil {
		return nil, err
	}

	if keyword == keyMultitype {
		analyses = multitypeAnalyses(analyses)
	}
	if len(tfAllowList) > 0 {
		kept := analyses[:0:0]
		for _, a := range analyses {
			if containsFold(tfAllowList, a.TF) {
				kept = append(kept, a)
			}
		}
		analyses = kept
	}

	restricted := keyword == keyMultitype || len(tfAllowList) > 0
	ids := analysisIDs(analyses)
	tfOf := make(map[int]string, len(analyses))
	for _, a := range analyses {
		tfOf[a.ID] = a.TF
	}

	var interactions []db.Interaction
	var regulations []db.Regulation
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if restricted {
			interactions, err = e.source.InteractionsForAnalyses(gctx, ids)
		} else {
			interactions, err = e.source.AllInteractions(gctx)
		}
		return err
	})
	g.Go(func() error {
		var err error
		if restricted {
			regulations, err = e.source.RegulationsForAnalyses(gctx, ids)
		} else {
			regulations, err = e.source.AllRegulations(gctx)
		}
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	interactions = filterTargets(interactions, targetAllowList)
	if len(interactions) == 0 {
		return nil, &EmptyResultError{Reason: "no matching interaction data"}
	}

	// Here the default marker is decided per analysis by fold-change coverage: an analysis with
	// no fold-change data at all keeps '+'.
	fcAnalyses := make(map[int]bool)
	regOf := make(map[regKey]db.Regulation)
	for _, r := range regulations {
		if r.HasFoldchange {
			fcAnalyses[r.Analysis] = true
		}
		regOf[regKey{r.Analysis, r.Target}] = r
	}

	var addEdges map[edgeKey]string
	if len(edgeTypes) > 0 {
		tfs := make([]string, 0, len(tfOf))
		seen := make(map[string]bool)
		for _, a := range analyses {
			if !seen[a.TF] {
				seen[a.TF] = true
				tfs = append(tfs, a.TF)
			}
		}
		addEdges, err = e.edgeAnnotations(ctx, tfs, targetsOf(interactions), edgeTypes)
		if err == ErrNoEdgeData {
			addEdges = nil
		} else if err != nil {
			return nil, err
		}
	}

	f := frame.New()
	f.FilterString = keyword
	for _, i := range interactions {
		tf, found := tfOf[i.Analysis]
		if !found {
			continue
		}
		an := strconv.Itoa(i.Analysis)
		f.AddRow(i.Target)
		if !fcAnalyses[i.Analysis] {
			f.Set(i.Target, frame.ColKey{TF: tf, Analysis: an, Attr: frame.AttrEdge}, frame.Str("+"))
		}
		if r, found := regOf[regKey{i.Analysis, i.Target}]; found {
			if r.HasPvalue {
				f.Set(i.Target, frame.ColKey{TF: tf, Analysis: an, Attr: frame.AttrPvalue}, frame.Num(r.Pvalue))
			}
			if r.HasFoldchange {
				f.Set(i.Target, frame.ColKey{TF: tf, Analysis: an, Attr: frame.AttrFC}, frame.Num(r.Foldchange))
			}
		}
		if s, found := addEdges[edgeKey{tf, i.Target}]; found {
			f.Set(i.Target, frame.ColKey{TF: tf, Analysis: an, Attr: frame.AttrAddEdges}, frame.Str(s))
		}
	}

	if keyword == keyAndAllTFs {
		f = allEdgesRows(f)
	}
	return f, nil
}

// multitypeAnalyses keeps the analyses of TFs that span more than one distinct experiment type.
func multitypeAnalyses(analyses []db.Analysis) []db.Analysis {
	typesOf := make(map[string]map[string]bool)
	for _, a := range analyses {
		ty, found := a.Data["EXPERIMENT_TYPE"]
		if !found {
			continue
		}
		if typesOf[a.TF] == nil {
			typesOf[a.TF] = make(map[string]bool)
		}
		typesOf[a.TF][ty] = true
	}
	kept := analyses[:0:0]
	for _, a := range analyses {
		if _, found := a.Data["EXPERIMENT_TYPE"]; found && len(typesOf[a.TF]) > 1 {
			kept = append(kept, a)
		}
	}
	return kept
}

// allEdgesRows keeps rows that have a value in every EDGE and Log2FC column.
func allEdgesRows(f *frame.Frame) *frame.Frame {
	var edgeCols []frame.ColKey
	for _, c := range f.Columns() {
		if c.Attr == frame.AttrEdge || c.Attr == frame.AttrFC {
			edgeCols = append(edgeCols, c)
		}
	}
	full := frame.New()
	full.Include = f.Include
	full.FilterString = f.FilterString
	for _, c := range f.Columns() {
		full.AddColumn(c)
	}
Rows:
	for _, r := range f.Rows() {
		for _, c := range edgeCols {
			if !f.Has(r, c) {
				continue Rows
			}
		}
		full.AddRow(r)
		for _, c := range f.Columns() {
			if v, found := f.Get(r, c); found {
				full.Set(r, c, v)
			}
		}
	}
	return full.DropEmptyColumnGroups()
}

type regKey struct {
	analysis int
	target   string
}

type edgeKey struct {
	tf     string
	target string
}

// edgeAnnotations looks up the requested edge types between the given TFs and targets and
// comma-joins the names of those that apply to each pair, in name order.  ErrNoEdgeData when
// nothing at all was found, which callers treat as "skip augmentation".
func (e *Engine) edgeAnnotations(
	ctx context.Context,
	tfs, targets, edgeTypes []string,
) (map[edgeKey]string, error) {
	types, err := e.source.EdgeTypesByNames(ctx, edgeTypes)
	if err != nil {
		return nil, err
	}
	if len(types) == 0 {
		return nil, ErrNoEdgeData
	}
	typeName := make(map[int]string, len(types))
	for _, t := range types {
		typeName[t.ID] = t.Name
	}

	// Edge records are keyed by numeric annotation ids; the cache maps both ways.
	var tfIDs []int
	tfGene := make(map[int]string)
	for _, tf := range tfs {
		if a, found := e.annotations.Get(tf); found {
			tfIDs = append(tfIDs, a.ID)
			tfGene[a.ID] = tf
		}
	}
	targetGene := make(map[int]string)
	for _, t := range targets {
		if a, found := e.annotations.Get(t); found {
			targetGene[a.ID] = t
		}
	}
	if len(tfIDs) == 0 {
		return nil, ErrNoEdgeData
	}

	records, err := e.source.EdgesForTFs(ctx, tfIDs)
	if err != nil {
		return nil, err
	}

	names := make(map[edgeKey][]string)
	for _, rec := range records {
		name, wanted := typeName[rec.Type]
		if !wanted {
			continue
		}
		target, known := targetGene[rec.Target]
		if !known {
			continue
		}
		k := edgeKey{tfGene[rec.TF], target}
		names[k] = append(names[k], name)
	}
	if len(names) == 0 {
		return nil, ErrNoEdgeData
	}

	joined := make(map[edgeKey]string, len(names))
	for k, ns := range names {
		joined[k] = joinSorted(ns)
	}
	return joined, nil
}

func joinSorted(ns []string) string {
	sorted := slices.Clone(ns)
	slices.Sort(sorted)
	return strings.Join(sorted, ",")
}

func analysisIDs(analyses []db.Analysis) []int {
	ids := make([]int, len(analyses))
	for i, a := range analyses {
		ids[i] = a.ID
	}
	return ids
}

func containsFold(list []string, s string) bool {
	for _, x := range list {
		if strings.EqualFold(x, s) {
			return true
		}
	}
	return false
}

func filterTargets(interactions []db.Interaction, targetAllowList []string) []db.Interaction {
	if len(targetAllowList) == 0 {
		return interactions
	}
	kept := interactions[:0:0]
	for _, i := range interactions {
		if containsFold(targetAllowList, i.Target) {
			kept = append(kept, i)
		}
	}
	return kept
}

func targetsOf(interactions []db.Interaction) []string {
	var targets []string
	seen := make(map[string]bool)
	for _, i := range interactions {
		if !seen[i.Target] {
			seen[i.Target] = true
			targets = append(targets, i.Target)
		}
	}
	return targets
}
