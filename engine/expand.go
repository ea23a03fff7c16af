package engine

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"querytgdb/db"
	"querytgdb/frame"
)

// ExpandAnalysisIds rewrites the numeric analysis label of every column into a human-readable
// description of the analysis.  It fails if any column already carries an expanded label, so
// expanding twice is an error rather than a silent corruption.
func (e *Engine) ExpandAnalysisIds(ctx context.Context, f *frame.Frame) (*frame.Frame, error) {
	var ids []int
	seen := make(map[int]bool)
	for _, c := range f.Columns() {
		id, ok := frame.AnalysisID(c.Analysis)
		if !ok {
			return nil, fmt.Errorf("Column label %q does not name an analysis, already expanded?", c.Analysis)
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return f, nil
	}
	analyses, err := e.source.AnalysesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	nameOf := make(map[int]string, len(analyses))
	for _, a := range analyses {
		nameOf[a.ID] = analysisName(a)
	}
	return f.RenameColumns(func(c frame.ColKey) frame.ColKey {
		id, _ := frame.AnalysisID(c.Analysis)
		name, found := nameOf[id]
		if !found {
			return c
		}
		// Filter suffixes and the like trail the id, keep them.
		tail := strings.TrimPrefix(c.Analysis, strconv.Itoa(id))
		c.Analysis = name + tail
		return c
	}), nil
}

// analysisName composes the expanded label from the analysis' own metadata.  The gene id leads
// and the numeric analysis id trails, so distinct analyses of the same experiment stay distinct.
func analysisName(a db.Analysis) string {
	parts := []string{a.TF}
	if a.TFName != "" && !strings.EqualFold(a.TFName, a.TF) {
		parts = append(parts, a.TFName)
	}
	for _, key := range []string{"EXPERIMENT_TYPE", "ANALYSIS_METHOD", "ANALYSIS_CUTOFF"} {
		if v := a.Data[key]; v != "" {
			parts = append(parts, v)
		}
	}
	parts = append(parts, "("+strconv.Itoa(a.ID)+")")
	return strings.Join(parts, " ")
}
