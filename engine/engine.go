// The query engine proper: parse a boolean gene query, evaluate it against the regulation store,
// and assemble the final table.  One Engine is shared by all queries; it holds the data source
// and the write-once annotation cache and has no other state, so concurrent queries are safe.

package engine

import (
	"context"

	"querytgdb/db"
	"querytgdb/frame"
	"querytgdb/query"
)

type Engine struct {
	source      db.DataSource
	annotations *AnnotationCache
}

func New(source db.DataSource, annotations *AnnotationCache) *Engine {
	return &Engine{source: source, annotations: annotations}
}

// ParseAndEvaluate parses queryText and evaluates it to a reordered result table.  edgeTypes
// requests ADD_EDGES augmentation; tfAllowList and targetAllowList, when non-empty, restrict the
// transcription factors and target genes considered.  The result always has Include=true; a query
// that selects nothing fails with *EmptyResultError and a malformed query with
// *query.SyntaxError.
func (e *Engine) ParseAndEvaluate(
	ctx context.Context,
	queryText string,
	edgeTypes, tfAllowList, targetAllowList []string,
) (*frame.Frame, error) {
	node, err := query.Parse(queryText)
	if err != nil {
		return nil, err
	}
	result, err := e.evaluate(ctx, node, edgeTypes, tfAllowList, targetAllowList)
	if err != nil {
		return nil, err
	}
	if result.Empty() || !result.Include {
		return nil, &EmptyResultError{Reason: "query selected no genes"}
	}
	return result.Reorder(), nil
}

// Request carries everything one query needs.  Zero values mean "no restriction".
type Request struct {
	Query           string
	EdgeTypes       []string
	TFAllowList     []string
	TargetAllowList []string
	UserLists       UserLists
	SizeLimit       int
}

// Query runs the whole pipeline: parse, evaluate, and assemble.
func (e *Engine) Query(ctx context.Context, req Request) (*Result, *Metadata, *Stats, error) {
	f, err := e.ParseAndEvaluate(ctx, req.Query, req.EdgeTypes, req.TFAllowList, req.TargetAllowList)
	if err != nil {
		return nil, nil, nil, err
	}
	return e.Assemble(ctx, f, req.UserLists, req.SizeLimit)
}
