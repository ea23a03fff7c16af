// Data providers - abstract interface to the gene-regulation store.
//
// The engine is a read-only consumer: analyses, interactions, regulations, edge annotations and
// gene annotations live in an external relational database and are fetched through the DataSource
// interface as simple filtered projections.  Concurrent queries do not interfere and no
// transactions are needed because nothing here ever mutates the store.
//
// The slices returned by readers may be shared with provider-internal caches and must not be
// mutated in ANY way.

package db

import (
	"context"
)

// Analysis is one experimental dataset (binding or expression assay) for a transcription factor,
// with its key/value annotations (EDGE_TYPE, EXPERIMENT_TYPE, ...).  Read-only snapshot.
type Analysis struct {
	ID     int
	TF     string // TF gene identifier, e.g. AT4G24020
	TFName string // TF display name, e.g. NLP7
	Data   map[string]string
}

// Interaction records that a target gene appears in an analysis.
type Interaction struct {
	Analysis int
	Target   string // target gene identifier
}

// Regulation carries the expression statistics of a (analysis, target) pair.  Either statistic
// may be absent in the store.
type Regulation struct {
	Analysis      int
	Target        string
	Pvalue        float64
	Foldchange    float64
	HasPvalue     bool
	HasFoldchange bool
}

// EdgeType is a named class of regulatory edge (induced, repressed, bound, ...).
type EdgeType struct {
	ID          int
	Name        string
	Directional bool
}

// EdgeRecord is one typed edge between a TF and a target, keyed by their numeric annotation ids.
type EdgeRecord struct {
	TF     int
	Target int
	Type   int
}

// GeneAnnotation is the static descriptive metadata of one gene.
type GeneAnnotation struct {
	ID       int
	Gene     string // gene identifier, the row id used throughout
	FullName string
	Family   string
	Type     string
	Name     string // display name
}

type DataSource interface {
	// AnalysesForTF matches the TF gene identifier case-insensitively.
	AnalysesForTF(ctx context.Context, tf string) ([]Analysis, error)
	AllAnalyses(ctx context.Context) ([]Analysis, error)
	AnalysesByID(ctx context.Context, ids []int) ([]Analysis, error)

	InteractionsForAnalyses(ctx context.Context, ids []int) ([]Interaction, error)
	AllInteractions(ctx context.Context) ([]Interaction, error)

	RegulationsForAnalyses(ctx context.Context, ids []int) ([]Regulation, error)
	AllRegulations(ctx context.Context) ([]Regulation, error)

	// EdgeTypeByName matches case-insensitively and fails with NoEdgeTypeErr when the name is
	// unknown and AmbiguousEdgeTypeErr when it matches more than one type.
	EdgeTypeByName(ctx context.Context, name string) (EdgeType, error)
	EdgeTypesByNames(ctx context.Context, names []string) ([]EdgeType, error)
	EdgesForTFs(ctx context.Context, tfIDs []int) ([]EdgeRecord, error)

	Annotations(ctx context.Context) ([]GeneAnnotation, error)
}
