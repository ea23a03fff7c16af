// Reader-only Postgres implementation of DataSource.
//
// The schemas are the regulation database's own; ingestion and curation happen in external
// tooling, so there are no insertion methods here at all.  Raw rows are read from the database on
// every call, no caching in this layer: the engine's annotation cache is the only cross-query
// cache and it sits above this interface.

package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// There is one databaseConnection per opened store and it is never really closed: it is attached
// to the engine once at startup and lives for the process lifetime.
type databaseConnection struct {
	// The connection is not thread-safe.  Use the Query method to perform a query safely, it will
	// acquire a mutex around the connection use (or it could manage a connection pool for better
	// multi-threaded access).
	connection *pgx.Conn
	lock       sync.Mutex
}

func (cdb *databaseConnection) Query(cx context.Context, q string, arg ...any) (pgx.Rows, error) {
	cdb.lock.Lock()
	defer cdb.lock.Unlock()
	return cdb.connection.Query(cx, q, arg...)
}

var _ = DataSource((*databaseConnection)(nil))

func OpenDatabaseURI(databaseURI string) (DataSource, error) {
	connection, err := pgx.Connect(context.Background(), databaseURI)
	if err != nil {
		return nil, fmt.Errorf("Unable to connect to database: %v", err)
	}
	return &databaseConnection{connection: connection}, nil
}

// Analyses come back one row per (analysis, metadata key) pair and are folded into Analysis
// records here.

const analysisFields = `an.id, tf.gene_id, tf.name, k.name, ad.value
  FROM analysis an
  JOIN annotation tf ON tf.id = an.tf_id
  LEFT JOIN analysis_data ad ON ad.analysis_id = an.id
  LEFT JOIN meta_key k ON k.id = ad.key_id`

func (cdb *databaseConnection) readAnalyses(cx context.Context, where string, arg ...any) ([]Analysis, error) {
	var id int
	var tf string
	var tfName, key, value pgtype.Text

	boxes := []any{&id, &tf, &tfName, &key, &value}

	qstr := "SELECT " + analysisFields + " " + where + " ORDER BY an.id"
	rows, err := cdb.Query(cx, qstr, arg...)
	if err != nil {
		return nil, err
	}

	analyses := make([]Analysis, 0)
	byID := make(map[int]int)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		i, found := byID[id]
		if !found {
			i = len(analyses)
			byID[id] = i
			analyses = append(analyses, Analysis{
				ID:     id,
				TF:     tf,
				TFName: tfName.String,
				Data:   make(map[string]string),
			})
		}
		if key.Valid {
			analyses[i].Data[key.String] = value.String
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return analyses, nil
}

func (cdb *databaseConnection) AnalysesForTF(cx context.Context, tf string) ([]Analysis, error) {
	return cdb.readAnalyses(cx, "WHERE lower(tf.gene_id) = lower($1)", tf)
}

func (cdb *databaseConnection) AllAnalyses(cx context.Context) ([]Analysis, error) {
	return cdb.readAnalyses(cx, "")
}

func (cdb *databaseConnection) AnalysesByID(cx context.Context, ids []int) ([]Analysis, error) {
	return cdb.readAnalyses(cx, "WHERE an.id = ANY($1)", intArray(ids))
}

func (cdb *databaseConnection) readInteractions(cx context.Context, where string, arg ...any) ([]Interaction, error) {
	var analysis int
	var target string

	fields := "i.analysis_id, tgt.gene_id"
	table := "interaction i JOIN annotation tgt ON tgt.id = i.target_id"
	boxes := []any{&analysis, &target}

	rows, err := cdb.Query(cx, "SELECT "+fields+" FROM "+table+" "+where, arg...)
	if err != nil {
		return nil, err
	}
	interactions := make([]Interaction, 0)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		interactions = append(interactions, Interaction{Analysis: analysis, Target: target})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return interactions, nil
}

func (cdb *databaseConnection) InteractionsForAnalyses(cx context.Context, ids []int) ([]Interaction, error) {
	return cdb.readInteractions(cx, "WHERE i.analysis_id = ANY($1)", intArray(ids))
}

func (cdb *databaseConnection) AllInteractions(cx context.Context) ([]Interaction, error) {
	return cdb.readInteractions(cx, "")
}

func (cdb *databaseConnection) readRegulations(cx context.Context, where string, arg ...any) ([]Regulation, error) {
	var analysis int
	var target string
	var pvalue, foldchange pgtype.Float8

	fields := "r.analysis_id, tgt.gene_id, r.p_value, r.foldchange"
	table := "regulation r JOIN annotation tgt ON tgt.id = r.target_id"
	boxes := []any{&analysis, &target, &pvalue, &foldchange}

	rows, err := cdb.Query(cx, "SELECT "+fields+" FROM "+table+" "+where, arg...)
	if err != nil {
		return nil, err
	}
	regulations := make([]Regulation, 0)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		regulations = append(regulations, Regulation{
			Analysis:      analysis,
			Target:        target,
			Pvalue:        pvalue.Float64,
			Foldchange:    foldchange.Float64,
			HasPvalue:     pvalue.Valid,
			HasFoldchange: foldchange.Valid,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return regulations, nil
}

func (cdb *databaseConnection) RegulationsForAnalyses(cx context.Context, ids []int) ([]Regulation, error) {
	return cdb.readRegulations(cx, "WHERE r.analysis_id = ANY($1)", intArray(ids))
}

func (cdb *databaseConnection) AllRegulations(cx context.Context) ([]Regulation, error) {
	return cdb.readRegulations(cx, "")
}

func (cdb *databaseConnection) EdgeTypeByName(cx context.Context, name string) (EdgeType, error) {
	rows, err := cdb.Query(
		cx, "SELECT id, name, directional FROM edge_type WHERE lower(name) = lower($1)", name)
	if err != nil {
		return EdgeType{}, err
	}
	types, err := pgx.CollectRows(rows, pgx.RowToStructByPos[EdgeType])
	if err != nil {
		return EdgeType{}, err
	}
	switch len(types) {
	case 0:
		return EdgeType{}, NoEdgeTypeErr
	case 1:
		return types[0], nil
	default:
		return EdgeType{}, AmbiguousEdgeTypeErr
	}
}

func (cdb *databaseConnection) EdgeTypesByNames(cx context.Context, names []string) ([]EdgeType, error) {
	rows, err := cdb.Query(
		cx, "SELECT id, name, directional FROM edge_type WHERE name = ANY($1)", names)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[EdgeType])
}

func (cdb *databaseConnection) EdgesForTFs(cx context.Context, tfIDs []int) ([]EdgeRecord, error) {
	rows, err := cdb.Query(
		cx, "SELECT tf_id, target_id, type_id FROM edge_data WHERE tf_id = ANY($1)", intArray(tfIDs))
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[EdgeRecord])
}

func (cdb *databaseConnection) Annotations(cx context.Context) ([]GeneAnnotation, error) {
	var id int
	var gene string
	var fullName, family, geneType, name pgtype.Text

	fields := "id, gene_id, fullname, gene_family, gene_type, name"
	boxes := []any{&id, &gene, &fullName, &family, &geneType, &name}

	rows, err := cdb.Query(cx, "SELECT "+fields+" FROM annotation")
	if err != nil {
		return nil, err
	}
	annotations := make([]GeneAnnotation, 0)
	_, err = pgx.ForEachRow(rows, boxes, func() error {
		annotations = append(annotations, GeneAnnotation{
			ID:       id,
			Gene:     gene,
			FullName: fullName.String,
			Family:   family.String,
			Type:     geneType.String,
			Name:     name.String,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return annotations, nil
}

// pgx maps []int32 to a Postgres int[] parameter.
func intArray(ids []int) []int32 {
	a := make([]int32, len(ids))
	for i, id := range ids {
		a[i] = int32(id)
	}
	return a
}
