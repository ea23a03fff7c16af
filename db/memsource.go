// In-memory DataSource over preloaded records.  Engine tests inject one of these instead of a
// live database; nothing here is concurrency-sensitive since the record slices are never mutated
// after construction.

package db

import (
	"context"
	"strings"
)

type MemSource struct {
	AnalysisRecords    []Analysis
	InteractionRecords []Interaction
	RegulationRecords  []Regulation
	EdgeTypeRecords    []EdgeType
	EdgeRecords        []EdgeRecord
	AnnotationRecords  []GeneAnnotation
}

var _ = DataSource((*MemSource)(nil))

func (m *MemSource) AnalysesForTF(_ context.Context, tf string) ([]Analysis, error) {
	var result []Analysis
	for _, a := range m.AnalysisRecords {
		if strings.EqualFold(a.TF, tf) {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MemSource) AllAnalyses(_ context.Context) ([]Analysis, error) {
	return m.AnalysisRecords, nil
}

func (m *MemSource) AnalysesByID(_ context.Context, ids []int) ([]Analysis, error) {
	want := make(map[int]bool)
	for _, id := range ids {
		want[id] = true
	}
	var result []Analysis
	for _, a := range m.AnalysisRecords {
		if want[a.ID] {
			result = append(result, a)
		}
	}
	return result, nil
}

func (m *MemSource) InteractionsForAnalyses(_ context.Context, ids []int) ([]Interaction, error) {
	want := make(map[int]bool)
	for _, id := range ids {
		want[id] = true
	}
	var result []Interaction
	for _, i := range m.InteractionRecords {
		if want[i.Analysis] {
			result = append(result, i)
		}
	}
	return result, nil
}

func (m *MemSource) AllInteractions(_ context.Context) ([]Interaction, error) {
	return m.InteractionRecords, nil
}

func (m *MemSource) RegulationsForAnalyses(_ context.Context, ids []int) ([]Regulation, error) {
	want := make(map[int]bool)
	for _, id := range ids {
		want[id] = true
	}
	var result []Regulation
	for _, r := range m.RegulationRecords {
		if want[r.Analysis] {
			result = append(result, r)
		}
	}
	return result, nil
}

func (m *MemSource) AllRegulations(_ context.Context) ([]Regulation, error) {
	return m.RegulationRecords, nil
}

func (m *MemSource) EdgeTypeByName(_ context.Context, name string) (EdgeType, error) {
	var found []EdgeType
	for _, t := range m.EdgeTypeRecords {
		if strings.EqualFold(t.Name, name) {
			found = append(found, t)
		}
	}
	switch len(found) {
	case 0:
		return EdgeType{}, NoEdgeTypeErr
	case 1:
		return found[0], nil
	default:
		return EdgeType{}, AmbiguousEdgeTypeErr
	}
}

func (m *MemSource) EdgeTypesByNames(_ context.Context, names []string) ([]EdgeType, error) {
	want := make(map[string]bool)
	for _, n := range names {
		want[n] = true
	}
	var result []EdgeType
	for _, t := range m.EdgeTypeRecords {
		if want[t.Name] {
			result = append(result, t)
		}
	}
	return result, nil
}

func (m *MemSource) EdgesForTFs(_ context.Context, tfIDs []int) ([]EdgeRecord, error) {
	want := make(map[int]bool)
	for _, id := range tfIDs {
		want[id] = true
	}
	var result []EdgeRecord
	for _, e := range m.EdgeRecords {
		if want[e.TF] {
			result = append(result, e)
		}
	}
	return result, nil
}

func (m *MemSource) Annotations(_ context.Context) ([]GeneAnnotation, error) {
	return m.AnnotationRecords, nil
}
