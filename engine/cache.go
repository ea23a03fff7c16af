// Process-wide gene annotation cache.
//
// Constructed at startup and populated once by a background task; reads block on a one-shot
// readiness gate (not a lock held for the read itself) and the data is never reloaded, so there
// is no invalidation logic.  This is the only cross-invocation shared mutable state in the engine
// and it is write-once.  If population fails the cache degrades to an empty annotation table with
// a logged warning instead of blocking all queries.

package engine

import (
	"context"

	"querytgdb/common"
	"querytgdb/db"
)

type AnnotationCache struct {
	ready chan struct{}

	// Written only by the populating task, before ready is closed.
	byGene map[string]db.GeneAnnotation
	byID   map[int]string
}

// StartAnnotationCache begins the background load and returns immediately.
func StartAnnotationCache(source db.DataSource) *AnnotationCache {
	c := &AnnotationCache{ready: make(chan struct{})}
	go func() {
		defer close(c.ready)
		annotations, err := source.Annotations(context.Background())
		if err != nil {
			common.Log.Warningf("Annotation load failed, gene metadata will be missing: %v", err)
		}
		c.index(annotations)
	}()
	return c
}

// NewPopulatedCache returns an already-ready cache; tests inject one of these.
func NewPopulatedCache(annotations []db.GeneAnnotation) *AnnotationCache {
	c := &AnnotationCache{ready: make(chan struct{})}
	c.index(annotations)
	close(c.ready)
	return c
}

func (c *AnnotationCache) index(annotations []db.GeneAnnotation) {
	c.byGene = make(map[string]db.GeneAnnotation, len(annotations))
	c.byID = make(map[int]string, len(annotations))
	for _, a := range annotations {
		c.byGene[a.Gene] = a
		c.byID[a.ID] = a.Gene
	}
}

// Ready is a non-blocking readiness check.
func (c *AnnotationCache) Ready() bool {
	select {
	case <-c.ready:
		return true
	default:
		return false
	}
}

// Get blocks until the background load completes.
func (c *AnnotationCache) Get(gene string) (db.GeneAnnotation, bool) {
	<-c.ready
	a, found := c.byGene[gene]
	return a, found
}

// GeneByID maps a numeric annotation id back to its gene identifier.  Blocks until ready.
func (c *AnnotationCache) GeneByID(id int) (string, bool) {
	<-c.ready
	g, found := c.byID[id]
	return g, found
}
