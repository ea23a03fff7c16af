// Error taxonomy of the evaluator.
//
// Syntax errors surface as *query.SyntaxError from parsing.  EmptyResultError means a well-formed
// query selected nothing and is "no results", not a system fault.  ResultTooLargeError is the
// post-evaluation size guard.  ErrNoEdgeData is internal: edge-annotation augmentation found
// nothing, the augmentation is skipped and evaluation continues.  Data-source failures propagate
// fatally for the invocation; nothing here retries.

package engine

import (
	"errors"
	"fmt"
)

type EmptyResultError struct {
	Reason string
}

func (e *EmptyResultError) Error() string {
	return "Empty result: " + e.Reason
}

type ResultTooLargeError struct {
	Size, Limit int
}

func (e *ResultTooLargeError) Error() string {
	return fmt.Sprintf("Result too large: %d cells exceeds the limit of %d, narrow the query", e.Size, e.Limit)
}

var ErrNoEdgeData = errors.New("No edge data")
