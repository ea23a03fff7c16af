package db

import (
	"errors"
)

var (
	// MT: Constant after initialization; immutable
	NoEdgeTypeErr        = errors.New("No such edge type")
	AmbiguousEdgeTypeErr = errors.New("Edge type name matches more than one type")
)
