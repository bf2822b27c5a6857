package graph

import "errors"

// Sentinel wrapped-error values carried inside *Error.Err for the
// common contract-violation cases; callers should switch on KindOf,
// not these, but the text makes debug output readable.
var (
	errEmptyKindOrName = errors.New("kind and name must be non-empty")
	errNoSuchEntity    = errors.New("no such entity")
	errNoSuchEdge      = errors.New("no such edge")
	errEmptyEdgeType   = errors.New("edge_type must be non-empty")
	errEmptyLabel      = errors.New("label must be non-empty")
	errEmptyPropKey    = errors.New("property key must be non-empty")
	errNonPositiveID   = errors.New("from_id and to_id must be positive")
	errSelfLoop        = errors.New("self-loops are rejected unless explicitly allowed")
	errMissingEndpoint = errors.New("from_id or to_id does not reference an existing entity")
)
