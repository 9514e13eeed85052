package graph

import "errors"

// Sentinel errors for the conversion core. Callers match them with
// errors.Is; adapters wrap them with file/record context via fmt.Errorf.
var (
	// ErrDuplicateID indicates an external identifier collision on insert.
	ErrDuplicateID = errors.New("graph: duplicate external identifier")

	// ErrDanglingReference indicates an edge referencing an endpoint that
	// was never registered as a node.
	ErrDanglingReference = errors.New("graph: edge references unknown endpoint")

	// ErrUnknownClass indicates a reference to a semantic class that is
	// absent from the model's schema.
	ErrUnknownClass = errors.New("graph: class not present in schema")

	// ErrMalformedSource indicates a mandatory external artifact is
	// missing or unparsable. Loads abort without producing a model.
	ErrMalformedSource = errors.New("graph: malformed source artifact")

	// ErrIncompatibleFeatureLayout indicates a class-keyed feature binding
	// being projected into a format that only supports a single
	// homogeneous feature matrix.
	ErrIncompatibleFeatureLayout = errors.New("graph: heterogeneous feature layout incompatible with target format")

	// ErrUnknownFormat indicates a format tag with no registered backend.
	ErrUnknownFormat = errors.New("graph: unknown format")
)
