package graph

import "context"

// Format tags the external representation backing a Graph.
type Format string

const (
	// FormatNeo4j is a property graph held in a Neo4j database.
	FormatNeo4j Format = "neo4j"
	// FormatGraphLib is an in-memory dominikbraun/graph structure.
	FormatGraphLib Format = "graphlib"
	// FormatGraphSAGE is the GraphSAGE flat-file embedding dataset.
	FormatGraphSAGE Format = "graphsage"
	// FormatSnapshot is a local bbolt snapshot of the canonical model.
	FormatSnapshot Format = "snapshot"
)

// Backend converts between the canonical model and one external
// representation. Loading is backend-specific (sources differ too much
// for one signature) and lives on each concrete type; the shared
// contract covers projection and capability reporting. Backends are
// selected by explicit format tag, never by runtime type inspection.
type Backend interface {
	// Format returns the backend's format tag.
	Format() Format

	// SupportsHeterogeneousFeatures reports whether the target format
	// can represent a class-keyed feature binding. Formats that only
	// hold a single homogeneous matrix return false.
	SupportsHeterogeneousFeatures() bool

	// Serialize projects the model into the backend's destination.
	// Backends whose format cannot hold the model's feature layout fail
	// with ErrIncompatibleFeatureLayout and write nothing.
	Serialize(ctx context.Context, m *Model) error
}

// formatCapabilities records per-format layout support so conversions
// can be validated without instantiating a backend.
var formatCapabilities = map[Format]struct {
	heterogeneousFeatures bool
}{
	FormatNeo4j:     {heterogeneousFeatures: true},
	FormatGraphLib:  {heterogeneousFeatures: true},
	FormatGraphSAGE: {heterogeneousFeatures: false},
	FormatSnapshot:  {heterogeneousFeatures: true},
}
