// Package graph implements the representation-conversion core of
// ComptoxAI: one canonical in-memory graph model with identity-preserving
// backends for Neo4j, an in-memory graph library, GraphSAGE embedding
// file sets, and local snapshots.
//
// A typical workflow:
//
//	g, err := graph.FromGraphSAGE(ctx, dir, "toxdb")
//	a := g.Adjacency()
//	snap, err := g.Convert(graph.FormatSnapshot)
package graph

import (
	"fmt"

	"github.com/james-bowman/sparse"
	"gonum.org/v1/gonum/mat"
)

// Graph binds a canonical Model to the format it was loaded from (or
// last converted to). It is the unit the conversion orchestrator works
// on: backends construct it via their load functions, Convert and
// ConvertInplace move it between formats.
type Graph struct {
	model  *Model
	format Format
}

func newGraph(m *Model, f Format) *Graph {
	return &Graph{model: m, format: f}
}

// Format returns the current format tag.
func (g *Graph) Format() Format { return g.format }

// Model returns the underlying canonical model.
func (g *Graph) Model() *Model { return g.model }

// Nodes returns the node collection in dense index order.
func (g *Graph) Nodes() []Node { return g.model.Nodes() }

// Edges returns the edge collection in dense index order.
func (g *Graph) Edges() []Edge { return g.model.Edges() }

// IDMap returns the read-only identity map view.
func (g *Graph) IDMap() *IdentityMap { return g.model.IDMap() }

// IsHeterogeneous reports whether the model carries more than one node
// class or more than one edge class.
func (g *Graph) IsHeterogeneous() bool { return g.model.IsHeterogeneous() }

// Adjacency returns the sparse adjacency matrix over global dense node
// indices.
func (g *Graph) Adjacency() *sparse.CSR { return g.model.Adjacency() }

// NodeFeatures returns the feature matrix bound to the given node class
// (empty class for the homogeneous matrix).
func (g *Graph) NodeFeatures(class string) (*mat.Dense, error) {
	return g.model.NodeFeatures(class)
}

// Convert validates the model against the target format's capabilities
// and returns a new Graph tagged with that format, backed by a deep copy
// of the model. The receiver is left untouched.
func (g *Graph) Convert(to Format) (*Graph, error) {
	if err := validateTarget(g.model, to); err != nil {
		return nil, err
	}
	return newGraph(g.model.clone(), to), nil
}

// ConvertInplace retags the graph itself after the same validation as
// Convert. On failure the graph keeps its prior format and the model is
// not touched: validation happens before any mutation.
func (g *Graph) ConvertInplace(to Format) error {
	if err := validateTarget(g.model, to); err != nil {
		return err
	}
	g.format = to
	return nil
}

// validateTarget refuses conversions into formats that cannot hold the
// model's feature layout. A heterogeneous model whose features were
// pre-flattened into a single matrix (or dropped) passes: only a
// class-keyed binding is unrepresentable in homogeneous-only formats.
func validateTarget(m *Model, to Format) error {
	caps, ok := formatCapabilities[to]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownFormat, to)
	}
	if caps.heterogeneousFeatures {
		return nil
	}
	if m.NodeFeatureBinding().Kind() == FeaturesPerClass ||
		m.EdgeFeatureBinding().Kind() == FeaturesPerClass {
		return fmt.Errorf("%w: target format %q", ErrIncompatibleFeatureLayout, to)
	}
	return nil
}

// String summarizes the graph for logging and the CLI info command.
func (g *Graph) String() string {
	return fmt.Sprintf("ComptoxAI Graph{format: %s, nodes: %d, edges: %d}",
		g.format, g.model.NodeCount(), g.model.EdgeCount())
}
