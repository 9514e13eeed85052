package graph

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Node is a graph vertex in the canonical model. The external ID is the
// identifier assigned by the originating store; dense internal indices
// live in the IdentityMap. Classes are the semantic (ontology) classes
// the node belongs to; an empty slice marks a homogeneous node.
type Node struct {
	ID         string
	Classes    []string
	Properties map[string]any
}

// Edge is a directed or undirected connection between two nodes,
// referenced by their external IDs. Classes carry the edge's semantic
// labels (Neo4j relationship types map onto a single class).
type Edge struct {
	ID         string
	From       string
	To         string
	Classes    []string
	Properties map[string]any
}

// Model is the format-agnostic in-memory graph every backend reads from
// and writes to. It owns exactly one IdentityMap and one Schema, the
// node/edge collections, the feature bindings, and the optional
// precomputed walk list. Mutation goes through AddNodes/AddEdges, which
// update the IdentityMap and Schema atomically with the collections.
//
// A Model is not safe for concurrent mutation; callers needing parallel
// access should work on independent Convert copies.
type Model struct {
	directed bool

	nodes []Node
	edges []Edge

	ids    *IdentityMap
	schema *Schema

	nodeFeatures Features
	edgeFeatures Features

	// labels holds supervised-learning label membership (one-hot vectors
	// keyed by external node id) as loaded from a GraphSAGE class map.
	// These are learning targets, not semantic classes: they never make
	// the graph heterogeneous.
	labels map[string][]int

	// walks holds precomputed random-walk co-occurrence pairs of global
	// dense node indices. Sources provide them sorted ascending by first
	// element; the model stores them as opaque pairs and consumers may
	// assume that ordering holds.
	walks [][2]int
}

// NewModel creates an empty canonical model.
func NewModel(directed bool) *Model {
	return &Model{
		directed: directed,
		ids:      newIdentityMap(),
		schema:   newSchema(),
	}
}

// Directed reports whether edges are interpreted as ordered pairs.
func (m *Model) Directed() bool { return m.directed }

// Nodes returns the node collection in insertion (dense index) order.
func (m *Model) Nodes() []Node { return m.nodes }

// Edges returns the edge collection in insertion (dense index) order.
func (m *Model) Edges() []Edge { return m.edges }

// NodeCount returns the number of nodes.
func (m *Model) NodeCount() int { return m.ids.NodeCount() }

// EdgeCount returns the number of edges.
func (m *Model) EdgeCount() int { return m.ids.EdgeCount() }

// IDMap returns the read-only identity map view.
func (m *Model) IDMap() *IdentityMap { return m.ids }

// Schema returns the heterogeneity descriptor.
func (m *Model) Schema() *Schema { return m.schema }

// IsHeterogeneous reports whether the schema lists more than one node
// class or more than one edge class.
func (m *Model) IsHeterogeneous() bool { return m.schema.IsHeterogeneous() }

// AddNodes registers one or more nodes. Each node receives the next
// global dense index and, per class, the next class-local index. The
// whole batch is validated before any state changes: on error the model
// is left exactly as it was.
func (m *Model) AddNodes(nodes ...Node) error {
	seen := make(map[string]struct{}, len(nodes))
	for i, n := range nodes {
		if n.ID == "" {
			return fmt.Errorf("graph: node %d: empty external identifier", i)
		}
		if m.ids.nodes.has(n.ID) {
			return fmt.Errorf("%w: node %q", ErrDuplicateID, n.ID)
		}
		if _, dup := seen[n.ID]; dup {
			return fmt.Errorf("%w: node %q appears twice in batch", ErrDuplicateID, n.ID)
		}
		seen[n.ID] = struct{}{}
	}
	for _, n := range nodes {
		m.ids.nodes.add(n.ID, n.Classes)
		for _, class := range n.Classes {
			m.schema.addNodeClass(class)
		}
		m.nodes = append(m.nodes, n)
	}
	return nil
}

// AddEdges registers one or more edges. Same contract as AddNodes, plus
// both endpoints must already be registered nodes.
func (m *Model) AddEdges(edges ...Edge) error {
	seen := make(map[string]struct{}, len(edges))
	for i, e := range edges {
		if e.ID == "" {
			return fmt.Errorf("graph: edge %d: empty external identifier", i)
		}
		if m.ids.edges.has(e.ID) {
			return fmt.Errorf("%w: edge %q", ErrDuplicateID, e.ID)
		}
		if _, dup := seen[e.ID]; dup {
			return fmt.Errorf("%w: edge %q appears twice in batch", ErrDuplicateID, e.ID)
		}
		seen[e.ID] = struct{}{}
		if !m.ids.nodes.has(e.From) {
			return fmt.Errorf("%w: edge %q source %q", ErrDanglingReference, e.ID, e.From)
		}
		if !m.ids.nodes.has(e.To) {
			return fmt.Errorf("%w: edge %q target %q", ErrDanglingReference, e.ID, e.To)
		}
	}
	for _, e := range edges {
		m.ids.edges.add(e.ID, e.Classes)
		for _, class := range e.Classes {
			m.schema.addEdgeClass(class)
		}
		m.edges = append(m.edges, e)
	}
	return nil
}

// NodeFeatures returns the feature matrix bound to the given node class.
// The empty class addresses the homogeneous (single) matrix. A nil
// matrix with nil error means no features are bound for that class.
func (m *Model) NodeFeatures(class string) (*mat.Dense, error) {
	return featuresFor(m.nodeFeatures, m.schema.HasNodeClass, class)
}

// EdgeFeatures is the edge-class analogue of NodeFeatures.
func (m *Model) EdgeFeatures(class string) (*mat.Dense, error) {
	return featuresFor(m.edgeFeatures, m.schema.HasEdgeClass, class)
}

func featuresFor(f Features, hasClass func(string) bool, class string) (*mat.Dense, error) {
	if class == "" {
		return f.Single(), nil
	}
	if !hasClass(class) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	matrix, _ := f.ForClass(class)
	return matrix, nil
}

// SetNodeFeatures binds (or replaces) a feature matrix. The empty class
// binds a single homogeneous matrix whose row count must equal the node
// count; a named class binds one matrix of that class's cardinality into
// the class-keyed mapping. Mixing the two layouts is rejected: rebind
// from scratch instead.
func (m *Model) SetNodeFeatures(class string, matrix *mat.Dense) error {
	f, err := bindFeatures(m.nodeFeatures, class, matrix,
		m.schema.HasNodeClass, m.ids.NodeCount(), m.ids.NodeClassCount(class))
	if err != nil {
		return fmt.Errorf("node features: %w", err)
	}
	m.nodeFeatures = f
	return nil
}

// SetEdgeFeatures is the edge-class analogue of SetNodeFeatures.
func (m *Model) SetEdgeFeatures(class string, matrix *mat.Dense) error {
	f, err := bindFeatures(m.edgeFeatures, class, matrix,
		m.schema.HasEdgeClass, m.ids.EdgeCount(), m.ids.EdgeClassCount(class))
	if err != nil {
		return fmt.Errorf("edge features: %w", err)
	}
	m.edgeFeatures = f
	return nil
}

func bindFeatures(current Features, class string, matrix *mat.Dense,
	hasClass func(string) bool, total, classTotal int) (Features, error) {

	if class == "" {
		if matrix == nil {
			return NoFeatures(), nil
		}
		if current.Kind() == FeaturesPerClass {
			return current, fmt.Errorf("%w: single matrix over an existing class-keyed binding", ErrIncompatibleFeatureLayout)
		}
		if r, _ := matrix.Dims(); r != total {
			return current, fmt.Errorf("graph: feature matrix has %d rows, want %d", r, total)
		}
		return SingleFeatures(matrix), nil
	}

	if !hasClass(class) {
		return current, fmt.Errorf("%w: %q", ErrUnknownClass, class)
	}
	if matrix == nil {
		return current, fmt.Errorf("graph: nil matrix for class %q", class)
	}
	if current.Kind() == FeaturesSingle {
		return current, fmt.Errorf("%w: class-keyed matrix over an existing single binding", ErrIncompatibleFeatureLayout)
	}
	if r, _ := matrix.Dims(); r != classTotal {
		return current, fmt.Errorf("graph: class %q feature matrix has %d rows, want %d", class, r, classTotal)
	}
	byClass := map[string]*mat.Dense{class: matrix}
	if current.Kind() == FeaturesPerClass {
		for c, existing := range current.perClass {
			if c != class {
				byClass[c] = existing
			}
		}
	}
	return PerClassFeatures(byClass), nil
}

// NodeFeatureBinding returns the node feature tagged union.
func (m *Model) NodeFeatureBinding() Features { return m.nodeFeatures }

// EdgeFeatureBinding returns the edge feature tagged union.
func (m *Model) EdgeFeatureBinding() Features { return m.edgeFeatures }

// Labels returns the supervised one-hot label map, or nil when absent.
func (m *Model) Labels() map[string][]int { return m.labels }

// SetLabels replaces the supervised one-hot label map.
func (m *Model) SetLabels(labels map[string][]int) { m.labels = labels }

// Walks returns the precomputed random-walk pairs, or nil when absent.
func (m *Model) Walks() [][2]int { return m.walks }

// SetWalks replaces the precomputed random-walk pairs.
func (m *Model) SetWalks(walks [][2]int) { m.walks = walks }

// clone deep-copies the model, including property maps and matrices.
func (m *Model) clone() *Model {
	dup := &Model{
		directed:     m.directed,
		ids:          m.ids.clone(),
		schema:       m.schema.clone(),
		nodeFeatures: m.nodeFeatures.clone(),
		edgeFeatures: m.edgeFeatures.clone(),
	}
	dup.nodes = make([]Node, len(m.nodes))
	for i, n := range m.nodes {
		n.Classes = append([]string(nil), n.Classes...)
		n.Properties = cloneProperties(n.Properties)
		dup.nodes[i] = n
	}
	dup.edges = make([]Edge, len(m.edges))
	for i, e := range m.edges {
		e.Classes = append([]string(nil), e.Classes...)
		e.Properties = cloneProperties(e.Properties)
		dup.edges[i] = e
	}
	if m.labels != nil {
		dup.labels = make(map[string][]int, len(m.labels))
		for id, hot := range m.labels {
			dup.labels[id] = append([]int(nil), hot...)
		}
	}
	if m.walks != nil {
		dup.walks = append([][2]int(nil), m.walks...)
	}
	return dup
}

func cloneProperties(props map[string]any) map[string]any {
	if props == nil {
		return nil
	}
	dup := make(map[string]any, len(props))
	for k, v := range props {
		dup[k] = v
	}
	return dup
}
