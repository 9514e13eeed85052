package graph

import (
	"context"
	"fmt"
	"log/slog"
)

// NodeRecord is the shape the Neo4j backend consumes and produces:
// the database's external id, the node's labels, and its properties.
type NodeRecord struct {
	ID         string
	Labels     []string
	Properties map[string]any
}

// EdgeRecord is the relationship analogue of NodeRecord. Start and End
// are the external ids of the endpoint nodes; Type is the relationship
// type (a single edge class).
type EdgeRecord struct {
	ID         string
	Start      string
	End        string
	Type       string
	Properties map[string]any
}

// Source is the narrow query-execution capability the backend reads
// from. Session and transaction management stay inside the
// implementation (see Client); the backend only sees record tuples.
type Source interface {
	FetchNodes(ctx context.Context) ([]NodeRecord, error)
	FetchEdges(ctx context.Context) ([]EdgeRecord, error)
}

// Sink is the write-side capability used by Serialize. Merges are
// expected to be idempotent on the external id.
type Sink interface {
	MergeNodes(ctx context.Context, nodes []NodeRecord) error
	MergeEdges(ctx context.Context, edges []EdgeRecord) error
}

// Neo4jBackend converts between the canonical model and a property
// graph reached through Source/Sink. Property graphs carry labels per
// node and a type per relationship, so heterogeneous models round-trip
// without loss.
type Neo4jBackend struct {
	source Source
	sink   Sink
	logger *slog.Logger
}

// NewNeo4jBackend creates a backend over the given collaborators.
// Either may be nil when only one direction is needed; a *Client
// satisfies both.
func NewNeo4jBackend(source Source, sink Sink) *Neo4jBackend {
	return &Neo4jBackend{
		source: source,
		sink:   sink,
		logger: slog.Default().With("component", "neo4j_backend"),
	}
}

// Format returns FormatNeo4j.
func (b *Neo4jBackend) Format() Format { return FormatNeo4j }

// SupportsHeterogeneousFeatures reports true: class-keyed bindings stay
// on the model and labels preserve class membership.
func (b *Neo4jBackend) SupportsHeterogeneousFeatures() bool { return true }

// Load fetches all nodes and relationships through the Source and
// populates a canonical model in record order, inferring the schema
// from the label sets observed. Property graphs are directed.
func (b *Neo4jBackend) Load(ctx context.Context) (*Graph, error) {
	if b.source == nil {
		return nil, fmt.Errorf("%w: neo4j backend has no source", ErrMalformedSource)
	}

	nodeRecords, err := b.source.FetchNodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch nodes: %w", err)
	}
	edgeRecords, err := b.source.FetchEdges(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch edges: %w", err)
	}

	m := NewModel(true)
	nodes := make([]Node, len(nodeRecords))
	for i, rec := range nodeRecords {
		nodes[i] = Node{ID: rec.ID, Classes: rec.Labels, Properties: rec.Properties}
	}
	if err := m.AddNodes(nodes...); err != nil {
		return nil, err
	}

	edges := make([]Edge, len(edgeRecords))
	for i, rec := range edgeRecords {
		var classes []string
		if rec.Type != "" {
			classes = []string{rec.Type}
		}
		edges[i] = Edge{
			ID:         rec.ID,
			From:       rec.Start,
			To:         rec.End,
			Classes:    classes,
			Properties: rec.Properties,
		}
	}
	if err := m.AddEdges(edges...); err != nil {
		return nil, err
	}

	b.logger.Info("loaded property graph",
		"nodes", m.NodeCount(),
		"edges", m.EdgeCount(),
		"heterogeneous", m.IsHeterogeneous())
	return newGraph(m, FormatNeo4j), nil
}

// Serialize projects the model into the Sink, nodes first so merged
// relationships always find their endpoints.
func (b *Neo4jBackend) Serialize(ctx context.Context, m *Model) error {
	if b.sink == nil {
		return fmt.Errorf("neo4j backend has no sink")
	}

	nodes := make([]NodeRecord, 0, m.NodeCount())
	for _, n := range m.Nodes() {
		nodes = append(nodes, NodeRecord{ID: n.ID, Labels: n.Classes, Properties: n.Properties})
	}
	if err := b.sink.MergeNodes(ctx, nodes); err != nil {
		return fmt.Errorf("merge nodes: %w", err)
	}

	edges := make([]EdgeRecord, 0, m.EdgeCount())
	for _, e := range m.Edges() {
		rec := EdgeRecord{ID: e.ID, Start: e.From, End: e.To, Properties: e.Properties}
		if len(e.Classes) > 0 {
			rec.Type = e.Classes[0]
		}
		edges = append(edges, rec)
	}
	if err := b.sink.MergeEdges(ctx, edges); err != nil {
		return fmt.Errorf("merge edges: %w", err)
	}

	b.logger.Info("serialized property graph", "nodes", len(nodes), "edges", len(edges))
	return nil
}

// FromNeo4j loads a graph through the given source. Convenience wrapper
// mirroring the other format constructors.
func FromNeo4j(ctx context.Context, source Source) (*Graph, error) {
	return NewNeo4jBackend(source, nil).Load(ctx)
}
