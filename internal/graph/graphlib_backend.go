package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	dgraph "github.com/dominikbraun/graph"
)

// Attribute keys used to carry canonical-model metadata on
// dominikbraun/graph vertices and edges, which only hold string
// attributes.
const (
	attrClasses    = "classes"    // comma-joined class list
	attrLabel      = "label"      // single edge class
	attrUID        = "uid"        // external edge id
	attrProperties = "properties" // JSON-encoded property map
)

// GraphLibBackend converts between the canonical model and an
// in-memory dominikbraun/graph structure. Semantic classes ride on
// vertex/edge attributes, so heterogeneous graphs survive the trip;
// feature matrices stay on the model (the library has no tensor
// concept, and the conversion orchestrator never strips them).
type GraphLibBackend struct {
	target dgraph.Graph[string, string]
	logger *slog.Logger
}

// NewGraphLibBackend creates a backend that serializes into target.
func NewGraphLibBackend(target dgraph.Graph[string, string]) *GraphLibBackend {
	return &GraphLibBackend{
		target: target,
		logger: slog.Default().With("component", "graphlib"),
	}
}

// Format returns FormatGraphLib.
func (b *GraphLibBackend) Format() Format { return FormatGraphLib }

// SupportsHeterogeneousFeatures reports true.
func (b *GraphLibBackend) SupportsHeterogeneousFeatures() bool { return true }

// Serialize projects the model into the target graph, vertices first.
func (b *GraphLibBackend) Serialize(ctx context.Context, m *Model) error {
	if b.target == nil {
		return fmt.Errorf("graphlib backend has no target graph")
	}
	for _, n := range m.Nodes() {
		opts := []func(*dgraph.VertexProperties){}
		if len(n.Classes) > 0 {
			opts = append(opts, dgraph.VertexAttribute(attrClasses, strings.Join(n.Classes, ",")))
		}
		if len(n.Properties) > 0 {
			encoded, err := json.Marshal(n.Properties)
			if err != nil {
				return fmt.Errorf("encode node %q properties: %w", n.ID, err)
			}
			opts = append(opts, dgraph.VertexAttribute(attrProperties, string(encoded)))
		}
		if err := b.target.AddVertex(n.ID, opts...); err != nil {
			return fmt.Errorf("add vertex %q: %w", n.ID, err)
		}
	}
	for _, e := range m.Edges() {
		opts := []func(*dgraph.EdgeProperties){
			dgraph.EdgeAttribute(attrUID, e.ID),
		}
		if len(e.Classes) > 0 {
			opts = append(opts, dgraph.EdgeAttribute(attrLabel, e.Classes[0]))
		}
		if len(e.Properties) > 0 {
			encoded, err := json.Marshal(e.Properties)
			if err != nil {
				return fmt.Errorf("encode edge %q properties: %w", e.ID, err)
			}
			opts = append(opts, dgraph.EdgeAttribute(attrProperties, string(encoded)))
		}
		if err := b.target.AddEdge(e.From, e.To, opts...); err != nil {
			return fmt.Errorf("add edge %q (%s -> %s): %w", e.ID, e.From, e.To, err)
		}
	}
	b.logger.Info("serialized graph library structure",
		"nodes", m.NodeCount(), "edges", m.EdgeCount())
	return nil
}

// FromGraphLib loads a canonical model out of a dominikbraun/graph
// structure. Vertex hashes become external node ids; edge external ids
// come from the uid attribute when present (round-trips through
// Serialize keep their identity) and are synthesized in deterministic
// enumeration order otherwise.
func FromGraphLib(g dgraph.Graph[string, string]) (*Graph, error) {
	adjacency, err := g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("%w: adjacency enumeration: %v", ErrMalformedSource, err)
	}
	directed := g.Traits().IsDirected

	hashes := make([]string, 0, len(adjacency))
	for hash := range adjacency {
		hashes = append(hashes, hash)
	}
	sort.Strings(hashes)

	m := NewModel(directed)
	nodes := make([]Node, 0, len(hashes))
	for _, hash := range hashes {
		_, props, err := g.VertexWithProperties(hash)
		if err != nil {
			return nil, fmt.Errorf("%w: vertex %q: %v", ErrMalformedSource, hash, err)
		}
		n := Node{ID: hash}
		if classes := props.Attributes[attrClasses]; classes != "" {
			n.Classes = strings.Split(classes, ",")
		}
		if encoded := props.Attributes[attrProperties]; encoded != "" {
			var decoded map[string]any
			if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
				return nil, fmt.Errorf("%w: vertex %q properties: %v", ErrMalformedSource, hash, err)
			}
			n.Properties = decoded
		}
		nodes = append(nodes, n)
	}
	if err := m.AddNodes(nodes...); err != nil {
		return nil, err
	}

	var edges []Edge
	seen := make(map[string]struct{})
	synth := 0
	for _, src := range hashes {
		targets := make([]string, 0, len(adjacency[src]))
		for tgt := range adjacency[src] {
			targets = append(targets, tgt)
		}
		sort.Strings(targets)
		for _, tgt := range targets {
			libEdge := adjacency[src][tgt]
			// Undirected adjacency maps mirror every edge; keep one copy.
			key := libEdge.Properties.Attributes[attrUID]
			if key == "" {
				a, b := src, tgt
				if !directed && a > b {
					a, b = b, a
				}
				key = a + "\x00" + b
			}
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			e := Edge{From: src, To: tgt}
			if uid := libEdge.Properties.Attributes[attrUID]; uid != "" {
				e.ID = uid
			} else {
				e.ID = "e" + strconv.Itoa(synth)
				synth++
			}
			if label := libEdge.Properties.Attributes[attrLabel]; label != "" {
				e.Classes = []string{label}
			}
			if encoded := libEdge.Properties.Attributes[attrProperties]; encoded != "" {
				var decoded map[string]any
				if err := json.Unmarshal([]byte(encoded), &decoded); err != nil {
					return nil, fmt.Errorf("%w: edge %q properties: %v", ErrMalformedSource, e.ID, err)
				}
				e.Properties = decoded
			}
			edges = append(edges, e)
		}
	}
	if err := m.AddEdges(edges...); err != nil {
		return nil, err
	}

	return newGraph(m, FormatGraphLib), nil
}

// NewGraphLibTarget allocates an empty dominikbraun/graph structure
// matching the model's directedness, ready for Serialize.
func NewGraphLibTarget(directed bool) dgraph.Graph[string, string] {
	if directed {
		return dgraph.New(dgraph.StringHash, dgraph.Directed())
	}
	return dgraph.New(dgraph.StringHash)
}
