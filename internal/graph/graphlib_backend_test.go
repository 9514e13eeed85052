package graph

import (
	"context"
	"testing"

	dgraph "github.com/dominikbraun/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraphLibBackend_RoundTrip(t *testing.T) {
	m := NewModel(true)
	require.NoError(t, m.AddNodes(
		Node{ID: "c1", Classes: []string{"Chemical"}, Properties: map[string]any{"name": "BPA"}},
		Node{ID: "g1", Classes: []string{"Gene"}},
		Node{ID: "g2", Classes: []string{"Gene"}},
	))
	require.NoError(t, m.AddEdges(
		Edge{ID: "r1", From: "c1", To: "g1", Classes: []string{"CHEMICALBINDSGENE"}},
		Edge{ID: "r2", From: "g1", To: "g2", Classes: []string{"GENEINTERACTSWITHGENE"}},
	))

	target := NewGraphLibTarget(true)
	require.NoError(t, NewGraphLibBackend(target).Serialize(context.Background(), m))

	order, err := target.Order()
	require.NoError(t, err)
	assert.Equal(t, 3, order)
	size, err := target.Size()
	require.NoError(t, err)
	assert.Equal(t, 2, size)

	back, err := FromGraphLib(target)
	require.NoError(t, err)
	assert.Equal(t, FormatGraphLib, back.Format())
	assert.Equal(t, 3, back.Model().NodeCount())
	assert.Equal(t, 2, back.Model().EdgeCount())
	assert.True(t, back.IsHeterogeneous())

	// External edge identity survives via the uid attribute.
	ids := map[string][2]string{}
	for _, e := range back.Edges() {
		ids[e.ID] = [2]string{e.From, e.To}
	}
	assert.Equal(t, [2]string{"c1", "g1"}, ids["r1"])
	assert.Equal(t, [2]string{"g1", "g2"}, ids["r2"])

	// Classes and JSON-encoded properties round-trip.
	for _, n := range back.Nodes() {
		if n.ID == "c1" {
			assert.Equal(t, []string{"Chemical"}, n.Classes)
			assert.Equal(t, "BPA", n.Properties["name"])
		}
	}
}

func TestFromGraphLib_UndirectedDeduplicatesMirroredEdges(t *testing.T) {
	g := dgraph.New(dgraph.StringHash)
	require.NoError(t, g.AddVertex("a"))
	require.NoError(t, g.AddVertex("b"))
	require.NoError(t, g.AddVertex("c"))
	require.NoError(t, g.AddEdge("a", "b"))
	require.NoError(t, g.AddEdge("b", "c"))

	loaded, err := FromGraphLib(g)
	require.NoError(t, err)
	assert.Equal(t, 3, loaded.Model().NodeCount())
	assert.Equal(t, 2, loaded.Model().EdgeCount())
	assert.False(t, loaded.Model().Directed())

	// The undirected adjacency still mirrors in the sparse export.
	assert.Equal(t, 4, loaded.Adjacency().NNZ())
}

func TestFromGraphLib_PlainGraphIsHomogeneous(t *testing.T) {
	g := dgraph.New(dgraph.StringHash, dgraph.Directed())
	require.NoError(t, g.AddVertex("x"))
	require.NoError(t, g.AddVertex("y"))
	require.NoError(t, g.AddEdge("x", "y"))

	loaded, err := FromGraphLib(g)
	require.NoError(t, err)
	assert.False(t, loaded.IsHeterogeneous())
	assert.True(t, loaded.Model().Directed())

	// Synthesized edge ids are dense and deterministic.
	_, ok := loaded.IDMap().EdgeIndex("e0")
	assert.True(t, ok)
}
