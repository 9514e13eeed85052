package graph

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSource serves canned records, standing in for a live database.
type fakeSource struct {
	nodes []NodeRecord
	edges []EdgeRecord
}

func (f *fakeSource) FetchNodes(ctx context.Context) ([]NodeRecord, error) { return f.nodes, nil }
func (f *fakeSource) FetchEdges(ctx context.Context) ([]EdgeRecord, error) { return f.edges, nil }

// fakeSink records what Serialize hands it.
type fakeSink struct {
	nodes []NodeRecord
	edges []EdgeRecord
}

func (f *fakeSink) MergeNodes(ctx context.Context, nodes []NodeRecord) error {
	f.nodes = append(f.nodes, nodes...)
	return nil
}

func (f *fakeSink) MergeEdges(ctx context.Context, edges []EdgeRecord) error {
	f.edges = append(f.edges, edges...)
	return nil
}

func toxSource() *fakeSource {
	return &fakeSource{
		nodes: []NodeRecord{
			{ID: "4:ab:1", Labels: []string{"Chemical"}, Properties: map[string]any{"name": "BPA"}},
			{ID: "4:ab:2", Labels: []string{"Gene"}, Properties: map[string]any{"symbol": "ESR1"}},
			{ID: "4:ab:3", Labels: []string{"Chemical"}},
		},
		edges: []EdgeRecord{
			{ID: "5:ab:1", Start: "4:ab:1", End: "4:ab:2", Type: "CHEMICALBINDSGENE"},
		},
	}
}

func TestNeo4jBackend_Load(t *testing.T) {
	g, err := FromNeo4j(context.Background(), toxSource())
	require.NoError(t, err)

	assert.Equal(t, FormatNeo4j, g.Format())
	assert.Equal(t, 3, g.Model().NodeCount())
	assert.Equal(t, 1, g.Model().EdgeCount())
	assert.True(t, g.IsHeterogeneous())
	assert.Equal(t, []string{"Chemical", "Gene"}, g.Model().Schema().NodeClasses())

	// Identity map is a dense bijection in record order, globally and
	// per class.
	for i, id := range []string{"4:ab:1", "4:ab:2", "4:ab:3"} {
		idx, ok := g.IDMap().NodeIndex(id)
		require.True(t, ok)
		assert.Equal(t, i, idx)
	}
	idx, ok := g.IDMap().NodeClassIndex("Chemical", "4:ab:3")
	require.True(t, ok)
	assert.Equal(t, 1, idx)

	// Relationship types become edge classes.
	assert.Equal(t, []string{"CHEMICALBINDSGENE"}, g.Edges()[0].Classes)
}

func TestNeo4jBackend_Load_DanglingRelationship(t *testing.T) {
	src := toxSource()
	src.edges = append(src.edges, EdgeRecord{ID: "5:ab:9", Start: "4:ab:1", End: "4:ab:404", Type: "X"})

	_, err := FromNeo4j(context.Background(), src)
	require.ErrorIs(t, err, ErrDanglingReference)
}

func TestNeo4jBackend_Load_NoSource(t *testing.T) {
	_, err := NewNeo4jBackend(nil, nil).Load(context.Background())
	require.ErrorIs(t, err, ErrMalformedSource)
}

func TestNeo4jBackend_Serialize(t *testing.T) {
	g, err := FromNeo4j(context.Background(), toxSource())
	require.NoError(t, err)

	sink := &fakeSink{}
	require.NoError(t, NewNeo4jBackend(nil, sink).Serialize(context.Background(), g.Model()))

	require.Len(t, sink.nodes, 3)
	require.Len(t, sink.edges, 1)
	assert.Equal(t, "4:ab:1", sink.nodes[0].ID)
	assert.Equal(t, []string{"Chemical"}, sink.nodes[0].Labels)
	assert.Equal(t, "CHEMICALBINDSGENE", sink.edges[0].Type)
	assert.Equal(t, "4:ab:2", sink.edges[0].End)
}

func TestNeo4jBackend_RoundTripThroughSink(t *testing.T) {
	g, err := FromNeo4j(context.Background(), toxSource())
	require.NoError(t, err)

	sink := &fakeSink{}
	require.NoError(t, NewNeo4jBackend(nil, sink).Serialize(context.Background(), g.Model()))

	// Feed the serialized records back in: identity and typing survive.
	back, err := FromNeo4j(context.Background(), &fakeSource{nodes: sink.nodes, edges: sink.edges})
	require.NoError(t, err)
	assert.Equal(t, g.Model().NodeCount(), back.Model().NodeCount())
	assert.Equal(t, g.Model().Schema().NodeClasses(), back.Model().Schema().NodeClasses())
	for _, n := range g.Nodes() {
		idx, ok := back.IDMap().NodeIndex(n.ID)
		require.True(t, ok)
		want, _ := g.IDMap().NodeIndex(n.ID)
		assert.Equal(t, want, idx)
	}
}

func TestSanitizeIdentifier(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Chemical", "Chemical"},
		{"CHEMICAL_BINDS_GENE", "CHEMICAL_BINDS_GENE"},
		{"bad-label; DROP", "badlabelDROP"},
		{"", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeIdentifier(tt.in))
	}
}

func TestLabelExpr(t *testing.T) {
	assert.Equal(t, ":Chemical:Compound", labelExpr([]string{"Chemical", "Compound"}))
	assert.Equal(t, "", labelExpr(nil))
}
