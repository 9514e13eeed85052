package graph

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/sbinet/npyio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

// writeSageFixture lays down a minimal three-node, two-edge GraphSAGE
// dataset. Optional artifacts are included according to the flags.
func writeSageFixture(t *testing.T, dir, prefix string, withClassMap, withFeats, withWalks bool) {
	t.Helper()

	gJSON := map[string]any{
		"directed":   true,
		"multigraph": false,
		"graph":      map[string]any{},
		"nodes": []map[string]any{
			{"id": "a", "val": false, "test": false},
			{"id": "b", "val": true, "test": false},
			{"id": "c", "val": false, "test": true},
		},
		"links": []map[string]any{
			{"source": "a", "target": "b"},
			{"source": "b", "target": "c"},
		},
	}
	writeJSONFixture(t, filepath.Join(dir, prefix+"-G.json"), gJSON)
	writeJSONFixture(t, filepath.Join(dir, prefix+"-id_map.json"),
		map[string]int{"a": 0, "b": 1, "c": 2})

	if withClassMap {
		writeJSONFixture(t, filepath.Join(dir, prefix+"-class_map.json"),
			map[string][]int{"a": {1, 0}, "b": {0, 1}, "c": {1, 1}})
	}
	if withFeats {
		f, err := os.Create(filepath.Join(dir, prefix+"-feats.npy"))
		require.NoError(t, err)
		feats := mat.NewDense(3, 2, []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6})
		require.NoError(t, npyio.Write(f, feats))
		require.NoError(t, f.Close())
	}
	if withWalks {
		require.NoError(t, os.WriteFile(filepath.Join(dir, prefix+"-walks.txt"),
			[]byte("0\t1\n0\t2\n1\t2\n"), 0o644))
	}
}

func writeJSONFixture(t *testing.T, path string, v any) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, json.NewEncoder(f).Encode(v))
	require.NoError(t, f.Close())
}

func TestSageBackend_Load_FullDataset(t *testing.T) {
	dir := t.TempDir()
	writeSageFixture(t, dir, "toxdb", true, true, true)

	g, err := FromGraphSAGE(context.Background(), dir, "toxdb")
	require.NoError(t, err)

	assert.Equal(t, FormatGraphSAGE, g.Format())
	assert.Equal(t, 3, g.Model().NodeCount())
	assert.Equal(t, 2, g.Model().EdgeCount())
	assert.False(t, g.IsHeterogeneous())

	// Dense indices agree with the id map file.
	for id, want := range map[string]int{"a": 0, "b": 1, "c": 2} {
		got, ok := g.IDMap().NodeIndex(id)
		require.True(t, ok)
		assert.Equal(t, want, got)
	}

	feats, err := g.NodeFeatures("")
	require.NoError(t, err)
	r, c := feats.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, 0.4, feats.At(1, 1))

	labels := g.Model().Labels()
	require.NotNil(t, labels)
	assert.Equal(t, []int{0, 1}, labels["b"])

	assert.Equal(t, [][2]int{{0, 1}, {0, 2}, {1, 2}}, g.Model().Walks())

	// Node attributes survive as properties.
	nodes := g.Nodes()
	assert.Equal(t, true, nodes[1].Properties["val"])
}

func TestSageBackend_Load_MissingOptionalArtifacts(t *testing.T) {
	dir := t.TempDir()
	writeSageFixture(t, dir, "toxdb", false, false, false)

	g, err := FromGraphSAGE(context.Background(), dir, "toxdb")
	require.NoError(t, err)

	// Counts still match the mandatory pair.
	assert.Equal(t, 3, g.Model().NodeCount())
	assert.Equal(t, 2, g.Model().EdgeCount())

	// Every optional binding degrades to absent.
	feats, err := g.NodeFeatures("")
	require.NoError(t, err)
	assert.Nil(t, feats)
	assert.Equal(t, FeaturesNone, g.Model().NodeFeatureBinding().Kind())
	assert.Nil(t, g.Model().Labels())
	assert.Nil(t, g.Model().Walks())
}

func TestSageBackend_Load_MissingMandatoryArtifact(t *testing.T) {
	tests := []struct {
		name   string
		remove string
	}{
		{"missing graph", "toxdb-G.json"},
		{"missing id map", "toxdb-id_map.json"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			broken := t.TempDir()
			writeSageFixture(t, broken, "toxdb", false, false, false)
			require.NoError(t, os.Remove(filepath.Join(broken, tt.remove)))

			_, err := FromGraphSAGE(context.Background(), broken, "toxdb")
			require.ErrorIs(t, err, ErrMalformedSource)
		})
	}
}

func TestSageBackend_Load_IDMapMustBeDenseBijection(t *testing.T) {
	tests := []struct {
		name  string
		idMap map[string]int
	}{
		{"gap", map[string]int{"a": 0, "b": 1, "c": 3}},
		{"duplicate index", map[string]int{"a": 0, "b": 0, "c": 1}},
		{"negative index", map[string]int{"a": -1, "b": 0, "c": 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeSageFixture(t, dir, "toxdb", false, false, false)
			writeJSONFixture(t, filepath.Join(dir, "toxdb-id_map.json"), tt.idMap)

			_, err := FromGraphSAGE(context.Background(), dir, "toxdb")
			require.ErrorIs(t, err, ErrMalformedSource)
		})
	}
}

func TestSageBackend_Load_UnparsableOptionalArtifact(t *testing.T) {
	dir := t.TempDir()
	writeSageFixture(t, dir, "toxdb", false, false, false)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "toxdb-walks.txt"),
		[]byte("0 1\nnot numbers\n"), 0o644))

	_, err := FromGraphSAGE(context.Background(), dir, "toxdb")
	require.ErrorIs(t, err, ErrMalformedSource)
}

func TestSageBackend_Load_IntegerNodeIDs(t *testing.T) {
	dir := t.TempDir()
	writeJSONFixture(t, filepath.Join(dir, "num-G.json"), map[string]any{
		"directed": false,
		"nodes":    []map[string]any{{"id": 0}, {"id": 1}},
		"links":    []map[string]any{{"source": 0, "target": 1}},
	})
	writeJSONFixture(t, filepath.Join(dir, "num-id_map.json"), map[string]int{"0": 0, "1": 1})

	g, err := FromGraphSAGE(context.Background(), dir, "num")
	require.NoError(t, err)
	assert.Equal(t, 2, g.Model().NodeCount())
	idx, ok := g.IDMap().NodeIndex("1")
	require.True(t, ok)
	assert.Equal(t, 1, idx)
}

func TestSageBackend_AdjacencyFromDataset(t *testing.T) {
	dir := t.TempDir()
	writeSageFixture(t, dir, "toxdb", false, false, false)

	g, err := FromGraphSAGE(context.Background(), dir, "toxdb")
	require.NoError(t, err)

	adj := g.Adjacency()
	r, c := adj.Dims()
	assert.Equal(t, 3, r)
	assert.Equal(t, 3, c)
	// Directed fixture: exactly one nonzero per edge, at the endpoints'
	// dense indices.
	assert.Equal(t, 2, adj.NNZ())
	assert.Equal(t, 1.0, adj.At(0, 1))
	assert.Equal(t, 1.0, adj.At(1, 2))
}

func TestSageBackend_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	writeSageFixture(t, dir, "toxdb", true, true, true)

	g, err := FromGraphSAGE(context.Background(), dir, "toxdb")
	require.NoError(t, err)

	out := t.TempDir()
	require.NoError(t, NewSageBackend(out, "copy").Serialize(context.Background(), g.Model()))

	back, err := FromGraphSAGE(context.Background(), out, "copy")
	require.NoError(t, err)

	assert.Equal(t, g.Model().NodeCount(), back.Model().NodeCount())
	assert.Equal(t, g.Model().EdgeCount(), back.Model().EdgeCount())
	for _, n := range g.Nodes() {
		idx, ok := back.IDMap().NodeIndex(n.ID)
		require.True(t, ok, "node %s lost in round trip", n.ID)
		want, _ := g.IDMap().NodeIndex(n.ID)
		assert.Equal(t, want, idx)
	}

	// Endpoint multisets match (edge ids are synthesized per load).
	endpoints := func(g *Graph) map[[2]string]int {
		out := make(map[[2]string]int)
		for _, e := range g.Edges() {
			out[[2]string{e.From, e.To}]++
		}
		return out
	}
	assert.Equal(t, endpoints(g), endpoints(back))

	wantFeats, err := g.NodeFeatures("")
	require.NoError(t, err)
	gotFeats, err := back.NodeFeatures("")
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(wantFeats, gotFeats, 1e-12))

	assert.Equal(t, g.Model().Labels(), back.Model().Labels())
	assert.Equal(t, g.Model().Walks(), back.Model().Walks())
}

func TestSageBackend_Serialize_RejectsPerClassFeatures(t *testing.T) {
	m := heterogeneousModel(t)
	err := NewSageBackend(t.TempDir(), "het").Serialize(context.Background(), m)
	require.ErrorIs(t, err, ErrIncompatibleFeatureLayout)
}
