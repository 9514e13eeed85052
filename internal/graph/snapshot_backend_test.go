package graph

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestSnapshotStore_RoundTrip(t *testing.T) {
	m := heterogeneousModel(t)
	m.SetLabels(map[string][]int{"c1": {1, 0}, "g1": {0, 1}})
	m.SetWalks([][2]int{{0, 1}})

	path := filepath.Join(t.TempDir(), "tox.db")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Serialize(context.Background(), m))
	require.NoError(t, store.Close())

	back, err := FromSnapshot(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, FormatSnapshot, back.Format())
	assert.Equal(t, m.NodeCount(), back.Model().NodeCount())
	assert.Equal(t, m.EdgeCount(), back.Model().EdgeCount())
	assert.True(t, back.IsHeterogeneous())
	assert.Equal(t, m.Schema().NodeClasses(), back.Model().Schema().NodeClasses())

	// The class-keyed feature binding survives intact.
	assert.Equal(t, FeaturesPerClass, back.Model().NodeFeatureBinding().Kind())
	want, err := m.NodeFeatures("Chemical")
	require.NoError(t, err)
	got, err := back.Model().NodeFeatures("Chemical")
	require.NoError(t, err)
	assert.True(t, mat.EqualApprox(want, got, 1e-12))

	assert.Equal(t, m.Labels(), back.Model().Labels())
	assert.Equal(t, m.Walks(), back.Model().Walks())

	// Dense indices are reassigned identically (same insertion order).
	for _, n := range m.Nodes() {
		wantIdx, _ := m.IDMap().NodeIndex(n.ID)
		gotIdx, ok := back.IDMap().NodeIndex(n.ID)
		require.True(t, ok)
		assert.Equal(t, wantIdx, gotIdx)
	}
}

func TestSnapshotStore_LoadEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.db")
	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	_, err = FromSnapshot(context.Background(), path)
	require.ErrorIs(t, err, ErrMalformedSource)
}

func TestSnapshotStore_OverwriteReplacesPriorSnapshot(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tox.db")

	first := NewModel(true)
	require.NoError(t, first.AddNodes(Node{ID: "a"}, Node{ID: "b"}))
	second := NewModel(true)
	require.NoError(t, second.AddNodes(Node{ID: "only"}))

	store, err := OpenSnapshotStore(path)
	require.NoError(t, err)
	require.NoError(t, store.Serialize(context.Background(), first))
	require.NoError(t, store.Serialize(context.Background(), second))
	require.NoError(t, store.Close())

	back, err := FromSnapshot(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 1, back.Model().NodeCount())
	_, ok := back.IDMap().NodeIndex("only")
	assert.True(t, ok)
}
