package graph

import "github.com/james-bowman/sparse"

// Adjacency builds the n×n sparse adjacency matrix over global dense
// node indices. Undirected models mirror every edge, so an undirected
// edge contributes two nonzero entries. Parallel edges accumulate.
func (m *Model) Adjacency() *sparse.CSR {
	n := m.ids.NodeCount()
	dok := sparse.NewDOK(n, n)
	for _, e := range m.edges {
		i, ok := m.ids.NodeIndex(e.From)
		if !ok {
			continue // unreachable: AddEdges enforces endpoint presence
		}
		j, ok := m.ids.NodeIndex(e.To)
		if !ok {
			continue
		}
		dok.Set(i, j, dok.At(i, j)+1)
		if !m.directed && i != j {
			dok.Set(j, i, dok.At(j, i)+1)
		}
	}
	return dok.ToCSR()
}
