package graph

import "fmt"

// IdentityMap maintains the bidirectional mapping between externally
// assigned identifiers and dense zero-indexed internal orderings, scoped
// per entity kind (node vs edge). Each entity receives a global dense
// index in insertion order; entities carrying semantic classes
// additionally receive a per-class dense index used for feature-matrix
// row addressing.
//
// The map is read-only from outside the package: all mutation flows
// through Model.AddNodes and Model.AddEdges so the bijection invariant
// (external ids map onto [0, n) with no gaps or duplicates) cannot be
// broken by callers.
type IdentityMap struct {
	nodes indexSpace
	edges indexSpace
}

// indexSpace is one dense index space (nodes or edges).
type indexSpace struct {
	toIndex map[string]int              // external id -> global dense index
	toID    []string                    // global dense index -> external id
	byClass map[string]map[string]int   // class -> external id -> class-local index
	classID map[string][]string         // class -> class-local index -> external id
}

func newIndexSpace() indexSpace {
	return indexSpace{
		toIndex: make(map[string]int),
		byClass: make(map[string]map[string]int),
		classID: make(map[string][]string),
	}
}

func newIdentityMap() *IdentityMap {
	return &IdentityMap{nodes: newIndexSpace(), edges: newIndexSpace()}
}

// add registers id in the space and in each of its classes. The caller
// is responsible for duplicate screening before committing a batch.
func (s *indexSpace) add(id string, classes []string) int {
	idx := len(s.toID)
	s.toIndex[id] = idx
	s.toID = append(s.toID, id)
	for _, class := range classes {
		if s.byClass[class] == nil {
			s.byClass[class] = make(map[string]int)
		}
		s.byClass[class][id] = len(s.classID[class])
		s.classID[class] = append(s.classID[class], id)
	}
	return idx
}

func (s *indexSpace) has(id string) bool {
	_, ok := s.toIndex[id]
	return ok
}

func (s *indexSpace) clone() indexSpace {
	dup := newIndexSpace()
	for id, idx := range s.toIndex {
		dup.toIndex[id] = idx
	}
	dup.toID = append([]string(nil), s.toID...)
	for class, m := range s.byClass {
		cm := make(map[string]int, len(m))
		for id, idx := range m {
			cm[id] = idx
		}
		dup.byClass[class] = cm
	}
	for class, ids := range s.classID {
		dup.classID[class] = append([]string(nil), ids...)
	}
	return dup
}

// NodeIndex returns the global dense index assigned to the node with the
// given external id.
func (im *IdentityMap) NodeIndex(id string) (int, bool) {
	idx, ok := im.nodes.toIndex[id]
	return idx, ok
}

// NodeID is the inverse of NodeIndex.
func (im *IdentityMap) NodeID(index int) (string, bool) {
	if index < 0 || index >= len(im.nodes.toID) {
		return "", false
	}
	return im.nodes.toID[index], true
}

// NodeClassIndex returns the class-local dense index of the node within
// the given class. Class-local indices address rows of that class's
// feature matrix.
func (im *IdentityMap) NodeClassIndex(class, id string) (int, bool) {
	m, ok := im.nodes.byClass[class]
	if !ok {
		return 0, false
	}
	idx, ok := m[id]
	return idx, ok
}

// EdgeIndex returns the global dense index assigned to the edge with the
// given external id.
func (im *IdentityMap) EdgeIndex(id string) (int, bool) {
	idx, ok := im.edges.toIndex[id]
	return idx, ok
}

// EdgeID is the inverse of EdgeIndex.
func (im *IdentityMap) EdgeID(index int) (string, bool) {
	if index < 0 || index >= len(im.edges.toID) {
		return "", false
	}
	return im.edges.toID[index], true
}

// EdgeClassIndex returns the class-local dense index of the edge within
// the given class.
func (im *IdentityMap) EdgeClassIndex(class, id string) (int, bool) {
	m, ok := im.edges.byClass[class]
	if !ok {
		return 0, false
	}
	idx, ok := m[id]
	return idx, ok
}

// NodeCount returns the number of registered nodes.
func (im *IdentityMap) NodeCount() int { return len(im.nodes.toID) }

// EdgeCount returns the number of registered edges.
func (im *IdentityMap) EdgeCount() int { return len(im.edges.toID) }

// NodeClassCount returns the number of nodes carrying the given class.
func (im *IdentityMap) NodeClassCount(class string) int {
	return len(im.nodes.classID[class])
}

// EdgeClassCount returns the number of edges carrying the given class.
func (im *IdentityMap) EdgeClassCount(class string) int {
	return len(im.edges.classID[class])
}

func (im *IdentityMap) clone() *IdentityMap {
	return &IdentityMap{nodes: im.nodes.clone(), edges: im.edges.clone()}
}

// String summarizes the map for debug logging.
func (im *IdentityMap) String() string {
	return fmt.Sprintf("IdentityMap{nodes: %d, edges: %d}", im.NodeCount(), im.EdgeCount())
}
