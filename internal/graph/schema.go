package graph

// Schema is the heterogeneity descriptor: the set of semantic classes
// present on nodes and edges, in first-seen order. A graph whose
// entities carry no classes is homogeneous and uses the single implicit
// class "" for feature binding.
type Schema struct {
	nodeClasses []string
	edgeClasses []string
	nodeSeen    map[string]struct{}
	edgeSeen    map[string]struct{}
}

func newSchema() *Schema {
	return &Schema{
		nodeSeen: make(map[string]struct{}),
		edgeSeen: make(map[string]struct{}),
	}
}

// NodeClasses returns the node classes in first-seen order.
func (s *Schema) NodeClasses() []string {
	return append([]string(nil), s.nodeClasses...)
}

// EdgeClasses returns the edge classes in first-seen order.
func (s *Schema) EdgeClasses() []string {
	return append([]string(nil), s.edgeClasses...)
}

// HasNodeClass reports whether class is a known node class.
func (s *Schema) HasNodeClass(class string) bool {
	_, ok := s.nodeSeen[class]
	return ok
}

// HasEdgeClass reports whether class is a known edge class.
func (s *Schema) HasEdgeClass(class string) bool {
	_, ok := s.edgeSeen[class]
	return ok
}

// IsHeterogeneous reports whether more than one node class or more than
// one edge class is present.
func (s *Schema) IsHeterogeneous() bool {
	return len(s.nodeClasses) > 1 || len(s.edgeClasses) > 1
}

func (s *Schema) addNodeClass(class string) {
	if _, ok := s.nodeSeen[class]; ok {
		return
	}
	s.nodeSeen[class] = struct{}{}
	s.nodeClasses = append(s.nodeClasses, class)
}

func (s *Schema) addEdgeClass(class string) {
	if _, ok := s.edgeSeen[class]; ok {
		return
	}
	s.edgeSeen[class] = struct{}{}
	s.edgeClasses = append(s.edgeClasses, class)
}

func (s *Schema) clone() *Schema {
	dup := newSchema()
	for _, c := range s.nodeClasses {
		dup.addNodeClass(c)
	}
	for _, c := range s.edgeClasses {
		dup.addEdgeClass(c)
	}
	return dup
}
