package graph

import "gonum.org/v1/gonum/mat"

// FeatureKind tags the three possible feature bindings of a model.
type FeatureKind int

const (
	// FeaturesNone means no feature matrix is bound.
	FeaturesNone FeatureKind = iota
	// FeaturesSingle means one matrix covers every entity, row-addressed
	// by global dense index. This is the only layout homogeneous-only
	// formats (GraphSAGE) can serialize.
	FeaturesSingle
	// FeaturesPerClass means one matrix per class, row-addressed by
	// class-local dense index.
	FeaturesPerClass
)

// Features is the tagged union FeaturesNone | FeaturesSingle(matrix) |
// FeaturesPerClass(class -> matrix). Conversion logic switches on
// Kind() rather than nil-checking matrices at call sites.
type Features struct {
	kind     FeatureKind
	single   *mat.Dense
	perClass map[string]*mat.Dense
}

// NoFeatures returns the empty binding.
func NoFeatures() Features { return Features{kind: FeaturesNone} }

// SingleFeatures binds one matrix for all entities.
func SingleFeatures(m *mat.Dense) Features {
	return Features{kind: FeaturesSingle, single: m}
}

// PerClassFeatures binds one matrix per class.
func PerClassFeatures(byClass map[string]*mat.Dense) Features {
	return Features{kind: FeaturesPerClass, perClass: byClass}
}

// Kind returns the binding tag.
func (f Features) Kind() FeatureKind { return f.kind }

// Single returns the homogeneous matrix, or nil when Kind() is not
// FeaturesSingle.
func (f Features) Single() *mat.Dense {
	if f.kind != FeaturesSingle {
		return nil
	}
	return f.single
}

// ForClass returns the matrix bound to class.
func (f Features) ForClass(class string) (*mat.Dense, bool) {
	if f.kind != FeaturesPerClass {
		return nil, false
	}
	m, ok := f.perClass[class]
	return m, ok
}

// Classes returns the classes with a bound matrix.
func (f Features) Classes() []string {
	if f.kind != FeaturesPerClass {
		return nil
	}
	classes := make([]string, 0, len(f.perClass))
	for class := range f.perClass {
		classes = append(classes, class)
	}
	return classes
}

func (f Features) clone() Features {
	switch f.kind {
	case FeaturesSingle:
		return SingleFeatures(mat.DenseCopyOf(f.single))
	case FeaturesPerClass:
		dup := make(map[string]*mat.Dense, len(f.perClass))
		for class, m := range f.perClass {
			dup[class] = mat.DenseCopyOf(m)
		}
		return PerClassFeatures(dup)
	default:
		return NoFeatures()
	}
}

// matrixRows converts a dense matrix into row slices, the layout used
// by JSON-serializing backends.
func matrixRows(m *mat.Dense) [][]float64 {
	if m == nil {
		return nil
	}
	r, c := m.Dims()
	rows := make([][]float64, r)
	for i := 0; i < r; i++ {
		row := make([]float64, c)
		mat.Row(row, i, m)
		rows[i] = row
	}
	return rows
}

// rowsMatrix is the inverse of matrixRows. Empty input yields nil.
func rowsMatrix(rows [][]float64) *mat.Dense {
	if len(rows) == 0 {
		return nil
	}
	r, c := len(rows), len(rows[0])
	m := mat.NewDense(r, c, nil)
	for i, row := range rows {
		m.SetRow(i, row)
	}
	return m
}
