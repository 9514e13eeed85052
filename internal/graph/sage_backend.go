package graph

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sbinet/npyio"
	"gonum.org/v1/gonum/mat"
)

// SageBackend reads and writes GraphSAGE embedding datasets: a file set
// under a directory sharing a name prefix, following
// https://github.com/williamleif/GraphSAGE.
//
//	{prefix}-G.json         mandatory  node-link JSON graph
//	{prefix}-id_map.json    mandatory  external id -> dense index
//	{prefix}-class_map.json optional   external id -> one-hot label vector
//	{prefix}-feats.npy      optional   NumPy feature array, id-map row order
//	{prefix}-walks.txt      optional   one dense-index pair per line
//
// The three optional artifacts are independent: any subset may be
// absent without affecting the mandatory pair. The format holds a
// single homogeneous feature matrix only.
type SageBackend struct {
	dir    string
	prefix string
	logger *slog.Logger
}

// NewSageBackend creates a backend over the dataset at dir/{prefix}-*.
func NewSageBackend(dir, prefix string) *SageBackend {
	return &SageBackend{
		dir:    dir,
		prefix: prefix,
		logger: slog.Default().With("component", "graphsage", "prefix", prefix),
	}
}

// Format returns FormatGraphSAGE.
func (b *SageBackend) Format() Format { return FormatGraphSAGE }

// SupportsHeterogeneousFeatures reports false: the -feats.npy artifact
// is one dense array with no class keying.
func (b *SageBackend) SupportsHeterogeneousFeatures() bool { return false }

func (b *SageBackend) path(suffix string) string {
	return filepath.Join(b.dir, b.prefix+suffix)
}

// Load parses the file set into a canonical model. A missing or
// unparsable mandatory artifact aborts with ErrMalformedSource and no
// model; missing optional artifacts degrade to absent bindings.
func (b *SageBackend) Load(ctx context.Context) (*Graph, error) {
	doc, err := b.loadNodeLink()
	if err != nil {
		return nil, err
	}
	idMap, ordered, err := b.loadIDMap()
	if err != nil {
		return nil, err
	}

	classMap, err := b.loadClassMap()
	if err != nil {
		return nil, err
	}
	feats, err := b.loadFeatures()
	if err != nil {
		return nil, err
	}
	walks, err := b.loadWalks()
	if err != nil {
		return nil, err
	}

	if len(doc.Nodes) != len(ordered) {
		return nil, fmt.Errorf("%w: %s-G.json has %d nodes, id map has %d",
			ErrMalformedSource, b.prefix, len(doc.Nodes), len(ordered))
	}

	// Nodes are registered in id-map order so global dense indices agree
	// with the dense indices used by -feats.npy rows and -walks.txt.
	nodes := make([]Node, len(ordered))
	seen := 0
	for _, raw := range doc.Nodes {
		id, err := normalizeID(raw["id"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s-G.json node: %v", ErrMalformedSource, b.prefix, err)
		}
		idx, ok := idMap[id]
		if !ok {
			return nil, fmt.Errorf("%w: node %q missing from %s-id_map.json",
				ErrMalformedSource, id, b.prefix)
		}
		props := make(map[string]any, len(raw)-1)
		for k, v := range raw {
			if k != "id" {
				props[k] = v
			}
		}
		nodes[idx] = Node{ID: id, Properties: props}
		seen++
	}
	if seen != len(ordered) {
		return nil, fmt.Errorf("%w: %s-G.json node set does not cover the id map",
			ErrMalformedSource, b.prefix)
	}

	m := NewModel(doc.Directed)
	if err := m.AddNodes(nodes...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}

	edges := make([]Edge, 0, len(doc.Links))
	for i, raw := range doc.Links {
		src, err := normalizeID(raw["source"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s-G.json link %d source: %v", ErrMalformedSource, b.prefix, i, err)
		}
		tgt, err := normalizeID(raw["target"])
		if err != nil {
			return nil, fmt.Errorf("%w: %s-G.json link %d target: %v", ErrMalformedSource, b.prefix, i, err)
		}
		e := Edge{ID: "e" + strconv.Itoa(i), From: src, To: tgt}
		if label, ok := raw["label"].(string); ok && label != "" {
			e.Classes = []string{label}
		}
		props := make(map[string]any)
		for k, v := range raw {
			if k != "source" && k != "target" && k != "label" {
				props[k] = v
			}
		}
		if len(props) > 0 {
			e.Properties = props
		}
		edges = append(edges, e)
	}
	if err := m.AddEdges(edges...); err != nil {
		return nil, err
	}

	if feats != nil {
		if err := m.SetNodeFeatures("", feats); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
		}
	}
	if classMap != nil {
		m.SetLabels(classMap)
	}
	if walks != nil {
		m.SetWalks(walks)
	}

	b.logger.Info("loaded graphsage dataset",
		"nodes", m.NodeCount(),
		"edges", m.EdgeCount(),
		"features", feats != nil,
		"class_map", classMap != nil,
		"walks", len(walks))
	return newGraph(m, FormatGraphSAGE), nil
}

func (b *SageBackend) loadNodeLink() (*nodeLinkDoc, error) {
	f, err := os.Open(b.path("-G.json"))
	if err != nil {
		return nil, fmt.Errorf("%w: %s-G.json: %v", ErrMalformedSource, b.prefix, err)
	}
	defer f.Close()
	doc, err := decodeNodeLink(f)
	if err != nil {
		return nil, fmt.Errorf("%w: %s-G.json: %v", ErrMalformedSource, b.prefix, err)
	}
	return doc, nil
}

// loadIDMap parses the id map and validates it is a bijection onto
// [0, n): no duplicates, no gaps. The returned slice is the inverse
// mapping (dense index -> external id).
func (b *SageBackend) loadIDMap() (map[string]int, []string, error) {
	f, err := os.Open(b.path("-id_map.json"))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %s-id_map.json: %v", ErrMalformedSource, b.prefix, err)
	}
	defer f.Close()

	var idMap map[string]int
	if err := json.NewDecoder(f).Decode(&idMap); err != nil {
		return nil, nil, fmt.Errorf("%w: %s-id_map.json: %v", ErrMalformedSource, b.prefix, err)
	}

	ordered := make([]string, len(idMap))
	claimed := make([]bool, len(idMap))
	for id, idx := range idMap {
		if idx < 0 || idx >= len(idMap) || claimed[idx] {
			return nil, nil, fmt.Errorf("%w: %s-id_map.json is not a dense bijection (id %q -> %d)",
				ErrMalformedSource, b.prefix, id, idx)
		}
		claimed[idx] = true
		ordered[idx] = id
	}
	return idMap, ordered, nil
}

func (b *SageBackend) loadClassMap() (map[string][]int, error) {
	f, err := os.Open(b.path("-class_map.json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s-class_map.json: %v", ErrMalformedSource, b.prefix, err)
	}
	defer f.Close()

	var classMap map[string][]int
	if err := json.NewDecoder(f).Decode(&classMap); err != nil {
		return nil, fmt.Errorf("%w: %s-class_map.json: %v", ErrMalformedSource, b.prefix, err)
	}
	return classMap, nil
}

func (b *SageBackend) loadFeatures() (*mat.Dense, error) {
	f, err := os.Open(b.path("-feats.npy"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s-feats.npy: %v", ErrMalformedSource, b.prefix, err)
	}
	defer f.Close()

	var feats mat.Dense
	if err := npyio.Read(f, &feats); err != nil {
		return nil, fmt.Errorf("%w: %s-feats.npy: %v", ErrMalformedSource, b.prefix, err)
	}
	return &feats, nil
}

// loadWalks parses the optional precomputed random-walk pairs. The
// dataset contract says lines are sorted ascending by first element;
// that ordering is the producer's responsibility and is deliberately
// not validated here, so permissively ordered legacy files still load.
// Consumers of Walks() may assume the contract holds.
func (b *SageBackend) loadWalks() ([][2]int, error) {
	f, err := os.Open(b.path("-walks.txt"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s-walks.txt: %v", ErrMalformedSource, b.prefix, err)
	}
	defer f.Close()

	var walks [][2]int
	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if len(fields) != 2 {
			return nil, fmt.Errorf("%w: %s-walks.txt line %d: want 2 fields, got %d",
				ErrMalformedSource, b.prefix, line, len(fields))
		}
		first, err1 := strconv.Atoi(fields[0])
		second, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, fmt.Errorf("%w: %s-walks.txt line %d: non-integer pair",
				ErrMalformedSource, b.prefix, line)
		}
		walks = append(walks, [2]int{first, second})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s-walks.txt: %v", ErrMalformedSource, b.prefix, err)
	}
	return walks, nil
}

// Serialize writes the model out as a GraphSAGE file set. A class-keyed
// feature binding cannot be represented and fails before any file is
// written; flatten the classes into a single matrix first.
func (b *SageBackend) Serialize(ctx context.Context, m *Model) error {
	if m.NodeFeatureBinding().Kind() == FeaturesPerClass ||
		m.EdgeFeatureBinding().Kind() == FeaturesPerClass {
		return fmt.Errorf("%w: graphsage datasets hold one homogeneous matrix", ErrIncompatibleFeatureLayout)
	}
	if err := os.MkdirAll(b.dir, 0o755); err != nil {
		return fmt.Errorf("create dataset directory: %w", err)
	}

	doc := &nodeLinkDoc{
		Directed: m.Directed(),
		Graph:    map[string]any{},
		Nodes:    make([]map[string]any, 0, m.NodeCount()),
		Links:    make([]map[string]any, 0, m.EdgeCount()),
	}
	idMap := make(map[string]int, m.NodeCount())
	for _, n := range m.Nodes() {
		entry := map[string]any{"id": n.ID}
		for k, v := range n.Properties {
			entry[k] = v
		}
		doc.Nodes = append(doc.Nodes, entry)
		idx, _ := m.IDMap().NodeIndex(n.ID)
		idMap[n.ID] = idx
	}
	for _, e := range m.Edges() {
		entry := map[string]any{"source": e.From, "target": e.To}
		if len(e.Classes) > 0 {
			entry["label"] = e.Classes[0]
		}
		for k, v := range e.Properties {
			entry[k] = v
		}
		doc.Links = append(doc.Links, entry)
	}

	if err := b.writeJSON("-G.json", doc); err != nil {
		return err
	}
	if err := b.writeJSON("-id_map.json", idMap); err != nil {
		return err
	}
	if labels := m.Labels(); labels != nil {
		if err := b.writeJSON("-class_map.json", labels); err != nil {
			return err
		}
	}
	if feats := m.NodeFeatureBinding().Single(); feats != nil {
		if err := b.writeFeatures(feats); err != nil {
			return err
		}
	}
	if walks := m.Walks(); walks != nil {
		if err := b.writeWalks(walks); err != nil {
			return err
		}
	}

	b.logger.Info("serialized graphsage dataset", "dir", b.dir,
		"nodes", m.NodeCount(), "edges", m.EdgeCount())
	return nil
}

func (b *SageBackend) writeJSON(suffix string, v any) error {
	f, err := os.Create(b.path(suffix))
	if err != nil {
		return fmt.Errorf("write %s%s: %w", b.prefix, suffix, err)
	}
	defer f.Close()
	if err := json.NewEncoder(f).Encode(v); err != nil {
		return fmt.Errorf("write %s%s: %w", b.prefix, suffix, err)
	}
	return nil
}

func (b *SageBackend) writeFeatures(feats *mat.Dense) error {
	f, err := os.Create(b.path("-feats.npy"))
	if err != nil {
		return fmt.Errorf("write %s-feats.npy: %w", b.prefix, err)
	}
	defer f.Close()
	if err := npyio.Write(f, feats); err != nil {
		return fmt.Errorf("write %s-feats.npy: %w", b.prefix, err)
	}
	return nil
}

func (b *SageBackend) writeWalks(walks [][2]int) error {
	f, err := os.Create(b.path("-walks.txt"))
	if err != nil {
		return fmt.Errorf("write %s-walks.txt: %w", b.prefix, err)
	}
	defer f.Close()
	w := bufio.NewWriter(f)
	for _, pair := range walks {
		fmt.Fprintf(w, "%d\t%d\n", pair[0], pair[1])
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s-walks.txt: %w", b.prefix, err)
	}
	return nil
}

// FromGraphSAGE loads the dataset at dir/{prefix}-*.
func FromGraphSAGE(ctx context.Context, dir, prefix string) (*Graph, error) {
	return NewSageBackend(dir, prefix).Load(ctx)
}
