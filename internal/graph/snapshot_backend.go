package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	bolt "go.etcd.io/bbolt"
)

const (
	snapshotBucket = "graph"
	snapshotKey    = "model"
)

// SnapshotStore persists whole canonical models in a local bbolt file,
// so a graph pulled out of Neo4j can be reopened without re-querying
// the database. The full feature binding (including class-keyed
// matrices), supervised labels, and walk list survive the round trip.
type SnapshotStore struct {
	db     *bolt.DB
	logger *slog.Logger
}

// OpenSnapshotStore opens (creating if needed) the snapshot file.
func OpenSnapshotStore(path string) (*SnapshotStore, error) {
	db, err := bolt.Open(path, 0o600, nil)
	if err != nil {
		return nil, fmt.Errorf("open snapshot store %s: %w", path, err)
	}
	return &SnapshotStore{
		db:     db,
		logger: slog.Default().With("component", "snapshot", "path", path),
	}, nil
}

// Close closes the underlying database file.
func (s *SnapshotStore) Close() error { return s.db.Close() }

// Format returns FormatSnapshot.
func (s *SnapshotStore) Format() Format { return FormatSnapshot }

// SupportsHeterogeneousFeatures reports true: the snapshot encodes the
// feature binding tag verbatim.
func (s *SnapshotStore) SupportsHeterogeneousFeatures() bool { return true }

// modelSnapshot is the stored JSON shape of a canonical model.
type modelSnapshot struct {
	Directed     bool                `json:"directed"`
	Nodes        []Node              `json:"nodes"`
	Edges        []Edge              `json:"edges"`
	NodeFeatures featuresSnapshot    `json:"node_features"`
	EdgeFeatures featuresSnapshot    `json:"edge_features"`
	Labels       map[string][]int    `json:"labels,omitempty"`
	Walks        [][2]int            `json:"walks,omitempty"`
}

type featuresSnapshot struct {
	Kind     FeatureKind              `json:"kind"`
	Single   [][]float64              `json:"single,omitempty"`
	PerClass map[string][][]float64   `json:"per_class,omitempty"`
}

func snapshotFeatures(f Features) featuresSnapshot {
	snap := featuresSnapshot{Kind: f.Kind()}
	switch f.Kind() {
	case FeaturesSingle:
		snap.Single = matrixRows(f.Single())
	case FeaturesPerClass:
		snap.PerClass = make(map[string][][]float64)
		for _, class := range f.Classes() {
			m, _ := f.ForClass(class)
			snap.PerClass[class] = matrixRows(m)
		}
	}
	return snap
}

func (snap featuresSnapshot) restore(m *Model, forNodes bool) error {
	bind := m.SetNodeFeatures
	if !forNodes {
		bind = m.SetEdgeFeatures
	}
	switch snap.Kind {
	case FeaturesNone:
		return nil
	case FeaturesSingle:
		return bind("", rowsMatrix(snap.Single))
	case FeaturesPerClass:
		for class, rows := range snap.PerClass {
			if err := bind(class, rowsMatrix(rows)); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("%w: unknown feature kind %d", ErrMalformedSource, snap.Kind)
	}
}

// Serialize writes the model into the store, replacing any previous
// snapshot in a single transaction.
func (s *SnapshotStore) Serialize(ctx context.Context, m *Model) error {
	snap := modelSnapshot{
		Directed:     m.Directed(),
		Nodes:        m.Nodes(),
		Edges:        m.Edges(),
		NodeFeatures: snapshotFeatures(m.NodeFeatureBinding()),
		EdgeFeatures: snapshotFeatures(m.EdgeFeatureBinding()),
		Labels:       m.Labels(),
		Walks:        m.Walks(),
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists([]byte(snapshotBucket))
		if err != nil {
			return err
		}
		return bucket.Put([]byte(snapshotKey), encoded)
	})
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	s.logger.Info("serialized snapshot", "nodes", m.NodeCount(), "edges", m.EdgeCount())
	return nil
}

// Load restores the stored model. An empty or foreign file fails with
// ErrMalformedSource.
func (s *SnapshotStore) Load(ctx context.Context) (*Graph, error) {
	var encoded []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		bucket := tx.Bucket([]byte(snapshotBucket))
		if bucket == nil {
			return fmt.Errorf("%w: snapshot bucket missing", ErrMalformedSource)
		}
		data := bucket.Get([]byte(snapshotKey))
		if data == nil {
			return fmt.Errorf("%w: no snapshot stored", ErrMalformedSource)
		}
		encoded = append([]byte(nil), data...)
		return nil
	})
	if err != nil {
		return nil, err
	}

	var snap modelSnapshot
	if err := json.Unmarshal(encoded, &snap); err != nil {
		return nil, fmt.Errorf("%w: decode snapshot: %v", ErrMalformedSource, err)
	}

	m := NewModel(snap.Directed)
	if err := m.AddNodes(snap.Nodes...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	if err := m.AddEdges(snap.Edges...); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedSource, err)
	}
	if err := snap.NodeFeatures.restore(m, true); err != nil {
		return nil, err
	}
	if err := snap.EdgeFeatures.restore(m, false); err != nil {
		return nil, err
	}
	if snap.Labels != nil {
		m.SetLabels(snap.Labels)
	}
	if snap.Walks != nil {
		m.SetWalks(snap.Walks)
	}

	s.logger.Info("loaded snapshot", "nodes", m.NodeCount(), "edges", m.EdgeCount())
	return newGraph(m, FormatSnapshot), nil
}

// FromSnapshot opens path, loads the stored model, and closes the file.
func FromSnapshot(ctx context.Context, path string) (*Graph, error) {
	store, err := OpenSnapshotStore(path)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Load(ctx)
}
