package main

import (
	"context"
	"fmt"

	"github.com/JDRomano2/comptox-ontology/internal/config"
	"github.com/JDRomano2/comptox-ontology/internal/graph"
	"github.com/spf13/cobra"
)

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Convert a graph between representations",
	Long: `Loads a graph from one representation and serializes it into another.

Sources and destinations:
  neo4j      the configured Neo4j database (see --config / NEO4J_* env)
  graphsage  a GraphSAGE file set: --dir and --prefix (--out-dir/--out-prefix for writes)
  snapshot   a local snapshot file: --snapshot (--out for writes)`,
	RunE: runConvert,
}

var (
	flagFrom      string
	flagTo        string
	flagDir       string
	flagPrefix    string
	flagSnapshot  string
	flagOutDir    string
	flagOutPrefix string
	flagOut       string
)

func init() {
	convertCmd.Flags().StringVar(&flagFrom, "from", "", "source format: neo4j, graphsage, snapshot")
	convertCmd.Flags().StringVar(&flagTo, "to", "", "target format: neo4j, graphsage, snapshot")
	convertCmd.Flags().StringVar(&flagDir, "dir", "", "GraphSAGE source directory (defaults to data dir)")
	convertCmd.Flags().StringVar(&flagPrefix, "prefix", "", "GraphSAGE source file prefix")
	convertCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "snapshot source file")
	convertCmd.Flags().StringVar(&flagOutDir, "out-dir", "", "GraphSAGE destination directory")
	convertCmd.Flags().StringVar(&flagOutPrefix, "out-prefix", "", "GraphSAGE destination file prefix")
	convertCmd.Flags().StringVar(&flagOut, "out", "", "snapshot destination file")
	convertCmd.MarkFlagRequired("from")
	convertCmd.MarkFlagRequired("to")
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	g, cleanup, err := loadGraph(ctx, flagFrom)
	if err != nil {
		return err
	}
	defer cleanup()

	logger.WithField("graph", g.String()).Debug("loaded source graph")

	converted, err := g.Convert(graph.Format(flagTo))
	if err != nil {
		return fmt.Errorf("convert to %s: %w", flagTo, err)
	}

	if err := serializeGraph(ctx, converted); err != nil {
		return err
	}
	logger.WithField("to", flagTo).Info("conversion complete")
	return nil
}

// loadGraph dispatches on the source format tag. The returned cleanup
// closes any connection the source holds.
func loadGraph(ctx context.Context, from string) (*graph.Graph, func(), error) {
	noop := func() {}
	switch graph.Format(from) {
	case graph.FormatGraphSAGE:
		if flagPrefix == "" {
			return nil, noop, fmt.Errorf("--prefix is required for graphsage sources")
		}
		dir := flagDir
		if dir == "" {
			dir = cfg.DataDir
		}
		g, err := graph.FromGraphSAGE(ctx, dir, flagPrefix)
		return g, noop, err
	case graph.FormatSnapshot:
		if flagSnapshot == "" {
			return nil, noop, fmt.Errorf("--snapshot is required for snapshot sources")
		}
		g, err := graph.FromSnapshot(ctx, flagSnapshot)
		return g, noop, err
	case graph.FormatNeo4j:
		client, err := neo4jClient(ctx)
		if err != nil {
			return nil, noop, err
		}
		cleanup := func() { client.Close(ctx) }
		g, err := graph.FromNeo4j(ctx, client)
		if err != nil {
			cleanup()
			return nil, noop, err
		}
		return g, cleanup, nil
	default:
		return nil, noop, fmt.Errorf("unsupported source format %q", from)
	}
}

func serializeGraph(ctx context.Context, g *graph.Graph) error {
	switch g.Format() {
	case graph.FormatGraphSAGE:
		if flagOutPrefix == "" {
			return fmt.Errorf("--out-prefix is required for graphsage destinations")
		}
		dir := flagOutDir
		if dir == "" {
			dir = cfg.DataDir
		}
		return graph.NewSageBackend(dir, flagOutPrefix).Serialize(ctx, g.Model())
	case graph.FormatSnapshot:
		if flagOut == "" {
			return fmt.Errorf("--out is required for snapshot destinations")
		}
		store, err := graph.OpenSnapshotStore(flagOut)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Serialize(ctx, g.Model())
	case graph.FormatNeo4j:
		client, err := neo4jClient(ctx)
		if err != nil {
			return err
		}
		defer client.Close(ctx)
		return graph.NewNeo4jBackend(nil, client).Serialize(ctx, g.Model())
	default:
		return fmt.Errorf("unsupported destination format %q", g.Format())
	}
}

// neo4jClient builds a driver-backed client from configuration,
// prompting for the password when it is not in the environment.
func neo4jClient(ctx context.Context) (*graph.Client, error) {
	settings := cfg.Neo4j
	if settings.Password == "" {
		password, err := config.PromptPassword(fmt.Sprintf("Password for %s@%s: ", settings.Username, settings.URI))
		if err != nil {
			return nil, err
		}
		settings.Password = password
	}
	return graph.NewClientWithDatabase(ctx, settings.URI, settings.Username, settings.Password, settings.Database)
}
