package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize a graph without converting it",
	RunE:  runInfo,
}

func init() {
	infoCmd.Flags().StringVar(&flagFrom, "from", "", "source format: neo4j, graphsage, snapshot")
	infoCmd.Flags().StringVar(&flagDir, "dir", "", "GraphSAGE source directory (defaults to data dir)")
	infoCmd.Flags().StringVar(&flagPrefix, "prefix", "", "GraphSAGE source file prefix")
	infoCmd.Flags().StringVar(&flagSnapshot, "snapshot", "", "snapshot source file")
	infoCmd.MarkFlagRequired("from")
}

func runInfo(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	g, cleanup, err := loadGraph(ctx, flagFrom)
	if err != nil {
		return err
	}
	defer cleanup()

	model := g.Model()
	fmt.Printf("Format:        %s\n", g.Format())
	fmt.Printf("Nodes:         %d\n", model.NodeCount())
	fmt.Printf("Edges:         %d\n", model.EdgeCount())
	fmt.Printf("Directed:      %t\n", model.Directed())
	fmt.Printf("Heterogeneous: %t\n", model.IsHeterogeneous())
	if classes := model.Schema().NodeClasses(); len(classes) > 0 {
		fmt.Printf("Node classes:  %s\n", strings.Join(classes, ", "))
	}
	if classes := model.Schema().EdgeClasses(); len(classes) > 0 {
		fmt.Printf("Edge classes:  %s\n", strings.Join(classes, ", "))
	}
	if feats, err := model.NodeFeatures(""); err == nil && feats != nil {
		r, c := feats.Dims()
		fmt.Printf("Node features: %dx%d\n", r, c)
	}
	if walks := model.Walks(); walks != nil {
		fmt.Printf("Walk pairs:    %d\n", len(walks))
	}
	return nil
}
