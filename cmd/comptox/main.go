package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/JDRomano2/comptox-ontology/internal/config"
	"github.com/JDRomano2/comptox-ontology/internal/logging"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// Version information (set by build flags)
	Version = "dev"

	cfgFile string
	verbose bool
	logger  *logrus.Logger
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:     "comptox",
	Short:   "ComptoxAI graph tools - convert graphs between representations",
	Long:    `Loads heterogeneous graph data from Neo4j, GraphSAGE file sets, or local snapshots and converts between representations without losing node/edge identity.`,
	Version: Version,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger = logrus.New()
		level := slog.LevelInfo
		if verbose {
			logger.SetLevel(logrus.DebugLevel)
			level = slog.LevelDebug
		} else {
			logger.SetLevel(logrus.InfoLevel)
		}
		logging.Setup(logging.Config{Level: level})

		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			logger.WithError(err).Warn("Failed to load config, using defaults")
			cfg = config.Default()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(infoCmd)
}
