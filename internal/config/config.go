package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all settings the graph tooling needs: where the Neo4j
// instance lives and where flat-file datasets and snapshots are kept.
// Values come from an optional config file, environment variables, and
// a .env file, in that order of discovery (environment wins).
type Config struct {
	Neo4j   Neo4jConfig `mapstructure:"neo4j"`
	DataDir string      `mapstructure:"data_dir"`
}

// Neo4jConfig holds the graph-database connection settings. The core
// never constructs query strings from these; they are handed to the
// driver-backed client as-is.
type Neo4jConfig struct {
	URI      string `mapstructure:"uri"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
}

// Default returns the configuration used when no file or environment
// overrides are present.
func Default() *Config {
	return &Config{
		Neo4j: Neo4jConfig{
			URI:      "bolt://localhost:7687",
			Username: "neo4j",
			Database: "neo4j",
		},
		DataDir: ".",
	}
}

// Load reads configuration from the given file (optional), the
// environment, and a .env file found in the working directory or a
// parent. A missing config file is not an error; an unparsable one is.
func Load(cfgFile string) (*Config, error) {
	// Best effort: .env is a development convenience, not a requirement.
	if envPath, err := findEnvFile(); err == nil {
		_ = godotenv.Load(envPath)
	}

	v := viper.New()
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "neo4j")
	v.SetDefault("data_dir", ".")

	v.BindEnv("neo4j.uri", "NEO4J_URI")
	v.BindEnv("neo4j.username", "NEO4J_USERNAME")
	v.BindEnv("neo4j.password", "NEO4J_PASSWORD")
	v.BindEnv("neo4j.database", "NEO4J_DATABASE")
	v.BindEnv("data_dir", "COMPTOX_DATA_DIR")

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
				return nil, fmt.Errorf("read config %s: %w", cfgFile, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

// findEnvFile walks up from the working directory looking for a .env
// file, so tools run from subdirectories still pick up credentials.
func findEnvFile() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, ".env")
		if _, err := os.Stat(candidate); err == nil {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", os.ErrNotExist
		}
		dir = parent
	}
}
