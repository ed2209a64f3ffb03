// Package config loads the engine's configuration via viper (YAML file
// + environment + flag binding), in the same idiom as the teacher's
// project-init config writer, generalized from a context-compaction
// config to the router/cache/Neo4j/CDC settings this engine needs.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Config is the fully resolved engine configuration.
type Config struct {
	ProjectRoot string `mapstructure:"project_root"`

	Router struct {
		InProcessThreshold int `mapstructure:"in_process_threshold"`
		ExternalThreshold  int `mapstructure:"external_threshold"`
	} `mapstructure:"router"`

	Cache struct {
		Enabled bool   `mapstructure:"enabled"`
		Path    string `mapstructure:"path"`
	} `mapstructure:"cache"`

	Neo4j struct {
		Enabled  bool   `mapstructure:"enabled"`
		URI      string `mapstructure:"uri"`
		Username string `mapstructure:"username"`
		Password string `mapstructure:"password"`
		Database string `mapstructure:"database"`
	} `mapstructure:"neo4j"`

	CDC struct {
		Enabled  bool   `mapstructure:"enabled"`
		SinkPath string `mapstructure:"sink_path"`
	} `mapstructure:"cdc"`

	Analysis struct {
		MaxWorkers   int           `mapstructure:"max_workers"`
		ParseTimeout time.Duration `mapstructure:"parse_timeout"`
	} `mapstructure:"analysis"`

	Languages  []string `mapstructure:"languages"`
	IgnoreFile string   `mapstructure:"ignore_file"`
}

// defaults mirrors the teacher's init-time default config, generalized
// to this engine's settings.
func setDefaults(v *viper.Viper) {
	v.SetDefault("project_root", ".")
	v.SetDefault("router.in_process_threshold", 50)
	v.SetDefault("router.external_threshold", 150)
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.path", ".codegraph/cache/artifacts.db")
	v.SetDefault("neo4j.enabled", false)
	v.SetDefault("neo4j.uri", "bolt://localhost:7687")
	v.SetDefault("neo4j.username", "neo4j")
	v.SetDefault("neo4j.database", "")
	v.SetDefault("cdc.enabled", true)
	v.SetDefault("cdc.sink_path", ".codegraph/logs/events.jsonl")
	v.SetDefault("analysis.max_workers", 0)
	v.SetDefault("analysis.parse_timeout", "30s")
	v.SetDefault("ignore_file", ".graphignore")
}

// Load reads configPath (if non-empty) as a YAML config file, applies
// CODEGRAPH_-prefixed environment overrides, binds flags, and decodes
// into a Config. A missing configPath is not an error — defaults apply.
func Load(configPath string, flags *cobra.Command) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CODEGRAPH")
	v.AutomaticEnv()

	if configPath != "" {
		if _, statErr := os.Stat(configPath); statErr == nil {
			v.SetConfigFile(configPath)
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("config: read %s: %w", configPath, err)
			}
		} else if !os.IsNotExist(statErr) {
			return nil, fmt.Errorf("config: stat %s: %w", configPath, statErr)
		}
	}

	if flags != nil {
		if err := v.BindPFlags(flags.Flags()); err != nil {
			return nil, fmt.Errorf("config: bind flags: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	return &cfg, nil
}

// DefaultConfigYAML is the bootstrap file `codegraph init` writes,
// generalized from the teacher's defaultConfig YAML literal.
const DefaultConfigYAML = `# code graph engine configuration
project_root: "."

router:
  in_process_threshold: 50
  external_threshold: 150

cache:
  enabled: true
  path: ".codegraph/cache/artifacts.db"

neo4j:
  enabled: false
  uri: "bolt://localhost:7687"
  username: "neo4j"
  database: ""

cdc:
  enabled: true
  sink_path: ".codegraph/logs/events.jsonl"

analysis:
  max_workers: 0
  parse_timeout: "30s"

ignore_file: ".graphignore"

languages: []
`
