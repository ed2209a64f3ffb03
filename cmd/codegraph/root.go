package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/config"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
	"github.com/sirupsen/logrus"
)

var (
	flagConfigPath  string
	flagProjectRoot string
	flagVerbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "codegraph",
	Short: "Multi-language source code graph engine",
	Long: `codegraph parses a project's source tree into a code graph — files,
symbols, and the CALLS/IMPORTS/REFERENCES/CONTAINS/SEAM relationships
between them — and answers navigation queries over it, either as an MCP
tool-call server, an HTTP API, or a one-shot CLI analysis.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfigPath, "config", "", "path to a codegraph.yaml config file")
	rootCmd.PersistentFlags().StringVar(&flagProjectRoot, "project-root", ".", "project root to analyze")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd, httpCmd, analyzeCmd, initCmd)
}

// loadConfig resolves the effective Config for the running command,
// overriding the project root with --project-root whenever that flag is
// set to something other than its "." default, or when the config left
// the root empty.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(flagConfigPath, cmd)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	if flagProjectRoot != "." || cfg.ProjectRoot == "" {
		cfg.ProjectRoot = flagProjectRoot
	}
	if _, statErr := os.Stat(cfg.ProjectRoot); statErr != nil {
		return nil, fmt.Errorf("%w: %s", errProjectRootMissing, cfg.ProjectRoot)
	}
	return cfg, nil
}

func newLogger() logging.Logger {
	level := logrus.InfoLevel
	if flagVerbose {
		level = logrus.DebugLevel
	}
	return logging.NewLogrusLogger(os.Stderr, level)
}
