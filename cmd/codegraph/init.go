package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/config"
)

var flagInitForce bool

func init() {
	initCmd.Flags().BoolVar(&flagInitForce, "force", false, "overwrite an existing codegraph.yaml")
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default codegraph.yaml and add .codegraph/ to .gitignore",
	RunE:  runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	configFile := filepath.Join(flagProjectRoot, "codegraph.yaml")
	if _, err := os.Stat(configFile); err == nil && !flagInitForce {
		return fmt.Errorf("%w: %s already exists (use --force to overwrite)", errInvalidInput, configFile)
	}
	if err := os.WriteFile(configFile, []byte(config.DefaultConfigYAML), 0o644); err != nil {
		return fmt.Errorf("%w: write %s: %v", errInvalidInput, configFile, err)
	}

	if err := appendGitignore(filepath.Join(flagProjectRoot, ".gitignore")); err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}

	fmt.Printf("Wrote %s\n", configFile)
	return nil
}

// appendGitignore adds the engine's cache/log directory to path, creating
// it if absent and preserving whatever trailing newline the file already has.
func appendGitignore(path string) error {
	entry := ".codegraph/cache/\n.codegraph/logs/\n"

	existing, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return os.WriteFile(path, []byte(entry), 0o644)
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	toWrite := entry
	if len(existing) > 0 && existing[len(existing)-1] != '\n' {
		toWrite = "\n" + entry
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.WriteString(toWrite); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
