package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/mcpserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP tool-call server over stdio",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	cachePath := ""
	if cfg.Cache.Enabled {
		cachePath = cfg.Cache.Path
	}

	s, err := mcpserver.New(mcpserver.Config{
		Name:        "codegraph",
		Version:     "0.1.0",
		ProjectRoot: cfg.ProjectRoot,
		MaxWorkers:  cfg.Analysis.MaxWorkers,
		CachePath:   cachePath,
	}, logger)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	defer s.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	return s.Run(ctx)
}
