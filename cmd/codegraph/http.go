package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/analysis"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cache"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/httpapi"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/ignore"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/parser"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/walk"
)

var flagHTTPAddr string

func init() {
	httpCmd.Flags().StringVar(&flagHTTPAddr, "addr", ":8080", "address to listen on")
}

var httpCmd = &cobra.Command{
	Use:   "http",
	Short: "Analyze the project once, then serve the HTTP graph API",
	RunE:  runHTTP,
}

func runHTTP(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := newLogger()

	g := graph.New()
	registry := lang.New()
	extractor := parser.New(registry, parser.WithLogger(logger))
	engine := analysis.NewEngine(g, registry, extractor, logger)
	if cfg.Analysis.MaxWorkers > 0 {
		engine.MaxWorkers = cfg.Analysis.MaxWorkers
	}

	if cfg.Cache.Enabled {
		store, err := cache.Open(cfg.Cache.Path)
		if err != nil {
			return fmt.Errorf("%w: open cache: %v", errInvalidInput, err)
		}
		defer store.Close()
		engine.Cache = store
	}

	matcher, err := ignore.LoadGraphignore(cfg.ProjectRoot)
	if err != nil {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	w := walk.New(cfg.ProjectRoot, matcher)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	result, err := engine.AnalyzeProject(ctx, cfg.ProjectRoot, w)
	if err != nil {
		logger.Warn("analyze_project returned with an error", logging.Field{Key: "error", Value: err.Error()})
	}
	logger.Info("analysis complete", logging.Field{Key: "files_parsed", Value: result.FilesParsed}, logging.Field{Key: "files_failed", Value: result.FilesFailed})

	handler := httpapi.NewHandler(g, logger)
	srv := &http.Server{Addr: flagHTTPAddr, Handler: handler}

	go func() {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving HTTP graph API", logging.Field{Key: "addr", Value: flagHTTPAddr})
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("%w: %v", errInvalidInput, err)
	}
	return nil
}
