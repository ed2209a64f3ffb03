package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/analysis"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cache"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/ignore"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/parser"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/walk"
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Parse the project once and print a statistics report",
	RunE:  runAnalyze,
}

func runAnalyze(cmd *cobra.Command, args []string) error {
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

	result, err := engine.AnalyzeProject(context.Background(), cfg.ProjectRoot, w)
	if err != nil {
		fmt.Fprintf(os.Stderr, "analysis ended early: %v\n", err)
	}

	stats := analysis.ComputeProjectStatistics(g)

	fmt.Printf("Files discovered: %d\n", result.FilesDiscovered)
	fmt.Printf("Files parsed:     %d\n", result.FilesParsed)
	fmt.Printf("Files failed:     %d\n", result.FilesFailed)
	fmt.Printf("Calls resolved:   %d\n", result.CallsResolved)
	fmt.Printf("Calls unresolved: %d\n", result.CallsUnresolved)
	fmt.Printf("Total nodes:      %d\n", stats.TotalNodes)
	fmt.Printf("Total relationships: %d\n", stats.TotalRelationships)
	fmt.Printf("Average complexity:  %.2f\n", stats.AverageComplexity)

	if len(stats.FilesByLanguage) > 0 {
		fmt.Println("\nFiles by language:")
		langs := make([]string, 0, len(stats.FilesByLanguage))
		for l := range stats.FilesByLanguage {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			fmt.Printf("  %s: %d\n", l, stats.FilesByLanguage[l])
		}
	}

	if result.FilesFailed > 0 {
		return fmt.Errorf("%d file(s) failed to parse", result.FilesFailed)
	}
	return nil
}
