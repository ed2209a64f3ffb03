// Package mcpserver implements the tool-call surface (external
// collaborator, spec.md §6): the eight code-graph operations, each
// registered with github.com/modelcontextprotocol/go-sdk/mcp following
// the teacher's server.go registration idiom — one typed args struct
// per tool, plain text reports as the return content.
package mcpserver

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/analysis"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cache"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cdc"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/ignore"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/parser"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/walk"
)

// Config configures a Server.
type Config struct {
	Name        string
	Version     string
	ProjectRoot string
	MaxWorkers  int
	CachePath   string // empty disables the parse-artifact cache
}

// Server exposes the eight code-graph tools over MCP, backed by one
// project's Graph and a reusable analysis Engine.
type Server struct {
	server *mcp.Server
	config Config
	logger logging.Logger

	mu     sync.RWMutex
	graph  *graph.Graph
	engine *analysis.Engine
	cache  *cache.Store
}

// New builds a Server. Call the analyze_codebase tool before
// issuing any navigation query — an empty graph answers every query
// with zero results, not an error.
func New(cfg Config, logger logging.Logger) (*Server, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	log.SetOutput(os.Stderr) // MCP stdio transport speaks JSON over stdout

	g := graph.New()
	registry := lang.New()
	extractor := parser.New(registry, parser.WithLogger(logger))
	engine := analysis.NewEngine(g, registry, extractor, logger)
	if cfg.MaxWorkers > 0 {
		engine.MaxWorkers = cfg.MaxWorkers
	}

	var store *cache.Store
	if cfg.CachePath != "" {
		s, err := cache.Open(cfg.CachePath)
		if err != nil {
			return nil, fmt.Errorf("mcpserver: open cache: %w", err)
		}
		store = s
		engine.Cache = store
	}

	mcpServer := mcp.NewServer(&mcp.Implementation{Name: cfg.Name, Version: cfg.Version}, nil)

	s := &Server{
		server: mcpServer,
		config: cfg,
		logger: logger,
		graph:  g,
		engine: engine,
		cache:  store,
	}
	s.registerTools()
	return s, nil
}

// Close releases the parse-artifact cache file, if one was opened.
func (s *Server) Close() error {
	if s.cache != nil {
		return s.cache.Close()
	}
	return nil
}

// Graph exposes the underlying committed graph, the same project state
// this tool surface mutates.
func (s *Server) Graph() *graph.Graph { return s.graph }

// Run serves the eight tools over stdio until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, mcp.NewStdioTransport())
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "analyze_codebase",
		Description: "Walk the project root, parse every accepted file, and (re)build the code graph. Run this before any navigation query.",
	}, s.analyzeCodebase)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "project_statistics",
		Description: "Aggregated node/relationship counts by kind and language, plus average callable complexity.",
	}, s.projectStatistics)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "dependency_analysis",
		Description: "The IMPORTS-induced subgraph, with any import cycles detected.",
	}, s.dependencyAnalysis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "complexity_analysis",
		Description: "Callables (functions/methods) with cyclomatic complexity at or above a threshold, sorted descending.",
	}, s.complexityAnalysis)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_definition",
		Description: "Definition locations for a symbol name.",
	}, s.findDefinition)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_references",
		Description: "Reference locations for a symbol: incoming REFERENCES and CALLS edges merged.",
	}, s.findReferences)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_callers",
		Description: "Functions/methods that call the given function, with each caller's definition location.",
	}, s.findCallers)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "find_callees",
		Description: "Functions/methods the given function calls.",
	}, s.findCallees)
}

// Tool argument structs — spec.md §6 names each tool's required args.

type AnalyzeCodebaseArgs struct {
	ProjectRoot string `json:"project_root,omitempty"`
}

type ProjectStatisticsArgs struct{}

type DependencyAnalysisArgs struct{}

type ComplexityAnalysisArgs struct {
	Threshold int `json:"threshold"`
}

type FindDefinitionArgs struct {
	Symbol string `json:"symbol"`
}

type FindReferencesArgs struct {
	Symbol string `json:"symbol"`
}

type FindCallersArgs struct {
	Function string `json:"function"`
}

type FindCalleesArgs struct {
	Function string `json:"function"`
}

func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{Content: []mcp.Content{&mcp.TextContent{Text: text}}}, nil, nil
}

func (s *Server) analyzeCodebase(ctx context.Context, req *mcp.CallToolRequest, args AnalyzeCodebaseArgs) (*mcp.CallToolResult, any, error) {
	root := args.ProjectRoot
	if root == "" {
		root = s.config.ProjectRoot
	}
	if root == "" {
		root = "."
	}

	matcher, err := ignore.LoadGraphignore(root)
	if err != nil {
		return nil, nil, fmt.Errorf("analyze_codebase: %w", err)
	}
	w := walk.New(root, matcher)

	s.mu.Lock()
	result, err := s.engine.AnalyzeProject(ctx, root, w)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("analyze_project returned with an error", logging.Field{Key: "root", Value: root}, logging.Field{Key: "error", Value: err.Error()})
	}

	stats := analysis.ComputeProjectStatistics(s.graph)
	top := analysis.ComplexityAnalysis(s.graph, 1)

	var b strings.Builder
	fmt.Fprintf(&b, "# Codebase Analysis: %s\n\n", root)
	fmt.Fprintf(&b, "- **Files discovered:** %d\n", result.FilesDiscovered)
	fmt.Fprintf(&b, "- **Files parsed:** %d\n", result.FilesParsed)
	fmt.Fprintf(&b, "- **Files failed:** %d\n", result.FilesFailed)
	fmt.Fprintf(&b, "- **Calls resolved cross-file:** %d\n", result.CallsResolved)
	fmt.Fprintf(&b, "- **Calls left unresolved:** %d\n", result.CallsUnresolved)
	fmt.Fprintf(&b, "- **Total nodes:** %d\n", stats.TotalNodes)
	fmt.Fprintf(&b, "- **Total relationships:** %d\n", stats.TotalRelationships)

	if len(stats.FilesByLanguage) > 0 {
		b.WriteString("\n## Languages\n\n")
		langs := make([]string, 0, len(stats.FilesByLanguage))
		for l := range stats.FilesByLanguage {
			langs = append(langs, l)
		}
		sort.Strings(langs)
		for _, l := range langs {
			fmt.Fprintf(&b, "- %s: %d files\n", l, stats.FilesByLanguage[l])
		}
	}

	if len(top) > 0 {
		b.WriteString("\n## Top Complexity\n\n")
		limit := len(top)
		if limit > 10 {
			limit = 10
		}
		for _, n := range top[:limit] {
			fmt.Fprintf(&b, "- **%s** (%s) — complexity %d — %s:%d\n", n.Name, n.Kind, n.Complexity, n.Location.FilePath, n.Location.StartLine)
		}
	}

	if err != nil {
		fmt.Fprintf(&b, "\n**Note:** analysis ended early: %v\n", err)
	}

	return textResult(b.String())
}

func (s *Server) projectStatistics(ctx context.Context, req *mcp.CallToolRequest, args ProjectStatisticsArgs) (*mcp.CallToolResult, any, error) {
	s.mu.RLock()
	stats := analysis.ComputeProjectStatistics(s.graph)
	s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("# Project Statistics\n\n")
	fmt.Fprintf(&b, "- **Total nodes:** %d\n", stats.TotalNodes)
	fmt.Fprintf(&b, "- **Total relationships:** %d\n", stats.TotalRelationships)
	fmt.Fprintf(&b, "- **Average callable complexity:** %.2f\n\n", stats.AverageComplexity)

	b.WriteString("## Nodes by kind\n\n")
	kinds := make([]string, 0, len(stats.NodesByKind))
	for k := range stats.NodesByKind {
		kinds = append(kinds, string(k))
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(&b, "- %s: %d\n", k, stats.NodesByKind[graph.Kind(k)])
	}

	b.WriteString("\n## Relationships by kind\n\n")
	relKinds := make([]string, 0, len(stats.RelationshipsByKind))
	for k := range stats.RelationshipsByKind {
		relKinds = append(relKinds, string(k))
	}
	sort.Strings(relKinds)
	for _, k := range relKinds {
		fmt.Fprintf(&b, "- %s: %d\n", k, stats.RelationshipsByKind[graph.RelKind(k)])
	}

	b.WriteString("\n## Files by language\n\n")
	langs := make([]string, 0, len(stats.FilesByLanguage))
	for l := range stats.FilesByLanguage {
		langs = append(langs, l)
	}
	sort.Strings(langs)
	for _, l := range langs {
		fmt.Fprintf(&b, "- %s: %d\n", l, stats.FilesByLanguage[l])
	}

	return textResult(b.String())
}

func (s *Server) dependencyAnalysis(ctx context.Context, req *mcp.CallToolRequest, args DependencyAnalysisArgs) (*mcp.CallToolResult, any, error) {
	s.mu.RLock()
	dep := analysis.DependencyGraph(s.graph)
	s.mu.RUnlock()

	var b strings.Builder
	b.WriteString("# Dependency Analysis\n\n")
	fmt.Fprintf(&b, "- **Nodes in IMPORTS subgraph:** %d\n", len(dep.Nodes))
	fmt.Fprintf(&b, "- **IMPORTS edges:** %d\n", len(dep.Edges))
	fmt.Fprintf(&b, "- **Cycles found:** %d\n", len(dep.Cycles))

	if len(dep.Cycles) > 0 {
		b.WriteString("\n## Cycles\n\n")
		for i, cycle := range dep.Cycles {
			names := make([]string, 0, len(cycle))
			for _, id := range cycle {
				names = append(names, string(id))
			}
			fmt.Fprintf(&b, "%d. %s\n", i+1, strings.Join(names, " -> "))
		}
	}

	return textResult(b.String())
}

func (s *Server) complexityAnalysis(ctx context.Context, req *mcp.CallToolRequest, args ComplexityAnalysisArgs) (*mcp.CallToolResult, any, error) {
	s.mu.RLock()
	nodes := analysis.ComplexityAnalysis(s.graph, args.Threshold)
	s.mu.RUnlock()

	var b strings.Builder
	fmt.Fprintf(&b, "# Complexity Analysis (threshold = %d)\n\n", args.Threshold)
	if len(nodes) == 0 {
		b.WriteString("No callables at or above this threshold.\n")
		return textResult(b.String())
	}
	for _, n := range nodes {
		fmt.Fprintf(&b, "- **%s** (%s) — complexity %d — %s:%d\n", n.Name, n.Kind, n.Complexity, n.Location.FilePath, n.Location.StartLine)
	}
	return textResult(b.String())
}

func (s *Server) findDefinition(ctx context.Context, req *mcp.CallToolRequest, args FindDefinitionArgs) (*mcp.CallToolResult, any, error) {
	if args.Symbol == "" {
		return nil, nil, fmt.Errorf("symbol is required")
	}
	s.mu.RLock()
	nodes := analysis.FindDefinition(s.graph, args.Symbol)
	s.mu.RUnlock()

	if len(nodes) == 0 {
		return textResult(fmt.Sprintf("No definition found for %q.", args.Symbol))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Definitions of %q\n\n", args.Symbol)
	for _, n := range nodes {
		fmt.Fprintf(&b, "- **%s** (%s) — %s:%d\n", n.Name, n.Kind, n.Location.FilePath, n.Location.StartLine)
	}
	return textResult(b.String())
}

func (s *Server) findReferences(ctx context.Context, req *mcp.CallToolRequest, args FindReferencesArgs) (*mcp.CallToolResult, any, error) {
	if args.Symbol == "" {
		return nil, nil, fmt.Errorf("symbol is required")
	}
	s.mu.RLock()
	rels := analysis.FindReferences(s.graph, args.Symbol)
	s.mu.RUnlock()

	if len(rels) == 0 {
		return textResult(fmt.Sprintf("No references found for %q.", args.Symbol))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# References to %q\n\n", args.Symbol)
	for _, r := range rels {
		src := s.graph.Node(r.SourceID)
		if src == nil {
			continue
		}
		fmt.Fprintf(&b, "- %s (%s) — %s:%d\n", src.Name, r.Kind, src.Location.FilePath, src.Location.StartLine)
	}
	return textResult(b.String())
}

func (s *Server) findCallers(ctx context.Context, req *mcp.CallToolRequest, args FindCallersArgs) (*mcp.CallToolResult, any, error) {
	if args.Function == "" {
		return nil, nil, fmt.Errorf("function is required")
	}
	s.mu.RLock()
	nodes := analysis.FindCallers(s.graph, args.Function)
	s.mu.RUnlock()

	if len(nodes) == 0 {
		return textResult(fmt.Sprintf("No callers found for %q.", args.Function))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Callers of %q\n\n", args.Function)
	for _, n := range nodes {
		fmt.Fprintf(&b, "- **%s** (%s) — %s:%d\n", n.Name, n.Kind, n.Location.FilePath, n.Location.StartLine)
	}
	return textResult(b.String())
}

func (s *Server) findCallees(ctx context.Context, req *mcp.CallToolRequest, args FindCalleesArgs) (*mcp.CallToolResult, any, error) {
	if args.Function == "" {
		return nil, nil, fmt.Errorf("function is required")
	}
	s.mu.RLock()
	nodes := analysis.FindCallees(s.graph, args.Function)
	s.mu.RUnlock()

	if len(nodes) == 0 {
		return textResult(fmt.Sprintf("No callees found for %q.", args.Function))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "# Callees of %q\n\n", args.Function)
	for _, n := range nodes {
		fmt.Fprintf(&b, "- **%s** (%s) — %s:%d\n", n.Name, n.Kind, n.Location.FilePath, n.Location.StartLine)
	}
	return textResult(b.String())
}

// Events wires a CDC bus into this server's Engine so analyze_codebase
// publishes node/relationship/lifecycle events as it runs.
func (s *Server) Events(bus *cdc.Bus) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.engine.Events = bus
}
