package parser

import (
	"context"
	"testing"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
)

func TestExtractFileRegexFallback(t *testing.T) {
	registry := lang.New()
	e := New(registry)

	content := []byte("require 'json'\n\nclass Widget\n  def process_item\n    1\n  end\nend\n")
	result, err := e.ExtractFile(context.Background(), "widget.rb", "ruby", content)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}

	var gotFunc, gotClass, gotImport bool
	for _, n := range result.Nodes {
		switch {
		case n.Kind == graph.KindFunction && n.Name == "process_item":
			gotFunc = true
		case n.Kind == graph.KindClass && n.Name == "Widget":
			gotClass = true
		case n.Kind == graph.KindImport:
			gotImport = true
		}
	}
	if !gotFunc || !gotClass || !gotImport {
		t.Fatalf("missing expected nodes: func=%v class=%v import=%v, got %+v", gotFunc, gotClass, gotImport, result.Nodes)
	}
}

func TestExtractFileRegexFallbackEmitsContainsAndImports(t *testing.T) {
	registry := lang.New()
	e := New(registry)

	content := []byte("require 'json'\n\nclass Widget\n  def process_item\n    1\n  end\nend\n")
	result, err := e.ExtractFile(context.Background(), "widget.rb", "ruby", content)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}

	fileID := graph.MakeNodeID("widget.rb", "widget.rb", 0, 0)

	var classID, funcID, importID graph.NodeID
	for _, n := range result.Nodes {
		switch n.Kind {
		case graph.KindClass:
			classID = n.ID
		case graph.KindFunction:
			funcID = n.ID
		case graph.KindImport:
			importID = n.ID
		}
	}
	if classID == "" || funcID == "" || importID == "" {
		t.Fatalf("missing expected nodes, got %+v", result.Nodes)
	}

	var gotClassContains, gotFuncContains, gotImports bool
	for _, r := range result.Relationships {
		switch {
		case r.Kind == graph.RelContains && r.SourceID == fileID && r.TargetID == classID:
			gotClassContains = true
		case r.Kind == graph.RelContains && r.SourceID == fileID && r.TargetID == funcID:
			gotFuncContains = true
		case r.Kind == graph.RelImports && r.SourceID == fileID && r.TargetID == importID:
			gotImports = true
		}
	}
	if !gotClassContains || !gotFuncContains || !gotImports {
		t.Fatalf("classContains=%v funcContains=%v imports=%v, got %+v", gotClassContains, gotFuncContains, gotImports, result.Relationships)
	}
}

func TestExtractFileUnsupportedLanguage(t *testing.T) {
	e := New(lang.New())
	_, err := e.ExtractFile(context.Background(), "x.weird", "klingon", []byte("whatever"))
	if err == nil {
		t.Fatal("expected unsupported language error")
	}
}

func TestExtractFileTooLarge(t *testing.T) {
	e := New(lang.New(), WithConfig(&Config{MaxFileSize: 4, MaxASTDepth: DefaultMaxASTDepth, ParseTimeout: DefaultParseTimeout}))
	_, err := e.ExtractFile(context.Background(), "x.rb", "ruby", []byte("way too long content"))
	if err == nil {
		t.Fatal("expected file too large error")
	}
}

func TestDocAboveCollectsContiguousComments(t *testing.T) {
	lines := []string{
		"# first line",
		"# second line",
		"def process_item",
		"  1",
		"end",
	}
	doc := docAbove(lines, 3)
	if doc != "first line\nsecond line" {
		t.Fatalf("doc = %q", doc)
	}
}

func TestDocAboveStopsAtBlankLine(t *testing.T) {
	lines := []string{
		"# unrelated comment",
		"",
		"def process_item",
	}
	doc := docAbove(lines, 3)
	if doc != "" {
		t.Fatalf("doc = %q, want empty", doc)
	}
}

func TestResolveCallTargetPrefersSameFile(t *testing.T) {
	candidates := []*graph.Node{
		{ID: "other.go:helper:10", Name: "helper", Language: "go", Location: graph.Location{FilePath: "other.go"}},
		{ID: "main.go:helper:5", Name: "helper", Language: "go", Location: graph.Location{FilePath: "main.go"}},
	}
	got := ResolveCallTarget(candidates, "main.go", "go")
	if got.ID != "main.go:helper:5" {
		t.Fatalf("got %s, want main.go:helper:5", got.ID)
	}
}

func TestResolveCallTargetPrefersSameLanguageOverAny(t *testing.T) {
	candidates := []*graph.Node{
		{ID: "a.py:helper:1", Name: "helper", Language: "python", Location: graph.Location{FilePath: "a.py"}},
		{ID: "b.go:helper:1", Name: "helper", Language: "go", Location: graph.Location{FilePath: "b.go"}},
	}
	got := ResolveCallTarget(candidates, "main.go", "go")
	if got.ID != "b.go:helper:1" {
		t.Fatalf("got %s, want b.go:helper:1", got.ID)
	}
}

func TestResolveCallTargetDeterministicTiebreak(t *testing.T) {
	candidates := []*graph.Node{
		{ID: "z.rs:helper:1", Name: "helper", Language: "rust"},
		{ID: "a.rs:helper:1", Name: "helper", Language: "rust"},
	}
	got := ResolveCallTarget(candidates, "main.go", "go")
	if got.ID != "a.rs:helper:1" {
		t.Fatalf("got %s, want a.rs:helper:1 (lexicographic tiebreak)", got.ID)
	}
}
