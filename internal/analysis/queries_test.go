package analysis

import (
	"testing"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

func node(id, name string, kind graph.Kind, filePath, language string) *graph.Node {
	return &graph.Node{ID: graph.NodeID(id), Name: name, Kind: kind, Language: language, Location: graph.Location{FilePath: filePath, StartLine: 1}}
}

func rel(id, src, dst string, kind graph.RelKind) *graph.Relationship {
	return &graph.Relationship{ID: graph.RelationshipID(id), SourceID: graph.NodeID(src), TargetID: graph.NodeID(dst), Kind: kind}
}

func buildCallGraph(t *testing.T) *graph.Graph {
	t.Helper()
	g := graph.New()
	g.AddNode(node("a.go:main:1", "main", graph.KindFunction, "a.go", "go"))
	g.AddNode(node("a.go:helper:5", "helper", graph.KindFunction, "a.go", "go"))
	g.AddNode(node("b.go:helper2:3", "helper2", graph.KindFunction, "b.go", "go"))
	if err := g.AddRelationship(rel("r1", "a.go:main:1", "a.go:helper:5", graph.RelCalls)); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}
	if err := g.AddRelationship(rel("r2", "a.go:helper:5", "b.go:helper2:3", graph.RelCalls)); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}
	if err := g.AddRelationship(rel("r3", "a.go:main:1", "a.go:helper:5", graph.RelReferences)); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}
	return g
}

func TestFindDefinitionFiltersToDefinableKinds(t *testing.T) {
	g := buildCallGraph(t)
	defs := FindDefinition(g, "helper")
	if len(defs) != 1 || defs[0].Name != "helper" {
		t.Fatalf("defs = %+v", defs)
	}
}

func TestFindReferencesMergesReferencesAndCalls(t *testing.T) {
	g := buildCallGraph(t)
	refs := FindReferences(g, "helper")
	if len(refs) != 2 {
		t.Fatalf("expected 2 merged references (1 CALLS + 1 REFERENCES), got %d: %+v", len(refs), refs)
	}
}

func TestFindCallersAndCallees(t *testing.T) {
	g := buildCallGraph(t)

	callers := FindCallers(g, "helper")
	if len(callers) != 1 || callers[0].Name != "main" {
		t.Fatalf("callers = %+v", callers)
	}

	callees := FindCallees(g, "helper")
	if len(callees) != 1 || callees[0].Name != "helper2" {
		t.Fatalf("callees = %+v", callees)
	}
}

func TestComplexityAnalysisFiltersAndSortsDescending(t *testing.T) {
	g := graph.New()
	low := node("f.go:low:1", "low", graph.KindFunction, "f.go", "go")
	low.Complexity = 2
	mid := node("f.go:mid:2", "mid", graph.KindFunction, "f.go", "go")
	mid.Complexity = 5
	high := node("f.go:high:3", "high", graph.KindFunction, "f.go", "go")
	high.Complexity = 9
	g.AddNode(low)
	g.AddNode(mid)
	g.AddNode(high)

	got := ComplexityAnalysis(g, 5)
	if len(got) != 2 || got[0].Name != "high" || got[1].Name != "mid" {
		t.Fatalf("got = %+v", got)
	}
}

func TestDependencyGraphDetectsCycle(t *testing.T) {
	g := graph.New()
	g.AddNode(node("a.go:a.go:0", "a.go", graph.KindModule, "a.go", "go"))
	g.AddNode(node("b.go:b.go:0", "b.go", graph.KindModule, "b.go", "go"))
	if err := g.AddRelationship(rel("i1", "a.go:a.go:0", "b.go:b.go:0", graph.RelImports)); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}
	if err := g.AddRelationship(rel("i2", "b.go:b.go:0", "a.go:a.go:0", graph.RelImports)); err != nil {
		t.Fatalf("AddRelationship: %v", err)
	}

	dep := DependencyGraph(g)
	if len(dep.Nodes) != 2 || len(dep.Edges) != 2 {
		t.Fatalf("dep = %+v", dep)
	}
	if len(dep.Cycles) == 0 {
		t.Fatal("expected at least one cycle to be detected")
	}
}

func TestComputeProjectStatisticsAggregates(t *testing.T) {
	g := buildCallGraph(t)
	fileNode := node("a.go:a.go:0", "a.go", graph.KindFile, "a.go", "go")
	g.AddNode(fileNode)

	stats := ComputeProjectStatistics(g)
	if stats.TotalNodes != 4 {
		t.Fatalf("TotalNodes = %d, want 4", stats.TotalNodes)
	}
	if stats.TotalRelationships != 3 {
		t.Fatalf("TotalRelationships = %d, want 3", stats.TotalRelationships)
	}
	if stats.NodesByKind[graph.KindFunction] != 3 {
		t.Fatalf("NodesByKind[Function] = %d, want 3", stats.NodesByKind[graph.KindFunction])
	}
	if stats.FilesByLanguage["go"] != 1 {
		t.Fatalf("FilesByLanguage[go] = %d, want 1", stats.FilesByLanguage["go"])
	}
}
