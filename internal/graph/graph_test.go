package graph

import (
	"fmt"
	"sort"
	"testing"
)

func mkNode(id, name string, kind Kind) *Node {
	return &Node{ID: NodeID(id), Name: name, Kind: kind, Location: Location{FilePath: "f.go", StartLine: 1}}
}

func mkRel(id, src, dst string, kind RelKind) *Relationship {
	return &Relationship{ID: RelationshipID(id), SourceID: NodeID(src), TargetID: NodeID(dst), Kind: kind}
}

// buildSmallGraph constructs the S1/S2 synthetic fixture from spec.md §8.
func buildSmallGraph(t *testing.T) *Graph {
	t.Helper()
	g := New()
	for _, name := range []string{"main", "entry_func", "utility_hub", "helper_func", "leaf_util", "leaf_worker"} {
		g.AddNode(mkNode(name, name, KindFunction))
	}
	edges := [][2]string{
		{"main", "entry_func"},
		{"entry_func", "utility_hub"},
		{"utility_hub", "helper_func"},
		{"helper_func", "leaf_util"},
		{"helper_func", "leaf_worker"},
	}
	for i, e := range edges {
		if err := g.AddRelationship(mkRel(edgeID(i), e[0], e[1], RelCalls)); err != nil {
			t.Fatalf("AddRelationship: %v", err)
		}
	}
	return g
}

func edgeID(i int) string {
	return fmt.Sprintf("e%d", i)
}

func names(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Name
	}
	sort.Strings(out)
	return out
}

func TestS1Categories(t *testing.T) {
	g := buildSmallGraph(t)

	entry := g.Category("entry_points", 0)
	if got := names(entry); len(got) != 1 || got[0] != "main" {
		t.Fatalf("entry_points = %v, want [main]", got)
	}

	leaves := g.Category("leaves", 0)
	if got := names(leaves); len(got) != 2 || got[0] != "leaf_util" || got[1] != "leaf_worker" {
		t.Fatalf("leaves = %v, want [leaf_util leaf_worker]", got)
	}

	hubs := g.Category("hubs", 20)
	if len(hubs) == 0 {
		t.Fatal("hubs empty")
	}
	// helper_func has degree 3 (1 in + 2 out), utility_hub has degree 2.
	idx := map[string]int{}
	for i, n := range hubs {
		idx[n.Name] = i
	}
	if idx["helper_func"] >= idx["utility_hub"] {
		t.Fatalf("expected helper_func to rank above utility_hub, got order %v", names(hubs))
	}
}

func TestS2Subgraph(t *testing.T) {
	g := buildSmallGraph(t)

	nodes, rels := g.Subgraph("utility_hub", 2)

	gotNodes := names(nodes)
	wantNodes := []string{"entry_func", "helper_func", "leaf_util", "leaf_worker", "utility_hub"}
	if len(gotNodes) != len(wantNodes) {
		t.Fatalf("subgraph nodes = %v, want %v", gotNodes, wantNodes)
	}
	for i := range wantNodes {
		if gotNodes[i] != wantNodes[i] {
			t.Fatalf("subgraph nodes = %v, want %v", gotNodes, wantNodes)
		}
	}

	if len(rels) != 4 {
		t.Fatalf("subgraph relationships = %d, want 4", len(rels))
	}
}

func TestInvariantRelationshipEndpointsResolve(t *testing.T) {
	g := New()
	g.AddNode(mkNode("a", "a", KindFunction))
	err := g.AddRelationship(mkRel("r1", "a", "missing", RelCalls))
	if err == nil {
		t.Fatal("expected dangling relationship error")
	}
}

func TestInvariantIndicesConsistentAfterRemove(t *testing.T) {
	g := buildSmallGraph(t)
	g.RemoveNode("helper_func")

	for _, r := range g.AllRelationships() {
		if r.SourceID == "helper_func" || r.TargetID == "helper_func" {
			t.Fatalf("relationship %s still references removed node", r.ID)
		}
	}
	if n := g.Node("helper_func"); n != nil {
		t.Fatal("helper_func should be gone")
	}
}

func TestFindByNameExact(t *testing.T) {
	g := buildSmallGraph(t)
	found := g.FindByName("main", true)
	if len(found) != 1 || found[0].ID != "main" {
		t.Fatalf("FindByName(main, true) = %v", found)
	}
	if found := g.FindByName("nonexistent", true); len(found) != 0 {
		t.Fatalf("expected no matches, got %v", found)
	}
}

func TestReplaceFileRemovesAndReinsertsAtomically(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "f.go:a:1", Name: "a", Kind: KindFunction, Location: Location{FilePath: "f.go", StartLine: 1}})
	g.AddNode(&Node{ID: "f.go:b:2", Name: "b", Kind: KindFunction, Location: Location{FilePath: "f.go", StartLine: 2}})
	g.AddNode(&Node{ID: "other.go:c:1", Name: "c", Kind: KindFunction, Location: Location{FilePath: "other.go", StartLine: 1}})

	newNode := &Node{ID: "f.go:a:5", Name: "a", Kind: KindFunction, Location: Location{FilePath: "f.go", StartLine: 5}}
	errs := g.ReplaceFile("f.go", []*Node{newNode}, nil)
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	if g.Node("f.go:a:1") != nil || g.Node("f.go:b:2") != nil {
		t.Fatal("old f.go nodes should be gone")
	}
	if g.Node("f.go:a:5") == nil {
		t.Fatal("new node should be present")
	}
	if g.Node("other.go:c:1") == nil {
		t.Fatal("unrelated file's node should be untouched")
	}
}

func TestNodesInFile(t *testing.T) {
	g := New()
	g.AddNode(&Node{ID: "f.go:a:1", Name: "a", Kind: KindFunction, Location: Location{FilePath: "f.go", StartLine: 1}})
	g.AddNode(&Node{ID: "f.go:b:2", Name: "b", Kind: KindFunction, Location: Location{FilePath: "f.go", StartLine: 2}})
	g.AddNode(&Node{ID: "other.go:c:1", Name: "c", Kind: KindFunction, Location: Location{FilePath: "other.go", StartLine: 1}})

	got := names(g.NodesInFile("f.go"))
	want := []string{"a", "b"}
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Fatalf("NodesInFile(f.go) = %v, want %v", got, want)
	}

	if len(g.NodesInFile("nonexistent.go")) != 0 {
		t.Fatal("expected no nodes for a file with no entries")
	}
}

func TestDegree(t *testing.T) {
	g := buildSmallGraph(t)
	in, out := g.Degree("helper_func")
	if in != 1 || out != 2 {
		t.Fatalf("Degree(helper_func) = (%d,%d), want (1,2)", in, out)
	}
}
