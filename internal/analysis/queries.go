package analysis

import (
	"sort"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

// FindDefinition returns every definable node named symbol (spec §4.7).
func FindDefinition(g *graph.Graph, symbol string) []*graph.Node {
	return definableCandidates(g.FindByName(symbol, true))
}

// FindReferences returns incoming REFERENCES ∪ incoming CALLS for every
// definition node matching symbol, de-duplicated by relationship id.
func FindReferences(g *graph.Graph, symbol string) []*graph.Relationship {
	var out []*graph.Relationship
	seen := make(map[graph.RelationshipID]struct{})
	for _, def := range FindDefinition(g, symbol) {
		for _, r := range g.RelationshipsTo(def.ID) {
			if r.Kind != graph.RelReferences && r.Kind != graph.RelCalls {
				continue
			}
			if _, ok := seen[r.ID]; ok {
				continue
			}
			seen[r.ID] = struct{}{}
			out = append(out, r)
		}
	}
	sortRelsByID(out)
	return out
}

// FindCallers returns the distinct source nodes of incoming CALLS
// relationships into any definition node matching function.
func FindCallers(g *graph.Graph, function string) []*graph.Node {
	seen := make(map[graph.NodeID]struct{})
	var out []*graph.Node
	for _, def := range FindDefinition(g, function) {
		for _, r := range g.RelationshipsTo(def.ID) {
			if r.Kind != graph.RelCalls {
				continue
			}
			if _, ok := seen[r.SourceID]; ok {
				continue
			}
			if src := g.Node(r.SourceID); src != nil {
				seen[r.SourceID] = struct{}{}
				out = append(out, src)
			}
		}
	}
	sortNodesByID(out)
	return out
}

// FindCallees returns the distinct target nodes of outgoing CALLS
// relationships from any definition node matching function.
func FindCallees(g *graph.Graph, function string) []*graph.Node {
	seen := make(map[graph.NodeID]struct{})
	var out []*graph.Node
	for _, def := range FindDefinition(g, function) {
		for _, r := range g.RelationshipsFrom(def.ID) {
			if r.Kind != graph.RelCalls {
				continue
			}
			if _, ok := seen[r.TargetID]; ok {
				continue
			}
			if dst := g.Node(r.TargetID); dst != nil {
				seen[r.TargetID] = struct{}{}
				out = append(out, dst)
			}
		}
	}
	sortNodesByID(out)
	return out
}

// ComplexityAnalysis returns every callable node (Function/Method) whose
// Complexity is at least threshold, sorted by descending complexity,
// then by NodeID for a deterministic tie-break.
func ComplexityAnalysis(g *graph.Graph, threshold int) []*graph.Node {
	var out []*graph.Node
	for _, n := range g.AllNodes() {
		if n.Kind != graph.KindFunction && n.Kind != graph.KindMethod {
			continue
		}
		if n.Complexity >= threshold {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Complexity != out[j].Complexity {
			return out[i].Complexity > out[j].Complexity
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// DependencyAnalysis is the IMPORTS-induced subgraph plus any cycles
// found in it.
type DependencyAnalysis struct {
	Nodes  []*graph.Node
	Edges  []*graph.Relationship
	Cycles [][]graph.NodeID
}

// DependencyGraph builds the subgraph induced by IMPORTS relationships
// and reports any import cycles via a straightforward DFS, per spec §4.7.
func DependencyGraph(g *graph.Graph) DependencyAnalysis {
	var edges []*graph.Relationship
	nodeSet := make(map[graph.NodeID]struct{})
	adj := make(map[graph.NodeID][]graph.NodeID)

	for _, r := range g.AllRelationships() {
		if r.Kind != graph.RelImports {
			continue
		}
		edges = append(edges, r)
		nodeSet[r.SourceID] = struct{}{}
		nodeSet[r.TargetID] = struct{}{}
		adj[r.SourceID] = append(adj[r.SourceID], r.TargetID)
	}

	var nodes []*graph.Node
	for id := range nodeSet {
		if n := g.Node(id); n != nil {
			nodes = append(nodes, n)
		}
	}
	sortNodesByID(nodes)
	sortRelsByID(edges)

	return DependencyAnalysis{Nodes: nodes, Edges: edges, Cycles: findCycles(adj)}
}

// findCycles runs a DFS over adj, collecting the node sequence of each
// back-edge it encounters. Each cycle is reported starting at the node
// where the back-edge was detected, not globally deduplicated/rotated —
// good enough to flag an import cycle exists and show one path through
// it, which is all dependency_analysis promises.
func findCycles(adj map[graph.NodeID][]graph.NodeID) [][]graph.NodeID {
	const (
		unvisited = 0
		visiting  = 1
		done      = 2
	)
	state := make(map[graph.NodeID]int)
	var stack []graph.NodeID
	var cycles [][]graph.NodeID

	var visit func(n graph.NodeID)
	visit = func(n graph.NodeID) {
		state[n] = visiting
		stack = append(stack, n)
		for _, next := range adj[n] {
			switch state[next] {
			case unvisited:
				visit(next)
			case visiting:
				cycle := cycleFrom(stack, next)
				cycles = append(cycles, cycle)
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
	}

	// Deterministic traversal order.
	var roots []graph.NodeID
	for n := range adj {
		roots = append(roots, n)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	for _, n := range roots {
		if state[n] == unvisited {
			visit(n)
		}
	}
	return cycles
}

func cycleFrom(stack []graph.NodeID, target graph.NodeID) []graph.NodeID {
	for i, n := range stack {
		if n == target {
			cycle := make([]graph.NodeID, len(stack)-i)
			copy(cycle, stack[i:])
			return cycle
		}
	}
	return nil
}

// ProjectStatistics aggregates counts over the whole committed graph
// (spec §4.7, extended with the supplemented per-language breakdown the
// original's file/line counters tracked).
type ProjectStatistics struct {
	TotalNodes          int
	TotalRelationships  int
	NodesByKind         map[graph.Kind]int
	RelationshipsByKind map[graph.RelKind]int
	FilesByLanguage     map[string]int
	AverageComplexity   float64
}

// ComputeProjectStatistics walks every node/relationship once.
func ComputeProjectStatistics(g *graph.Graph) ProjectStatistics {
	stats := ProjectStatistics{
		NodesByKind:         make(map[graph.Kind]int),
		RelationshipsByKind: make(map[graph.RelKind]int),
		FilesByLanguage:     make(map[string]int),
	}

	var complexitySum, complexityCount int
	for _, n := range g.AllNodes() {
		stats.TotalNodes++
		stats.NodesByKind[n.Kind]++
		if n.Kind == graph.KindFile && n.Language != "" {
			stats.FilesByLanguage[n.Language]++
		}
		if n.Kind == graph.KindFunction || n.Kind == graph.KindMethod {
			complexitySum += n.Complexity
			complexityCount++
		}
	}
	for _, r := range g.AllRelationships() {
		stats.TotalRelationships++
		stats.RelationshipsByKind[r.Kind]++
	}
	if complexityCount > 0 {
		stats.AverageComplexity = float64(complexitySum) / float64(complexityCount)
	}
	return stats
}

func sortNodesByID(nodes []*graph.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

func sortRelsByID(rels []*graph.Relationship) {
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
}
