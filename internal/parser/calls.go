package parser

import (
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

// resolveCalls rewrites the placeholder "unresolved:<name>" targets
// walkAST emitted for call expressions into real node ids, when a
// candidate is present within this single file's extraction result.
// Cross-file resolution (the common case) happens later once every
// file's nodes are in the graph — see internal/analysis, which re-runs
// this same same-file > same-language > any precedence (spec.md §9,
// Open Question 3) against the full graph.
func resolveCalls(filePath, language string, result *Result) {
	byName := make(map[string][]*graph.Node)
	for _, n := range result.Nodes {
		if !graph.IsDefinable(n.Kind) {
			continue
		}
		byName[n.Name] = append(byName[n.Name], n)
	}

	for _, r := range result.Relationships {
		if r.Kind != graph.RelCalls {
			continue
		}
		name, _ := r.Metadata["callee_name"].(string)
		if name == "" {
			continue
		}
		candidates := byName[name]
		if len(candidates) == 0 {
			continue
		}
		r.TargetID = ResolveCallTarget(candidates, filePath, language).ID
	}
}

// ResolveCallTarget picks the call-resolution winner from a candidate
// set per spec.md §9 Open Question 3: same-file first, then
// same-language, then any; ties within a tier break on the
// lexicographically smaller NodeID for a deterministic result.
func ResolveCallTarget(candidates []*graph.Node, filePath, language string) *graph.Node {
	tier := func(n *graph.Node) int {
		switch {
		case n.Location.FilePath == filePath:
			return 0
		case n.Language == language:
			return 1
		default:
			return 2
		}
	}

	best := candidates[0]
	bestTier := tier(best)
	for _, n := range candidates[1:] {
		t := tier(n)
		switch {
		case t < bestTier:
			best, bestTier = n, t
		case t == bestTier && n.ID < best.ID:
			best = n
		}
	}
	return best
}
