package graph

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/router"
)

// Backend adapts a Graph to router.GraphBackend for the in-process
// routing target. It does not implement general Cypher — only the
// narrow MATCH/WHERE/RETURN shapes the router classifies as simple
// (spec.md §4.8 routes anything past that threshold to the external
// backend instead).
type Backend struct {
	g *Graph
}

// NewBackend wraps g for query execution.
func NewBackend(g *Graph) *Backend {
	return &Backend{g: g}
}

// Name reports the routing target this backend serves.
func (b *Backend) Name() router.Target {
	return router.TargetInProcess
}

var (
	matchNodeRe = regexp.MustCompile(`(?i)MATCH\s*\(\s*\w*\s*:?\s*(\w+)?\s*\{?\s*name\s*:\s*\$(\w+)\s*\}?\s*\)`)
	matchKindRe = regexp.MustCompile(`(?i)MATCH\s*\(\s*\w*\s*:\s*(\w+)\s*\)`)
)

// RunQuery interprets a small subset of Cypher:
//
//	MATCH (n:Kind {name: $name}) RETURN n   -- exact name lookup within a kind
//	MATCH (n {name: $name}) RETURN n        -- exact name lookup across kinds
//	MATCH (n:Kind) RETURN n                 -- all nodes of one kind
//
// Anything else returns an error; callers that need full Cypher
// semantics belong on the external backend.
func (b *Backend) RunQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if m := matchNodeRe.FindStringSubmatch(query); m != nil {
		kindFilter, paramName := m[1], m[2]
		name, _ := params[paramName].(string)
		if name == "" {
			return nil, fmt.Errorf("graph backend: missing string parameter %q", paramName)
		}
		nodes := b.g.FindByName(name, true)
		return nodesToRows(filterByKind(nodes, kindFilter)), nil
	}

	if m := matchKindRe.FindStringSubmatch(query); m != nil {
		nodes := filterByKind(b.g.AllNodes(), m[1])
		return nodesToRows(nodes), nil
	}

	return nil, fmt.Errorf("graph backend: unsupported query shape: %s", strings.TrimSpace(query))
}

func filterByKind(nodes []*Node, kind string) []*Node {
	if kind == "" {
		return nodes
	}
	out := make([]*Node, 0, len(nodes))
	for _, n := range nodes {
		if strings.EqualFold(string(n.Kind), kind) {
			out = append(out, n)
		}
	}
	return out
}

func nodesToRows(nodes []*Node) []map[string]any {
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, map[string]any{
			"id":         string(n.ID),
			"name":       n.Name,
			"kind":       string(n.Kind),
			"language":   n.Language,
			"file_path":  n.Location.FilePath,
			"start_line": n.Location.StartLine,
			"complexity": n.Complexity,
		})
	}
	return rows
}
