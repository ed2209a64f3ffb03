package parser

import (
	"strings"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

// attachDocs fills Node.Doc with the contiguous comment block
// immediately preceding a definable node, per the line-comment/
// docstring convention observed across languages. This is a
// line-based heuristic, not a grammar-aware one: it runs uniformly
// for both the AST and regex extraction paths.
func (e *Extractor) attachDocs(result *Result) {
	for _, n := range result.Nodes {
		if n.Kind == graph.KindFile {
			continue
		}
		n.Doc = docAbove(result.sourceLines, n.Location.StartLine)
	}
}

// docAbove scans upward from startLine-2 (0-indexed line just above the
// definition) collecting a contiguous run of comment lines, stopping at
// the first blank or non-comment line.
func docAbove(lines []string, startLine int) string {
	idx := startLine - 2 // lines is 0-indexed; startLine is 1-indexed, skip the def line itself
	var collected []string
	for idx >= 0 {
		line := strings.TrimSpace(lines[idx])
		if line == "" {
			break
		}
		text, ok := stripCommentMarker(line)
		if !ok {
			break
		}
		collected = append([]string{text}, collected...)
		idx--
	}
	return strings.TrimSpace(strings.Join(collected, "\n"))
}

var commentPrefixes = []string{"///", "//", "#", "*", "/**", "/*", "'''", `"""`}

func stripCommentMarker(line string) (string, bool) {
	for _, p := range commentPrefixes {
		if strings.HasPrefix(line, p) {
			return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(line, p), "*/")), true
		}
	}
	return "", false
}
