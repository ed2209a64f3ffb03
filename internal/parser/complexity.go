package parser

import (
	"regexp"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
)

// branchKeywords and branchSymbols together approximate cyclomatic
// complexity (spec.md §4.4 step 7) without a per-language control-flow
// grammar: each occurrence of a branching keyword or operator inside a
// function or method node's source span adds one to a baseline of 1. This
// undercounts grammars with unusual branch forms but is stable, cheap,
// and language-agnostic.
//
// The keyword and symbol alternatives are split across two patterns
// because \b only fires at a word/non-word transition: "if" sits between
// non-word characters either side in real code, so \b(...)\b matches it,
// but "&&"/"||"/"?" are themselves non-word characters on both sides of
// the usual "a && b" spacing, so the same \b anchors would never match
// them at all.
var branchKeywords = regexp.MustCompile(`\b(if|else if|elif|for|while|case|catch|except)\b`)
var branchSymbols = regexp.MustCompile(`&&|\|\||\?`)

// computeComplexity sets Node.Complexity for every function/method node
// using the node's own source span.
func (e *Extractor) computeComplexity(result *Result) {
	lines := result.sourceLines
	for _, n := range result.Nodes {
		if n.Kind != graph.KindFunction && n.Kind != graph.KindMethod {
			continue
		}
		n.Complexity = 1 + countBranches(lines, n.Location.StartLine, n.Location.EndLine)
	}
}

func countBranches(lines []string, start, end int) int {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	if end > len(lines) {
		end = len(lines)
	}
	count := 0
	for i := start; i <= end && i <= len(lines); i++ {
		count += len(branchKeywords.FindAllString(lines[i-1], -1))
		count += len(branchSymbols.FindAllString(lines[i-1], -1))
	}
	return count
}
