package parser

import (
	"bufio"
	"bytes"
	"strings"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
)

// extractRegex is the fallback path for languages without a tree-sitter
// grammar: each configured RegexPatterns entry is applied to every line,
// and a match's first capture group becomes the extracted name. This is
// intentionally shallow — no scoping, no nesting — matching spec.md
// §4.4's description of the fallback as best-effort.
func (e *Extractor) extractRegex(l *lang.Language, filePath string, content []byte, result *Result) error {
	fileID := graph.MakeNodeID(filePath, filePath, 0, 0)
	scanner := bufio.NewScanner(bytes.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()

		if re := l.RegexPatterns[lang.EntityFunction]; re != nil {
			if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != "" {
				n := &graph.Node{
					ID:       graph.MakeNodeID(filePath, m[1], lineNo, 0),
					Name:     m[1],
					Kind:     graph.KindFunction,
					Language: l.Name,
					Location: graph.Location{FilePath: filePath, StartLine: lineNo, EndLine: lineNo},
				}
				result.Nodes = append(result.Nodes, n)
				result.Relationships = append(result.Relationships, containsRelationship(fileID, n.ID))
			}
		}
		if re := l.RegexPatterns[lang.EntityClass]; re != nil {
			if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != "" {
				n := &graph.Node{
					ID:       graph.MakeNodeID(filePath, m[1], lineNo, 0),
					Name:     m[1],
					Kind:     graph.KindClass,
					Language: l.Name,
					Location: graph.Location{FilePath: filePath, StartLine: lineNo, EndLine: lineNo},
				}
				result.Nodes = append(result.Nodes, n)
				result.Relationships = append(result.Relationships, containsRelationship(fileID, n.ID))
			}
		}
		if re := l.RegexPatterns[lang.EntityImport]; re != nil {
			if m := re.FindStringSubmatch(line); len(m) > 1 && m[1] != "" {
				name := strings.TrimSpace(m[1])
				n := &graph.Node{
					ID:       graph.MakeNodeID(filePath, name, lineNo, 0),
					Name:     name,
					Kind:     graph.KindImport,
					Language: l.Name,
					Location: graph.Location{FilePath: filePath, StartLine: lineNo, EndLine: lineNo},
				}
				result.Nodes = append(result.Nodes, n)
				result.Relationships = append(result.Relationships, &graph.Relationship{
					ID:       graph.RelationshipID(string(fileID) + "#imports:" + string(n.ID)),
					SourceID: fileID,
					TargetID: n.ID,
					Kind:     graph.RelImports,
				})
			}
		}
	}
	return scanner.Err()
}
