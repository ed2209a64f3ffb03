// Package parser implements the universal parser (C4): a single
// Extractor driven by an internal/lang.Language record rather than a
// per-language subclass. A file is parsed by exactly one path — AST
// (tree-sitter) when the language's grammar is wired in, regex fallback
// otherwise — never both, per the parser-plurality rule.
package parser

import (
	"context"
	"strings"
	"time"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
)

// Result is a single file's extraction output, ready to commit to the
// graph via graph.ReplaceFile.
type Result struct {
	FilePath      string
	Nodes         []*graph.Node
	Relationships []*graph.Relationship
	Partial       bool

	sourceLines []string // retained only for the post-extraction passes (doc/complexity)
}

// Extractor parses one file at a time into graph nodes/relationships.
// It holds no per-file state between calls and is safe for concurrent
// use by multiple goroutines (the teacher's tree-sitter parsers are
// NOT goroutine-safe per instance, so Extractor creates a fresh
// *sitter.Parser per call rather than sharing one).
type Extractor struct {
	registry *lang.Registry
	config   *Config
	logger   logging.Logger
	panics   *panicHandler
}

// Option configures an Extractor.
type Option func(*Extractor)

func WithConfig(c *Config) Option { return func(e *Extractor) { e.config = c } }
func WithLogger(l logging.Logger) Option {
	return func(e *Extractor) {
		e.logger = l
		e.panics = newPanicHandler(l)
	}
}

// New builds an Extractor backed by registry.
func New(registry *lang.Registry, opts ...Option) *Extractor {
	e := &Extractor{
		registry: registry,
		config:   DefaultConfig(),
		logger:   logging.NopLogger{},
		panics:   newPanicHandler(logging.NopLogger{}),
	}
	for _, o := range opts {
		o(e)
	}
	return e
}

// ExtractFile parses content (the file at filePath) and returns the
// nodes/relationships it defines, per spec.md §4.4 steps 1-7 (step 8,
// the atomic graph commit, is the caller's responsibility via
// graph.ReplaceFile — Extractor never touches a *graph.Graph).
func (e *Extractor) ExtractFile(ctx context.Context, filePath, language string, content []byte) (*Result, error) {
	if int64(len(content)) > int64(e.config.MaxFileSize) {
		return nil, &cgerrors.FileTooLargeError{Path: filePath, Size: int64(len(content)), Ceiling: int64(e.config.MaxFileSize)}
	}

	l, ok := e.registry.ByName(language)
	if !ok {
		return nil, &cgerrors.UnsupportedLanguageError{Path: filePath, Language: language}
	}

	fileNode := &graph.Node{
		ID:       graph.MakeNodeID(filePath, filePath, 0, 0),
		Name:     filePath,
		Kind:     graph.KindFile,
		Language: language,
		Location: graph.Location{FilePath: filePath, StartLine: 0, EndLine: strings.Count(string(content), "\n") + 1},
	}
	result := &Result{FilePath: filePath, Nodes: []*graph.Node{fileNode}, sourceLines: strings.Split(string(content), "\n")}

	var extractErr error
	op := "extract"
	if l.HasAST() {
		op = "extract_ast"
	} else {
		op = "extract_regex"
	}

	err := e.panics.withRecover(ctx, op, filePath, language, func() error {
		var inner error
		if l.HasAST() {
			inner = e.extractAST(ctx, l, filePath, content, result)
		} else {
			inner = e.extractRegex(l, filePath, content, result)
		}
		return inner
	})
	if err != nil {
		if pe, ok := err.(*cgerrors.ParseError); ok {
			// A recovered panic: the File node still commits, everything
			// else is dropped.
			result.Nodes = []*graph.Node{fileNode}
			result.Relationships = nil
			result.Partial = true
			fileNode.Metadata = map[string]any{"partial": true, "error": pe.Error()}
			return result, pe
		}
		extractErr = err
	}

	e.attachDocs(result)
	e.computeComplexity(result)
	resolveCalls(filePath, language, result)

	if extractErr != nil {
		result.Partial = true
		pe := &cgerrors.ParseError{Op: op, Path: filePath, Language: language, Partial: true, Err: extractErr}
		fileNode.Metadata = map[string]any{"partial": true, "error": pe.Error()}
		return result, pe
	}
	return result, nil
}

func (e *Extractor) extractAST(ctx context.Context, l *lang.Language, filePath string, content []byte, result *Result) error {
	tag, _ := l.Grammar.(string)
	grammar := grammarFor(tag)
	if grammar == nil {
		return e.extractRegex(l, filePath, content, result)
	}

	sp := sitter.NewParser()
	defer sp.Close()
	if err := sp.SetLanguage(grammar); err != nil {
		return err
	}

	parseCtx, cancel := context.WithTimeout(ctx, e.config.ParseTimeout)
	defer cancel()
	_ = parseCtx // tree-sitter parses are synchronous; ParseTimeout is only checked after the parse returns, below.

	start := time.Now()
	tree := sp.Parse(content, nil)
	if tree == nil {
		return cgerrors.ErrCancelled
	}
	defer tree.Close()

	if e.config.StrictTimeoutEnforcement && time.Since(start) > e.config.ParseTimeout {
		return cgerrors.ErrCancelled
	}

	root := tree.RootNode()
	if root == nil {
		return nil
	}

	walkAST(root, content, l, filePath, result)
	return nil
}

func extractText(node *sitter.Node, content []byte) string {
	if node == nil {
		return ""
	}
	start, end := int(node.StartByte()), int(node.EndByte())
	if start < 0 || end < 0 || start > len(content) || end > len(content) || start > end {
		return ""
	}
	return string(content[start:end])
}

// walkAST walks the tree-sitter parse tree, emitting a Node for every
// node kind the language's ASTNodeKinds table maps to function/class/
// import, a CONTAINS relationship from the nearest enclosing File or
// Class to each entity it declares, an IMPORTS relationship from the
// File to each Import node, and, for every recognized call expression, a
// CALLS relationship from the nearest enclosing function/method (or the
// File, outside any function) to an "unresolved:<name>" placeholder
// target id, resolved against real targets later by resolveCalls; no
// placeholder Node is created. Per spec.md §4.4 steps 4-6.
func walkAST(node *sitter.Node, content []byte, l *lang.Language, filePath string, result *Result) {
	fileID := graph.MakeNodeID(filePath, filePath, 0, 0)
	walkASTIn(node, content, l, filePath, result, fileID, fileID)
}

// walkASTIn is walkAST's recursive core; containerID is the nearest
// enclosing File or Class node, the CONTAINS source for whatever entity
// this call discovers at the top level of node, and callerID is the
// nearest enclosing function/method (or the File), the CALLS source.
func walkASTIn(node *sitter.Node, content []byte, l *lang.Language, filePath string, result *Result, containerID, callerID graph.NodeID) {
	kind := node.Kind()
	startPos := node.StartPosition()
	endPos := node.EndPosition()
	loc := graph.Location{
		FilePath:    filePath,
		StartLine:   int(startPos.Row) + 1,
		EndLine:     int(endPos.Row) + 1,
		StartColumn: int(startPos.Column) + 1,
		EndColumn:   int(endPos.Column) + 1,
	}

	fileID := graph.MakeNodeID(filePath, filePath, 0, 0)
	childContainer := containerID
	childCaller := callerID

	switch {
	case matchesAny(kind, l.ASTNodeKinds[lang.EntityFunction]):
		name := identifierOf(node, content)
		if name != "" {
			n := &graph.Node{
				ID:       graph.MakeNodeID(filePath, name, loc.StartLine, 0),
				Name:     name,
				Kind:     functionKind(kind),
				Language: l.Name,
				Location: loc,
			}
			result.Nodes = append(result.Nodes, n)
			result.Relationships = append(result.Relationships, containsRelationship(containerID, n.ID))
			childCaller = n.ID
		}
	case matchesAny(kind, l.ASTNodeKinds[lang.EntityClass]):
		name := identifierOf(node, content)
		if name != "" {
			n := &graph.Node{
				ID:       graph.MakeNodeID(filePath, name, loc.StartLine, 0),
				Name:     name,
				Kind:     graph.KindClass,
				Language: l.Name,
				Location: loc,
			}
			result.Nodes = append(result.Nodes, n)
			result.Relationships = append(result.Relationships, containsRelationship(containerID, n.ID))
			childContainer = n.ID // methods declared inside belong to the class, not the file
		}
	case matchesAny(kind, l.ASTNodeKinds[lang.EntityImport]):
		text := strings.TrimSpace(extractText(node, content))
		if text != "" {
			n := &graph.Node{
				ID:       graph.MakeNodeID(filePath, text, loc.StartLine, 0),
				Name:     text,
				Kind:     graph.KindImport,
				Language: l.Name,
				Location: loc,
			}
			result.Nodes = append(result.Nodes, n)
			result.Relationships = append(result.Relationships, &graph.Relationship{
				ID:       graph.RelationshipID(string(fileID) + "#imports:" + string(n.ID)),
				SourceID: fileID,
				TargetID: n.ID,
				Kind:     graph.RelImports,
			})
		}
	case matchesAny(kind, l.ASTNodeKinds[lang.EntityCall]):
		name := calleeNameOf(node, content)
		if name != "" {
			result.Relationships = append(result.Relationships, &graph.Relationship{
				ID:       graph.RelationshipID(filePath + "#call:" + name + ":" + itoa(loc.StartLine)),
				SourceID: callerID,
				TargetID: graph.NodeID("unresolved:" + name),
				Kind:     graph.RelCalls,
				Metadata: map[string]any{"callee_name": name, "call_line": loc.StartLine},
			})
		}
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil {
			walkASTIn(child, content, l, filePath, result, childContainer, childCaller)
		}
	}
}

// containsRelationship builds a CONTAINS edge from containerID (a File
// or Class node) to targetID, the id of an entity it directly declares.
func containsRelationship(containerID, targetID graph.NodeID) *graph.Relationship {
	return &graph.Relationship{
		ID:       graph.RelationshipID(string(containerID) + "#contains:" + string(targetID)),
		SourceID: containerID,
		TargetID: targetID,
		Kind:     graph.RelContains,
	}
}

func matchesAny(kind string, kinds []string) bool {
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// identifierOf finds the first "identifier"-family named child of node,
// the common tree-sitter convention for a declaration's name.
func identifierOf(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		k := child.Kind()
		if strings.Contains(k, "identifier") && !strings.Contains(k, "field") {
			return extractText(child, content)
		}
	}
	return ""
}

// calleeNameOf extracts the callee identifier from a call-expression
// node: the first identifier or field-access-like child.
func calleeNameOf(node *sitter.Node, content []byte) string {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		k := child.Kind()
		if strings.Contains(k, "identifier") || strings.Contains(k, "field_expression") || strings.Contains(k, "member_expression") || strings.Contains(k, "attribute") || strings.Contains(k, "selector") {
			text := extractText(child, content)
			if idx := strings.LastIndexAny(text, ".:"); idx >= 0 && idx+1 < len(text) {
				text = text[idx+1:]
			}
			return text
		}
	}
	return ""
}

func functionKind(nodeKind string) graph.Kind {
	if strings.Contains(nodeKind, "method") || strings.Contains(nodeKind, "constructor") {
		return graph.KindMethod
	}
	return graph.KindFunction
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
