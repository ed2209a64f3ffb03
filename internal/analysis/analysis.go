// Package analysis implements the analysis engine (C7): the
// project-wide orchestration of C2 (pruning traversal), C3 (language
// registry), C4 (universal parser), C5 (seam detector) and C6 (code
// graph), plus the navigation/aggregate queries layered on top of the
// committed graph.
package analysis

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/sourcegraph/conc/pool"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cache"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cdc"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/lang"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/parser"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/seam"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/walk"
)

// ParserVersion tags every cache entry this Engine writes/reads;
// bumping it invalidates the whole cache on the next run without
// touching the on-disk bbolt file.
const ParserVersion = "1"

// unresolvedPrefix marks a CALLS relationship's placeholder TargetID,
// minted by the per-file extractor for a callee it could not resolve
// within that one file (see internal/parser/extractor.go).
const unresolvedPrefix = "unresolved:"

// Engine ties the pruning walker, the language registry, the universal
// parser, and the committed graph into a single project-analysis
// surface.
type Engine struct {
	Graph     *graph.Graph
	Registry  *lang.Registry
	Extractor *parser.Extractor
	Seams     *seam.Detector
	Logger    logging.Logger

	// MaxWorkers bounds the parse fan-out; 0 uses runtime.NumCPU().
	MaxWorkers int

	// Cache, when non-nil, short-circuits a file's re-parse on an
	// unchanged (path, content hash, ParserVersion) hit.
	Cache *cache.Store

	// Events, when non-nil, receives the CDC lifecycle/mutation events
	// this run produces (spec.md §4.9).
	Events *cdc.Bus
}

// NewEngine builds an Engine with sensible defaults for any field left
// nil/zero.
func NewEngine(g *graph.Graph, registry *lang.Registry, extractor *parser.Extractor, logger logging.Logger) *Engine {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	return &Engine{
		Graph:     g,
		Registry:  registry,
		Extractor: extractor,
		Seams:     seam.New(),
		Logger:    logger,
	}
}

// fileUnit is one parsed file's committable output, queued to the
// single writer goroutine.
type fileUnit struct {
	path      string
	res       *parser.Result
	err       error
	seamNodes []*graph.Node
	seamRels  []*graph.Relationship
}

// AnalyzeProjectResult summarizes one AnalyzeProject run.
type AnalyzeProjectResult struct {
	FilesDiscovered int
	FilesParsed     int
	FilesFailed     int
	CallsResolved   int
	CallsUnresolved int
	Cancelled       bool
}

// Walker is the minimal surface AnalyzeProject needs from internal/walk.
type Walker interface {
	Walk(stop <-chan struct{}) <-chan walk.Result
}

// AnalyzeProject walks root through w, parses every accepted file
// through a bounded worker pool, and commits each file's nodes and
// within-file-resolved relationships through a single writer goroutine
// — so the graph never observes two files' ReplaceFile calls
// interleaved (spec.md §5's single-writer discipline). Parsing is
// fanned out; committing is not.
//
// CALLS relationships a file's own extraction could not resolve (no
// matching definition in that file) are held back from ReplaceFile and
// resolved once every file has been committed, against the complete
// graph, using the same same-file > same-language > any precedence
// internal/parser.ResolveCallTarget applies within one file. A callee
// name that matches nothing anywhere in the project is not dropped: it
// is connected to a placeholder Reference node via REFERENCES instead
// of left dangling.
//
// Each file's own callables are also tested against the seam detector
// (C5) for cross-language call sites (spec.md §4.5); a match commits a
// SEAM relationship to a synthesized target node alongside the file's
// own nodes and relationships.
//
// Cancelling ctx stops discovery and lets in-flight parses finish, but
// no further files are started or committed.
func (e *Engine) AnalyzeProject(ctx context.Context, root string, w Walker) (AnalyzeProjectResult, error) {
	maxWorkers := e.MaxWorkers
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
	}

	stop := make(chan struct{})
	defer close(stop)

	units := make(chan fileUnit, maxWorkers*2)

	var writerWG sync.WaitGroup
	var result AnalyzeProjectResult
	var pending []*graph.Relationship // CALLS edges no single file could resolve

	if e.Events != nil {
		e.Events.Publish(cdc.AnalysisStarted(root))
	}

	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		for u := range units {
			result.FilesDiscovered++
			if u.err != nil {
				result.FilesFailed++
				e.Logger.Warn("file parse failed", logging.Field{Key: "path", Value: u.path}, logging.Field{Key: "error", Value: u.err.Error()})
				continue
			}

			committable, held := splitUnresolvedCalls(u.res.Relationships)
			pending = append(pending, held...)
			committable = append(committable, u.seamRels...)

			// node_removed must precede node_added for the same id
			// (spec.md §5 ordering guarantee): publish removals for the
			// file's previous node set before the replacement commits.
			if e.Events != nil {
				for _, n := range e.Graph.NodesInFile(u.res.FilePath) {
					e.Events.Publish(cdc.NodeRemoved(string(n.ID)))
				}
			}

			// Seam targets aren't part of any one file's node set (spec.md
			// §4.5: a synthesized node tagged with the target language), so
			// they're added ahead of ReplaceFile rather than passed to it —
			// otherwise a later reparse of this same file would delete them
			// out from under any other file's SEAM edge still pointing in.
			for _, n := range u.seamNodes {
				e.Graph.AddNode(n)
			}

			if errs := e.Graph.ReplaceFile(u.res.FilePath, u.res.Nodes, committable); len(errs) > 0 {
				for _, err := range errs {
					e.Logger.Warn("replace file produced relationship errors", logging.Field{Key: "path", Value: u.path}, logging.Field{Key: "error", Value: err.Error()})
				}
			}

			if e.Events != nil {
				for _, n := range u.res.Nodes {
					e.Events.Publish(cdc.NodeAdded(string(n.ID), string(n.Kind), n.Name))
				}
				for _, n := range u.seamNodes {
					e.Events.Publish(cdc.NodeAdded(string(n.ID), string(n.Kind), n.Name))
				}
				for _, r := range committable {
					e.Events.Publish(cdc.RelationshipAdded(string(r.ID), string(r.SourceID), string(r.TargetID), string(r.Kind)))
				}
			}

			if u.res.Partial {
				result.FilesFailed++
			} else {
				result.FilesParsed++
			}
		}
	}()

	p := pool.New().WithMaxGoroutines(maxWorkers)

	for f := range w.Walk(stop) {
		if ctx.Err() != nil {
			break
		}
		f := f
		p.Go(func() {
			if ctx.Err() != nil {
				return
			}
			language := languageFor(e.Registry, f.Rel)
			content, err := os.ReadFile(f.Path)
			if err != nil {
				units <- fileUnit{path: f.Rel, err: err}
				return
			}

			var res *parser.Result
			if e.Cache != nil {
				hash := cache.ContentHash(content)
				if entry, ok, cerr := e.Cache.Get(f.Rel, hash, ParserVersion); cerr == nil && ok {
					res = &parser.Result{FilePath: f.Rel, Nodes: entry.Nodes, Relationships: entry.Relationships}
				}
			}
			if res == nil {
				res, err = e.Extractor.ExtractFile(ctx, f.Rel, language, content)
				if err != nil && (res == nil || !res.Partial) {
					units <- fileUnit{path: f.Rel, err: err}
					return
				}
				if err != nil {
					// A partial result still commits; the writer counts it as failed.
					e.Logger.Warn("file parsed partially", logging.Field{Key: "path", Value: f.Rel}, logging.Field{Key: "error", Value: err.Error()})
				}
				if e.Cache != nil && !res.Partial {
					hash := cache.ContentHash(content)
					if perr := e.Cache.Put(f.Rel, hash, ParserVersion, cache.Entry{Nodes: res.Nodes, Relationships: res.Relationships}); perr != nil {
						e.Logger.Warn("cache put failed", logging.Field{Key: "path", Value: f.Rel}, logging.Field{Key: "error", Value: perr.Error()})
					}
				}
			}

			seamNodes, seamRels := detectSeams(e.Seams, language, res.Nodes, content)
			units <- fileUnit{path: f.Rel, res: res, seamNodes: seamNodes, seamRels: seamRels}
		})
	}
	p.Wait()
	close(units)
	writerWG.Wait()

	resolved, unresolved := resolveCrossFileCalls(e.Graph, pending)
	result.CallsResolved = resolved
	result.CallsUnresolved = unresolved

	if e.Events != nil {
		e.Events.Publish(cdc.AnalysisFinished(root, result.FilesParsed, result.FilesFailed))
	}

	if ctx.Err() != nil {
		result.Cancelled = true
		return result, &cgerrors.CancelledError{FilesProcessed: result.FilesParsed}
	}
	return result, nil
}

// splitUnresolvedCalls partitions rels into relationships ready to
// commit as-is and CALLS relationships still carrying an
// "unresolved:<name>" placeholder target.
func splitUnresolvedCalls(rels []*graph.Relationship) (committable, held []*graph.Relationship) {
	for _, r := range rels {
		if r.Kind == graph.RelCalls && strings.HasPrefix(string(r.TargetID), unresolvedPrefix) {
			held = append(held, r)
			continue
		}
		committable = append(committable, r)
	}
	return committable, held
}

// resolveCrossFileCalls resolves every pending CALLS edge against the
// full, now-committed graph. A callee with no candidate anywhere in the
// project is not dropped: spec.md §4.4 step 6 requires a placeholder
// Reference node connected by REFERENCES instead of a dangling CALLS edge.
func resolveCrossFileCalls(g *graph.Graph, pending []*graph.Relationship) (resolved, unresolved int) {
	for _, r := range pending {
		name, _ := r.Metadata["callee_name"].(string)
		if name == "" {
			unresolved++
			continue
		}
		source := g.Node(r.SourceID)
		if source == nil {
			unresolved++
			continue
		}
		candidates := definableCandidates(g.FindByName(name, true))
		if len(candidates) == 0 {
			ref := placeholderReference(g, name)
			r.Kind = graph.RelReferences
			r.TargetID = ref.ID
			if err := g.AddRelationship(r); err != nil {
				unresolved++
				continue
			}
			unresolved++
			continue
		}
		target := parser.ResolveCallTarget(candidates, source.Location.FilePath, source.Language)
		r.TargetID = target.ID
		if err := g.AddRelationship(r); err != nil {
			unresolved++
			continue
		}
		resolved++
	}
	return resolved, unresolved
}

// placeholderReference returns the Reference node standing in for an
// unresolvable callee name, creating it on first use so repeated calls
// to the same missing symbol share one node instead of minting a new
// one per call site.
func placeholderReference(g *graph.Graph, name string) *graph.Node {
	id := graph.MakeNodeID("", name, 0, 0)
	if n := g.Node(id); n != nil {
		return n
	}
	ref := &graph.Node{ID: id, Name: name, Kind: graph.KindReference}
	g.AddNode(ref)
	return ref
}

// detectSeams tests each Function/Method node's own source span against
// every target language e.Seams has patterns for from the file's source
// language, synthesizing a SEAM relationship plus its target node (tagged
// with the target language and, when the pattern captured one, a
// canonical endpoint identifier) on a match (spec.md §4.5).
func detectSeams(detector *seam.Detector, language string, nodes []*graph.Node, content []byte) ([]*graph.Node, []*graph.Relationship) {
	if detector == nil || language == "" {
		return nil, nil
	}
	lang := strings.ToLower(language)
	var targets []string
	for _, pair := range detector.RegisteredPairs() {
		if pair[0] == lang {
			targets = append(targets, pair[1])
		}
	}
	if len(targets) == 0 {
		return nil, nil
	}

	lines := strings.Split(string(content), "\n")
	var seamNodes []*graph.Node
	var seamRels []*graph.Relationship
	for _, n := range nodes {
		if n.Kind != graph.KindFunction && n.Kind != graph.KindMethod {
			continue
		}
		span := sourceSpan(lines, n.Location.StartLine, n.Location.EndLine)
		if span == "" {
			continue
		}
		for _, target := range targets {
			s, ok := detector.Detect(lang, target, span, n.Name, target)
			if !ok {
				continue
			}
			name := s.Endpoint
			if name == "" {
				name = target + ":" + n.Name
			}
			targetNode := &graph.Node{
				ID:       graph.MakeNodeID("", name, 0, 0),
				Name:     name,
				Kind:     graph.KindCall,
				Language: target,
			}
			seamNodes = append(seamNodes, targetNode)
			seamRels = append(seamRels, &graph.Relationship{
				ID:       graph.RelationshipID(string(n.ID) + "#seam:" + name),
				SourceID: n.ID,
				TargetID: targetNode.ID,
				Kind:     graph.RelSeam,
				Metadata: map[string]any{"endpoint": s.Endpoint, "target_language": target},
			})
			break // one seam target per callable is enough
		}
	}
	return seamNodes, seamRels
}

// sourceSpan returns the (1-indexed, inclusive) source lines
// [startLine, endLine], clamped to lines' bounds.
func sourceSpan(lines []string, startLine, endLine int) string {
	if startLine <= 0 || startLine > len(lines) {
		return ""
	}
	end := endLine
	if end < startLine || end > len(lines) {
		end = startLine
	}
	return strings.Join(lines[startLine-1:end], "\n")
}

func definableCandidates(nodes []*graph.Node) []*graph.Node {
	out := make([]*graph.Node, 0, len(nodes))
	for _, n := range nodes {
		if graph.IsDefinable(n.Kind) {
			out = append(out, n)
		}
	}
	return out
}

func languageFor(registry *lang.Registry, relPath string) string {
	ext := filepath.Ext(relPath)
	if l, ok := registry.ByExtension(ext); ok {
		return l.Name
	}
	return ""
}
