package graph

import (
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
)

// Graph is the sole owner of all nodes and relationships (spec §3
// Ownership). Callers only ever see copies or immutable handles.
//
// Indices: by_name and by_kind for nodes, outgoing/incoming/by_kind for
// relationships. Node/relationship ids are dense-mapped to uint32
// surrogates so the kind and adjacency indices can be stored as
// roaring.Bitmap — a good fit here because a handful of kinds each hold
// many members, and adjacency sets on hub nodes can get large.
type Graph struct {
	mu sync.RWMutex

	nodes         map[NodeID]*Node
	relationships map[RelationshipID]*Relationship

	nodeSurrogate map[NodeID]uint32
	nodeByID      []NodeID // surrogate -> id, index 0 unused (sentinel)
	relSurrogate  map[RelationshipID]uint32
	relByID       []RelationshipID

	byName     map[string]map[NodeID]struct{}
	byKindNode map[Kind]*roaring.Bitmap
	byKindRel  map[RelKind]*roaring.Bitmap
	outgoing   map[uint32]*roaring.Bitmap // node surrogate -> relationship surrogates
	incoming   map[uint32]*roaring.Bitmap
}

// New returns an empty Graph ready for mutation.
func New() *Graph {
	return &Graph{
		nodes:         make(map[NodeID]*Node),
		relationships: make(map[RelationshipID]*Relationship),
		nodeSurrogate: make(map[NodeID]uint32),
		nodeByID:      make([]NodeID, 1), // reserve 0
		relSurrogate:  make(map[RelationshipID]uint32),
		relByID:       make([]RelationshipID, 1),
		byName:        make(map[string]map[NodeID]struct{}),
		byKindNode:    make(map[Kind]*roaring.Bitmap),
		byKindRel:     make(map[RelKind]*roaring.Bitmap),
		outgoing:      make(map[uint32]*roaring.Bitmap),
		incoming:      make(map[uint32]*roaring.Bitmap),
	}
}

func (g *Graph) nodeSurrogateFor(id NodeID) uint32 {
	if s, ok := g.nodeSurrogate[id]; ok {
		return s
	}
	s := uint32(len(g.nodeByID))
	g.nodeByID = append(g.nodeByID, id)
	g.nodeSurrogate[id] = s
	return s
}

func (g *Graph) relSurrogateFor(id RelationshipID) uint32 {
	if s, ok := g.relSurrogate[id]; ok {
		return s
	}
	s := uint32(len(g.relByID))
	g.relByID = append(g.relByID, id)
	g.relSurrogate[id] = s
	return s
}

func kindBitmap[K comparable](m map[K]*roaring.Bitmap, k K) *roaring.Bitmap {
	b, ok := m[k]
	if !ok {
		b = roaring.New()
		m[k] = b
	}
	return b
}

// AddNode inserts n, or replaces the existing node with the same id
// (spec §3 invariant 2). Indices are updated in O(1) amortized.
func (g *Graph) AddNode(n *Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.addNodeLocked(n)
}

func (g *Graph) addNodeLocked(n *Node) {
	if existing, ok := g.nodes[n.ID]; ok {
		g.deindexNodeLocked(existing)
	}
	cp := n.Clone()
	g.nodes[n.ID] = cp

	sur := g.nodeSurrogateFor(n.ID)
	kindBitmap(g.byKindNode, n.Kind).Add(sur)

	if g.byName[n.Name] == nil {
		g.byName[n.Name] = make(map[NodeID]struct{})
	}
	g.byName[n.Name][n.ID] = struct{}{}
}

func (g *Graph) deindexNodeLocked(n *Node) {
	sur, ok := g.nodeSurrogate[n.ID]
	if !ok {
		return
	}
	kindBitmap(g.byKindNode, n.Kind).Remove(sur)
	if set, ok := g.byName[n.Name]; ok {
		delete(set, n.ID)
		if len(set) == 0 {
			delete(g.byName, n.Name)
		}
	}
}

// RemoveNode removes the node and cascades: every relationship with
// source=id or target=id is removed first (spec §4.6).
func (g *Graph) RemoveNode(id NodeID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeNodeLocked(id)
}

func (g *Graph) removeNodeLocked(id NodeID) {
	n, ok := g.nodes[id]
	if !ok {
		return // no-op on unknown id
	}
	sur := g.nodeSurrogateFor(id)

	for _, relID := range g.relIDsFromBitmap(g.outgoing[sur]) {
		g.removeRelationshipLocked(relID)
	}
	for _, relID := range g.relIDsFromBitmap(g.incoming[sur]) {
		g.removeRelationshipLocked(relID)
	}

	g.deindexNodeLocked(n)
	delete(g.nodes, id)
}

func (g *Graph) relIDsFromBitmap(bm *roaring.Bitmap) []RelationshipID {
	if bm == nil {
		return nil
	}
	ids := make([]RelationshipID, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		ids = append(ids, g.relByID[it.Next()])
	}
	return ids
}

// AddRelationship inserts r; fails with cgerrors if either endpoint is
// missing (spec §4.6).
func (g *Graph) AddRelationship(r *Relationship) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[r.SourceID]; !ok {
		return &cgerrors.DanglingRelationshipError{RelationshipID: string(r.ID), MissingNodeID: string(r.SourceID)}
	}
	if _, ok := g.nodes[r.TargetID]; !ok {
		return &cgerrors.DanglingRelationshipError{RelationshipID: string(r.ID), MissingNodeID: string(r.TargetID)}
	}

	if existing, ok := g.relationships[r.ID]; ok {
		g.deindexRelationshipLocked(existing)
	}
	cp := r.Clone()
	g.relationships[r.ID] = cp

	relSur := g.relSurrogateFor(r.ID)
	srcSur := g.nodeSurrogateFor(r.SourceID)
	dstSur := g.nodeSurrogateFor(r.TargetID)

	kindBitmap(g.byKindRel, r.Kind).Add(relSur)
	kindBitmap(g.outgoing, srcSur).Add(relSur)
	kindBitmap(g.incoming, dstSur).Add(relSur)

	return nil
}

func (g *Graph) deindexRelationshipLocked(r *Relationship) {
	relSur, ok := g.relSurrogate[r.ID]
	if !ok {
		return
	}
	kindBitmap(g.byKindRel, r.Kind).Remove(relSur)
	if srcSur, ok := g.nodeSurrogate[r.SourceID]; ok {
		if bm, ok := g.outgoing[srcSur]; ok {
			bm.Remove(relSur)
		}
	}
	if dstSur, ok := g.nodeSurrogate[r.TargetID]; ok {
		if bm, ok := g.incoming[dstSur]; ok {
			bm.Remove(relSur)
		}
	}
}

// RemoveRelationship removes r and deindexes it; a no-op on unknown id.
func (g *Graph) RemoveRelationship(id RelationshipID) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removeRelationshipLocked(id)
}

func (g *Graph) removeRelationshipLocked(id RelationshipID) {
	r, ok := g.relationships[id]
	if !ok {
		return
	}
	g.deindexRelationshipLocked(r)
	delete(g.relationships, id)
}

// ReplaceFile atomically removes every node whose Location.FilePath equals
// filePath (and every relationship touching them), then inserts the given
// nodes and relationships. This is the sole mutation entry point used by
// the parser (spec §3 lifecycle, §4.4 step 8, §5 ordering guarantee: all
// removals precede all insertions for one file).
func (g *Graph) ReplaceFile(filePath string, nodes []*Node, rels []*Relationship) []error {
	g.mu.Lock()
	defer g.mu.Unlock()

	var toRemove []NodeID
	for id, n := range g.nodes {
		if n.Location.FilePath == filePath {
			toRemove = append(toRemove, id)
		}
	}
	for _, id := range toRemove {
		g.removeNodeLocked(id)
	}

	for _, n := range nodes {
		g.addNodeLocked(n)
	}

	var errs []error
	for _, r := range rels {
		if err := g.addRelationshipLockedChecked(r); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func (g *Graph) addRelationshipLockedChecked(r *Relationship) error {
	if _, ok := g.nodes[r.SourceID]; !ok {
		return &cgerrors.DanglingRelationshipError{RelationshipID: string(r.ID), MissingNodeID: string(r.SourceID)}
	}
	if _, ok := g.nodes[r.TargetID]; !ok {
		return &cgerrors.DanglingRelationshipError{RelationshipID: string(r.ID), MissingNodeID: string(r.TargetID)}
	}
	cp := r.Clone()
	g.relationships[r.ID] = cp
	relSur := g.relSurrogateFor(r.ID)
	srcSur := g.nodeSurrogateFor(r.SourceID)
	dstSur := g.nodeSurrogateFor(r.TargetID)
	kindBitmap(g.byKindRel, r.Kind).Add(relSur)
	kindBitmap(g.outgoing, srcSur).Add(relSur)
	kindBitmap(g.incoming, dstSur).Add(relSur)
	return nil
}

// Node returns a copy of the node with id, or nil if absent.
func (g *Graph) Node(id NodeID) *Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[id].Clone()
}

// Relationship returns a copy of the relationship with id, or nil.
func (g *Graph) Relationship(id RelationshipID) *Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.relationships[id].Clone()
}

// NodeCount and RelationshipCount report current sizes.
func (g *Graph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

func (g *Graph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relationships)
}

// FindByName implements find_by_name(name, exact) from spec §4.6.
func (g *Graph) FindByName(name string, exact bool) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var out []*Node
	if exact {
		for id := range g.byName[name] {
			out = append(out, g.nodes[id].Clone())
		}
		sortNodes(out)
		return out
	}

	lower := strings.ToLower(name)
	for n, ids := range g.byName {
		if strings.Contains(strings.ToLower(n), lower) {
			for id := range ids {
				out = append(out, g.nodes[id].Clone())
			}
		}
	}
	sortNodes(out)
	return out
}

// RelationshipsFrom / RelationshipsTo: constant-time lookup of the
// current snapshot set (spec §4.6).
func (g *Graph) RelationshipsFrom(id NodeID) []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sur, ok := g.nodeSurrogate[id]
	if !ok {
		return nil
	}
	return g.relsFromBitmapLocked(g.outgoing[sur])
}

func (g *Graph) RelationshipsTo(id NodeID) []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sur, ok := g.nodeSurrogate[id]
	if !ok {
		return nil
	}
	return g.relsFromBitmapLocked(g.incoming[sur])
}

func (g *Graph) relsFromBitmapLocked(bm *roaring.Bitmap) []*Relationship {
	if bm == nil {
		return nil
	}
	out := make([]*Relationship, 0, bm.GetCardinality())
	it := bm.Iterator()
	for it.HasNext() {
		relID := g.relByID[it.Next()]
		out = append(out, g.relationships[relID].Clone())
	}
	return out
}

// Neighbors does a one-hop traversal over outgoing (dir="out") or
// incoming (dir="in") relationships, optionally filtered by kind.
func (g *Graph) Neighbors(id NodeID, dir string, kind RelKind) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	sur, ok := g.nodeSurrogate[id]
	if !ok {
		return nil
	}
	var bm *roaring.Bitmap
	if dir == "in" {
		bm = g.incoming[sur]
	} else {
		bm = g.outgoing[sur]
	}
	if bm == nil {
		return nil
	}

	seen := make(map[NodeID]struct{})
	var out []*Node
	it := bm.Iterator()
	for it.HasNext() {
		r := g.relationships[g.relByID[it.Next()]]
		if r == nil {
			continue
		}
		if kind != "" && r.Kind != kind {
			continue
		}
		var otherID NodeID
		if dir == "in" {
			otherID = r.SourceID
		} else {
			otherID = r.TargetID
		}
		if _, dup := seen[otherID]; dup {
			continue
		}
		seen[otherID] = struct{}{}
		if n, ok := g.nodes[otherID]; ok {
			out = append(out, n.Clone())
		}
	}
	sortNodes(out)
	return out
}

// Degree returns (in_degree, out_degree) for id.
func (g *Graph) Degree(id NodeID) (int, int) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	sur, ok := g.nodeSurrogate[id]
	if !ok {
		return 0, 0
	}
	in, out := 0, 0
	if bm, ok := g.incoming[sur]; ok {
		in = int(bm.GetCardinality())
	}
	if bm, ok := g.outgoing[sur]; ok {
		out = int(bm.GetCardinality())
	}
	return in, out
}

// Subgraph performs a BFS expansion up to depth hops from id, returning
// the node set and all induced relationships. Only the root considers
// both its callers and its callees; every further hop follows only
// outgoing edges, so the walk never doubles back out through a node's
// other incoming edge and re-discovers an ancestor of the node that
// brought it in (e.g. a caller's own caller).
func (g *Graph) Subgraph(id NodeID, depth int) (nodes []*Node, rels []*Relationship) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[id]; !ok {
		return nil, nil
	}

	visited := map[NodeID]int{id: 0}
	order := []NodeID{id}
	relSeen := map[RelationshipID]struct{}{}

	frontier := []NodeID{id}
	for d := 0; d < depth && len(frontier) > 0; d++ {
		var next []NodeID
		for _, cur := range frontier {
			sur, ok := g.nodeSurrogate[cur]
			if !ok {
				continue
			}
			bitmaps := []*roaring.Bitmap{g.outgoing[sur]}
			if d == 0 {
				bitmaps = append(bitmaps, g.incoming[sur])
			}
			for _, bm := range bitmaps {
				if bm == nil {
					continue
				}
				it := bm.Iterator()
				for it.HasNext() {
					relID := g.relByID[it.Next()]
					r := g.relationships[relID]
					if r == nil {
						continue
					}
					relSeen[relID] = struct{}{}
					other := r.TargetID
					if other == cur {
						other = r.SourceID
					}
					if _, seen := visited[other]; !seen {
						visited[other] = d + 1
						order = append(order, other)
						next = append(next, other)
					}
				}
			}
		}
		frontier = next
	}

	for _, nid := range order {
		if n, ok := g.nodes[nid]; ok {
			nodes = append(nodes, n.Clone())
		}
	}
	for relID := range relSeen {
		if r, ok := g.relationships[relID]; ok {
			rels = append(rels, r.Clone())
		}
	}
	sortNodes(nodes)
	sortRels(rels)
	return nodes, rels
}

// Category computes the derived sets from spec §4.6: entry_points, hubs,
// leaves. k bounds the number of hubs returned (default 20 when k<=0).
func (g *Graph) Category(kind string, k int) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if k <= 0 {
		k = 20
	}

	type scored struct {
		id     NodeID
		degree int
	}

	var out []*Node
	switch kind {
	case "entry_points":
		for id := range g.nodes {
			in, out2 := g.degreeLocked(id)
			if in == 0 && out2 > 0 {
				out = append(out, g.nodes[id].Clone())
			}
		}
		sortNodes(out)
	case "leaves":
		for id := range g.nodes {
			in, out2 := g.degreeLocked(id)
			if out2 == 0 && in > 0 {
				out = append(out, g.nodes[id].Clone())
			}
		}
		sortNodes(out)
	case "hubs":
		var scoredList []scored
		for id := range g.nodes {
			in, out2 := g.degreeLocked(id)
			scoredList = append(scoredList, scored{id, in + out2})
		}
		sort.Slice(scoredList, func(i, j int) bool {
			if scoredList[i].degree != scoredList[j].degree {
				return scoredList[i].degree > scoredList[j].degree
			}
			return scoredList[i].id < scoredList[j].id
		})
		if len(scoredList) > k {
			scoredList = scoredList[:k]
		}
		for _, s := range scoredList {
			out = append(out, g.nodes[s.id].Clone())
		}
	}
	return out
}

func (g *Graph) degreeLocked(id NodeID) (int, int) {
	sur, ok := g.nodeSurrogate[id]
	if !ok {
		return 0, 0
	}
	in, out := 0, 0
	if bm, ok := g.incoming[sur]; ok {
		in = int(bm.GetCardinality())
	}
	if bm, ok := g.outgoing[sur]; ok {
		out = int(bm.GetCardinality())
	}
	return in, out
}

// NodesInFile returns the current nodes whose Location.FilePath equals
// filePath, the same selection ReplaceFile removes before committing a
// file's new extraction — used by callers that need to publish a
// removal notification ahead of the replacement.
func (g *Graph) NodesInFile(filePath string) []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	var out []*Node
	for _, n := range g.nodes {
		if n.Location.FilePath == filePath {
			out = append(out, n.Clone())
		}
	}
	sortNodes(out)
	return out
}

// AllNodes and AllRelationships return a full snapshot copy, used by
// project_statistics and the HTTP export endpoint.
func (g *Graph) AllNodes() []*Node {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		out = append(out, n.Clone())
	}
	sortNodes(out)
	return out
}

func (g *Graph) AllRelationships() []*Relationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Relationship, 0, len(g.relationships))
	for _, r := range g.relationships {
		out = append(out, r.Clone())
	}
	sortRels(out)
	return out
}

func sortNodes(nodes []*Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })
}

func sortRels(rels []*Relationship) {
	sort.Slice(rels, func(i, j int) bool { return rels[i].ID < rels[j].ID })
}
