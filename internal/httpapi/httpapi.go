// Package httpapi implements the HTTP surface (external collaborator,
// spec.md §6): four read-only endpoints over the committed code graph,
// routed with the stdlib Go 1.22+ pattern-based http.ServeMux — no
// router dependency needed for four fixed routes.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/analysis"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/graph"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
)

// GraphSource is the read surface httpapi needs from the committed
// graph — satisfied directly by *graph.Graph.
type GraphSource interface {
	Category(kind string, k int) []*graph.Node
	Subgraph(id graph.NodeID, depth int) ([]*graph.Node, []*graph.Relationship)
	AllNodes() []*graph.Node
	AllRelationships() []*graph.Relationship
}

// Handler serves the four /api/graph endpoints over g.
type Handler struct {
	graph  GraphSource
	logger logging.Logger
}

// NewHandler builds an http.Handler backed by g.
func NewHandler(g GraphSource, logger logging.Logger) http.Handler {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	h := &Handler{graph: g, logger: logger}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/graph/categories/{category}", h.categories)
	mux.HandleFunc("POST /api/graph/subgraph", h.subgraph)
	mux.HandleFunc("GET /api/graph/stats", h.stats)
	mux.HandleFunc("GET /api/graph/export", h.export)
	return mux
}

var validCategories = map[string]bool{"entry_points": true, "hubs": true, "leaves": true}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// categories handles GET /api/graph/categories/{entry_points|hubs|leaves}?limit&offset.
func (h *Handler) categories(w http.ResponseWriter, r *http.Request) {
	category := r.PathValue("category")
	if !validCategories[category] {
		writeError(w, http.StatusBadRequest, "category must be one of entry_points, hubs, leaves")
		return
	}

	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}
	offset := 0
	if v := r.URL.Query().Get("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		offset = n
	}

	// Category(kind, k) already caps "hubs" at k; request enough to
	// satisfy offset+limit, then paginate in-process for all three kinds
	// (entry_points/leaves aren't capped by Category itself).
	nodes := h.graph.Category(category, offset+limit)
	if offset >= len(nodes) {
		writeJSON(w, http.StatusOK, map[string]any{"category": category, "nodes": []nodeDTO{}})
		return
	}
	end := offset + limit
	if end > len(nodes) {
		end = len(nodes)
	}
	writeJSON(w, http.StatusOK, map[string]any{"category": category, "nodes": toNodeDTOs(nodes[offset:end])})
}

type subgraphRequest struct {
	NodeID string `json:"node_id"`
	Depth  int    `json:"depth"`
}

// subgraph handles POST /api/graph/subgraph?node_id&depth (also accepts
// a JSON body with the same fields, for programmatic callers).
func (h *Handler) subgraph(w http.ResponseWriter, r *http.Request) {
	req := subgraphRequest{Depth: 1}
	if q := r.URL.Query(); q.Get("node_id") != "" {
		req.NodeID = q.Get("node_id")
		if v := q.Get("depth"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				writeError(w, http.StatusBadRequest, "depth must be a non-negative integer")
				return
			}
			req.Depth = n
		}
	} else if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	if req.NodeID == "" {
		writeError(w, http.StatusBadRequest, "node_id is required")
		return
	}

	nodes, rels := h.graph.Subgraph(graph.NodeID(req.NodeID), req.Depth)
	writeJSON(w, http.StatusOK, map[string]any{
		"node_id": req.NodeID,
		"depth":   req.Depth,
		"nodes":   toNodeDTOs(nodes),
		"links":   toLinkDTOs(rels),
	})
}

// stats handles GET /api/graph/stats.
func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	g, ok := h.graph.(*graph.Graph)
	if !ok {
		writeError(w, http.StatusInternalServerError, "stats endpoint requires a *graph.Graph")
		return
	}
	writeJSON(w, http.StatusOK, analysis.ComputeProjectStatistics(g))
}

// export handles GET /api/graph/export, yielding the
// {nodes,links,stats} shape spec.md §6 names exactly.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	nodes := h.graph.AllNodes()
	rels := h.graph.AllRelationships()

	resp := struct {
		Nodes []nodeDTO               `json:"nodes"`
		Links []linkDTO               `json:"links"`
		Stats analysis.ProjectStatistics `json:"stats"`
	}{
		Nodes: toNodeDTOs(nodes),
		Links: toLinkDTOs(rels),
	}
	if g, ok := h.graph.(*graph.Graph); ok {
		resp.Stats = analysis.ComputeProjectStatistics(g)
	}
	writeJSON(w, http.StatusOK, resp)
}

// nodeDTO is the export/categories/subgraph node shape: {id,name,type,
// language,complexity,file,line}.
type nodeDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Language   string `json:"language"`
	Complexity int    `json:"complexity"`
	File       string `json:"file"`
	Line       int    `json:"line"`
}

func toNodeDTOs(nodes []*graph.Node) []nodeDTO {
	out := make([]nodeDTO, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, nodeDTO{
			ID:         string(n.ID),
			Name:       n.Name,
			Type:       string(n.Kind),
			Language:   n.Language,
			Complexity: n.Complexity,
			File:       n.Location.FilePath,
			Line:       n.Location.StartLine,
		})
	}
	return out
}

// linkDTO is the export/subgraph link shape: {source,target,type,isSeam}.
type linkDTO struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
	IsSeam bool   `json:"isSeam"`
}

func toLinkDTOs(rels []*graph.Relationship) []linkDTO {
	out := make([]linkDTO, 0, len(rels))
	for _, r := range rels {
		out = append(out, linkDTO{
			Source: string(r.SourceID),
			Target: string(r.TargetID),
			Type:   string(r.Kind),
			IsSeam: r.Kind == graph.RelSeam,
		})
	}
	return out
}
