package router

import (
	"context"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/cgerrors"
)

// GraphBackend executes a routed Cypher-style query against whichever
// store a Decision points at. internal/graph implements this for the
// in-process target; internal/neo4jgraph implements it for the
// external target.
type GraphBackend interface {
	RunQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error)
	Name() Target
}

// Execute routes query and runs it against the matching backend. The
// router never silently falls back to the other backend on failure —
// a backend error comes back wrapped in cgerrors.BackendUnavailableError
// with the routing decision attached, leaving retry-against-the-other-
// target as a decision for the caller.
func Execute(ctx context.Context, mgr *Manager, backends map[Target]GraphBackend, query string, params map[string]any) ([]map[string]any, Decision, error) {
	decision := mgr.Route(query)
	backend, ok := backends[decision.Target]
	if !ok {
		return nil, decision, &BackendNotConfiguredError{Target: decision.Target}
	}
	rows, err := backend.RunQuery(ctx, query, params)
	if err != nil {
		return nil, decision, &cgerrors.BackendUnavailableError{
			Decision: cgerrors.RoutingDecision{
				Target:              string(decision.Target),
				Confidence:          decision.Confidence,
				EstimatedComplexity: decision.EstimatedComplexity,
				Reason:              decision.Reason,
			},
			Err: err,
		}
	}
	return rows, decision, nil
}

// BackendNotConfiguredError is returned when a Decision names a target
// with no GraphBackend registered for it.
type BackendNotConfiguredError struct {
	Target Target
}

func (e *BackendNotConfiguredError) Error() string {
	return "router: no backend configured for target " + string(e.Target)
}
