package router

import "sync"

// Target names the backend a query is routed to.
type Target string

const (
	TargetInProcess Target = "in_process" // the embedded graph.Graph (rustworkx equivalent)
	TargetExternal  Target = "external"   // a Neo4j-backed GraphBackend (memgraph equivalent)
)

// Decision is the result of routing one query.
type Decision struct {
	Target               Target
	Confidence           float64
	EstimatedComplexity  int
	Reason               string
	Cached               bool
}

// Metrics accumulates routing statistics, ported from
// query_router.py's RoutingMetrics.
type Metrics struct {
	mu                sync.Mutex
	TotalQueries      int
	InProcessCount    int
	ExternalCount     int
	complexities      []int
	AverageComplexity float64
}

func (m *Metrics) record(d Decision) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.TotalQueries++
	if d.Target == TargetInProcess {
		m.InProcessCount++
	} else {
		m.ExternalCount++
	}
	m.complexities = append(m.complexities, d.EstimatedComplexity)

	sum := 0
	for _, c := range m.complexities {
		sum += c
	}
	m.AverageComplexity = float64(sum) / float64(len(m.complexities))
}

// Snapshot returns a copy of the current metrics, safe to read
// concurrently with further routing.
func (m *Metrics) Snapshot() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return Metrics{
		TotalQueries:      m.TotalQueries,
		InProcessCount:    m.InProcessCount,
		ExternalCount:     m.ExternalCount,
		AverageComplexity: m.AverageComplexity,
	}
}

// Router routes a query text to a Target, memoizing the decision per
// exact query text (last-writer-wins across concurrent Route calls,
// per spec.md §5).
type Router struct {
	inProcessThreshold int
	externalThreshold  int

	mu    sync.RWMutex
	cache map[string]Decision
}

// New builds a Router. Zero thresholds fall back to
// SimpleThreshold/ComplexThreshold.
func New(inProcessThreshold, externalThreshold int) *Router {
	if inProcessThreshold <= 0 {
		inProcessThreshold = SimpleThreshold
	}
	if externalThreshold <= 0 {
		externalThreshold = ComplexThreshold
	}
	return &Router{
		inProcessThreshold: inProcessThreshold,
		externalThreshold:  externalThreshold,
		cache:              make(map[string]Decision),
	}
}

// Route scores query and returns the routing decision, reusing a cached
// decision for identical query text.
func (r *Router) Route(query string) Decision {
	r.mu.RLock()
	cached, ok := r.cache[query]
	r.mu.RUnlock()
	if ok {
		cached.Cached = true
		return cached
	}

	complexity := Analyze(query)

	var d Decision
	switch {
	case complexity.Score < r.inProcessThreshold:
		confidence := 0.8
		if complexity.IsSimple {
			confidence = 0.95
		}
		d = Decision{Target: TargetInProcess, Confidence: confidence, EstimatedComplexity: complexity.Score, Reason: "simple query, in-process graph sufficient"}
	case complexity.Score >= r.externalThreshold:
		d = Decision{Target: TargetExternal, Confidence: 0.95, EstimatedComplexity: complexity.Score, Reason: "complex query requires external graph backend"}
	default:
		d = Decision{Target: TargetExternal, Confidence: 0.7, EstimatedComplexity: complexity.Score, Reason: "moderate complexity, routing externally for optimization"}
	}

	r.mu.Lock()
	r.cache[query] = d
	r.mu.Unlock()

	return d
}

// Manager wraps a Router with metrics collection, per
// query_router.py's QueryRouterManager.
type Manager struct {
	router  *Router
	metrics *Metrics
}

// NewManager builds a Manager around a freshly constructed Router.
func NewManager(inProcessThreshold, externalThreshold int) *Manager {
	return &Manager{router: New(inProcessThreshold, externalThreshold), metrics: &Metrics{}}
}

// Route routes query and records the decision in the Manager's metrics.
func (m *Manager) Route(query string) Decision {
	d := m.router.Route(query)
	m.metrics.record(d)
	return d
}

// GetMetrics returns a snapshot of accumulated routing metrics.
func (m *Manager) GetMetrics() Metrics {
	return m.metrics.Snapshot()
}

// ClearMetrics resets accumulated metrics without touching the decision
// cache.
func (m *Manager) ClearMetrics() {
	m.metrics = &Metrics{}
}
