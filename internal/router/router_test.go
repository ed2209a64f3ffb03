package router

import "testing"

func TestRouteSimpleQueryGoesInProcess(t *testing.T) {
	r := New(0, 0)
	d := r.Route(`MATCH (n:Function {name: $name}) RETURN n`)
	if d.Target != TargetInProcess {
		t.Fatalf("expected in_process, got %s (score %d)", d.Target, d.EstimatedComplexity)
	}
	if d.Cached {
		t.Fatal("first route should not be marked cached")
	}
}

func TestRouteComplexQueryGoesExternal(t *testing.T) {
	r := New(0, 0)
	query := `MATCH (a)-[*1..5]-(b) MATCH (c) WHERE a.name = $x AND b.name = $y
		WITH a, count(*) as cnt GROUP BY a
		RETURN a, b UNION RETURN c ORDER BY cnt LIMIT 10`
	d := r.Route(query)
	if d.Target != TargetExternal {
		t.Fatalf("expected external, got %s (score %d)", d.Target, d.EstimatedComplexity)
	}
	if d.Confidence != 0.95 {
		t.Fatalf("expected high confidence for clearly complex query, got %v", d.Confidence)
	}
}

func TestRouteCachesDecisionByExactText(t *testing.T) {
	r := New(0, 0)
	q := `MATCH (n:Class) RETURN n`
	first := r.Route(q)
	second := r.Route(q)
	if first.Cached {
		t.Fatal("first call should be uncached")
	}
	if !second.Cached {
		t.Fatal("second call with identical text should be cached")
	}
	if first.Target != second.Target {
		t.Fatal("cached decision should match original")
	}
}

func TestManagerRecordsMetrics(t *testing.T) {
	m := NewManager(0, 0)
	m.Route(`MATCH (n:Function {name: $name}) RETURN n`)
	m.Route(`MATCH (n:Function {name: $name}) RETURN n`)
	snap := m.GetMetrics()
	if snap.TotalQueries != 2 {
		t.Fatalf("TotalQueries = %d, want 2", snap.TotalQueries)
	}
	if snap.InProcessCount != 2 {
		t.Fatalf("InProcessCount = %d, want 2", snap.InProcessCount)
	}
}

func TestManagerClearMetricsResetsCounts(t *testing.T) {
	m := NewManager(0, 0)
	m.Route(`MATCH (n:Function) RETURN n`)
	m.ClearMetrics()
	snap := m.GetMetrics()
	if snap.TotalQueries != 0 {
		t.Fatalf("TotalQueries after clear = %d, want 0", snap.TotalQueries)
	}
}

func TestNewFallsBackToDefaultThresholdsOnNonPositiveInput(t *testing.T) {
	r := New(-1, 0)
	if r.inProcessThreshold != SimpleThreshold || r.externalThreshold != ComplexThreshold {
		t.Fatalf("expected default thresholds, got %d/%d", r.inProcessThreshold, r.externalThreshold)
	}
}
