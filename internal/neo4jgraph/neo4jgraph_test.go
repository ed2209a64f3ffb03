package neo4jgraph

import (
	"context"
	"testing"
	"time"
)

// TestOpenFailsFastOnUnreachableServer exercises the connectivity check
// without requiring a live Neo4j instance in the test environment: a
// bolt URI with no listener must surface an error quickly rather than
// hang or silently return an unusable Backend.
func TestOpenFailsFastOnUnreachableServer(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	_, err := Open(ctx, Config{
		URI:      "bolt://127.0.0.1:1",
		Username: "neo4j",
		Password: "test",
	}, nil)
	if err == nil {
		t.Fatal("expected connection error against unreachable server")
	}
}
