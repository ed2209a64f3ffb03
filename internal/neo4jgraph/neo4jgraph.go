// Package neo4jgraph implements the external GraphBackend (half of C8):
// a Neo4j-backed store the router falls back to once a Cypher query's
// estimated complexity crosses the external threshold, grounded on the
// neo4j-go-driver/v5 usage in the retrieval pack's repo-risk tooling.
package neo4jgraph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/ajacobm/code-graph-mcp-sub001/internal/logging"
	"github.com/ajacobm/code-graph-mcp-sub001/internal/router"
)

// Config holds the connection parameters for a Backend.
type Config struct {
	URI      string
	Username string
	Password string
	Realm    string // usually empty
	Database string // empty uses the server default database
}

// Backend executes routed queries against a Neo4j instance.
type Backend struct {
	driver   neo4j.DriverWithContext
	database string
	logger   logging.Logger
}

// Open creates a Neo4j driver from cfg and verifies connectivity.
func Open(ctx context.Context, cfg Config, logger logging.Logger) (*Backend, error) {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	driver, err := neo4j.NewDriverWithContext(cfg.URI, neo4j.BasicAuth(cfg.Username, cfg.Password, cfg.Realm))
	if err != nil {
		return nil, fmt.Errorf("neo4jgraph: create driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("neo4jgraph: verify connectivity: %w", err)
	}
	logger.Info("connected to neo4j", logging.Field{Key: "uri", Value: cfg.URI})
	return &Backend{driver: driver, database: cfg.Database, logger: logger}, nil
}

// Close releases the underlying driver's connection pool.
func (b *Backend) Close(ctx context.Context) error {
	return b.driver.Close(ctx)
}

// Name reports the routing target this backend serves.
func (b *Backend) Name() router.Target {
	return router.TargetExternal
}

// RunQuery executes query with params against Neo4j in a read-mode
// session and flattens the result stream into plain maps, each keyed by
// the Cypher RETURN aliases.
func (b *Backend) RunQuery(ctx context.Context, query string, params map[string]any) ([]map[string]any, error) {
	sessionConfig := neo4j.SessionConfig{AccessMode: neo4j.AccessModeRead}
	if b.database != "" {
		sessionConfig.DatabaseName = b.database
	}
	session := b.driver.NewSession(ctx, sessionConfig)
	defer session.Close(ctx)

	result, err := session.Run(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("neo4jgraph: run query: %w", err)
	}

	var rows []map[string]any
	for result.Next(ctx) {
		record := result.Record()
		row := make(map[string]any, len(record.Keys))
		for _, key := range record.Keys {
			val, _ := record.Get(key)
			row[key] = val
		}
		rows = append(rows, row)
	}
	if err := result.Err(); err != nil {
		return nil, fmt.Errorf("neo4jgraph: stream results: %w", err)
	}
	return rows, nil
}

// Write executes a write-mode query in an explicit write session; the
// query router does not call it.
func (b *Backend) Write(ctx context.Context, query string, params map[string]any) error {
	sessionConfig := neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite}
	if b.database != "" {
		sessionConfig.DatabaseName = b.database
	}
	session := b.driver.NewSession(ctx, sessionConfig)
	defer session.Close(ctx)

	_, err := session.Run(ctx, query, params)
	if err != nil {
		return fmt.Errorf("neo4jgraph: write query: %w", err)
	}
	return nil
}
