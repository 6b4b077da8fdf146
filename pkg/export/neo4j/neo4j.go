// Package neo4j exports a positioned org chart to a Neo4j graph.
//
// Each node becomes a (:Department) keyed by chart and id, and each edge a
// [:PARENT_OF] relationship. Writes are batched UNWIND ... MERGE statements,
// so exporting the same chart twice updates it in place.
package neo4j

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/matzehuels/orgchart/pkg/graph"
)

// DefaultBatchSize is the number of rows sent per UNWIND statement.
const DefaultBatchSize = 500

// DefaultChart names the chart when ExportOptions.Chart is empty.
const DefaultChart = "default"

// ExportOptions configures one export.
type ExportOptions struct {
	// Chart scopes all written nodes so several charts share a database.
	Chart string

	// Clean deletes the chart's existing departments first.
	Clean bool
}

// Stats reports what an export wrote.
type Stats struct {
	Departments   int
	Relationships int
	Batches       int
}

// execFunc runs one Cypher statement.
type execFunc func(ctx context.Context, cypher string, params map[string]any) error

// Exporter writes layouts to Neo4j.
type Exporter struct {
	driver    neo4j.DriverWithContext
	exec      execFunc
	batchSize int
	logger    *log.Logger
}

// Open connects to Neo4j and verifies connectivity. An empty database uses
// the server default.
func Open(ctx context.Context, uri, user, password, database string, logger *log.Logger) (*Exporter, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("create neo4j driver: %w", err)
	}
	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("connect neo4j %s: %w", uri, err)
	}

	var configurers []neo4j.ExecuteQueryConfigurationOption
	if database != "" {
		configurers = append(configurers, neo4j.ExecuteQueryWithDatabase(database))
	}
	exec := func(ctx context.Context, cypher string, params map[string]any) error {
		_, err := neo4j.ExecuteQuery(ctx, driver, cypher, params, neo4j.EagerResultTransformer, configurers...)
		return err
	}

	e := newExporter(exec, logger)
	e.driver = driver
	return e, nil
}

func newExporter(exec execFunc, logger *log.Logger) *Exporter {
	if logger == nil {
		logger = log.Default()
	}
	return &Exporter{exec: exec, batchSize: DefaultBatchSize, logger: logger}
}

// SetBatchSize changes the number of rows per statement.
func (e *Exporter) SetBatchSize(n int) {
	if n > 0 {
		e.batchSize = n
	}
}

// Close releases the driver.
func (e *Exporter) Close(ctx context.Context) error {
	if e.driver == nil {
		return nil
	}
	return e.driver.Close(ctx)
}

const (
	createIndex = `CREATE INDEX department_chart_id IF NOT EXISTS FOR (n:Department) ON (n.chart, n.id)`

	cleanChart = `MATCH (n:Department {chart: $chart}) DETACH DELETE n`

	upsertDepartments = `UNWIND $batch AS row
		 MERGE (n:Department {chart: row.chart, id: row.id})
		 SET n.name = row.name, n.active = row.active, n.deleted = row.deleted,
		     n.approved = row.approved, n.rank = row.rank, n.x = row.x, n.y = row.y`

	upsertParents = `UNWIND $batch AS row
		 MATCH (p:Department {chart: row.chart, id: row.source})
		 MATCH (c:Department {chart: row.chart, id: row.target})
		 MERGE (p)-[r:PARENT_OF]->(c)
		 SET r.id = row.id`
)

// Export writes l. Departments are written before relationships so every
// MATCH finds its endpoints.
func (e *Exporter) Export(ctx context.Context, l graph.Layout, opts ExportOptions) (Stats, error) {
	if err := l.Validate(); err != nil {
		return Stats{}, err
	}
	chart := opts.Chart
	if chart == "" {
		chart = DefaultChart
	}

	var stats Stats
	if err := e.exec(ctx, createIndex, nil); err != nil {
		return stats, fmt.Errorf("create index: %w", err)
	}
	if opts.Clean {
		e.logger.Debug("cleaning chart", "chart", chart)
		if err := e.exec(ctx, cleanChart, map[string]any{"chart": chart}); err != nil {
			return stats, fmt.Errorf("clean chart %s: %w", chart, err)
		}
	}

	for _, batch := range chunk(DepartmentRows(l, chart), e.batchSize) {
		if err := e.exec(ctx, upsertDepartments, map[string]any{"batch": batch}); err != nil {
			return stats, fmt.Errorf("upsert departments: %w", err)
		}
		stats.Departments += len(batch)
		stats.Batches++
	}
	for _, batch := range chunk(ParentRows(l, chart), e.batchSize) {
		if err := e.exec(ctx, upsertParents, map[string]any{"batch": batch}); err != nil {
			return stats, fmt.Errorf("upsert relationships: %w", err)
		}
		stats.Relationships += len(batch)
		stats.Batches++
	}

	e.logger.Info("exported chart",
		"chart", chart,
		"departments", stats.Departments,
		"relationships", stats.Relationships)
	return stats, nil
}

// DepartmentRows converts nodes to UNWIND parameter rows.
func DepartmentRows(l graph.Layout, chart string) []map[string]any {
	rows := make([]map[string]any, 0, len(l.Nodes))
	for _, n := range l.Nodes {
		rows = append(rows, map[string]any{
			"chart":    chart,
			"id":       n.ID,
			"name":     n.Label,
			"active":   n.Status.Active,
			"deleted":  n.Status.Deleted,
			"approved": n.Status.Approved,
			"rank":     int64(n.Rank),
			"x":        n.Position.X,
			"y":        n.Position.Y,
		})
	}
	return rows
}

// ParentRows converts edges to UNWIND parameter rows.
func ParentRows(l graph.Layout, chart string) []map[string]any {
	rows := make([]map[string]any, 0, len(l.Edges))
	for _, e := range l.Edges {
		rows = append(rows, map[string]any{
			"chart":  chart,
			"id":     e.ID,
			"source": e.Source,
			"target": e.Target,
		})
	}
	return rows
}

func chunk(rows []map[string]any, size int) [][]map[string]any {
	var out [][]map[string]any
	for start := 0; start < len(rows); start += size {
		out = append(out, rows[start:min(start+size, len(rows))])
	}
	return out
}
