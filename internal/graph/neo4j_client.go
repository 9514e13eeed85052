package graph

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

// Client wraps the Neo4j driver behind the Source and Sink capabilities
// the backend consumes. Connection pooling, sessions, and routing stay
// in the driver; nothing outside this file touches Cypher.
type Client struct {
	driver   neo4j.DriverWithContext
	logger   *slog.Logger
	database string
}

// NewClient creates a Neo4j client against the default database.
func NewClient(ctx context.Context, uri, user, password string) (*Client, error) {
	return NewClientWithDatabase(ctx, uri, user, password, "neo4j")
}

// NewClientWithDatabase creates a Neo4j client with a specific database.
// Connectivity is verified eagerly so misconfiguration fails fast.
func NewClientWithDatabase(ctx context.Context, uri, user, password, database string) (*Client, error) {
	if uri == "" || user == "" || password == "" {
		return nil, fmt.Errorf("neo4j credentials missing: uri=%s, user=%s", uri, user)
	}

	driver, err := neo4j.NewDriverWithContext(uri,
		neo4j.BasicAuth(user, password, ""),
		func(config *neo4j.Config) {
			config.MaxConnectionPoolSize = 50
			config.ConnectionAcquisitionTimeout = 60 * time.Second
			config.SocketConnectTimeout = 5 * time.Second
			config.SocketKeepalive = true
		})
	if err != nil {
		return nil, fmt.Errorf("failed to create neo4j driver: %w", err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to connect to neo4j at %s: %w", uri, err)
	}

	logger := slog.Default().With("component", "neo4j")
	logger.Info("neo4j client connected", "uri", uri, "user", user, "database", database)

	return &Client{driver: driver, logger: logger, database: database}, nil
}

// Close closes the underlying driver.
func (c *Client) Close(ctx context.Context) error {
	if err := c.driver.Close(ctx); err != nil {
		return fmt.Errorf("failed to close neo4j driver: %w", err)
	}
	c.logger.Info("neo4j client closed")
	return nil
}

// FetchNodes returns every node as (external id, labels, properties).
func (c *Client) FetchNodes(ctx context.Context) ([]NodeRecord, error) {
	query := `MATCH (n)
	          RETURN elementId(n) AS id, labels(n) AS labels, properties(n) AS props
	          ORDER BY id(n)`

	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database))
	if err != nil {
		return nil, fmt.Errorf("fetch nodes query failed: %w", err)
	}

	records := make([]NodeRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		id, _ := rec.Get("id")
		labels, _ := rec.Get("labels")
		props, _ := rec.Get("props")
		records = append(records, NodeRecord{
			ID:         fmt.Sprintf("%v", id),
			Labels:     toStringSlice(labels),
			Properties: toPropertyMap(props),
		})
	}
	c.logger.Debug("fetched nodes", "count", len(records))
	return records, nil
}

// FetchEdges returns every relationship as
// (external id, start id, end id, type, properties).
func (c *Client) FetchEdges(ctx context.Context) ([]EdgeRecord, error) {
	query := `MATCH (a)-[r]->(b)
	          RETURN elementId(r) AS id, elementId(a) AS start, elementId(b) AS end,
	                 type(r) AS type, properties(r) AS props
	          ORDER BY id(r)`

	result, err := neo4j.ExecuteQuery(ctx, c.driver, query, nil,
		neo4j.EagerResultTransformer,
		neo4j.ExecuteQueryWithDatabase(c.database))
	if err != nil {
		return nil, fmt.Errorf("fetch edges query failed: %w", err)
	}

	records := make([]EdgeRecord, 0, len(result.Records))
	for _, rec := range result.Records {
		id, _ := rec.Get("id")
		start, _ := rec.Get("start")
		end, _ := rec.Get("end")
		relType, _ := rec.Get("type")
		props, _ := rec.Get("props")
		records = append(records, EdgeRecord{
			ID:         fmt.Sprintf("%v", id),
			Start:      fmt.Sprintf("%v", start),
			End:        fmt.Sprintf("%v", end),
			Type:       fmt.Sprintf("%v", relType),
			Properties: toPropertyMap(props),
		})
	}
	c.logger.Debug("fetched edges", "count", len(records))
	return records, nil
}

// MergeNodes writes nodes idempotently, batched per label set with
// UNWIND. Labels cannot be parameterized in Cypher, so they are
// sanitized and interpolated.
func (c *Client) MergeNodes(ctx context.Context, nodes []NodeRecord) error {
	byLabel := make(map[string][]NodeRecord)
	for _, n := range nodes {
		byLabel[labelExpr(n.Labels)] = append(byLabel[labelExpr(n.Labels)], n)
	}

	for labels, batch := range byLabel {
		rows := make([]map[string]any, len(batch))
		for i, n := range batch {
			rows[i] = map[string]any{"id": n.ID, "props": emptyIfNil(n.Properties)}
		}
		query := fmt.Sprintf(`UNWIND $batch AS row
		                      MERGE (n%s {uid: row.id})
		                      SET n += row.props`, labels)
		if _, err := neo4j.ExecuteQuery(ctx, c.driver, query,
			map[string]any{"batch": rows},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.database)); err != nil {
			return fmt.Errorf("merge nodes (%s) failed: %w", labels, err)
		}
	}
	c.logger.Debug("merged nodes", "count", len(nodes))
	return nil
}

// MergeEdges writes relationships idempotently, batched per type.
func (c *Client) MergeEdges(ctx context.Context, edges []EdgeRecord) error {
	byType := make(map[string][]EdgeRecord)
	for _, e := range edges {
		byType[sanitizeIdentifier(e.Type)] = append(byType[sanitizeIdentifier(e.Type)], e)
	}

	for relType, batch := range byType {
		if relType == "" {
			relType = "RELATED_TO"
		}
		rows := make([]map[string]any, len(batch))
		for i, e := range batch {
			rows[i] = map[string]any{
				"id":    e.ID,
				"start": e.Start,
				"end":   e.End,
				"props": emptyIfNil(e.Properties),
			}
		}
		query := fmt.Sprintf(`UNWIND $batch AS row
		                      MATCH (a {uid: row.start})
		                      MATCH (b {uid: row.end})
		                      MERGE (a)-[r:%s {uid: row.id}]->(b)
		                      SET r += row.props`, relType)
		if _, err := neo4j.ExecuteQuery(ctx, c.driver, query,
			map[string]any{"batch": rows},
			neo4j.EagerResultTransformer,
			neo4j.ExecuteQueryWithDatabase(c.database)); err != nil {
			return fmt.Errorf("merge edges (%s) failed: %w", relType, err)
		}
	}
	c.logger.Debug("merged edges", "count", len(edges))
	return nil
}

var identifierPattern = regexp.MustCompile(`[^A-Za-z0-9_]`)

// sanitizeIdentifier strips characters that are not legal in an
// unquoted Cypher label or relationship type.
func sanitizeIdentifier(s string) string {
	return identifierPattern.ReplaceAllString(s, "")
}

// labelExpr renders a label set as a Cypher expression, e.g.
// ":Chemical:Compound". Unlabeled nodes yield the empty expression.
func labelExpr(labels []string) string {
	var b strings.Builder
	for _, l := range labels {
		if clean := sanitizeIdentifier(l); clean != "" {
			b.WriteString(":")
			b.WriteString(clean)
		}
	}
	return b.String()
}

func emptyIfNil(props map[string]any) map[string]any {
	if props == nil {
		return map[string]any{}
	}
	return props
}

func toStringSlice(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, fmt.Sprintf("%v", item))
	}
	return out
}

func toPropertyMap(v any) map[string]any {
	props, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return props
}
