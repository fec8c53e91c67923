package graph

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
	"github.com/yungbote/mdb-curator/internal/platform/logger"
	"github.com/yungbote/mdb-curator/internal/platform/neo4jdb"
)

// Neo4jStore implements Store on a Neo4j database. Labels, relationship types and
// property names are interpolated into Cypher only after being checked against
// the fixed vocabulary in port.go; values always travel as parameters.
type Neo4jStore struct {
	client *neo4jdb.Client
	log    *logger.Logger
}

func NewNeo4jStore(ctx context.Context, client *neo4jdb.Client, log *logger.Logger) (*Neo4jStore, error) {
	if client == nil || client.Driver == nil {
		return nil, fmt.Errorf("neo4j store: %w", ErrStoreUnavailable)
	}
	s := &Neo4jStore{client: client, log: log.With("store", "Neo4jStore")}
	s.ensureSchema(ctx)
	return s, nil
}

var schemaStatements = []string{
	`CREATE CONSTRAINT term_key_unique IF NOT EXISTS FOR (t:term) REQUIRE (t.value, t.origin_name) IS UNIQUE`,
	`CREATE CONSTRAINT concept_nanoid_unique IF NOT EXISTS FOR (c:concept) REQUIRE c.nanoid IS UNIQUE`,
	`CREATE CONSTRAINT predicate_nanoid_unique IF NOT EXISTS FOR (p:predicate) REQUIRE p.nanoid IS UNIQUE`,
}

// ensureSchema is best-effort; restricted users may not be allowed to create constraints.
func (s *Neo4jStore) ensureSchema(ctx context.Context) {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)
	for _, stmt := range schemaStatements {
		res, err := session.Run(ctx, stmt, nil)
		if err != nil {
			s.log.Warn("neo4j schema init failed (continuing)", "error", err)
			continue
		}
		_, _ = res.Consume(ctx)
	}
}

func (s *Neo4jStore) Read(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	var fnErr error
	_, err := session.ExecuteRead(ctx, func(mtx neo4j.ManagedTransaction) (any, error) {
		fnErr = fn(ctx, &neo4jTx{run: mtx})
		return nil, fnErr
	})
	if fnErr != nil {
		return fnErr
	}
	if err != nil {
		return &vocab.StoreError{Op: "read", Cause: err}
	}
	return nil
}

// Write runs fn in an explicit transaction. Managed write transactions are
// avoided because the driver would replay fn on transient failures.
func (s *Neo4jStore) Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	session := s.client.Driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeWrite,
		DatabaseName: s.client.Database,
	})
	defer session.Close(ctx)

	etx, err := session.BeginTransaction(ctx)
	if err != nil {
		return &vocab.StoreError{Op: "begin", Cause: err}
	}
	if err := fn(ctx, &neo4jTx{run: etx}); err != nil {
		if rbErr := etx.Rollback(ctx); rbErr != nil {
			s.log.Warn("neo4j rollback failed", "error", rbErr)
		}
		return err
	}
	if err := etx.Commit(ctx); err != nil {
		return &vocab.StoreError{Op: "commit", Cause: err}
	}
	return nil
}

func (s *Neo4jStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

type runner interface {
	Run(ctx context.Context, cypher string, params map[string]any) (neo4j.ResultWithContext, error)
}

type neo4jTx struct {
	run runner
}

// pattern renders "(v:label {p: $v_p, ...})" for the key properties of n.
func pattern(v string, n Node, params map[string]any) string {
	key := n.Key()
	names := make([]string, 0, len(key.Props))
	for name := range key.Props {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		param := v + "_" + name
		parts = append(parts, fmt.Sprintf("%s: $%s", name, param))
		params[param] = key.Props[name]
	}
	label := ""
	if n.Label != LabelAny {
		label = ":" + string(n.Label)
	}
	return fmt.Sprintf("(%s%s {%s})", v, label, strings.Join(parts, ", "))
}

func (tx *neo4jTx) Exists(ctx context.Context, key Node) (bool, error) {
	if err := validateKey(key, true); err != nil {
		return false, &vocab.StoreError{Op: "exists", Cause: err}
	}
	params := map[string]any{}
	cypher := fmt.Sprintf("MATCH %s RETURN count(n) AS c", pattern("n", key, params))
	n, err := tx.count(ctx, "exists", cypher, params)
	return n > 0, err
}

func (tx *neo4jTx) Neighbors(ctx context.Context, key Node, rel RelType, dir Direction) ([]Neighbor, error) {
	if err := validateKey(key, false); err != nil {
		return nil, &vocab.StoreError{Op: "neighbors", Cause: err}
	}
	if err := validateRel(rel, true); err != nil {
		return nil, &vocab.StoreError{Op: "neighbors", Cause: err}
	}
	relPart := "[r]"
	if rel != RelAny {
		relPart = "[r:" + string(rel) + "]"
	}
	arrow := "-" + relPart + "->"
	if dir == Incoming {
		arrow = "<-" + relPart + "-"
	}
	params := map[string]any{}
	cypher := fmt.Sprintf("MATCH %s%s(m) RETURN labels(m) AS labels, properties(m) AS props, type(r) AS rel",
		pattern("n", key, params), arrow)

	recs, err := tx.collect(ctx, "neighbors", cypher, params)
	if err != nil {
		return nil, err
	}
	out := make([]Neighbor, 0, len(recs))
	for _, rec := range recs {
		node, ok := nodeFromRecord(rec)
		if !ok {
			continue
		}
		relName, _ := rec.Get("rel")
		out = append(out, Neighbor{Node: node, Rel: RelType(fmt.Sprint(relName))})
	}
	sortNeighbors(out)
	return out, nil
}

func (tx *neo4jTx) Nodes(ctx context.Context, label Label) ([]Node, error) {
	if err := validateLabel(label, false); err != nil {
		return nil, &vocab.StoreError{Op: "nodes", Cause: err}
	}
	cypher := fmt.Sprintf("MATCH (m:%s) RETURN labels(m) AS labels, properties(m) AS props", label)
	recs, err := tx.collect(ctx, "nodes", cypher, nil)
	if err != nil {
		return nil, err
	}
	out := make([]Node, 0, len(recs))
	for _, rec := range recs {
		if node, ok := nodeFromRecord(rec); ok {
			out = append(out, node)
		}
	}
	sortNodes(out)
	return out, nil
}

func (tx *neo4jTx) UpsertNode(ctx context.Context, node Node) error {
	if err := validateKey(node, false); err != nil {
		return &vocab.StoreError{Op: "upsert_node", Cause: err}
	}
	if err := validateProps(node.Props); err != nil {
		return &vocab.StoreError{Op: "upsert_node", Cause: err}
	}
	params := map[string]any{}
	cypher := "MERGE " + pattern("n", node, params)
	extra := map[string]any{}
	key := node.Key()
	for k, v := range node.Props {
		if _, isKey := key.Props[k]; !isKey {
			extra[k] = v
		}
	}
	if len(extra) > 0 {
		cypher += " SET n += $extra"
		params["extra"] = extra
	}
	return tx.exec(ctx, "upsert_node", cypher, params)
}

func (tx *neo4jTx) UpsertEdge(ctx context.Context, rel RelType, from, to Node) error {
	if err := validateRel(rel, false); err != nil {
		return &vocab.StoreError{Op: "upsert_edge", Cause: err}
	}
	for _, n := range []Node{from, to} {
		if err := validateKey(n, false); err != nil {
			return &vocab.StoreError{Op: "upsert_edge", Cause: err}
		}
	}
	params := map[string]any{}
	cypher := fmt.Sprintf("MATCH %s MATCH %s MERGE (a)-[r:%s]->(b) RETURN count(r) AS c",
		pattern("a", from, params), pattern("b", to, params), rel)
	n, err := tx.count(ctx, "upsert_edge", cypher, params)
	if err != nil {
		return err
	}
	if n == 0 {
		return &vocab.StoreError{Op: "upsert_edge", Cause: ErrEndpointMissing}
	}
	return nil
}

func (tx *neo4jTx) DetachDelete(ctx context.Context, key Node) error {
	if err := validateKey(key, false); err != nil {
		return &vocab.StoreError{Op: "detach_delete", Cause: err}
	}
	params := map[string]any{}
	cypher := fmt.Sprintf("MATCH %s DETACH DELETE n", pattern("n", key, params))
	return tx.exec(ctx, "detach_delete", cypher, params)
}

func (tx *neo4jTx) exec(ctx context.Context, op, cypher string, params map[string]any) error {
	res, err := tx.run.Run(ctx, cypher, params)
	if err != nil {
		return &vocab.StoreError{Op: op, Cause: err}
	}
	if _, err := res.Consume(ctx); err != nil {
		return &vocab.StoreError{Op: op, Cause: err}
	}
	return nil
}

func (tx *neo4jTx) collect(ctx context.Context, op, cypher string, params map[string]any) ([]*neo4j.Record, error) {
	res, err := tx.run.Run(ctx, cypher, params)
	if err != nil {
		return nil, &vocab.StoreError{Op: op, Cause: err}
	}
	recs, err := res.Collect(ctx)
	if err != nil {
		return nil, &vocab.StoreError{Op: op, Cause: err}
	}
	return recs, nil
}

func (tx *neo4jTx) count(ctx context.Context, op, cypher string, params map[string]any) (int64, error) {
	res, err := tx.run.Run(ctx, cypher, params)
	if err != nil {
		return 0, &vocab.StoreError{Op: op, Cause: err}
	}
	rec, err := res.Single(ctx)
	if err != nil {
		return 0, &vocab.StoreError{Op: op, Cause: err}
	}
	raw, _ := rec.Get("c")
	n, _ := raw.(int64)
	return n, nil
}

func nodeFromRecord(rec *neo4j.Record) (Node, bool) {
	rawLabels, _ := rec.Get("labels")
	rawProps, _ := rec.Get("props")
	labels, _ := rawLabels.([]any)
	var label Label
	for _, l := range labels {
		candidate := Label(fmt.Sprint(l))
		if _, known := keyProps[candidate]; known {
			label = candidate
			break
		}
	}
	if label == "" {
		return Node{}, false
	}
	props := Props{}
	if m, ok := rawProps.(map[string]any); ok {
		for k, v := range m {
			if knownProps[k] {
				props[k] = fmt.Sprint(v)
			}
		}
	}
	return Node{Label: label, Props: props}, true
}
