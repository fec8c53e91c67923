package graph

import (
	"context"
	"sync"

	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

// MemStore is an in-process Store. Write transactions run one at a time against
// a private copy of the graph that replaces the shared state only on success,
// which gives serializable isolation.
type MemStore struct {
	mu    sync.RWMutex
	state *memState
	// failOn, when set, is consulted before every primitive and may inject a failure.
	failOn func(op string) error
}

type edgeKey struct {
	Rel      RelType
	From, To string
}

type memState struct {
	nodes map[string]Node
	edges map[edgeKey]struct{}
}

func NewMemStore() *MemStore {
	return &MemStore{state: &memState{
		nodes: map[string]Node{},
		edges: map[edgeKey]struct{}{},
	}}
}

// FailOn installs a fault injector used to exercise rollback paths.
func (s *MemStore) FailOn(fn func(op string) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn = fn
}

func (s *MemStore) Read(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return fn(ctx, &memTx{state: s.state, readOnly: true, failOn: s.failOn})
}

func (s *MemStore) Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return &vocab.StoreError{Op: "begin", Cause: err}
	}
	work := s.state.clone()
	if err := fn(ctx, &memTx{state: work, failOn: s.failOn}); err != nil {
		return err
	}
	s.state = work
	return nil
}

func (s *MemStore) Close(context.Context) error { return nil }

// Counts reports the number of nodes and edges currently committed.
func (s *MemStore) Counts() (nodes, edges int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.state.nodes), len(s.state.edges)
}

func (st *memState) clone() *memState {
	out := &memState{
		nodes: make(map[string]Node, len(st.nodes)),
		edges: make(map[edgeKey]struct{}, len(st.edges)),
	}
	for id, n := range st.nodes {
		props := make(Props, len(n.Props))
		for k, v := range n.Props {
			props[k] = v
		}
		out.nodes[id] = Node{Label: n.Label, Props: props}
	}
	for e := range st.edges {
		out.edges[e] = struct{}{}
	}
	return out
}

type memTx struct {
	state    *memState
	readOnly bool
	failOn   func(op string) error
}

func (tx *memTx) check(op string, mutating bool) error {
	if mutating && tx.readOnly {
		return &vocab.StoreError{Op: op, Cause: ErrReadOnly}
	}
	if tx.failOn != nil {
		if err := tx.failOn(op); err != nil {
			return &vocab.StoreError{Op: op, Cause: err}
		}
	}
	return nil
}

func (tx *memTx) Exists(_ context.Context, key Node) (bool, error) {
	if err := tx.check("exists", false); err != nil {
		return false, err
	}
	if err := validateKey(key, true); err != nil {
		return false, &vocab.StoreError{Op: "exists", Cause: err}
	}
	if key.Label == LabelAny {
		for _, n := range tx.state.nodes {
			if n.Props["nanoid"] == key.Props["nanoid"] {
				return true, nil
			}
		}
		return false, nil
	}
	_, ok := tx.state.nodes[key.identity()]
	return ok, nil
}

func (tx *memTx) Neighbors(_ context.Context, key Node, rel RelType, dir Direction) ([]Neighbor, error) {
	if err := tx.check("neighbors", false); err != nil {
		return nil, err
	}
	if err := validateKey(key, false); err != nil {
		return nil, &vocab.StoreError{Op: "neighbors", Cause: err}
	}
	if err := validateRel(rel, true); err != nil {
		return nil, &vocab.StoreError{Op: "neighbors", Cause: err}
	}
	id := key.identity()
	var out []Neighbor
	for e := range tx.state.edges {
		if rel != RelAny && e.Rel != rel {
			continue
		}
		other := ""
		switch {
		case dir == Outgoing && e.From == id:
			other = e.To
		case dir == Incoming && e.To == id:
			other = e.From
		default:
			continue
		}
		out = append(out, Neighbor{Node: tx.state.nodes[other], Rel: e.Rel})
	}
	sortNeighbors(out)
	return out, nil
}

func (tx *memTx) Nodes(_ context.Context, label Label) ([]Node, error) {
	if err := tx.check("nodes", false); err != nil {
		return nil, err
	}
	if err := validateLabel(label, false); err != nil {
		return nil, &vocab.StoreError{Op: "nodes", Cause: err}
	}
	var out []Node
	for _, n := range tx.state.nodes {
		if n.Label == label {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out, nil
}

func (tx *memTx) UpsertNode(_ context.Context, node Node) error {
	if err := tx.check("upsert_node", true); err != nil {
		return err
	}
	if err := validateKey(node, false); err != nil {
		return &vocab.StoreError{Op: "upsert_node", Cause: err}
	}
	id := node.identity()
	existing, ok := tx.state.nodes[id]
	if !ok {
		existing = Node{Label: node.Label, Props: Props{}}
	}
	for k, v := range node.Props {
		existing.Props[k] = v
	}
	tx.state.nodes[id] = existing
	return nil
}

func (tx *memTx) UpsertEdge(_ context.Context, rel RelType, from, to Node) error {
	if err := tx.check("upsert_edge", true); err != nil {
		return err
	}
	if err := validateRel(rel, false); err != nil {
		return &vocab.StoreError{Op: "upsert_edge", Cause: err}
	}
	for _, n := range []Node{from, to} {
		if err := validateKey(n, false); err != nil {
			return &vocab.StoreError{Op: "upsert_edge", Cause: err}
		}
		if _, ok := tx.state.nodes[n.identity()]; !ok {
			return &vocab.StoreError{Op: "upsert_edge", Cause: ErrEndpointMissing}
		}
	}
	tx.state.edges[edgeKey{Rel: rel, From: from.identity(), To: to.identity()}] = struct{}{}
	return nil
}

func (tx *memTx) DetachDelete(_ context.Context, key Node) error {
	if err := tx.check("detach_delete", true); err != nil {
		return err
	}
	if err := validateKey(key, false); err != nil {
		return &vocab.StoreError{Op: "detach_delete", Cause: err}
	}
	id := key.identity()
	delete(tx.state.nodes, id)
	for e := range tx.state.edges {
		if e.From == id || e.To == id {
			delete(tx.state.edges, e)
		}
	}
	return nil
}
