// Package graph is the narrow access port between the curation engine and the
// property-graph store. Every operation runs inside a transaction obtained from
// a Store; a Tx never outlives the callback it is handed to.
package graph

import (
	"context"
	"errors"
	"sort"
	"strings"
)

type Label string

const (
	LabelTerm      Label = "term"
	LabelConcept   Label = "concept"
	LabelPredicate Label = "predicate"
	// LabelAny matches a node of any kind. Only valid in lookups.
	LabelAny Label = ""
)

type RelType string

const (
	RelRepresents RelType = "represents"
	RelHasSubject RelType = "has_subject"
	RelHasObject  RelType = "has_object"
	// RelAny matches an edge of any type. Only valid in neighbor lookups.
	RelAny RelType = ""
)

type Direction int

const (
	Outgoing Direction = iota
	Incoming
)

type Props map[string]string

// Node is a labelled set of string properties. When a Node is used as a key only
// the identifying properties of its label are considered.
type Node struct {
	Label Label
	Props Props
}

type Neighbor struct {
	Node Node
	Rel  RelType
}

var (
	ErrUnknownLabel     = errors.New("unknown node label")
	ErrUnknownRel       = errors.New("unknown relationship type")
	ErrUnknownProperty  = errors.New("unknown property")
	ErrIncompleteKey    = errors.New("incomplete node key")
	ErrEndpointMissing  = errors.New("edge endpoint does not exist")
	ErrReadOnly         = errors.New("mutation in read transaction")
	ErrStoreUnavailable = errors.New("graph store unavailable")
)

var keyProps = map[Label][]string{
	LabelTerm:      {"value", "origin_name"},
	LabelConcept:   {"nanoid"},
	LabelPredicate: {"nanoid"},
}

var knownProps = map[string]bool{
	"value":       true,
	"origin_name": true,
	"nanoid":      true,
	"handle":      true,
}

// Tx is the set of primitives the curation engine needs from the store.
type Tx interface {
	// Exists reports whether a node matching the key exists. With LabelAny the
	// key may only carry "nanoid", which is unique across every label.
	Exists(ctx context.Context, key Node) (bool, error)
	Neighbors(ctx context.Context, key Node, rel RelType, dir Direction) ([]Neighbor, error)
	// Nodes lists every node with the label, ordered by its key properties.
	Nodes(ctx context.Context, label Label) ([]Node, error)
	UpsertNode(ctx context.Context, node Node) error
	// UpsertEdge fails with ErrEndpointMissing when either endpoint is absent.
	UpsertEdge(ctx context.Context, rel RelType, from, to Node) error
	// DetachDelete removes the node and every incident edge. Absent nodes are a no-op.
	DetachDelete(ctx context.Context, key Node) error
}

// Store hands out transactions. A callback returning an error aborts the
// transaction and nothing it wrote becomes visible.
type Store interface {
	Read(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Write(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
	Close(ctx context.Context) error
}

func KeyProps(label Label) []string { return keyProps[label] }

// Key returns the identifying subset of the node's properties.
func (n Node) Key() Node {
	names := keyProps[n.Label]
	if n.Label == LabelAny {
		names = []string{"nanoid"}
	}
	out := Node{Label: n.Label, Props: make(Props, len(names))}
	for _, name := range names {
		if v, ok := n.Props[name]; ok {
			out.Props[name] = v
		}
	}
	return out
}

func (n Node) identity() string {
	var b strings.Builder
	b.WriteString(string(n.Label))
	for _, name := range keyProps[n.Label] {
		b.WriteByte(0)
		b.WriteString(n.Props[name])
	}
	return b.String()
}

func validateLabel(label Label, allowAny bool) error {
	if label == LabelAny && allowAny {
		return nil
	}
	if _, ok := keyProps[label]; !ok {
		return ErrUnknownLabel
	}
	return nil
}

func validateRel(rel RelType, allowAny bool) error {
	switch rel {
	case RelRepresents, RelHasSubject, RelHasObject:
		return nil
	case RelAny:
		if allowAny {
			return nil
		}
	}
	return ErrUnknownRel
}

func validateProps(p Props) error {
	for name := range p {
		if !knownProps[name] {
			return ErrUnknownProperty
		}
	}
	return nil
}

// validateKey requires every identifying property of the label to be present.
func validateKey(key Node, allowAny bool) error {
	if err := validateLabel(key.Label, allowAny); err != nil {
		return err
	}
	if err := validateProps(key.Props); err != nil {
		return err
	}
	names := keyProps[key.Label]
	if key.Label == LabelAny {
		names = []string{"nanoid"}
	}
	for _, name := range names {
		if key.Props[name] == "" {
			return ErrIncompleteKey
		}
	}
	return nil
}

func sortNodes(nodes []Node) {
	sort.SliceStable(nodes, func(i, j int) bool { return nodeLess(nodes[i], nodes[j]) })
}

func sortNeighbors(ns []Neighbor) {
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].Node.Label != ns[j].Node.Label {
			return ns[i].Node.Label < ns[j].Node.Label
		}
		if ns[i].Node.identity() != ns[j].Node.identity() {
			return nodeLess(ns[i].Node, ns[j].Node)
		}
		return ns[i].Rel < ns[j].Rel
	})
}

func nodeLess(a, b Node) bool {
	for _, name := range []string{"nanoid", "value", "origin_name"} {
		if a.Props[name] != b.Props[name] {
			return a.Props[name] < b.Props[name]
		}
	}
	return false
}
