// Package vocab holds the controlled-vocabulary records (terms, concepts and
// predicates), their well-formedness rules and the error taxonomy shared by
// every layer that curates the graph.
package vocab

import "fmt"

// Term is one way of naming a concept in one source vocabulary.
// Identity is the (Value, OriginName) pair.
type Term struct {
	Value      string `json:"value"`
	OriginName string `json:"origin_name"`
}

func (t Term) String() string {
	return fmt.Sprintf("%q@%s", t.Value, t.OriginName)
}

// Concept is a merge point for synonymous terms.
type Concept struct {
	NanoID string `json:"nanoid"`
}

func (c Concept) String() string { return c.NanoID }

type Handle string

const (
	HandleExactMatch Handle = "exactMatch"
	HandleCloseMatch Handle = "closeMatch"
	HandleBroader    Handle = "broader"
	HandleNarrower   Handle = "narrower"
	HandleRelated    Handle = "related"
)

// Handles is the full relation vocabulary in its canonical order.
var Handles = []Handle{
	HandleExactMatch,
	HandleCloseMatch,
	HandleBroader,
	HandleNarrower,
	HandleRelated,
}

func (h Handle) Valid() bool {
	for _, known := range Handles {
		if h == known {
			return true
		}
	}
	return false
}

// Predicate is a reified directed relation from a subject concept to an object concept.
type Predicate struct {
	Handle Handle `json:"handle"`
	NanoID string `json:"nanoid"`
}

// Role is the edge a predicate uses to point at a concept.
type Role string

const (
	RoleSubject Role = "has_subject"
	RoleObject  Role = "has_object"
)

func (r Role) Valid() bool { return r == RoleSubject || r == RoleObject }

type PredicateEdge struct {
	Predicate Predicate `json:"predicate"`
	Role      Role      `json:"role"`
}

// PredicateDetail is a predicate with the concepts it relates.
type PredicateDetail struct {
	Predicate Predicate `json:"predicate"`
	Subjects  []Concept `json:"subjects"`
	Objects   []Concept `json:"objects"`
}

// Candidate is a term proposed as a synonym of a target term, awaiting review.
type Candidate struct {
	Value      string  `json:"value"`
	OriginName string  `json:"origin_name"`
	Similarity float64 `json:"similarity"`
	Confirmed  bool    `json:"confirmed"`
}

func (c Candidate) Term() Term {
	return Term{Value: c.Value, OriginName: c.OriginName}
}
