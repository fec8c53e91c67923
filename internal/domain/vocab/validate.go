package vocab

import "strings"

// Validate reports every missing field of the term at once.
func (t Term) Validate() error {
	var problems []FieldProblem
	if blank(t.Value) {
		problems = append(problems, FieldProblem{Field: "value", Problem: "missing"})
	}
	if blank(t.OriginName) {
		problems = append(problems, FieldProblem{Field: "origin_name", Problem: "missing"})
	}
	return invalid(KindTerm, problems)
}

func (c Concept) Validate() error {
	if blank(c.NanoID) {
		return invalid(KindConcept, []FieldProblem{{Field: "nanoid", Problem: "missing"}})
	}
	return nil
}

func (p Predicate) Validate() error {
	var problems []FieldProblem
	problems = append(problems, handleProblems(p.Handle)...)
	if blank(p.NanoID) {
		problems = append(problems, FieldProblem{Field: "nanoid", Problem: "missing"})
	}
	return invalid(KindPredicate, problems)
}

// ValidateHandle checks a relation handle before a predicate identifier exists for it.
func ValidateHandle(h Handle) error {
	return invalid(KindPredicate, handleProblems(h))
}

func handleProblems(h Handle) []FieldProblem {
	switch {
	case blank(string(h)):
		return []FieldProblem{{Field: "handle", Problem: "missing"}}
	case !h.Valid():
		return []FieldProblem{{Field: "handle", Problem: "not one of exactMatch, closeMatch, broader, narrower, related"}}
	}
	return nil
}

func invalid(kind EntityKind, problems []FieldProblem) error {
	if len(problems) == 0 {
		return nil
	}
	return &InvalidEntityError{Kind: kind, Problems: problems}
}

func blank(s string) bool { return strings.TrimSpace(s) == "" }
