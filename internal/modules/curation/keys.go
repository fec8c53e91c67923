package curation

import (
	"github.com/yungbote/mdb-curator/internal/data/graph"
	"github.com/yungbote/mdb-curator/internal/domain/vocab"
)

func termNode(t vocab.Term) graph.Node {
	return graph.Node{Label: graph.LabelTerm, Props: graph.Props{"value": t.Value, "origin_name": t.OriginName}}
}

func conceptNode(c vocab.Concept) graph.Node {
	return graph.Node{Label: graph.LabelConcept, Props: graph.Props{"nanoid": c.NanoID}}
}

func predicateNode(p vocab.Predicate) graph.Node {
	return graph.Node{Label: graph.LabelPredicate, Props: graph.Props{"nanoid": p.NanoID, "handle": string(p.Handle)}}
}

func termFromNode(n graph.Node) vocab.Term {
	return vocab.Term{Value: n.Props["value"], OriginName: n.Props["origin_name"]}
}

func conceptFromNode(n graph.Node) vocab.Concept {
	return vocab.Concept{NanoID: n.Props["nanoid"]}
}

func predicateFromNode(n graph.Node) vocab.Predicate {
	return vocab.Predicate{Handle: vocab.Handle(n.Props["handle"]), NanoID: n.Props["nanoid"]}
}
