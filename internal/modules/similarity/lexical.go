package similarity

import (
	"context"
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// LexicalScorer compares the spelling of two values with case-insensitive
// Jaro-Winkler. It needs no network and backs SIMILARITY_MODE=lexical.
type LexicalScorer struct {
	metric *metrics.JaroWinkler
}

func NewLexicalScorer() *LexicalScorer {
	m := metrics.NewJaroWinkler()
	m.CaseSensitive = false
	return &LexicalScorer{metric: m}
}

func (s *LexicalScorer) Similarity(_ context.Context, a, b string) (float64, error) {
	a, b = strings.TrimSpace(a), strings.TrimSpace(b)
	if a == "" || b == "" {
		return 0, nil
	}
	// order the pair so the score does not depend on argument order
	if b < a {
		a, b = b, a
	}
	return strutil.Similarity(a, b, s.metric), nil
}
