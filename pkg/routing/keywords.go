package routing

import (
	"github.com/crossquery/crossquery-engine/pkg/catalog"
)

// KeywordIndex is the static per-source keyword-to-weight table, built once
// from the catalog. No side effects, safe for concurrent use.
type KeywordIndex struct {
	bySource map[string][]catalog.Keyword
}

// NewKeywordIndex builds the index from the catalog.
func NewKeywordIndex(cat *catalog.Catalog) *KeywordIndex {
	idx := &KeywordIndex{bySource: make(map[string][]catalog.Keyword, cat.Len())}
	for _, src := range cat.Sources() {
		idx.bySource[src.Name] = src.Keywords
	}
	return idx
}

// Score sums the weights of the source's keywords present in the question
// and returns the matched terms. Matching is case-insensitive and
// whole-token; phrases match at token boundaries. Returns 0 when no keyword
// from the source appears.
func (idx *KeywordIndex) Score(source string, q Question) (int, []string) {
	score := 0
	var matched []string
	for _, kw := range idx.bySource[source] {
		if q.Has(kw.Term) {
			score += kw.Weight
			matched = append(matched, kw.Term)
		}
	}
	return score, matched
}
