// Package translate maps a recognized intent and a detected source to SQL.
// It is a per-(intent, source) template lookup, not an NL-to-SQL compiler:
// templates come from the source catalog, free-text search terms are bound
// as query parameters, and unsupported pairs fail explicitly before any I/O.
package translate

import (
	"fmt"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/models"
	sqlpolicy "github.com/crossquery/crossquery-engine/pkg/sql"
)

// Translator resolves intents against the catalog's per-source templates.
type Translator struct {
	cat    *catalog.Catalog
	rowCap int
}

// NewTranslator builds a translator with the default row cap applied to
// every plan that does not carry its own limit.
func NewTranslator(cat *catalog.Catalog, rowCap int) *Translator {
	return &Translator{cat: cat, rowCap: rowCap}
}

// Translate produces a query plan for one source. The returned plan is
// request-scoped and never persisted.
func (t *Translator) Translate(qi models.QueryIntent, sourceName string) (models.SourceQueryPlan, error) {
	src, err := t.cat.Get(sourceName)
	if err != nil {
		return models.SourceQueryPlan{}, err
	}

	switch qi.Intent {
	case models.IntentSearch:
		return t.translateSearch(qi, src)
	case models.IntentRaw:
		// Raw SQL bypasses translation entirely; it has its own entry point.
		return models.SourceQueryPlan{}, fmt.Errorf("%w: raw SQL is not translated (intent %q, source %q)",
			apperrors.ErrUnsupportedIntent, qi.Intent, src.Name)
	default:
		return t.translateTemplate(qi, src)
	}
}

func (t *Translator) translateTemplate(qi models.QueryIntent, src *catalog.Source) (models.SourceQueryPlan, error) {
	template, ok := src.Queries[string(qi.Intent)]
	if !ok {
		return models.SourceQueryPlan{}, fmt.Errorf("%w: no template for intent %q on source %q",
			apperrors.ErrUnsupportedIntent, qi.Intent, src.Name)
	}

	return models.SourceQueryPlan{
		Source: src.Name,
		SQL:    template,
		RowCap: t.cap(qi),
	}, nil
}

func (t *Translator) translateSearch(qi models.QueryIntent, src *catalog.Source) (models.SourceQueryPlan, error) {
	kind := qi.SearchKind
	if kind == "" {
		kind = models.SearchAll
	}

	template, ok := src.Search[string(kind)]
	if !ok {
		return models.SourceQueryPlan{}, fmt.Errorf("%w: no %q search template on source %q",
			apperrors.ErrUnsupportedIntent, kind, src.Name)
	}

	if qi.SearchTerm == "" {
		return models.SourceQueryPlan{}, fmt.Errorf("search intent without a search term")
	}
	if check := sqlpolicy.CheckParameterForInjection("search_term", qi.SearchTerm); check != nil {
		return models.SourceQueryPlan{}, fmt.Errorf("search term rejected: injection pattern detected (fingerprint %s)",
			check.Fingerprint)
	}

	// The term is the single bound parameter; templates reference it as $1
	// (postgres) or @p1 (sqlserver).
	return models.SourceQueryPlan{
		Source: src.Name,
		SQL:    template,
		Params: []any{qi.SearchTerm},
		RowCap: t.cap(qi),
	}, nil
}

func (t *Translator) cap(qi models.QueryIntent) int {
	if qi.Limit > 0 && qi.Limit <= t.rowCap {
		return qi.Limit
	}
	return t.rowCap
}
