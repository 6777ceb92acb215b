package models

// Intent is the closed set of canonical query intents the translator
// understands. Anything outside this set is not translated.
type Intent string

const (
	IntentCount     Intent = "count"
	IntentList      Intent = "list"
	IntentSearch    Intent = "search"
	IntentAggregate Intent = "aggregate"
	IntentRaw       Intent = "raw"
	IntentDescribe  Intent = "describe" // fallback: source's default template
)

// SearchKind narrows a search intent to the field family being searched.
type SearchKind string

const (
	SearchName  SearchKind = "name"
	SearchEmail SearchKind = "email"
	SearchTitle SearchKind = "title"
	SearchID    SearchKind = "id"
	SearchAll   SearchKind = "all"
)

// QueryIntent is the parsed shape of a question, derived from text alone
// with no source-specific schema knowledge.
type QueryIntent struct {
	Intent     Intent     `json:"intent"`
	SearchTerm string     `json:"search_term,omitempty"`
	SearchKind SearchKind `json:"search_kind,omitempty"`
	Limit      int        `json:"limit,omitempty"` // 0 means translator default
}

// SourceQueryPlan is a fully translated query for one source. Generated
// fresh per request, never persisted.
type SourceQueryPlan struct {
	Source string `json:"source"`
	SQL    string `json:"sql"`
	Params []any  `json:"params,omitempty"`
	RowCap int    `json:"row_cap"`
}
