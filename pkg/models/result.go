package models

// PartialResult is the outcome of one source's contribution to a
// multi-source request.
type PartialResult struct {
	Source    string           `json:"source"`
	Success   bool             `json:"success"`
	Rows      []map[string]any `json:"rows,omitempty"`
	RowCount  int              `json:"row_count"`
	Error     string           `json:"error,omitempty"` // present iff !Success
	ElapsedMS int64            `json:"elapsed_ms"`
}

// CombinedSummary is the cross-source rollup computed from the successful
// contributions to a fan-out.
type CombinedSummary struct {
	Totals    map[string]float64 `json:"totals,omitempty"`
	BySource  map[string]int     `json:"by_source,omitempty"` // row counts
	Successes int                `json:"successes"`
	Failures  int                `json:"failures"`
}

// AggregatedResponse combines per-source results for a multi-source request.
// PerSource preserves catalog order via the Order slice; the summary is
// computed over successful sources only.
type AggregatedResponse struct {
	Order     []string                 `json:"order"`
	PerSource map[string]PartialResult `json:"per_source"`
	Combined  *CombinedSummary         `json:"combined,omitempty"`
}
