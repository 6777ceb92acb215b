package fanout

import (
	"github.com/crossquery/crossquery-engine/pkg/models"
)

// Combine merges per-source results into an AggregatedResponse. Totals are
// sums of numeric columns across successful sources' rows; failed sources
// are listed with their error and excluded from totals so totals are never
// silently wrong. Summation is commutative, so permuting the input only
// permutes the order slice, never the totals.
func Combine(results []models.PartialResult) models.AggregatedResponse {
	resp := models.AggregatedResponse{
		Order:     make([]string, 0, len(results)),
		PerSource: make(map[string]models.PartialResult, len(results)),
	}

	summary := models.CombinedSummary{
		Totals:   make(map[string]float64),
		BySource: make(map[string]int),
	}

	for _, r := range results {
		resp.Order = append(resp.Order, r.Source)
		resp.PerSource[r.Source] = r

		if !r.Success {
			summary.Failures++
			continue
		}
		summary.Successes++
		summary.BySource[r.Source] = r.RowCount

		for _, row := range r.Rows {
			for key, value := range row {
				if n, ok := numeric(value); ok {
					summary.Totals[key] += n
				}
			}
		}
	}

	// All reachable sources failed: the response still returns, but with no
	// combined summary for the caller to mistake for real totals.
	if summary.Successes > 0 {
		resp.Combined = &summary
	}
	return resp
}

// CombineSearch merges unified-search results: per-source match lists stay
// separate (schemas differ) and the grand total is the sum of per-source
// match counts over successful sources.
func CombineSearch(results []models.PartialResult) (total int, resp models.AggregatedResponse) {
	resp = Combine(results)
	for _, r := range results {
		if r.Success {
			total += r.RowCount
		}
	}
	return total, resp
}

func numeric(value any) (float64, bool) {
	switch v := value.(type) {
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	default:
		return 0, false
	}
}
