package fanout

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crossquery/crossquery-engine/pkg/models"
)

func sampleResults() []models.PartialResult {
	return []models.PartialResult{
		{
			Source:   "school_erp",
			Success:  true,
			Rows:     []map[string]any{{"count": 120, "label": "students"}},
			RowCount: 1,
		},
		{
			Source:   "chinook",
			Success:  true,
			Rows:     []map[string]any{{"count": int64(3503)}},
			RowCount: 1,
		},
		{
			Source:  "sakila",
			Success: false,
			Error:   "timed out after 5s",
		},
	}
}

func TestCombine_Totals(t *testing.T) {
	resp := Combine(sampleResults())

	require.NotNil(t, resp.Combined)
	assert.Equal(t, float64(3623), resp.Combined.Totals["count"])
	assert.Equal(t, 2, resp.Combined.Successes)
	assert.Equal(t, 1, resp.Combined.Failures)
	assert.Equal(t, []string{"school_erp", "chinook", "sakila"}, resp.Order)

	// Failed sources stay visible with their error.
	assert.False(t, resp.PerSource["sakila"].Success)
	assert.Contains(t, resp.PerSource["sakila"].Error, "timed out")
}

func TestCombine_NonNumericIgnored(t *testing.T) {
	resp := Combine(sampleResults())
	_, ok := resp.Combined.Totals["label"]
	assert.False(t, ok)
}

func TestCombine_PermutationInvariantTotals(t *testing.T) {
	base := Combine(sampleResults())

	results := sampleResults()
	for i := 0; i < 10; i++ {
		rand.Shuffle(len(results), func(a, b int) {
			results[a], results[b] = results[b], results[a]
		})
		resp := Combine(results)
		assert.Equal(t, base.Combined.Totals, resp.Combined.Totals)
		assert.Equal(t, base.Combined.Successes, resp.Combined.Successes)
	}
}

func TestCombine_AllFailedHasNoSummary(t *testing.T) {
	resp := Combine([]models.PartialResult{
		{Source: "a", Error: "unreachable"},
		{Source: "b", Error: "timed out"},
	})
	assert.Nil(t, resp.Combined, "no summary when nothing succeeded")
	assert.Len(t, resp.PerSource, 2)
}

func TestCombine_Empty(t *testing.T) {
	resp := Combine(nil)
	assert.Nil(t, resp.Combined)
	assert.Empty(t, resp.Order)
}

func TestCombineSearch_TotalsSuccessesOnly(t *testing.T) {
	total, resp := CombineSearch([]models.PartialResult{
		{Source: "a", Success: true, RowCount: 12},
		{Source: "b", Success: true, RowCount: 8},
		{Source: "c", Success: false, RowCount: 99, Error: "unreachable"},
	})
	assert.Equal(t, 20, total)
	assert.Equal(t, []string{"a", "b", "c"}, resp.Order)
}
