package services

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/apperrors"
	"github.com/crossquery/crossquery-engine/pkg/fanout"
	"github.com/crossquery/crossquery-engine/pkg/models"
)

// SearchResult is the outcome of a unified search. TotalMatches counts only
// successful sources; a source that failed or timed out appears in the
// response with its error and contributes nothing to the total.
type SearchResult struct {
	Term         string                    `json:"term"`
	Kind         models.SearchKind         `json:"kind"`
	TotalMatches int                       `json:"total_matches"`
	Response     models.AggregatedResponse `json:"response"`
}

// UnifiedSearch runs one search term against every source that has a search
// template for the requested kind. Sources without such a template simply do
// not participate; they are skipped before any I/O.
func (s *RouterService) UnifiedSearch(ctx context.Context, term string, kind models.SearchKind) (*SearchResult, error) {
	if term == "" {
		return nil, errors.New("search term is required")
	}
	if kind == "" {
		kind = models.SearchAll
	}

	qi := models.QueryIntent{
		Intent:     models.IntentSearch,
		SearchTerm: term,
		SearchKind: kind,
	}

	var plans []models.SourceQueryPlan
	for _, name := range s.cat.Names() {
		plan, err := s.translator.Translate(qi, name)
		if err != nil {
			if errors.Is(err, apperrors.ErrUnsupportedIntent) {
				s.logger.Debug("source has no search template for kind; skipping",
					zap.String("source", name),
					zap.String("kind", string(kind)))
				continue
			}
			// Term-level rejections (empty, injection pattern) apply to every
			// source equally, so fail the whole search.
			return nil, err
		}
		plans = append(plans, plan)
	}

	results := s.coordinator.FanOut(ctx, plans)
	total, resp := fanout.CombineSearch(results)

	s.logger.Info("unified search finished",
		zap.String("kind", string(kind)),
		zap.Int("sources", len(plans)),
		zap.Int("total_matches", total))

	return &SearchResult{
		Term:         term,
		Kind:         kind,
		TotalMatches: total,
		Response:     resp,
	}, nil
}
