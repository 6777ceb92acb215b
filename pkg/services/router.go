// Package services holds the operation surface of the engine: the routing,
// fan-out, and administrative operations the MCP tools expose. Services
// compose the routing core with the per-source adapters; they own no
// transport concerns.
package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/adapters/datasource"
	"github.com/crossquery/crossquery-engine/pkg/apperrors"
	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/config"
	"github.com/crossquery/crossquery-engine/pkg/fanout"
	"github.com/crossquery/crossquery-engine/pkg/intent"
	"github.com/crossquery/crossquery-engine/pkg/models"
	"github.com/crossquery/crossquery-engine/pkg/routing"
	"github.com/crossquery/crossquery-engine/pkg/translate"
)

// RouterService routes natural-language questions to sources and executes
// the resulting query plans. Safe for concurrent use.
type RouterService struct {
	cat         *catalog.Catalog
	detector    *routing.Detector
	keywords    *routing.KeywordIndex
	schema      *routing.SchemaIndex
	translator  *translate.Translator
	coordinator *fanout.Coordinator
	adapters    map[string]datasource.Adapter

	threshold int
	maxTables int
	logger    *zap.Logger
}

// NewRouterService wires the service over an already-built routing core.
// The adapters map is keyed by canonical source name and must cover every
// catalog source that should be executable; sources without an adapter
// surface as unreachable at execution time, not at startup.
func NewRouterService(
	cat *catalog.Catalog,
	detector *routing.Detector,
	keywords *routing.KeywordIndex,
	schema *routing.SchemaIndex,
	translator *translate.Translator,
	coordinator *fanout.Coordinator,
	adapters map[string]datasource.Adapter,
	cfg *config.Config,
	logger *zap.Logger,
) *RouterService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RouterService{
		cat:         cat,
		detector:    detector,
		keywords:    keywords,
		schema:      schema,
		translator:  translator,
		coordinator: coordinator,
		adapters:    adapters,
		threshold:   cfg.Router.ConfidenceThreshold,
		maxTables:   cfg.Fanout.MaxTablesPerSource,
		logger:      logger.Named("router-service"),
	}
}

// SourceInfo is the public identity of a source, safe to return to clients.
type SourceInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Dialect     string `json:"dialect"`
}

// RouteResult is the outcome of routing one question. When Ambiguous is set
// the question was not executed; Sources lists what the caller can name to
// disambiguate.
type RouteResult struct {
	Question   string                      `json:"question"`
	Ambiguous  bool                        `json:"ambiguous"`
	Source     string                      `json:"source,omitempty"`
	Confidence int                         `json:"confidence"`
	Reasoning  string                      `json:"reasoning"`
	Candidates []models.DetectionCandidate `json:"candidates,omitempty"`
	SQL        string                      `json:"sql,omitempty"`
	Result     *models.PartialResult       `json:"result,omitempty"`
	Sources    []SourceInfo                `json:"sources,omitempty"`
}

// RouteQuery detects the best source for a question and executes the
// translated query against it. An ambiguous or low-confidence detection
// returns a clarification payload instead of guessing; that is not an error.
func (s *RouterService) RouteQuery(ctx context.Context, question string) (*RouteResult, error) {
	det := s.detector.Detect(ctx, question)

	winner, ok := det.Resolved()
	if !ok {
		return s.clarify(question, det, det.Reasoning), nil
	}
	if det.Confidence < s.threshold {
		reason := fmt.Sprintf("%s; confidence %d is below the %d threshold",
			det.Reasoning, det.Confidence, s.threshold)
		return s.clarify(question, det, reason), nil
	}

	plan, err := s.planFor(intent.Parse(question), winner.Source)
	if err != nil {
		return nil, err
	}

	results := s.coordinator.FanOut(ctx, []models.SourceQueryPlan{plan})
	res := results[0]

	s.logger.Info("question routed",
		zap.String("source", winner.Source),
		zap.Int("confidence", det.Confidence),
		zap.Bool("success", res.Success))

	return &RouteResult{
		Question:   question,
		Source:     winner.Source,
		Confidence: det.Confidence,
		Reasoning:  det.Reasoning,
		Candidates: det.Candidates,
		SQL:        plan.SQL,
		Result:     &res,
	}, nil
}

// CrossResult is the outcome of a cross-source fan-out.
type CrossResult struct {
	Description string                    `json:"description"`
	Sources     []string                  `json:"sources"`
	Response    models.AggregatedResponse `json:"response"`
}

// CrossSourceQuery fans one described query out across several sources. When
// the caller names sources they are validated before any execution starts;
// otherwise relevant sources are inferred from the description. A source
// whose intent cannot be translated degrades to a failure entry without any
// I/O against it.
func (s *RouterService) CrossSourceQuery(ctx context.Context, description string, requested []string) (*CrossResult, error) {
	targets, err := s.resolveTargets(description, requested)
	if err != nil {
		return nil, err
	}

	qi := intent.Parse(description)

	results := make([]models.PartialResult, len(targets))
	plans := make([]models.SourceQueryPlan, 0, len(targets))
	planIdx := make([]int, 0, len(targets))
	for i, name := range targets {
		plan, err := s.planFor(qi, name)
		if err != nil {
			results[i] = models.PartialResult{Source: name, Error: err.Error()}
			continue
		}
		plans = append(plans, plan)
		planIdx = append(planIdx, i)
	}

	for j, res := range s.coordinator.FanOut(ctx, plans) {
		results[planIdx[j]] = res
	}

	return &CrossResult{
		Description: description,
		Sources:     targets,
		Response:    fanout.Combine(results),
	}, nil
}

// clarify builds the do-not-guess response for ambiguous detections.
func (s *RouterService) clarify(question string, det models.DetectionResult, reason string) *RouteResult {
	return &RouteResult{
		Question:   question,
		Ambiguous:  true,
		Reasoning:  reason,
		Candidates: det.Candidates,
		Sources:    s.ListSources(),
	}
}

// planFor translates an intent for one source, falling back to the source's
// default template when the specific intent has no template there.
func (s *RouterService) planFor(qi models.QueryIntent, source string) (models.SourceQueryPlan, error) {
	plan, err := s.translator.Translate(qi, source)
	if err == nil {
		return plan, nil
	}
	if errors.Is(err, apperrors.ErrUnsupportedIntent) && qi.Intent != models.IntentDescribe {
		fallback := qi
		fallback.Intent = models.IntentDescribe
		fallback.SearchTerm = ""
		fallback.SearchKind = ""
		if plan, fbErr := s.translator.Translate(fallback, source); fbErr == nil {
			return plan, nil
		}
	}
	return models.SourceQueryPlan{}, err
}

// resolveTargets picks the sources a cross-source request runs against, in
// catalog order. Explicitly named sources are validated up front; a single
// unknown name fails the whole request before anything executes.
func (s *RouterService) resolveTargets(description string, requested []string) ([]string, error) {
	if len(requested) > 0 {
		want := make(map[string]struct{}, len(requested))
		for _, name := range requested {
			src, err := s.cat.Get(name)
			if err != nil {
				return nil, err
			}
			want[src.Name] = struct{}{}
		}
		targets := make([]string, 0, len(want))
		for _, name := range s.cat.Names() {
			if _, ok := want[name]; ok {
				targets = append(targets, name)
			}
		}
		return targets, nil
	}
	return s.relevantSources(description), nil
}

// relevantSources infers fan-out targets from the description: wording that
// spans sources selects all of them, otherwise keyword evidence narrows the
// set, and with no evidence at all every source participates.
func (s *RouterService) relevantSources(description string) []string {
	q := routing.NormalizeQuestion(description)

	for _, tok := range []string{"all", "compare", "across", "every", "total", "combined"} {
		if q.HasToken(tok) {
			return s.cat.Names()
		}
	}

	var matched []string
	for _, name := range s.cat.Names() {
		if score, _ := s.keywords.Score(name, q); score > 0 {
			matched = append(matched, name)
		}
	}
	if len(matched) > 0 {
		return matched
	}
	return s.cat.Names()
}
