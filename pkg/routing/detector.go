package routing

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/jinzhu/inflection"
	"go.uber.org/zap"

	"github.com/crossquery/crossquery-engine/pkg/catalog"
	"github.com/crossquery/crossquery-engine/pkg/models"
)

// Detector runs the phased matching algorithm that attributes a question to
// a source. It is a synchronous, pure computation over per-request data; the
// only shared state it touches is the read-mostly schema index.
type Detector struct {
	cat      *catalog.Catalog
	keywords *KeywordIndex
	schema   *SchemaIndex
	logger   *zap.Logger
}

// NewDetector wires the detector's inputs.
func NewDetector(cat *catalog.Catalog, keywords *KeywordIndex, schema *SchemaIndex, logger *zap.Logger) *Detector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Detector{
		cat:      cat,
		keywords: keywords,
		schema:   schema,
		logger:   logger.Named("detector"),
	}
}

// Detect runs detection phase by phase, short-circuiting at the first phase
// with a strict nonzero maximum. A tie at a nonzero score is ambiguous at
// that phase; a zero maximum falls through to the next phase. When no phase
// produces evidence the result asks for clarification instead of guessing.
func (d *Detector) Detect(ctx context.Context, question string) models.DetectionResult {
	q := NormalizeQuestion(question)

	if result, done := d.explicitPhase(q); done {
		return result
	}

	phases := []struct {
		phase models.DetectionPhase
		score func(src *catalog.Source) (int, []string)
	}{
		{models.PhaseKeyword, func(src *catalog.Source) (int, []string) {
			return d.keywords.Score(src.Name, q)
		}},
		{models.PhaseTable, func(src *catalog.Source) (int, []string) {
			return d.scoreTables(ctx, src.Name, q)
		}},
		{models.PhaseColumn, func(src *catalog.Source) (int, []string) {
			return d.scoreColumns(ctx, src.Name, q)
		}},
	}

	for _, p := range phases {
		candidates := d.rankPhase(p.phase, p.score)
		top := candidates[0].Score
		if top == 0 {
			continue
		}

		if len(candidates) > 1 && candidates[1].Score == top {
			tied := tiedNames(candidates, top)
			d.logger.Debug("detection ambiguous",
				zap.String("phase", string(p.phase)),
				zap.Strings("tied", tied))
			return models.DetectionResult{
				Candidates: candidates,
				Ambiguous:  true,
				Reasoning: fmt.Sprintf("question matches multiple sources equally at the %s phase: %s; name one explicitly",
					p.phase, strings.Join(tied, ", ")),
			}
		}

		runnerUp := 0
		if len(candidates) > 1 {
			runnerUp = candidates[1].Score
		}
		confidence, _ := Score(top, runnerUp, false)
		winner := candidates[0]
		d.logger.Debug("detection resolved",
			zap.String("source", winner.Source),
			zap.String("phase", string(p.phase)),
			zap.Int("score", top),
			zap.Int("confidence", confidence))
		return models.DetectionResult{
			Candidates: candidates,
			Confidence: confidence,
			Reasoning: fmt.Sprintf("matched %s terms for %s: %s",
				p.phase, winner.Source, strings.Join(winner.MatchedTerms, ", ")),
		}
	}

	return d.noEvidence()
}

// explicitPhase resolves a question that names a source (or alias) outright.
func (d *Detector) explicitPhase(q Question) (models.DetectionResult, bool) {
	var mentioned []models.DetectionCandidate
	for _, src := range d.cat.Sources() {
		names := append([]string{src.Name}, src.Aliases...)
		for _, name := range names {
			if q.Has(strings.ToLower(name)) {
				mentioned = append(mentioned, models.DetectionCandidate{
					Source:       src.Name,
					Score:        1,
					Phase:        models.PhaseExplicit,
					MatchedTerms: []string{name},
				})
				break
			}
		}
	}

	switch len(mentioned) {
	case 0:
		return models.DetectionResult{}, false
	case 1:
		confidence, _ := Score(1, 0, true)
		return models.DetectionResult{
			Candidates: mentioned,
			Confidence: confidence,
			Reasoning:  fmt.Sprintf("question names source %s", mentioned[0].Source),
		}, true
	default:
		names := make([]string, len(mentioned))
		for i, c := range mentioned {
			names[i] = c.Source
		}
		return models.DetectionResult{
			Candidates: mentioned,
			Ambiguous:  true,
			Reasoning:  fmt.Sprintf("question names multiple sources: %s", strings.Join(names, ", ")),
		}, true
	}
}

// scoreTables counts distinct table-name hits for a source. Tokens are
// matched as-is and singular/plural-normalized, so "students" hits a
// "student" table and vice versa.
func (d *Detector) scoreTables(ctx context.Context, source string, q Question) (int, []string) {
	tables := d.schema.TableNames(ctx, source)
	if len(tables) == 0 {
		return 0, nil
	}

	hit := make(map[string]struct{})
	for _, tok := range q.Tokens {
		for _, form := range []string{tok, inflection.Singular(tok), inflection.Plural(tok)} {
			if _, ok := tables[form]; ok {
				hit[form] = struct{}{}
			}
		}
	}

	matched := make([]string, 0, len(hit))
	for table := range hit {
		matched = append(matched, "table:"+table)
	}
	sort.Strings(matched)
	return len(hit), matched
}

// scoreColumns counts distinct column-name hits across the source's indexed
// tables. Besides exact names, common id/name suffixes are stripped so a
// token like "rental" hits a "rental_id" column; very short stems are
// ignored to avoid noise.
func (d *Detector) scoreColumns(ctx context.Context, source string, q Question) (int, []string) {
	columns := d.schema.ColumnNames(ctx, source)
	if len(columns) == 0 {
		return 0, nil
	}

	stems := make(map[string]string, len(columns)) // stem -> column
	for col := range columns {
		for _, suffix := range []string{"_id", "_name"} {
			if stem := strings.TrimSuffix(col, suffix); stem != col && len(stem) > 3 {
				stems[stem] = col
			}
		}
	}

	hit := make(map[string]struct{})
	for _, tok := range q.Tokens {
		for _, form := range []string{tok, inflection.Singular(tok)} {
			if _, ok := columns[form]; ok {
				hit[form] = struct{}{}
			} else if col, ok := stems[form]; ok {
				hit[col] = struct{}{}
			}
		}
	}

	matched := make([]string, 0, len(hit))
	for col := range hit {
		matched = append(matched, "column:"+col)
	}
	sort.Strings(matched)
	return len(hit), matched
}

// rankPhase scores every source in one phase and ranks the candidates by
// descending score, catalog order breaking exact ties so output is stable.
func (d *Detector) rankPhase(phase models.DetectionPhase, score func(src *catalog.Source) (int, []string)) []models.DetectionCandidate {
	candidates := make([]models.DetectionCandidate, 0, d.cat.Len())
	for _, src := range d.cat.Sources() {
		s, matched := score(src)
		candidates = append(candidates, models.DetectionCandidate{
			Source:       src.Name,
			Score:        s,
			Phase:        phase,
			MatchedTerms: matched,
		})
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
	return candidates
}

func (d *Detector) noEvidence() models.DetectionResult {
	candidates := make([]models.DetectionCandidate, 0, d.cat.Len())
	var options []string
	for _, src := range d.cat.Sources() {
		candidates = append(candidates, models.DetectionCandidate{
			Source: src.Name,
			Phase:  models.PhaseNone,
		})
		options = append(options, fmt.Sprintf("%s (%s)", src.Name, src.Description))
	}
	return models.DetectionResult{
		Candidates: candidates,
		Ambiguous:  true,
		Reasoning: fmt.Sprintf("no keyword, table, or column evidence; specify one of: %s",
			strings.Join(options, ", ")),
	}
}

func tiedNames(candidates []models.DetectionCandidate, top int) []string {
	var names []string
	for _, c := range candidates {
		if c.Score == top {
			names = append(names, c.Source)
		}
	}
	return names
}
