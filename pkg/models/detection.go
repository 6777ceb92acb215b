package models

// DetectionPhase identifies which pass of the routing algorithm produced a
// match. The detector tries phases in order and stops at the first one with
// evidence, so every candidate in a result carries the same phase.
type DetectionPhase string

const (
	PhaseExplicit DetectionPhase = "explicit" // question names the source
	PhaseKeyword  DetectionPhase = "keyword"
	PhaseTable    DetectionPhase = "table"
	PhaseColumn   DetectionPhase = "column"
	PhaseNone     DetectionPhase = "none" // no evidence at all
)

// DetectionCandidate is one source's evidence for a question.
type DetectionCandidate struct {
	Source       string         `json:"source"`
	Score        int            `json:"score"`
	Phase        DetectionPhase `json:"phase"`
	MatchedTerms []string       `json:"matched_terms,omitempty"`
}

// DetectionResult is the ranked outcome of routing a question.
// Candidates are ordered by descending score and share the phase that
// produced them. Confidence is always in [0,100] and is 0 when Ambiguous.
type DetectionResult struct {
	Candidates []DetectionCandidate `json:"candidates"`
	Ambiguous  bool                 `json:"ambiguous"`
	Confidence int                  `json:"confidence"`
	Reasoning  string               `json:"reasoning"`
}

// Resolved returns the winning candidate, or false when the result is
// ambiguous or carries no evidence. Callers must not auto-route when
// ok is false.
func (r *DetectionResult) Resolved() (DetectionCandidate, bool) {
	if r.Ambiguous || len(r.Candidates) == 0 || r.Candidates[0].Score == 0 {
		return DetectionCandidate{}, false
	}
	return r.Candidates[0], true
}
