package routing

// Score turns the top two raw scores into a confidence percentage and an
// ambiguity verdict.
//
// Rules:
//   - explicit mention of the source ⇒ confidence 100, never ambiguous
//   - top score zero (no evidence) ⇒ ambiguous, confidence 0
//   - top tied with runner-up ⇒ ambiguous, confidence 0
//   - otherwise confidence = 100*top/(top+runnerUp+1); with no runner-up the
//     value lands in [50,99] so a single weak match never reports certainty
//
// Strictly more distinguishing evidence yields strictly higher confidence.
func Score(topScore, runnerUpScore int, explicitMention bool) (confidence int, ambiguous bool) {
	if explicitMention {
		return 100, false
	}
	if topScore == 0 || topScore == runnerUpScore {
		return 0, true
	}

	confidence = 100 * topScore / (topScore + runnerUpScore + 1)
	if runnerUpScore == 0 {
		if confidence < 50 {
			confidence = 50
		}
		if confidence > 99 {
			confidence = 99
		}
	}
	return confidence, false
}
