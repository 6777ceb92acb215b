// Package intent parses a question into the closed set of canonical query
// intents. Parsing is deliberately shallow — keyword tests over normalized
// tokens — and needs no source-specific schema knowledge, so it can run
// before or alongside source detection.
package intent

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/crossquery/crossquery-engine/pkg/models"
)

// Parse classifies a question. First match wins over aggregate, count,
// search, then list; anything else is IntentDescribe, which the translator
// maps to the source's default template.
func Parse(question string) models.QueryIntent {
	tokens := tokenize(question)
	padded := " " + strings.Join(tokens, " ") + " "

	qi := models.QueryIntent{Intent: models.IntentDescribe}

	switch {
	case hasAny(padded, " across ", " compare ", " combined ", " every source ", " all sources ", " all databases "):
		qi.Intent = models.IntentAggregate
	case hasAny(padded, " how many ", " count ", " number of "):
		qi.Intent = models.IntentCount
	case hasAny(padded, " search ", " find ", " lookup ", " look up "):
		qi.Intent = models.IntentSearch
		qi.SearchTerm = searchTerm(question, tokens)
		qi.SearchKind = searchKind(padded)
	case hasAny(padded, " list ", " show ", " display ", " give me "):
		qi.Intent = models.IntentList
	}

	qi.Limit = limitHint(tokens)
	return qi
}

func tokenize(text string) []string {
	var b strings.Builder
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

func hasAny(padded string, phrases ...string) bool {
	for _, p := range phrases {
		if strings.Contains(padded, p) {
			return true
		}
	}
	return false
}

// searchTerm extracts the term being searched for: a quoted span when
// present, otherwise the word following "for", "named" or "called".
func searchTerm(raw string, tokens []string) string {
	for _, quote := range []string{`"`, `'`} {
		if start := strings.Index(raw, quote); start >= 0 {
			rest := raw[start+1:]
			if end := strings.Index(rest, quote); end > 0 {
				return rest[:end]
			}
		}
	}

	for i, tok := range tokens {
		switch tok {
		case "for", "named", "called":
			if i+1 < len(tokens) {
				return tokens[i+1]
			}
		}
	}
	return ""
}

func searchKind(padded string) models.SearchKind {
	switch {
	case strings.Contains(padded, " email "):
		return models.SearchEmail
	case strings.Contains(padded, " title "):
		return models.SearchTitle
	case strings.Contains(padded, " id "):
		return models.SearchID
	case hasAny(padded, " name ", " named ", " called "):
		return models.SearchName
	default:
		return models.SearchAll
	}
}

// limitHint picks up "top N" / "first N" / "limit N" phrasings.
func limitHint(tokens []string) int {
	for i, tok := range tokens {
		switch tok {
		case "top", "first", "limit":
			if i+1 < len(tokens) {
				if n, err := strconv.Atoi(tokens[i+1]); err == nil && n > 0 {
					return n
				}
			}
		}
	}
	return 0
}
