// Package routing decides which catalog source a natural-language question
// concerns. Detection runs in phases of decreasing precedence — explicit
// mention, keyword, table name, column name — and never guesses: when the
// evidence ties or is absent the result is an explicit clarification request.
package routing

import (
	"strings"
	"unicode"
)

// Question is the normalized form of an incoming question: lower-cased,
// punctuation stripped, split into whole tokens. Keyword and schema matching
// operate on whole tokens so "class" never matches inside "classroom".
type Question struct {
	Raw    string
	Tokens []string
	// padded is " tok1 tok2 ... " for boundary-safe phrase matching.
	padded   string
	tokenSet map[string]struct{}
}

// NormalizeQuestion tokenizes a question for matching.
func NormalizeQuestion(text string) Question {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	tokens := strings.Fields(b.String())
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}

	return Question{
		Raw:      text,
		Tokens:   tokens,
		padded:   " " + strings.Join(tokens, " ") + " ",
		tokenSet: set,
	}
}

// HasToken reports whether the question contains term as a whole token.
func (q Question) HasToken(term string) bool {
	_, ok := q.tokenSet[term]
	return ok
}

// HasPhrase reports whether the question contains the multi-word phrase at
// token boundaries.
func (q Question) HasPhrase(phrase string) bool {
	return strings.Contains(q.padded, " "+phrase+" ")
}

// Has matches a term of either shape.
func (q Question) Has(term string) bool {
	if strings.Contains(term, " ") {
		return q.HasPhrase(term)
	}
	return q.HasToken(term)
}
