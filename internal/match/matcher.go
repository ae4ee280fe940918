// Package match implements whole-word title matching.
//
// A query wrapped in matching quotes must equal the target exactly, ignoring
// case. Any other query is split on whitespace and matches when every query
// word appears among the target's words. Targets additionally split on '.',
// '/' and ',', and the file-extension remnants "mid" and "pdf" are not words.
//
// Query.SQL renders the same decision as a SQL predicate; the two must agree
// for every input.
package match

import "strings"

const (
	whitespace       = " \t\n\r\v\f"
	targetSeparators = whitespace + "./,"
)

var ignoredTokens = map[string]struct{}{
	"mid": {},
	"pdf": {},
}

// Query is a compiled search string
type Query struct {
	exact  bool
	phrase string   // exact mode, lower-cased
	tokens []string // word mode, lower-cased and distinct
}

// Compile parses a free-text query
func Compile(query string) Query {
	q := strings.Trim(query, whitespace)

	if len(q) >= 2 && (q[0] == '\'' || q[0] == '"') && q[len(q)-1] == q[0] {
		return Query{exact: true, phrase: strings.ToLower(q[1 : len(q)-1])}
	}

	var tokens []string
	seen := make(map[string]struct{})
	for _, tok := range split(strings.ToLower(q), whitespace) {
		if _, dup := seen[tok]; dup {
			continue
		}
		seen[tok] = struct{}{}
		tokens = append(tokens, tok)
	}

	return Query{tokens: tokens}
}

// Exact reports whether the query was quoted
func (q Query) Exact() bool {
	return q.exact
}

// Tokens returns the distinct lower-cased query words (nil in exact mode)
func (q Query) Tokens() []string {
	return q.tokens
}

// Empty reports whether the query matches every target
func (q Query) Empty() bool {
	return !q.exact && len(q.tokens) == 0
}

// Match reports whether target satisfies the query
func (q Query) Match(target string) bool {
	if q.exact {
		return strings.ToLower(target) == q.phrase
	}
	if len(q.tokens) == 0 {
		return true
	}

	words := TargetTokens(target)
	for _, tok := range q.tokens {
		if _, ok := words[tok]; !ok {
			return false
		}
	}
	return true
}

// Match compiles query and tests it against target
func Match(query, target string) bool {
	return Compile(query).Match(target)
}

// TargetTokens returns the lower-cased word set of a target field
func TargetTokens(target string) map[string]struct{} {
	words := make(map[string]struct{})
	for _, tok := range split(strings.ToLower(target), targetSeparators) {
		if _, ignored := ignoredTokens[tok]; ignored {
			continue
		}
		words[tok] = struct{}{}
	}
	return words
}

func split(s, separators string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return strings.ContainsRune(separators, r)
	})
}
