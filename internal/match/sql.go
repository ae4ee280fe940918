package match

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidColumn is returned when a column reference is not a plain identifier
var ErrInvalidColumn = errors.New("invalid column reference")

var columnPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// sqlSeparators are the target separators as SQL expressions
var sqlSeparators = []string{
	"'.'", "'/'", "','",
	"char(9)", "char(10)", "char(11)", "char(12)", "char(13)",
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// Predicate is a parameterized SQL boolean expression
type Predicate struct {
	SQL  string
	Args []any
}

// SQL renders the query as a predicate over column, using SQLite syntax
// (|| concatenation, char(), LIKE ... ESCAPE). NULL columns behave as ''.
// The store must fold case in LOWER() the same way strings.ToLower does
// for the two renderings to agree beyond ASCII.
func (q Query) SQL(column string) (Predicate, error) {
	if !columnPattern.MatchString(column) {
		return Predicate{}, fmt.Errorf("%w: %q", ErrInvalidColumn, column)
	}

	value := "COALESCE(" + column + ", '')"

	if q.exact {
		return Predicate{
			SQL:  "LOWER(" + value + ") = ?",
			Args: []any{q.phrase},
		}, nil
	}

	if len(q.tokens) == 0 {
		return Predicate{SQL: "1"}, nil
	}

	normalized := value
	for _, sep := range sqlSeparators {
		normalized = "REPLACE(" + normalized + ", " + sep + ", ' ')"
	}
	padded := "(' ' || LOWER(" + normalized + ") || ' ')"

	clauses := make([]string, 0, len(q.tokens))
	var args []any
	for _, tok := range q.tokens {
		if _, ignored := ignoredTokens[tok]; ignored {
			clauses = append(clauses, "0")
			continue
		}
		clauses = append(clauses, padded+` LIKE ? ESCAPE '\'`)
		args = append(args, "% "+likeEscaper.Replace(tok)+" %")
	}

	return Predicate{
		SQL:  "(" + strings.Join(clauses, " AND ") + ")",
		Args: args,
	}, nil
}

// And joins predicates; an empty list renders as always true
func And(preds ...Predicate) Predicate {
	if len(preds) == 0 {
		return Predicate{SQL: "1"}
	}

	parts := make([]string, 0, len(preds))
	var args []any
	for _, p := range preds {
		parts = append(parts, "("+p.SQL+")")
		args = append(args, p.Args...)
	}
	return Predicate{SQL: strings.Join(parts, " AND "), Args: args}
}
