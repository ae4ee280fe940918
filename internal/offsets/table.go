package offsets

import (
	"sort"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// Key identifies one source's edition of a book
type Key struct {
	SourceCode string
	LocalName  string
}

// Table holds the offset rules of every book. It is read-only once built;
// reloads build a new Table instead of editing this one.
type Table struct {
	rules map[Key][]models.OffsetRule
}

// NewTable groups rules by book and orders each group by ascending seq.
// The input slice is not modified.
func NewTable(rules []models.OffsetRule) *Table {
	t := &Table{rules: make(map[Key][]models.OffsetRule)}

	for _, rule := range rules {
		key := Key{SourceCode: rule.SourceCode, LocalName: rule.LocalName}
		t.rules[key] = append(t.rules[key], rule)
	}

	for key, group := range t.rules {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].Seq < group[j].Seq
		})
		t.rules[key] = group
	}

	return t
}

// Rules returns the rules for one book in ascending seq order, or nil when
// the book has none. Callers must not modify the returned slice.
func (t *Table) Rules(sourceCode, localName string) []models.OffsetRule {
	if t == nil {
		return nil
	}
	return t.rules[Key{SourceCode: sourceCode, LocalName: localName}]
}

// Books lists every book with at least one rule, sorted by source then name
func (t *Table) Books() []Key {
	if t == nil {
		return nil
	}

	keys := make([]Key, 0, len(t.rules))
	for key := range t.rules {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].SourceCode != keys[j].SourceCode {
			return keys[i].SourceCode < keys[j].SourceCode
		}
		return keys[i].LocalName < keys[j].LocalName
	})
	return keys
}

// Len returns the total number of rules
func (t *Table) Len() int {
	if t == nil {
		return 0
	}

	n := 0
	for _, group := range t.rules {
		n += len(group)
	}
	return n
}
