// Package dedup collapses candidate rows describing the same song down to one
// row per grouping key, picking the row with the lowest priority.
package dedup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// ErrMissingPriority is returned when a candidate row lacks a priority
var ErrMissingPriority = errors.New("candidate row missing priority")

// ErrUnknownMode is returned by ParseMode for unrecognized names
var ErrUnknownMode = errors.New("unknown dedup mode")

// Mode selects the grouping key and the priority compared within a group
type Mode int

const (
	// UniqueCanonicals keeps the best source per (title, canonical), by source priority
	UniqueCanonicals Mode = iota
	// UniqueSources keeps the best canonical per (title, source), by canonical priority
	UniqueSources
	// UniqueTitles keeps the single best row per title, by source priority
	UniqueTitles
)

var modeNames = map[Mode]string{
	UniqueCanonicals: "canonicals",
	UniqueSources:    "srcs",
	UniqueTitles:     "titles",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// ParseMode accepts "canonicals", "srcs" or "titles", with an optional
// "unique-" prefix and in any case.
func ParseMode(s string) (Mode, error) {
	name := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "unique-")
	for mode, modeName := range modeNames {
		if name == modeName {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("%w: %q (expected canonicals, srcs or titles)", ErrUnknownMode, s)
}

type canonicalKey struct {
	Title     string
	Canonical string
}

type sourceKey struct {
	Title      string
	SourceCode string
}

type titleKey struct {
	Title string
}

// Resolve returns one row per distinct key of the mode. Within a group the row
// with the smallest relevant priority wins; ties keep the first row in input
// order. Groups appear in the order their key was first seen. rows is not modified.
func Resolve(mode Mode, rows []models.CandidateRow) ([]models.CandidateRow, error) {
	if err := checkPriorities(rows); err != nil {
		return nil, err
	}

	switch mode {
	case UniqueCanonicals:
		return pick(rows, func(r *models.CandidateRow) canonicalKey {
			return canonicalKey{Title: r.Title, Canonical: r.Canonical}
		}, sourcePriority), nil
	case UniqueSources:
		return pick(rows, func(r *models.CandidateRow) sourceKey {
			return sourceKey{Title: r.Title, SourceCode: r.SourceCode}
		}, canonicalPriority), nil
	case UniqueTitles:
		return pick(rows, func(r *models.CandidateRow) titleKey {
			return titleKey{Title: r.Title}
		}, sourcePriority), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
}

func sourcePriority(r *models.CandidateRow) int    { return *r.SourcePriority }
func canonicalPriority(r *models.CandidateRow) int { return *r.CanonicalPriority }

// checkPriorities rejects the whole input if any row lacks either priority
func checkPriorities(rows []models.CandidateRow) error {
	for i := range rows {
		r := &rows[i]
		if r.SourcePriority == nil {
			return fmt.Errorf("%w: row %d (%q from %s/%s) has no source priority",
				ErrMissingPriority, i, r.Title, r.SourceCode, r.LocalName)
		}
		if r.CanonicalPriority == nil {
			return fmt.Errorf("%w: row %d (%q from %s/%s) has no canonical priority for %q",
				ErrMissingPriority, i, r.Title, r.SourceCode, r.LocalName, r.Canonical)
		}
	}
	return nil
}

func pick[K comparable](rows []models.CandidateRow, keyOf func(*models.CandidateRow) K, priorityOf func(*models.CandidateRow) int) []models.CandidateRow {
	winners := make(map[K]int) // key -> index into out
	out := make([]models.CandidateRow, 0, len(rows))

	for i := range rows {
		row := &rows[i]
		key := keyOf(row)

		idx, seen := winners[key]
		if !seen {
			winners[key] = len(out)
			out = append(out, *row)
			continue
		}
		if priorityOf(row) < priorityOf(&out[idx]) {
			out[idx] = *row
		}
	}

	return out
}
