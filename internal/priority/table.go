package priority

import (
	"errors"
	"fmt"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

var (
	// ErrDuplicateSource is returned when a source code or name is configured twice
	ErrDuplicateSource = errors.New("duplicate source")
	// ErrDuplicateCanonical is returned when a canonical book is configured twice
	ErrDuplicateCanonical = errors.New("duplicate canonical")
	// ErrUnknownSource is returned when a row names a source with no priority
	ErrUnknownSource = errors.New("unknown source")
	// ErrUnknownCanonical is returned when a row names a canonical with no priority
	ErrUnknownCanonical = errors.New("unknown canonical")
)

// Table maps sources and canonicals to their priorities. Lower wins.
// It is read-only once built.
type Table struct {
	sources    map[string]models.IndexSource // by code
	codeByName map[string]string
	canonicals map[string]models.Canonical
}

// NewTable validates and indexes the configured sources and canonicals.
// Source codes and names must map one-to-one.
func NewTable(sources []models.IndexSource, canonicals []models.Canonical) (*Table, error) {
	t := &Table{
		sources:    make(map[string]models.IndexSource, len(sources)),
		codeByName: make(map[string]string, len(sources)),
		canonicals: make(map[string]models.Canonical, len(canonicals)),
	}

	for _, src := range sources {
		if _, exists := t.sources[src.Code]; exists {
			return nil, fmt.Errorf("%w: code %q", ErrDuplicateSource, src.Code)
		}
		if _, exists := t.codeByName[src.Name]; exists {
			return nil, fmt.Errorf("%w: name %q", ErrDuplicateSource, src.Name)
		}
		t.sources[src.Code] = src
		t.codeByName[src.Name] = src.Code
	}

	for _, c := range canonicals {
		if _, exists := t.canonicals[c.Name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateCanonical, c.Name)
		}
		t.canonicals[c.Name] = c
	}

	return t, nil
}

// SourcePriority returns the priority of a source code
func (t *Table) SourcePriority(code string) (int, bool) {
	src, ok := t.sources[code]
	return src.Priority, ok
}

// CanonicalPriority returns the priority of a canonical book
func (t *Table) CanonicalPriority(name string) (int, bool) {
	c, ok := t.canonicals[name]
	return c.Priority, ok
}

// SourceName returns the full name for a source code
func (t *Table) SourceName(code string) (string, bool) {
	src, ok := t.sources[code]
	return src.Name, ok
}

// SourceCode returns the code for a source's full name
func (t *Table) SourceCode(name string) (string, bool) {
	code, ok := t.codeByName[name]
	return code, ok
}

// Canonical returns the configured canonical book
func (t *Table) Canonical(name string) (models.Canonical, bool) {
	c, ok := t.canonicals[name]
	return c, ok
}

// Sources returns the configured sources in no particular order
func (t *Table) Sources() []models.IndexSource {
	out := make([]models.IndexSource, 0, len(t.sources))
	for _, src := range t.sources {
		out = append(out, src)
	}
	return out
}

// Canonicals returns the configured canonicals in no particular order
func (t *Table) Canonicals() []models.Canonical {
	out := make([]models.Canonical, 0, len(t.canonicals))
	for _, c := range t.canonicals {
		out = append(out, c)
	}
	return out
}

// Annotate returns copies of rows with both priorities (and the canonical's
// file, when the row has none) taken from the table. A row whose source or
// canonical is not configured is an error; no default priority is assumed.
func (t *Table) Annotate(rows []models.CandidateRow) ([]models.CandidateRow, error) {
	out := make([]models.CandidateRow, len(rows))

	for i, row := range rows {
		srcPriority, ok := t.SourcePriority(row.SourceCode)
		if !ok {
			return nil, fmt.Errorf("%w: %q on row %d (%q)", ErrUnknownSource, row.SourceCode, i, row.Title)
		}
		canonical, ok := t.canonicals[row.Canonical]
		if !ok {
			return nil, fmt.Errorf("%w: %q on row %d (%q)", ErrUnknownCanonical, row.Canonical, i, row.Title)
		}

		row.SourcePriority = models.IntPtr(srcPriority)
		row.CanonicalPriority = models.IntPtr(canonical.Priority)
		if row.File == "" {
			row.File = canonical.File
		}
		out[i] = row
	}

	return out, nil
}
