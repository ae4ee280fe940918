// Package engine exposes title and page resolution to the query and UI layers.
package engine

import (
	"sync/atomic"

	"github.com/lehigh-university-libraries/fakebook/internal/dedup"
	"github.com/lehigh-university-libraries/fakebook/internal/match"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/offsets"
	"github.com/lehigh-university-libraries/fakebook/internal/priority"
)

// Engine composes offset resolution, deduplication and matching over
// tables loaded at startup. It holds no other state and is safe to share.
type Engine struct {
	offsets    *offsets.Table
	priorities *priority.Table
}

// New creates an engine over the given tables. Either may be nil, in which
// case lookups that need it behave as if the table were empty.
func New(offsetTable *offsets.Table, priorityTable *priority.Table) *Engine {
	return &Engine{
		offsets:    offsetTable,
		priorities: priorityTable,
	}
}

// ResolveSheet returns the printed sheet on PDF page `page` of a source's book
func (e *Engine) ResolveSheet(page int, sourceCode, localName string) (int, bool) {
	return offsets.SheetFromPage(page, e.offsets.Rules(sourceCode, localName))
}

// ResolvePage returns the PDF page for printed sheet `sheet` of a source's book
func (e *Engine) ResolvePage(sheet int, sourceCode, localName string) (int, bool) {
	return offsets.PageFromSheet(sheet, e.offsets.Rules(sourceCode, localName))
}

// ResolvePageForSheet resolves a typed sheet; opaque sheets are never resolved
func (e *Engine) ResolvePageForSheet(sheet models.Sheet, sourceCode, localName string) (int, bool) {
	n, ok := models.SheetNumber(sheet)
	if !ok {
		return 0, false
	}
	return e.ResolvePage(n, sourceCode, localName)
}

// Dedup collapses rows to one per key of mode
func (e *Engine) Dedup(mode dedup.Mode, rows []models.CandidateRow) ([]models.CandidateRow, error) {
	return dedup.Resolve(mode, rows)
}

// Matches reports whether target satisfies the whole-word query
func (e *Engine) Matches(query, target string) bool {
	return match.Match(query, target)
}

// Rules returns the offset rules of one book
func (e *Engine) Rules(sourceCode, localName string) []models.OffsetRule {
	return e.offsets.Rules(sourceCode, localName)
}

// Offsets returns the offset table
func (e *Engine) Offsets() *offsets.Table {
	return e.offsets
}

// Priorities returns the priority table
func (e *Engine) Priorities() *priority.Table {
	return e.priorities
}

// Holder publishes the current engine to concurrent readers. A reload builds
// a complete new Engine and swaps it in; readers never see a partial update.
type Holder struct {
	current atomic.Pointer[Engine]
}

// NewHolder creates a holder serving e
func NewHolder(e *Engine) *Holder {
	h := &Holder{}
	h.current.Store(e)
	return h
}

// Load returns the current engine
func (h *Holder) Load() *Engine {
	return h.current.Load()
}

// Swap installs e and returns the engine it replaced
func (h *Holder) Swap(e *Engine) *Engine {
	return h.current.Swap(e)
}
