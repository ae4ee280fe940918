package engine

import (
	"context"
	"fmt"
	"strings"

	"github.com/lehigh-university-libraries/fakebook/internal/dedup"
	"github.com/lehigh-university-libraries/fakebook/internal/match"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// NoDedup disables deduplication in a SearchRequest
const NoDedup = "none"

// CandidateSource supplies candidate rows, typically a storage.Store
type CandidateSource interface {
	Candidates(ctx context.Context, filter models.Filter) ([]models.CandidateRow, error)
	AllCandidates(ctx context.Context) ([]models.CandidateRow, error)
}

// SearchRequest describes one title search
type SearchRequest struct {
	models.Filter
	Dedup  string // canonicals, srcs, titles or none
	Limit  int    // 0 means unlimited
	Native bool   // filter in Go instead of in the store
}

// Search finds matching rows, deduplicates them and resolves each hit's page.
// Priorities come from the engine's table when it has one, so a reloaded
// configuration takes effect without re-importing.
func (e *Engine) Search(ctx context.Context, src CandidateSource, req SearchRequest) (*models.SearchResult, error) {
	mode, dedupEnabled, err := parseDedup(req.Dedup)
	if err != nil {
		return nil, err
	}

	var rows []models.CandidateRow
	if req.Native {
		all, err := src.AllCandidates(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load candidates: %w", err)
		}
		rows = filterNative(all, req.Filter)
	} else {
		rows, err = src.Candidates(ctx, req.Filter)
		if err != nil {
			return nil, fmt.Errorf("failed to query candidates: %w", err)
		}
	}

	if e.priorities != nil {
		annotated, err := e.priorities.Annotate(rows)
		switch {
		case err == nil:
			rows = annotated
		case dedupEnabled:
			return nil, err
		}
	}

	if dedupEnabled {
		rows, err = e.Dedup(mode, rows)
		if err != nil {
			return nil, err
		}
	}

	result := &models.SearchResult{
		Filter: req.Filter,
		Dedup:  NoDedup,
		Total:  len(rows),
	}
	if dedupEnabled {
		result.Dedup = mode.String()
	}

	if req.Limit > 0 && len(rows) > req.Limit {
		rows = rows[:req.Limit]
	}

	result.Hits = make([]models.Hit, 0, len(rows))
	for _, row := range rows {
		hit := models.Hit{CandidateRow: row}
		hit.Page, hit.PageResolved = e.ResolvePageForSheet(row.SheetValue(), row.SourceCode, row.LocalName)
		result.Hits = append(result.Hits, hit)
	}

	return result, nil
}

func parseDedup(name string) (dedup.Mode, bool, error) {
	if name == "" || strings.EqualFold(name, NoDedup) {
		return 0, false, nil
	}
	mode, err := dedup.ParseMode(name)
	if err != nil {
		return 0, false, err
	}
	return mode, true, nil
}

func filterNative(rows []models.CandidateRow, filter models.Filter) []models.CandidateRow {
	title := match.Compile(filter.Title)
	composer := match.Compile(filter.Composer)

	var matched []models.CandidateRow
	for _, row := range rows {
		if title.Match(row.Title) && composer.Match(row.Composer) {
			matched = append(matched, row)
		}
	}
	return matched
}
