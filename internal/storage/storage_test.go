package storage

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/lehigh-university-libraries/fakebook/internal/match"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(MemoryPath)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func seed(t *testing.T, store *Store, titles []models.TitleRow) {
	t.Helper()
	ctx := context.Background()

	err := store.SyncCatalog(ctx,
		[]models.IndexSource{
			{Code: "Skr", Name: "Skrivarna", Priority: 1},
			{Code: "Fak", Name: "Fakebook Index", Priority: 2},
		},
		[]models.Canonical{
			{Name: "Real Book Vol 1", Priority: 1, File: "realbook1.pdf"},
			{Name: "New Real Book", Priority: 2},
		},
	)
	if err != nil {
		t.Fatalf("SyncCatalog failed: %v", err)
	}

	err = store.AddBooks(ctx, []models.LocalBook{
		{SourceCode: "Skr", LocalName: "RB1", Canonical: "Real Book Vol 1"},
		{SourceCode: "Fak", LocalName: "Real Book 1", Canonical: "Real Book Vol 1"},
		{SourceCode: "Fak", LocalName: "NRB", Canonical: "New Real Book"},
	})
	if err != nil {
		t.Fatalf("AddBooks failed: %v", err)
	}

	if err := store.AddTitles(ctx, titles); err != nil {
		t.Fatalf("AddTitles failed: %v", err)
	}
}

func TestOpenFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "fake.db")
	store, err := Open(path)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.AddOffsets(ctx, []models.OffsetRule{{SourceCode: "Skr", LocalName: "RB1", SheetStart: 1, SheetOffset: 2}}); err != nil {
		t.Fatalf("AddOffsets failed: %v", err)
	}

	table, err := store.OffsetTable(ctx)
	if err != nil {
		t.Fatalf("OffsetTable failed: %v", err)
	}
	if table.Len() != 1 {
		t.Errorf("Expected 1 book in offset table, got %d", table.Len())
	}
}

func TestOffsetTableOrdersBySequence(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.AddOffsets(ctx, []models.OffsetRule{
		{SourceCode: "Skr", LocalName: "RB1", SheetStart: 1, SheetOffset: 0, Seq: 99},
		{SourceCode: "Skr", LocalName: "RB1", SheetStart: 50, SheetOffset: 4, Seq: 1},
	})
	if err != nil {
		t.Fatalf("AddOffsets failed: %v", err)
	}
	// a later import supersedes earlier rules
	err = store.AddOffsets(ctx, []models.OffsetRule{
		{SourceCode: "Skr", LocalName: "RB1", SheetStart: 10, SheetOffset: 1},
	})
	if err != nil {
		t.Fatalf("AddOffsets failed: %v", err)
	}

	table, err := store.OffsetTable(ctx)
	if err != nil {
		t.Fatalf("OffsetTable failed: %v", err)
	}

	rules := table.Rules("Skr", "RB1")
	if len(rules) != 3 {
		t.Fatalf("Expected 3 rules, got %d", len(rules))
	}
	starts := []int{rules[0].SheetStart, rules[1].SheetStart, rules[2].SheetStart}
	if starts[0] != 1 || starts[1] != 50 || starts[2] != 10 {
		t.Errorf("Expected insertion order [1 50 10], got %v", starts)
	}
	if !(rules[0].Seq < rules[1].Seq && rules[1].Seq < rules[2].Seq) {
		t.Errorf("Expected increasing seq, got %d %d %d", rules[0].Seq, rules[1].Seq, rules[2].Seq)
	}
}

func TestBooks(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, nil)
	ctx := context.Background()

	books, err := store.Books(ctx)
	if err != nil {
		t.Fatalf("Books failed: %v", err)
	}
	if len(books) != 3 || books[0].SourceCode != "Fak" || books[0].LocalName != "NRB" {
		t.Errorf("Unexpected books: %+v", books)
	}

	book, err := store.Book(ctx, "Skr", "RB1")
	if err != nil {
		t.Fatalf("Book failed: %v", err)
	}
	if book.Canonical != "Real Book Vol 1" {
		t.Errorf("Expected Real Book Vol 1, got %s", book.Canonical)
	}

	if _, err := store.Book(ctx, "Skr", "missing"); !errors.Is(err, ErrBookNotFound) {
		t.Errorf("Expected ErrBookNotFound, got %v", err)
	}

	// remapping a book replaces its canonical
	if err := store.AddBooks(ctx, []models.LocalBook{{SourceCode: "Skr", LocalName: "RB1", Canonical: "New Real Book"}}); err != nil {
		t.Fatalf("AddBooks failed: %v", err)
	}
	book, _ = store.Book(ctx, "Skr", "RB1")
	if book.Canonical != "New Real Book" {
		t.Errorf("Expected New Real Book, got %s", book.Canonical)
	}
}

func TestCanonicalFile(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, nil)
	ctx := context.Background()

	file, err := store.CanonicalFile(ctx, "Real Book Vol 1")
	if err != nil {
		t.Fatalf("CanonicalFile failed: %v", err)
	}
	if file != "realbook1.pdf" {
		t.Errorf("Expected realbook1.pdf, got %s", file)
	}

	file, err = store.CanonicalFile(ctx, "Unknown")
	if err != nil || file != "" {
		t.Errorf("Expected empty file and no error, got %q, %v", file, err)
	}
}

func TestSyncCatalogReplaces(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, []models.TitleRow{{Title: "Solar", Sheet: "1", SourceCode: "Skr", LocalName: "RB1"}})
	ctx := context.Background()

	err := store.SyncCatalog(ctx,
		[]models.IndexSource{{Code: "Skr", Name: "Skrivarna", Priority: 7}},
		[]models.Canonical{{Name: "Real Book Vol 1", Priority: 3}},
	)
	if err != nil {
		t.Fatalf("SyncCatalog failed: %v", err)
	}

	rows, err := store.AllCandidates(ctx)
	if err != nil {
		t.Fatalf("AllCandidates failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("Expected 1 row, got %d", len(rows))
	}
	if rows[0].SourcePriority == nil || *rows[0].SourcePriority != 7 {
		t.Errorf("Expected source priority 7, got %v", rows[0].SourcePriority)
	}
	if rows[0].CanonicalPriority == nil || *rows[0].CanonicalPriority != 3 {
		t.Errorf("Expected canonical priority 3, got %v", rows[0].CanonicalPriority)
	}
	if rows[0].File != "" {
		t.Errorf("Expected file cleared by sync, got %q", rows[0].File)
	}
}

func TestCandidatesJoinsPriorities(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, []models.TitleRow{
		{Title: "Autumn Leaves", Composer: "Kosma", Sheet: "32", SourceCode: "Skr", LocalName: "RB1"},
		{Title: "Autumn Leaves", Sheet: "30", SourceCode: "Fak", LocalName: "Real Book 1"},
		{Title: "Autumn Leaves", Sheet: "12A", SourceCode: "Zzz", LocalName: "Unknown"},
	})

	rows, err := store.Candidates(context.Background(), models.Filter{Title: "autumn"})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}

	// ordered by title, source code, local name
	if rows[0].SourceCode != "Fak" || rows[1].SourceCode != "Skr" || rows[2].SourceCode != "Zzz" {
		t.Errorf("Unexpected order: %s %s %s", rows[0].SourceCode, rows[1].SourceCode, rows[2].SourceCode)
	}

	skr := rows[1]
	if skr.Canonical != "Real Book Vol 1" || skr.File != "realbook1.pdf" || skr.Composer != "Kosma" {
		t.Errorf("Unexpected joined row: %+v", skr)
	}
	if skr.SourcePriority == nil || *skr.SourcePriority != 1 {
		t.Errorf("Expected source priority 1, got %v", skr.SourcePriority)
	}

	unknown := rows[2]
	if unknown.SourcePriority != nil || unknown.CanonicalPriority != nil {
		t.Errorf("Expected nil priorities for unconfigured source, got %+v", unknown)
	}
	if unknown.Sheet != "12A" {
		t.Errorf("Expected sheet 12A preserved, got %s", unknown.Sheet)
	}
}

func TestCandidatesComposerFilter(t *testing.T) {
	store := openTestStore(t)
	seed(t, store, []models.TitleRow{
		{Title: "Blue Monk", Composer: "Thelonious Monk", Sheet: "50", SourceCode: "Skr", LocalName: "RB1"},
		{Title: "Blue Bossa", Composer: "Kenny Dorham", Sheet: "48", SourceCode: "Skr", LocalName: "RB1"},
		{Title: "Blue in Green", Sheet: "49", SourceCode: "Skr", LocalName: "RB1"},
	})

	rows, err := store.Candidates(context.Background(), models.Filter{Title: "blue", Composer: "monk"})
	if err != nil {
		t.Fatalf("Candidates failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Title != "Blue Monk" {
		t.Errorf("Expected only Blue Monk, got %+v", rows)
	}
}

// The SQL rendering of a query must select exactly the rows the Go matcher
// accepts.
func TestCandidatesAgreeWithMatcher(t *testing.T) {
	corpus := []string{
		"Love Me Tender",
		"Tenderly",
		"Love Me Tender.pdf",
		"Body/Soul",
		"Body And Soul",
		"Autumn,Leaves",
		"Don't Blame Me",
		"St. Thomas",
		"st thomas",
		"Take Five",
		"take five now",
		"Manual.pdf",
		"Mid",
		"100% Blues",
		"100 Blues",
		"a_b",
		"axb",
		`c\d`,
		"un été",
		"tab\tseparated",
		"line\nbreak",
		"",
		"'Quoted'",
	}
	queries := []string{
		"", "  ", "love", "love tender", "tender love", "tender", "tender.",
		"body soul", "leaves", "autumn leaves", "dont", "don't", "pdf", "mid",
		"'take five'", `"St. Thomas"`, `"st thomas"`, "'take five", "100%", "a_b",
		`c\d`, "été", "tab", "break", "''", "'", "'quoted'", "quoted", "%", "_",
	}

	titles := make([]models.TitleRow, 0, len(corpus))
	for i, title := range corpus {
		titles = append(titles, models.TitleRow{
			Title: title, Sheet: fmt.Sprint(i + 1), SourceCode: "Skr", LocalName: "RB1",
		})
	}

	store := openTestStore(t)
	seed(t, store, titles)
	ctx := context.Background()

	for _, query := range queries {
		t.Run(query, func(t *testing.T) {
			rows, err := store.Candidates(ctx, models.Filter{Title: query})
			if err != nil {
				t.Fatalf("Candidates failed: %v", err)
			}

			got := make(map[string]bool, len(rows))
			for _, r := range rows {
				got[r.Title] = true
			}

			for _, title := range corpus {
				expected := match.Match(query, title)
				if got[title] != expected {
					t.Errorf("Query %q on %q: matcher says %v, store says %v", query, title, expected, got[title])
				}
			}
		})
	}
}

func TestTransactionRollsBack(t *testing.T) {
	store := openTestStore(t)
	ctx := context.Background()

	err := store.SyncCatalog(ctx,
		[]models.IndexSource{
			{Code: "Skr", Name: "Skrivarna", Priority: 1},
			{Code: "Fak", Name: "Skrivarna", Priority: 2},
		},
		nil,
	)
	if err == nil {
		t.Fatal("Expected unique name violation")
	}

	rows, err := store.db.QueryContext(ctx, `SELECT code FROM sources`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	defer rows.Close()
	if rows.Next() {
		t.Error("Expected no sources after rollback")
	}
}
