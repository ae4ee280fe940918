// Package pdf reads fake-book PDFs and maps their pages to printed sheets.
package pdf

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/offsets"
)

// PageEntry is one PDF page and the printed sheet it shows
type PageEntry struct {
	Page     int  `json:"page"`
	Sheet    int  `json:"sheet,omitempty"`
	Resolved bool `json:"resolved"`
}

// PageCount returns the number of pages in the PDF at path
func PageCount(path string) (int, error) {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("failed to open PDF %s: %w", path, err)
	}
	defer f.Close()

	count, err := api.PageCount(f, conf)
	if err != nil {
		return 0, fmt.Errorf("failed to get page count for %s: %w", path, err)
	}
	return count, nil
}

// PageMap maps every page 1..count to its sheet under rules
func PageMap(count int, rules []models.OffsetRule) []PageEntry {
	if count <= 0 {
		return nil
	}

	entries := make([]PageEntry, 0, count)
	for page := 1; page <= count; page++ {
		entry := PageEntry{Page: page}
		entry.Sheet, entry.Resolved = offsets.SheetFromPage(page, rules)
		entries = append(entries, entry)
	}
	return entries
}

// ResolveFile joins a canonical's file with the music directory unless it is absolute
func ResolveFile(musicDir, file string) string {
	if file == "" || filepath.IsAbs(file) || musicDir == "" {
		return file
	}
	return filepath.Join(musicDir, file)
}
