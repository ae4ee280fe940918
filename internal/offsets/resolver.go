// Package offsets translates between PDF page numbers and printed sheet numbers.
//
// A book's pagination can shift mid-volume, so each book carries a list of
// rules, each saying "from this sheet onward, add this offset". Rules are
// consulted newest first (descending seq), which lets a later correction
// supersede an earlier rule without deleting it.
package offsets

import "github.com/lehigh-university-libraries/fakebook/internal/models"

// SheetFromPage returns the printed sheet shown on PDF page `page`.
// rules must be in ascending seq order. ok is false when no rule applies.
func SheetFromPage(page int, rules []models.OffsetRule) (sheet int, ok bool) {
	for i := len(rules) - 1; i >= 0; i-- {
		rule := rules[i]
		if page >= rule.SheetStart+rule.SheetOffset {
			return page - rule.SheetOffset, true
		}
	}
	return 0, false
}

// PageFromSheet returns the PDF page holding printed sheet `sheet`.
// rules must be in ascending seq order. ok is false when no rule applies.
func PageFromSheet(sheet int, rules []models.OffsetRule) (page int, ok bool) {
	for i := len(rules) - 1; i >= 0; i-- {
		rule := rules[i]
		if sheet >= rule.SheetStart {
			return sheet + rule.SheetOffset, true
		}
	}
	return 0, false
}
