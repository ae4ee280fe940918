package handlers

import (
	"net/http"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

type SheetResponse struct {
	SourceCode string `json:"source_code"`
	LocalName  string `json:"local_name"`
	Page       int    `json:"page"`
	Sheet      int    `json:"sheet,omitempty"`
	Resolved   bool   `json:"resolved"`
}

type PageResponse struct {
	SourceCode string `json:"source_code"`
	LocalName  string `json:"local_name"`
	Sheet      string `json:"sheet"`
	Page       int    `json:"page,omitempty"`
	Resolved   bool   `json:"resolved"`
}

// HandleSheet answers GET /api/sheet?src=&book=&page=
func (h *Handler) HandleSheet(w http.ResponseWriter, r *http.Request) {
	if !h.requireGET(w, r) {
		return
	}
	src, book, ok := h.bookParams(w, r)
	if !ok {
		return
	}
	page, ok := h.intParam(w, r, "page")
	if !ok {
		return
	}

	resp := SheetResponse{SourceCode: src, LocalName: book, Page: page}
	resp.Sheet, resp.Resolved = h.engines.Load().ResolveSheet(page, src, book)
	h.writeJSON(w, resp)
}

// HandlePage answers GET /api/page?src=&book=&sheet=. Sheets that are not
// plain integers are reported unresolved rather than rejected.
func (h *Handler) HandlePage(w http.ResponseWriter, r *http.Request) {
	if !h.requireGET(w, r) {
		return
	}
	src, book, ok := h.bookParams(w, r)
	if !ok {
		return
	}
	raw := r.URL.Query().Get("sheet")
	if raw == "" {
		h.writeError(w, "sheet is required", http.StatusBadRequest)
		return
	}

	resp := PageResponse{SourceCode: src, LocalName: book, Sheet: raw}
	resp.Page, resp.Resolved = h.engines.Load().ResolvePageForSheet(models.ParseSheet(raw), src, book)
	h.writeJSON(w, resp)
}

type BookResponse struct {
	models.LocalBook
	File  string              `json:"file,omitempty"`
	Rules []models.OffsetRule `json:"rules"`
}

// HandleBook answers GET /api/book?src=&book= with the book's canonical,
// its PDF and its offset rules
func (h *Handler) HandleBook(w http.ResponseWriter, r *http.Request) {
	if !h.requireGET(w, r) {
		return
	}
	src, name, ok := h.bookParams(w, r)
	if !ok {
		return
	}

	book, file, ok := h.bookFile(w, r, src, name)
	if !ok {
		return
	}

	rules := h.engines.Load().Rules(src, name)
	if rules == nil {
		rules = []models.OffsetRule{}
	}
	h.writeJSON(w, BookResponse{LocalBook: book, File: file, Rules: rules})
}
