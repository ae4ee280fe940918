package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"os"

	"github.com/lehigh-university-libraries/fakebook/internal/models"
	"github.com/lehigh-university-libraries/fakebook/internal/pdf"
	"github.com/lehigh-university-libraries/fakebook/internal/storage"
)

// HandleFile answers GET /api/file?src=&book= with the PDF of the book's
// canonical. Clients append #page=N from a search hit to open the tune.
func (h *Handler) HandleFile(w http.ResponseWriter, r *http.Request) {
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
	if file == "" {
		h.writeError(w, "No file for "+book.Canonical, http.StatusNotFound)
		return
	}

	path := pdf.ResolveFile(h.settings.Load().MusicDir, file)
	if _, err := os.Stat(path); err != nil {
		h.writeError(w, "File not found", http.StatusNotFound)
		return
	}

	slog.Debug("Serving file", "canonical", book.Canonical, "path", path)
	w.Header().Set("Content-Type", "application/pdf")
	http.ServeFile(w, r, path)
}

// bookFile loads a book and its canonical's file, writing the error response on failure
func (h *Handler) bookFile(w http.ResponseWriter, r *http.Request, src, name string) (models.LocalBook, string, bool) {
	book, err := h.store.Book(r.Context(), src, name)
	if errors.Is(err, storage.ErrBookNotFound) {
		h.writeError(w, "Book not found", http.StatusNotFound)
		return models.LocalBook{}, "", false
	}
	if err != nil {
		h.writeError(w, "Failed to load book: "+err.Error(), http.StatusInternalServerError)
		return models.LocalBook{}, "", false
	}

	file, err := h.store.CanonicalFile(r.Context(), book.Canonical)
	if err != nil {
		h.writeError(w, "Failed to load canonical: "+err.Error(), http.StatusInternalServerError)
		return models.LocalBook{}, "", false
	}
	return book, file, true
}
