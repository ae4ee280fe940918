package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"sync/atomic"

	"github.com/lehigh-university-libraries/fakebook/internal/engine"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// Store is the subset of storage.Store the handlers read from
type Store interface {
	engine.CandidateSource
	Book(ctx context.Context, sourceCode, localName string) (models.LocalBook, error)
	CanonicalFile(ctx context.Context, canonical string) (string, error)
}

// Settings are the reloadable parts of the configuration the handlers use
type Settings struct {
	Dedup    string // default dedup mode
	Limit    int    // default search limit
	MusicDir string // root for relative canonical files
}

type Handler struct {
	engines  *engine.Holder
	store    Store
	settings atomic.Pointer[Settings]
}

func New(engines *engine.Holder, store Store, settings Settings) *Handler {
	h := &Handler{
		engines: engines,
		store:   store,
	}
	h.SetSettings(settings)
	return h
}

// SetSettings replaces the settings, e.g. after a config reload
func (h *Handler) SetSettings(s Settings) {
	h.settings.Store(&s)
}

// Routes registers every endpoint on mux
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("/api/sheet", h.HandleSheet)
	mux.HandleFunc("/api/page", h.HandlePage)
	mux.HandleFunc("/api/search", h.HandleSearch)
	mux.HandleFunc("/api/book", h.HandleBook)
	mux.HandleFunc("/api/file", h.HandleFile)
	mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	if code >= http.StatusInternalServerError {
		slog.Error(message)
	} else {
		slog.Debug(message, "code", code)
	}
	http.Error(w, message, code)
}

// Request helpers
func (h *Handler) requireGET(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func (h *Handler) bookParams(w http.ResponseWriter, r *http.Request) (src, book string, ok bool) {
	src = r.URL.Query().Get("src")
	book = r.URL.Query().Get("book")
	if src == "" || book == "" {
		h.writeError(w, "src and book are required", http.StatusBadRequest)
		return "", "", false
	}
	return src, book, true
}

func (h *Handler) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	v, err := strconv.Atoi(raw)
	if err != nil {
		h.writeError(w, "invalid "+name+": "+strconv.Quote(raw), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}
