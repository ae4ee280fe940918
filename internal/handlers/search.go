package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/lehigh-university-libraries/fakebook/internal/dedup"
	"github.com/lehigh-university-libraries/fakebook/internal/engine"
	"github.com/lehigh-university-libraries/fakebook/internal/models"
)

// HandleSearch answers GET /api/search?title=&composer=&dedup=&limit=&native=
func (h *Handler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	if !h.requireGET(w, r) {
		return
	}

	q := r.URL.Query()
	settings := h.settings.Load()

	req := engine.SearchRequest{
		Filter: models.Filter{
			Title:    q.Get("title"),
			Composer: q.Get("composer"),
		},
		Dedup: settings.Dedup,
		Limit: settings.Limit,
	}
	if q.Has("dedup") {
		req.Dedup = q.Get("dedup")
	}
	if q.Has("limit") {
		limit, ok := h.intParam(w, r, "limit")
		if !ok {
			return
		}
		req.Limit = limit
	}
	if q.Has("native") {
		native, err := strconv.ParseBool(q.Get("native"))
		if err != nil {
			h.writeError(w, "invalid native: "+strconv.Quote(q.Get("native")), http.StatusBadRequest)
			return
		}
		req.Native = native
	}

	result, err := h.engines.Load().Search(r.Context(), h.store, req)
	if errors.Is(err, dedup.ErrUnknownMode) {
		h.writeError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		h.writeError(w, "Search failed: "+err.Error(), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, result)
}
