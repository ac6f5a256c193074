// Package httpx provides HTTP handlers and utilities for the agency API.
package httpx

import (
	"net/http"
	"strconv"

	"github.com/atlastours/agency-api/internal/service"
)

// dataSourceHeader tells clients which tier served a catalog read. Degraded
// responses are still 200s; the header is the only visible difference.
const dataSourceHeader = "X-Data-Source"

// CatalogHandlers provides HTTP handlers for public catalog reads.
type CatalogHandlers struct {
	Svc *service.CatalogService
}

// ListCollections handles HTTP requests to list the available collections.
func (h *CatalogHandlers) ListCollections(w http.ResponseWriter, _ *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]any{
		"collections": h.Svc.Collections(),
	})
}

// GetCollection handles HTTP requests to fetch a catalog collection.
// GET /api/catalog/{collection}?refresh=true forces a live read.
func (h *CatalogHandlers) GetCollection(w http.ResponseWriter, r *http.Request) {
	name := r.PathValue("collection")

	forceRefresh := false
	if v := r.URL.Query().Get("refresh"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			forceRefresh = b
		}
	}

	result, err := h.Svc.FetchCollection(r.Context(), name, forceRefresh)
	if err != nil {
		WriteServiceError(w, err)
		return
	}

	w.Header().Set(dataSourceHeader, string(result.Source))
	WriteJSON(w, http.StatusOK, result)
}
