// Package search exposes the public book-search endpoint with its legacy
// JSON envelope. Unlike the rest of the API, every outcome is HTTP 200:
// clients only look at the success flag.
package search

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"

	"novalib/internal/catalog"
	"novalib/internal/httpx"
)

// Searcher is the slice of the catalog the endpoint needs.
type Searcher interface {
	Search(ctx context.Context, keyword string, limit int) ([]catalog.Book, error)
}

type Response struct {
	Success bool     `json:"success"`
	Message string   `json:"message,omitempty"`
	Count   int      `json:"count"`
	Data    []Result `json:"data"`
}

// Result is a catalog book plus its resolved public image URL.
type Result struct {
	catalog.Book
	ImageURL string `json:"image_url"`
}

type HTTPHandler struct {
	searcher Searcher
	maxLimit int
	// Prefix for image_url values, usually empty so URLs are root-relative.
	publicBaseURL string
}

func NewHTTPHandler(searcher Searcher, maxLimit int, publicBaseURL string) *HTTPHandler {
	return &HTTPHandler{searcher: searcher, maxLimit: maxLimit, publicBaseURL: publicBaseURL}
}

// Search handles GET /api/search?q=&limit=
func (h *HTTPHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit > h.maxLimit {
		limit = h.maxLimit
	}

	if len(query) < catalog.MinSearchQueryLen {
		writeEnvelope(w, Response{
			Success: false,
			Message: "Search query must be at least 2 characters",
			Data:    []Result{},
		})
		return
	}

	books, err := h.searcher.Search(r.Context(), query, limit)
	if err != nil {
		log.Printf("search: query failed: request_id=%s q=%q error=%v", httpx.RequestIDFrom(r), query, err)
		writeEnvelope(w, Response{
			Success: false,
			Message: "Something went wrong while searching",
			Data:    []Result{},
		})
		return
	}

	results := make([]Result, 0, len(books))
	for _, b := range books {
		results = append(results, Result{
			Book:     b,
			ImageURL: catalog.CoverURL(h.publicBaseURL, b.ImagePath),
		})
	}

	writeEnvelope(w, Response{
		Success: true,
		Count:   len(results),
		Data:    results,
	})
}

func writeEnvelope(w http.ResponseWriter, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(resp)
}
