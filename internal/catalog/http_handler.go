package catalog

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"novalib/internal/httpx"
)

type HTTPHandler struct {
	service *Service
	covers  *CoverStore
}

func NewHTTPHandler(service *Service, covers *CoverStore) *HTTPHandler {
	return &HTTPHandler{service: service, covers: covers}
}

// List handles GET /api/books
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListBooks(r.Context())
	if err != nil {
		internalError(w, r, "list books", err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]any{"count": len(books)})
}

// Get handles GET /api/books/{id}
func (h *HTTPHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		internalError(w, r, "get book", err)
		return
	}
	httpx.JSONSuccess(w, book, nil)
}

// Create handles POST /api/books
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(in); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book payload", details)
		return
	}

	id, err := h.service.CreateBook(r.Context(), in)
	if err != nil {
		internalError(w, r, "create book", err)
		return
	}
	httpx.JSONSuccessCreated(w, map[string]any{"book_id": id})
}

// Update handles PUT /api/books/{id}
func (h *HTTPHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	var in BookInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(in); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book payload", details)
		return
	}

	if err := h.service.UpdateBook(r.Context(), id, in); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		internalError(w, r, "update book", err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// Delete handles DELETE /api/books/{id}
func (h *HTTPHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteBook(r.Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		internalError(w, r, "delete book", err)
		return
	}
	httpx.JSONSuccessNoContent(w)
}

// ListAvailable handles GET /api/books/available
func (h *HTTPHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	books, err := h.service.ListAvailable(r.Context())
	if err != nil {
		internalError(w, r, "list available books", err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]any{"count": len(books)})
}

// ListPopular handles GET /api/books/popular
func (h *HTTPHandler) ListPopular(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	books, err := h.service.ListPopular(r.Context(), limit)
	if err != nil {
		internalError(w, r, "list popular books", err)
		return
	}
	httpx.JSONSuccess(w, books, nil)
}

// ListCategories handles GET /api/categories
func (h *HTTPHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.service.ListCategories(r.Context())
	if err != nil {
		internalError(w, r, "list categories", err)
		return
	}
	httpx.JSONSuccess(w, categories, nil)
}

// ListByCategory handles GET /api/categories/{id}/books
func (h *HTTPHandler) ListByCategory(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	books, err := h.service.ListByCategory(r.Context(), id)
	if err != nil {
		internalError(w, r, "list books by category", err)
		return
	}
	httpx.JSONSuccess(w, books, map[string]any{"count": len(books)})
}

// UploadCover handles POST /api/books/{id}/cover (multipart form, field "cover").
func (h *HTTPHandler) UploadCover(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}

	book, err := h.service.GetBook(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		internalError(w, r, "get book for cover", err)
		return
	}

	file, header, err := r.FormFile("cover")
	if err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Missing cover file", nil)
		return
	}
	defer file.Close()

	stored, err := h.covers.Save(CoverUpload{
		File:        file,
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Size:        header.Size,
	})
	if err != nil {
		if errors.Is(err, ErrCoverType) || errors.Is(err, ErrCoverTooLarge) {
			httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
			return
		}
		internalError(w, r, "store cover", err)
		return
	}

	in := BookInput{
		CategoryID:    derefInt64(book.CategoryID),
		Title:         book.Title,
		Author:        book.Author,
		Publisher:     book.Publisher,
		PublishedYear: book.PublishedYear,
		ImagePath:     stored,
		Synopsis:      book.Synopsis,
	}
	if err := h.service.UpdateBook(r.Context(), id, in); err != nil {
		internalError(w, r, "save cover path", err)
		return
	}

	httpx.JSONSuccess(w, map[string]any{"image_path": stored}, nil)
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid id", nil)
		return 0, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("catalog: %s failed: request_id=%s error=%v", op, httpx.RequestIDFrom(r), err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}

func derefInt64(p *int64) int64 {
	if p == nil {
		return 0
	}
	return *p
}
