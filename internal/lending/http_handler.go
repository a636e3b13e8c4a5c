package lending

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"novalib/internal/httpx"
)

// CatalogCounter is the slice of the catalog the dashboard needs.
type CatalogCounter interface {
	CountBooks(ctx context.Context) (int, error)
	CountAvailable(ctx context.Context) (int, error)
}

type HTTPHandler struct {
	service *Service
	catalog CatalogCounter
}

func NewHTTPHandler(service *Service, catalog CatalogCounter) *HTTPHandler {
	return &HTTPHandler{service: service, catalog: catalog}
}

// List handles GET /api/loans
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListAll(r.Context())
	if err != nil {
		internalError(w, r, "list loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, map[string]any{"count": len(loans)})
}

// ListActive handles GET /api/loans/active
func (h *HTTPHandler) ListActive(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListActive(r.Context())
	if err != nil {
		internalError(w, r, "list active loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, map[string]any{"count": len(loans)})
}

// ListOverdue handles GET /api/loans/overdue
func (h *HTTPHandler) ListOverdue(w http.ResponseWriter, r *http.Request) {
	loans, err := h.service.ListOverdue(r.Context())
	if err != nil {
		internalError(w, r, "list overdue loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, map[string]any{"count": len(loans)})
}

// ListRecent handles GET /api/loans/recent?limit=
func (h *HTTPHandler) ListRecent(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	loans, err := h.service.ListRecent(r.Context(), limit)
	if err != nil {
		internalError(w, r, "list recent loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, nil)
}

// Create handles POST /api/loans
func (h *HTTPHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in LoanInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON body", nil)
		return
	}
	if details := httpx.ValidateStruct(in); details != nil {
		httpx.JSONError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid loan payload", details)
		return
	}

	loan, err := h.service.CreateLoan(r.Context(), in.UserID, in.BookID, in.DurationDays)
	if err != nil {
		internalError(w, r, "create loan", err)
		return
	}
	httpx.JSONSuccessCreated(w, loan)
}

// Return handles POST /api/loans/{id}/return
func (h *HTTPHandler) Return(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	switch err := h.service.ReturnLoan(r.Context(), id); {
	case err == nil:
		httpx.JSONSuccessNoContent(w)
	case errors.Is(err, ErrNotFound):
		httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "Loan not found", nil)
	case errors.Is(err, ErrAlreadyReturned):
		httpx.JSONError(w, http.StatusConflict, "ALREADY_RETURNED", "Loan is already returned", nil)
	default:
		internalError(w, r, "return loan", err)
	}
}

// ListByUser handles GET /api/users/{id}/loans
func (h *HTTPHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loans, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		internalError(w, r, "list user loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, map[string]any{"count": len(loans)})
}

// ListActiveByUser handles GET /api/users/{id}/loans/active
func (h *HTTPHandler) ListActiveByUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	loans, err := h.service.ListActiveByUser(r.Context(), userID)
	if err != nil {
		internalError(w, r, "list user active loans", err)
		return
	}
	httpx.JSONSuccess(w, loans, map[string]any{"count": len(loans)})
}

// TotalPenalty handles GET /api/users/{id}/penalty
func (h *HTTPHandler) TotalPenalty(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	total, err := h.service.TotalPenaltyByUser(r.Context(), userID)
	if err != nil {
		internalError(w, r, "total penalty", err)
		return
	}
	httpx.JSONSuccess(w, map[string]any{"user_id": userID, "total_penalty": total}, nil)
}

// MemberStats handles GET /api/users/{id}/stats
func (h *HTTPHandler) MemberStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}

	stats, err := h.service.MemberStats(r.Context(), userID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, http.StatusNotFound, "NOT_FOUND", "No statistics for this user", nil)
			return
		}
		internalError(w, r, "member stats", err)
		return
	}
	httpx.JSONSuccess(w, stats, nil)
}

// DashboardStats handles GET /api/stats
func (h *HTTPHandler) DashboardStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	totalBooks, err := h.catalog.CountBooks(ctx)
	if err != nil {
		internalError(w, r, "count books", err)
		return
	}
	availableBooks, err := h.catalog.CountAvailable(ctx)
	if err != nil {
		internalError(w, r, "count available books", err)
		return
	}
	activeLoans, err := h.service.CountActive(ctx)
	if err != nil {
		internalError(w, r, "count active loans", err)
		return
	}
	overdueLoans, err := h.service.CountOverdue(ctx)
	if err != nil {
		internalError(w, r, "count overdue loans", err)
		return
	}

	httpx.JSONSuccess(w, map[string]any{
		"total_books":     totalBooks,
		"available_books": availableBooks,
		"active_loans":    activeLoans,
		"overdue_loans":   overdueLoans,
	}, nil)
}

func pathID(w http.ResponseWriter, r *http.Request, key string) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(key), 10, 64)
	if err != nil || id <= 0 {
		httpx.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "Invalid id", nil)
		return 0, false
	}
	return id, true
}

func internalError(w http.ResponseWriter, r *http.Request, op string, err error) {
	log.Printf("lending: %s failed: request_id=%s error=%v", op, httpx.RequestIDFrom(r), err)
	httpx.JSONError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
}
