package lending

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockCatalogCounter struct {
	mock.Mock
}

func (m *mockCatalogCounter) CountBooks(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func (m *mockCatalogCounter) CountAvailable(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

func newTestHandler(repo Repository) (*HTTPHandler, *Service) {
	svc := NewService(repo, 2000, 14)
	svc.refreshDone = make(chan struct{}, 1)
	return NewHTTPHandler(svc, new(mockCatalogCounter)), svc
}

func TestHandlerListOverdue(t *testing.T) {
	overdue := []Loan{
		{ID: 1, BookTitle: "A", IsOverdue: true, DaysOverdue: 10},
		{ID: 2, BookTitle: "B", IsOverdue: true, DaysOverdue: 3},
	}

	repo := new(mockRepo)
	repo.On("ListOverdue", mock.Anything).Return(overdue, nil)
	h, _ := newTestHandler(repo)

	w := httptest.NewRecorder()
	h.ListOverdue(w, httptest.NewRequest(http.MethodGet, "/api/loans/overdue", nil))

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Success bool   `json:"success"`
		Data    []Loan `json:"data"`
		Meta    struct {
			Count int `json:"count"`
		} `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 2, resp.Meta.Count)
	assert.Equal(t, 10, resp.Data[0].DaysOverdue)
	assert.True(t, resp.Data[0].IsOverdue)
}

func TestHandlerCreate(t *testing.T) {
	t.Run("creates with default duration", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("InsertLoan", mock.Anything, int64(4), int64(9), mock.Anything, mock.MatchedBy(func(due time.Time) bool {
			return true
		})).Return(int64(77), nil)
		repo.On("RefreshMemberStats", mock.Anything).Return(nil)

		h, svc := newTestHandler(repo)

		body, _ := json.Marshal(map[string]any{"user_id": 4, "book_id": 9})
		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/api/loans", bytes.NewReader(body)))

		require.Equal(t, http.StatusCreated, w.Code)

		var resp struct {
			Data Loan `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, int64(77), resp.Data.ID)
		assert.Equal(t, resp.Data.LoanDate.AddDate(0, 0, 14), resp.Data.DueDate)

		waitForRefresh(t, svc)
	})

	t.Run("rejects missing ids", func(t *testing.T) {
		repo := new(mockRepo)
		h, _ := newTestHandler(repo)

		body, _ := json.Marshal(map[string]any{"duration_days": 7})
		w := httptest.NewRecorder()
		h.Create(w, httptest.NewRequest(http.MethodPost, "/api/loans", bytes.NewReader(body)))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		repo.AssertNotCalled(t, "InsertLoan", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestHandlerReturn(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"returned", nil, http.StatusNoContent},
		{"unknown loan", ErrNotFound, http.StatusNotFound},
		{"double return", ErrAlreadyReturned, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			repo.On("MarkReturned", mock.Anything, int64(5), mock.Anything).Return(tt.err)
			if tt.err == nil {
				repo.On("RefreshMemberStats", mock.Anything).Return(nil)
			}

			h, svc := newTestHandler(repo)

			r := httptest.NewRequest(http.MethodPost, "/api/loans/5/return", nil)
			r.SetPathValue("id", "5")
			w := httptest.NewRecorder()
			h.Return(w, r)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.err == nil {
				waitForRefresh(t, svc)
			}
		})
	}
}

func TestHandlerMemberStats(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		last := date(2025, time.May, 2)
		repo := new(mockRepo)
		repo.On("MemberStats", mock.Anything, int64(8)).Return(MemberStats{
			UserID:       8,
			TotalLoans:   12,
			ActiveLoans:  2,
			OverdueLoans: 1,
			TotalPenalty: 6000,
			LastLoanDate: &last,
		}, nil)

		h, _ := newTestHandler(repo)

		r := httptest.NewRequest(http.MethodGet, "/api/users/8/stats", nil)
		r.SetPathValue("id", "8")
		w := httptest.NewRecorder()
		h.MemberStats(w, r)

		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"total_loans":12`)
	})

	t.Run("no stats row", func(t *testing.T) {
		repo := new(mockRepo)
		repo.On("MemberStats", mock.Anything, int64(8)).Return(MemberStats{}, ErrNotFound)

		h, _ := newTestHandler(repo)

		r := httptest.NewRequest(http.MethodGet, "/api/users/8/stats", nil)
		r.SetPathValue("id", "8")
		w := httptest.NewRecorder()
		h.MemberStats(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandlerDashboardStats(t *testing.T) {
	repo := new(mockRepo)
	repo.On("CountActive", mock.Anything).Return(4, nil)
	repo.On("CountOverdue", mock.Anything).Return(1, nil)

	counter := new(mockCatalogCounter)
	counter.On("CountBooks", mock.Anything).Return(120, nil)
	counter.On("CountAvailable", mock.Anything).Return(116, nil)

	svc := NewService(repo, 2000, 14)
	h := NewHTTPHandler(svc, counter)

	w := httptest.NewRecorder()
	h.DashboardStats(w, httptest.NewRequest(http.MethodGet, "/api/stats", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_books":120`)
	assert.Contains(t, w.Body.String(), `"available_books":116`)
	assert.Contains(t, w.Body.String(), `"active_loans":4`)
	assert.Contains(t, w.Body.String(), `"overdue_loans":1`)
}
