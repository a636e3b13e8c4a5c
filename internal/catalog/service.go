package catalog

import (
	"context"
	"strings"
)

// MinSearchQueryLen is the UX guard on keyword length; shorter queries
// return an empty result without touching the store.
const MinSearchQueryLen = 2

type Service struct {
	repo         Repository
	defaultLimit int
	maxLimit     int
}

func NewService(repo Repository, defaultLimit, maxLimit int) *Service {
	return &Service{repo: repo, defaultLimit: defaultLimit, maxLimit: maxLimit}
}

func (s *Service) ListBooks(ctx context.Context) ([]Book, error) {
	return s.repo.ListBooks(ctx)
}

func (s *Service) GetBook(ctx context.Context, id int64) (Book, error) {
	return s.repo.GetBook(ctx, id)
}

func (s *Service) CreateBook(ctx context.Context, in BookInput) (int64, error) {
	return s.repo.CreateBook(ctx, in)
}

func (s *Service) UpdateBook(ctx context.Context, id int64, in BookInput) error {
	return s.repo.UpdateBook(ctx, id, in)
}

func (s *Service) DeleteBook(ctx context.Context, id int64) error {
	return s.repo.DeleteBook(ctx, id)
}

func (s *Service) ListByCategory(ctx context.Context, categoryID int64) ([]Book, error) {
	return s.repo.ListByCategory(ctx, categoryID)
}

func (s *Service) ListAvailable(ctx context.Context) ([]Book, error) {
	return s.repo.ListAvailable(ctx)
}

// Search runs a substring search over title, author and category name.
// Queries shorter than MinSearchQueryLen yield an empty result, and the
// limit is clamped between the configured default and maximum.
func (s *Service) Search(ctx context.Context, keyword string, limit int) ([]Book, error) {
	keyword = strings.TrimSpace(keyword)
	if len(keyword) < MinSearchQueryLen {
		return nil, nil
	}
	if limit <= 0 {
		limit = s.defaultLimit
	}
	if limit > s.maxLimit {
		limit = s.maxLimit
	}
	return s.repo.SearchBooks(ctx, keyword, limit)
}

func (s *Service) ListCategories(ctx context.Context) ([]Category, error) {
	return s.repo.ListCategories(ctx)
}

func (s *Service) CountBooks(ctx context.Context) (int, error) {
	return s.repo.CountBooks(ctx)
}

func (s *Service) CountAvailable(ctx context.Context) (int, error) {
	return s.repo.CountAvailable(ctx)
}

func (s *Service) ListPopular(ctx context.Context, limit int) ([]PopularBook, error) {
	if limit <= 0 {
		limit = 5
	}
	return s.repo.ListPopular(ctx, limit)
}
