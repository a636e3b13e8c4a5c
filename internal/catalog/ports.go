package catalog

import "context"

// Repository defines the contract for catalog storage.
type Repository interface {
	ListBooks(ctx context.Context) ([]Book, error)
	GetBook(ctx context.Context, id int64) (Book, error)
	CreateBook(ctx context.Context, in BookInput) (int64, error)
	UpdateBook(ctx context.Context, id int64, in BookInput) error
	DeleteBook(ctx context.Context, id int64) error
	ListByCategory(ctx context.Context, categoryID int64) ([]Book, error)
	ListAvailable(ctx context.Context) ([]Book, error)
	SearchBooks(ctx context.Context, keyword string, limit int) ([]Book, error)
	ListCategories(ctx context.Context) ([]Category, error)
	CountBooks(ctx context.Context) (int, error)
	CountAvailable(ctx context.Context) (int, error)
	ListPopular(ctx context.Context, limit int) ([]PopularBook, error)
}
