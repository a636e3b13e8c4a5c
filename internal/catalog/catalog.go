package catalog

import "errors"

// ErrNotFound is returned when a book or category does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Book is a catalog row joined with its category.
type Book struct {
	ID            int64   `json:"book_id"`
	CategoryID    *int64  `json:"category_id,omitempty"`
	CategoryName  *string `json:"category_name,omitempty"`
	Title         string  `json:"book_title"`
	Author        string  `json:"author"`
	Publisher     *string `json:"publisher,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
	ImagePath     *string `json:"image_path,omitempty"`
	Synopsis      *string `json:"synopsis,omitempty"`
	Available     bool    `json:"book_status"`
}

type Category struct {
	ID          int64  `json:"category_id"`
	Name        string `json:"category_name"`
	Explanation string `json:"explanation,omitempty"`
}

// PopularBook is one row of the popular_books view joined back to the
// current book and category data.
type PopularBook struct {
	BookID        int64   `json:"book_id"`
	Title         string  `json:"book_title"`
	Author        string  `json:"author"`
	ImagePath     *string `json:"image_path,omitempty"`
	CategoryName  *string `json:"category_name,omitempty"`
	TotalBorrowed int     `json:"total_borrowed"`
}

// BookInput carries the writable fields of a book. Publisher, year and
// synopsis are optional; everything else is required on create and update.
type BookInput struct {
	CategoryID    int64   `json:"category_id" validate:"required,gt=0"`
	Title         string  `json:"book_title" validate:"required,max=255"`
	Author        string  `json:"author" validate:"required,max=255"`
	Publisher     *string `json:"publisher" validate:"omitempty,max=255"`
	PublishedYear *int    `json:"published_year" validate:"omitempty,gte=1000,lte=2100"`
	ImagePath     string  `json:"image_path" validate:"required"`
	Synopsis      *string `json:"synopsis"`
}
