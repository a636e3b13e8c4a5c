package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

// nullableID maps a zero category id to NULL so rows without a category
// stay representable.
func nullableID(id int64) *int64 {
	if id <= 0 {
		return nil
	}
	return &id
}

const bookColumns = `
	b.id, b.category_id, c.name, b.title, b.author, b.publisher,
	b.published_year, b.image_path, b.synopsis, b.available`

func scanBook(row pgx.Row) (Book, error) {
	var b Book
	err := row.Scan(
		&b.ID, &b.CategoryID, &b.CategoryName, &b.Title, &b.Author, &b.Publisher,
		&b.PublishedYear, &b.ImagePath, &b.Synopsis, &b.Available,
	)
	return b, err
}

func collectBooks(rows pgx.Rows) ([]Book, error) {
	defer rows.Close()
	var out []Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListBooks(ctx context.Context) ([]Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		ORDER BY b.id ASC`, bookColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return collectBooks(rows)
}

func (r *PostgresRepo) GetBook(ctx context.Context, id int64) (Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.id = $1
		LIMIT 1`, bookColumns)

	b, err := scanBook(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Book{}, ErrNotFound
		}
		return Book{}, fmt.Errorf("get book %d: %w", id, err)
	}
	return b, nil
}

func (r *PostgresRepo) CreateBook(ctx context.Context, in BookInput) (int64, error) {
	const query = `
		INSERT INTO books (category_id, title, author, publisher, published_year, image_path, synopsis, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, TRUE)
		RETURNING id`

	var id int64
	err := r.db.QueryRow(ctx, query,
		nullableID(in.CategoryID), in.Title, in.Author, in.Publisher, in.PublishedYear, in.ImagePath, in.Synopsis,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create book: %w", err)
	}
	return id, nil
}

func (r *PostgresRepo) UpdateBook(ctx context.Context, id int64, in BookInput) error {
	const query = `
		UPDATE books
		SET category_id = $2,
		    title = $3,
		    author = $4,
		    publisher = $5,
		    published_year = $6,
		    image_path = $7,
		    synopsis = $8,
		    updated_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		id, nullableID(in.CategoryID), in.Title, in.Author, in.Publisher, in.PublishedYear, in.ImagePath, in.Synopsis,
	)
	if err != nil {
		return fmt.Errorf("update book %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) DeleteBook(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete book %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) ListByCategory(ctx context.Context, categoryID int64) ([]Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.category_id = $1
		ORDER BY b.title ASC`, bookColumns)

	rows, err := r.db.Query(ctx, query, categoryID)
	if err != nil {
		return nil, fmt.Errorf("list books by category %d: %w", categoryID, err)
	}
	return collectBooks(rows)
}

func (r *PostgresRepo) ListAvailable(ctx context.Context) ([]Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.available = TRUE
		ORDER BY b.title ASC`, bookColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list available books: %w", err)
	}
	return collectBooks(rows)
}

// SearchBooks matches the keyword as a case-insensitive substring of the
// title, the author, or the category name.
func (r *PostgresRepo) SearchBooks(ctx context.Context, keyword string, limit int) ([]Book, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM books b
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE b.title ILIKE $1
		   OR b.author ILIKE $1
		   OR c.name ILIKE $1
		ORDER BY b.title ASC
		LIMIT $2`, bookColumns)

	rows, err := r.db.Query(ctx, query, "%"+keyword+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search books: %w", err)
	}
	return collectBooks(rows)
}

func (r *PostgresRepo) ListCategories(ctx context.Context) ([]Category, error) {
	const query = `
		SELECT id, name, explanation
		FROM categories
		ORDER BY name ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var out []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Explanation); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountBooks(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) CountAvailable(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM books WHERE available = TRUE`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count available books: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) ListPopular(ctx context.Context, limit int) ([]PopularBook, error) {
	const query = `
		SELECT p.book_id, b.title, b.author, b.image_path, c.name, p.total_borrowed
		FROM popular_books p
		JOIN books b ON p.book_id = b.id
		LEFT JOIN categories c ON b.category_id = c.id
		ORDER BY p.total_borrowed DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list popular books: %w", err)
	}
	defer rows.Close()

	var out []PopularBook
	for rows.Next() {
		var p PopularBook
		if err := rows.Scan(&p.BookID, &p.Title, &p.Author, &p.ImagePath, &p.CategoryName, &p.TotalBorrowed); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
