package lending

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PostgresRepo struct {
	db *pgxpool.Pool
}

func NewPostgresRepo(db *pgxpool.Pool) *PostgresRepo {
	return &PostgresRepo{db: db}
}

func (r *PostgresRepo) ListActive(ctx context.Context) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date, l.return_date,
		       b.title, b.author, b.image_path
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE l.return_date IS NULL
		ORDER BY l.loan_date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list active loans: %w", err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate,
			&l.BookTitle, &l.Author, &l.ImagePath,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListAll(ctx context.Context) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date, l.return_date,
		       b.title, b.author, b.image_path,
		       (l.return_date IS NULL AND l.due_date < CURRENT_DATE) AS is_overdue
		FROM loans l
		JOIN books b ON l.book_id = b.id
		ORDER BY l.loan_date DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list loans: %w", err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate,
			&l.BookTitle, &l.Author, &l.ImagePath, &l.IsOverdue,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListOverdue(ctx context.Context) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date, l.return_date,
		       b.title, b.author, b.image_path,
		       (CURRENT_DATE - l.due_date) AS days_overdue
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE l.return_date IS NULL
		  AND l.due_date < CURRENT_DATE
		ORDER BY l.due_date ASC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list overdue loans: %w", err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate,
			&l.BookTitle, &l.Author, &l.ImagePath, &l.DaysOverdue,
		); err != nil {
			return nil, err
		}
		l.IsOverdue = true
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountActive(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM loans WHERE return_date IS NULL`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count active loans: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) CountOverdue(ctx context.Context) (int, error) {
	const query = `
		SELECT COUNT(*) FROM loans
		WHERE return_date IS NULL AND due_date < CURRENT_DATE`

	var count int
	if err := r.db.QueryRow(ctx, query).Scan(&count); err != nil {
		return 0, fmt.Errorf("count overdue loans: %w", err)
	}
	return count, nil
}

func (r *PostgresRepo) ListRecent(ctx context.Context, limit int) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date,
		       b.title, b.author
		FROM loans l
		JOIN books b ON l.book_id = b.id
		WHERE l.return_date IS NULL
		ORDER BY l.loan_date DESC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list recent loans: %w", err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate,
			&l.BookTitle, &l.Author,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListByUser(ctx context.Context, userID int64) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date, l.return_date,
		       b.title, b.author, b.image_path, b.synopsis, c.name,
		       (l.return_date IS NULL AND l.due_date < CURRENT_DATE) AS is_overdue,
		       CASE WHEN l.return_date IS NULL AND l.due_date < CURRENT_DATE
		            THEN (CURRENT_DATE - l.due_date) ELSE 0 END AS days_overdue
		FROM loans l
		JOIN books b ON l.book_id = b.id
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE l.user_id = $1
		ORDER BY l.loan_date DESC`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("list loans for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate, &l.ReturnDate,
			&l.BookTitle, &l.Author, &l.ImagePath, &l.Synopsis, &l.CategoryName,
			&l.IsOverdue, &l.DaysOverdue,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ListActiveByUser(ctx context.Context, userID int64, penaltyRate int64) ([]Loan, error) {
	const query = `
		SELECT l.id, l.user_id, l.book_id, l.loan_date, l.due_date,
		       b.title, b.author, b.image_path, b.synopsis, c.name,
		       (l.due_date < CURRENT_DATE) AS is_overdue,
		       CASE WHEN l.due_date < CURRENT_DATE
		            THEN (CURRENT_DATE - l.due_date) ELSE 0 END AS days_overdue,
		       CASE WHEN l.due_date < CURRENT_DATE
		            THEN (CURRENT_DATE - l.due_date) * $2 ELSE 0 END AS penalty_amount
		FROM loans l
		JOIN books b ON l.book_id = b.id
		LEFT JOIN categories c ON b.category_id = c.id
		WHERE l.user_id = $1 AND l.return_date IS NULL
		ORDER BY l.due_date ASC`

	rows, err := r.db.Query(ctx, query, userID, penaltyRate)
	if err != nil {
		return nil, fmt.Errorf("list active loans for user %d: %w", userID, err)
	}
	defer rows.Close()

	var out []Loan
	for rows.Next() {
		var l Loan
		if err := rows.Scan(
			&l.ID, &l.UserID, &l.BookID, &l.LoanDate, &l.DueDate,
			&l.BookTitle, &l.Author, &l.ImagePath, &l.Synopsis, &l.CategoryName,
			&l.IsOverdue, &l.DaysOverdue, &l.PenaltyAmount,
		); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) TotalPenaltyByUser(ctx context.Context, userID int64) (int64, error) {
	const query = `SELECT COALESCE(SUM(amount), 0) FROM penalties WHERE user_id = $1`

	var total int64
	if err := r.db.QueryRow(ctx, query, userID).Scan(&total); err != nil {
		return 0, fmt.Errorf("total penalty for user %d: %w", userID, err)
	}
	return total, nil
}

func (r *PostgresRepo) MemberStats(ctx context.Context, userID int64) (MemberStats, error) {
	const query = `
		SELECT user_id, total_loans, active_loans, overdue_loans, total_penalty, last_loan_date
		FROM mv_member_stats
		WHERE user_id = $1
		LIMIT 1`

	var s MemberStats
	err := r.db.QueryRow(ctx, query, userID).Scan(
		&s.UserID, &s.TotalLoans, &s.ActiveLoans, &s.OverdueLoans, &s.TotalPenalty, &s.LastLoanDate,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return MemberStats{}, ErrNotFound
		}
		return MemberStats{}, fmt.Errorf("member stats for user %d: %w", userID, err)
	}
	return s, nil
}

func (r *PostgresRepo) InsertLoan(ctx context.Context, userID, bookID int64, loanDate, dueDate time.Time) (int64, error) {
	const query = `
		INSERT INTO loans (user_id, book_id, loan_date, due_date)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	if err := r.db.QueryRow(ctx, query, userID, bookID, loanDate, dueDate).Scan(&id); err != nil {
		return 0, fmt.Errorf("insert loan: %w", err)
	}
	return id, nil
}

func (r *PostgresRepo) MarkReturned(ctx context.Context, loanID int64, returnDate time.Time) error {
	const query = `
		UPDATE loans SET return_date = $2
		WHERE id = $1 AND return_date IS NULL`

	tag, err := r.db.Exec(ctx, query, loanID, returnDate)
	if err != nil {
		return fmt.Errorf("mark loan %d returned: %w", loanID, err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := r.db.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM loans WHERE id = $1)`, loanID).Scan(&exists); err != nil {
			return fmt.Errorf("check loan %d: %w", loanID, err)
		}
		if exists {
			return ErrAlreadyReturned
		}
		return ErrNotFound
	}
	return nil
}

func (r *PostgresRepo) RefreshMemberStats(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `REFRESH MATERIALIZED VIEW mv_member_stats`); err != nil {
		return fmt.Errorf("refresh member stats: %w", err)
	}
	return nil
}
