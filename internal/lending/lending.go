package lending

import (
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a loan or stats row does not exist.
	ErrNotFound = errors.New("lending: not found")
	// ErrAlreadyReturned is returned when closing a loan twice.
	ErrAlreadyReturned = errors.New("lending: loan already returned")
)

// Loan is one borrowing record joined with its book. A loan is active while
// ReturnDate is nil; overdue status is always derived, never stored.
// The computed fields are filled by the listing that exposes them.
type Loan struct {
	ID         int64      `json:"loan_id"`
	UserID     int64      `json:"user_id"`
	BookID     int64      `json:"book_id"`
	LoanDate   time.Time  `json:"loan_date"`
	DueDate    time.Time  `json:"due_date"`
	ReturnDate *time.Time `json:"return_date,omitempty"`

	BookTitle    string  `json:"book_title"`
	Author       string  `json:"author"`
	ImagePath    *string `json:"image_path,omitempty"`
	Synopsis     *string `json:"synopsis,omitempty"`
	CategoryName *string `json:"category_name,omitempty"`

	IsOverdue     bool  `json:"is_overdue"`
	DaysOverdue   int   `json:"days_overdue"`
	PenaltyAmount int64 `json:"penalty_amount"`
}

// MemberStats is one row of the precomputed per-member aggregate.
type MemberStats struct {
	UserID       int64      `json:"user_id"`
	TotalLoans   int        `json:"total_loans"`
	ActiveLoans  int        `json:"active_loans"`
	OverdueLoans int        `json:"overdue_loans"`
	TotalPenalty int64      `json:"total_penalty"`
	LastLoanDate *time.Time `json:"last_loan_date,omitempty"`
}

// LoanInput is the create-loan request payload.
type LoanInput struct {
	UserID       int64 `json:"user_id" validate:"required,gt=0"`
	BookID       int64 `json:"book_id" validate:"required,gt=0"`
	DurationDays int   `json:"duration_days" validate:"omitempty,gt=0,lte=365"`
}
