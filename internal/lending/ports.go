package lending

import (
	"context"
	"time"
)

// Repository defines the contract for loan storage and the precomputed
// statistics it maintains.
type Repository interface {
	ListActive(ctx context.Context) ([]Loan, error)
	ListAll(ctx context.Context) ([]Loan, error)
	ListOverdue(ctx context.Context) ([]Loan, error)
	CountActive(ctx context.Context) (int, error)
	CountOverdue(ctx context.Context) (int, error)
	ListRecent(ctx context.Context, limit int) ([]Loan, error)
	ListByUser(ctx context.Context, userID int64) ([]Loan, error)
	ListActiveByUser(ctx context.Context, userID int64, penaltyRate int64) ([]Loan, error)
	TotalPenaltyByUser(ctx context.Context, userID int64) (int64, error)
	MemberStats(ctx context.Context, userID int64) (MemberStats, error)

	InsertLoan(ctx context.Context, userID, bookID int64, loanDate, dueDate time.Time) (int64, error)
	MarkReturned(ctx context.Context, loanID int64, returnDate time.Time) error
	RefreshMemberStats(ctx context.Context) error
}
