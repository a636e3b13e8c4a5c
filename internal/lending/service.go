package lending

import (
	"context"
	"fmt"
	"log"
	"time"
)

const defaultRecentLimit = 5

type Service struct {
	repo            Repository
	penaltyRate     int64
	defaultDuration int

	now            func() time.Time
	refreshTimeout time.Duration
	// refreshDone is signalled after each background stats refresh attempt.
	// Nil outside of tests.
	refreshDone chan struct{}
}

func NewService(repo Repository, penaltyRate int64, defaultDurationDays int) *Service {
	return &Service{
		repo:            repo,
		penaltyRate:     penaltyRate,
		defaultDuration: defaultDurationDays,
		now:             time.Now,
		refreshTimeout:  10 * time.Second,
	}
}

// CreateLoan issues a loan starting today with due date today + duration.
// A non-positive duration falls back to the configured default. After the
// insert the member-statistics view is refreshed in the background;
// a refresh failure is logged and never fails the loan.
func (s *Service) CreateLoan(ctx context.Context, userID, bookID int64, durationDays int) (Loan, error) {
	if durationDays <= 0 {
		durationDays = s.defaultDuration
	}

	loanDate := dateOnly(s.now())
	dueDate := loanDate.AddDate(0, 0, durationDays)

	id, err := s.repo.InsertLoan(ctx, userID, bookID, loanDate, dueDate)
	if err != nil {
		return Loan{}, fmt.Errorf("create loan: %w", err)
	}

	s.refreshStatsAsync()

	return Loan{
		ID:       id,
		UserID:   userID,
		BookID:   bookID,
		LoanDate: loanDate,
		DueDate:  dueDate,
	}, nil
}

// ReturnLoan closes an active loan as of today. Returning twice fails with
// ErrAlreadyReturned.
func (s *Service) ReturnLoan(ctx context.Context, loanID int64) error {
	if err := s.repo.MarkReturned(ctx, loanID, dateOnly(s.now())); err != nil {
		return err
	}
	s.refreshStatsAsync()
	return nil
}

func (s *Service) refreshStatsAsync() {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.refreshTimeout)
		defer cancel()
		if err := s.repo.RefreshMemberStats(ctx); err != nil {
			log.Printf("lending: member stats refresh failed: %v", err)
		}
		if s.refreshDone != nil {
			s.refreshDone <- struct{}{}
		}
	}()
}

func (s *Service) ListActive(ctx context.Context) ([]Loan, error) {
	return s.repo.ListActive(ctx)
}

func (s *Service) ListAll(ctx context.Context) ([]Loan, error) {
	return s.repo.ListAll(ctx)
}

func (s *Service) ListOverdue(ctx context.Context) ([]Loan, error) {
	return s.repo.ListOverdue(ctx)
}

func (s *Service) CountActive(ctx context.Context) (int, error) {
	return s.repo.CountActive(ctx)
}

func (s *Service) CountOverdue(ctx context.Context) (int, error) {
	return s.repo.CountOverdue(ctx)
}

func (s *Service) ListRecent(ctx context.Context, limit int) ([]Loan, error) {
	if limit <= 0 {
		limit = defaultRecentLimit
	}
	return s.repo.ListRecent(ctx, limit)
}

func (s *Service) ListByUser(ctx context.Context, userID int64) ([]Loan, error) {
	return s.repo.ListByUser(ctx, userID)
}

// ListActiveByUser returns a user's open loans with the penalty each one
// has accrued at the configured per-day rate.
func (s *Service) ListActiveByUser(ctx context.Context, userID int64) ([]Loan, error) {
	return s.repo.ListActiveByUser(ctx, userID, s.penaltyRate)
}

func (s *Service) TotalPenaltyByUser(ctx context.Context, userID int64) (int64, error) {
	return s.repo.TotalPenaltyByUser(ctx, userID)
}

func (s *Service) MemberStats(ctx context.Context, userID int64) (MemberStats, error) {
	return s.repo.MemberStats(ctx, userID)
}

// PenaltyFor is the fee an unreturned loan with this due date has accrued
// as of now.
func (s *Service) PenaltyFor(due time.Time) int64 {
	return Penalty(s.now(), due, s.penaltyRate)
}
