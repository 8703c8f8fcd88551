package ledgerservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/pg"
	balancerepo "github.com/quizarena/settlement/internal/repo/balance-repo"
	"github.com/quizarena/settlement/pkg/metrics"
	"go.uber.org/zap"
)

type BalanceRepo interface {
	GetUserBalance(ctx context.Context, userID int) (*domain.Balance, error)
	CreateUserBalance(ctx context.Context, userID int) (*domain.Balance, error)
	UpdateUserBalance(ctx context.Context, balance *domain.Balance) error
	InsertEntry(ctx context.Context, entry *domain.LedgerEntry) (bool, error)
	GetEntryByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerEntry, error)
}

type WithdrawalRepo interface {
	Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error)
	GetByID(ctx context.Context, id string) (*domain.Withdrawal, error)
	UpdateStatus(ctx context.Context, id string, from []string, to string) error
	GetByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error)
	GetByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error)
}

type RefundRepo interface {
	Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error)
	GetByID(ctx context.Context, id string) (*domain.Refund, error)
	UpdateAdmin(ctx context.Context, id string, status *string, priority *int, response *string) error
	MarkProcessed(ctx context.Context, id string) error
	GetByUserID(ctx context.Context, userID int) ([]domain.Refund, error)
	GetByStatus(ctx context.Context, status string) ([]domain.Refund, error)
}

type Service struct {
	balanceRepo    BalanceRepo
	withdrawalRepo WithdrawalRepo
	refundRepo     RefundRepo
	txManager      pg.TXManager
}

func New(balanceRepo BalanceRepo, withdrawalRepo WithdrawalRepo, refundRepo RefundRepo, txManager pg.TXManager) *Service {
	return &Service{
		balanceRepo:    balanceRepo,
		withdrawalRepo: withdrawalRepo,
		refundRepo:     refundRepo,
		txManager:      txManager,
	}
}

const (
	maxAttempts    = 3
	retryBaseDelay = 50 * time.Millisecond
)

var (
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrContentionExceeded = errors.New("contention exceeded")
	ErrInvalidState       = errors.New("invalid state")
	ErrNotFound           = errors.New("not found")
	// ErrIntegrityFault marks a data-integrity mismatch that must never be
	// retried automatically and needs operator attention.
	ErrIntegrityFault = errors.New("ledger integrity fault")
)

// withRetry runs op in a transaction, retrying with exponential backoff as
// long as the failure is a balance version conflict. Any other error is
// surfaced verbatim.
func (s *Service) withRetry(ctx context.Context, op func(ctx context.Context) error) error {
	delay := retryBaseDelay
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := s.txManager.Begin(ctx, op)
		if !errors.Is(err, balancerepo.ErrVersionConflict) {
			return err
		}
		metrics.VersionConflicts.Inc()
		zap.L().Debug("balance version conflict, retrying", zap.Int("attempt", attempt))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return ErrContentionExceeded
}

// Credit increases the user's available balance exactly once per idempotency
// key. A repeated key is a no-op that reports applied=false.
func (s *Service) Credit(ctx context.Context, userID int, amountCents int64, reason, idempotencyKey string) (bool, error) {
	if amountCents <= 0 {
		return false, fmt.Errorf("credit amount must be positive, got %d", amountCents)
	}

	var applied bool
	err := s.withRetry(ctx, func(ctx context.Context) error {
		applied = false
		entry := &domain.LedgerEntry{
			UserID:         userID,
			AmountCents:    amountCents,
			Reason:         reason,
			IdempotencyKey: idempotencyKey,
		}
		inserted, err := s.balanceRepo.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if !inserted {
			prior, err := s.balanceRepo.GetEntryByKey(ctx, idempotencyKey)
			if err != nil {
				return err
			}
			if prior == nil {
				return fmt.Errorf("ledger entry %s vanished after conflict", idempotencyKey)
			}
			if prior.UserID != userID || prior.AmountCents != amountCents {
				zap.L().Error("idempotency key reused with different payload",
					zap.String("key", idempotencyKey), zap.Int("userID", userID))
				return ErrIntegrityFault
			}
			return nil
		}
		applied = true

		balance, err := s.getOrCreateBalance(ctx, userID)
		if err != nil {
			return err
		}
		balance.AvailableCents += amountCents
		return s.balanceRepo.UpdateUserBalance(ctx, balance)
	})
	if err != nil {
		return false, err
	}

	if applied {
		metrics.LedgerCredits.WithLabelValues("applied").Inc()
	} else {
		metrics.LedgerCredits.WithLabelValues("duplicate").Inc()
	}
	return applied, nil
}

// ReserveForWithdrawal moves the amount from available to pending and
// creates the withdrawal request, all in one transaction.
func (s *Service) ReserveForWithdrawal(ctx context.Context, userID int, amountCents int64) (*domain.Withdrawal, error) {
	var withdrawal *domain.Withdrawal
	err := s.withRetry(ctx, func(ctx context.Context) error {
		balance, err := s.balanceRepo.GetUserBalance(ctx, userID)
		if err != nil {
			return err
		}
		if balance == nil || balance.AvailableCents < amountCents {
			return ErrInsufficientFunds
		}

		balance.AvailableCents -= amountCents
		balance.PendingCents += amountCents
		if err := s.balanceRepo.UpdateUserBalance(ctx, balance); err != nil {
			return err
		}

		withdrawal = &domain.Withdrawal{
			ID:          uuid.NewString(),
			UserID:      userID,
			AmountCents: amountCents,
			Status:      domain.WithdrawalPending,
		}
		_, err = s.withdrawalRepo.Create(ctx, withdrawal)
		return err
	})
	if err != nil {
		return nil, err
	}
	return withdrawal, nil
}

// ApproveWithdrawal is the admin step before payout execution.
func (s *Service) ApproveWithdrawal(ctx context.Context, withdrawalID string) error {
	err := s.withdrawalRepo.UpdateStatus(ctx, withdrawalID, []string{domain.WithdrawalPending}, domain.WithdrawalApproved)
	if err != nil {
		withdrawal, getErr := s.withdrawalRepo.GetByID(ctx, withdrawalID)
		if getErr == nil && withdrawal == nil {
			return ErrNotFound
		}
		if getErr == nil {
			return ErrInvalidState
		}
		return err
	}
	return nil
}

// SettleWithdrawal resolves a withdrawal: paid releases the pending amount,
// rejected releases it back to available.
func (s *Service) SettleWithdrawal(ctx context.Context, withdrawalID, outcome string) error {
	if outcome != domain.WithdrawalPaid && outcome != domain.WithdrawalRejected {
		return fmt.Errorf("unsupported withdrawal outcome %q", outcome)
	}

	return s.withRetry(ctx, func(ctx context.Context) error {
		withdrawal, err := s.withdrawalRepo.GetByID(ctx, withdrawalID)
		if err != nil {
			return err
		}
		if withdrawal == nil {
			return ErrNotFound
		}
		if withdrawal.Status != domain.WithdrawalPending && withdrawal.Status != domain.WithdrawalApproved {
			return ErrInvalidState
		}

		balance, err := s.balanceRepo.GetUserBalance(ctx, withdrawal.UserID)
		if err != nil {
			return err
		}
		if balance == nil || balance.PendingCents < withdrawal.AmountCents {
			zap.L().Error("pending balance does not cover withdrawal",
				zap.String("withdrawalID", withdrawalID), zap.Int("userID", withdrawal.UserID))
			return ErrIntegrityFault
		}

		balance.PendingCents -= withdrawal.AmountCents
		if outcome == domain.WithdrawalRejected {
			balance.AvailableCents += withdrawal.AmountCents
		}
		if err := s.balanceRepo.UpdateUserBalance(ctx, balance); err != nil {
			return err
		}

		return s.withdrawalRepo.UpdateStatus(ctx, withdrawalID,
			[]string{domain.WithdrawalPending, domain.WithdrawalApproved}, outcome)
	})
}

// ProcessRefund credits the refund amount and marks the request processed.
// Re-invocation for an already processed refund is a no-op when the amount
// matches and an integrity fault when it does not.
func (s *Service) ProcessRefund(ctx context.Context, refundID string, amountCents int64) error {
	return s.withRetry(ctx, func(ctx context.Context) error {
		refund, err := s.refundRepo.GetByID(ctx, refundID)
		if err != nil {
			return err
		}
		if refund == nil {
			return ErrNotFound
		}

		switch refund.Status {
		case domain.RefundProcessed:
			if refund.AmountCents == amountCents {
				return nil
			}
			zap.L().Error("processed refund re-invoked with different amount",
				zap.String("refundID", refundID), zap.Int64("amount", amountCents))
			return ErrIntegrityFault
		case domain.RefundDenied:
			return ErrInvalidState
		}

		if refund.AmountCents != amountCents {
			zap.L().Error("refund amount mismatch", zap.String("refundID", refundID))
			return ErrIntegrityFault
		}

		entry := &domain.LedgerEntry{
			UserID:         refund.UserID,
			AmountCents:    amountCents,
			Reason:         "refund",
			IdempotencyKey: "refund:" + refundID,
		}
		inserted, err := s.balanceRepo.InsertEntry(ctx, entry)
		if err != nil {
			return err
		}
		if inserted {
			balance, err := s.getOrCreateBalance(ctx, refund.UserID)
			if err != nil {
				return err
			}
			balance.AvailableCents += amountCents
			if err := s.balanceRepo.UpdateUserBalance(ctx, balance); err != nil {
				return err
			}
		}

		return s.refundRepo.MarkProcessed(ctx, refundID)
	})
}

func (s *Service) CreateRefundRequest(ctx context.Context, userID int, competitionID *string, amountCents int64) (*domain.Refund, error) {
	refund := &domain.Refund{
		ID:            uuid.NewString(),
		UserID:        userID,
		CompetitionID: competitionID,
		AmountCents:   amountCents,
		Status:        domain.RefundPending,
	}
	created, err := s.refundRepo.Create(ctx, refund)
	if err != nil {
		zap.L().Error("failed to create refund request", zap.Error(err))
		return nil, err
	}
	return created, nil
}

// UpdateRefund applies an admin edit; a response note alone leaves the
// status untouched.
func (s *Service) UpdateRefund(ctx context.Context, refundID string, status *string, priority *int, response *string) error {
	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return err
	}
	if refund == nil {
		return ErrNotFound
	}
	if status != nil {
		if refund.Status == domain.RefundProcessed {
			return ErrInvalidState
		}
		switch *status {
		case domain.RefundPending, domain.RefundApproved, domain.RefundDenied:
		default:
			return fmt.Errorf("unsupported refund status %q", *status)
		}
	}
	return s.refundRepo.UpdateAdmin(ctx, refundID, status, priority, response)
}

// GetBalance returns the user's balance, zero-valued when no ledger
// activity has happened yet.
func (s *Service) GetBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.balanceRepo.GetUserBalance(ctx, userID)
	if err != nil {
		zap.L().Error("failed to get balance", zap.Error(err))
		return nil, err
	}
	if balance == nil {
		return &domain.Balance{UserID: userID}, nil
	}
	return balance, nil
}

func (s *Service) GetWithdrawals(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	withdrawals, err := s.withdrawalRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	return withdrawals, nil
}

func (s *Service) GetRefunds(ctx context.Context, userID int) ([]domain.Refund, error) {
	refunds, err := s.refundRepo.GetByUserID(ctx, userID)
	if err != nil {
		zap.L().Error("failed to fetch refunds", zap.Error(err))
		return nil, err
	}
	return refunds, nil
}

func (s *Service) GetRefund(ctx context.Context, refundID string) (*domain.Refund, error) {
	refund, err := s.refundRepo.GetByID(ctx, refundID)
	if err != nil {
		return nil, err
	}
	if refund == nil {
		return nil, ErrNotFound
	}
	return refund, nil
}

func (s *Service) ListWithdrawalsByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
	return s.withdrawalRepo.GetByStatus(ctx, status, limit)
}

func (s *Service) ListRefundsByStatus(ctx context.Context, status string) ([]domain.Refund, error) {
	return s.refundRepo.GetByStatus(ctx, status)
}

func (s *Service) getOrCreateBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	balance, err := s.balanceRepo.GetUserBalance(ctx, userID)
	if err != nil {
		return nil, err
	}
	if balance == nil {
		balance, err = s.balanceRepo.CreateUserBalance(ctx, userID)
		if err != nil {
			return nil, err
		}
	}
	return balance, nil
}
