package payout

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/provider"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
	"github.com/quizarena/settlement/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

var processingWithdrawals sync.Map

type WithdrawalRepo interface {
	GetByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error)
}

type AccountRepo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.PaymentAccount, error)
}

type Ledger interface {
	SettleWithdrawal(ctx context.Context, withdrawalID, outcome string) error
}

type ProviderClient interface {
	CreatePayout(ctx context.Context, accountID string, amountCents int64, idempotencyKey string) (*provider.Payout, error)
	GetPayout(ctx context.Context, idempotencyKey string) (*provider.Payout, error)
}

// Dispatcher executes approved withdrawals against the payment provider.
// Payout creation is not idempotent on its own, so every attempt first
// queries the provider by idempotency key and only submits when the payout
// provably does not exist yet.
type Dispatcher struct {
	withdrawalRepo WithdrawalRepo
	accountRepo    AccountRepo
	ledger         Ledger
	client         ProviderClient
	limit          uint32
	workerPool     WorkerPoolI
	updateInterval time.Duration
}

func New(withdrawalRepo WithdrawalRepo, accountRepo AccountRepo, ledger Ledger, client ProviderClient) *Dispatcher {
	return &Dispatcher{
		withdrawalRepo: withdrawalRepo,
		accountRepo:    accountRepo,
		ledger:         ledger,
		client:         client,
		limit:          1000,
		workerPool:     NewWorkerPool(10),
		updateInterval: time.Second * 5,
	}
}

func (d *Dispatcher) Start(ctx context.Context) {
	zap.L().Info("Payout dispatcher started")
	go d.run(ctx)
}

func (d *Dispatcher) run(ctx context.Context) {
	ticker := time.NewTicker(d.updateInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("Context canceled, stopping payout dispatcher")
			return
		case <-ticker.C:
			d.processWithdrawals(ctx)
		}
	}
}

func (d *Dispatcher) processWithdrawals(ctx context.Context) {
	withdrawals, err := d.withdrawalRepo.GetByStatus(ctx, domain.WithdrawalApproved, int(atomic.LoadUint32(&d.limit)))
	if err != nil {
		zap.L().Error("Failed to fetch withdrawals for payout", zap.Error(err))
		return
	}

	var g errgroup.Group
	for _, withdrawal := range withdrawals {
		withdrawal := withdrawal

		if _, loaded := processingWithdrawals.LoadOrStore(withdrawal.ID, struct{}{}); loaded {
			continue
		}

		g.Go(func() error {
			err := d.workerPool.AddTask(ctx, func() error {
				defer processingWithdrawals.Delete(withdrawal.ID)
				return d.handleWithdrawal(ctx, withdrawal)
			})
			if err != nil {
				processingWithdrawals.Delete(withdrawal.ID)
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zap.L().Error("Error processing payouts", zap.Error(err))
	}
}

func (d *Dispatcher) handleWithdrawal(ctx context.Context, withdrawal domain.Withdrawal) error {
	account, err := d.accountRepo.GetByUserID(ctx, withdrawal.UserID)
	if err != nil {
		return err
	}
	if account == nil {
		return fmt.Errorf("no payment account for user %d", withdrawal.UserID)
	}

	idempotencyKey := "payout:" + withdrawal.ID

	// Establish the actual provider state first. A previous attempt may
	// have landed even though we never saw its response.
	payout, err := d.client.GetPayout(ctx, idempotencyKey)
	if err != nil {
		metrics.PayoutAttempts.WithLabelValues("provider_error").Inc()
		zap.L().Warn("provider unreachable, deferring payout",
			zap.String("withdrawalID", withdrawal.ID), zap.Error(err))
		return nil
	}

	if payout == nil {
		payout, err = d.client.CreatePayout(ctx, account.ProviderAccountID, withdrawal.AmountCents, idempotencyKey)
		if err != nil {
			// Unknown outcome: the next tick re-queries before resubmitting.
			metrics.PayoutAttempts.WithLabelValues("unknown_outcome").Inc()
			zap.L().Warn("payout submission outcome unknown, will reconcile",
				zap.String("withdrawalID", withdrawal.ID), zap.Error(err))
			return nil
		}
	}

	switch payout.Status {
	case provider.PayoutCompleted:
		return d.settle(ctx, withdrawal.ID, domain.WithdrawalPaid)
	case provider.PayoutFailed:
		return d.settle(ctx, withdrawal.ID, domain.WithdrawalRejected)
	case provider.PayoutProcessing:
		metrics.PayoutAttempts.WithLabelValues("processing").Inc()
		return nil
	default:
		zap.L().Warn("Unrecognized payout status",
			zap.String("withdrawalID", withdrawal.ID), zap.String("status", payout.Status))
		return errors.New("unexpected payout status")
	}
}

func (d *Dispatcher) settle(ctx context.Context, withdrawalID, outcome string) error {
	err := d.ledger.SettleWithdrawal(ctx, withdrawalID, outcome)
	if errors.Is(err, ledgerservice.ErrInvalidState) {
		// The webhook path settled it first.
		metrics.PayoutAttempts.WithLabelValues("already_settled").Inc()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to settle withdrawal %s: %w", withdrawalID, err)
	}
	metrics.PayoutAttempts.WithLabelValues(outcome).Inc()
	zap.L().Info("Withdrawal settled", zap.String("withdrawalID", withdrawalID), zap.String("outcome", outcome))
	return nil
}
