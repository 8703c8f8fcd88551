package payout

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/provider"
	"github.com/quizarena/settlement/internal/service/ledgerservice"
)

func NewMock(t *testing.T) (*Dispatcher, *MockWithdrawalRepo, *MockAccountRepo, *MockLedger, *MockProviderClient) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	withdrawalRepo := NewMockWithdrawalRepo(ctrl)
	accountRepo := NewMockAccountRepo(ctrl)
	ledger := NewMockLedger(ctrl)
	client := NewMockProviderClient(ctrl)
	dispatcher := New(withdrawalRepo, accountRepo, ledger, client)
	return dispatcher, withdrawalRepo, accountRepo, ledger, client
}

func TestDispatcher_Start(t *testing.T) {
	dispatcher, _, _, _, _ := NewMock(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	dispatcher.Start(ctx)
	time.Sleep(20 * time.Millisecond)
	cancel()
}

func TestDispatcher_processWithdrawals(t *testing.T) {
	tests := []struct {
		name            string
		mockGetByStatus func(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error)
		mockAddTask     func(ctx context.Context, task Task) error
		withdrawalCount int
	}{
		{
			name: "dispatches approved withdrawals",
			mockGetByStatus: func(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
				return []domain.Withdrawal{
					{ID: "proc-wd-1", UserID: 1, AmountCents: 5000, Status: domain.WithdrawalApproved},
					{ID: "proc-wd-2", UserID: 2, AmountCents: 2000, Status: domain.WithdrawalApproved},
				}, nil
			},
			mockAddTask: func(ctx context.Context, task Task) error {
				return nil
			},
			withdrawalCount: 2,
		},
		{
			name: "fails when fetching withdrawals",
			mockGetByStatus: func(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
				return nil, fmt.Errorf("failed to fetch withdrawals")
			},
			mockAddTask: func(ctx context.Context, task Task) error {
				return nil
			},
			withdrawalCount: 0,
		},
		{
			name: "error in workerPool AddTask",
			mockGetByStatus: func(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
				return []domain.Withdrawal{
					{ID: "proc-wd-3", UserID: 1, AmountCents: 5000, Status: domain.WithdrawalApproved},
				}, nil
			},
			mockAddTask: func(ctx context.Context, task Task) error {
				return fmt.Errorf("failed to add task to worker pool")
			},
			withdrawalCount: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			withdrawalRepo := NewMockWithdrawalRepo(ctrl)
			workerPool := NewMockWorkerPoolI(ctrl)

			withdrawalRepo.EXPECT().
				GetByStatus(gomock.Any(), domain.WithdrawalApproved, gomock.Any()).
				DoAndReturn(tt.mockGetByStatus).
				Times(1)
			for i := 0; i < tt.withdrawalCount; i++ {
				workerPool.EXPECT().
					AddTask(gomock.Any(), gomock.Any()).
					DoAndReturn(tt.mockAddTask).
					AnyTimes()
			}

			dispatcher := &Dispatcher{
				withdrawalRepo: withdrawalRepo,
				workerPool:     workerPool,
				limit:          1000,
			}

			dispatcher.processWithdrawals(context.Background())
		})
	}
}

func TestDispatcher_handleWithdrawal(t *testing.T) {
	account := &domain.PaymentAccount{
		UserID:            1,
		ProviderAccountID: "acct_51xb",
		KycStatus:         domain.KycVerified,
	}

	tests := []struct {
		name        string
		prepareMock func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient)
		expectErr   bool
	}{
		{
			name: "provider unreachable defers the payout",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(nil, errors.New("connection refused"))
			},
			expectErr: false,
		},
		{
			name: "creates payout and settles completed",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").Return(nil, nil)
				client.EXPECT().CreatePayout(gomock.Any(), "acct_51xb", int64(5000), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutCompleted}, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalPaid).Return(nil)
			},
			expectErr: false,
		},
		{
			name: "unknown submission outcome waits for the next tick",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").Return(nil, nil)
				client.EXPECT().CreatePayout(gomock.Any(), "acct_51xb", int64(5000), "payout:wd-1").
					Return(nil, errors.New("timeout"))
			},
			expectErr: false,
		},
		{
			name: "previous attempt already landed",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutCompleted}, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalPaid).Return(nil)
			},
			expectErr: false,
		},
		{
			name: "failed payout rejects the withdrawal",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutFailed}, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalRejected).Return(nil)
			},
			expectErr: false,
		},
		{
			name: "processing payout is left alone",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutProcessing}, nil)
			},
			expectErr: false,
		},
		{
			name: "webhook settled it first",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutCompleted}, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalPaid).
					Return(ledgerservice.ErrInvalidState)
			},
			expectErr: false,
		},
		{
			name: "settle failure is surfaced",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: provider.PayoutCompleted}, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalPaid).
					Return(errors.New("db error"))
			},
			expectErr: true,
		},
		{
			name: "unexpected payout status",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(account, nil)
				client.EXPECT().GetPayout(gomock.Any(), "payout:wd-1").
					Return(&provider.Payout{Status: "halted"}, nil)
			},
			expectErr: true,
		},
		{
			name: "missing payment account",
			prepareMock: func(accounts *MockAccountRepo, ledger *MockLedger, client *MockProviderClient) {
				accounts.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
			},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dispatcher, _, accounts, ledger, client := NewMock(t)
			tt.prepareMock(accounts, ledger, client)

			withdrawal := domain.Withdrawal{
				ID:          "wd-1",
				UserID:      1,
				AmountCents: 5000,
				Status:      domain.WithdrawalApproved,
			}
			err := dispatcher.handleWithdrawal(context.Background(), withdrawal)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
