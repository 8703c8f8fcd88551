package ledgerservice

import (
	"context"
	"errors"
	"testing"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/pg"
	balancerepo "github.com/quizarena/settlement/internal/repo/balance-repo"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockBalanceRepo, *MockWithdrawalRepo, *MockRefundRepo) {
	ctrl := gomock.NewController(t)
	balanceRepo := NewMockBalanceRepo(ctrl)
	withdrawalRepo := NewMockWithdrawalRepo(ctrl)
	refundRepo := NewMockRefundRepo(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
	service := New(balanceRepo, withdrawalRepo, refundRepo, txManager)
	defer ctrl.Finish()
	return service, balanceRepo, withdrawalRepo, refundRepo
}

func TestCredit(t *testing.T) {
	service, balanceRepo, _, _ := NewMock(t)

	tests := []struct {
		name            string
		amountCents     int64
		prepareMock     func()
		expectedApplied bool
		expectedError   error
	}{
		{
			name:        "First credit is applied",
			amountCents: 5000,
			prepareMock: func() {
				balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(true, nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 1000,
					Version:        3,
				}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 6000,
					Version:        3,
				}).Return(nil)
			},
			expectedApplied: true,
		},
		{
			name:        "Credit creates missing balance row",
			amountCents: 5000,
			prepareMock: func() {
				balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(true, nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(nil, nil)
				balanceRepo.EXPECT().CreateUserBalance(gomock.Any(), 1).Return(&domain.Balance{UserID: 1}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 5000,
				}).Return(nil)
			},
			expectedApplied: true,
		},
		{
			name:        "Replay with matching payload is a no-op",
			amountCents: 5000,
			prepareMock: func() {
				balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(false, nil)
				balanceRepo.EXPECT().GetEntryByKey(gomock.Any(), "settle:comp-1:1:payout").Return(&domain.LedgerEntry{
					UserID:      1,
					AmountCents: 5000,
				}, nil)
			},
			expectedApplied: false,
		},
		{
			name:        "Replay with different payload is an integrity fault",
			amountCents: 5000,
			prepareMock: func() {
				balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(false, nil)
				balanceRepo.EXPECT().GetEntryByKey(gomock.Any(), "settle:comp-1:1:payout").Return(&domain.LedgerEntry{
					UserID:      2,
					AmountCents: 5000,
				}, nil)
			},
			expectedError: ErrIntegrityFault,
		},
		{
			name:          "Non-positive amount is rejected",
			amountCents:   0,
			prepareMock:   func() {},
			expectedError: errors.New("credit amount must be positive, got 0"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			applied, err := service.Credit(context.Background(), 1, tt.amountCents, "competition payout", "settle:comp-1:1:payout")
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedApplied, applied)
		})
	}
}

func TestCreditRetriesVersionConflict(t *testing.T) {
	service, balanceRepo, _, _ := NewMock(t)

	gomock.InOrder(
		balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(true, nil),
		balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{UserID: 1, Version: 1}, nil),
		balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), gomock.Any()).Return(balancerepo.ErrVersionConflict),
		balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(true, nil),
		balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{UserID: 1, Version: 2}, nil),
		balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), gomock.Any()).Return(nil),
	)

	applied, err := service.Credit(context.Background(), 1, 100, "bonus", "bonus:1")
	assert.NoError(t, err)
	assert.True(t, applied)
}

func TestCreditContentionExceeded(t *testing.T) {
	service, balanceRepo, _, _ := NewMock(t)

	balanceRepo.EXPECT().InsertEntry(gomock.Any(), gomock.Any()).Return(true, nil).Times(3)
	balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{UserID: 1}, nil).Times(3)
	balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), gomock.Any()).Return(balancerepo.ErrVersionConflict).Times(3)

	_, err := service.Credit(context.Background(), 1, 100, "bonus", "bonus:1")
	assert.ErrorIs(t, err, ErrContentionExceeded)
}

func TestReserveForWithdrawal(t *testing.T) {
	service, balanceRepo, withdrawalRepo, _ := NewMock(t)

	tests := []struct {
		name          string
		amountCents   int64
		prepareMock   func()
		expectedError error
	}{
		{
			name:        "Successful reservation",
			amountCents: 3000,
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 5000,
					PendingCents:   100,
				}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 2000,
					PendingCents:   3100,
				}).Return(nil)
				withdrawalRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(
					func(_ context.Context, wd *domain.Withdrawal) (*domain.Withdrawal, error) {
						assert.NotEmpty(t, wd.ID)
						assert.Equal(t, int64(3000), wd.AmountCents)
						assert.Equal(t, domain.WithdrawalPending, wd.Status)
						return wd, nil
					})
			},
		},
		{
			name:        "Insufficient available balance",
			amountCents: 3000,
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 2999,
				}, nil)
			},
			expectedError: ErrInsufficientFunds,
		},
		{
			name:        "No balance row at all",
			amountCents: 3000,
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrInsufficientFunds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			withdrawal, err := service.ReserveForWithdrawal(context.Background(), 1, tt.amountCents)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, withdrawal)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, withdrawal)
		})
	}
}

func TestApproveWithdrawal(t *testing.T) {
	service, _, withdrawalRepo, _ := NewMock(t)

	tests := []struct {
		name          string
		prepareMock   func()
		expectedError error
	}{
		{
			name: "Pending withdrawal approved",
			prepareMock: func() {
				withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), "wd-1",
					[]string{domain.WithdrawalPending}, domain.WithdrawalApproved).Return(nil)
			},
		},
		{
			name: "Unknown withdrawal",
			prepareMock: func() {
				withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), "wd-1",
					[]string{domain.WithdrawalPending}, domain.WithdrawalApproved).Return(errors.New("no rows updated"))
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(nil, nil)
			},
			expectedError: ErrNotFound,
		},
		{
			name: "Already resolved",
			prepareMock: func() {
				withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), "wd-1",
					[]string{domain.WithdrawalPending}, domain.WithdrawalApproved).Return(errors.New("no rows updated"))
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(&domain.Withdrawal{
					ID:     "wd-1",
					Status: domain.WithdrawalPaid,
				}, nil)
			},
			expectedError: ErrInvalidState,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.ApproveWithdrawal(context.Background(), "wd-1")
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSettleWithdrawal(t *testing.T) {
	service, balanceRepo, withdrawalRepo, _ := NewMock(t)

	withdrawal := func(status string) *domain.Withdrawal {
		return &domain.Withdrawal{
			ID:          "wd-1",
			UserID:      1,
			AmountCents: 2000,
			Status:      status,
		}
	}

	tests := []struct {
		name          string
		outcome       string
		prepareMock   func()
		expectedError error
	}{
		{
			name:    "Paid releases the pending amount",
			outcome: domain.WithdrawalPaid,
			prepareMock: func() {
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(withdrawal(domain.WithdrawalApproved), nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 500,
					PendingCents:   2000,
				}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 500,
					PendingCents:   0,
				}).Return(nil)
				withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), "wd-1",
					[]string{domain.WithdrawalPending, domain.WithdrawalApproved}, domain.WithdrawalPaid).Return(nil)
			},
		},
		{
			name:    "Rejected restores the available balance",
			outcome: domain.WithdrawalRejected,
			prepareMock: func() {
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(withdrawal(domain.WithdrawalPending), nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 500,
					PendingCents:   2500,
				}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 2500,
					PendingCents:   500,
				}).Return(nil)
				withdrawalRepo.EXPECT().UpdateStatus(gomock.Any(), "wd-1",
					[]string{domain.WithdrawalPending, domain.WithdrawalApproved}, domain.WithdrawalRejected).Return(nil)
			},
		},
		{
			name:    "Already settled",
			outcome: domain.WithdrawalPaid,
			prepareMock: func() {
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(withdrawal(domain.WithdrawalPaid), nil)
			},
			expectedError: ErrInvalidState,
		},
		{
			name:    "Unknown withdrawal",
			outcome: domain.WithdrawalPaid,
			prepareMock: func() {
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(nil, nil)
			},
			expectedError: ErrNotFound,
		},
		{
			name:    "Pending balance does not cover withdrawal",
			outcome: domain.WithdrawalPaid,
			prepareMock: func() {
				withdrawalRepo.EXPECT().GetByID(gomock.Any(), "wd-1").Return(withdrawal(domain.WithdrawalApproved), nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:       1,
					PendingCents: 100,
				}, nil)
			},
			expectedError: ErrIntegrityFault,
		},
		{
			name:          "Unsupported outcome",
			outcome:       "vanished",
			prepareMock:   func() {},
			expectedError: errors.New(`unsupported withdrawal outcome "vanished"`),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.SettleWithdrawal(context.Background(), "wd-1", tt.outcome)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestProcessRefund(t *testing.T) {
	service, balanceRepo, _, refundRepo := NewMock(t)

	refund := func(status string) *domain.Refund {
		return &domain.Refund{
			ID:          "rf-1",
			UserID:      1,
			AmountCents: 1500,
			Status:      status,
		}
	}

	tests := []struct {
		name          string
		amountCents   int64
		prepareMock   func()
		expectedError error
	}{
		{
			name:        "First processing credits the balance",
			amountCents: 1500,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(refund(domain.RefundApproved), nil)
				balanceRepo.EXPECT().InsertEntry(gomock.Any(), &domain.LedgerEntry{
					UserID:         1,
					AmountCents:    1500,
					Reason:         "refund",
					IdempotencyKey: "refund:rf-1",
				}).Return(true, nil)
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{UserID: 1}, nil)
				balanceRepo.EXPECT().UpdateUserBalance(gomock.Any(), &domain.Balance{
					UserID:         1,
					AvailableCents: 1500,
				}).Return(nil)
				refundRepo.EXPECT().MarkProcessed(gomock.Any(), "rf-1").Return(nil)
			},
		},
		{
			name:        "Replay on processed refund is a no-op",
			amountCents: 1500,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(refund(domain.RefundProcessed), nil)
			},
		},
		{
			name:        "Processed refund with a different amount",
			amountCents: 9999,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(refund(domain.RefundProcessed), nil)
			},
			expectedError: ErrIntegrityFault,
		},
		{
			name:        "Denied refund cannot be processed",
			amountCents: 1500,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(refund(domain.RefundDenied), nil)
			},
			expectedError: ErrInvalidState,
		},
		{
			name:        "Amount mismatch against stored request",
			amountCents: 100,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(refund(domain.RefundPending), nil)
			},
			expectedError: ErrIntegrityFault,
		},
		{
			name:        "Unknown refund",
			amountCents: 1500,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(nil, nil)
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.ProcessRefund(context.Background(), "rf-1", tt.amountCents)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestUpdateRefund(t *testing.T) {
	service, _, _, refundRepo := NewMock(t)
	approved := domain.RefundApproved
	note := "verified against charge record"

	tests := []struct {
		name          string
		status        *string
		response      *string
		prepareMock   func()
		expectedError error
	}{
		{
			name:   "Status change on pending refund",
			status: &approved,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(&domain.Refund{
					ID:     "rf-1",
					Status: domain.RefundPending,
				}, nil)
				refundRepo.EXPECT().UpdateAdmin(gomock.Any(), "rf-1", &approved, nil, nil).Return(nil)
			},
		},
		{
			name:   "Processed refund is immutable",
			status: &approved,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(&domain.Refund{
					ID:     "rf-1",
					Status: domain.RefundProcessed,
				}, nil)
			},
			expectedError: ErrInvalidState,
		},
		{
			name:     "Response note alone keeps the status",
			response: &note,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(&domain.Refund{
					ID:     "rf-1",
					Status: domain.RefundProcessed,
				}, nil)
				refundRepo.EXPECT().UpdateAdmin(gomock.Any(), "rf-1", nil, nil, &note).Return(nil)
			},
		},
		{
			name:   "Unknown refund",
			status: &approved,
			prepareMock: func() {
				refundRepo.EXPECT().GetByID(gomock.Any(), "rf-1").Return(nil, nil)
			},
			expectedError: ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.UpdateRefund(context.Background(), "rf-1", tt.status, nil, tt.response)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestGetBalance(t *testing.T) {
	service, balanceRepo, _, _ := NewMock(t)

	tests := []struct {
		name            string
		prepareMock     func()
		expectedBalance *domain.Balance
		expectedError   error
	}{
		{
			name: "Existing balance",
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(&domain.Balance{
					UserID:         1,
					AvailableCents: 4200,
					PendingCents:   100,
					Version:        7,
				}, nil)
			},
			expectedBalance: &domain.Balance{
				UserID:         1,
				AvailableCents: 4200,
				PendingCents:   100,
				Version:        7,
			},
		},
		{
			name: "No ledger activity yet",
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(nil, nil)
			},
			expectedBalance: &domain.Balance{UserID: 1},
		},
		{
			name: "Repository error",
			prepareMock: func() {
				balanceRepo.EXPECT().GetUserBalance(gomock.Any(), 1).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			balance, err := service.GetBalance(context.Background(), 1)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expectedBalance, balance)
		})
	}
}
