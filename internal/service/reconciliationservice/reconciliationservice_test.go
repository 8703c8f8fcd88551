package reconciliationservice

import (
	"context"
	"errors"
	"testing"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/dto"
	"github.com/quizarena/settlement/internal/pg"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockEventRepo, *MockAccounts, *MockRegistrations, *MockLedger) {
	ctrl := gomock.NewController(t)
	events := NewMockEventRepo(ctrl)
	accounts := NewMockAccounts(ctrl)
	registrations := NewMockRegistrations(ctrl)
	ledger := NewMockLedger(ctrl)
	txManager := pg.NewMockTXManager(ctrl)
	txManager.EXPECT().Begin(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, fn func(context.Context) error) error {
			return fn(ctx)
		}).AnyTimes()
	service := New(events, accounts, registrations, ledger, txManager)
	defer ctrl.Finish()
	return service, events, accounts, registrations, ledger
}

func TestHandleEvent(t *testing.T) {
	service, events, accounts, registrations, ledger := NewMock(t)

	tests := []struct {
		name          string
		payload       dto.PaymentWebhookDTO
		prepareMock   func()
		expectedError error
	}{
		{
			name: "KYC update resolves account and stores status",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-1",
				Type:      EventKycUpdated,
				AccountID: "acct_51xb",
				Status:    domain.KycVerified,
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-1", EventKycUpdated).Return(true, nil)
				accounts.EXPECT().ResolveByProviderAccount(gomock.Any(), "acct_51xb").Return(&domain.PaymentAccount{
					UserID:            7,
					ProviderAccountID: "acct_51xb",
				}, nil)
				accounts.EXPECT().UpdateKycStatus(gomock.Any(), 7, domain.KycVerified).Return(nil)
			},
		},
		{
			name: "Charge success confirms the registration",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-2",
				Type:      EventChargeSucceeded,
				Reference: "42",
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-2", EventChargeSucceeded).Return(true, nil)
				registrations.EXPECT().ConfirmPayment(gomock.Any(), 42).Return(nil)
			},
		},
		{
			name: "Payout completion settles the withdrawal",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-3",
				Type:      EventPayoutCompleted,
				Reference: "wd-1",
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-3", EventPayoutCompleted).Return(true, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalPaid).Return(nil)
			},
		},
		{
			name: "Payout failure rejects the withdrawal",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-4",
				Type:      EventPayoutFailed,
				Reference: "wd-1",
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-4", EventPayoutFailed).Return(true, nil)
				ledger.EXPECT().SettleWithdrawal(gomock.Any(), "wd-1", domain.WithdrawalRejected).Return(nil)
			},
		},
		{
			name: "Replayed event id is discarded without side effects",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-2",
				Type:      EventChargeSucceeded,
				Reference: "42",
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-2", EventChargeSucceeded).Return(false, nil)
			},
		},
		{
			name: "Unknown event type is rejected before dedup",
			payload: dto.PaymentWebhookDTO{
				EventID: "evt-5",
				Type:    "subscription_renewed",
			},
			prepareMock:   func() {},
			expectedError: ErrUnknownEventType,
		},
		{
			name: "Missing event id",
			payload: dto.PaymentWebhookDTO{
				Type:      EventChargeSucceeded,
				Reference: "42",
			},
			prepareMock:   func() {},
			expectedError: ErrInvalidEvent,
		},
		{
			name: "Charge event with non-numeric reference",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-6",
				Type:      EventChargeSucceeded,
				Reference: "not-a-registration",
			},
			prepareMock:   func() {},
			expectedError: ErrInvalidEvent,
		},
		{
			name: "KYC event without account id",
			payload: dto.PaymentWebhookDTO{
				EventID: "evt-7",
				Type:    EventKycUpdated,
				Status:  domain.KycVerified,
			},
			prepareMock:   func() {},
			expectedError: ErrInvalidEvent,
		},
		{
			name: "Failed apply aborts the whole event",
			payload: dto.PaymentWebhookDTO{
				EventID:   "evt-8",
				Type:      EventChargeSucceeded,
				Reference: "42",
			},
			prepareMock: func() {
				events.EXPECT().Insert(gomock.Any(), "evt-8", EventChargeSucceeded).Return(true, nil)
				registrations.EXPECT().ConfirmPayment(gomock.Any(), 42).Return(errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			err := service.HandleEvent(context.Background(), tt.payload)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
