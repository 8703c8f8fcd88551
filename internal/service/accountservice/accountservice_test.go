package accountservice

import (
	"context"
	"errors"
	"testing"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/provider"
	"github.com/stretchr/testify/assert"
	gomock "go.uber.org/mock/gomock"
)

func NewMock(t *testing.T) (*Service, *MockRepo, *MockProviderClient) {
	ctrl := gomock.NewController(t)
	repo := NewMockRepo(ctrl)
	providerClient := NewMockProviderClient(ctrl)
	service := New(repo, providerClient)
	defer ctrl.Finish()
	return service, repo, providerClient
}

func TestGetOrCreateAccount(t *testing.T) {
	service, repo, providerClient := NewMock(t)

	existing := &domain.PaymentAccount{
		UserID:            1,
		ProviderAccountID: "acct_51xb",
		KycStatus:         domain.KycVerified,
	}

	tests := []struct {
		name          string
		prepareMock   func()
		expectedError error
	}{
		{
			name: "Existing binding returned without provider call",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(existing, nil)
			},
		},
		{
			name: "First access creates the account at the provider",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
				providerClient.EXPECT().CreateAccount(gomock.Any(), 1).Return(&provider.Account{
					AccountID:     "acct_new",
					OnboardingURL: "https://provider.example/onboard/acct_new",
				}, nil)
				repo.EXPECT().Create(gomock.Any(), &domain.PaymentAccount{
					UserID:            1,
					ProviderAccountID: "acct_new",
					KycStatus:         domain.KycPending,
					OnboardingURL:     "https://provider.example/onboard/acct_new",
				}).DoAndReturn(func(_ context.Context, acc *domain.PaymentAccount) (*domain.PaymentAccount, error) {
					return acc, nil
				})
			},
		},
		{
			name: "Provider outage is surfaced",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
				providerClient.EXPECT().CreateAccount(gomock.Any(), 1).Return(nil, provider.ErrUnavailable)
			},
			expectedError: provider.ErrUnavailable,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			account, err := service.GetOrCreateAccount(context.Background(), 1)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, account)
				return
			}
			assert.NoError(t, err)
			assert.NotNil(t, account)
		})
	}
}

func TestUpdateKycStatus(t *testing.T) {
	service, repo, _ := NewMock(t)

	t.Run("Known status stored", func(t *testing.T) {
		repo.EXPECT().UpdateKycStatus(gomock.Any(), 1, domain.KycVerified).Return(nil)
		assert.NoError(t, service.UpdateKycStatus(context.Background(), 1, domain.KycVerified))
	})

	t.Run("Unknown status rejected", func(t *testing.T) {
		err := service.UpdateKycStatus(context.Background(), 1, "halfway-there")
		assert.EqualError(t, err, "unsupported kyc status: halfway-there")
	})
}

func TestResolveByProviderAccount(t *testing.T) {
	service, repo, _ := NewMock(t)

	t.Run("Known provider account", func(t *testing.T) {
		repo.EXPECT().GetByProviderAccountID(gomock.Any(), "acct_51xb").Return(&domain.PaymentAccount{
			UserID:            1,
			ProviderAccountID: "acct_51xb",
		}, nil)
		account, err := service.ResolveByProviderAccount(context.Background(), "acct_51xb")
		assert.NoError(t, err)
		assert.Equal(t, 1, account.UserID)
	})

	t.Run("Unknown provider account", func(t *testing.T) {
		repo.EXPECT().GetByProviderAccountID(gomock.Any(), "acct_ghost").Return(nil, nil)
		_, err := service.ResolveByProviderAccount(context.Background(), "acct_ghost")
		assert.ErrorIs(t, err, ErrAccountNotFound)
	})
}

func TestRequireVerified(t *testing.T) {
	service, repo, _ := NewMock(t)

	tests := []struct {
		name          string
		prepareMock   func()
		expectedError error
	}{
		{
			name: "Verified account passes",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(&domain.PaymentAccount{
					UserID:    1,
					KycStatus: domain.KycVerified,
				}, nil)
			},
		},
		{
			name: "Pending KYC is blocked",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(&domain.PaymentAccount{
					UserID:    1,
					KycStatus: domain.KycPending,
				}, nil)
			},
			expectedError: ErrKycRequired,
		},
		{
			name: "Missing account is blocked",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, nil)
			},
			expectedError: ErrKycRequired,
		},
		{
			name: "Repository error",
			prepareMock: func() {
				repo.EXPECT().GetByUserID(gomock.Any(), 1).Return(nil, errors.New("db error"))
			},
			expectedError: errors.New("db error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.prepareMock()
			account, err := service.RequireVerified(context.Background(), 1)
			if tt.expectedError != nil {
				assert.Error(t, err)
				assert.Equal(t, tt.expectedError.Error(), err.Error())
				assert.Nil(t, account)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, domain.KycVerified, account.KycStatus)
		})
	}
}
