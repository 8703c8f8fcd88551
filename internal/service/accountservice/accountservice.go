package accountservice

import (
	"context"
	"errors"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/provider"
	"go.uber.org/zap"
)

type Repo interface {
	GetByUserID(ctx context.Context, userID int) (*domain.PaymentAccount, error)
	GetByProviderAccountID(ctx context.Context, providerAccountID string) (*domain.PaymentAccount, error)
	Create(ctx context.Context, acc *domain.PaymentAccount) (*domain.PaymentAccount, error)
	UpdateKycStatus(ctx context.Context, userID int, status string) error
}

type ProviderClient interface {
	CreateAccount(ctx context.Context, userID int) (*provider.Account, error)
}

type Service struct {
	repo     Repo
	provider ProviderClient
}

func New(repo Repo, providerClient ProviderClient) *Service {
	return &Service{
		repo:     repo,
		provider: providerClient,
	}
}

var (
	ErrKycRequired     = errors.New("kyc verification required")
	ErrAccountNotFound = errors.New("payment account not found")
)

// GetOrCreateAccount returns the user's provider binding, starting
// onboarding lazily on first use.
func (s *Service) GetOrCreateAccount(ctx context.Context, userID int) (*domain.PaymentAccount, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}

	created, err := s.provider.CreateAccount(ctx, userID)
	if err != nil {
		zap.L().Error("provider account creation failed", zap.Error(err), zap.Int("userID", userID))
		return nil, err
	}

	account, err = s.repo.Create(ctx, &domain.PaymentAccount{
		UserID:            userID,
		ProviderAccountID: created.AccountID,
		KycStatus:         domain.KycPending,
		OnboardingURL:     created.OnboardingURL,
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("payment account created",
		zap.Int("userID", userID), zap.String("providerAccountID", created.AccountID))
	return account, nil
}

// UpdateKycStatus applies a provider-reported status change. Only the
// reconciliation gateway calls this; the store trusts the latest write.
func (s *Service) UpdateKycStatus(ctx context.Context, userID int, status string) error {
	switch status {
	case domain.KycUnverified, domain.KycPending, domain.KycVerified, domain.KycRejected:
	default:
		return errors.New("unsupported kyc status: " + status)
	}
	return s.repo.UpdateKycStatus(ctx, userID, status)
}

// ResolveByProviderAccount maps a provider account id from a webhook back
// to the owning user.
func (s *Service) ResolveByProviderAccount(ctx context.Context, providerAccountID string) (*domain.PaymentAccount, error) {
	account, err := s.repo.GetByProviderAccountID(ctx, providerAccountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// RequireVerified gates payout-affecting operations on KYC.
func (s *Service) RequireVerified(ctx context.Context, userID int) (*domain.PaymentAccount, error) {
	account, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if account == nil || account.KycStatus != domain.KycVerified {
		return nil, ErrKycRequired
	}
	return account, nil
}
