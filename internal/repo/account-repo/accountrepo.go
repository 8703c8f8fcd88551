package accountrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/pg"
	"go.uber.org/zap"
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const accountColumns = `user_id, provider_account_id, kyc_status, onboarding_url, updated_at`

func (r *Repository) GetByUserID(ctx context.Context, userID int) (*domain.PaymentAccount, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM payment_accounts
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var acc domain.PaymentAccount
	err := row.Scan(&acc.UserID, &acc.ProviderAccountID, &acc.KycStatus, &acc.OnboardingURL, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get payment account", zap.Error(err))
		return nil, err
	}
	return &acc, nil
}

func (r *Repository) GetByProviderAccountID(ctx context.Context, providerAccountID string) (*domain.PaymentAccount, error) {
	query := `
        SELECT ` + accountColumns + `
        FROM payment_accounts
        WHERE provider_account_id = $1
    `
	row := r.db.QueryRow(ctx, query, providerAccountID)
	var acc domain.PaymentAccount
	err := row.Scan(&acc.UserID, &acc.ProviderAccountID, &acc.KycStatus, &acc.OnboardingURL, &acc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to resolve provider account", zap.Error(err))
		return nil, err
	}
	return &acc, nil
}

func (r *Repository) Create(ctx context.Context, acc *domain.PaymentAccount) (*domain.PaymentAccount, error) {
	query := `
        INSERT INTO payment_accounts (user_id, provider_account_id, kyc_status, onboarding_url)
        VALUES ($1, $2, $3, $4)
        RETURNING ` + accountColumns
	row := r.db.QueryRow(ctx, query, acc.UserID, acc.ProviderAccountID, acc.KycStatus, acc.OnboardingURL)
	var created domain.PaymentAccount
	err := row.Scan(&created.UserID, &created.ProviderAccountID, &created.KycStatus, &created.OnboardingURL, &created.UpdatedAt)
	if err != nil {
		zap.L().Error("failed to create payment account", zap.Error(err))
		return nil, err
	}
	return &created, nil
}

// UpdateKycStatus applies the latest provider-reported status. Ordering is
// not enforced here; the gateway dedupes events before calling.
func (r *Repository) UpdateKycStatus(ctx context.Context, userID int, status string) error {
	query := `
		UPDATE payment_accounts
		SET kyc_status = $1, updated_at = now()
		WHERE user_id = $2
	`
	tag, err := r.db.Exec(ctx, query, status, userID)
	if err != nil {
		zap.L().Error("failed to update kyc status", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
