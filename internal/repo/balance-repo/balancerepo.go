package balancerepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/pg"
	"go.uber.org/zap"
)

// ErrVersionConflict is returned when a version-conditioned write matched no
// row, meaning another writer advanced the balance first.
var ErrVersionConflict = errors.New("balance version conflict")

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) GetUserBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        SELECT id, user_id, available_cents, pending_cents, version
        FROM balances
        WHERE user_id = $1
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.AvailableCents, &balance.PendingCents, &balance.Version)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("failed to get user balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

func (r *Repository) CreateUserBalance(ctx context.Context, userID int) (*domain.Balance, error) {
	query := `
        INSERT INTO balances (user_id, available_cents, pending_cents, version)
        VALUES ($1, 0, 0, 1)
        ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
        RETURNING id, user_id, available_cents, pending_cents, version
    `
	row := r.db.QueryRow(ctx, query, userID)
	var balance domain.Balance
	err := row.Scan(&balance.ID, &balance.UserID, &balance.AvailableCents, &balance.PendingCents, &balance.Version)
	if err != nil {
		zap.L().Error("failed to create user balance", zap.Error(err))
		return nil, err
	}
	return &balance, nil
}

// UpdateUserBalance writes the new amounts conditioned on the version the
// caller read. The version is bumped on success; ErrVersionConflict means
// the caller must re-read and retry.
func (r *Repository) UpdateUserBalance(ctx context.Context, balance *domain.Balance) error {
	query := `
		UPDATE balances
		SET available_cents = $1, pending_cents = $2, version = version + 1
		WHERE user_id = $3 AND version = $4
	`
	tag, err := r.db.Exec(ctx, query, balance.AvailableCents, balance.PendingCents, balance.UserID, balance.Version)
	if err != nil {
		zap.L().Error("failed to update user balance", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

// InsertEntry records an applied credit. Returns false without error when an
// entry with the same idempotency key already exists.
func (r *Repository) InsertEntry(ctx context.Context, entry *domain.LedgerEntry) (bool, error) {
	query := `
		INSERT INTO ledger_entries (user_id, amount_cents, reason, idempotency_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at
	`
	err := r.db.QueryRow(ctx, query, entry.UserID, entry.AmountCents, entry.Reason, entry.IdempotencyKey).
		Scan(&entry.ID, &entry.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		zap.L().Error("can't insert ledger entry", zap.Error(err))
		return false, err
	}
	return true, nil
}

func (r *Repository) GetEntryByKey(ctx context.Context, idempotencyKey string) (*domain.LedgerEntry, error) {
	query := `
        SELECT id, user_id, amount_cents, reason, idempotency_key, created_at
        FROM ledger_entries
        WHERE idempotency_key = $1
    `
	row := r.db.QueryRow(ctx, query, idempotencyKey)
	var entry domain.LedgerEntry
	err := row.Scan(&entry.ID, &entry.UserID, &entry.AmountCents, &entry.Reason, &entry.IdempotencyKey, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't find ledger entry", zap.Error(err))
		return nil, err
	}
	return &entry, nil
}
