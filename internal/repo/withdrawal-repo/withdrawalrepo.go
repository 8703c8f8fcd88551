package withdrawalrepo

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

const withdrawalColumns = `id, user_id, amount_cents, status, requested_at, resolved_at`

func (r *Repository) Create(ctx context.Context, withdrawal *domain.Withdrawal) (*domain.Withdrawal, error) {
	query := `
		INSERT INTO withdrawals (id, user_id, amount_cents, status)
		VALUES ($1, $2, $3, $4)
		RETURNING requested_at
	`
	err := r.db.QueryRow(ctx, query, withdrawal.ID, withdrawal.UserID, withdrawal.AmountCents, withdrawal.Status).
		Scan(&withdrawal.RequestedAt)
	if err != nil {
		zap.L().Error("can't save withdrawal", zap.Error(err))
		return nil, err
	}
	return withdrawal, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, id)
	var wd domain.Withdrawal
	err := row.Scan(&wd.ID, &wd.UserID, &wd.AmountCents, &wd.Status, &wd.RequestedAt, &wd.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get withdrawal", zap.Error(err))
		return nil, err
	}
	return &wd, nil
}

// UpdateStatus advances a withdrawal with a compare-and-swap on the current
// status. Terminal transitions stamp resolved_at.
func (r *Repository) UpdateStatus(ctx context.Context, id string, from []string, to string) error {
	query := `
		UPDATE withdrawals
		SET status = $1,
		    resolved_at = CASE WHEN $1 IN ('paid', 'rejected') THEN now() ELSE resolved_at END
		WHERE id = $2 AND status = ANY($3)
	`
	tag, err := r.db.Exec(ctx, query, to, id, from)
	if err != nil {
		zap.L().Error("failed to update withdrawal status", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE user_id = $1
        ORDER BY requested_at DESC
    `
	return r.list(ctx, query, userID)
}

func (r *Repository) GetByStatus(ctx context.Context, status string, limit int) ([]domain.Withdrawal, error) {
	query := `
        SELECT ` + withdrawalColumns + `
        FROM withdrawals
        WHERE status = $1
        ORDER BY requested_at ASC
        LIMIT $2
    `
	return r.list(ctx, query, status, limit)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Withdrawal, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch withdrawals", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var withdrawals []domain.Withdrawal
	for rows.Next() {
		var wd domain.Withdrawal
		err := rows.Scan(&wd.ID, &wd.UserID, &wd.AmountCents, &wd.Status, &wd.RequestedAt, &wd.ResolvedAt)
		if err != nil {
			zap.L().Error("failed to scan withdrawal row", zap.Error(err))
			return nil, err
		}
		withdrawals = append(withdrawals, wd)
	}

	return withdrawals, nil
}
