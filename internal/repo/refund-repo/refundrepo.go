package refundrepo

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

const refundColumns = `id, user_id, competition_id, amount_cents, status, priority, response, requested_at, updated_at`

func (r *Repository) Create(ctx context.Context, refund *domain.Refund) (*domain.Refund, error) {
	query := `
		INSERT INTO refunds (id, user_id, competition_id, amount_cents, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING requested_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, refund.ID, refund.UserID, refund.CompetitionID, refund.AmountCents, refund.Status).
		Scan(&refund.RequestedAt, &refund.UpdatedAt)
	if err != nil {
		zap.L().Error("can't save refund", zap.Error(err))
		return nil, err
	}
	return refund, nil
}

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Refund, error) {
	query := `
        SELECT ` + refundColumns + `
        FROM refunds
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, id)
	var rf domain.Refund
	err := row.Scan(&rf.ID, &rf.UserID, &rf.CompetitionID, &rf.AmountCents, &rf.Status, &rf.Priority,
		&rf.Response, &rf.RequestedAt, &rf.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get refund", zap.Error(err))
		return nil, err
	}
	return &rf, nil
}

// UpdateAdmin applies an admin edit. Nil fields are left untouched; setting
// only the response note does not change the status.
func (r *Repository) UpdateAdmin(ctx context.Context, id string, status *string, priority *int, response *string) error {
	query := `
		UPDATE refunds
		SET status = COALESCE($1, status),
		    priority = COALESCE($2, priority),
		    response = COALESCE($3, response),
		    updated_at = now()
		WHERE id = $4
	`
	tag, err := r.db.Exec(ctx, query, status, priority, response, id)
	if err != nil {
		zap.L().Error("failed to update refund", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// MarkProcessed is the terminal transition applied by the ledger; it is
// guarded so a refund is processed at most once.
func (r *Repository) MarkProcessed(ctx context.Context, id string) error {
	query := `
		UPDATE refunds
		SET status = 'processed', updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'approved')
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		zap.L().Error("failed to mark refund processed", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *Repository) GetByUserID(ctx context.Context, userID int) ([]domain.Refund, error) {
	query := `
        SELECT ` + refundColumns + `
        FROM refunds
        WHERE user_id = $1
        ORDER BY requested_at DESC
    `
	return r.list(ctx, query, userID)
}

func (r *Repository) GetByStatus(ctx context.Context, status string) ([]domain.Refund, error) {
	query := `
        SELECT ` + refundColumns + `
        FROM refunds
        WHERE status = $1
        ORDER BY priority DESC, requested_at ASC
    `
	return r.list(ctx, query, status)
}

func (r *Repository) list(ctx context.Context, query string, args ...any) ([]domain.Refund, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("failed to fetch refunds", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var refunds []domain.Refund
	for rows.Next() {
		var rf domain.Refund
		err := rows.Scan(&rf.ID, &rf.UserID, &rf.CompetitionID, &rf.AmountCents, &rf.Status, &rf.Priority,
			&rf.Response, &rf.RequestedAt, &rf.UpdatedAt)
		if err != nil {
			zap.L().Error("failed to scan refund row", zap.Error(err))
			return nil, err
		}
		refunds = append(refunds, rf)
	}

	return refunds, nil
}
