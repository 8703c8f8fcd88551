package eventrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

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

// Insert records a provider event id. Returns false when the id was seen
// before, which is the durable dedup signal for webhook replays.
func (r *Repository) Insert(ctx context.Context, eventID, eventType string) (bool, error) {
	query := `
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING received_at
	`
	var receivedAt any
	err := r.db.QueryRow(ctx, query, eventID, eventType).Scan(&receivedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		zap.L().Error("can't record webhook event", zap.Error(err))
		return false, err
	}
	return true, nil
}
