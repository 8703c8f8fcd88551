package competitionrepo

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

func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Competition, error) {
	query := `
        SELECT id, title, entry_fee_cents, prize_pool_cents, closes_at
        FROM competitions
        WHERE id = $1
    `
	row := r.db.QueryRow(ctx, query, id)
	var comp domain.Competition
	err := row.Scan(&comp.ID, &comp.Title, &comp.EntryFeeCents, &comp.PrizePoolCents, &comp.ClosesAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get competition", zap.Error(err))
		return nil, err
	}
	return &comp, nil
}

// ListClosedUnfinalized returns competitions whose window has elapsed and
// that have no finalization record yet.
func (r *Repository) ListClosedUnfinalized(ctx context.Context) ([]domain.Competition, error) {
	query := `
        SELECT c.id, c.title, c.entry_fee_cents, c.prize_pool_cents, c.closes_at
        FROM competitions c
        LEFT JOIN finalizations f ON f.competition_id = c.id
        WHERE c.closes_at <= now() AND f.competition_id IS NULL
        ORDER BY c.closes_at ASC
    `
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		zap.L().Error("can't list closed competitions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var comps []domain.Competition
	for rows.Next() {
		var comp domain.Competition
		err := rows.Scan(&comp.ID, &comp.Title, &comp.EntryFeeCents, &comp.PrizePoolCents, &comp.ClosesAt)
		if err != nil {
			zap.L().Error("can't scan competition row", zap.Error(err))
			return nil, err
		}
		comps = append(comps, comp)
	}
	return comps, nil
}
