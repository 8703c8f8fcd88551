package finalizationrepo

import (
	"context"
	"encoding/json"
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

func (r *Repository) Get(ctx context.Context, competitionID string) (*domain.Finalization, error) {
	query := `
        SELECT competition_id, finalized_at, winners
        FROM finalizations
        WHERE competition_id = $1
    `
	row := r.db.QueryRow(ctx, query, competitionID)
	var fin domain.Finalization
	var winners []byte
	err := row.Scan(&fin.CompetitionID, &fin.FinalizedAt, &winners)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error("can't get finalization record", zap.Error(err))
		return nil, err
	}
	if err := json.Unmarshal(winners, &fin.Winners); err != nil {
		zap.L().Error("can't decode winner set", zap.Error(err))
		return nil, err
	}
	return &fin, nil
}

// Create writes the finalization record. A conflict on competition_id means
// another finalize call got there first; callers treat that as success.
func (r *Repository) Create(ctx context.Context, fin *domain.Finalization) (bool, error) {
	winners, err := json.Marshal(fin.Winners)
	if err != nil {
		return false, err
	}
	query := `
		INSERT INTO finalizations (competition_id, winners)
		VALUES ($1, $2)
		ON CONFLICT (competition_id) DO NOTHING
		RETURNING finalized_at
	`
	err = r.db.QueryRow(ctx, query, fin.CompetitionID, winners).Scan(&fin.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		zap.L().Error("can't save finalization record", zap.Error(err))
		return false, err
	}
	return true, nil
}
