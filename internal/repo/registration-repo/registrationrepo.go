package registrationrepo

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/quizarena/settlement/internal/domain"
	"github.com/quizarena/settlement/internal/pg"
	"go.uber.org/zap"
)

// ErrStaleState is returned when a compare-and-swap transition matched no
// row: the registration is no longer in the expected status.
var ErrStaleState = errors.New("registration state already advanced")

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

const registrationColumns = `id, user_id, competition_id, status, participation_status, score, response_time_ms, entered_at, created_at`

func scanRegistration(row pgx.Row) (*domain.Registration, error) {
	var reg domain.Registration
	err := row.Scan(&reg.ID, &reg.UserID, &reg.CompetitionID, &reg.Status, &reg.ParticipationStatus,
		&reg.Score, &reg.ResponseTimeMS, &reg.EnteredAt, &reg.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &reg, nil
}

func (r *Repository) Create(ctx context.Context, userID int, competitionID string) (*domain.Registration, error) {
	query := `
        INSERT INTO registrations (user_id, competition_id, status, participation_status)
        VALUES ($1, $2, 'pending', 'not_entered')
        RETURNING ` + registrationColumns
	reg, err := scanRegistration(r.db.QueryRow(ctx, query, userID, competitionID))
	if err != nil {
		zap.L().Error("can't save registration", zap.Error(err))
		return nil, err
	}
	return reg, nil
}

// FindActive returns the user's non-cancelled registration for a
// competition, or nil when there is none.
func (r *Repository) FindActive(ctx context.Context, userID int, competitionID string) (*domain.Registration, error) {
	query := `
        SELECT ` + registrationColumns + `
        FROM registrations
        WHERE user_id = $1 AND competition_id = $2 AND status <> 'cancelled'
    `
	reg, err := scanRegistration(r.db.QueryRow(ctx, query, userID, competitionID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't find registration", zap.Error(err))
		return nil, err
	}
	return reg, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Registration, error) {
	query := `
        SELECT ` + registrationColumns + `
        FROM registrations
        WHERE id = $1
    `
	reg, err := scanRegistration(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		zap.L().Error("can't get registration", zap.Error(err))
		return nil, err
	}
	return reg, nil
}

// TransitionStatus moves a registration from one status to another with a
// compare-and-swap on the current status. stampEntered sets entered_at, but
// only if it has not been set before.
func (r *Repository) TransitionStatus(ctx context.Context, id int, from, to string, stampEntered bool) error {
	query := `
		UPDATE registrations
		SET status = $1,
		    participation_status = CASE WHEN $2 THEN 'entered' ELSE participation_status END,
		    entered_at = CASE WHEN $2 AND entered_at IS NULL THEN now() ELSE entered_at END
		WHERE id = $3 AND status = $4
	`
	tag, err := r.db.Exec(ctx, query, to, stampEntered, id, from)
	if err != nil {
		zap.L().Error("failed to transition registration", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

// CompleteParticipation marks the participation outcome written by the
// settlement engine together with the status transition to completed.
func (r *Repository) CompleteParticipation(ctx context.Context, id int) error {
	query := `
		UPDATE registrations
		SET status = 'completed', participation_status = 'completed'
		WHERE id = $1 AND status = 'entered'
	`
	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		zap.L().Error("failed to complete registration", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *Repository) RecordResult(ctx context.Context, id int, score int, responseTimeMS int64) error {
	query := `
		UPDATE registrations
		SET score = $1, response_time_ms = $2
		WHERE id = $3 AND status = 'entered'
	`
	tag, err := r.db.Exec(ctx, query, score, responseTimeMS, id)
	if err != nil {
		zap.L().Error("failed to record result", zap.Error(err))
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *Repository) ListEntered(ctx context.Context, competitionID string) ([]domain.Registration, error) {
	query := `
        SELECT ` + registrationColumns + `
        FROM registrations
        WHERE competition_id = $1 AND status = 'entered'
        ORDER BY id ASC
    `
	rows, err := r.db.Query(ctx, query, competitionID)
	if err != nil {
		zap.L().Error("can't list entered registrations", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var regs []domain.Registration
	for rows.Next() {
		var reg domain.Registration
		err := rows.Scan(&reg.ID, &reg.UserID, &reg.CompetitionID, &reg.Status, &reg.ParticipationStatus,
			&reg.Score, &reg.ResponseTimeMS, &reg.EnteredAt, &reg.CreatedAt)
		if err != nil {
			zap.L().Error("can't scan registration row", zap.Error(err))
			return nil, err
		}
		regs = append(regs, reg)
	}
	return regs, nil
}
