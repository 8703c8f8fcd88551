package eventrepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestRepository_Insert(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
		INSERT INTO webhook_events (event_id, event_type)
		VALUES ($1, $2)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING received_at`)

	tests := []struct {
		name      string
		mockSetup func()
		expectErr bool
		inserted  bool
	}{
		{
			name: "First delivery is recorded",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("evt-1", "charge_succeeded").
					WillReturnRows(pgxmock.NewRows([]string{"received_at"}).AddRow(time.Now()))
			},
			expectErr: false,
			inserted:  true,
		},
		{
			name: "Replayed event returns false without error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("evt-1", "charge_succeeded").
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			inserted:  false,
		},
		{
			name: "Database error",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("evt-1", "charge_succeeded").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			inserted:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			inserted, err := repo.Insert(context.Background(), "evt-1", "charge_succeeded")

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.inserted, inserted)
		})
	}
}
