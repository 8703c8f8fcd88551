package balancerepo

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"github.com/quizarena/settlement/internal/domain"
)

func NewMock(t *testing.T) (*Repository, pgxmock.PgxPoolIface) {
	mockDB, err := pgxmock.NewPool()
	assert.NoError(t, err)
	repo := New(mockDB)
	defer mockDB.Close()

	return repo, mockDB
}

func TestRepository_GetUserBalance(t *testing.T) {
	repo, mock := NewMock(t)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Balance
	}{
		{
			name:   "Valid userID returns balance",
			userID: 1,
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "available_cents", "pending_cents", "version"}).
					AddRow(1, 1, int64(10000), int64(2500), int64(3))
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, available_cents, pending_cents, version FROM balances WHERE user_id = $1`)).
					WithArgs(1).
					WillReturnRows(rows)
			},
			expectErr: false,
			result: &domain.Balance{
				ID:             1,
				UserID:         1,
				AvailableCents: 10000,
				PendingCents:   2500,
				Version:        3,
			},
		},
		{
			name:   "Non-existing userID returns nil",
			userID: 99,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, available_cents, pending_cents, version FROM balances WHERE user_id = $1`)).
					WithArgs(99).
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			result:    nil,
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, user_id, available_cents, pending_cents, version FROM balances WHERE user_id = $1`)).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetUserBalance(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.result == nil {
				assert.Nil(t, result)
			} else {
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_CreateUserBalance(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
		INSERT INTO balances (user_id, available_cents, pending_cents, version)
		VALUES ($1, 0, 0, 1)
		ON CONFLICT (user_id) DO UPDATE SET user_id = EXCLUDED.user_id
		RETURNING id, user_id, available_cents, pending_cents, version`)

	tests := []struct {
		name      string
		userID    int
		mockSetup func()
		expectErr bool
		result    *domain.Balance
	}{
		{
			name:   "Creates zero-valued balance",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1).
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "available_cents", "pending_cents", "version"}).
						AddRow(1, 1, int64(0), int64(0), int64(1)),
					)
			},
			expectErr: false,
			result: &domain.Balance{
				ID:      1,
				UserID:  1,
				Version: 1,
			},
		},
		{
			name:   "Returns existing row on conflict",
			userID: 2,
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(2).
					WillReturnRows(pgxmock.NewRows([]string{"id", "user_id", "available_cents", "pending_cents", "version"}).
						AddRow(2, 2, int64(500), int64(0), int64(4)),
					)
			},
			expectErr: false,
			result: &domain.Balance{
				ID:             2,
				UserID:         2,
				AvailableCents: 500,
				Version:        4,
			},
		},
		{
			name:   "Database error",
			userID: 1,
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1).
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.CreateUserBalance(context.Background(), tt.userID)

			if tt.expectErr {
				assert.Error(t, err)
				assert.Nil(t, result)
			} else {
				assert.NoError(t, err)
				assert.Equal(t, tt.result, result)
			}
		})
	}
}

func TestRepository_UpdateUserBalance(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
		UPDATE balances
		SET available_cents = $1, pending_cents = $2, version = version + 1
		WHERE user_id = $3 AND version = $4`)

	tests := []struct {
		name      string
		balance   *domain.Balance
		mockSetup func()
		wantErr   error
	}{
		{
			name:    "Writes when version matches",
			balance: &domain.Balance{UserID: 1, AvailableCents: 7500, PendingCents: 2500, Version: 3},
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(int64(7500), int64(2500), 1, int64(3)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 1))
			},
			wantErr: nil,
		},
		{
			name:    "Stale version yields ErrVersionConflict",
			balance: &domain.Balance{UserID: 1, AvailableCents: 7500, PendingCents: 2500, Version: 2},
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(int64(7500), int64(2500), 1, int64(2)).
					WillReturnResult(pgxmock.NewResult("UPDATE", 0))
			},
			wantErr: ErrVersionConflict,
		},
		{
			name:    "Database error",
			balance: &domain.Balance{UserID: 1, Version: 3},
			mockSetup: func() {
				mock.ExpectExec(query).
					WithArgs(int64(0), int64(0), 1, int64(3)).
					WillReturnError(errors.New("database error"))
			},
			wantErr: errors.New("database error"),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			err := repo.UpdateUserBalance(context.Background(), tt.balance)

			if tt.wantErr != nil {
				assert.EqualError(t, err, tt.wantErr.Error())
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestRepository_InsertEntry(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`
		INSERT INTO ledger_entries (user_id, amount_cents, reason, idempotency_key)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (idempotency_key) DO NOTHING
		RETURNING id, created_at`)

	now := time.Now()

	tests := []struct {
		name      string
		entry     *domain.LedgerEntry
		mockSetup func()
		expectErr bool
		inserted  bool
	}{
		{
			name:  "Inserts new entry",
			entry: &domain.LedgerEntry{UserID: 1, AmountCents: 5000, Reason: "payout", IdempotencyKey: "settle:comp-1:1:payout"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1, int64(5000), "payout", "settle:comp-1:1:payout").
					WillReturnRows(pgxmock.NewRows([]string{"id", "created_at"}).AddRow(10, now))
			},
			expectErr: false,
			inserted:  true,
		},
		{
			name:  "Duplicate key returns false without error",
			entry: &domain.LedgerEntry{UserID: 1, AmountCents: 5000, Reason: "payout", IdempotencyKey: "settle:comp-1:1:payout"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1, int64(5000), "payout", "settle:comp-1:1:payout").
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			inserted:  false,
		},
		{
			name:  "Database error",
			entry: &domain.LedgerEntry{UserID: 1, AmountCents: 5000, Reason: "payout", IdempotencyKey: "settle:comp-1:1:payout"},
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs(1, int64(5000), "payout", "settle:comp-1:1:payout").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			inserted:  false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			inserted, err := repo.InsertEntry(context.Background(), tt.entry)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.inserted, inserted)
			if tt.inserted {
				assert.Equal(t, 10, tt.entry.ID)
				assert.Equal(t, now, tt.entry.CreatedAt)
			}
		})
	}
}

func TestRepository_GetEntryByKey(t *testing.T) {
	repo, mock := NewMock(t)

	query := regexp.QuoteMeta(`SELECT id, user_id, amount_cents, reason, idempotency_key, created_at FROM ledger_entries WHERE idempotency_key = $1`)

	now := time.Now()

	tests := []struct {
		name      string
		key       string
		mockSetup func()
		expectErr bool
		result    *domain.LedgerEntry
	}{
		{
			name: "Existing key returns entry",
			key:  "settle:comp-1:1:payout",
			mockSetup: func() {
				rows := pgxmock.NewRows([]string{"id", "user_id", "amount_cents", "reason", "idempotency_key", "created_at"}).
					AddRow(10, 1, int64(5000), "payout", "settle:comp-1:1:payout", now)
				mock.ExpectQuery(query).
					WithArgs("settle:comp-1:1:payout").
					WillReturnRows(rows)
			},
			expectErr: false,
			result: &domain.LedgerEntry{
				ID:             10,
				UserID:         1,
				AmountCents:    5000,
				Reason:         "payout",
				IdempotencyKey: "settle:comp-1:1:payout",
				CreatedAt:      now,
			},
		},
		{
			name: "Unknown key returns nil",
			key:  "settle:comp-9:9:payout",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("settle:comp-9:9:payout").
					WillReturnError(pgx.ErrNoRows)
			},
			expectErr: false,
			result:    nil,
		},
		{
			name: "Database error",
			key:  "settle:comp-1:1:payout",
			mockSetup: func() {
				mock.ExpectQuery(query).
					WithArgs("settle:comp-1:1:payout").
					WillReturnError(errors.New("database error"))
			},
			expectErr: true,
			result:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.mockSetup()
			result, err := repo.GetEntryByKey(context.Background(), tt.key)

			if tt.expectErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}

			if tt.result == nil {
				assert.Nil(t, result)
			} else {
				assert.Equal(t, tt.result, result)
			}
		})
	}
}
