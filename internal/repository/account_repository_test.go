package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockRepo(t *testing.T) (*AccountRepository, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewAccountRepository(db), mock
}

func TestFindByEmail_NotFound(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE email = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}))

	_, err := repo.FindByEmail(context.Background(), "Missing@Example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByID_Found(t *testing.T) {
	repo, mock := newMockRepo(t)
	id := uuid.New()
	mock.ExpectQuery(`SELECT \* FROM "accounts" WHERE id = \$1`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email", "provenance", "profile_complete", "role"}).
			AddRow(id.String(), "a@b.com", "local", true, "user"))

	account, err := repo.FindByID(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, account.ID)
	assert.Equal(t, "a@b.com", account.Email)
	assert.True(t, account.ProfileComplete)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestEmailExists_NormalizesInput(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectQuery(`SELECT count\(\*\) FROM "accounts" WHERE email = \$1`).
		WithArgs("a@b.com").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	exists, err := repo.EmailExists(context.Background(), "  A@B.com")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTouchLogin(t *testing.T) {
	repo, mock := newMockRepo(t)
	mock.ExpectExec(`UPDATE "accounts" SET "last_login_at"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TouchLogin(context.Background(), uuid.New(), time.Now())
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTranslateError(t *testing.T) {
	other := errors.New("connection reset")

	tests := []struct {
		name string
		in   error
		want error
	}{
		{"nil", nil, nil},
		{"not found", gorm.ErrRecordNotFound, ErrNotFound},
		{"email unique", &pgconn.PgError{Code: "23505", ConstraintName: "idx_accounts_email"}, ErrDuplicateEmail},
		{"federated unique", &pgconn.PgError{Code: "23505", ConstraintName: "idx_accounts_federated_id"}, ErrDuplicateFederatedID},
		{"gorm duplicated", gorm.ErrDuplicatedKey, ErrDuplicateEmail},
		{"other", other, other},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translateError(tt.in)
			if tt.want == nil {
				assert.NoError(t, got)
				return
			}
			assert.ErrorIs(t, got, tt.want)
		})
	}
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\%\_off\\`, escapeLike(`50%_off\`))
}
