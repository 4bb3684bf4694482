package persistence

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormUserRepository_FindByEmail(t *testing.T) {
	const email = "user@nextmail.com"

	t.Run("finds user by exact email", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		userID := uuid.New()
		rows := sqlmock.NewRows([]string{"id", "name", "email", "password"}).
			AddRow(userID, "User", email, "$2a$10$hash")

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 ORDER BY .* LIMIT .*`).
			WithArgs(email, 1).
			WillReturnRows(rows)

		user, err := NewGormUserRepository(db).FindByEmail(context.Background(), email)

		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
		assert.Equal(t, "$2a$10$hash", user.PasswordHash)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns not found for unknown email", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		mock.ExpectQuery(`SELECT \* FROM "users" WHERE email = \$1 ORDER BY .* LIMIT .*`).
			WithArgs("nobody@nextmail.com", 1).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		user, err := NewGormUserRepository(db).FindByEmail(context.Background(), "nobody@nextmail.com")

		assert.Nil(t, user)
		assert.Equal(t, shared.ErrNotFound, err)
	})

	t.Run("store failure is not a not found", func(t *testing.T) {
		db, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()

		cause := errors.New("connection refused")
		mock.ExpectQuery(`SELECT \* FROM "users"`).WillReturnError(cause)

		_, err := NewGormUserRepository(db).FindByEmail(context.Background(), email)

		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, shared.ErrNotFound)
	})
}
