package identity

import (
	"context"
	"errors"
	"testing"

	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

const (
	testEmail    = "user@nextmail.com"
	testPassword = "123456"
)

func newTestAuthenticator(t *testing.T) (*Authenticator, *MockUserRepository, *identity.User) {
	t.Helper()
	repo := new(MockUserRepository)
	auth, err := NewAuthenticator(repo, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)

	user, err := identity.NewUser("User", testEmail, testPassword, bcrypt.MinCost)
	require.NoError(t, err)
	return auth, repo, user
}

func TestAuthenticator_Authenticate(t *testing.T) {
	ctx := context.Background()

	t.Run("correct credentials return identity without hash", func(t *testing.T) {
		auth, repo, user := newTestAuthenticator(t)
		repo.On("FindByEmail", ctx, testEmail).Return(user, nil).Once()

		id, err := auth.Authenticate(ctx, Credentials{Email: testEmail, Password: testPassword})
		require.NoError(t, err)
		assert.Equal(t, user.ID, id.ID)
		assert.Equal(t, testEmail, id.Email)
		assert.Equal(t, "User", id.Name)
	})

	t.Run("wrong password is denied", func(t *testing.T) {
		auth, repo, user := newTestAuthenticator(t)
		repo.On("FindByEmail", ctx, testEmail).Return(user, nil).Once()

		id, err := auth.Authenticate(ctx, Credentials{Email: testEmail, Password: "654321"})
		assert.Nil(t, id)
		assert.Same(t, ErrInvalidCredentials, err)
	})

	t.Run("unknown email is denied identically", func(t *testing.T) {
		auth, repo, _ := newTestAuthenticator(t)
		repo.On("FindByEmail", ctx, "nobody@nextmail.com").Return(nil, shared.ErrNotFound).Once()

		id, err := auth.Authenticate(ctx, Credentials{Email: "nobody@nextmail.com", Password: testPassword})
		assert.Nil(t, id)
		assert.Same(t, ErrInvalidCredentials, err)
		repo.AssertExpectations(t)
	})

	t.Run("wrapped not found is still a denial", func(t *testing.T) {
		auth, repo, _ := newTestAuthenticator(t)
		repo.On("FindByEmail", ctx, testEmail).
			Return(nil, shared.ErrNotFound.WithCause(errors.New("record not found"))).Once()

		_, err := auth.Authenticate(ctx, Credentials{Email: testEmail, Password: testPassword})
		assert.Same(t, ErrInvalidCredentials, err)
	})

	t.Run("email match is case sensitive", func(t *testing.T) {
		auth, repo, _ := newTestAuthenticator(t)
		repo.On("FindByEmail", ctx, "User@nextmail.com").Return(nil, shared.ErrNotFound).Once()

		_, err := auth.Authenticate(ctx, Credentials{Email: "User@nextmail.com", Password: testPassword})
		assert.Same(t, ErrInvalidCredentials, err)
	})

	malformed := map[string]Credentials{
		"bad email":      {Email: "not-an-email", Password: testPassword},
		"empty email":    {Email: "", Password: testPassword},
		"short password": {Email: testEmail, Password: "12345"},
		"empty password": {Email: testEmail, Password: ""},
	}
	for name, creds := range malformed {
		t.Run(name+" never reaches storage", func(t *testing.T) {
			auth, repo, _ := newTestAuthenticator(t)

			_, err := auth.Authenticate(ctx, creds)
			assert.Same(t, ErrInvalidCredentials, err)
			repo.AssertNotCalled(t, "FindByEmail", mock.Anything, mock.Anything)
		})
	}

	t.Run("store failure is a distinct error", func(t *testing.T) {
		auth, repo, _ := newTestAuthenticator(t)
		cause := errors.New("dial tcp 127.0.0.1:5432: connect: connection refused")
		repo.On("FindByEmail", ctx, testEmail).Return(nil, cause).Once()

		id, err := auth.Authenticate(ctx, Credentials{Email: testEmail, Password: testPassword})
		assert.Nil(t, id)
		assert.ErrorIs(t, err, ErrAuthUnavailable)
		assert.ErrorIs(t, err, cause)
		assert.NotErrorIs(t, err, ErrInvalidCredentials)
		assert.Equal(t, "Failed to fetch user.", err.Error())
	})
}
