package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	appidentity "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/auth"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/config"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/dto"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/interfaces/http/middleware"
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

func testSessionService() *auth.SessionService {
	return auth.NewSessionService(config.SessionConfig{
		Secret: "test-secret-key-32-characters-long",
		TTL:    time.Hour,
		Issuer: "invoice-dashboard",
	})
}

func setupAuthRouter(t *testing.T, users *MockUserRepository, sessions *auth.SessionService) *gin.Engine {
	authenticator, err := appidentity.NewAuthenticator(users, bcrypt.MinCost, zap.NewNop())
	require.NoError(t, err)

	router := gin.New()
	router.Use(middleware.RequestID())
	router.POST("/auth/login", NewAuthHandler(authenticator, sessions).Login)
	return router
}

func TestAuthHandler_Login(t *testing.T) {
	user, err := identity.NewUser("User", "user@nextmail.com", "123456", bcrypt.MinCost)
	require.NoError(t, err)

	t.Run("issues a session for valid credentials", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@nextmail.com").Return(user, nil)
		sessions := testSessionService()
		router := setupAuthRouter(t, users, sessions)

		w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"user@nextmail.com","password":"123456"}`)

		require.Equal(t, http.StatusOK, w.Code)
		var resp struct {
			Success bool          `json:"success"`
			Data    LoginResponse `json:"data"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.Equal(t, user.ID, resp.Data.User.ID)
		assert.Equal(t, "Bearer", resp.Data.Session.TokenType)
		assert.NotContains(t, w.Body.String(), user.PasswordHash)

		claims, err := sessions.Parse(resp.Data.Session.Token)
		require.NoError(t, err)
		assert.Equal(t, user.ID.String(), claims.Subject)
	})

	t.Run("accepts form posts", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@nextmail.com").Return(user, nil)
		router := setupAuthRouter(t, users, testSessionService())

		w := doForm(router, http.MethodPost, "/auth/login", url.Values{
			"email":    {"user@nextmail.com"},
			"password": {"123456"},
		})

		assert.Equal(t, http.StatusOK, w.Code)
	})

	denied := []struct {
		name  string
		body  string
		setup func(*MockUserRepository)
	}{
		{
			name: "wrong password",
			body: `{"email":"user@nextmail.com","password":"654321"}`,
			setup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "user@nextmail.com").Return(user, nil)
			},
		},
		{
			name: "unknown email",
			body: `{"email":"nobody@nextmail.com","password":"123456"}`,
			setup: func(m *MockUserRepository) {
				m.On("FindByEmail", mock.Anything, "nobody@nextmail.com").Return(nil, shared.ErrNotFound)
			},
		},
		{
			name:  "short password",
			body:  `{"email":"user@nextmail.com","password":"123"}`,
			setup: func(*MockUserRepository) {},
		},
	}

	for _, tt := range denied {
		t.Run(tt.name, func(t *testing.T) {
			users := new(MockUserRepository)
			tt.setup(users)
			router := setupAuthRouter(t, users, testSessionService())

			w := doJSON(router, http.MethodPost, "/auth/login", tt.body)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			var resp dto.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, dto.ErrCodeInvalidCredentials, resp.Error.Code)
			assert.Equal(t, "Invalid credentials.", resp.Error.Message)
		})
	}
	t.Run("store failure is unavailable", func(t *testing.T) {
		users := new(MockUserRepository)
		users.On("FindByEmail", mock.Anything, "user@nextmail.com").Return(nil, errors.New("connection refused"))
		router := setupAuthRouter(t, users, testSessionService())

		w := doJSON(router, http.MethodPost, "/auth/login", `{"email":"user@nextmail.com","password":"123456"}`)

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})
}
