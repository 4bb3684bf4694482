// Package identity verifies dashboard sign-in credentials.
package identity

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/shared"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrInvalidCredentials is the single answer to every denied sign-in.
	// It does not reveal whether the email or the password was wrong.
	ErrInvalidCredentials = shared.NewDomainError("INVALID_CREDENTIALS", "Invalid credentials.")
	// ErrAuthUnavailable means the user store could not be queried
	ErrAuthUnavailable = shared.NewDomainError("AUTH_UNAVAILABLE", "Failed to fetch user.")
)

// Credentials are the sign-in form fields
type Credentials struct {
	Email    string `json:"email" form:"email" validate:"required,email"`
	Password string `json:"password" form:"password" validate:"required,min=6"`
}

// Authenticator checks credentials against stored password hashes
type Authenticator struct {
	users     identity.UserRepository
	validate  *validator.Validate
	dummyHash []byte
	logger    *zap.Logger
}

// NewAuthenticator creates an Authenticator. cost is the bcrypt cost of
// stored hashes; unknown emails are checked against a dummy hash of the
// same cost so they take as long as a wrong password.
func NewAuthenticator(users identity.UserRepository, cost int, logger *zap.Logger) (*Authenticator, error) {
	secret := make([]byte, 16)
	if _, err := rand.Read(secret); err != nil {
		return nil, err
	}
	dummy, err := bcrypt.GenerateFromPassword([]byte(hex.EncodeToString(secret)), cost)
	if err != nil {
		return nil, err
	}

	return &Authenticator{
		users:     users,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		dummyHash: dummy,
		logger:    logger,
	}, nil
}

// Authenticate returns the identity of the user the credentials belong to.
// Malformed input, unknown email and wrong password all yield
// ErrInvalidCredentials. A failing user store yields ErrAuthUnavailable,
// wrapping the cause.
func (a *Authenticator) Authenticate(ctx context.Context, creds Credentials) (*identity.Identity, error) {
	log := logger.WithLogger(ctx, a.logger)

	if err := a.validate.Struct(creds); err != nil {
		log.Info("Rejected malformed credentials")
		return nil, ErrInvalidCredentials
	}

	user, err := a.users.FindByEmail(ctx, creds.Email)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		// Spend the same bcrypt work as a real comparison
		_ = bcrypt.CompareHashAndPassword(a.dummyHash, []byte(creds.Password))
		log.Info("Sign-in denied")
		return nil, ErrInvalidCredentials
	case err != nil:
		log.Error("Failed to fetch user", zap.Error(err))
		return nil, ErrAuthUnavailable.WithCause(err)
	}

	if !user.VerifyPassword(creds.Password) {
		log.Info("Sign-in denied")
		return nil, ErrInvalidCredentials
	}

	log.Info("Sign-in succeeded", zap.String("user_id", user.ID.String()))
	return user.Identity(), nil
}
