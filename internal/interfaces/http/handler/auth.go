package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	appidentity "github.com/rdietscht/ACME-NextJS-Tutorial/internal/application/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/domain/identity"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/auth"
	"github.com/rdietscht/ACME-NextJS-Tutorial/internal/infrastructure/logger"
	"go.uber.org/zap"
)

// LoginResponse is returned on successful sign-in
type LoginResponse struct {
	Session *auth.Session      `json:"session"`
	User    *identity.Identity `json:"user"`
}

// AuthHandler handles sign-in
type AuthHandler struct {
	BaseHandler
	authenticator *appidentity.Authenticator
	sessions      *auth.SessionService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authenticator *appidentity.Authenticator, sessions *auth.SessionService) *AuthHandler {
	return &AuthHandler{
		authenticator: authenticator,
		sessions:      sessions,
	}
}

// Login godoc
// @Summary      Sign in
// @Description  Verify email and password and issue a session token
// @Tags         auth
// @Accept       json,x-www-form-urlencoded
// @Produce      json
// @Param        request body appidentity.Credentials true "Credentials"
// @Success      200 {object} dto.Response{data=LoginResponse}
// @Failure      401 {object} dto.Response{error=dto.ErrorInfo}
// @Failure      503 {object} dto.Response{error=dto.ErrorInfo}
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var creds appidentity.Credentials
	var err error
	if isJSONRequest(c) {
		err = c.ShouldBindJSON(&creds)
	} else {
		err = c.ShouldBindWith(&creds, binding.Form)
	}
	if err != nil {
		h.BadRequest(c, "Invalid request body")
		return
	}

	ctx := c.Request.Context()
	id, err := h.authenticator.Authenticate(ctx, creds)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	session, err := h.sessions.Issue(id)
	if err != nil {
		logger.L(ctx).Error("Failed to issue session", zap.Error(err))
		h.InternalError(c, "Failed to sign in")
		return
	}

	h.Success(c, LoginResponse{Session: session, User: id})
}
