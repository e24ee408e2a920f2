// auth.go implements sign-in, token refresh, and the current-user endpoint.
package admin

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/api/envelope"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/auth"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/models"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/db/repositories"
	"github.com/shavkatbegmatov/jalyuzi-epr-sub000/internal/middleware"
)

// AuthHandlers handles authentication endpoints.
type AuthHandlers struct {
	users  *repositories.UserRepository
	tokens *auth.Service
}

// NewAuthHandlers creates a new AuthHandlers instance.
func NewAuthHandlers(db *sql.DB, tokens *auth.Service) *AuthHandlers {
	return &AuthHandlers{
		users:  repositories.NewUserRepository(db),
		tokens: tokens,
	}
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	User   *models.User   `json:"user"`
	Tokens auth.TokenPair `json:"tokens"`
}

// LoginHandler checks credentials and issues a token pair.
// POST /api/v1/auth/login
func (h *AuthHandlers) LoginHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "username and password are required")
			return
		}

		user, err := h.users.GetUserByUsername(c.Request.Context(), req.Username)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Kirishda xatolik yuz berdi")
			return
		}
		if user == nil || !user.Active || !auth.CheckPassword(user.PasswordHash, req.Password) {
			envelope.Error(c, http.StatusUnauthorized, "Login yoki parol noto'g'ri")
			return
		}

		tokens, err := h.tokens.GenerateTokenPair(user.ID, user.Username, user.Role)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Kirishda xatolik yuz berdi")
			return
		}

		if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID, time.Now()); err != nil {
			slog.Warn("failed to update last login", "user_id", user.ID, "error", err)
		}

		envelope.OK(c, "OK", loginResponse{User: user, Tokens: tokens})
	}
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshHandler rotates an access/refresh token pair.
// POST /api/v1/auth/refresh
func (h *AuthHandlers) RefreshHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			envelope.Error(c, http.StatusBadRequest, "refreshToken is required")
			return
		}

		outcome, err := h.tokens.Refresh(req.RefreshToken)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Tokenni yangilab bo'lmadi")
			return
		}
		if !outcome.Refreshed {
			envelope.Error(c, http.StatusUnauthorized, "Sessiya muddati tugagan, qaytadan kiring")
			return
		}

		envelope.OK(c, "OK", outcome.Tokens)
	}
}

// MeHandler returns the authenticated user's account.
// GET /api/v1/auth/me
func (h *AuthHandlers) MeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(middleware.UserIDKey)

		user, err := h.users.GetUserByID(c.Request.Context(), userID)
		if err != nil {
			envelope.Error(c, http.StatusInternalServerError, "Foydalanuvchini yuklab bo'lmadi")
			return
		}
		if user == nil {
			envelope.Error(c, http.StatusNotFound, "Foydalanuvchi topilmadi")
			return
		}

		envelope.OK(c, "OK", user)
	}
}
