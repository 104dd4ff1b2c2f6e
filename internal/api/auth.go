package api

import (
	"database/sql"
	"net/http"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/h-tadlaoui/nova-app/internal/auth"
	"github.com/h-tadlaoui/nova-app/internal/model"
	"github.com/h-tadlaoui/nova-app/internal/store"
)

// AuthHandler handles account and session endpoints.
type AuthHandler struct {
	DB     *sql.DB
	Tokens *auth.Manager
}

type registerRequest struct {
	Email    string `json:"email"    validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	Phone    string `json:"phone"    validate:"omitempty,max=32"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password"     validate:"required"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := model.ValidatePassword("password", req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	existing, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if existing != nil {
		jsonError(w, http.StatusConflict, "email already registered")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := store.CreateUser(r.Context(), h.DB, req.Email, req.Phone, string(hash), model.RoleUser)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger(r).Info().Int64("user_id", user.ID).Msg("user registered")
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := store.GetUserByEmail(r.Context(), h.DB, req.Email)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil {
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		logger(r).Warn().Str("remote", r.RemoteAddr).Int64("user_id", user.ID).Msg("login failed")
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, claims, err := h.Tokens.Issue(user.ID, user.Email, user.Role)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger(r).Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("user logged in")
	jsonResponse(w, http.StatusOK, loginResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user})
}

// Logout handles POST /api/auth/logout. The presented token is revoked
// until it would have expired.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	expires := time.Now().Add(h.Tokens.TTL())
	if claims.ExpiresAt != nil {
		expires = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expires); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if _, err := store.PurgeRevokedTokens(r.Context(), h.DB, time.Now()); err != nil {
		logger(r).Warn().Err(err).Msg("purging revoked tokens")
	}

	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	if claims == nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var req changePasswordRequest
	if err := bindJSON(w, r, &req); err != nil {
		writeServiceError(w, r, err)
		return
	}
	if err := model.ValidatePassword("new_password", req.NewPassword); err != nil {
		writeServiceError(w, r, err)
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, claims.UserID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil || user.DeletedAt != nil {
		jsonError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := store.UpdateUserPassword(r.Context(), h.DB, claims.UserID, string(hash)); err != nil {
		writeServiceError(w, r, err)
		return
	}

	logger(r).Info().Msg("user changed own password")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}
