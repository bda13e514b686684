// auth.go — обработчики /api/auth endpoints.
// POST /api/auth/signup — регистрация администратора
// POST /api/auth/login  — вход по логину и паролю
// GET  /api/auth/me     — текущий администратор из контекста
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	apierrors "github.com/cyberanytime/backend/internal/api/errors"
	"github.com/cyberanytime/backend/internal/api/middleware"
	"github.com/cyberanytime/backend/internal/service"
)

// signupRequest — тело запроса регистрации.
type signupRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
}

// loginRequest — тело запроса входа.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// tokenResponse — ответ signup и login.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	Username    string `json:"username"`
}

// adminProfileResponse — ответ /api/auth/me.
type adminProfileResponse struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
}

// Signup — POST /api/auth/signup.
// Создаёт администратора и сразу выдаёт access token.
func (h *APIHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" || req.FullName == "" {
		apierrors.ValidationError(w, "username, password and full_name are required")
		return
	}

	admin, token, err := h.auth.Signup(r.Context(), req.Username, req.Password, req.FullName)
	if err != nil {
		if errors.Is(err, service.ErrConflict) {
			apierrors.Conflict(w, "Username already exists")
			return
		}
		h.logger.Error("Ошибка регистрации администратора", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to create admin")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    admin.Username,
	})
}

// Login — POST /api/auth/login.
// Неизвестный пользователь и неверный пароль дают одно и то же сообщение.
func (h *APIHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		apierrors.ValidationError(w, "username and password are required")
		return
	}

	admin, token, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			apierrors.Unauthorized(w, "Invalid username or password")
			return
		}
		h.logger.Error("Ошибка входа", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to log in")
		return
	}

	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "bearer",
		Username:    admin.Username,
	})
}

// Me — GET /api/auth/me. Требует auth guard.
func (h *APIHandler) Me(w http.ResponseWriter, r *http.Request) {
	admin := middleware.AdminFromContext(r.Context())
	if admin == nil {
		apierrors.Unauthorized(w, "Not authenticated")
		return
	}

	writeJSON(w, http.StatusOK, adminProfileResponse{
		ID:       admin.ID,
		Username: admin.Username,
		FullName: admin.FullName,
	})
}
