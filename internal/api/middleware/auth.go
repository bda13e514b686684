// auth.go — middleware аутентификации администратора.
// Извлекает Bearer token из заголовка Authorization, проверяет его через
// сервис токенов, загружает администратора по sub и помещает его
// в контекст запроса. Любая ошибка прерывает запрос с 401.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	apierrors "github.com/cyberanytime/backend/internal/api/errors"
	"github.com/cyberanytime/backend/internal/domain/model"
)

// contextKey — тип для ключей контекста (избегаем коллизий).
type contextKey string

// contextKeyAdmin — ключ для аутентифицированного администратора в контексте.
const contextKeyAdmin contextKey = "auth_admin"

// TokenVerifier — проверка access-токена. Реализуется token.Service.
type TokenVerifier interface {
	// Verify возвращает sub токена или ошибку.
	Verify(tokenString string) (string, error)
}

// AdminProvider — загрузка администратора по id.
// Реализуется service.AuthService.
type AdminProvider interface {
	GetAdmin(ctx context.Context, id int64) (*model.Admin, error)
}

// AuthGuard — middleware аутентификации администратора.
type AuthGuard struct {
	tokens TokenVerifier
	admins AdminProvider
	logger *slog.Logger
}

// NewAuthGuard создаёт middleware аутентификации.
func NewAuthGuard(tokens TokenVerifier, admins AdminProvider, logger *slog.Logger) *AuthGuard {
	return &AuthGuard{
		tokens: tokens,
		admins: admins,
		logger: logger.With(slog.String("component", "auth_guard")),
	}
}

// Middleware возвращает HTTP middleware аутентификации.
// Сообщения об ошибках намеренно не различают причину отказа
// детальнее, чем "Not authenticated" / "Invalid token" / "Admin not found".
func (g *AuthGuard) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Извлекаем Bearer token
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				apierrors.Unauthorized(w, "Not authenticated")
				return
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
				apierrors.Unauthorized(w, "Not authenticated")
				return
			}

			// Проверяем подпись и срок действия
			subject, err := g.tokens.Verify(parts[1])
			if err != nil {
				g.logger.Debug("Токен не прошёл проверку",
					slog.String("error", err.Error()),
					slog.String("remote_addr", r.RemoteAddr),
				)
				apierrors.Unauthorized(w, "Invalid token")
				return
			}

			// sub — id администратора строкой
			adminID, err := strconv.ParseInt(subject, 10, 64)
			if err != nil {
				apierrors.Unauthorized(w, "Invalid token")
				return
			}

			// Загружаем администратора
			admin, err := g.admins.GetAdmin(r.Context(), adminID)
			if err != nil {
				apierrors.Unauthorized(w, "Admin not found")
				return
			}

			// Имя администратора попадает в журнал запроса
			if entry := requestLogFromContext(r.Context()); entry != nil {
				entry.setAdmin(admin.Username)
			}

			ctx := context.WithValue(r.Context(), contextKeyAdmin, admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// AdminFromContext извлекает аутентифицированного администратора из контекста.
// Возвращает nil, если guard не отработал (запрос без аутентификации).
func AdminFromContext(ctx context.Context) *model.Admin {
	admin, _ := ctx.Value(contextKeyAdmin).(*model.Admin)
	return admin
}
