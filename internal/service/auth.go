// auth.go — бизнес-логика регистрации и входа администраторов.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cyberanytime/backend/internal/domain/model"
	"github.com/cyberanytime/backend/internal/repository"
)

// TokenIssuer — выпуск access-токена для администратора.
// Реализуется token.Service.
type TokenIssuer interface {
	Issue(adminID int64) (string, error)
}

// AuthService — регистрация, вход и загрузка администраторов.
type AuthService struct {
	admins repository.AdminRepository
	tokens TokenIssuer
	logger *slog.Logger
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(admins repository.AdminRepository, tokens TokenIssuer, logger *slog.Logger) *AuthService {
	return &AuthService{
		admins: admins,
		tokens: tokens,
		logger: logger.With(slog.String("component", "auth_service")),
	}
}

// Signup создаёт нового администратора и выпускает для него токен.
// Уникальность username проверяется предварительным запросом
// (check-then-insert); конкурентная регистрация одинаковых username
// упрётся в UNIQUE-ограничение схемы и тоже вернёт ErrConflict.
// Пароль сохраняется как есть, без преобразований.
func (s *AuthService) Signup(ctx context.Context, username, password, fullName string) (*model.Admin, string, error) {
	// Предварительная проверка занятости username
	_, err := s.admins.GetByUsername(ctx, username)
	if err == nil {
		return nil, "", fmt.Errorf("%w: username %q занят", ErrConflict, username)
	}
	if !errors.Is(err, repository.ErrNotFound) {
		return nil, "", fmt.Errorf("ошибка проверки username: %w", err)
	}

	admin := &model.Admin{
		Username: username,
		Password: password,
		FullName: fullName,
	}
	if err := s.admins.Create(ctx, admin); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, "", fmt.Errorf("%w: username %q занят", ErrConflict, username)
		}
		return nil, "", err
	}

	tok, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, "", err
	}

	s.logger.Info("Зарегистрирован новый администратор",
		slog.Int64("id", admin.ID),
		slog.String("username", admin.Username),
	)

	return admin, tok, nil
}

// Login проверяет пару username/password и выпускает токен.
// Несуществующий пользователь и неверный пароль возвращают одну и ту же
// ErrInvalidCredentials — наружу причина отказа не различается.
// Сравнение паролей — точное сравнение открытого текста.
func (s *AuthService) Login(ctx context.Context, username, password string) (*model.Admin, string, error) {
	admin, err := s.admins.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}

	if admin.Password != password {
		return nil, "", ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(admin.ID)
	if err != nil {
		return nil, "", err
	}

	return admin, tok, nil
}

// GetAdmin возвращает администратора по id.
// Используется auth guard'ом для резолва sub токена в запись admins.
func (s *AuthService) GetAdmin(ctx context.Context, id int64) (*model.Admin, error) {
	admin, err := s.admins.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return admin, nil
}
