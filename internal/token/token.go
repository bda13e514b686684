// Пакет token — выпуск и проверка access-токенов администраторов.
// Симметричная подпись HS256 общим секретом (CA_JWT_SECRET),
// payload: sub (id администратора строкой) и exp (момент истечения).
// Отзыв, refresh и ротация не поддерживаются: токен действителен
// весь свой срок независимо от последующих изменений аккаунта.
package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Ошибки проверки токена.
var (
	// ErrInvalidToken — токен повреждён, просрочен или подпись не совпала.
	ErrInvalidToken = errors.New("невалидный токен")
	// ErrMissingSubject — в payload отсутствует claim sub.
	ErrMissingSubject = errors.New("в токене отсутствует sub")
)

// Service — сервис выпуска и проверки токенов.
type Service struct {
	secret []byte
	ttl    time.Duration

	// now подменяется в тестах для проверки истечения
	now func() time.Time
}

// New создаёт сервис токенов с указанным секретом и временем жизни.
func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// Issue выпускает токен для администратора с указанным id.
// exp = момент выпуска + TTL.
func (s *Service) Issue(adminID int64) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(adminID, 10),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := t.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("ошибка подписи токена: %w", err)
	}
	return signed, nil
}

// Verify проверяет подпись и срок действия токена и возвращает sub.
// Возвращает ErrInvalidToken при любой ошибке парсинга/подписи/истечения
// и ErrMissingSubject, если sub отсутствует.
func (s *Service) Verify(tokenString string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	t, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(func() time.Time { return s.now() }),
	)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrInvalidToken, err.Error())
	}
	if !t.Valid {
		return "", ErrInvalidToken
	}

	if claims.Subject == "" {
		return "", ErrMissingSubject
	}
	return claims.Subject, nil
}
