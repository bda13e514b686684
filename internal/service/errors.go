// errors.go — ошибки бизнес-логики сервисного слоя.
package service

import "errors"

var (
	// ErrNotFound — ресурс не найден.
	ErrNotFound = errors.New("ресурс не найден")
	// ErrConflict — конфликт (дублирующийся ресурс).
	ErrConflict = errors.New("конфликт — ресурс уже существует")
	// ErrInvalidCredentials — неверная пара username/password.
	// Одна ошибка на оба случая: несуществующий пользователь и
	// неверный пароль не различаются наружу.
	ErrInvalidCredentials = errors.New("неверное имя пользователя или пароль")
)
