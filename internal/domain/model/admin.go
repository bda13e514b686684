// Пакет model — доменные модели бэкенда Cyber Anytime.
package model

// Admin — администратор сайта. Хранится в таблице admins.
//
// Пароль хранится и сравнивается в открытом виде — поведение
// унаследовано от исходной системы и зафиксировано контрактом API.
// Известный дефект безопасности.
type Admin struct {
	// ID — первичный ключ (автоинкремент)
	ID int64
	// Username — уникальное имя для входа
	Username string
	// Password — пароль в открытом виде
	Password string
	// FullName — полное имя администратора
	FullName string
}
