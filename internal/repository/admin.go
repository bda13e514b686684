package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cyberanytime/backend/internal/domain/model"
)

// AdminRepository — доступ к таблице admins.
// Администраторы создаются при регистрации и далее только читаются:
// ни одна операция API их не изменяет и не удаляет.
type AdminRepository interface {
	// Create создаёт администратора и заполняет ID.
	Create(ctx context.Context, admin *model.Admin) error
	// GetByID возвращает администратора по первичному ключу.
	GetByID(ctx context.Context, id int64) (*model.Admin, error)
	// GetByUsername возвращает администратора по имени пользователя.
	GetByUsername(ctx context.Context, username string) (*model.Admin, error)
}

// adminRepo — реализация AdminRepository.
type adminRepo struct {
	db DBTX
}

// NewAdminRepository создаёт репозиторий администраторов.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepo{db: db}
}

const adminColumns = `id, username, password, full_name`

// scanAdmin сканирует строку результата в модель Admin.
func scanAdmin(row pgx.Row) (*model.Admin, error) {
	admin := &model.Admin{}
	err := row.Scan(&admin.ID, &admin.Username, &admin.Password, &admin.FullName)
	return admin, err
}

func (r *adminRepo) Create(ctx context.Context, admin *model.Admin) error {
	query := `
		INSERT INTO admins (username, password, full_name)
		VALUES ($1, $2, $3)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		admin.Username, admin.Password, admin.FullName,
	).Scan(&admin.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: администратор с таким username уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания администратора: %w", err)
	}
	return nil
}

func (r *adminRepo) GetByID(ctx context.Context, id int64) (*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE id = $1`, adminColumns)
	admin, err := scanAdmin(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения администратора: %w", err)
	}
	return admin, nil
}

func (r *adminRepo) GetByUsername(ctx context.Context, username string) (*model.Admin, error) {
	query := fmt.Sprintf(`SELECT %s FROM admins WHERE username = $1`, adminColumns)
	admin, err := scanAdmin(r.db.QueryRow(ctx, query, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения администратора по username: %w", err)
	}
	return admin, nil
}
