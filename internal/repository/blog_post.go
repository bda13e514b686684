package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/cyberanytime/backend/internal/domain/model"
)

// BlogPostRepository — CRUD для таблицы blog_posts.
type BlogPostRepository interface {
	// Create создаёт пост и заполняет ID.
	Create(ctx context.Context, post *model.BlogPost) error
	// GetByID возвращает пост по первичному ключу.
	GetByID(ctx context.Context, id int64) (*model.BlogPost, error)
	// List возвращает все посты в порядке возрастания id.
	List(ctx context.Context) ([]*model.BlogPost, error)
	// Update перезаписывает все изменяемые поля поста.
	Update(ctx context.Context, post *model.BlogPost) error
	// Delete удаляет пост.
	Delete(ctx context.Context, id int64) error
}

// blogPostRepo — реализация BlogPostRepository.
type blogPostRepo struct {
	db DBTX
}

// NewBlogPostRepository создаёт репозиторий постов блога.
func NewBlogPostRepository(db DBTX) BlogPostRepository {
	return &blogPostRepo{db: db}
}

const blogPostColumns = `id, title, content, media_url, author_name`

// scanBlogPost сканирует строку результата в модель BlogPost.
func scanBlogPost(row pgx.Row) (*model.BlogPost, error) {
	post := &model.BlogPost{}
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.MediaURL, &post.AuthorName)
	return post, err
}

func (r *blogPostRepo) Create(ctx context.Context, post *model.BlogPost) error {
	query := `
		INSERT INTO blog_posts (title, content, media_url, author_name)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	err := r.db.QueryRow(ctx, query,
		post.Title, post.Content, post.MediaURL, post.AuthorName,
	).Scan(&post.ID)
	if err != nil {
		return fmt.Errorf("ошибка создания поста: %w", err)
	}
	return nil
}

func (r *blogPostRepo) GetByID(ctx context.Context, id int64) (*model.BlogPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM blog_posts WHERE id = $1`, blogPostColumns)
	post, err := scanBlogPost(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("ошибка получения поста: %w", err)
	}
	return post, nil
}

func (r *blogPostRepo) List(ctx context.Context) ([]*model.BlogPost, error) {
	query := fmt.Sprintf(`SELECT %s FROM blog_posts ORDER BY id`, blogPostColumns)

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ошибка получения списка постов: %w", err)
	}
	defer rows.Close()

	var result []*model.BlogPost
	for rows.Next() {
		post := &model.BlogPost{}
		if err := rows.Scan(&post.ID, &post.Title, &post.Content, &post.MediaURL, &post.AuthorName); err != nil {
			return nil, fmt.Errorf("ошибка сканирования поста: %w", err)
		}
		result = append(result, post)
	}
	return result, rows.Err()
}

func (r *blogPostRepo) Update(ctx context.Context, post *model.BlogPost) error {
	query := `
		UPDATE blog_posts
		SET title = $2, content = $3, media_url = $4, author_name = $5
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query,
		post.ID, post.Title, post.Content, post.MediaURL, post.AuthorName,
	)
	if err != nil {
		return fmt.Errorf("ошибка обновления поста: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *blogPostRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM blog_posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("ошибка удаления поста: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
