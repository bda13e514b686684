// blog.go — бизнес-логика постов блога.
package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cyberanytime/backend/internal/domain/model"
	"github.com/cyberanytime/backend/internal/repository"
)

// BlogPostUpdate — частичное обновление поста.
// nil — поле не передано, оставить без изменений.
// Не-nil (включая пустую строку) — перезаписать: решает факт
// присутствия поля в запросе, а не его значение.
type BlogPostUpdate struct {
	Title      *string
	Content    *string
	MediaURL   *string
	AuthorName *string
}

// BlogService — CRUD постов блога с кэшем чтения по id.
type BlogService struct {
	posts  repository.BlogPostRepository
	cache  *PostCache
	logger *slog.Logger
}

// NewBlogService создаёт сервис постов. cache может быть nil (кэш отключён).
func NewBlogService(posts repository.BlogPostRepository, cache *PostCache, logger *slog.Logger) *BlogService {
	return &BlogService{
		posts:  posts,
		cache:  cache,
		logger: logger.With(slog.String("component", "blog_service")),
	}
}

// Create создаёт пост. Без проверки дубликатов: одинаковые посты допустимы.
func (s *BlogService) Create(ctx context.Context, post *model.BlogPost) error {
	if err := s.posts.Create(ctx, post); err != nil {
		return err
	}

	s.logger.Info("Создан пост",
		slog.Int64("id", post.ID),
		slog.String("title", post.Title),
	)
	return nil
}

// List возвращает все посты в порядке возрастания id.
func (s *BlogService) List(ctx context.Context) ([]*model.BlogPost, error) {
	return s.posts.List(ctx)
}

// Get возвращает пост по id, используя кэш чтения.
func (s *BlogService) Get(ctx context.Context, id int64) (*model.BlogPost, error) {
	if post, ok := s.cache.Get(id); ok {
		return post, nil
	}

	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Set(id, post)
	return post, nil
}

// Update применяет частичное обновление и возвращает обновлённый пост.
// Переданные поля перезаписываются независимо друг от друга.
func (s *BlogService) Update(ctx context.Context, id int64, upd BlogPostUpdate) (*model.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if upd.Title != nil {
		post.Title = *upd.Title
	}
	if upd.Content != nil {
		post.Content = *upd.Content
	}
	if upd.MediaURL != nil {
		post.MediaURL = upd.MediaURL
	}
	if upd.AuthorName != nil {
		post.AuthorName = *upd.AuthorName
	}

	if err := s.posts.Update(ctx, post); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.cache.Delete(id)
	return post, nil
}

// Delete удаляет пост и возвращает его заголовок для сообщения подтверждения.
func (s *BlogService) Delete(ctx context.Context, id int64) (string, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	if err := s.posts.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}

	s.cache.Delete(id)

	s.logger.Info("Удалён пост",
		slog.Int64("id", id),
		slog.String("title", post.Title),
	)
	return post.Title, nil
}
