// blog.go — обработчики /api/blog endpoints.
// Чтение публичное, изменения — только для аутентифицированного администратора.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	apierrors "github.com/cyberanytime/backend/internal/api/errors"
	"github.com/cyberanytime/backend/internal/domain/model"
	"github.com/cyberanytime/backend/internal/service"
)

// createPostRequest — тело запроса создания записи.
type createPostRequest struct {
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	MediaURL   *string `json:"media_url"`
	AuthorName string  `json:"author_name"`
}

// updatePostRequest — тело запроса частичного изменения записи.
// Отсутствующее поле не меняется; присутствующее (в том числе пустая
// строка) перезаписывает значение.
type updatePostRequest struct {
	Title      *string `json:"title"`
	Content    *string `json:"content"`
	MediaURL   *string `json:"media_url"`
	AuthorName *string `json:"author_name"`
}

// blogPostResponse — представление записи блога в API.
type blogPostResponse struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	MediaURL   *string `json:"media_url"`
	AuthorName string  `json:"author_name"`
}

// messageResponse — ответ с одним текстовым сообщением.
type messageResponse struct {
	Message string `json:"message"`
}

func toBlogPostResponse(post *model.BlogPost) blogPostResponse {
	return blogPostResponse{
		ID:         post.ID,
		Title:      post.Title,
		Content:    post.Content,
		MediaURL:   post.MediaURL,
		AuthorName: post.AuthorName,
	}
}

// postIDFromURL извлекает id записи из URL.
func postIDFromURL(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// CreateBlogPost — POST /api/blog. Требует auth guard.
func (h *APIHandler) CreateBlogPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" || req.AuthorName == "" {
		apierrors.ValidationError(w, "title, content and author_name are required")
		return
	}

	post := &model.BlogPost{
		Title:      req.Title,
		Content:    req.Content,
		MediaURL:   req.MediaURL,
		AuthorName: req.AuthorName,
	}
	if err := h.blog.Create(r.Context(), post); err != nil {
		h.logger.Error("Ошибка создания записи блога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to create blog post")
		return
	}

	writeJSON(w, http.StatusCreated, toBlogPostResponse(post))
}

// ListBlogPosts — GET /api/blog. Публичный.
func (h *APIHandler) ListBlogPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.blog.List(r.Context())
	if err != nil {
		h.logger.Error("Ошибка чтения списка записей", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to list blog posts")
		return
	}

	// всегда массив, даже пустой
	resp := make([]blogPostResponse, 0, len(posts))
	for _, post := range posts {
		resp = append(resp, toBlogPostResponse(post))
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetBlogPost — GET /api/blog/{id}. Публичный.
func (h *APIHandler) GetBlogPost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Invalid blog post id")
		return
	}

	post, err := h.blog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Blog post not found")
			return
		}
		h.logger.Error("Ошибка чтения записи блога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to get blog post")
		return
	}

	writeJSON(w, http.StatusOK, toBlogPostResponse(post))
}

// UpdateBlogPost — PUT /api/blog/{id}. Требует auth guard.
func (h *APIHandler) UpdateBlogPost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Invalid blog post id")
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		apierrors.ValidationError(w, "Invalid request body")
		return
	}

	post, err := h.blog.Update(r.Context(), id, service.BlogPostUpdate{
		Title:      req.Title,
		Content:    req.Content,
		MediaURL:   req.MediaURL,
		AuthorName: req.AuthorName,
	})
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Blog post not found")
			return
		}
		h.logger.Error("Ошибка изменения записи блога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to update blog post")
		return
	}

	writeJSON(w, http.StatusOK, toBlogPostResponse(post))
}

// DeleteBlogPost — DELETE /api/blog/{id}. Требует auth guard.
func (h *APIHandler) DeleteBlogPost(w http.ResponseWriter, r *http.Request) {
	id, err := postIDFromURL(r)
	if err != nil {
		apierrors.ValidationError(w, "Invalid blog post id")
		return
	}

	title, err := h.blog.Delete(r.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			apierrors.NotFound(w, "Blog post not found")
			return
		}
		h.logger.Error("Ошибка удаления записи блога", slog.String("error", err.Error()))
		apierrors.InternalError(w, "Failed to delete blog post")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Message: fmt.Sprintf("Blog post '%s' deleted successfully", title),
	})
}
