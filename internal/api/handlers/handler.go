// handler.go — основной обработчик API.
// Объединяет все доменные обработчики и делегирует запросы в сервисный слой.
package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/cyberanytime/backend/internal/service"
	"github.com/cyberanytime/backend/internal/storage/imagestore"
)

// APIHandler — основной обработчик API.
// Делегирует запросы в сервисный слой и хранилище изображений.
type APIHandler struct {
	health *HealthHandler
	auth   *service.AuthService
	blog   *service.BlogService
	images *imagestore.ImageStore
	logger *slog.Logger
}

// NewAPIHandler создаёт основной обработчик API.
func NewAPIHandler(
	health *HealthHandler,
	auth *service.AuthService,
	blog *service.BlogService,
	images *imagestore.ImageStore,
	logger *slog.Logger,
) *APIHandler {
	return &APIHandler{
		health: health,
		auth:   auth,
		blog:   blog,
		images: images,
		logger: logger.With(slog.String("component", "api_handler")),
	}
}

// Root — GET /. Статусная страница сервиса.
func (h *APIHandler) Root(w http.ResponseWriter, r *http.Request) {
	h.health.Root(w, r)
}

// HealthLive — liveness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe (делегируется в HealthHandler).
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики (делегируется в HealthHandler).
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
