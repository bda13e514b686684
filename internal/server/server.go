// Пакет server — HTTP-сервер административного backend с graceful shutdown.
// Без TLS — TLS termination выполняется на reverse proxy.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	pathpkg "path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/go-chi/chi/v5"

	"github.com/cyberanytime/backend/internal/api/handlers"
	"github.com/cyberanytime/backend/internal/api/middleware"
	"github.com/cyberanytime/backend/internal/config"
)

// Server — HTTP-сервер административного backend.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
	cfg        *config.Config
}

// NewRouter собирает маршруты сервиса.
// guard применяется только к административным маршрутам; чтение блога,
// статика /uploads и health endpoints — публичные.
func NewRouter(handler *handlers.APIHandler, guard *middleware.AuthGuard, uploadDir string, middlewares ...func(http.Handler) http.Handler) chi.Router {
	router := chi.NewRouter()

	for _, mw := range middlewares {
		router.Use(mw)
	}

	// Статусные endpoints
	router.Get("/", handler.Root)
	router.Get("/health/live", handler.HealthLive)
	router.Get("/health/ready", handler.HealthReady)
	router.Get("/metrics", handler.GetMetrics)

	// Статика: загруженные изображения
	router.Get("/uploads/*", uploadsHandler(uploadDir).ServeHTTP)

	router.Route("/api", func(r chi.Router) {
		// Аутентификация
		r.Post("/auth/signup", handler.Signup)
		r.Post("/auth/login", handler.Login)
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware())
			r.Get("/auth/me", handler.Me)
		})

		// Блог: чтение публичное, изменения под guard
		r.Get("/blog", handler.ListBlogPosts)
		r.Get("/blog/{id}", handler.GetBlogPost)
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware())
			r.Post("/blog", handler.CreateBlogPost)
			r.Put("/blog/{id}", handler.UpdateBlogPost)
			r.Delete("/blog/{id}", handler.DeleteBlogPost)
		})

		// Загрузка изображений — только для администратора
		r.Group(func(r chi.Router) {
			r.Use(guard.Middleware())
			r.Post("/upload", handler.UploadImage)
			r.Get("/upload/list", handler.ListImages)
		})
	})

	return router
}

// uploadsHandler отдаёт файлы из директории загрузок.
// Запрос каталога (в том числе /uploads/) возвращает 404:
// перечень загруженных файлов доступен только администратору
// через /api/upload/list.
func uploadsHandler(dir string) http.Handler {
	fs := http.StripPrefix("/uploads/", http.FileServer(http.Dir(dir)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimPrefix(r.URL.Path, "/uploads/")
		if name == "" || strings.HasSuffix(name, "/") {
			http.NotFound(w, r)
			return
		}

		path := filepath.Join(dir, filepath.FromSlash(pathpkg.Clean("/"+name)))
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			http.NotFound(w, r)
			return
		}

		fs.ServeHTTP(w, r)
	})
}

// New создаёт HTTP-сервер с настроенными маршрутами и middleware.
func New(cfg *config.Config, logger *slog.Logger, handler *handlers.APIHandler, guard *middleware.AuthGuard, middlewares ...func(http.Handler) http.Handler) *Server {
	router := NewRouter(handler, guard, cfg.UploadDir, middlewares...)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: router,
	}

	return &Server{
		httpServer: srv,
		logger:     logger,
		cfg:        cfg,
	}
}

// Run запускает сервер и ожидает сигнала завершения (SIGINT, SIGTERM).
// При получении сигнала выполняется graceful shutdown.
func (s *Server) Run() error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("HTTP-сервер запущен",
			slog.String("addr", s.httpServer.Addr),
		)

		err := s.httpServer.ListenAndServe()
		if err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-quit:
		s.logger.Info("Получен сигнал завершения", slog.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("ошибка HTTP-сервера: %w", err)
		}
	}

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("Выполняется graceful shutdown...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("ошибка при graceful shutdown: %w", err)
	}

	s.logger.Info("HTTP-сервер остановлен")
	return nil
}
