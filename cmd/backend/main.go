// Точка входа административного backend.
// Загружает конфигурацию, применяет миграции, подключается к PostgreSQL,
// создаёт сервисный слой, хранилище изображений и API handlers,
// запускает мониторинг зависимостей (topologymetrics) и HTTP-сервер
// с graceful shutdown.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/stdlib"

	"github.com/cyberanytime/backend/internal/api/handlers"
	"github.com/cyberanytime/backend/internal/api/middleware"
	"github.com/cyberanytime/backend/internal/config"
	"github.com/cyberanytime/backend/internal/database"
	"github.com/cyberanytime/backend/internal/repository"
	"github.com/cyberanytime/backend/internal/server"
	"github.com/cyberanytime/backend/internal/service"
	"github.com/cyberanytime/backend/internal/storage/imagestore"
	"github.com/cyberanytime/backend/internal/token"
)

func main() {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Ошибка загрузки конфигурации", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// 2. Настройка логирования
	logger := config.SetupLogger(cfg)

	// run выделен отдельной функцией, чтобы defer (закрытие пула,
	// остановка topologymetrics) выполнялись и на ошибочном пути.
	if err := run(cfg, logger); err != nil {
		logger.Error("Backend завершился с ошибкой", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger.Info("Backend остановлен")
}

func run(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Backend запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	if os.Getenv("CA_DEPHEALTH_GROUP") == "" {
		logger.Warn("CA_DEPHEALTH_GROUP не задана, используется значение по умолчанию",
			slog.String("default", cfg.DephealthGroup),
		)
	}

	// 3. Применение миграций БД
	logger.Info("Применение миграций БД...")
	if err := database.Migrate(cfg, logger); err != nil {
		return fmt.Errorf("миграции БД: %w", err)
	}

	// 4. Подключение к PostgreSQL (pgxpool)
	ctx := context.Background()
	pool, err := database.Connect(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("подключение к PostgreSQL: %w", err)
	}
	defer pool.Close()

	// 4.1 Адаптер pgxpool → *sql.DB для topologymetrics (connection pool mode).
	pgDB := stdlib.OpenDBFromPool(pool)
	defer pgDB.Close()

	// 5. Хранилище загруженных изображений
	images, err := imagestore.New(cfg.UploadDir, cfg.PublicBaseURL, cfg.MaxUploadSize)
	if err != nil {
		return fmt.Errorf("хранилище изображений: %w", err)
	}
	logger.Info("Хранилище изображений готово", slog.String("dir", images.Dir()))

	// 6. Repositories
	adminRepo := repository.NewAdminRepository(pool)
	blogRepo := repository.NewBlogPostRepository(pool)

	// 7. Сервис токенов (HS256)
	tokens := token.New(cfg.JWTSecret, cfg.TokenTTL)

	// 8. Services
	authSvc := service.NewAuthService(adminRepo, tokens, logger)
	postCache := service.NewPostCache(cfg.CacheSize, cfg.CacheTTL)
	if postCache == nil {
		logger.Info("Кэш постов отключён (CA_CACHE_SIZE=0)")
	}
	blogSvc := service.NewBlogService(blogRepo, postCache, logger)

	// 9. Auth guard
	guard := middleware.NewAuthGuard(tokens, authSvc, logger)

	// 10. Readiness checker и handlers
	pgChecker := database.NewReadinessChecker(pool)
	healthHandler := handlers.NewHealthHandler(pgChecker)
	apiHandler := handlers.NewAPIHandler(healthHandler, authSvc, blogSvc, images, logger)

	// 11. topologymetrics — мониторинг PostgreSQL
	dephealthSvc, dephealthErr := service.NewDephealthService(
		"cyberanytime-backend",
		cfg.DephealthGroup,
		pgDB,
		cfg.DatabaseURL(),
		cfg.DephealthCheckInterval,
		logger,
	)
	if dephealthErr != nil {
		logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
			slog.String("error", dephealthErr.Error()),
		)
	} else {
		if startErr := dephealthSvc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			logger.Info("topologymetrics запущен",
				slog.String("group", cfg.DephealthGroup),
				slog.String("check_interval", cfg.DephealthCheckInterval.String()),
			)
			defer dephealthSvc.Stop()
		}
	}

	// 12. Создание и запуск HTTP-сервера
	srv := server.New(cfg, logger, apiHandler, guard,
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	)
	if err := srv.Run(); err != nil {
		return fmt.Errorf("HTTP-сервер: %w", err)
	}

	return nil
}
