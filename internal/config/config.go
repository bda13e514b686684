// Пакет config — загрузка и валидация конфигурации бэкенда Cyber Anytime
// из переменных окружения.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации бэкенда.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Публичный базовый адрес для построения URL загруженных файлов
	// (например, https://cyberanytime.example.com)
	PublicBaseURL string

	// --- PostgreSQL ---

	// Хост PostgreSQL
	DBHost string
	// Порт PostgreSQL
	DBPort int
	// Имя базы данных
	DBName string
	// Имя пользователя PostgreSQL
	DBUser string
	// Пароль пользователя PostgreSQL
	DBPassword string
	// Режим SSL: disable, require, verify-ca, verify-full
	DBSSLMode string
	// Максимальное количество соединений в пуле pgxpool
	DBMaxConns int

	// --- Токены ---

	// Секрет для подписи HS256-токенов. Обязательный, без дефолта.
	JWTSecret string
	// Время жизни access-токена
	TokenTTL time.Duration

	// --- Загрузка изображений ---

	// Директория хранения загруженных изображений
	UploadDir string
	// Максимальный размер загружаемого файла в байтах
	MaxUploadSize int64

	// --- Кэш постов ---

	// Максимальное количество записей в LRU-кэше постов (0 — кэш отключён)
	CacheSize int
	// TTL записи в кэше постов
	CacheTTL time.Duration

	// --- Мониторинг зависимостей ---

	// Имя группы topologymetrics
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration

	// --- Graceful shutdown ---

	// Таймаут graceful shutdown HTTP-сервера
	ShutdownTimeout time.Duration
}

// Load загружает конфигурацию из переменных окружения, валидирует
// обязательные поля и возвращает Config или ошибку.
func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CA_PORT — порт HTTP-сервера (по умолчанию 8000)
	cfg.Port, err = getEnvInt("CA_PORT", 8000)
	if err != nil {
		return nil, fmt.Errorf("CA_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CA_PORT: значение %d вне допустимого диапазона 1-65535", cfg.Port)
	}

	// CA_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CA_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CA_LOG_LEVEL: %w", err)
	}

	// CA_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CA_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CA_LOG_FORMAT: недопустимое значение %q, допустимые: json, text", cfg.LogFormat)
	}

	// CA_PUBLIC_BASE_URL — базовый адрес для URL загруженных файлов
	cfg.PublicBaseURL = strings.TrimRight(
		getEnvDefault("CA_PUBLIC_BASE_URL", fmt.Sprintf("http://localhost:%d", cfg.Port)), "/")

	// --- PostgreSQL ---

	// CA_DB_HOST — обязательный
	cfg.DBHost, err = getEnvRequired("CA_DB_HOST")
	if err != nil {
		return nil, err
	}

	// CA_DB_PORT — порт PostgreSQL (по умолчанию 5432)
	cfg.DBPort, err = getEnvInt("CA_DB_PORT", 5432)
	if err != nil {
		return nil, fmt.Errorf("CA_DB_PORT: %w", err)
	}

	// CA_DB_NAME — обязательный
	cfg.DBName, err = getEnvRequired("CA_DB_NAME")
	if err != nil {
		return nil, err
	}

	// CA_DB_USER — обязательный
	cfg.DBUser, err = getEnvRequired("CA_DB_USER")
	if err != nil {
		return nil, err
	}

	// CA_DB_PASSWORD — обязательный
	cfg.DBPassword, err = getEnvRequired("CA_DB_PASSWORD")
	if err != nil {
		return nil, err
	}

	// CA_DB_SSL_MODE — режим SSL (по умолчанию disable)
	cfg.DBSSLMode = getEnvDefault("CA_DB_SSL_MODE", "disable")
	validSSLModes := map[string]bool{
		"disable": true, "require": true, "verify-ca": true, "verify-full": true,
	}
	if !validSSLModes[cfg.DBSSLMode] {
		return nil, fmt.Errorf("CA_DB_SSL_MODE: недопустимое значение %q, допустимые: disable, require, verify-ca, verify-full", cfg.DBSSLMode)
	}

	// CA_DB_MAX_CONNS — размер пула соединений (по умолчанию 10)
	cfg.DBMaxConns, err = getEnvInt("CA_DB_MAX_CONNS", 10)
	if err != nil {
		return nil, fmt.Errorf("CA_DB_MAX_CONNS: %w", err)
	}
	if cfg.DBMaxConns < 1 {
		return nil, fmt.Errorf("CA_DB_MAX_CONNS: значение должно быть положительным")
	}

	// --- Токены ---

	// CA_JWT_SECRET — обязательный, дефолта нет намеренно:
	// сервис не должен стартовать с общеизвестным секретом.
	cfg.JWTSecret, err = getEnvRequired("CA_JWT_SECRET")
	if err != nil {
		return nil, err
	}

	// CA_TOKEN_TTL — время жизни токена (по умолчанию 60m)
	cfg.TokenTTL, err = getEnvDuration("CA_TOKEN_TTL", 60*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CA_TOKEN_TTL: %w", err)
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("CA_TOKEN_TTL: значение должно быть положительным")
	}

	// --- Загрузка изображений ---

	// CA_UPLOAD_DIR — директория изображений (по умолчанию uploads)
	cfg.UploadDir = getEnvDefault("CA_UPLOAD_DIR", "uploads")

	// CA_MAX_UPLOAD_SIZE — максимальный размер файла в байтах (по умолчанию 10 MiB)
	maxUpload, err := getEnvInt("CA_MAX_UPLOAD_SIZE", 10*1024*1024)
	if err != nil {
		return nil, fmt.Errorf("CA_MAX_UPLOAD_SIZE: %w", err)
	}
	if maxUpload < 1 {
		return nil, fmt.Errorf("CA_MAX_UPLOAD_SIZE: значение должно быть положительным")
	}
	cfg.MaxUploadSize = int64(maxUpload)

	// --- Кэш постов ---

	// CA_CACHE_SIZE — размер LRU-кэша постов (по умолчанию 256, 0 — отключён)
	cfg.CacheSize, err = getEnvInt("CA_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("CA_CACHE_SIZE: %w", err)
	}
	if cfg.CacheSize < 0 {
		return nil, fmt.Errorf("CA_CACHE_SIZE: значение не может быть отрицательным")
	}

	// CA_CACHE_TTL — TTL записи кэша (по умолчанию 30s)
	cfg.CacheTTL, err = getEnvDuration("CA_CACHE_TTL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_CACHE_TTL: %w", err)
	}

	// --- Мониторинг зависимостей ---

	// CA_DEPHEALTH_GROUP — группа topologymetrics (по умолчанию cyberanytime)
	cfg.DephealthGroup = getEnvDefault("CA_DEPHEALTH_GROUP", "cyberanytime")

	// CA_DEPHEALTH_CHECK_INTERVAL — интервал проверки зависимостей (по умолчанию 15s)
	cfg.DephealthCheckInterval, err = getEnvDuration("CA_DEPHEALTH_CHECK_INTERVAL", 15*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	// --- Graceful shutdown ---

	// CA_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CA_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CA_SHUTDOWN_TIMEOUT: %w", err)
	}

	return cfg, nil
}

// DatabaseDSN возвращает строку подключения к PostgreSQL.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		c.DBHost, c.DBPort, c.DBName, c.DBUser, c.DBPassword, c.DBSSLMode,
	)
}

// DatabaseURL возвращает URL подключения к PostgreSQL.
// Используется topologymetrics для лейблов метрик, не для подключения.
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf(
		"postgres://%s@%s:%d/%s?sslmode=%s",
		c.DBUser, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode,
	)
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// getEnvRequired возвращает значение переменной окружения или ошибку, если она не задана.
func getEnvRequired(key string) (string, error) {
	val := os.Getenv(key)
	if val == "" {
		return "", fmt.Errorf("%s: обязательная переменная окружения не задана", key)
	}
	return val, nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	return d, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
