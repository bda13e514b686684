// logging.go — журналирование запросов административного API.
// Кроме метода, пути, статуса и длительности пишет имя администратора,
// если запрос прошёл auth guard: guard заполняет держатель requestLog,
// который это middleware кладёт в контекст до вызова обработчика.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// contextKeyRequestLog — ключ держателя атрибутов запроса в контексте.
const contextKeyRequestLog contextKey = "request_log"

// requestLog — изменяемый держатель атрибутов, которые становятся
// известны только внутри цепочки обработки (имя администратора).
type requestLog struct {
	mu    sync.Mutex
	admin string
}

func (l *requestLog) setAdmin(username string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.admin = username
}

func (l *requestLog) adminName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.admin
}

// requestLogFromContext возвращает держатель атрибутов запроса.
// nil, если цепочка запущена без RequestLogger (например, в тестах guard).
func requestLogFromContext(ctx context.Context) *requestLog {
	l, _ := ctx.Value(contextKeyRequestLog).(*requestLog)
	return l
}

// responseWriter — обёртка для перехвата статус-кода и размера ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware журналирования запросов.
// Уровень зависит от статуса: INFO до 400, WARN 4xx, ERROR 5xx.
// Для запросов, прошедших guard, добавляется атрибут admin.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			entry := &requestLog{}
			ctx := context.WithValue(r.Context(), contextKeyRequestLog, entry)

			next.ServeHTTP(wrapped, r.WithContext(ctx))

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			if admin := entry.adminName(); admin != "" {
				attrs = append(attrs, slog.String("admin", admin))
			}

			logger.LogAttrs(r.Context(), level, "Запрос обработан", attrs...)
		})
	}
}
