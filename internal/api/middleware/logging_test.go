package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cyberanytime/backend/internal/domain/model"
)

// captureLogger возвращает логгер, пишущий в буфер в текстовом формате.
func captureLogger() (*slog.Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return slog.New(slog.NewTextHandler(buf, nil)), buf
}

func TestRequestLogger_BasicAttrs(t *testing.T) {
	logger, buf := captureLogger()

	handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/blog", nil)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	for _, want := range []string{"Запрос обработан", "method=GET", "path=/api/blog", "status=200", "bytes=2"} {
		if !strings.Contains(out, want) {
			t.Errorf("в журнале отсутствует %q: %s", want, out)
		}
	}
}

// TestRequestLogger_Levels: уровень записи зависит от статус-кода.
func TestRequestLogger_Levels(t *testing.T) {
	tests := []struct {
		status    int
		wantLevel string
	}{
		{http.StatusOK, "level=INFO"},
		{http.StatusNotFound, "level=WARN"},
		{http.StatusInternalServerError, "level=ERROR"},
	}
	for _, tt := range tests {
		t.Run(tt.wantLevel, func(t *testing.T) {
			logger, buf := captureLogger()

			handler := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

			if !strings.Contains(buf.String(), tt.wantLevel) {
				t.Errorf("ожидался %s, журнал: %s", tt.wantLevel, buf.String())
			}
		})
	}
}

// TestRequestLogger_AdminAttr: запрос, прошедший guard, журналируется
// с именем администратора.
func TestRequestLogger_AdminAttr(t *testing.T) {
	logger, buf := captureLogger()

	guard, tokens := newTestGuard(map[int64]*model.Admin{
		5: {ID: 5, Username: "zhurnal-admin"},
	})
	tok, err := tokens.Issue(5)
	if err != nil {
		t.Fatalf("не удалось выпустить токен: %v", err)
	}

	handler := RequestLogger(logger)(guard.Middleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	handler.ServeHTTP(httptest.NewRecorder(), req)

	if !strings.Contains(buf.String(), "admin=zhurnal-admin") {
		t.Errorf("в журнале отсутствует имя администратора: %s", buf.String())
	}

	// Анонимный запрос — без атрибута admin
	buf.Reset()
	handler2 := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler2.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/blog", nil))
	if strings.Contains(buf.String(), "admin=") {
		t.Errorf("анонимный запрос не должен содержать атрибут admin: %s", buf.String())
	}
}
