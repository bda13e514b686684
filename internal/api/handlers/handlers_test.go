package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/cyberanytime/backend/internal/api/handlers"
	"github.com/cyberanytime/backend/internal/api/middleware"
	"github.com/cyberanytime/backend/internal/domain/model"
	"github.com/cyberanytime/backend/internal/repository"
	"github.com/cyberanytime/backend/internal/server"
	"github.com/cyberanytime/backend/internal/service"
	"github.com/cyberanytime/backend/internal/storage/imagestore"
	"github.com/cyberanytime/backend/internal/token"
)

// --- In-memory репозитории ---

type memAdminRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.Admin
}

func (m *memAdminRepo) Create(_ context.Context, admin *model.Admin) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == admin.Username {
			return repository.ErrConflict
		}
	}
	m.nextID++
	admin.ID = m.nextID
	stored := *admin
	m.byID[admin.ID] = &stored
	return nil
}

func (m *memAdminRepo) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *memAdminRepo) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

type memBlogRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.BlogPost
}

func (m *memBlogRepo) Create(_ context.Context, post *model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	post.ID = m.nextID
	stored := *post
	m.byID[post.ID] = &stored
	return nil
}

func (m *memBlogRepo) GetByID(_ context.Context, id int64) (*model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memBlogRepo) List(_ context.Context) ([]*model.BlogPost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]*model.BlogPost, 0, len(m.byID))
	for id := int64(1); id <= m.nextID; id++ {
		if p, ok := m.byID[id]; ok {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (m *memBlogRepo) Update(_ context.Context, post *model.BlogPost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[post.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *post
	m.byID[post.ID] = &stored
	return nil
}

func (m *memBlogRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.byID, id)
	return nil
}

// --- Тестовое окружение ---

const testSecret = "handlers-test-secret"

// newTestServer собирает полный router с in-memory хранилищами.
func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	logger := slog.New(slog.DiscardHandler)

	adminRepo := &memAdminRepo{byID: make(map[int64]*model.Admin)}
	blogRepo := &memBlogRepo{byID: make(map[int64]*model.BlogPost)}

	tokens := token.New(testSecret, time.Hour)
	authSvc := service.NewAuthService(adminRepo, tokens, logger)
	blogSvc := service.NewBlogService(blogRepo, service.NewPostCache(16, time.Minute), logger)

	uploadDir := t.TempDir()
	images, err := imagestore.New(uploadDir, "http://localhost:8080", 10*1024*1024)
	if err != nil {
		t.Fatalf("Ошибка создания хранилища изображений: %v", err)
	}

	guard := middleware.NewAuthGuard(tokens, authSvc, logger)
	healthHandler := handlers.NewHealthHandler(nil)
	apiHandler := handlers.NewAPIHandler(healthHandler, authSvc, blogSvc, images, logger)

	router := server.NewRouter(apiHandler, guard, uploadDir)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

// doJSON выполняет запрос с JSON-телом и разбирает JSON-ответ в out.
func doJSON(t *testing.T, method, url, bearer string, body any, out any) *http.Response {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("Ошибка сериализации тела запроса: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	if err != nil {
		t.Fatalf("Ошибка создания запроса: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Ошибка выполнения запроса: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("Ошибка разбора ответа: %v", err)
		}
	}
	return resp
}

// signup регистрирует администратора и возвращает его токен.
func signup(t *testing.T, baseURL, username string) string {
	t.Helper()

	var resp struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		Username    string `json:"username"`
	}
	r := doJSON(t, http.MethodPost, baseURL+"/api/auth/signup", "", map[string]string{
		"username":  username,
		"password":  "secret",
		"full_name": "Test Admin",
	}, &resp)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("signup: ожидался статус 200, получен %d", r.StatusCode)
	}
	if resp.TokenType != "bearer" {
		t.Errorf("signup: token_type должен быть bearer, получено %s", resp.TokenType)
	}
	if resp.AccessToken == "" {
		t.Fatal("signup: пустой access_token")
	}
	return resp.AccessToken
}

// --- Аутентификация ---

func TestSignupAndMe(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")

	var me struct {
		ID       int64  `json:"id"`
		Username string `json:"username"`
		FullName string `json:"full_name"`
	}
	r := doJSON(t, http.MethodGet, srv.URL+"/api/auth/me", tok, nil, &me)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("me: ожидался статус 200, получен %d", r.StatusCode)
	}
	if me.Username != "admin" || me.FullName != "Test Admin" {
		t.Errorf("me: неожиданный профиль: %+v", me)
	}
	if me.ID == 0 {
		t.Error("me: нулевой id")
	}
}

func TestSignupDuplicate(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv.URL, "admin")

	var errResp struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/signup", "", map[string]string{
		"username":  "admin",
		"password":  "other",
		"full_name": "Other",
	}, &errResp)
	if r.StatusCode != http.StatusConflict {
		t.Fatalf("ожидался статус 409, получен %d", r.StatusCode)
	}
	if errResp.Error.Message != "Username already exists" {
		t.Errorf("неожиданное сообщение: %s", errResp.Error.Message)
	}
}

// TestLoginFailuresSameMessage: неизвестный пользователь и неверный пароль
// дают идентичный ответ.
func TestLoginFailuresSameMessage(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv.URL, "admin")

	bodies := []map[string]string{
		{"username": "admin", "password": "wrong"},
		{"username": "ghost", "password": "secret"},
	}
	messages := make([]string, 0, 2)
	for _, body := range bodies {
		var errResp struct {
			Error struct {
				Message string `json:"message"`
			} `json:"error"`
		}
		r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", body, &errResp)
		if r.StatusCode != http.StatusUnauthorized {
			t.Fatalf("ожидался статус 401, получен %d", r.StatusCode)
		}
		messages = append(messages, errResp.Error.Message)
	}
	if messages[0] != messages[1] {
		t.Errorf("сообщения должны совпадать: %q и %q", messages[0], messages[1])
	}
	if messages[0] != "Invalid username or password" {
		t.Errorf("неожиданное сообщение: %s", messages[0])
	}
}

func TestLoginSuccess(t *testing.T) {
	srv := newTestServer(t)
	signup(t, srv.URL, "admin")

	var resp struct {
		AccessToken string `json:"access_token"`
		Username    string `json:"username"`
	}
	r := doJSON(t, http.MethodPost, srv.URL+"/api/auth/login", "", map[string]string{
		"username": "admin",
		"password": "secret",
	}, &resp)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", r.StatusCode)
	}
	if resp.Username != "admin" || resp.AccessToken == "" {
		t.Errorf("неожиданный ответ: %+v", resp)
	}
}

// --- Блог ---

type postBody struct {
	ID         int64   `json:"id"`
	Title      string  `json:"title"`
	Content    string  `json:"content"`
	MediaURL   *string `json:"media_url"`
	AuthorName string  `json:"author_name"`
}

func createPost(t *testing.T, baseURL, tok string) postBody {
	t.Helper()

	var created postBody
	r := doJSON(t, http.MethodPost, baseURL+"/api/blog", tok, map[string]string{
		"title":       "Заголовок",
		"content":     "Содержимое",
		"author_name": "Автор",
	}, &created)
	if r.StatusCode != http.StatusCreated {
		t.Fatalf("создание записи: ожидался статус 201, получен %d", r.StatusCode)
	}
	return created
}

func TestBlogLifecycle(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")

	created := createPost(t, srv.URL, tok)

	// Публичное чтение по id
	var got postBody
	r := doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/blog/%d", srv.URL, created.ID), "", nil, &got)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("чтение: ожидался статус 200, получен %d", r.StatusCode)
	}
	if got.Title != "Заголовок" || got.Content != "Содержимое" || got.AuthorName != "Автор" {
		t.Errorf("чтение вернуло другие данные: %+v", got)
	}

	// Частичное изменение: только title
	var updated postBody
	r = doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/blog/%d", srv.URL, created.ID), tok,
		map[string]string{"title": "Новый заголовок"}, &updated)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("изменение: ожидался статус 200, получен %d", r.StatusCode)
	}
	if updated.Title != "Новый заголовок" {
		t.Errorf("заголовок не обновлён: %s", updated.Title)
	}
	if updated.Content != "Содержимое" || updated.AuthorName != "Автор" {
		t.Errorf("непереданные поля изменились: %+v", updated)
	}

	// Удаление с сообщением, содержащим заголовок
	var deleted struct {
		Message string `json:"message"`
	}
	r = doJSON(t, http.MethodDelete, fmt.Sprintf("%s/api/blog/%d", srv.URL, created.ID), tok, nil, &deleted)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("удаление: ожидался статус 200, получен %d", r.StatusCode)
	}
	want := "Blog post 'Новый заголовок' deleted successfully"
	if deleted.Message != want {
		t.Errorf("ожидалось сообщение %q, получено %q", want, deleted.Message)
	}

	// Повторное чтение — 404
	var errResp struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	r = doJSON(t, http.MethodGet, fmt.Sprintf("%s/api/blog/%d", srv.URL, created.ID), "", nil, &errResp)
	if r.StatusCode != http.StatusNotFound {
		t.Fatalf("после удаления: ожидался статус 404, получен %d", r.StatusCode)
	}
	if errResp.Error.Message != "Blog post not found" {
		t.Errorf("неожиданное сообщение: %s", errResp.Error.Message)
	}
}

// TestBlogUpdateEmptyString: переданная пустая строка перезаписывает поле.
func TestBlogUpdateEmptyString(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")
	created := createPost(t, srv.URL, tok)

	var updated postBody
	r := doJSON(t, http.MethodPut, fmt.Sprintf("%s/api/blog/%d", srv.URL, created.ID), tok,
		map[string]string{"content": ""}, &updated)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", r.StatusCode)
	}
	if updated.Content != "" {
		t.Errorf("пустая строка должна перезаписывать поле: %q", updated.Content)
	}
}

// TestBlogListAlwaysArray: пустой список сериализуется как [], а не null.
func TestBlogListAlwaysArray(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/blog")
	if err != nil {
		t.Fatalf("Ошибка запроса: %v", err)
	}
	defer resp.Body.Close()

	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("Ошибка чтения ответа: %v", err)
	}
	if strings.TrimSpace(buf.String()) != "[]" {
		t.Errorf("пустой список должен быть [], получено: %s", buf.String())
	}
}

// TestBlogMutationsRequireAuth: изменяющие endpoints без токена — 401.
func TestBlogMutationsRequireAuth(t *testing.T) {
	srv := newTestServer(t)

	// Токен, подписанный другим секретом
	foreign, err := token.New("other-secret", time.Hour).Issue(1)
	if err != nil {
		t.Fatalf("не удалось выпустить токен: %v", err)
	}

	requests := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/blog"},
		{http.MethodPut, "/api/blog/1"},
		{http.MethodDelete, "/api/blog/1"},
		{http.MethodGet, "/api/auth/me"},
		{http.MethodPost, "/api/upload"},
		{http.MethodGet, "/api/upload/list"},
	}
	for _, tc := range requests {
		t.Run(tc.method+" "+tc.path, func(t *testing.T) {
			// без заголовка
			r := doJSON(t, tc.method, srv.URL+tc.path, "", nil, nil)
			if r.StatusCode != http.StatusUnauthorized {
				t.Errorf("без токена: ожидался статус 401, получен %d", r.StatusCode)
			}
			// с чужим токеном
			r = doJSON(t, tc.method, srv.URL+tc.path, foreign, nil, nil)
			if r.StatusCode != http.StatusUnauthorized {
				t.Errorf("с чужим токеном: ожидался статус 401, получен %d", r.StatusCode)
			}
		})
	}
}

// --- Загрузка изображений ---

// multipartFile собирает multipart-тело с одним файлом в поле "file".
func multipartFile(t *testing.T, filename, contentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("Ошибка создания multipart части: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("Ошибка записи содержимого файла: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Ошибка завершения multipart: %v", err)
	}
	return body, writer.FormDataContentType()
}

func uploadFile(t *testing.T, baseURL, tok, filename, contentType string, content []byte) *http.Response {
	t.Helper()

	body, bodyType := multipartFile(t, filename, contentType, content)
	req, err := http.NewRequest(http.MethodPost, baseURL+"/api/upload", body)
	if err != nil {
		t.Fatalf("Ошибка создания запроса: %v", err)
	}
	req.Header.Set("Content-Type", bodyType)
	req.Header.Set("Authorization", "Bearer "+tok)

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Ошибка выполнения запроса: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestUploadAndList(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")

	content := bytes.Repeat([]byte{0x89}, 1024)
	resp := uploadFile(t, srv.URL, tok, "picture.PNG", "image/png", content)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("загрузка: ожидался статус 200, получен %d", resp.StatusCode)
	}

	var uploaded struct {
		URL      string `json:"url"`
		Filename string `json:"filename"`
		Size     int64  `json:"size"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}
	if uploaded.Size != 1024 {
		t.Errorf("ожидался размер 1024, получено %d", uploaded.Size)
	}
	if !strings.HasSuffix(uploaded.Filename, ".png") {
		t.Errorf("расширение должно быть приведено к нижнему регистру: %s", uploaded.Filename)
	}
	if !strings.Contains(uploaded.URL, "/uploads/"+uploaded.Filename) {
		t.Errorf("URL не содержит имени файла: %s", uploaded.URL)
	}

	// Файл отдаётся статикой
	static, err := http.Get(srv.URL + "/uploads/" + uploaded.Filename)
	if err != nil {
		t.Fatalf("Ошибка запроса статики: %v", err)
	}
	defer static.Body.Close()
	if static.StatusCode != http.StatusOK {
		t.Errorf("статика: ожидался статус 200, получен %d", static.StatusCode)
	}

	// Листинг содержит загруженный файл
	var list struct {
		Images []struct {
			Filename string `json:"filename"`
			URL      string `json:"url"`
			Size     int64  `json:"size"`
		} `json:"images"`
	}
	r := doJSON(t, http.MethodGet, srv.URL+"/api/upload/list", tok, nil, &list)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("листинг: ожидался статус 200, получен %d", r.StatusCode)
	}
	found := false
	for _, img := range list.Images {
		if img.Filename == uploaded.Filename {
			found = true
			if img.Size != 1024 {
				t.Errorf("листинг: ожидался размер 1024, получено %d", img.Size)
			}
		}
	}
	if !found {
		t.Errorf("файл %s отсутствует в листинге", uploaded.Filename)
	}
}

func TestUploadRejections(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")

	t.Run("неверный content-type", func(t *testing.T) {
		resp := uploadFile(t, srv.URL, tok, "notes.jpg", "text/plain", []byte("text"))
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("ожидался статус 400, получен %d", resp.StatusCode)
		}
	})

	t.Run("неверное расширение", func(t *testing.T) {
		resp := uploadFile(t, srv.URL, tok, "archive.zip", "image/png", []byte{1, 2, 3})
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("ожидался статус 400, получен %d", resp.StatusCode)
		}
	})

	t.Run("превышение размера", func(t *testing.T) {
		oversized := bytes.Repeat([]byte{0xFF}, 11*1024*1024)
		resp := uploadFile(t, srv.URL, tok, "big.png", "image/png", oversized)
		if resp.StatusCode != http.StatusRequestEntityTooLarge {
			t.Errorf("ожидался статус 413, получен %d", resp.StatusCode)
		}
	})
}

// TestUploadsNoDirectoryListing: листинг директории загрузок не отдаётся
// анонимно — инвентарь файлов доступен только через /api/upload/list под guard.
func TestUploadsNoDirectoryListing(t *testing.T) {
	srv := newTestServer(t)
	tok := signup(t, srv.URL, "admin")

	resp := uploadFile(t, srv.URL, tok, "secret.png", "image/png", []byte{0x89, 0x50})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("загрузка: ожидался статус 200, получен %d", resp.StatusCode)
	}
	var uploaded struct {
		Filename string `json:"filename"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		t.Fatalf("Ошибка разбора ответа: %v", err)
	}

	// Запрос каталога — 404 без содержимого листинга
	dirResp, err := http.Get(srv.URL + "/uploads/")
	if err != nil {
		t.Fatalf("Ошибка запроса каталога: %v", err)
	}
	defer dirResp.Body.Close()
	if dirResp.StatusCode != http.StatusNotFound {
		t.Errorf("GET /uploads/: ожидался статус 404, получен %d", dirResp.StatusCode)
	}
	var body bytes.Buffer
	if _, err := body.ReadFrom(dirResp.Body); err != nil {
		t.Fatalf("Ошибка чтения ответа: %v", err)
	}
	if strings.Contains(body.String(), uploaded.Filename) {
		t.Errorf("тело ответа каталога раскрывает имена файлов: %s", body.String())
	}

	// Сам файл по-прежнему отдаётся
	fileResp, err := http.Get(srv.URL + "/uploads/" + uploaded.Filename)
	if err != nil {
		t.Fatalf("Ошибка запроса файла: %v", err)
	}
	defer fileResp.Body.Close()
	if fileResp.StatusCode != http.StatusOK {
		t.Errorf("GET файла: ожидался статус 200, получен %d", fileResp.StatusCode)
	}
}

// --- Статусные endpoints ---

func TestRootStatus(t *testing.T) {
	srv := newTestServer(t)

	var root struct {
		Status  string `json:"status"`
		Service string `json:"service"`
		Version string `json:"version"`
	}
	r := doJSON(t, http.MethodGet, srv.URL+"/", "", nil, &root)
	if r.StatusCode != http.StatusOK {
		t.Fatalf("ожидался статус 200, получен %d", r.StatusCode)
	}
	if root.Status != "online" {
		t.Errorf("ожидался status online, получено %s", root.Status)
	}
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t)

	live, err := http.Get(srv.URL + "/health/live")
	if err != nil {
		t.Fatalf("Ошибка запроса liveness: %v", err)
	}
	defer live.Body.Close()
	if live.StatusCode != http.StatusOK {
		t.Errorf("liveness: ожидался статус 200, получен %d", live.StatusCode)
	}

	// Без PostgreSQL checker readiness деградирует в 503
	ready, err := http.Get(srv.URL + "/health/ready")
	if err != nil {
		t.Fatalf("Ошибка запроса readiness: %v", err)
	}
	defer ready.Body.Close()
	if ready.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("readiness без БД: ожидался статус 503, получен %d", ready.StatusCode)
	}

	metrics, err := http.Get(srv.URL + "/metrics")
	if err != nil {
		t.Fatalf("Ошибка запроса метрик: %v", err)
	}
	defer metrics.Body.Close()
	if metrics.StatusCode != http.StatusOK {
		t.Errorf("metrics: ожидался статус 200, получен %d", metrics.StatusCode)
	}
}
