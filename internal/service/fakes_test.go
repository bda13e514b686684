package service

import (
	"context"
	"log/slog"
	"strconv"
	"sync"

	"github.com/cyberanytime/backend/internal/domain/model"
	"github.com/cyberanytime/backend/internal/repository"
)

// fakeAdminRepo — in-memory реализация repository.AdminRepository для unit-тестов.
type fakeAdminRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.Admin
}

func newFakeAdminRepo() *fakeAdminRepo {
	return &fakeAdminRepo{byID: make(map[int64]*model.Admin)}
}

func (f *fakeAdminRepo) Create(_ context.Context, admin *model.Admin) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Username == admin.Username {
			return repository.ErrConflict
		}
	}
	f.nextID++
	admin.ID = f.nextID
	stored := *admin
	f.byID[admin.ID] = &stored
	return nil
}

func (f *fakeAdminRepo) GetByID(_ context.Context, id int64) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	a, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAdminRepo) GetByUsername(_ context.Context, username string) (*model.Admin, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, a := range f.byID {
		if a.Username == username {
			cp := *a
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

// fakeBlogPostRepo — in-memory реализация repository.BlogPostRepository.
type fakeBlogPostRepo struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*model.BlogPost
	// getCalls — счётчик обращений GetByID для проверки работы кэша
	getCalls int
}

func newFakeBlogPostRepo() *fakeBlogPostRepo {
	return &fakeBlogPostRepo{byID: make(map[int64]*model.BlogPost)}
}

func (f *fakeBlogPostRepo) Create(_ context.Context, post *model.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.nextID++
	post.ID = f.nextID
	stored := *post
	f.byID[post.ID] = &stored
	return nil
}

func (f *fakeBlogPostRepo) GetByID(_ context.Context, id int64) (*model.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls++
	p, ok := f.byID[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeBlogPostRepo) List(_ context.Context) ([]*model.BlogPost, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	result := make([]*model.BlogPost, 0, len(f.byID))
	for id := int64(1); id <= f.nextID; id++ {
		if p, ok := f.byID[id]; ok {
			cp := *p
			result = append(result, &cp)
		}
	}
	return result, nil
}

func (f *fakeBlogPostRepo) Update(_ context.Context, post *model.BlogPost) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[post.ID]; !ok {
		return repository.ErrNotFound
	}
	stored := *post
	f.byID[post.ID] = &stored
	return nil
}

func (f *fakeBlogPostRepo) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeIssuer — детерминированный выпуск токенов для unit-тестов.
type fakeIssuer struct{}

func (fakeIssuer) Issue(adminID int64) (string, error) {
	return "token-" + strconv.FormatInt(adminID, 10), nil
}

// testLogger — логгер для тестов, пишет только ошибки.
func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}
