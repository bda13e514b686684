// cache.go — LRU-кэш постов блога с TTL.
// Обёртка над hashicorp/golang-lru/v2/expirable.
// Кэш per-instance и инвалидируется при каждой мутации поста,
// поэтому наблюдаемое поведение одного экземпляра не меняется.
package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/cyberanytime/backend/internal/domain/model"
)

// Prometheus-метрики кэша.
var (
	cacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_post_cache_hits_total",
		Help: "Общее количество попаданий в LRU-кэш постов.",
	})
	cacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ca_post_cache_misses_total",
		Help: "Общее количество промахов LRU-кэша постов.",
	})
)

// PostCache — LRU-кэш постов с автоматическим TTL.
// Нулевой указатель безопасен: все методы становятся no-op,
// что позволяет отключить кэш через CA_CACHE_SIZE=0.
type PostCache struct {
	cache *expirable.LRU[int64, *model.BlogPost]
}

// NewPostCache создаёт LRU-кэш с указанным максимальным размером и TTL.
// При maxSize <= 0 возвращает nil (кэширование отключено).
func NewPostCache(maxSize int, ttl time.Duration) *PostCache {
	if maxSize <= 0 {
		return nil
	}
	return &PostCache{
		cache: expirable.NewLRU[int64, *model.BlogPost](maxSize, nil, ttl),
	}
}

// Get возвращает пост из кэша по id.
// Обновляет Prometheus-метрики hit/miss.
func (c *PostCache) Get(id int64) (*model.BlogPost, bool) {
	if c == nil {
		return nil, false
	}
	val, ok := c.cache.Get(id)
	if ok {
		cacheHitsTotal.Inc()
		return val, true
	}
	cacheMissesTotal.Inc()
	return nil, false
}

// Set добавляет или обновляет запись в кэше.
func (c *PostCache) Set(id int64, post *model.BlogPost) {
	if c == nil {
		return
	}
	c.cache.Add(id, post)
}

// Delete удаляет запись из кэша (инвалидация при мутации).
func (c *PostCache) Delete(id int64) {
	if c == nil {
		return
	}
	c.cache.Remove(id)
}
