// Package blob хранит временные хендлы на бинарные буферы.
// Хендл живет только в рамках процесса и должен быть явно освобожден.
package blob

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Scheme - префикс URL временного хендла
const Scheme = "blob:"

type entry struct {
	data []byte
	mime string
}

// Registry - реестр живых буферов
type Registry struct {
	mu      sync.RWMutex
	entries map[string]entry
	bytes   int64
}

// NewRegistry создает пустой реестр
func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]entry),
	}
}

// Handle - временная ссылка на буфер. Каждый вызов Create выдает новый хендл,
// сравнивать хендлы между чтениями нельзя.
type Handle struct {
	URL      string
	MimeType string
	Size     int64

	registry *Registry
	once     sync.Once
}

// Create регистрирует буфер и возвращает новый хендл
func (r *Registry) Create(data []byte, mime string) *Handle {
	url := Scheme + uuid.NewString()

	r.mu.Lock()
	r.entries[url] = entry{data: data, mime: mime}
	r.bytes += int64(len(data))
	r.mu.Unlock()

	return &Handle{
		URL:      url,
		MimeType: mime,
		Size:     int64(len(data)),
		registry: r,
	}
}

// Resolve возвращает буфер по URL хендла. Буфер только для чтения.
func (r *Registry) Resolve(url string) ([]byte, string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[url]
	if !ok {
		return nil, "", false
	}
	return e.data, e.mime, true
}

// Has проверяет, жив ли хендл
func (r *Registry) Has(url string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.entries[url]
	return ok
}

// Release освобождает буфер. Повторный вызов ничего не делает и возвращает false.
func (r *Registry) Release(url string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[url]
	if !ok {
		return false
	}
	delete(r.entries, url)
	r.bytes -= int64(len(e.data))
	return true
}

// ReleaseAll освобождает все переданные хендлы и возвращает число освобожденных.
// Значения, не являющиеся blob: хендлами, пропускаются.
func (r *Registry) ReleaseAll(urls ...string) int {
	released := 0
	for _, url := range urls {
		if !IsHandle(url) {
			continue
		}
		if r.Release(url) {
			released++
		}
	}
	return released
}

// Live возвращает число живых хендлов
func (r *Registry) Live() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// LiveBytes возвращает суммарный размер живых буферов
func (r *Registry) LiveBytes() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bytes
}

// Release освобождает хендл ровно один раз
func (h *Handle) Release() bool {
	released := false
	h.once.Do(func() {
		released = h.registry.Release(h.URL)
	})
	return released
}

// IsHandle проверяет, что значение - URL временного хендла
func IsHandle(value string) bool {
	return strings.HasPrefix(value, Scheme)
}
