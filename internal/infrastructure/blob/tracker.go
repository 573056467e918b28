package blob

import "sync"

// Tracker запоминает хендлы, выданные для каждого медиа, чтобы освободить их
// при каскадном удалении, даже если потребитель забыл это сделать.
type Tracker struct {
	registry *Registry

	mu      sync.Mutex
	byOwner map[string][]string
}

func NewTracker(registry *Registry) *Tracker {
	return &Tracker{
		registry: registry,
		byOwner:  make(map[string][]string),
	}
}

// Track связывает хендл с идентификатором медиа. Уже освобожденные хендлы
// этого медиа при этом выкидываются из списка.
func (t *Tracker) Track(owner, url string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	live := t.byOwner[owner][:0]
	for _, u := range t.byOwner[owner] {
		if t.registry.Has(u) {
			live = append(live, u)
		}
	}
	t.byOwner[owner] = append(live, url)
}

// ReleaseOwner освобождает все живые хендлы медиа и забывает о нем
func (t *Tracker) ReleaseOwner(owner string) int {
	t.mu.Lock()
	urls := t.byOwner[owner]
	delete(t.byOwner, owner)
	t.mu.Unlock()

	return t.registry.ReleaseAll(urls...)
}

// Owners возвращает число медиа, для которых есть отслеживаемые хендлы
func (t *Tracker) Owners() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byOwner)
}
