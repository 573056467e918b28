package blob

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_CreateResolveRelease(t *testing.T) {
	r := NewRegistry()

	h := r.Create([]byte("abc"), "image/png")
	require.NotNil(t, h)
	assert.True(t, IsHandle(h.URL))
	assert.Equal(t, 1, r.Live())
	assert.Equal(t, int64(3), r.LiveBytes())

	data, mime, ok := r.Resolve(h.URL)
	require.True(t, ok)
	assert.Equal(t, []byte("abc"), data)
	assert.Equal(t, "image/png", mime)

	assert.True(t, h.Release())
	assert.False(t, h.Release(), "второе освобождение должно быть no-op")
	assert.False(t, r.Release(h.URL))

	_, _, ok = r.Resolve(h.URL)
	assert.False(t, ok)
	assert.Equal(t, 0, r.Live())
	assert.Equal(t, int64(0), r.LiveBytes())
}

func TestRegistry_NewHandlePerCreate(t *testing.T) {
	r := NewRegistry()
	payload := []byte("same")

	h1 := r.Create(payload, "image/jpeg")
	h2 := r.Create(payload, "image/jpeg")

	assert.NotEqual(t, h1.URL, h2.URL)
	assert.Equal(t, 2, r.Live())
}

func TestRegistry_ReleaseAllSkipsNonHandles(t *testing.T) {
	r := NewRegistry()
	h1 := r.Create([]byte("1"), "")
	h2 := r.Create([]byte("22"), "")

	released := r.ReleaseAll(h1.URL, "data:image/png;base64,AA==", "", h2.URL, h2.URL)
	assert.Equal(t, 2, released)
	assert.Equal(t, 0, r.Live())
}

func TestRegistry_ConcurrentAccess(t *testing.T) {
	r := NewRegistry()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			h := r.Create([]byte("x"), "")
			_, _, _ = r.Resolve(h.URL)
			h.Release()
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, r.Live())
	assert.Equal(t, int64(0), r.LiveBytes())
}

func TestTracker_ReleaseOwner(t *testing.T) {
	r := NewRegistry()
	tr := NewTracker(r)

	h1 := r.Create([]byte("a"), "")
	h2 := r.Create([]byte("b"), "")
	other := r.Create([]byte("c"), "")
	tr.Track("m1", h1.URL)
	tr.Track("m1", h2.URL)
	tr.Track("m2", other.URL)

	assert.Equal(t, 2, tr.ReleaseOwner("m1"))
	assert.Equal(t, 0, tr.ReleaseOwner("m1"))
	assert.Equal(t, 1, r.Live())
	assert.Equal(t, 1, tr.Owners())
}

func TestTracker_PrunesReleasedHandles(t *testing.T) {
	r := NewRegistry()
	tr := NewTracker(r)

	h1 := r.Create([]byte("a"), "")
	tr.Track("m1", h1.URL)
	h1.Release()

	h2 := r.Create([]byte("b"), "")
	tr.Track("m1", h2.URL)

	tr.mu.Lock()
	urls := append([]string(nil), tr.byOwner["m1"]...)
	tr.mu.Unlock()
	assert.Equal(t, []string{h2.URL}, urls)
}
