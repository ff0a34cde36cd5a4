package rendercache

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T, capacity int) *Cache {
	t.Helper()
	c, err := New(capacity)
	require.NoError(t, err)
	return c
}

func TestKey_String(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "series_42@7", Key{WorkID: "42", Chapter: 7}.String())
}

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	t.Parallel()

	_, err := New(0)
	assert.Error(t, err)
	_, err = New(-3)
	assert.Error(t, err)
}

func TestPut_InsertIfAbsent(t *testing.T) {
	t.Parallel()

	c := newCache(t, 4)
	k := Key{WorkID: "w", Chapter: 1}

	assert.True(t, c.Put(k, []byte("a")))
	assert.False(t, c.Put(k, []byte("b")))

	got, ok := c.Get(k)
	require.True(t, ok)
	assert.Equal(t, []byte("a"), got)
	assert.Equal(t, 1, c.Len())
}

func TestEviction_LeastRecentlyUsed(t *testing.T) {
	t.Parallel()

	const n = 3
	c := newCache(t, n)
	for i := 1; i <= n; i++ {
		c.Put(Key{WorkID: "w", Chapter: i}, []byte{byte(i)})
	}

	// Touch chapter 1 so chapter 2 becomes the oldest.
	_, ok := c.Get(Key{WorkID: "w", Chapter: 1})
	require.True(t, ok)

	c.Put(Key{WorkID: "w", Chapter: 4}, []byte{4})

	assert.False(t, c.Contains(Key{WorkID: "w", Chapter: 2}))
	assert.True(t, c.Contains(Key{WorkID: "w", Chapter: 1}))
	assert.True(t, c.Contains(Key{WorkID: "w", Chapter: 3}))
	assert.True(t, c.Contains(Key{WorkID: "w", Chapter: 4}))
	assert.Equal(t, n, c.Len())
}

func TestContains_DoesNotPromote(t *testing.T) {
	t.Parallel()

	c := newCache(t, 2)
	a, b := Key{WorkID: "w", Chapter: 1}, Key{WorkID: "w", Chapter: 2}
	c.Put(a, []byte("a"))
	c.Put(b, []byte("b"))

	assert.True(t, c.Contains(a))
	c.Put(Key{WorkID: "w", Chapter: 3}, []byte("c"))

	assert.False(t, c.Contains(a))
	assert.True(t, c.Contains(b))
}

func TestInvalidate(t *testing.T) {
	t.Parallel()

	c := newCache(t, 8)
	k := Key{WorkID: "w", Chapter: 1}
	c.Put(k, []byte("a"))

	assert.True(t, c.Invalidate(k))
	assert.False(t, c.Invalidate(k))
	_, ok := c.Get(k)
	assert.False(t, ok)

	// A fresh render may be stored again after invalidation.
	assert.True(t, c.Put(k, []byte("b")))
}

func TestInvalidateWork(t *testing.T) {
	t.Parallel()

	c := newCache(t, 8)
	c.Put(Key{WorkID: "a", Chapter: 1}, nil)
	c.Put(Key{WorkID: "a", Chapter: 2}, nil)
	c.Put(Key{WorkID: "b", Chapter: 1}, nil)

	assert.Equal(t, 2, c.InvalidateWork("a"))
	assert.Equal(t, []Key{{WorkID: "b", Chapter: 1}}, c.Keys())
}

func TestInvalidateAll(t *testing.T) {
	t.Parallel()

	c := newCache(t, 8)
	for i := range 5 {
		c.Put(Key{WorkID: "w", Chapter: i}, []byte("x"))
	}
	c.InvalidateAll()
	assert.Zero(t, c.Len())
	assert.True(t, c.Put(Key{WorkID: "w", Chapter: 0}, []byte("y")))
}

func TestConcurrentPutsKeepFirst(t *testing.T) {
	t.Parallel()

	c := newCache(t, 4)
	k := Key{WorkID: "w", Chapter: 9}

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		stored int
	)
	for i := range 32 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if c.Put(k, []byte{byte(i)}) {
				mu.Lock()
				stored++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, stored)
	assert.Equal(t, 1, c.Len())
}
