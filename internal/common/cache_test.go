package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func setupTestEnvironment(t *testing.T) (*Cache, func()) {
	t.Helper()

	cache := NewCache(0, 0)

	cleanup := func() {
		cache.Flush()
	}

	return cache, cleanup
}

func TestCache_SetGet(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyPostBySlug("hello"), "value")

	v, ok := cache.Get("post:slug:hello")
	assert.True(t, ok)
	assert.Equal(t, "value", v)
}

func TestCache_DeletePrefix(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set(CacheKeyPostBySlug("a"), 1)
	cache.Set(CacheKeyFeaturedPosts(), 2)
	cache.Set(CacheKeyCategoryBySlug("ai"), 3)

	cache.DeletePrefix(CachePrefixPost)

	_, ok := cache.Get(CacheKeyPostBySlug("a"))
	assert.False(t, ok)
	_, ok = cache.Get(CacheKeyFeaturedPosts())
	assert.False(t, ok)
	_, ok = cache.Get(CacheKeyCategoryBySlug("ai"))
	assert.True(t, ok)
}

func TestCache_Flush(t *testing.T) {
	cache, cleanup := setupTestEnvironment(t)
	defer cleanup()

	cache.Set("key", "value")
	cache.Flush()

	if _, ok := cache.Get("key"); ok {
		t.Error("expected cache to be flushed")
	}
}
