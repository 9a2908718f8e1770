package common

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
)

type Cache struct {
	*cache.Cache
}

func NewCache(expirationTime, cleanupTime time.Duration) *Cache {
	return &Cache{cache.New(expirationTime, cleanupTime)}
}

func (c *Cache) Set(key string, value interface{}, expiration ...time.Duration) {
	if len(expiration) > 0 {
		c.Cache.Set(key, value, expiration[0])
		return
	}
	c.Cache.Set(key, value, cache.DefaultExpiration)
}

func (c *Cache) Get(key string) (interface{}, bool) {
	return c.Cache.Get(key)
}

// DeletePrefix removes every key that starts with prefix.
func (c *Cache) DeletePrefix(prefix string) {
	for key := range c.Cache.Items() {
		if strings.HasPrefix(key, prefix) {
			c.Cache.Delete(key)
		}
	}
}

func (c *Cache) Flush() {
	c.Cache.Flush()
}

const (
	CachePrefixPost     = "post:"
	CachePrefixCategory = "category:"
	CachePrefixTag      = "tag:"
)

func CacheKeyPostBySlug(slug string) string {
	return CachePrefixPost + "slug:" + slug
}

func CacheKeyFeaturedPosts() string {
	return CachePrefixPost + "featured"
}

func CacheKeyCategoryBySlug(slug string) string {
	return CachePrefixCategory + "slug:" + slug
}

func CacheKeyTagBySlug(slug string) string {
	return CachePrefixTag + "slug:" + slug
}
