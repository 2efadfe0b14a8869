package pages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNameCachePutAndLookup(t *testing.T) {
	cache := NewNameCache(nil)

	_, ok := cache.IDForName("acme")
	assert.False(t, ok)

	cache.Put("org-1", "acme")
	cache.Put("org-2", "acme/docs")

	id, ok := cache.IDForName("acme/docs")
	assert.True(t, ok)
	assert.Equal(t, "org-2", id)

	name, ok := cache.NameForID("org-1")
	assert.True(t, ok)
	assert.Equal(t, "acme", name)

	assert.Equal(t, 2, cache.Len())
}

func TestNameCachePutIsIdempotent(t *testing.T) {
	cache := NewNameCache(nil)
	cache.Put("org-1", "acme")
	cache.Put("org-1", "acme")

	assert.Equal(t, 1, cache.Len())
}
