package tokencache

import (
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"metamon_player/internal/app/port"
)

// Cache keeps access tokens in memory, keyed by lower-cased wallet address.
type Cache struct {
	tokens *cache.Cache
}

// New creates a token cache whose entries expire after ttl.
func New(ttl time.Duration) port.TokenStore {
	return &Cache{tokens: cache.New(ttl, ttl*2)}
}

// Get implements port.TokenStore.
func (c *Cache) Get(address string) (string, bool) {
	v, found := c.tokens.Get(key(address))
	if !found {
		return "", false
	}
	token, ok := v.(string)
	return token, ok
}

// Set implements port.TokenStore.
func (c *Cache) Set(address, token string) {
	c.tokens.SetDefault(key(address), token)
}

// Delete implements port.TokenStore.
func (c *Cache) Delete(address string) {
	c.tokens.Delete(key(address))
}

func key(address string) string {
	return strings.ToLower(address)
}
