package database

import (
	"github.com/bradfitz/gomemcache/memcache"
)

// NewMemcached creates the client backing the shared word read cache.
func NewMemcached(server string) *memcache.Client {
	return memcache.New(server)
}
