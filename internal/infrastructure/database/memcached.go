package database

import (
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

func NewMemcached(servers ...string) *memcache.Client {
	mc := memcache.New(servers...)
	mc.Timeout = 500 * time.Millisecond
	return mc
}
