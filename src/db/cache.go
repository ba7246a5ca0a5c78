package db

import (
	"log"
	"sync"

	"github.com/dgraph-io/ristretto"
)

// Cache keys are tracked per read family so a sync can invalidate every
// derived read (net worth, accounts) without touching unrelated entries.
var (
	Cache             *ristretto.Cache
	NetWorthCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
	AccountCacheKeys = struct {
		sync.RWMutex
		m map[string]struct{}
	}{m: make(map[string]struct{})}
)

func InitCache() {
	var err error
	Cache, err = ristretto.NewCache(&ristretto.Config{
		NumCounters: 10000, // number of keys to track frequency of
		MaxCost:     10000,
		BufferItems: 64, // number of keys per Get buffer
	})
	if err != nil {
		log.Fatalf("failed to initialize cache: %v", err)
	}
}

// Net Worth Cache Functions
func SetNetWorthCache(cacheKey string, value interface{}) {
	NetWorthCacheKeys.Lock()
	NetWorthCacheKeys.m[cacheKey] = struct{}{}
	NetWorthCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllNetWorthCaches() {
	NetWorthCacheKeys.Lock()
	for key := range NetWorthCacheKeys.m {
		Cache.Del(key)
	}
	NetWorthCacheKeys.m = make(map[string]struct{})
	NetWorthCacheKeys.Unlock()
}

// Account Cache Functions
func SetAccountCache(cacheKey string, value interface{}) {
	AccountCacheKeys.Lock()
	AccountCacheKeys.m[cacheKey] = struct{}{}
	AccountCacheKeys.Unlock()
	Cache.Set(cacheKey, value, 1)
}

func ClearAllAccountCaches() {
	AccountCacheKeys.Lock()
	for key := range AccountCacheKeys.m {
		Cache.Del(key)
	}
	AccountCacheKeys.m = make(map[string]struct{})
	AccountCacheKeys.Unlock()
}

// ClearSyncDerivedCaches drops every cache entry invalidated by a sync run.
func ClearSyncDerivedCaches() {
	if Cache == nil {
		return
	}
	ClearAllNetWorthCaches()
	ClearAllAccountCaches()
}
