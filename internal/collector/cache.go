package collector

import (
	"sync"
	"time"
)

// LinkCacheDuration bounds how long operstate and speed are reused. Both
// change rarely compared with the sampling rate.
const LinkCacheDuration = 30 * time.Second

// LinkInfo is the operational state and negotiated speed of one interface.
type LinkInfo struct {
	Status    string
	SpeedMbps int64
}

// LinkLookup fetches fresh link information for an interface.
type LinkLookup func(name string) (LinkInfo, error)

type linkEntry struct {
	info LinkInfo
	at   time.Time
}

// LinkCache holds link information per interface name.
type LinkCache struct {
	lookup  LinkLookup
	ttl     time.Duration
	now     func() time.Time
	entries map[string]linkEntry

	mutex sync.RWMutex
}

func NewLinkCache(lookup LinkLookup) *LinkCache {
	return &LinkCache{
		lookup:  lookup,
		ttl:     LinkCacheDuration,
		now:     time.Now,
		entries: make(map[string]linkEntry),
	}
}

func (c *LinkCache) IsValid(name string) bool {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entries[name]
	return ok && c.now().Sub(e.at) < c.ttl
}

func (c *LinkCache) GetCached(name string) (LinkInfo, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	e, ok := c.entries[name]
	return e.info, ok
}

func (c *LinkCache) SetCached(name string, info LinkInfo) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries[name] = linkEntry{info: info, at: c.now()}
}

// Get returns cached info while it is fresh and looks it up otherwise. A
// failed lookup is cached as unknown so a missing interface is not retried on
// every tick.
func (c *LinkCache) Get(name string) LinkInfo {
	if c.IsValid(name) {
		info, _ := c.GetCached(name)
		return info
	}

	info := LinkInfo{Status: "unknown"}
	if c.lookup != nil {
		if fresh, err := c.lookup(name); err == nil {
			info = fresh
		}
	}
	if info.Status == "" {
		info.Status = "unknown"
	}
	c.SetCached(name, info)
	return info
}

func (c *LinkCache) Clear() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[string]linkEntry)
}
