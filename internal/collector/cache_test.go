package collector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLinkCacheExpires(t *testing.T) {
	now := time.Unix(1000, 0)
	calls := 0
	c := NewLinkCache(func(string) (LinkInfo, error) {
		calls++
		return LinkInfo{Status: "up", SpeedMbps: int64(100 * calls)}, nil
	})
	c.now = func() time.Time { return now }

	assert.Equal(t, int64(100), c.Get("eth0").SpeedMbps)
	assert.True(t, c.IsValid("eth0"))

	now = now.Add(LinkCacheDuration - time.Second)
	assert.Equal(t, int64(100), c.Get("eth0").SpeedMbps)

	now = now.Add(2 * time.Second)
	assert.False(t, c.IsValid("eth0"))
	assert.Equal(t, int64(200), c.Get("eth0").SpeedMbps)
	assert.Equal(t, 2, calls)
}

func TestLinkCacheWithoutLookup(t *testing.T) {
	c := NewLinkCache(nil)
	assert.Equal(t, LinkInfo{Status: "unknown"}, c.Get("eth0"))

	_, ok := c.GetCached("eth0")
	assert.True(t, ok)
}

func TestLinkCacheBlankStatus(t *testing.T) {
	c := NewLinkCache(func(string) (LinkInfo, error) {
		return LinkInfo{SpeedMbps: 10}, nil
	})
	assert.Equal(t, "unknown", c.Get("eth0").Status)
}
