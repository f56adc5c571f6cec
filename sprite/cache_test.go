package sprite

import (
	"testing"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/ttesting"
)

func TestCacheLRUOrder(t *testing.T) {
	c := NewCache()
	for id := uint32(1); id <= 3; id++ {
		c.Put(id, Blank(1, 1))
	}
	oldest, _ := c.Oldest()
	ttesting.AssertEqualUint32(t, "first insert is oldest", oldest, 1)

	if _, ok := c.Get(1); !ok {
		t.Fatal("Get(1) missed")
	}
	oldest, _ = c.Oldest()
	ttesting.AssertEqualUint32(t, "get bumps recency", oldest, 2)

	c.Put(2, Blank(2, 2))
	oldest, _ = c.Oldest()
	ttesting.AssertEqualUint32(t, "put of existing id bumps recency", oldest, 3)
	s, _ := c.Get(2)
	ttesting.AssertEqualInt(t, "put replaces value", s.Width, 2)

	c.EvictTo(1)
	ttesting.AssertEqualInt(t, "evicted down to one", c.Len(), 1)
	_, ok := c.Get(2)
	ttesting.AssertEqualBool(t, "most recent survives", ok, true)

	c.Clear()
	ttesting.AssertEqualInt(t, "cleared", c.Len(), 0)
	_, ok = c.Oldest()
	ttesting.AssertEqualBool(t, "no oldest after clear", ok, false)
	ttesting.AssertEqualBool(t, "nothing to remove", c.RemoveOldest(), false)
}

func TestCacheInsertEvictsOnBreach(t *testing.T) {
	const hard = 5
	cfg := memguard.DefaultConfig()
	cfg.WarnSpriteCacheEntries = 3
	cfg.HardSpriteCacheEntries = hard
	cfg.EvictToSpriteCacheEntries = 2
	g := memguard.New(cfg)

	c := NewCache()
	for id := uint32(1); id <= hard; id++ {
		c.Insert(id, Blank(1, 1), g, "test")
	}
	ttesting.AssertEqualInt(t, "no eviction up to the hard limit", c.Len(), hard)

	c.Insert(hard+1, Blank(1, 1), g, "test")
	ttesting.AssertInRangeInt(t, "evicted to target", c.Len(), 0, g.EvictTarget(memguard.SpriteCache))
	_, ok := c.Get(hard + 1)
	ttesting.AssertEqualBool(t, "newest entry kept", ok, true)
	_, ok = c.Get(1)
	ttesting.AssertEqualBool(t, "oldest entry evicted", ok, false)
}

func TestCacheInsertWithoutGuard(t *testing.T) {
	c := NewCache()
	for id := uint32(0); id < 100; id++ {
		c.Insert(id, Blank(1, 1), nil, "test")
	}
	ttesting.AssertEqualInt(t, "unbounded without guard", c.Len(), 100)
}

func TestSpriteImage(t *testing.T) {
	s := Blank(2, 1)
	copy(s.Pix, []byte{0, 0, 255, 255, 10, 20, 30, 128})
	img := s.Image()
	r, g, b, a := img.NRGBAAt(0, 0).R, img.NRGBAAt(0, 0).G, img.NRGBAAt(0, 0).B, img.NRGBAAt(0, 0).A
	if r != 255 || g != 0 || b != 0 || a != 255 {
		t.Errorf("pixel 0: got %d %d %d %d; want 255 0 0 255", r, g, b, a)
	}
	c := img.NRGBAAt(1, 0)
	if c.R != 30 || c.G != 20 || c.B != 10 || c.A != 128 {
		t.Errorf("pixel 1: got %+v; want R=30 G=20 B=10 A=128", c)
	}
}
