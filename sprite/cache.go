package sprite

import (
	"github.com/golang/glog"

	"badc0de.net/pkg/go-tibia-assets/memguard"
)

// Cache is an unbounded least-recently-used map from sprite id to Sprite.
// Growth is bounded from the outside by Insert's memory guard check.
//
// Entries form an intrusive doubly linked list threaded through a map;
// head is the most recently used entry, tail the least.
//
// A Cache is not safe for concurrent use.
type Cache struct {
	entries    map[uint32]*cacheEntry
	head, tail *cacheEntry
}

type cacheEntry struct {
	id         uint32
	sprite     Sprite
	prev, next *cacheEntry
}

func NewCache() *Cache {
	return &Cache{entries: make(map[uint32]*cacheEntry)}
}

func (c *Cache) Len() int { return len(c.entries) }

// Get returns the cached sprite and marks it most recently used.
func (c *Cache) Get(id uint32) (Sprite, bool) {
	e, ok := c.entries[id]
	if !ok {
		return Sprite{}, false
	}
	c.moveToFront(e)
	return e.sprite, true
}

// Put stores s under id as the most recently used entry.
func (c *Cache) Put(id uint32, s Sprite) {
	if e, ok := c.entries[id]; ok {
		e.sprite = s
		c.moveToFront(e)
		return
	}
	e := &cacheEntry{id: id, sprite: s}
	c.entries[id] = e
	c.pushFront(e)
}

// Oldest returns the id of the least recently used entry.
func (c *Cache) Oldest() (uint32, bool) {
	if c.tail == nil {
		return 0, false
	}
	return c.tail.id, true
}

// RemoveOldest drops the least recently used entry.
func (c *Cache) RemoveOldest() bool {
	e := c.tail
	if e == nil {
		return false
	}
	c.unlink(e)
	delete(c.entries, e.id)
	return true
}

// EvictTo drops least recently used entries until at most n remain.
func (c *Cache) EvictTo(n int) {
	if n < 0 {
		n = 0
	}
	for len(c.entries) > n && c.RemoveOldest() {
	}
}

func (c *Cache) Clear() {
	c.entries = make(map[uint32]*cacheEntry)
	c.head, c.tail = nil, nil
}

// Insert stores s and then asks guard whether the cache grew too large. On a
// hard breach the cache is shrunk to guard.EvictTarget; if shrinking fails
// the cache is cleared. Insert never fails.
func (c *Cache) Insert(id uint32, s Sprite, guard *memguard.Guard, stage string) {
	c.Put(id, s)
	if guard == nil {
		return
	}
	if _, err := guard.CheckCacheEntries(memguard.SpriteCache, c.Len(), stage); err != nil {
		target := guard.EvictTarget(memguard.SpriteCache)
		glog.V(1).Infof("%v; evicting to %d entries", err, target)
		c.evictOrClear(target)
	}
}

func (c *Cache) evictOrClear(target int) {
	defer func() {
		if r := recover(); r != nil {
			glog.Errorf("sprite cache eviction failed (%v); clearing cache", r)
			c.Clear()
		}
	}()
	c.EvictTo(target)
}

func (c *Cache) pushFront(e *cacheEntry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *Cache) unlink(e *cacheEntry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
	e.prev, e.next = nil, nil
}

func (c *Cache) moveToFront(e *cacheEntry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}
