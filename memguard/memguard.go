// Package memguard implements a deterministic resource-pressure guard.
//
// The guard never looks at process memory. It compares proxies that grow
// with memory use (input file size, tile and item counts, cache entry
// counts) against configured thresholds. Crossing a warn threshold yields a
// message once per key; crossing a hard threshold yields a *BreachError.
//
// Guards are constructed explicitly and passed to whatever they guard; there
// is no package-level instance.
package memguard

import (
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// ErrGuardBreach is matched (via errors.Is) by every *BreachError.
var ErrGuardBreach = errors.New("memory guard hard limit exceeded")

// Cache kinds understood by CheckCacheEntries and EvictTarget.
const (
	SpriteCache = "sprite_cache"
	PixmapCache = "pixmap_cache"
)

// BreachError describes which hard limit was exceeded, where, and by how
// much.
type BreachError struct {
	Metric string
	Stage  string
	Value  int64
	Limit  int64
	bytes  bool
}

func (e *BreachError) Error() string {
	if e.bytes {
		return fmt.Sprintf("%s: %s over hard limit (%s, limit %s)", e.Stage, e.Metric, humanize.IBytes(uint64(e.Value)), humanize.IBytes(uint64(e.Limit)))
	}
	return fmt.Sprintf("%s: %s over hard limit (%d, limit %d)", e.Stage, e.Metric, e.Value, e.Limit)
}

func (e *BreachError) Is(target error) bool {
	return target == ErrGuardBreach
}

// Guard checks values against a Config. Warnings are deduplicated per key
// for the guard's lifetime.
//
// A Guard is not safe for concurrent use.
type Guard struct {
	cfg    Config
	warned map[string]bool
}

// New returns a guard using cfg.
func New(cfg Config) *Guard {
	return &Guard{cfg: cfg, warned: make(map[string]bool)}
}

// NewDefault returns a guard configured by LoadDefaultConfig.
func NewDefault() *Guard {
	return New(LoadDefaultConfig())
}

func (g *Guard) Config() Config { return g.cfg }

func (g *Guard) Enabled() bool { return g.cfg.Enabled }

// warnOnce logs msg and returns it the first time key is seen; afterwards
// it returns "".
func (g *Guard) warnOnce(key, msg string) string {
	if g.warned[key] {
		return ""
	}
	g.warned[key] = true
	glog.Warningf("memguard: %s", msg)
	return msg
}

// CheckFileSize stats path and checks its size. Files that cannot be
// stat'ed are not checked.
func (g *Guard) CheckFileSize(path, stage string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	fi, err := os.Stat(path)
	if err != nil {
		glog.V(2).Infof("memguard: not checking size of %q: %v", path, err)
		return "", nil
	}
	return g.CheckFileBytes(fi.Size(), stage)
}

// CheckFileBytes checks an input size in bytes.
func (g *Guard) CheckFileBytes(size int64, stage string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	if size >= g.cfg.HardFileBytes {
		return "", &BreachError{Metric: "input file size", Stage: stage, Value: size, Limit: g.cfg.HardFileBytes, bytes: true}
	}
	if size >= g.cfg.WarnFileBytes {
		return g.warnOnce("warn_file_bytes", fmt.Sprintf("%s: input file large (%s >= %s)", stage, humanize.IBytes(uint64(size)), humanize.IBytes(uint64(g.cfg.WarnFileBytes)))), nil
	}
	return "", nil
}

// CheckSheetBytes checks the size of one decompressed sprite sheet.
func (g *Guard) CheckSheetBytes(size int64, stage string) error {
	if !g.Enabled() || g.cfg.HardSheetBytes <= 0 {
		return nil
	}
	if size > g.cfg.HardSheetBytes {
		return &BreachError{Metric: "decompressed sheet size", Stage: stage, Value: size, Limit: g.cfg.HardSheetBytes, bytes: true}
	}
	return nil
}

// CheckMapCounts is meant to be called by map loaders every
// Config.CheckEveryTiles tiles.
func (g *Guard) CheckMapCounts(tiles, items int, stage string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	if tiles >= g.cfg.HardTiles {
		return "", &BreachError{Metric: "tiles", Stage: stage, Value: int64(tiles), Limit: int64(g.cfg.HardTiles)}
	}
	if items >= g.cfg.HardItems {
		return "", &BreachError{Metric: "items", Stage: stage, Value: int64(items), Limit: int64(g.cfg.HardItems)}
	}
	if tiles >= g.cfg.WarnTiles {
		if msg := g.warnOnce("warn_tiles", fmt.Sprintf("%s: tiles high (%d >= %d)", stage, tiles, g.cfg.WarnTiles)); msg != "" {
			return msg, nil
		}
	}
	if items >= g.cfg.WarnItems {
		return g.warnOnce("warn_items", fmt.Sprintf("%s: items high (%d >= %d)", stage, items, g.cfg.WarnItems)), nil
	}
	return "", nil
}

func (g *Guard) cacheLimits(kind string) (warn, hard, evictTo int, ok bool) {
	switch kind {
	case SpriteCache:
		return g.cfg.WarnSpriteCacheEntries, g.cfg.HardSpriteCacheEntries, g.cfg.EvictToSpriteCacheEntries, true
	case PixmapCache:
		return g.cfg.WarnPixmapCacheEntries, g.cfg.HardPixmapCacheEntries, g.cfg.EvictToPixmapCacheEntries, true
	}
	return 0, 0, 0, false
}

// CheckCacheEntries checks the entry count of a named cache. Unknown kinds
// are never limited.
func (g *Guard) CheckCacheEntries(kind string, entries int, stage string) (string, error) {
	if !g.Enabled() {
		return "", nil
	}
	warn, hard, _, ok := g.cacheLimits(kind)
	if !ok {
		return "", nil
	}
	if entries > hard {
		return "", &BreachError{Metric: kind + " entries", Stage: stage, Value: int64(entries), Limit: int64(hard)}
	}
	if entries > warn {
		return g.warnOnce("warn_"+kind, fmt.Sprintf("%s: %s entries high (%d > %d)", stage, kind, entries, warn)), nil
	}
	return "", nil
}

// EvictTarget returns the entry count a cache of the given kind should be
// shrunk to after a hard breach: the configured target, capped just below
// the hard limit, and 0 when the hard limit is not positive.
func (g *Guard) EvictTarget(kind string) int {
	_, hard, evictTo, ok := g.cacheLimits(kind)
	if !ok || hard <= 0 {
		return 0
	}
	if evictTo < 0 {
		evictTo = 0
	}
	if evictTo > hard-1 {
		return hard - 1
	}
	return evictTo
}
