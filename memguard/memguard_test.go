package memguard

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/ttesting"
)

func mapEnv(m map[string]string) LookupEnvFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestLoadConfigLayers(t *testing.T) {
	env := mapEnv(map[string]string{
		"GOTIBIA_MEM_HARD_TILES":        "500",
		"GOTIBIA_MEM_WARN_TILES":        "not a number",
		"GOTIBIA_MEM_HARD_FILE_MB":      "2",
		"GOTIBIA_MEM_HARD_SPRITE_CACHE": "10",
		"GOTIBIA_MEM_CHECK_EVERY_TILES": "0",
	})

	t.Run("env only", func(t *testing.T) {
		cfg := LoadConfig(env, "")
		ttesting.AssertEqualInt(t, "hard tiles from env", cfg.HardTiles, 500)
		ttesting.AssertEqualInt(t, "bad value keeps default", cfg.WarnTiles, DefaultConfig().WarnTiles)
		ttesting.AssertEqualInt(t, "megabytes converted", int(cfg.HardFileBytes), 2*1024*1024)
		ttesting.AssertEqualInt(t, "check cadence clamped", cfg.CheckEveryTiles, 1)
		ttesting.AssertEqualBool(t, "enabled by default", cfg.Enabled, true)
	})

	t.Run("file over env", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memory_guard.json")
		doc := `{"enabled": "off", "hard_tiles": 700, "hard_sprite_cache_entries": "25", "warn_items": [1]}`
		if err := os.WriteFile(path, []byte(doc), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := LoadConfig(env, path)
		ttesting.AssertEqualInt(t, "file wins over env", cfg.HardTiles, 700)
		ttesting.AssertEqualInt(t, "string numbers accepted", cfg.HardSpriteCacheEntries, 25)
		ttesting.AssertEqualInt(t, "wrong type ignored", cfg.WarnItems, DefaultConfig().WarnItems)
		ttesting.AssertEqualBool(t, "disabled from file", cfg.Enabled, false)
	})

	t.Run("broken file ignored", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "memory_guard.json")
		if err := os.WriteFile(path, []byte(`[1,2`), 0644); err != nil {
			t.Fatal(err)
		}
		cfg := LoadConfig(env, path)
		ttesting.AssertEqualInt(t, "env layer kept", cfg.HardTiles, 500)
	})
}

func TestCacheEntriesBreach(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarnSpriteCacheEntries = 2
	cfg.HardSpriteCacheEntries = 4
	g := New(cfg)

	var warnings int
	for n := 1; n <= 4; n++ {
		msg, err := g.CheckCacheEntries(SpriteCache, n, "test")
		if err != nil {
			t.Fatalf("entries=%d: unexpected breach: %v", n, err)
		}
		if msg != "" {
			warnings++
		}
	}
	ttesting.AssertEqualInt(t, "warned exactly once", warnings, 1)

	_, err := g.CheckCacheEntries(SpriteCache, 5, "test")
	ttesting.AssertErrorIs(t, "fifth entry breaches", err, ErrGuardBreach)

	var be *BreachError
	if !errors.As(err, &be) {
		t.Fatalf("got %T; want *BreachError", err)
	}
	ttesting.AssertEqualInt(t, "breach value", int(be.Value), 5)
	ttesting.AssertEqualInt(t, "breach limit", int(be.Limit), 4)
	if be.Stage != "test" {
		t.Errorf("got stage %q; want %q", be.Stage, "test")
	}

	msg, err := g.CheckCacheEntries("unknown_cache", 1<<30, "test")
	if msg != "" || err != nil {
		t.Errorf("unknown cache kind: got (%q, %v); want no result", msg, err)
	}
}

func TestEvictTarget(t *testing.T) {
	for _, tc := range []struct {
		name          string
		hard, evictTo int
		want          int
	}{
		{"configured target below hard", 100, 80, 80},
		{"target capped below hard", 100, 150, 99},
		{"negative target", 100, -5, 0},
		{"no hard limit", 0, 50, 0},
	} {
		cfg := DefaultConfig()
		cfg.HardSpriteCacheEntries = tc.hard
		cfg.EvictToSpriteCacheEntries = tc.evictTo
		ttesting.AssertEqualInt(t, tc.name, New(cfg).EvictTarget(SpriteCache), tc.want)
	}
}

func TestMapCountsAndFileSize(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WarnTiles, cfg.HardTiles = 10, 20
	cfg.WarnItems, cfg.HardItems = 100, 200
	cfg.WarnFileBytes, cfg.HardFileBytes = 4, 8
	g := New(cfg)

	msg, err := g.CheckMapCounts(11, 0, "load")
	if err != nil || msg == "" {
		t.Errorf("tiles over warn: got (%q, %v); want warning", msg, err)
	}
	msg, _ = g.CheckMapCounts(12, 0, "load")
	if msg != "" {
		t.Errorf("second tiles warning: got %q; want deduplicated", msg)
	}
	_, err = g.CheckMapCounts(5, 201, "load")
	ttesting.AssertErrorIs(t, "items breach", err, ErrGuardBreach)
	_, err = g.CheckMapCounts(20, 0, "load")
	ttesting.AssertErrorIs(t, "tiles at the hard limit", err, ErrGuardBreach)
	_, err = g.CheckMapCounts(0, 200, "load")
	ttesting.AssertErrorIs(t, "items at the hard limit", err, ErrGuardBreach)
	if _, err := g.CheckMapCounts(19, 199, "load"); err != nil {
		t.Errorf("just under the hard limits: %v", err)
	}
	_, err = g.CheckFileBytes(8, "preload")
	ttesting.AssertErrorIs(t, "file at the hard limit", err, ErrGuardBreach)
	msg, err = g.CheckFileBytes(4, "preload")
	if err != nil || msg == "" {
		t.Errorf("file at the warn limit: got (%q, %v); want warning", msg, err)
	}

	path := filepath.Join(t.TempDir(), "map.otbm")
	if err := os.WriteFile(path, make([]byte, 9), 0644); err != nil {
		t.Fatal(err)
	}
	_, err = g.CheckFileSize(path, "preload")
	ttesting.AssertErrorIs(t, "file breach", err, ErrGuardBreach)

	_, err = g.CheckFileSize(filepath.Join(t.TempDir(), "missing"), "preload")
	if err != nil {
		t.Errorf("missing file: got %v; want unchecked", err)
	}

	cfg.Enabled = false
	_, err = New(cfg).CheckMapCounts(1<<30, 1<<30, "load")
	if err != nil {
		t.Errorf("disabled guard: got %v; want nil", err)
	}
}
