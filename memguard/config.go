package memguard

import (
	"os"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/tidwall/gjson"
)

const mib = 1024 * 1024

// Config holds the guard thresholds. All limits are deterministic proxies
// (file sizes, counts), never process RSS.
//
// A Config is read once at startup and then treated as immutable.
type Config struct {
	Enabled bool

	// Input files, e.g. a map preloaded in full.
	WarnFileBytes int64
	HardFileBytes int64

	// Map growth.
	WarnTiles int
	HardTiles int
	WarnItems int
	HardItems int

	// Decoded sprite caches and renderer-side pixmap caches.
	WarnSpriteCacheEntries int
	HardSpriteCacheEntries int
	WarnPixmapCacheEntries int
	HardPixmapCacheEntries int

	// Targets to shrink a cache to after its hard limit was hit.
	EvictToSpriteCacheEntries int
	EvictToPixmapCacheEntries int

	// How many tiles a map loader should process between checks.
	CheckEveryTiles int

	// Upper bound for a single decompressed sprite sheet.
	HardSheetBytes int64
}

// DefaultConfig returns the built-in thresholds.
func DefaultConfig() Config {
	return Config{
		Enabled: true,

		WarnFileBytes: 256 * mib,
		HardFileBytes: 1024 * mib,

		WarnTiles: 1000000,
		HardTiles: 2000000,
		WarnItems: 8000000,
		HardItems: 16000000,

		WarnSpriteCacheEntries: 80000,
		HardSpriteCacheEntries: 150000,
		WarnPixmapCacheEntries: 20000,
		HardPixmapCacheEntries: 40000,

		EvictToSpriteCacheEntries: 120000,
		EvictToPixmapCacheEntries: 30000,

		CheckEveryTiles: 4096,

		HardSheetBytes: 16 * mib,
	}
}

// Environment variables consulted by LoadConfig.
const (
	EnvEnabled    = "GOTIBIA_MEMORY_GUARD"
	EnvConfigPath = "GOTIBIA_MEMORY_GUARD_CONFIG"
	envPrefix     = "GOTIBIA_MEM_"
)

// DefaultConfigPath is used when EnvConfigPath is unset and the file exists.
var DefaultConfigPath = "data/memory_guard.json"

// LookupEnvFunc has the signature of os.LookupEnv.
type LookupEnvFunc func(key string) (string, bool)

// LoadDefaultConfig layers the process environment and the optional JSON
// file over DefaultConfig.
func LoadDefaultConfig() Config {
	path, _ := os.LookupEnv(EnvConfigPath)
	if strings.TrimSpace(path) == "" {
		if _, err := os.Stat(DefaultConfigPath); err == nil {
			path = DefaultConfigPath
		}
	}
	return LoadConfig(os.LookupEnv, path)
}

// LoadConfig builds a Config from three layers: built-in defaults, then
// environment overrides looked up with env, then the JSON object at path
// (if path is non-empty). A value that does not parse leaves the previous
// layer in place; an unreadable or non-object file is ignored.
func LoadConfig(env LookupEnvFunc, path string) Config {
	cfg := DefaultConfig()
	if env != nil {
		applyEnv(&cfg, env)
	}
	if strings.TrimSpace(path) == "" {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		glog.Warningf("memguard: ignoring config file %q: %v", path, err)
		return cfg
	}
	if err := applyJSON(&cfg, data); err != nil {
		glog.Warningf("memguard: ignoring config file %q: %v", path, err)
	}
	return cfg
}

// setting binds one tunable to its environment suffix and JSON key.
type setting struct {
	env, json string
	megabytes bool
	i         *int
	i64       *int64
}

func (cfg *Config) settings() []setting {
	return []setting{
		{env: "WARN_FILE_MB", json: "warn_file_mb", megabytes: true, i64: &cfg.WarnFileBytes},
		{env: "HARD_FILE_MB", json: "hard_file_mb", megabytes: true, i64: &cfg.HardFileBytes},
		{env: "WARN_TILES", json: "warn_tiles", i: &cfg.WarnTiles},
		{env: "HARD_TILES", json: "hard_tiles", i: &cfg.HardTiles},
		{env: "WARN_ITEMS", json: "warn_items", i: &cfg.WarnItems},
		{env: "HARD_ITEMS", json: "hard_items", i: &cfg.HardItems},
		{env: "WARN_SPRITE_CACHE", json: "warn_sprite_cache_entries", i: &cfg.WarnSpriteCacheEntries},
		{env: "HARD_SPRITE_CACHE", json: "hard_sprite_cache_entries", i: &cfg.HardSpriteCacheEntries},
		{env: "WARN_PIXMAP_CACHE", json: "warn_pixmap_cache_entries", i: &cfg.WarnPixmapCacheEntries},
		{env: "HARD_PIXMAP_CACHE", json: "hard_pixmap_cache_entries", i: &cfg.HardPixmapCacheEntries},
		{env: "EVICT_TO_SPRITE_CACHE", json: "evict_to_sprite_cache_entries", i: &cfg.EvictToSpriteCacheEntries},
		{env: "EVICT_TO_PIXMAP_CACHE", json: "evict_to_pixmap_cache_entries", i: &cfg.EvictToPixmapCacheEntries},
		{env: "CHECK_EVERY_TILES", json: "check_every_tiles", i: &cfg.CheckEveryTiles},
		{env: "HARD_SHEET_MB", json: "hard_sheet_mb", megabytes: true, i64: &cfg.HardSheetBytes},
	}
}

func (s setting) set(v int64) {
	if s.megabytes {
		v *= mib
	}
	if s.i64 != nil {
		*s.i64 = v
	} else {
		*s.i = int(v)
	}
}

func applyEnv(cfg *Config, env LookupEnvFunc) {
	if v, ok := env(EnvEnabled); ok {
		if b, ok := parseBool(v); ok {
			cfg.Enabled = b
		}
	}
	for _, s := range cfg.settings() {
		v, ok := env(envPrefix + s.env)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			glog.Warningf("memguard: ignoring %s%s=%q: %v", envPrefix, s.env, v, err)
			continue
		}
		s.set(n)
	}
	if cfg.CheckEveryTiles < 1 {
		cfg.CheckEveryTiles = 1
	}
}

type configFileError string

func (e configFileError) Error() string { return string(e) }

func applyJSON(cfg *Config, data []byte) error {
	if !gjson.ValidBytes(data) {
		return configFileError("not valid JSON")
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsObject() {
		return configFileError("not a JSON object")
	}

	if v := doc.Get("enabled"); v.Exists() {
		switch v.Type {
		case gjson.True, gjson.False:
			cfg.Enabled = v.Bool()
		default:
			b, _ := parseBool(v.String())
			cfg.Enabled = b
		}
	}
	for _, s := range cfg.settings() {
		v := doc.Get(s.json)
		if !v.Exists() {
			continue
		}
		switch v.Type {
		case gjson.Number:
			s.set(v.Int())
		case gjson.String:
			if n, err := strconv.ParseInt(strings.TrimSpace(v.Str), 10, 64); err == nil {
				s.set(n)
			}
		}
	}
	if cfg.CheckEveryTiles < 1 {
		cfg.CheckEveryTiles = 1
	}
	return nil
}

func parseBool(v string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "y", "on":
		return true, true
	case "0", "false", "no", "n", "off":
		return false, true
	}
	return false, false
}
