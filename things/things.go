// Package things opens one client's assets and answers sprite lookups for
// renderers.
//
// A Things is built from a Profile naming either a modern client (sheet
// catalog plus appearances) or a legacy one (Tibia.dat plus Tibia.spr). The
// two are never mixed.
package things

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/appearances"
	"badc0de.net/pkg/go-tibia-assets/dat"
	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sheet"
	"badc0de.net/pkg/go-tibia-assets/spr"
	"badc0de.net/pkg/go-tibia-assets/sprite"
)

type ProfileKind int

const (
	ProfileModern ProfileKind = iota
	ProfileLegacy
)

func (k ProfileKind) String() string {
	if k == ProfileLegacy {
		return "legacy"
	}
	return "modern"
}

// Profile names the files of one client. Deciding which kind a client
// directory is happens elsewhere.
type Profile struct {
	Kind ProfileKind

	// Modern clients. AppearancesPath may be left empty to look it up in
	// the catalog.
	AssetsDir       string
	AppearancesPath string

	// Legacy clients.
	DatPath      string
	SprPath      string
	DatDurations dat.DurationMode
}

func (p Profile) String() string {
	if p.Kind == ProfileLegacy {
		return fmt.Sprintf("legacy(dat=%q, spr=%q)", p.DatPath, p.SprPath)
	}
	return fmt.Sprintf("modern(assets=%q)", p.AssetsDir)
}

// Things holds the decoded metadata of one profile and the sprite source
// serving its pixels.
type Things struct {
	profile Profile
	source  sprite.Source

	catalog     *sheet.Catalog
	appearances *appearances.Index
	// AppearanceErr is set when the sheets loaded but appearances did
	// not; sprites can still be looked up by id.
	AppearanceErr error

	header  dat.Header
	archive *spr.Archive
	items   *dat.ItemSprites
	// ItemsErr is set when the sprite archive loaded but the item section
	// of the dat did not.
	ItemsErr error
}

// Load opens the files named by p. Headers and catalogs are read eagerly;
// pixels are decoded on first use. guard may be nil.
func Load(p Profile, guard *memguard.Guard) (*Things, error) {
	t := &Things{profile: p}
	var err error
	switch p.Kind {
	case ProfileModern:
		err = t.loadModern(guard)
	case ProfileLegacy:
		err = t.loadLegacy(guard)
	default:
		err = errors.Errorf("things: unknown profile kind %d", p.Kind)
	}
	if err != nil {
		return nil, err
	}
	glog.Infof("things: loaded %v: %d sprite(s)", p, t.SpriteCount())
	return t, nil
}

func (t *Things) loadModern(guard *memguard.Guard) error {
	dir, err := sheet.ResolveAssetsDir(t.profile.AssetsDir)
	if err != nil {
		return err
	}
	t.catalog, err = sheet.Open(dir, guard)
	if err != nil {
		return errors.Wrap(err, "things: opening sheet catalog")
	}
	t.source = t.catalog

	path := t.profile.AppearancesPath
	if path == "" {
		name, ok, err := appearances.ResolvePath(os.DirFS(dir))
		switch {
		case err != nil:
			t.AppearanceErr = err
		case !ok:
			t.AppearanceErr = errors.Wrapf(sprite.ErrFileNotFound, "things: no appearances entry in %s", sheet.CatalogFile)
		default:
			path = filepath.Join(dir, name)
		}
	}
	if path != "" {
		t.appearances, t.AppearanceErr = appearances.Load(path, guard)
	}
	if t.AppearanceErr != nil {
		glog.Warningf("things: sprites available, appearances are not: %v", t.AppearanceErr)
	}
	return nil
}

func (t *Things) loadLegacy(guard *memguard.Guard) error {
	var err error
	t.header, err = dat.LoadHeader(t.profile.DatPath)
	if err != nil {
		return errors.Wrap(err, "things: reading dat header")
	}
	t.archive, err = spr.Open(t.profile.SprPath, guard)
	if err != nil {
		return errors.Wrap(err, "things: opening sprite archive")
	}
	t.source = t.archive
	if t.header.Signature != t.archive.Signature() {
		glog.Warningf("things: dat signature %08x does not match spr signature %08x", t.header.Signature, t.archive.Signature())
	}

	data, err := os.ReadFile(t.profile.DatPath)
	if err == nil {
		t.items, err = dat.LoadItemSprites(data, t.archive.SpriteCount(), t.archive.IsExtended(), t.profile.DatDurations)
	}
	if err != nil {
		t.ItemsErr = err
		glog.Warningf("things: sprites available, items are not: %v", err)
	}
	return nil
}

func (t *Things) Profile() Profile { return t.profile }

// Source returns the sprite source of the profile: a *sheet.Catalog or an
// *spr.Archive.
func (t *Things) Source() sprite.Source { return t.source }

// SpriteRGBA returns the pixels of sprite id.
func (t *Things) SpriteRGBA(id uint32) (sprite.Sprite, error) {
	return t.source.SpriteRGBA(id)
}

// SpriteID returns the first sprite of an appearance. Legacy profiles only
// know objects, looked up by item id.
func (t *Things) SpriteID(kind appearances.Kind, id uint32) (uint32, bool) {
	if t.appearances != nil {
		return t.appearances.SpriteID(kind, id)
	}
	return t.legacySpriteID(kind, id, 0)
}

// SpriteIDAt returns the sprite an appearance shows t milliseconds into its
// animation.
func (t *Things) SpriteIDAt(kind appearances.Kind, id uint32, ms int64) (uint32, bool) {
	if t.appearances != nil {
		return t.appearances.SpriteIDAt(kind, id, ms)
	}
	return t.legacySpriteID(kind, id, ms)
}

// SpriteIDAtSeeded is SpriteIDAt with a per-instance seed picking the start
// phase of unsynchronized animations. Legacy items ignore the seed.
func (t *Things) SpriteIDAtSeeded(kind appearances.Kind, id uint32, ms, seed int64) (uint32, bool) {
	if t.appearances != nil {
		return t.appearances.SpriteIDAtSeeded(kind, id, ms, seed)
	}
	return t.legacySpriteID(kind, id, ms)
}

func (t *Things) legacySpriteID(kind appearances.Kind, id uint32, ms int64) (uint32, bool) {
	item, ok := t.legacyItem(kind, id)
	if !ok {
		return 0, false
	}
	return item.SpriteIDAt(0, 0, 0, 0, 0, 0, item.FrameAt(ms))
}

func (t *Things) legacyItem(kind appearances.Kind, id uint32) (*dat.ItemSpriteInfo, bool) {
	if t.items == nil || kind != appearances.KindObject || id > 0xFFFF {
		return nil, false
	}
	return t.items.Item(uint16(id))
}

// Appearances returns the appearance index, or nil for legacy profiles and
// when AppearanceErr is set.
func (t *Things) Appearances() *appearances.Index { return t.appearances }

// Items returns the legacy item table, or nil.
func (t *Things) Items() *dat.ItemSprites { return t.items }

// SheetCount returns the number of sheets of a modern profile, or 0.
func (t *Things) SheetCount() int {
	if t.catalog == nil {
		return 0
	}
	return len(t.catalog.Sheets())
}

// SpriteCount returns the highest valid sprite id.
func (t *Things) SpriteCount() int {
	switch {
	case t.catalog != nil:
		return t.catalog.SpriteCount()
	case t.archive != nil:
		return t.archive.SpriteCount()
	}
	return 0
}

// Close releases open files. Cached sprites are dropped with the Things.
func (t *Things) Close() error {
	if t.archive != nil {
		return t.archive.Close()
	}
	return nil
}
