package sheet

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// CatalogFile lists the assets of a modern client.
const CatalogFile = "catalog-content.json"

// Sheet is one entry of the catalog: a file covering sprite ids FirstID
// through LastID.
type Sheet struct {
	FirstID, LastID uint32
	Type            SpriteType
	File            string

	pix []byte
}

func (s *Sheet) Contains(id uint32) bool {
	return s.FirstID <= id && id <= s.LastID
}

// Loaded reports whether the sheet's pixels have been decoded.
func (s *Sheet) Loaded() bool { return s.pix != nil }

// Catalog maps sprite ids to sheets and decodes sheets on first use.
//
// A Catalog is not safe for concurrent use, with the exception of the
// goroutines Preload starts itself.
type Catalog struct {
	fsys   fs.FS
	guard  *memguard.Guard
	sheets []*Sheet
	cache  *sprite.Cache
}

// NewCatalog returns an empty catalog reading from fsys, which should be
// rooted at the assets directory. guard may be nil.
func NewCatalog(fsys fs.FS, guard *memguard.Guard) *Catalog {
	return &Catalog{fsys: fsys, guard: guard, cache: sprite.NewCache()}
}

// Open resolves path with ResolveAssetsDir and loads its catalog.
func Open(path string, guard *memguard.Guard) (*Catalog, error) {
	dir, err := ResolveAssetsDir(path)
	if err != nil {
		return nil, err
	}
	c := NewCatalog(os.DirFS(dir), guard)
	if err := c.LoadCatalogContent(); err != nil {
		return nil, errors.Wrap(err, dir)
	}
	glog.Infof("sheet: %s: %d sheets, sprites up to %d", dir, len(c.sheets), c.SpriteCount())
	return c, nil
}

// LoadCatalogContent reads the sprite entries of catalog-content.json.
// Other entry types are ignored. Sheets are not decoded.
func (c *Catalog) LoadCatalogContent() error {
	data, err := fs.ReadFile(c.fsys, CatalogFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return errors.Wrapf(sprite.ErrFileNotFound, "sheet: %s", CatalogFile)
		}
		return errors.Wrapf(err, "sheet: reading %s", CatalogFile)
	}
	if len(data) == 0 {
		return errors.Wrapf(sprite.ErrEmptyFile, "sheet: %s", CatalogFile)
	}
	if !gjson.ValidBytes(data) {
		return errors.Wrapf(sprite.ErrMalformedHeader, "sheet: %s is not valid JSON", CatalogFile)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return errors.Wrapf(sprite.ErrMalformedHeader, "sheet: %s is not a JSON array", CatalogFile)
	}

	var sheets []*Sheet
	for i, entry := range doc.Array() {
		if !entry.IsObject() {
			return errors.Wrapf(sprite.ErrMalformedHeader, "sheet: %s entry %d is not an object", CatalogFile, i)
		}
		if entry.Get("type").String() != "sprite" {
			continue
		}
		s, err := parseSheetEntry(entry)
		if err != nil {
			return errors.Wrapf(sprite.ErrMalformedHeader, "sheet: %s entry %d: %v", CatalogFile, i, err)
		}
		sheets = append(sheets, s)
	}
	if len(sheets) == 0 {
		return errors.Wrapf(sprite.ErrMalformedHeader, "sheet: no sprite sheets in %s", CatalogFile)
	}
	c.sheets = sheets
	c.cache.Clear()
	return nil
}

func intField(entry gjson.Result, key string) (int64, error) {
	v := entry.Get(key)
	switch v.Type {
	case gjson.Number:
		return v.Int(), nil
	case gjson.String:
		n, err := strconv.ParseInt(v.Str, 10, 64)
		if err != nil {
			return 0, errors.Errorf("%s: %v", key, err)
		}
		return n, nil
	}
	return 0, errors.Errorf("%s: missing or not a number", key)
}

func parseSheetEntry(entry gjson.Result) (*Sheet, error) {
	first, err := intField(entry, "firstspriteid")
	if err != nil {
		return nil, err
	}
	last, err := intField(entry, "lastspriteid")
	if err != nil {
		return nil, err
	}
	typ, err := intField(entry, "spritetype")
	if err != nil {
		return nil, err
	}
	file := entry.Get("file")
	if file.Type != gjson.String || file.Str == "" {
		return nil, errors.New("file: missing or not a string")
	}
	if first < 0 || last < 0 || first > 1<<32-1 || last > 1<<32-1 {
		return nil, errors.Errorf("sprite range %d-%d out of bounds", first, last)
	}
	return &Sheet{FirstID: uint32(first), LastID: uint32(last), Type: SpriteType(typ), File: file.Str}, nil
}

// Sheets returns the catalog's sheets in file order.
func (c *Catalog) Sheets() []*Sheet { return c.sheets }

// SpriteCount returns the highest sprite id any sheet covers.
func (c *Catalog) SpriteCount() int {
	var n uint32
	for _, s := range c.sheets {
		if s.LastID > n {
			n = s.LastID
		}
	}
	return int(n)
}

// CacheLen returns the number of sprites currently cached.
func (c *Catalog) CacheLen() int { return c.cache.Len() }

// FindSheet returns the first sheet in catalog order covering id.
func (c *Catalog) FindSheet(id uint32) (*Sheet, bool) {
	for _, s := range c.sheets {
		if s.Contains(id) {
			return s, true
		}
	}
	return nil, false
}

func (c *Catalog) loadSheet(s *Sheet) error {
	if s.Loaded() {
		return nil
	}
	pix, err := c.decodeFile(s.File)
	if err != nil {
		return err
	}
	s.pix = pix
	return nil
}

// decodeFile only reads shared state, so Preload may call it concurrently.
func (c *Catalog) decodeFile(name string) ([]byte, error) {
	blob, err := fs.ReadFile(c.fsys, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, errors.Wrapf(sprite.ErrFileNotFound, "sheet: %s", name)
		}
		return nil, errors.Wrapf(err, "sheet: reading %s", name)
	}
	pix, err := DecodeSheet(blob, c.guard)
	if err != nil {
		return nil, errors.Wrap(err, name)
	}
	glog.V(2).Infof("sheet: decoded %s", name)
	return pix, nil
}

// SpriteRGBA returns sprite id as a BGRA block of its sheet's sprite size.
func (c *Catalog) SpriteRGBA(id uint32) (sprite.Sprite, error) {
	if s, ok := c.cache.Get(id); ok {
		return s, nil
	}
	sh, ok := c.FindSheet(id)
	if !ok {
		return sprite.Sprite{}, errors.Wrapf(sprite.ErrOutOfRange, "sheet: no sheet for sprite %d", id)
	}
	if err := c.loadSheet(sh); err != nil {
		return sprite.Sprite{}, err
	}

	w, h := sh.Type.Size()
	offset := int(id - sh.FirstID)
	cols := sh.Type.columns()
	row, col := offset/cols, offset%cols
	wBytes := w * sprite.BytesPerPixel

	out := sprite.Blank(w, h)
	for y := 0; y < h; y++ {
		src := (row*h+y)*RowBytes + col*wBytes
		if src+wBytes > len(sh.pix) {
			return sprite.Sprite{}, errors.Wrapf(sprite.ErrOutOfRange, "sheet: sprite %d lies outside %s", id, sh.File)
		}
		copy(out.Pix[y*wBytes:(y+1)*wBytes], sh.pix[src:src+wBytes])
	}
	c.cache.Insert(id, out, c.guard, "sprite_cache")
	return out, nil
}

// Preload decodes every sheet not yet loaded, using up to workers
// goroutines. It stops at the first error; sheets decoded until then stay
// loaded.
func (c *Catalog) Preload(workers int) error {
	if workers < 1 {
		workers = 1
	}
	pending := make([]*Sheet, 0, len(c.sheets))
	for _, s := range c.sheets {
		if !s.Loaded() {
			pending = append(pending, s)
		}
	}
	pix := make([][]byte, len(pending))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, s := range pending {
		i, s := i, s
		g.Go(func() error {
			p, err := c.decodeFile(s.File)
			if err != nil {
				return err
			}
			pix[i] = p
			return nil
		})
	}
	err := g.Wait()
	for i, s := range pending {
		if pix[i] != nil {
			s.pix = pix[i]
		}
	}
	return err
}

// ResolveAssetsDir accepts either an assets directory or a client root with
// an assets subdirectory, and returns the assets directory.
func ResolveAssetsDir(path string) (string, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(sprite.ErrFileNotFound, "sheet: %s", path)
		}
		return "", errors.Wrapf(err, "sheet: %s", path)
	}
	for _, dir := range []string{path, filepath.Join(path, "assets")} {
		if _, err := os.Stat(filepath.Join(dir, CatalogFile)); err == nil {
			return dir, nil
		}
	}
	return "", errors.Wrapf(sprite.ErrFileNotFound, "sheet: neither %s nor %s/assets holds %s", path, path, CatalogFile)
}
