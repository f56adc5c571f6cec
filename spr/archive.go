package spr

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// header is the fixed part of an spr file. Older files only have a u16
// sprite count, in which case Count's low half is the count and its high
// half belongs to the first offset.
type header struct {
	Signature uint32
	Count     uint32
}

// Archive gives random access to the sprites of an spr file. Sprites are
// decoded on first use and kept in an LRU cache bounded by the memory guard.
//
// An Archive is not safe for concurrent use.
type Archive struct {
	r        io.ReaderAt
	closer   io.Closer
	sig      uint32
	extended bool
	offsets  []uint32 // 1-indexed; offsets[0] is unused

	cache *sprite.Cache
	guard *memguard.Guard
}

// Open opens the spr file at path. guard may be nil.
func Open(path string, guard *memguard.Guard) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(sprite.ErrFileNotFound, "spr: %s", path)
		}
		return nil, errors.Wrapf(err, "spr: opening %s", path)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "spr: stat %s", path)
	}
	a, err := NewArchive(f, fi.Size(), guard)
	if err != nil {
		f.Close()
		return nil, errors.Wrapf(err, "spr: %s", path)
	}
	a.closer = f
	glog.Infof("spr: %s: %d sprites (extended=%v, signature %08x)", path, a.SpriteCount(), a.extended, a.sig)
	return a, nil
}

// NewArchive reads the header and offset table of the size bytes of spr
// data in r.
//
// A u32 sprite count is tried first and kept if the offset table it implies
// fits in the file; otherwise the count is read as u16.
func NewArchive(r io.ReaderAt, size int64, guard *memguard.Guard) (*Archive, error) {
	if size == 0 {
		return nil, sprite.ErrEmptyFile
	}
	if size < 8 {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "%d byte(s) is too small", size)
	}
	if guard != nil {
		if _, err := guard.CheckFileBytes(size, "spr"); err != nil {
			return nil, err
		}
	}

	var h header
	if err := binary.Read(io.NewSectionReader(r, 0, 8), binary.LittleEndian, &h); err != nil {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "reading header: %v", err)
	}

	a := &Archive{r: r, sig: h.Signature, cache: sprite.NewCache(), guard: guard}
	var count, tableOff int64
	if n := int64(h.Count); n > 0 && 8+4*n <= size {
		a.extended = true
		count, tableOff = n, 8
	} else {
		n := int64(uint16(h.Count))
		if n == 0 || 6+4*n > size {
			return nil, errors.Wrapf(sprite.ErrMalformedHeader, "invalid sprite count (u32 %d, u16 %d) for %d bytes", h.Count, n, size)
		}
		count, tableOff = n, 6
	}

	a.offsets = make([]uint32, count+1)
	if err := binary.Read(io.NewSectionReader(r, tableOff, 4*count), binary.LittleEndian, a.offsets[1:]); err != nil {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "reading offset table: %v", err)
	}
	return a, nil
}

func (a *Archive) SpriteCount() int { return len(a.offsets) - 1 }

// IsExtended reports whether the file uses a u32 sprite count.
func (a *Archive) IsExtended() bool { return a.extended }

func (a *Archive) Signature() uint32 { return a.sig }

// CacheLen returns the number of decoded sprites currently cached.
func (a *Archive) CacheLen() int { return a.cache.Len() }

// Close closes the underlying file if the archive was created by Open.
func (a *Archive) Close() error {
	a.cache.Clear()
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// SpriteRGBA returns sprite id as a 32x32 BGRA block. Sprites without data
// come back blank.
func (a *Archive) SpriteRGBA(id uint32) (sprite.Sprite, error) {
	if id == 0 || int64(id) > int64(a.SpriteCount()) {
		return sprite.Sprite{}, errors.Wrapf(sprite.ErrOutOfRange, "spr: sprite %d of %d", id, a.SpriteCount())
	}
	if s, ok := a.cache.Get(id); ok {
		return s, nil
	}

	off := int64(a.offsets[id])
	if off == 0 {
		return sprite.Blank(sprite.Dim, sprite.Dim), nil
	}

	// Each block starts with a 3-byte color key nobody uses.
	var sz [2]byte
	if n, _ := a.r.ReadAt(sz[:], off+3); n < len(sz) {
		return sprite.Sprite{}, errors.Wrapf(sprite.ErrTruncatedPayload, "spr: sprite %d: size missing at offset %d", id, off+3)
	}
	size := int(binary.LittleEndian.Uint16(sz[:]))
	if size == 0 {
		return sprite.Blank(sprite.Dim, sprite.Dim), nil
	}
	data := make([]byte, size)
	if n, _ := a.r.ReadAt(data, off+5); n < size {
		return sprite.Sprite{}, errors.Wrapf(sprite.ErrTruncatedPayload, "spr: sprite %d: read %d of %d byte(s)", id, n, size)
	}

	s := sprite.Sprite{Width: sprite.Dim, Height: sprite.Dim, Pix: DecodeRLE(data)}
	a.cache.Insert(id, s, a.guard, "legacy_sprite_cache")
	return s, nil
}
