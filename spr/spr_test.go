package spr

import (
	"bytes"
	"encoding/binary"
	"image"
	"os"
	"path/filepath"
	"testing"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sprite"
	"badc0de.net/pkg/go-tibia-assets/ttesting"
)

const sig854 = 0x4868ECC9

// redPixel is a payload with one red pixel at index 1.
var redPixel = []byte{1, 0, 1, 0, 0xFF, 0x00, 0x00}

// buildSpr assembles an spr file. A nil payload gets a zero offset.
func buildSpr(extended bool, payloads ...[]byte) []byte {
	var buf bytes.Buffer
	binary.Write(&buf, binary.LittleEndian, uint32(sig854))
	if extended {
		binary.Write(&buf, binary.LittleEndian, uint32(len(payloads)))
	} else {
		binary.Write(&buf, binary.LittleEndian, uint16(len(payloads)))
	}
	off := buf.Len() + 4*len(payloads)
	var blocks bytes.Buffer
	for _, p := range payloads {
		if p == nil {
			binary.Write(&buf, binary.LittleEndian, uint32(0))
			continue
		}
		binary.Write(&buf, binary.LittleEndian, uint32(off+blocks.Len()))
		blocks.Write([]byte{0xFF, 0x00, 0xFF})
		binary.Write(&blocks, binary.LittleEndian, uint16(len(p)))
		blocks.Write(p)
	}
	buf.Write(blocks.Bytes())
	return buf.Bytes()
}

type countingReaderAt struct {
	r     *bytes.Reader
	reads int
}

func (c *countingReaderAt) ReadAt(p []byte, off int64) (int, error) {
	c.reads++
	return c.r.ReadAt(p, off)
}

func newArchive(t *testing.T, data []byte, guard *memguard.Guard) *Archive {
	t.Helper()
	a, err := NewArchive(bytes.NewReader(data), int64(len(data)), guard)
	if err != nil {
		t.Fatalf("NewArchive: %v", err)
	}
	return a
}

func TestDecodeRLE(t *testing.T) {
	out := DecodeRLE(redPixel)
	ttesting.AssertEqualInt(t, "canvas size", len(out), 32*32*4)
	ttesting.AssertEqualBytes(t, "pixel 0 transparent", out[0:4], []byte{0, 0, 0, 0})
	ttesting.AssertEqualBytes(t, "pixel 1 red in BGRA", out[4:8], []byte{0x00, 0x00, 0xFF, 0xFF})
	ttesting.AssertEqualBytes(t, "pixel 2 transparent", out[8:12], []byte{0, 0, 0, 0})

	t.Run("truncated payload is partial", func(t *testing.T) {
		out := DecodeRLE([]byte{0, 0, 3, 0, 1, 2, 3, 4, 5})
		ttesting.AssertEqualBytes(t, "first pixel", out[0:4], []byte{3, 2, 1, 0xFF})
		ttesting.AssertEqualBytes(t, "incomplete second pixel", out[4:8], []byte{0, 0, 0, 0})
	})
	t.Run("runs past the canvas stop", func(t *testing.T) {
		out := DecodeRLE([]byte{0xFF, 0x03, 5, 0, 9, 9, 9, 9, 9, 9})
		ttesting.AssertEqualBytes(t, "last pixel", out[len(out)-4:], []byte{9, 9, 9, 0xFF})
		out = DecodeRLE([]byte{0x00, 0x04, 1, 0, 9, 9, 9})
		ttesting.AssertEqualBytes(t, "all transparent", out[len(out)-4:], []byte{0, 0, 0, 0})
	})
	t.Run("empty", func(t *testing.T) {
		ttesting.AssertEqualInt(t, "blank canvas", len(DecodeRLE(nil)), 32*32*4)
	})
}

func TestArchiveHeaderDetection(t *testing.T) {
	t.Run("u16 count", func(t *testing.T) {
		a := newArchive(t, buildSpr(false, redPixel, nil), nil)
		ttesting.AssertEqualBool(t, "extended", a.IsExtended(), false)
		ttesting.AssertEqualInt(t, "count", a.SpriteCount(), 2)
		ttesting.AssertEqualUint32(t, "signature", a.Signature(), sig854)
	})
	t.Run("u32 count", func(t *testing.T) {
		a := newArchive(t, buildSpr(true, redPixel, redPixel, nil), nil)
		ttesting.AssertEqualBool(t, "extended", a.IsExtended(), true)
		ttesting.AssertEqualInt(t, "count", a.SpriteCount(), 3)
	})
	t.Run("both readings valid prefers u32", func(t *testing.T) {
		// One sprite, no offsets written as u16, and a u32 reading of 1
		// that fits as well: count bytes 01 00 00 00.
		data := []byte{0xC9, 0xEC, 0x68, 0x48, 1, 0, 0, 0, 0, 0, 0, 0}
		a := newArchive(t, data, nil)
		ttesting.AssertEqualBool(t, "extended", a.IsExtended(), true)
		ttesting.AssertEqualInt(t, "count", a.SpriteCount(), 1)
	})

	for _, tc := range []struct {
		name string
		data []byte
	}{
		{"too small", []byte{1, 2, 3, 4, 5, 6, 7}},
		{"zero count", []byte{0xC9, 0xEC, 0x68, 0x48, 0, 0, 0, 0}},
		{"count too large", []byte{0xC9, 0xEC, 0x68, 0x48, 0xFF, 0xFF, 0, 0}},
	} {
		_, err := NewArchive(bytes.NewReader(tc.data), int64(len(tc.data)), nil)
		ttesting.AssertErrorIs(t, tc.name, err, sprite.ErrMalformedHeader)
	}
	_, err := NewArchive(bytes.NewReader(nil), 0, nil)
	ttesting.AssertErrorIs(t, "empty", err, sprite.ErrEmptyFile)
}

func TestArchiveSpriteRGBA(t *testing.T) {
	a := newArchive(t, buildSpr(false, redPixel, nil, []byte{}), nil)

	s, err := a.SpriteRGBA(1)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualInt(t, "width", s.Width, 32)
	ttesting.AssertEqualBytes(t, "red pixel", s.Pix[4:8], []byte{0x00, 0x00, 0xFF, 0xFF})

	for _, id := range []uint32{2, 3} {
		s, err := a.SpriteRGBA(id)
		if err != nil {
			t.Fatalf("sprite %d: %v", id, err)
		}
		ttesting.AssertEqualBytes(t, "blank sprite", s.Pix, make([]byte, 32*32*4))
	}

	for _, id := range []uint32{0, 4, 1 << 31} {
		_, err := a.SpriteRGBA(id)
		ttesting.AssertErrorIs(t, "out of range", err, sprite.ErrOutOfRange)
	}
}

func TestArchiveTruncatedPayload(t *testing.T) {
	data := buildSpr(false, redPixel)
	_, err := newArchive(t, data[:len(data)-2], nil).SpriteRGBA(1)
	ttesting.AssertErrorIs(t, "short payload", err, sprite.ErrTruncatedPayload)

	// Chop inside the size field: header (6), one offset (4), color key (3), one size byte.
	_, err = newArchive(t, data[:14], nil).SpriteRGBA(1)
	ttesting.AssertErrorIs(t, "missing size", err, sprite.ErrTruncatedPayload)
}

func TestArchiveCachesDecodedSprites(t *testing.T) {
	data := buildSpr(true, redPixel, redPixel)
	cr := &countingReaderAt{r: bytes.NewReader(data)}
	a, err := NewArchive(cr, int64(len(data)), nil)
	if err != nil {
		t.Fatal(err)
	}
	first, err := a.SpriteRGBA(2)
	if err != nil {
		t.Fatal(err)
	}
	reads := cr.reads
	second, err := a.SpriteRGBA(2)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualInt(t, "no reads on cache hit", cr.reads, reads)
	ttesting.AssertEqualBytes(t, "identical result", second.Pix, first.Pix)
	ttesting.AssertEqualInt(t, "cached entries", a.CacheLen(), 1)
}

func TestArchiveGuardEviction(t *testing.T) {
	cfg := memguard.DefaultConfig()
	cfg.WarnSpriteCacheEntries = 1
	cfg.HardSpriteCacheEntries = 2
	cfg.EvictToSpriteCacheEntries = 1
	payloads := [][]byte{redPixel, redPixel, redPixel, redPixel}
	a := newArchive(t, buildSpr(false, payloads...), memguard.New(cfg))

	for id := uint32(1); id <= 4; id++ {
		before, err := a.SpriteRGBA(id)
		if err != nil {
			t.Fatal(err)
		}
		ttesting.AssertInRangeInt(t, "cache bounded", a.CacheLen(), 1, 2)
		again, _ := a.SpriteRGBA(id)
		ttesting.AssertEqualBytes(t, "stable after eviction", again.Pix, before.Pix)
	}
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	_, err := Open(filepath.Join(dir, "Tibia.spr"), nil)
	ttesting.AssertErrorIs(t, "missing", err, sprite.ErrFileNotFound)

	path := filepath.Join(dir, "Tibia.spr")
	if err := os.WriteFile(path, buildSpr(false, redPixel), 0644); err != nil {
		t.Fatal(err)
	}
	a, err := Open(path, memguard.NewDefault())
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()
	ttesting.AssertEqualInt(t, "count", a.SpriteCount(), 1)
}

func TestImageDecode(t *testing.T) {
	img, format, err := image.Decode(bytes.NewReader(buildSpr(false, redPixel)))
	if err != nil {
		t.Fatal(err)
	}
	if format != "spr" {
		t.Errorf("format %q; want spr", format)
	}
	r, g, b, a := img.At(1, 0).RGBA()
	if r != 0xFFFF || g != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("pixel (1,0) = %x %x %x %x; want opaque red", r, g, b, a)
	}

	img, err = DecodeOne(bytes.NewReader(buildSpr(true, nil, redPixel)), 2)
	if err != nil {
		t.Fatal(err)
	}
	ttesting.AssertEqualInt(t, "width", img.Bounds().Dx(), 32)
}
