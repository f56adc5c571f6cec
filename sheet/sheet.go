// Package sheet reads the sprite sheets of modern clients.
//
// A client's assets directory holds catalog-content.json, which lists sheet
// files and the sprite id range each one covers. A sheet file is an LZMA
// compressed BMP of 384x384 pixels, cut into a grid of equally sized
// sprites.
package sheet

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
	"github.com/ulikunitz/xz/lzma"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// Sheet dimensions.
const (
	Width        = 384
	Height       = 384
	RowBytes     = Width * sprite.BytesPerPixel
	PixelBytes   = Height * RowBytes
	bmpHeaderLen = 54
)

// markerLen is the length of the constant 70 0A FA 80 24 that follows the
// padding.
const markerLen = 5

// maxDictSize bounds the LZMA dictionary a sheet may ask for.
const maxDictSize = 64 << 20

// SpriteType is the sprite layout of a sheet.
type SpriteType int

const (
	SpriteType32x32 SpriteType = iota
	SpriteType32x64
	SpriteType64x32
	SpriteType64x64
)

// Size returns the width and height of one sprite. Unknown types are
// treated as 32x32.
func (t SpriteType) Size() (w, h int) {
	switch t {
	case SpriteType32x64:
		return 32, 64
	case SpriteType64x32:
		return 64, 32
	case SpriteType64x64:
		return 64, 64
	}
	return 32, 32
}

// columns is the number of sprites per sheet row.
func (t SpriteType) columns() int {
	if w, _ := t.Size(); w == 32 {
		return 12
	}
	return 6
}

// DecodeSheet unpacks one sheet file into Width*Height BGRA pixels, top row
// first. guard, if not nil, bounds the size of the decompressed data.
//
// The file is NUL padding, a 5-byte marker, the compressed size as a 7-bit
// varint, and an LZMA stream with its own 13-byte header: properties, u32
// dictionary size and an 8-byte size field that is ignored.
func DecodeSheet(blob []byte, guard *memguard.Guard) ([]byte, error) {
	if len(blob) == 0 {
		return nil, sprite.ErrEmptyFile
	}
	pos := 0
	for pos < len(blob) && blob[pos] == 0 {
		pos++
	}
	if pos >= len(blob) {
		return nil, errors.Wrap(sprite.ErrMalformedHeader, "sheet: all zero")
	}
	pos += markerLen
	for pos < len(blob) && blob[pos]&0x80 != 0 {
		pos++
	}
	pos++
	if pos+1+4+8 >= len(blob) {
		return nil, errors.Wrap(sprite.ErrMalformedHeader, "sheet: truncated header")
	}

	v := int(blob[pos])
	props := lzma.Properties{LC: v % 9, LP: (v / 9) % 5, PB: (v / 9) / 5}
	if props.PB > 4 {
		return nil, errors.Wrapf(sprite.ErrDecompress, "sheet: invalid lzma properties byte %#x", v)
	}
	dictSize := binary.LittleEndian.Uint32(blob[pos+1:])
	pos += 1 + 4 + 8
	// The decoder allocates the whole dictionary up front.
	if dictSize > maxDictSize {
		return nil, errors.Wrapf(sprite.ErrDecompress, "sheet: lzma dictionary of %d bytes exceeds %d", dictSize, maxDictSize)
	}

	limit := int64(-1)
	if guard != nil && guard.Enabled() && guard.Config().HardSheetBytes > 0 {
		limit = guard.Config().HardSheetBytes
		// No match reaches further back than the output we accept.
		if int64(dictSize) > limit+1 {
			dictSize = uint32(limit + 1)
		}
	}

	hdr := make([]byte, lzma.HeaderLen)
	hdr[0] = props.Code()
	binary.LittleEndian.PutUint32(hdr[1:], dictSize)
	for i := 5; i < lzma.HeaderLen; i++ {
		hdr[i] = 0xFF
	}
	zr, err := lzma.NewReader(io.MultiReader(bytes.NewReader(hdr), bytes.NewReader(blob[pos:])))
	if err != nil {
		return nil, errors.Wrapf(sprite.ErrDecompress, "sheet: %v", err)
	}

	var src io.Reader = zr
	if limit >= 0 {
		src = io.LimitReader(zr, limit+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		// Some encoders leave out the end marker; the data is usable if
		// the bitmap checks below pass.
		if err != io.ErrUnexpectedEOF || len(data) == 0 {
			return nil, errors.Wrapf(sprite.ErrDecompress, "sheet: %v", err)
		}
	}
	if limit >= 0 && int64(len(data)) > limit {
		breach := guard.CheckSheetBytes(int64(len(data)), "sprite_sheet")
		return nil, errors.Wrapf(sprite.ErrOutOfMemory, "sheet: %v", breach)
	}

	if len(data) < bmpHeaderLen {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "sheet: decompressed to %d byte(s)", len(data))
	}
	off := int64(binary.LittleEndian.Uint32(data[10:]))
	if off == 0 || off+PixelBytes > int64(len(data)) {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "sheet: bitmap pixel offset %d out of bounds for %d byte(s)", off, len(data))
	}

	// Bitmaps are stored bottom-up.
	pix := make([]byte, PixelBytes)
	bottomUp := data[off : off+PixelBytes]
	for y := 0; y < Height; y++ {
		copy(pix[y*RowBytes:(y+1)*RowBytes], bottomUp[(Height-1-y)*RowBytes:])
	}
	return pix, nil
}
