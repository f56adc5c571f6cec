// Package sprite holds what the legacy and modern sprite decoders share: the
// decoded pixel block, the error kinds they report, and the bounded decode
// cache.
package sprite

import (
	"image"

	"github.com/pkg/errors"
)

// Sizes of a regular (legacy) sprite.
const (
	Dim           = 32
	BytesPerPixel = 4
)

var (
	ErrFileNotFound     = errors.New("file not found")
	ErrEmptyFile        = errors.New("file is empty")
	ErrMalformedHeader  = errors.New("malformed header")
	ErrOutOfRange       = errors.New("sprite id out of range")
	ErrDecompress       = errors.New("decompression failed")
	ErrTruncatedPayload = errors.New("truncated sprite payload")
	ErrOutOfMemory      = errors.New("out of memory")
)

// Sprite is a decoded pixel block. Pix holds Width*Height pixels in B, G, R,
// A byte order, rows top to bottom.
type Sprite struct {
	Width, Height int
	Pix           []byte
}

// Blank returns a fully transparent sprite.
func Blank(w, h int) Sprite {
	return Sprite{Width: w, Height: h, Pix: make([]byte, w*h*BytesPerPixel)}
}

// Image converts the sprite into an image.NRGBA.
func (s Sprite) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, s.Width, s.Height))
	n := s.Width * s.Height * BytesPerPixel
	if n > len(s.Pix) {
		n = len(s.Pix)
	}
	for i := 0; i+3 < n; i += 4 {
		img.Pix[i+0] = s.Pix[i+2]
		img.Pix[i+1] = s.Pix[i+1]
		img.Pix[i+2] = s.Pix[i+0]
		img.Pix[i+3] = s.Pix[i+3]
	}
	return img
}

// Source resolves a sprite id into a pixel block.
//
// It is implemented by both the legacy archive and the modern sheet
// catalog. Implementations are not safe for concurrent use.
type Source interface {
	SpriteRGBA(id uint32) (Sprite, error)
}
