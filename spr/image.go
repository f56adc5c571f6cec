package spr

// This file contains spr package's functions related to implementing
// image.Image and related interfaces, so that image.Decode understands spr
// files.

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

func init() {
	// Spr 8.54: 0x4868ECC9
	image.RegisterFormat("spr", string([]byte{0xC9, 0xEC, 0x68, 0x48}), Decode, DecodeConfig)
}

// DecodeConfig returns the image.Config of a sprite. All spr sprites are
// 32x32.
func DecodeConfig(r io.Reader) (image.Config, error) {
	return image.Config{Width: sprite.Dim, Height: sprite.Dim, ColorModel: color.NRGBAModel}, nil
}

// Decode returns the first sprite of an spr file.
func Decode(r io.Reader) (image.Image, error) {
	ra, size, err := readerAt(r)
	if err != nil {
		return nil, err
	}
	return decodeOne(ra, size, 1)
}

// DecodeOne accepts an io.ReadSeeker positioned at the beginning of a
// spr-formatted file (a sprite set file), finds the image with passed index,
// and returns the requested image as an image.Image.
func DecodeOne(r io.ReadSeeker, which int) (image.Image, error) {
	ra, size, err := readerAt(r)
	if err != nil {
		return nil, err
	}
	return decodeOne(ra, size, which)
}

func decodeOne(r io.ReaderAt, size int64, which int) (image.Image, error) {
	if which <= 0 {
		return nil, errors.Wrapf(sprite.ErrOutOfRange, "spr: sprite %d", which)
	}
	a, err := NewArchive(r, size, nil)
	if err != nil {
		return nil, errors.Wrap(err, "spr")
	}
	s, err := a.SpriteRGBA(uint32(which))
	if err != nil {
		return nil, err
	}
	return s.Image(), nil
}

type seekReaderAt struct {
	io.ReadSeeker
}

func (s seekReaderAt) ReadAt(p []byte, off int64) (int, error) {
	if _, err := s.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	return io.ReadFull(s.ReadSeeker, p)
}

// readerAt turns r into an io.ReaderAt, reading it whole if it cannot seek.
func readerAt(r io.Reader) (io.ReaderAt, int64, error) {
	switch rr := r.(type) {
	case io.ReadSeeker:
		size, err := rr.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, errors.Wrap(err, "spr: seeking")
		}
		if ra, ok := r.(io.ReaderAt); ok {
			return ra, size, nil
		}
		return seekReaderAt{rr}, size, nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, errors.Wrap(err, "spr: reading")
	}
	return bytes.NewReader(data), int64(len(data)), nil
}
