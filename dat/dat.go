// Package dat reads the legacy Tibia.dat dataset: its header, and the
// per-item sprite layout needed to find an item's sprites in Tibia.spr.
package dat

import (
	"encoding/binary"
	"io"
	"os"

	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// Header is the fixed 12-byte start of a dat file.
type Header struct {
	Signature                                                uint32
	ItemCount, OutfitCount, EffectCount, DistanceEffectCount uint16
}

const headerSize = 12

// ReadHeader reads a Header from r.
func ReadHeader(r io.Reader) (Header, error) {
	var h Header
	if err := binary.Read(r, binary.LittleEndian, &h); err != nil {
		if err == io.EOF {
			return Header{}, sprite.ErrEmptyFile
		}
		return Header{}, errors.Wrapf(sprite.ErrMalformedHeader, "dat: reading header: %v", err)
	}
	return h, nil
}

// LoadHeader reads the header of the dat file at path.
func LoadHeader(path string) (Header, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Header{}, errors.Wrapf(sprite.ErrFileNotFound, "dat: %s", path)
		}
		return Header{}, errors.Wrapf(err, "dat: opening %s", path)
	}
	defer f.Close()
	h, err := ReadHeader(f)
	if err != nil {
		return Header{}, errors.Wrap(err, path)
	}
	return h, nil
}

// ClientVersion guesses the client version from the signature; see
// SignatureClientVersion.
func (h Header) ClientVersion() ClientVersion {
	return SignatureClientVersion(h.Signature)
}

// MaxItemID is the id of the last item; item ids start at 100.
func (h Header) MaxItemID() uint16 {
	return h.ItemCount
}
