package things

import (
	"image"
	"image/draw"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/appearances"
	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// ItemFrame composites all tiles and layers of a legacy item into one
// image. Tiles grow to the left and up from the bottom-right tile, the
// way the client draws them.
func (t *Things) ItemFrame(clientID uint16, frame, x, y, z int) (image.Image, error) {
	item, ok := t.legacyItem(appearances.KindObject, uint32(clientID))
	if !ok {
		return nil, errors.Wrapf(sprite.ErrOutOfRange, "things: no item %d", clientID)
	}
	w, h := item.Width, item.Height
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if item.PatternX > 0 {
		x %= item.PatternX
	}
	if item.PatternY > 0 {
		y %= item.PatternY
	}
	if item.PatternZ > 0 {
		z %= item.PatternZ
	}

	img := image.NewNRGBA(image.Rect(0, 0, w*sprite.Dim, h*sprite.Dim))
	glog.V(2).Infof("compositing item %d frame %d pattern %d,%d,%d: %dx%d tiles", clientID, frame, x, y, z, w, h)
	for layer := 0; layer < item.Layers; layer++ {
		for ty := 0; ty < h; ty++ {
			for tx := 0; tx < w; tx++ {
				sid, ok := item.SpriteIDAt(tx, ty, layer, x, y, z, frame)
				if !ok || sid == 0 {
					continue
				}
				spr, err := t.source.SpriteRGBA(sid)
				if err != nil {
					return nil, errors.Wrapf(err, "things: item %d", clientID)
				}
				r := image.Rect((w-tx-1)*sprite.Dim, (h-ty-1)*sprite.Dim, (w-tx)*sprite.Dim, (h-ty)*sprite.Dim)
				draw.Draw(img, r, spr.Image(), image.Point{}, draw.Over)
			}
		}
	}
	return img, nil
}
