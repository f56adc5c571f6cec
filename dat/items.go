package dat

import (
	"bytes"
	"encoding/binary"
	"io"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// Item flags. Each flag byte may be followed by a payload; 0xFF ends the
// list.
const (
	flagGround       = 0
	flagOnBottom     = 2
	flagOnTop        = 3
	flagStackable    = 5
	flagWritable     = 8
	flagWritableOnce = 9
	flagLight        = 21
	flagDisplacement = 24
	flagElevation    = 25
	flagMinimapColor = 28
	flagLensHelp     = 29
	flagCloth        = 32
	flagMarket       = 33
	flagUsable       = 34
	flagLast         = 0xFF
)

const firstItemID = 100

// DurationMode says whether animated items carry a frame duration block.
// Dat files of different client generations disagree and nothing in the
// header tells them apart.
type DurationMode int

const (
	// DurationsAuto parses both ways and keeps the more plausible result.
	DurationsAuto DurationMode = iota
	DurationsPresent
	DurationsAbsent
)

// LegacyAnimation is the frame timing of an animated item.
type LegacyAnimation struct {
	Frames      int
	DurationsMs []int64
	StartFrame  int
	LoopCount   int
	Async       bool
}

const defaultFrameMs = 200

// FrameAt returns the frame shown t milliseconds into the animation.
func (a *LegacyAnimation) FrameAt(t int64) int {
	frames := a.Frames
	if frames <= 1 {
		return 0
	}
	d := make([]int64, frames)
	var total int64
	for i := range d {
		d[i] = defaultFrameMs
		if i < len(a.DurationsMs) && a.DurationsMs[i] > 0 {
			d[i] = a.DurationsMs[i]
		}
		total += d[i]
	}
	t %= total
	if t < 0 {
		t += total
	}
	for i, di := range d {
		if t < di {
			return i
		}
		t -= di
	}
	return frames - 1
}

// ItemSpriteInfo is the graphics layout of one item.
type ItemSpriteInfo struct {
	ID uint16

	SpriteIDs []uint32
	Width     int
	Height    int
	ExactSize int
	Layers    int
	PatternX  int
	PatternY  int
	PatternZ  int
	Frames    int

	Ground, Bottom, Top, Stackable bool

	DrawOffsetX, DrawOffsetY int
	DrawHeight               int

	LightLevel, LightColor uint16
	HasMinimapColor        bool
	MinimapColor           uint16

	// Animation is nil unless the item has more than one frame and the
	// file carries frame durations.
	Animation *LegacyAnimation
}

// SpriteIndex returns the position in SpriteIDs of the sprite covering tile
// (w, h) of the given layer, pattern and frame. frame wraps around.
func (i *ItemSpriteInfo) SpriteIndex(w, h, layer, px, py, pz, frame int) int {
	frames := i.Frames
	if frames < 1 {
		frames = 1
	}
	return ((((((frame%frames)*i.PatternZ+pz)*i.PatternY+py)*i.PatternX+px)*i.Layers+layer)*i.Height+h)*i.Width + w
}

// SpriteIDAt returns the sprite id at SpriteIndex. Indices outside
// SpriteIDs wrap around.
func (i *ItemSpriteInfo) SpriteIDAt(w, h, layer, px, py, pz, frame int) (uint32, bool) {
	n := len(i.SpriteIDs)
	if n == 0 {
		return 0, false
	}
	idx := i.SpriteIndex(w, h, layer, px, py, pz, frame)
	if idx >= 0 && idx < n {
		return i.SpriteIDs[idx], true
	}
	if n == 1 {
		return i.SpriteIDs[0], true
	}
	idx %= n
	if idx < 0 {
		idx += n
	}
	return i.SpriteIDs[idx], true
}

// FrameAt returns the frame to show t milliseconds into the item's
// animation. Items without duration data use 200ms per frame.
func (i *ItemSpriteInfo) FrameAt(t int64) int {
	if i.Animation != nil {
		return i.Animation.FrameAt(t)
	}
	return (&LegacyAnimation{Frames: i.Frames}).FrameAt(t)
}

// ItemSprites is the item section of a dat file.
type ItemSprites struct {
	Header Header
	Items  map[uint16]*ItemSpriteInfo

	// ValidRatio is the share of parsed sprite ids within the sprite
	// archive's range.
	ValidRatio float64
}

func (s *ItemSprites) Item(id uint16) (*ItemSpriteInfo, bool) {
	i, ok := s.Items[id]
	return i, ok
}

// LoadItemSprites parses the items of dat file data. spriteCount and
// extended come from the matching spr archive: extended files store u32
// sprite ids.
func LoadItemSprites(data []byte, spriteCount int, extended bool, mode DurationMode) (*ItemSprites, error) {
	if len(data) == 0 {
		return nil, sprite.ErrEmptyFile
	}
	if len(data) < headerSize {
		return nil, errors.Wrapf(sprite.ErrMalformedHeader, "dat: %d byte(s) is too small", len(data))
	}

	switch mode {
	case DurationsPresent:
		return parseItems(data, spriteCount, extended, true)
	case DurationsAbsent:
		return parseItems(data, spriteCount, extended, false)
	}

	with, errWith := parseItems(data, spriteCount, extended, true)
	without, errWithout := parseItems(data, spriteCount, extended, false)
	switch {
	case errWith != nil && errWithout != nil:
		return nil, errWith
	case errWithout != nil:
		return with, nil
	case errWith != nil:
		glog.V(1).Infof("dat: items do not parse with frame durations (%v)", errWith)
		return without, nil
	}
	glog.V(1).Infof("dat: valid sprite ids with durations %.3f, without %.3f", with.ValidRatio, without.ValidRatio)
	if with.ValidRatio >= without.ValidRatio {
		return with, nil
	}
	return without, nil
}

// reader reads little-endian values and remembers the first failure.
type reader struct {
	*bytes.Reader
	err error
}

func (r *reader) read(v interface{}) {
	if r.err != nil {
		return
	}
	if err := binary.Read(r.Reader, binary.LittleEndian, v); err != nil {
		r.err = err
	}
}

func (r *reader) u8() int {
	var v uint8
	r.read(&v)
	return int(v)
}

func (r *reader) u16() uint16 {
	var v uint16
	r.read(&v)
	return v
}

func (r *reader) u32() uint32 {
	var v uint32
	r.read(&v)
	return v
}

func (r *reader) skip(n int) {
	if r.err != nil {
		return
	}
	if r.Len() < n {
		r.err = errors.Errorf("need %d byte(s), %d remain", n, r.Len())
		return
	}
	r.Seek(int64(n), io.SeekCurrent)
}

func parseItems(data []byte, spriteCount int, extended, durations bool) (*ItemSprites, error) {
	r := &reader{Reader: bytes.NewReader(data)}
	var h Header
	r.read(&h)

	res := &ItemSprites{Header: h, Items: make(map[uint16]*ItemSpriteInfo)}
	var valid, total int
	for id := firstItemID; id <= int(h.ItemCount); id++ {
		item := parseItem(r, uint16(id), extended, durations)
		if r.err != nil {
			return nil, errors.Wrapf(sprite.ErrMalformedHeader, "dat: item %d at offset %d: %v", id, len(data)-r.Len(), r.err)
		}
		for _, sid := range item.SpriteIDs {
			total++
			if sid > 0 && int64(sid) <= int64(spriteCount) {
				valid++
			}
		}
		res.Items[item.ID] = item
	}

	res.ValidRatio = 1
	if total > 0 {
		res.ValidRatio = float64(valid) / float64(total)
	}
	return res, nil
}

func parseItem(r *reader, id uint16, extended, durations bool) *ItemSpriteInfo {
	item := &ItemSpriteInfo{ID: id}
	for r.err == nil {
		flag := r.u8()
		if flag == flagLast {
			break
		}
		switch flag {
		case flagGround:
			item.Ground = true
			r.u16() // speed
		case flagOnBottom:
			item.Bottom = true
		case flagOnTop:
			item.Top = true
		case flagStackable:
			item.Stackable = true
		case flagWritable, flagWritableOnce, flagCloth, flagLensHelp, flagUsable:
			r.u16()
		case flagLight:
			item.LightLevel = r.u16()
			item.LightColor = r.u16()
		case flagDisplacement:
			item.DrawOffsetX = int(r.u16())
			item.DrawOffsetY = int(r.u16())
		case flagElevation:
			item.DrawHeight = int(r.u16())
		case flagMinimapColor:
			item.HasMinimapColor = true
			item.MinimapColor = r.u16()
		case flagMarket:
			r.u16() // category
			r.u16() // trade as
			r.u16() // show as
			r.skip(int(r.u16()))
			r.u16() // restrict profession
			r.u16() // minimum level
		}
	}

	item.Width = r.u8()
	item.Height = r.u8()
	if item.Width > 1 || item.Height > 1 {
		item.ExactSize = r.u8()
	}
	item.Layers = r.u8()
	item.PatternX = r.u8()
	item.PatternY = r.u8()
	item.PatternZ = r.u8()
	item.Frames = r.u8()

	if item.Frames > 1 && durations {
		a := &LegacyAnimation{Frames: item.Frames}
		a.Async = r.u8() == 0
		a.LoopCount = int(int32(r.u32()))
		var start int8
		r.read(&start)
		a.StartFrame = int(start)
		a.DurationsMs = make([]int64, item.Frames)
		for f := range a.DurationsMs {
			dmin, dmax := int64(r.u32()), int64(r.u32())
			if d := (dmin + dmax) / 2; d > 1 {
				a.DurationsMs[f] = d
			} else {
				a.DurationsMs[f] = 1
			}
		}
		item.Animation = a
	}

	n := item.Width * item.Height * item.Layers * item.PatternX * item.PatternY * item.PatternZ * item.Frames
	if r.err != nil {
		return item
	}
	idSize := 2
	if extended {
		idSize = 4
	}
	if n*idSize > r.Len() {
		r.err = errors.Errorf("%d sprite id(s) do not fit in %d byte(s)", n, r.Len())
		return item
	}
	item.SpriteIDs = make([]uint32, n)
	for i := range item.SpriteIDs {
		if extended {
			item.SpriteIDs[i] = r.u32()
		} else {
			item.SpriteIDs[i] = uint32(r.u16())
		}
	}
	return item
}
