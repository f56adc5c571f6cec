package appearances

import (
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"google.golang.org/protobuf/encoding/protowire"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/sprite"
	"badc0de.net/pkg/go-tibia-assets/wire"
)

// Decoder turns appearances.dat bytes into an Index.
//
// By default a malformed sub-message inside one appearance drops that
// appearance (or just the sub-message) and decoding continues. With Strict
// set, any malformed data fails the whole decode. A length running past the
// end of its enclosing message is fatal either way.
type Decoder struct {
	Strict bool
}

// Decode decodes data with the lenient default Decoder.
func Decode(data []byte) (*Index, error) {
	return Decoder{}.Decode(data)
}

// Load reads and decodes the file at path. guard may be nil.
func Load(path string, guard *memguard.Guard) (*Index, error) {
	return Decoder{}.Load(path, guard)
}

func (d Decoder) Load(path string, guard *memguard.Guard) (*Index, error) {
	if guard != nil {
		if _, err := guard.CheckFileSize(path, "appearances"); err != nil {
			return nil, err
		}
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(sprite.ErrFileNotFound, "appearances: %s", path)
		}
		return nil, errors.Wrapf(err, "appearances: reading %s", path)
	}
	if len(data) == 0 {
		return nil, errors.Wrapf(sprite.ErrEmptyFile, "appearances: %s", path)
	}
	ix, err := d.Decode(data)
	if err != nil {
		return nil, errors.Wrapf(err, "appearances: %s", path)
	}
	glog.V(1).Infof("appearances: %s: %d objects, %d outfits, %d effects, %d missiles", path,
		ix.Len(KindObject), ix.Len(KindOutfit), ix.Len(KindEffect), ix.Len(KindMissile))
	return ix, nil
}

func (d Decoder) Decode(data []byte) (*Index, error) {
	ix := newIndex()
	r := wire.NewReader(data)
	for !r.Done() {
		off := r.Offset()
		num, typ, err := r.Key()
		if err != nil {
			return nil, err
		}
		if typ != protowire.BytesType {
			if err := r.Skip(typ); err != nil {
				return nil, err
			}
			continue
		}
		entry, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		kind := Kind(num)
		if !kind.valid() {
			continue
		}

		id, info, flags, err := d.parseAppearance(entry, kind == KindObject)
		if err != nil {
			if err := d.nested(kind.String()+" entry", err); err != nil {
				return nil, errors.Wrapf(err, "at offset %d", off)
			}
			continue
		}
		if info == nil {
			continue
		}
		ix.add(kind, id, info, flags)
	}
	return ix, nil
}

// nested decides what happens to an error from a sub-message. It returns
// nil when decoding should carry on without it.
func (d Decoder) nested(what string, err error) error {
	if err == nil {
		return nil
	}
	if d.Strict || errors.Is(err, wire.ErrLengthOverrun) {
		return errors.Wrap(err, what)
	}
	glog.V(1).Infof("appearances: ignoring malformed %s: %v", what, err)
	return nil
}

// parseAppearance returns a nil info for entries without an id or without
// sprites.
func (d Decoder) parseAppearance(b []byte, wantFlags bool) (uint32, *SpriteInfo, *Flags, error) {
	var (
		id    uint32
		hasID bool
		info  *SpriteInfo
		flags *Flags
	)
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return 0, nil, nil, err
		}
		switch {
		case num == 1 && typ == protowire.VarintType:
			v, err := r.Varint()
			if err != nil {
				return 0, nil, nil, err
			}
			id, hasID = uint32(v), true
		case num == 2 && typ == protowire.BytesType:
			sub, err := r.Bytes()
			if err != nil {
				return 0, nil, nil, err
			}
			if info != nil {
				continue
			}
			fg, err := d.parseFrameGroup(sub)
			if err := d.nested("frame group", err); err != nil {
				return 0, nil, nil, err
			}
			info = fg
		case num == 3 && typ == protowire.BytesType && wantFlags:
			sub, err := r.Bytes()
			if err != nil {
				return 0, nil, nil, err
			}
			f, err := d.parseFlags(sub)
			if err := d.nested("flags", err); err != nil {
				return 0, nil, nil, err
			}
			if f != nil {
				flags = f
			}
		default:
			if err := r.Skip(typ); err != nil {
				return 0, nil, nil, err
			}
		}
	}
	if !hasID {
		return 0, nil, nil, nil
	}
	return id, info, flags, nil
}

func (d Decoder) parseFrameGroup(b []byte) (*SpriteInfo, error) {
	var info *SpriteInfo
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return nil, err
		}
		if num != 3 || typ != protowire.BytesType {
			if err := r.Skip(typ); err != nil {
				return nil, err
			}
			continue
		}
		sub, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		if info != nil {
			continue
		}
		si, err := d.parseSpriteInfo(sub)
		if err := d.nested("sprite info", err); err != nil {
			return nil, err
		}
		info = si
	}
	return info, nil
}

// parseSpriteInfo returns nil when the message lists no sprite ids.
func (d Decoder) parseSpriteInfo(b []byte) (*SpriteInfo, error) {
	info := &SpriteInfo{Layers: 1, PatternWidth: 1, PatternHeight: 1, PatternDepth: 1}
	var haveAnim bool
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return nil, err
		}
		if typ == protowire.VarintType && num >= 1 && num <= 5 {
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			switch num {
			case 1:
				info.PatternWidth = int(v)
			case 2:
				info.PatternHeight = int(v)
			case 3:
				info.PatternDepth = int(v)
			case 4:
				info.Layers = int(v)
			case 5:
				info.SpriteIDs = append(info.SpriteIDs, uint32(v))
			}
			continue
		}
		if num == 6 && typ == protowire.BytesType {
			sub, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			if haveAnim {
				continue
			}
			haveAnim = true
			a, err := d.parseAnimation(sub)
			if err := d.nested("animation", err); err != nil {
				return nil, err
			}
			info.Animation = a
			continue
		}
		if err := r.Skip(typ); err != nil {
			return nil, err
		}
	}
	if len(info.SpriteIDs) == 0 {
		return nil, nil
	}
	return info, nil
}

func (d Decoder) parseAnimation(b []byte) (*SpriteAnimation, error) {
	a := &SpriteAnimation{}
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return nil, err
		}
		if typ == protowire.VarintType && num >= 1 && num <= 5 {
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			switch num {
			case 1:
				a.DefaultStartPhase = int(v)
			case 2:
				a.Synchronized = v != 0
			case 3:
				a.RandomStartPhase = v != 0
			case 4:
				// int32 on the wire; -1 arrives sign-extended.
				a.LoopType = LoopType(int32(v))
			case 5:
				a.LoopCount = int(v)
			}
			continue
		}
		if num == 6 && typ == protowire.BytesType {
			sub, err := r.Bytes()
			if err != nil {
				return nil, err
			}
			var p SpritePhase
			err = readFields(sub, map[protowire.Number]*uint32{1: &p.DurationMin, 2: &p.DurationMax})
			if err := d.nested("sprite phase", err); err != nil {
				return nil, err
			}
			a.Phases = append(a.Phases, p)
			continue
		}
		if err := r.Skip(typ); err != nil {
			return nil, err
		}
	}
	return a, nil
}
