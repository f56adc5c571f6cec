package appearances

import (
	"google.golang.org/protobuf/encoding/protowire"

	"badc0de.net/pkg/go-tibia-assets/wire"
)

// Light is the light an item emits.
type Light struct {
	Brightness uint32
	Color      uint32
}

// Market holds the market listing properties of a tradeable item.
type Market struct {
	Category        uint32
	TradeAsObjectID uint32
	ShowAsObjectID  uint32
	MinimumLevel    uint32
}

// Flags are the item properties carried by object appearances.
type Flags struct {
	Ground      bool
	GroundSpeed uint32

	Clip, Bottom, Top bool

	Container, Stackable, Usable, ForceUse, MultiUse bool

	Writable          bool
	MaxTextLength     uint32
	WritableOnce      bool
	MaxTextLengthOnce uint32

	LiquidPool, LiquidContainer bool

	Unpassable, Unmoveable, BlocksProjectiles, Avoid bool
	NoMovementAnimation                              bool
	Pickupable, Hangable, Rotatable                  bool

	HookDirection uint32
	Light         *Light

	DontHide, Translucent bool

	ShiftX, ShiftY uint32
	Elevation      uint32

	LyingObject, AnimateAlways bool

	HasMinimapColor bool
	MinimapColor    uint32
	LensHelp        uint32

	FullBank, IgnoreLook bool

	ClothesSlot   uint32
	DefaultAction uint32
	Market        *Market

	Wrappable, Unwrappable, TopEffect bool
	Corpse, PlayerCorpse, Ammo        bool
}

// boolFlags maps varint fields of the flags message to the property they
// switch on.
var boolFlags = map[protowire.Number]func(*Flags) *bool{
	2:  func(f *Flags) *bool { return &f.Clip },
	3:  func(f *Flags) *bool { return &f.Bottom },
	4:  func(f *Flags) *bool { return &f.Top },
	5:  func(f *Flags) *bool { return &f.Container },
	6:  func(f *Flags) *bool { return &f.Stackable },
	7:  func(f *Flags) *bool { return &f.Usable },
	8:  func(f *Flags) *bool { return &f.ForceUse },
	9:  func(f *Flags) *bool { return &f.MultiUse },
	12: func(f *Flags) *bool { return &f.LiquidPool },
	13: func(f *Flags) *bool { return &f.Unpassable },
	14: func(f *Flags) *bool { return &f.Unmoveable },
	15: func(f *Flags) *bool { return &f.BlocksProjectiles },
	16: func(f *Flags) *bool { return &f.Avoid },
	17: func(f *Flags) *bool { return &f.NoMovementAnimation },
	18: func(f *Flags) *bool { return &f.Pickupable },
	19: func(f *Flags) *bool { return &f.LiquidContainer },
	20: func(f *Flags) *bool { return &f.Hangable },
	22: func(f *Flags) *bool { return &f.Rotatable },
	24: func(f *Flags) *bool { return &f.DontHide },
	25: func(f *Flags) *bool { return &f.Translucent },
	28: func(f *Flags) *bool { return &f.LyingObject },
	29: func(f *Flags) *bool { return &f.AnimateAlways },
	32: func(f *Flags) *bool { return &f.FullBank },
	33: func(f *Flags) *bool { return &f.IgnoreLook },
	37: func(f *Flags) *bool { return &f.Wrappable },
	38: func(f *Flags) *bool { return &f.Unwrappable },
	39: func(f *Flags) *bool { return &f.TopEffect },
	42: func(f *Flags) *bool { return &f.Corpse },
	43: func(f *Flags) *bool { return &f.PlayerCorpse },
	45: func(f *Flags) *bool { return &f.Ammo },
}

// readFields reads the varint fields of a small sub-message into dst,
// skipping everything else. Later occurrences overwrite earlier ones.
func readFields(b []byte, dst map[protowire.Number]*uint32) error {
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return err
		}
		if p, ok := dst[num]; ok && typ == protowire.VarintType {
			v, err := r.Varint()
			if err != nil {
				return err
			}
			*p = uint32(v)
			continue
		}
		if err := r.Skip(typ); err != nil {
			return err
		}
	}
	return nil
}

func (d Decoder) parseFlags(b []byte) (*Flags, error) {
	f := &Flags{}
	r := wire.NewReader(b)
	for !r.Done() {
		num, typ, err := r.Key()
		if err != nil {
			return nil, err
		}

		if typ == protowire.VarintType {
			v, err := r.Varint()
			if err != nil {
				return nil, err
			}
			if p, ok := boolFlags[num]; ok {
				*p(f) = v != 0
			}
			continue
		}
		if typ != protowire.BytesType {
			if err := r.Skip(typ); err != nil {
				return nil, err
			}
			continue
		}

		sub, err := r.Bytes()
		if err != nil {
			return nil, err
		}
		var fields map[protowire.Number]*uint32
		switch num {
		case 1:
			f.Ground = true
			fields = map[protowire.Number]*uint32{1: &f.GroundSpeed}
		case 10:
			f.Writable = true
			fields = map[protowire.Number]*uint32{1: &f.MaxTextLength}
		case 11:
			f.WritableOnce = true
			fields = map[protowire.Number]*uint32{1: &f.MaxTextLengthOnce}
		case 21:
			fields = map[protowire.Number]*uint32{1: &f.HookDirection}
		case 23:
			f.Light = &Light{}
			fields = map[protowire.Number]*uint32{1: &f.Light.Brightness, 2: &f.Light.Color}
		case 26:
			fields = map[protowire.Number]*uint32{1: &f.ShiftX, 2: &f.ShiftY}
		case 27:
			fields = map[protowire.Number]*uint32{1: &f.Elevation}
		case 30:
			f.HasMinimapColor = true
			fields = map[protowire.Number]*uint32{1: &f.MinimapColor}
		case 31:
			fields = map[protowire.Number]*uint32{1: &f.LensHelp}
		case 34:
			fields = map[protowire.Number]*uint32{1: &f.ClothesSlot}
		case 35:
			fields = map[protowire.Number]*uint32{1: &f.DefaultAction}
		case 36:
			f.Market = &Market{}
			fields = map[protowire.Number]*uint32{
				1: &f.Market.Category,
				2: &f.Market.TradeAsObjectID,
				3: &f.Market.ShowAsObjectID,
				6: &f.Market.MinimumLevel,
			}
		default:
			continue
		}
		if err := d.nested("flag sub-message", readFields(sub, fields)); err != nil {
			return nil, err
		}
	}
	return f, nil
}
