// Package appearances reads appearances.dat, the protobuf-encoded catalog of
// objects, outfits, effects and missiles shipped with modern clients, and
// maps each appearance to the sprite ids it is drawn with.
//
// Only the parts of the schema needed to pick sprites are decoded. Unknown
// fields are skipped at every nesting level.
package appearances

import (
	"fmt"
	"strings"
)

// Kind selects one of the four appearance namespaces. The values equal the
// field numbers of the top-level message.
type Kind int

const (
	KindObject Kind = iota + 1
	KindOutfit
	KindEffect
	KindMissile
)

const numKinds = int(KindMissile) + 1

func (k Kind) valid() bool {
	return k >= KindObject && k <= KindMissile
}

func (k Kind) String() string {
	switch k {
	case KindObject:
		return "object"
	case KindOutfit:
		return "outfit"
	case KindEffect:
		return "effect"
	case KindMissile:
		return "missile"
	}
	return fmt.Sprintf("kind %d", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "object", "item":
		return KindObject, nil
	case "outfit":
		return KindOutfit, nil
	case "effect":
		return KindEffect, nil
	case "missile", "distance":
		return KindMissile, nil
	}
	return 0, fmt.Errorf("unknown appearance kind %q", s)
}

// SpritePhase is the display time range of one animation phase.
type SpritePhase struct {
	DurationMin uint32
	DurationMax uint32
}

// DurationMs returns how long the phase is shown: the mean of min and max
// when both are set, whichever one is set otherwise, or 100.
func (p SpritePhase) DurationMs() int64 {
	dmin, dmax := int64(p.DurationMin), int64(p.DurationMax)
	switch {
	case dmin > 0 && dmax > 0:
		if d := (dmin + dmax) / 2; d > 1 {
			return d
		}
		return 1
	case dmax > 0:
		return dmax
	case dmin > 0:
		return dmin
	}
	return 100
}

type LoopType int32

const (
	LoopPingPong LoopType = -1
	LoopDefault  LoopType = 0
	LoopCounted  LoopType = 1
)

type SpriteAnimation struct {
	Phases            []SpritePhase
	DefaultStartPhase int
	Synchronized      bool
	RandomStartPhase  bool
	LoopType          LoopType
	LoopCount         int
}

// SpriteInfo describes how the sprite ids of one appearance are laid out
// across layers, pattern dimensions and animation phases.
type SpriteInfo struct {
	SpriteIDs     []uint32
	Layers        int
	PatternWidth  int
	PatternHeight int
	PatternDepth  int

	// Animation is nil for still appearances.
	Animation *SpriteAnimation
}

// SpritesPerPhase is the number of sprite ids making up one phase.
func (s *SpriteInfo) SpritesPerPhase() int {
	n := s.Layers * s.PatternWidth * s.PatternHeight * s.PatternDepth
	if n < 1 {
		return 1
	}
	return n
}

func (s *SpriteInfo) PhaseCount() int {
	n := len(s.SpriteIDs) / s.SpritesPerPhase()
	if n < 1 {
		return 1
	}
	return n
}

// SpriteIDForPhase returns the first sprite id of the given phase. An
// out-of-range phase yields the very first sprite id.
func (s *SpriteInfo) SpriteIDForPhase(phase int) (uint32, bool) {
	if len(s.SpriteIDs) == 0 {
		return 0, false
	}
	idx := phase * s.SpritesPerPhase()
	if idx >= 0 && idx < len(s.SpriteIDs) {
		return s.SpriteIDs[idx], true
	}
	return s.SpriteIDs[0], true
}

// Index maps appearance ids to sprite metadata, separately for each Kind.
type Index struct {
	info    [numKinds]map[uint32]*SpriteInfo
	sprites [numKinds]map[uint32]uint32
	flags   map[uint32]*Flags
}

func newIndex() *Index {
	ix := &Index{flags: make(map[uint32]*Flags)}
	for k := range ix.info {
		ix.info[k] = make(map[uint32]*SpriteInfo)
		ix.sprites[k] = make(map[uint32]uint32)
	}
	return ix
}

func (ix *Index) add(kind Kind, id uint32, info *SpriteInfo, flags *Flags) {
	ix.info[kind][id] = info
	if sid, ok := info.SpriteIDForPhase(0); ok {
		ix.sprites[kind][id] = sid
	}
	if kind == KindObject && flags != nil {
		ix.flags[id] = flags
	}
}

// Len returns the number of appearances of the given kind.
func (ix *Index) Len(kind Kind) int {
	if !kind.valid() {
		return 0
	}
	return len(ix.info[kind])
}

func (ix *Index) Info(kind Kind, id uint32) (*SpriteInfo, bool) {
	if !kind.valid() {
		return nil, false
	}
	info, ok := ix.info[kind][id]
	return info, ok
}

// Flags returns the item property flags of an object appearance.
func (ix *Index) Flags(id uint32) (*Flags, bool) {
	f, ok := ix.flags[id]
	return f, ok
}

// SpriteID returns the first sprite id of the appearance's first phase.
func (ix *Index) SpriteID(kind Kind, id uint32) (uint32, bool) {
	if !kind.valid() {
		return 0, false
	}
	sid, ok := ix.sprites[kind][id]
	return sid, ok
}

// SpriteIDAt returns the sprite id to show t milliseconds into the
// appearance's animation.
func (ix *Index) SpriteIDAt(kind Kind, id uint32, t int64) (uint32, bool) {
	info, ok := ix.Info(kind, id)
	if !ok {
		return 0, false
	}
	return info.SpriteIDForPhase(info.PhaseAt(t))
}

// SpriteIDAtSeeded is SpriteIDAt for appearances with a random start phase;
// seed picks the start phase.
func (ix *Index) SpriteIDAtSeeded(kind Kind, id uint32, t, seed int64) (uint32, bool) {
	info, ok := ix.Info(kind, id)
	if !ok {
		return 0, false
	}
	return info.SpriteIDForPhase(info.PhaseAtSeeded(t, seed))
}
