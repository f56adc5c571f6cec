package things

import (
	"github.com/sasha-s/go-deadlock"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

type syncSource struct {
	mu  deadlock.Mutex
	src sprite.Source
}

// Synchronized serializes lookups on src so that one cache can be shared by
// several goroutines.
func Synchronized(src sprite.Source) sprite.Source {
	return &syncSource{src: src}
}

func (s *syncSource) SpriteRGBA(id uint32) (sprite.Sprite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.src.SpriteRGBA(id)
}
