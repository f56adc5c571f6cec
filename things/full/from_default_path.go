package full

import (
	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/paths"
	"badc0de.net/pkg/go-tibia-assets/things"
)

// FromDefaultPaths loads whatever client paths.Find locates: an assets
// directory if there is one, Tibia.dat and Tibia.spr otherwise.
//
// Appropriate for tests and tools. Servers and clients should let the
// user pass paths on the command line instead.
func FromDefaultPaths(guard *memguard.Guard) (*things.Things, error) {
	return FromPaths(paths.Find("assets"), "", paths.Find("Tibia.dat"), paths.Find("Tibia.spr"), guard)
}
