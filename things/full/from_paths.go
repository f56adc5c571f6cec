// Package full builds a things.Things from file paths given on the command
// line or found by the paths package.
package full

import (
	"github.com/golang/glog"
	"github.com/pkg/errors"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/things"
)

// FromPaths loads a modern profile if assetsDir is set, and a legacy
// profile from tibiaDatPath and tibiaSprPath otherwise. appearancesPath
// may be empty. guard may be nil.
func FromPaths(assetsDir, appearancesPath, tibiaDatPath, tibiaSprPath string, guard *memguard.Guard) (*things.Things, error) {
	var p things.Profile
	switch {
	case assetsDir != "":
		p = things.Profile{Kind: things.ProfileModern, AssetsDir: assetsDir, AppearancesPath: appearancesPath}
	case tibiaDatPath != "" && tibiaSprPath != "":
		p = things.Profile{Kind: things.ProfileLegacy, DatPath: tibiaDatPath, SprPath: tibiaSprPath}
	default:
		return nil, errors.New("full: need either an assets directory or both Tibia.dat and Tibia.spr")
	}
	glog.V(1).Infof("full.FromPaths(): loading %v", p)
	t, err := things.Load(p, guard)
	if err != nil {
		return nil, errors.Wrap(err, "loading client assets")
	}
	return t, nil
}
