package full

import (
	"flag"

	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/paths"
	"badc0de.net/pkg/go-tibia-assets/things"
)

var (
	assetsDir       string
	appearancesPath string
	tibiaDatPath    string
	tibiaSprPath    string
)

type PathFlag string

const (
	FlagAssetsDir       = PathFlag("assets_dir")
	FlagAppearancesPath = PathFlag("appearances_path")
	FlagTibiaDatPath    = PathFlag("tibia_dat_path")
	FlagTibiaSprPath    = PathFlag("tibia_spr_path")
)

// SetupFilePathFlags registers --assets_dir, --appearances_path,
// --tibia_dat_path and --tibia_spr_path on the default flag set. Defaults
// come from paths.Find.
//
// These paths will then be referred to in the FromFilePathFlags function.
func SetupFilePathFlags() {
	SetupFilePathFlagsOn(flag.CommandLine)
}

// SetupFilePathFlagsOn is SetupFilePathFlags for any flag set.
func SetupFilePathFlagsOn(fs *flag.FlagSet) {
	paths.SetupFilePathFlagOn(fs, "assets", string(FlagAssetsDir), &assetsDir)
	fs.StringVar(&appearancesPath, string(FlagAppearancesPath), "", "Path to the appearances file; looked up in the catalog if empty")
	paths.SetupFilePathFlagOn(fs, "Tibia.dat", string(FlagTibiaDatPath), &tibiaDatPath)
	paths.SetupFilePathFlagOn(fs, "Tibia.spr", string(FlagTibiaSprPath), &tibiaSprPath)
}

// FromFilePathFlags loads the files named by the flags registered in
// SetupFilePathFlags. The flags need to be parsed by the time this is
// called.
func FromFilePathFlags(guard *memguard.Guard) (*things.Things, error) {
	return FromPaths(assetsDir, appearancesPath, tibiaDatPath, tibiaSprPath, guard)
}

// PathFlagValue returns the value for the passed flag path (such as the path
// to Tibia.dat).
func PathFlagValue(key PathFlag) string {
	switch key {
	case FlagAssetsDir:
		return assetsDir
	case FlagAppearancesPath:
		return appearancesPath
	case FlagTibiaDatPath:
		return tibiaDatPath
	case FlagTibiaSprPath:
		return tibiaSprPath
	default:
		return ""
	}
}
