package paths

import (
	"os"
	"path/filepath"
)

// DatafilesEnv names an environment variable holding an extra directory
// to search first.
const DatafilesEnv = "GOTIBIA_DATAFILES"

// SearchDirs returns the directories Find looks in, in order.
func SearchDirs() []string {
	var dirs []string
	if d := os.Getenv(DatafilesEnv); d != "" {
		dirs = append(dirs, d)
	}
	if d := os.Getenv("GOPATH"); d != "" {
		dirs = append(dirs, filepath.Join(d, "src", "badc0de.net", "pkg", "go-tibia", "datafiles"))
	}
	if d := os.Getenv("TEST_SRCDIR"); d != "" {
		dirs = append(dirs, filepath.Join(d, "go_tibia", "datafiles"))
	}
	if len(os.Args) > 0 {
		dirs = append(dirs,
			os.Args[0]+".runfiles/go_tibia/datafiles",
			os.Args[0]+".runfiles/go_tibia/external/tibia854",
		)
	}
	return append(dirs, "datafiles", ".")
}

func possiblePaths(fileName string) []string {
	dirs := SearchDirs()
	out := make([]string, len(dirs))
	for i, d := range dirs {
		out[i] = filepath.Join(d, fileName)
	}
	return out
}
