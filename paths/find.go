// Package paths locates client data files on the local filesystem.
package paths

import (
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"
)

// Find locates the passed datafile shortname and returns an absolute or
// relative path to find the datafile at, or "" if it is nowhere to be
// found. Directories are found too.
//
// For example, for "Tibia.spr" it may return
// "mybinary.runfiles/go_tibia/datafiles/Tibia.spr".
func Find(fileName string) string {
	for _, path := range possiblePaths(fileName) {
		if _, err := os.Stat(path); err == nil {
			glog.V(1).Infof("paths.Find(%q)=%s", fileName, path)
			return path
		}
	}
	return ""
}

// Open locates the passed file in the same locations that Find would look, and
// opens it. If Find returns an empty string, an error wrapping
// os.ErrNotExist is returned.
func Open(fileName string) (*os.File, error) {
	path := Find(fileName)
	if path == "" {
		return nil, errors.Wrapf(os.ErrNotExist, "paths: %s not found in %v", fileName, SearchDirs())
	}
	return NoFindOpen(path)
}

// NoFindOpen opens path as given.
func NoFindOpen(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "paths: opening %s", path)
	}
	return f, nil
}
