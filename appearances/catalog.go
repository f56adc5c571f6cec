package appearances

import (
	"io/fs"
	"os"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

// CatalogFile is the name of the JSON file listing the assets of a modern
// client.
const CatalogFile = "catalog-content.json"

// ResolvePath returns the name, relative to fsys, of the appearances file
// listed in fsys's catalog-content.json. ok is false when there is no
// catalog or it does not list one.
func ResolvePath(fsys fs.FS) (name string, ok bool, err error) {
	data, err := fs.ReadFile(fsys, CatalogFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || os.IsNotExist(err) {
			return "", false, nil
		}
		return "", false, errors.Wrapf(err, "appearances: reading %s", CatalogFile)
	}
	if !gjson.ValidBytes(data) {
		return "", false, errors.Wrapf(sprite.ErrMalformedHeader, "appearances: %s is not valid JSON", CatalogFile)
	}
	doc := gjson.ParseBytes(data)
	if !doc.IsArray() {
		return "", false, errors.Wrapf(sprite.ErrMalformedHeader, "appearances: %s is not a JSON array", CatalogFile)
	}
	doc.ForEach(func(_, entry gjson.Result) bool {
		if !entry.IsObject() || entry.Get("type").String() != "appearances" {
			return true
		}
		if file := entry.Get("file").String(); file != "" {
			name, ok = file, true
			return false
		}
		return true
	})
	return name, ok, nil
}
