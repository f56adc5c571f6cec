package paths

import (
	"flag"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
)

func TestFind(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DatafilesEnv, dir)
	if err := os.WriteFile(filepath.Join(dir, "Tibia.spr"), []byte{1}, 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(filepath.Join(dir, "assets"), 0755); err != nil {
		t.Fatal(err)
	}

	if got, want := Find("Tibia.spr"), filepath.Join(dir, "Tibia.spr"); got != want {
		t.Errorf("Find(Tibia.spr)=%q; want %q", got, want)
	}
	if got, want := Find("assets"), filepath.Join(dir, "assets"); got != want {
		t.Errorf("Find(assets)=%q; want %q", got, want)
	}
	if got := Find("no-such-file.dat"); got != "" {
		t.Errorf("Find(no-such-file.dat)=%q", got)
	}
	if got := SearchDirs()[0]; got != dir {
		t.Errorf("first search dir %q; want %q", got, dir)
	}

	f, err := Open("Tibia.spr")
	if err != nil {
		t.Fatal(err)
	}
	f.Close()
	if _, err := Open("no-such-file.dat"); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Open(no-such-file.dat) gave %v", err)
	}
}

func TestSetupFilePathFlagOn(t *testing.T) {
	dir := t.TempDir()
	t.Setenv(DatafilesEnv, dir)
	if err := os.WriteFile(filepath.Join(dir, "Tibia.dat"), []byte{1}, 0644); err != nil {
		t.Fatal(err)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var dat, spr string
	SetupFilePathFlagOn(fs, "Tibia.dat", "tibia_dat_path", &dat)
	SetupFilePathFlagOn(fs, "no-such-file.spr", "tibia_spr_path", &spr)
	if err := fs.Parse(nil); err != nil {
		t.Fatal(err)
	}
	if want := filepath.Join(dir, "Tibia.dat"); dat != want {
		t.Errorf("dat default %q; want %q", dat, want)
	}
	if spr != "" {
		t.Errorf("spr default %q; want empty", spr)
	}
}
