// Command spriteprint prints sprites of a client to the terminal.
//
// Examples:
//
//	spriteprint --assets_dir ~/tibia/assets --spr 1234
//	spriteprint --assets_dir ~/tibia --appearance 100 --kind object --time_ms 400
//	spriteprint --tibia_dat_path Tibia.dat --tibia_spr_path Tibia.spr --item 2160
package main

import (
	"flag"
	"fmt"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/golang/glog"

	"badc0de.net/pkg/go-tibia-assets/imageprint"
	"badc0de.net/pkg/go-tibia-assets/memguard"
	"badc0de.net/pkg/go-tibia-assets/things"
	"badc0de.net/pkg/go-tibia-assets/things/full"
)

var (
	sprID        = flag.Uint("spr", 0, "sprite to print")
	appearanceID = flag.Uint("appearance", 0, "appearance to print (modern clients)")
	kindName     = flag.String("kind", "object", "appearance kind: object, outfit, effect or missile")
	timeMs       = flag.Int64("time_ms", 0, "animation time of the appearance or item to print")
	seed         = flag.Int64("seed", -1, "start phase seed for unsynchronized animations; negative for none")
	itemID       = flag.Uint("item", 0, "client ID of item to print (legacy clients)")
	patternX     = flag.Int("pattern_x", 0, "item pattern x")
	patternY     = flag.Int("pattern_y", 0, "item pattern y")
	patternZ     = flag.Int("pattern_z", 0, "item pattern z")
	preload      = flag.Int("preload", 0, "decode all sheets up front using this many workers")

	modeName = flag.String("mode", "24bit", "output mode: 24bit, 256, nocolor, iterm or rasterm")
	blanks   = flag.Bool("blanks", true, "whether to just use colored blanks instead of some bad ascii art")
	downsize = flag.Bool("downsize", true, "whether to shrink images to fit the terminal")
)

func main() {
	full.SetupFilePathFlags()
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	mode, err := imageprint.ParseMode(*modeName)
	if err != nil {
		glog.Exit(err)
	}
	pr := &imageprint.Printer{Mode: mode, Blanks: *blanks}

	guard := memguard.New(memguard.LoadDefaultConfig())
	th, err := full.FromFilePathFlags(guard)
	if err != nil {
		glog.Exitf("loading client: %v", err)
	}
	defer th.Close()
	if th.AppearanceErr != nil {
		glog.Warningf("appearances unavailable: %v", th.AppearanceErr)
	}
	if th.ItemsErr != nil {
		glog.Warningf("items unavailable: %v", th.ItemsErr)
	}
	fmt.Fprintf(os.Stderr, "%v: %d sprites in %d sheet(s)\n", th.Profile(), th.SpriteCount(), th.SheetCount())

	if *preload > 0 {
		preloadSheets(th, *preload)
	}

	failed := false
	if *sprID != 0 {
		failed = sprHandler(th, pr, uint32(*sprID)) != nil || failed
	}
	if *appearanceID != 0 {
		failed = appearanceHandler(th, pr, uint32(*appearanceID)) != nil || failed
	}
	if *itemID != 0 {
		failed = itemHandler(th, pr, uint16(*itemID)) != nil || failed
	}
	if failed {
		glog.Flush()
		os.Exit(1)
	}
}

func preloadSheets(th *things.Things, workers int) {
	type preloader interface{ Preload(int) error }
	p, ok := th.Source().(preloader)
	if !ok {
		glog.Warningf("--preload only applies to modern clients")
		return
	}
	if err := p.Preload(workers); err != nil {
		glog.Errorf("preloading sheets: %v", err)
	}
}
