package main

import (
	"image"

	"github.com/golang/glog"
	"github.com/nfnt/resize"

	"badc0de.net/pkg/go-tibia-assets/imageprint"
)

func out(pr *imageprint.Printer, img image.Image, name string) error {
	if *downsize {
		if sz, err := GetTermSize(); err == nil {
			pixels := pr.Mode == imageprint.ModeRasTerm || pr.Mode == imageprint.ModeITerm
			if pixels && sz.WSXPixel != 0 && sz.WSYPixel != 0 {
				// Native size if there's a chance we print out an image rather than cells.
				img = resize.Thumbnail(sz.WSXPixel/2, sz.WSYPixel/2, img, resize.Lanczos3)
			} else if sz.WSCol != 0 && sz.WSRow != 0 {
				// Each pixel takes two columns.
				img = resize.Thumbnail(sz.WSCol/2, sz.WSRow, img, resize.Lanczos3)
			}
		} else {
			glog.V(1).Infof("terminal size unknown: %v", err)
		}
	}
	if err := pr.Print(img, name); err != nil {
		glog.Errorf("printing %s: %v", name, err)
		return err
	}
	return nil
}
