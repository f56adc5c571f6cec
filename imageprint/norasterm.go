//go:build windows

package imageprint

import (
	"image"
)

func (p *Printer) printRasTerm(i image.Image) error {
	return errNoGraphics
}
