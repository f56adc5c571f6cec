// Package imageprint prints images on terminal. It is a debugging aid for
// looking at decoded sprites.
//
// This package has an API with no stability guarantees.
package imageprint

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	ic "image/color"
	"image/png"
	"io"
	"os"

	"github.com/gookit/color"
	"github.com/pkg/errors"
)

var errNoGraphics = errors.New("imageprint: terminal supports no graphics protocol")

type Mode int

const (
	Mode24bit Mode = iota
	Mode256Color
	ModeNoColor
	ModeITerm
	ModeRasTerm
)

var modeNames = map[string]Mode{
	"24bit":   Mode24bit,
	"256":     Mode256Color,
	"nocolor": ModeNoColor,
	"iterm":   ModeITerm,
	"rasterm": ModeRasTerm,
}

// ParseMode accepts 24bit, 256, nocolor, iterm and rasterm.
func ParseMode(s string) (Mode, error) {
	if m, ok := modeNames[s]; ok {
		return m, nil
	}
	return 0, errors.Errorf("imageprint: unknown mode %q", s)
}

// Printer draws images in one of the supported modes.
type Printer struct {
	Mode Mode
	// Blanks draws colored blanks instead of some bad ascii art.
	Blanks bool
	// Out defaults to os.Stdout.
	Out io.Writer
}

func (p *Printer) out() io.Writer {
	if p.Out == nil {
		return os.Stdout
	}
	return p.Out
}

// Print draws i. name is only used by the iTerm2 protocol.
func (p *Printer) Print(i image.Image, name string) error {
	switch p.Mode {
	case ModeITerm:
		return p.printITerm(i, name)
	case ModeRasTerm:
		return p.printRasTerm(i)
	}
	w := p.out()
	b := i.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, err := io.WriteString(w, p.shade(i.At(x, y))); err != nil {
				return err
			}
		}
		end := "\x1b[0m\n"
		if p.Mode == ModeNoColor {
			end = "\n"
		}
		if _, err := io.WriteString(w, end); err != nil {
			return err
		}
	}
	return nil
}

func (p *Printer) shade(col ic.Color) string {
	cR, cG, cB, cA := col.RGBA()
	if cA == 0 {
		if p.Mode == ModeNoColor {
			return "  "
		}
		return "\x1b[0m  "
	}

	cell := "  "
	if !p.Blanks {
		a := ((cR + cG + cB) / 3) >> 8
		switch {
		case a < 32:
			cell = ".."
		case a < 64:
			cell = "--"
		case a < 128:
			cell = "=="
		default:
			cell = "##"
		}
	}

	r, g, b := uint8(cR>>8), uint8(cG>>8), uint8(cB>>8)
	switch p.Mode {
	case ModeNoColor:
		return cell
	case Mode256Color:
		return color.RGB(r, g, b, true).Sprintf("%s", cell)
	}
	return fmt.Sprintf("\x1b[48;2;%d;%d;%dm%s\x1b[0m", r, g, b, cell)
}

// printITerm draws an image using iTerm2's escape sequences.
//
// https://www.iterm2.com/documentation-images.html
func (p *Printer) printITerm(i image.Image, name string) error {
	b := &bytes.Buffer{}
	enc := base64.NewEncoder(base64.StdEncoding, b)
	if err := png.Encode(enc, i); err != nil {
		return errors.Wrap(err, "imageprint: encoding png")
	}
	enc.Close()
	_, err := fmt.Fprintf(p.out(), "\n\033]1337;File=name=%s;inline=1;size=%d,width=%dpx;height=%dpx:%s\a\n",
		base64.StdEncoding.EncodeToString([]byte(name)), b.Len(), i.Bounds().Dx(), i.Bounds().Dy(), b.String())
	return err
}
