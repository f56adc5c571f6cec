//go:build aix || darwin || dragonfly || freebsd || linux || netbsd || openbsd || solaris

package main

import (
	"bufio"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"golang.org/x/crypto/ssh/terminal"
	"golang.org/x/sys/unix"
)

type TermSize struct {
	WSRow, WSCol       uint
	WSXPixel, WSYPixel uint
}

var kittySizeReply = regexp.MustCompile(`\[4;(\d+);(\d+)t`)

func GetTermSize() (TermSize, error) {
	f, err := os.OpenFile("/dev/tty", unix.O_NOCTTY|unix.O_CLOEXEC|unix.O_NDELAY|unix.O_RDWR, 0666)
	if err != nil {
		return stdinSize()
	}
	defer f.Close()
	sz, err := unix.IoctlGetWinsize(int(f.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return stdinSize()
	}
	ts := TermSize{WSRow: uint(sz.Row), WSCol: uint(sz.Col), WSXPixel: uint(sz.Xpixel), WSYPixel: uint(sz.Ypixel)}
	if ts.WSXPixel == 0 && ts.WSYPixel == 0 && os.Getenv("TERM") == "xterm-kitty" {
		ts.WSXPixel, ts.WSYPixel = kittyPixelSize(f)
	}
	return ts, nil
}

// kittyPixelSize asks the terminal with CSI 14 t; kitty answers
// <ESC>[4;<height>;<width>t.
func kittyPixelSize(f *os.File) (w, h uint) {
	state, err := terminal.MakeRaw(int(f.Fd()))
	if err != nil {
		return 0, 0
	}
	defer terminal.Restore(int(f.Fd()), state)

	fmt.Printf("\033[14t")
	reader := bufio.NewReader(os.Stdin)
	if b, err := reader.ReadByte(); err != nil || b != 033 {
		return 0, 0
	}
	// TODO: time out if the terminal never answers.
	s, err := reader.ReadString('t')
	if err != nil {
		return 0, 0
	}
	m := kittySizeReply.FindStringSubmatch(s)
	if len(m) != 3 {
		return 0, 0
	}
	height, errH := strconv.Atoi(m[1])
	width, errW := strconv.Atoi(m[2])
	if errH != nil || errW != nil {
		return 0, 0
	}
	return uint(width), uint(height)
}

func stdinSize() (TermSize, error) {
	w, h, err := terminal.GetSize(int(os.Stdin.Fd()))
	if err != nil {
		return TermSize{}, err
	}
	return TermSize{WSRow: uint(h), WSCol: uint(w)}, nil
}
