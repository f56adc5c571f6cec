package spr

// This file contains the run-length codec used for individual sprites in
// spr files.

import (
	"encoding/binary"

	"badc0de.net/pkg/go-tibia-assets/sprite"
)

const spritePixels = sprite.Dim * sprite.Dim

// DecodeRLE decodes one sprite payload into a 32x32 BGRA canvas.
//
// The payload is a sequence of runs: a u16 count of transparent pixels, a
// u16 count of colored pixels, then that many R, G, B triplets. Decoding
// stops quietly when either the payload or the canvas runs out, so a
// damaged payload yields a partial image rather than an error.
func DecodeRLE(data []byte) []byte {
	out := make([]byte, spritePixels*sprite.BytesPerPixel)
	pos, px := 0, 0
	for pos+4 <= len(data) && px < spritePixels {
		transparent := int(binary.LittleEndian.Uint16(data[pos:]))
		colored := int(binary.LittleEndian.Uint16(data[pos+2:]))
		pos += 4

		px += transparent
		if px >= spritePixels {
			break
		}
		for i := 0; i < colored; i++ {
			if pos+3 > len(data) || px >= spritePixels {
				break
			}
			o := px * sprite.BytesPerPixel
			out[o+0] = data[pos+2]
			out[o+1] = data[pos+1]
			out[o+2] = data[pos+0]
			out[o+3] = 0xFF
			pos += 3
			px++
		}
	}
	return out
}
