// Package indicator derives the tri-colour status LED word from the tick
// counter. It cycles with the same 2048-tick period as the envelope.
package indicator

import "image/color"

// Word packs tick bits 10, 9 and 8 into the top bit of the red, green and
// blue byte lanes respectively.
func Word(tick uint32) uint32 {
	return (tick&1024)<<13 | (tick&512)<<6 | (tick&256)>>1
}

// RGB splits a packed word into its byte lanes.
func RGB(word uint32) (r, g, b uint8) {
	return uint8(word >> 16), uint8(word >> 8), uint8(word)
}

// Color returns the LED colour for tick as an opaque RGBA.
func Color(tick uint32) color.RGBA {
	r, g, b := RGB(Word(tick))
	return color.RGBA{R: r, G: g, B: b, A: 0xff}
}

// Lit reports which channels are on for tick.
func Lit(tick uint32) (r, g, b bool) {
	return tick&1024 != 0, tick&512 != 0, tick&256 != 0
}
