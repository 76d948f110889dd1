package emu

import (
	"image"
	"image/color"
)

// VRAM dimensions in 16-bit pixels.
const (
	VRAMWidth  = 1024
	VRAMHeight = 512
)

// VRAM is the GPU's 1MB framebuffer. Pixels are 15-bit BGR plus a mask bit
// (bit 15). Coordinates wrap modulo the dimensions, matching the hardware's
// lack of bounds checks.
type VRAM struct {
	pix [VRAMHeight][VRAMWidth]uint16
}

func wrapX(x int) int {
	return x & (VRAMWidth - 1)
}

func wrapY(y int) int {
	return y & (VRAMHeight - 1)
}

// Pixel returns the raw 16-bit pixel at (x, y).
func (v *VRAM) Pixel(x, y int) uint16 {
	return v.pix[wrapY(y)][wrapX(x)]
}

// SetPixel stores a raw 16-bit pixel at (x, y).
func (v *VRAM) SetPixel(x, y int, p uint16) {
	v.pix[wrapY(y)][wrapX(x)] = p
}

// Row returns line y of VRAM. Renderers use it for bulk reads.
func (v *VRAM) Row(y int) []uint16 {
	return v.pix[wrapY(y)][:]
}

// --- image.Image view ---

// Color15 is a VRAM pixel as a color.Color. The mask bit is ignored.
type Color15 uint16

func (c Color15) RGBA() (r, g, b, a uint32) {
	r = expand5(uint32(c) & 0x1F)
	g = expand5((uint32(c) >> 5) & 0x1F)
	b = expand5((uint32(c) >> 10) & 0x1F)
	return r, g, b, 0xFFFF
}

// expand5 scales a 5-bit channel to 16 bits.
func expand5(v uint32) uint32 {
	v8 := v<<3 | v>>2
	return v8 | v8<<8
}

// Color15Model converts any color to a VRAM pixel.
var Color15Model color.Model = color.ModelFunc(color15Model)

func color15Model(c color.Color) color.Color {
	if _, ok := c.(Color15); ok {
		return c
	}
	r, g, b, _ := c.RGBA()
	return Color15((r >> 11) | (g>>11)<<5 | (b>>11)<<10)
}

// ColorModel implements image.Image.
func (v *VRAM) ColorModel() color.Model { return Color15Model }

// Bounds implements image.Image.
func (v *VRAM) Bounds() image.Rectangle {
	return image.Rect(0, 0, VRAMWidth, VRAMHeight)
}

// At implements image.Image.
func (v *VRAM) At(x, y int) color.Color {
	if !(image.Point{x, y}.In(v.Bounds())) {
		return Color15(0)
	}
	return Color15(v.pix[y][x])
}

// Set implements draw.Image so debug tools can paint into VRAM.
func (v *VRAM) Set(x, y int, c color.Color) {
	if !(image.Point{x, y}.In(v.Bounds())) {
		return
	}
	col, _ := color15Model(c).(Color15)
	v.pix[y][x] = v.pix[y][x]&0x8000 | uint16(col)
}

// to15bit converts a 24-bit GP0 colour (0xBBGGRR) to a VRAM pixel.
func to15bit(c uint32) uint16 {
	r := (c >> 3) & 0x1F
	g := (c >> 11) & 0x1F
	b := (c >> 19) & 0x1F
	return uint16(r | g<<5 | b<<10)
}
