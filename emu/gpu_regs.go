package emu

// drawMode is the GP0(E1) draw mode register. Bits 0-10 are mirrored
// verbatim into GPUSTAT.
type drawMode uint32

func (d drawMode) pageX() int            { return int(d & 0xF) }
func (d drawMode) pageY() int            { return int((d >> 4) & 1) }
func (d drawMode) semiTransparency() int { return int((d >> 5) & 3) }
func (d drawMode) textureDepth() int     { return int((d >> 7) & 3) }
func (d drawMode) dither() bool          { return d&(1<<9) != 0 }
func (d drawMode) drawToDisplay() bool   { return d&(1<<10) != 0 }
func (d drawMode) textureDisable() bool  { return d&(1<<11) != 0 }
func (d drawMode) flipX() bool           { return d&(1<<12) != 0 }
func (d drawMode) flipY() bool           { return d&(1<<13) != 0 }

// statusBits returns the part of the register shown in GPUSTAT.
func (d drawMode) statusBits() uint32 { return uint32(d) & 0x7FF }

// textureWindow is the GP0(E2) texture window register, in 8 pixel steps.
type textureWindow uint32

func (t textureWindow) maskX() uint8   { return uint8(t & 0x1F) }
func (t textureWindow) maskY() uint8   { return uint8((t >> 5) & 0x1F) }
func (t textureWindow) offsetX() uint8 { return uint8((t >> 10) & 0x1F) }
func (t textureWindow) offsetY() uint8 { return uint8((t >> 15) & 0x1F) }

// maskSetting is the GP0(E6) mask bit register.
type maskSetting uint32

func (m maskSetting) setMask() bool   { return m&1 != 0 }
func (m maskSetting) checkMask() bool { return m&2 != 0 }

// displayMode is the GP1(08) display mode register.
type displayMode uint32

func (d displayMode) hres1() uint32      { return uint32(d & 3) }
func (d displayMode) vres() bool         { return d&(1<<2) != 0 }
func (d displayMode) pal() bool          { return d&(1<<3) != 0 }
func (d displayMode) colorDepth24() bool { return d&(1<<4) != 0 }
func (d displayMode) interlace() bool    { return d&(1<<5) != 0 }
func (d displayMode) hres2() bool        { return d&(1<<6) != 0 }
func (d displayMode) reverse() bool      { return d&(1<<7) != 0 }

// HorizontalResolution returns the display width in pixels.
func (d displayMode) HorizontalResolution() int {
	if d.hres2() {
		return 368
	}
	return [4]int{256, 320, 512, 640}[d.hres1()]
}

// VerticalResolution returns the display height in lines.
func (d displayMode) VerticalResolution() int {
	if d.vres() && d.interlace() {
		return 480
	}
	return 240
}
