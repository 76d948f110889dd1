package emu

// EmulateCycles advances the video beam by GPU clock cycles and reports
// whether a frame ended during the call.
func (g *GPU) EmulateCycles(cycles int) bool {
	t := g.timing
	if t.CyclesPerLine <= 0 {
		return false
	}

	vblank := false
	g.dot += cycles
	for g.dot >= t.CyclesPerLine {
		g.dot -= t.CyclesPerLine
		g.line++

		if g.line >= t.Scanlines {
			g.line = 0
			g.frames++
			vblank = true
		}

		if g.line < t.VBlankStart-1 {
			if g.displayMode.vres() && g.displayMode.interlace() {
				g.oddLine = g.frames%2 != 0
			} else {
				g.oddLine = g.line%2 != 0
			}
		} else {
			g.oddLine = false
		}
	}
	return vblank
}

// Scanline returns the current beam line.
func (g *GPU) Scanline() int {
	return g.line
}

// InVBlank reports whether the beam is in the vertical blanking region.
func (g *GPU) InVBlank() bool {
	return g.line >= g.timing.VBlankStart-1
}
