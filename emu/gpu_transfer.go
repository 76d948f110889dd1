package emu

import (
	"github.com/user-none/empsx/logger"
)

// transferSize decodes a CPU<->VRAM size word. Zero means the full
// dimension.
func transferSize(word uint32) (w, h int) {
	w = int(((word&0xFFFF)-1)&0x3FF) + 1
	h = int(((word>>16)-1)&0x1FF) + 1
	return w, h
}

// latchTransfer sets the cursor to the rectangle given by a position and
// a size word.
func (g *GPU) latchTransfer(pos, size uint32) {
	w, h := transferSize(size)
	g.startX = int(pos & 0x3FF)
	g.startY = int((pos >> 16) & 0x1FF)
	g.endX = g.startX + w
	g.endY = g.startY + h
	g.currX = g.startX
	g.currY = g.startY
}

// advanceCursor steps one pixel with row wrap and reports completion.
func (g *GPU) advanceCursor() bool {
	g.currX++
	if g.currX >= g.endX {
		g.currX = g.startX
		g.currY++
	}
	return g.currY >= g.endY
}

// maskedWrite stores p honoring the E6 mask settings.
func (g *GPU) maskedWrite(x, y int, p uint16) {
	if g.maskSetting.checkMask() && g.vram.Pixel(x, y)&0x8000 != 0 {
		return
	}
	if g.maskSetting.setMask() {
		p |= 0x8000
	}
	g.vram.SetPixel(x, y, p)
}

// --- CPU -> VRAM ---

// beginCPUToVRAM handles GP0(A0h) phase 1. Data words follow in phase 2.
func (g *GPU) beginCPUToVRAM() {
	g.latchTransfer(g.args[1], g.args[2])
	g.cmd = cmdCopyCPUToVRAM2
	g.argumentCount = 1
	g.currentArgument = 0
}

// writeVRAMWord stores the two pixels of a phase 2 data word. Completion
// is checked after each pixel; a half-word past the end is padding.
func (g *GPU) writeVRAMWord(word uint32) {
	if g.writeTransferPixel(uint16(word)) {
		return
	}
	g.writeTransferPixel(uint16(word >> 16))
}

func (g *GPU) writeTransferPixel(p uint16) bool {
	g.maskedWrite(g.currX, g.currY, p)
	if g.advanceCursor() {
		g.cmd = cmdNone
		return true
	}
	return false
}

// --- VRAM -> CPU ---

// beginVRAMToCPU handles GP0(C0h). GPUREAD returns pixels until the
// rectangle has been read.
func (g *GPU) beginVRAMToCPU() {
	g.latchTransfer(g.args[1], g.args[2])
	g.readMode = readVRAM
}

func (g *GPU) readVRAMWord() uint32 {
	lo := g.vram.Pixel(g.currX, g.currY)
	done := g.advanceCursor()

	var hi uint16
	if !done {
		hi = g.vram.Pixel(g.currX, g.currY)
		done = g.advanceCursor()
	}
	if done {
		g.readMode = readRegister
	}
	return uint32(lo) | uint32(hi)<<16
}

// --- VRAM -> VRAM ---

// copyVRAMToVRAM handles GP0(80h). Source and destination wrap
// independently.
func (g *GPU) copyVRAMToVRAM() {
	srcX := int(g.args[1] & 0x3FF)
	srcY := int((g.args[1] >> 16) & 0x1FF)
	dstX := int(g.args[2] & 0x3FF)
	dstY := int((g.args[2] >> 16) & 0x1FF)
	w := int(g.args[3] & 0xFFFF)
	h := int(g.args[3] >> 16)

	if w > VRAMWidth || h > VRAMHeight {
		logger.Logf("gpu", "VRAM->VRAM copy %dx%d exceeds VRAM, ignored", w, h)
		return
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			p := g.vram.Pixel(srcX+x, srcY+y)
			g.maskedWrite(dstX+x, dstY+y, p)
		}
	}
}
