package emu

import (
	"github.com/user-none/empsx/logger"
)

// maxArgs bounds the GP0 argument buffer. Polylines collect up to this
// many words unless terminated early.
const maxArgs = 256

// lineSentinel terminates a polyline argument list.
const lineSentinel = 0x55555555

// readMode selects what GPUREAD returns.
type readMode uint8

const (
	readRegister readMode = iota // latched GPU info / last value
	readVRAM                     // pixels of a VRAM->CPU copy
)

// GPU is the PlayStation graphics command processor. The CPU talks to it
// through two 32-bit ports: GP0 (commands/data) and GP1 (display control).
type GPU struct {
	vram     *VRAM
	renderer Renderer
	irq      InterruptSink

	// GP0 command state machine
	cmd             gpuCommand
	opcode          uint8
	args            [maxArgs]uint32
	argumentCount   int
	currentArgument int

	// Transfer cursor (unwrapped; wrapped on access)
	currX, currY int
	startX       int
	startY       int
	endX, endY   int

	// GP0 registers
	drawMode       drawMode      // E1
	texWindow      textureWindow // E2
	drawAreaLeft   int           // E3
	drawAreaTop    int
	drawAreaRight  int // E4
	drawAreaBottom int
	drawOffsetX    int // E5
	drawOffsetY    int
	maskSetting    maskSetting // E6

	// GP1 registers
	displayMode           displayMode
	displayDisable        bool
	dmaDirection          uint8
	displayAreaX          int
	displayAreaY          int
	displayRangeX1        int
	displayRangeX2        int
	displayRangeY1        int
	displayRangeY2        int
	textureDisableAllowed bool

	irqRequest bool
	prevIRQ    bool

	readMode readMode
	gpuRead  uint32
	status   uint32

	// Video timing
	timing  RegionTiming
	dot     int
	line    int
	frames  uint64
	oddLine bool

	commandLog
}

// NewGPU creates a GPU in its reset state. A nil renderer or sink is
// replaced with a no-op.
func NewGPU(timing RegionTiming, irq InterruptSink, r Renderer) *GPU {
	if irq == nil {
		irq = nopSink{}
	}
	if r == nil {
		r = nopRenderer{}
	}
	g := &GPU{
		vram:     new(VRAM),
		renderer: r,
		irq:      irq,
		timing:   timing,
	}
	g.Reset()
	return g
}

// VRAM returns the framebuffer. It is owned by the GPU.
func (g *GPU) VRAM() *VRAM {
	return g.vram
}

// SetTiming switches the video timing table.
func (g *GPU) SetTiming(t RegionTiming) {
	g.timing = t
}

// Reset restores GP1(00) defaults. Any in-flight command is abandoned.
// VRAM contents are preserved.
func (g *GPU) Reset() {
	g.resetCommandBuffer()
	g.readMode = readRegister

	g.irqRequest = false
	g.displayDisable = true
	g.dmaDirection = 0
	g.displayAreaX = 0
	g.displayAreaY = 0
	g.displayRangeX1 = 0x200
	g.displayRangeX2 = 0x200 + 256*10
	g.displayRangeY1 = 0x10
	g.displayRangeY2 = 0x10 + 240
	g.displayMode = 0
	g.textureDisableAllowed = false

	g.drawMode = 0
	g.texWindow = 0
	g.drawAreaLeft = 0
	g.drawAreaTop = 0
	g.drawAreaRight = 0
	g.drawAreaBottom = 0
	g.drawOffsetX = 0
	g.drawOffsetY = 0
	g.maskSetting = 0

	g.Step()
}

func (g *GPU) resetCommandBuffer() {
	g.cmd = cmdNone
	g.argumentCount = 0
	g.currentArgument = 0
}

// Read returns GPUREAD (addr bit 2 clear) or GPUSTAT (addr bit 2 set).
func (g *GPU) Read(addr uint32) uint32 {
	if addr&4 != 0 {
		g.Step()
		return g.status
	}
	if g.readMode == readVRAM {
		g.gpuRead = g.readVRAMWord()
	}
	return g.gpuRead
}

// Write sends a word to GP0 (addr bit 2 clear) or GP1 (addr bit 2 set).
func (g *GPU) Write(addr uint32, data uint32) {
	if addr&4 != 0 {
		g.writeGP1(data)
		return
	}
	g.writeGP0(data)
}

// Step recomputes GPUSTAT and signals the GPU interrupt on the rising
// edge of the GP0(1F) request latch.
func (g *GPU) Step() {
	if g.irqRequest && !g.prevIRQ {
		g.irq.Trigger(IntGPU)
	}
	g.prevIRQ = g.irqRequest
	g.status = g.computeStatus()
}

func (g *GPU) computeStatus() uint32 {
	var s uint32

	// Bits 0-10: E1 draw mode
	s |= g.drawMode.statusBits()

	// Bit 11: set mask while drawing
	if g.maskSetting.setMask() {
		s |= 1 << 11
	}

	// Bit 12: check mask before drawing
	if g.maskSetting.checkMask() {
		s |= 1 << 12
	}

	// Bit 13: interlace field, always 1 when not interlaced
	if !g.displayMode.interlace() || g.oddLine {
		s |= 1 << 13
	}

	// Bit 14: reverse flag
	if g.displayMode.reverse() {
		s |= 1 << 14
	}

	// Bit 15: texture disable
	if g.drawMode.textureDisable() {
		s |= 1 << 15
	}

	// Bit 16: horizontal resolution 2
	if g.displayMode.hres2() {
		s |= 1 << 16
	}

	// Bits 17-18: horizontal resolution 1
	s |= g.displayMode.hres1() << 17

	// Bit 19: vertical resolution
	if g.displayMode.vres() {
		s |= 1 << 19
	}

	// Bit 20: video mode (PAL)
	if g.displayMode.pal() {
		s |= 1 << 20
	}

	// Bit 21: colour depth (24-bit)
	if g.displayMode.colorDepth24() {
		s |= 1 << 21
	}

	// Bit 22: vertical interlace
	if g.displayMode.interlace() {
		s |= 1 << 22
	}

	// Bit 23: display disable
	if g.displayDisable {
		s |= 1 << 23
	}

	// Bit 24: interrupt request
	if g.irqRequest {
		s |= 1 << 24
	}

	readyVRAMToCPU := g.cmd != cmdCopyCPUToVRAM2
	readyDMABlock := true

	// Bit 25: DMA data request, depends on direction
	switch g.dmaDirection {
	case 1:
		s |= 1 << 25
	case 2:
		if readyDMABlock {
			s |= 1 << 25
		}
	case 3:
		if readyVRAMToCPU {
			s |= 1 << 25
		}
	}

	// Bit 26: ready to receive command word
	s |= 1 << 26

	// Bit 27: ready to send VRAM to CPU
	if readyVRAMToCPU {
		s |= 1 << 27
	}

	// Bit 28: ready to receive DMA block
	if readyDMABlock {
		s |= 1 << 28
	}

	// Bits 29-30: DMA direction
	s |= uint32(g.dmaDirection&3) << 29

	// Bit 31: odd line / field
	if g.oddLine {
		s |= 1 << 31
	}

	return s
}

// --- GP1 ---

func (g *GPU) writeGP1(data uint32) {
	op := uint8((data >> 24) & 0x3F)
	arg := data & 0xFFFFFF

	switch {
	case op == 0x00:
		g.Reset()
	case op == 0x01:
		g.resetCommandBuffer()
	case op == 0x02:
		g.irqRequest = false
	case op == 0x03:
		g.displayDisable = arg&1 != 0
	case op == 0x04:
		g.dmaDirection = uint8(arg & 3)
	case op == 0x05:
		g.displayAreaX = int(arg & 0x3FF)
		g.displayAreaY = int((arg >> 10) & 0x1FF)
	case op == 0x06:
		g.displayRangeX1 = int(arg & 0xFFF)
		g.displayRangeX2 = int((arg >> 12) & 0xFFF)
	case op == 0x07:
		g.displayRangeY1 = int(arg & 0x3FF)
		g.displayRangeY2 = int((arg >> 10) & 0x3FF)
	case op == 0x08:
		g.displayMode = displayMode(arg & 0xFF)
	case op == 0x09:
		g.textureDisableAllowed = arg&1 != 0
	case op >= 0x10 && op <= 0x1F:
		g.latchInfo(arg & 0xF)
	default:
		logger.Logf("gpu", "invariant violation: unimplemented GP1(0x%02x) arg 0x%06x", op, arg)
	}
}

// latchInfo handles GP1(10h) get GPU info. Unlisted indexes leave GPUREAD
// unchanged.
func (g *GPU) latchInfo(index uint32) {
	switch index {
	case 2:
		g.gpuRead = uint32(g.texWindow) & 0xFFFFF
	case 3:
		g.gpuRead = uint32(g.drawAreaTop)<<10 | uint32(g.drawAreaLeft)
	case 4:
		g.gpuRead = uint32(g.drawAreaBottom)<<10 | uint32(g.drawAreaRight)
	case 5:
		g.gpuRead = uint32(g.drawOffsetY&0x7FF)<<11 | uint32(g.drawOffsetX&0x7FF)
	case 7:
		g.gpuRead = 2
	case 8:
		g.gpuRead = 0
	}
}

// --- Debug accessors ---

// DisplayArea returns the VRAM origin of the displayed image.
func (g *GPU) DisplayArea() (x, y int) {
	return g.displayAreaX, g.displayAreaY
}

// DisplayRange returns the horizontal and vertical display ranges.
func (g *GPU) DisplayRange() (x1, x2, y1, y2 int) {
	return g.displayRangeX1, g.displayRangeX2, g.displayRangeY1, g.displayRangeY2
}

// DisplayResolution returns the current output resolution.
func (g *GPU) DisplayResolution() (w, h int) {
	return g.displayMode.HorizontalResolution(), g.displayMode.VerticalResolution()
}

// DisplayEnabled reports whether GP1(03) has enabled output.
func (g *GPU) DisplayEnabled() bool {
	return !g.displayDisable
}

// Is24Bit reports whether the display area is interpreted as 24-bit colour.
func (g *GPU) Is24Bit() bool {
	return g.displayMode.colorDepth24()
}

// Frame returns the number of completed frames.
func (g *GPU) Frame() uint64 {
	return g.frames
}

// drawState snapshots the drawing environment for the renderer.
func (g *GPU) drawState() DrawState {
	return DrawState{
		AreaLeft:      g.drawAreaLeft,
		AreaTop:       g.drawAreaTop,
		AreaRight:     g.drawAreaRight,
		AreaBottom:    g.drawAreaBottom,
		OffsetX:       g.drawOffsetX,
		OffsetY:       g.drawOffsetY,
		SetMask:       g.maskSetting.setMask(),
		CheckMask:     g.maskSetting.checkMask(),
		WindowMaskX:   g.texWindow.maskX(),
		WindowMaskY:   g.texWindow.maskY(),
		WindowOffsetX: g.texWindow.offsetX(),
		WindowOffsetY: g.texWindow.offsetY(),
	}
}
