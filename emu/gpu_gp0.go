package emu

import (
	"github.com/user-none/empsx/logger"
)

// gpuCommand is the kind of multi-word GP0 command being collected.
type gpuCommand uint8

const (
	cmdNone gpuCommand = iota
	cmdFillRectangle
	cmdPolygon
	cmdLine
	cmdRectangle
	cmdCopyCPUToVRAM1
	cmdCopyCPUToVRAM2
	cmdCopyVRAMToCPU
	cmdCopyVRAMToVRAM
	cmdExtra // register-set commands, only used in the command log
)

func (c gpuCommand) String() string {
	switch c {
	case cmdNone:
		return "None"
	case cmdFillRectangle:
		return "FillRectangle"
	case cmdPolygon:
		return "Polygon"
	case cmdLine:
		return "Line"
	case cmdRectangle:
		return "Rectangle"
	case cmdCopyCPUToVRAM1:
		return "CopyCpuToVram1"
	case cmdCopyCPUToVRAM2:
		return "CopyCpuToVram2"
	case cmdCopyVRAMToCPU:
		return "CopyVramToCpu"
	case cmdCopyVRAMToVRAM:
		return "CopyVramToVram"
	case cmdExtra:
		return "Extra"
	}
	return "Unknown"
}

// gp0Entry describes one GP0 opcode. Immediate entries act on the opcode
// word alone; the others collect 1+args(op) words before exec runs.
type gp0Entry struct {
	kind      gpuCommand
	args      func(op uint8) int
	exec      func(g *GPU)
	immediate func(g *GPU, arg uint32)
}

// gp0Range assigns an entry to an inclusive opcode range.
type gp0Range struct {
	lo, hi uint8
	entry  gp0Entry
}

func fixedArgs(n int) func(uint8) int {
	return func(uint8) int { return n }
}

// polygonArgs: 3 or 4 vertices, each with an optional UV word, plus a
// colour word per extra vertex when Gouraud shaded.
func polygonArgs(op uint8) int {
	vertices := 3
	if op&0x08 != 0 {
		vertices = 4
	}
	n := vertices
	if op&0x04 != 0 {
		n += vertices
	}
	if op&0x10 != 0 {
		n += vertices - 1
	}
	return n
}

// lineArgs: polylines collect until the buffer fills or the sentinel.
func lineArgs(op uint8) int {
	if op&0x08 != 0 {
		return maxArgs - 1
	}
	if op&0x10 != 0 {
		return 3
	}
	return 2
}

// rectangleArgs: position, optional UV, size word for variable sized.
func rectangleArgs(op uint8) int {
	n := 1
	if op&0x04 != 0 {
		n++
	}
	if (op>>3)&3 == 0 {
		n++
	}
	return n
}

var gp0Ranges = []gp0Range{
	{0x00, 0x00, gp0Entry{kind: cmdExtra, immediate: func(*GPU, uint32) {}}},
	{0x01, 0x01, gp0Entry{kind: cmdExtra, immediate: func(*GPU, uint32) {}}},
	{0x02, 0x02, gp0Entry{kind: cmdFillRectangle, args: fixedArgs(2), exec: (*GPU).fillRectangle}},
	{0x1F, 0x1F, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdIRQRequest}},
	{0x20, 0x3F, gp0Entry{kind: cmdPolygon, args: polygonArgs, exec: (*GPU).drawPolygon}},
	{0x40, 0x5F, gp0Entry{kind: cmdLine, args: lineArgs, exec: (*GPU).drawLines}},
	{0x60, 0x7F, gp0Entry{kind: cmdRectangle, args: rectangleArgs, exec: (*GPU).drawRectangle}},
	{0x80, 0x9F, gp0Entry{kind: cmdCopyVRAMToVRAM, args: fixedArgs(3), exec: (*GPU).copyVRAMToVRAM}},
	{0xA0, 0xBF, gp0Entry{kind: cmdCopyCPUToVRAM1, args: fixedArgs(2), exec: (*GPU).beginCPUToVRAM}},
	{0xC0, 0xDF, gp0Entry{kind: cmdCopyVRAMToCPU, args: fixedArgs(2), exec: (*GPU).beginVRAMToCPU}},
	{0xE1, 0xE1, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdDrawMode}},
	{0xE2, 0xE2, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdTextureWindow}},
	{0xE3, 0xE3, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdDrawAreaTopLeft}},
	{0xE4, 0xE4, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdDrawAreaBottomRight}},
	{0xE5, 0xE5, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdDrawOffset}},
	{0xE6, 0xE6, gp0Entry{kind: cmdExtra, immediate: (*GPU).cmdMaskSetting}},
}

// gp0Table maps every opcode to its entry. Unlisted opcodes have kind
// cmdNone and are ignored.
var gp0Table [256]gp0Entry

func init() {
	for _, r := range gp0Ranges {
		for op := int(r.lo); op <= int(r.hi); op++ {
			gp0Table[op] = r.entry
		}
	}
}

// gp0ArgumentCount returns the total words (opcode word included) GP0 will
// collect for op, or 1 for immediate and unknown opcodes.
func gp0ArgumentCount(op uint8) int {
	e := gp0Table[op]
	if e.args == nil {
		return 1
	}
	return 1 + e.args(op)
}

func (g *GPU) writeGP0(data uint32) {
	if g.cmd == cmdNone {
		g.startCommand(data)
		return
	}

	if g.currentArgument < g.argumentCount {
		g.args[g.currentArgument] = data
		g.currentArgument++
		if g.cmd == cmdLine && g.argumentCount == maxArgs && data == lineSentinel {
			g.argumentCount = g.currentArgument
		}
		if g.currentArgument != g.argumentCount {
			return
		}
	}
	g.execute()
}

func (g *GPU) startCommand(data uint32) {
	op := uint8(data >> 24)
	arg := data & 0xFFFFFF
	e := gp0Table[op]

	switch {
	case e.immediate != nil:
		g.opcode = op
		g.args[0] = arg
		g.argumentCount = 1
		g.currentArgument = 1
		e.immediate(g, arg)
		g.logCommand(cmdExtra, op, g.args[:1])
	case e.kind == cmdNone:
		logger.Logf("gpu", "unknown GP0(0x%02x) arg 0x%06x", op, arg)
	default:
		g.cmd = e.kind
		g.opcode = op
		g.args[0] = arg
		g.argumentCount = 1 + e.args(op)
		g.currentArgument = 1
	}
}

// execute runs the collected command. CPU->VRAM phase 2 consumes one data
// word per call and stays active until the rectangle is filled.
func (g *GPU) execute() {
	if g.cmd == cmdCopyCPUToVRAM2 {
		g.writeVRAMWord(g.args[0])
		g.currentArgument = 0
		return
	}

	kind := g.cmd
	g.cmd = cmdNone
	g.logCommand(kind, g.opcode, g.args[:g.argumentCount])
	gp0Table[g.opcode].exec(g)
}

// --- Register-set commands ---

func (g *GPU) cmdIRQRequest(uint32) {
	g.irqRequest = true
}

func (g *GPU) cmdDrawMode(arg uint32) {
	g.drawMode = drawMode(arg & 0x3FFF)
}

func (g *GPU) cmdTextureWindow(arg uint32) {
	g.texWindow = textureWindow(arg & 0xFFFFF)
}

func (g *GPU) cmdDrawAreaTopLeft(arg uint32) {
	g.drawAreaLeft = int(arg & 0x3FF)
	g.drawAreaTop = int((arg >> 10) & 0x1FF)
}

func (g *GPU) cmdDrawAreaBottomRight(arg uint32) {
	g.drawAreaRight = int(arg & 0x3FF)
	g.drawAreaBottom = int((arg >> 10) & 0x1FF)
}

// cmdDrawOffset stores two signed 11-bit offsets.
func (g *GPU) cmdDrawOffset(arg uint32) {
	g.drawOffsetX = int(int32(arg<<21) >> 21)
	g.drawOffsetY = int(int32((arg>>11)<<21) >> 21)
}

func (g *GPU) cmdMaskSetting(arg uint32) {
	g.maskSetting = maskSetting(arg & 3)
}
