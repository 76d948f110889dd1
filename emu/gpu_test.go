package emu

import (
	"encoding/binary"
	"strings"
	"testing"

	"github.com/user-none/empsx/logger"
)

// makeTestGPU creates an NTSC GPU wired to recording mocks.
func makeTestGPU() (*GPU, *recordingSink, *recordingRenderer) {
	sink := newRecordingSink()
	r := &recordingRenderer{}
	return NewGPU(NTSCTiming, sink, r), sink, r
}

func gp0(g *GPU, words ...uint32) {
	for _, w := range words {
		g.Write(0, w)
	}
}

func gp1(g *GPU, w uint32) {
	g.Write(4, w)
}

// --- Reset / GPUSTAT ---

func TestGPU_ResetStatus(t *testing.T) {
	g, _, _ := makeTestGPU()
	// display disabled, field bit, ready bits 26-28
	if got := g.Read(4); got != 0x1C802000 {
		t.Errorf("expected GPUSTAT 0x1C802000, got 0x%08X", got)
	}
	x1, x2, y1, y2 := g.DisplayRange()
	if x1 != 0x200 || x2 != 0x200+2560 || y1 != 0x10 || y2 != 0x10+240 {
		t.Errorf("unexpected display range %d %d %d %d", x1, x2, y1, y2)
	}
	if g.DisplayEnabled() {
		t.Error("display should start disabled")
	}
}

func TestGPU_StatusDrawMode(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xE10007FF|1<<11)
	gp0(g, 0xE6000003)
	s := g.Read(4)
	if s&0x7FF != 0x7FF {
		t.Errorf("expected draw mode bits 0x7FF, got 0x%03X", s&0x7FF)
	}
	if s&(1<<11) == 0 || s&(1<<12) == 0 {
		t.Error("expected mask bits 11 and 12 set")
	}
	if s&(1<<15) == 0 {
		t.Error("expected texture disable bit 15 set")
	}
}

func TestGPU_StatusDisplayMode(t *testing.T) {
	g, _, _ := makeTestGPU()
	// hres1=1, PAL, interlace
	gp1(g, 0x08000029)
	s := g.Read(4)
	if (s>>17)&3 != 1 {
		t.Errorf("expected hres1=1, got %d", (s>>17)&3)
	}
	if s&(1<<20) == 0 {
		t.Error("expected PAL bit 20")
	}
	if s&(1<<22) == 0 {
		t.Error("expected interlace bit 22")
	}
	if s&(1<<13) != 0 {
		t.Error("field bit 13 should follow the odd flag when interlaced")
	}
	w, h := g.DisplayResolution()
	if w != 320 || h != 240 {
		t.Errorf("expected 320x240, got %dx%d", w, h)
	}
}

func TestGPU_StatusDMADirection(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp1(g, 0x04000003)
	s := g.Read(4)
	if (s>>29)&3 != 3 {
		t.Errorf("expected direction 3 in bits 29-30, got %d", (s>>29)&3)
	}
	if s&(1<<25) == 0 {
		t.Error("direction 3 should mirror bit 27 into bit 25")
	}

	gp1(g, 0x04000000)
	if g.Read(4)&(1<<25) != 0 {
		t.Error("direction 0 should clear bit 25")
	}
}

// --- GP0 decoding ---

func TestGPU_ArgumentCounts(t *testing.T) {
	cases := map[uint8]int{
		0x02: 3,
		0x20: 4, 0x22: 4, 0x24: 7, 0x28: 5, 0x2C: 9,
		0x30: 6, 0x34: 9, 0x38: 8, 0x3C: 12,
		0x40: 3, 0x50: 4, 0x48: maxArgs, 0x58: maxArgs,
		0x60: 3, 0x64: 4, 0x68: 2, 0x6C: 3, 0x70: 2, 0x7C: 3,
		0x80: 4, 0xA0: 3, 0xC0: 3,
		0x00: 1, 0x01: 1, 0x1F: 1, 0xE1: 1, 0xE6: 1,
	}
	for op, want := range cases {
		if got := gp0ArgumentCount(op); got != want {
			t.Errorf("opcode 0x%02X: expected %d words, got %d", op, want, got)
		}
	}
}

func TestGPU_UnknownOpcodeIgnored(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0x03123456)
	if g.cmd != cmdNone {
		t.Errorf("expected idle after unknown opcode, got %s", g.cmd)
	}
	gp0(g, 0xE1000005)
	if g.drawMode != 5 {
		t.Errorf("expected draw mode 5, got 0x%X", uint32(g.drawMode))
	}
}

func TestGPU_RegisterCommands(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xE2012345)
	gp0(g, 0xE3000000|(20<<10)|10)
	gp0(g, 0xE4000000|(239<<10)|319)
	gp0(g, 0xE5000000|(2<<11)|0x7FF) // x=-1, y=2

	if g.drawOffsetX != -1 || g.drawOffsetY != 2 {
		t.Errorf("expected offset (-1,2), got (%d,%d)", g.drawOffsetX, g.drawOffsetY)
	}

	infos := map[uint32]uint32{
		2: 0x12345,
		3: 20<<10 | 10,
		4: 239<<10 | 319,
		5: 2<<11 | 0x7FF,
		7: 2,
		8: 0,
	}
	for index, want := range infos {
		gp1(g, 0x10000000|index)
		if got := g.Read(0); got != want {
			t.Errorf("info %d: expected 0x%X, got 0x%X", index, want, got)
		}
	}
}

func TestGPU_InfoUnlistedIndexKeepsValue(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp1(g, 0x10000007)
	gp1(g, 0x10000006)
	if got := g.Read(0); got != 2 {
		t.Errorf("expected GPUREAD unchanged at 2, got 0x%X", got)
	}
}

// --- Fill ---

func TestGPU_FillWraps(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0x020000FF, 510<<16|1020, 4<<16|8)

	v := g.VRAM()
	painted := [][2]int{{1020, 510}, {1023, 510}, {0, 510}, {3, 511}, {1020, 0}, {3, 1}}
	for _, p := range painted {
		if got := v.Pixel(p[0], p[1]); got != 0x001F {
			t.Errorf("(%d,%d): expected 0x001F, got 0x%04X", p[0], p[1], got)
		}
	}
	clean := [][2]int{{1019, 510}, {4, 510}, {1020, 2}}
	for _, p := range clean {
		if got := v.Pixel(p[0], p[1]); got != 0 {
			t.Errorf("(%d,%d): expected untouched, got 0x%04X", p[0], p[1], got)
		}
	}
}

func TestGPU_FillZeroSize(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0x02FFFFFF, 0, 0<<16|16)
	if g.VRAM().Pixel(0, 0) != 0 {
		t.Error("zero height fill should paint nothing")
	}
	if g.cmd != cmdNone {
		t.Error("expected idle after fill")
	}
}

// --- CPU -> VRAM ---

func TestGPU_CPUToVRAMTwoPixels(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xA0000000, 20<<16|10, 1<<16|2)
	if g.cmd != cmdCopyCPUToVRAM2 {
		t.Fatalf("expected phase 2, got %s", g.cmd)
	}
	if g.Read(4)&(1<<27) != 0 {
		t.Error("bit 27 should be clear during phase 2")
	}

	gp0(g, 0x56781234)
	if g.cmd != cmdNone {
		t.Errorf("expected idle after last pixel, got %s", g.cmd)
	}
	if got := g.VRAM().Pixel(10, 20); got != 0x1234 {
		t.Errorf("expected 0x1234, got 0x%04X", got)
	}
	if got := g.VRAM().Pixel(11, 20); got != 0x5678 {
		t.Errorf("expected 0x5678, got 0x%04X", got)
	}

	// next word is a fresh command
	gp0(g, 0xE1000005)
	if g.drawMode != 5 {
		t.Errorf("expected draw mode 5, got 0x%X", uint32(g.drawMode))
	}
}

func TestGPU_CPUToVRAMPaddingDiscarded(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xA0000000, 0<<16|5, 1<<16|1, 0xBEEF1111)
	if got := g.VRAM().Pixel(5, 0); got != 0x1111 {
		t.Errorf("expected 0x1111, got 0x%04X", got)
	}
	if got := g.VRAM().Pixel(6, 0); got != 0 {
		t.Errorf("padding half-word written: 0x%04X", got)
	}
	if g.cmd != cmdNone {
		t.Errorf("expected idle, got %s", g.cmd)
	}
}

func TestGPU_CPUToVRAMRowWrap(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xA0000000, 0<<16|1023, 2<<16|2, 0x00020001, 0x00040003)
	v := g.VRAM()
	want := map[[2]int]uint16{{1023, 0}: 1, {0, 0}: 2, {1023, 1}: 3, {0, 1}: 4}
	for p, w := range want {
		if got := v.Pixel(p[0], p[1]); got != w {
			t.Errorf("(%d,%d): expected %d, got %d", p[0], p[1], w, got)
		}
	}
}

func TestGPU_CPUToVRAMSetMask(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xE6000001)
	gp0(g, 0xA0000000, 0, 1<<16|2, 0x00020001)
	if got := g.VRAM().Pixel(0, 0); got != 0x8001 {
		t.Errorf("expected mask bit forced, got 0x%04X", got)
	}
}

// --- VRAM -> CPU ---

func TestGPU_VRAMToCPU(t *testing.T) {
	g, _, _ := makeTestGPU()
	v := g.VRAM()
	v.SetPixel(100, 50, 0x1111)
	v.SetPixel(101, 50, 0x2222)
	v.SetPixel(102, 50, 0x3333)

	gp0(g, 0xC0000000, 50<<16|100, 1<<16|3)
	if got := g.Read(0); got != 0x22221111 {
		t.Errorf("expected 0x22221111, got 0x%08X", got)
	}
	if got := g.Read(0); got != 0x00003333 {
		t.Errorf("expected 0x00003333, got 0x%08X", got)
	}
	if g.readMode != readRegister {
		t.Error("expected register read mode after transfer")
	}
	// GPUREAD keeps the last value
	if got := g.Read(0); got != 0x00003333 {
		t.Errorf("expected latched 0x00003333, got 0x%08X", got)
	}
}

// --- VRAM -> VRAM ---

func TestGPU_VRAMToVRAMCopy(t *testing.T) {
	g, _, _ := makeTestGPU()
	v := g.VRAM()
	v.SetPixel(1023, 0, 0xAAAA)
	v.SetPixel(0, 0, 0xBBBB)

	gp0(g, 0x80000000, 0<<16|1023, 10<<16|200, 1<<16|2)
	if v.Pixel(200, 10) != 0xAAAA || v.Pixel(201, 10) != 0xBBBB {
		t.Errorf("copy mismatch: 0x%04X 0x%04X", v.Pixel(200, 10), v.Pixel(201, 10))
	}
}

func TestGPU_VRAMToVRAMOversized(t *testing.T) {
	logger.Clear()
	g, _, _ := makeTestGPU()
	v := g.VRAM()
	v.SetPixel(0, 0, 0x7FFF)

	gp0(g, 0x80000000, 0, 0<<16|10, 1<<16|1025)
	if v.Pixel(10, 0) != 0 {
		t.Error("oversized copy should not write")
	}
	if g.cmd != cmdNone {
		t.Errorf("expected idle, got %s", g.cmd)
	}

	var sb strings.Builder
	logger.Write(&sb)
	if !strings.Contains(sb.String(), "exceeds VRAM") {
		t.Errorf("expected log entry for oversized copy, got %q", sb.String())
	}
}

// --- Primitives ---

func TestGPU_FlatTriangle(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x20112233, 0x00100010, 0x00100020, 0x00200010)
	if len(r.triangles) != 1 {
		t.Fatalf("expected 1 triangle, got %d", len(r.triangles))
	}
	tri := r.triangles[0]
	for i, v := range tri {
		if v.Color != 0x112233 {
			t.Errorf("vertex %d: expected colour 0x112233, got 0x%06X", i, v.Color)
		}
	}
	if tri[1].X != 0x20 || tri[1].Y != 0x10 {
		t.Errorf("vertex 1: expected (32,16), got (%d,%d)", tri[1].X, tri[1].Y)
	}
}

func TestGPU_NegativeVertex(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x20000000, 0x07FF07FF, 0, 0)
	v := r.triangles[0][0]
	if v.X != -1 || v.Y != -1 {
		t.Errorf("expected (-1,-1), got (%d,%d)", v.X, v.Y)
	}
}

func TestGPU_GouraudQuad(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g,
		0x38000001, 0x00000000,
		0x00000002, 0x00000010,
		0x00000003, 0x00100000,
		0x00000004, 0x00100010,
	)
	if len(r.triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(r.triangles))
	}
	first := r.triangles[0]
	second := r.triangles[1]
	if first[0].Color != 1 || first[1].Color != 2 || first[2].Color != 3 {
		t.Errorf("first triangle colours %d %d %d", first[0].Color, first[1].Color, first[2].Color)
	}
	if second[0].Color != 2 || second[1].Color != 3 || second[2].Color != 4 {
		t.Errorf("second triangle colours %d %d %d", second[0].Color, second[1].Color, second[2].Color)
	}
	if first[0].Flags&FlagGouraud == 0 {
		t.Error("expected Gouraud flag")
	}
}

func TestGPU_TexturedQuad(t *testing.T) {
	g, _, r := makeTestGPU()
	clut := uint32(100<<6 | 2) // x=32, y=100
	page := uint32(3 | 1<<4 | 1<<7)
	gp0(g,
		0x2C808080,
		0x00000000, clut<<16|0x0201,
		0x00000010, page<<16|0x0211,
		0x00100000, 0x1221,
		0x00100010, 0x1231,
	)
	if len(r.triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(r.triangles))
	}
	v := r.triangles[1][2] // vertex 3
	if v.U != 0x31 || v.V != 0x12 {
		t.Errorf("expected UV (0x31,0x12), got (0x%02X,0x%02X)", v.U, v.V)
	}
	if v.ClutX != 32 || v.ClutY != 100 {
		t.Errorf("expected CLUT (32,100), got (%d,%d)", v.ClutX, v.ClutY)
	}
	if v.PageX != 192 || v.PageY != 256 || v.BitDepth != 8 {
		t.Errorf("expected page (192,256) 8bpp, got (%d,%d) %dbpp", v.PageX, v.PageY, v.BitDepth)
	}
	if v.Flags&FlagTextured == 0 {
		t.Error("expected textured flag")
	}
	if g.drawMode.pageX() != 3 || g.drawMode.pageY() != 1 {
		t.Error("texpage should update the E1 page bits")
	}
}

func TestGPU_DrawStatePassed(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0xE3000000|(5<<10)|4)
	gp0(g, 0xE5000000|(7<<11)|6)
	gp0(g, 0x20000000, 0, 0, 0)
	s := r.states[0]
	if s.AreaLeft != 4 || s.AreaTop != 5 || s.OffsetX != 6 || s.OffsetY != 7 {
		t.Errorf("unexpected draw state %+v", s)
	}
}

func TestGPU_SingleLine(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x40FF0000, 0x00000000, 0x00100010)
	if len(r.lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(r.lines))
	}
	if r.lines[0][1].X != 16 || r.lines[0][1].Color != 0xFF0000 {
		t.Errorf("unexpected end point %+v", r.lines[0][1])
	}
}

func TestGPU_PolylineSentinel(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x48000010, 0x00000000, 0x00000010, 0x00100010, lineSentinel)
	if len(r.lines) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(r.lines))
	}
	if r.lines[1][0] != r.lines[0][1] {
		t.Error("second segment should start at the first segment's end")
	}
	if g.cmd != cmdNone {
		t.Errorf("expected idle after sentinel, got %s", g.cmd)
	}

	gp0(g, 0xE1000001)
	if g.drawMode != 1 {
		t.Error("word after sentinel should start a new command")
	}
}

func TestGPU_GouraudPolyline(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x58000001, 0x00000000, 0x00000002, 0x00000010, 0x00000003, 0x00100010, lineSentinel)
	if len(r.lines) != 2 {
		t.Fatalf("expected 2 segments, got %d", len(r.lines))
	}
	if r.lines[0][0].Color != 1 || r.lines[0][1].Color != 2 || r.lines[1][1].Color != 3 {
		t.Error("unexpected Gouraud line colours")
	}
}

func TestGPU_VariableRectangle(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x60123456, 0x00200010, 0x00080004)
	if len(r.triangles) != 2 {
		t.Fatalf("expected quad as 2 triangles, got %d", len(r.triangles))
	}
	v3 := r.triangles[1][2]
	if v3.X != 0x10+4 || v3.Y != 0x20+8 {
		t.Errorf("expected corner (20,40), got (%d,%d)", v3.X, v3.Y)
	}
}

func TestGPU_TexturedSpriteUV(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0xE1000000|1<<4|2) // page x=128, y=256
	gp0(g, 0x7C808080, 0x00000000, 0x0005<<16|0x0302)
	if len(r.triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(r.triangles))
	}
	v3 := r.triangles[1][2]
	if v3.U != 0x02+16 || v3.V != 0x03+16 {
		t.Errorf("expected UV (18,19), got (%d,%d)", v3.U, v3.V)
	}
	if v3.PageX != 128 || v3.PageY != 256 {
		t.Errorf("expected page (128,256), got (%d,%d)", v3.PageX, v3.PageY)
	}
	if v3.ClutX != 5*16 {
		t.Errorf("expected CLUT x 80, got %d", v3.ClutX)
	}
}

// --- IRQ ---

func TestGPU_IRQRisingEdge(t *testing.T) {
	g, sink, _ := makeTestGPU()
	gp0(g, 0x1F000000)
	g.Step()
	g.Step()
	if sink.counts[IntGPU] != 1 {
		t.Errorf("expected 1 GPU interrupt, got %d", sink.counts[IntGPU])
	}
	if g.Read(4)&(1<<24) == 0 {
		t.Error("expected IRQ bit 24 set")
	}

	gp1(g, 0x02000000)
	g.Step()
	gp0(g, 0x1F000000)
	g.Step()
	if sink.counts[IntGPU] != 2 {
		t.Errorf("expected 2 GPU interrupts after re-request, got %d", sink.counts[IntGPU])
	}
}

// --- GP1 ---

func TestGPU_ResetAbandonsCommand(t *testing.T) {
	g, _, r := makeTestGPU()
	gp0(g, 0x28000000, 0, 0)
	gp1(g, 0x00000000)
	if g.cmd != cmdNone {
		t.Fatalf("expected idle after GP1(00), got %s", g.cmd)
	}
	gp0(g, 0xE1000003)
	if g.drawMode != 3 {
		t.Errorf("expected draw mode 3, got 0x%X", uint32(g.drawMode))
	}
	if len(r.triangles) != 0 {
		t.Error("abandoned command should not draw")
	}
}

func TestGPU_ResetCommandBuffer(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xA0000000, 0, 1<<16|4)
	gp1(g, 0x01000000)
	if g.cmd != cmdNone {
		t.Errorf("expected idle after GP1(01), got %s", g.cmd)
	}
}

func TestGPU_VerticalDisplayRange(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp1(g, 0x07000000|0x100<<10|0x20)
	x1, x2, y1, y2 := g.DisplayRange()
	if y1 != 0x20 || y2 != 0x100 {
		t.Errorf("expected vertical range 0x20-0x100, got 0x%X-0x%X", y1, y2)
	}
	if x1 != 0x200 || x2 != 0x200+2560 {
		t.Error("horizontal range should be untouched")
	}
}

func TestGPU_DisplayControls(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp1(g, 0x03000000)
	gp1(g, 0x05000000|(256<<10)|320)
	gp1(g, 0x06000000|(0xC60<<12)|0x260)
	if !g.DisplayEnabled() {
		t.Error("expected display enabled")
	}
	x, y := g.DisplayArea()
	if x != 320 || y != 256 {
		t.Errorf("expected display area (320,256), got (%d,%d)", x, y)
	}
	x1, x2, _, _ := g.DisplayRange()
	if x1 != 0x260 || x2 != 0xC60 {
		t.Errorf("expected horizontal range 0x260-0xC60, got 0x%X-0x%X", x1, x2)
	}
}

func TestGPU_UnknownGP1(t *testing.T) {
	g, _, _ := makeTestGPU()
	before := g.Read(4)
	gp1(g, 0x20000000)
	if got := g.Read(4); got != before {
		t.Errorf("unknown GP1 changed GPUSTAT: 0x%08X -> 0x%08X", before, got)
	}
}

// --- Timing ---

func TestGPU_FrameTiming(t *testing.T) {
	g, _, _ := makeTestGPU()
	if g.EmulateCycles(NTSCTiming.CyclesPerLine * 10) {
		t.Error("unexpected vblank after 10 lines")
	}
	if g.Scanline() != 10 {
		t.Errorf("expected line 10, got %d", g.Scanline())
	}
	if !g.EmulateCycles(NTSCTiming.CyclesPerLine * (NTSCTiming.Scanlines - 10)) {
		t.Error("expected vblank at end of frame")
	}
	if g.Frame() != 1 || g.Scanline() != 0 {
		t.Errorf("expected frame 1 line 0, got frame %d line %d", g.Frame(), g.Scanline())
	}
}

func TestGPU_OddLineToggles(t *testing.T) {
	g, _, _ := makeTestGPU()
	g.EmulateCycles(NTSCTiming.CyclesPerLine)
	if g.Read(4)&(1<<31) == 0 {
		t.Error("expected odd bit on line 1")
	}
	g.EmulateCycles(NTSCTiming.CyclesPerLine)
	if g.Read(4)&(1<<31) != 0 {
		t.Error("expected odd bit clear on line 2")
	}
	g.EmulateCycles(NTSCTiming.CyclesPerLine * 241)
	if !g.InVBlank() || g.Read(4)&(1<<31) != 0 {
		t.Error("odd bit should be clear in vblank")
	}
}

func TestGPU_PALFrame(t *testing.T) {
	g := NewGPU(PALTiming, nil, nil)
	if g.EmulateCycles(PALTiming.CyclesPerLine * (NTSCTiming.Scanlines)) {
		t.Error("PAL frame should be longer than NTSC")
	}
	if !g.EmulateCycles(PALTiming.CyclesPerLine * (PALTiming.Scanlines - NTSCTiming.Scanlines)) {
		t.Error("expected vblank at PAL frame end")
	}
}

// --- Command log ---

func TestGPU_CommandLog(t *testing.T) {
	g, _, _ := makeTestGPU()
	gp0(g, 0xE1000001)
	if len(g.CommandLog()) != 0 {
		t.Error("log should be empty while disabled")
	}

	g.EnableCommandLog(true)
	gp0(g, 0x02000000, 0, 1<<16|1)
	gp0(g, 0xE1000002)

	entries := g.CommandLog()
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Kind != "FillRectangle" || entries[0].Opcode != 0x02 || len(entries[0].Args) != 3 {
		t.Errorf("unexpected first entry %+v", entries[0])
	}
	if entries[1].Kind != "Extra" || entries[1].Args[0] != 2 {
		t.Errorf("unexpected second entry %+v", entries[1])
	}

	g.ClearCommandLog()
	if len(g.CommandLog()) != 0 {
		t.Error("expected empty log after clear")
	}
}

// --- VRAM image view ---

func TestVRAM_ImageView(t *testing.T) {
	g, _, _ := makeTestGPU()
	v := g.VRAM()
	v.SetPixel(1, 2, 0x801F)

	r, gg, b, a := v.At(1, 2).RGBA()
	if r != 0xFFFF || gg != 0 || b != 0 || a != 0xFFFF {
		t.Errorf("expected opaque red, got %04X %04X %04X %04X", r, gg, b, a)
	}
	if v.Bounds().Dx() != VRAMWidth || v.Bounds().Dy() != VRAMHeight {
		t.Errorf("unexpected bounds %v", v.Bounds())
	}

	v.Set(1, 2, Color15(0x03E0))
	if got := v.Pixel(1, 2); got != 0x83E0 {
		t.Errorf("Set should keep the mask bit, got 0x%04X", got)
	}
}

// --- Serialize ---

func TestGPU_SerializeRoundTrip(t *testing.T) {
	g, _, _ := makeTestGPU()
	g.VRAM().SetPixel(512, 256, 0x1234)
	gp0(g, 0xE1000123, 0xE5000000|(3<<11)|0x7FE)
	gp1(g, 0x08000029)
	gp0(g, 0xA0000000, 0, 1<<16|4) // leave a transfer in flight
	g.EmulateCycles(NTSCTiming.CyclesPerLine * 5)

	buf := make([]byte, GPUSerializeSize)
	if err := g.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}

	h, _, _ := makeTestGPU()
	if err := h.Deserialize(buf); err != nil {
		t.Fatalf("deserialize: %v", err)
	}
	if h.VRAM().Pixel(512, 256) != 0x1234 {
		t.Error("VRAM not restored")
	}
	if h.drawMode != 0x123 || h.drawOffsetX != -2 || h.drawOffsetY != 3 {
		t.Error("draw registers not restored")
	}
	if h.cmd != cmdCopyCPUToVRAM2 || h.Scanline() != 5 {
		t.Error("command or timing state not restored")
	}
	if h.Read(4) != g.Read(4) {
		t.Errorf("GPUSTAT mismatch 0x%08X vs 0x%08X", h.Read(4), g.Read(4))
	}
}

func TestGPU_SerializeShortBuffer(t *testing.T) {
	g, _, _ := makeTestGPU()
	if err := g.Serialize(make([]byte, 10)); err == nil {
		t.Error("expected error for short buffer")
	}
	if err := g.Deserialize(make([]byte, 10)); err == nil {
		t.Error("expected error for short buffer")
	}
}

func TestGPU_DeserializeRejectsBadCommand(t *testing.T) {
	src, _, _ := makeTestGPU()
	src.VRAM().SetPixel(5, 5, 0x1234)
	buf := make([]byte, GPUSerializeSize)
	if err := src.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	// Polygon command paired with a register-set opcode
	buf[gpuCommandOffset] = uint8(cmdPolygon)
	buf[gpuCommandOffset+1] = 0xE1

	g, _, _ := makeTestGPU()
	g.VRAM().SetPixel(5, 5, 0x7FFF)
	gp0(g, 0x20FF0000) // flat triangle waiting for vertices

	if err := g.Deserialize(buf); err == nil {
		t.Fatal("expected error for command without a handler")
	}
	if got := g.VRAM().Pixel(5, 5); got != 0x7FFF {
		t.Errorf("VRAM changed by rejected state, got 0x%04X", got)
	}
	if g.cmd != cmdPolygon || g.opcode != 0x20 || g.currentArgument != 1 {
		t.Errorf("command state changed: cmd %d opcode 0x%02X arg %d", g.cmd, g.opcode, g.currentArgument)
	}

	// The in-flight command still completes
	gp0(g, 0x00000000, 0x00000010, 0x00100000)
	if g.cmd != cmdNone {
		t.Errorf("expected command finished, got %d", g.cmd)
	}
}

func TestGPU_DeserializeRejectsBadCounters(t *testing.T) {
	src, _, _ := makeTestGPU()
	buf := make([]byte, GPUSerializeSize)
	if err := src.Serialize(buf); err != nil {
		t.Fatalf("serialize: %v", err)
	}
	binary.LittleEndian.PutUint16(buf[gpuCommandOffset+2:], 2)
	binary.LittleEndian.PutUint16(buf[gpuCommandOffset+4:], 3)

	g, _, _ := makeTestGPU()
	g.VRAM().SetPixel(0, 0, 0x0421)
	if err := g.Deserialize(buf); err == nil {
		t.Fatal("expected error for current argument past the count")
	}
	if got := g.VRAM().Pixel(0, 0); got != 0x0421 {
		t.Errorf("VRAM changed by rejected state, got 0x%04X", got)
	}
}

func TestGPU_ValidateCommandState(t *testing.T) {
	tests := []struct {
		name   string
		cmd    gpuCommand
		opcode uint8
		count  int
		cur    int
		ok     bool
	}{
		{"idle", cmdNone, 0x00, 0, 0, true},
		{"cpu to vram data", cmdCopyCPUToVRAM2, 0xA0, 1, 0, true},
		{"polygon", cmdPolygon, 0x28, 5, 2, true},
		{"rectangle", cmdRectangle, 0x60, 3, 1, true},
		{"polygon on line opcode", cmdPolygon, 0x40, 3, 1, false},
		{"register opcode", cmdExtra, 0xE1, 1, 1, false},
		{"unknown kind", gpuCommand(200), 0x02, 3, 1, false},
		{"count too large", cmdLine, 0x48, maxArgs + 1, 0, false},
	}
	for _, tt := range tests {
		buf := make([]byte, 6)
		buf[0] = uint8(tt.cmd)
		buf[1] = tt.opcode
		binary.LittleEndian.PutUint16(buf[2:], uint16(tt.count))
		binary.LittleEndian.PutUint16(buf[4:], uint16(tt.cur))
		err := validateCommandState(buf)
		if tt.ok && err != nil {
			t.Errorf("%s: unexpected error %v", tt.name, err)
		}
		if !tt.ok && err == nil {
			t.Errorf("%s: expected error", tt.name)
		}
	}
}
