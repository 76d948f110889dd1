package emu

// VertexFlags describe how a primitive is shaded.
type VertexFlags uint8

const (
	FlagTextured VertexFlags = 1 << iota
	FlagSemiTransparent
	FlagRawTexture
	FlagGouraud
	FlagDither
)

// Vertex is one corner of a primitive as decoded from GP0. Positions are
// raw; the drawing offset lives in DrawState.
type Vertex struct {
	X, Y  int16
	Color uint32 // 0xBBGGRR

	// Texture state, valid when FlagTextured is set.
	U, V         uint8
	ClutX, ClutY int
	PageX, PageY int
	BitDepth     int // 4, 8 or 16

	SemiMode uint8 // blend mode 0-3
	Flags    VertexFlags
}

// DrawState is the GPU drawing environment a primitive is clipped and
// blended against.
type DrawState struct {
	AreaLeft, AreaTop     int
	AreaRight, AreaBottom int
	OffsetX, OffsetY      int

	SetMask   bool
	CheckMask bool

	WindowMaskX, WindowMaskY     uint8
	WindowOffsetX, WindowOffsetY uint8
}

// Renderer rasterizes primitives into VRAM.
type Renderer interface {
	DrawTriangle(vram *VRAM, s DrawState, v [3]Vertex)
	DrawLine(vram *VRAM, s DrawState, v [2]Vertex)
}

type nopRenderer struct{}

func (nopRenderer) DrawTriangle(*VRAM, DrawState, [3]Vertex) {}
func (nopRenderer) DrawLine(*VRAM, DrawState, [2]Vertex)     {}

// textureInfo decodes the CLUT and texture page words carried in the upper
// halves of textured primitive UV words.
type textureInfo struct {
	clutX, clutY int
	pageX, pageY int
	semiMode     uint8
	bitDepth     int
}

func decodeTexture(palette, texpage uint32) textureInfo {
	clut := palette >> 16
	page := texpage >> 16
	depth := 4 << ((page >> 7) & 3)
	if depth > 16 {
		depth = 16
	}
	return textureInfo{
		clutX:    int(clut&0x3F) * 16,
		clutY:    int((clut >> 6) & 0x1FF),
		pageX:    int(page&0xF) * 64,
		pageY:    int((page>>4)&1) * 256,
		semiMode: uint8((page >> 5) & 3),
		bitDepth: depth,
	}
}

func (t textureInfo) apply(v *Vertex) {
	v.ClutX, v.ClutY = t.clutX, t.clutY
	v.PageX, v.PageY = t.pageX, t.pageY
	v.BitDepth = t.bitDepth
	v.SemiMode = t.semiMode
}

// positionFromWord splits a GP0 vertex word into signed 11-bit X and Y.
func positionFromWord(w uint32) (int16, int16) {
	x := int16(uint16(w)<<5) >> 5
	y := int16(uint16(w>>16)<<5) >> 5
	return x, y
}
