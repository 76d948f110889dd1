package emu

// fillRectangle handles GP0(02h). The fill ignores the drawing area and
// mask settings. Painting wider than VRAM would only repeat columns, so
// the size is clamped to the VRAM dimensions.
func (g *GPU) fillRectangle() {
	color := to15bit(g.args[0])
	x := int(g.args[1] & 0xFFFF)
	y := int(g.args[1] >> 16)
	w := min(int(g.args[2]&0xFFFF), VRAMWidth)
	h := min(int(g.args[2]>>16), VRAMHeight)

	for row := 0; row < h; row++ {
		for col := 0; col < w; col++ {
			g.vram.SetPixel(x+col, y+row, color)
		}
	}
}

func (g *GPU) primitiveFlags(semi, textured, raw, gouraud bool) VertexFlags {
	var f VertexFlags
	if semi {
		f |= FlagSemiTransparent
	}
	if textured {
		f |= FlagTextured
		if raw {
			f |= FlagRawTexture
		}
	}
	if gouraud {
		f |= FlagGouraud
	}
	if g.drawMode.dither() {
		f |= FlagDither
	}
	return f
}

// drawPolygon handles GP0(20h-3Fh). Arguments per vertex are the
// position, the UV word when textured, then the next vertex colour when
// Gouraud shaded.
func (g *GPU) drawPolygon() {
	op := g.opcode
	gouraud := op&0x10 != 0
	quad := op&0x08 != 0
	textured := op&0x04 != 0
	semi := op&0x02 != 0
	raw := op&0x01 != 0

	n := 3
	if quad {
		n = 4
	}

	flags := g.primitiveFlags(semi, textured, raw, gouraud)
	semiMode := uint8(g.drawMode.semiTransparency())

	var v [4]Vertex
	var uv [4]uint32
	color := g.args[0] & 0xFFFFFF
	idx := 1
	for i := 0; i < n; i++ {
		if i > 0 && gouraud {
			color = g.args[idx] & 0xFFFFFF
			idx++
		}
		v[i].Color = color
		v[i].X, v[i].Y = positionFromWord(g.args[idx])
		idx++
		if textured {
			uv[i] = g.args[idx]
			idx++
		}
		v[i].Flags = flags
		v[i].SemiMode = semiMode
	}

	if textured {
		tex := decodeTexture(uv[0], uv[1])
		for i := 0; i < n; i++ {
			v[i].U = uint8(uv[i])
			v[i].V = uint8(uv[i] >> 8)
			tex.apply(&v[i])
		}
		// The texpage attribute also updates the E1 page and blend bits.
		g.drawMode = g.drawMode&^0x1FF | drawMode((uv[1]>>16)&0x1FF)
	}

	s := g.drawState()
	g.renderer.DrawTriangle(g.vram, s, [3]Vertex{v[0], v[1], v[2]})
	if quad {
		g.renderer.DrawTriangle(g.vram, s, [3]Vertex{v[1], v[2], v[3]})
	}
}

// drawLines handles GP0(40h-5Fh). Segments are bounded by the words
// actually received; a polyline's trailing sentinel is not a vertex.
func (g *GPU) drawLines() {
	op := g.opcode
	gouraud := op&0x10 != 0
	poly := op&0x08 != 0
	semi := op&0x02 != 0

	words := g.args[1:g.argumentCount]
	if poly && len(words) > 0 && words[len(words)-1] == lineSentinel {
		words = words[:len(words)-1]
	}

	flags := g.primitiveFlags(semi, false, false, gouraud)
	semiMode := uint8(g.drawMode.semiTransparency())
	s := g.drawState()

	var prev Vertex
	count := 0
	color := g.args[0] & 0xFFFFFF
	for i := 0; i < len(words); {
		if gouraud && count > 0 {
			if i+1 >= len(words) {
				break
			}
			color = words[i] & 0xFFFFFF
			i++
		}
		var cur Vertex
		cur.X, cur.Y = positionFromWord(words[i])
		cur.Color = color
		cur.Flags = flags
		cur.SemiMode = semiMode
		i++

		if count > 0 {
			g.renderer.DrawLine(g.vram, s, [2]Vertex{prev, cur})
		}
		prev = cur
		count++
	}
}

// rectangleSizes indexes fixed sprite sizes by opcode bits 3-4.
var rectangleSizes = [4]int{0, 1, 8, 16}

// drawRectangle handles GP0(60h-7Fh). Sprites use the texture page from
// E1 and are drawn as a quad.
func (g *GPU) drawRectangle() {
	op := g.opcode
	textured := op&0x04 != 0
	semi := op&0x02 != 0
	raw := op&0x01 != 0
	size := (op >> 3) & 3

	idx := 1
	x, y := positionFromWord(g.args[idx])
	idx++

	var uv uint32
	if textured {
		uv = g.args[idx]
		idx++
	}

	w, h := rectangleSizes[size], rectangleSizes[size]
	if size == 0 {
		w = int(g.args[idx] & 0x3FF)
		h = int((g.args[idx] >> 16) & 0x1FF)
	}

	flags := g.primitiveFlags(semi, textured, raw, false)
	color := g.args[0] & 0xFFFFFF
	base := Vertex{
		Color:    color,
		Flags:    flags,
		SemiMode: uint8(g.drawMode.semiTransparency()),
	}
	if textured {
		tex := decodeTexture(uv, uint32(g.drawMode)<<16)
		tex.apply(&base)
	}

	u0, v0 := int(uv&0xFF), int((uv>>8)&0xFF)
	var v [4]Vertex
	corners := [4][2]int{{0, 0}, {w, 0}, {0, h}, {w, h}}
	for i, c := range corners {
		v[i] = base
		v[i].X = x + int16(c[0])
		v[i].Y = y + int16(c[1])
		if textured {
			v[i].U = uint8(u0 + c[0])
			v[i].V = uint8(v0 + c[1])
		}
	}

	s := g.drawState()
	g.renderer.DrawTriangle(g.vram, s, [3]Vertex{v[0], v[1], v[2]})
	g.renderer.DrawTriangle(g.vram, s, [3]Vertex{v[1], v[2], v[3]})
}
