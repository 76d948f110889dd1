package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	gpuSerializeVersion = 1
	// GPUSerializeSize is the total bytes needed for GPU serialization.
	// version(1) + vram(1048576) +
	// cmd(1) + opcode(1) + argumentCount(2) + currentArgument(2) + args(1024) +
	// cursor(24) +
	// drawMode(4) + texWindow(4) + drawArea(8) + drawOffset(8) + mask(1) +
	// displayMode(4) + displayDisable(1) + dmaDirection(1) + displayArea(4) +
	// displayRange(8) + textureDisableAllowed(1) +
	// irqRequest(1) + prevIRQ(1) + readMode(1) + gpuRead(4) +
	// dot(4) + line(4) + frames(8) + oddLine(1)
	GPUSerializeSize = 1049699
)

// Serialize writes GPU state to buf. buf must be at least GPUSerializeSize bytes.
func (g *GPU) Serialize(buf []byte) error {
	if len(buf) < GPUSerializeSize {
		return errors.New("GPU serialize buffer too small")
	}

	offset := 0

	// Version
	buf[offset] = gpuSerializeVersion
	offset++

	// VRAM (1MB)
	for y := 0; y < VRAMHeight; y++ {
		for _, p := range g.vram.pix[y] {
			binary.LittleEndian.PutUint16(buf[offset:], p)
			offset += 2
		}
	}

	// GP0 command state
	buf[offset] = uint8(g.cmd)
	offset++
	buf[offset] = g.opcode
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], uint16(g.argumentCount))
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], uint16(g.currentArgument))
	offset += 2
	for _, a := range g.args {
		binary.LittleEndian.PutUint32(buf[offset:], a)
		offset += 4
	}

	// Transfer cursor
	for _, v := range []int{g.currX, g.currY, g.startX, g.startY, g.endX, g.endY} {
		binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(v)))
		offset += 4
	}

	// GP0 registers
	binary.LittleEndian.PutUint32(buf[offset:], uint32(g.drawMode))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(g.texWindow))
	offset += 4
	for _, v := range []int{g.drawAreaLeft, g.drawAreaTop, g.drawAreaRight, g.drawAreaBottom} {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(v))
		offset += 2
	}
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(g.drawOffsetX)))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(g.drawOffsetY)))
	offset += 4
	buf[offset] = uint8(g.maskSetting)
	offset++

	// GP1 registers
	binary.LittleEndian.PutUint32(buf[offset:], uint32(g.displayMode))
	offset += 4
	buf[offset] = boolByte(g.displayDisable)
	offset++
	buf[offset] = g.dmaDirection
	offset++
	binary.LittleEndian.PutUint16(buf[offset:], uint16(g.displayAreaX))
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], uint16(g.displayAreaY))
	offset += 2
	for _, v := range []int{g.displayRangeX1, g.displayRangeX2, g.displayRangeY1, g.displayRangeY2} {
		binary.LittleEndian.PutUint16(buf[offset:], uint16(v))
		offset += 2
	}
	buf[offset] = boolByte(g.textureDisableAllowed)
	offset++

	// Interrupt and GPUREAD
	buf[offset] = boolByte(g.irqRequest)
	offset++
	buf[offset] = boolByte(g.prevIRQ)
	offset++
	buf[offset] = uint8(g.readMode)
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], g.gpuRead)
	offset += 4

	// Timing
	binary.LittleEndian.PutUint32(buf[offset:], uint32(g.dot))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(g.line))
	offset += 4
	binary.LittleEndian.PutUint64(buf[offset:], g.frames)
	offset += 8
	buf[offset] = boolByte(g.oddLine)

	return nil
}

// gpuCommandOffset is where the GP0 command state starts, after version and VRAM.
const gpuCommandOffset = 1 + VRAMWidth*VRAMHeight*2

// Deserialize restores GPU state from buf. buf must be at least GPUSerializeSize bytes.
// The GPU is left untouched when buf is rejected.
func (g *GPU) Deserialize(buf []byte) error {
	if len(buf) < GPUSerializeSize {
		return errors.New("GPU deserialize buffer too small")
	}
	if buf[0] != gpuSerializeVersion {
		return errors.New("unsupported GPU serialize version")
	}
	if err := validateCommandState(buf[gpuCommandOffset:]); err != nil {
		return err
	}

	offset := 1

	// VRAM (1MB)
	for y := 0; y < VRAMHeight; y++ {
		row := &g.vram.pix[y]
		for x := range row {
			row[x] = binary.LittleEndian.Uint16(buf[offset:])
			offset += 2
		}
	}

	// GP0 command state
	g.cmd = gpuCommand(buf[offset])
	offset++
	g.opcode = buf[offset]
	offset++
	g.argumentCount = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	g.currentArgument = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	for i := range g.args {
		g.args[i] = binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
	}

	// Transfer cursor
	for _, p := range []*int{&g.currX, &g.currY, &g.startX, &g.startY, &g.endX, &g.endY} {
		*p = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
		offset += 4
	}

	// GP0 registers
	g.drawMode = drawMode(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	g.texWindow = textureWindow(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	for _, p := range []*int{&g.drawAreaLeft, &g.drawAreaTop, &g.drawAreaRight, &g.drawAreaBottom} {
		*p = int(binary.LittleEndian.Uint16(buf[offset:]))
		offset += 2
	}
	g.drawOffsetX = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	offset += 4
	g.drawOffsetY = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	offset += 4
	g.maskSetting = maskSetting(buf[offset])
	offset++

	// GP1 registers
	g.displayMode = displayMode(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	g.displayDisable = buf[offset] != 0
	offset++
	g.dmaDirection = buf[offset]
	offset++
	g.displayAreaX = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	g.displayAreaY = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	for _, p := range []*int{&g.displayRangeX1, &g.displayRangeX2, &g.displayRangeY1, &g.displayRangeY2} {
		*p = int(binary.LittleEndian.Uint16(buf[offset:]))
		offset += 2
	}
	g.textureDisableAllowed = buf[offset] != 0
	offset++

	// Interrupt and GPUREAD
	g.irqRequest = buf[offset] != 0
	offset++
	g.prevIRQ = buf[offset] != 0
	offset++
	g.readMode = readMode(buf[offset])
	offset++
	g.gpuRead = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4

	// Timing
	g.dot = int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	g.line = int(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4
	g.frames = binary.LittleEndian.Uint64(buf[offset:])
	offset += 8
	g.oddLine = buf[offset] != 0

	g.status = g.computeStatus()
	return nil
}

// validateCommandState checks the saved GP0 command against the opcode
// table so a restored GPU never dispatches to a missing handler.
func validateCommandState(buf []byte) error {
	cmd := gpuCommand(buf[0])
	opcode := buf[1]
	argumentCount := int(binary.LittleEndian.Uint16(buf[2:]))
	currentArgument := int(binary.LittleEndian.Uint16(buf[4:]))

	if argumentCount > maxArgs || currentArgument > argumentCount {
		return errors.New("GPU state has invalid argument counters")
	}

	switch cmd {
	case cmdNone, cmdCopyCPUToVRAM2:
		return nil
	}
	e := gp0Table[opcode]
	if e.exec == nil || e.kind != cmd {
		return fmt.Errorf("GPU state has command %d for GP0(0x%02x)", cmd, opcode)
	}
	return nil
}
