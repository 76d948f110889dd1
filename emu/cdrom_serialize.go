package emu

import (
	"encoding/binary"
	"errors"
)

const (
	cdromSerializeVersion = 1
	fifoSerializeSize     = fifoDepth + 2 // entries + head + count
	// CDROMSerializeSize is the total bytes needed for CDROM serialization.
	// version(1) + status(1) + stat(1) + mode(1) + intEnable(1) +
	// 3 fifos x 18 + irqSignaled(1) +
	// seekTarget(4) + setlocPending(1) + sector(4) + sectorTimer(4) +
	// filterFile(1) + filterChannel(1) + muted(1) +
	// data(2340) + dataLen(2) + dataPos(2) + header(8) + haveLast(1) +
	// volStage(4) + volume(4)
	CDROMSerializeSize = 2437
)

func (f *fifo) serialize(buf []byte) {
	copy(buf, f.buf[:])
	buf[fifoDepth] = uint8(f.head)
	buf[fifoDepth+1] = uint8(f.n)
}

func (f *fifo) deserialize(buf []byte) error {
	copy(f.buf[:], buf[:fifoDepth])
	f.head = int(buf[fifoDepth])
	f.n = int(buf[fifoDepth+1])
	if f.head >= fifoDepth || f.n > fifoDepth {
		return errors.New("CDROM FIFO state out of range")
	}
	return nil
}

// Serialize writes CDROM state to buf. buf must be at least CDROMSerializeSize bytes.
// The inserted disc and sector cache are not part of the state.
func (c *CDROM) Serialize(buf []byte) error {
	if len(buf) < CDROMSerializeSize {
		return errors.New("CDROM serialize buffer too small")
	}

	offset := 0
	buf[offset] = cdromSerializeVersion
	offset++

	// Registers
	buf[offset] = uint8(c.status)
	offset++
	buf[offset] = uint8(c.stat)
	offset++
	buf[offset] = uint8(c.mode)
	offset++
	buf[offset] = c.intEnable
	offset++

	// FIFOs
	for _, f := range []*fifo{&c.params, &c.response, &c.interrupts} {
		f.serialize(buf[offset:])
		offset += fifoSerializeSize
	}
	buf[offset] = boolByte(c.irqSignaled)
	offset++

	// Position
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(c.seekTarget)))
	offset += 4
	buf[offset] = boolByte(c.setlocPending)
	offset++
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(c.sector)))
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(int32(c.sectorTimer)))
	offset += 4

	// XA filter
	buf[offset] = c.filterFile
	offset++
	buf[offset] = c.filterChannel
	offset++
	buf[offset] = boolByte(c.muted)
	offset++

	// Sector buffer
	copy(buf[offset:], c.data[:])
	offset += len(c.data)
	binary.LittleEndian.PutUint16(buf[offset:], uint16(c.dataLen))
	offset += 2
	binary.LittleEndian.PutUint16(buf[offset:], uint16(c.dataPos))
	offset += 2
	copy(buf[offset:], c.header[:])
	offset += len(c.header)
	buf[offset] = boolByte(c.haveLast)
	offset++

	// Volume
	copy(buf[offset:], c.volStage[:])
	offset += 4
	copy(buf[offset:], c.volume[:])

	return nil
}

// Deserialize restores CDROM state from buf. buf must be at least CDROMSerializeSize bytes.
func (c *CDROM) Deserialize(buf []byte) error {
	if len(buf) < CDROMSerializeSize {
		return errors.New("CDROM deserialize buffer too small")
	}

	offset := 0
	if buf[offset] != cdromSerializeVersion {
		return errors.New("unsupported CDROM serialize version")
	}
	offset++

	// Registers
	c.status = cdromStatus(buf[offset])
	offset++
	c.stat = driveStatus(buf[offset])
	offset++
	c.mode = driveMode(buf[offset])
	offset++
	c.intEnable = buf[offset]
	offset++

	// FIFOs
	for _, f := range []*fifo{&c.params, &c.response, &c.interrupts} {
		if err := f.deserialize(buf[offset:]); err != nil {
			return err
		}
		offset += fifoSerializeSize
	}
	c.irqSignaled = buf[offset] != 0
	offset++

	// Position
	c.seekTarget = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	offset += 4
	c.setlocPending = buf[offset] != 0
	offset++
	c.sector = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	offset += 4
	c.sectorTimer = int(int32(binary.LittleEndian.Uint32(buf[offset:])))
	offset += 4

	// XA filter
	c.filterFile = buf[offset]
	offset++
	c.filterChannel = buf[offset]
	offset++
	c.muted = buf[offset] != 0
	offset++

	// Sector buffer
	copy(c.data[:], buf[offset:offset+len(c.data)])
	offset += len(c.data)
	c.dataLen = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	c.dataPos = int(binary.LittleEndian.Uint16(buf[offset:]))
	offset += 2
	if c.dataLen > len(c.data) || c.dataPos > c.dataLen {
		return errors.New("CDROM data buffer state out of range")
	}
	copy(c.header[:], buf[offset:offset+len(c.header)])
	offset += len(c.header)
	c.haveLast = buf[offset] != 0
	offset++

	// Volume
	copy(c.volStage[:], buf[offset:offset+4])
	offset += 4
	copy(c.volume[:], buf[offset:offset+4])

	return nil
}
