package emu

import (
	"encoding/binary"
	"errors"
)

const (
	dmaSerializeVersion = 1
	// DMASerializeSize is the total bytes needed for DMA serialization.
	// version(1) + control(4) + status(4) +
	// 7 channels x (base(4) + block(4) + control(4) + irqFlag(1))
	DMASerializeSize = 100
)

// Serialize writes DMA state to buf. buf must be at least DMASerializeSize bytes.
func (d *DMA) Serialize(buf []byte) error {
	if len(buf) < DMASerializeSize {
		return errors.New("DMA serialize buffer too small")
	}

	offset := 0
	buf[offset] = dmaSerializeVersion
	offset++

	binary.LittleEndian.PutUint32(buf[offset:], d.control)
	offset += 4
	binary.LittleEndian.PutUint32(buf[offset:], uint32(d.status))
	offset += 4

	for _, ch := range d.channels {
		r := ch.regs()
		binary.LittleEndian.PutUint32(buf[offset:], r.base)
		offset += 4
		binary.LittleEndian.PutUint32(buf[offset:], r.block)
		offset += 4
		binary.LittleEndian.PutUint32(buf[offset:], uint32(r.control))
		offset += 4
		buf[offset] = boolByte(r.irqFlag)
		offset++
	}

	return nil
}

// Deserialize restores DMA state from buf. buf must be at least DMASerializeSize bytes.
func (d *DMA) Deserialize(buf []byte) error {
	if len(buf) < DMASerializeSize {
		return errors.New("DMA deserialize buffer too small")
	}

	offset := 0
	if buf[offset] != dmaSerializeVersion {
		return errors.New("unsupported DMA serialize version")
	}
	offset++

	d.control = binary.LittleEndian.Uint32(buf[offset:])
	offset += 4
	d.status = dmaInterrupt(binary.LittleEndian.Uint32(buf[offset:]))
	offset += 4

	for _, ch := range d.channels {
		r := ch.regs()
		r.base = binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
		r.block = binary.LittleEndian.Uint32(buf[offset:])
		offset += 4
		r.control = channelControl(binary.LittleEndian.Uint32(buf[offset:]))
		offset += 4
		r.irqFlag = buf[offset] != 0
		offset++
	}

	return nil
}
