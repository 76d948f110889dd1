package emu

import (
	"github.com/user-none/empsx/logger"
)

// DPCR power-on value: channel priorities 1-7, all channels disabled.
const dpcrReset = 0x07654321

// DMA register offsets relative to 0x1F801080.
const (
	dmaControlReg   = 0x70 // DPCR
	dmaInterruptReg = 0x74 // DICR
	dmaRegsEnd      = 0x78
)

// DMA is the seven channel DMA controller. Transfers run to completion as
// soon as they are started; the CPU is not stalled.
type DMA struct {
	control  uint32 // DPCR
	status   dmaInterrupt
	channels [dmaChannelCount]dmaChannel
	irq      InterruptSink
}

// NewDMA creates a DMA controller. gpu and cdrom may be nil, in which case
// their channels behave like channels with no device.
func NewDMA(irq InterruptSink, mem Memory, gpu gpuPort, cdrom cdromPort) *DMA {
	if irq == nil {
		irq = nopSink{}
	}
	d := &DMA{irq: irq}
	for i := range d.channels {
		base := channel{index: i, mem: mem}
		switch {
		case i == dmaGPU && gpu != nil:
			d.channels[i] = &gpuChannel{channel: base, gpu: gpu}
		case i == dmaCDROM && cdrom != nil:
			d.channels[i] = &cdromChannel{channel: base, cdrom: cdrom}
		case i == dmaOTC:
			d.channels[i] = &otcChannel{channel: base}
		default:
			d.channels[i] = &genericChannel{channel: base}
		}
	}
	d.Reset()
	return d
}

// Reset restores power-on register values.
func (d *DMA) Reset() {
	d.control = dpcrReset
	d.status = 0
	for _, ch := range d.channels {
		r := ch.regs()
		r.base = 0
		r.block = 0
		r.control = 0
		r.irqFlag = false
	}
}

// Step recomputes the DICR master flag and raises the DMA interrupt on
// its rising edge.
func (d *DMA) Step() {
	prev := d.status.masterFlag()
	flag := d.status.forceIRQ() ||
		(d.status.masterEnable() && d.status.enables()&d.status.flags() != 0)
	d.status.setMasterFlag(flag)
	if flag && !prev {
		d.irq.Trigger(IntDMA)
	}
}

// Read returns the register byte at addr, relative to 0x1F801080.
func (d *DMA) Read(addr uint32) uint8 {
	switch {
	case addr < dmaControlReg:
		return d.channels[addr>>4].regs().readReg(addr & 0xF)
	case addr < dmaInterruptReg:
		return uint8(d.control >> (8 * (addr & 3)))
	case addr < dmaRegsEnd:
		return d.status.byteAt(int(addr & 3))
	}
	logger.Logf("dma", "read from unmapped register 0x%02x", addr)
	return 0
}

// Write stores one register byte at addr, relative to 0x1F801080. A
// write to a channel's top CHCR byte may run a transfer.
func (d *DMA) Write(addr uint32, data uint8) {
	switch {
	case addr < dmaControlReg:
		d.writeChannel(int(addr>>4), addr&0xF, data)
	case addr < dmaInterruptReg:
		shift := 8 * (addr & 3)
		d.control = d.control&^(0xFF<<shift) | uint32(data)<<shift
	case addr < dmaRegsEnd:
		d.status.writeByte(int(addr&3), data)
	default:
		logger.Logf("dma", "write 0x%02x to unmapped register 0x%02x", data, addr)
	}
}

func (d *DMA) writeChannel(n int, reg uint32, data uint8) {
	ch := d.channels[n]
	r := ch.regs()
	if r.writeReg(reg, data) {
		ch.run()
	}
	if r.irqFlag {
		r.irqFlag = false
		if d.status.channelEnabled(n) {
			d.status.setFlag(n)
		}
	}
}

// ReadWord reads four register bytes, low address first.
func (d *DMA) ReadWord(addr uint32) uint32 {
	var v uint32
	for i := uint32(0); i < 4; i++ {
		v |= uint32(d.Read(addr+i)) << (8 * i)
	}
	return v
}

// WriteWord writes four register bytes, low address first, so CHCR's
// start bits land after the rest of the word.
func (d *DMA) WriteWord(addr uint32, data uint32) {
	for i := uint32(0); i < 4; i++ {
		d.Write(addr+i, uint8(data>>(8*i)))
	}
}

// MasterFlag reports DICR bit 31.
func (d *DMA) MasterFlag() bool {
	return d.status.masterFlag()
}
