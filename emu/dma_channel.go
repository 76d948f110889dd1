package emu

import (
	"github.com/user-none/empsx/logger"
)

// DMA channel numbers.
const (
	dmaMDECIn = iota
	dmaMDECOut
	dmaGPU
	dmaCDROM
	dmaSPU
	dmaPIO
	dmaOTC
	dmaChannelCount
)

var dmaChannelNames = [dmaChannelCount]string{"MDECin", "MDECout", "GPU", "CDROM", "SPU", "PIO", "OTC"}

// ramMask keeps DMA addresses word aligned inside 2MB of main RAM.
const ramMask = 0x1FFFFC

// listEnd marks the last packet of a linked list.
const listEnd = 0xFFFFFF

// maxListPackets bounds a linked list walk. 2MB of RAM cannot hold more
// distinct headers than this, so a longer walk is a loop.
const maxListPackets = 0x80000

// maxBlockWords bounds a block transfer to one pass over main RAM.
const maxBlockWords = 0x80000

// gpuPort is the GPU as seen by DMA channel 2.
type gpuPort interface {
	Read(addr uint32) uint32
	Write(addr uint32, data uint32)
}

// cdromPort is the CDROM data path as seen by DMA channel 3.
type cdromPort interface {
	ReadDataWord() uint32
}

// dmaChannel is one of the seven channels. Register storage is shared;
// run performs the device specific transfer.
type dmaChannel interface {
	regs() *channel
	run()
}

// channel holds the MADR, BCR and CHCR registers of a DMA channel.
type channel struct {
	index   int
	base    uint32         // MADR
	block   uint32         // BCR
	control channelControl // CHCR
	irqFlag bool
	mem     Memory
}

func (c *channel) regs() *channel { return c }

func (c *channel) name() string {
	return dmaChannelNames[c.index]
}

func (c *channel) readReg(reg uint32) uint8 {
	shift := 8 * (reg & 3)
	switch reg >> 2 {
	case 0:
		return uint8(c.base >> shift)
	case 1:
		return uint8(c.block >> shift)
	case 2:
		return uint8(uint32(c.control) >> shift)
	}
	return 0
}

// writeReg stores one register byte and reports whether the write to the
// top CHCR byte starts a transfer.
func (c *channel) writeReg(reg uint32, v uint8) bool {
	shift := 8 * (reg & 3)
	mask := uint32(0xFF) << shift
	val := uint32(v) << shift
	switch reg >> 2 {
	case 0:
		c.base = (c.base&^mask | val) & 0xFFFFFF
	case 1:
		c.block = c.block&^mask | val
	case 2:
		c.control = channelControl(uint32(c.control)&^mask | val)
		return reg == 0xB && c.control.active()
	}
	return false
}

// wordCount returns the words moved by a block transfer. A zero field
// means the maximum. Request mode is clamped to maxBlockWords.
func (c *channel) wordCount() int {
	size := int(c.block & 0xFFFF)
	if size == 0 {
		size = 0x10000
	}
	if c.control.sync() != syncRequest {
		return size
	}
	count := int(c.block >> 16)
	if count == 0 {
		count = 0x10000
	}
	if size*count > maxBlockWords {
		logger.Logf("dma", "%s: %d blocks of %d words clamped to %d words", c.name(), count, size, maxBlockWords)
		return maxBlockWords
	}
	return size * count
}

// transferBlock calls fn for each word address of a block transfer.
// Request mode leaves MADR past the last word and BCR's count at zero.
func (c *channel) transferBlock(fn func(addr uint32)) {
	step := uint32(4)
	if c.control.decrement() {
		step = ^uint32(3) // -4
	}
	addr := c.base & ramMask
	n := c.wordCount()
	for i := 0; i < n; i++ {
		fn(addr & ramMask)
		addr += step
	}
	if c.control.sync() == syncRequest {
		c.base = addr & 0xFFFFFF
		c.block &= 0xFFFF
	}
}

func (c *channel) complete() {
	c.control.finish()
	c.irqFlag = true
}

// --- Generic ---

// genericChannel has no device attached. Transfers complete immediately.
type genericChannel struct {
	channel
}

func (c *genericChannel) run() {
	logger.Logf("dma", "%s: no device attached, completing transfer", c.name())
	c.complete()
}

// --- GPU (channel 2) ---

type gpuChannel struct {
	channel
	gpu gpuPort
}

func (c *gpuChannel) run() {
	switch {
	case c.mem == nil:
		logger.Logf("dma", "%s: no memory attached", c.name())
	case c.control.sync() == syncLinkedList:
		if c.control.fromRAM() {
			c.walkList()
		} else {
			logger.Logf("dma", "%s: linked list to RAM is unsupported", c.name())
		}
	case c.control.fromRAM():
		c.transferBlock(func(addr uint32) {
			c.gpu.Write(0, c.mem.ReadWord(addr))
		})
	default:
		c.transferBlock(func(addr uint32) {
			c.mem.WriteWord(addr, c.gpu.Read(0))
		})
	}
	c.complete()
}

// walkList feeds GP0 from a chain of packets. Each header holds the word
// count in its top byte and the next packet address in the low 24 bits.
func (c *gpuChannel) walkList() {
	addr := c.base & ramMask
	for i := 0; i < maxListPackets; i++ {
		header := c.mem.ReadWord(addr)
		count := header >> 24
		for w := uint32(1); w <= count; w++ {
			c.gpu.Write(0, c.mem.ReadWord((addr+4*w)&ramMask))
		}
		next := header & 0xFFFFFF
		if next&0x800000 != 0 {
			c.base = listEnd
			return
		}
		addr = next & ramMask
	}
	logger.Logf("dma", "%s: linked list did not terminate after %d packets", c.name(), maxListPackets)
}

// --- CDROM (channel 3) ---

type cdromChannel struct {
	channel
	cdrom cdromPort
}

func (c *cdromChannel) run() {
	switch {
	case c.mem == nil:
		logger.Logf("dma", "%s: no memory attached", c.name())
	case c.control.fromRAM():
		logger.Logf("dma", "%s: RAM to CDROM transfer ignored", c.name())
	default:
		c.transferBlock(func(addr uint32) {
			c.mem.WriteWord(addr, c.cdrom.ReadDataWord())
		})
	}
	c.complete()
}

// --- OTC (channel 6) ---

// otcChannel clears an ordering table: each entry points at the previous
// word and the last one holds the end marker.
type otcChannel struct {
	channel
}

func (c *otcChannel) run() {
	if c.mem == nil {
		logger.Logf("dma", "%s: no memory attached", c.name())
		c.complete()
		return
	}
	addr := c.base & ramMask
	n := c.wordCount()
	for i := 0; i < n; i++ {
		next := (addr - 4) & ramMask
		if i == n-1 {
			next = listEnd
		}
		c.mem.WriteWord(addr, next)
		addr = (addr - 4) & ramMask
	}
	c.complete()
}
