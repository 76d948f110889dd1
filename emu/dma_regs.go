package emu

// dmaInterrupt is the DICR register.
//
//	bits 0-5   unused, read/write
//	bit  15    force IRQ
//	bits 16-22 per-channel completion enable
//	bit  23    master enable
//	bits 24-30 per-channel completion flags
//	bit  31    master flag (read only)
type dmaInterrupt uint32

func (d dmaInterrupt) forceIRQ() bool     { return d&(1<<15) != 0 }
func (d dmaInterrupt) enables() uint32    { return uint32(d>>16) & 0x7F }
func (d dmaInterrupt) masterEnable() bool { return d&(1<<23) != 0 }
func (d dmaInterrupt) flags() uint32      { return uint32(d>>24) & 0x7F }
func (d dmaInterrupt) masterFlag() bool   { return d&(1<<31) != 0 }

func (d dmaInterrupt) channelEnabled(ch int) bool {
	return d&(1<<(16+ch)) != 0
}

func (d *dmaInterrupt) setFlag(ch int) {
	*d |= 1 << (24 + ch)
}

func (d *dmaInterrupt) setMasterFlag(on bool) {
	if on {
		*d |= 1 << 31
	} else {
		*d &^= 1 << 31
	}
}

func (d dmaInterrupt) byteAt(i int) uint8 {
	return uint8(d >> (8 * i))
}

// writeByte stores byte i. The top byte acknowledges flags by writing 1s
// and never changes the master flag.
func (d *dmaInterrupt) writeByte(i int, v uint8) {
	if i == 3 {
		top := uint8(*d>>24) & (0x80 | (^v & 0x7F))
		*d = *d&0x00FFFFFF | dmaInterrupt(top)<<24
		return
	}
	shift := 8 * i
	*d = *d&^(0xFF<<shift) | dmaInterrupt(v)<<shift
}

// syncMode is the CHCR transfer synchronisation mode.
type syncMode uint32

const (
	syncManual     syncMode = 0 // whole block at once
	syncRequest    syncMode = 1 // blocks on device request
	syncLinkedList syncMode = 2 // GPU ordering table
)

// channelControl is a channel's CHCR register.
type channelControl uint32

func (c channelControl) fromRAM() bool   { return c&1 != 0 }
func (c channelControl) decrement() bool { return c&2 != 0 }
func (c channelControl) sync() syncMode  { return syncMode((c >> 9) & 3) }
func (c channelControl) enabled() bool   { return c&(1<<24) != 0 }
func (c channelControl) triggered() bool { return c&(1<<28) != 0 }

// active reports whether a transfer should start: enabled, and in manual
// mode also triggered.
func (c channelControl) active() bool {
	if !c.enabled() {
		return false
	}
	return c.sync() != syncManual || c.triggered()
}

// finish clears the enable and trigger bits.
func (c *channelControl) finish() {
	*c &^= 1<<24 | 1<<28
}
