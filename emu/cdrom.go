package emu

import (
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/logger"
)

// Interrupt types queued in the CDROM interrupt FIFO.
const (
	intDataReady   = 1 // INT1 sector data ready
	intComplete    = 2 // INT2 second response
	intAcknowledge = 3 // INT3 first response
	intDataEnd     = 4 // INT4 end of disc reached
	intError       = 5 // INT5 error
)

// Error codes sent after stat|1 in an INT5 response.
const (
	errSeekFailed      = 0x04
	errDoorOpen        = 0x08
	errInvalidParam    = 0x10
	errWrongParamCount = 0x20
	errInvalidCommand  = 0x40
	errNotReady        = 0x80
)

// Raw sector layout as delivered in 0x924 byte mode.
const (
	rawDataStart  = disc.HeaderOffset
	rawDataSize   = 0x924
	userDataStart = disc.DataOffset
	userDataSize  = disc.DataSectorSize
)

// CDROM volume matrix indexes.
const (
	volLeftToLeft = iota
	volLeftToRight
	volRightToLeft
	volRightToRight
)

// CDROM is the disc controller behind 1F801800-1F801803. Commands are
// answered through a response FIFO and an interrupt FIFO; sector data
// streams into a buffer read by the CPU or DMA channel 3.
type CDROM struct {
	status     cdromStatus
	stat       driveStatus
	mode       driveMode
	intEnable  uint8
	params     fifo
	response   fifo
	interrupts fifo

	// irqSignaled is set once the interrupt FIFO head has been delivered
	// and cleared when the host acknowledges it.
	irqSignaled bool

	seekTarget    int
	setlocPending bool
	sector        int // next sector to read or play
	sectorTimer   int

	filterFile    uint8
	filterChannel uint8
	muted         bool

	data     [rawDataSize]byte
	dataLen  int
	dataPos  int
	header   [8]byte // header and subheader of the last sector read
	haveLast bool

	volStage [4]uint8
	volume   [4]uint8

	timing RegionTiming
	disc   disc.Disc
	cache  *sectorCache
	irq    InterruptSink
}

// NewCDROM creates a controller with an empty drive. cacheSize sectors
// are kept in the LRU sector cache; zero disables it.
func NewCDROM(timing RegionTiming, irq InterruptSink, cacheSize int) (*CDROM, error) {
	if irq == nil {
		irq = nopSink{}
	}
	cache, err := newSectorCache(cacheSize)
	if err != nil {
		return nil, err
	}
	c := &CDROM{
		timing: timing,
		irq:    irq,
		cache:  cache,
	}
	c.Reset()
	return c, nil
}

// Reset restores the power-on state. The inserted disc is kept.
func (c *CDROM) Reset() {
	c.status = cdromStatusReset
	if c.disc == nil {
		c.stat = statShellOpen
	} else {
		c.stat = statMotor
	}
	c.mode = 0
	c.intEnable = 0
	c.params.clear()
	c.response.clear()
	c.interrupts.clear()
	c.irqSignaled = false

	c.seekTarget = 0
	c.setlocPending = false
	c.sector = 0
	c.sectorTimer = 0
	c.filterFile = 0
	c.filterChannel = 0
	c.muted = false

	c.dataLen = 0
	c.dataPos = 0
	c.haveLast = false

	c.volStage = [4]uint8{0x80, 0, 0, 0x80}
	c.volume = c.volStage
}

// SetTiming switches the timing table used for sector pacing.
func (c *CDROM) SetTiming(t RegionTiming) {
	c.timing = t
}

// SetSectorCacheSize replaces the sector cache. Zero disables caching.
func (c *CDROM) SetSectorCacheSize(size int) error {
	cache, err := newSectorCache(size)
	if err != nil {
		return err
	}
	c.cache = cache
	return nil
}

// CachedSectors returns the number of sectors held in the cache.
func (c *CDROM) CachedSectors() int {
	return c.cache.len()
}

// InsertDisc places d in the drive and closes the lid. A nil disc empties
// the drive and leaves the lid open.
func (c *CDROM) InsertDisc(d disc.Disc) {
	c.disc = d
	c.cache.purge()
	c.haveLast = false
	if d == nil {
		c.SetShell(true)
		return
	}
	c.SetShell(false)
	c.stat.setMotor(true)
}

// Disc returns the inserted disc, or nil.
func (c *CDROM) Disc() disc.Disc {
	return c.disc
}

// SetShell opens or closes the drive lid. Opening stops any activity
// and clears the error bits.
func (c *CDROM) SetShell(open bool) {
	c.stat.setShellOpen(open)
}

// Shell reports whether the lid is open.
func (c *CDROM) Shell() bool {
	return c.stat.shellOpen()
}

// ToggleShell flips the lid state.
func (c *CDROM) ToggleShell() {
	c.SetShell(!c.Shell())
}

// Volume returns the applied CD audio volume matrix (L->L, L->R, R->L, R->R).
func (c *CDROM) Volume() [4]uint8 {
	return c.volume
}

// --- Ports ---

// Read returns the byte at register addr (0-3) in the current bank.
func (c *CDROM) Read(addr uint32) uint8 {
	switch addr {
	case 0:
		return uint8(c.status)
	case 1:
		return c.readResponse()
	case 2:
		return c.readDataByte()
	case 3:
		if c.status.index()&1 == 0 {
			return 0xE0 | c.intEnable
		}
		return 0xE0 | c.interrupts.peek()&0x1F
	}
	logger.Logf("cdrom", "read from unmapped register %d", addr)
	return 0
}

// Write stores v to register addr (0-3) in the current bank.
func (c *CDROM) Write(addr uint32, v uint8) {
	idx := c.status.index()
	switch addr {
	case 0:
		c.status.setIndex(v)
	case 1:
		switch idx {
		case 0:
			c.command(v)
		case 1, 2:
			// sound map data/coding: XA-ADPCM output is not emulated
		case 3:
			c.volStage[volRightToRight] = v
		}
	case 2:
		switch idx {
		case 0:
			c.writeParam(v)
		case 1:
			c.intEnable = v & 0x1F
		case 2:
			c.volStage[volLeftToLeft] = v
		case 3:
			c.volStage[volRightToLeft] = v
		}
	case 3:
		switch idx {
		case 0:
			c.request(v)
		case 1:
			c.acknowledge(v)
		case 2:
			c.volStage[volLeftToRight] = v
		case 3:
			if v&0x20 != 0 {
				c.volume = c.volStage
			}
		}
	default:
		logger.Logf("cdrom", "write 0x%02x to unmapped register %d", v, addr)
	}
}

// --- FIFOs ---

func (c *CDROM) writeParam(v uint8) {
	if !c.params.push(v) {
		logger.Logf("cdrom", "parameter FIFO full, dropped 0x%02x", v)
		return
	}
	c.status.setParamEmpty(false)
	c.status.setParamWritable(!c.params.full())
}

// readParam pops the front parameter.
func (c *CDROM) readParam() uint8 {
	v := c.params.pop()
	c.status.setParamEmpty(c.params.empty())
	c.status.setParamWritable(true)
	return v
}

func (c *CDROM) clearParams() {
	c.params.clear()
	c.status.setParamEmpty(true)
	c.status.setParamWritable(true)
}

// writeResponse queues a response byte. Bytes past 16 are dropped.
func (c *CDROM) writeResponse(v uint8) {
	if !c.response.push(v) {
		return
	}
	c.status.setResponseReady(true)
}

func (c *CDROM) readResponse() uint8 {
	if c.response.empty() {
		return 0
	}
	v := c.response.pop()
	if c.response.empty() {
		c.status.setResponseReady(false)
	}
	return v
}

func (c *CDROM) pushInterrupt(t uint8) {
	if !c.interrupts.push(t) {
		logger.Logf("cdrom", "interrupt FIFO full, dropped INT%d", t)
	}
}

// acknowledge handles writes to the interrupt flag register. Writing 1s
// to bits 0-4 retires the head interrupt; bit 6 clears the parameters.
func (c *CDROM) acknowledge(v uint8) {
	if v&0x1F != 0 && !c.interrupts.empty() {
		c.interrupts.pop()
		c.irqSignaled = false
	}
	if v&0x40 != 0 {
		c.clearParams()
	}
}

// PendingInterrupt returns the interrupt type at the head of the FIFO, or 0.
func (c *CDROM) PendingInterrupt() uint8 {
	return c.interrupts.peek()
}

// --- Data path ---

// request handles the request register. Bit 7 loads the data FIFO from
// the current sector buffer; clearing it empties the FIFO.
func (c *CDROM) request(v uint8) {
	if v&0x80 != 0 {
		if c.dataLen > 0 {
			c.dataPos = 0
			c.status.setDataReady(true)
		}
		return
	}
	c.dataPos = c.dataLen
	c.status.setDataReady(false)
}

func (c *CDROM) readDataByte() uint8 {
	if c.dataPos >= c.dataLen {
		return 0
	}
	v := c.data[c.dataPos]
	c.dataPos++
	if c.dataPos >= c.dataLen {
		c.status.setDataReady(false)
	}
	return v
}

// ReadDataWord returns the next four data bytes, little endian. Used by
// DMA channel 3.
func (c *CDROM) ReadDataWord() uint32 {
	var v uint32
	for i := 0; i < 4; i++ {
		v |= uint32(c.readDataByte()) << (8 * i)
	}
	return v
}

// loadSector copies the host visible part of a raw sector into the data
// buffer according to the sector size mode.
func (c *CDROM) loadSector(raw []byte) {
	if c.mode.rawSectors() {
		c.dataLen = copy(c.data[:], raw[rawDataStart:rawDataStart+rawDataSize])
	} else {
		c.dataLen = copy(c.data[:], raw[userDataStart:userDataStart+userDataSize])
	}
	c.dataPos = 0
	copy(c.header[:], raw[disc.HeaderOffset:disc.HeaderOffset+8])
	c.haveLast = true
}

// AckMoreData signals that a sector is ready: DRQSTS is set, INT1 is
// queued and the status byte is sent as its response.
func (c *CDROM) AckMoreData() {
	c.status.setDataReady(true)
	c.pushInterrupt(intDataReady)
	c.writeResponse(uint8(c.stat))
}

// --- Stepping ---

// sectorCycles returns CPU cycles between sectors at the current speed.
func (c *CDROM) sectorCycles() int {
	n := c.timing.CPUClockHz / disc.SectorsPerSecond
	if c.mode.doubleSpeed() {
		n /= 2
	}
	return n
}

// Step advances sector streaming by CPU cycles and delivers the head of
// the interrupt FIFO when it is enabled and not yet signalled.
func (c *CDROM) Step(cycles int) {
	c.stepSector(cycles)

	if c.irqSignaled || c.interrupts.empty() {
		return
	}
	if c.intEnable&c.interrupts.peek() != 0 {
		c.irq.Trigger(IntCDROM)
		c.irqSignaled = true
	}
}

func (c *CDROM) stepSector(cycles int) {
	m := c.stat.mode()
	if (m != stateReading && m != statePlaying) || c.disc == nil {
		return
	}
	c.sectorTimer -= cycles
	if c.sectorTimer > 0 {
		return
	}
	c.sectorTimer += c.sectorCycles()
	if c.sectorTimer <= 0 {
		c.sectorTimer = c.sectorCycles()
	}
	c.deliverSector(m)
}

func (c *CDROM) deliverSector(m driveState) {
	if c.sector >= c.disc.TOC().LeadOut {
		c.stat.setMode(stateIdle)
		c.writeResponse(uint8(c.stat))
		c.pushInterrupt(intDataEnd)
		return
	}

	if m == statePlaying {
		c.sector++
		if c.mode.report() {
			c.pushInterrupt(intDataReady)
			c.writeResponse(uint8(c.stat))
		}
		return
	}

	raw, err := c.cache.read(c.disc, c.sector)
	if err != nil {
		logger.Logf("cdrom", "read sector %d: %v", c.sector, err)
		c.stat.setMode(stateIdle)
		c.stat |= statIDError
		c.errorResponse(errSeekFailed)
		return
	}
	c.loadSector(raw)
	c.sector++
	c.AckMoreData()
}

// Position returns the next sector to be read or played.
func (c *CDROM) Position() int {
	return c.sector
}
