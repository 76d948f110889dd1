package emu

// fifoDepth is the capacity of each CDROM FIFO.
const fifoDepth = 16

// fifo is a fixed 16 entry byte queue. Pushes to a full queue are dropped.
type fifo struct {
	buf  [fifoDepth]uint8
	head int
	n    int
}

func (f *fifo) push(v uint8) bool {
	if f.n >= fifoDepth {
		return false
	}
	f.buf[(f.head+f.n)%fifoDepth] = v
	f.n++
	return true
}

// pop removes the front entry. An empty queue returns 0.
func (f *fifo) pop() uint8 {
	if f.n == 0 {
		return 0
	}
	v := f.buf[f.head]
	f.head = (f.head + 1) % fifoDepth
	f.n--
	return v
}

func (f *fifo) peek() uint8 {
	if f.n == 0 {
		return 0
	}
	return f.buf[f.head]
}

func (f *fifo) len() int    { return f.n }
func (f *fifo) empty() bool { return f.n == 0 }
func (f *fifo) full() bool  { return f.n >= fifoDepth }

func (f *fifo) clear() {
	f.head = 0
	f.n = 0
}

// cdromStatus is the index/status register at 1F801800.
//
//	bits 0-1  register bank index
//	bit  2    ADPBUSY  XA-ADPCM playing
//	bit  3    PRMEMPT  parameter FIFO empty
//	bit  4    PRMWRDY  parameter FIFO not full
//	bit  5    RSLRRDY  response FIFO not empty
//	bit  6    DRQSTS   data FIFO not empty
//	bit  7    BUSYSTS  command busy
type cdromStatus uint8

const cdromStatusReset cdromStatus = 0x18

func (s cdromStatus) index() int          { return int(s & 3) }
func (s cdromStatus) paramEmpty() bool    { return s&(1<<3) != 0 }
func (s cdromStatus) paramWritable() bool { return s&(1<<4) != 0 }
func (s cdromStatus) responseReady() bool { return s&(1<<5) != 0 }
func (s cdromStatus) dataReady() bool     { return s&(1<<6) != 0 }

func (s *cdromStatus) setIndex(v uint8)         { *s = *s&^3 | cdromStatus(v&3) }
func (s *cdromStatus) setParamEmpty(on bool)    { s.set(3, on) }
func (s *cdromStatus) setParamWritable(on bool) { s.set(4, on) }
func (s *cdromStatus) setResponseReady(on bool) { s.set(5, on) }
func (s *cdromStatus) setDataReady(on bool)     { s.set(6, on) }

func (s *cdromStatus) set(bit uint, on bool) {
	if on {
		*s |= 1 << bit
	} else {
		*s &^= 1 << bit
	}
}

// driveState is the one-hot activity encoded in status bits 5-7.
type driveState uint8

const (
	stateIdle driveState = iota
	stateReading
	stateSeeking
	statePlaying
)

// driveStatus is the stat byte returned by most commands.
//
//	bit 0  error
//	bit 1  motor on
//	bit 2  seek error
//	bit 3  id error
//	bit 4  shell open
//	bit 5  reading
//	bit 6  seeking
//	bit 7  playing
type driveStatus uint8

const (
	statError     driveStatus = 1 << 0
	statMotor     driveStatus = 1 << 1
	statSeekError driveStatus = 1 << 2
	statIDError   driveStatus = 1 << 3
	statShellOpen driveStatus = 1 << 4
	statReading   driveStatus = 1 << 5
	statSeeking   driveStatus = 1 << 6
	statPlaying   driveStatus = 1 << 7

	statModeMask  = statReading | statSeeking | statPlaying
	statErrorMask = statError | statSeekError | statIDError
)

func (d driveStatus) motor() bool     { return d&statMotor != 0 }
func (d driveStatus) shellOpen() bool { return d&statShellOpen != 0 }

func (d driveStatus) mode() driveState {
	switch {
	case d&statReading != 0:
		return stateReading
	case d&statSeeking != 0:
		return stateSeeking
	case d&statPlaying != 0:
		return statePlaying
	}
	return stateIdle
}

// setMode selects the drive activity and clears the error bits. Any
// activity other than idle spins the motor up.
func (d *driveStatus) setMode(m driveState) {
	*d &^= statModeMask | statErrorMask
	switch m {
	case stateReading:
		*d |= statReading | statMotor
	case stateSeeking:
		*d |= statSeeking | statMotor
	case statePlaying:
		*d |= statPlaying | statMotor
	}
}

func (d *driveStatus) setMotor(on bool) {
	if on {
		*d |= statMotor
	} else {
		*d &^= statMotor
	}
}

// setShellOpen opens or closes the lid. Opening stops the drive and
// clears the error bits; closing only flips the shell bit.
func (d *driveStatus) setShellOpen(open bool) {
	if !open {
		*d &^= statShellOpen
		return
	}
	*d |= statShellOpen
	d.setMode(stateIdle)
}

// driveMode is the Setmode register.
//
//	bit 0  CD-DA
//	bit 1  auto pause
//	bit 2  report
//	bit 3  XA filter
//	bit 4  ignore bit
//	bit 5  sector size (0: 0x800, 1: 0x924)
//	bit 6  XA-ADPCM
//	bit 7  double speed
type driveMode uint8

func (m driveMode) report() bool      { return m&(1<<2) != 0 }
func (m driveMode) rawSectors() bool  { return m&(1<<5) != 0 }
func (m driveMode) doubleSpeed() bool { return m&(1<<7) != 0 }
