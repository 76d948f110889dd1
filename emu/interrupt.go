package emu

// Interrupt identifies a line of the CPU's interrupt controller. Values are
// the I_STAT bit numbers.
type Interrupt uint8

const (
	IntVBlank Interrupt = 0
	IntGPU    Interrupt = 1
	IntCDROM  Interrupt = 2
	IntDMA    Interrupt = 3
)

func (i Interrupt) String() string {
	switch i {
	case IntVBlank:
		return "VBLANK"
	case IntGPU:
		return "GPU"
	case IntCDROM:
		return "CDROM"
	case IntDMA:
		return "DMA"
	}
	return "UNKNOWN"
}

// InterruptSink is the CPU interrupt controller as seen by the devices.
type InterruptSink interface {
	Trigger(id Interrupt)
}

// Memory provides word access to main RAM for DMA transfers.
type Memory interface {
	ReadWord(addr uint32) uint32
	WriteWord(addr uint32, val uint32)
}

type nopSink struct{}

func (nopSink) Trigger(Interrupt) {}
