package emu

import (
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empsx/disc"
)

// Region is an alias for emucore.Region so hosts can pass theirs directly.
type Region = emucore.Region

const (
	RegionNTSC = emucore.RegionNTSC
	RegionPAL  = emucore.RegionPAL
)

// RegionTiming holds timing constants for a specific region.
// The GPU video clock runs at 11/7 of the CPU clock.
type RegionTiming struct {
	CPUClockHz    int // R3000A clock frequency
	Scanlines     int // Total scanlines per frame
	VBlankStart   int // First scanline of vertical blank
	CyclesPerLine int // GPU video clock cycles per scanline
	FPS           int // Frames per second
}

// NTSC timing: 33.8688 MHz, 263 scanlines, 60 Hz
var NTSCTiming = RegionTiming{
	CPUClockHz:    33868800,
	Scanlines:     263,
	VBlankStart:   243,
	CyclesPerLine: 3413,
	FPS:           60,
}

// PAL timing: 33.8688 MHz, 314 scanlines, 50 Hz
var PALTiming = RegionTiming{
	CPUClockHz:    33868800,
	Scanlines:     314,
	VBlankStart:   292,
	CyclesPerLine: 3406,
	FPS:           50,
}

// GetTimingForRegion returns the appropriate timing constants
func GetTimingForRegion(r Region) RegionTiming {
	if r == RegionPAL {
		return PALTiming
	}
	return NTSCTiming
}

// DetectRegion maps a drive licence string to the display timing region.
// Only European discs run at PAL timing.
func DetectRegion(license string) Region {
	if license == disc.LicenseEurope {
		return RegionPAL
	}
	return RegionNTSC
}

// DefaultRegion returns the default region (NTSC).
func DefaultRegion() Region {
	return RegionNTSC
}
