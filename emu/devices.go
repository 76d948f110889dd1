package emu

import (
	"fmt"
	"strconv"

	"github.com/spf13/afero"
	emucore "github.com/user-none/eblitui/api"
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/logger"
)

// Compile-time interface checks.
var _ emucore.SaveStater = (*Devices)(nil)

// Core option keys accepted by SetOption.
const (
	OptionCommandLog  = "gpu_command_log"
	OptionSectorCache = "cdrom_sector_cache"
)

// Options configures a Devices instance at construction.
type Options struct {
	Region          Region
	SectorCacheSize int  // raw sectors kept by the CDROM, 0 disables the cache
	CommandLog      bool // record GP0 commands for debugging
}

// DefaultOptions returns NTSC timing with the default sector cache.
func DefaultOptions() Options {
	return Options{
		Region:          DefaultRegion(),
		SectorCacheSize: DefaultSectorCacheSize,
	}
}

// Devices owns the GPU, DMA controller and CDROM drive of one machine and
// steps them together.
type Devices struct {
	gpu   *GPU
	dma   *DMA
	cdrom *CDROM
	irq   InterruptSink

	region Region
	timing RegionTiming

	// GPU video clock is 11/7 of the CPU clock
	gpuCycleRem int

	image *disc.Image
}

// NewDevices creates and wires the three controllers. irq receives every
// device interrupt, mem backs DMA transfers and r rasterizes primitives.
func NewDevices(opts Options, irq InterruptSink, mem Memory, r Renderer) (*Devices, error) {
	if irq == nil {
		irq = nopSink{}
	}
	timing := GetTimingForRegion(opts.Region)

	gpu := NewGPU(timing, irq, r)
	gpu.EnableCommandLog(opts.CommandLog)

	cdrom, err := NewCDROM(timing, irq, opts.SectorCacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cdrom: %w", err)
	}

	return &Devices{
		gpu:    gpu,
		dma:    NewDMA(irq, mem, gpu, cdrom),
		cdrom:  cdrom,
		irq:    irq,
		region: opts.Region,
		timing: timing,
	}, nil
}

// GPU returns the graphics processor.
func (d *Devices) GPU() *GPU {
	return d.gpu
}

// DMA returns the DMA controller.
func (d *Devices) DMA() *DMA {
	return d.dma
}

// CDROM returns the disc controller.
func (d *Devices) CDROM() *CDROM {
	return d.cdrom
}

// Step advances every device by CPU cycles. It returns true when the GPU
// finished a frame, after IntVBlank has been raised.
func (d *Devices) Step(cycles int) bool {
	d.dma.Step()
	d.cdrom.Step(cycles)

	total := cycles*11 + d.gpuCycleRem
	d.gpuCycleRem = total % 7
	vblank := d.gpu.EmulateCycles(total / 7)
	d.gpu.Step()

	if vblank {
		d.irq.Trigger(IntVBlank)
	}
	return vblank
}

// Reset power-on resets every controller. The inserted disc is kept.
func (d *Devices) Reset() {
	d.gpu.Reset()
	d.dma.Reset()
	d.cdrom.Reset()
	d.gpuCycleRem = 0
}

// GetRegion returns the current region setting.
func (d *Devices) GetRegion() Region {
	return d.region
}

// GetTiming returns FPS and scanline count for the current region.
func (d *Devices) GetTiming() emucore.Timing {
	return emucore.Timing{
		FPS:       d.timing.FPS,
		Scanlines: d.timing.Scanlines,
	}
}

// SetRegion switches NTSC/PAL timing on the GPU and CDROM.
func (d *Devices) SetRegion(region Region) {
	d.region = region
	d.timing = GetTimingForRegion(region)
	d.gpu.SetTiming(d.timing)
	d.cdrom.SetTiming(d.timing)
}

// SetOption applies a core option change identified by key.
func (d *Devices) SetOption(key string, value string) {
	switch key {
	case OptionCommandLog:
		d.gpu.EnableCommandLog(value == "true")
	case OptionSectorCache:
		n, err := strconv.Atoi(value)
		if err != nil {
			logger.Logf("devices", "invalid %s value %q", key, value)
			return
		}
		if err := d.cdrom.SetSectorCacheSize(n); err != nil {
			logger.Logf("devices", "%s: %v", key, err)
		}
	default:
		logger.Logf("devices", "unknown option %q", key)
	}
}

// InsertDisc places d in the drive. Nil ejects the current disc. When the
// disc reports a licence string the region follows it.
func (d *Devices) InsertDisc(dc disc.Disc) {
	d.closeImage()
	d.cdrom.InsertDisc(dc)

	if l, ok := dc.(disc.Licenser); ok {
		if lic := l.License(); lic != "" {
			d.SetRegion(DetectRegion(lic))
			logger.Logf("devices", "disc licence %s, region %v", lic, d.region)
		}
	}
}

// LoadDisc opens an image file on fs and inserts it.
func (d *Devices) LoadDisc(fs afero.Fs, path string) error {
	img, err := disc.Open(fs, path)
	if err != nil {
		return err
	}
	d.InsertDisc(img)
	d.image = img

	logger.Logf("devices", "loaded %s: %d sectors", path, img.Sectors())
	return nil
}

// Close releases any disc image opened by LoadDisc.
func (d *Devices) Close() {
	d.closeImage()
}

func (d *Devices) closeImage() {
	if d.image == nil {
		return
	}
	if err := d.image.Close(); err != nil {
		logger.Logf("devices", "close disc image: %v", err)
	}
	d.image = nil
}
