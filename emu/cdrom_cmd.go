package emu

import (
	"github.com/user-none/empsx/disc"
	"github.com/user-none/empsx/logger"
)

// cdromCommand is one entry of the command table. params is the minimum
// number of parameter bytes the command needs.
type cdromCommand struct {
	name   string
	params int
	run    func(c *CDROM)
}

var cdromCommands = map[uint8]cdromCommand{
	0x01: {"Getstat", 0, (*CDROM).cmdGetstat},
	0x02: {"Setloc", 3, (*CDROM).cmdSetloc},
	0x03: {"Play", 0, (*CDROM).cmdPlay},
	0x06: {"ReadN", 0, (*CDROM).cmdRead},
	0x07: {"MotorOn", 0, (*CDROM).cmdMotorOn},
	0x08: {"Stop", 0, (*CDROM).cmdStop},
	0x09: {"Pause", 0, (*CDROM).cmdPause},
	0x0A: {"Init", 0, (*CDROM).cmdInit},
	0x0B: {"Mute", 0, (*CDROM).cmdMute},
	0x0C: {"Demute", 0, (*CDROM).cmdDemute},
	0x0D: {"Setfilter", 2, (*CDROM).cmdSetfilter},
	0x0E: {"Setmode", 1, (*CDROM).cmdSetmode},
	0x10: {"GetlocL", 0, (*CDROM).cmdGetlocL},
	0x11: {"GetlocP", 0, (*CDROM).cmdGetlocP},
	0x12: {"SetSession", 1, (*CDROM).cmdSetSession},
	0x13: {"GetTN", 0, (*CDROM).cmdGetTN},
	0x14: {"GetTD", 1, (*CDROM).cmdGetTD},
	0x15: {"SeekL", 0, (*CDROM).cmdSeek},
	0x16: {"SeekP", 0, (*CDROM).cmdSeek},
	0x19: {"Test", 1, (*CDROM).cmdTest},
	0x1A: {"GetID", 0, (*CDROM).cmdGetID},
	0x1B: {"ReadS", 0, (*CDROM).cmdRead},
	0x1E: {"ReadTOC", 0, (*CDROM).cmdReadTOC},
}

// lookupCommand returns the table entry for cmd. The secret unlock
// commands 0x50-0x57 share one entry.
func lookupCommand(cmd uint8) (cdromCommand, bool) {
	if cmd >= 0x50 && cmd <= 0x57 {
		return cdromCommand{"Unlock", 0, (*CDROM).cmdUnlock}, true
	}
	e, ok := cdromCommands[cmd]
	return e, ok
}

// command dispatches a write to the command register. The parameter FIFO
// is empty afterwards whatever the outcome.
func (c *CDROM) command(cmd uint8) {
	e, ok := lookupCommand(cmd)
	switch {
	case !ok:
		logger.Logf("cdrom", "unknown command 0x%02x", cmd)
		c.errorResponse(errInvalidCommand)
	case c.params.len() < e.params:
		logger.Logf("cdrom", "%s: need %d parameters, got %d", e.name, e.params, c.params.len())
		c.errorResponse(errWrongParamCount)
	default:
		e.run(c)
	}
	c.clearParams()
}

// --- Responses ---

func (c *CDROM) ack() {
	c.writeResponse(uint8(c.stat))
	c.pushInterrupt(intAcknowledge)
}

func (c *CDROM) complete() {
	c.writeResponse(uint8(c.stat))
	c.pushInterrupt(intComplete)
}

func (c *CDROM) errorResponse(code uint8) {
	c.writeResponse(uint8(c.stat | statError))
	c.writeResponse(code)
	c.pushInterrupt(intError)
}

// discReady answers INT5 and returns false when no disc can be accessed.
func (c *CDROM) discReady() bool {
	switch {
	case c.stat.shellOpen():
		c.errorResponse(errDoorOpen)
		return false
	case c.disc == nil:
		c.errorResponse(errNotReady)
		return false
	}
	return true
}

// applySetloc moves to the Setloc target if one is pending.
func (c *CDROM) applySetloc() {
	if c.setlocPending {
		c.sector = c.seekTarget
		c.setlocPending = false
	}
}

// --- Commands ---

func (c *CDROM) cmdGetstat() {
	c.ack()
}

// cmdSetloc latches a BCD minute/second/frame target for the next read,
// play or seek.
func (c *CDROM) cmdSetloc() {
	m, s, f := c.readParam(), c.readParam(), c.readParam()
	if !disc.ValidBCD(m) || !disc.ValidBCD(s) || !disc.ValidBCD(f) ||
		disc.FromBCD(s) >= 60 || disc.FromBCD(f) >= disc.SectorsPerSecond {
		c.errorResponse(errInvalidParam)
		return
	}
	c.seekTarget = disc.FromBCDBytes(m, s, f).LBA()
	c.setlocPending = true
	c.ack()
}

// cmdPlay starts CD audio at an optional BCD track, otherwise at the
// Setloc target or the current position.
func (c *CDROM) cmdPlay() {
	if !c.discReady() {
		return
	}
	track := uint8(0)
	if !c.params.empty() {
		track = disc.FromBCD(c.readParam())
	}
	if track > 0 {
		if t, ok := c.disc.TOC().Track(int(track)); ok {
			c.sector = t.Start
			c.setlocPending = false
		}
	} else {
		c.applySetloc()
	}
	c.ack()
	c.stat.setMode(statePlaying)
	c.sectorTimer = c.sectorCycles()
}

// cmdRead serves ReadN and ReadS. INT1 follows for every sector.
func (c *CDROM) cmdRead() {
	if !c.discReady() {
		return
	}
	c.applySetloc()
	c.ack()
	c.stat.setMode(stateReading)
	c.sectorTimer = c.sectorCycles()
}

func (c *CDROM) cmdMotorOn() {
	c.ack()
	c.stat.setMotor(true)
	c.complete()
}

func (c *CDROM) cmdStop() {
	c.ack()
	c.stat.setMode(stateIdle)
	c.stat.setMotor(false)
	c.complete()
}

func (c *CDROM) cmdPause() {
	c.ack()
	c.stat.setMode(stateIdle)
	c.complete()
}

func (c *CDROM) cmdInit() {
	c.ack()
	c.mode = 0
	c.stat.setMode(stateIdle)
	c.stat.setMotor(true)
	c.complete()
}

func (c *CDROM) cmdMute() {
	c.muted = true
	c.ack()
}

func (c *CDROM) cmdDemute() {
	c.muted = false
	c.ack()
}

func (c *CDROM) cmdSetfilter() {
	c.filterFile = c.readParam()
	c.filterChannel = c.readParam()
	c.ack()
}

func (c *CDROM) cmdSetmode() {
	c.mode = driveMode(c.readParam())
	c.ack()
}

// cmdGetlocL returns the header and subheader of the last sector read.
func (c *CDROM) cmdGetlocL() {
	if !c.haveLast {
		c.errorResponse(errNotReady)
		return
	}
	for _, b := range c.header {
		c.writeResponse(b)
	}
	c.pushInterrupt(intAcknowledge)
}

// cmdGetlocP returns track, index, relative and absolute BCD positions.
func (c *CDROM) cmdGetlocP() {
	if !c.discReady() {
		return
	}
	pos := c.sector
	t, ok := c.disc.TOC().TrackAt(pos)
	if !ok {
		t = disc.Track{Number: c.disc.TOC().LastTrack()}
	}
	rel := disc.FromLBA(pos - t.Start - disc.PregapSectors)
	rm, rs, rf := rel.BCD()
	am, as, af := disc.FromLBA(pos).BCD()
	for _, b := range []uint8{disc.ToBCD(uint8(t.Number)), 0x01, rm, rs, rf, am, as, af} {
		c.writeResponse(b)
	}
	c.pushInterrupt(intAcknowledge)
}

// cmdSetSession accepts session 1 only.
func (c *CDROM) cmdSetSession() {
	if c.readParam() != 1 {
		c.errorResponse(errInvalidParam)
		return
	}
	c.ack()
	c.complete()
}

func (c *CDROM) cmdGetTN() {
	if !c.discReady() {
		return
	}
	toc := c.disc.TOC()
	c.writeResponse(uint8(c.stat))
	c.writeResponse(disc.ToBCD(uint8(toc.FirstTrack())))
	c.writeResponse(disc.ToBCD(uint8(toc.LastTrack())))
	c.pushInterrupt(intAcknowledge)
}

// cmdGetTD returns the BCD start minute and second of a track. Track 0 is
// the lead-out.
func (c *CDROM) cmdGetTD() {
	p := c.readParam()
	if !c.discReady() {
		return
	}
	toc := c.disc.TOC()
	var lba int
	if n := int(disc.FromBCD(p)); n == 0 {
		lba = toc.LeadOut
	} else if t, ok := toc.Track(n); ok && disc.ValidBCD(p) {
		lba = t.Start
	} else {
		c.errorResponse(errInvalidParam)
		return
	}
	m, s, _ := disc.FromLBA(lba).BCD()
	c.writeResponse(uint8(c.stat))
	c.writeResponse(m)
	c.writeResponse(s)
	c.pushInterrupt(intAcknowledge)
}

// cmdSeek serves SeekL and SeekP. The seek completes at once.
func (c *CDROM) cmdSeek() {
	if !c.discReady() {
		return
	}
	c.ack()
	c.stat.setMode(stateSeeking)
	c.sector = c.seekTarget
	c.setlocPending = false
	c.stat.setMode(stateIdle)
	c.complete()
}

// cmdTest supports sub-function 0x20, the controller BIOS date.
func (c *CDROM) cmdTest() {
	switch c.readParam() {
	case 0x20:
		for _, b := range []uint8{0x94, 0x09, 0x19, 0xC0} {
			c.writeResponse(b)
		}
		c.pushInterrupt(intAcknowledge)
	default:
		c.errorResponse(errInvalidParam)
	}
}

// cmdGetID reports a licensed Mode 2 data disc with its region string.
func (c *CDROM) cmdGetID() {
	if !c.discReady() {
		return
	}
	c.ack()

	lic := disc.LicenseAmerica
	if l, ok := c.disc.(disc.Licenser); ok && len(l.License()) == 4 {
		lic = l.License()
	}
	c.writeResponse(uint8(c.stat))
	c.writeResponse(0x00)
	c.writeResponse(0x20)
	c.writeResponse(0x00)
	for i := 0; i < 4; i++ {
		c.writeResponse(lic[i])
	}
	c.pushInterrupt(intComplete)
}

func (c *CDROM) cmdReadTOC() {
	if !c.discReady() {
		return
	}
	c.ack()
	c.complete()
}

func (c *CDROM) cmdUnlock() {
	c.errorResponse(errInvalidCommand)
}
