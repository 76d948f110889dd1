// Package disc provides the disc-image side of the CD-ROM controller: the
// Disc interface the controller reads sectors through, the table of contents
// model, MSF/BCD addressing, and a single-track image provider.
package disc

import "errors"

const (
	RawSectorSize  = 2352 // full CD frame: sync + header + subheader + data + EDC/ECC
	DataSectorSize = 2048 // user data of a Mode 2 Form 1 sector
	DataOffset     = 24   // offset of user data inside a raw Mode 2 sector
	HeaderOffset   = 12   // offset of the MSF/mode header inside a raw sector

	// PregapSectors is the 2 second lead-in before LBA 0 (MSF 00:02:00).
	PregapSectors = 150
	// SectorsPerSecond is the CD frame rate at single speed.
	SectorsPerSecond = 75
)

var (
	ErrOutOfRange  = errors.New("sector out of range")
	ErrShortBuffer = errors.New("sector buffer too small")
)

// Disc is a read-only source of raw sectors and TOC metadata.
type Disc interface {
	// ReadSector fills buf with the RawSectorSize bytes at lba.
	ReadSector(lba int, buf []byte) error

	// TOC returns the table of contents.
	TOC() TOC
}

// Licenser is implemented by discs that know the licence string the drive
// reports for GetID ("SCEA", "SCEE" or "SCEI").
type Licenser interface {
	License() string
}

// Track describes one track on the disc.
type Track struct {
	Number int  // 1-based track number
	Start  int  // first LBA of the track
	Audio  bool // CD-DA track
}

// TOC is the disc's table of contents.
type TOC struct {
	Tracks  []Track
	LeadOut int // LBA of the lead-out (one past the last sector)
}

// FirstTrack returns the first track number, or 0 for an empty TOC.
func (t TOC) FirstTrack() int {
	if len(t.Tracks) == 0 {
		return 0
	}
	return t.Tracks[0].Number
}

// LastTrack returns the last track number, or 0 for an empty TOC.
func (t TOC) LastTrack() int {
	if len(t.Tracks) == 0 {
		return 0
	}
	return t.Tracks[len(t.Tracks)-1].Number
}

// Track returns the track with the given number.
func (t TOC) Track(number int) (Track, bool) {
	for _, tr := range t.Tracks {
		if tr.Number == number {
			return tr, true
		}
	}
	return Track{}, false
}

// TrackAt returns the track containing lba. Positions before the first
// track report the first track; positions past the lead-out report false.
func (t TOC) TrackAt(lba int) (Track, bool) {
	if len(t.Tracks) == 0 || lba >= t.LeadOut {
		return Track{}, false
	}
	found := t.Tracks[0]
	for _, tr := range t.Tracks[1:] {
		if lba < tr.Start {
			break
		}
		found = tr
	}
	return found, true
}
