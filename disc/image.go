package disc

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"
	"github.com/user-none/empsx/logger"
)

// Image is a single data track disc backed by one image file.
//
// Files whose size is a multiple of RawSectorSize are treated as raw
// (.bin) images. Otherwise a multiple of DataSectorSize is treated as a
// cooked (.iso) image and each sector is expanded to a raw Mode 2 Form 1
// frame on read.
type Image struct {
	file    afero.File
	raw     bool
	sectors int
	license string

	// scratch for cooked reads
	cooked [DataSectorSize]byte
}

// Compile-time interface checks.
var _ Disc = (*Image)(nil)
var _ Licenser = (*Image)(nil)

// Open opens name on fs as a disc image. When fs is the OS filesystem and
// the image is cooked, the licence region is detected from SYSTEM.CNF.
// ISO9660 parsing needs a real file path, so images on any other afero.Fs
// have no licence until SetLicense is called.
func Open(fs afero.Fs, name string) (*Image, error) {
	f, err := fs.Open(name)
	if err != nil {
		return nil, fmt.Errorf("open disc image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat disc image: %w", err)
	}

	size := info.Size()
	img := &Image{file: f}
	switch {
	case size > 0 && size%RawSectorSize == 0:
		img.raw = true
		img.sectors = int(size / RawSectorSize)
	case size > 0 && size%DataSectorSize == 0:
		img.sectors = int(size / DataSectorSize)
	default:
		f.Close()
		return nil, fmt.Errorf("disc image %s: size %d is not a whole number of sectors", name, size)
	}

	if _, ok := fs.(*afero.OsFs); ok && !img.raw {
		lic, err := DetectLicense(name)
		if err != nil {
			logger.Logf("disc", "licence detection failed for %s: %v", name, err)
		}
		img.license = lic
	}

	return img, nil
}

// Close releases the image file.
func (img *Image) Close() error {
	return img.file.Close()
}

// Raw reports whether the image stores full 2352 byte frames.
func (img *Image) Raw() bool {
	return img.raw
}

// Sectors returns the number of sectors in the image.
func (img *Image) Sectors() int {
	return img.sectors
}

// SetLicense overrides the licence string reported to GetID.
func (img *Image) SetLicense(lic string) {
	img.license = lic
}

// License implements Licenser.
func (img *Image) License() string {
	return img.license
}

// TOC implements Disc. The image holds one data track starting at LBA 0.
func (img *Image) TOC() TOC {
	return TOC{
		Tracks:  []Track{{Number: 1, Start: 0}},
		LeadOut: img.sectors,
	}
}

// ReadSector implements Disc.
func (img *Image) ReadSector(lba int, buf []byte) error {
	if len(buf) < RawSectorSize {
		return ErrShortBuffer
	}
	if lba < 0 || lba >= img.sectors {
		return fmt.Errorf("lba %d: %w", lba, ErrOutOfRange)
	}

	if img.raw {
		_, err := img.file.ReadAt(buf[:RawSectorSize], int64(lba)*RawSectorSize)
		return err
	}

	if _, err := img.file.ReadAt(img.cooked[:], int64(lba)*DataSectorSize); err != nil {
		return err
	}
	expandMode2Form1(buf[:RawSectorSize], lba, img.cooked[:])
	return nil
}

// expandMode2Form1 builds a raw frame around 2048 bytes of user data.
// EDC/ECC are left zero; the controller never checks them.
func expandMode2Form1(buf []byte, lba int, data []byte) {
	clear(buf)

	// sync pattern 00 FF*10 00
	for i := 1; i <= 10; i++ {
		buf[i] = 0xFF
	}

	m, s, f := FromLBA(lba).BCD()
	buf[HeaderOffset] = m
	buf[HeaderOffset+1] = s
	buf[HeaderOffset+2] = f
	buf[HeaderOffset+3] = 2 // mode 2

	// subheader (file, channel, submode, coding) stored twice; submode=data
	buf[18] = 0x08
	buf[22] = 0x08

	copy(buf[DataOffset:], data)
}

// ErrNoSystemCNF is returned when a cooked image has no SYSTEM.CNF.
var ErrNoSystemCNF = errors.New("SYSTEM.CNF not found")
