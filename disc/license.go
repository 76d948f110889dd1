package disc

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	diskfs "github.com/diskfs/go-diskfs"
)

// Licence strings returned by the drive's GetID command.
const (
	LicenseAmerica = "SCEA"
	LicenseEurope  = "SCEE"
	LicenseJapan   = "SCEI"
)

// DetectLicense reads SYSTEM.CNF from the ISO9660 filesystem of a cooked
// image and maps the boot executable to the drive licence string.
func DetectLicense(path string) (string, error) {
	d, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		return "", fmt.Errorf("open iso: %w", err)
	}
	defer func() {
		if c, ok := any(d.File).(io.Closer); ok {
			c.Close()
		}
	}()

	fs, err := d.GetFilesystem(0)
	if err != nil {
		return "", fmt.Errorf("read iso filesystem: %w", err)
	}

	// Plain ISO9660 names keep their ";1" version suffix.
	var data []byte
	for _, name := range []string{"/SYSTEM.CNF", "/SYSTEM.CNF;1"} {
		f, err := fs.OpenFile(name, os.O_RDONLY)
		if err != nil {
			continue
		}
		data, err = io.ReadAll(f)
		f.Close()
		if err != nil {
			return "", fmt.Errorf("read SYSTEM.CNF: %w", err)
		}
		break
	}
	if data == nil {
		return "", ErrNoSystemCNF
	}

	return LicenseFromSystemCNF(data), nil
}

// LicenseFromSystemCNF extracts the BOOT executable from a SYSTEM.CNF and
// maps its product code prefix to a licence string. Unknown prefixes
// return "".
func LicenseFromSystemCNF(data []byte) string {
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), "=")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "BOOT") {
			continue
		}
		return licenseFromBootPath(strings.TrimSpace(value))
	}
	return ""
}

// licenseFromBootPath maps e.g. "cdrom:\SLUS_005.94;1" to "SCEA".
func licenseFromBootPath(boot string) string {
	if i := strings.LastIndexAny(boot, `\:/`); i >= 0 {
		boot = boot[i+1:]
	}
	boot = strings.ToUpper(boot)
	if len(boot) < 4 {
		return ""
	}

	switch boot[:4] {
	case "SCUS", "SLUS":
		return LicenseAmerica
	case "SCES", "SLES", "SCED", "SLED":
		return LicenseEurope
	case "SCPS", "SLPS", "SLPM", "SCPM", "SIPS", "PAPX":
		return LicenseJapan
	}
	return ""
}
