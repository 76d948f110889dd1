package disc

import "fmt"

// MSF is a minute/second/frame disc address in binary (not BCD) form.
type MSF struct {
	M, S, F uint8
}

// FromLBA converts a logical block address to an absolute MSF. LBA 0 is
// MSF 00:02:00.
func FromLBA(lba int) MSF {
	total := lba + PregapSectors
	if total < 0 {
		total = 0
	}
	return MSF{
		M: uint8(total / (60 * SectorsPerSecond)),
		S: uint8((total / SectorsPerSecond) % 60),
		F: uint8(total % SectorsPerSecond),
	}
}

// FromBCDBytes builds an MSF from three BCD encoded bytes as sent by Setloc.
func FromBCDBytes(m, s, f uint8) MSF {
	return MSF{M: FromBCD(m), S: FromBCD(s), F: FromBCD(f)}
}

// LBA converts the absolute MSF back to a logical block address.
func (m MSF) LBA() int {
	return (int(m.M)*60+int(m.S))*SectorsPerSecond + int(m.F) - PregapSectors
}

// BCD returns the three fields BCD encoded.
func (m MSF) BCD() (uint8, uint8, uint8) {
	return ToBCD(m.M), ToBCD(m.S), ToBCD(m.F)
}

func (m MSF) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", m.M, m.S, m.F)
}

// ToBCD encodes 0-99 as packed BCD.
func ToBCD(v uint8) uint8 {
	return (v/10)<<4 | v%10
}

// FromBCD decodes a packed BCD byte.
func FromBCD(b uint8) uint8 {
	return (b>>4)*10 + b&0x0F
}

// ValidBCD reports whether both nibbles are decimal digits.
func ValidBCD(b uint8) bool {
	return b>>4 <= 9 && b&0x0F <= 9
}
