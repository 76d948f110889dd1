package emu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// Save state format constants
const (
	stateVersion    = 1
	stateMagic      = "eMPSXState\x00\x00"
	stateHeaderSize = 18 // magic(12) + version(2) + dataCRC(4)
)

// devicesSerializeSize is the Devices inline state: gpuCycleRem(4).
const devicesSerializeSize = 4

// statePayloadSize is the uncompressed size of everything after the header.
const statePayloadSize = GPUSerializeSize + DMASerializeSize + CDROMSerializeSize + devicesSerializeSize

var (
	stateEncoder = sync.OnceValues(func() (*zstd.Encoder, error) {
		return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedFastest))
	})
	stateDecoder = sync.OnceValues(func() (*zstd.Decoder, error) {
		return zstd.NewReader(nil, zstd.WithDecoderMaxMemory(2*statePayloadSize))
	})
)

// boolByte converts a bool to a uint8 (0 or 1).
func boolByte(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

// Serialize creates a save state and returns it as a byte slice. The
// payload is zstd compressed; the CRC covers the uncompressed bytes.
func (d *Devices) Serialize() ([]byte, error) {
	payload := make([]byte, statePayloadSize)
	offset := 0

	// GPU
	if err := d.gpu.Serialize(payload[offset:]); err != nil {
		return nil, err
	}
	offset += GPUSerializeSize

	// DMA
	if err := d.dma.Serialize(payload[offset:]); err != nil {
		return nil, err
	}
	offset += DMASerializeSize

	// CDROM
	if err := d.cdrom.Serialize(payload[offset:]); err != nil {
		return nil, err
	}
	offset += CDROMSerializeSize

	// Devices inline state
	binary.LittleEndian.PutUint32(payload[offset:], uint32(d.gpuCycleRem))

	enc, err := stateEncoder()
	if err != nil {
		return nil, fmt.Errorf("save state encoder: %w", err)
	}

	data := make([]byte, stateHeaderSize, stateHeaderSize+statePayloadSize/8)
	copy(data[0:12], stateMagic)
	binary.LittleEndian.PutUint16(data[12:14], stateVersion)
	binary.LittleEndian.PutUint32(data[14:18], crc32.ChecksumIEEE(payload))

	return enc.EncodeAll(payload, data), nil
}

// Deserialize restores device state from a save state byte slice.
// Region and the inserted disc are NOT restored.
func (d *Devices) Deserialize(data []byte) error {
	payload, err := decodeState(data)
	if err != nil {
		return err
	}

	offset := 0

	// GPU
	if err := d.gpu.Deserialize(payload[offset:]); err != nil {
		return err
	}
	offset += GPUSerializeSize

	// DMA
	if err := d.dma.Deserialize(payload[offset:]); err != nil {
		return err
	}
	offset += DMASerializeSize

	// CDROM
	if err := d.cdrom.Deserialize(payload[offset:]); err != nil {
		return err
	}
	offset += CDROMSerializeSize

	// Devices inline state
	d.gpuCycleRem = int(binary.LittleEndian.Uint32(payload[offset:]) % 7)

	return nil
}

// VerifyState checks if a save state is valid without loading it.
func (d *Devices) VerifyState(data []byte) error {
	_, err := decodeState(data)
	return err
}

// decodeState validates the header, decompresses the payload and checks
// its size and CRC.
func decodeState(data []byte) ([]byte, error) {
	if len(data) < stateHeaderSize {
		return nil, errors.New("save state too short")
	}

	if string(data[0:12]) != stateMagic {
		return nil, errors.New("invalid save state magic")
	}

	version := binary.LittleEndian.Uint16(data[12:14])
	if version > stateVersion {
		return nil, errors.New("unsupported save state version")
	}

	dec, err := stateDecoder()
	if err != nil {
		return nil, fmt.Errorf("save state decoder: %w", err)
	}
	payload, err := dec.DecodeAll(data[stateHeaderSize:], make([]byte, 0, statePayloadSize))
	if err != nil {
		return nil, fmt.Errorf("save state data is corrupted: %w", err)
	}
	if len(payload) != statePayloadSize {
		return nil, fmt.Errorf("save state payload is %d bytes, expected %d", len(payload), statePayloadSize)
	}

	expectedCRC := binary.LittleEndian.Uint32(data[14:18])
	if crc32.ChecksumIEEE(payload) != expectedCRC {
		return nil, errors.New("save state data is corrupted")
	}

	return payload, nil
}
