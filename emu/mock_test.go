package emu

import "github.com/user-none/empsx/disc"

// recordingSink counts interrupts per line.
type recordingSink struct {
	counts map[Interrupt]int
	order  []Interrupt
}

func newRecordingSink() *recordingSink {
	return &recordingSink{counts: make(map[Interrupt]int)}
}

func (s *recordingSink) Trigger(id Interrupt) {
	s.counts[id]++
	s.order = append(s.order, id)
}

// mockMemory is word addressed RAM backed by a map.
type mockMemory struct {
	data map[uint32]uint32
}

func newMockMemory() *mockMemory {
	return &mockMemory{data: make(map[uint32]uint32)}
}

func (m *mockMemory) ReadWord(addr uint32) uint32 {
	return m.data[addr&^3]
}

func (m *mockMemory) WriteWord(addr uint32, val uint32) {
	m.data[addr&^3] = val
}

// recordingRenderer keeps every primitive it is handed.
type recordingRenderer struct {
	triangles [][3]Vertex
	lines     [][2]Vertex
	states    []DrawState
}

func (r *recordingRenderer) DrawTriangle(_ *VRAM, s DrawState, v [3]Vertex) {
	r.triangles = append(r.triangles, v)
	r.states = append(r.states, s)
}

func (r *recordingRenderer) DrawLine(_ *VRAM, s DrawState, v [2]Vertex) {
	r.lines = append(r.lines, v)
	r.states = append(r.states, s)
}

// fakeDisc is an in-memory single track disc. Each sector's user data
// starts with the low byte of its LBA.
type fakeDisc struct {
	sectors int
	license string
	reads   int
}

func (d *fakeDisc) ReadSector(lba int, buf []byte) error {
	if lba < 0 || lba >= d.sectors {
		return disc.ErrOutOfRange
	}
	d.reads++
	clear(buf[:disc.RawSectorSize])
	m, s, f := disc.FromLBA(lba).BCD()
	buf[disc.HeaderOffset] = m
	buf[disc.HeaderOffset+1] = s
	buf[disc.HeaderOffset+2] = f
	buf[disc.HeaderOffset+3] = 2
	buf[disc.DataOffset] = byte(lba)
	buf[disc.DataOffset+1] = 0xA5
	return nil
}

func (d *fakeDisc) TOC() disc.TOC {
	return disc.TOC{
		Tracks:  []disc.Track{{Number: 1, Start: 0}},
		LeadOut: d.sectors,
	}
}

func (d *fakeDisc) License() string {
	return d.license
}
