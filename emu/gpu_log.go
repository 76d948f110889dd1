package emu

// CommandLogEntry is one executed GP0 command.
type CommandLogEntry struct {
	Opcode uint8
	Kind   string
	Args   []uint32
}

// maxCommandLog bounds the log so a forgotten toggle cannot grow without
// limit. The oldest half is dropped when full.
const maxCommandLog = 1 << 16

type commandLog struct {
	logEnabled bool
	entries    []CommandLogEntry
}

// EnableCommandLog turns GP0 command recording on or off.
func (l *commandLog) EnableCommandLog(on bool) {
	l.logEnabled = on
}

// CommandLogEnabled reports whether commands are being recorded.
func (l *commandLog) CommandLogEnabled() bool {
	return l.logEnabled
}

// CommandLog returns the recorded commands, oldest first.
func (l *commandLog) CommandLog() []CommandLogEntry {
	return append([]CommandLogEntry(nil), l.entries...)
}

// ClearCommandLog drops all recorded commands.
func (l *commandLog) ClearCommandLog() {
	l.entries = l.entries[:0]
}

func (l *commandLog) logCommand(kind gpuCommand, op uint8, args []uint32) {
	if !l.logEnabled {
		return
	}
	if len(l.entries) >= maxCommandLog {
		n := copy(l.entries, l.entries[maxCommandLog/2:])
		l.entries = l.entries[:n]
	}
	l.entries = append(l.entries, CommandLogEntry{
		Opcode: op,
		Kind:   kind.String(),
		Args:   append([]uint32(nil), args...),
	})
}
