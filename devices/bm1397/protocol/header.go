package protocol

import "strings"

type Header byte

const (
	TypeJob Header = 0x20
	TypeCmd Header = 0x40

	GroupSingle Header = 0x00
	GroupAll    Header = 0x10

	CmdSetAddress Header = 0x00
	CmdWrite      Header = 0x01
	CmdRead       Header = 0x02
	CmdInactive   Header = 0x03
)

const (
	typeMask   Header = 0x60
	groupMask  Header = 0x10
	cmdMask    Header = 0x0F
	unusedMask Header = 0x80
)

const (
	ResponseCmd = 0x00
	ResponseJob = 0x80
)

func (h Header) IsJob() bool {
	return h&typeMask == TypeJob
}

func (h Header) IsCommand() bool {
	return h&typeMask == TypeCmd
}

func (h Header) Broadcast() bool {
	return h&groupMask == GroupAll
}

func (h Header) Operation() Header {
	return h & cmdMask
}

// Valid reports whether exactly one frame class is selected and the operation is known.
func (h Header) Valid() bool {
	if h&unusedMask != 0 {
		return false
	}
	if !h.IsJob() && !h.IsCommand() {
		return false
	}
	return h.Operation() <= CmdInactive
}

// ChecksumLen is the number of trailing checksum bytes for frames with this header.
func (h Header) ChecksumLen() int {
	if h.IsJob() {
		return 2
	}
	return 1
}

func (h Header) String() string {
	var parts []string
	switch {
	case h.IsJob():
		parts = append(parts, "job")
	case h.IsCommand():
		parts = append(parts, "cmd")
	default:
		parts = append(parts, "invalid")
	}
	if h.Broadcast() {
		parts = append(parts, "all")
	} else {
		parts = append(parts, "single")
	}
	switch h.Operation() {
	case CmdSetAddress:
		parts = append(parts, "setaddress")
	case CmdWrite:
		parts = append(parts, "write")
	case CmdRead:
		parts = append(parts, "read")
	case CmdInactive:
		parts = append(parts, "inactive")
	default:
		parts = append(parts, "unknown")
	}
	return strings.Join(parts, "/")
}
