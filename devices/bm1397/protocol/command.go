package protocol

const (
	RegChipAddress        = 0x00
	RegPLL0Parameter      = 0x08
	RegTicketMask         = 0x14
	RegMiscControl        = 0x18
	RegOrderedClockEnable = 0x20
	RegFastUARTConfig     = 0x28
	RegCoreRegControl     = 0x3C
	RegPLL3Parameter      = 0x68
	RegPLL0Divider        = 0x70
	RegClockOrderControl0 = 0x80
	RegClockOrderControl1 = 0x84
)

func NewChainInactive() *Frame {
	return &Frame{Header: TypeCmd | GroupAll | CmdInactive, Payload: []byte{0x00, 0x00}}
}

func NewSetAddress(address byte) *Frame {
	return &Frame{Header: TypeCmd | GroupSingle | CmdSetAddress, Payload: []byte{address, 0x00}}
}

func NewReadAddress() *Frame {
	return &Frame{Header: TypeCmd | GroupAll | CmdRead, Payload: []byte{0x00, RegChipAddress}}
}

// NewWriteRegister broadcasts a register write to every chip on the chain.
func NewWriteRegister(register byte, value [4]byte) *Frame {
	return &Frame{
		Header:  TypeCmd | GroupAll | CmdWrite,
		Payload: []byte{0x00, register, value[0], value[1], value[2], value[3]},
	}
}
