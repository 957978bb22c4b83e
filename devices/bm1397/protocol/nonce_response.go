package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	NonceResponseLen = 9
	ChipId           = 0x1397
)

// responseChecksumBits covers the six payload bytes and the flag bits above the checksum.
const responseChecksumBits = 51

var ErrResponseLen = errors.New("invalid response length")

// NonceResponse is the fixed nine byte reply a chip sends for a found nonce or a register read.
type NonceResponse struct {
	Nonce         uint32
	MidstateIndex byte
	JobId         byte
	Checksum      byte
}

func (nr *NonceResponse) UnmarshalBinary(data []byte) error {
	if len(data) != NonceResponseLen {
		return ErrResponseLen
	}
	if data[0] != ResponsePreamble[0] || data[1] != ResponsePreamble[1] {
		return ErrBadPreamble
	}
	if CRC5Bits(data[2:], responseChecksumBits) != data[8]&CRC5Mask {
		return ErrBadChecksum
	}
	nr.Nonce = binary.LittleEndian.Uint32(data[2:6])
	nr.MidstateIndex = data[6]
	nr.JobId = data[7]
	nr.Checksum = data[8]
	return nil
}

// MarshalBinary recomputes the checksum, keeping the flag bits of Checksum.
func (nr *NonceResponse) MarshalBinary() ([]byte, error) {
	data := make([]byte, NonceResponseLen)
	data[0] = ResponsePreamble[0]
	data[1] = ResponsePreamble[1]
	binary.LittleEndian.PutUint32(data[2:6], nr.Nonce)
	data[6] = nr.MidstateIndex
	data[7] = nr.JobId
	data[8] = nr.Checksum &^ CRC5Mask
	data[8] |= CRC5Bits(data[2:], responseChecksumBits)
	return data, nil
}

func (nr *NonceResponse) IsJob() bool {
	return nr.Checksum&ResponseJob != 0
}

// ChipId reads the identifier carried by a register read reply. The first two
// nonce bytes hold the chip model big-endian.
func (nr *NonceResponse) ChipId() uint16 {
	return uint16(nr.Nonce&0xff)<<8 | uint16(nr.Nonce>>8&0xff)
}

func (nr *NonceResponse) String() string {
	return fmt.Sprintf("nonce %08x job %d midstate %d", nr.Nonce, nr.JobId, nr.MidstateIndex)
}
