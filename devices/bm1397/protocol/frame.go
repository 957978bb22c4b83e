package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	Preamble0 = 0x55
	Preamble1 = 0xAA

	frameOverhead = 4
	MaxPayloadLen = jobPacketHeaderLen + MaxMidstates*32
	MaxFrameLen   = frameOverhead + MaxPayloadLen + 2
)

var (
	ErrPayloadTooLong = errors.New("payload too long")
	ErrShortFrame     = errors.New("short frame")
	ErrBadPreamble    = errors.New("bad preamble")
	ErrBadHeader      = errors.New("bad header")
	ErrBadLength      = errors.New("bad length")
	ErrBadChecksum    = errors.New("bad checksum")
)

// FrameBuffer holds the largest frame the chip accepts, a job with four midstates.
type FrameBuffer [MaxFrameLen]byte

type Frame struct {
	Header  Header
	Payload []byte
}

// EncodeFrame writes the wire form of header and payload into buf and returns the used prefix.
func EncodeFrame(buf *FrameBuffer, header Header, payload []byte) ([]byte, error) {
	if !header.Valid() {
		return nil, ErrBadHeader
	}
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLong
	}
	crcLen := header.ChecksumLen()
	end := frameOverhead + len(payload)
	buf[0] = Preamble0
	buf[1] = Preamble1
	buf[2] = byte(header)
	buf[3] = byte(len(payload) + 2 + crcLen)
	copy(buf[frameOverhead:], payload)
	if header.IsJob() {
		binary.BigEndian.PutUint16(buf[end:], CRC16(buf[2:end]))
	} else {
		buf[end] = CRC5(buf[2:end])
	}
	return buf[:end+crcLen], nil
}

// DecodeFrame validates a complete outbound frame and returns its header and a copy of its payload.
func DecodeFrame(data []byte) (*Frame, error) {
	if len(data) < frameOverhead+1 {
		return nil, ErrShortFrame
	}
	if data[0] != Preamble0 || data[1] != Preamble1 {
		return nil, ErrBadPreamble
	}
	header := Header(data[2])
	if !header.Valid() {
		return nil, ErrBadHeader
	}
	crcLen := header.ChecksumLen()
	length := int(data[3])
	if length < 2+crcLen || length+2 != len(data) {
		return nil, ErrBadLength
	}
	end := len(data) - crcLen
	if header.IsJob() {
		if CRC16(data[2:end]) != binary.BigEndian.Uint16(data[end:]) {
			return nil, ErrBadChecksum
		}
	} else if data[end] != CRC5(data[2:end]) {
		return nil, ErrBadChecksum
	}
	return &Frame{Header: header, Payload: append([]byte{}, data[frameOverhead:end]...)}, nil
}

func (f *Frame) MarshalBinary() ([]byte, error) {
	var buf FrameBuffer
	data, err := EncodeFrame(&buf, f.Header, f.Payload)
	if err != nil {
		return nil, err
	}
	return append([]byte{}, data...), nil
}

func (f *Frame) UnmarshalBinary(data []byte) error {
	decoded, err := DecodeFrame(data)
	if err != nil {
		return err
	}
	*f = *decoded
	return nil
}

func (f *Frame) String() string {
	return fmt.Sprintf("%s %x", f.Header, f.Payload)
}
