package protocol

import "github.com/howeyc/crc16"

const CRC5Mask = 0x1F

// CRC5 computes the five bit checksum carried by command frames.
func CRC5(data []byte) byte {
	return CRC5Bits(data, len(data)*8)
}

// CRC5Bits runs the checksum over the first bitCount bits of data, most significant bit first.
// Chip responses cover the three flag bits that share the checksum byte.
func CRC5Bits(data []byte, bitCount int) byte {
	var c1 byte
	c := [5]byte{1, 1, 1, 1, 1}
	if bitCount > len(data)*8 {
		bitCount = len(data) * 8
	}
	for i := 0; i < bitCount; i++ {
		c1 = c[1]
		c[1] = c[0]
		c[0] = c[4] ^ ((data[i/8] >> (7 - uint(i%8))) & 1)
		c[4] = c[3]
		c[3] = c[2]
		c[2] = c1 ^ c[0]
	}
	return ((c[4] << 4) | (c[3] << 3) | (c[2] << 2) | (c[1] << 1) | c[0]) & CRC5Mask
}

// CRC16 is CRC-16/CCITT-FALSE, appended big-endian to job frames.
func CRC16(data []byte) uint16 {
	return crc16.ChecksumCCITTFalse(data)
}
