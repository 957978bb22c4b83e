package utils

import (
	"encoding/binary"
	"math/bits"
)

// SwapUint32 returns a copy of data with the byte order of every 32-bit word reversed.
func SwapUint32(data []byte) []byte {
	ret := make([]byte, len(data))
	copy(ret, data)
	SwapUint32Bytes(ret)
	return ret
}

// SwapUint32Bytes reverses the byte order of every 32-bit word of data in place.
func SwapUint32Bytes(data []byte) {
	for i := 0; i+4 <= len(data); i += 4 {
		binary.BigEndian.PutUint32(data[i:], binary.LittleEndian.Uint32(data[i:]))
	}
}

func SwapUint64(value uint64) uint64 {
	return bits.ReverseBytes64(value)
}
