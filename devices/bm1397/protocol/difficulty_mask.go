package protocol

import "math/bits"

// LargestPowerOfTwo returns the largest power of two not above n, and 1 for n <= 1.
func LargestPowerOfTwo(n uint64) uint64 {
	if n <= 1 {
		return 1
	}
	return 1 << uint(bits.Len64(n)-1)
}

// DifficultyMask rounds difficulty down to a power of two and returns that power minus one.
func DifficultyMask(difficulty uint64) uint32 {
	if difficulty > 1<<32 {
		return 0xFFFFFFFF
	}
	return uint32(LargestPowerOfTwo(difficulty) - 1)
}

// MaskDifficulty is the share difficulty every nonce passing mask is worth.
func MaskDifficulty(mask uint32) uint64 {
	return uint64(mask) + 1
}

// NewDifficultyMask writes the ticket mask register. With reverseBits every mask byte is
// bit-reversed before transmission.
func NewDifficultyMask(difficulty uint64, reverseBits bool) *Frame {
	return NewWriteRegister(RegTicketMask, MaskRegister(DifficultyMask(difficulty), reverseBits))
}

func MaskRegister(mask uint32, reverseBits bool) [4]byte {
	var value [4]byte
	for i := 0; i < 4; i++ {
		b := byte(mask >> (8 * uint(i)))
		if reverseBits {
			b = bits.Reverse8(b)
		}
		value[3-i] = b
	}
	return value
}
