package utils

import (
	"github.com/btcsuite/btcd/blockchain"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/dustin/go-humanize"
	"math"
	"math/big"
	"strconv"
)

const MaxRawDifficulty = 1000

// DiffOne is the target of a difficulty 1 share.
var DiffOne = new(big.Int).Lsh(big.NewInt(0xFFFF), 208)

type Difficulty float64

func (d Difficulty) String() string {
	if d < MaxRawDifficulty {
		return strconv.FormatFloat(float64(d), 'f', 2, 64)
	} else {
		return humanize.SIWithDigits(float64(d), 2, "")
	}
}

// DifficultyTarget converts a pool difficulty into the largest acceptable hash value.
func DifficultyTarget(difficulty float64) *big.Int {
	if difficulty <= 0 || math.IsNaN(difficulty) {
		return new(big.Int).Set(DiffOne)
	}
	target := new(big.Float).SetInt(DiffOne)
	target.Quo(target, big.NewFloat(difficulty))
	result, _ := target.Int(nil)
	return result
}

// NetworkTarget expands the compact n-bits encoding of a block header.
func NetworkTarget(nbits uint32) *big.Int {
	return blockchain.CompactToBig(nbits)
}

// HashToBig interprets a double SHA-256 digest as the little-endian number compared against targets.
func HashToBig(hash [32]byte) *big.Int {
	h := chainhash.Hash(hash)
	return blockchain.HashToBig(&h)
}

// HashDifficulty is the share difficulty a digest satisfies.
func HashDifficulty(hash [32]byte) Difficulty {
	value := HashToBig(hash)
	if value.Sign() == 0 {
		return Difficulty(math.MaxFloat64)
	}
	diff := new(big.Float).SetInt(DiffOne)
	diff.Quo(diff, new(big.Float).SetInt(value))
	result, _ := diff.Float64()
	return Difficulty(result)
}

// HashString renders a digest the way block explorers display it.
func HashString(hash [32]byte) string {
	return chainhash.Hash(hash).String()
}
