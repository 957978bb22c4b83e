package utils

import (
	"github.com/dustin/go-humanize"
	"strconv"
)

const MaxRawHashRate = 1000

type HashRate float64

func (h HashRate) String() string {
	if h < MaxRawHashRate {
		return strconv.FormatFloat(float64(h), 'f', -1, 64)
	} else {
		return humanize.SIWithDigits(float64(h), 2, "H/s")
	}
}

// Fraction is the share of h the dividend represents.
func (h HashRate) Fraction(dividend HashRate) float64 {
	if h == 0 {
		return 0
	}
	return float64(dividend) / float64(h)
}

// DifficultyRate converts difficulty accumulated over seconds into a hash rate.
func DifficultyRate(difficulty float64, seconds float64) HashRate {
	if seconds <= 0 {
		return 0
	}
	return HashRate(difficulty * 4294967296.0 / seconds)
}
