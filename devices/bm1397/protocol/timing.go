package protocol

import (
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"time"
)

const (
	NumCores   = 672
	NonceSpace = float64(1 << 32)
)

// Timing returns the aggregate hash rate of the chain and the time it needs to
// exhaust the nonce space of one job.
func Timing(chipCount int, frequency float64, numCores int) (utils.HashRate, time.Duration) {
	hashRate := float64(chipCount) * frequency * float64(numCores) * 1000000.0
	if hashRate <= 0 {
		return 0, 0
	}
	fullscanDuration := time.Duration(NonceSpace / hashRate * float64(time.Second))
	return utils.HashRate(hashRate), fullscanDuration
}
